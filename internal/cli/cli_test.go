package cli

import (
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/statisticsnorway/pkgdash/internal/fakeregistry"
	"github.com/statisticsnorway/pkgdash/pkg/config"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/snapshot"
)

func newTestCLI() *CLI {
	return New(io.Discard, LogInfo)
}

// clearEnv unsets the variables loadConfig reads so the host environment
// does not leak into a test.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"LIBRARIESIO_API_KEY", "PKGDASH_API_KEY",
		"GITHUB_TOKEN", "PKGDASH_GITHUB_TOKEN",
		"PKGDASH_STRATEGY", "PKGDASH_PLATFORMS", "PKGDASH_TERMS", "PKGDASH_OUTPUT",
	} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func subcommand(t *testing.T, root *cobra.Command, name string) *cobra.Command {
	t.Helper()
	for _, cmd := range root.Commands() {
		if cmd.Name() == name {
			return cmd
		}
	}
	t.Fatalf("no %q subcommand", name)
	return nil
}

func TestRootCommand(t *testing.T) {
	root := newTestCLI().RootCommand()

	var names []string
	for _, cmd := range root.Commands() {
		names = append(names, cmd.Name())
	}
	for _, want := range []string{"fetch", "render", "summary", "cache", "completion"} {
		assert.Contains(t, names, want)
	}
	assert.NotNil(t, root.PersistentFlags().Lookup("config"))
	assert.NotNil(t, root.PersistentFlags().Lookup("env-file"))
}

func TestFetchHidesUpstreamFlags(t *testing.T) {
	fetch := subcommand(t, newTestCLI().RootCommand(), "fetch")
	for _, name := range []string{keyLibrariesIOURL, keyPyPIURL, keyCRANURL, keyGitHubURL} {
		f := fetch.Flags().Lookup(name)
		require.NotNil(t, f, name)
		assert.True(t, f.Hidden, name)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARIESIO_API_KEY", "env-key")

	c := newTestCLI()
	fetch := subcommand(t, c.RootCommand(), "fetch")
	require.NoError(t, fetch.ParseFlags(nil))

	cfg, err := c.loadConfig(fetch)
	require.NoError(t, err)

	d := config.Default()
	assert.Equal(t, "env-key", cfg.APIKey)
	assert.Equal(t, d.Terms, cfg.Terms)
	assert.Equal(t, d.Platforms, cfg.Platforms)
	assert.Equal(t, d.Strategy, cfg.Strategy)
	assert.Equal(t, d.Delay, cfg.Delay)
	assert.Equal(t, d.Timeout, cfg.Timeout)
	assert.Equal(t, d.Output, cfg.Output)
	assert.Equal(t, config.CacheNone, cfg.Cache.Backend)
	require.NoError(t, cfg.Validate())
}

func TestLoadConfigPrecedence(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "pkgdash.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`api-key: file-key
terms: [statisticsnorway, ssb]
platforms: [cran]
strategy: github
delay: 2s
output: from-file.csv
`), 0o644))

	t.Setenv("PKGDASH_STRATEGY", "owner")

	c := newTestCLI()
	root := c.RootCommand()
	require.NoError(t, root.PersistentFlags().Set("config", path))
	fetch := subcommand(t, root, "fetch")
	require.NoError(t, fetch.ParseFlags([]string{"--platforms", "pypi", "-o", "from-flag.csv"}))

	cfg, err := c.loadConfig(fetch)
	require.NoError(t, err)

	assert.Equal(t, "file-key", cfg.APIKey)
	assert.Equal(t, []string{"statisticsnorway", "ssb"}, cfg.Terms, "config file over defaults")
	assert.Equal(t, "owner", cfg.Strategy, "environment over config file")
	assert.Equal(t, []string{"pypi"}, cfg.Platforms, "flag over config file")
	assert.Equal(t, "from-flag.csv", cfg.Output, "flag over config file")
	assert.Equal(t, 2*time.Second, cfg.Delay)
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	c := newTestCLI()
	root := c.RootCommand()
	require.NoError(t, root.PersistentFlags().Set("config", filepath.Join(t.TempDir(), "missing.yaml")))
	fetch := subcommand(t, root, "fetch")
	require.NoError(t, fetch.ParseFlags(nil))

	_, err := c.loadConfig(fetch)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput), "got %v", err)
}

func TestLoadConfigEnvFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("LIBRARIESIO_API_KEY=dotenv-key\nGITHUB_TOKEN=dotenv-token\n"), 0o644))

	c := newTestCLI()
	root := c.RootCommand()
	require.NoError(t, root.PersistentFlags().Set("env-file", path))
	fetch := subcommand(t, root, "fetch")
	require.NoError(t, fetch.ParseFlags(nil))

	cfg, err := c.loadConfig(fetch)
	require.NoError(t, err)
	assert.Equal(t, "dotenv-key", cfg.APIKey)
	assert.Equal(t, "dotenv-token", cfg.GitHubToken)
}

func TestLoadConfigMissingEnvFile(t *testing.T) {
	clearEnv(t)
	c := newTestCLI()
	root := c.RootCommand()
	require.NoError(t, root.PersistentFlags().Set("env-file", filepath.Join(t.TempDir(), "nope.env")))
	fetch := subcommand(t, root, "fetch")

	_, err := c.loadConfig(fetch)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeFileNotFound), "got %v", err)
}

func seedRegistry(reg *fakeregistry.Registry) {
	reg.AddSearch("pypi",
		model.RawSearchRecord{
			Name:                     "ssb-klass-python",
			Platform:                 "Pypi",
			RepositoryURL:            "https://github.com/statisticsnorway/ssb-klass-python",
			LatestReleaseNumber:      "1.1.0",
			LatestReleasePublishedAt: "2024-06-01T10:00:00Z",
		},
		model.RawSearchRecord{
			Name:          "external-tool",
			Platform:      "Pypi",
			RepositoryURL: "https://github.com/someone/statisticsnorway-helper",
		},
	)
	reg.AddSearch("cran", model.RawSearchRecord{
		Name:        "my-pkg",
		Platform:    "CRAN",
		Description: "statisticsnorway tools",
	})
	reg.AddPyPI("ssb-klass-python", "Statistics Norway", "stat@ssb.no")
	reg.AddCRAN("my-pkg", "Package: my-pkg\nMaintainer: Ola Nordmann <a@ssb.no>\n")
}

func fetchArgs(serverURL, dir string, extra ...string) []string {
	args := []string{
		"fetch",
		"--" + keyLibrariesIOURL, serverURL + fakeregistry.LibrariesIOPath,
		"--" + keyPyPIURL, serverURL + fakeregistry.PyPIPath,
		"--" + keyCRANURL, serverURL + fakeregistry.CRANPath,
		"--" + keyGitHubURL, serverURL + fakeregistry.GitHubPath,
		"--" + keyDelay, "0s",
		"-o", filepath.Join(dir, "results.csv"),
	}
	return append(args, extra...)
}

func TestFetchCommand(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARIESIO_API_KEY", "key")

	reg := fakeregistry.New("key")
	seedRegistry(reg)
	server := httptest.NewServer(reg)
	defer server.Close()

	dir := t.TempDir()
	root := newTestCLI().RootCommand()
	root.SetArgs(fetchArgs(server.URL, dir, "--html", filepath.Join(dir, "index.html")))
	root.SetOut(io.Discard)
	require.NoError(t, root.ExecuteContext(context.Background()))

	records, err := snapshot.ReadFile(filepath.Join(dir, "results.csv"))
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "ssb-klass-python", records[0].Name)
	assert.Equal(t, "Statistics Norway", records[0].OwnerName)
	assert.Equal(t, "my-pkg", records[1].Name)
	assert.Equal(t, "Ola Nordmann", records[1].OwnerName)

	html, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "ssb-klass-python")
	assert.NotContains(t, string(html), "external-tool")
}

func TestFetchCommandMissingAPIKey(t *testing.T) {
	clearEnv(t)

	reg := fakeregistry.New("key")
	server := httptest.NewServer(reg)
	defer server.Close()

	dir := t.TempDir()
	root := newTestCLI().RootCommand()
	root.SetArgs(fetchArgs(server.URL, dir))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeConfigMissing), "got %v", err)
	assert.Empty(t, reg.Requests())
	assert.NoFileExists(t, filepath.Join(dir, "results.csv"))
}

func TestFetchCommandUpstreamFailure(t *testing.T) {
	clearEnv(t)
	t.Setenv("LIBRARIESIO_API_KEY", "wrong")

	reg := fakeregistry.New("key")
	seedRegistry(reg)
	server := httptest.NewServer(reg)
	defer server.Close()

	dir := t.TempDir()
	root := newTestCLI().RootCommand()
	root.SetArgs(fetchArgs(server.URL, dir))
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)

	err := root.ExecuteContext(context.Background())
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "wrong", "API key must not leak into errors")
	assert.NoFileExists(t, filepath.Join(dir, "results.csv"))
}

func sampleRecords() []model.CanonicalRecord {
	downloaded := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	updated := time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)
	return []model.CanonicalRecord{
		{
			Name:          "ssb-klass-python",
			Platform:      "pypi",
			LatestVersion: "1.1.0",
			LastUpdated:   &updated,
			OwnerName:     "Statistics Norway",
			Stars:         12,
			Internal:      true,
			DownloadedAt:  downloaded,
		},
		{
			Name:         "my-pkg",
			Platform:     "cran",
			OwnerName:    "Ola Nordmann",
			Internal:     true,
			DownloadedAt: downloaded,
		},
		{
			Name:         "dapla-toolbelt",
			Platform:     "pypi",
			OwnerName:    model.NotAvailable,
			Internal:     true,
			DownloadedAt: downloaded,
		},
	}
}

func TestSummaryTable(t *testing.T) {
	records := sampleRecords()

	all := summaryTable(records, 0)
	for _, r := range records {
		assert.Contains(t, all, r.Name)
	}
	assert.Contains(t, all, "2024-06-01")
	assert.Contains(t, all, "Package")

	limited := summaryTable(records, 1)
	assert.Contains(t, limited, "ssb-klass-python")
	assert.NotContains(t, limited, "my-pkg")
}

func TestPlatformCounts(t *testing.T) {
	got := platformCounts(sampleRecords())
	assert.Equal(t, []platformCount{{platform: "pypi", count: 2}, {platform: "cran", count: 1}}, got)
	assert.Empty(t, platformCounts(nil))
}

func TestRunRender(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "results.csv")
	require.NoError(t, snapshot.WriteFile(input, sampleRecords()))

	require.NoError(t, runRender(input, renderOpts{title: "SSB packages"}))

	html, err := os.ReadFile(filepath.Join(dir, "index.html"))
	require.NoError(t, err)
	page := string(html)
	assert.Contains(t, page, "<title>SSB packages</title>")
	assert.Contains(t, page, "dapla-toolbelt")
}

func TestRunRenderCustomTemplate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "results.csv")
	require.NoError(t, snapshot.WriteFile(input, sampleRecords()))
	tmpl := filepath.Join(dir, "page.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte(`{{.Title}}: {{.Count}}`), 0o644))
	output := filepath.Join(dir, "out", "page.html")

	require.NoError(t, runRender(input, renderOpts{output: output, title: "T", template: tmpl}))

	html, err := os.ReadFile(output)
	require.NoError(t, err)
	assert.Equal(t, "T: 3", strings.TrimSpace(string(html)))
}

func TestRunRenderMissingSnapshot(t *testing.T) {
	err := runRender(filepath.Join(t.TempDir(), "missing.csv"), renderOpts{})
	require.Error(t, err)
}
