package enrich

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/cran"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/github"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/librariesio"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/pypi"
	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/ownership"
)

var ssb = ownership.Org{Namespace: "github.com/statisticsnorway", EmailDomain: "ssb.no"}

func upstream(t *testing.T, routes map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := routes[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		if body == "500" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server
}

func noDelay() integrations.Option { return integrations.WithDelay(0) }

func TestPyPI(t *testing.T) {
	server := upstream(t, map[string]string{
		"/ssb-klass-python/json": `{"info":{"author":"","author_email":"Statistics Norway <stat@ssb.no>"}}`,
		"/anonymous/json":        `{"info":{}}`,
		"/broken/json":           "500",
	})
	e := &PyPI{Client: pypi.NewClient(server.URL, nil, time.Hour, noDelay()), Org: ssb}
	ctx := context.Background()

	out := e.Enrich(ctx, model.RawSearchRecord{Name: "SSB_Klass_Python", Platform: "pypi"})
	require.Equal(t, StatusOK, out.Status, out.Err)
	assert.Equal(t, "Statistics Norway", out.Result.OwnerName)
	assert.Equal(t, "stat@ssb.no", out.Result.OwnerEmail)
	assert.Equal(t, "https://pypi.org/project/ssb-klass-python/", out.Result.Homepage)
	assert.True(t, out.Result.Internal)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "anonymous"})
	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, model.UnknownOwner, out.Result.OwnerName)
	assert.False(t, out.Result.Internal)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "missing"})
	assert.Equal(t, StatusNotFound, out.Status)
	assert.ErrorIs(t, out.Err, integrations.ErrNotFound)
	assert.Equal(t, model.EnrichmentResult{
		OwnerName: model.NotAvailable,
		Homepage:  "https://pypi.org/project/missing/",
	}, out.Result)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "broken"})
	assert.Equal(t, StatusFailed, out.Status)
	assert.True(t, pkgerrors.Is(out.Err, pkgerrors.ErrCodeHTTPStatus))
	assert.Equal(t, model.NotAvailable, out.Result.OwnerName)
	assert.Equal(t, "https://pypi.org/project/broken/", out.Result.Homepage)
}

func TestCRAN(t *testing.T) {
	server := upstream(t, map[string]string{
		"/web/packages/my.pkg/DESCRIPTION":  "Package: my.pkg\nMaintainer: Kari Nordmann <a@ssb.no>\n",
		"/web/packages/noMaint/DESCRIPTION": "Package: noMaint\n",
		"/web/packages/my-pkg/DESCRIPTION":  "Package: my-pkg\nMaintainer: Ola Nordmann <a@ssb.no>\n",
	})
	e := &CRAN{Client: cran.NewClient(server.URL, nil, time.Hour, noDelay()), Org: ssb}
	ctx := context.Background()

	out := e.Enrich(ctx, model.RawSearchRecord{Name: "my.pkg", Platform: "cran"})
	require.Equal(t, StatusOK, out.Status, out.Err)
	assert.Equal(t, model.EnrichmentResult{
		OwnerName:  "Kari Nordmann",
		OwnerEmail: "a@ssb.no",
		Homepage:   "https://cran.r-project.org/package=my.pkg",
		Internal:   true,
	}, out.Result)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "my-pkg", Platform: "cran"})
	require.Equal(t, StatusOK, out.Status, out.Err)
	assert.Equal(t, model.EnrichmentResult{
		OwnerName:  "Ola Nordmann",
		OwnerEmail: "a@ssb.no",
		Homepage:   "https://cran.r-project.org/package=my-pkg",
		Internal:   true,
	}, out.Result)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "noMaint"})
	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, model.UnknownOwner, out.Result.OwnerName)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "klassR"})
	assert.Equal(t, StatusNotFound, out.Status)
	assert.Equal(t, model.NotAvailable, out.Result.OwnerName)
	assert.Equal(t, "https://cran.r-project.org/package=klassR", out.Result.Homepage)
}

func TestOwner(t *testing.T) {
	server := upstream(t, map[string]string{
		"/pypi/ssb-datadoc": `{"homepage":"https://ssb.no","owner":{"login":"statisticsnorway","type":"Organization"}}`,
		"/cran/orphan":      `{"homepage":""}`,
	})
	e := &Owner{Client: librariesio.NewClient(server.URL, "key", nil, time.Hour, noDelay()), Org: ssb}
	ctx := context.Background()

	out := e.Enrich(ctx, model.RawSearchRecord{Name: "ssb-datadoc", Platform: "Pypi"})
	require.Equal(t, StatusOK, out.Status, out.Err)
	assert.Equal(t, "statisticsnorway", out.Result.OwnerName)
	assert.Equal(t, "https://ssb.no", out.Result.Homepage)
	assert.True(t, out.Result.Internal)

	out = e.Enrich(ctx, model.RawSearchRecord{Name: "orphan", Platform: "CRAN"})
	assert.Equal(t, StatusOK, out.Status)
	assert.Equal(t, model.UnknownOwner, out.Result.OwnerName)
	assert.False(t, out.Result.Internal)
}

func TestGitHub(t *testing.T) {
	server := upstream(t, map[string]string{
		"/repos/statisticsnorway/dapla-toolbelt": `{"owner":{"login":"statisticsnorway","type":"Organization"}}`,
		"/repos/someone/fork":                    `{"owner":{"login":"someone","type":"User"}}`,
	})
	e := &GitHub{Client: github.NewClient(server.URL, "", nil, time.Hour, noDelay()), Org: ssb}
	ctx := context.Background()

	out := e.Enrich(ctx, model.RawSearchRecord{RepositoryURL: "https://github.com/statisticsnorway/dapla-toolbelt"})
	require.Equal(t, StatusOK, out.Status, out.Err)
	assert.Equal(t, "statisticsnorway", out.Result.OwnerName)
	assert.True(t, out.Result.Internal)

	out = e.Enrich(ctx, model.RawSearchRecord{RepositoryURL: "https://github.com/someone/fork"})
	assert.False(t, out.Result.Internal)

	out = e.Enrich(ctx, model.RawSearchRecord{RepositoryURL: ""})
	assert.Equal(t, StatusSkipped, out.Status)
	assert.Equal(t, model.NotAvailable, out.Result.OwnerName)

	out = e.Enrich(ctx, model.RawSearchRecord{RepositoryURL: "https://github.com/statisticsnorway/deleted"})
	assert.Equal(t, StatusNotFound, out.Status)
}

type stubEnricher struct {
	out   Outcome
	panic bool
	calls int
}

func (s *stubEnricher) Enrich(context.Context, model.RawSearchRecord) Outcome {
	s.calls++
	if s.panic {
		panic("boom")
	}
	return s.out
}

func TestSetDispatch(t *testing.T) {
	py := &stubEnricher{out: Outcome{Result: model.EnrichmentResult{OwnerName: "py"}}}
	cr := &stubEnricher{panic: true}
	s := &Set{strategy: "test", byPlatform: map[string]Enricher{"pypi": py, "cran": cr}}
	ctx := context.Background()

	out := s.Enrich(ctx, model.RawSearchRecord{Name: "a", Platform: "Pypi"})
	assert.Equal(t, "py", out.Result.OwnerName)
	assert.Equal(t, 1, py.calls)

	out = s.Enrich(ctx, model.RawSearchRecord{Name: "b", Platform: "cran"})
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, model.NotAvailable, out.Result.OwnerName)
	assert.True(t, pkgerrors.Is(out.Err, pkgerrors.ErrCodeInternal))

	out = s.Enrich(ctx, model.RawSearchRecord{Name: "c", Platform: "npm"})
	assert.Equal(t, StatusSkipped, out.Status)
	assert.True(t, pkgerrors.Is(out.Err, pkgerrors.ErrCodeInvalidPlatform))
	assert.Equal(t, "test", s.Strategy())
}

func TestNewSet(t *testing.T) {
	src := Sources{
		PyPI:        pypi.NewClient("", nil, time.Hour),
		CRAN:        cran.NewClient("", nil, time.Hour),
		LibrariesIO: librariesio.NewClient("", "key", nil, time.Hour),
		GitHub:      github.NewClient("", "", nil, time.Hour),
		Org:         ssb,
	}

	s, err := NewSet("", src)
	require.NoError(t, err)
	assert.Equal(t, StrategyRegistry, s.Strategy())
	e, ok := s.For("pypi")
	require.True(t, ok)
	assert.IsType(t, &PyPI{}, e)
	e, ok = s.For("CRAN")
	require.True(t, ok)
	assert.IsType(t, &CRAN{}, e)

	s, err = NewSet(StrategyOwner, src)
	require.NoError(t, err)
	e, _ = s.For("cran")
	assert.IsType(t, &Owner{}, e)

	s, err = NewSet(StrategyGitHub, src)
	require.NoError(t, err)
	e, _ = s.For("pypi")
	assert.IsType(t, &GitHub{}, e)

	_, err = NewSet("scrape", src)
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput))

	_, err = NewSet(StrategyGitHub, Sources{})
	assert.True(t, pkgerrors.Is(err, pkgerrors.ErrCodeInvalidInput))
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOK.String())
	assert.Equal(t, "not_found", StatusNotFound.String())
	assert.Equal(t, "failed", StatusFailed.String())
	assert.Equal(t, "skipped", StatusSkipped.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
