package cli

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/statisticsnorway/pkgdash/pkg/config"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
)

// Configuration keys. They double as flag names, config file keys and, with
// the PKGDASH_ prefix and dashes turned into underscores, env variable names.
const (
	keyAPIKey         = "api-key"
	keyGitHubToken    = "github-token"
	keyLibrariesIOURL = "librariesio-url"
	keyPyPIURL        = "pypi-url"
	keyCRANURL        = "cran-url"
	keyGitHubURL      = "github-url"
	keyTerms          = "terms"
	keyPlatforms      = "platforms"
	keyStrategy       = "strategy"
	keyPagination     = "pagination"
	keyNamespace      = "namespace"
	keyEmailDomain    = "email-domain"
	keyTestPrefixes   = "test-prefixes"
	keyPolicy         = "policy"
	keyDelay          = "delay"
	keyTimeout        = "timeout"
	keyOutput         = "output"
	keyCache          = "cache"
	keyCacheDir       = "cache-dir"
	keyCacheTTL       = "cache-ttl"
	keyRedisAddr      = "redis-addr"
	keyRedisPassword  = "redis-password"
	keyRedisDB        = "redis-db"
)

// addRunFlags registers the run settings on cmd. Defaults come from
// [config.Default].
func addRunFlags(cmd *cobra.Command) {
	d := config.Default()
	f := cmd.Flags()

	f.StringSlice(keyTerms, d.Terms, "search terms, unioned")
	f.StringSlice(keyPlatforms, d.Platforms, "platforms to search: pypi, cran")
	f.String(keyStrategy, d.Strategy, "enrichment strategy: registry, owner, github")
	f.String(keyPagination, d.Pagination, "search pagination: page, link")
	f.String(keyNamespace, d.Namespace, "organization code-hosting namespace")
	f.String(keyEmailDomain, d.EmailDomain, "organization e-mail domain")
	f.StringSlice(keyTestPrefixes, d.TestPrefixes, "package name prefixes of test artifacts")
	f.String(keyPolicy, "", "ownership policy file (TOML); overrides namespace, e-mail domain and test prefixes")
	f.Duration(keyDelay, d.Delay, "pause after each successful request")
	f.Duration(keyTimeout, d.Timeout, "per-request HTTP timeout")
	f.StringP(keyOutput, "o", d.Output, "snapshot CSV path")

	f.String(keyCache, d.Cache.Backend, "response cache: none, file, redis")
	f.String(keyCacheDir, "", "file cache directory (default: ~/.cache/pkgdash)")
	f.Duration(keyCacheTTL, d.Cache.TTL, "cached response lifetime")
	f.String(keyRedisAddr, "", "redis address host:port")
	f.Int(keyRedisDB, 0, "redis database")

	f.String(keyLibrariesIOURL, "", "Libraries.io API root")
	f.String(keyPyPIURL, "", "PyPI JSON API root")
	f.String(keyCRANURL, "", "CRAN root")
	f.String(keyGitHubURL, "", "GitHub API root")
	for _, k := range []string{keyLibrariesIOURL, keyPyPIURL, keyCRANURL, keyGitHubURL} {
		_ = f.MarkHidden(k)
	}
}

// loadConfig merges, in increasing precedence, built-in defaults, the
// config file, the environment (after loading the dotenv file) and
// command-line flags. The result is not validated.
func (c *CLI) loadConfig(cmd *cobra.Command) (config.Config, error) {
	if err := c.loadEnvFile(); err != nil {
		return config.Config{}, err
	}

	v := c.v
	if c.configFile != "" {
		v.SetConfigFile(c.configFile)
	} else {
		v.SetConfigName(appName)
		v.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".config", appName))
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv(keyAPIKey, envPrefix+"_API_KEY", "LIBRARIESIO_API_KEY")
	_ = v.BindEnv(keyGitHubToken, envPrefix+"_GITHUB_TOKEN", "GITHUB_TOKEN")
	_ = v.BindEnv(keyRedisPassword, envPrefix+"_REDIS_PASSWORD", "REDIS_PASSWORD")

	if err := v.BindPFlags(cmd.Flags()); err != nil {
		return config.Config{}, err
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if c.configFile != "" || !errors.As(err, &notFound) {
			return config.Config{}, pkgerrors.Wrap(pkgerrors.ErrCodeInvalidInput, err, "read config file")
		}
	} else {
		c.Logger.Debug("using config file", "path", v.ConfigFileUsed())
	}

	d := config.Default()
	return config.Config{
		APIKey:         v.GetString(keyAPIKey),
		GitHubToken:    v.GetString(keyGitHubToken),
		LibrariesIOURL: v.GetString(keyLibrariesIOURL),
		PyPIURL:        v.GetString(keyPyPIURL),
		CRANURL:        v.GetString(keyCRANURL),
		GitHubURL:      v.GetString(keyGitHubURL),
		Terms:          stringsOr(v.GetStringSlice(keyTerms), d.Terms),
		Platforms:      stringsOr(v.GetStringSlice(keyPlatforms), d.Platforms),
		Strategy:       stringOr(v.GetString(keyStrategy), d.Strategy),
		Pagination:     stringOr(v.GetString(keyPagination), d.Pagination),
		Namespace:      stringOr(v.GetString(keyNamespace), d.Namespace),
		EmailDomain:    stringOr(v.GetString(keyEmailDomain), d.EmailDomain),
		TestPrefixes:   stringsOr(v.GetStringSlice(keyTestPrefixes), d.TestPrefixes),
		PolicyFile:     v.GetString(keyPolicy),
		Delay:          v.GetDuration(keyDelay),
		Timeout:        v.GetDuration(keyTimeout),
		Output:         stringOr(v.GetString(keyOutput), d.Output),
		Cache: config.CacheConfig{
			Backend:       stringOr(v.GetString(keyCache), d.Cache.Backend),
			Dir:           v.GetString(keyCacheDir),
			TTL:           v.GetDuration(keyCacheTTL),
			RedisAddr:     v.GetString(keyRedisAddr),
			RedisPassword: v.GetString(keyRedisPassword),
			RedisDB:       v.GetInt(keyRedisDB),
		},
	}, nil
}

// loadEnvFile loads the dotenv file into the process environment. Variables
// already set are not overridden. A missing default .env is not an error.
func (c *CLI) loadEnvFile() error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil {
			return pkgerrors.Wrap(pkgerrors.ErrCodeFileNotFound, err, "load env file %s", c.envFile)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil {
		c.Logger.Debug("no .env file found")
	}
	return nil
}

func stringOr(s, fallback string) string {
	if strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

func stringsOr(s, fallback []string) []string {
	if len(s) == 0 {
		return fallback
	}
	return s
}
