package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/statisticsnorway/pkgdash/pkg/cache"
	"github.com/statisticsnorway/pkgdash/pkg/config"
	"github.com/statisticsnorway/pkgdash/pkg/enrich"
	"github.com/statisticsnorway/pkgdash/pkg/httputil"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/cran"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/github"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/librariesio"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/pypi"
	"github.com/statisticsnorway/pkgdash/pkg/observability"
	"github.com/statisticsnorway/pkgdash/pkg/ownership"
	"github.com/statisticsnorway/pkgdash/pkg/pipeline"
	"github.com/statisticsnorway/pkgdash/pkg/render"
	"github.com/statisticsnorway/pkgdash/pkg/snapshot"
)

// fetchCommand creates the command that runs the pipeline and writes the snapshot.
func (c *CLI) fetchCommand() *cobra.Command {
	var htmlOut string

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Discover organization packages and write the snapshot",
		Long: `Search Libraries.io for the organization's packages, look up who owns each
one, and write the packages that belong to the organization to a CSV snapshot.

The Libraries.io API key is read from LIBRARIESIO_API_KEY (or PKGDASH_API_KEY),
which may also be set in a .env file.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			return c.runFetch(cmd.Context(), cfg, htmlOut)
		},
	}

	addRunFlags(cmd)
	cmd.Flags().StringVar(&htmlOut, "html", "", "also render the dashboard to this path")

	return cmd
}

func (c *CLI) runFetch(ctx context.Context, cfg config.Config, htmlOut string) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return err
	}

	backend, err := openCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("open cache: %w", err)
	}
	defer backend.Close()

	runner, err := c.newRunner(cfg, backend, policy)
	if err != nil {
		return err
	}

	spinner := newSpinnerWithContext(ctx, "Searching Libraries.io...")
	installHooks(c.Logger, spinner)
	defer observability.Reset()

	prog := newProgress(loggerFromContext(ctx))
	spinner.Start()
	result, err := runner.Run(ctx, pipeline.Options{Terms: cfg.Terms, Platforms: cfg.Platforms})
	if err != nil {
		spinner.StopWithError("Fetch failed")
		return err
	}
	spinner.StopWithSuccess(fmt.Sprintf("Collected %d packages", result.Stats.Final))
	prog.done("Pipeline finished")

	if err := snapshot.WriteFile(cfg.Output, result.Records); err != nil {
		return err
	}
	printStats(result.Stats)
	printFile(cfg.Output)

	if htmlOut != "" {
		if err := render.DashboardFile(htmlOut, result.Records, render.Options{GeneratedAt: result.DownloadedAt}); err != nil {
			return err
		}
		printFile(htmlOut)
		return nil
	}
	printNextStep("Render the dashboard", appName+" render "+cfg.Output)
	return nil
}

// newRunner wires the upstream clients for cfg into a pipeline runner.
func (c *CLI) newRunner(cfg config.Config, backend cache.Cache, policy *ownership.Policy) (*pipeline.Runner, error) {
	opts := []integrations.Option{
		integrations.WithDelay(cfg.Delay),
		integrations.WithHTTPClient(httputil.NewHTTPClient(cfg.Timeout)),
		integrations.WithLogger(c.Logger),
	}

	paginator, err := integrations.NewPaginator(cfg.Pagination)
	if err != nil {
		return nil, err
	}
	search := librariesio.NewClient(cfg.LibrariesIOURL, cfg.APIKey, backend, cfg.Cache.TTL, opts...).
		WithPaginator(paginator)

	src := enrich.Sources{LibrariesIO: search, Org: policy.Org}
	switch cfg.Strategy {
	case enrich.StrategyRegistry:
		src.PyPI = pypi.NewClient(cfg.PyPIURL, backend, cfg.Cache.TTL, opts...)
		src.CRAN = cran.NewClient(cfg.CRANURL, backend, cfg.Cache.TTL, opts...)
	case enrich.StrategyGitHub:
		if cfg.GitHubToken == "" {
			c.Logger.Warn("GITHUB_TOKEN not set; GitHub allows 60 unauthenticated requests per hour")
		}
		src.GitHub = github.NewClient(cfg.GitHubURL, cfg.GitHubToken, backend, cfg.Cache.TTL, opts...)
	}
	enrichers, err := enrich.NewSet(cfg.Strategy, src)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug("pipeline configured",
		"strategy", enrichers.Strategy(),
		"pagination", cfg.Pagination,
		"rules", policy.RuleNames(),
		"cache", cfg.Cache.Backend)

	return &pipeline.Runner{
		Searcher:  search,
		Enrichers: enrichers,
		Policy:    policy,
		Logger:    c.Logger,
	}, nil
}
