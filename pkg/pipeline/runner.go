package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/statisticsnorway/pkgdash/pkg/enrich"
	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/normalize"
	"github.com/statisticsnorway/pkgdash/pkg/observability"
	"github.com/statisticsnorway/pkgdash/pkg/ownership"
)

// Runner executes pipeline runs. A Runner holds no per-run state and may be
// reused, but a single run is not safe for concurrent use of its clients.
type Runner struct {
	Searcher  Searcher
	Enrichers enrich.Enricher
	Policy    *ownership.Policy
	Logger    *log.Logger

	// Now returns the run timestamp. Defaults to time.Now.
	Now func() time.Time
}

// Run executes one pass. The returned records all have Internal set; records
// the policy rejects are dropped, not flagged.
func (r *Runner) Run(ctx context.Context, opts Options) (*Result, error) {
	if err := r.check(); err != nil {
		return nil, err
	}
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	logger := r.Logger
	if logger == nil {
		logger = log.Default()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}

	started := time.Now()
	result := &Result{
		RunID:        uuid.New(),
		DownloadedAt: now().UTC().Truncate(time.Second),
		Stats:        newStats(),
	}
	logger = logger.With("run", result.RunID.String()[:8])

	records, err := r.run(ctx, logger, opts, result)
	result.Stats.Duration = time.Since(started)
	observability.Pipeline().OnRunComplete(ctx, len(records), result.Stats.Duration, err)
	if err != nil {
		return nil, err
	}

	result.Records = records
	result.Stats.Final = len(records)
	logger.Info("run complete",
		"records", result.Stats.Final,
		"rejected", result.Stats.RejectedTotal(),
		"duplicates", result.Stats.Duplicates,
		"duration", result.Stats.Duration.Round(time.Millisecond))
	return result, nil
}

func (r *Runner) run(ctx context.Context, logger *log.Logger, opts Options, result *Result) ([]model.CanonicalRecord, error) {
	hooks := observability.Pipeline()
	stats := &result.Stats

	logger.Info("searching", "terms", opts.Terms, "platforms", opts.Platforms)
	hooks.OnSearchStart(ctx, opts.Terms, opts.Platforms)
	searchStart := time.Now()
	raw, err := r.Searcher.Search(ctx, opts.Terms, opts.Platforms)
	hooks.OnSearchComplete(ctx, len(raw), time.Since(searchStart), err)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}
	stats.Discovered = len(raw)
	logger.Info("search complete", "candidates", len(raw), "duration", time.Since(searchStart).Round(time.Millisecond))

	wanted := make(map[string]bool, len(opts.Platforms))
	for _, p := range opts.Platforms {
		wanted[p] = true
	}

	inputs := make([]normalize.Input, 0, len(raw))
	for i, rec := range raw {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		name := strings.TrimSpace(rec.Name)
		platform := strings.ToLower(strings.TrimSpace(rec.Platform))
		if name == "" {
			stats.Unnamed++
			continue
		}
		if !wanted[platform] {
			stats.PlatformSkipped++
			logger.Debug("platform not requested", "package", name, "platform", rec.Platform)
			continue
		}

		if v := r.Policy.Prefilter(name, rec.RepositoryURL); v.Decision == ownership.Reject {
			r.reject(ctx, logger, stats, name, v)
			continue
		}

		enrichStart := time.Now()
		out := r.Enrichers.Enrich(ctx, rec)
		hooks.OnEnrich(ctx, platform, name, out.Status.String(), time.Since(enrichStart))
		stats.enriched(out.Status)
		switch out.Status {
		case enrich.StatusOK:
			logger.Debug("enriched", "package", name, "owner", out.Result.OwnerName, "n", i+1, "of", len(raw))
		case enrich.StatusFailed:
			logger.Warn("enrichment failed", "package", name, "platform", platform, "err", out.Err)
		default:
			logger.Info("enrichment unavailable", "package", name, "platform", platform, "status", out.Status)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		enrichment := out.Result
		v := r.Policy.Classify(ownership.Candidate{
			Name:          name,
			RepositoryURL: rec.RepositoryURL,
			Enrichment:    &enrichment,
		})
		if !v.Kept() {
			r.reject(ctx, logger, stats, name, v)
			continue
		}
		hooks.OnClassify(ctx, name, true, v.Reason)
		inputs = append(inputs, normalize.Input{Raw: rec, Enrichment: enrichment, Internal: true})
	}

	records, dups := normalize.Build(inputs, result.DownloadedAt)
	stats.Duplicates = dups
	return records, nil
}

func (r *Runner) reject(ctx context.Context, logger *log.Logger, stats *Stats, name string, v ownership.Verdict) {
	stats.Rejected[v.Reason]++
	observability.Pipeline().OnClassify(ctx, name, false, v.Reason)
	logger.Debug("rejected", "package", name, "reason", v.Reason)
}

func (r *Runner) check() error {
	switch {
	case r.Searcher == nil:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "pipeline: no searcher")
	case r.Enrichers == nil:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "pipeline: no enrichers")
	case r.Policy == nil:
		return pkgerrors.New(pkgerrors.ErrCodeInvalidPolicy, "pipeline: no ownership policy")
	}
	return nil
}
