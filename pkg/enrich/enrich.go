package enrich

import (
	"context"
	"errors"
	"fmt"
	"strings"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
	"github.com/statisticsnorway/pkgdash/pkg/integrations"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/cran"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/github"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/librariesio"
	"github.com/statisticsnorway/pkgdash/pkg/integrations/pypi"
	"github.com/statisticsnorway/pkgdash/pkg/model"
	"github.com/statisticsnorway/pkgdash/pkg/ownership"
)

// Status classifies an enrichment attempt.
type Status int

const (
	StatusOK       Status = iota // the source answered
	StatusNotFound               // the source has no record of the package
	StatusFailed                 // the request failed
	StatusSkipped                // the source does not apply to the package
)

func (s Status) String() string {
	switch s {
	case StatusOK:
		return "ok"
	case StatusNotFound:
		return "not_found"
	case StatusFailed:
		return "failed"
	case StatusSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is the result of one enrichment attempt. Result is always usable;
// Err carries the cause when Status is not [StatusOK].
type Outcome struct {
	Result model.EnrichmentResult
	Status Status
	Err    error
}

// Enricher fetches ownership metadata for a package.
type Enricher interface {
	Enrich(ctx context.Context, rec model.RawSearchRecord) Outcome
}

// Strategy names accepted by [NewSet].
const (
	StrategyRegistry = "registry"
	StrategyOwner    = "owner"
	StrategyGitHub   = "github"
)

// Sources holds the clients the strategies draw on. Only the clients the
// chosen strategy needs must be set.
type Sources struct {
	PyPI        *pypi.Client
	CRAN        *cran.Client
	LibrariesIO *librariesio.Client
	GitHub      *github.Client
	Org         ownership.Org
}

// Set maps platforms to their enricher.
type Set struct {
	strategy   string
	byPlatform map[string]Enricher
}

// NewSet builds the enrichers of one strategy.
func NewSet(strategy string, src Sources) (*Set, error) {
	s := &Set{strategy: strategy, byPlatform: map[string]Enricher{}}
	switch strategy {
	case "", StrategyRegistry:
		if src.PyPI == nil || src.CRAN == nil {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "registry strategy needs PyPI and CRAN clients")
		}
		s.strategy = StrategyRegistry
		s.byPlatform[model.PlatformPyPI] = &PyPI{Client: src.PyPI, Org: src.Org}
		s.byPlatform[model.PlatformCRAN] = &CRAN{Client: src.CRAN, Org: src.Org}
	case StrategyOwner:
		if src.LibrariesIO == nil {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "owner strategy needs a Libraries.io client")
		}
		e := &Owner{Client: src.LibrariesIO, Org: src.Org}
		s.byPlatform[model.PlatformPyPI] = e
		s.byPlatform[model.PlatformCRAN] = e
	case StrategyGitHub:
		if src.GitHub == nil {
			return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput, "github strategy needs a GitHub client")
		}
		e := &GitHub{Client: src.GitHub, Org: src.Org}
		s.byPlatform[model.PlatformPyPI] = e
		s.byPlatform[model.PlatformCRAN] = e
	default:
		return nil, pkgerrors.New(pkgerrors.ErrCodeInvalidInput,
			"unknown enrichment strategy %q (want %s, %s or %s)", strategy, StrategyRegistry, StrategyOwner, StrategyGitHub)
	}
	return s, nil
}

// Strategy returns the name of the active strategy.
func (s *Set) Strategy() string { return s.strategy }

// For returns the enricher for a platform.
func (s *Set) For(platform string) (Enricher, bool) {
	e, ok := s.byPlatform[strings.ToLower(platform)]
	return e, ok
}

// Enrich dispatches to the platform's enricher. Platforms without one are
// skipped. A panicking enricher is reported as [StatusFailed].
func (s *Set) Enrich(ctx context.Context, rec model.RawSearchRecord) (out Outcome) {
	e, ok := s.For(rec.Platform)
	if !ok {
		return Outcome{
			Result: defaultResult(""),
			Status: StatusSkipped,
			Err:    pkgerrors.New(pkgerrors.ErrCodeInvalidPlatform, "no enricher for platform %q", rec.Platform),
		}
	}
	defer func() {
		if r := recover(); r != nil {
			out = Outcome{
				Result: defaultResult(""),
				Status: StatusFailed,
				Err:    pkgerrors.New(pkgerrors.ErrCodeInternal, "enricher panicked: %v", r),
			}
		}
	}()
	return e.Enrich(ctx, rec)
}

func defaultResult(homepage string) model.EnrichmentResult {
	return model.EnrichmentResult{OwnerName: model.NotAvailable, Homepage: homepage}
}

// failure turns a fetch error into an Outcome around the default result.
func failure(res model.EnrichmentResult, err error) Outcome {
	if errors.Is(err, integrations.ErrNotFound) {
		return Outcome{Result: res, Status: StatusNotFound, Err: err}
	}
	return Outcome{Result: res, Status: StatusFailed, Err: err}
}

func ownerOrUnknown(name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	return model.UnknownOwner
}
