package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/statisticsnorway/pkgdash/pkg/observability"
)

// installHooks routes HTTP and cache events to the debug log and pipeline
// progress to the spinner.
func installHooks(logger *log.Logger, s *Spinner) {
	h := &logHooks{logger: logger}
	observability.SetHTTPHooks(h)
	observability.SetCacheHooks(h)
	observability.SetPipelineHooks(&progressHooks{spinner: s})
}

// logHooks logs upstream traffic at debug level.
type logHooks struct {
	logger *log.Logger
}

func (h *logHooks) OnRequest(_ context.Context, method, host, path string) {}

func (h *logHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.logger.Debug("http", "method", method, "host", host, "path", path, "status", status, "duration", d.Round(time.Millisecond))
}

func (h *logHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.logger.Debug("http error", "method", method, "host", host, "path", path, "err", err)
}

func (h *logHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *logHooks) OnCacheMiss(context.Context, string) {}

func (h *logHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}

// progressHooks keeps the spinner message in step with the run.
type progressHooks struct {
	observability.NoopPipelineHooks
	spinner *Spinner
	total   int
	seen    int
}

func (h *progressHooks) OnSearchComplete(_ context.Context, records int, _ time.Duration, err error) {
	if err == nil {
		h.total = records
		h.spinner.SetMessage(fmt.Sprintf("Checking %d candidates...", records))
	}
}

func (h *progressHooks) OnEnrich(_ context.Context, _, name, _ string, _ time.Duration) {
	h.spinner.SetMessage(fmt.Sprintf("Checking %s...", name))
}

func (h *progressHooks) OnClassify(context.Context, string, bool, string) {
	h.seen++
	if h.total > 0 {
		h.spinner.SetMessage(fmt.Sprintf("Checked %d/%d candidates...", h.seen, h.total))
	}
}
