package httputil

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	pkgerrors "github.com/statisticsnorway/pkgdash/pkg/errors"
)

// DefaultRetryAfter is the wait used when a 429 response has no usable
// Retry-After header.
const DefaultRetryAfter = 60 * time.Second

// Sleeper blocks for d or until ctx is done, returning ctx.Err() in the
// latter case. Tests substitute a recording no-op.
type Sleeper func(ctx context.Context, d time.Duration) error

// Sleep is the real [Sleeper].
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// RetryRateLimited calls fn until it returns anything other than a
// [pkgerrors.RateLimitedError]. Between attempts it sleeps for the error's
// RetryAfter, or [DefaultRetryAfter] when the server sent none. onWait, if non-nil,
// is called before each sleep with the wait and the 1-based attempt number.
//
// There is no attempt limit; the loop ends only on a non-429 result or when
// ctx is cancelled during a wait.
func RetryRateLimited(ctx context.Context, sleep Sleeper, onWait func(wait time.Duration, attempt int), fn func() error) error {
	if sleep == nil {
		sleep = Sleep
	}
	for attempt := 1; ; attempt++ {
		err := fn()
		var rl *pkgerrors.RateLimitedError
		if !errors.As(err, &rl) {
			return err
		}

		wait := max(rl.RetryAfter, 0)
		if !rl.RetryAfterSet && wait == 0 {
			wait = DefaultRetryAfter
		}
		if onWait != nil {
			onWait(wait, attempt)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
}

// ParseRetryAfter parses a Retry-After header value, which is either a
// number of seconds or an HTTP date. ok is false when the header is empty,
// unparsable or negative. "0" and dates not after now yield (0, true).
func ParseRetryAfter(value string, now time.Time) (wait time.Duration, ok bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(value); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	if t, err := http.ParseTime(value); err == nil {
		return max(t.Sub(now).Round(time.Second), 0), true
	}
	return 0, false
}
