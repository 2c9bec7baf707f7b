package withings

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// DefaultRateLimit is the per-minute request allowance Withings grants
// a single application.
const DefaultRateLimit = 120

// rateLimiter is an optional token bucket consulted before every request.
// A nil *rateLimiter never blocks.
type rateLimiter struct {
	limiter *rate.Limiter
}

// newRateLimiter returns a limiter refilling at requestsPerMinute with a
// burst of the same size, or nil when pacing is disabled.
func newRateLimiter(requestsPerMinute int) *rateLimiter {
	if requestsPerMinute <= 0 {
		return nil
	}

	limit := rate.Every(time.Minute / time.Duration(requestsPerMinute))
	return &rateLimiter{
		limiter: rate.NewLimiter(limit, requestsPerMinute),
	}
}

// Wait blocks until a token is available or the context is canceled.
func (rl *rateLimiter) Wait(ctx context.Context) error {
	if rl == nil {
		return nil
	}
	return rl.limiter.Wait(ctx)
}
