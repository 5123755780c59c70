// internal/service/ingest/pacer.go

package ingest

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out upstream calls
type Pacer interface {
	Wait(ctx context.Context) error
}

// RatePacer is a token bucket allowing one call per interval. The first call
// passes immediately.
type RatePacer struct {
	limiter *rate.Limiter
}

// NewRatePacer creates a pacer for the given interval. A zero interval
// disables pacing.
func NewRatePacer(interval time.Duration) *RatePacer {
	limit := rate.Inf
	if interval > 0 {
		limit = rate.Every(interval)
	}

	return &RatePacer{
		limiter: rate.NewLimiter(limit, 1),
	}
}

// Wait blocks until the next call is allowed or ctx is done
func (p *RatePacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
