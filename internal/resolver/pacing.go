package resolver

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer spaces out remote calls so the catalog's rate limit is respected.
// Implementations must be safe for sequential reuse; Wait blocks until the
// next call may proceed or the context is done.
type Pacer interface {
	Wait(ctx context.Context) error
}

// delayPacer inserts a fixed pause before every call.
type delayPacer struct {
	delay time.Duration
}

// NewDelayPacer creates a Pacer that sleeps for the given duration before
// each remote call. A non-positive duration never pauses.
func NewDelayPacer(delay time.Duration) Pacer {
	return &delayPacer{delay: delay}
}

func (p *delayPacer) Wait(ctx context.Context) error {
	if p.delay <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(p.delay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// limiterPacer adapts [rate.Limiter] to the Pacer interface for callers that
// prefer a token bucket over fixed spacing.
type limiterPacer struct {
	limiter *rate.Limiter
}

// NewLimiterPacer creates a Pacer allowing up to perSecond calls per second
// with no burst.
func NewLimiterPacer(perSecond float64) Pacer {
	return &limiterPacer{limiter: rate.NewLimiter(rate.Limit(perSecond), 1)}
}

func (p *limiterPacer) Wait(ctx context.Context) error {
	return p.limiter.Wait(ctx)
}
