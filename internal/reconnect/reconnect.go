package reconnect

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"
	"go.uber.org/zap"
)

const defaultBaseDelay = 100 * time.Millisecond

// Policy re-runs a function that failed, doubling the delay after every
// attempt. The zero value runs fn exactly once.
type Policy struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Clock      clockwork.Clock
	Logger     *zap.Logger
}

// Run calls fn until it returns nil, ctx is done, or MaxRetries retries were
// spent. A call that ran for MaxDelay or longer resets the retry count and the
// delay. The last error from fn is returned.
func (p Policy) Run(ctx context.Context, fn func(context.Context) error) error {
	maxRetries := p.MaxRetries
	if maxRetries < 0 {
		maxRetries = 0
	}
	baseDelay := p.BaseDelay
	if baseDelay <= 0 {
		baseDelay = defaultBaseDelay
	}
	delay := baseDelay
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	logger := p.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	for attempt := 0; ; attempt++ {
		start := clock.Now()
		err := fn(ctx)
		if err == nil {
			return nil
		}
		// A run that lasted at least MaxDelay was healthy; its failure starts
		// a fresh budget.
		if p.MaxDelay > 0 && clock.Since(start) >= p.MaxDelay {
			attempt = 0
			delay = baseDelay
		}
		if attempt >= maxRetries {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		logger.Warn("retrying",
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err),
		)

		timer := clock.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.Chan():
		}

		delay *= 2
		if p.MaxDelay > 0 && delay > p.MaxDelay {
			delay = p.MaxDelay
		}
	}
}
