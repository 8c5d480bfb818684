package resilience

import (
	"context"

	"go.uber.org/zap"
)

// Guard combines a breaker with retries for one backend.
type Guard struct {
	Retry   RetryConfig
	Breaker *Breaker
}

// NewGuard returns a Guard that logs breaker transitions under name.
func NewGuard(name string, retry RetryConfig, breaker BreakerConfig) *Guard {
	if breaker.OnStateChange == nil {
		breaker.OnStateChange = func(from, to BreakerState) {
			zap.L().Warn("circuit breaker state change",
				zap.String("backend", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}
	}
	return &Guard{Retry: retry, Breaker: NewBreaker(breaker)}
}

// Run executes fn under the breaker, retrying transient failures. A nil
// Guard calls fn once.
func Run[T any](ctx context.Context, g *Guard, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	if g == nil {
		return fn(ctx)
	}
	cfg := g.Retry
	if cfg.OnRetry == nil {
		cfg.OnRetry = RetryLogger(operation)
	}
	return DoVal(ctx, cfg, func(ctx context.Context) (T, error) {
		return Call(ctx, g.Breaker, fn)
	})
}
