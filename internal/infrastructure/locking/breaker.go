package locking

import (
	"context"
	"errors"
	"time"

	"queuecast/internal/core/domain"
	"queuecast/pkg/circuitbreaker"

	"go.uber.org/zap"
)

// newStoreBreaker trips on store outages only. Contention and caller
// cancellation leave it closed.
func newStoreBreaker(store string, logger *zap.SugaredLogger) *circuitbreaker.CircuitBreaker {
	cfg := circuitbreaker.DefaultConfig()
	cfg.SuccessThreshold = 1
	cfg.Timeout = 5 * time.Second
	cfg.IsFailure = func(err error) bool {
		return !errors.Is(err, domain.ErrLockTimeout) &&
			!errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded)
	}
	cb := circuitbreaker.New(cfg)
	if logger != nil {
		cb.OnStateChange(func(from, to circuitbreaker.State) {
			logger.Warnw("queue lock breaker changed state", "store", store, "from", from.String(), "to", to.String())
		})
	}
	return cb
}

// unavailable maps an open breaker to a lock timeout so callers see the
// same failure they would after waiting.
func unavailable(err error) error {
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return domain.ErrLockTimeout
	}
	return err
}
