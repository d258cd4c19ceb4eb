// Package retry runs an operation again after fixed delays while its error
// is classified as retryable.
package retry

import (
	"context"
	"time"
)

type Operation func(ctx context.Context) error
type IsRetryableError func(error) bool

type RetryConfig struct {
	MaxRetries    int
	Delays        []time.Duration
	IsRetryableFn IsRetryableError
}

var defaultDelays = []time.Duration{1 * time.Second, 3 * time.Second, 5 * time.Second}

func Do(ctx context.Context, cfg RetryConfig, op Operation) error {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}

	if cfg.Delays == nil {
		cfg.Delays = defaultDelays
	}

	if cfg.IsRetryableFn == nil {
		cfg.IsRetryableFn = func(error) bool { return false }
	}

	var lastErr error

	for attempt := 0; attempt <= cfg.MaxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		err := op(ctx)
		if err == nil {
			return nil
		}
		if !cfg.IsRetryableFn(err) {
			return err
		}
		lastErr = err

		if attempt == cfg.MaxRetries {
			break
		}

		var delay time.Duration
		switch {
		case attempt < len(cfg.Delays):
			delay = cfg.Delays[attempt]
		case len(cfg.Delays) > 0:
			delay = cfg.Delays[len(cfg.Delays)-1]
		}

		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}

	return lastErr
}
