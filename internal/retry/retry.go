// Package retry implements the single bounded exponential-backoff wrapper
// used around every unit operation in the pipeline. No other package in
// this module retries internally — the drivers and the model abstraction
// layer call through here exactly once per operation.
package retry

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/adverant/zerox/internal/logging"
)

const (
	initialBackoff = 250 * time.Millisecond
	maxBackoff     = 8 * time.Second
)

// Operation is the unit of work the runner retries.
type Operation func(ctx context.Context, attempt int) error

// Run invokes operation; on failure it retries up to maxRetries additional
// times with a doubling backoff, capped at maxBackoff. Every attempt's
// error is logged with the supplied tag; only the final error is returned.
func Run(ctx context.Context, log *logging.Logger, tag string, maxRetries int, op Operation) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op(ctx, attempt)
		if lastErr == nil {
			return nil
		}

		if attempt == maxRetries {
			log.Error("operation exhausted retries", "tag", tag, "attempts", attempt+1, "error", lastErr)
			return fmt.Errorf("%s: exhausted %d attempt(s): %w", tag, attempt+1, lastErr)
		}

		backoff := time.Duration(float64(initialBackoff) * math.Pow(2, float64(attempt)))
		if backoff > maxBackoff {
			backoff = maxBackoff
		}
		log.Warn("operation failed, retrying", "tag", tag, "attempt", attempt+1, "backoff_ms", backoff.Milliseconds(), "error", lastErr)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return lastErr
}
