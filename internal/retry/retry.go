// Package retry holds the deadlock-retry policy as a reusable higher-order
// function, per the design note against mixing a retry trait into every
// service: composition over inheritance.
package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/Esraa-27/flash-sale-api/internal/apperr"
	"github.com/Esraa-27/flash-sale-api/internal/dberr"
)

const (
	maxAttempts = 3
	baseDelay   = 10 * time.Millisecond
)

// Counter is the minimal metrics surface the wrapper needs; satisfied by
// *metrics.Registry in production and by a stub in unit tests.
type Counter interface {
	IncDeadlockRetry()
}

// OnContention runs f, retrying up to maxAttempts total times whenever f
// fails with a contention error. Non-contention errors propagate
// immediately. After the final contention failure it returns a
// KindContention *apperr.Error carrying the 500-class "service temporarily
// unavailable" message followed by opName.
func OnContention(ctx context.Context, counter Counter, opName string, f func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		lastErr = f(ctx)
		if lastErr == nil {
			return nil
		}
		if !dberr.IsContention(lastErr) {
			return lastErr
		}
		if counter != nil {
			counter.IncDeadlockRetry()
		}
		if attempt == maxAttempts {
			break
		}
		delay := baseDelay << uint(attempt-1)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return lastErr
		}
	}
	return apperr.Contention(fmt.Sprintf("service temporarily unavailable due to database contention: %s", opName))
}
