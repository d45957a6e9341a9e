package probe

import (
	"context"
	"time"

	"github.com/hamed0406/pagecheck/internal/domain"
)

type RetryChecker struct {
	Inner    Checker
	Attempts int
	Backoff  time.Duration
}

// Check retries only on failure; a degraded page already passed.
func (r *RetryChecker) Check(ctx context.Context, target domain.Target) CheckResult {
	attempts := r.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var last CheckResult
	for i := 0; i < attempts; i++ {
		last = r.Inner.Check(ctx, target)
		if last.Up() {
			return last
		}
		if i < attempts-1 {
			select {
			case <-ctx.Done():
				last.Message += " (retries cancelled)"
				return last
			case <-time.After(r.Backoff):
			}
		}
	}
	if attempts > 1 {
		// annotate message so you can see it was a retry series
		last.Message = last.Message + " (after retries)"
	}
	return last
}
