package stream

import (
	"context"
	"time"
)

// Budget returns the rate budget for a frame-rate ceiling: the minimum
// wall-clock time one iteration should take. Non-positive fps has no budget.
func Budget(fps int) time.Duration {
	if fps <= 0 {
		return 0
	}
	return time.Second / time.Duration(fps)
}

// Delay returns how long to sleep after an iteration that took elapsed.
// The result is always within [0, budget].
func Delay(budget, elapsed time.Duration) time.Duration {
	if budget <= 0 {
		return 0
	}
	if elapsed < 0 {
		elapsed = 0
	}
	wait := budget - elapsed
	if wait < 0 {
		return 0
	}
	return wait
}

// sleepContext is the default Sleeper.
func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
