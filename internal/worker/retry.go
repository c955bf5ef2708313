package worker

import "time"

// RetryPolicy shapes the sweeper's backoff after consecutive failed passes:
// delays grow geometrically from InitialDelay, clamped at MaxDelay. Once
// MaxRetries is exhausted the sweeper falls back to its regular interval.
type RetryPolicy struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
}

// defaultSweepRetry keeps a failing sweeper from hammering the store while
// still getting back to work within a minute.
func defaultSweepRetry() RetryPolicy {
	return RetryPolicy{
		MaxRetries:    5,
		InitialDelay:  2 * time.Second,
		MaxDelay:      time.Minute,
		BackoffFactor: 2,
	}
}

// NextDelay returns the wait before retry number attempt (1-based). Zero or
// negative fields fall back to a one-second start and doubling.
func (r RetryPolicy) NextDelay(attempt int) time.Duration {
	initial := r.InitialDelay
	if initial <= 0 {
		initial = time.Second
	}
	factor := r.BackoffFactor
	if factor <= 0 {
		factor = 2
	}

	delay := float64(initial)
	for i := 1; i < attempt; i++ {
		delay *= factor
		if r.MaxDelay > 0 && delay >= float64(r.MaxDelay) {
			return r.MaxDelay
		}
	}
	return time.Duration(delay)
}
