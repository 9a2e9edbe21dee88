package gateway

import (
	"context"
	"time"
)

// backoffPolicy computes reconnect delays: exponential growth from initial
// by multiplier, capped at max.
type backoffPolicy struct {
	initial    time.Duration
	max        time.Duration
	multiplier float64
}

// defaultBackoff matches the reconnect cadence the host side tolerates:
// quick first retry, then doubling up to 30s between attempts.
var defaultBackoff = backoffPolicy{
	initial:    500 * time.Millisecond,
	max:        30 * time.Second,
	multiplier: 2.0,
}

// delay returns the backoff duration before the given retry attempt,
// starting from attempt 0.
func (b backoffPolicy) delay(attempt int) time.Duration {
	d := float64(b.initial)
	for i := 0; i < attempt; i++ {
		d *= b.multiplier
		if d >= float64(b.max) {
			return b.max
		}
	}
	if d > float64(b.max) {
		return b.max
	}
	return time.Duration(d)
}

// wait sleeps for the attempt's delay, returning early with ctx.Err() on
// cancellation.
func (b backoffPolicy) wait(ctx context.Context, attempt int) error {
	timer := time.NewTimer(b.delay(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
