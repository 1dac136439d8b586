// Package job holds demo workloads used by cmd/postq to exercise the
// scheduler without depending on any particular caller's business logic.
package job

import (
	"context"
	"time"
)

// SleepWork returns a postq/internal/sched.Callback that blocks for the
// given duration and then returns label, useful for demonstrating the
// dispatcher's priority ordering with tasks that take visible time.
func SleepWork(label string, d time.Duration) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return label, nil
		}
	}
}

// Spin returns a Callback that busy-loops for approximately d, used to
// simulate a long-running synchronous task that never checks ctx, the way
// a CPU-bound default-priority task would.
func Spin(label string, d time.Duration) func(context.Context) (any, error) {
	return func(ctx context.Context) (any, error) {
		deadline := time.Now().Add(d)
		for time.Now().Before(deadline) {
		}
		return label, nil
	}
}
