// Package host implements the three host-callback primitives a browser
// event loop would otherwise supply: an immediate-tick message-channel-
// style wake, an idle-time callback, and a delayed timer, all multiplexed
// behind one cancel/run contract.
package host

import "time"

// Callback is a single pending scheduling of a function on the loop.
// Cancel is idempotent.
type Callback interface {
	Cancel()
	IsIdle() bool
	IsImmediate() bool
}

// Loop is the capability interface C5 drives. A real implementation talks
// to the Go runtime; tests use a deterministic fake (host.NewFakeLoop).
type Loop interface {
	// ScheduleImmediate posts fn to run on the loop's next turn, lower
	// latency than a timer but still a distinct turn of the loop.
	ScheduleImmediate(fn func()) Callback
	// ScheduleIdle runs fn when the loop judges itself idle, falling back
	// to an immediate post when no native idle primitive is available.
	ScheduleIdle(fn func()) Callback
	// ScheduleTimer runs fn after delay elapses. delay == 0 is legal and
	// behaves like the shortest possible timer, used only when the
	// caller specifically wants timer semantics (not immediate-tick).
	ScheduleTimer(fn func(), delay time.Duration) Callback
}
