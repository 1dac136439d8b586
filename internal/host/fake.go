package host

import (
	"sort"
	"time"
)

// FakeLoop is a deterministic, manually-driven Loop for tests: nothing
// fires until the test calls RunImmediate, RunIdle, or Advance.
type FakeLoop struct {
	immediate []*fakeCallback
	idle      []*fakeCallback
	timers    []*fakeTimer
	now       time.Duration
	seq       uint64
}

// NewFakeLoop creates an empty FakeLoop.
func NewFakeLoop() *FakeLoop {
	return &FakeLoop{}
}

type fakeCallback struct {
	loop      *FakeLoop
	fn        func()
	canceled  bool
	immediate bool
	timer     bool
}

func (c *fakeCallback) Cancel()          { c.canceled = true }
func (c *fakeCallback) IsIdle() bool      { return !c.immediate && !c.timer }
func (c *fakeCallback) IsImmediate() bool { return c.immediate }

type fakeTimer struct {
	cb      *fakeCallback
	fireAt  time.Duration
	seq     uint64
}

func (l *FakeLoop) ScheduleImmediate(fn func()) Callback {
	cb := &fakeCallback{loop: l, fn: fn, immediate: true}
	l.immediate = append(l.immediate, cb)
	return cb
}

func (l *FakeLoop) ScheduleIdle(fn func()) Callback {
	cb := &fakeCallback{loop: l, fn: fn}
	l.idle = append(l.idle, cb)
	return cb
}

func (l *FakeLoop) ScheduleTimer(fn func(), delay time.Duration) Callback {
	cb := &fakeCallback{loop: l, fn: fn, timer: true}
	l.seq++
	l.timers = append(l.timers, &fakeTimer{cb: cb, fireAt: l.now + delay, seq: l.seq})
	return cb
}

// RunImmediate runs and removes the oldest pending, non-canceled immediate
// callback, if any, reporting whether it ran one.
func (l *FakeLoop) RunImmediate() bool {
	for len(l.immediate) > 0 {
		cb := l.immediate[0]
		l.immediate = l.immediate[1:]
		if cb.canceled {
			continue
		}
		cb.fn()
		return true
	}
	return false
}

// RunIdle runs and removes the oldest pending, non-canceled idle callback,
// if any, reporting whether it ran one.
func (l *FakeLoop) RunIdle() bool {
	for len(l.idle) > 0 {
		cb := l.idle[0]
		l.idle = l.idle[1:]
		if cb.canceled {
			continue
		}
		cb.fn()
		return true
	}
	return false
}

// Advance moves the fake clock forward by d, firing (in fireAt, then
// sequence order) every timer whose deadline has now passed.
func (l *FakeLoop) Advance(d time.Duration) {
	l.now += d
	sort.SliceStable(l.timers, func(i, j int) bool {
		if l.timers[i].fireAt != l.timers[j].fireAt {
			return l.timers[i].fireAt < l.timers[j].fireAt
		}
		return l.timers[i].seq < l.timers[j].seq
	})
	var remaining []*fakeTimer
	for _, t := range l.timers {
		if t.fireAt > l.now {
			remaining = append(remaining, t)
			continue
		}
		if !t.cb.canceled {
			t.cb.fn()
		}
	}
	l.timers = remaining
}

// PendingImmediate, PendingIdle and PendingTimers report how many
// non-canceled callbacks of each kind are still waiting to run, useful for
// assertions about schedule-host-if-needed's "at most one outstanding host
// wake" invariant.
func (l *FakeLoop) PendingImmediate() int { return countPending(l.immediate) }
func (l *FakeLoop) PendingIdle() int      { return countPending(l.idle) }
func (l *FakeLoop) PendingTimers() int {
	n := 0
	for _, t := range l.timers {
		if !t.cb.canceled {
			n++
		}
	}
	return n
}

func countPending(cbs []*fakeCallback) int {
	n := 0
	for _, cb := range cbs {
		if !cb.canceled {
			n++
		}
	}
	return n
}
