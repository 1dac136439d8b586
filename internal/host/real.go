package host

import (
	"runtime"
	"sync"
	"time"
)

const (
	defaultImmediateBuffer = 256
	defaultIdleSlice       = 5 * time.Millisecond
)

// LoopConfig tunes a realLoop's buffering and idle behavior, sourced from
// sched.Config's idle_slice_ms/immediate_buffer fields. The zero value
// means "use the defaults".
type LoopConfig struct {
	// ImmediateBuffer sizes the immediate-tick broker's self-pipe.
	ImmediateBuffer int
	// IdleSlice bounds how long ScheduleIdle waits before falling back to
	// an immediate post, standing in for the deadline a real
	// requestIdleCallback would hand its callback.
	IdleSlice time.Duration
}

// realLoop is the production Loop: immediate posts go through a
// loop-owned broker, timers go through a per-loop timerRegistry, and idle
// posts wait out IdleSlice (yielding the goroutine first) before falling
// back to an immediate post, since the Go runtime exposes no native
// "requestIdleCallback" equivalent.
type realLoop struct {
	broker    *broker
	timers    *timerRegistry
	idleSlice time.Duration
}

// NewLoop creates a Loop backed by real Go runtime primitives.
func NewLoop(cfg LoopConfig) Loop {
	buf := cfg.ImmediateBuffer
	if buf <= 0 {
		buf = defaultImmediateBuffer
	}
	idleSlice := cfg.IdleSlice
	if idleSlice <= 0 {
		idleSlice = defaultIdleSlice
	}
	return &realLoop{broker: newBroker(buf), timers: newTimerRegistry(), idleSlice: idleSlice}
}

func (l *realLoop) ScheduleImmediate(fn func()) Callback {
	id := l.broker.post(fn)
	return &immediateCallback{b: l.broker, id: id}
}

func (l *realLoop) ScheduleTimer(fn func(), delay time.Duration) Callback {
	return l.timers.schedule(fn, delay)
}

func (l *realLoop) ScheduleIdle(fn func()) Callback {
	cb := &idleCallback{}
	go func() {
		runtime.Gosched()
		time.Sleep(l.idleSlice)
		cb.mu.Lock()
		canceled := cb.canceled
		cb.mu.Unlock()
		if canceled {
			return
		}
		inner := l.ScheduleImmediate(fn)
		cb.mu.Lock()
		cb.inner = inner
		canceled = cb.canceled
		cb.mu.Unlock()
		if canceled && inner != nil {
			inner.Cancel()
		}
	}()
	return cb
}

type idleCallback struct {
	mu       sync.Mutex
	canceled bool
	inner    Callback
}

func (c *idleCallback) Cancel() {
	c.mu.Lock()
	c.canceled = true
	inner := c.inner
	c.mu.Unlock()
	if inner != nil {
		inner.Cancel()
	}
}

func (c *idleCallback) IsIdle() bool      { return true }
func (c *idleCallback) IsImmediate() bool { return false }
