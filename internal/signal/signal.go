// Package signal implements the abort-signal base abstraction and the
// priority-aware TaskController/TaskSignal pair described as C3/C4.
package signal

import (
	"errors"
	"sync"

	"postq/internal/priority"
)

// ErrAborted is the default reason used when Abort is called without one.
var ErrAborted = errors.New("signal: aborted")

// Signal is an abort-capable observable, the analogue of AbortSignal.
// Signals are created only through a Controller.
type Signal struct {
	mu        sync.Mutex
	aborted   bool
	reason    error
	listeners map[int]func()
	nextID    int
}

func newSignal() *Signal {
	return &Signal{listeners: make(map[int]func())}
}

// Aborted reports whether the signal has already fired.
func (s *Signal) Aborted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.aborted
}

// Reason returns the abort reason, or nil if not yet aborted.
func (s *Signal) Reason() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reason
}

// OnAbort registers fn to run when the signal aborts. If the signal is
// already aborted, fn runs immediately (synchronously) and the returned
// detach is a no-op. OnAbort is safe to call from within another listener
// on the same signal.
func (s *Signal) OnAbort(fn func()) (detach func()) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		fn()
		return func() {}
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

func (s *Signal) abort(reason error) {
	s.mu.Lock()
	if s.aborted {
		s.mu.Unlock()
		return
	}
	if reason == nil {
		reason = ErrAborted
	}
	s.aborted = true
	s.reason = reason
	listeners := make([]func(), 0, len(s.listeners))
	for _, fn := range s.listeners {
		listeners = append(listeners, fn)
	}
	s.listeners = map[int]func(){}
	s.mu.Unlock()

	for _, fn := range listeners {
		fn()
	}
}

// Controller owns a Signal and can abort it.
type Controller struct {
	signal *Signal
}

// NewController creates a fresh, non-aborted Controller/Signal pair.
func NewController() *Controller {
	return &Controller{signal: newSignal()}
}

// Signal returns the controller's signal.
func (c *Controller) Signal() *Signal { return c.signal }

// Abort fires the signal with reason, or ErrAborted if reason is nil.
// Abort is idempotent and safe to call from within a listener.
func (c *Controller) Abort(reason error) { c.signal.abort(reason) }

// PrioritySignal is the capability interface the dispatcher probes for:
// "does this value expose a priority and a prioritychange topic", per the
// dynamic signal-type dispatch design note. A plain *Signal does not
// implement it.
type PrioritySignal interface {
	Priority() priority.Priority
	OnPriorityChange(fn func(previous priority.Priority)) (detach func())
}
