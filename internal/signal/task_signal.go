package signal

import (
	"errors"
	"fmt"
	"sync"

	"postq/internal/priority"
)

// ErrPriorityChanging is returned when setPriority is called re-entrantly
// from within a prioritychange listener on the same controller.
var ErrPriorityChanging = errors.New("signal: setPriority called re-entrantly from a prioritychange listener")

// PriorityChangeEvent carries the priority a TaskSignal held immediately
// before a setPriority call took effect.
type PriorityChangeEvent struct {
	PreviousPriority priority.Priority
}

// newPriorityChangeEvent validates previousPriority: a missing/invalid
// previous priority is a programmer error.
func newPriorityChangeEvent(previous priority.Priority) (PriorityChangeEvent, error) {
	if !previous.Valid() {
		return PriorityChangeEvent{}, fmt.Errorf("signal: invalid previous priority %v", previous)
	}
	return PriorityChangeEvent{PreviousPriority: previous}, nil
}

// TaskSignal extends Signal with a read-only, externally mutable-only-via-
// controller priority and a prioritychange event topic. TaskSignal values
// are obtained only through a TaskController.
type TaskSignal struct {
	*Signal

	mu        sync.Mutex
	prio      priority.Priority
	listeners map[int]func(PriorityChangeEvent)
	nextID    int
}

func newTaskSignal(p priority.Priority) *TaskSignal {
	return &TaskSignal{
		Signal:    newSignal(),
		prio:      p,
		listeners: make(map[int]func(PriorityChangeEvent)),
	}
}

// Priority returns the signal's current priority. Satisfies
// signal.PrioritySignal.
func (ts *TaskSignal) Priority() priority.Priority {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.prio
}

// OnPriorityChange registers fn to run whenever the signal's priority
// changes, passing the priority held immediately beforehand. Satisfies
// signal.PrioritySignal.
func (ts *TaskSignal) OnPriorityChange(fn func(previous priority.Priority)) (detach func()) {
	return ts.onPriorityChangeEvent(func(ev PriorityChangeEvent) { fn(ev.PreviousPriority) })
}

func (ts *TaskSignal) onPriorityChangeEvent(fn func(PriorityChangeEvent)) (detach func()) {
	ts.mu.Lock()
	id := ts.nextID
	ts.nextID++
	ts.listeners[id] = fn
	ts.mu.Unlock()

	return func() {
		ts.mu.Lock()
		delete(ts.listeners, id)
		ts.mu.Unlock()
	}
}

func (ts *TaskSignal) dispatchPriorityChange(ev PriorityChangeEvent) {
	ts.mu.Lock()
	listeners := make([]func(PriorityChangeEvent), 0, len(ts.listeners))
	for _, fn := range ts.listeners {
		listeners = append(listeners, fn)
	}
	ts.mu.Unlock()

	for _, fn := range listeners {
		fn(ev)
	}
}

// TaskController owns a TaskSignal's mutable priority, guarding against
// recursive setPriority calls from inside a prioritychange listener.
type TaskController struct {
	signal *TaskSignal

	mu                sync.Mutex
	isPriorityChanging bool
}

// ControllerOptions configures a new TaskController.
type ControllerOptions struct {
	// Priority is the controller's initial priority. Nil means unset and
	// resolves to priority.Default; priority.UserBlocking is the zero
	// value of priority.Priority, so a bare (non-pointer) field here
	// would silently mean "highest priority" instead of "default".
	Priority *priority.Priority
}

// NewTaskController creates a TaskController at the given priority, or at
// priority.Default if opts.Priority is nil. An invalid priority is a
// programmer error, reported via the returned error rather than a panic so
// postTask-style call sites can surface it as a rejected future.
func NewTaskController(opts ControllerOptions) (*TaskController, error) {
	p := priority.Default
	if opts.Priority != nil {
		p = *opts.Priority
	}
	if !p.Valid() {
		return nil, fmt.Errorf("signal: invalid controller priority %v", p)
	}
	return &TaskController{signal: newTaskSignal(p)}, nil
}

// NewTaskControllerDefault creates a TaskController at priority.Default.
func NewTaskControllerDefault() *TaskController {
	c, _ := NewTaskController(ControllerOptions{})
	return c
}

// Signal returns the controller's TaskSignal.
func (c *TaskController) Signal() *TaskSignal { return c.signal }

// Abort delegates to the underlying Signal's abort base.
func (c *TaskController) Abort(reason error) { c.signal.Signal.abort(reason) }

// SetPriority changes the controller's signal priority, dispatching a
// prioritychange event carrying the previous priority. A no-op call (same
// priority) emits no event. Calling SetPriority re-entrantly from within a
// prioritychange listener on this controller returns ErrPriorityChanging.
func (c *TaskController) SetPriority(p priority.Priority) error {
	if !p.Valid() {
		return fmt.Errorf("signal: invalid priority %v", p)
	}

	c.mu.Lock()
	if c.isPriorityChanging {
		c.mu.Unlock()
		return ErrPriorityChanging
	}

	c.signal.mu.Lock()
	previous := c.signal.prio
	if previous == p {
		c.signal.mu.Unlock()
		c.mu.Unlock()
		return nil
	}
	c.signal.prio = p
	c.signal.mu.Unlock()

	c.isPriorityChanging = true
	c.mu.Unlock()

	ev, err := newPriorityChangeEvent(previous)
	if err != nil {
		// Unreachable for a previously-valid priority; newPriorityChangeEvent
		// only rejects an invalid previous priority, which can't happen here.
		panic(err)
	}
	c.signal.dispatchPriorityChange(ev)

	c.mu.Lock()
	c.isPriorityChanging = false
	c.mu.Unlock()

	return nil
}
