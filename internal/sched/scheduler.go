// internal/sched/scheduler.go

package sched

import (
	"context"
	"fmt"
	"sync"
	"time"
	"weak"

	"postq/internal/future"
	"postq/internal/host"
	"postq/internal/priority"
	"postq/internal/signal"
)

// ValidationError reports a programmer error caught synchronously by
// PostTask/Yield (invalid priority, invalid signal, negative delay, ...),
// surfaced through a rejected future rather than a panic.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "sched: " + e.Msg }

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// Options configures a single PostTask call.
type Options struct {
	// Priority pins the effective priority for the lifetime of the task.
	// Nil means "derive from Signal, or default".
	Priority *priority.Priority
	// Signal is an AbortSignal, optionally also a PrioritySignal (e.g.
	// *signal.TaskSignal).
	Signal AbortSignal
	// Delay is the minimum time to wait before the task becomes
	// runnable. Must be >= 0.
	Delay time.Duration
}

// Scheduler owns the three priority queues, drives host callbacks, and
// runs tasks in priority order.
type Scheduler struct {
	mu sync.Mutex

	loop host.Loop
	cfg  Config

	queues        [3]queue
	pendingHostCB host.Callback // at most one outstanding host wake at any time
	sequence      uint64
	nextTaskID    uint64
	recorder      Recorder

	weakSignals   map[weak.Pointer[signal.TaskSignal]]priority.Priority
	strongSignals map[PrioritySignal]priority.Priority
}

// New creates a Scheduler bound to loop, tuned by cfg. With no recorders,
// events are logged through slog.Default(); with more than one, every
// recorder receives every event.
func New(loop host.Loop, cfg Config, recorders ...Recorder) *Scheduler {
	var rec Recorder
	switch len(recorders) {
	case 0:
		rec = NewSlogRecorder(nil)
	case 1:
		rec = recorders[0]
	default:
		rec = &multiRecorder{recorders: recorders}
	}
	return &Scheduler{
		loop:          loop,
		cfg:           cfg,
		recorder:      rec,
		weakSignals:   make(map[weak.Pointer[signal.TaskSignal]]priority.Priority),
		strongSignals: make(map[PrioritySignal]priority.Priority),
	}
}

func (s *Scheduler) nextSequence() uint64 {
	s.sequence++
	return s.sequence
}

// PostTask submits cb at the given priority/signal/delay, returning a
// future that resolves with cb's return value or rejects with its error
// or with the signal's abort reason.
func (s *Scheduler) PostTask(cb Callback, opts Options) *future.Future[any] {
	if opts.Priority != nil && !opts.Priority.Valid() {
		return future.Rejected[any](validationErrorf("invalid priority %v", *opts.Priority))
	}
	if opts.Delay < 0 {
		return future.Rejected[any](validationErrorf("negative delay %v", opts.Delay))
	}
	if opts.Signal != nil {
		if ps, ok := opts.Signal.(PrioritySignal); ok {
			if !ps.Priority().Valid() {
				return future.Rejected[any](validationErrorf("invalid signal priority %v", ps.Priority()))
			}
		}
	}

	fut, resolve, reject := future.New[any]()

	if opts.Signal != nil && opts.Signal.Aborted() {
		reject(opts.Signal.Reason())
		return fut
	}

	s.mu.Lock()
	id := s.nextTaskID
	s.nextTaskID++

	t := &task{
		id:       id,
		callback: cb,
		future:   fut,
		resolve:  resolve,
		reject:   reject,
		sig:      opts.Signal,
		priority: s.resolveEffectivePriorityLocked(opts),
	}

	if opts.Signal != nil {
		t.detachAbort = opts.Signal.OnAbort(func() { s.handleAbort(t) })
	}

	if opts.Delay > 0 {
		s.armDelay(t, opts.Delay)
		s.mu.Unlock()
		return fut
	}

	t.sequence = s.nextSequence()
	s.queues[t.priority].push(t)
	s.recorder.Record(Event{Time: time.Now(), Kind: EventEnqueue, TaskID: t.id, Priority: t.priority})
	s.scheduleHostIfNeededLocked()
	s.mu.Unlock()
	return fut
}

// resolveEffectivePriorityLocked implements the priority
// resolution: explicit option wins, else a priority-aware signal's
// current priority (subscribing to it on first sight), else the default.
func (s *Scheduler) resolveEffectivePriorityLocked(opts Options) priority.Priority {
	if opts.Priority != nil {
		return *opts.Priority
	}
	if ps, ok := opts.Signal.(PrioritySignal); ok {
		p := ps.Priority()
		if _, ok := s.lookupSignalLocked(ps); !ok {
			s.recordSignalLocked(ps, p)
			ps.OnPriorityChange(func(previous priority.Priority) {
				s.onSignalPriorityChange(ps, previous)
			})
		}
		return p
	}
	def, err := priority.Parse(s.cfg.DefaultPriority)
	if err != nil {
		return priority.Default
	}
	return def
}

// recordSignalLocked and lookupSignalLocked back the weak signal table.
// *signal.TaskSignal, the one concrete PrioritySignal this module ships,
// is tracked through a weak.Pointer so signals that outlive their tasks
// don't pin memory; any other PrioritySignal implementation falls back to
// a plain map, a documented limitation (see DESIGN.md).
func (s *Scheduler) recordSignalLocked(ps PrioritySignal, p priority.Priority) {
	if ts, ok := ps.(*signal.TaskSignal); ok {
		s.weakSignals[weak.Make(ts)] = p
		return
	}
	s.strongSignals[ps] = p
}

func (s *Scheduler) lookupSignalLocked(ps PrioritySignal) (priority.Priority, bool) {
	if ts, ok := ps.(*signal.TaskSignal); ok {
		for wp, p := range s.weakSignals {
			v := wp.Value()
			if v == nil {
				delete(s.weakSignals, wp)
				continue
			}
			if v == ts {
				return p, true
			}
		}
		return 0, false
	}
	p, ok := s.strongSignals[ps]
	return p, ok
}

// onSignalPriorityChange migrates a queued task between priority queues
// when its signal's priority changes.
func (s *Scheduler) onSignalPriorityChange(ps PrioritySignal, previousFromEvent priority.Priority) {
	s.mu.Lock()
	recorded, ok := s.lookupSignalLocked(ps)
	old := previousFromEvent
	if ok {
		old = recorded
	}
	newPrio := ps.Priority()
	if old == newPrio {
		s.mu.Unlock()
		return
	}
	s.queues[newPrio].merge(&s.queues[old], func(t *task) bool {
		return t.sig != nil && any(t.sig) == any(ps)
	})
	s.recordSignalLocked(ps, newPrio)
	s.recorder.Record(Event{Time: time.Now(), Kind: EventPriorityChange, Priority: newPrio})
	s.scheduleHostIfNeededLocked()
	s.mu.Unlock()
}

// armDelay implements the "delay > 0" branch of postTask: the task is not
// on any queue until the timer fires.
func (s *Scheduler) armDelay(t *task, delay time.Duration) {
	t.hostCallback = s.loop.ScheduleTimer(func() { s.onDelayExpired(t) }, delay)
	s.recorder.Record(Event{Time: time.Now(), Kind: EventDelayArmed, TaskID: t.id, Priority: t.priority})
}

// onDelayExpired pushes the now-runnable task onto its queue and
// immediately re-enters the dispatch loop, so a delayed task never cuts
// in front of higher-priority arrivals that queued during the delay.
func (s *Scheduler) onDelayExpired(t *task) {
	s.mu.Lock()
	if t.aborted {
		s.mu.Unlock()
		return
	}
	t.hostCallback = nil
	t.sequence = s.nextSequence()
	s.queues[t.priority].push(t)
	s.recorder.Record(Event{Time: time.Now(), Kind: EventEnqueue, TaskID: t.id, Priority: t.priority})

	if s.pendingHostCB != nil {
		s.pendingHostCB.Cancel()
		s.pendingHostCB = nil
	}
	s.scheduleHostIfNeededLocked()
	s.mu.Unlock()
}

// handleAbort rejects an aborted task's future. Reject is idempotent (the
// first settle of the future wins), so this is safe even if somehow
// invoked more than once for the same task.
func (s *Scheduler) handleAbort(t *task) {
	s.mu.Lock()
	if t.hostCallback != nil {
		t.hostCallback.Cancel()
		t.hostCallback = nil
	}
	t.aborted = true
	reason := t.sig.Reason()
	s.mu.Unlock()

	t.reject(reason)
	s.recorder.Record(Event{Time: time.Now(), Kind: EventAbort, TaskID: t.id, Priority: t.priority})
}

// scheduleHostIfNeededLocked arms at most one pending host wake for the
// highest-priority non-empty queue. Caller must hold s.mu.
func (s *Scheduler) scheduleHostIfNeededLocked() {
	top, ok := s.highestNonEmptyPriorityLocked()
	if !ok {
		return
	}

	if s.pendingHostCB != nil && s.pendingHostCB.IsIdle() && top != priority.Background {
		s.pendingHostCB.Cancel()
		s.pendingHostCB = nil
	}

	if s.pendingHostCB != nil {
		return
	}

	if top == priority.Background {
		s.pendingHostCB = s.loop.ScheduleIdle(s.onHostWake)
		return
	}
	s.pendingHostCB = s.loop.ScheduleImmediate(s.onHostWake)
}

func (s *Scheduler) highestNonEmptyPriorityLocked() (priority.Priority, bool) {
	for _, p := range priority.All {
		if !s.queues[p].isEmpty() {
			return p, true
		}
	}
	return 0, false
}

// onHostWake is the scheduler-entry callback: exactly one dispatch tick.
// Dispatch picks the highest-priority non-empty queue regardless of which
// host mode delivered the wake, preserving the known edge case where a
// background task can run inside a non-background wake.
func (s *Scheduler) onHostWake() {
	s.mu.Lock()
	s.pendingHostCB = nil
	s.runNextTaskLocked()
	s.scheduleHostIfNeededLocked()
	s.mu.Unlock()
}

// runNextTaskLocked pops and runs exactly one non-aborted task, skipping
// (and leaving rejected) any aborted tasks found on the way. Caller must
// hold s.mu; it is released while the callback runs so a callback that
// itself calls PostTask doesn't deadlock, then re-acquired before
// returning.
func (s *Scheduler) runNextTaskLocked() {
	var t *task
	for {
		next, ok := s.popNextLocked()
		if !ok {
			return
		}
		if !next.aborted {
			t = next
			break
		}
	}

	s.recorder.Record(Event{Time: time.Now(), Kind: EventDispatch, TaskID: t.id, Priority: t.priority})

	s.mu.Unlock()
	value, err := s.runGuarded(t)
	s.mu.Lock()

	if t.detachAbort != nil {
		t.detachAbort()
	}

	if err != nil {
		t.reject(err)
		s.recorder.Record(Event{Time: time.Now(), Kind: EventReject, TaskID: t.id, Priority: t.priority})
		return
	}
	t.resolve(value)
	s.recorder.Record(Event{Time: time.Now(), Kind: EventResolve, TaskID: t.id, Priority: t.priority})
}

func (s *Scheduler) popNextLocked() (*task, bool) {
	p, ok := s.highestNonEmptyPriorityLocked()
	if !ok {
		return nil, false
	}
	return s.queues[p].takeNextTask(), true
}

// runGuarded invokes t.callback, converting a panic into an error the same
// way a thrown exception would reject a Promise, matching this module's
// callback-failure handling.
func (s *Scheduler) runGuarded(t *task) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sched: task %d panicked: %v", t.id, r)
		}
	}()
	return t.callback(context.Background())
}

// pendingCount reports how many tasks are currently queued, for tests.
func (s *Scheduler) pendingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, p := range priority.All {
		for c := s.queues[p].head; c != nil; c = c.next {
			n++
		}
	}
	return n
}
