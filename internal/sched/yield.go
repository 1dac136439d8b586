package sched

import (
	"context"

	"postq/internal/future"
	"postq/internal/priority"
	"postq/internal/signal"
)

// Inherit is the sentinel YieldOptions.Priority value meaning "inherit
// from the calling context". This polyfill's dispatcher, unlike a
// browser's, cannot observe the async execution context it's called from,
// so Inherit degrades to the default priority.
var Inherit = &inheritPriority

var inheritPriority = priority.Priority(-1)

// inheritSignal is the sentinel YieldOptions.Signal value meaning "inherit
// from the calling context". It degrades to "no signal" for the same
// reason Inherit degrades to the default priority.
type inheritSignal struct{}

func (inheritSignal) Aborted() bool                  { return false }
func (inheritSignal) Reason() error                  { return nil }
func (inheritSignal) OnAbort(func()) (detach func()) { return func() {} }

// InheritSignal is the AbortSignal value meaning "inherit".
var InheritSignal AbortSignal = inheritSignal{}

// YieldOptions configures a single Yield call.
type YieldOptions struct {
	// Priority is one of the three priorities, or Inherit.
	Priority *priority.Priority
	// Signal is an AbortSignal, optionally also a PrioritySignal, or
	// InheritSignal for none.
	Signal AbortSignal
}

// yieldPriorityMap implements the Mode A continuation policy: a yield's
// priority is boosted relative to the priority that requested it, except
// background, which stays background.
func yieldPriorityMap(p priority.Priority) priority.Priority {
	switch p {
	case priority.UserBlocking:
		return priority.UserBlocking
	case priority.Background:
		return priority.Background
	default: // priority.UserVisible and anything else
		return priority.UserBlocking
	}
}

func isInheritPriority(p *priority.Priority) bool {
	return p == nil || p == Inherit
}

// Yield posts a continuation of the calling task through this scheduler
// at a boosted effective priority (the "Mode A" self-post strategy). There
// is no native platform scheduler for this module to delegate to, so a
// "Mode B" delegation strategy isn't implemented; see DESIGN.md for why
// that's the right call here.
func (s *Scheduler) Yield(opts YieldOptions) *future.Future[struct{}] {
	hasSignal := opts.Signal != nil && opts.Signal != InheritSignal

	var ps PrioritySignal
	var hasPrioritySignal bool
	if hasSignal {
		ps, hasPrioritySignal = opts.Signal.(PrioritySignal)
	}

	// basePriority mirrors PostTask's resolution order: an
	// explicit pin wins, else a priority-aware signal's current priority,
	// else the default.
	basePriority := priority.Default
	switch {
	case !isInheritPriority(opts.Priority):
		basePriority = *opts.Priority
	case hasPrioritySignal:
		basePriority = ps.Priority()
	}
	effective := yieldPriorityMap(basePriority)

	fut, resolve, reject := future.New[struct{}]()

	if hasSignal && opts.Signal.Aborted() {
		reject(opts.Signal.Reason())
		return fut
	}

	controller := signal.NewTaskControllerDefault()
	_ = controller.SetPriority(effective)

	// dynamic tracks whether the continuation's priority should keep
	// following the caller's signal (only possible when the caller did
	// not pin a priority and supplied a PrioritySignal). When dynamic,
	// the posted task's priority is driven by controller.Signal() itself
	// rather than pinned, so the scheduler's own merge-on-prioritychange
	// machinery migrates the continuation automatically whenever we
	// re-map the caller's new priority onto it below.
	var detachAbort, detachPrio func()
	var postOpts Options
	dynamic := false
	if hasSignal {
		detachAbort = opts.Signal.OnAbort(func() {
			controller.Abort(opts.Signal.Reason())
		})
		if isInheritPriority(opts.Priority) && hasPrioritySignal {
			dynamic = true
			detachPrio = ps.OnPriorityChange(func(priority.Priority) {
				_ = controller.SetPriority(yieldPriorityMap(ps.Priority()))
			})
		}
	}
	if dynamic {
		postOpts = Options{Signal: controller.Signal()}
	} else {
		p := effective
		postOpts = Options{Priority: &p, Signal: controller.Signal()}
	}

	inner := s.PostTask(func(ctx context.Context) (any, error) {
		return struct{}{}, nil
	}, postOpts)

	inner.Then(func(_ any, err error) {
		if detachAbort != nil {
			detachAbort()
		}
		if detachPrio != nil {
			detachPrio()
		}
		if err != nil {
			reject(err)
			return
		}
		resolve(struct{}{})
	})

	return fut
}
