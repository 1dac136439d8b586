package sched

import (
	"context"

	"postq/internal/future"
	"postq/internal/host"
	"postq/internal/priority"
)

// AbortSignal is the minimal capability postTask needs from whatever is
// passed as Options.Signal: a plain *signal.Signal satisfies it directly,
// and so does *signal.TaskSignal via its embedded *signal.Signal.
type AbortSignal interface {
	Aborted() bool
	Reason() error
	OnAbort(fn func()) (detach func())
}

// PrioritySignal is probed for dynamically (capability check, not type
// assertion against a concrete type) so any value exposing a priority and
// a prioritychange topic can drive effective-priority resolution.
// *signal.TaskSignal satisfies it; the scheduler refers to that concrete
// type only to pick weak tracking in its signal table.
type PrioritySignal interface {
	Priority() priority.Priority
	OnPriorityChange(fn func(previous priority.Priority)) (detach func())
}

// Callback is the user-supplied work a task wraps.
type Callback func(context.Context) (any, error)

// task is the intrusive record a queue links by pointer. Outside code never
// sees prev/next/sequence; they belong entirely to whichever queue
// currently holds the task.
type task struct {
	id       uint64
	sequence uint64
	priority priority.Priority

	callback Callback
	future   *future.Future[any]
	resolve  func(any)
	reject   func(error)

	sig         AbortSignal
	detachAbort func()

	hostCallback host.Callback // non-nil iff waiting on a delay timer
	aborted      bool

	prev, next *task
}
