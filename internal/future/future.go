// Package future implements the single-value asynchronous result used to
// return postTask/yield outcomes to callers, playing the role a
// host-supplied Promise would in a browser environment.
package future

import (
	"context"
	"sync"
)

// Future is a one-shot container for a value or an error, settled exactly
// once by the resolve/reject closures returned from New.
type Future[V any] struct {
	mu       sync.Mutex
	done     chan struct{}
	settled  bool
	value    V
	err      error
	onResult []func(V, error)
}

// New creates a Future together with the resolve and reject closures that
// settle it. Both closures are idempotent: only the first call of either
// has any effect.
func New[V any]() (*Future[V], func(V), func(error)) {
	f := &Future[V]{done: make(chan struct{})}
	return f, f.resolve, f.reject
}

// Resolved returns an already-settled Future wrapping value v.
func Resolved[V any](v V) *Future[V] {
	f, resolve, _ := New[V]()
	resolve(v)
	return f
}

// Rejected returns an already-settled Future wrapping err.
func Rejected[V any](err error) *Future[V] {
	f, _, reject := New[V]()
	reject(err)
	return f
}

func (f *Future[V]) resolve(v V) {
	f.settle(v, nil)
}

func (f *Future[V]) reject(err error) {
	var zero V
	f.settle(zero, err)
}

func (f *Future[V]) settle(v V, err error) {
	f.mu.Lock()
	if f.settled {
		f.mu.Unlock()
		return
	}
	f.settled = true
	f.value = v
	f.err = err
	callbacks := f.onResult
	f.onResult = nil
	f.mu.Unlock()

	close(f.done)
	for _, cb := range callbacks {
		cb(v, err)
	}
}

// Await blocks until the Future settles or ctx is done, whichever comes
// first.
func (f *Future[V]) Await(ctx context.Context) (V, error) {
	select {
	case <-f.done:
		f.mu.Lock()
		v, err := f.value, f.err
		f.mu.Unlock()
		return v, err
	case <-ctx.Done():
		var zero V
		return zero, ctx.Err()
	}
}

// Done returns a channel that is closed once the Future has settled.
func (f *Future[V]) Done() <-chan struct{} {
	return f.done
}

// Then registers fn to run with the settled (value, error) pair. If the
// Future is already settled, fn runs synchronously before Then returns.
func (f *Future[V]) Then(fn func(V, error)) {
	f.mu.Lock()
	if f.settled {
		v, err := f.value, f.err
		f.mu.Unlock()
		fn(v, err)
		return
	}
	f.onResult = append(f.onResult, fn)
	f.mu.Unlock()
}
