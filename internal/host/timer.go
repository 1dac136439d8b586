package host

import (
	"sync"
	"time"

	"github.com/emirpasic/gods/trees/redblacktree"
)

// timerKey orders pending timers by fire time, breaking ties by arrival
// sequence, keeping cancellation and inspection of in-flight timers
// deterministic even though time.AfterFunc itself needs no such structure
// to fire correctly.
type timerKey struct {
	fireAt   int64 // UnixNano
	sequence uint64
}

func timerKeyCompare(a, b any) int {
	ka, kb := a.(timerKey), b.(timerKey)
	switch {
	case ka.fireAt < kb.fireAt:
		return -1
	case ka.fireAt > kb.fireAt:
		return 1
	case ka.sequence < kb.sequence:
		return -1
	case ka.sequence > kb.sequence:
		return 1
	default:
		return 0
	}
}

// timerRegistry tracks all pending timers in a red-black tree keyed by
// (fireAt, sequence).
type timerRegistry struct {
	mu       sync.Mutex
	tree     *redblacktree.Tree
	sequence uint64
}

func newTimerRegistry() *timerRegistry {
	return &timerRegistry{tree: redblacktree.NewWith(timerKeyCompare)}
}

func (r *timerRegistry) schedule(fn func(), delay time.Duration) *timerCallback {
	r.mu.Lock()
	r.sequence++
	key := timerKey{fireAt: time.Now().Add(delay).UnixNano(), sequence: r.sequence}
	// Register the key before arming, so a timer that fires at once still
	// finds itself in the tree.
	r.tree.Put(key, (*time.Timer)(nil))
	r.mu.Unlock()

	tc := &timerCallback{registry: r, key: key}

	t := time.AfterFunc(delay, func() {
		r.mu.Lock()
		_, found := r.tree.Get(key)
		if found {
			r.tree.Remove(key)
		}
		r.mu.Unlock()
		if found {
			fn()
		}
	})

	r.mu.Lock()
	if _, found := r.tree.Get(key); found {
		r.tree.Put(key, t)
	}
	r.mu.Unlock()

	tc.timer = t
	return tc
}

// Pending reports how many timers are currently armed.
func (r *timerRegistry) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tree.Size()
}

type timerCallback struct {
	registry *timerRegistry
	key      timerKey
	timer    *time.Timer
}

func (c *timerCallback) Cancel() {
	c.registry.mu.Lock()
	_, found := c.registry.tree.Get(c.key)
	if found {
		c.registry.tree.Remove(c.key)
	}
	c.registry.mu.Unlock()
	if c.timer != nil {
		c.timer.Stop()
	}
}

func (c *timerCallback) IsIdle() bool      { return false }
func (c *timerCallback) IsImmediate() bool { return false }
