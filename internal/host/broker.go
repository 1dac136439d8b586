package host

import "sync"

// broker is a per-loop immediate-tick broker: it maps a monotonically
// increasing handle to a pending function, posts the handle through a
// self-pipe (here, a buffered Go channel read by one dedicated dispatch
// goroutine), and on receipt looks up and invokes, or skips if the entry
// was deleted by a cancel. The underlying primitive (a Go channel) has no
// per-message cancel of its own, so cancellation works by deleting the
// map entry before the dispatch goroutine dequeues it.
//
// deliver hands each callback its own goroutine rather than running fn
// inline: a callback that itself blocks on a future settled by a later
// immediate tick (Yield's whole reason for existing) would otherwise wedge
// the one dispatch goroutine forever, starving every other pending and
// future post on this broker. Running each fn on its own goroutine keeps
// the broker live no matter what a callback blocks on; actual dispatch
// ordering is still enforced by the scheduler's own mutex and priority
// queues, not by this delivery order.
type broker struct {
	mu      sync.Mutex
	pending map[uint64]func()
	nextID  uint64
	posts   chan uint64
	once    sync.Once
}

func newBroker(buffer int) *broker {
	b := &broker{
		pending: make(map[uint64]func()),
		posts:   make(chan uint64, buffer),
	}
	return b
}

func (b *broker) start() {
	b.once.Do(func() {
		go b.deliver()
	})
}

func (b *broker) deliver() {
	for id := range b.posts {
		b.mu.Lock()
		fn, ok := b.pending[id]
		if ok {
			delete(b.pending, id)
		}
		b.mu.Unlock()
		if ok {
			go fn()
		}
	}
}

func (b *broker) post(fn func()) (id uint64) {
	b.start()
	b.mu.Lock()
	id = b.nextID
	b.nextID++
	b.pending[id] = fn
	b.mu.Unlock()
	b.posts <- id
	return id
}

func (b *broker) cancel(id uint64) {
	b.mu.Lock()
	delete(b.pending, id)
	b.mu.Unlock()
}

type immediateCallback struct {
	b  *broker
	id uint64
}

func (c *immediateCallback) Cancel()          { c.b.cancel(c.id) }
func (c *immediateCallback) IsIdle() bool      { return false }
func (c *immediateCallback) IsImmediate() bool { return true }
