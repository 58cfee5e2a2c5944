package crawl

import (
	"context"
	"sync"
)

// Barrier is a join point for a dynamically growing set of tasks.
//
// Unlike sync.WaitGroup, new work may be registered while another goroutine
// is blocked in Wait. A Barrier starts with one pending party that belongs to
// the waiter; Wait arrives for that party, so the count cannot reach zero
// before the waiter has started waiting. Tasks must be registered before they
// are handed to a worker and must arrive only after their body, including any
// registrations it makes, has run.
//
// A Barrier completes once. It is safe for concurrent use.
type Barrier struct {
	mu      sync.Mutex
	pending int
	done    chan struct{}
}

// NewBarrier returns a Barrier holding the waiter's party.
func NewBarrier() *Barrier {
	return &Barrier{
		pending: 1,
		done:    make(chan struct{}),
	}
}

// Register adds one pending task.
func (b *Barrier) Register() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == 0 {
		panic("crawl: Register called on a completed barrier")
	}
	b.pending++
}

// Arrive marks one pending task as finished.
// When the last party arrives, the barrier completes.
func (b *Barrier) Arrive() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.pending == 0 {
		panic("crawl: negative barrier count")
	}
	b.pending--
	if b.pending == 0 {
		close(b.done)
	}
}

// Pending returns the number of parties that have not arrived yet.
func (b *Barrier) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.pending
}

// Wait arrives for the waiter's party and blocks until all registered tasks
// have arrived or ctx is done. It must be called at most once.
func (b *Barrier) Wait(ctx context.Context) error {
	b.Arrive()

	select {
	case <-b.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
