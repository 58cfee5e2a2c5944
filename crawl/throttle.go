package crawl

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// HostThrottle limits the number of concurrent requests per host.
// It keeps one admission gate per host, created the first time the host is
// seen. Gates are never removed, so they are reused by later crawls.
// HostThrottle is safe for concurrent use.
type HostThrottle struct {
	perHost int64
	gates   sync.Map // host -> *semaphore.Weighted
}

// NewHostThrottle creates a HostThrottle admitting perHost holders per host.
func NewHostThrottle(perHost int) *HostThrottle {
	if perHost < 1 {
		perHost = 1
	}
	return &HostThrottle{perHost: int64(perHost)}
}

// Acquire blocks until the host has a free slot or ctx is done.
// On success the returned release function must be called once the request
// has finished; calling it more than once has no further effect.
func (t *HostThrottle) Acquire(ctx context.Context, host string) (release func(), err error) {
	gate := t.gate(host)
	if err := gate.Acquire(ctx, 1); err != nil {
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() { gate.Release(1) })
	}, nil
}

// Len returns the number of hosts that have a gate.
func (t *HostThrottle) Len() int {
	n := 0
	t.gates.Range(func(_, _ any) bool {
		n++
		return true
	})
	return n
}

// gate returns the host's gate, creating it if needed.
// LoadOrStore guarantees racing callers end up with the same gate.
func (t *HostThrottle) gate(host string) *semaphore.Weighted {
	if g, ok := t.gates.Load(host); ok {
		return g.(*semaphore.Weighted)
	}
	g, _ := t.gates.LoadOrStore(host, semaphore.NewWeighted(t.perHost))
	return g.(*semaphore.Weighted)
}
