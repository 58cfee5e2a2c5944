package crawl

import "sync"

// pool runs tasks on a fixed number of goroutines.
// Its queue is unbounded, so Submit never blocks the caller.
type pool struct {
	mu     sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
}

// newPool starts a pool with n workers.
func newPool(n int) *pool {
	if n < 1 {
		n = 1
	}
	p := &pool{}
	p.cond = sync.NewCond(&p.mu)

	for range n {
		go p.work()
	}
	return p
}

// Submit enqueues a task. It returns false if the pool is closed,
// in which case the task will never run.
func (p *pool) Submit(task func()) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return false
	}
	p.queue = append(p.queue, task)
	p.cond.Signal()
	return true
}

// Close stops the pool. Queued tasks are dropped; running tasks are not
// waited for. Close is idempotent.
func (p *pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return
	}
	p.closed = true
	p.queue = nil
	p.cond.Broadcast()
}

func (p *pool) work() {
	for {
		p.mu.Lock()
		for len(p.queue) == 0 && !p.closed {
			p.cond.Wait()
		}
		if p.closed {
			p.mu.Unlock()
			return
		}
		task := p.queue[0]
		p.queue[0] = nil
		p.queue = p.queue[1:]
		p.mu.Unlock()

		task()
	}
}
