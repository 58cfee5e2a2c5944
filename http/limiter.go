package http

import (
	"context"
	"sync"

	"github.com/fwojciec/webcrawl"
	"golang.org/x/time/rate"
)

var _ webcrawl.DomainLimiter = (*DomainLimiter)(nil)

// DomainLimiter spaces out requests to the same domain using token buckets.
// Each domain gets its own bucket with a burst of 1, so requests to different
// domains never wait on each other.
type DomainLimiter struct {
	limit    rate.Limit
	limiters sync.Map // domain -> *rate.Limiter
}

// NewDomainLimiter creates a DomainLimiter allowing rps requests per second
// to each domain. A non-positive rps disables limiting.
func NewDomainLimiter(rps float64) *DomainLimiter {
	limit := rate.Limit(rps)
	if rps <= 0 {
		limit = rate.Inf
	}
	return &DomainLimiter{limit: limit}
}

// Wait blocks until the domain's bucket has a token.
// Returns an error if the context is canceled before the wait completes.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	l, ok := d.limiters.Load(domain)
	if !ok {
		l, _ = d.limiters.LoadOrStore(domain, rate.NewLimiter(d.limit, 1))
	}
	return l.(*rate.Limiter).Wait(ctx)
}
