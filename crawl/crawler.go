// Package crawl provides the recursive crawler.
// It coordinates a download stage and an extraction stage, each backed by a
// fixed-size worker pool, limits concurrent requests per host, and joins
// the dynamically growing set of tasks with a Barrier.
package crawl

import (
	"context"
	"runtime"
	"sync"

	"github.com/fwojciec/webcrawl"
)

// Compile-time interface verification.
var _ webcrawl.Crawler = (*Crawler)(nil)

// ProgressEvent reports the outcome of a single URL.
type ProgressEvent struct {
	Type  ProgressType
	URL   string
	Depth int
	Links int
	Error error

	// Pending is the number of tasks of the crawl not yet finished,
	// including the caller waiting for it.
	Pending int
}

// ProgressType indicates the type of progress event.
type ProgressType int

const (
	// ProgressDownloaded is reported after a page was fetched.
	ProgressDownloaded ProgressType = iota
	// ProgressExtracted is reported after a page's links were submitted.
	ProgressExtracted
	// ProgressFailed is reported when a URL is recorded as an error.
	ProgressFailed
)

// ProgressFunc is a callback for reporting crawl progress.
// It is called from worker goroutines and must be safe for concurrent use.
type ProgressFunc func(event ProgressEvent)

// Option configures a Crawler.
type Option func(*Crawler)

// WithHostResolver sets the function that derives the throttling key from a URL.
// Defaults to webcrawl.HostOf.
func WithHostResolver(fn func(url string) (string, error)) Option {
	return func(c *Crawler) {
		c.hostOf = fn
	}
}

// WithProgress sets a callback that receives per-URL events.
func WithProgress(fn ProgressFunc) Option {
	return func(c *Crawler) {
		c.progress = fn
	}
}

// WithApproximateDedup records visited URLs in a Bloom filter sized for n
// URLs with the given false positive rate instead of an exact set.
func WithApproximateDedup(n uint, fpRate float64) Option {
	return func(c *Crawler) {
		c.bloomN = n
		c.bloomFP = fpRate
	}
}

// Crawler downloads pages recursively with bounded concurrency.
//
// The download pool size caps simultaneous requests globally and the host
// throttle caps them per host. The pools and the throttle live as long as the
// Crawler and are shared by every Download call; visited URLs and errors are
// tracked per call.
type Crawler struct {
	downloader webcrawl.Downloader
	hostOf     func(string) (string, error)
	progress   ProgressFunc
	bloomN     uint
	bloomFP    float64

	downloaders *pool
	extractors  *pool
	throttle    *HostThrottle

	ctx       context.Context
	cancel    context.CancelFunc
	closeOnce sync.Once
}

// NewCrawler creates a Crawler that runs up to downloaders fetches and
// extractors link extractions at once, with at most perHost concurrent
// fetches per host. Non-positive pool sizes default to the number of CPUs;
// a non-positive perHost defaults to twice that.
func NewCrawler(downloader webcrawl.Downloader, downloaders, extractors, perHost int, opts ...Option) *Crawler {
	if downloaders <= 0 {
		downloaders = runtime.NumCPU()
	}
	if extractors <= 0 {
		extractors = runtime.NumCPU()
	}
	if perHost <= 0 {
		perHost = 2 * runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	c := &Crawler{
		downloader:  downloader,
		hostOf:      webcrawl.HostOf,
		downloaders: newPool(downloaders),
		extractors:  newPool(extractors),
		throttle:    NewHostThrottle(perHost),
		ctx:         ctx,
		cancel:      cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// run holds the state of one Download call.
type run struct {
	ctx     context.Context
	visited visitedSet
	errors  errorTable
	barrier *Barrier
}

// Download crawls from url up to depth and blocks until every reachable page
// within depth has been attempted. Depth 1 downloads only url itself.
//
// Per-page failures are reported in Result.Errors. Download returns an error
// only for an invalid depth, a closed Crawler (ECLOSED), or when ctx is done;
// in the last case the pending tasks are drained before it returns.
func (c *Crawler) Download(ctx context.Context, url string, depth int) (*webcrawl.Result, error) {
	if depth < 1 {
		return nil, webcrawl.Errorf(webcrawl.EINVALID, "depth must be at least 1, got %d", depth)
	}
	if c.ctx.Err() != nil {
		return nil, webcrawl.Errorf(webcrawl.ECLOSED, "crawler is closed")
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(c.ctx, cancel)
	defer stop()

	r := &run{
		ctx:     runCtx,
		visited: c.newVisitedSet(),
		barrier: NewBarrier(),
	}

	c.submit(c.downloaders, r, func() {
		c.downloadTask(r, url, depth)
	})

	// Tasks dropped by Close never arrive, so wait on the crawler's context
	// rather than the caller's.
	// A Close racing the root submission leaves nothing to wait for, so the
	// crawler context is checked again after a clean return.
	if err := r.barrier.Wait(c.ctx); err != nil || c.ctx.Err() != nil {
		return nil, webcrawl.Errorf(webcrawl.ECLOSED, "crawler closed during download of %s", url)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	return r.result(), nil
}

// Close stops both worker pools immediately. Queued tasks are dropped and
// running tasks are abandoned; a Download in progress returns ECLOSED.
// Close is idempotent.
func (c *Crawler) Close() error {
	c.closeOnce.Do(func() {
		c.cancel()
		c.downloaders.Close()
		c.extractors.Close()
	})
	return nil
}

// Hosts returns how many distinct hosts the crawler has throttled so far,
// across every Download call.
func (c *Crawler) Hosts() int {
	return c.throttle.Len()
}

func (c *Crawler) newVisitedSet() visitedSet {
	if c.bloomN > 0 {
		return newBloomSet(c.bloomN, c.bloomFP)
	}
	return newExactSet()
}

// submit registers the task with the run's barrier and hands it to the pool.
// Registration happens before submission, and the task arrives after its
// body has run, so the barrier never sees a task in flight as finished.
func (c *Crawler) submit(p *pool, r *run, task func()) {
	r.barrier.Register()
	ok := p.Submit(func() {
		defer r.barrier.Arrive()
		task()
	})
	if !ok {
		r.barrier.Arrive()
	}
}

// downloadTask fetches one URL and, unless it is a leaf, schedules link extraction.
func (c *Crawler) downloadTask(r *run, url string, depth int) {
	if !r.visited.TryVisit(url) {
		return
	}
	if err := r.ctx.Err(); err != nil {
		c.fail(r, webcrawl.FailureCanceled, url, depth, err)
		return
	}

	host, err := c.hostOf(url)
	if err != nil {
		c.fail(r, webcrawl.FailureMalformedURL, url, depth, err)
		return
	}

	release, err := c.throttle.Acquire(r.ctx, host)
	if err != nil {
		c.fail(r, webcrawl.FailureCanceled, url, depth, err)
		return
	}
	doc, err := c.downloader.Download(r.ctx, url)
	release()
	if err != nil {
		kind := webcrawl.FailureFetch
		if r.ctx.Err() != nil {
			kind = webcrawl.FailureCanceled
		}
		c.fail(r, kind, url, depth, err)
		return
	}
	c.report(r, ProgressEvent{Type: ProgressDownloaded, URL: url, Depth: depth})

	if depth <= 1 || r.ctx.Err() != nil {
		return
	}

	c.submit(c.extractors, r, func() {
		c.extractTask(r, doc, url, depth)
	})
}

// extractTask extracts the document's links and schedules a download for each.
func (c *Crawler) extractTask(r *run, doc webcrawl.Document, url string, depth int) {
	links, err := doc.ExtractLinks()
	if err != nil {
		c.fail(r, webcrawl.FailureExtraction, url, depth, err)
		return
	}

	for _, link := range links {
		if r.ctx.Err() != nil {
			return
		}
		c.submit(c.downloaders, r, func() {
			c.downloadTask(r, link, depth-1)
		})
	}
	c.report(r, ProgressEvent{Type: ProgressExtracted, URL: url, Depth: depth, Links: len(links)})
}

func (c *Crawler) fail(r *run, kind webcrawl.FailureKind, url string, depth int, err error) {
	r.errors.record(kind, url, err)
	c.report(r, ProgressEvent{
		Type:  ProgressFailed,
		URL:   url,
		Depth: depth,
		Error: &webcrawl.Failure{Kind: kind, URL: url, Err: err},
	})
}

func (c *Crawler) report(r *run, event ProgressEvent) {
	if c.progress != nil {
		event.Pending = r.barrier.Pending()
		c.progress(event)
	}
}

// result assembles the outcome: every visited URL that has no recorded error.
func (r *run) result() *webcrawl.Result {
	errs := r.errors.snapshot()
	urls := make([]string, 0)
	for _, u := range r.visited.URLs() {
		if _, failed := errs[u]; failed {
			continue
		}
		urls = append(urls, u)
	}
	return &webcrawl.Result{URLs: urls, Errors: errs}
}
