package rod

import (
	"errors"
	"fmt"
	"sync"

	"github.com/fwojciec/webcrawl"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// DefaultMaxPages is how many pages one Chrome process serves before a
// fresh one takes over.
const DefaultMaxPages = 75

// BrowserStats counts what a BrowserManager has served.
type BrowserStats struct {
	Pages    int64 // pages handed out
	Restarts int64 // browsers replaced after reaching the page limit
	Live     int   // Chrome processes still running
}

// chrome is one Chrome process and the tabs it currently serves.
type chrome struct {
	browser  *rod.Browser
	launcher *launcher.Launcher
	served   int64
	inFlight int
	retired  bool
}

func (c *chrome) shutdown() error {
	var err error
	if c.browser != nil {
		err = c.browser.Close()
		c.browser = nil
	}
	if c.launcher != nil {
		c.launcher.Kill()
		c.launcher = nil
	}
	return err
}

// BrowserManager lends a shared Chrome process to concurrent fetches.
//
// Chrome's memory grows over a long crawl even when every tab is closed, so
// once a process has served maxPages pages new leases go to a fresh process.
// The old one keeps running until its last tab is released; a crawl with many
// downloads in flight never has a page torn down under it.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	maxPages int64

	mu       sync.Mutex
	current  *chrome
	live     map[*chrome]struct{}
	pages    int64
	restarts int64
	closed   bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithBrowserMaxPages sets how many pages one browser serves.
// Non-positive values keep DefaultMaxPages.
func WithBrowserMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		if n > 0 {
			bm.maxPages = n
		}
	}
}

// NewBrowserManager launches a headless Chrome process.
// Close must be called when the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{
		maxPages: DefaultMaxPages,
		live:     make(map[*chrome]struct{}),
	}
	for _, opt := range opts {
		opt(bm)
	}

	c, err := launchChrome()
	if err != nil {
		return nil, err
	}
	bm.current = c
	bm.live[c] = struct{}{}
	return bm, nil
}

// Acquire lends a browser for one page. The returned release must be called
// once the page is closed; calling it more than once is harmless.
func (bm *BrowserManager) Acquire() (*rod.Browser, func(), error) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil, nil, webcrawl.Errorf(webcrawl.EINVALID, "browser manager is closed")
	}

	// A failed launch keeps the current browser in service; the next
	// Acquire tries again.
	if bm.current.served >= bm.maxPages {
		_ = bm.rotate()
	}

	c := bm.current
	c.served++
	c.inFlight++
	bm.pages++

	var once sync.Once
	release := func() {
		once.Do(func() { bm.release(c) })
	}
	return c.browser, release, nil
}

// rotate retires the current browser in favour of a fresh one.
// Must be called with mu held.
func (bm *BrowserManager) rotate() error {
	next, err := launchChrome()
	if err != nil {
		return err
	}

	old := bm.current
	old.retired = true
	if old.inFlight == 0 {
		_ = old.shutdown()
		delete(bm.live, old)
	}

	bm.current = next
	bm.live[next] = struct{}{}
	bm.restarts++
	return nil
}

func (bm *BrowserManager) release(c *chrome) {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	c.inFlight--
	if c.retired && c.inFlight == 0 {
		_ = c.shutdown()
		delete(bm.live, c)
	}
}

// Stats reports pages served and browser restarts so far.
func (bm *BrowserManager) Stats() BrowserStats {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	return BrowserStats{Pages: bm.pages, Restarts: bm.restarts, Live: len(bm.live)}
}

// LauncherPID returns the process ID of the browser serving new pages,
// or 0 once closed.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed || bm.current.launcher == nil {
		return 0
	}
	return bm.current.launcher.PID()
}

// Close shuts down every browser, including those with tabs still open.
// Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true

	var errs []error
	for c := range bm.live {
		if err := c.shutdown(); err != nil {
			errs = append(errs, err)
		}
		delete(bm.live, c)
	}
	return errors.Join(errs...)
}

// launchChrome starts a headless browser with the flags that keep background
// tabs from being throttled during a crawl.
func launchChrome() (*chrome, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, fmt.Errorf("launching browser: %w", err)
	}

	browser := rod.New().ControlURL(u)
	if err := browser.Connect(); err != nil {
		l.Kill()
		return nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return &chrome{browser: browser, launcher: l}, nil
}
