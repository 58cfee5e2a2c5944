package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/webcrawl"
)

// Ensure LoggingCrawler implements webcrawl.Crawler.
var _ webcrawl.Crawler = (*LoggingCrawler)(nil)

// hostCounter is implemented by crawlers that can report how many hosts
// they have throttled, such as *crawl.Crawler.
type hostCounter interface {
	Hosts() int
}

// LoggingCrawler wraps a Crawler and logs one summary line per crawl.
// When the wrapped crawler reports its host count, the line includes it.
type LoggingCrawler struct {
	next   webcrawl.Crawler
	logger *slog.Logger
}

// NewLoggingCrawler creates a new LoggingCrawler.
func NewLoggingCrawler(next webcrawl.Crawler, logger *slog.Logger) *LoggingCrawler {
	return &LoggingCrawler{next: next, logger: logger}
}

// Download delegates to the wrapped crawler and logs the outcome.
func (c *LoggingCrawler) Download(ctx context.Context, url string, depth int) (result *webcrawl.Result, err error) {
	defer func(begin time.Time) {
		var pages, failures int
		if result != nil {
			pages, failures = len(result.URLs), len(result.Errors)
		}
		attrs := []any{
			"url", url,
			"depth", depth,
			"pages", pages,
			"errors", failures,
		}
		if hc, ok := c.next.(hostCounter); ok {
			attrs = append(attrs, "hosts", hc.Hosts())
		}
		attrs = append(attrs, "duration", time.Since(begin), "err", err)
		c.logger.Info("crawl", attrs...)
	}(time.Now())
	return c.next.Download(ctx, url, depth)
}

// Close delegates to the wrapped crawler.
func (c *LoggingCrawler) Close() error {
	return c.next.Close()
}
