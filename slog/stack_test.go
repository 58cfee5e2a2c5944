package slog_test

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"testing"

	"github.com/fwojciec/webcrawl/crawl"
	"github.com/fwojciec/webcrawl/goquery"
	"github.com/fwojciec/webcrawl/mock"
	webcrawlslog "github.com/fwojciec/webcrawl/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// logLines returns the lines of output whose message is msg.
func logLines(output, msg string) []string {
	var lines []string
	for _, line := range strings.Split(output, "\n") {
		if strings.Contains(line, "msg="+msg+" ") {
			lines = append(lines, line)
		}
	}
	return lines
}

// TestDecorators_Crawl wires the decorators the way the command does and
// checks the log a small crawl produces.
func TestDecorators_Crawl(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"https://example.com/":  `<a href="/a">a</a><a href="/gone">gone</a>`,
		"https://example.com/a": `<a href="/">home</a>`,
	}
	fetcher := &mock.Fetcher{
		FetchFn: func(_ context.Context, url string) (string, error) {
			html, ok := pages[url]
			if !ok {
				return "", fmt.Errorf("HTTP 404 for %s", url)
			}
			return html, nil
		},
		CloseFn: func() error { return nil },
	}

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	downloader := goquery.NewDownloader(webcrawlslog.NewLoggingFetcher(fetcher, logger))
	crawler := webcrawlslog.NewLoggingCrawler(
		crawl.NewCrawler(downloader, 2, 2, 2, crawl.WithProgress(webcrawlslog.NewProgressLogger(logger))),
		logger,
	)
	defer crawler.Close()

	result, err := crawler.Download(context.Background(), "https://example.com/", 2)
	require.NoError(t, err)
	require.Len(t, result.URLs, 2)

	output := buf.String()

	fetches := logLines(output, "fetch")
	assert.Len(t, fetches, 3, "one fetch line per claimed URL")
	for _, line := range fetches {
		assert.Contains(t, line, "duration=")
	}
	assert.Contains(t, output, "bytes=20")
	assert.Contains(t, output, `err="HTTP 404 for https://example.com/gone"`)

	assert.Len(t, logLines(output, "downloaded"), 2)
	assert.Len(t, logLines(output, "extracted"), 1)

	failed := logLines(output, "failed")
	require.Len(t, failed, 1)
	assert.Contains(t, failed[0], "level=WARN")
	assert.Contains(t, failed[0], "url=https://example.com/gone")

	summary := logLines(output, "crawl")
	require.Len(t, summary, 1)
	assert.Contains(t, summary[0], "pages=2 errors=1 hosts=1")
}

func TestLoggingFetcher_Close(t *testing.T) {
	t.Parallel()

	closed := 0
	fetcher := webcrawlslog.NewLoggingFetcher(&mock.Fetcher{
		CloseFn: func() error {
			closed++
			return nil
		},
	}, slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil)))

	require.NoError(t, fetcher.Close())
	assert.Equal(t, 1, closed)
}
