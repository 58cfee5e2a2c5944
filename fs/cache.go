// Package fs provides an on-disk page cache for fetchers.
package fs

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/webcrawl"
)

// Ensure CachingFetcher implements webcrawl.Fetcher at compile time.
var _ webcrawl.Fetcher = (*CachingFetcher)(nil)

// CachingFetcher serves pages from a cache directory and fetches through
// next on a miss. Each page is stored in one file named after the xxhash
// of its URL. Files are written to a temporary name and renamed into
// place, so concurrent readers never see a partial page.
//
// Only successful fetches are cached. A page that cannot be written to the
// cache is still returned; the cache is an optimization, not a source of
// fetch failures.
type CachingFetcher struct {
	next   webcrawl.Fetcher
	dir    string
	logger *slog.Logger
}

// Option configures a CachingFetcher.
type Option func(*CachingFetcher)

// WithLogger sets the logger that reports cache write failures.
func WithLogger(logger *slog.Logger) Option {
	return func(f *CachingFetcher) {
		f.logger = logger
	}
}

// NewCachingFetcher creates a CachingFetcher storing pages under dir.
// The directory is created on first write.
func NewCachingFetcher(next webcrawl.Fetcher, dir string, opts ...Option) *CachingFetcher {
	f := &CachingFetcher{next: next, dir: dir}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Path returns the cache file for the URL.
func (f *CachingFetcher) Path(url string) string {
	return filepath.Join(f.dir, fmt.Sprintf("%016x.html", xxhash.Sum64String(url)))
}

// Fetch returns the cached page for the URL, fetching and storing it on a miss.
func (f *CachingFetcher) Fetch(ctx context.Context, url string) (string, error) {
	path := f.Path(url)

	data, err := os.ReadFile(path)
	if err == nil {
		return string(data), nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", err
	}

	html, err := f.next.Fetch(ctx, url)
	if err != nil {
		return "", err
	}

	if err := f.store(path, html); err != nil && f.logger != nil {
		f.logger.Warn("cache write failed", "url", url, "err", err)
	}
	return html, nil
}

func (f *CachingFetcher) store(path, html string) error {
	if err := os.MkdirAll(f.dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(html); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Clear removes every cached page. Files that are not cache entries are left alone.
func (f *CachingFetcher) Clear() error {
	entries, err := os.ReadDir(f.dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	} else if err != nil {
		return err
	}

	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".html") {
			continue
		}
		if err := os.Remove(filepath.Join(f.dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the wrapped fetcher.
func (f *CachingFetcher) Close() error {
	return f.next.Close()
}
