// Package goquery implements webcrawl.Downloader on top of a webcrawl.Fetcher,
// turning fetched HTML into documents whose links are extracted with goquery.
package goquery

import (
	"context"

	"github.com/fwojciec/webcrawl"
)

// Ensure Downloader implements webcrawl.Downloader at compile time.
var _ webcrawl.Downloader = (*Downloader)(nil)

// DefaultSelector matches every anchor with an href.
const DefaultSelector = "a[href]"

// Downloader fetches pages and wraps them as Documents.
// Parsing is deferred until ExtractLinks is called, so it runs on the
// crawler's extraction workers rather than while a host slot is held.
type Downloader struct {
	fetcher  webcrawl.Fetcher
	selector string
	sameHost bool
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithSameHost drops links that point to a different host than the page.
func WithSameHost() Option {
	return func(d *Downloader) {
		d.sameHost = true
	}
}

// WithSelector sets the CSS selector for link elements.
// Defaults to DefaultSelector.
func WithSelector(selector string) Option {
	return func(d *Downloader) {
		d.selector = selector
	}
}

// NewDownloader creates a Downloader that retrieves pages through fetcher.
func NewDownloader(fetcher webcrawl.Fetcher, opts ...Option) *Downloader {
	d := &Downloader{
		fetcher:  fetcher,
		selector: DefaultSelector,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Download fetches the URL and returns an unparsed Document.
func (d *Downloader) Download(ctx context.Context, url string) (webcrawl.Document, error) {
	html, err := d.fetcher.Fetch(ctx, url)
	if err != nil {
		return nil, err
	}
	return NewDocument(url, html, d.selector, d.sameHost), nil
}
