package mock

import (
	"context"

	"github.com/fwojciec/webcrawl"
)

var _ webcrawl.Downloader = (*Downloader)(nil)

// Downloader is a mock implementation of webcrawl.Downloader.
type Downloader struct {
	DownloadFn func(ctx context.Context, url string) (webcrawl.Document, error)
}

func (d *Downloader) Download(ctx context.Context, url string) (webcrawl.Document, error) {
	return d.DownloadFn(ctx, url)
}

var _ webcrawl.Document = (*Document)(nil)

// Document is a mock implementation of webcrawl.Document.
type Document struct {
	URLFn          func() string
	ExtractLinksFn func() ([]string, error)
}

func (d *Document) URL() string {
	return d.URLFn()
}

func (d *Document) ExtractLinks() ([]string, error) {
	return d.ExtractLinksFn()
}
