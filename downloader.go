package webcrawl

import "context"

// Document is a downloaded page that can yield its outbound links.
type Document interface {
	// URL returns the address the document was downloaded from.
	URL() string

	// ExtractLinks returns the absolute URLs the document links to.
	// It may block while the document is parsed.
	ExtractLinks() ([]string, error)
}

// Downloader retrieves documents.
// Implementations must be safe for concurrent use; a crawler calls Download
// from many goroutines at once.
type Downloader interface {
	// Download fetches the URL and returns the parsed document.
	// The context controls timeout and cancellation.
	Download(ctx context.Context, url string) (Document, error)
}

// Fetcher retrieves raw HTML from URLs.
// Implementations may use browser automation to handle JavaScript-rendered content.
type Fetcher interface {
	// Fetch retrieves the URL and returns the page HTML.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (html string, err error)

	// Close releases underlying resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// DomainLimiter provides per-domain rate limiting for fetchers.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}
