package webcrawl

import "context"

// Result holds the outcome of one crawl.
type Result struct {
	// URLs lists the successfully downloaded URLs in sorted order.
	URLs []string

	// Errors maps every URL that failed to the reason it failed.
	// Values are usually *Failure.
	Errors map[string]error
}

// Crawler downloads a site recursively.
type Crawler interface {
	// Download crawls from url following links up to depth.
	// A depth of 1 downloads only the seed page; depth N follows links N-1 hops.
	// Per-page failures are reported in Result.Errors, not returned.
	Download(ctx context.Context, url string, depth int) (*Result, error)

	// Close stops the crawler. Crawls in progress are abandoned.
	Close() error
}
