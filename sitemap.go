package webcrawl

import "context"

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs returns the URLs listed in the site's sitemaps.
	// When baseURL has a path, only URLs under that path are returned.
	// Returns an empty slice if the site has no sitemap.
	DiscoverURLs(ctx context.Context, baseURL string) ([]string, error)
}
