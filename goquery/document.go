package goquery

import (
	"net/url"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/webcrawl"
)

// Ensure Document implements webcrawl.Document at compile time.
var _ webcrawl.Document = (*Document)(nil)

// Document is a fetched HTML page. It is parsed on the first call to
// ExtractLinks and the result is reused by later calls.
type Document struct {
	url      string
	html     string
	selector string
	sameHost bool

	once  sync.Once
	links []string
	err   error
}

// NewDocument creates a Document for html fetched from rawURL.
// Links are taken from elements matching selector; if sameHost is set,
// only links to the page's own host are kept.
func NewDocument(rawURL, html, selector string, sameHost bool) *Document {
	if selector == "" {
		selector = DefaultSelector
	}
	return &Document{
		url:      rawURL,
		html:     html,
		selector: selector,
		sameHost: sameHost,
	}
}

// URL returns the address the document was fetched from.
func (d *Document) URL() string {
	return d.url
}

// ExtractLinks returns the absolute HTTP(S) URLs the page links to, in
// document order and without duplicates. Relative links are resolved
// against the page's <base href> when present. Fragments are stripped
// and links back to the page itself are skipped.
func (d *Document) ExtractLinks() ([]string, error) {
	d.once.Do(func() {
		d.links, d.err = d.extract()
	})
	return d.links, d.err
}

func (d *Document) extract() ([]string, error) {
	page, err := url.Parse(d.url)
	if err != nil {
		return nil, webcrawl.Errorf(webcrawl.EINVALID, "invalid page URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(d.html))
	if err != nil {
		return nil, webcrawl.Errorf(webcrawl.EINVALID, "failed to parse HTML: %v", err)
	}

	base := page
	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if ref, err := url.Parse(strings.TrimSpace(href)); err == nil {
			base = page.ResolveReference(ref)
		}
	}

	// Compared in the same form resolveURL produces.
	self := *page
	self.Host = strings.ToLower(self.Host)
	self.Fragment = ""
	self.RawFragment = ""

	seen := make(map[string]bool)
	links := []string{}
	doc.Find(d.selector).Each(func(_ int, sel *goquery.Selection) {
		href, ok := sel.Attr("href")
		if !ok {
			return
		}
		href = strings.TrimSpace(href)
		if href == "" || isNonHTTPLink(href) {
			return
		}

		resolved := resolveURL(base, href)
		if resolved == nil || resolved.String() == self.String() {
			return
		}
		if resolved.Scheme != "http" && resolved.Scheme != "https" {
			return
		}
		if d.sameHost && !strings.EqualFold(resolved.Host, page.Host) {
			return
		}

		u := resolved.String()
		if seen[u] {
			return
		}
		seen[u] = true
		links = append(links, u)
	})

	return links, nil
}

// resolveURL resolves href against base with the host lower-cased and
// the fragment stripped.
// Returns nil if href cannot be parsed.
func resolveURL(base *url.URL, href string) *url.URL {
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	resolved := base.ResolveReference(ref)
	resolved.Host = strings.ToLower(resolved.Host)
	resolved.Fragment = ""
	resolved.RawFragment = ""
	return resolved
}

// isNonHTTPLink checks if a href is a non-HTTP link that should be skipped.
func isNonHTTPLink(href string) bool {
	href = strings.ToLower(href)
	return strings.HasPrefix(href, "javascript:") ||
		strings.HasPrefix(href, "mailto:") ||
		strings.HasPrefix(href, "tel:") ||
		strings.HasPrefix(href, "data:")
}
