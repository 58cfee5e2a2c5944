package webcrawl

import (
	"net/url"
	"strings"
)

// HostOf returns the scheme and authority of rawURL (e.g. "https://example.com:8080").
// Returns EINVALID if the URL cannot be parsed or has no scheme or host.
func HostOf(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", Errorf(EINVALID, "malformed URL %q: %v", rawURL, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", Errorf(EINVALID, "malformed URL %q: missing scheme or host", rawURL)
	}
	return strings.ToLower(u.Scheme) + "://" + strings.ToLower(u.Host), nil
}
