package crawl

import (
	"sync"

	"github.com/fwojciec/webcrawl"
)

// errorTable maps URLs to the failure that stopped them.
// The first failure recorded for a URL wins.
type errorTable struct {
	m sync.Map
}

// record stores a failure for the URL unless one is already present.
func (t *errorTable) record(kind webcrawl.FailureKind, url string, err error) {
	t.m.LoadOrStore(url, &webcrawl.Failure{Kind: kind, URL: url, Err: err})
}

// snapshot copies the table into a plain map.
func (t *errorTable) snapshot() map[string]error {
	errs := make(map[string]error)
	t.m.Range(func(k, v any) bool {
		errs[k.(string)] = v.(error)
		return true
	})
	return errs
}
