package crawl

import (
	"sort"
	"sync"

	"github.com/fwojciec/webcrawl/bloom"
)

// visitedSet records every URL claimed during one crawl.
type visitedSet interface {
	// TryVisit claims the URL. It returns true only for the first caller.
	TryVisit(url string) bool

	// URLs returns every claimed URL.
	URLs() []string
}

// exactSet is a visitedSet without false positives.
type exactSet struct {
	m sync.Map
}

func newExactSet() *exactSet {
	return &exactSet{}
}

func (s *exactSet) TryVisit(url string) bool {
	_, loaded := s.m.LoadOrStore(url, struct{}{})
	return !loaded
}

func (s *exactSet) URLs() []string {
	var urls []string
	s.m.Range(func(k, _ any) bool {
		urls = append(urls, k.(string))
		return true
	})
	sort.Strings(urls)
	return urls
}

// bloomSet is a visitedSet backed by a Bloom filter.
// A false positive makes a new URL look visited, so it is skipped; it is then
// not part of the crawl at all rather than being reported as a failure.
type bloomSet struct {
	mu   sync.Mutex
	seen *bloom.Filter
	urls []string
}

func newBloomSet(n uint, fpRate float64) *bloomSet {
	return &bloomSet{seen: bloom.NewFilter(n, fpRate)}
}

func (s *bloomSet) TryVisit(url string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.seen.TestAndAdd(url) {
		return false
	}
	s.urls = append(s.urls, url)
	return true
}

func (s *bloomSet) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	urls := make([]string, len(s.urls))
	copy(urls, s.urls)
	sort.Strings(urls)
	return urls
}
