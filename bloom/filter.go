// Package bloom provides approximate URL membership using Bloom filters.
// It trades a bounded false positive rate for memory that does not grow
// with the length of the URLs seen.
package bloom

import "github.com/bits-and-blooms/bloom/v3"

// Filter records URLs in a Bloom filter. It is not safe for concurrent use.
type Filter struct {
	f *bloom.BloomFilter
}

// NewFilter creates a new Bloom filter sized for n expected URLs
// with the given false positive rate.
func NewFilter(n uint, fpRate float64) *Filter {
	return &Filter{
		f: bloom.NewWithEstimates(n, fpRate),
	}
}

// TestAndAdd adds the URL and reports whether it might have been present before.
// A true result can be a false positive; a false result is always exact.
func (f *Filter) TestAndAdd(url string) bool {
	return f.f.TestAndAddString(url)
}
