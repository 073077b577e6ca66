package crawl

import (
	"sync"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/fwojciec/siteask"
)

// Compile-time interface verification.
var _ siteask.Frontier = (*Frontier)(nil)

// Frontier is an in-memory FIFO crawl queue with atomic check-and-insert
// deduplication over normalized URLs. A Bloom filter answers the common
// "never seen" case cheaply; an exact set backs it so deduplication has no
// false positives and the no-double-fetch guarantee holds strictly.
// It is safe for concurrent use by multiple goroutines.
type Frontier struct {
	mu     sync.Mutex
	filter *bloom.BloomFilter
	seen   map[string]struct{}
	queue  []siteask.Link
}

// NewFrontier creates a Frontier sized for n expected URLs with the given
// Bloom filter false positive rate.
func NewFrontier(n uint, fpRate float64) *Frontier {
	return &Frontier{
		filter: bloom.NewWithEstimates(n, fpRate),
		seen:   make(map[string]struct{}),
	}
}

// Push adds a link to the frontier.
// Returns false if the link's normalized URL has already been seen.
func (f *Frontier) Push(link siteask.Link) bool {
	key := NormalizeURL(link.URL)
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filter.TestString(key) {
		if _, ok := f.seen[key]; ok {
			return false
		}
	}
	f.filter.AddString(key)
	f.seen[key] = struct{}{}
	f.queue = append(f.queue, link)
	return true
}

// Claim marks a URL as seen without queueing it, so sub-resource downloads
// and page fetches share one deduplication set. Returns false if the
// normalized URL was already queued, popped, or claimed.
func (f *Frontier) Claim(rawURL string) bool {
	key := NormalizeURL(rawURL)
	if key == "" {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.filter.TestString(key) {
		if _, ok := f.seen[key]; ok {
			return false
		}
	}
	f.filter.AddString(key)
	f.seen[key] = struct{}{}
	return true
}

// Pop returns the next link in discovery order (breadth-first).
// The bool result is false if the frontier is empty.
func (f *Frontier) Pop() (siteask.Link, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.queue) == 0 {
		return siteask.Link{}, false
	}
	link := f.queue[0]
	f.queue = f.queue[1:]
	return link, true
}

// Len returns the number of links waiting in the queue.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queue)
}

// Seen returns true if the URL has been queued or processed.
func (f *Frontier) Seen(rawURL string) bool {
	key := NormalizeURL(rawURL)

	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.filter.TestString(key) {
		return false
	}
	_, ok := f.seen[key]
	return ok
}
