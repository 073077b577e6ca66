package siteask

import "context"

// Link is a frontier entry: a URL pending visitation and the crawl depth at
// which it was discovered.
type Link struct {
	URL   string
	Depth int
}

// Frontier manages a crawl queue with deduplication. A normalized URL is
// admitted at most once for the lifetime of the frontier; check-and-insert
// is atomic so concurrent workers cannot race the same URL in.
type Frontier interface {
	// Push adds a link to the frontier.
	// Returns false if the URL has already been seen.
	Push(link Link) bool

	// Claim marks a URL as seen without queueing it.
	// Returns false if the URL has already been seen.
	Claim(url string) bool

	// Pop returns the next link in discovery order.
	// Returns false if the frontier is empty.
	Pop() (Link, bool)

	// Len returns the number of links waiting in the queue.
	Len() int

	// Seen returns true if the URL has been queued or processed.
	Seen(url string) bool
}

// DomainLimiter provides per-domain rate limiting.
type DomainLimiter interface {
	// Wait blocks until the rate limit allows a request to the domain.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, domain string) error
}

// SitemapSeeder discovers URLs from a site's sitemap so they can seed the
// crawl frontier. Implementations return an empty slice when the site
// publishes no sitemap; that is not an error.
type SitemapSeeder interface {
	DiscoverURLs(ctx context.Context, rootURL string) ([]string, error)
}
