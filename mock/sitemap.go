package mock

import (
	"context"

	"github.com/fwojciec/siteask"
)

var _ siteask.SitemapSeeder = (*SitemapSeeder)(nil)

// SitemapSeeder is a mock implementation of siteask.SitemapSeeder.
type SitemapSeeder struct {
	DiscoverURLsFn func(ctx context.Context, rootURL string) ([]string, error)
}

func (s *SitemapSeeder) DiscoverURLs(ctx context.Context, rootURL string) ([]string, error) {
	return s.DiscoverURLsFn(ctx, rootURL)
}
