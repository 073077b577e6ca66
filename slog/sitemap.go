package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/siteask"
)

// Ensure LoggingSitemapSeeder implements siteask.SitemapSeeder.
var _ siteask.SitemapSeeder = (*LoggingSitemapSeeder)(nil)

// LoggingSitemapSeeder wraps a SitemapSeeder with discovery logging.
type LoggingSitemapSeeder struct {
	next   siteask.SitemapSeeder
	logger *slog.Logger
}

// NewLoggingSitemapSeeder creates a new LoggingSitemapSeeder.
func NewLoggingSitemapSeeder(next siteask.SitemapSeeder, logger *slog.Logger) *LoggingSitemapSeeder {
	return &LoggingSitemapSeeder{next: next, logger: logger}
}

// DiscoverURLs delegates to the wrapped seeder and logs the operation.
func (s *LoggingSitemapSeeder) DiscoverURLs(ctx context.Context, rootURL string) (urls []string, err error) {
	defer func(begin time.Time) {
		s.logger.Info("sitemap discovery",
			"url", rootURL,
			"count", len(urls),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, rootURL)
}
