package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/siteask"
)

// Ensure SitemapSeeder implements siteask.SitemapSeeder.
var _ siteask.SitemapSeeder = (*SitemapSeeder)(nil)

// maxSitemapDepth bounds recursion through sitemap index files.
const maxSitemapDepth = 3

// SitemapSeeder discovers URLs from a site's sitemap so the crawler can
// seed its frontier before following links. Sitemap locations come from
// robots.txt, falling back to /sitemap.xml.
type SitemapSeeder struct {
	client *http.Client
}

// NewSitemapSeeder creates a SitemapSeeder with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapSeeder(client *http.Client) *SitemapSeeder {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapSeeder{client: client}
}

// DiscoverURLs finds page URLs from the site's sitemaps.
// Returns an empty slice (not nil) when the site publishes no sitemap.
func (s *SitemapSeeder) DiscoverURLs(ctx context.Context, rootURL string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(rootURL)
	if err != nil {
		return nil, siteask.Errorf(siteask.EINVALID, "invalid root URL: %v", err)
	}
	origin := &url.URL{Scheme: base.Scheme, Host: base.Host}

	sitemapURLs := s.fromRobotsTxt(ctx, origin)
	if len(sitemapURLs) == 0 {
		sitemapURLs = []string{origin.String() + "/sitemap.xml"}
	}

	seen := make(map[string]struct{})
	var urls []string
	for _, sm := range sitemapURLs {
		found, err := s.parseSitemap(ctx, sm, 0)
		if err != nil {
			continue // missing or malformed sitemap is not fatal
		}
		for _, u := range found {
			if _, ok := seen[u]; ok {
				continue
			}
			seen[u] = struct{}{}
			urls = append(urls, u)
		}
	}
	if urls == nil {
		urls = []string{}
	}
	return urls, nil
}

// fromRobotsTxt extracts Sitemap: directives from the site's robots.txt.
func (s *SitemapSeeder) fromRobotsTxt(ctx context.Context, origin *url.URL) []string {
	body, err := s.get(ctx, origin.String()+"/robots.txt")
	if err != nil {
		return nil
	}
	defer body.Close()

	var sitemaps []string
	scanner := bufio.NewScanner(body)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !strings.HasPrefix(strings.ToLower(line), "sitemap:") {
			continue
		}
		if raw := strings.TrimSpace(line[len("sitemap:"):]); raw != "" {
			sitemaps = append(sitemaps, raw)
		}
	}
	return sitemaps
}

// parseSitemap reads one sitemap document, recursing into index files.
func (s *SitemapSeeder) parseSitemap(ctx context.Context, sitemapURL string, depth int) ([]string, error) {
	if depth >= maxSitemapDepth {
		return nil, nil
	}
	body, err := s.get(ctx, sitemapURL)
	if err != nil {
		return nil, err
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil, fmt.Errorf("parse sitemap %s: %w", sitemapURL, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("empty sitemap %s", sitemapURL)
	}

	var urls []string
	switch root.Tag {
	case "sitemapindex":
		for _, sm := range root.FindElements("//sitemap/loc") {
			nested, err := s.parseSitemap(ctx, strings.TrimSpace(sm.Text()), depth+1)
			if err != nil {
				continue
			}
			urls = append(urls, nested...)
		}
	case "urlset":
		for _, loc := range root.FindElements("//url/loc") {
			if u := strings.TrimSpace(loc.Text()); u != "" {
				urls = append(urls, u)
			}
		}
	}
	return urls, nil
}

func (s *SitemapSeeder) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, siteask.Errorf(siteask.EUNAVAILABLE, "HTTP %d for %s", resp.StatusCode, rawURL)
	}
	return resp.Body, nil
}
