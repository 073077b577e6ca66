// Package crawl provides bounded breadth-first crawling of a site within
// its origin scope. It coordinates fetching, content extraction, reference
// parsing, and asset storage over a deduplicating frontier.
package crawl

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fwojciec/siteask"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is the crawl worker pool size when none is configured.
const DefaultConcurrency = 4

// Config bounds a crawl session.
type Config struct {
	// RootURL is where the walk starts; its host defines the crawl scope.
	RootURL string

	// MaxPages caps the number of successfully fetched pages.
	MaxPages int

	// MaxDepth caps link depth; the root is depth 0.
	MaxDepth int

	// Timeout is the per-request fetch deadline.
	Timeout time.Duration
}

// Validate returns an error if the configuration is unusable.
func (c Config) Validate() error {
	if !IsHTTPURL(c.RootURL) {
		return siteask.Errorf(siteask.EINVALID, "root URL %q must be an http(s) URL", c.RootURL)
	}
	if c.MaxPages <= 0 {
		return siteask.Errorf(siteask.EINVALID, "max pages must be positive")
	}
	if c.MaxDepth < 0 {
		return siteask.Errorf(siteask.EINVALID, "max depth must be non-negative")
	}
	if c.Timeout <= 0 {
		return siteask.Errorf(siteask.EINVALID, "request timeout must be positive")
	}
	return nil
}

// Result holds the outcome of a crawl session.
type Result struct {
	// Pages is the number of successfully fetched pages.
	Pages int

	// Failed is the number of pages that could not be fetched or parsed.
	Failed int

	// Assets is the number of assets stored.
	Assets int
}

// Crawler walks a site and populates an asset store.
type Crawler struct {
	Fetcher   siteask.Fetcher
	Extractor siteask.Extractor
	Converter siteask.Converter
	Pages     siteask.PageParser
	Assets    siteask.AssetStore
	Index     siteask.Indexer       // optional
	Decoder   siteask.UploadDecoder // optional: text out of fetched documents
	Limiter   siteask.DomainLimiter // optional
	Sitemaps  siteask.SitemapSeeder // optional: frontier seeding
	Metrics   siteask.Metrics       // optional
	Logger    *slog.Logger          // optional

	// Concurrency is the worker pool size. DefaultConcurrency if <= 0.
	Concurrency int
}

// Crawl runs a bounded breadth-first walk from cfg.RootURL and stores every
// discovered asset. Fetch and parse failures are logged and skipped; the
// walk ends when the frontier empties, the page budget is spent, or ctx is
// canceled. Pages in flight when a bound is hit complete normally.
func (c *Crawler) Crawl(ctx context.Context, cfg Config) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	root, err := url.Parse(cfg.RootURL)
	if err != nil {
		return nil, siteask.Errorf(siteask.EINVALID, "root URL: %v", err)
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.Default()
	}
	metrics := c.Metrics
	if metrics == nil {
		metrics = siteask.NopMetrics{}
	}

	s := &session{
		crawler:  c,
		cfg:      cfg,
		rootHost: strings.ToLower(root.Host),
		logger:   logger,
		metrics:  metrics,
		frontier: NewFrontier(frontierExpectedURLs, frontierFalsePositiveRate),
	}
	s.cond = sync.NewCond(&s.mu)

	s.frontier.Push(siteask.Link{URL: cfg.RootURL, Depth: 0})
	s.seedFromSitemap(ctx)

	// Wake blocked workers when the context dies so no one waits forever.
	stop := context.AfterFunc(ctx, s.stop)
	defer stop()

	concurrency := c.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}

	g := &errgroup.Group{}
	for range concurrency {
		g.Go(func() error {
			for {
				link, ok := s.next()
				if !ok {
					return nil
				}
				s.done(c.processPage(ctx, s, link))
			}
		})
	}
	_ = g.Wait()

	result := &Result{
		Pages:  s.pages(),
		Failed: int(s.failed.Load()),
		Assets: int(s.assets.Load()),
	}
	logger.Info("crawl finished",
		"root", cfg.RootURL,
		"pages", result.Pages,
		"failed", result.Failed,
		"assets", result.Assets,
	)
	return result, nil
}

// Frontier sizing.
const (
	frontierExpectedURLs      = 10000
	frontierFalsePositiveRate = 0.01
)

// session is the mutable state of one crawl.
type session struct {
	crawler  *Crawler
	cfg      Config
	rootHost string
	logger   *slog.Logger
	metrics  siteask.Metrics
	frontier *Frontier

	mu       sync.Mutex
	cond     *sync.Cond
	issued   int // page-budget reservations currently held or spent
	inflight int
	stopped  bool

	failed atomic.Int64
	assets atomic.Int64
}

// next hands out the next frontier link, holding a page-budget reservation.
// It blocks while other workers are in flight because their failures can
// free budget and their parses can grow the frontier. Returns false when
// the crawl is over.
func (s *session) next() (siteask.Link, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for {
		if s.stopped {
			return siteask.Link{}, false
		}
		if s.issued < s.cfg.MaxPages {
			if link, ok := s.frontier.Pop(); ok {
				s.issued++
				s.inflight++
				return link, true
			}
		}
		if s.inflight == 0 {
			return siteask.Link{}, false
		}
		s.cond.Wait()
	}
}

// done releases a worker's reservation. Failed pages return their budget.
func (s *session) done(success bool) {
	s.mu.Lock()
	s.inflight--
	if !success {
		s.issued--
	}
	s.cond.Broadcast()
	s.mu.Unlock()
}

// push offers a discovered link to the frontier and wakes waiting workers.
func (s *session) push(link siteask.Link) {
	if s.frontier.Push(link) {
		s.mu.Lock()
		s.cond.Broadcast()
		s.mu.Unlock()
	}
}

func (s *session) stop() {
	s.mu.Lock()
	s.stopped = true
	s.cond.Broadcast()
	s.mu.Unlock()
}

func (s *session) pages() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.issued
}

// seedFromSitemap pushes in-scope sitemap URLs at depth 1.
func (s *session) seedFromSitemap(ctx context.Context) {
	if s.crawler.Sitemaps == nil || s.cfg.MaxDepth < 1 {
		return
	}
	urls, err := s.crawler.Sitemaps.DiscoverURLs(ctx, s.cfg.RootURL)
	if err != nil {
		s.logger.Warn("sitemap discovery failed", "root", s.cfg.RootURL, "error", err)
		return
	}
	seeded := 0
	for _, raw := range urls {
		u, err := url.Parse(raw)
		if err != nil || !InScope(u.Host, s.rootHost) {
			continue
		}
		if s.frontier.Push(siteask.Link{URL: raw, Depth: 1}) {
			seeded++
		}
	}
	if seeded > 0 {
		s.logger.Info("sitemap seeded frontier", "urls", seeded)
	}
}

// processPage fetches one frontier link and stores its assets.
// Returns true only if the page was fetched successfully.
func (c *Crawler) processPage(ctx context.Context, s *session, link siteask.Link) bool {
	canonical, err := CanonicalURL(link.URL)
	if err != nil {
		s.failed.Add(1)
		return false
	}

	res, err := c.fetch(ctx, s, canonical)
	if err != nil {
		s.logger.Warn("page fetch failed", "url", canonical, "depth", link.Depth, "error", err)
		s.metrics.PageFailed()
		s.failed.Add(1)
		return false
	}
	s.metrics.PageFetched()

	if !res.IsHTML() {
		c.storeBinaryPage(ctx, s, canonical, link.Depth, res)
		return true
	}

	c.storePageText(ctx, s, canonical, link.Depth, string(res.Body))

	refs, err := c.Pages.ParsePage(string(res.Body), canonical)
	if err != nil {
		s.logger.Warn("page parse failed", "url", canonical, "error", err)
		return true
	}

	for _, imgURL := range refs.ImageURLs {
		c.storeSubresource(ctx, s, canonical, link.Depth, imgURL, siteask.KindImage)
	}
	for _, fileURL := range refs.FileURLs {
		c.storeSubresource(ctx, s, canonical, link.Depth, fileURL, siteask.KindFile)
	}

	depth := link.Depth + 1
	if depth > s.cfg.MaxDepth {
		return true
	}
	for _, out := range refs.Links {
		u, err := url.Parse(out)
		if err != nil || !IsHTTPURL(out) {
			continue
		}
		if !InScope(u.Host, s.rootHost) {
			continue
		}
		s.push(siteask.Link{URL: out, Depth: depth})
	}
	return true
}

// fetch applies rate limiting and the per-request deadline.
func (c *Crawler) fetch(ctx context.Context, s *session, rawURL string) (*siteask.FetchResult, error) {
	if c.Limiter != nil {
		u, err := url.Parse(rawURL)
		if err != nil {
			return nil, err
		}
		if err := c.Limiter.Wait(ctx, u.Host); err != nil {
			return nil, err
		}
	}
	fctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()
	return c.Fetcher.Fetch(fctx, rawURL)
}

// storePageText extracts, converts, and stores the page's text asset.
func (c *Crawler) storePageText(ctx context.Context, s *session, pageURL string, depth int, html string) {
	var title, content string
	if extracted, err := c.Extractor.Extract(html); err == nil {
		title = extracted.Title
		content = extracted.ContentHTML
	} else {
		// Boilerplate removal failed; fall back to the whole document.
		content = html
	}

	markdown, err := c.Converter.Convert(content)
	if err != nil {
		s.logger.Warn("markdown conversion failed", "url", pageURL, "error", err)
		return
	}

	asset := &siteask.Asset{
		SourceURL: pageURL,
		PageURL:   pageURL,
		Kind:      siteask.KindText,
		MIMEType:  "text/markdown",
		Title:     title,
		Depth:     depth,
	}
	if err := c.Assets.CreateAsset(ctx, asset, []byte(markdown)); err != nil {
		s.logger.Warn("asset store failed", "url", pageURL, "error", err)
		return
	}
	s.assets.Add(1)
	s.metrics.AssetStored(siteask.KindText)
	if c.Index != nil {
		if err := c.Index.IndexText(asset, markdown); err != nil {
			s.logger.Warn("indexing failed", "id", asset.ID, "error", err)
		}
	}
}

// storeBinaryPage stores a directly fetched non-HTML page as an asset.
func (c *Crawler) storeBinaryPage(ctx context.Context, s *session, pageURL string, depth int, res *siteask.FetchResult) {
	kind := siteask.KindFile
	switch {
	case strings.HasPrefix(res.MIMEType, "image/"):
		kind = siteask.KindImage
	case strings.HasPrefix(res.MIMEType, "text/"):
		kind = siteask.KindText
	}

	asset := &siteask.Asset{
		SourceURL: pageURL,
		PageURL:   pageURL,
		Kind:      kind,
		MIMEType:  res.MIMEType,
		Filename:  filenameFromURL(pageURL),
		Depth:     depth,
	}
	if err := c.Assets.CreateAsset(ctx, asset, res.Body); err != nil {
		s.logger.Warn("asset store failed", "url", pageURL, "error", err)
		return
	}
	s.assets.Add(1)
	s.metrics.AssetStored(kind)

	switch kind {
	case siteask.KindText:
		c.indexText(asset, string(res.Body), s)
	case siteask.KindImage:
		if c.Index != nil {
			c.Index.IndexImage(asset)
		}
	case siteask.KindFile:
		c.indexDecodedFile(ctx, s, asset, res.Body)
	}
}

// storeSubresource fetches and stores one image or file referenced by a page.
// The frontier's seen-set arbitrates the fetch, so a URL reached both as a
// link and as a page reference is downloaded once either way.
func (c *Crawler) storeSubresource(ctx context.Context, s *session, pageURL string, depth int, rawURL string, kind siteask.AssetKind) {
	if !IsHTTPURL(rawURL) || !s.frontier.Claim(rawURL) {
		return
	}

	res, err := c.fetch(ctx, s, rawURL)
	if err != nil {
		s.logger.Warn("subresource fetch failed", "url", rawURL, "page", pageURL, "error", err)
		return
	}

	asset := &siteask.Asset{
		SourceURL: rawURL,
		PageURL:   pageURL,
		Kind:      kind,
		MIMEType:  res.MIMEType,
		Filename:  filenameFromURL(rawURL),
		Depth:     depth,
	}
	if asset.MIMEType == "" {
		asset.MIMEType = "application/octet-stream"
	}
	if err := c.Assets.CreateAsset(ctx, asset, res.Body); err != nil {
		s.logger.Warn("asset store failed", "url", rawURL, "error", err)
		return
	}
	s.assets.Add(1)
	s.metrics.AssetStored(kind)

	if kind == siteask.KindImage && c.Index != nil {
		c.Index.IndexImage(asset)
	}
	if kind == siteask.KindFile {
		c.indexDecodedFile(ctx, s, asset, res.Body)
	}
}

// indexDecodedFile extracts text from a stored document so it becomes
// retrievable alongside page text.
func (c *Crawler) indexDecodedFile(ctx context.Context, s *session, asset *siteask.Asset, data []byte) {
	if c.Decoder == nil || c.Index == nil {
		return
	}
	decoded, err := c.Decoder.Decode(asset.Filename, data)
	if err != nil || strings.TrimSpace(decoded.Text) == "" {
		return
	}
	if err := c.Index.IndexText(asset, decoded.Text); err != nil {
		s.logger.Warn("indexing failed", "id", asset.ID, "error", err)
	}
}

func (c *Crawler) indexText(asset *siteask.Asset, text string, s *session) {
	if c.Index == nil {
		return
	}
	if err := c.Index.IndexText(asset, text); err != nil {
		s.logger.Warn("indexing failed", "id", asset.ID, "error", err)
	}
}

// filenameFromURL returns the last path element of a URL, or empty.
func filenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Path == "" || u.Path == "/" {
		return ""
	}
	name := path.Base(u.Path)
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// FormatBytes formats byte counts in human-readable form for CLI output.
func FormatBytes(bytes int64) string {
	const (
		kb = 1024
		mb = kb * 1024
	)
	switch {
	case bytes >= mb:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(mb))
	case bytes >= kb:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(kb))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
