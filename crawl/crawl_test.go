package crawl_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/crawl"
	"github.com/fwojciec/siteask/mem"
	"github.com/fwojciec/siteask/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// site is a canned set of pages for crawl tests.
type site struct {
	mu      sync.Mutex
	pages   map[string]*siteask.FetchResult
	refs    map[string]*siteask.PageRefs
	fetches []string
}

func (s *site) fetcher() *mock.Fetcher {
	return &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*siteask.FetchResult, error) {
			s.mu.Lock()
			s.fetches = append(s.fetches, url)
			s.mu.Unlock()
			res, ok := s.pages[url]
			if !ok {
				return nil, siteask.Errorf(siteask.ENOTFOUND, "HTTP 404 for %s", url)
			}
			return res, nil
		},
	}
}

func (s *site) parser() *mock.PageParser {
	return &mock.PageParser{
		ParsePageFn: func(html, baseURL string) (*siteask.PageRefs, error) {
			if refs, ok := s.refs[baseURL]; ok {
				return refs, nil
			}
			return &siteask.PageRefs{}, nil
		},
	}
}

func (s *site) fetchCount(url string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, f := range s.fetches {
		if f == url {
			n++
		}
	}
	return n
}

func htmlPage(body string) *siteask.FetchResult {
	return &siteask.FetchResult{StatusCode: 200, MIMEType: "text/html", Body: []byte(body)}
}

func newCrawler(s *site, store siteask.AssetStore) *crawl.Crawler {
	return &crawl.Crawler{
		Fetcher: s.fetcher(),
		Extractor: &mock.Extractor{
			ExtractFn: func(html string) (*siteask.ExtractResult, error) {
				return &siteask.ExtractResult{Title: "t", ContentHTML: html}, nil
			},
		},
		Converter: &mock.Converter{
			ConvertFn: func(html string) (string, error) { return html, nil },
		},
		Pages:  s.parser(),
		Assets: store,
	}
}

func testConfig(root string) crawl.Config {
	return crawl.Config{RootURL: root, MaxPages: 50, MaxDepth: 3, Timeout: 5 * time.Second}
}

func TestCrawler_respects_max_pages(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{},
		refs:  map[string]*siteask.PageRefs{},
	}
	// A chain of pages, each linking to the next.
	urls := []string{
		"https://example.com/0",
		"https://example.com/1",
		"https://example.com/2",
		"https://example.com/3",
		"https://example.com/4",
	}
	for i, u := range urls {
		s.pages[u] = htmlPage("page")
		if i+1 < len(urls) {
			s.refs[u] = &siteask.PageRefs{Links: []string{urls[i+1]}}
		}
	}

	store := mem.NewAssetStore()
	c := newCrawler(s, store)

	cfg := testConfig(urls[0])
	cfg.MaxPages = 3
	cfg.MaxDepth = 10
	result, err := c.Crawl(context.Background(), cfg)
	require.NoError(t, err)

	assert.LessOrEqual(t, result.Pages, 3)
}

func TestCrawler_respects_max_depth(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/root": htmlPage("root"),
			"https://example.com/d1":   htmlPage("one"),
			"https://example.com/d2":   htmlPage("two"),
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/root": {Links: []string{"https://example.com/d1"}},
			"https://example.com/d1":   {Links: []string{"https://example.com/d2"}},
		},
	}

	c := newCrawler(s, mem.NewAssetStore())

	cfg := testConfig("https://example.com/root")
	cfg.MaxDepth = 1
	result, err := c.Crawl(context.Background(), cfg)
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages, "depth-2 page must not be visited")
	assert.Zero(t, s.fetchCount("https://example.com/d2"))
}

func TestCrawler_never_fetches_a_page_twice(t *testing.T) {
	t.Parallel()

	// a and b link to each other and to themselves.
	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/a": htmlPage("a"),
			"https://example.com/b": htmlPage("b"),
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/a": {Links: []string{"https://example.com/b", "https://example.com/a", "http://example.com/a"}},
			"https://example.com/b": {Links: []string{"https://example.com/a", "https://example.com/b#frag"}},
		},
	}

	c := newCrawler(s, mem.NewAssetStore())

	_, err := c.Crawl(context.Background(), testConfig("https://example.com/a"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.fetchCount("https://example.com/a"))
	assert.Equal(t, 1, s.fetchCount("https://example.com/b"))
}

func TestCrawler_dedupes_across_link_and_reference_paths(t *testing.T) {
	t.Parallel()

	// photo.jpg appears both as an anchor link and as an image reference on
	// the same page; it must be downloaded once, not once per path.
	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/page": htmlPage("page"),
			"https://example.com/photo.jpg": {
				StatusCode: 200, MIMEType: "image/jpeg", Body: []byte{0xff, 0xd8},
			},
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/page": {
				Links:     []string{"https://example.com/photo.jpg"},
				ImageURLs: []string{"https://example.com/photo.jpg"},
			},
		},
	}

	store := mem.NewAssetStore()
	c := newCrawler(s, store)

	_, err := c.Crawl(context.Background(), testConfig("https://example.com/page"))
	require.NoError(t, err)

	assert.Equal(t, 1, s.fetchCount("https://example.com/photo.jpg"))

	stored := 0
	infos, err := store.ListAssets(context.Background())
	require.NoError(t, err)
	for _, info := range infos {
		if strings.Contains(info.ID, "photo.jpg") {
			stored++
		}
	}
	assert.Equal(t, 1, stored, "one asset for one download")
}

func TestCrawler_stays_within_origin_scope(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/home":      htmlPage("home"),
			"https://docs.example.com/page": htmlPage("docs"),
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/home": {Links: []string{
				"https://docs.example.com/page", // subdomain: in scope
				"https://other.com/page",        // external: out of scope
				"mailto:team@example.com",       // not http
			}},
		},
	}

	c := newCrawler(s, mem.NewAssetStore())

	result, err := c.Crawl(context.Background(), testConfig("https://example.com/home"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Zero(t, s.fetchCount("https://other.com/page"))
}

func TestCrawler_fetch_failure_is_non_fatal(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/ok": htmlPage("ok"),
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/ok": {Links: []string{"https://example.com/broken", "https://example.com/ok2"}},
		},
	}
	s.pages["https://example.com/ok2"] = htmlPage("ok2")

	c := newCrawler(s, mem.NewAssetStore())

	result, err := c.Crawl(context.Background(), testConfig("https://example.com/ok"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Equal(t, 1, result.Failed)
}

func TestCrawler_stores_page_images_and_files(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/page": htmlPage("page"),
			"https://example.com/logo.png": {
				StatusCode: 200, MIMEType: "image/png", Body: []byte{0x89, 0x50},
			},
			"https://example.com/manual.pdf": {
				StatusCode: 200, MIMEType: "application/pdf", Body: []byte("%PDF"),
			},
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/page": {
				ImageURLs: []string{"https://example.com/logo.png"},
				FileURLs:  []string{"https://example.com/manual.pdf"},
			},
		},
	}

	store := mem.NewAssetStore()
	c := newCrawler(s, store)

	result, err := c.Crawl(context.Background(), testConfig("https://example.com/page"))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Assets) // text + image + file

	infos, err := store.ListAssets(context.Background())
	require.NoError(t, err)

	kinds := map[siteask.AssetKind]int{}
	ids := map[string]bool{}
	for _, info := range infos {
		kinds[info.Kind]++
		assert.False(t, ids[info.ID], "asset ids must be unique")
		ids[info.ID] = true
	}
	assert.Equal(t, 1, kinds[siteask.KindText])
	assert.Equal(t, 1, kinds[siteask.KindImage])
	assert.Equal(t, 1, kinds[siteask.KindFile])
}

func TestCrawler_single_page_with_one_image(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/": htmlPage(`<img src="/photo.jpg">`),
			"https://example.com/photo.jpg": {
				StatusCode: 200, MIMEType: "image/jpeg", Body: []byte{0xff, 0xd8},
			},
		},
		refs: map[string]*siteask.PageRefs{
			"https://example.com/": {ImageURLs: []string{"https://example.com/photo.jpg"}},
		},
	}

	store := mem.NewAssetStore()
	c := newCrawler(s, store)

	cfg := testConfig("https://example.com/")
	cfg.MaxPages = 1
	result, err := c.Crawl(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)

	asset, err := store.FindAssetByID(context.Background(), "https://example.com/photo.jpg")
	require.NoError(t, err)
	assert.Equal(t, siteask.KindImage, asset.Kind)
	assert.Equal(t, "image/jpeg", asset.MIMEType)
	assert.Equal(t, int64(2), asset.ByteSize)
}

func TestCrawler_binary_root_becomes_file_asset(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/report.pdf": {
				StatusCode: 200, MIMEType: "application/pdf", Body: []byte("%PDF-1.4"),
			},
		},
		refs: map[string]*siteask.PageRefs{},
	}

	store := mem.NewAssetStore()
	c := newCrawler(s, store)

	result, err := c.Crawl(context.Background(), testConfig("https://example.com/report.pdf"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Pages)

	asset, err := store.FindAssetByID(context.Background(), "https://example.com/report.pdf")
	require.NoError(t, err)
	assert.Equal(t, siteask.KindFile, asset.Kind)
	assert.Equal(t, "report.pdf", asset.Filename)
}

func TestCrawler_sitemap_seeds_frontier(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/":       htmlPage("home"),
			"https://example.com/hidden": htmlPage("only in sitemap"),
		},
		refs: map[string]*siteask.PageRefs{},
	}

	c := newCrawler(s, mem.NewAssetStore())
	c.Sitemaps = &mock.SitemapSeeder{
		DiscoverURLsFn: func(ctx context.Context, rootURL string) ([]string, error) {
			return []string{"https://example.com/hidden", "https://other.com/out-of-scope"}, nil
		},
	}

	result, err := c.Crawl(context.Background(), testConfig("https://example.com/"))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Pages)
	assert.Zero(t, s.fetchCount("https://other.com/out-of-scope"))
}

func TestCrawler_validates_config(t *testing.T) {
	t.Parallel()

	c := newCrawler(&site{pages: map[string]*siteask.FetchResult{}}, mem.NewAssetStore())

	tests := []struct {
		name string
		cfg  crawl.Config
	}{
		{"bad root URL", crawl.Config{RootURL: "not a url", MaxPages: 1, Timeout: time.Second}},
		{"zero max pages", crawl.Config{RootURL: "https://x.com", MaxPages: 0, Timeout: time.Second}},
		{"negative depth", crawl.Config{RootURL: "https://x.com", MaxPages: 1, MaxDepth: -1, Timeout: time.Second}},
		{"zero timeout", crawl.Config{RootURL: "https://x.com", MaxPages: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := c.Crawl(context.Background(), tt.cfg)
			assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))
		})
	}
}

func TestCrawler_cancellation_stops_the_walk(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())

	s := &site{
		pages: map[string]*siteask.FetchResult{},
		refs:  map[string]*siteask.PageRefs{},
	}
	blocked := &mock.Fetcher{
		FetchFn: func(ctx context.Context, url string) (*siteask.FetchResult, error) {
			cancel()
			<-ctx.Done()
			return nil, ctx.Err()
		},
	}

	c := newCrawler(s, mem.NewAssetStore())
	c.Fetcher = blocked

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = c.Crawl(ctx, testConfig("https://example.com/"))
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("crawl did not stop after cancellation")
	}
}

func TestCrawler_indexes_page_text(t *testing.T) {
	t.Parallel()

	s := &site{
		pages: map[string]*siteask.FetchResult{
			"https://example.com/doc": htmlPage("gophers are burrowing rodents"),
		},
		refs: map[string]*siteask.PageRefs{},
	}

	var indexed []string
	var mu sync.Mutex
	c := newCrawler(s, mem.NewAssetStore())
	c.Index = &recordingIndexer{onText: func(text string) {
		mu.Lock()
		indexed = append(indexed, text)
		mu.Unlock()
	}}

	_, err := c.Crawl(context.Background(), testConfig("https://example.com/doc"))
	require.NoError(t, err)

	require.Len(t, indexed, 1)
	assert.True(t, strings.Contains(indexed[0], "gophers"))
}

type recordingIndexer struct {
	onText func(text string)
}

func (r *recordingIndexer) IndexText(asset *siteask.Asset, text string) error {
	r.onText(text)
	return nil
}

func (r *recordingIndexer) IndexImage(asset *siteask.Asset) {}
