// Package goquery provides a goquery-based implementation of
// siteask.PageParser for discovering outbound references on HTML pages.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/siteask"
)

// Compile-time interface verification.
var _ siteask.PageParser = (*PageParser)(nil)

// fileExtensions marks anchor targets that are downloadable documents
// rather than pages.
var fileExtensions = []string{".pdf", ".docx", ".pptx", ".xlsx", ".zip"}

// PageParser extracts links, image sources, and document links from HTML.
type PageParser struct{}

// NewPageParser creates a new PageParser.
func NewPageParser() *PageParser {
	return &PageParser{}
}

// ParsePage finds the page's outbound references. All returned URLs are
// resolved against baseURL and deduplicated in document order. Anchors
// pointing at known document extensions are classified as file references;
// everything else becomes a crawl link candidate. Scope filtering is the
// crawler's job, not the parser's.
func (p *PageParser) ParsePage(html string, baseURL string) (*siteask.PageRefs, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, siteask.Errorf(siteask.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, siteask.Errorf(siteask.EINVALID, "failed to parse HTML: %v", err)
	}

	refs := &siteask.PageRefs{}
	seen := make(map[string]struct{})

	add := func(list *[]string, resolved string) {
		if _, ok := seen[resolved]; ok {
			return
		}
		seen[resolved] = struct{}{}
		*list = append(*list, resolved)
	}

	doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
		href, _ := sel.Attr("href")
		if href == "" || isNonHTTPLink(href) {
			return
		}
		resolved := resolveURL(base, href)
		if resolved == "" {
			return
		}
		if isFileLink(resolved) {
			add(&refs.FileURLs, resolved)
			return
		}
		add(&refs.Links, resolved)
	})

	doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
		src, _ := sel.Attr("src")
		if src == "" || strings.HasPrefix(src, "data:") {
			return
		}
		resolved := resolveURL(base, src)
		if resolved == "" {
			return
		}
		add(&refs.ImageURLs, resolved)
	})

	return refs, nil
}

// isNonHTTPLink reports whether the href uses a scheme that cannot be
// crawled (javascript:, mailto:, tel:, etc.).
func isNonHTTPLink(href string) bool {
	lower := strings.ToLower(strings.TrimSpace(href))
	for _, prefix := range []string{"javascript:", "mailto:", "tel:", "ftp:", "data:"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// isFileLink reports whether the URL's path ends in a document extension.
func isFileLink(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	lower := strings.ToLower(u.Path)
	for _, ext := range fileExtensions {
		if strings.HasSuffix(lower, ext) {
			return true
		}
	}
	return false
}

// resolveURL resolves href against base and strips the fragment.
// Returns empty for unparseable or non-http results.
func resolveURL(base *url.URL, href string) string {
	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	resolved := base.ResolveReference(ref)
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	resolved.Fragment = ""
	return resolved.String()
}
