// Package trafilatura provides a siteask.Extractor backed by
// go-trafilatura's boilerplate-removal pipeline.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/siteask"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

// Ensure Extractor implements siteask.Extractor at compile time.
var _ siteask.Extractor = (*Extractor)(nil)

// Extractor extracts the main content of HTML pages, dropping navigation,
// sidebars, and other boilerplate.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract processes raw HTML and returns the main content.
// Returns EINVALID when nothing usable could be extracted; the crawler
// then falls back to converting the whole document.
func (e *Extractor) Extract(rawHTML string) (*siteask.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, siteask.Errorf(siteask.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), trafilatura.Options{
		EnableFallback: true,
	})
	if err != nil {
		return nil, siteask.Errorf(siteask.EINVALID, "content extraction: %v", err)
	}

	if result.ContentNode == nil {
		return nil, siteask.Errorf(siteask.EINVALID, "no main content found")
	}

	var buf bytes.Buffer
	if err := html.Render(&buf, result.ContentNode); err != nil {
		return nil, err
	}

	return &siteask.ExtractResult{
		Title:       result.Metadata.Title,
		ContentHTML: buf.String(),
	}, nil
}
