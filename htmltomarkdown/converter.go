// Package htmltomarkdown provides a siteask.Converter backed by the
// html-to-markdown library. Crawled page content is stored as markdown so
// text assets stay compact and readable inside model prompts.
package htmltomarkdown

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/siteask"
)

// Ensure Converter implements siteask.Converter at compile time.
var _ siteask.Converter = (*Converter)(nil)

// Converter transforms HTML into Markdown.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter with commonmark and table support.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML content into Markdown.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", siteask.Errorf(siteask.EINVALID, "empty HTML input")
	}
	return c.conv.ConvertString(html)
}
