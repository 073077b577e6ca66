package mock

import "github.com/fwojciec/siteask"

var _ siteask.PageParser = (*PageParser)(nil)

// PageParser is a mock implementation of siteask.PageParser.
type PageParser struct {
	ParsePageFn func(html string, baseURL string) (*siteask.PageRefs, error)
}

func (p *PageParser) ParsePage(html string, baseURL string) (*siteask.PageRefs, error) {
	return p.ParsePageFn(html, baseURL)
}
