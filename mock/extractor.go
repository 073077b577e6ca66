package mock

import "github.com/fwojciec/siteask"

var _ siteask.Extractor = (*Extractor)(nil)

// Extractor is a mock implementation of siteask.Extractor.
type Extractor struct {
	ExtractFn func(html string) (*siteask.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*siteask.ExtractResult, error) {
	return e.ExtractFn(html)
}
