package mock

import (
	"context"

	"github.com/fwojciec/siteask"
)

var _ siteask.Generator = (*Generator)(nil)

// Generator is a mock implementation of siteask.Generator.
type Generator struct {
	GenerateFn func(ctx context.Context, prompt *siteask.Prompt) (siteask.TokenStream, error)
}

func (g *Generator) Generate(ctx context.Context, prompt *siteask.Prompt) (siteask.TokenStream, error) {
	return g.GenerateFn(ctx, prompt)
}

var _ siteask.TokenStream = (*TokenStream)(nil)

// TokenStream is a mock implementation of siteask.TokenStream.
type TokenStream struct {
	NextFn  func() (string, error)
	CloseFn func() error
}

func (s *TokenStream) Next() (string, error) {
	return s.NextFn()
}

func (s *TokenStream) Close() error {
	if s.CloseFn == nil {
		return nil
	}
	return s.CloseFn()
}
