package mock

import (
	"context"

	"github.com/fwojciec/siteask"
)

var _ siteask.Retriever = (*Retriever)(nil)

// Retriever is a mock implementation of siteask.Retriever.
type Retriever struct {
	RetrieveFn func(ctx context.Context, question string, k int) (*siteask.Retrieval, error)
}

func (r *Retriever) Retrieve(ctx context.Context, question string, k int) (*siteask.Retrieval, error) {
	return r.RetrieveFn(ctx, question, k)
}
