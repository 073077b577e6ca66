package mock

import (
	"context"
	"io"

	"github.com/fwojciec/siteask"
)

var _ siteask.AssetStore = (*AssetStore)(nil)

// AssetStore is a mock implementation of siteask.AssetStore.
type AssetStore struct {
	CreateAssetFn   func(ctx context.Context, asset *siteask.Asset, content []byte) error
	FindAssetByIDFn func(ctx context.Context, id string) (*siteask.Asset, error)
	ListAssetsFn    func(ctx context.Context) ([]siteask.AssetInfo, error)
	AssetContentFn  func(ctx context.Context, id string) (io.ReadCloser, error)
}

func (s *AssetStore) CreateAsset(ctx context.Context, asset *siteask.Asset, content []byte) error {
	return s.CreateAssetFn(ctx, asset, content)
}

func (s *AssetStore) FindAssetByID(ctx context.Context, id string) (*siteask.Asset, error) {
	return s.FindAssetByIDFn(ctx, id)
}

func (s *AssetStore) ListAssets(ctx context.Context) ([]siteask.AssetInfo, error) {
	return s.ListAssetsFn(ctx)
}

func (s *AssetStore) AssetContent(ctx context.Context, id string) (io.ReadCloser, error) {
	return s.AssetContentFn(ctx, id)
}
