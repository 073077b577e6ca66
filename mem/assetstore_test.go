package mem_test

import (
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/mem"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssetStore_CreateAsset_assigns_source_URL_as_id(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()
	ctx := context.Background()

	asset := &siteask.Asset{
		SourceURL: "https://example.com/docs",
		Kind:      siteask.KindText,
		MIMEType:  "text/markdown",
	}
	err := s.CreateAsset(ctx, asset, []byte("hello"))
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/docs", asset.ID)
	assert.Equal(t, int64(5), asset.ByteSize)
	assert.NotEmpty(t, asset.ContentHash)
	assert.False(t, asset.FetchedAt.IsZero())
}

func TestAssetStore_CreateAsset_never_reuses_ids(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()
	ctx := context.Background()

	first := &siteask.Asset{SourceURL: "https://example.com/a.png", Kind: siteask.KindImage, MIMEType: "image/png"}
	second := &siteask.Asset{SourceURL: "https://example.com/a.png", Kind: siteask.KindImage, MIMEType: "image/png"}

	require.NoError(t, s.CreateAsset(ctx, first, []byte("x")))
	require.NoError(t, s.CreateAsset(ctx, second, []byte("x")))

	assert.NotEqual(t, first.ID, second.ID, "identical source URLs must still get distinct ids")
	assert.Less(t, first.Seq, second.Seq, "sequence numbers are monotonic")
}

func TestAssetStore_no_content_deduplication(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()
	ctx := context.Background()

	a := &siteask.Asset{SourceURL: "https://example.com/one", Kind: siteask.KindText, MIMEType: "text/plain"}
	b := &siteask.Asset{SourceURL: "https://example.com/two", Kind: siteask.KindText, MIMEType: "text/plain"}
	require.NoError(t, s.CreateAsset(ctx, a, []byte("same bytes")))
	require.NoError(t, s.CreateAsset(ctx, b, []byte("same bytes")))

	infos, err := s.ListAssets(ctx)
	require.NoError(t, err)
	assert.Len(t, infos, 2, "identical bytes from different sources remain distinct entries")
}

func TestAssetStore_FindAssetByID_not_found(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()

	_, err := s.FindAssetByID(context.Background(), "missing")
	assert.Equal(t, siteask.ENOTFOUND, siteask.ErrorCode(err))

	_, err = s.AssetContent(context.Background(), "missing")
	assert.Equal(t, siteask.ENOTFOUND, siteask.ErrorCode(err))
}

func TestAssetStore_AssetContent_returns_stored_bytes(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()
	ctx := context.Background()

	asset := &siteask.Asset{SourceURL: "https://example.com/img.jpg", Kind: siteask.KindImage, MIMEType: "image/jpeg"}
	require.NoError(t, s.CreateAsset(ctx, asset, []byte{0xff, 0xd8, 0xff}))

	rc, err := s.AssetContent(ctx, asset.ID)
	require.NoError(t, err)
	defer rc.Close()

	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xff, 0xd8, 0xff}, got)
}

func TestAssetStore_CreateAsset_rejects_invalid_assets(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()

	err := s.CreateAsset(context.Background(), &siteask.Asset{Kind: siteask.KindText}, nil)
	assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))

	err = s.CreateAsset(context.Background(), &siteask.Asset{SourceURL: "https://x.com", Kind: "video"}, nil)
	assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))
}

func TestAssetStore_concurrent_creates_assign_unique_ids(t *testing.T) {
	t.Parallel()

	s := mem.NewAssetStore()
	ctx := context.Background()

	const n = 100
	var wg sync.WaitGroup
	ids := make([]string, n)

	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			asset := &siteask.Asset{
				SourceURL: "https://example.com/shared",
				Kind:      siteask.KindText,
				MIMEType:  "text/plain",
			}
			if err := s.CreateAsset(ctx, asset, fmt.Appendf(nil, "content %d", i)); err == nil {
				ids[i] = asset.ID
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, id := range ids {
		require.NotEmpty(t, id)
		assert.False(t, seen[id], "duplicate id %q", id)
		seen[id] = true
	}
}
