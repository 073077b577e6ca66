// Package mem provides an in-memory implementation of siteask.AssetStore
// for session-scoped crawls. The store is append-only: assets are never
// mutated or removed once created, which keeps concurrent reads safe while
// crawl workers write.
package mem

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/siteask"
)

// Compile-time interface verification.
var _ siteask.AssetStore = (*AssetStore)(nil)

// AssetStore stores assets and their content in memory.
type AssetStore struct {
	mu      sync.RWMutex
	byID    map[string]int
	assets  []siteask.Asset
	content [][]byte
	seq     int64
}

// NewAssetStore creates an empty AssetStore.
func NewAssetStore() *AssetStore {
	return &AssetStore{byID: make(map[string]int)}
}

// CreateAsset stores the asset and assigns its id and sequence number.
// The id is the asset's source URL when no asset holds it yet; otherwise
// the sequence number is appended so two assets never share an id.
func (s *AssetStore) CreateAsset(ctx context.Context, asset *siteask.Asset, content []byte) error {
	if err := asset.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	asset.Seq = s.seq

	id := asset.SourceURL
	if _, taken := s.byID[id]; taken {
		id = fmt.Sprintf("%s#%d", asset.SourceURL, asset.Seq)
	}
	if _, taken := s.byID[id]; taken {
		return siteask.Errorf(siteask.EINTERNAL, "asset id %q already assigned", id)
	}

	asset.ID = id
	asset.ByteSize = int64(len(content))
	asset.ContentHash = fmt.Sprintf("%016x", xxhash.Sum64(content))
	if asset.FetchedAt.IsZero() {
		asset.FetchedAt = time.Now().UTC()
	}

	stored := make([]byte, len(content))
	copy(stored, content)

	s.byID[id] = len(s.assets)
	s.assets = append(s.assets, *asset)
	s.content = append(s.content, stored)
	return nil
}

// FindAssetByID retrieves an asset by id.
func (s *AssetStore) FindAssetByID(ctx context.Context, id string) (*siteask.Asset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, siteask.Errorf(siteask.ENOTFOUND, "asset %q not found", id)
	}
	asset := s.assets[i]
	return &asset, nil
}

// ListAssets returns summaries of all assets in insertion order.
func (s *AssetStore) ListAssets(ctx context.Context) ([]siteask.AssetInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	infos := make([]siteask.AssetInfo, len(s.assets))
	for i, a := range s.assets {
		infos[i] = siteask.AssetInfo{
			ID:       a.ID,
			Kind:     a.Kind,
			MIMEType: a.MIMEType,
			ByteSize: a.ByteSize,
		}
	}
	return infos, nil
}

// AssetContent returns a reader over the asset's stored bytes.
func (s *AssetStore) AssetContent(ctx context.Context, id string) (io.ReadCloser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	i, ok := s.byID[id]
	if !ok {
		return nil, siteask.Errorf(siteask.ENOTFOUND, "asset %q not found", id)
	}
	return io.NopCloser(bytes.NewReader(s.content[i])), nil
}
