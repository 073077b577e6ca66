package siteask

import (
	"context"
	"io"
	"time"
)

// AssetKind classifies a stored asset.
type AssetKind string

// Asset kinds.
const (
	KindText  AssetKind = "text"
	KindImage AssetKind = "image"
	KindFile  AssetKind = "file"
)

// Valid reports whether k is a known asset kind.
func (k AssetKind) Valid() bool {
	switch k {
	case KindText, KindImage, KindFile:
		return true
	}
	return false
}

// Asset represents one discovered or uploaded unit of content.
// The id is assigned by the store exactly once and never changes; the
// content bytes are owned exclusively by the store that holds the asset.
// PageURL is the page on which the asset was discovered (equal to
// SourceURL for page text, synthetic for uploads).
type Asset struct {
	ID          string    `json:"id"`
	SourceURL   string    `json:"sourceUrl"`
	PageURL     string    `json:"pageUrl,omitempty"`
	Kind        AssetKind `json:"kind"`
	MIMEType    string    `json:"mimeType"`
	ByteSize    int64     `json:"byteSize"`
	Title       string    `json:"title,omitempty"`
	Filename    string    `json:"filename,omitempty"`
	ContentHash string    `json:"contentHash"`
	Depth       int       `json:"depth"`
	Seq         int64     `json:"seq"`
	FetchedAt   time.Time `json:"fetchedAt"`
}

// Validate returns an error if the asset contains invalid fields.
func (a *Asset) Validate() error {
	if a.SourceURL == "" {
		return Errorf(EINVALID, "asset source URL required")
	}
	if !a.Kind.Valid() {
		return Errorf(EINVALID, "asset kind %q invalid", a.Kind)
	}
	if a.Depth < 0 {
		return Errorf(EINVALID, "asset depth must be non-negative")
	}
	return nil
}

// AssetInfo is a summary row returned by AssetStore.ListAssets.
type AssetInfo struct {
	ID       string    `json:"id"`
	Kind     AssetKind `json:"kind"`
	MIMEType string    `json:"mimeType"`
	ByteSize int64     `json:"byteSize"`
}

// AssetStore holds crawled and uploaded assets and assigns stable
// identifiers. Implementations are append-only and safe for concurrent use:
// readers never observe a partially constructed asset, and id assignment is
// atomic across concurrent CreateAsset calls.
type AssetStore interface {
	// CreateAsset stores the asset with its content and assigns asset.ID
	// and asset.Seq. The id is unique for the lifetime of the store and is
	// never reused. ByteSize and ContentHash are computed from content.
	CreateAsset(ctx context.Context, asset *Asset, content []byte) error

	// FindAssetByID retrieves an asset by id.
	// Returns ENOTFOUND if the asset does not exist.
	FindAssetByID(ctx context.Context, id string) (*Asset, error)

	// ListAssets returns summaries of all assets in insertion order.
	ListAssets(ctx context.Context) ([]AssetInfo, error)

	// AssetContent returns a reader over the asset's content bytes.
	// Returns ENOTFOUND if the asset does not exist.
	AssetContent(ctx context.Context, id string) (io.ReadCloser, error)
}
