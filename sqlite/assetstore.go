package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/fwojciec/siteask"
)

// Compile-time interface verification.
var _ siteask.AssetStore = (*AssetStore)(nil)

// AssetStore implements siteask.AssetStore using SQLite. Id assignment
// matches the in-memory store: the source URL when free, otherwise the
// source URL with the sequence number appended.
type AssetStore struct {
	db *DB
}

// NewAssetStore creates a new AssetStore.
func NewAssetStore(db *DB) *AssetStore {
	return &AssetStore{db: db}
}

// CreateAsset stores the asset and its content, assigning id and sequence
// number inside one transaction so concurrent writers never collide.
func (s *AssetStore) CreateAsset(ctx context.Context, asset *siteask.Asset, content []byte) error {
	if err := asset.Validate(); err != nil {
		return err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var seq int64
	if err := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), 0) + 1 FROM assets`).Scan(&seq); err != nil {
		return err
	}

	id := asset.SourceURL
	var taken int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM assets WHERE id = ?`, id).Scan(&taken); err != nil {
		return err
	}
	if taken > 0 {
		id = fmt.Sprintf("%s#%d", asset.SourceURL, seq)
	}

	asset.ID = id
	asset.Seq = seq
	asset.ByteSize = int64(len(content))
	asset.ContentHash = fmt.Sprintf("%016x", xxhash.Sum64(content))
	if asset.FetchedAt.IsZero() {
		asset.FetchedAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO assets (id, seq, source_url, page_url, kind, mime_type, byte_size, title, filename, content_hash, depth, fetched_at, content)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, asset.ID, asset.Seq, asset.SourceURL, asset.PageURL, string(asset.Kind), asset.MIMEType,
		asset.ByteSize, asset.Title, asset.Filename, asset.ContentHash, asset.Depth,
		asset.FetchedAt.Format(time.RFC3339), content)
	if err != nil {
		return err
	}

	return tx.Commit()
}

// FindAssetByID retrieves an asset by id.
func (s *AssetStore) FindAssetByID(ctx context.Context, id string) (*siteask.Asset, error) {
	var asset siteask.Asset
	var kind, fetchedAt string

	err := s.db.QueryRowContext(ctx, `
		SELECT id, seq, source_url, page_url, kind, mime_type, byte_size, title, filename, content_hash, depth, fetched_at
		FROM assets
		WHERE id = ?
	`, id).Scan(&asset.ID, &asset.Seq, &asset.SourceURL, &asset.PageURL, &kind, &asset.MIMEType,
		&asset.ByteSize, &asset.Title, &asset.Filename, &asset.ContentHash, &asset.Depth, &fetchedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteask.Errorf(siteask.ENOTFOUND, "asset %q not found", id)
	}
	if err != nil {
		return nil, err
	}

	asset.Kind = siteask.AssetKind(kind)
	asset.FetchedAt, err = time.Parse(time.RFC3339, fetchedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse fetched_at: %w", err)
	}

	return &asset, nil
}

// ListAssets returns summaries of all assets in insertion order.
func (s *AssetStore) ListAssets(ctx context.Context) ([]siteask.AssetInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, mime_type, byte_size
		FROM assets
		ORDER BY seq ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	infos := []siteask.AssetInfo{}
	for rows.Next() {
		var info siteask.AssetInfo
		var kind string
		if err := rows.Scan(&info.ID, &kind, &info.MIMEType, &info.ByteSize); err != nil {
			return nil, err
		}
		info.Kind = siteask.AssetKind(kind)
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

// AssetContent returns a reader over the asset's stored bytes.
func (s *AssetStore) AssetContent(ctx context.Context, id string) (io.ReadCloser, error) {
	var content []byte
	err := s.db.QueryRowContext(ctx, `SELECT content FROM assets WHERE id = ?`, id).Scan(&content)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, siteask.Errorf(siteask.ENOTFOUND, "asset %q not found", id)
	}
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(content)), nil
}
