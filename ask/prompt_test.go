package ask_test

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/ask"
	"github.com/fwojciec/siteask/mock"
)

func TestPromptBuilder_Assemble(t *testing.T) {
	t.Parallel()

	infos := []siteask.AssetInfo{
		{ID: "https://example.com/", Kind: siteask.KindText, MIMEType: "text/markdown"},
		{ID: "https://example.com/a.jpg", Kind: siteask.KindImage, MIMEType: "image/jpeg"},
		{ID: "https://example.com/report.pdf", Kind: siteask.KindFile, MIMEType: "application/pdf"},
	}
	imgBytes := []byte{0xFF, 0xD8, 0xFF}

	store := &mock.AssetStore{
		ListAssetsFn: func(context.Context) ([]siteask.AssetInfo, error) {
			return infos, nil
		},
		AssetContentFn: func(_ context.Context, id string) (io.ReadCloser, error) {
			require.Equal(t, "https://example.com/a.jpg", id)
			return io.NopCloser(bytes.NewReader(imgBytes)), nil
		},
	}
	b := &ask.PromptBuilder{Store: store}

	t.Run("enumerates every asset id with its kind", func(t *testing.T) {
		t.Parallel()
		p, err := b.Assemble(context.Background(), "what is this?", &siteask.Retrieval{})
		require.NoError(t, err)

		assert.Contains(t, p.User, "https://example.com/ (text)")
		assert.Contains(t, p.User, "https://example.com/a.jpg (image)")
		assert.Contains(t, p.User, "https://example.com/report.pdf (file)")
		assert.Contains(t, p.User, "Question:\nwhat is this?")
	})

	t.Run("instructions introduce the marker form", func(t *testing.T) {
		t.Parallel()
		p, err := b.Assemble(context.Background(), "q", &siteask.Retrieval{})
		require.NoError(t, err)

		assert.Contains(t, p.System, "[[IMAGE:id]]")
		assert.Contains(t, p.System, "[[FILE:id]]")
	})

	t.Run("snippets are labeled with their asset id", func(t *testing.T) {
		t.Parallel()
		r := &siteask.Retrieval{
			Texts: []siteask.Snippet{
				{AssetID: "https://example.com/", Content: "Welcome to the site."},
			},
		}
		p, err := b.Assemble(context.Background(), "q", r)
		require.NoError(t, err)

		assert.Contains(t, p.User, "[https://example.com/]\nWelcome to the site.")
	})

	t.Run("loads the retrieved image from the store", func(t *testing.T) {
		t.Parallel()
		r := &siteask.Retrieval{
			Image: &siteask.Asset{
				ID:       "https://example.com/a.jpg",
				Kind:     siteask.KindImage,
				MIMEType: "image/jpeg",
			},
		}
		p, err := b.Assemble(context.Background(), "q", r)
		require.NoError(t, err)

		require.NotNil(t, p.Image)
		assert.Equal(t, "https://example.com/a.jpg", p.Image.AssetID)
		assert.Equal(t, "image/jpeg", p.Image.MIMEType)
		assert.Equal(t, imgBytes, p.Image.Data)
		assert.Contains(t, p.User, "Attached image id: https://example.com/a.jpg")
	})

	t.Run("no image in retrieval means no image in prompt", func(t *testing.T) {
		t.Parallel()
		p, err := b.Assemble(context.Background(), "q", &siteask.Retrieval{})
		require.NoError(t, err)
		assert.Nil(t, p.Image)
	})

	t.Run("blank question is invalid", func(t *testing.T) {
		t.Parallel()
		_, err := b.Assemble(context.Background(), "   ", nil)
		assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))
	})
}
