package retrieve_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fwojciec/siteask"
	"github.com/fwojciec/siteask/retrieve"
)

func textAsset(id, pageURL string) *siteask.Asset {
	return &siteask.Asset{
		ID:        id,
		SourceURL: id,
		PageURL:   pageURL,
		Kind:      siteask.KindText,
	}
}

func imageAsset(id, pageURL string) *siteask.Asset {
	return &siteask.Asset{
		ID:        id,
		SourceURL: id,
		PageURL:   pageURL,
		Kind:      siteask.KindImage,
	}
}

func TestIndex_Retrieve(t *testing.T) {
	t.Parallel()

	t.Run("ranks matching chunk first", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		require.NoError(t, ix.IndexText(textAsset("https://example.com/a", "https://example.com/a"), "The pricing page lists all subscription tiers."))
		require.NoError(t, ix.IndexText(textAsset("https://example.com/b", "https://example.com/b"), "Our team works remotely across four time zones."))

		got, err := ix.Retrieve(context.Background(), "what are the subscription tiers?", 1)
		require.NoError(t, err)
		require.Len(t, got.Texts, 1)
		assert.Equal(t, "https://example.com/a", got.Texts[0].AssetID)
	})

	t.Run("never returns more than k snippets", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		for i := 0; i < 10; i++ {
			id := fmt.Sprintf("https://example.com/p%d", i)
			require.NoError(t, ix.IndexText(textAsset(id, id), fmt.Sprintf("gopher documentation page number %d", i)))
		}

		got, err := ix.Retrieve(context.Background(), "gopher documentation", 3)
		require.NoError(t, err)
		assert.LessOrEqual(t, len(got.Texts), 3)
	})

	t.Run("at most one image regardless of indexed images", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		require.NoError(t, ix.IndexText(textAsset("https://example.com/gallery", "https://example.com/gallery"), "A gallery of product photos and screenshots."))
		for i := 0; i < 5; i++ {
			ix.IndexImage(imageAsset(fmt.Sprintf("https://example.com/img%d.png", i), "https://example.com/gallery"))
		}

		got, err := ix.Retrieve(context.Background(), "product photos", 5)
		require.NoError(t, err)
		require.NotNil(t, got.Image)
		assert.Equal(t, "https://example.com/img0.png", got.Image.ID)
	})

	t.Run("image comes from best ranked page", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		require.NoError(t, ix.IndexText(textAsset("https://example.com/dogs", "https://example.com/dogs"), "Dogs are loyal companion animals."))
		require.NoError(t, ix.IndexText(textAsset("https://example.com/cats", "https://example.com/cats"), "Cats are independent companion animals."))
		ix.IndexImage(imageAsset("https://example.com/dog.jpg", "https://example.com/dogs"))
		ix.IndexImage(imageAsset("https://example.com/cat.jpg", "https://example.com/cats"))

		got, err := ix.Retrieve(context.Background(), "tell me about cats", 2)
		require.NoError(t, err)
		require.NotNil(t, got.Image)
		assert.Equal(t, "https://example.com/cat.jpg", got.Image.ID)
	})

	t.Run("no image when no page with images is retrieved", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		require.NoError(t, ix.IndexText(textAsset("https://example.com/a", "https://example.com/a"), "Plain text with no pictures."))

		got, err := ix.Retrieve(context.Background(), "plain text", 3)
		require.NoError(t, err)
		assert.Nil(t, got.Image)
	})

	t.Run("empty index returns empty retrieval", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		got, err := ix.Retrieve(context.Background(), "anything", 5)
		require.NoError(t, err)
		assert.Empty(t, got.Texts)
		assert.Nil(t, got.Image)
	})

	t.Run("no lexical match falls back to indexed order", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		require.NoError(t, ix.IndexText(textAsset("https://example.com/a", "https://example.com/a"), "alpha content"))
		require.NoError(t, ix.IndexText(textAsset("https://example.com/b", "https://example.com/b"), "beta content"))

		got, err := ix.Retrieve(context.Background(), "zzzzzz", 1)
		require.NoError(t, err)
		require.Len(t, got.Texts, 1)
		assert.Equal(t, "https://example.com/a", got.Texts[0].AssetID)
	})

	t.Run("token budget limits selection", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex(retrieve.WithMaxContextTokens(40))
		big := strings.Repeat("budget ", 20) // ~35 tokens per chunk
		require.NoError(t, ix.IndexText(textAsset("https://example.com/a", "https://example.com/a"), big))
		require.NoError(t, ix.IndexText(textAsset("https://example.com/b", "https://example.com/b"), big))

		got, err := ix.Retrieve(context.Background(), "budget", 5)
		require.NoError(t, err)
		assert.Len(t, got.Texts, 1)
	})

	t.Run("invalid k", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		_, err := ix.Retrieve(context.Background(), "q", 0)
		assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))
	})
}

func TestIndex_IndexText(t *testing.T) {
	t.Parallel()

	t.Run("rejects missing id", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		err := ix.IndexText(&siteask.Asset{}, "text")
		assert.Equal(t, siteask.EINVALID, siteask.ErrorCode(err))
	})

	t.Run("long document yields multiple retrievable chunks", func(t *testing.T) {
		t.Parallel()
		ix := retrieve.NewIndex()
		var b strings.Builder
		for i := 0; i < 40; i++ {
			fmt.Fprintf(&b, "Paragraph %d talks about installation and configuration steps in detail.\n\n", i)
		}
		require.NoError(t, ix.IndexText(textAsset("https://example.com/docs", "https://example.com/docs"), b.String()))

		got, err := ix.Retrieve(context.Background(), "installation steps", 3)
		require.NoError(t, err)
		assert.Len(t, got.Texts, 3)
		for _, s := range got.Texts {
			assert.Equal(t, "https://example.com/docs", s.AssetID)
			assert.LessOrEqual(t, len(s.Content), retrieve.DefaultMaxChunkChars+retrieve.DefaultMinChunkChars)
		}
	})
}

func TestApproxTokenCounter(t *testing.T) {
	t.Parallel()

	c := retrieve.ApproxTokenCounter{}
	n, err := c.CountTokens(context.Background(), "12345678")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.CountTokens(context.Background(), "123456789")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}
