package siteask

import "context"

// Snippet is one retrieved piece of text context.
type Snippet struct {
	// AssetID identifies the text asset the snippet came from.
	AssetID string

	// Content is the snippet text.
	Content string
}

// Retrieval holds the assets selected for one question.
type Retrieval struct {
	// Texts are the selected snippets, best match first.
	Texts []Snippet

	// Image is the single image asset whose bytes will be embedded in the
	// model input, or nil. At most one image is ever selected: the
	// underlying vision model accepts a single embedded image per call.
	Image *Asset
}

// Retriever selects assets relevant to a question. Ranking quality is best
// effort; the bound on the number of returned snippets is a hard contract.
type Retriever interface {
	// Retrieve returns at most k text snippets and at most one image.
	Retrieve(ctx context.Context, question string, k int) (*Retrieval, error)
}

// Indexer accepts assets for retrieval indexing as they are stored.
type Indexer interface {
	// IndexText makes the asset's text retrievable.
	IndexText(asset *Asset, text string) error

	// IndexImage registers an image asset so it can be selected alongside
	// text retrieved from the same page.
	IndexImage(asset *Asset)
}
