package siteask

import "context"

// PromptImage is an image embedded directly in the model input.
type PromptImage struct {
	// AssetID identifies the embedded image asset.
	AssetID string

	// MIMEType is the image media type.
	MIMEType string

	// Data is the raw image bytes.
	Data []byte
}

// Prompt is the assembled model input for one ask request.
type Prompt struct {
	// System is the system instruction.
	System string

	// User is the user turn: asset enumeration, context snippets, and the
	// question.
	User string

	// Image is the single embedded image, or nil.
	Image *PromptImage
}

// TokenStream is a lazy, finite, non-restartable sequence of text
// increments produced by a model.
type TokenStream interface {
	// Next returns the next text increment. It returns io.EOF when the
	// model has finished, or another error if generation failed; either
	// way the stream is exhausted and must not be read again.
	Next() (string, error)

	// Close stops generation early and releases resources. Safe to call
	// more than once.
	Close() error
}

// Generator produces a streamed answer for an assembled prompt.
// Implementations wrap an opaque text/vision model.
type Generator interface {
	// Generate starts generation and returns the token stream. Canceling
	// the context stops generation.
	Generate(ctx context.Context, prompt *Prompt) (TokenStream, error)
}
