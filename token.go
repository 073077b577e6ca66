package siteask

import "context"

// TokenCounter counts tokens in text for prompt budget enforcement.
type TokenCounter interface {
	CountTokens(ctx context.Context, text string) (int, error)
}
