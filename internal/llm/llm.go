package llm

import (
	"context"
	"encoding/json"
	"errors"
)

// Client abstracts generative-AI providers for document extraction.
type Client interface {
	ExtractDocument(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ExtractInput captures the inputs needed to extract structured data
// from one document.
type ExtractInput struct {
	FileName string
	MimeType string
	Data     []byte
	Keywords []string
}

// ErrNotImplemented is returned by the placeholder client.
var ErrNotImplemented = errors.New("LLM not implemented")

// PlaceholderClient stands in when no provider is configured; every
// extraction fails with ErrNotImplemented.
type PlaceholderClient struct{}

// ExtractDocument returns ErrNotImplemented.
func (PlaceholderClient) ExtractDocument(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, ErrNotImplemented
}
