package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Client abstracts LLM providers for CV profile extraction.
type Client interface {
	ExtractProfile(ctx context.Context, input ExtractInput) (json.RawMessage, error)
}

// ExtractInput captures the inputs needed for a profile extraction call.
type ExtractInput struct {
	Text  string
	Model string
}

var (
	// ErrAuth marks missing or rejected provider credentials.
	ErrAuth = errors.New("llm authentication failed")
	// ErrOverloaded marks rate limiting or temporary provider unavailability.
	ErrOverloaded = errors.New("llm provider overloaded")
)

// UnconfiguredClient is used when no provider credentials are set. Every call
// fails with ErrAuth so the upload is recorded with a configuration error.
type UnconfiguredClient struct {
	Provider string
}

func (c UnconfiguredClient) ExtractProfile(ctx context.Context, input ExtractInput) (json.RawMessage, error) {
	_ = ctx
	_ = input
	return nil, fmt.Errorf("%w: no API key configured for provider %q", ErrAuth, c.Provider)
}
