package provider

import (
	"context"
	"time"
)

// Client is the interface the prioritization adapter talks to.
// There is exactly one upstream in this system, but the seam keeps the
// adapter testable without network access.
type Client interface {
	// Generate sends a prompt and returns the complete model reply.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Health performs a connectivity check against the provider.
	// Returns nil if healthy, error describing the problem otherwise.
	Health(ctx context.Context) error

	// Name returns the provider identifier for logs and health reports.
	Name() string
}

// Request describes a single completion request.
type Request struct {
	// SystemPrompt sets the model's role and output contract.
	SystemPrompt string

	// Prompt is the user message.
	Prompt string

	// Temperature controls sampling randomness. Zero means provider default.
	Temperature float64

	// MaxTokens caps the reply length. Zero means provider default.
	MaxTokens int

	// JSONOnly requests a JSON-object response format from the provider.
	JSONOnly bool
}

// Response is the model's reply plus usage metadata.
type Response struct {
	// Content is the raw text of the reply.
	Content string

	// Model is the model that actually served the request.
	Model string

	// TokensUsed is the total token count (prompt + completion).
	TokensUsed int

	// Latency is how long the round trip took.
	Latency time.Duration
}
