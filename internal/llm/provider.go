package llm

import "context"

// Provider defines the interface for LLM providers used for case-study
// generation and text improvement.
type Provider interface {
	// Complete sends a completion request and returns the response.
	Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error)
	// Name returns the name of this provider.
	Name() string
}
