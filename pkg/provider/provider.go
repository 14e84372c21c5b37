package provider

import "context"

// Provider abstracts a hosted LLM backend. The interface is protocol
// agnostic: each adapter handles its own wire format internally.
//
// Implementations must be safe for concurrent use by multiple goroutines.
type Provider interface {
	// Name returns the provider identifier (e.g., "hosted", "litellm").
	Name() string

	// Capabilities returns what this provider supports.
	Capabilities() Capabilities

	// Complete performs a non-streaming completion.
	Complete(ctx context.Context, req *Request) (*Completion, error)

	// Stream performs a streaming completion. The returned channel receives
	// Chunk values and is closed by the provider after the final chunk.
	// Cancelling ctx stops the stream and closes the upstream connection.
	Stream(ctx context.Context, req *Request) (<-chan Chunk, error)

	// Embed returns the embedding vector of a single text.
	Embed(ctx context.Context, req *EmbedRequest) ([]float64, error)

	// Close releases provider resources (HTTP clients, connections).
	Close() error
}
