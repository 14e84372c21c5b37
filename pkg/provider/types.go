package provider

// Message roles of the canonical conversation.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry of the canonical conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is the canonical completion request handed to a Provider.
type Request struct {
	// Model is the backend model identifier, already resolved.
	Model string

	// Messages is the ordered conversation. It always contains at least
	// one user message.
	Messages []Message

	// Options carries caller generation parameters opaquely, plus the
	// credential keys OptionAPIKey and OptionAPIBase when set.
	Options map[string]any

	Stream bool
}

// EmbedRequest is the canonical single-text embedding request.
type EmbedRequest struct {
	Model   string
	Input   string
	Options map[string]any
}

// Usage holds token counts when the backend reports them.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
}

// Completion is the normalized result of a non-streaming call.
type Completion struct {
	Text         string
	FinishReason string

	// Usage is nil when the backend did not report token counts.
	Usage *Usage
}

// ChunkType discriminates Chunk values.
type ChunkType int

const (
	// ChunkDelta carries incremental text.
	ChunkDelta ChunkType = iota

	// ChunkDone marks the end of the stream. It may carry usage and a
	// finish reason; it is always the last chunk of a successful stream.
	ChunkDone

	// ChunkError reports a failure after the stream started. No chunk
	// follows it.
	ChunkError
)

// Chunk is one element of a streaming result.
type Chunk struct {
	Type         ChunkType
	Delta        string
	FinishReason string
	Usage        *Usage
	Err          error
}

// Capabilities declares what a provider supports. The engine rejects
// requests the provider cannot serve before dispatching them.
type Capabilities struct {
	Streaming  bool
	Embeddings bool
}
