package openaicompat

import "encoding/json"

// Chat Completions and Embeddings wire types shared across OpenAI-compatible
// adapters.

// ChatCompletionRequest is the request body for /chat/completions.
type ChatCompletionRequest struct {
	Model         string             `json:"model"`
	Messages      []ChatMessage      `json:"messages"`
	Stream        bool               `json:"stream"`
	StreamOptions *ChatStreamOptions `json:"stream_options,omitempty"`

	// Extra holds translated generation parameters. Keys that collide with
	// the fields above are ignored on encoding.
	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the top-level object.
func (r ChatCompletionRequest) MarshalJSON() ([]byte, error) {
	type plain ChatCompletionRequest
	return marshalWithExtra(plain(r), r.Extra)
}

// ChatStreamOptions controls streaming behavior.
type ChatStreamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

// ChatMessage is a message in the Chat Completions format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatCompletionResponse is the non-streaming response from /chat/completions.
type ChatCompletionResponse struct {
	ID      string       `json:"id"`
	Object  string       `json:"object"`
	Model   string       `json:"model"`
	Choices []ChatChoice `json:"choices"`
	Usage   *ChatUsage   `json:"usage,omitempty"`
}

// ChatChoice is one completion choice.
type ChatChoice struct {
	Index        int                 `json:"index"`
	Message      ChatResponseMessage `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

// ChatResponseMessage is the assistant message of a choice. Content is
// null for some refusals and content-filter stops.
type ChatResponseMessage struct {
	Role    string  `json:"role"`
	Content *string `json:"content"`
}

// ChatUsage holds token usage from the Chat Completions API.
type ChatUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatCompletionChunk is a single SSE chunk in a streaming response.
type ChatCompletionChunk struct {
	ID      string            `json:"id"`
	Object  string            `json:"object"`
	Model   string            `json:"model"`
	Choices []ChatChunkChoice `json:"choices"`
	Usage   *ChatUsage        `json:"usage,omitempty"`

	// Error is set by backends that report failures inside the stream.
	Error *ChatErrorBody `json:"error,omitempty"`
}

// ChatChunkChoice is a streaming choice delta.
type ChatChunkChoice struct {
	Index        int            `json:"index"`
	Delta        ChatChunkDelta `json:"delta"`
	FinishReason *string        `json:"finish_reason"`
}

// ChatChunkDelta holds incremental content in a streaming chunk.
type ChatChunkDelta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// ChatErrorBody is the error object returned by OpenAI-compatible backends.
type ChatErrorBody struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    any    `json:"code"`
}

// EmbeddingRequest is the request body for /embeddings.
type EmbeddingRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`

	Extra map[string]any `json:"-"`
}

// MarshalJSON flattens Extra into the top-level object.
func (r EmbeddingRequest) MarshalJSON() ([]byte, error) {
	type plain EmbeddingRequest
	return marshalWithExtra(plain(r), r.Extra)
}

// EmbeddingResponse is the response from /embeddings.
type EmbeddingResponse struct {
	Object string          `json:"object"`
	Data   []EmbeddingData `json:"data"`
	Model  string          `json:"model"`
	Usage  *ChatUsage      `json:"usage,omitempty"`
}

// EmbeddingData holds one embedding vector.
type EmbeddingData struct {
	Object    string    `json:"object"`
	Index     int       `json:"index"`
	Embedding []float64 `json:"embedding"`
}

// marshalWithExtra encodes v and merges extra into the resulting object
// without overwriting fields v already set.
func marshalWithExtra(v any, extra map[string]any) ([]byte, error) {
	base, err := json.Marshal(v)
	if err != nil || len(extra) == 0 {
		return base, err
	}
	var merged map[string]any
	if err := json.Unmarshal(base, &merged); err != nil {
		return nil, err
	}
	for k, val := range extra {
		if _, exists := merged[k]; exists {
			continue
		}
		merged[k] = val
	}
	return json.Marshal(merged)
}
