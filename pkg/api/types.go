package api

import (
	"encoding/json"
	"fmt"
)

// Message roles accepted by /api/chat.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// GenerateRequest is the body of POST /api/generate.
//
// Every top-level field other than model, prompt, system and stream is
// collected into Extra and forwarded to the backend as an option.
type GenerateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	System string `json:"system,omitempty"`
	Stream bool   `json:"stream"`

	// Extra holds the remaining top-level fields (options, format,
	// keep_alive, ...) exactly as the caller sent them.
	Extra map[string]any `json:"-"`
}

var generateKnownFields = []string{"model", "prompt", "system", "stream"}

// UnmarshalJSON decodes the known fields and captures the rest in Extra.
func (r *GenerateRequest) UnmarshalJSON(data []byte) error {
	type plain GenerateRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := collectExtra(data, generateKnownFields)
	if err != nil {
		return err
	}
	*r = GenerateRequest(p)
	r.Extra = extra
	return nil
}

// GenerateResponse is the non-streaming result of /api/generate.
type GenerateResponse struct {
	Model           string `json:"model"`
	CreatedAt       string `json:"created_at"`
	Response        string `json:"response"`
	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	TotalDuration   int64  `json:"total_duration"`
	PromptEvalCount *int   `json:"prompt_eval_count,omitempty"`
	EvalCount       *int   `json:"eval_count,omitempty"`
}

// Message is one chat turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ChatRequest is the body of POST /api/chat.
//
// Fields other than model, messages and stream are collected into Extra
// and forwarded like the extra fields of a GenerateRequest.
type ChatRequest struct {
	Model    string    `json:"model"`
	Messages []Message `json:"messages"`
	Stream   bool      `json:"stream"`

	Extra map[string]any `json:"-"`
}

var chatKnownFields = []string{"model", "messages", "stream"}

// UnmarshalJSON decodes the known fields and captures the rest in Extra.
func (r *ChatRequest) UnmarshalJSON(data []byte) error {
	type plain ChatRequest
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := collectExtra(data, chatKnownFields)
	if err != nil {
		return err
	}
	*r = ChatRequest(p)
	r.Extra = extra
	return nil
}

// ChatResponse is the non-streaming result of /api/chat.
type ChatResponse struct {
	Model           string  `json:"model"`
	CreatedAt       string  `json:"created_at"`
	Message         Message `json:"message"`
	Done            bool    `json:"done"`
	DoneReason      string  `json:"done_reason,omitempty"`
	TotalDuration   int64   `json:"total_duration"`
	PromptEvalCount *int    `json:"prompt_eval_count,omitempty"`
	EvalCount       *int    `json:"eval_count,omitempty"`
}

// StreamFrame is one line of a streaming /api/generate or /api/chat
// response. Exactly one frame per stream carries Done=true.
type StreamFrame struct {
	Model     string  `json:"model"`
	CreatedAt string  `json:"created_at"`
	Message   Message `json:"message"`

	// Response duplicates the delta for /api/generate streams, where
	// Ollama clients read the "response" field. Nil on chat streams.
	Response *string `json:"response,omitempty"`

	Done            bool   `json:"done"`
	DoneReason      string `json:"done_reason,omitempty"`
	TotalDuration   int64  `json:"total_duration,omitempty"`
	PromptEvalCount *int   `json:"prompt_eval_count,omitempty"`
	EvalCount       *int   `json:"eval_count,omitempty"`
}

// ErrorFrame terminates a stream that failed after the first byte was sent.
type ErrorFrame struct {
	Error string `json:"error"`
	Model string `json:"model"`
	Done  bool   `json:"done"`
}

// EmbeddingsRequest is the body of the legacy POST /api/embeddings.
type EmbeddingsRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	Options map[string]any `json:"options,omitempty"`
}

// EmbeddingsResponse is the result of /api/embeddings.
type EmbeddingsResponse struct {
	Embedding []float64 `json:"embedding"`
}

// EmbedRequest is the body of POST /api/embed. Input is either a single
// string or a list of strings.
type EmbedRequest struct {
	Model   string         `json:"model"`
	Input   EmbedInput     `json:"input"`
	Options map[string]any `json:"options,omitempty"`
}

// EmbedInput accepts both forms of the "input" field. A nil EmbedInput
// means the field was absent.
type EmbedInput []string

// UnmarshalJSON accepts a JSON string or an array of strings.
func (in *EmbedInput) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*in = EmbedInput{single}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("input must be a string or a list of strings")
	}
	if list == nil {
		list = []string{}
	}
	*in = list
	return nil
}

// EmbedResponse is the result of /api/embed.
type EmbedResponse struct {
	Model         string      `json:"model"`
	Embeddings    [][]float64 `json:"embeddings"`
	TotalDuration int64       `json:"total_duration,omitempty"`
}

// ModelDetails is the details block of a listed model.
type ModelDetails struct {
	ParentModel       string   `json:"parent_model"`
	Format            string   `json:"format"`
	Family            string   `json:"family"`
	Families          []string `json:"families"`
	ParameterSize     string   `json:"parameter_size"`
	QuantizationLevel string   `json:"quantization_level"`
}

// ListedModel is one entry of GET /api/tags.
type ListedModel struct {
	Name       string       `json:"name"`
	Model      string       `json:"model"`
	ModifiedAt string       `json:"modified_at"`
	Size       int64        `json:"size"`
	Digest     string       `json:"digest"`
	Details    ModelDetails `json:"details"`
}

// TagsResponse is the result of GET /api/tags.
type TagsResponse struct {
	Models []ListedModel `json:"models"`
}

// RunningModel is one entry of GET /api/ps.
type RunningModel struct {
	Name      string       `json:"name"`
	Model     string       `json:"model"`
	Size      int64        `json:"size"`
	Digest    string       `json:"digest"`
	Details   ModelDetails `json:"details"`
	ExpiresAt string       `json:"expires_at"`
	SizeVRAM  int64        `json:"size_vram"`
}

// ProcessResponse is the result of GET /api/ps.
type ProcessResponse struct {
	Models []RunningModel `json:"models"`
}

// VersionResponse is the result of GET /api/version.
type VersionResponse struct {
	Version            string   `json:"version"`
	Name               string   `json:"name"`
	Adapter            bool     `json:"adapter"`
	SupportedProviders []string `json:"supported_providers"`
}

// HealthResponse is the result of GET /.
type HealthResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Version string `json:"version"`
}

// collectExtra returns every top-level field of the JSON object in data
// whose key is not in known. Null values are dropped.
func collectExtra(data []byte, known []string) (map[string]any, error) {
	var all map[string]any
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	for k, v := range all {
		if v == nil {
			delete(all, k)
		}
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}
