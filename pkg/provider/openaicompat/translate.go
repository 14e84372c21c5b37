package openaicompat

import (
	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// runtimeOptionRenames maps keys of the Ollama "options" object to their
// Chat Completions parameter names. Runtime keys not listed here (num_ctx,
// num_gpu, mirostat, repeat_penalty, ...) only make sense to a local
// runner and are dropped.
var runtimeOptionRenames = map[string]string{
	"num_predict":       "max_tokens",
	"temperature":       "temperature",
	"top_p":             "top_p",
	"top_k":             "top_k",
	"seed":              "seed",
	"stop":              "stop",
	"frequency_penalty": "frequency_penalty",
	"presence_penalty":  "presence_penalty",
}

// localOnlyFields are top-level Ollama request fields with no hosted
// equivalent.
var localOnlyFields = map[string]bool{
	"keep_alive": true,
	"raw":        true,
	"template":   true,
	"context":    true,
	"images":     true,
	"truncate":   true,
	"think":      true,
	"suffix":     true,
	"tools":      true,
}

// TranslateRequest converts a canonical request into a Chat Completions
// request. Credential options must already be removed.
func TranslateRequest(req *provider.Request) *ChatCompletionRequest {
	cr := &ChatCompletionRequest{
		Model:  req.Model,
		Stream: req.Stream,
		Extra:  TranslateOptions(req.Options),
	}

	// When streaming, ask for usage in the final chunk.
	if req.Stream {
		cr.StreamOptions = &ChatStreamOptions{IncludeUsage: true}
	}

	for _, m := range req.Messages {
		cr.Messages = append(cr.Messages, ChatMessage{Role: m.Role, Content: m.Content})
	}

	return cr
}

// TranslateOptions maps caller options onto Chat Completions parameters.
//
// The nested "options" object is flattened through runtimeOptionRenames,
// "format" becomes response_format, local-only fields are dropped and any
// other top-level key is passed through unchanged. A top-level key wins
// over the same parameter set inside "options".
func TranslateOptions(opts map[string]any) map[string]any {
	if len(opts) == 0 {
		return nil
	}

	out := make(map[string]any, len(opts))

	if nested, ok := opts["options"].(map[string]any); ok {
		for k, v := range nested {
			name, known := runtimeOptionRenames[k]
			if !known {
				debug.Log("providers", "dropping runtime option", "option", k)
				continue
			}
			if v == nil {
				continue
			}
			out[name] = v
		}
	}

	for k, v := range opts {
		switch {
		case k == "options":
			continue
		case k == "format":
			if rf := responseFormat(v); rf != nil {
				out["response_format"] = rf
			}
		case localOnlyFields[k]:
			debug.Log("providers", "dropping local-only field", "field", k)
		default:
			out[k] = v
		}
	}

	if len(out) == 0 {
		return nil
	}
	return out
}

// responseFormat converts an Ollama "format" value. "json" selects JSON
// mode; an object is treated as a JSON schema.
func responseFormat(v any) any {
	switch f := v.(type) {
	case string:
		if f == "json" {
			return map[string]any{"type": "json_object"}
		}
		return nil
	case map[string]any:
		return map[string]any{
			"type": "json_schema",
			"json_schema": map[string]any{
				"name":   "response",
				"schema": f,
			},
		}
	default:
		return nil
	}
}

// TranslateEmbedRequest converts a canonical embedding request. Ollama
// runtime options do not apply to hosted embedding endpoints and are
// dropped; other top-level keys (dimensions, user, ...) pass through.
func TranslateEmbedRequest(req *provider.EmbedRequest) *EmbeddingRequest {
	er := &EmbeddingRequest{Model: req.Model, Input: req.Input}
	for k, v := range req.Options {
		if k == "options" || localOnlyFields[k] {
			continue
		}
		if er.Extra == nil {
			er.Extra = make(map[string]any)
		}
		er.Extra[k] = v
	}
	return er
}

// TranslateResponse normalizes a Chat Completions response. Only the first
// choice is used.
func TranslateResponse(resp *ChatCompletionResponse, providerName string) (*provider.Completion, error) {
	if len(resp.Choices) == 0 {
		return nil, provider.NewBackendError(provider.ErrorKindAPI, providerName, 0, "backend returned no choices")
	}

	choice := resp.Choices[0]
	c := &provider.Completion{
		Text:         ExtractContent(choice.Message.Content),
		FinishReason: choice.FinishReason,
	}
	if resp.Usage != nil {
		c.Usage = &provider.Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
		}
	}
	return c, nil
}

// ExtractContent safely dereferences optional message content.
func ExtractContent(content *string) string {
	if content == nil {
		return ""
	}
	return *content
}
