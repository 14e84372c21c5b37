package api

import (
	"fmt"
)

// ValidationConfig holds configurable limits for request validation.
type ValidationConfig struct {
	MaxMessages    int
	MaxEmbedInputs int
}

// DefaultValidationConfig returns a ValidationConfig with sensible defaults.
func DefaultValidationConfig() ValidationConfig {
	return ValidationConfig{
		MaxMessages:    1000,
		MaxEmbedInputs: 512,
	}
}

// ValidateGenerate checks a GenerateRequest. An empty prompt is accepted.
func ValidateGenerate(req *GenerateRequest) *APIError {
	if req.Model == "" {
		return NewValidationError("model: field required")
	}
	return nil
}

// ValidateChat checks a ChatRequest. The messages field must be present,
// and every message must carry a known role.
func ValidateChat(req *ChatRequest, cfg ValidationConfig) *APIError {
	if req.Model == "" {
		return NewValidationError("model: field required")
	}
	if req.Messages == nil {
		return NewValidationError("messages: field required")
	}
	if cfg.MaxMessages > 0 && len(req.Messages) > cfg.MaxMessages {
		return NewValidationError(fmt.Sprintf("messages: exceeds maximum of %d", cfg.MaxMessages))
	}
	for i, m := range req.Messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant, RoleTool:
		default:
			return NewValidationError(fmt.Sprintf("messages[%d].role: unknown role %q", i, m.Role))
		}
	}
	return nil
}

// ValidateEmbeddings checks a legacy EmbeddingsRequest.
func ValidateEmbeddings(req *EmbeddingsRequest) *APIError {
	if req.Model == "" {
		return NewValidationError("model: field required")
	}
	return nil
}

// ValidateEmbed checks an EmbedRequest. The input field must be present.
func ValidateEmbed(req *EmbedRequest, cfg ValidationConfig) *APIError {
	if req.Model == "" {
		return NewValidationError("model: field required")
	}
	if req.Input == nil {
		return NewValidationError("input: field required")
	}
	if cfg.MaxEmbedInputs > 0 && len(req.Input) > cfg.MaxEmbedInputs {
		return NewValidationError(fmt.Sprintf("input: exceeds maximum of %d", cfg.MaxEmbedInputs))
	}
	return nil
}
