package litellm

import "time"

// Config holds configuration for the LiteLLM proxy backend.
type Config struct {
	// BaseURL is the LiteLLM proxy URL (e.g., "http://localhost:4000").
	// The /v1 API root is appended.
	BaseURL string `yaml:"base_url"`

	// APIKey is the proxy master or virtual key (optional).
	APIKey string `yaml:"api_key"`

	// Timeout for non-streaming requests. Defaults to 120s.
	Timeout time.Duration `yaml:"timeout"`

	// ModelMapping maps backend model ids to proxy model names, for
	// example {"openai/qwen-max": "qwen-max-router"}. Unmapped ids are
	// passed through unchanged.
	ModelMapping map[string]string `yaml:"model_mapping"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig(baseURL string) Config {
	return Config{
		BaseURL: baseURL,
		Timeout: 120 * time.Second,
	}
}
