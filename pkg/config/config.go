// Package config provides unified configuration for the dolmetscher gateway.
//
// Configuration is loaded with a layered approach:
//  1. Built-in defaults
//  2. YAML config file (discovered or explicitly specified)
//  3. Environment variable overrides (provider keys, HOST/PORT, DOLMETSCHER_ prefix)
//  4. File reference resolution (_file suffix fields)
//  5. Validation
//
// The loaded Config is treated as immutable and passed explicitly to the
// components that need it.
package config

import (
	"net"
	"strconv"
	"time"
)

// Config holds all configuration for the dolmetscher gateway.
type Config struct {
	Server        ServerConfig        `yaml:"server"`
	Providers     ProvidersConfig     `yaml:"providers"`
	Backend       BackendConfig       `yaml:"backend"`
	Models        ModelsConfig        `yaml:"models"`
	Auth          AuthConfig          `yaml:"auth"`
	Observability ObservabilityConfig `yaml:"observability"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `yaml:"host"`             // default: "0.0.0.0"
	Port            int           `yaml:"port"`             // default: 11434
	MaxBodySize     int64         `yaml:"max_body_size"`    // default: 10 MB
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"` // default: 30s

	// GenerateStreamFormat frames /api/generate streams: "lines" or "sse".
	GenerateStreamFormat string `yaml:"generate_stream_format"` // default: "lines"

	// Validation limits.
	MaxMessages    int `yaml:"max_messages"`     // default: 1000
	MaxEmbedInputs int `yaml:"max_embed_inputs"` // default: 512
}

// Addr returns the listen address.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// ProvidersConfig holds the per-provider credential overrides selected by
// model-name prefix.
type ProvidersConfig struct {
	DashScope   ProviderCredentials `yaml:"dashscope"`
	SiliconFlow ProviderCredentials `yaml:"siliconflow"`
	DeepSeek    ProviderCredentials `yaml:"deepseek"`
	VolcEngine  ProviderCredentials `yaml:"volcengine"`
}

// ProviderCredentials is the key and optional API base of one provider.
type ProviderCredentials struct {
	APIKey     string `yaml:"api_key"`
	APIKeyFile string `yaml:"api_key_file"` // _file variant for api_key
	APIBase    string `yaml:"api_base"`
}

// BackendConfig selects and configures the invocation backend.
type BackendConfig struct {
	Type    string        `yaml:"type"`    // "hosted" or "litellm", default: "hosted"
	Timeout time.Duration `yaml:"timeout"` // default: 120s

	// Endpoints overrides or extends the hosted endpoint table by name.
	Endpoints map[string]EndpointConfig `yaml:"endpoints"`

	LiteLLM LiteLLMConfig `yaml:"litellm"`
}

// EndpointConfig describes one hosted OpenAI-compatible endpoint.
type EndpointConfig struct {
	BaseURL    string            `yaml:"base_url"`
	APIKey     string            `yaml:"api_key"`
	APIKeyFile string            `yaml:"api_key_file"` // _file variant for api_key
	Headers    map[string]string `yaml:"headers"`
}

// LiteLLMConfig holds LiteLLM proxy settings.
type LiteLLMConfig struct {
	BaseURL      string            `yaml:"base_url"`
	APIKey       string            `yaml:"api_key"`
	APIKeyFile   string            `yaml:"api_key_file"` // _file variant for api_key
	ModelMapping map[string]string `yaml:"model_mapping"`
}

// ModelsConfig points to the model metadata file.
type ModelsConfig struct {
	File string `yaml:"file"` // optional, built-in list when empty
}

// AuthConfig holds authentication settings.
type AuthConfig struct {
	Type      string          `yaml:"type"`     // "none", "apikey", "jwt", default: "none"
	APIKeys   []APIKeyConfig  `yaml:"api_keys"` // API key entries for type=apikey
	JWT       JWTConfig       `yaml:"jwt"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
}

// APIKeyConfig describes a single API key entry.
type APIKeyConfig struct {
	Key         string `yaml:"key" json:"key"`
	KeyFile     string `yaml:"key_file" json:"key_file"` // _file variant for key
	Subject     string `yaml:"subject" json:"subject"`
	ServiceTier string `yaml:"service_tier" json:"service_tier"`
}

// JWTConfig holds bearer token validation settings. Either Secret (HMAC)
// or JWKSURL (RSA) must be set.
type JWTConfig struct {
	Issuer     string `yaml:"issuer"`
	Audience   string `yaml:"audience"`
	JWKSURL    string `yaml:"jwks_url"`
	Secret     string `yaml:"secret"`
	SecretFile string `yaml:"secret_file"` // _file variant for secret
	UserClaim  string `yaml:"user_claim"`
	TierClaim  string `yaml:"tier_claim"`
}

// RateLimitConfig holds per-subject request limits.
type RateLimitConfig struct {
	RequestsPerMinute int            `yaml:"requests_per_minute"` // 0 disables limiting
	Tiers             map[string]int `yaml:"tiers"`               // tier -> requests per minute
}

// ObservabilityConfig holds monitoring and instrumentation settings.
type ObservabilityConfig struct {
	Metrics MetricsConfig `yaml:"metrics"`
}

// MetricsConfig holds Prometheus metrics endpoint settings.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"` // default: true
}

// LoggingConfig holds log output settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "trace", "debug", "info", "warn", "error", default: "info"
	Format string `yaml:"format"` // "text" or "json", default: "text"
	Debug  string `yaml:"debug"`  // comma-separated debug categories
}

// Defaults returns a Config with all default values filled in.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:                 "0.0.0.0",
			Port:                 11434,
			MaxBodySize:          10 << 20,
			ShutdownTimeout:      30 * time.Second,
			GenerateStreamFormat: "lines",
			MaxMessages:          1000,
			MaxEmbedInputs:       512,
		},
		Backend: BackendConfig{
			Type:    "hosted",
			Timeout: 120 * time.Second,
		},
		Auth: AuthConfig{
			Type: "none",
		},
		Observability: ObservabilityConfig{
			Metrics: MetricsConfig{
				Enabled: true,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
