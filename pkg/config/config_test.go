package config

import (
	"os"
	"strings"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("default server.host = %q, want \"0.0.0.0\"", cfg.Server.Host)
	}
	if cfg.Server.Port != 11434 {
		t.Errorf("default server.port = %d, want 11434", cfg.Server.Port)
	}
	if cfg.Server.Addr() != "0.0.0.0:11434" {
		t.Errorf("default addr = %q, want 0.0.0.0:11434", cfg.Server.Addr())
	}
	if cfg.Server.ShutdownTimeout != 30*time.Second {
		t.Errorf("default server.shutdown_timeout = %v, want 30s", cfg.Server.ShutdownTimeout)
	}
	if cfg.Server.GenerateStreamFormat != "lines" {
		t.Errorf("default server.generate_stream_format = %q, want \"lines\"", cfg.Server.GenerateStreamFormat)
	}
	if cfg.Backend.Type != "hosted" {
		t.Errorf("default backend.type = %q, want \"hosted\"", cfg.Backend.Type)
	}
	if cfg.Auth.Type != "none" {
		t.Errorf("default auth.type = %q, want \"none\"", cfg.Auth.Type)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("metrics should be enabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}

func TestLoadFromYAML(t *testing.T) {
	yamlContent := `
server:
  host: 127.0.0.1
  port: 9090
  generate_stream_format: sse
providers:
  dashscope:
    api_key: sk-dash
    api_base: https://dashscope-intl.aliyuncs.com/compatible-mode/v1
  deepseek:
    api_key: sk-deep
backend:
  type: litellm
  timeout: 45s
  litellm:
    base_url: http://localhost:4000
    model_mapping:
      qwen-max: openai/qwen-max
models:
  file: /etc/dolmetscher/models.yaml
auth:
  type: apikey
  api_keys:
    - key: sk-test-123
      subject: alice
      service_tier: gold
  rate_limit:
    requests_per_minute: 60
    tiers:
      gold: 600
logging:
  level: debug
  format: json
  debug: resolver,http
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Addr() != "127.0.0.1:9090" {
		t.Errorf("addr = %q, want 127.0.0.1:9090", cfg.Server.Addr())
	}
	if cfg.Server.GenerateStreamFormat != "sse" {
		t.Errorf("server.generate_stream_format = %q, want \"sse\"", cfg.Server.GenerateStreamFormat)
	}
	if cfg.Providers.DashScope.APIKey != "sk-dash" {
		t.Errorf("providers.dashscope.api_key = %q, want \"sk-dash\"", cfg.Providers.DashScope.APIKey)
	}
	if !strings.HasPrefix(cfg.Providers.DashScope.APIBase, "https://dashscope-intl") {
		t.Errorf("providers.dashscope.api_base = %q", cfg.Providers.DashScope.APIBase)
	}
	if cfg.Providers.DeepSeek.APIKey != "sk-deep" {
		t.Errorf("providers.deepseek.api_key = %q, want \"sk-deep\"", cfg.Providers.DeepSeek.APIKey)
	}
	if cfg.Backend.Type != "litellm" {
		t.Errorf("backend.type = %q, want \"litellm\"", cfg.Backend.Type)
	}
	if cfg.Backend.Timeout != 45*time.Second {
		t.Errorf("backend.timeout = %v, want 45s", cfg.Backend.Timeout)
	}
	if cfg.Backend.LiteLLM.ModelMapping["qwen-max"] != "openai/qwen-max" {
		t.Errorf("backend.litellm.model_mapping = %v", cfg.Backend.LiteLLM.ModelMapping)
	}
	if cfg.Models.File != "/etc/dolmetscher/models.yaml" {
		t.Errorf("models.file = %q", cfg.Models.File)
	}
	if len(cfg.Auth.APIKeys) != 1 || cfg.Auth.APIKeys[0].ServiceTier != "gold" {
		t.Errorf("auth.api_keys = %+v", cfg.Auth.APIKeys)
	}
	if cfg.Auth.RateLimit.RequestsPerMinute != 60 || cfg.Auth.RateLimit.Tiers["gold"] != 600 {
		t.Errorf("auth.rate_limit = %+v", cfg.Auth.RateLimit)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "json" || cfg.Logging.Debug != "resolver,http" {
		t.Errorf("logging = %+v", cfg.Logging)
	}

	// Fields not present in the YAML keep their defaults.
	if cfg.Server.MaxBodySize != 10<<20 {
		t.Errorf("server.max_body_size = %d, want default", cfg.Server.MaxBodySize)
	}
	if !cfg.Observability.Metrics.Enabled {
		t.Error("metrics should stay enabled")
	}
}

func TestEnvOverride(t *testing.T) {
	yamlContent := `
server:
  port: 9090
providers:
  siliconflow:
    api_key: sk-from-yaml
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	t.Setenv("HOST", "10.0.0.1")
	t.Setenv("PORT", "7070")
	t.Setenv("SILICONFLOW_API_KEY", "sk-from-env")
	t.Setenv("VOLCENGINE_API_KEY", "sk-volc")
	t.Setenv("VOLCENGINE_API_BASE", "https://ark.example.com/api/v3")
	t.Setenv("LOG_LEVEL", "warn")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Server.Host != "10.0.0.1" {
		t.Errorf("server.host = %q, want env override", cfg.Server.Host)
	}
	if cfg.Server.Port != 7070 {
		t.Errorf("server.port = %d, want env override 7070", cfg.Server.Port)
	}
	if cfg.Providers.SiliconFlow.APIKey != "sk-from-env" {
		t.Errorf("providers.siliconflow.api_key = %q, want env override", cfg.Providers.SiliconFlow.APIKey)
	}
	if cfg.Providers.VolcEngine.APIKey != "sk-volc" || cfg.Providers.VolcEngine.APIBase != "https://ark.example.com/api/v3" {
		t.Errorf("providers.volcengine = %+v", cfg.Providers.VolcEngine)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q, want \"warn\"", cfg.Logging.Level)
	}
}

func TestEnvOverridePrefixedWins(t *testing.T) {
	t.Setenv("PORT", "7070")
	t.Setenv("DOLMETSCHER_PORT", "7171")
	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("DOLMETSCHER_LOG_LEVEL", "error")

	cfg, err := Load(writeTemp(t, "config-*.yaml", "{}\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Server.Port != 7171 {
		t.Errorf("server.port = %d, want 7171", cfg.Server.Port)
	}
	if cfg.Logging.Level != "error" {
		t.Errorf("logging.level = %q, want \"error\"", cfg.Logging.Level)
	}
}

func TestEnvOverrideInvalidPort(t *testing.T) {
	t.Setenv("PORT", "eleven")

	_, err := Load(writeTemp(t, "config-*.yaml", "{}\n"))
	if err == nil {
		t.Fatal("expected error for non-numeric PORT")
	}
	if !strings.Contains(err.Error(), "PORT") {
		t.Errorf("error = %q, want it to name PORT", err)
	}
}

func TestEnvHostedEndpoints(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-openai")
	t.Setenv("GROQ_API_BASE", "http://groq.local/v1")

	cfg, err := Load(writeTemp(t, "config-*.yaml", "{}\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if got := cfg.Backend.Endpoints["openai"].APIKey; got != "sk-openai" {
		t.Errorf("backend.endpoints.openai.api_key = %q, want \"sk-openai\"", got)
	}
	if got := cfg.Backend.Endpoints["groq"].BaseURL; got != "http://groq.local/v1" {
		t.Errorf("backend.endpoints.groq.base_url = %q", got)
	}
	if _, ok := cfg.Backend.Endpoints["mistral"]; ok {
		t.Error("mistral endpoint should not be created without env")
	}
}

func TestEnvAPIKeysJSON(t *testing.T) {
	t.Setenv("DOLMETSCHER_AUTH_TYPE", "apikey")
	t.Setenv("DOLMETSCHER_API_KEYS", `[{"key":"sk-env","subject":"bob","service_tier":"silver"}]`)

	cfg, err := Load(writeTemp(t, "config-*.yaml", "{}\n"))
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Auth.Type != "apikey" {
		t.Errorf("auth.type = %q, want \"apikey\"", cfg.Auth.Type)
	}
	if len(cfg.Auth.APIKeys) != 1 {
		t.Fatalf("auth.api_keys length = %d, want 1", len(cfg.Auth.APIKeys))
	}
	if cfg.Auth.APIKeys[0].Subject != "bob" || cfg.Auth.APIKeys[0].ServiceTier != "silver" {
		t.Errorf("auth.api_keys[0] = %+v", cfg.Auth.APIKeys[0])
	}

	t.Setenv("DOLMETSCHER_API_KEYS", `not json`)
	if _, err := Load(writeTemp(t, "config-*.yaml", "{}\n")); err == nil {
		t.Error("expected error for malformed DOLMETSCHER_API_KEYS")
	}
}

func TestFileReference(t *testing.T) {
	secretFile := writeTemp(t, "secret-*.txt", "  sk-from-file-123  \n")

	yamlContent := `
providers:
  dashscope:
    api_key_file: ` + secretFile + `
backend:
  endpoints:
    openai:
      api_key_file: ` + secretFile + `
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Providers.DashScope.APIKey != "sk-from-file-123" {
		t.Errorf("providers.dashscope.api_key = %q, want \"sk-from-file-123\" (from file, trimmed)", cfg.Providers.DashScope.APIKey)
	}
	if cfg.Backend.Endpoints["openai"].APIKey != "sk-from-file-123" {
		t.Errorf("backend.endpoints.openai.api_key = %q", cfg.Backend.Endpoints["openai"].APIKey)
	}
}

func TestFileReferenceForAPIKeysAndJWT(t *testing.T) {
	keyFile := writeTemp(t, "apikey-*.txt", "  sk-key-from-file  \n")
	secretFile := writeTemp(t, "jwt-*.txt", "hmac-secret\n")

	yamlContent := `
auth:
  type: jwt
  api_keys:
    - key_file: ` + keyFile + `
      subject: file-user
  jwt:
    secret_file: ` + secretFile + `
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	if cfg.Auth.APIKeys[0].Key != "sk-key-from-file" {
		t.Errorf("auth.api_keys[0].key = %q, want \"sk-key-from-file\"", cfg.Auth.APIKeys[0].Key)
	}
	if cfg.Auth.JWT.Secret != "hmac-secret" {
		t.Errorf("auth.jwt.secret = %q, want \"hmac-secret\"", cfg.Auth.JWT.Secret)
	}
}

func TestFileReferenceMissingFile(t *testing.T) {
	yamlContent := `
backend:
  type: litellm
  litellm:
    base_url: http://localhost:4000
    api_key_file: /nonexistent/dolmetscher/key
`
	_, err := Load(writeTemp(t, "config-*.yaml", yamlContent))
	if err == nil {
		t.Fatal("expected error for missing secret file")
	}
	if !strings.Contains(err.Error(), "backend.litellm.api_key_file") {
		t.Errorf("error = %q, want field path", err)
	}
}

func TestFileReferenceDoesNotOverrideExplicitValue(t *testing.T) {
	secretFile := writeTemp(t, "secret-*.txt", "sk-from-file")

	yamlContent := `
providers:
  deepseek:
    api_key: sk-explicit
    api_key_file: ` + secretFile + `
`
	tmpFile := writeTemp(t, "config-*.yaml", yamlContent)

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// When both api_key and api_key_file are set, the explicit value takes precedence.
	if cfg.Providers.DeepSeek.APIKey != "sk-explicit" {
		t.Errorf("providers.deepseek.api_key = %q, want \"sk-explicit\" (explicit value should win over file)", cfg.Providers.DeepSeek.APIKey)
	}
}

func TestFileDiscovery(t *testing.T) {
	// Explicit path.
	tmpFile := writeTemp(t, "config-*.yaml", "server:\n  port: 1111\n")

	cfg, err := Load(tmpFile)
	if err != nil {
		t.Fatalf("Load(explicit) error: %v", err)
	}
	if cfg.Server.Port != 1111 {
		t.Errorf("explicit path: port = %d, want 1111", cfg.Server.Port)
	}

	// DOLMETSCHER_CONFIG env var.
	envFile := writeTemp(t, "envconfig-*.yaml", "server:\n  port: 2222\n")
	t.Setenv("DOLMETSCHER_CONFIG", envFile)

	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load(DOLMETSCHER_CONFIG) error: %v", err)
	}
	if cfg.Server.Port != 2222 {
		t.Errorf("DOLMETSCHER_CONFIG: port = %d, want 2222", cfg.Server.Port)
	}

	// Explicit path wins over the env var.
	cfg, err = Load(tmpFile)
	if err != nil {
		t.Fatalf("Load(explicit) error: %v", err)
	}
	if cfg.Server.Port != 1111 {
		t.Errorf("explicit over env: port = %d, want 1111", cfg.Server.Port)
	}

	// Missing file reported.
	if _, err := Load("/nonexistent/dolmetscher.yaml"); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestValidation(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr string
	}{
		{
			name:    "invalid port",
			modify:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be in 1..65535",
		},
		{
			name:    "port too large",
			modify:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "server.port must be in 1..65535",
		},
		{
			name:    "invalid stream format",
			modify:  func(c *Config) { c.Server.GenerateStreamFormat = "chunked" },
			wantErr: "server.generate_stream_format",
		},
		{
			name:    "invalid backend type",
			modify:  func(c *Config) { c.Backend.Type = "vllm" },
			wantErr: "backend.type must be",
		},
		{
			name:    "litellm without base_url",
			modify:  func(c *Config) { c.Backend.Type = "litellm" },
			wantErr: "backend.litellm.base_url is required",
		},
		{
			name:    "apikey without keys",
			modify:  func(c *Config) { c.Auth.Type = "apikey" },
			wantErr: "auth.api_keys must not be empty",
		},
		{
			name: "apikey entry without key",
			modify: func(c *Config) {
				c.Auth.Type = "apikey"
				c.Auth.APIKeys = []APIKeyConfig{{Subject: "nobody"}}
			},
			wantErr: "auth.api_keys[0]: key or key_file is required",
		},
		{
			name:    "jwt without secret or jwks",
			modify:  func(c *Config) { c.Auth.Type = "jwt" },
			wantErr: "auth.jwt.secret or auth.jwt.jwks_url is required",
		},
		{
			name:    "invalid auth type",
			modify:  func(c *Config) { c.Auth.Type = "oauth2" },
			wantErr: "auth.type must be",
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Logging.Level = "verbose" },
			wantErr: "logging.level must be",
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: "logging.format must be",
		},
		{
			name: "valid litellm config",
			modify: func(c *Config) {
				c.Backend.Type = "litellm"
				c.Backend.LiteLLM.BaseURL = "http://localhost:4000"
			},
			wantErr: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.modify(&cfg)
			err := cfg.Validate()

			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}

			if err == nil {
				t.Fatalf("Validate() expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Validate() error = %q, want it to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestValidationReportsAllErrors(t *testing.T) {
	cfg := Defaults()
	cfg.Server.Port = -1
	cfg.Backend.Type = "bogus"
	cfg.Auth.Type = "bogus"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"server.port", "backend.type", "auth.type"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %s", err, want)
		}
	}
}

// writeTemp creates a temporary file with the given content and returns its path.
// The file is automatically cleaned up when the test finishes.
func writeTemp(t *testing.T, pattern, content string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), pattern)
	if err != nil {
		t.Fatalf("creating temp file: %v", err)
	}
	if _, err := f.WriteString(content); err != nil {
		f.Close()
		t.Fatalf("writing temp file: %v", err)
	}
	f.Close()
	return f.Name()
}
