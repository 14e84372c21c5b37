package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// hostedEnvEndpoints are the hosted endpoints whose key and base can be set
// with <NAME>_API_KEY and <NAME>_API_BASE. DeepSeek and VolcEngine keys
// are provider credentials and travel with each request instead.
var hostedEnvEndpoints = []string{"openai", "gemini", "anthropic", "openrouter", "mistral", "groq"}

// Load loads configuration from a layered set of sources.
//
// The loading order is:
//  1. Built-in defaults
//  2. YAML config file (explicit path, DOLMETSCHER_CONFIG env, ./config.yaml, /etc/dolmetscher/config.yaml)
//  3. Environment variable overrides
//  4. File reference resolution (_file suffix)
//  5. Validation
func Load(configPath string) (*Config, error) {
	// Start with defaults.
	cfg := Defaults()

	// Discover and load YAML config file.
	filePath := discoverConfigFile(configPath)
	if filePath != "" {
		if err := loadYAMLFile(filePath, &cfg); err != nil {
			return nil, fmt.Errorf("loading config file %s: %w", filePath, err)
		}
	}

	if err := applyEnvOverrides(&cfg); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	// Resolve _file references.
	if err := resolveFileReferences(&cfg); err != nil {
		return nil, fmt.Errorf("resolving file references: %w", err)
	}

	// Validate.
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}

	return &cfg, nil
}

// discoverConfigFile finds the config file path using the discovery order:
// 1. Explicit configPath argument
// 2. DOLMETSCHER_CONFIG environment variable
// 3. ./config.yaml in the current directory
// 4. /etc/dolmetscher/config.yaml
//
// Returns empty string if no config file is found.
func discoverConfigFile(configPath string) string {
	// Explicit path takes priority.
	if configPath != "" {
		return configPath
	}

	if envPath := os.Getenv("DOLMETSCHER_CONFIG"); envPath != "" {
		return envPath
	}

	// Check common locations.
	candidates := []string{
		"config.yaml",
		"/etc/dolmetscher/config.yaml",
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	return ""
}

// loadYAMLFile reads and parses a YAML file into the Config struct.
// Fields not present in the YAML retain their current (default) values.
func loadYAMLFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// applyEnvOverrides maps environment variables to config fields. The
// unprefixed names (HOST, PORT, DASHSCOPE_API_KEY, ...) are the ones the
// gateway has always read; DOLMETSCHER_* names cover the rest.
func applyEnvOverrides(cfg *Config) error {
	setString(&cfg.Server.Host, "HOST", "DOLMETSCHER_HOST")
	if err := setInt(&cfg.Server.Port, "PORT", "DOLMETSCHER_PORT"); err != nil {
		return err
	}
	setString(&cfg.Server.GenerateStreamFormat, "DOLMETSCHER_GENERATE_STREAM_FORMAT")

	setProvider(&cfg.Providers.DashScope, "DASHSCOPE")
	setProvider(&cfg.Providers.SiliconFlow, "SILICONFLOW")
	setProvider(&cfg.Providers.DeepSeek, "DEEPSEEK")
	setProvider(&cfg.Providers.VolcEngine, "VOLCENGINE")

	setString(&cfg.Backend.Type, "DOLMETSCHER_BACKEND")
	for _, name := range hostedEnvEndpoints {
		prefix := strings.ToUpper(name)
		key, base := os.Getenv(prefix+"_API_KEY"), os.Getenv(prefix+"_API_BASE")
		if key == "" && base == "" {
			continue
		}
		if cfg.Backend.Endpoints == nil {
			cfg.Backend.Endpoints = make(map[string]EndpointConfig)
		}
		ep := cfg.Backend.Endpoints[name]
		if key != "" {
			ep.APIKey = key
		}
		if base != "" {
			ep.BaseURL = base
		}
		cfg.Backend.Endpoints[name] = ep
	}

	setString(&cfg.Backend.LiteLLM.BaseURL, "LITELLM_BASE_URL")
	setString(&cfg.Backend.LiteLLM.APIKey, "LITELLM_API_KEY")

	setString(&cfg.Models.File, "DOLMETSCHER_MODELS_FILE")

	setString(&cfg.Logging.Level, "LOG_LEVEL", "DOLMETSCHER_LOG_LEVEL")
	setString(&cfg.Logging.Format, "DOLMETSCHER_LOG_FORMAT")
	setString(&cfg.Logging.Debug, "DOLMETSCHER_DEBUG")

	setString(&cfg.Auth.Type, "DOLMETSCHER_AUTH_TYPE")

	// DOLMETSCHER_API_KEYS: JSON array of API key configs.
	if v := os.Getenv("DOLMETSCHER_API_KEYS"); v != "" {
		keys, err := parseAPIKeysJSON(v)
		if err != nil {
			return err
		}
		cfg.Auth.APIKeys = keys
	}
	return nil
}

// setString assigns the last non-empty variable of names, so later names win.
func setString(dst *string, names ...string) {
	for _, name := range names {
		if v := os.Getenv(name); v != "" {
			*dst = v
		}
	}
}

func setInt(dst *int, names ...string) error {
	for _, name := range names {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", name, v)
		}
		*dst = n
	}
	return nil
}

func setProvider(dst *ProviderCredentials, prefix string) {
	setString(&dst.APIKey, prefix+"_API_KEY")
	setString(&dst.APIBase, prefix+"_API_BASE")
}

// parseAPIKeysJSON parses a JSON array of API key configurations.
func parseAPIKeysJSON(jsonStr string) ([]APIKeyConfig, error) {
	var keys []APIKeyConfig
	if err := json.Unmarshal([]byte(jsonStr), &keys); err != nil {
		return nil, fmt.Errorf("parsing DOLMETSCHER_API_KEYS: %w", err)
	}
	return keys, nil
}

// resolveFileReferences reads _file fields and populates the corresponding value fields.
// For each field ending in _file, if the value field is empty and the file field is set,
// the file is read, whitespace is trimmed, and the value field is populated.
func resolveFileReferences(cfg *Config) error {
	providers := []struct {
		name  string
		creds *ProviderCredentials
	}{
		{"dashscope", &cfg.Providers.DashScope},
		{"siliconflow", &cfg.Providers.SiliconFlow},
		{"deepseek", &cfg.Providers.DeepSeek},
		{"volcengine", &cfg.Providers.VolcEngine},
	}
	for _, p := range providers {
		if err := resolveFile(&p.creds.APIKey, p.creds.APIKeyFile, "providers."+p.name+".api_key_file"); err != nil {
			return err
		}
	}

	for name, ep := range cfg.Backend.Endpoints {
		if err := resolveFile(&ep.APIKey, ep.APIKeyFile, "backend.endpoints."+name+".api_key_file"); err != nil {
			return err
		}
		cfg.Backend.Endpoints[name] = ep
	}

	if err := resolveFile(&cfg.Backend.LiteLLM.APIKey, cfg.Backend.LiteLLM.APIKeyFile, "backend.litellm.api_key_file"); err != nil {
		return err
	}

	if err := resolveFile(&cfg.Auth.JWT.Secret, cfg.Auth.JWT.SecretFile, "auth.jwt.secret_file"); err != nil {
		return err
	}

	// auth.api_keys[*].key_file -> auth.api_keys[*].key
	for i := range cfg.Auth.APIKeys {
		k := &cfg.Auth.APIKeys[i]
		if err := resolveFile(&k.Key, k.KeyFile, fmt.Sprintf("auth.api_keys[%d].key_file", i)); err != nil {
			return err
		}
	}

	return nil
}

// resolveFile fills *dst from path when *dst is empty and path is set.
func resolveFile(dst *string, path, field string) error {
	if path == "" || *dst != "" {
		return nil
	}
	val, err := readSecretFile(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	*dst = val
	return nil
}

// readSecretFile reads a file and returns its content with surrounding whitespace trimmed.
func readSecretFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}
