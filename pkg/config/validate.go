package config

import (
	"errors"
	"fmt"
)

// Validate checks the configuration for required fields and valid values.
// All problems are reported together, each with its field path.
func (c *Config) Validate() error {
	var errs []error

	// server.port must be a valid TCP port.
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be in 1..65535, got %d", c.Server.Port))
	}
	if c.Server.MaxBodySize <= 0 {
		errs = append(errs, fmt.Errorf("server.max_body_size must be > 0, got %d", c.Server.MaxBodySize))
	}

	switch c.Server.GenerateStreamFormat {
	case "lines", "sse":
		// valid
	default:
		errs = append(errs, fmt.Errorf("server.generate_stream_format must be \"lines\" or \"sse\", got %q", c.Server.GenerateStreamFormat))
	}

	// backend.type must be a known value.
	switch c.Backend.Type {
	case "hosted":
		if _, ok := c.Backend.Endpoints[""]; ok {
			errs = append(errs, fmt.Errorf("backend.endpoints: endpoint name must not be empty"))
		}
	case "litellm":
		if c.Backend.LiteLLM.BaseURL == "" {
			errs = append(errs, fmt.Errorf("backend.litellm.base_url is required when backend.type is \"litellm\""))
		}
	default:
		errs = append(errs, fmt.Errorf("backend.type must be \"hosted\" or \"litellm\", got %q", c.Backend.Type))
	}
	if c.Backend.Timeout < 0 {
		errs = append(errs, fmt.Errorf("backend.timeout must not be negative"))
	}

	// auth.type must be a known value.
	switch c.Auth.Type {
	case "none":
		// valid
	case "apikey":
		if len(c.Auth.APIKeys) == 0 {
			errs = append(errs, fmt.Errorf("auth.api_keys must not be empty when auth.type is \"apikey\""))
		}
		for i, k := range c.Auth.APIKeys {
			if k.Key == "" && k.KeyFile == "" {
				errs = append(errs, fmt.Errorf("auth.api_keys[%d]: key or key_file is required", i))
			}
		}
	case "jwt":
		if c.Auth.JWT.Secret == "" && c.Auth.JWT.JWKSURL == "" {
			errs = append(errs, fmt.Errorf("auth.jwt.secret or auth.jwt.jwks_url is required when auth.type is \"jwt\""))
		}
	default:
		errs = append(errs, fmt.Errorf("auth.type must be \"none\", \"apikey\", or \"jwt\", got %q", c.Auth.Type))
	}
	if c.Auth.RateLimit.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Errorf("auth.rate_limit.requests_per_minute must not be negative"))
	}

	switch c.Logging.Level {
	case "trace", "debug", "info", "warn", "warning", "error":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of trace, debug, info, warn, error, got %q", c.Logging.Level))
	}
	switch c.Logging.Format {
	case "text", "json":
		// valid
	default:
		errs = append(errs, fmt.Errorf("logging.format must be \"text\" or \"json\", got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}
