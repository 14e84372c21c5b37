package main

import (
	"fmt"
	"net/http"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/auth"
	"github.com/rhuss/dolmetscher/pkg/auth/apikey"
	"github.com/rhuss/dolmetscher/pkg/auth/jwt"
	"github.com/rhuss/dolmetscher/pkg/auth/noop"
	"github.com/rhuss/dolmetscher/pkg/config"
	"github.com/rhuss/dolmetscher/pkg/modelref"
	"github.com/rhuss/dolmetscher/pkg/provider"
	"github.com/rhuss/dolmetscher/pkg/provider/hosted"
	"github.com/rhuss/dolmetscher/pkg/provider/litellm"
	transporthttp "github.com/rhuss/dolmetscher/pkg/transport/http"
)

func buildResolver(cfg *config.Config) *modelref.Resolver {
	creds := func(p config.ProviderCredentials) modelref.Credentials {
		return modelref.Credentials{APIKey: p.APIKey, APIBase: p.APIBase}
	}
	return modelref.NewResolver(map[modelref.Provider]modelref.Credentials{
		modelref.ProviderDashScope:   creds(cfg.Providers.DashScope),
		modelref.ProviderSiliconFlow: creds(cfg.Providers.SiliconFlow),
		modelref.ProviderDeepSeek:    creds(cfg.Providers.DeepSeek),
		modelref.ProviderVolcEngine:  creds(cfg.Providers.VolcEngine),
	})
}

func buildBackend(cfg *config.Config) (provider.Provider, error) {
	switch cfg.Backend.Type {
	case "litellm":
		p, err := litellm.New(litellm.Config{
			BaseURL:      cfg.Backend.LiteLLM.BaseURL,
			APIKey:       cfg.Backend.LiteLLM.APIKey,
			Timeout:      cfg.Backend.Timeout,
			ModelMapping: cfg.Backend.LiteLLM.ModelMapping,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	case "hosted", "":
		endpoints := make(map[string]hosted.Endpoint, len(cfg.Backend.Endpoints))
		for name, ep := range cfg.Backend.Endpoints {
			endpoints[name] = hosted.Endpoint{
				Name:    name,
				BaseURL: ep.BaseURL,
				APIKey:  ep.APIKey,
				Headers: ep.Headers,
			}
		}
		p, err := hosted.New(hosted.Config{
			Endpoints: endpoints,
			Timeout:   cfg.Backend.Timeout,
		})
		if err != nil {
			return nil, err
		}
		return p, nil
	default:
		return nil, fmt.Errorf("unknown backend type %q", cfg.Backend.Type)
	}
}

// buildAuth returns the authentication middleware, or nil when requests
// are neither authenticated nor rate limited.
func buildAuth(cfg *config.Config) (func(http.Handler) http.Handler, error) {
	var limiter auth.RateLimiter
	rl := cfg.Auth.RateLimit
	if rl.RequestsPerMinute > 0 || len(rl.Tiers) > 0 {
		tiers := make(map[string]auth.TierConfig, len(rl.Tiers))
		for name, rpm := range rl.Tiers {
			tiers[name] = auth.TierConfig{RequestsPerMinute: rpm}
		}
		limiter = auth.NewInProcessLimiter(tiers, rl.RequestsPerMinute)
	}

	chain := &auth.AuthChain{DefaultDecision: auth.No}
	switch cfg.Auth.Type {
	case "none", "":
		if limiter == nil {
			return nil, nil
		}
		chain.Authenticators = []auth.Authenticator{&noop.Authenticator{}}
	case "apikey":
		entries := make([]apikey.RawKeyEntry, 0, len(cfg.Auth.APIKeys))
		for _, k := range cfg.Auth.APIKeys {
			entries = append(entries, apikey.RawKeyEntry{
				Key:      k.Key,
				Identity: auth.Identity{Subject: k.Subject, ServiceTier: k.ServiceTier},
			})
		}
		a, err := apikey.New(entries)
		if err != nil {
			return nil, fmt.Errorf("api keys: %w", err)
		}
		chain.Authenticators = []auth.Authenticator{a}
	case "jwt":
		a, err := jwt.New(jwt.Config{
			Issuer:    cfg.Auth.JWT.Issuer,
			Audience:  cfg.Auth.JWT.Audience,
			JWKSURL:   cfg.Auth.JWT.JWKSURL,
			Secret:    cfg.Auth.JWT.Secret,
			UserClaim: cfg.Auth.JWT.UserClaim,
			TierClaim: cfg.Auth.JWT.TierClaim,
		})
		if err != nil {
			return nil, err
		}
		chain.Authenticators = []auth.Authenticator{a}
	default:
		return nil, fmt.Errorf("unknown auth type %q", cfg.Auth.Type)
	}

	return auth.Middleware(chain, limiter, auth.DefaultBypassEndpoints), nil
}

func adapterConfig(cfg *config.Config) (transporthttp.Config, error) {
	format, err := transporthttp.ParseStreamFormat(cfg.Server.GenerateStreamFormat)
	if err != nil {
		return transporthttp.Config{}, err
	}
	ac := transporthttp.DefaultConfig()
	ac.MaxBodySize = cfg.Server.MaxBodySize
	ac.GenerateStreamFormat = format
	ac.Version = version
	ac.Metrics = cfg.Observability.Metrics.Enabled
	ac.Validation = api.ValidationConfig{
		MaxMessages:    cfg.Server.MaxMessages,
		MaxEmbedInputs: cfg.Server.MaxEmbedInputs,
	}
	return ac, nil
}
