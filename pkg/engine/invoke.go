package engine

import (
	"context"
	"time"

	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/modelref"
	"github.com/rhuss/dolmetscher/pkg/observability"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// resolve parses the model name and records the resolution.
func (e *Engine) resolve(model string) modelref.Reference {
	ref := e.resolver.Resolve(model)

	creds := "ambient"
	if e.resolver.Configured(ref.Provider) {
		creds = "configured"
	}
	observability.ResolutionsTotal.WithLabelValues(ref.Provider.String(), creds).Inc()
	debug.Log("resolver", "resolved model",
		"model", ref.Raw,
		"provider", ref.Provider.String(),
		"backend_model", ref.BackendID,
		"credentials", creds,
	)
	return ref
}

// withCredentials adds the provider's configured api_key and api_base to
// opts. Keys the caller supplied are never overwritten.
func (e *Engine) withCredentials(ref modelref.Reference, opts map[string]any) map[string]any {
	creds := e.resolver.Credentials(ref.Provider)
	if creds.Empty() {
		return opts
	}
	defaults := make(map[string]any, 2)
	if creds.APIKey != "" {
		defaults[provider.OptionAPIKey] = creds.APIKey
	}
	if creds.APIBase != "" {
		defaults[provider.OptionAPIBase] = creds.APIBase
	}
	return provider.MergeMissing(opts, defaults)
}

func (e *Engine) providerRequest(ref modelref.Reference, creq canonicalRequest) *provider.Request {
	return &provider.Request{
		Model:    ref.BackendID,
		Messages: creq.Messages,
		Options:  e.withCredentials(ref, creq.Options),
		Stream:   creq.Stream,
	}
}

// complete performs one non-streaming backend call.
func (e *Engine) complete(ctx context.Context, ref modelref.Reference, creq canonicalRequest) (*provider.Completion, error) {
	provName := ref.Provider.String()
	start := time.Now()

	c, err := e.backend.Complete(ctx, e.providerRequest(ref, creq))
	duration := time.Since(start)
	observability.ProviderLatency.WithLabelValues(provName, ref.BackendID).Observe(duration.Seconds())

	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(provName, ref.BackendID, "error").Inc()
		return nil, err
	}

	observability.ProviderRequestsTotal.WithLabelValues(provName, ref.BackendID, "success").Inc()
	recordUsage(provName, ref.BackendID, c.Usage)
	return c, nil
}

// openStream starts a streaming backend call. Errors returned here
// happen before any output and are reported as HTTP errors.
func (e *Engine) openStream(ctx context.Context, ref modelref.Reference, creq canonicalRequest) (<-chan provider.Chunk, error) {
	if err := provider.CheckStreaming(e.backend.Capabilities(), e.backend.Name()); err != nil {
		return nil, err
	}
	ch, err := e.backend.Stream(ctx, e.providerRequest(ref, creq))
	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(ref.Provider.String(), ref.BackendID, "error").Inc()
		return nil, err
	}
	return ch, nil
}

// embedOne performs one single-text embedding call.
func (e *Engine) embedOne(ctx context.Context, ref modelref.Reference, text string, opts map[string]any) ([]float64, error) {
	provName := ref.Provider.String()
	start := time.Now()

	vec, err := e.backend.Embed(ctx, &provider.EmbedRequest{
		Model:   ref.BackendID,
		Input:   text,
		Options: e.withCredentials(ref, opts),
	})
	observability.ProviderLatency.WithLabelValues(provName, ref.BackendID).Observe(time.Since(start).Seconds())
	if err != nil {
		observability.ProviderRequestsTotal.WithLabelValues(provName, ref.BackendID, "error").Inc()
		return nil, err
	}
	observability.ProviderRequestsTotal.WithLabelValues(provName, ref.BackendID, "success").Inc()
	return vec, nil
}

func recordUsage(provName, model string, u *provider.Usage) {
	if u == nil {
		return
	}
	observability.ProviderTokensTotal.WithLabelValues(provName, model, "input").Add(float64(u.PromptTokens))
	observability.ProviderTokensTotal.WithLabelValues(provName, model, "output").Add(float64(u.CompletionTokens))
}
