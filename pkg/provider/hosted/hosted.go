package hosted

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/provider"
	"github.com/rhuss/dolmetscher/pkg/provider/openaicompat"
)

// Config configures the hosted dispatcher.
type Config struct {
	// Endpoints overrides or extends DefaultEndpoints by name. Empty
	// fields keep the default value.
	Endpoints map[string]Endpoint

	// Timeout bounds non-streaming calls. Defaults to 120s.
	Timeout time.Duration

	// HTTPClient is shared by all endpoint clients. Defaults to a new
	// client with the default transport.
	HTTPClient *http.Client
}

// Route is the outcome of routing a backend model id.
type Route struct {
	Endpoint Endpoint
	Model    string
}

// Provider dispatches requests to hosted OpenAI-compatible endpoints by
// model id prefix.
type Provider struct {
	endpoints  map[string]Endpoint
	timeout    time.Duration
	httpClient *http.Client
}

// Ensure Provider implements provider.Provider at compile time.
var _ provider.Provider = (*Provider)(nil)

// New creates a hosted dispatcher. It returns an error when an endpoint
// ends up without a base URL.
func New(cfg Config) (*Provider, error) {
	endpoints := DefaultEndpoints()
	for name, ep := range cfg.Endpoints {
		merged := endpoints[name]
		merged.Name = name
		if ep.BaseURL != "" {
			merged.BaseURL = ep.BaseURL
		}
		if ep.APIKey != "" {
			merged.APIKey = ep.APIKey
		}
		if len(ep.Headers) > 0 {
			merged.Headers = ep.Headers
		}
		if merged.BaseURL == "" {
			return nil, fmt.Errorf("hosted: endpoint %q has no base_url", name)
		}
		endpoints[name] = merged
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = openaicompat.DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}

	return &Provider{endpoints: endpoints, timeout: timeout, httpClient: hc}, nil
}

// Name returns the provider identifier.
func (p *Provider) Name() string { return "hosted" }

// Capabilities returns what this provider supports.
func (p *Provider) Capabilities() provider.Capabilities {
	return provider.Capabilities{Streaming: true, Embeddings: true}
}

// Route resolves a backend model id to its endpoint and upstream model
// name. It fails with a bad-request BackendError for an unknown prefix.
func (p *Provider) Route(id string) (Route, error) {
	name, model := splitModel(id)
	if name == "" {
		name = defaultEndpointFor(model)
	}
	ep, ok := p.endpoints[name]
	if !ok {
		return Route{}, provider.NewBackendError(provider.ErrorKindBadRequest, p.Name(), 0,
			fmt.Sprintf("LLM Provider NOT provided. You passed model=%s; prefix the model with one of the configured endpoints, e.g. openai/%s", id, model))
	}
	return Route{Endpoint: ep, Model: model}, nil
}

// Endpoints returns a copy of the endpoint table.
func (p *Provider) Endpoints() map[string]Endpoint {
	out := make(map[string]Endpoint, len(p.endpoints))
	for k, v := range p.endpoints {
		out[k] = v
	}
	return out
}

// Complete performs a non-streaming completion on the routed endpoint.
func (p *Provider) Complete(ctx context.Context, req *provider.Request) (*provider.Completion, error) {
	client, upstream, err := p.prepare(req.Model, req.Options)
	if err != nil {
		return nil, err
	}
	return client.Complete(ctx, upstream.request(req))
}

// Stream performs a streaming completion on the routed endpoint.
func (p *Provider) Stream(ctx context.Context, req *provider.Request) (<-chan provider.Chunk, error) {
	client, upstream, err := p.prepare(req.Model, req.Options)
	if err != nil {
		return nil, err
	}
	return client.Stream(ctx, upstream.request(req))
}

// Embed requests one embedding vector from the routed endpoint.
func (p *Provider) Embed(ctx context.Context, req *provider.EmbedRequest) ([]float64, error) {
	client, upstream, err := p.prepare(req.Model, req.Options)
	if err != nil {
		return nil, err
	}
	return client.Embed(ctx, &provider.EmbedRequest{
		Model:   upstream.model,
		Input:   req.Input,
		Options: upstream.options,
	})
}

// Close releases idle connections of the shared HTTP client.
func (p *Provider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

type upstreamCall struct {
	model   string
	options map[string]any
}

func (u upstreamCall) request(req *provider.Request) *provider.Request {
	return &provider.Request{
		Model:    u.model,
		Messages: req.Messages,
		Options:  u.options,
		Stream:   req.Stream,
	}
}

// prepare routes the model id and builds a client for the endpoint,
// applying per-request credential options on top of the endpoint defaults.
// Clients share p.httpClient and are not closed individually.
func (p *Provider) prepare(id string, opts map[string]any) (*openaicompat.Client, upstreamCall, error) {
	route, err := p.Route(id)
	if err != nil {
		return nil, upstreamCall{}, err
	}

	apiKey, apiBase, rest := provider.TakeCredentials(opts)
	if apiKey == "" {
		apiKey = route.Endpoint.APIKey
	}
	if apiBase == "" {
		apiBase = route.Endpoint.BaseURL
	}

	debug.Log("providers", "routed model",
		"model", id,
		"endpoint", route.Endpoint.Name,
		"upstream_model", route.Model,
		"api_base", apiBase,
		"has_key", apiKey != "",
	)

	client := openaicompat.NewClient(openaicompat.ClientConfig{
		Name:       route.Endpoint.Name,
		BaseURL:    apiBase,
		APIKey:     apiKey,
		Timeout:    p.timeout,
		HTTPClient: p.httpClient,
		Headers:    route.Endpoint.Headers,
	})
	return client, upstreamCall{model: route.Model, options: rest}, nil
}
