package litellm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rhuss/dolmetscher/pkg/provider"
	"github.com/rhuss/dolmetscher/pkg/provider/openaicompat"
)

// LiteLLMProvider implements provider.Provider for LiteLLM proxy servers.
type LiteLLMProvider struct {
	cfg    Config
	client *openaicompat.Client
	caps   provider.Capabilities
}

// Ensure LiteLLMProvider implements provider.Provider at compile time.
var _ provider.Provider = (*LiteLLMProvider)(nil)

// New creates a new LiteLLMProvider with the given configuration.
// Returns an error if the configuration is invalid.
func New(cfg Config) (*LiteLLMProvider, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("litellm: BaseURL is required")
	}

	// Apply default timeout if not set.
	if cfg.Timeout == 0 {
		cfg.Timeout = 120 * time.Second
	}

	base := strings.TrimRight(cfg.BaseURL, "/")
	if !strings.HasSuffix(base, "/v1") {
		base += "/v1"
	}

	client := openaicompat.NewClient(openaicompat.ClientConfig{
		Name:    "litellm",
		BaseURL: base,
		APIKey:  cfg.APIKey,
		Timeout: cfg.Timeout,
	})

	return &LiteLLMProvider{
		cfg:    cfg,
		client: client,
		caps: provider.Capabilities{
			Streaming:  true,
			Embeddings: true,
		},
	}, nil
}

// Name returns the provider identifier.
func (p *LiteLLMProvider) Name() string {
	return "litellm"
}

// Capabilities returns what this provider supports.
func (p *LiteLLMProvider) Capabilities() provider.Capabilities {
	return p.caps
}

// Complete performs non-streaming inference through the proxy.
func (p *LiteLLMProvider) Complete(ctx context.Context, req *provider.Request) (*provider.Completion, error) {
	return p.client.Complete(ctx, p.mapped(req))
}

// Stream performs streaming inference through the proxy. The channel is
// closed when the stream completes, errors, or the context is cancelled.
func (p *LiteLLMProvider) Stream(ctx context.Context, req *provider.Request) (<-chan provider.Chunk, error) {
	return p.client.Stream(ctx, p.mapped(req))
}

// Embed requests one embedding vector through the proxy.
func (p *LiteLLMProvider) Embed(ctx context.Context, req *provider.EmbedRequest) ([]float64, error) {
	reqCopy := *req
	reqCopy.Model = p.mapModel(req.Model)
	return p.client.Embed(ctx, &reqCopy)
}

// Close releases provider resources.
func (p *LiteLLMProvider) Close() error {
	return p.client.Close()
}

func (p *LiteLLMProvider) mapped(req *provider.Request) *provider.Request {
	reqCopy := *req
	reqCopy.Model = p.mapModel(req.Model)
	return &reqCopy
}

func (p *LiteLLMProvider) mapModel(model string) string {
	if mapped, ok := p.cfg.ModelMapping[model]; ok {
		return mapped
	}
	return model
}
