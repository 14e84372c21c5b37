package openaicompat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// DefaultTimeout applies to non-streaming calls when ClientConfig.Timeout
// is zero.
const DefaultTimeout = 120 * time.Second

// ClientConfig configures a Client.
type ClientConfig struct {
	// Name identifies the backend in errors, logs and metrics.
	Name string

	// BaseURL is the API root, e.g. "https://api.openai.com/v1". The
	// /chat/completions and /embeddings paths are appended to it.
	BaseURL string

	// APIKey is sent as a Bearer token when non-empty.
	APIKey string

	// Timeout bounds non-streaming requests. Streams are bounded by the
	// request context only.
	Timeout time.Duration

	// HTTPClient is shared between clients when set. Its own Timeout is
	// ignored; Timeout above is applied per request.
	HTTPClient *http.Client

	// Headers are added to every request.
	Headers map[string]string
}

// Client performs HTTP requests against an OpenAI-compatible Chat
// Completions backend. Backend packages build one per call, or share a
// long-lived one, and delegate Complete/Stream/Embed to it.
type Client struct {
	name       string
	baseURL    string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
	headers    map[string]string
}

// NewClient creates a new Client for an OpenAI-compatible backend.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = DefaultTimeout
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	name := cfg.Name
	if name == "" {
		name = "openai"
	}
	return &Client{
		name:       name,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		timeout:    timeout,
		httpClient: hc,
		headers:    cfg.Headers,
	}
}

// Name returns the backend name used in errors.
func (c *Client) Name() string { return c.name }

// BaseURL returns the normalized API root.
func (c *Client) BaseURL() string { return c.baseURL }

// Complete performs non-streaming inference against /chat/completions.
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Completion, error) {
	reqCopy := *req
	reqCopy.Stream = false

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpResp, err := c.post(ctx, "/chat/completions", TranslateRequest(&reqCopy), false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := decodedBody(httpResp)
	if err != nil {
		return nil, provider.NewBackendError(provider.ErrorKindAPI, c.name, httpResp.StatusCode, err.Error())
	}
	defer body.Close()

	data, err := io.ReadAll(body)
	if err != nil {
		return nil, MapNetworkError(err, c.name)
	}
	c.dumpResponse(httpResp, data)

	var chatResp ChatCompletionResponse
	if err := json.Unmarshal(data, &chatResp); err != nil {
		return nil, provider.NewBackendError(provider.ErrorKindAPI, c.name, httpResp.StatusCode,
			fmt.Sprintf("failed to parse backend response: %s", err.Error()))
	}

	return TranslateResponse(&chatResp, c.name)
}

// Stream performs streaming inference against /chat/completions. The
// returned channel is closed when the stream completes, fails, or ctx is
// cancelled.
//
// The per-request timeout is not applied because a stream can legitimately
// last longer than any fixed timeout. Lifecycle control relies on context
// cancellation instead.
func (c *Client) Stream(ctx context.Context, req *provider.Request) (<-chan provider.Chunk, error) {
	reqCopy := *req
	reqCopy.Stream = true

	httpResp, err := c.post(ctx, "/chat/completions", TranslateRequest(&reqCopy), true)
	if err != nil {
		return nil, err
	}

	body, err := decodedBody(httpResp)
	if err != nil {
		httpResp.Body.Close()
		return nil, provider.NewBackendError(provider.ErrorKindAPI, c.name, httpResp.StatusCode, err.Error())
	}

	ch := make(chan provider.Chunk, 16)
	go func() {
		defer close(ch)
		defer body.Close()
		ParseSSEStream(ctx, body, ch, c.name)
	}()

	return ch, nil
}

// Embed requests a single embedding vector from /embeddings.
func (c *Client) Embed(ctx context.Context, req *provider.EmbedRequest) ([]float64, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	httpResp, err := c.post(ctx, "/embeddings", TranslateEmbedRequest(req), false)
	if err != nil {
		return nil, err
	}
	defer httpResp.Body.Close()

	body, err := decodedBody(httpResp)
	if err != nil {
		return nil, provider.NewBackendError(provider.ErrorKindAPI, c.name, httpResp.StatusCode, err.Error())
	}
	defer body.Close()

	var embResp EmbeddingResponse
	if err := json.NewDecoder(body).Decode(&embResp); err != nil {
		return nil, provider.NewBackendError(provider.ErrorKindAPI, c.name, httpResp.StatusCode,
			fmt.Sprintf("failed to parse embedding response: %s", err.Error()))
	}
	if len(embResp.Data) == 0 {
		return nil, provider.NewBackendError(provider.ErrorKindAPI, c.name, 0, "backend returned no embeddings")
	}

	return embResp.Data[0].Embedding, nil
}

// Close releases idle connections of the underlying HTTP client.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

// post sends payload as JSON and returns the response if its status is
// 2xx. Non-2xx responses are mapped to a BackendError and closed.
func (c *Client) post(ctx context.Context, path string, payload any, stream bool) (*http.Response, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, provider.NewBackendError(provider.ErrorKindBadRequest, c.name, 0,
			fmt.Sprintf("failed to marshal request: %s", err.Error()))
	}

	url := c.baseURL + path
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return nil, provider.NewBackendError(provider.ErrorKindConnection, c.name, 0,
			fmt.Sprintf("failed to create HTTP request: %s", err.Error()))
	}

	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Encoding", acceptEncoding)
	if stream {
		httpReq.Header.Set("Accept", "text/event-stream")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	for k, v := range c.headers {
		httpReq.Header.Set(k, v)
	}

	debug.Log("providers", "backend request", "provider", c.name, "method", http.MethodPost, "url", url, "stream", stream)
	if debug.TraceIsEnabled("providers") {
		debug.Raw("providers", fmt.Sprintf(">>> POST %s\n%s", url, string(data)))
	}

	start := time.Now()
	httpResp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, MapNetworkError(err, c.name)
	}

	debug.Log("providers", "backend response",
		"provider", c.name,
		"status", httpResp.StatusCode,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if httpResp.StatusCode < 200 || httpResp.StatusCode >= 300 {
		defer httpResp.Body.Close()
		return nil, MapHTTPError(httpResp, c.name)
	}
	return httpResp, nil
}

func (c *Client) dumpResponse(resp *http.Response, body []byte) {
	if !debug.TraceIsEnabled("providers") {
		return
	}
	debug.Raw("providers", fmt.Sprintf("<<< %d %s\n%s", resp.StatusCode, c.baseURL, string(body)))
}
