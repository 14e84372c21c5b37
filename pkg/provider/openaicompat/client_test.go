package openaicompat

import (
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/andybalholm/brotli"

	"github.com/rhuss/dolmetscher/pkg/provider"
)

func TestClient_Complete(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("expected path /v1/chat/completions, got %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("Authorization = %q, want %q", got, "Bearer sk-test")
		}

		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		if body["model"] != "gpt-4o" {
			t.Errorf("model = %v, want gpt-4o", body["model"])
		}
		if body["stream"] != false {
			t.Errorf("stream = %v, want false", body["stream"])
		}
		if body["temperature"] != 0.2 {
			t.Errorf("temperature = %v, want 0.2", body["temperature"])
		}
		if body["max_tokens"] != float64(64) {
			t.Errorf("max_tokens = %v, want 64", body["max_tokens"])
		}

		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"id":"c1","choices":[{"index":0,"message":{"role":"assistant","content":"Hi there"},"finish_reason":"stop"}],"usage":{"prompt_tokens":7,"completion_tokens":2,"total_tokens":9}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Name: "openai", BaseURL: srv.URL + "/v1/", APIKey: "sk-test"})
	defer c.Close()

	got, err := c.Complete(context.Background(), &provider.Request{
		Model:    "gpt-4o",
		Messages: []provider.Message{{Role: provider.RoleUser, Content: "Hello"}},
		Options: map[string]any{
			"temperature": 0.2,
			"options":     map[string]any{"num_predict": 64, "num_ctx": 4096},
		},
	})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Text != "Hi there" {
		t.Errorf("Text = %q, want %q", got.Text, "Hi there")
	}
	if got.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want %q", got.FinishReason, "stop")
	}
	if got.Usage == nil || got.Usage.PromptTokens != 7 || got.Usage.CompletionTokens != 2 {
		t.Errorf("Usage = %+v, want 7/2", got.Usage)
	}
}

func TestClient_Complete_NoUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"role":"assistant","content":null},"finish_reason":"content_filter"}]}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	got, err := c.Complete(context.Background(), &provider.Request{Model: "m"})
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if got.Text != "" {
		t.Errorf("Text = %q, want empty", got.Text)
	}
	if got.Usage != nil {
		t.Errorf("Usage = %+v, want nil", got.Usage)
	}
}

func TestClient_Complete_Compressed(t *testing.T) {
	payload := `{"choices":[{"message":{"role":"assistant","content":"packed"},"finish_reason":"stop"}]}`

	tests := []struct {
		name     string
		encoding string
		encode   func([]byte) []byte
	}{
		{"gzip", "gzip", func(b []byte) []byte {
			var buf bytes.Buffer
			zw := gzip.NewWriter(&buf)
			zw.Write(b)
			zw.Close()
			return buf.Bytes()
		}},
		{"brotli", "br", func(b []byte) []byte {
			var buf bytes.Buffer
			bw := brotli.NewWriter(&buf)
			bw.Write(b)
			bw.Close()
			return buf.Bytes()
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if got := r.Header.Get("Accept-Encoding"); got != acceptEncoding {
					t.Errorf("Accept-Encoding = %q, want %q", got, acceptEncoding)
				}
				w.Header().Set("Content-Encoding", tt.encoding)
				w.Write(tt.encode([]byte(payload)))
			}))
			defer srv.Close()

			c := NewClient(ClientConfig{BaseURL: srv.URL})
			got, err := c.Complete(context.Background(), &provider.Request{Model: "m"})
			if err != nil {
				t.Fatalf("Complete failed: %v", err)
			}
			if got.Text != "packed" {
				t.Errorf("Text = %q, want %q", got.Text, "packed")
			}
		})
	}
}

func TestClient_Complete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"Incorrect API key provided","type":"invalid_request_error"}}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{Name: "deepseek", BaseURL: srv.URL})
	_, err := c.Complete(context.Background(), &provider.Request{Model: "deepseek-chat"})

	var be *provider.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected *provider.BackendError, got %T: %v", err, err)
	}
	if be.Kind != provider.ErrorKindAuthentication {
		t.Errorf("Kind = %v, want %v", be.Kind, provider.ErrorKindAuthentication)
	}
	if be.Message != "Incorrect API key provided" {
		t.Errorf("Message = %q", be.Message)
	}
	if be.Provider != "deepseek" {
		t.Errorf("Provider = %q, want deepseek", be.Provider)
	}
}

func TestClient_Complete_ConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := NewClient(ClientConfig{BaseURL: url})
	_, err := c.Complete(context.Background(), &provider.Request{Model: "m"})

	var be *provider.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected *provider.BackendError, got %T", err)
	}
	if be.Kind != provider.ErrorKindConnection {
		t.Errorf("Kind = %v, want %v", be.Kind, provider.ErrorKindConnection)
	}
}

func TestClient_Stream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["stream"] != true {
			t.Errorf("stream = %v, want true", body["stream"])
		}
		so, _ := body["stream_options"].(map[string]any)
		if so["include_usage"] != true {
			t.Errorf("stream_options = %v, want include_usage", body["stream_options"])
		}

		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"role\":\"assistant\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"Hel\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"lo\"},\"finish_reason\":\"stop\"}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	ch, err := c.Stream(context.Background(), &provider.Request{Model: "m", Messages: []provider.Message{{Role: "user", Content: "hi"}}})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}

	chunks := collect(ch)
	if len(chunks) != 3 {
		t.Fatalf("expected 3 chunks, got %d: %+v", len(chunks), chunks)
	}
	if chunks[0].Delta != "Hel" || chunks[1].Delta != "lo" {
		t.Errorf("deltas = %q, %q", chunks[0].Delta, chunks[1].Delta)
	}
	last := chunks[2]
	if last.Type != provider.ChunkDone {
		t.Fatalf("last chunk type = %v, want ChunkDone", last.Type)
	}
	if last.FinishReason != "stop" {
		t.Errorf("FinishReason = %q, want stop", last.FinishReason)
	}
	if last.Usage == nil || last.Usage.PromptTokens != 3 || last.Usage.CompletionTokens != 2 {
		t.Errorf("Usage = %+v", last.Usage)
	}
}

func TestClient_Stream_HTTPErrorBeforeStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":"slow down"}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	ch, err := c.Stream(context.Background(), &provider.Request{Model: "m"})
	if ch != nil {
		t.Error("expected nil channel on pre-stream failure")
	}

	var be *provider.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("expected *provider.BackendError, got %T", err)
	}
	if be.Kind != provider.ErrorKindRateLimit {
		t.Errorf("Kind = %v, want %v", be.Kind, provider.ErrorKindRateLimit)
	}
	if be.Message != "slow down" {
		t.Errorf("Message = %q, want %q", be.Message, "slow down")
	}
}

func TestClient_Embed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		var body map[string]any
		json.NewDecoder(r.Body).Decode(&body)
		if body["input"] != "hello" {
			t.Errorf("input = %v, want hello", body["input"])
		}
		if body["dimensions"] != float64(3) {
			t.Errorf("dimensions = %v, want 3", body["dimensions"])
		}
		if _, ok := body["options"]; ok {
			t.Error("runtime options must not be forwarded to /embeddings")
		}
		fmt.Fprint(w, `{"data":[{"index":0,"embedding":[0.1,0.2,0.3]}]}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	got, err := c.Embed(context.Background(), &provider.EmbedRequest{
		Model:   "text-embedding-3-small",
		Input:   "hello",
		Options: map[string]any{"dimensions": 3, "options": map[string]any{"num_ctx": 1}},
	})
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(got) != 3 || got[2] != 0.3 {
		t.Errorf("embedding = %v", got)
	}
}

func TestClient_Embed_Empty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"data":[]}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL})
	if _, err := c.Embed(context.Background(), &provider.EmbedRequest{Model: "m", Input: "x"}); err == nil {
		t.Fatal("expected error for empty embedding data")
	}
}

func TestClient_Headers(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("X-Title"); got != "dolmetscher" {
			t.Errorf("X-Title = %q, want dolmetscher", got)
		}
		if got := r.Header.Get("Authorization"); got != "" {
			t.Errorf("Authorization = %q, want empty without key", got)
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, Headers: map[string]string{"X-Title": "dolmetscher"}})
	if _, err := c.Complete(context.Background(), &provider.Request{Model: "m"}); err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
}

func collect(ch <-chan provider.Chunk) []provider.Chunk {
	var out []provider.Chunk
	for c := range ch {
		out = append(out, c)
	}
	return out
}
