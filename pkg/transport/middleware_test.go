package transport

import (
	"bytes"
	"context"
	"log/slog"
	"net/http"
	"strings"
	"testing"

	"github.com/rhuss/dolmetscher/pkg/api"
)

// recordingWriter is a minimal ResponseWriter for testing middleware.
type recordingWriter struct {
	frames   []any
	response any
	flushed  bool
}

func (w *recordingWriter) WriteFrame(_ context.Context, frame any) error {
	w.frames = append(w.frames, frame)
	return nil
}

func (w *recordingWriter) WriteResponse(_ context.Context, resp any) error {
	w.response = resp
	return nil
}

func (w *recordingWriter) Flush() error {
	w.flushed = true
	return nil
}

func generateRequest(model string, stream bool) *Request {
	return &Request{Op: OpGenerate, Generate: &api.GenerateRequest{Model: model, Prompt: "hi", Stream: stream}}
}

func TestChainAppliesMiddlewareInOrder(t *testing.T) {
	var order []string

	mw := func(name string) Middleware {
		return func(next Handler) Handler {
			return HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
				order = append(order, name+":before")
				err := next.Handle(ctx, req, w)
				order = append(order, name+":after")
				return err
			})
		}
	}

	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		order = append(order, "handler")
		return nil
	})

	chain := Chain(mw("first"), mw("second"), mw("third"))
	wrapped := chain(handler)

	wrapped.Handle(context.Background(), generateRequest("m", false), &recordingWriter{})

	expected := []string{
		"first:before", "second:before", "third:before",
		"handler",
		"third:after", "second:after", "first:after",
	}

	if len(order) != len(expected) {
		t.Fatalf("execution order length = %d, want %d: %v", len(order), len(expected), order)
	}
	for i, got := range order {
		if got != expected[i] {
			t.Errorf("order[%d] = %q, want %q", i, got, expected[i])
		}
	}
}

func TestRecoveryCatchesPanic(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		panic("test panic")
	})

	wrapped := Recovery()(handler)
	err := wrapped.Handle(context.Background(), generateRequest("m", false), &recordingWriter{})

	if err == nil {
		t.Fatal("expected error after panic, got nil")
	}

	apiErr, ok := err.(*api.APIError)
	if !ok {
		t.Fatalf("expected *api.APIError, got %T: %v", err, err)
	}
	if apiErr.Status != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", apiErr.Status)
	}
	if apiErr.Label != api.LabelInternal {
		t.Errorf("label = %q, want %q", apiErr.Label, api.LabelInternal)
	}
	if !strings.Contains(apiErr.Details, "test panic") {
		t.Errorf("details = %q, should contain %q", apiErr.Details, "test panic")
	}
}

func TestRecoveryPassesThroughNormalExecution(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		return nil
	})

	wrapped := Recovery()(handler)
	if err := wrapped.Handle(context.Background(), generateRequest("m", false), &recordingWriter{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestRequestIDGeneratesNewID(t *testing.T) {
	var capturedID string

	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		capturedID = RequestIDFromContext(ctx)
		return nil
	})

	wrapped := RequestID()(handler)
	wrapped.Handle(context.Background(), generateRequest("m", false), &recordingWriter{})

	if capturedID == "" {
		t.Error("expected a generated request ID, got empty string")
	}
	if len(capturedID) != 32 { // 16 bytes = 32 hex chars
		t.Errorf("request ID length = %d, want 32 (hex encoded)", len(capturedID))
	}
}

func TestRequestIDPropagatesExisting(t *testing.T) {
	var capturedID string

	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		capturedID = RequestIDFromContext(ctx)
		return nil
	})

	ctx := ContextWithRequestID(context.Background(), "existing-id-123")
	wrapped := RequestID()(handler)
	wrapped.Handle(ctx, generateRequest("m", false), &recordingWriter{})

	if capturedID != "existing-id-123" {
		t.Errorf("request ID = %q, want %q", capturedID, "existing-id-123")
	}
}

func TestRequestIDUniqueness(t *testing.T) {
	ids := make(map[string]bool)
	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		ids[RequestIDFromContext(ctx)] = true
		return nil
	})

	wrapped := RequestID()(handler)
	for i := 0; i < 100; i++ {
		wrapped.Handle(context.Background(), generateRequest("m", false), &recordingWriter{})
	}

	if len(ids) != 100 {
		t.Errorf("expected 100 unique IDs, got %d", len(ids))
	}
}

func TestLoggingEmitsFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		return nil
	})

	ctx := ContextWithRequestID(context.Background(), "req-log-test")
	wrapped := Logging(logger)(handler)
	wrapped.Handle(ctx, generateRequest("deepseek/deepseek-chat", true), &recordingWriter{})

	output := buf.String()
	for _, expected := range []string{"request_id=req-log-test", "op=generate", "model=deepseek/deepseek-chat", "stream=true", "request completed"} {
		if !strings.Contains(output, expected) {
			t.Errorf("log output missing %q in:\n%s", expected, output)
		}
	}
}

func TestLoggingEmitsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo}))

	handler := HandlerFunc(func(ctx context.Context, req *Request, w ResponseWriter) error {
		return api.NewServerError("test failure")
	})

	wrapped := Logging(logger)(handler)
	req := &Request{Op: OpEmbed, Embed: &api.EmbedRequest{Model: "emb", Input: api.EmbedInput{"a"}}}
	wrapped.Handle(context.Background(), req, &recordingWriter{})

	output := buf.String()
	if !strings.Contains(output, "request failed") {
		t.Errorf("log output missing 'request failed' in:\n%s", output)
	}
	if !strings.Contains(output, "test failure") {
		t.Errorf("log output missing error message in:\n%s", output)
	}
	if !strings.Contains(output, "op=embed") {
		t.Errorf("log output missing op in:\n%s", output)
	}
}
