package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/transport"
)

// StreamFormat selects how stream frames are framed on the wire.
type StreamFormat string

const (
	// FormatNDJSON writes one JSON object per line with an
	// application/x-ndjson content type. Used by /api/chat.
	FormatNDJSON StreamFormat = "ndjson"

	// FormatLines writes one JSON object per line but announces
	// text/event-stream, as Ollama clients expect from /api/generate.
	FormatLines StreamFormat = "lines"

	// FormatSSE writes proper server-sent events ("data: {json}\n\n").
	FormatSSE StreamFormat = "sse"
)

// ParseStreamFormat validates a configured generate stream format.
func ParseStreamFormat(s string) (StreamFormat, error) {
	switch StreamFormat(s) {
	case "":
		return FormatLines, nil
	case FormatLines, FormatSSE, FormatNDJSON:
		return StreamFormat(s), nil
	}
	return "", fmt.Errorf("unknown stream format %q (want lines, sse or ndjson)", s)
}

func (f StreamFormat) contentType() string {
	if f == FormatNDJSON {
		return "application/x-ndjson"
	}
	return "text/event-stream"
}

// writerState tracks the state of a frameWriter.
type writerState int

const (
	writerIdle      writerState = iota // Initial state, no writes yet
	writerStreaming                    // WriteFrame has been called at least once
	writerCompleted                    // Terminal frame sent or WriteResponse called
)

// frameWriter implements transport.ResponseWriter for HTTP responses.
// It handles both streaming (line framed) and non-streaming (JSON) output.
type frameWriter struct {
	w      http.ResponseWriter
	rc     *http.ResponseController
	format StreamFormat

	mu      sync.Mutex
	state   writerState
	started bool
}

var _ transport.ResponseWriter = (*frameWriter)(nil)

func newFrameWriter(w http.ResponseWriter, format StreamFormat) *frameWriter {
	return &frameWriter{
		w:      w,
		rc:     http.NewResponseController(w),
		format: format,
	}
}

// WriteFrame sends one stream frame and flushes it. The first frame
// commits the streaming headers with status 200. A frame with done=true
// completes the writer.
func (fw *frameWriter) WriteFrame(ctx context.Context, frame any) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.state == writerCompleted {
		return errors.New("cannot write frame: writer is completed")
	}

	data, err := json.Marshal(frame)
	if err != nil {
		return fmt.Errorf("failed to marshal frame: %w", err)
	}

	if fw.state == writerIdle {
		h := fw.w.Header()
		h.Set("Content-Type", fw.format.contentType())
		h.Set("Cache-Control", "no-cache")
		h.Set("Connection", "keep-alive")
		h.Set("X-Accel-Buffering", "no")
		fw.w.WriteHeader(http.StatusOK)
		fw.state = writerStreaming
		fw.started = true
	}

	if fw.format == FormatSSE {
		_, err = fmt.Fprintf(fw.w, "data: %s\n\n", data)
	} else {
		_, err = fmt.Fprintf(fw.w, "%s\n", data)
	}
	if err != nil {
		return fmt.Errorf("failed to write frame: %w", err)
	}

	if err := fw.rc.Flush(); err != nil {
		return fmt.Errorf("failed to flush: %w", err)
	}

	if isTerminal(frame) {
		fw.state = writerCompleted
	}
	return nil
}

// WriteResponse sends a complete non-streaming JSON response. It is
// mutually exclusive with WriteFrame.
func (fw *frameWriter) WriteResponse(ctx context.Context, resp any) error {
	fw.mu.Lock()
	defer fw.mu.Unlock()

	if fw.state == writerStreaming {
		return errors.New("cannot write response: streaming has already started")
	}
	if fw.state == writerCompleted {
		return errors.New("cannot write response: writer is completed")
	}

	fw.w.Header().Set("Content-Type", "application/json")
	fw.state = writerCompleted
	fw.started = true

	if err := json.NewEncoder(fw.w).Encode(resp); err != nil {
		return fmt.Errorf("failed to encode response: %w", err)
	}
	return nil
}

// Flush ensures buffered data is sent to the client.
func (fw *frameWriter) Flush() error {
	return fw.rc.Flush()
}

// hasStarted reports whether any byte of the response was committed.
// After that point errors can no longer change the status code.
func (fw *frameWriter) hasStarted() bool {
	fw.mu.Lock()
	defer fw.mu.Unlock()
	return fw.started
}

func isTerminal(frame any) bool {
	switch f := frame.(type) {
	case *api.StreamFrame:
		return f.Done
	case *api.ErrorFrame:
		return f.Done
	}
	return false
}
