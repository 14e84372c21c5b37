package transport

import (
	"context"

	"github.com/rhuss/dolmetscher/pkg/api"
)

// Operation identifies one of the inference endpoints.
type Operation string

const (
	OpGenerate   Operation = "generate"
	OpChat       Operation = "chat"
	OpEmbeddings Operation = "embeddings"
	OpEmbed      Operation = "embed"
)

// Request is a decoded and validated inference request. Exactly one of the
// payload fields is set, matching Op.
type Request struct {
	Op         Operation
	Generate   *api.GenerateRequest
	Chat       *api.ChatRequest
	Embeddings *api.EmbeddingsRequest
	Embed      *api.EmbedRequest
}

// Model returns the caller-supplied model name.
func (r *Request) Model() string {
	switch r.Op {
	case OpGenerate:
		return r.Generate.Model
	case OpChat:
		return r.Chat.Model
	case OpEmbeddings:
		return r.Embeddings.Model
	case OpEmbed:
		return r.Embed.Model
	}
	return ""
}

// Stream reports whether the caller asked for a streamed response.
func (r *Request) Stream() bool {
	switch r.Op {
	case OpGenerate:
		return r.Generate.Stream
	case OpChat:
		return r.Chat.Stream
	}
	return false
}

// Handler processes inference requests. The implementation writes the
// result (frames or a complete response) to the ResponseWriter.
//
// An error returned before anything was written is sent to the client as
// a classified error response. Once a frame has been written the handler
// reports failures in-band and the returned error is only logged.
type Handler interface {
	Handle(ctx context.Context, req *Request, w ResponseWriter) error
}

// HandlerFunc is an adapter that allows using an ordinary function as a
// Handler.
type HandlerFunc func(ctx context.Context, req *Request, w ResponseWriter) error

// Handle calls f(ctx, req, w).
func (f HandlerFunc) Handle(ctx context.Context, req *Request, w ResponseWriter) error {
	return f(ctx, req, w)
}

// Catalog serves the model listing endpoints.
type Catalog interface {
	Tags(ctx context.Context) (*api.TagsResponse, error)
	Running(ctx context.Context) (*api.ProcessResponse, error)
}

// ResponseWriter abstracts streaming and non-streaming output for the
// handler. The transport layer creates one per request.
//
// WriteFrame and WriteResponse are mutually exclusive on a single writer
// instance. Calling one after the other returns an error, as does calling
// WriteFrame after a frame with done=true.
type ResponseWriter interface {
	// WriteFrame sends a single stream frame (api.StreamFrame or
	// api.ErrorFrame). The first call commits the response headers.
	WriteFrame(ctx context.Context, frame any) error

	// WriteResponse sends a complete non-streaming response object.
	WriteResponse(ctx context.Context, resp any) error

	// Flush ensures buffered data is sent to the client. Returns an error
	// if the client has disconnected.
	Flush() error
}
