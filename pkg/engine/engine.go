package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/modelref"
	"github.com/rhuss/dolmetscher/pkg/provider"
	"github.com/rhuss/dolmetscher/pkg/transport"
)

// Engine translates Ollama requests into backend calls and back. It
// implements transport.Handler.
type Engine struct {
	backend  provider.Provider
	resolver *modelref.Resolver
	cfg      Config
	now      func() time.Time
}

// Ensure Engine implements transport.Handler at compile time.
var _ transport.Handler = (*Engine)(nil)

// New creates a new Engine. The backend and resolver must not be nil.
func New(backend provider.Provider, resolver *modelref.Resolver, cfg Config) (*Engine, error) {
	if backend == nil {
		return nil, fmt.Errorf("engine: backend must not be nil")
	}
	if resolver == nil {
		return nil, fmt.Errorf("engine: resolver must not be nil")
	}
	return &Engine{
		backend:  backend,
		resolver: resolver,
		cfg:      cfg,
		now:      cfg.clock(),
	}, nil
}

// Handle processes one inference request.
func (e *Engine) Handle(ctx context.Context, req *transport.Request, w transport.ResponseWriter) error {
	switch req.Op {
	case transport.OpGenerate:
		return e.generate(ctx, req.Generate, w)
	case transport.OpChat:
		return e.chat(ctx, req.Chat, w)
	case transport.OpEmbeddings:
		return e.embeddings(ctx, req.Embeddings, w)
	case transport.OpEmbed:
		return e.embed(ctx, req.Embed, w)
	default:
		return api.NewInvalidRequestError(fmt.Sprintf("unsupported operation %q", req.Op))
	}
}

func (e *Engine) generate(ctx context.Context, req *api.GenerateRequest, w transport.ResponseWriter) error {
	ref := e.resolve(req.Model)
	creq := normalizeGenerate(req)

	if creq.Stream {
		return e.stream(ctx, ref, creq, streamGenerate, w)
	}

	start := e.now()
	c, err := e.complete(ctx, ref, creq)
	if err != nil {
		return err
	}
	return w.WriteResponse(ctx, e.encodeGenerate(ref.Raw, c, e.now().Sub(start)))
}

func (e *Engine) chat(ctx context.Context, req *api.ChatRequest, w transport.ResponseWriter) error {
	ref := e.resolve(req.Model)
	creq := normalizeGenerate(chatAsGenerate(req))

	if creq.Stream {
		return e.stream(ctx, ref, creq, streamChat, w)
	}

	start := e.now()
	c, err := e.complete(ctx, ref, creq)
	if err != nil {
		return err
	}
	return w.WriteResponse(ctx, e.encodeChat(ref.Raw, c, e.now().Sub(start)))
}

func (e *Engine) embeddings(ctx context.Context, req *api.EmbeddingsRequest, w transport.ResponseWriter) error {
	if err := provider.CheckEmbeddings(e.backend.Capabilities(), e.backend.Name()); err != nil {
		return err
	}
	ref := e.resolve(req.Model)

	vec, err := e.embedOne(ctx, ref, req.Prompt, embedOptions(req.Options))
	if err != nil {
		return err
	}
	return w.WriteResponse(ctx, &api.EmbeddingsResponse{Embedding: vec})
}

// embed serves /api/embed with one backend call per input, in order.
func (e *Engine) embed(ctx context.Context, req *api.EmbedRequest, w transport.ResponseWriter) error {
	if err := provider.CheckEmbeddings(e.backend.Capabilities(), e.backend.Name()); err != nil {
		return err
	}
	ref := e.resolve(req.Model)

	start := e.now()
	opts := embedOptions(req.Options)
	vectors := make([][]float64, 0, len(req.Input))
	for _, text := range req.Input {
		vec, err := e.embedOne(ctx, ref, text, opts)
		if err != nil {
			return err
		}
		vectors = append(vectors, vec)
	}

	return w.WriteResponse(ctx, &api.EmbedResponse{
		Model:         ref.Raw,
		Embeddings:    vectors,
		TotalDuration: e.now().Sub(start).Nanoseconds(),
	})
}

// embedOptions shapes the Ollama "options" object of an embedding request
// like the generate path does: runtime keys stay nested under "options" so
// the backend drops them, while api_key and api_base move to the top level
// where the credential merge and the backend expect them.
func embedOptions(opts map[string]any) map[string]any {
	if len(opts) == 0 {
		return nil
	}
	out := make(map[string]any, 1)
	runtime := make(map[string]any, len(opts))
	for k, v := range opts {
		switch k {
		case provider.OptionAPIKey, provider.OptionAPIBase:
			out[k] = v
		default:
			runtime[k] = v
		}
	}
	if len(runtime) > 0 {
		out["options"] = runtime
	}
	return out
}
