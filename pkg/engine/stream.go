package engine

import (
	"context"
	"time"

	"github.com/rhuss/dolmetscher/pkg/api"
	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/modelref"
	"github.com/rhuss/dolmetscher/pkg/observability"
	"github.com/rhuss/dolmetscher/pkg/provider"
	"github.com/rhuss/dolmetscher/pkg/transport"
)

// streamKind selects the frame shape. Both kinds share the chunk loop.
type streamKind int

const (
	streamChat streamKind = iota
	streamGenerate
)

// stream opens a backend stream and re-encodes it as frames. A failure to
// open the stream is returned before anything is written. After that,
// every outcome ends with exactly one frame carrying done=true: the
// terminal frame, or an error frame when the backend fails mid-stream.
func (e *Engine) stream(ctx context.Context, ref modelref.Reference, creq canonicalRequest, kind streamKind, w transport.ResponseWriter) error {
	start := e.now()
	provName := ref.Provider.String()

	ch, err := e.openStream(ctx, ref, creq)
	if err != nil {
		return err
	}
	observability.StreamingConnections.Inc()
	defer observability.StreamingConnections.Dec()

	deltas := 0
	for {
		var chunk provider.Chunk
		var ok bool
		select {
		case <-ctx.Done():
			// Caller went away. Nothing more can be written.
			debug.Log("streaming", "stream cancelled", "model", ref.Raw, "deltas", deltas)
			return ctx.Err()
		case chunk, ok = <-ch:
		}

		if !ok {
			// Channel closed without a done chunk: end the stream normally.
			chunk = provider.Chunk{Type: provider.ChunkDone}
		}

		switch chunk.Type {
		case provider.ChunkDelta:
			if chunk.Delta == "" {
				continue
			}
			deltas++
			if err := w.WriteFrame(ctx, e.deltaFrame(ref.Raw, chunk.Delta, kind)); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}

		case provider.ChunkDone:
			elapsed := e.now().Sub(start)
			observability.ProviderRequestsTotal.WithLabelValues(provName, ref.BackendID, "success").Inc()
			observability.ProviderLatency.WithLabelValues(provName, ref.BackendID).Observe(elapsed.Seconds())
			recordUsage(provName, ref.BackendID, chunk.Usage)

			if err := w.WriteFrame(ctx, e.terminalFrame(ref.Raw, chunk, elapsed, kind)); err != nil {
				return err
			}
			return w.Flush()

		case provider.ChunkError:
			observability.ProviderRequestsTotal.WithLabelValues(provName, ref.BackendID, "error").Inc()
			classified := transport.Classify(chunk.Err)
			observability.ErrorsTotal.WithLabelValues(classified.Label, "stream").Inc()

			if err := w.WriteFrame(ctx, &api.ErrorFrame{
				Error: classified.Details,
				Model: ref.Raw,
				Done:  true,
			}); err != nil {
				return err
			}
			if err := w.Flush(); err != nil {
				return err
			}
			return chunk.Err
		}
	}
}

func (e *Engine) deltaFrame(model, delta string, kind streamKind) *api.StreamFrame {
	f := &api.StreamFrame{
		Model:     model,
		CreatedAt: e.timestamp(),
		Message:   api.Message{Role: api.RoleAssistant, Content: delta},
	}
	if kind == streamGenerate {
		f.Response = &delta
	}
	return f
}

func (e *Engine) terminalFrame(model string, chunk provider.Chunk, elapsed time.Duration, kind streamKind) *api.StreamFrame {
	prompt, eval := usageCounts(chunk.Usage)
	f := &api.StreamFrame{
		Model:           model,
		CreatedAt:       e.timestamp(),
		Message:         api.Message{Role: api.RoleAssistant, Content: ""},
		Done:            true,
		DoneReason:      e.doneReason(chunk.FinishReason),
		TotalDuration:   nonNegative(elapsed),
		PromptEvalCount: prompt,
		EvalCount:       eval,
	}
	if kind == streamGenerate {
		empty := ""
		f.Response = &empty
	}
	return f
}
