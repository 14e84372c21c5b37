package openaicompat

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"

	"github.com/rhuss/dolmetscher/pkg/debug"
	"github.com/rhuss/dolmetscher/pkg/provider"
)

// maxSSELine bounds a single SSE line. Some backends send large chunks.
const maxSSELine = 1 << 20

// ParseSSEStream reads Chat Completions SSE chunks from body, translates
// them to provider.Chunk values and sends them on ch. The channel is NOT
// closed by this function; the caller is responsible for closing it.
//
// SSE format expected:
//
//	data: {"id":"...","choices":[...]}\n
//	\n
//	data: [DONE]\n
//	\n
//
// A successful stream always ends with exactly one ChunkDone, carrying the
// last finish reason and the usage if the backend reported it. Malformed
// chunks are logged and skipped. Context cancellation stops reading
// immediately and sends nothing further.
func ParseSSEStream(ctx context.Context, body io.Reader, ch chan<- provider.Chunk, providerName string) {
	scanner := bufio.NewScanner(body)
	scanner.Buffer(make([]byte, 0, 64*1024), maxSSELine)

	done := provider.Chunk{Type: provider.ChunkDone}

	for scanner.Scan() {
		if ctx.Err() != nil {
			return
		}

		line := scanner.Text()

		// Lines that don't carry data are ignored (blank separators,
		// ": keep-alive" comments, event: names).
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		payload := strings.TrimSpace(strings.TrimPrefix(line, "data:"))

		if payload == "[DONE]" {
			break
		}

		debug.Trace("streaming", "sse chunk", "provider", providerName, "data", payload)

		var chunk ChatCompletionChunk
		if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
			slog.Warn("skipping malformed SSE chunk",
				"provider", providerName,
				"error", err.Error(),
				"data", debug.Truncate(payload, 200),
			)
			continue
		}

		if chunk.Error != nil {
			send(ctx, ch, provider.Chunk{
				Type: provider.ChunkError,
				Err:  MapStreamError(chunk.Error, providerName),
			})
			return
		}

		if chunk.Usage != nil {
			done.Usage = &provider.Usage{
				PromptTokens:     chunk.Usage.PromptTokens,
				CompletionTokens: chunk.Usage.CompletionTokens,
			}
		}

		// No choices: a usage-only final chunk, already recorded above.
		if len(chunk.Choices) == 0 {
			continue
		}

		choice := chunk.Choices[0]
		if text := ExtractContent(choice.Delta.Content); text != "" {
			if !send(ctx, ch, provider.Chunk{Type: provider.ChunkDelta, Delta: text}) {
				return
			}
		}
		if choice.FinishReason != nil && *choice.FinishReason != "" {
			done.FinishReason = *choice.FinishReason
		}
	}

	if err := scanner.Err(); err != nil {
		// Context cancellation is not an error from our perspective.
		if ctx.Err() != nil {
			return
		}
		send(ctx, ch, provider.Chunk{
			Type: provider.ChunkError,
			Err:  MapNetworkError(err, providerName),
		})
		return
	}

	send(ctx, ch, done)
}

// send delivers c unless ctx is cancelled first. It reports whether the
// chunk was delivered.
func send(ctx context.Context, ch chan<- provider.Chunk, c provider.Chunk) bool {
	select {
	case ch <- c:
		return true
	case <-ctx.Done():
		return false
	}
}
