// Package transport defines the handler interfaces, middleware chain and
// error classification for the dolmetscher HTTP transport layer.
//
// The transport layer bridges Ollama clients and the translation engine.
// It deserializes incoming requests into the types defined in pkg/api,
// dispatches them for processing, and serializes results back to the
// client either as one JSON object or as a stream of frames.
//
// # Handler Interfaces
//
// Handler processes the inference operations (generate, chat, embeddings,
// embed). Catalog serves the decorative model listings (tags, ps).
//
// The ResponseWriter interface abstracts streaming and non-streaming
// output, allowing the handler to emit frames or a complete response
// without knowing the wire framing (NDJSON, JSON lines, SSE).
//
// # Middleware
//
// The middleware chain wraps Handler with cross-cutting concerns.
// Built-in middleware provides panic recovery, request ID assignment
// (X-Request-ID), and structured logging via log/slog.
//
// # Errors
//
// Classify maps any error returned by the engine or a backend onto the
// Ollama error envelope and HTTP status, in a fixed priority order.
package transport
