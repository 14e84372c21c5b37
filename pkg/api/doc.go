// Package api defines the public wire types of the dolmetscher gateway.
//
// Callers speak the Ollama HTTP dialect: /api/generate, /api/chat,
// /api/embeddings, /api/embed and the decorative listing endpoints
// /api/tags and /api/ps. The types in this package mirror that dialect
// field for field so that unmodified Ollama clients work against the
// gateway.
//
// The package performs no I/O. Request types that forward unknown fields
// to the backend (GenerateRequest, ChatRequest) capture them in an Extra
// map during JSON decoding.
//
// Core types:
//   - [GenerateRequest], [GenerateResponse]: single-prompt completion
//   - [ChatRequest], [ChatResponse]: multi-turn chat
//   - [EmbeddingsRequest], [EmbedRequest]: legacy and batch embeddings
//   - [StreamFrame], [ErrorFrame]: newline-delimited streaming frames
//   - [APIError], [ErrorResponse]: the classified error envelope
package api
