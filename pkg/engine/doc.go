// Package engine implements the translation core of dolmetscher. The
// Engine implements transport.Handler: it resolves the model name,
// normalizes the Ollama request into one canonical message list, calls
// the backend through the provider interface with the right credential
// overrides, and re-encodes the result as an Ollama response or a sequence
// of stream frames.
//
// Chat requests are flattened into a single prompt and take the same path
// as generate requests. Embedding requests with N inputs make N sequential
// single-text backend calls.
package engine
