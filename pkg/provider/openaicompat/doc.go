// Package openaicompat provides shared client code for any OpenAI-compatible
// Chat Completions and Embeddings backend. It handles request translation
// from canonical options, response parsing, SSE chunk streaming, response
// decompression (gzip, brotli) and error mapping into provider.ErrorKind.
//
// Provider adapters (hosted, litellm) build a Client per endpoint and
// delegate their Complete/Stream/Embed calls to it.
package openaicompat
