// Package litellm implements the Provider interface for LiteLLM proxy
// servers. LiteLLM exposes an OpenAI-compatible API and understands the
// "<provider>/<model>" naming the resolver produces, so this adapter
// delegates all HTTP communication to the shared openaicompat.Client.
//
// Per-request credentials (the api_key and api_base options) are left in
// the request body, where the proxy reads them as client-side credentials.
package litellm
