// Package hosted implements provider.Provider as a prefix dispatcher over
// hosted OpenAI-compatible APIs.
//
// A backend model id has the form "<endpoint>/<model>", for example
// "deepseek/deepseek-chat" or "openrouter/meta-llama/llama-3-70b". The
// endpoint name selects the API root and default key; the remainder is
// sent as the upstream model name. Ids without a recognized prefix go to
// the "openai" endpoint, except for "claude-*" and "gemini-*" models which
// are routed to their vendors.
package hosted
