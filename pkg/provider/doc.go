// Package provider defines the single call surface between the gateway and
// the hosted model backends. Adapters (hosted, litellm) translate the
// canonical Request into their backend protocol and normalize whatever
// comes back into Completion, Chunk or an embedding vector immediately, so
// the engine never branches on backend-specific shapes.
//
// Failures are reported as *BackendError carrying a closed ErrorKind.
package provider
