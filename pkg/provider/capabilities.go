package provider

// CheckStreaming returns a bad-request BackendError when the provider
// cannot stream.
func CheckStreaming(caps Capabilities, name string) error {
	if caps.Streaming {
		return nil
	}
	return &BackendError{
		Kind:     ErrorKindBadRequest,
		Provider: name,
		Message:  "the configured provider does not support streaming responses",
	}
}

// CheckEmbeddings returns a bad-request BackendError when the provider
// cannot produce embeddings.
func CheckEmbeddings(caps Capabilities, name string) error {
	if caps.Embeddings {
		return nil
	}
	return &BackendError{
		Kind:     ErrorKindBadRequest,
		Provider: name,
		Message:  "the configured provider does not support embeddings",
	}
}
