package provider

// Credential option keys. They travel inside Request.Options so that a
// caller-supplied key is never overwritten by a configured one.
const (
	OptionAPIKey  = "api_key"
	OptionAPIBase = "api_base"
)

// MergeMissing returns a copy of opts with every key of defaults added
// where opts has no value for it. Existing keys, even empty strings set by
// the caller, are kept.
func MergeMissing(opts map[string]any, defaults map[string]any) map[string]any {
	out := make(map[string]any, len(opts)+len(defaults))
	for k, v := range opts {
		out[k] = v
	}
	for k, v := range defaults {
		if _, ok := out[k]; !ok {
			out[k] = v
		}
	}
	return out
}

// TakeCredentials removes the credential keys from opts and returns them
// along with the remaining options. Non-string values are ignored.
func TakeCredentials(opts map[string]any) (apiKey, apiBase string, rest map[string]any) {
	rest = make(map[string]any, len(opts))
	for k, v := range opts {
		switch k {
		case OptionAPIKey:
			apiKey, _ = v.(string)
		case OptionAPIBase:
			apiBase, _ = v.(string)
		default:
			rest[k] = v
		}
	}
	return apiKey, apiBase, rest
}
