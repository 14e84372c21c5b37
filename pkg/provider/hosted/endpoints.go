package hosted

import "strings"

// Endpoint is the API root and default credentials of one hosted vendor.
type Endpoint struct {
	// Name is the model id prefix that selects this endpoint.
	Name string `yaml:"name"`

	// BaseURL is the OpenAI-compatible API root, without /chat/completions.
	BaseURL string `yaml:"base_url"`

	// APIKey is used when the request carries no api_key option.
	APIKey string `yaml:"api_key"`

	// Headers are sent with every request to this endpoint.
	Headers map[string]string `yaml:"headers"`
}

// Endpoint names.
const (
	EndpointOpenAI     = "openai"
	EndpointDeepSeek   = "deepseek"
	EndpointVolcEngine = "volcengine"
	EndpointGemini     = "gemini"
	EndpointAnthropic  = "anthropic"
	EndpointOpenRouter = "openrouter"
	EndpointMistral    = "mistral"
	EndpointGroq       = "groq"
)

// DefaultEndpoints returns the built-in endpoint table. Keys are empty;
// they come from configuration or from the per-request api_key option.
func DefaultEndpoints() map[string]Endpoint {
	return map[string]Endpoint{
		EndpointOpenAI:     {Name: EndpointOpenAI, BaseURL: "https://api.openai.com/v1"},
		EndpointDeepSeek:   {Name: EndpointDeepSeek, BaseURL: "https://api.deepseek.com"},
		EndpointVolcEngine: {Name: EndpointVolcEngine, BaseURL: "https://ark.cn-beijing.volces.com/api/v3"},
		EndpointGemini:     {Name: EndpointGemini, BaseURL: "https://generativelanguage.googleapis.com/v1beta/openai"},
		EndpointAnthropic:  {Name: EndpointAnthropic, BaseURL: "https://api.anthropic.com/v1"},
		EndpointOpenRouter: {Name: EndpointOpenRouter, BaseURL: "https://openrouter.ai/api/v1"},
		EndpointMistral:    {Name: EndpointMistral, BaseURL: "https://api.mistral.ai/v1"},
		EndpointGroq:       {Name: EndpointGroq, BaseURL: "https://api.groq.com/openai/v1"},
	}
}

// vendorModelPrefixes route unprefixed model names that clearly belong to
// a vendor other than OpenAI.
var vendorModelPrefixes = []struct {
	prefix   string
	endpoint string
}{
	{"claude-", EndpointAnthropic},
	{"gemini-", EndpointGemini},
}

// splitModel separates "<endpoint>/<model>" at the first slash. An id
// without a slash returns an empty endpoint.
func splitModel(id string) (endpoint, model string) {
	name, rest, ok := strings.Cut(id, "/")
	if !ok {
		return "", id
	}
	return name, rest
}

// defaultEndpointFor picks the endpoint of an unprefixed model name.
func defaultEndpointFor(model string) string {
	lower := strings.ToLower(model)
	for _, vp := range vendorModelPrefixes {
		if strings.HasPrefix(lower, vp.prefix) {
			return vp.endpoint
		}
	}
	return EndpointOpenAI
}
