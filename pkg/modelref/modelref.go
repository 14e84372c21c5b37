// Package modelref turns a caller-supplied model name into the model
// identifier handed to the backend, and selects the credentials that go
// with it.
//
// Resolution is a pure function of the model name and the credential set
// fixed at construction. Nothing is cached and nothing is mutated after
// NewResolver returns, so a Resolver is safe for concurrent use.
package modelref

import "strings"

// Provider identifies the provider family selected by a model-name prefix.
type Provider int

const (
	// ProviderDefault is used for names that match no prefix. The name is
	// passed through unchanged and ambient credentials apply.
	ProviderDefault Provider = iota
	ProviderDashScope
	ProviderSiliconFlow
	ProviderDeepSeek
	ProviderVolcEngine
)

// String returns the short provider name used in logs and metric labels.
func (p Provider) String() string {
	switch p {
	case ProviderDashScope:
		return "dashscope"
	case ProviderSiliconFlow:
		return "siliconflow"
	case ProviderDeepSeek:
		return "deepseek"
	case ProviderVolcEngine:
		return "volcengine"
	default:
		return "default"
	}
}

// PassThroughPrefix is the neutral prefix the invocation boundary expects
// for OpenAI-compatible endpoints reached through an explicit api_base.
const PassThroughPrefix = "openai/"

// Default API bases for the providers whose names are rewritten.
const (
	DashScopeAPIBase   = "https://dashscope.aliyuncs.com/compatible-mode/v1"
	SiliconFlowAPIBase = "https://api.siliconflow.cn/v1"
)

// Reference is the resolved identity of a model.
type Reference struct {
	// Raw is the name exactly as the caller sent it. Responses echo it.
	Raw string

	// Provider is the family selected by the prefix.
	Provider Provider

	// BackendID is the model string passed to the backend.
	BackendID string
}

// Credentials is the key and endpoint override for one provider. Either
// field may be empty.
type Credentials struct {
	APIKey  string
	APIBase string
}

// Empty reports whether the override carries nothing.
func (c Credentials) Empty() bool {
	return c.APIKey == "" && c.APIBase == ""
}

type prefixRule struct {
	prefix   string
	provider Provider
	rewrite  bool
}

// prefixTable is checked in order; the prefixes do not overlap.
var prefixTable = []prefixRule{
	{prefix: "dashscope/", provider: ProviderDashScope, rewrite: true},
	{prefix: "siliconflow/", provider: ProviderSiliconFlow, rewrite: true},
	{prefix: "deepseek/", provider: ProviderDeepSeek},
	{prefix: "volcengine/", provider: ProviderVolcEngine},
}

// Providers lists the recognized prefixed providers in table order.
func Providers() []Provider {
	out := make([]Provider, 0, len(prefixTable))
	for _, r := range prefixTable {
		out = append(out, r.provider)
	}
	return out
}

// Resolver resolves model names against the fixed prefix table.
type Resolver struct {
	creds map[Provider]Credentials
}

// NewResolver creates a Resolver from per-provider credentials.
//
// A provider only gets an override when its API key is configured. The
// rewritten providers (DashScope, SiliconFlow) then receive their default
// API base unless one is configured explicitly.
func NewResolver(configured map[Provider]Credentials) *Resolver {
	creds := make(map[Provider]Credentials, len(configured))
	for p, c := range configured {
		if c.APIKey == "" {
			continue
		}
		if c.APIBase == "" {
			switch p {
			case ProviderDashScope:
				c.APIBase = DashScopeAPIBase
			case ProviderSiliconFlow:
				c.APIBase = SiliconFlowAPIBase
			}
		}
		creds[p] = c
	}
	return &Resolver{creds: creds}
}

// Resolve parses a model name. It never fails: unmatched names resolve to
// ProviderDefault with BackendID equal to the input.
func (r *Resolver) Resolve(raw string) Reference {
	for _, rule := range prefixTable {
		if !strings.HasPrefix(raw, rule.prefix) {
			continue
		}
		ref := Reference{Raw: raw, Provider: rule.provider, BackendID: raw}
		if rule.rewrite {
			ref.BackendID = PassThroughPrefix + strings.TrimPrefix(raw, rule.prefix)
		}
		return ref
	}
	return Reference{Raw: raw, Provider: ProviderDefault, BackendID: raw}
}

// Credentials returns the override for a provider. The zero value means
// the backend call proceeds with ambient credentials.
func (r *Resolver) Credentials(p Provider) Credentials {
	return r.creds[p]
}

// Configured reports whether a provider has an override.
func (r *Resolver) Configured(p Provider) bool {
	_, ok := r.creds[p]
	return ok
}
