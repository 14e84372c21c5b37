package modelref

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	r := NewResolver(nil)

	tests := []struct {
		raw          string
		wantProvider Provider
		wantID       string
	}{
		{"dashscope/qwen-turbo", ProviderDashScope, "openai/qwen-turbo"},
		{"siliconflow/Qwen/Qwen2-7B-Instruct", ProviderSiliconFlow, "openai/Qwen/Qwen2-7B-Instruct"},
		{"deepseek/deepseek-chat", ProviderDeepSeek, "deepseek/deepseek-chat"},
		{"volcengine/doubao-pro-4k", ProviderVolcEngine, "volcengine/doubao-pro-4k"},
		{"gpt-4", ProviderDefault, "gpt-4"},
		{"gemini/gemini-pro", ProviderDefault, "gemini/gemini-pro"},
		{"", ProviderDefault, ""},
		{"DashScope/qwen", ProviderDefault, "DashScope/qwen"},
		{"dashscope", ProviderDefault, "dashscope"},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			ref := r.Resolve(tt.raw)
			assert.Equal(t, tt.raw, ref.Raw)
			assert.Equal(t, tt.wantProvider, ref.Provider)
			assert.Equal(t, tt.wantID, ref.BackendID)
		})
	}
}

func TestResolveDeterministic(t *testing.T) {
	r := NewResolver(nil)
	for _, raw := range []string{"dashscope/qwen-max", "deepseek/deepseek-coder", "unknown/x"} {
		first := r.Resolve(raw)
		for i := 0; i < 10; i++ {
			assert.Equal(t, first, r.Resolve(raw))
		}
	}
}

func TestResolveUnmatchedPassesThrough(t *testing.T) {
	r := NewResolver(nil)
	ref := r.Resolve("mistral/mistral-large")
	assert.Equal(t, ProviderDefault, ref.Provider)
	assert.Equal(t, "mistral/mistral-large", ref.BackendID)
}

func TestCredentials(t *testing.T) {
	r := NewResolver(map[Provider]Credentials{
		ProviderDashScope:   {APIKey: "ds-key"},
		ProviderSiliconFlow: {APIKey: "sf-key", APIBase: "https://proxy.example/v1"},
		ProviderDeepSeek:    {APIKey: "dk"},
		ProviderVolcEngine:  {APIBase: "https://ark.example/api/v3"},
	})

	assert.Equal(t, Credentials{APIKey: "ds-key", APIBase: DashScopeAPIBase}, r.Credentials(ProviderDashScope))
	assert.Equal(t, Credentials{APIKey: "sf-key", APIBase: "https://proxy.example/v1"}, r.Credentials(ProviderSiliconFlow))
	assert.Equal(t, Credentials{APIKey: "dk"}, r.Credentials(ProviderDeepSeek))

	// No key configured: no override, even with a base.
	assert.True(t, r.Credentials(ProviderVolcEngine).Empty())
	assert.False(t, r.Configured(ProviderVolcEngine))

	assert.True(t, r.Credentials(ProviderDefault).Empty())
}

func TestNewResolverCopiesInput(t *testing.T) {
	in := map[Provider]Credentials{ProviderDeepSeek: {APIKey: "a"}}
	r := NewResolver(in)
	in[ProviderDeepSeek] = Credentials{APIKey: "b"}
	assert.Equal(t, "a", r.Credentials(ProviderDeepSeek).APIKey)
}

func TestProviderString(t *testing.T) {
	assert.Equal(t, "dashscope", ProviderDashScope.String())
	assert.Equal(t, "siliconflow", ProviderSiliconFlow.String())
	assert.Equal(t, "deepseek", ProviderDeepSeek.String())
	assert.Equal(t, "volcengine", ProviderVolcEngine.String())
	assert.Equal(t, "default", ProviderDefault.String())
	assert.Len(t, Providers(), 4)
}
