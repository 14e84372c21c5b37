package models

// defaultModels is the list served when no models file is configured.
func defaultModels() []Model {
	chat := []string{"text", "chat"}
	return []Model{
		{Name: "gpt-4", Family: "gpt", ParameterSize: "175B", ContextLength: 8192},
		{Name: "gpt-4-turbo", Family: "gpt", ParameterSize: "175B", ContextLength: 128000},
		{Name: "gpt-3.5-turbo", Family: "gpt", ParameterSize: "175B", ContextLength: 16385},
		{Name: "claude-3-opus", Family: "claude", ContextLength: 200000},
		{Name: "claude-3-sonnet", Family: "claude", ContextLength: 200000},
		{Name: "claude-3-haiku", Family: "claude", ContextLength: 200000},
		{Name: "dashscope/qwen-turbo", Family: "qwen", ContextLength: 8192},
		{Name: "dashscope/qwen-plus", Family: "qwen", ParameterSize: "72B", ContextLength: 32768},
		{Name: "dashscope/qwen-max", Family: "qwen", ParameterSize: "100B", ContextLength: 32768},
		{Name: "deepseek/deepseek-chat", Family: "deepseek", ParameterSize: "70B", ContextLength: 65536},
		{Name: "deepseek/deepseek-coder", Family: "deepseek", ParameterSize: "34B", ContextLength: 65536, Capabilities: []string{"text", "chat", "code"}},
		{Name: "siliconflow/Yi-34B-Chat", Family: "yi", ParameterSize: "34B"},
		{Name: "siliconflow/Meta-Llama-3-8B-Instruct", Family: "llama", ParameterSize: "8B", ContextLength: 8192},
		{Name: "volcengine/doubao-lite-4k", Family: "doubao"},
		{Name: "volcengine/doubao-pro-4k", Family: "doubao", ParameterSize: "32B"},
		{Name: "gemini/gemini-pro", Family: "gemini", ContextLength: 32768},
		{Name: "gemini/gemini-pro-vision", Family: "gemini", ContextLength: 16384, Capabilities: []string{"text", "chat", "vision"}},
		{Name: "ollama/llama2", Family: "llama", Capabilities: chat},
		{Name: "ollama/codellama", Family: "llama", Capabilities: []string{"text", "code"}},
	}
}
