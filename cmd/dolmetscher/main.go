// Command dolmetscher runs an Ollama-compatible gateway in front of hosted
// LLM providers.
//
// Ollama clients talk to it on port 11434 as if it were a local Ollama
// server. Model names with a provider prefix (dashscope/, siliconflow/,
// deepseek/, volcengine/) are routed with that provider's credentials;
// everything else goes through the default backend credentials.
//
// Usage:
//
//	dolmetscher serve [--config file] [--host addr] [--port n]
//	dolmetscher resolve <model>...
//	dolmetscher models
//	dolmetscher version
package main

import "os"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
