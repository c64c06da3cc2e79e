package config

import "github.com/foliolegal/enrichcore/pkg/llm"

// ZeroConfig returns a working default configuration with no file present,
// mirroring the teacher's zero-config mode: an ollama provider on its
// conventional local address, so `enrichcore enrich` works out of the box
// against a local model.
func ZeroConfig() *Config {
	cfg := &Config{
		LLMs: map[string]llm.Config{
			"default": {Type: "ollama", BaseURL: "http://localhost:11434"},
		},
		DefaultLLM: "default",
	}
	cfg.SetDefaults()
	return cfg
}
