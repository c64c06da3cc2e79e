package llm

import (
	"fmt"

	"github.com/foliolegal/enrichcore/pkg/registry"
)

// Registry is a name-keyed Provider registry, reusing the module's generic
// thread-safe registry primitive rather than hand-rolling another map+mutex.
type Registry struct {
	base *registry.BaseRegistry[Provider]
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{base: registry.NewBaseRegistry[Provider]()}
}

func (r *Registry) Register(name string, p Provider) error {
	return r.base.Register(name, p)
}

func (r *Registry) Get(name string) (Provider, bool) {
	return r.base.Get(name)
}

func (r *Registry) List() []Provider {
	return r.base.List()
}

// Config describes how to construct one named provider.
type Config struct {
	Name    string `yaml:"name" mapstructure:"name"`
	Type    string `yaml:"type" mapstructure:"type"` // openai | anthropic | gemini | ollama
	Model   string `yaml:"model" mapstructure:"model"`
	APIKey  string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// SetDefaults fills empty fields with sane defaults, matching the
// SetDefaults()/Validate() idiom used throughout this module's config
// layer.
func (c *Config) SetDefaults() {
	if c.Model == "" {
		switch c.Type {
		case "openai":
			c.Model = "gpt-4o-mini"
		case "anthropic":
			c.Model = "claude-3-5-sonnet-latest"
		case "gemini":
			c.Model = "gemini-1.5-flash"
		case "ollama":
			c.Model = "llama3.1"
		}
	}
}

// Validate checks the config is well-formed.
func (c *Config) Validate() error {
	if c.Type == "" {
		return fmt.Errorf("llm config %q: type is required", c.Name)
	}
	switch c.Type {
	case "openai", "anthropic", "gemini", "ollama":
	default:
		return fmt.Errorf("llm config %q: unsupported type %q", c.Name, c.Type)
	}
	return nil
}

// NewProviderFromConfig constructs a Provider for the given config's type.
func NewProviderFromConfig(cfg Config) (Provider, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Type {
	case "openai":
		return NewOpenAIProvider(cfg), nil
	case "anthropic":
		return NewAnthropicProvider(cfg), nil
	case "gemini":
		return NewGeminiProvider(cfg), nil
	case "ollama":
		return NewOllamaProvider(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported llm type %q", cfg.Type)
	}
}
