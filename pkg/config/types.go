package config

import (
	"fmt"
	"time"

	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/foliolegal/enrichcore/pkg/normalize"
	"github.com/foliolegal/enrichcore/pkg/resolve"
)

// Config is the root configuration for the enrichcore pipeline and its
// serving surface. The root Config carries SetDefaults/Validate, matching the
// teacher's PluginConfig/PluginDiscoveryConfig convention, and fills each
// section's defaults itself; the section types have no such methods.
type Config struct {
	Logging  LoggingConfig  `yaml:"logging" mapstructure:"logging"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	JobStore JobStoreConfig `yaml:"job_store" mapstructure:"job_store"`
	Ontology OntologyConfig `yaml:"ontology" mapstructure:"ontology"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`

	// LLMs is keyed by provider name; DefaultLLM selects which entry backs
	// every stage that needs a single provider.
	LLMs       map[string]llm.Config `yaml:"llms" mapstructure:"llms"`
	DefaultLLM string                `yaml:"default_llm" mapstructure:"default_llm"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // text | json
	File   string `yaml:"file" mapstructure:"file"`
}

type ServerConfig struct {
	Address         string        `yaml:"address" mapstructure:"address"`
	EventPollPeriod time.Duration `yaml:"event_poll_period" mapstructure:"event_poll_period"`
}

type JobStoreConfig struct {
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	Retention time.Duration `yaml:"retention" mapstructure:"retention"`
}

type OntologyConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// PipelineConfig collects the per-stage tunables that aren't collaborator
// constructors: chunking, resolution threshold, and what the quality
// checker gates on.
type PipelineConfig struct {
	Chunking          normalize.Config `yaml:"chunking" mapstructure:"chunking"`
	Resolution        resolve.Config   `yaml:"resolution" mapstructure:"resolution"`
	QualityCheck      bool             `yaml:"quality_check" mapstructure:"quality_check"`
	MaxConcurrentJobs int              `yaml:"max_concurrent_jobs" mapstructure:"max_concurrent_jobs"`
}

func (c *Config) SetDefaults() {
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Server.Address == "" {
		c.Server.Address = ":8080"
	}
	if c.Server.EventPollPeriod <= 0 {
		c.Server.EventPollPeriod = 500 * time.Millisecond
	}
	if c.JobStore.Dir == "" {
		c.JobStore.Dir = "./data/jobs"
	}
	if c.JobStore.Retention <= 0 {
		c.JobStore.Retention = 30 * 24 * time.Hour
	}
	if c.Pipeline.MaxConcurrentJobs <= 0 {
		c.Pipeline.MaxConcurrentJobs = 4
	}
	c.Pipeline.Chunking.SetDefaults()
	c.Pipeline.Resolution.SetDefaults()
	for name, llmCfg := range c.LLMs {
		llmCfg.SetDefaults()
		c.LLMs[name] = llmCfg
	}
	if c.DefaultLLM == "" {
		for name := range c.LLMs {
			c.DefaultLLM = name
			break
		}
	}
}

func (c *Config) Validate() error {
	if len(c.LLMs) > 0 {
		if _, ok := c.LLMs[c.DefaultLLM]; !ok {
			return fmt.Errorf("default_llm %q is not present in llms", c.DefaultLLM)
		}
		for name, llmCfg := range c.LLMs {
			if err := llmCfg.Validate(); err != nil {
				return fmt.Errorf("llms.%s: %w", name, err)
			}
		}
	}
	switch c.Logging.Format {
	case "text", "json":
	default:
		return fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format)
	}
	return nil
}
