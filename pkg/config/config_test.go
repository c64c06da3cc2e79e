package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/foliolegal/enrichcore/pkg/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_ParsesYAMLAppliesDefaultsAndExpandsEnv(t *testing.T) {
	t.Setenv("TEST_ENRICHCORE_API_KEY", "secret-value")

	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
llms:
  default:
    type: openai
    api_key: ${TEST_ENRICHCORE_API_KEY}
job_store:
  dir: ./data/jobs
`
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0644))

	cfg, loader, err := Load(context.Background(), path)
	require.NoError(t, err)
	defer loader.Close()

	assert.Equal(t, "secret-value", cfg.LLMs["default"].APIKey)
	assert.Equal(t, "default", cfg.DefaultLLM)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.NotZero(t, cfg.Server.EventPollPeriod)
}

func TestValidate_RejectsUnknownDefaultLLM(t *testing.T) {
	cfg := &Config{
		LLMs:       map[string]llm.Config{"openai": {Type: "openai"}},
		DefaultLLM: "missing",
	}
	cfg.SetDefaults()
	err := cfg.Validate()
	require.Error(t, err)
}

func TestZeroConfig_ProducesValidConfig(t *testing.T) {
	cfg := ZeroConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ollama", cfg.LLMs["default"].Type)
}
