package llm

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_SetDefaultsPerType(t *testing.T) {
	cases := map[string]string{
		"openai":    "gpt-4o-mini",
		"anthropic": "claude-3-5-sonnet-latest",
		"gemini":    "gemini-1.5-flash",
		"ollama":    "llama3.1",
	}
	for typ, wantModel := range cases {
		cfg := Config{Type: typ}
		cfg.SetDefaults()
		assert.Equal(t, wantModel, cfg.Model, typ)
	}
}

func TestConfig_ValidateRejectsUnknownType(t *testing.T) {
	cfg := Config{Name: "bad", Type: "carrier-pigeon"}
	err := cfg.Validate()
	require.Error(t, err)
}

func TestParseJSONFence_StripsMarkdownFence(t *testing.T) {
	out, err := parseJSONFence("```json\n{\"foo\": \"bar\"}\n```")
	require.NoError(t, err)
	assert.Equal(t, "bar", out["foo"])
}

func TestParseJSONFence_BareJSON(t *testing.T) {
	out, err := parseJSONFence(`{"x": 1}`)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["x"])
}

type fakeProvider struct{ name string }

func (f *fakeProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return "ok", nil
}
func (f *fakeProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return "ok", nil
}
func (f *fakeProvider) Structured(ctx context.Context, prompt string, schema JSONSchema, opts Options) (map[string]any, error) {
	return map[string]any{}, nil
}
func (f *fakeProvider) TestConnection(ctx context.Context) (bool, error) { return true, nil }
func (f *fakeProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return nil, nil
}
func (f *fakeProvider) Name() string { return f.name }

func TestRegistry_RegisterAndGet(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.Register("primary", &fakeProvider{name: "primary"}))

	got, ok := r.Get("primary")
	require.True(t, ok)
	assert.Equal(t, "primary", got.Name())

	_, ok = r.Get("missing")
	assert.False(t, ok)
}
