package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/foliolegal/enrichcore/pkg/ollama"
)

// OllamaProvider wraps the shared ollama.Client, adapting its chat/generate
// endpoints to the Provider contract.
type OllamaProvider struct {
	client *ollama.Client
	model  string
}

// NewOllamaProvider builds an OllamaProvider from config.
func NewOllamaProvider(cfg Config) *OllamaProvider {
	baseURL := cfg.BaseURL
	return &OllamaProvider{
		client: ollama.NewClientWithTimeout(baseURL, 120*time.Second),
		model:  cfg.Model,
	}
}

func (p *OllamaProvider) Name() string { return "ollama:" + p.model }

type ollamaChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaChatRequest struct {
	Model    string              `json:"model"`
	Messages []ollamaChatMessage `json:"messages"`
	Stream   bool                `json:"stream"`
	Format   json.RawMessage     `json:"format,omitempty"`
	Options  map[string]any      `json:"options,omitempty"`
}

type ollamaChatResponse struct {
	Message ollamaChatMessage `json:"message"`
	Done    bool              `json:"done"`
}

func (p *OllamaProvider) doChat(ctx context.Context, messages []Message, format json.RawMessage, opts Options) (string, error) {
	req := ollamaChatRequest{
		Model:  p.model,
		Stream: false,
		Format: format,
		Options: map[string]any{
			"temperature": opts.Temperature,
		},
	}
	for _, m := range messages {
		req.Messages = append(req.Messages, ollamaChatMessage{Role: string(m.Role), Content: m.Content})
	}

	resp, err := p.client.MakeRequest(ctx, "/api/chat", req)
	if err != nil {
		return "", fmt.Errorf("ollama chat: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ollama chat: read body: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("ollama chat: status %d: %s", resp.StatusCode, string(body))
	}

	var parsed ollamaChatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("ollama chat: parse response: %w", err)
	}
	return parsed.Message.Content, nil
}

func (p *OllamaProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return p.doChat(ctx, []Message{{Role: RoleUser, Content: prompt}}, nil, opts)
}

func (p *OllamaProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	return p.doChat(ctx, messages, nil, opts)
}

// Structured requests JSON output via Ollama's "format" field, stripping a
// leading ```json fence if the model adds one anyway.
func (p *OllamaProvider) Structured(ctx context.Context, prompt string, schema JSONSchema, opts Options) (map[string]any, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("ollama structured: marshal schema: %w", err)
	}

	text, err := p.doChat(ctx, []Message{{Role: RoleUser, Content: prompt}}, schemaJSON, opts)
	if err != nil {
		return nil, err
	}

	return parseJSONFence(text)
}

func (p *OllamaProvider) TestConnection(ctx context.Context) (bool, error) {
	resp, err := p.client.MakeRequest(ctx, "/api/tags", nil)
	if err != nil {
		return false, err
	}
	defer resp.Body.Close()
	return resp.StatusCode < 300, nil
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

func (p *OllamaProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	resp, err := p.client.MakeRequest(ctx, "/api/tags", nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var parsed ollamaTagsResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("ollama list models: %w", err)
	}

	out := make([]ModelInfo, 0, len(parsed.Models))
	for _, m := range parsed.Models {
		out = append(out, ModelInfo{Name: m.Name})
	}
	return out, nil
}

// parseJSONFence tolerates a leading ```json (or bare ```) fence around a
// structured-output response, per spec.md §4.12's parser requirement.
func parseJSONFence(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var out map[string]any
	if err := json.Unmarshal([]byte(trimmed), &out); err != nil {
		return nil, fmt.Errorf("parse structured output: %w", err)
	}
	return out, nil
}
