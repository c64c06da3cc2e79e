package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/foliolegal/enrichcore/pkg/httpclient"
)

// AnthropicProvider talks to the Anthropic messages API.
type AnthropicProvider struct {
	apiKey  string
	baseURL string
	model   string
	client  *httpclient.Client
}

// NewAnthropicProvider builds an AnthropicProvider from config.
func NewAnthropicProvider(cfg Config) *AnthropicProvider {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.anthropic.com/v1"
	}
	return &AnthropicProvider{
		apiKey:  cfg.APIKey,
		baseURL: base,
		model:   cfg.Model,
		client: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 120 * time.Second}),
			httpclient.WithMaxRetries(3),
			httpclient.WithBaseDelay(2*time.Second),
			httpclient.WithHeaderParser(httpclient.ParseAnthropicHeaders),
		),
	}
}

func (p *AnthropicProvider) Name() string { return "anthropic:" + p.model }

type anthropicMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type anthropicRequest struct {
	Model       string             `json:"model"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature,omitempty"`
}

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (p *AnthropicProvider) request(ctx context.Context, req anthropicRequest) (string, error) {
	if req.MaxTokens == 0 {
		req.MaxTokens = 4096
	}

	body, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("anthropic: marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/messages", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("anthropic: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", p.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("anthropic: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("anthropic: read body: %w", err)
	}

	var parsed anthropicResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("anthropic: parse response: %w", err)
	}
	if parsed.Error != nil {
		return "", fmt.Errorf("anthropic: %s", parsed.Error.Message)
	}
	if len(parsed.Content) == 0 {
		return "", fmt.Errorf("anthropic: empty content in response")
	}
	return parsed.Content[0].Text, nil
}

func (p *AnthropicProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return p.Chat(ctx, []Message{{Role: RoleUser, Content: prompt}}, opts)
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, opts Options) (string, error) {
	req := anthropicRequest{
		Model:       p.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
	}
	for _, m := range messages {
		if m.Role == RoleSystem {
			req.System = m.Content
			continue
		}
		req.Messages = append(req.Messages, anthropicMessage{Role: string(m.Role), Content: m.Content})
	}
	return p.request(ctx, req)
}

// Structured asks Claude to emit JSON matching schema via an explicit
// system instruction, since the Anthropic messages API has no native
// structured-output mode at this model generation.
func (p *AnthropicProvider) Structured(ctx context.Context, prompt string, schema JSONSchema, opts Options) (map[string]any, error) {
	schemaJSON, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("anthropic structured: marshal schema: %w", err)
	}

	req := anthropicRequest{
		Model:       p.model,
		MaxTokens:   opts.MaxTokens,
		Temperature: opts.Temperature,
		System:      "Respond with JSON only, matching this schema exactly, no prose, no markdown fences: " + string(schemaJSON),
		Messages:    []anthropicMessage{{Role: string(RoleUser), Content: prompt}},
	}

	text, err := p.request(ctx, req)
	if err != nil {
		return nil, err
	}
	return parseJSONFence(text)
}

func (p *AnthropicProvider) TestConnection(ctx context.Context) (bool, error) {
	_, err := p.Complete(ctx, "ping", Options{MaxTokens: 1})
	return err == nil, err
}

// ListModels returns the small set of well-known Claude model identifiers;
// Anthropic has no public models-listing endpoint at this API version.
func (p *AnthropicProvider) ListModels(ctx context.Context) ([]ModelInfo, error) {
	return []ModelInfo{
		{Name: "claude-3-5-sonnet-latest"},
		{Name: "claude-3-5-haiku-latest"},
		{Name: "claude-3-opus-latest"},
	}, nil
}
