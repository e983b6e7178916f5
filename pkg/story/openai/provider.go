// Package openai speaks the chat-completions dialect shared by OpenAI,
// Groq and compatible gateways, so one provider covers both hosted
// backends in the fallback chain.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"mesh-adventure-be/pkg/story"
)

type CompatProvider struct {
	name      string
	apiKey    string
	modelName string
	baseURL   string
	client    *http.Client
}

var _ story.Generator = &CompatProvider{}

func NewCompatProvider(name, baseURL, apiKey, modelName string, timeout time.Duration) *CompatProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &CompatProvider{
		name:      name,
		apiKey:    apiKey,
		modelName: modelName,
		baseURL:   normalizeAPIBase(baseURL),
		client:    &http.Client{Timeout: timeout},
	}
}

func normalizeAPIBase(baseURL string) string {
	trimmed := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if strings.HasSuffix(trimmed, "/v1") {
		return trimmed
	}
	return trimmed + "/v1"
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature,omitempty"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

func (p *CompatProvider) Name() string { return p.name }

func (p *CompatProvider) NextScene(ctx context.Context, theme string, history []string, choice string) (*story.Scene, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("%w: %s not configured", story.ErrBackendUnavailable, p.name)
	}

	payload := chatRequest{
		Model: p.modelName,
		Messages: []chatMessage{
			{Role: "system", Content: story.SystemPrompt(theme)},
			{Role: "user", Content: story.UserPrompt(history, choice)},
		},
		Temperature: 0.8,
		MaxTokens:   150,
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", story.ErrBackendUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", story.ErrBackendUnavailable, err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", story.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", story.ErrBackendUnavailable, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: %s status %d", story.ErrBackendUnavailable, p.name, resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", story.ErrBackendUnavailable, err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", story.ErrBackendUnavailable)
	}

	return story.ParseScene(parsed.Choices[0].Message.Content), nil
}
