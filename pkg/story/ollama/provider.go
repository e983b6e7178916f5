package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"mesh-adventure-be/pkg/story"
)

type OllamaProvider struct {
	BaseURL   string
	ModelName string
	Client    *http.Client
}

// Ensure OllamaProvider implements Generator
var _ story.Generator = &OllamaProvider{}

func NewOllamaProvider(baseURL, modelName string, timeout time.Duration) *OllamaProvider {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &OllamaProvider{
		BaseURL:   baseURL,
		ModelName: modelName,
		Client: &http.Client{
			Timeout: timeout,
		},
	}
}

// --- Request/Response structs (Internal to this package) ---

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *ollamaOptions  `json:"options,omitempty"`
}

type ollamaMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaChatResponse struct {
	Model   string        `json:"model"`
	Message ollamaMessage `json:"message"`
	Done    bool          `json:"done"`
}

func (o *OllamaProvider) Name() string { return "ollama" }

// NextScene asks the local model for the next scene. Every transport,
// status and parse failure collapses into ErrBackendUnavailable so the
// chain can fall through.
func (o *OllamaProvider) NextScene(ctx context.Context, theme string, history []string, choice string) (*story.Scene, error) {
	reqPayload := ollamaChatRequest{
		Model: o.ModelName,
		Messages: []ollamaMessage{
			{Role: "system", Content: story.SystemPrompt(theme)},
			{Role: "user", Content: story.UserPrompt(history, choice)},
		},
		Stream: false,
		Options: &ollamaOptions{
			Temperature: 0.8,
			NumPredict:  120,
		},
	}

	payloadBytes, err := json.Marshal(reqPayload)
	if err != nil {
		return nil, fmt.Errorf("%w: marshal request: %v", story.ErrBackendUnavailable, err)
	}

	url := o.BaseURL + "/api/chat"
	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payloadBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", story.ErrBackendUnavailable, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", story.ErrBackendUnavailable, err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read response: %v", story.ErrBackendUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", story.ErrBackendUnavailable, resp.StatusCode)
	}

	var ollamaResp ollamaChatResponse
	if err := json.Unmarshal(bodyBytes, &ollamaResp); err != nil {
		return nil, fmt.Errorf("%w: unmarshal response: %v", story.ErrBackendUnavailable, err)
	}
	if ollamaResp.Message.Content == "" {
		return nil, fmt.Errorf("%w: empty completion", story.ErrBackendUnavailable)
	}

	return story.ParseScene(ollamaResp.Message.Content), nil
}
