package providers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

const (
	MistralName    = "mistral"
	MistralBaseURL = "https://api.mistral.ai/v1"
	MistralModel   = "mistral-small-latest"
)

// MistralConfig holds configuration for the Mistral captioning client.
type MistralConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	RateLimit  float64 // requests per second
	MaxRetries int
	HTTPClient *http.Client // optional (tests)
}

// MistralClient implements CaptionProvider against the Mistral
// chat-completions API with vision input.
type MistralClient struct {
	apiKey     string
	baseURL    string
	model      string
	rateLimit  float64
	maxRetries int
	client     *http.Client
}

// NewMistralClient creates a new Mistral captioning client.
func NewMistralClient(cfg MistralConfig) *MistralClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = MistralBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = MistralModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 2.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	return &MistralClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		rateLimit:  cfg.RateLimit,
		maxRetries: cfg.MaxRetries,
		client:     client,
	}
}

// Name returns the provider identifier.
func (c *MistralClient) Name() string {
	return MistralName
}

// RequestsPerSecond returns the rate limit.
func (c *MistralClient) RequestsPerSecond() float64 {
	return c.rateLimit
}

// MaxRetries returns the maximum retry attempts.
func (c *MistralClient) MaxRetries() int {
	return c.maxRetries
}

// RetryDelayBase returns the base delay for exponential backoff.
func (c *MistralClient) RetryDelayBase() time.Duration {
	return 2 * time.Second
}

// Caption analyzes one image and returns a title/tags suggestion.
func (c *MistralClient) Caption(ctx context.Context, img []byte) (*Caption, error) {
	dataURI, err := prepareImage(img)
	if err != nil {
		return nil, err
	}

	reqBody := mistralChatRequest{
		Model: c.model,
		Messages: []mistralMessage{
			{Role: "system", Content: captionSystemPrompt},
			{Role: "user", Content: []mistralContentPart{
				{Type: "text", Text: captionUserPrompt},
				{Type: "image_url", ImageURL: &mistralImageURL{URL: dataURI}},
			}},
		},
		MaxTokens:   150,
		Temperature: 0.1,
		ResponseFormat: &mistralResponseFormat{
			Type: "json_object",
		},
	}

	resp, err := c.doRequest(ctx, "/chat/completions", reqBody)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices in Mistral response")
	}
	return parseCaption(resp.Choices[0].Message.Content)
}

// doRequest makes an HTTP request to the Mistral API.
func (c *MistralClient) doRequest(ctx context.Context, path string, body any) (*mistralChatResponse, error) {
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		var errResp mistralErrorResponse
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error.Message != "" {
			return nil, fmt.Errorf("Mistral error (status %d): %s", resp.StatusCode, errResp.Error.Message)
		}
		return nil, fmt.Errorf("Mistral error (status %d): %s", resp.StatusCode, string(respBody))
	}

	var chatResp mistralChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return &chatResp, nil
}

// Mistral API types

type mistralChatRequest struct {
	Model          string                 `json:"model"`
	Messages       []mistralMessage       `json:"messages"`
	MaxTokens      int                    `json:"max_tokens,omitempty"`
	Temperature    float64                `json:"temperature,omitempty"`
	ResponseFormat *mistralResponseFormat `json:"response_format,omitempty"`
}

// mistralMessage carries either a plain string or multimodal content parts.
type mistralMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type mistralContentPart struct {
	Type     string           `json:"type"` // "text" or "image_url"
	Text     string           `json:"text,omitempty"`
	ImageURL *mistralImageURL `json:"image_url,omitempty"`
}

type mistralImageURL struct {
	URL string `json:"url"`
}

type mistralResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type mistralChatResponse struct {
	Model   string          `json:"model"`
	Choices []mistralChoice `json:"choices"`
}

type mistralChoice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

type mistralErrorResponse struct {
	Error struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error"`
}

// Verify interface
var _ CaptionProvider = (*MistralClient)(nil)
