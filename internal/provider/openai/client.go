package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	DefaultEndpoint  = "https://api.openai.com/v1/chat/completions"
	DefaultModel     = "gpt-4o"
	DefaultMaxTokens = 1000
)

var ErrNotConfigured = errors.New("openai api key not configured")

type Client struct {
	APIKey      string
	Endpoint    string
	Model       string
	MaxTokens   int
	Temperature *float64
	HTTPClient  *http.Client
}

type Message struct {
	Role    string `json:"role"`
	Content any    `json:"content"`
}

type ContentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageURL `json:"image_url,omitempty"`
}

type ImageURL struct {
	URL string `json:"url"`
}

func System(text string) Message { return Message{Role: "system", Content: text} }

func User(text string) Message { return Message{Role: "user", Content: text} }

// UserWithImage builds a vision message; dataURL is a data: URL or an
// https URL.
func UserWithImage(text, dataURL string) Message {
	return Message{Role: "user", Content: []ContentPart{
		{Type: "text", Text: text},
		{Type: "image_url", ImageURL: &ImageURL{URL: dataURL}},
	}}
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature *float64  `json:"temperature,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type errorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Complete sends one chat completion and returns the first choice's text
// together with the raw response body.
func (c *Client) Complete(ctx context.Context, messages []Message) (string, []byte, error) {
	if !c.Configured() {
		return "", nil, ErrNotConfigured
	}
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(c.Model)
	if model == "" {
		model = DefaultModel
	}
	maxTokens := c.MaxTokens
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}

	payload, err := json.Marshal(chatRequest{Model: model, Messages: messages, MaxTokens: maxTokens, Temperature: c.Temperature})
	if err != nil {
		return "", nil, fmt.Errorf("encode openai request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("create openai request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("execute openai request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read openai response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr errorResponse
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Error.Message != "" {
			return "", body, fmt.Errorf("openai request failed with status %d: %s", resp.StatusCode, apiErr.Error.Message)
		}
		return "", body, fmt.Errorf("openai request failed with status %d", resp.StatusCode)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", body, fmt.Errorf("decode openai response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return "", body, errors.New("openai response has no content")
	}
	return parsed.Choices[0].Message.Content, body, nil
}
