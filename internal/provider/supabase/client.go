package supabase

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

const functionPath = "/functions/v1/analyze-food"

var ErrNotConfigured = errors.New("supabase project url or key not configured")

// Client calls the analyze-food edge function, which proxies OpenAI.
type Client struct {
	ProjectURL string
	APIKey     string
	HTTPClient *http.Client
}

// Request is the edge function body. Image requests carry Image; goal
// calculations set NutritionCalculation and ProfileData instead.
type Request struct {
	Image                string `json:"image,omitempty"`
	Prompt               string `json:"prompt"`
	NutritionCalculation bool   `json:"nutritionCalculation,omitempty"`
	ProfileData          any    `json:"profileData,omitempty"`
}

type Response struct {
	Success bool            `json:"success"`
	Content json.RawMessage `json:"content,omitempty"`
	Error   string          `json:"error,omitempty"`
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.ProjectURL) != "" && strings.TrimSpace(c.APIKey) != ""
}

func (c *Client) AnalyzeFood(ctx context.Context, imageBase64, prompt string) (string, []byte, error) {
	return c.invoke(ctx, Request{Image: imageBase64, Prompt: prompt})
}

func (c *Client) CalculateNutrition(ctx context.Context, prompt string, profile any) (string, []byte, error) {
	return c.invoke(ctx, Request{Prompt: prompt, NutritionCalculation: true, ProfileData: profile})
}

// invoke posts the request and returns the function's content as text.
// String content is unquoted; object content is returned as raw JSON.
func (c *Client) invoke(ctx context.Context, in Request) (string, []byte, error) {
	if !c.Configured() {
		return "", nil, ErrNotConfigured
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	payload, err := json.Marshal(in)
	if err != nil {
		return "", nil, fmt.Errorf("encode supabase request: %w", err)
	}
	u := strings.TrimRight(strings.TrimSpace(c.ProjectURL), "/") + functionPath
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return "", nil, fmt.Errorf("create supabase request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := httpClient.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("execute supabase request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", nil, fmt.Errorf("read supabase response: %w", err)
	}

	var parsed Response
	decodeErr := json.Unmarshal(body, &parsed)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if decodeErr == nil && parsed.Error != "" {
			return "", body, fmt.Errorf("supabase function failed with status %d: %s", resp.StatusCode, parsed.Error)
		}
		return "", body, fmt.Errorf("supabase function failed with status %d", resp.StatusCode)
	}
	if decodeErr != nil {
		return "", body, fmt.Errorf("decode supabase response: %w", decodeErr)
	}
	if !parsed.Success {
		msg := parsed.Error
		if msg == "" {
			msg = "unknown error"
		}
		return "", body, fmt.Errorf("supabase function reported failure: %s", msg)
	}
	content := bytes.TrimSpace(parsed.Content)
	if len(content) == 0 || string(content) == "null" {
		return "", body, errors.New("supabase response has no content")
	}
	if content[0] == '"' {
		var s string
		if err := json.Unmarshal(content, &s); err != nil {
			return "", body, fmt.Errorf("decode supabase content: %w", err)
		}
		return s, body, nil
	}
	return string(content), body, nil
}
