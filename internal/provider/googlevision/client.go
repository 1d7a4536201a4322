package googlevision

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const (
	DefaultEndpoint   = "https://vision.googleapis.com/v1/images:annotate"
	defaultMaxResults = 15
)

var ErrNotConfigured = errors.New("google vision api key not configured")

type Client struct {
	APIKey     string
	Endpoint   string
	MaxResults int
	HTTPClient *http.Client
}

type Label struct {
	Description string  `json:"description"`
	Score       float64 `json:"score"`
}

type Vertex struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type BoundingPoly struct {
	NormalizedVertices []Vertex `json:"normalizedVertices"`
}

type LocalizedObject struct {
	Name         string        `json:"name"`
	Score        float64       `json:"score"`
	BoundingPoly *BoundingPoly `json:"boundingPoly,omitempty"`
}

// Annotation is the single-image result of a label + object request.
type Annotation struct {
	Labels  []Label           `json:"labelAnnotations"`
	Objects []LocalizedObject `json:"localizedObjectAnnotations"`
	Error   *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

type feature struct {
	Type       string `json:"type"`
	MaxResults int    `json:"maxResults"`
}

type imageContent struct {
	Content string `json:"content"`
}

type imageRequest struct {
	Image    imageContent `json:"image"`
	Features []feature    `json:"features"`
}

type annotateRequest struct {
	Requests []imageRequest `json:"requests"`
}

type annotateResponse struct {
	Responses []Annotation `json:"responses"`
}

func (c *Client) Configured() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// Annotate runs label and object detection over a base64 image (no data:
// prefix).
func (c *Client) Annotate(ctx context.Context, imageBase64 string) (Annotation, []byte, error) {
	if !c.Configured() {
		return Annotation{}, nil, ErrNotConfigured
	}
	endpoint := strings.TrimSpace(c.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	maxResults := c.MaxResults
	if maxResults <= 0 {
		maxResults = defaultMaxResults
	}
	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	payload, err := json.Marshal(annotateRequest{Requests: []imageRequest{{
		Image: imageContent{Content: imageBase64},
		Features: []feature{
			{Type: "LABEL_DETECTION", MaxResults: maxResults},
			{Type: "OBJECT_LOCALIZATION", MaxResults: maxResults},
		},
	}}})
	if err != nil {
		return Annotation{}, nil, fmt.Errorf("encode vision request: %w", err)
	}

	u := endpoint + "?key=" + url.QueryEscape(c.APIKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return Annotation{}, nil, fmt.Errorf("create vision request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := httpClient.Do(req)
	if err != nil {
		return Annotation{}, nil, fmt.Errorf("execute vision request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Annotation{}, nil, fmt.Errorf("read vision response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Annotation{}, raw, fmt.Errorf("vision request failed with status %d", resp.StatusCode)
	}

	var parsed annotateResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return Annotation{}, raw, fmt.Errorf("decode vision response: %w", err)
	}
	if len(parsed.Responses) == 0 {
		return Annotation{}, raw, errors.New("vision response is empty")
	}
	ann := parsed.Responses[0]
	if ann.Error != nil && ann.Error.Message != "" {
		return Annotation{}, raw, fmt.Errorf("vision annotate error: %s", ann.Error.Message)
	}
	return ann, raw, nil
}
