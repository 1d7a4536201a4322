// Package edge serves the analyze-food function over HTTP so the CLI's
// "supabase" provider can be pointed at a self-hosted instance.
package edge

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/cache"
	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/llm"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
	"github.com/ChristopherCousin/Kcal/internal/provider/openai"
)

const (
	AnalyzeFoodPath = "/functions/v1/analyze-food"

	DefaultImagePrompt = "Analyse this food photo and identify the foods, approximate calories and macronutrients."

	imageMaxTokens     = 800
	nutritionMaxTokens = 1000
	temperature        = 0.2
	maxBodyBytes       = 25 << 20
)

// Completer is the slice of the OpenAI client the handler needs.
type Completer interface {
	Configured() bool
	Complete(ctx context.Context, messages []openai.Message) (string, []byte, error)
}

type analyzeRequest struct {
	Image                string          `json:"image"`
	Prompt               string          `json:"prompt"`
	NutritionCalculation bool            `json:"nutritionCalculation"`
	ProfileData          json.RawMessage `json:"profileData,omitempty"`
}

type analyzeResponse struct {
	Success bool   `json:"success"`
	Content string `json:"content,omitempty"`
	Error   string `json:"error,omitempty"`
}

// badRequestError marks failures caused by the request body.
type badRequestError struct{ msg string }

func (e badRequestError) Error() string { return e.msg }

type AnalyzeFoodHandler struct {
	Vision  Completer
	Text    Completer
	Cache   cache.Cache
	Metrics metrics.Recorder
	Timeout time.Duration
	Logger  zerolog.Logger
}

// NewAnalyzeFoodHandler builds the handler with one OpenAI client per
// request kind, both at temperature 0.2.
func NewAnalyzeFoodHandler(conf *config.Config, c cache.Cache, rec metrics.Recorder, logger zerolog.Logger) *AnalyzeFoodHandler {
	temp := temperature
	vision := &openai.Client{
		APIKey:      conf.OpenAI.APIKey,
		Endpoint:    conf.OpenAI.Endpoint,
		Model:       conf.OpenAI.Model,
		MaxTokens:   imageMaxTokens,
		Temperature: &temp,
	}
	text := *vision
	text.MaxTokens = nutritionMaxTokens
	return &AnalyzeFoodHandler{
		Vision:  vision,
		Text:    &text,
		Cache:   c,
		Metrics: rec,
		Timeout: conf.AI.Timeout,
		Logger:  logger.With().Str("component", "analyze-food").Logger(),
	}
}

func (h *AnalyzeFoodHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	logger := zerolog.Ctx(r.Context())
	if logger.GetLevel() == zerolog.Disabled {
		logger = &h.Logger
	}

	if !h.Vision.Configured() || !h.Text.Configured() {
		logger.Error().Msg("openai api key not configured")
		writeJSON(w, http.StatusInternalServerError, analyzeResponse{Error: "OPENAI_API_KEY is not configured"})
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, analyzeResponse{Error: fmt.Sprintf("read request body: %v", err)})
		return
	}
	key := requestKey(body)
	if cached, ok := h.cache().Get(key); ok {
		h.recorder().IncCacheHits()
		logger.Debug().Str("key", key[len(key)-12:]).Msg("response served from cache")
		w.Header().Set("X-Cache", "HIT")
		writeRaw(w, http.StatusOK, cached)
		return
	}
	h.recorder().IncCacheMisses()

	content, err := h.analyze(r.Context(), body)
	if err != nil {
		status := http.StatusInternalServerError
		var bad badRequestError
		if errors.As(err, &bad) {
			status = http.StatusBadRequest
		}
		logger.Error().Err(err).Int("status", status).Msg("analyze-food failed")
		writeJSON(w, status, analyzeResponse{Error: err.Error()})
		return
	}

	payload, err := json.Marshal(analyzeResponse{Success: true, Content: content})
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, analyzeResponse{Error: "encode response"})
		return
	}
	h.cache().Set(key, payload)
	w.Header().Set("X-Cache", "MISS")
	writeRaw(w, http.StatusOK, payload)
}

func (h *AnalyzeFoodHandler) analyze(ctx context.Context, body []byte) (string, error) {
	var req analyzeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return "", badRequestError{msg: fmt.Sprintf("invalid JSON body: %v", err)}
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}

	if req.NutritionCalculation {
		if strings.TrimSpace(req.Prompt) == "" {
			return "", badRequestError{msg: "a prompt is required for nutrition calculation"}
		}
		content, _, err := h.Text.Complete(ctx, []openai.Message{
			openai.System(llm.SystemNutritionist),
			openai.User(req.Prompt),
		})
		if err != nil {
			return "", fmt.Errorf("openai nutrition error: %w", err)
		}
		return content, nil
	}

	if strings.TrimSpace(req.Image) == "" {
		return "", badRequestError{msg: "an image is required for analysis"}
	}
	prompt := req.Prompt
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultImagePrompt
	}
	content, _, err := h.Vision.Complete(ctx, []openai.Message{
		openai.System(llm.SystemNutritionExpert),
		openai.UserWithImage(prompt, "data:image/jpeg;base64,"+req.Image),
	})
	if err != nil {
		return "", fmt.Errorf("openai error: %w", err)
	}
	return content, nil
}

func (h *AnalyzeFoodHandler) cache() cache.Cache {
	if h.Cache == nil {
		return cache.New(config.CacheConfig{}, zerolog.Nop())
	}
	return h.Cache
}

func (h *AnalyzeFoodHandler) recorder() metrics.Recorder {
	if h.Metrics == nil {
		return metrics.Noop()
	}
	return h.Metrics
}

func requestKey(body []byte) string {
	sum := sha256.Sum256(body)
	return "analyze-food:" + hex.EncodeToString(sum[:])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	payload, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	writeRaw(w, status, payload)
}

func writeRaw(w http.ResponseWriter, status int, payload []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(payload)
}
