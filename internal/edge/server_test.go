package edge

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopherCousin/Kcal/internal/cache"
	"github.com/ChristopherCousin/Kcal/internal/config"
	"github.com/ChristopherCousin/Kcal/internal/llm"
	"github.com/ChristopherCousin/Kcal/internal/metrics"
)

type upstream struct {
	calls  int32
	status int

	mu   sync.Mutex
	seen []map[string]any
}

func (u *upstream) requests() []map[string]any {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]map[string]any(nil), u.seen...)
}

func newUpstream(t *testing.T, status int) (*upstream, *httptest.Server) {
	t.Helper()
	u := &upstream{status: status}
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&u.calls, 1)
		body, _ := io.ReadAll(r.Body)
		var got map[string]any
		_ = json.Unmarshal(body, &got)
		u.mu.Lock()
		u.seen = append(u.seen, got)
		u.mu.Unlock()
		if u.status != http.StatusOK {
			w.WriteHeader(u.status)
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
			return
		}
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"{\"foods\":[\"Rice\"],\"calories\":300}"}}]}`))
	}))
	t.Cleanup(ts.Close)
	return u, ts
}

func testConfig(endpoint, apiKey string) *config.Config {
	return &config.Config{
		AI:      config.AIConfig{Provider: config.ProviderOpenAI, Timeout: 5 * time.Second},
		OpenAI:  config.OpenAIConfig{APIKey: apiKey, Endpoint: endpoint, Model: "gpt-4o", MaxTokens: 1000},
		Cache:   config.CacheConfig{Enabled: true, Size: 1, TTL: time.Minute},
		Server:  config.ServerConfig{Host: "127.0.0.1", Port: 8787, AllowOrigin: "*"},
		Metrics: config.MetricsConfig{Enabled: true},
	}
}

func newTestServer(conf *config.Config) http.Handler {
	logger := zerolog.Nop()
	rec := metrics.New(conf.Metrics)
	analyze := NewAnalyzeFoodHandler(conf, cache.New(conf.Cache, logger), rec, logger)
	return NewServer(conf, NewRouter(conf, analyze), NewHealthHandler(analyze), rec, logger).WebServer.Handler
}

func post(t *testing.T, h http.Handler, body string, header http.Header) (*httptest.ResponseRecorder, analyzeResponse) {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, AnalyzeFoodPath, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	var resp analyzeResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp), rr.Body.String())
	return rr, resp
}

func TestPreflightAnswersOK(t *testing.T) {
	h := newTestServer(testConfig("http://unused", "sk-test"))
	req := httptest.NewRequest(http.MethodOptions, AnalyzeFoodPath, nil)
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", rr.Body.String())
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rr.Header().Get("Access-Control-Allow-Headers"), "apikey")
}

func TestImageAnalysisIsCached(t *testing.T) {
	u, ts := newUpstream(t, http.StatusOK)
	h := newTestServer(testConfig(ts.URL, "sk-test"))

	body := `{"image":"AAAA"}`
	rr, resp := post(t, h, body, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, `{"foods":["Rice"],"calories":300}`, resp.Content)
	assert.Equal(t, "MISS", rr.Header().Get("X-Cache"))
	assert.NotEmpty(t, rr.Header().Get(RequestIDHeader))

	sent := u.requests()
	require.Len(t, sent, 1)
	payload := sent[0]
	assert.EqualValues(t, imageMaxTokens, payload["max_tokens"])
	assert.EqualValues(t, temperature, payload["temperature"])
	msgs := payload["messages"].([]any)
	assert.Equal(t, llm.SystemNutritionExpert, msgs[0].(map[string]any)["content"])
	parts := msgs[1].(map[string]any)["content"].([]any)
	assert.Equal(t, DefaultImagePrompt, parts[0].(map[string]any)["text"])
	assert.Equal(t, "data:image/jpeg;base64,AAAA", parts[1].(map[string]any)["image_url"].(map[string]any)["url"])

	rr, resp = post(t, h, body, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
	assert.Equal(t, "HIT", rr.Header().Get("X-Cache"))
	assert.EqualValues(t, 1, atomic.LoadInt32(&u.calls))
}

func TestNutritionCalculationUsesTextCall(t *testing.T) {
	u, ts := newUpstream(t, http.StatusOK)
	h := newTestServer(testConfig(ts.URL, "sk-test"))

	rr, resp := post(t, h, `{"nutritionCalculation":true,"prompt":"compute my goals","profileData":{"age":30}}`, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)

	sent := u.requests()
	require.Len(t, sent, 1)
	payload := sent[0]
	assert.EqualValues(t, nutritionMaxTokens, payload["max_tokens"])
	msgs := payload["messages"].([]any)
	assert.Equal(t, llm.SystemNutritionist, msgs[0].(map[string]any)["content"])
	assert.Equal(t, "compute my goals", msgs[1].(map[string]any)["content"])
}

func TestMalformedRequestsAreRejected(t *testing.T) {
	u, ts := newUpstream(t, http.StatusOK)
	h := newTestServer(testConfig(ts.URL, "sk-test"))

	for _, body := range []string{`{not json`, `{"prompt":"no image"}`, `{"nutritionCalculation":true}`} {
		rr, resp := post(t, h, body, nil)
		assert.Equal(t, http.StatusBadRequest, rr.Code, body)
		assert.False(t, resp.Success)
		assert.NotEmpty(t, resp.Error)
	}
	assert.EqualValues(t, 0, atomic.LoadInt32(&u.calls))
}

func TestMissingKeyAndUpstreamFailuresReturn500(t *testing.T) {
	h := newTestServer(testConfig("http://unused", ""))
	rr, resp := post(t, h, `{"image":"AAAA"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.False(t, resp.Success)
	assert.Contains(t, resp.Error, "OPENAI_API_KEY")

	_, ts := newUpstream(t, http.StatusTooManyRequests)
	h = newTestServer(testConfig(ts.URL, "sk-test"))
	rr, resp = post(t, h, `{"image":"AAAA"}`, nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.Contains(t, resp.Error, "quota exceeded")
	assert.Equal(t, "*", rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestBearerTokenRequiredWhenSecretSet(t *testing.T) {
	_, ts := newUpstream(t, http.StatusOK)
	conf := testConfig(ts.URL, "sk-test")
	conf.Server.JWTSecret = "top-secret"
	h := newTestServer(conf)

	rr, resp := post(t, h, `{"image":"AAAA"}`, nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
	assert.False(t, resp.Success)

	sign := func(secret string) string {
		token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
			"role": "anon",
			"exp":  time.Now().Add(time.Hour).Unix(),
		})
		s, err := token.SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}

	rr, _ = post(t, h, `{"image":"AAAA"}`, http.Header{"Authorization": {"Bearer " + sign("wrong")}})
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr, resp = post(t, h, `{"image":"AAAA"}`, http.Header{"Authorization": {"Bearer " + sign("top-secret")}})
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, resp.Success)
}

func TestHealthMetricsAndMethodCheck(t *testing.T) {
	_, ts := newUpstream(t, http.StatusOK)
	h := newTestServer(testConfig(ts.URL, "sk-test"))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, AnalyzeFoodPath, nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rr.Code)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var health healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &health))
	assert.Equal(t, "ok", health.Status)
	assert.True(t, health.OpenAI)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "kcal_requests_total")
}

func TestFormatDuration(t *testing.T) {
	assert.Equal(t, "1h2m3s", formatDuration(time.Hour+2*time.Minute+3*time.Second))
}
