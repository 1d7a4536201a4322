package supabase

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAnalyzeFoodUnquotesStringContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, functionPath, r.URL.Path)
		assert.Equal(t, "Bearer anon", r.Header.Get("Authorization"))
		body, _ := io.ReadAll(r.Body)
		var req Request
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, "QUJD", req.Image)
		assert.False(t, req.NutritionCalculation)
		_, _ = w.Write([]byte(`{"success":true,"content":"{\"foods\":[\"rice\"],\"calories\":300}"}`))
	}))
	defer ts.Close()

	c := &Client{ProjectURL: ts.URL + "/", APIKey: "anon", HTTPClient: ts.Client()}
	content, _, err := c.AnalyzeFood(context.Background(), "QUJD", "analyse")
	require.NoError(t, err)
	assert.Equal(t, `{"foods":["rice"],"calories":300}`, content)
}

func TestCalculateNutritionPassesProfileAndObjectContent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		assert.NoError(t, json.Unmarshal(body, &req))
		assert.Equal(t, true, req["nutritionCalculation"])
		assert.EqualValues(t, 30, req["profileData"].(map[string]any)["age"])
		_, _ = w.Write([]byte(`{"success":true,"content":{"goalCalories":2100}}`))
	}))
	defer ts.Close()

	c := &Client{ProjectURL: ts.URL, APIKey: "anon", HTTPClient: ts.Client()}
	content, _, err := c.CalculateNutrition(context.Background(), "calc", map[string]any{"age": 30})
	require.NoError(t, err)
	assert.JSONEq(t, `{"goalCalories":2100}`, content)
}

func TestInvokeFailures(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"success":false,"error":"OPENAI_API_KEY missing"}`))
	}))
	defer ts.Close()

	c := &Client{ProjectURL: ts.URL, APIKey: "anon", HTTPClient: ts.Client()}
	_, _, err := c.AnalyzeFood(context.Background(), "x", "p")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "OPENAI_API_KEY missing")

	_, _, err = (&Client{ProjectURL: ts.URL}).AnalyzeFood(context.Background(), "x", "p")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
