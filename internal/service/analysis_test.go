package service_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/provider/googlevision"
	"github.com/ChristopherCousin/Kcal/internal/provider/openai"
	"github.com/ChristopherCousin/Kcal/internal/provider/supabase"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

func testImage(t *testing.T) service.Image {
	t.Helper()
	img, err := service.NewImage("meal.png", pngHeader)
	if err != nil {
		t.Fatalf("new image: %v", err)
	}
	return img
}

func TestLoadImageRejectsNonImages(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	text := filepath.Join(dir, "notes.txt")
	if err := os.WriteFile(text, []byte("hello world"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := service.LoadImage(text); err == nil {
		t.Fatalf("expected non-image rejection")
	}

	png := filepath.Join(dir, "meal.png")
	if err := os.WriteFile(png, pngHeader, 0o644); err != nil {
		t.Fatal(err)
	}
	img, err := service.LoadImage(png)
	if err != nil {
		t.Fatalf("load png: %v", err)
	}
	if img.MIME != "image/png" || len(img.SHA256) != 64 || img.DataURL()[:22] != "data:image/png;base64," {
		t.Fatalf("unexpected image %+v", img.MIME)
	}

	stored, err := service.StorePhoto(filepath.Join(dir, "photos"), img)
	if err != nil {
		t.Fatalf("store photo: %v", err)
	}
	if filepath.Ext(stored) != ".png" {
		t.Fatalf("unexpected stored name %s", stored)
	}
}

func TestOpenAIVisionResultIsCached(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	client, hits := fakeOpenAI(t, `{"isFood":true,"foods":[{"name":"grilled chicken","portion":150,"confidence":"92","macros":{"kcal":248,"protein":46.5,"carb":0,"fat":5.4}}]}`)
	analyzer := &service.PhotoAnalyzer{
		Analyzers: []service.FoodAnalyzer{&service.OpenAIVision{Client: client}},
		DB:        db,
		Logger:    zerolog.Nop(),
	}
	img := testImage(t)
	first, err := analyzer.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(first.Foods) != 1 || first.Foods[0].Name != "Grilled chicken" || first.Foods[0].Portion != "150" || first.Foods[0].Confidence != 92 {
		t.Fatalf("unexpected foods %+v", first.Foods)
	}
	if first.FromCache {
		t.Fatalf("first call should not come from cache")
	}

	second, err := analyzer.Analyze(context.Background(), img)
	if err != nil {
		t.Fatalf("analyze again: %v", err)
	}
	if !second.FromCache || atomic.LoadInt32(hits) != 1 {
		t.Fatalf("expected cached result without a second call, hits=%d", *hits)
	}
	if second.Foods[0].Macros != first.Foods[0].Macros {
		t.Fatalf("cached macros differ: %+v vs %+v", second.Foods[0].Macros, first.Foods[0].Macros)
	}

	purged, err := service.PurgeAnalysisCache(db, true)
	if err != nil || purged != 1 {
		t.Fatalf("expected one purged row, got %d %v", purged, err)
	}
}

func TestNotFoodStopsTheChain(t *testing.T) {
	t.Parallel()

	client, _ := fakeOpenAI(t, `{"isFood":false,"message":"That is a cat."}`)
	var visionHits int32
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&visionHits, 1)
	}))
	defer vision.Close()

	analyzer := &service.PhotoAnalyzer{
		Analyzers: []service.FoodAnalyzer{
			&service.OpenAIVision{Client: client},
			&service.GoogleVision{Client: &googlevision.Client{APIKey: "k", Endpoint: vision.URL, HTTPClient: vision.Client()}},
		},
		Logger: zerolog.Nop(),
	}
	_, err := analyzer.Analyze(context.Background(), testImage(t))
	if !errors.Is(err, service.ErrNotFood) {
		t.Fatalf("expected ErrNotFood, got %v", err)
	}
	if visionHits != 0 {
		t.Fatalf("alternate provider should not be called")
	}
}

func TestFailingPrimaryFallsBackToGoogleVision(t *testing.T) {
	t.Parallel()

	broken := failingServer(t, 500)
	vision := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"responses":[{
  "labelAnnotations":[
    {"description":"Food","score":0.99},
    {"description":"Table","score":0.95},
    {"description":"Rice","score":0.90},
    {"description":"Chicken meat","score":0.85}
  ],
  "localizedObjectAnnotations":[
    {"name":"Rice","score":0.7,"boundingPoly":{"normalizedVertices":[{"x":0.1,"y":0.1}]}},
    {"name":"Bread","score":0.95}
  ]
}]}`))
	}))
	defer vision.Close()

	analyzer := &service.PhotoAnalyzer{
		Analyzers: service.PhotoAnalyzers("openai",
			&openai.Client{APIKey: "k", Endpoint: broken.URL, HTTPClient: broken.Client()},
			&googlevision.Client{APIKey: "k", Endpoint: vision.URL, HTTPClient: vision.Client()},
			&supabase.Client{}),
		Logger: zerolog.Nop(),
	}
	res, err := analyzer.Analyze(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if res.Provider != "google_vision" || len(res.Attempts) != 2 {
		t.Fatalf("unexpected provider trail %s %v", res.Provider, res.Attempts)
	}
	names := []string{}
	for _, f := range res.Foods {
		names = append(names, f.Name)
	}
	want := []string{"Food", "Bread", "Rice", "Chicken meat"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
	for _, f := range res.Foods {
		if f.Name == "Rice" {
			if f.Position == nil || f.Portion != "100g" || f.Macros.Kcal != 130 {
				t.Fatalf("unexpected rice estimate %+v", f)
			}
		}
		if f.Name == "Chicken meat" && f.Portion != "150g" {
			t.Fatalf("unexpected chicken portion %q", f.Portion)
		}
	}
}

func TestSupabaseTotalsSplitAcrossFoods(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"success":true,"content":"{\"foods\":[\"pasta\",\"salad\"],\"calories\":700,\"macros\":{\"protein\":25,\"carbs\":90,\"fat\":21},\"bestFor\":\"muscle gain\"}"}`))
	}))
	defer ts.Close()

	analyzer := &service.PhotoAnalyzer{
		Analyzers: []service.FoodAnalyzer{&service.SupabaseVision{Client: &supabase.Client{ProjectURL: ts.URL, APIKey: "anon", HTTPClient: ts.Client()}}},
		Logger:    zerolog.Nop(),
	}
	res, err := analyzer.Analyze(context.Background(), testImage(t))
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if len(res.Foods) != 2 || res.BestFor != "muscle gain" {
		t.Fatalf("unexpected result %+v", res)
	}
	for _, f := range res.Foods {
		if f.Confidence != 90 || f.Macros != (model.Macros{Kcal: 350, ProteinG: 12.5, CarbG: 45, FatG: 10.5}) {
			t.Fatalf("unexpected split %+v", f)
		}
	}
	if res.Totals().Kcal != 700 {
		t.Fatalf("expected totals to add back up, got %v", res.Totals().Kcal)
	}
}

func TestNoProviderConfigured(t *testing.T) {
	t.Parallel()

	analyzer := &service.PhotoAnalyzer{
		Analyzers: service.PhotoAnalyzers("openai", &openai.Client{}, &googlevision.Client{}, &supabase.Client{}),
		Logger:    zerolog.Nop(),
	}
	_, err := analyzer.Analyze(context.Background(), testImage(t))
	if !errors.Is(err, service.ErrAllProvidersFailed) {
		t.Fatalf("expected failure without simulated result, got %v", err)
	}
}

func TestLogAnalysisCreatesPhotoEntries(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	a := service.Analysis{Provider: "openai", Foods: []service.DetectedFood{
		{Name: "Rice", Portion: "100g", Macros: model.Macros{Kcal: 130, ProteinG: 2.7, CarbG: 28, FatG: 0.3}},
		{Name: "Chicken", Portion: "150g", Macros: model.Macros{Kcal: 248, ProteinG: 46.5, FatG: 5.4}},
	}}
	entries, err := service.LogAnalysis(db, a, "dinner", "/tmp/photo.png", at("2026-03-10", 20))
	if err != nil {
		t.Fatalf("log analysis: %v", err)
	}
	if len(entries) != 2 || entries[0].Source != model.SourceAIPhoto || entries[1].Description != "Chicken (150g)" {
		t.Fatalf("unexpected entries %+v", entries)
	}
	totals, err := service.DayTotals(db, at("2026-03-10", 0))
	if err != nil || totals.Kcal != 378 {
		t.Fatalf("unexpected totals %+v %v", totals, err)
	}
	if _, err := service.LogAnalysis(db, service.Analysis{}, "", "", at("2026-03-10", 20)); err == nil {
		t.Fatalf("expected error for empty analysis")
	}
}

func TestLogAnalysisIsAllOrNothing(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	a := service.Analysis{Provider: "openai", Foods: []service.DetectedFood{
		{Name: "Rice", Portion: "100g", Macros: model.Macros{Kcal: 130}},
		{Name: "Broken", Portion: "1", Macros: model.Macros{Kcal: -5}},
	}}
	if _, err := service.LogAnalysis(db, a, "lunch", "", at("2026-03-11", 13)); err == nil {
		t.Fatalf("expected error for negative kcal")
	}
	if _, err := service.LogAnalysis(db, a, "brunch", "", at("2026-03-11", 13)); err == nil {
		t.Fatalf("expected error for unknown meal")
	}
	entries, err := service.EntriesForDay(db, at("2026-03-11", 0))
	if err != nil || len(entries) != 0 {
		t.Fatalf("expected no entries after failed logs, got %+v %v", entries, err)
	}
}
