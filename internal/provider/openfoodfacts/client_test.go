package openfoodfacts

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestLookupBarcodeParsesPer100g(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v2/product/12345678.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
  "status": 1,
  "product": {
    "product_name": "Yogurt Cup",
    "brands": "Brand Co",
    "serving_quantity": 170,
    "serving_quantity_unit": "g",
    "nutriments": {
      "energy-kcal_100g": 70,
      "energy-kcal_serving": 119,
      "proteins_100g": 6,
      "carbohydrates_100g": "9.5",
      "fat_100g": 1.2
    }
  }
}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	item, _, err := c.LookupBarcode(context.Background(), "12345678")
	if err != nil {
		t.Fatalf("lookup barcode: %v", err)
	}
	if item.Name != "Yogurt Cup" || item.Per100g.Kcal != 70 || item.Per100g.CarbG != 9.5 || item.ServingG != 170 {
		t.Fatalf("unexpected parsed item: %+v", item)
	}
	if item.Code != "12345678" {
		t.Fatalf("expected barcode as code, got %q", item.Code)
	}
}

func TestSearchFoodsSkipsUnnamedProducts(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search_terms"); got != "greek yogurt" {
			t.Errorf("unexpected search terms %q", got)
		}
		if !strings.Contains(r.Header.Get("User-Agent"), "kcal") {
			t.Errorf("missing user agent")
		}
		_, _ = w.Write([]byte(`{"products": [
  {"code": "1", "product_name": "", "nutriments": {}},
  {"code": "2", "product_name": "Greek Yogurt", "brands": "Dairy", "serving_size": "150 g",
   "nutriments": {"energy-kcal_100g": 97, "proteins_100g": 9, "carbohydrates_100g": 4, "fat_100g": 5}}
]}`))
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	items, _, err := c.SearchFoods(context.Background(), " greek yogurt ", 5)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(items) != 1 || items[0].Code != "2" || items[0].ServingG != 150 || items[0].Per100g.ProteinG != 9 {
		t.Fatalf("unexpected items: %+v", items)
	}
}

func TestSearchFoodsReportsHTTPFailure(t *testing.T) {
	t.Parallel()

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	c := &Client{BaseURL: ts.URL, HTTPClient: ts.Client()}
	if _, _, err := c.SearchFoods(context.Background(), "rice", 5); err == nil || !strings.Contains(err.Error(), "503") {
		t.Fatalf("expected status error, got %v", err)
	}
}
