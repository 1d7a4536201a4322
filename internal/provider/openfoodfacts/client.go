package openfoodfacts

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

const (
	defaultBaseURL = "https://world.openfoodfacts.org"
	userAgent      = "kcal/1.0 (+https://github.com/ChristopherCousin/Kcal)"
)

// Product is an Open Food Facts item normalised to per-100g macros.
type Product struct {
	Code     string
	Name     string
	Brand    string
	Per100g  model.Macros
	ServingG float64
}

type Client struct {
	BaseURL    string
	HTTPClient *http.Client
}

func (c *Client) base() string {
	base := strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if base == "" {
		return defaultBaseURL
	}
	return base
}

func (c *Client) httpClient() *http.Client {
	if c.HTTPClient == nil {
		return &http.Client{Timeout: 12 * time.Second}
	}
	return c.HTTPClient
}

func (c *Client) get(ctx context.Context, u, what string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create openfoodfacts %s request: %w", what, err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute openfoodfacts %s request: %w", what, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read openfoodfacts %s response: %w", what, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return body, fmt.Errorf("openfoodfacts %s request failed with status %d", what, resp.StatusCode)
	}
	return body, nil
}

func (c *Client) LookupBarcode(ctx context.Context, barcode string) (Product, []byte, error) {
	u := fmt.Sprintf("%s/api/v2/product/%s.json", c.base(), url.PathEscape(strings.TrimSpace(barcode)))
	body, err := c.get(ctx, u, "product")
	if err != nil {
		return Product{}, body, err
	}

	var parsed offResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return Product{}, body, fmt.Errorf("decode openfoodfacts response: %w", err)
	}
	if parsed.Status != 1 || strings.TrimSpace(parsed.Product.ProductName) == "" {
		return Product{}, body, fmt.Errorf("no openfoodfacts product found for barcode %q", barcode)
	}
	p := toProduct(parsed.Product)
	if p.Code == "" {
		p.Code = barcode
	}
	return p, body, nil
}

func (c *Client) SearchFoods(ctx context.Context, query string, limit int) ([]Product, []byte, error) {
	if limit <= 0 {
		limit = 10
	}
	u := fmt.Sprintf("%s/cgi/search.pl?search_terms=%s&search_simple=1&action=process&json=1&page_size=%d",
		c.base(),
		url.QueryEscape(strings.TrimSpace(query)),
		limit,
	)
	body, err := c.get(ctx, u, "search")
	if err != nil {
		return nil, body, err
	}
	var parsed offSearchResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, body, fmt.Errorf("decode openfoodfacts search response: %w", err)
	}
	out := make([]Product, 0, len(parsed.Products))
	for _, p := range parsed.Products {
		if strings.TrimSpace(p.ProductName) == "" {
			continue
		}
		out = append(out, toProduct(p))
	}
	if len(out) == 0 {
		return nil, body, fmt.Errorf("no openfoodfacts product found for query %q", query)
	}
	return out, body, nil
}

func toProduct(p offProduct) Product {
	code := strings.TrimSpace(p.Code)
	if code == "" {
		code = strings.TrimSpace(p.ID)
	}
	return Product{
		Code:  code,
		Name:  strings.TrimSpace(p.ProductName),
		Brand: strings.TrimSpace(p.Brands),
		Per100g: model.Macros{
			Kcal:     nutrientPer100g(p.Nutriments, "energy-kcal"),
			ProteinG: nutrientPer100g(p.Nutriments, "proteins"),
			CarbG:    nutrientPer100g(p.Nutriments, "carbohydrates"),
			FatG:     nutrientPer100g(p.Nutriments, "fat"),
		},
		ServingG: servingGrams(p),
	}
}

// nutrientPer100g prefers the _100g figure and falls back to the bare key,
// which Open Food Facts reports per 100g for most products.
func nutrientPer100g(n map[string]any, base string) float64 {
	for _, key := range []string{base + "_100g", base} {
		if v, ok := parseFloatAny(n[key]); ok {
			return v
		}
	}
	return 0
}

func parseFloatAny(v any) (float64, bool) {
	switch t := v.(type) {
	case float64:
		return t, true
	case int64:
		return float64(t), true
	case json.Number:
		f, err := t.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// servingGrams returns the serving size in grams, or 0 when unknown or
// expressed in another unit.
func servingGrams(p offProduct) float64 {
	if p.ServingQuantity > 0 {
		unit := strings.ToLower(strings.TrimSpace(p.ServingQuantityUnit))
		if unit == "" || unit == "g" || unit == "ml" {
			return p.ServingQuantity
		}
		return 0
	}
	parts := strings.Fields(strings.TrimSpace(p.ServingSize))
	if len(parts) >= 2 && (strings.EqualFold(parts[1], "g") || strings.EqualFold(parts[1], "ml")) {
		if val, err := strconv.ParseFloat(strings.ReplaceAll(parts[0], ",", "."), 64); err == nil && val > 0 {
			return val
		}
	}
	return 0
}

type offResponse struct {
	Status  int        `json:"status"`
	Product offProduct `json:"product"`
}

type offProduct struct {
	ID                  string         `json:"_id"`
	Code                string         `json:"code"`
	ProductName         string         `json:"product_name"`
	Brands              string         `json:"brands"`
	ServingSize         string         `json:"serving_size"`
	ServingQuantity     float64        `json:"serving_quantity"`
	ServingQuantityUnit string         `json:"serving_quantity_unit"`
	Nutriments          map[string]any `json:"nutriments"`
}

type offSearchResponse struct {
	Products []offProduct `json:"products"`
}
