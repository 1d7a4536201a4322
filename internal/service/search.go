package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ChristopherCousin/Kcal/internal/catalog"
	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/provider/openfoodfacts"
)

const (
	SearchSourceOpenFoodFacts = "openfoodfacts"
	SearchSourceCatalog       = "catalog"

	defaultSearchLimit = 10
	maxSearchLimit     = 50
	providerTimeout    = 15 * time.Second
)

var barcodePattern = regexp.MustCompile(`^\d{8,14}$`)

type SearchResult struct {
	Source string         `json:"source"`
	Foods  []catalog.Food `json:"foods"`
}

type FoodSearcher struct {
	Client *openfoodfacts.Client
	Logger zerolog.Logger
}

// Search queries Open Food Facts and falls back to the built-in catalog
// when the provider errors or finds nothing.
func (s *FoodSearcher) Search(ctx context.Context, query string, limit int) (SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return SearchResult{}, fmt.Errorf("search query is required")
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	if s.Client != nil {
		ctx, cancel := context.WithTimeout(ctx, providerTimeout)
		products, _, err := s.Client.SearchFoods(ctx, query, limit)
		cancel()
		switch {
		case err != nil:
			s.Logger.Warn().Str("provider", SearchSourceOpenFoodFacts).Err(err).Msg("food search failed, using catalog")
		case len(products) == 0:
			s.Logger.Debug().Str("provider", SearchSourceOpenFoodFacts).Str("query", query).Msg("no remote results, using catalog")
		default:
			foods := make([]catalog.Food, 0, len(products))
			for _, p := range products {
				foods = append(foods, productToFood(p))
			}
			return SearchResult{Source: SearchSourceOpenFoodFacts, Foods: foods}, nil
		}
	}
	return SearchResult{Source: SearchSourceCatalog, Foods: catalog.SearchFoods(query, limit)}, nil
}

// LookupBarcode resolves a product by its 8-14 digit barcode.
func (s *FoodSearcher) LookupBarcode(ctx context.Context, barcode string) (catalog.Food, error) {
	barcode = strings.TrimSpace(barcode)
	if !barcodePattern.MatchString(barcode) {
		return catalog.Food{}, fmt.Errorf("invalid barcode %q (expected 8-14 digits)", barcode)
	}
	if s.Client == nil {
		return catalog.Food{}, ErrProviderNotConfigured
	}
	ctx, cancel := context.WithTimeout(ctx, providerTimeout)
	defer cancel()
	p, _, err := s.Client.LookupBarcode(ctx, barcode)
	if err != nil {
		return catalog.Food{}, err
	}
	return productToFood(p), nil
}

func productToFood(p openfoodfacts.Product) catalog.Food {
	return catalog.Food{
		Name:       p.Name,
		Brand:      p.Brand,
		Per100g:    p.Per100g,
		ServingG:   p.ServingG,
		ExternalID: p.Code,
	}
}

type AddFoodInput struct {
	Food     catalog.Food
	Grams    float64
	Meal     string
	Consumed time.Time
}

// AddFood logs grams of a per-100 g food. Zero grams means one serving,
// or 100 g when the food has no serving size.
func AddFood(db *sql.DB, in AddFoodInput) (model.FoodEntry, error) {
	if in.Grams < 0 {
		return model.FoodEntry{}, fmt.Errorf("grams must be >= 0")
	}
	if in.Grams == 0 {
		in.Grams = in.Food.ServingG
		if in.Grams <= 0 {
			in.Grams = 100
		}
	}
	desc := in.Food.Name
	if in.Food.Brand != "" {
		desc += " (" + in.Food.Brand + ")"
	}
	desc += fmt.Sprintf(" %gg", in.Grams)
	return CreateEntry(db, CreateEntryInput{
		Description: desc,
		Macros:      catalog.ForQuantity(in.Food.Per100g, in.Grams),
		Source:      model.SourceSearch,
		Meal:        in.Meal,
		Consumed:    in.Consumed,
	})
}
