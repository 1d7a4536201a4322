// Package catalog holds the built-in food knowledge used when no remote
// provider is available: common meals, a small per-100g food table and
// the heuristics that turn an image label into a macro estimate.
package catalog

import (
	"math"
	"sort"
	"strings"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

type Meal struct {
	Name   string       `json:"name"`
	Macros model.Macros `json:"macros"`
}

// Food is a catalog item with macros per 100 g.
type Food struct {
	Name       string       `json:"name"`
	Brand      string       `json:"brand"`
	Per100g    model.Macros `json:"per100g"`
	ServingG   float64      `json:"servingG,omitempty"`
	ExternalID string       `json:"externalId,omitempty"`
}

var MealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

var commonMeals = map[string][]Meal{
	"breakfast": {
		{"Toast", model.Macros{Kcal: 250, ProteinG: 8, CarbG: 30, FatG: 10}},
		{"Yogurt with fruit", model.Macros{Kcal: 200, ProteinG: 15, CarbG: 25, FatG: 5}},
		{"Scrambled eggs", model.Macros{Kcal: 300, ProteinG: 18, CarbG: 5, FatG: 22}},
		{"Oats with banana", model.Macros{Kcal: 350, ProteinG: 10, CarbG: 60, FatG: 7}},
		{"Coffee with milk", model.Macros{Kcal: 80, ProteinG: 4, CarbG: 6, FatG: 4}},
		{"Plain omelette", model.Macros{Kcal: 220, ProteinG: 14, CarbG: 2, FatG: 16}},
	},
	"lunch": {
		{"Mixed salad", model.Macros{Kcal: 180, ProteinG: 5, CarbG: 15, FatG: 10}},
		{"Chicken with rice", model.Macros{Kcal: 450, ProteinG: 35, CarbG: 45, FatG: 12}},
		{"Pasta bolognese", model.Macros{Kcal: 550, ProteinG: 25, CarbG: 70, FatG: 15}},
		{"Lentil stew", model.Macros{Kcal: 380, ProteinG: 20, CarbG: 60, FatG: 4}},
		{"Ham and cheese sandwich", model.Macros{Kcal: 320, ProteinG: 15, CarbG: 30, FatG: 16}},
		{"Salmon with vegetables", model.Macros{Kcal: 400, ProteinG: 30, CarbG: 10, FatG: 25}},
	},
	"dinner": {
		{"Potato omelette", model.Macros{Kcal: 350, ProteinG: 14, CarbG: 30, FatG: 18}},
		{"Vegetable soup", model.Macros{Kcal: 150, ProteinG: 6, CarbG: 20, FatG: 5}},
		{"Baked fish", model.Macros{Kcal: 280, ProteinG: 30, CarbG: 5, FatG: 15}},
		{"Caesar salad", model.Macros{Kcal: 300, ProteinG: 15, CarbG: 10, FatG: 22}},
		{"Stir-fried tofu", model.Macros{Kcal: 320, ProteinG: 18, CarbG: 15, FatG: 20}},
		{"Mushroom scramble", model.Macros{Kcal: 250, ProteinG: 12, CarbG: 8, FatG: 18}},
	},
	"snack": {
		{"Apple", model.Macros{Kcal: 90, ProteinG: 0.5, CarbG: 22, FatG: 0.3}},
		{"Mixed nuts", model.Macros{Kcal: 180, ProteinG: 6, CarbG: 6, FatG: 15}},
		{"Protein bar", model.Macros{Kcal: 200, ProteinG: 15, CarbG: 20, FatG: 5}},
		{"Greek yogurt", model.Macros{Kcal: 130, ProteinG: 12, CarbG: 5, FatG: 6}},
		{"Banana", model.Macros{Kcal: 110, ProteinG: 1, CarbG: 27, FatG: 0.4}},
		{"Protein shake", model.Macros{Kcal: 150, ProteinG: 25, CarbG: 3, FatG: 2}},
	},
}

var commonFoods = []Food{
	{Name: "Apple", Brand: "Fresh fruit", Per100g: model.Macros{Kcal: 52, ProteinG: 0.3, CarbG: 14, FatG: 0.2}},
	{Name: "Banana", Brand: "Fresh fruit", Per100g: model.Macros{Kcal: 89, ProteinG: 1.1, CarbG: 23, FatG: 0.3}},
	{Name: "Plain yogurt", Brand: "Store brand", Per100g: model.Macros{Kcal: 60, ProteinG: 5, CarbG: 7, FatG: 1.5}},
	{Name: "Egg", Brand: "Fresh eggs", Per100g: model.Macros{Kcal: 68, ProteinG: 6, CarbG: 0.6, FatG: 4.8}},
	{Name: "Grilled chicken", Brand: "Fresh meat", Per100g: model.Macros{Kcal: 165, ProteinG: 31, CarbG: 0, FatG: 3.6}},
	{Name: "Cooked white rice", Brand: "Grain", Per100g: model.Macros{Kcal: 130, ProteinG: 2.7, CarbG: 28, FatG: 0.3}},
	{Name: "Wholemeal bread", Brand: "Bakery", Per100g: model.Macros{Kcal: 80, ProteinG: 4, CarbG: 15, FatG: 1}},
	{Name: "Whole milk", Brand: "Dairy", Per100g: model.Macros{Kcal: 65, ProteinG: 3.3, CarbG: 5, FatG: 3.6}},
	{Name: "Tuna in water", Brand: "Tinned", Per100g: model.Macros{Kcal: 108, ProteinG: 24, CarbG: 0, FatG: 1}},
	{Name: "Avocado", Brand: "Fresh fruit", Per100g: model.Macros{Kcal: 160, ProteinG: 2, CarbG: 9, FatG: 15}},
}

// CommonMeals returns the preset meals for a meal type, or nil.
func CommonMeals(mealType string) []Meal {
	meals := commonMeals[strings.ToLower(mealType)]
	out := make([]Meal, len(meals))
	copy(out, meals)
	return out
}

func FindCommonMeal(mealType, name string) (Meal, bool) {
	for _, m := range commonMeals[strings.ToLower(mealType)] {
		if strings.EqualFold(m.Name, name) {
			return m, true
		}
	}
	return Meal{}, false
}

func IsMealType(v string) bool {
	_, ok := commonMeals[strings.ToLower(v)]
	return ok
}

// SearchFoods matches query against name and brand, case-insensitively.
func SearchFoods(query string, limit int) []Food {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Food
	for _, f := range commonFoods {
		if strings.Contains(strings.ToLower(f.Name), q) || strings.Contains(strings.ToLower(f.Brand), q) {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return strings.HasPrefix(strings.ToLower(out[i].Name), q) && !strings.HasPrefix(strings.ToLower(out[j].Name), q)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// ForQuantity scales per-100g macros to grams: kcal to an integer, the
// rest to one decimal.
func ForQuantity(per100g model.Macros, grams float64) model.Macros {
	f := grams / 100
	return model.Macros{
		Kcal:     math.Round(per100g.Kcal * f),
		ProteinG: round1(per100g.ProteinG * f),
		CarbG:    round1(per100g.CarbG * f),
		FatG:     round1(per100g.FatG * f),
	}
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
