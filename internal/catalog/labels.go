package catalog

import (
	"fmt"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

var foodTerms = []string{
	"food", "meal", "dish", "cuisine", "breakfast", "lunch", "dinner",
	"fruit", "vegetable", "meat", "fish", "bread", "rice", "pasta",
	"dairy", "cheese", "yogurt", "milk", "egg", "chicken", "beef", "pork",
	"seafood", "grain", "nut", "legume", "dessert",
	"comida", "alimento", "plato", "desayuno", "almuerzo", "cena",
	"fruta", "verdura", "carne", "pescado", "pan", "arroz",
	"lácteo", "queso", "yogur", "leche", "huevo", "pollo", "ternera",
	"cerdo", "marisco", "cereal", "nuez", "legumbre", "postre",
}

var nonFoodTerms = []string{
	"person", "people", "human", "car", "vehicle", "building", "furniture",
	"electronic", "gadget", "landscape", "persona", "gente", "humano",
	"coche", "vehículo", "edificio", "mueble", "electrónico", "paisaje",
}

// IsFoodLabel reports whether an image label names food. Exclusions win.
func IsFoodLabel(label string) bool {
	l := strings.ToLower(label)
	for _, term := range nonFoodTerms {
		if strings.Contains(l, term) {
			return false
		}
	}
	for _, term := range foodTerms {
		if strings.Contains(l, term) {
			return true
		}
	}
	return false
}

func FormatFoodName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return name
	}
	r, size := utf8.DecodeRuneInString(name)
	return string(unicode.ToUpper(r)) + name[size:]
}

type portionRule struct {
	terms []string
	grams int
}

var portionRules = []portionRule{
	{[]string{"arroz", "pasta", "rice"}, 100},
	{[]string{"pollo", "chicken", "carne", "meat"}, 150},
	{[]string{"fruta", "fruit"}, 80},
	{[]string{"verdura", "vegetable"}, 80},
	{[]string{"pan", "bread"}, 50},
}

const defaultPortionGrams = 100

// DefaultPortionGrams guesses a serving size from a food name.
func DefaultPortionGrams(name string) int {
	l := strings.ToLower(name)
	for _, rule := range portionRules {
		for _, term := range rule.terms {
			if strings.Contains(l, term) {
				return rule.grams
			}
		}
	}
	return defaultPortionGrams
}

type nutritionRow struct {
	keys    []string
	per100g model.Macros
}

var nutritionTable = []nutritionRow{
	{[]string{"apple", "manzana"}, model.Macros{Kcal: 52, ProteinG: 0.3, CarbG: 14, FatG: 0.2}},
	{[]string{"banana", "plátano"}, model.Macros{Kcal: 89, ProteinG: 1.1, CarbG: 23, FatG: 0.3}},
	{[]string{"orange", "naranja"}, model.Macros{Kcal: 43, ProteinG: 0.9, CarbG: 8.3, FatG: 0.1}},
	{[]string{"broccoli", "brócoli"}, model.Macros{Kcal: 34, ProteinG: 2.8, CarbG: 6, FatG: 0.4}},
	{[]string{"carrot", "zanahoria"}, model.Macros{Kcal: 41, ProteinG: 0.9, CarbG: 10, FatG: 0.2}},
	{[]string{"tomato", "tomate"}, model.Macros{Kcal: 18, ProteinG: 0.9, CarbG: 3.9, FatG: 0.2}},
	{[]string{"chicken", "pollo"}, model.Macros{Kcal: 165, ProteinG: 31, CarbG: 0, FatG: 3.6}},
	{[]string{"meat", "beef", "carne"}, model.Macros{Kcal: 250, ProteinG: 26, CarbG: 0, FatG: 15}},
	{[]string{"fish", "pescado"}, model.Macros{Kcal: 130, ProteinG: 22, CarbG: 0, FatG: 5}},
	{[]string{"egg", "huevo"}, model.Macros{Kcal: 155, ProteinG: 13, CarbG: 1.1, FatG: 11}},
	{[]string{"rice", "arroz"}, model.Macros{Kcal: 130, ProteinG: 2.7, CarbG: 28, FatG: 0.3}},
	{[]string{"pasta"}, model.Macros{Kcal: 158, ProteinG: 5.8, CarbG: 30, FatG: 0.9}},
	{[]string{"bread", "pan"}, model.Macros{Kcal: 265, ProteinG: 9, CarbG: 49, FatG: 3.2}},
	{[]string{"potato", "patata"}, model.Macros{Kcal: 77, ProteinG: 2, CarbG: 17, FatG: 0.1}},
	{[]string{"milk", "leche"}, model.Macros{Kcal: 42, ProteinG: 3.4, CarbG: 5, FatG: 1}},
	{[]string{"yogurt", "yogur"}, model.Macros{Kcal: 59, ProteinG: 3.6, CarbG: 4.7, FatG: 3.3}},
	{[]string{"cheese", "queso"}, model.Macros{Kcal: 402, ProteinG: 25, CarbG: 1.3, FatG: 33}},
}

var defaultPer100g = model.Macros{Kcal: 100, ProteinG: 5, CarbG: 15, FatG: 3}

// Per100g returns table macros for the first key contained in name and
// whether a row matched.
func Per100g(name string) (model.Macros, bool) {
	l := strings.ToLower(name)
	for _, row := range nutritionTable {
		for _, key := range row.keys {
			if strings.Contains(l, key) {
				return row.per100g, true
			}
		}
	}
	return defaultPer100g, false
}

// Estimate returns a portion label and macros for a detected food name.
func Estimate(name string) (portion string, macros model.Macros) {
	grams := DefaultPortionGrams(name)
	per100g, _ := Per100g(name)
	return fmt.Sprintf("%dg", grams), ForQuantity(per100g, float64(grams))
}

// PortionMultipliers scale quick-add estimates.
var PortionMultipliers = map[string]float64{
	"small":  0.7,
	"normal": 1.0,
	"large":  1.3,
}

const defaultQuickKcal = 200

// QuickEstimate turns a free-text description into macros. A positive
// kcal figure is used as the base, otherwise the table is consulted for
// a default portion. The base is split 20/50/30 across protein, carbs and
// fat and scaled by the portion multiplier.
func QuickEstimate(description string, kcal float64, portion string) (model.Macros, error) {
	multiplier, ok := PortionMultipliers[strings.ToLower(portion)]
	if !ok {
		return model.Macros{}, fmt.Errorf("portion must be one of small, normal, large")
	}
	base := kcal
	if base <= 0 {
		if per100g, found := Per100g(description); found {
			base = per100g.Kcal * float64(DefaultPortionGrams(description)) / 100
		} else {
			base = defaultQuickKcal
		}
	}
	return model.Macros{
		Kcal:     math.Round(base * multiplier),
		ProteinG: round1(base * 0.2 / 4 * multiplier),
		CarbG:    round1(base * 0.5 / 4 * multiplier),
		FatG:     round1(base * 0.3 / 9 * multiplier),
	}, nil
}
