package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ChristopherCousin/Kcal/internal/catalog"
	"github.com/ChristopherCousin/Kcal/internal/model"
)

type QuickAddInput struct {
	Description string
	Kcal        float64
	Portion     string
	Meal        string
	Consumed    time.Time
}

// QuickAdd logs an estimate built from a description and an optional
// kcal figure.
func QuickAdd(db *sql.DB, in QuickAddInput) (model.FoodEntry, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return model.FoodEntry{}, fmt.Errorf("description is required")
	}
	if in.Kcal < 0 {
		return model.FoodEntry{}, fmt.Errorf("kcal must be >= 0")
	}
	if in.Portion == "" {
		in.Portion = "normal"
	}
	macros, err := catalog.QuickEstimate(in.Description, in.Kcal, in.Portion)
	if err != nil {
		return model.FoodEntry{}, err
	}
	desc := in.Description
	if p := strings.ToLower(in.Portion); p != "normal" {
		desc += " (" + p + ")"
	}
	return CreateEntry(db, CreateEntryInput{
		Description: desc,
		Macros:      macros,
		Source:      model.SourceQuickAdd,
		Meal:        in.Meal,
		Consumed:    in.Consumed,
	})
}

// AddCommonMeal logs a preset meal under its own meal type.
func AddCommonMeal(db *sql.DB, mealType, name string, consumed time.Time) (model.FoodEntry, error) {
	if !catalog.IsMealType(mealType) {
		return model.FoodEntry{}, fmt.Errorf("unknown meal type %q (use %s)", mealType, strings.Join(catalog.MealTypes, ", "))
	}
	meal, ok := catalog.FindCommonMeal(mealType, name)
	if !ok {
		return model.FoodEntry{}, fmt.Errorf("no common %s meal named %q", normalizeName(mealType), name)
	}
	return CreateEntry(db, CreateEntryInput{
		Description: meal.Name,
		Macros:      meal.Macros,
		Source:      model.SourceCommonMeal,
		Meal:        mealType,
		Consumed:    consumed,
	})
}
