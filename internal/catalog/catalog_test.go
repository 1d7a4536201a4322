package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

func TestCommonMealsPerType(t *testing.T) {
	for _, mealType := range MealTypes {
		meals := CommonMeals(mealType)
		assert.Len(t, meals, 6, mealType)
	}
	assert.Empty(t, CommonMeals("brunch"))

	meal, ok := FindCommonMeal("LUNCH", "chicken with rice")
	require.True(t, ok)
	assert.Equal(t, 450.0, meal.Macros.Kcal)
}

func TestCommonMealsReturnsCopy(t *testing.T) {
	meals := CommonMeals("snack")
	meals[0].Name = "changed"
	assert.Equal(t, "Apple", CommonMeals("snack")[0].Name)
}

func TestSearchFoodsPrefersPrefixMatches(t *testing.T) {
	results := SearchFoods("fruit", 0)
	require.Len(t, results, 3)

	results = SearchFoods("egg", 5)
	require.NotEmpty(t, results)
	assert.Equal(t, "Egg", results[0].Name)

	assert.Nil(t, SearchFoods("   ", 5))
	assert.Len(t, SearchFoods("e", 2), 2)
}

func TestForQuantityRounding(t *testing.T) {
	got := ForQuantity(model.Macros{Kcal: 165, ProteinG: 31, CarbG: 0, FatG: 3.6}, 150)
	assert.Equal(t, model.Macros{Kcal: 248, ProteinG: 46.5, CarbG: 0, FatG: 5.4}, got)
}

func TestIsFoodLabel(t *testing.T) {
	assert.True(t, IsFoodLabel("Fried rice"))
	assert.True(t, IsFoodLabel("Chicken meat"))
	assert.False(t, IsFoodLabel("Person eating"))
	assert.False(t, IsFoodLabel("Table"))
}

func TestEstimateUsesPortionRules(t *testing.T) {
	portion, macros := Estimate("Chicken")
	assert.Equal(t, "150g", portion)
	assert.Equal(t, 248.0, macros.Kcal)

	portion, macros = Estimate("Mystery stew")
	assert.Equal(t, "100g", portion)
	assert.Equal(t, defaultPer100g, macros)

	assert.Equal(t, "Bread", FormatFoodName("bread"))
}

func TestQuickEstimate(t *testing.T) {
	m, err := QuickEstimate("something", 300, "large")
	require.NoError(t, err)
	assert.Equal(t, 390.0, m.Kcal)
	assert.Equal(t, 19.5, m.ProteinG)
	assert.Equal(t, 48.8, m.CarbG)
	assert.Equal(t, 13.0, m.FatG)

	m, err = QuickEstimate("unknown dish", 0, "normal")
	require.NoError(t, err)
	assert.Equal(t, 200.0, m.Kcal)

	m, err = QuickEstimate("banana", 0, "normal")
	require.NoError(t, err)
	assert.Equal(t, 89.0, m.Kcal)

	_, err = QuickEstimate("x", 100, "huge")
	assert.Error(t, err)
}
