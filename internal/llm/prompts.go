package llm

import (
	"fmt"
	"strings"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

const (
	SystemNutritionExpert = "You are a nutrition expert who identifies foods in photos and estimates their nutritional values."
	SystemNutritionist    = "You are a nutritionist and personal trainer. Answer only with valid JSON."
)

// FoodPhotoPrompt asks a vision model for a per-food breakdown.
const FoodPhotoPrompt = `Analyse this food photo in detail. Identify every food present and give for each one:
1. The exact food name
2. The estimated portion in grams (be as precise as possible)
3. Nutrition per portion: kcal, protein (g), carbohydrates (g), fat (g)
4. Your confidence in the identification (0-100)

If the image does not contain food, say so clearly.

Reply ONLY with JSON in exactly this schema:
{
  "isFood": boolean,
  "message": string (optional, only when it is not food),
  "foods": [
    {
      "name": string,
      "portion": string,
      "confidence": number,
      "macros": {"kcal": number, "protein": number, "carb": number, "fat": number}
    }
  ]
}`

// FoodSummaryPrompt asks for meal totals, the shape the analyze-food
// function returns.
const FoodSummaryPrompt = `Analyse this food photo and reply in JSON:

1. Identify the foods present in the image.
2. Estimate the total calories.
3. Estimate protein, carbohydrates and fat in grams.
4. Say which goal the meal suits best (weight loss, muscle gain, ...).

Reply only with the JSON object, no extra text:
{
  "foods": [names of the foods],
  "calories": total kcal,
  "macros": {"protein": grams, "carbs": grams, "fat": grams},
  "bestFor": "goal this meal suits best"
}`

var goalNames = map[model.GoalKind]string{
	model.GoalLose:     "weight loss",
	model.GoalMaintain: "maintenance",
	model.GoalGain:     "weight gain",
}

// GoalPrompt describes a profile and requests a recommendation in the
// shape nutrition.Recommendation decodes.
func GoalPrompt(p model.UserProfile) string {
	var b strings.Builder
	b.WriteString("Calculate a personalised nutrition plan for a person with these characteristics:\n\nBASIC DATA:\n")
	fmt.Fprintf(&b, "- Sex: %s\n", p.Sex)
	fmt.Fprintf(&b, "- Age: %d years\n", p.Age)
	fmt.Fprintf(&b, "- Weight: %g kg\n", p.WeightKg)
	fmt.Fprintf(&b, "- Height: %g cm\n", p.HeightCm)
	fmt.Fprintf(&b, "- Activity level: %g\n", p.Activity)
	goal := goalNames[p.Goal]
	if goal == "" {
		goal = "maintenance"
	}
	if p.GoalOffset != nil {
		switch {
		case *p.GoalOffset < 0:
			goal += fmt.Sprintf(" (deficit of %d kcal)", -*p.GoalOffset)
		case *p.GoalOffset > 0:
			goal += fmt.Sprintf(" (surplus of %d kcal)", *p.GoalOffset)
		}
	}
	fmt.Fprintf(&b, "- Goal: %s\n", goal)

	if p.BodyFatPct != nil {
		fmt.Fprintf(&b, "\nBODY COMPOSITION:\n- Body fat: %g%%\n", *p.BodyFatPct)
	}
	var activity []string
	if p.JobType != "" {
		activity = append(activity, "- Job type: "+p.JobType)
	}
	if p.TrainingType != "" && p.TrainingType != "none" {
		activity = append(activity, "- Training type: "+p.TrainingType)
		if p.TrainingHoursPerWeek != nil {
			activity = append(activity, fmt.Sprintf("- Frequency: %g hours per week", *p.TrainingHoursPerWeek))
		}
	}
	if len(activity) > 0 {
		b.WriteString("\nWORK AND ACTIVITY:\n" + strings.Join(activity, "\n") + "\n")
	}
	var diet []string
	if p.DietType != "" && p.DietType != "standard" {
		diet = append(diet, "- Diet preference: "+p.DietType)
	}
	if p.MealsPerDay != nil {
		diet = append(diet, fmt.Sprintf("- Meals per day: %d", *p.MealsPerDay))
	}
	if len(diet) > 0 {
		b.WriteString("\nDIETARY PREFERENCES:\n" + strings.Join(diet, "\n") + "\n")
	}

	b.WriteString(`
Reply ONLY in JSON with at least these properties: bmr, maintenance, goalCalories, protein, carbs, fat, proteinPercent, carbsPercent, fatPercent, mealsPerDay, feedingWindow, recommendedFoods, foodsToAvoid, supplements.
All numeric values must be whole numbers.`)
	return b.String()
}
