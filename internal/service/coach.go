package service

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"strings"

	"github.com/ChristopherCousin/Kcal/internal/llm"
	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/provider/openai"
)

const (
	planRecentEntries     = 20
	progressRecentEntries = 50
)

type PlanMeal struct {
	Name   string      `json:"name"`
	Foods  llm.Strings `json:"foods"`
	Macros struct {
		Kcal    llm.Number `json:"kcal"`
		Protein llm.Number `json:"protein"`
		Carbs   llm.Number `json:"carbs"`
		Fat     llm.Number `json:"fat"`
	} `json:"macros"`
}

type DayPlan struct {
	Calories llm.Number `json:"calories"`
	Protein  llm.Number `json:"protein"`
	Carbs    llm.Number `json:"carbs"`
	Fat      llm.Number `json:"fat"`
	Meals    []PlanMeal `json:"meals"`
}

type NutritionPlan struct {
	WeekdayPlan DayPlan     `json:"weekdayPlan"`
	WeekendPlan DayPlan     `json:"weekendPlan"`
	Tips        llm.Strings `json:"tips"`
}

type PlanOptions struct {
	WeekdayActivity    string
	WeekendActivity    string
	DietaryPreferences []string
	FoodAllergies      []string
}

type ProgressAnalysis struct {
	AnalysisTitle      string `json:"analysisTitle"`
	Summary            string `json:"summary"`
	AlignmentWithGoals string `json:"alignmentWithGoals"`
	NutritionalBalance string `json:"nutritionalBalance"`
	Recommendations    struct {
		Dietary  llm.Strings `json:"dietary"`
		Activity llm.Strings `json:"activity"`
	} `json:"recommendations"`
	SuggestedMacros struct {
		Protein llm.Number `json:"protein"`
		Carbs   llm.Number `json:"carbs"`
		Fat     llm.Number `json:"fat"`
	} `json:"suggestedMacros"`
}

// Coach asks OpenAI for plans and progress reviews. It has no fallback.
type Coach struct {
	Client *openai.Client
}

func (c *Coach) ready() error {
	if c.Client == nil || !c.Client.Configured() {
		return fmt.Errorf("coaching needs an OpenAI key: %w", ErrProviderNotConfigured)
	}
	return nil
}

func loadCoachContext(db *sql.DB) (*model.UserProfile, *model.UserGoals, error) {
	profile, err := LoadProfile(db)
	if err != nil {
		return nil, nil, err
	}
	goals, err := LoadGoals(db)
	if err != nil {
		return nil, nil, err
	}
	if profile == nil || goals == nil {
		return nil, nil, fmt.Errorf("a saved profile and goals are required, run `kcal profile set` and `kcal goal calc` first")
	}
	return profile, goals, nil
}

func (c *Coach) GeneratePlan(ctx context.Context, db *sql.DB, opts PlanOptions) (NutritionPlan, error) {
	if err := c.ready(); err != nil {
		return NutritionPlan{}, err
	}
	profile, goals, err := loadCoachContext(db)
	if err != nil {
		return NutritionPlan{}, err
	}
	recent, err := RecentEntries(db, planRecentEntries)
	if err != nil {
		return NutritionPlan{}, err
	}
	content, _, err := c.Client.Complete(ctx, []openai.Message{openai.User(planPrompt(*profile, *goals, recent, opts))})
	if err != nil {
		return NutritionPlan{}, err
	}
	var plan NutritionPlan
	if err := llm.Decode(content, &plan); err != nil {
		return NutritionPlan{}, err
	}
	return plan, nil
}

func (c *Coach) AnalyzeProgress(ctx context.Context, db *sql.DB) (ProgressAnalysis, error) {
	if err := c.ready(); err != nil {
		return ProgressAnalysis{}, err
	}
	profile, goals, err := loadCoachContext(db)
	if err != nil {
		return ProgressAnalysis{}, err
	}
	recent, err := RecentEntries(db, progressRecentEntries)
	if err != nil {
		return ProgressAnalysis{}, err
	}
	if len(recent) == 0 {
		return ProgressAnalysis{}, fmt.Errorf("no entries logged yet")
	}
	content, _, err := c.Client.Complete(ctx, []openai.Message{openai.User(progressPrompt(*profile, *goals, AverageMacros(recent)))})
	if err != nil {
		return ProgressAnalysis{}, err
	}
	var out ProgressAnalysis
	if err := llm.Decode(content, &out); err != nil {
		return ProgressAnalysis{}, err
	}
	return out, nil
}

// AverageMacros is the mean per entry: kcal rounded, grams to one decimal.
func AverageMacros(entries []model.FoodEntry) model.Macros {
	if len(entries) == 0 {
		return model.Macros{}
	}
	avg := model.SumMacros(entries).Scale(1 / float64(len(entries)))
	return model.Macros{Kcal: math.Round(avg.Kcal), ProteinG: round1(avg.ProteinG), CarbG: round1(avg.CarbG), FatG: round1(avg.FatG)}
}

func profileLines(p model.UserProfile) string {
	return fmt.Sprintf("- Sex: %s\n- Age: %d years\n- Weight: %g kg\n- Height: %g cm\n", p.Sex, p.Age, p.WeightKg, p.HeightCm)
}

func planPrompt(p model.UserProfile, g model.UserGoals, recent []model.FoodEntry, opts PlanOptions) string {
	weekday := opts.WeekdayActivity
	if weekday == "" {
		weekday = fmt.Sprintf("%g", p.Activity)
	}
	weekend := opts.WeekendActivity
	if weekend == "" {
		weekend = weekday
	}
	var b strings.Builder
	b.WriteString("As an expert nutritionist, create a personalised nutrition plan from this data:\n\nUSER PROFILE:\n")
	b.WriteString(profileLines(p))
	fmt.Fprintf(&b, "- Weekday activity level: %s\n- Weekend activity level: %s\n", weekday, weekend)
	fmt.Fprintf(&b, "- Goal: %s\n- Daily calorie target: %d kcal\n", p.Goal, g.Kcal)
	if len(opts.DietaryPreferences) > 0 {
		fmt.Fprintf(&b, "\nDIETARY PREFERENCES: %s\n", strings.Join(opts.DietaryPreferences, ", "))
	}
	if len(opts.FoodAllergies) > 0 {
		fmt.Fprintf(&b, "FOOD ALLERGIES: %s\n", strings.Join(opts.FoodAllergies, ", "))
	}
	if len(recent) > 0 {
		names := make([]string, 0, len(recent))
		for _, e := range recent {
			names = append(names, e.Description)
		}
		fmt.Fprintf(&b, "\nRECENTLY EATEN: %s\n", strings.Join(names, ", "))
	}
	b.WriteString(`
INSTRUCTIONS:
1. Account for different activity levels on weekdays and weekends.
2. Distribute calories and macros according to the day's activity.
3. Suggest specific meals for each day type, respecting preferences and allergies.
4. Give concrete tips for following the plan.

Reply ONLY with JSON in exactly this structure:
{
  "weekdayPlan": {"calories": number, "protein": number, "carbs": number, "fat": number,
    "meals": [{"name": string, "foods": [string], "macros": {"kcal": number, "protein": number, "carbs": number, "fat": number}}]},
  "weekendPlan": {"calories": number, "protein": number, "carbs": number, "fat": number,
    "meals": [{"name": string, "foods": [string], "macros": {"kcal": number, "protein": number, "carbs": number, "fat": number}}]},
  "tips": [string]
}`)
	return b.String()
}

func progressPrompt(p model.UserProfile, g model.UserGoals, avg model.Macros) string {
	var b strings.Builder
	b.WriteString("As a personal trainer and nutritionist, analyse this user's data and give recommendations:\n\nUSER PROFILE:\n")
	b.WriteString(profileLines(p))
	fmt.Fprintf(&b, "- Activity level: %g\n", p.Activity)
	fmt.Fprintf(&b, "\nGOALS:\n- Main goal: %s\n- Daily calorie target: %d kcal\n- Protein %d g, carbs %d g, fat %d g\n", p.Goal, g.Kcal, g.ProteinG, g.CarbG, g.FatG)
	fmt.Fprintf(&b, "\nRECENT INTAKE (average per logged entry):\n- Calories: %g kcal\n- Protein: %g g\n- Carbohydrates: %g g\n- Fat: %g g\n", avg.Kcal, avg.ProteinG, avg.CarbG, avg.FatG)
	b.WriteString(`
ANALYSIS REQUIRED:
1. Judge whether current intake matches the goals.
2. Identify nutritional imbalances.
3. Recommend specific diet adjustments.
4. Suggest activity changes if needed.

Reply ONLY with JSON in exactly this structure:
{
  "analysisTitle": string,
  "summary": string,
  "alignmentWithGoals": string,
  "nutritionalBalance": string,
  "recommendations": {"dietary": [string], "activity": [string]},
  "suggestedMacros": {"protein": number, "carbs": number, "fat": number}
}`)
	return b.String()
}
