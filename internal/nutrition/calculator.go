package nutrition

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

const (
	ProteinPerKg      = 1.8
	FatShare          = 0.25
	DefaultGoalOffset = 500

	kcalPerGramProtein = 4
	kcalPerGramCarb    = 4
	kcalPerGramFat     = 9
)

const SourceLocal = "local"

// activityLevels maps named activity levels to their TDEE multiplier.
var activityLevels = map[string]float64{
	"sedentary":   1.2,
	"light":       1.375,
	"moderate":    1.55,
	"active":      1.725,
	"very_active": 1.9,
}

// ParseActivity accepts either a named level or a numeric multiplier.
func ParseActivity(raw string) (float64, error) {
	key := strings.ToLower(strings.TrimSpace(raw))
	if v, ok := activityLevels[key]; ok {
		return v, nil
	}
	v, err := strconv.ParseFloat(key, 64)
	if err != nil {
		return 0, fmt.Errorf("activity must be a number or one of %s", strings.Join(ActivityLevelNames(), ", "))
	}
	return v, nil
}

func ActivityLevelNames() []string {
	names := make([]string, 0, len(activityLevels))
	for name := range activityLevels {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return activityLevels[names[i]] < activityLevels[names[j]] })
	return names
}

// Recommendation is the result of a goal calculation, local or remote.
type Recommendation struct {
	BMR              float64  `json:"bmr"`
	Maintenance      int      `json:"maintenance"`
	GoalCalories     int      `json:"goalCalories"`
	ProteinG         int      `json:"protein"`
	CarbG            int      `json:"carbs"`
	FatG             int      `json:"fat"`
	ProteinPercent   int      `json:"proteinPercent"`
	CarbPercent      int      `json:"carbsPercent"`
	FatPercent       int      `json:"fatPercent"`
	MealsPerDay      int      `json:"mealsPerDay,omitempty"`
	FeedingWindow    string   `json:"feedingWindow,omitempty"`
	RecommendedFoods []string `json:"recommendedFoods,omitempty"`
	FoodsToAvoid     []string `json:"foodsToAvoid,omitempty"`
	Supplements      []string `json:"supplements,omitempty"`
	Source           string   `json:"source"`
	Warnings         []string `json:"warnings,omitempty"`
}

func (r Recommendation) Goals() model.UserGoals {
	return model.UserGoals{Kcal: r.GoalCalories, ProteinG: r.ProteinG, CarbG: r.CarbG, FatG: r.FatG}
}

// BMR is the Mifflin-St Jeor basal metabolic rate, left unrounded.
func BMR(sex model.Sex, age int, weightKg, heightCm float64) float64 {
	bmr := 10*weightKg + 6.25*heightCm - 5*float64(age)
	if sex == model.SexMale {
		return bmr + 5
	}
	return bmr - 161
}

func Maintenance(bmr, activity float64) int {
	return int(math.Round(bmr * activity))
}

// GoalCalories applies an explicit offset when given, otherwise the
// fixed offset for the goal kind.
func GoalCalories(maintenance int, goal model.GoalKind, offset *int) int {
	if offset != nil {
		return maintenance + *offset
	}
	switch goal {
	case model.GoalLose:
		return maintenance - DefaultGoalOffset
	case model.GoalGain:
		return maintenance + DefaultGoalOffset
	default:
		return maintenance
	}
}

// MacroSplit returns protein, carb and fat grams for a calorie target.
// Carbs take whatever remains and are floored at zero.
func MacroSplit(goalKcal int, weightKg float64) (protein, carb, fat int) {
	protein = nonNegative(int(math.Round(weightKg * ProteinPerKg)))
	fat = nonNegative(int(math.Round(float64(goalKcal) * FatShare / kcalPerGramFat)))
	remainder := float64(goalKcal - protein*kcalPerGramProtein - fat*kcalPerGramFat)
	carb = nonNegative(int(math.Round(remainder / kcalPerGramCarb)))
	return protein, carb, fat
}

// Compute runs the deterministic calculator. The profile must already
// pass ValidateProfile.
func Compute(p model.UserProfile) (Recommendation, error) {
	if err := ValidateProfile(p); err != nil {
		return Recommendation{}, err
	}
	bmr := BMR(p.Sex, p.Age, p.WeightKg, p.HeightCm)
	maintenance := Maintenance(bmr, p.Activity)
	goal := nonNegative(GoalCalories(maintenance, p.Goal, p.GoalOffset))
	protein, carb, fat := MacroSplit(goal, p.WeightKg)

	rec := Recommendation{
		BMR:          bmr,
		Maintenance:  maintenance,
		GoalCalories: goal,
		ProteinG:     protein,
		CarbG:        carb,
		FatG:         fat,
		Source:       SourceLocal,
	}
	if p.MealsPerDay != nil {
		rec.MealsPerDay = *p.MealsPerDay
	}
	rec.fillPercents()
	rec.Warnings = SafetyWarnings(rec.Goals())
	return rec, nil
}

// FillMissing completes a remote recommendation with locally derived
// values for every field the provider left empty. Missing carbs take the
// energy left after the protein and fat actually in rec.
func FillMissing(rec Recommendation, p model.UserProfile) Recommendation {
	local, err := Compute(p)
	if err != nil {
		return rec
	}
	if rec.BMR <= 0 {
		rec.BMR = local.BMR
	}
	if rec.Maintenance <= 0 {
		rec.Maintenance = local.Maintenance
	}
	if rec.GoalCalories <= 0 {
		rec.GoalCalories = local.GoalCalories
	}
	protein, _, fat := MacroSplit(rec.GoalCalories, p.WeightKg)
	if rec.ProteinG <= 0 {
		rec.ProteinG = protein
	}
	if rec.FatG <= 0 {
		rec.FatG = fat
	}
	if rec.CarbG <= 0 {
		rec.CarbG = nonNegative(int(math.Round(float64(rec.GoalCalories-rec.ProteinG*kcalPerGramProtein-rec.FatG*kcalPerGramFat) / kcalPerGramCarb)))
	}
	if rec.ProteinPercent <= 0 || rec.CarbPercent <= 0 || rec.FatPercent <= 0 {
		rec.fillPercents()
	}
	if rec.MealsPerDay <= 0 {
		rec.MealsPerDay = local.MealsPerDay
	}
	rec.Warnings = SafetyWarnings(rec.Goals())
	return rec
}

func (r *Recommendation) fillPercents() {
	if r.GoalCalories <= 0 {
		r.ProteinPercent, r.CarbPercent, r.FatPercent = 0, 0, 0
		return
	}
	total := float64(r.GoalCalories)
	r.ProteinPercent = int(math.Round(float64(r.ProteinG*kcalPerGramProtein) / total * 100))
	r.CarbPercent = int(math.Round(float64(r.CarbG*kcalPerGramCarb) / total * 100))
	r.FatPercent = int(math.Round(float64(r.FatG*kcalPerGramFat) / total * 100))
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
