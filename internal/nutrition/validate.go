package nutrition

import (
	"errors"
	"fmt"

	"github.com/gookit/validate"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

const (
	MinAge      = 15
	MaxAge      = 100
	MinWeightKg = 30
	MinHeightCm = 100
	MinActivity = 1.0
	MaxActivity = 2.5
)

// Safety floors for calculated targets; below these a warning is raised.
const (
	SafeMinKcal    = 1200
	SafeMinProtein = 30
	SafeMinCarb    = 30
	SafeMinFat     = 15
)

// Hard floors for manually entered goals.
const (
	ManualMinKcal    = 500
	ManualMinProtein = 10
	ManualMinCarb    = 10
	ManualMinFat     = 5
)

var ErrInvalidProfile = errors.New("invalid profile")

type profileRules struct {
	Age      int     `validate:"required"`
	Sex      string  `validate:"required|in:male,female"`
	WeightKg float64 `validate:"required"`
	HeightCm float64 `validate:"required"`
	Activity float64 `validate:"required"`
	Goal     string  `validate:"required|in:lose,maintain,gain"`
}

func ValidateProfile(p model.UserProfile) error {
	v := validate.Struct(&profileRules{
		Age:      p.Age,
		Sex:      string(p.Sex),
		WeightKg: p.WeightKg,
		HeightCm: p.HeightCm,
		Activity: p.Activity,
		Goal:     string(p.Goal),
	})
	if !v.Validate() {
		return fmt.Errorf("%w: %s", ErrInvalidProfile, v.Errors.One())
	}
	switch {
	case p.Age < MinAge || p.Age > MaxAge:
		return fmt.Errorf("%w: age must be between %d and %d", ErrInvalidProfile, MinAge, MaxAge)
	case p.WeightKg < MinWeightKg:
		return fmt.Errorf("%w: weight must be at least %d kg", ErrInvalidProfile, MinWeightKg)
	case p.HeightCm < MinHeightCm:
		return fmt.Errorf("%w: height must be at least %d cm", ErrInvalidProfile, MinHeightCm)
	case p.Activity < MinActivity || p.Activity > MaxActivity:
		return fmt.Errorf("%w: activity multiplier must be between %.1f and %.1f", ErrInvalidProfile, MinActivity, MaxActivity)
	}
	if p.BodyFatPct != nil && (*p.BodyFatPct <= 0 || *p.BodyFatPct >= 70) {
		return fmt.Errorf("%w: body fat must be between 0 and 70 percent", ErrInvalidProfile)
	}
	if p.MealsPerDay != nil && (*p.MealsPerDay < 1 || *p.MealsPerDay > 10) {
		return fmt.Errorf("%w: meals per day must be between 1 and 10", ErrInvalidProfile)
	}
	return nil
}

// SafetyWarnings reports targets under the safety floors. It never blocks.
func SafetyWarnings(g model.UserGoals) []string {
	var warnings []string
	if g.Kcal < SafeMinKcal {
		warnings = append(warnings, fmt.Sprintf("calorie target %d kcal is below the %d kcal safety floor", g.Kcal, SafeMinKcal))
	}
	if g.ProteinG < SafeMinProtein {
		warnings = append(warnings, fmt.Sprintf("protein target %dg is below %dg", g.ProteinG, SafeMinProtein))
	}
	if g.CarbG < SafeMinCarb {
		warnings = append(warnings, fmt.Sprintf("carb target %dg is below %dg", g.CarbG, SafeMinCarb))
	}
	if g.FatG < SafeMinFat {
		warnings = append(warnings, fmt.Sprintf("fat target %dg is below %dg", g.FatG, SafeMinFat))
	}
	return warnings
}

// ValidateManualGoals rejects hand-entered goals under the hard floors.
func ValidateManualGoals(g model.UserGoals) error {
	switch {
	case g.Kcal < ManualMinKcal:
		return fmt.Errorf("calories must be at least %d", ManualMinKcal)
	case g.ProteinG < ManualMinProtein:
		return fmt.Errorf("protein must be at least %dg", ManualMinProtein)
	case g.CarbG < ManualMinCarb:
		return fmt.Errorf("carbs must be at least %dg", ManualMinCarb)
	case g.FatG < ManualMinFat:
		return fmt.Errorf("fat must be at least %dg", ManualMinFat)
	}
	return nil
}
