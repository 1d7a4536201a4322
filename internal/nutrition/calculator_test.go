package nutrition

import (
	"errors"
	"math"
	"testing"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

func exampleProfile() model.UserProfile {
	return model.UserProfile{
		Age:      30,
		Sex:      model.SexMale,
		WeightKg: 70,
		HeightCm: 175,
		Activity: 1.55,
		Goal:     model.GoalLose,
	}
}

func TestBMRMifflinStJeor(t *testing.T) {
	t.Parallel()

	male := BMR(model.SexMale, 30, 70, 175)
	if math.Abs(male-(10*70+6.25*175-5*30+5)) > 1e-9 {
		t.Fatalf("unexpected male bmr %v", male)
	}
	if male != 1648.75 {
		t.Fatalf("expected 1648.75, got %v", male)
	}
	female := BMR(model.SexFemale, 30, 70, 175)
	if female != male-166 {
		t.Fatalf("expected female bmr to be 166 below male, got %v", female)
	}
}

func TestStepFunctionsFromQuotedBMR(t *testing.T) {
	t.Parallel()

	maintenance := Maintenance(1673.75, 1.55)
	if maintenance != 2594 {
		t.Fatalf("expected maintenance 2594, got %d", maintenance)
	}
	goal := GoalCalories(maintenance, model.GoalLose, nil)
	if goal != 2094 {
		t.Fatalf("expected goal 2094, got %d", goal)
	}
	protein, carb, fat := MacroSplit(goal, 70)
	if protein != 126 || fat != 58 || carb != 267 {
		t.Fatalf("unexpected split protein=%d carb=%d fat=%d", protein, carb, fat)
	}
}

func TestComputeExampleProfile(t *testing.T) {
	t.Parallel()

	rec, err := Compute(exampleProfile())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if rec.BMR != 1648.75 || rec.Maintenance != 2556 || rec.GoalCalories != 2056 {
		t.Fatalf("unexpected energy figures: %+v", rec)
	}
	if rec.ProteinG != 126 || rec.FatG != 57 || rec.CarbG != 260 {
		t.Fatalf("unexpected macros: %+v", rec)
	}
	if rec.Source != SourceLocal {
		t.Fatalf("expected local source, got %q", rec.Source)
	}
	if len(rec.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", rec.Warnings)
	}
}

func TestGoalCaloriesOffsets(t *testing.T) {
	t.Parallel()

	offset := -300
	cases := []struct {
		goal   model.GoalKind
		offset *int
		want   int
	}{
		{model.GoalLose, nil, 1500},
		{model.GoalGain, nil, 2500},
		{model.GoalMaintain, nil, 2000},
		{model.GoalGain, &offset, 1700},
	}
	for _, tc := range cases {
		if got := GoalCalories(2000, tc.goal, tc.offset); got != tc.want {
			t.Fatalf("goal %s offset %v: expected %d, got %d", tc.goal, tc.offset, tc.want, got)
		}
	}
}

func TestMacroSplitNeverNegative(t *testing.T) {
	t.Parallel()

	for _, kcal := range []int{0, 300, 800, 1200, 4000} {
		for _, weight := range []float64{30, 90, 180} {
			p, c, f := MacroSplit(kcal, weight)
			if p < 0 || c < 0 || f < 0 {
				t.Fatalf("negative macro for kcal=%d weight=%v: %d/%d/%d", kcal, weight, p, c, f)
			}
		}
	}
}

func TestComputeRejectsImplausibleProfiles(t *testing.T) {
	t.Parallel()

	mutations := map[string]func(*model.UserProfile){
		"too young":     func(p *model.UserProfile) { p.Age = 14 },
		"too old":       func(p *model.UserProfile) { p.Age = 101 },
		"too light":     func(p *model.UserProfile) { p.WeightKg = 29 },
		"too short":     func(p *model.UserProfile) { p.HeightCm = 99 },
		"missing sex":   func(p *model.UserProfile) { p.Sex = "" },
		"unknown goal":  func(p *model.UserProfile) { p.Goal = "bulk" },
		"activity high": func(p *model.UserProfile) { p.Activity = 3 },
	}
	for name, mutate := range mutations {
		p := exampleProfile()
		mutate(&p)
		if _, err := Compute(p); !errors.Is(err, ErrInvalidProfile) {
			t.Fatalf("%s: expected ErrInvalidProfile, got %v", name, err)
		}
	}
}

func TestComputeWarnsButDoesNotBlockBelowSafetyFloor(t *testing.T) {
	t.Parallel()

	offset := -1500
	p := model.UserProfile{Age: 60, Sex: model.SexFemale, WeightKg: 45, HeightCm: 150, Activity: 1.2, Goal: model.GoalLose, GoalOffset: &offset}
	rec, err := Compute(p)
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if len(rec.Warnings) == 0 {
		t.Fatalf("expected safety warnings for %+v", rec)
	}
}

func TestFillMissingKeepsRemoteValues(t *testing.T) {
	t.Parallel()

	partial := Recommendation{GoalCalories: 2200, ProteinG: 150, Source: "openai"}
	rec := FillMissing(partial, exampleProfile())
	if rec.GoalCalories != 2200 || rec.ProteinG != 150 {
		t.Fatalf("remote values overwritten: %+v", rec)
	}
	if rec.BMR != 1648.75 || rec.Maintenance != 2556 {
		t.Fatalf("expected local bmr/maintenance, got %+v", rec)
	}
	_, _, fat := MacroSplit(2200, 70)
	if rec.FatG != fat {
		t.Fatalf("expected fat from split of 2200, got %+v", rec)
	}
	if want := int(math.Round(float64(2200-150*4-fat*9) / 4)); rec.CarbG != want {
		t.Fatalf("expected carbs %d from remaining energy, got %d", want, rec.CarbG)
	}
	if rec.Source != "openai" {
		t.Fatalf("source changed to %q", rec.Source)
	}
}

func TestParseActivity(t *testing.T) {
	t.Parallel()

	if v, err := ParseActivity("moderate"); err != nil || v != 1.55 {
		t.Fatalf("expected moderate=1.55, got %v %v", v, err)
	}
	if v, err := ParseActivity("1.4"); err != nil || v != 1.4 {
		t.Fatalf("expected 1.4, got %v %v", v, err)
	}
	if _, err := ParseActivity("couch"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestValidateManualGoals(t *testing.T) {
	t.Parallel()

	if err := ValidateManualGoals(model.UserGoals{Kcal: 2000, ProteinG: 120, CarbG: 200, FatG: 60}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := ValidateManualGoals(model.UserGoals{Kcal: 400, ProteinG: 120, CarbG: 200, FatG: 60}); err == nil {
		t.Fatalf("expected kcal floor error")
	}
	if err := ValidateManualGoals(model.UserGoals{Kcal: 2000, ProteinG: 120, CarbG: 200, FatG: 4}); err == nil {
		t.Fatalf("expected fat floor error")
	}
}
