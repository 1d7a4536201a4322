package service_test

import (
	"errors"
	"testing"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/nutrition"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

func TestProfileRoundTrip(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	got, err := service.LoadProfile(db)
	if err != nil || got != nil {
		t.Fatalf("expected no profile, got %+v %v", got, err)
	}
	p := testProfile()
	meals := 4
	p.MealsPerDay = &meals
	if err := service.SaveProfile(db, p); err != nil {
		t.Fatalf("save profile: %v", err)
	}
	got, err = service.LoadProfile(db)
	if err != nil || got == nil {
		t.Fatalf("load profile: %+v %v", got, err)
	}
	if got.WeightKg != 70 || got.MealsPerDay == nil || *got.MealsPerDay != 4 {
		t.Fatalf("unexpected profile %+v", got)
	}

	bad := testProfile()
	bad.Age = 10
	if err := service.SaveProfile(db, bad); !errors.Is(err, nutrition.ErrInvalidProfile) {
		t.Fatalf("expected invalid profile, got %v", err)
	}
}

func TestCorruptStateIsDropped(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	if err := service.SetState(db, service.StateUserGoals, "{not json"); err != nil {
		t.Fatalf("set state: %v", err)
	}
	goals, err := service.LoadGoals(db)
	if err != nil {
		t.Fatalf("expected corrupt goals to be tolerated, got %v", err)
	}
	if goals != nil {
		t.Fatalf("expected nil goals, got %+v", goals)
	}
	if _, ok, err := service.GetState(db, service.StateUserGoals); err != nil || ok {
		t.Fatalf("expected corrupt record removed, ok=%v err=%v", ok, err)
	}
}

func TestManualGoalFloors(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	if err := service.SaveManualGoals(db, model.UserGoals{Kcal: 450, ProteinG: 100, CarbG: 100, FatG: 40}); err == nil {
		t.Fatalf("expected kcal floor rejection")
	}
	if err := service.SaveManualGoals(db, model.UserGoals{Kcal: 1800, ProteinG: 120, CarbG: 180, FatG: 60}); err != nil {
		t.Fatalf("save goals: %v", err)
	}
	g, err := service.LoadGoals(db)
	if err != nil || g == nil || g.Kcal != 1800 {
		t.Fatalf("unexpected goals %+v %v", g, err)
	}
	if err := service.SaveGoals(db, model.UserGoals{Kcal: 900, ProteinG: 20, CarbG: 20, FatG: 10}); err != nil {
		t.Fatalf("calculator goals below safety floor must not block: %v", err)
	}
}

func TestMarkLaunched(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	first, err := service.MarkLaunched(db)
	if err != nil || !first {
		t.Fatalf("expected first launch, got %v %v", first, err)
	}
	again, err := service.MarkLaunched(db)
	if err != nil || again {
		t.Fatalf("expected repeat launch, got %v %v", again, err)
	}
}

func TestCalculationHistoryNewestFirst(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	rec, err := nutrition.Compute(testProfile())
	if err != nil {
		t.Fatalf("compute: %v", err)
	}
	if _, err := service.AppendCalculation(db, rec, testProfile(), at("2026-01-01", 9)); err != nil {
		t.Fatalf("append: %v", err)
	}
	rec.GoalCalories = 1900
	if _, err := service.AppendCalculation(db, rec, testProfile(), at("2026-02-01", 9)); err != nil {
		t.Fatalf("append: %v", err)
	}
	hist, err := service.ListCalculations(db, 0)
	if err != nil || len(hist) != 2 {
		t.Fatalf("list: %+v %v", hist, err)
	}
	if hist[0].GoalKcal != 1900 || hist[1].Source != nutrition.SourceLocal {
		t.Fatalf("unexpected order %+v", hist)
	}
}

func TestSummaryForDay(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	empty, err := service.Summary(db, at("2026-03-10", 12))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if empty.Status != nutrition.StatusNoGoals || len(empty.Entries) != 0 {
		t.Fatalf("unexpected empty summary %+v", empty)
	}

	if err := service.SaveGoals(db, model.UserGoals{Kcal: 2000, ProteinG: 100, CarbG: 250, FatG: 60}); err != nil {
		t.Fatalf("save goals: %v", err)
	}
	if _, err := service.CreateEntry(db, service.CreateEntryInput{Description: "lunch", Macros: model.Macros{Kcal: 1000, ProteinG: 50}, Consumed: at("2026-03-10", 13)}); err != nil {
		t.Fatalf("create: %v", err)
	}
	s, err := service.Summary(db, at("2026-03-10", 20))
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if s.Date != "2026-03-10" || s.Totals.Kcal != 1000 || s.Progress.Kcal != 50 || s.Status != nutrition.StatusDeficit {
		t.Fatalf("unexpected summary %+v", s)
	}
	if s.Comment == "" {
		t.Fatalf("expected a coaching comment")
	}
}
