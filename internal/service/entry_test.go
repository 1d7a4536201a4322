package service_test

import (
	"strings"
	"testing"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/service"
)

func TestAddThenDeleteRestoresTotals(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	day := at("2026-03-10", 0)
	if _, err := service.CreateEntry(db, service.CreateEntryInput{
		Description: "Oats",
		Macros:      model.Macros{Kcal: 350, ProteinG: 10, CarbG: 60, FatG: 7},
		Consumed:    at("2026-03-10", 8),
	}); err != nil {
		t.Fatalf("create first entry: %v", err)
	}
	before, err := service.DayTotals(db, day)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}

	e, err := service.CreateEntry(db, service.CreateEntryInput{
		Description: "Pizza",
		Macros:      model.Macros{Kcal: 800.5, ProteinG: 30.2, CarbG: 90.1, FatG: 35.3},
		Meal:        "Dinner",
		Consumed:    at("2026-03-10", 20),
	})
	if err != nil {
		t.Fatalf("create second entry: %v", err)
	}
	if e.Meal != "dinner" || e.Source != model.SourceManual {
		t.Fatalf("unexpected defaults: %+v", e)
	}
	mid, err := service.DayTotals(db, day)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if mid.Kcal != before.Kcal+800.5 {
		t.Fatalf("expected kcal %v, got %v", before.Kcal+800.5, mid.Kcal)
	}

	if err := service.DeleteEntry(db, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	after, err := service.DayTotals(db, day)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if after != before {
		t.Fatalf("expected totals %+v after delete, got %+v", before, after)
	}
}

func TestDayTotalsExcludeOtherDays(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	for _, in := range []service.CreateEntryInput{
		{Description: "late snack yesterday", Macros: model.Macros{Kcal: 100}, Consumed: at("2026-03-09", 23)},
		{Description: "breakfast", Macros: model.Macros{Kcal: 300}, Consumed: at("2026-03-10", 0)},
		{Description: "dinner", Macros: model.Macros{Kcal: 500}, Consumed: at("2026-03-10", 23)},
		{Description: "midnight tomorrow", Macros: model.Macros{Kcal: 700}, Consumed: at("2026-03-11", 0)},
	} {
		if _, err := service.CreateEntry(db, in); err != nil {
			t.Fatalf("create %q: %v", in.Description, err)
		}
	}
	totals, err := service.DayTotals(db, at("2026-03-10", 12))
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if totals.Kcal != 800 {
		t.Fatalf("expected 800 kcal for the day, got %v", totals.Kcal)
	}
}

func TestCreateEntryAssignsDistinctIDs(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	seen := map[int64]bool{}
	for i := 0; i < 5; i++ {
		e, err := service.CreateEntry(db, service.CreateEntryInput{Description: "water", Macros: model.Macros{}})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if seen[e.ID] {
			t.Fatalf("duplicate id %d", e.ID)
		}
		seen[e.ID] = true
	}
}

func TestCreateEntryValidation(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	if _, err := service.CreateEntry(db, service.CreateEntryInput{Description: "  "}); err == nil {
		t.Fatalf("expected description error")
	}
	if _, err := service.CreateEntry(db, service.CreateEntryInput{Description: "x", Macros: model.Macros{Kcal: -1}}); err == nil {
		t.Fatalf("expected negative kcal error")
	}
	if _, err := service.CreateEntry(db, service.CreateEntryInput{Description: "x", Meal: "brunch"}); err == nil || !strings.Contains(err.Error(), "unknown meal type") {
		t.Fatalf("expected meal type error, got %v", err)
	}
}

func TestListEntriesFilters(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	inputs := []service.CreateEntryInput{
		{Description: "a", Meal: "breakfast", Consumed: at("2026-03-01", 8)},
		{Description: "b", Meal: "lunch", Consumed: at("2026-03-02", 13)},
		{Description: "c", Meal: "lunch", Consumed: at("2026-03-03", 13)},
	}
	for _, in := range inputs {
		if _, err := service.CreateEntry(db, in); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	byDate, err := service.ListEntries(db, service.ListEntriesFilter{Date: "2026-03-02"})
	if err != nil || len(byDate) != 1 || byDate[0].Description != "b" {
		t.Fatalf("unexpected date filter result %+v %v", byDate, err)
	}
	ranged, err := service.ListEntries(db, service.ListEntriesFilter{FromDate: "2026-03-02", ToDate: "2026-03-03"})
	if err != nil || len(ranged) != 2 || ranged[0].Description != "c" {
		t.Fatalf("unexpected range result %+v %v", ranged, err)
	}
	lunch, err := service.ListEntries(db, service.ListEntriesFilter{Meal: "LUNCH", Limit: 1})
	if err != nil || len(lunch) != 1 || lunch[0].Description != "c" {
		t.Fatalf("unexpected meal filter result %+v %v", lunch, err)
	}
	if _, err := service.ListEntries(db, service.ListEntriesFilter{Date: "2026-03-02", FromDate: "2026-03-01"}); err == nil {
		t.Fatalf("expected error combining date and range")
	}
	if _, err := service.ListEntries(db, service.ListEntriesFilter{Date: "03/02/2026"}); err == nil {
		t.Fatalf("expected invalid date error")
	}
}

func TestDeleteMissingEntry(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	err := service.DeleteEntry(db, 42)
	if err == nil || !strings.Contains(err.Error(), "entry 42 not found") {
		t.Fatalf("expected not found error, got %v", err)
	}
	if _, err := service.EntryByID(db, 42); err == nil {
		t.Fatalf("expected not found from EntryByID")
	}
}

func TestQuickAddAndCommonMeal(t *testing.T) {
	t.Parallel()
	db := newTestDB(t)

	e, err := service.QuickAdd(db, service.QuickAddInput{Description: "Sandwich", Kcal: 300, Portion: "small"})
	if err != nil {
		t.Fatalf("quick add: %v", err)
	}
	if e.Macros.Kcal != 210 || e.Source != model.SourceQuickAdd || e.Description != "Sandwich (small)" {
		t.Fatalf("unexpected quick entry %+v", e)
	}

	m, err := service.AddCommonMeal(db, "lunch", "chicken with rice", at("2026-03-10", 13))
	if err != nil {
		t.Fatalf("common meal: %v", err)
	}
	if m.Macros.Kcal != 450 || m.Meal != "lunch" || m.Source != model.SourceCommonMeal {
		t.Fatalf("unexpected common meal entry %+v", m)
	}
	if _, err := service.AddCommonMeal(db, "lunch", "caviar", at("2026-03-10", 13)); err == nil {
		t.Fatalf("expected unknown meal error")
	}
}
