package service

import (
	"database/sql"
	"time"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/nutrition"
)

type DaySummary struct {
	Date     string             `json:"date"`
	Totals   model.Macros       `json:"totals"`
	Goals    *model.UserGoals   `json:"goals,omitempty"`
	Progress nutrition.Progress `json:"progress"`
	Status   nutrition.Status   `json:"status"`
	Comment  string             `json:"comment"`
	Entries  []model.FoodEntry  `json:"entries"`
}

// Summary recomputes the totals and goal progress of a local calendar day.
func Summary(db *sql.DB, day time.Time) (DaySummary, error) {
	entries, err := EntriesForDay(db, day)
	if err != nil {
		return DaySummary{}, err
	}
	goals, err := LoadGoals(db)
	if err != nil {
		return DaySummary{}, err
	}
	profile, err := LoadProfile(db)
	if err != nil {
		return DaySummary{}, err
	}
	totals := model.SumMacros(entries)
	return DaySummary{
		Date:     beginningOfDay(day).Format(dateLayout),
		Totals:   totals,
		Goals:    goals,
		Progress: nutrition.ProgressOf(totals, goals),
		Status:   nutrition.GoalStatus(totals, goals),
		Comment:  nutrition.Coach(totals, goals, profile),
		Entries:  entries,
	}, nil
}
