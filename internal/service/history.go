package service

import (
	"database/sql"
	"fmt"
	"time"

	json "github.com/goccy/go-json"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/nutrition"
)

// AppendCalculation records a goal calculation together with the profile
// it was computed from.
func AppendCalculation(db *sql.DB, rec nutrition.Recommendation, profile model.UserProfile, at time.Time) (model.CalculationRecord, error) {
	if at.IsZero() {
		at = time.Now()
	}
	profileJSON, err := json.Marshal(profile)
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("encode profile: %w", err)
	}
	res, err := db.Exec(`
INSERT INTO calculation_history(calculated_at, bmr, maintenance, goal_kcal, protein_g, carb_g, fat_g, source, profile_json)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
`, storedTime(at), rec.BMR, rec.Maintenance, rec.GoalCalories, rec.ProteinG, rec.CarbG, rec.FatG, rec.Source, string(profileJSON))
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("insert calculation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.CalculationRecord{}, fmt.Errorf("resolve inserted calculation id: %w", err)
	}
	return model.CalculationRecord{
		ID:           id,
		CalculatedAt: at.Truncate(time.Second),
		BMR:          rec.BMR,
		Maintenance:  rec.Maintenance,
		GoalKcal:     rec.GoalCalories,
		ProteinG:     rec.ProteinG,
		CarbG:        rec.CarbG,
		FatG:         rec.FatG,
		Source:       rec.Source,
	}, nil
}

// ListCalculations returns history newest first. Limit <= 0 returns all.
func ListCalculations(db *sql.DB, limit int) ([]model.CalculationRecord, error) {
	query := `SELECT id, calculated_at, bmr, maintenance, goal_kcal, protein_g, carb_g, fat_g, source
FROM calculation_history ORDER BY calculated_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list calculations: %w", err)
	}
	defer rows.Close()

	out := make([]model.CalculationRecord, 0)
	for rows.Next() {
		var r model.CalculationRecord
		var at string
		if err := rows.Scan(&r.ID, &at, &r.BMR, &r.Maintenance, &r.GoalKcal, &r.ProteinG, &r.CarbG, &r.FatG, &r.Source); err != nil {
			return nil, fmt.Errorf("scan calculation: %w", err)
		}
		t, err := parseStoredTime(at)
		if err != nil {
			return nil, fmt.Errorf("parse calculated_at for %d: %w", r.ID, err)
		}
		r.CalculatedAt = t
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate calculations: %w", err)
	}
	return out, nil
}
