package service

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/ChristopherCousin/Kcal/internal/catalog"
	"github.com/ChristopherCousin/Kcal/internal/model"
)

type CreateEntryInput struct {
	Description string
	Macros      model.Macros
	Source      string
	Meal        string
	ImageRef    string
	Consumed    time.Time
}

type ListEntriesFilter struct {
	Date     string
	FromDate string
	ToDate   string
	Meal     string
	Limit    int
}

func validateMacros(m model.Macros) error {
	if err := validateNonNegativeFloat("kcal", m.Kcal); err != nil {
		return err
	}
	if err := validateNonNegativeFloat("protein", m.ProteinG); err != nil {
		return err
	}
	if err := validateNonNegativeFloat("carbs", m.CarbG); err != nil {
		return err
	}
	return validateNonNegativeFloat("fat", m.FatG)
}

// execQuerier is satisfied by *sql.DB and *sql.Tx.
type execQuerier interface {
	Exec(query string, args ...any) (sql.Result, error)
	QueryRow(query string, args ...any) *sql.Row
}

// NormalizeMeal lowercases a meal type and rejects unknown ones. Empty
// stays empty.
func NormalizeMeal(meal string) (string, error) {
	meal = normalizeName(meal)
	if meal != "" && !catalog.IsMealType(meal) {
		return "", fmt.Errorf("unknown meal type %q (use %s)", meal, strings.Join(catalog.MealTypes, ", "))
	}
	return meal, nil
}

// CreateEntry appends a food entry. Its id is the creation time in unix
// milliseconds, bumped by one until unused.
func CreateEntry(db *sql.DB, in CreateEntryInput) (model.FoodEntry, error) {
	return createEntry(db, in)
}

func createEntry(q execQuerier, in CreateEntryInput) (model.FoodEntry, error) {
	in.Description = strings.TrimSpace(in.Description)
	if in.Description == "" {
		return model.FoodEntry{}, fmt.Errorf("entry description is required")
	}
	if err := validateMacros(in.Macros); err != nil {
		return model.FoodEntry{}, err
	}
	meal, err := NormalizeMeal(in.Meal)
	if err != nil {
		return model.FoodEntry{}, err
	}
	in.Meal = meal
	if strings.TrimSpace(in.Source) == "" {
		in.Source = model.SourceManual
	}
	now := time.Now()
	if in.Consumed.IsZero() {
		in.Consumed = now
	}

	id, err := nextEntryID(q, now.UnixMilli())
	if err != nil {
		return model.FoodEntry{}, err
	}
	_, err = q.Exec(`
INSERT INTO food_entries(id, description, kcal, protein_g, carb_g, fat_g, source, meal, image_ref, consumed_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, id, in.Description, in.Macros.Kcal, in.Macros.ProteinG, in.Macros.CarbG, in.Macros.FatG, in.Source, nullableString(in.Meal), in.ImageRef, storedTime(in.Consumed))
	if err != nil {
		return model.FoodEntry{}, fmt.Errorf("insert entry: %w", err)
	}
	return model.FoodEntry{
		ID:          id,
		Description: in.Description,
		Macros:      in.Macros,
		Source:      in.Source,
		Meal:        in.Meal,
		ImageRef:    in.ImageRef,
		ConsumedAt:  in.Consumed.Truncate(time.Second),
	}, nil
}

func nextEntryID(q execQuerier, candidate int64) (int64, error) {
	for {
		var exists int
		err := q.QueryRow(`SELECT COUNT(1) FROM food_entries WHERE id = ?`, candidate).Scan(&exists)
		if err != nil {
			return 0, fmt.Errorf("check entry id: %w", err)
		}
		if exists == 0 {
			return candidate, nil
		}
		candidate++
	}
}

const entryColumns = `id, description, kcal, protein_g, carb_g, fat_g, source, IFNULL(meal, ''), image_ref, consumed_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(s rowScanner) (model.FoodEntry, error) {
	var e model.FoodEntry
	var consumedAtRaw string
	if err := s.Scan(&e.ID, &e.Description, &e.Macros.Kcal, &e.Macros.ProteinG, &e.Macros.CarbG, &e.Macros.FatG, &e.Source, &e.Meal, &e.ImageRef, &consumedAtRaw); err != nil {
		return model.FoodEntry{}, err
	}
	consumedAt, err := parseStoredTime(consumedAtRaw)
	if err != nil {
		return model.FoodEntry{}, fmt.Errorf("parse consumed_at for entry %d: %w", e.ID, err)
	}
	e.ConsumedAt = consumedAt
	return e, nil
}

// ListEntries returns matching entries, newest first. Limit <= 0 means 50.
func ListEntries(db *sql.DB, f ListEntriesFilter) ([]model.FoodEntry, error) {
	if strings.TrimSpace(f.Date) != "" && (strings.TrimSpace(f.FromDate) != "" || strings.TrimSpace(f.ToDate) != "") {
		return nil, fmt.Errorf("--date cannot be combined with --from/--to")
	}

	query := `SELECT ` + entryColumns + ` FROM food_entries WHERE 1=1`
	args := make([]any, 0)

	if strings.TrimSpace(f.Date) != "" {
		day, err := ParseDate(f.Date)
		if err != nil {
			return nil, err
		}
		start, end := dayBounds(day)
		query += ` AND consumed_at >= ? AND consumed_at < ?`
		args = append(args, start, end)
	}
	if strings.TrimSpace(f.FromDate) != "" {
		from, err := ParseDate(f.FromDate)
		if err != nil {
			return nil, err
		}
		query += ` AND consumed_at >= ?`
		args = append(args, storedTime(from))
	}
	if strings.TrimSpace(f.ToDate) != "" {
		to, err := ParseDate(f.ToDate)
		if err != nil {
			return nil, err
		}
		query += ` AND consumed_at < ?`
		args = append(args, storedTime(to.AddDate(0, 0, 1)))
	}
	if strings.TrimSpace(f.Meal) != "" {
		query += ` AND meal = ?`
		args = append(args, normalizeName(f.Meal))
	}
	query += ` ORDER BY consumed_at DESC, id DESC`

	if f.Limit <= 0 {
		f.Limit = 50
	}
	query += ` LIMIT ?`
	args = append(args, f.Limit)

	return queryEntries(db, query, args...)
}

// EntriesForDay returns every entry of the local calendar day containing
// day, oldest first.
func EntriesForDay(db *sql.DB, day time.Time) ([]model.FoodEntry, error) {
	start, end := dayBounds(day)
	return queryEntries(db, `SELECT `+entryColumns+` FROM food_entries
WHERE consumed_at >= ? AND consumed_at < ?
ORDER BY consumed_at ASC, id ASC`, start, end)
}

// RecentEntries returns up to limit entries, newest first.
func RecentEntries(db *sql.DB, limit int) ([]model.FoodEntry, error) {
	return queryEntries(db, `SELECT `+entryColumns+` FROM food_entries ORDER BY consumed_at DESC, id DESC LIMIT ?`, limit)
}

func queryEntries(db *sql.DB, query string, args ...any) ([]model.FoodEntry, error) {
	rows, err := db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := make([]model.FoodEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

func EntryByID(db *sql.DB, id int64) (model.FoodEntry, error) {
	e, err := scanEntry(db.QueryRow(`SELECT `+entryColumns+` FROM food_entries WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return model.FoodEntry{}, fmt.Errorf("entry %d not found", id)
	}
	if err != nil {
		return model.FoodEntry{}, fmt.Errorf("get entry %d: %w", id, err)
	}
	return e, nil
}

func DeleteEntry(db *sql.DB, id int64) error {
	res, err := db.Exec(`DELETE FROM food_entries WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete entry %d: %w", id, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete entry rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("entry %d not found", id)
	}
	return nil
}

// DayTotals sums the entries of the local calendar day containing day.
func DayTotals(db *sql.DB, day time.Time) (model.Macros, error) {
	entries, err := EntriesForDay(db, day)
	if err != nil {
		return model.Macros{}, err
	}
	return model.SumMacros(entries), nil
}
