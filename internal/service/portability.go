package service

import (
	"bytes"
	"database/sql"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/klauspost/compress/zstd"

	"github.com/ChristopherCousin/Kcal/internal/model"
)

const snapshotVersion = 1

var zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}

type ExportEntry struct {
	ID          int64   `json:"id"`
	Description string  `json:"description"`
	Kcal        float64 `json:"kcal"`
	ProteinG    float64 `json:"protein"`
	CarbG       float64 `json:"carb"`
	FatG        float64 `json:"fat"`
	Source      string  `json:"source"`
	Meal        string  `json:"meal,omitempty"`
	ImageRef    string  `json:"imageRef,omitempty"`
	ConsumedAt  string  `json:"timestamp"`
}

type ExportData struct {
	Version      int                       `json:"version"`
	ExportedAt   string                    `json:"exportedAt"`
	Profile      *model.UserProfile        `json:"userProfile,omitempty"`
	Goals        *model.UserGoals          `json:"userGoals,omitempty"`
	Entries      []ExportEntry             `json:"entries"`
	Calculations []model.CalculationRecord `json:"calculationHistory"`
}

type ImportMode string

const (
	ImportModeFail    ImportMode = "fail"
	ImportModeSkip    ImportMode = "skip"
	ImportModeMerge   ImportMode = "merge"
	ImportModeReplace ImportMode = "replace"
)

type ImportOptions struct {
	Mode   ImportMode
	DryRun bool
}

type ImportReport struct {
	Inserted  int      `json:"inserted"`
	Updated   int      `json:"updated"`
	Skipped   int      `json:"skipped"`
	Conflicts int      `json:"conflicts"`
	Warnings  []string `json:"warnings,omitempty"`
}

func ExportDataSnapshot(db *sql.DB) (*ExportData, error) {
	out := &ExportData{Version: snapshotVersion, ExportedAt: storedTime(time.Now())}
	var err error
	if out.Profile, err = LoadProfile(db); err != nil {
		return nil, err
	}
	if out.Goals, err = LoadGoals(db); err != nil {
		return nil, err
	}
	entries, err := queryEntries(db, `SELECT `+entryColumns+` FROM food_entries ORDER BY consumed_at ASC, id ASC`)
	if err != nil {
		return nil, err
	}
	out.Entries = make([]ExportEntry, 0, len(entries))
	for _, e := range entries {
		out.Entries = append(out.Entries, ExportEntry{
			ID:          e.ID,
			Description: e.Description,
			Kcal:        e.Macros.Kcal,
			ProteinG:    e.Macros.ProteinG,
			CarbG:       e.Macros.CarbG,
			FatG:        e.Macros.FatG,
			Source:      e.Source,
			Meal:        e.Meal,
			ImageRef:    e.ImageRef,
			ConsumedAt:  storedTime(e.ConsumedAt),
		})
	}
	if out.Calculations, err = ListCalculations(db, 0); err != nil {
		return nil, err
	}
	return out, nil
}

// EncodeSnapshot renders data as indented JSON, zstd-compressed when
// compress is set.
func EncodeSnapshot(data *ExportData, compress bool) ([]byte, error) {
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal export json: %w", err)
	}
	if !compress {
		return raw, nil
	}
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("create zstd encoder: %w", err)
	}
	defer encoder.Close()
	return encoder.EncodeAll(raw, make([]byte, 0, len(raw)/2)), nil
}

// DecodeSnapshot accepts plain or zstd-compressed JSON.
func DecodeSnapshot(raw []byte) (*ExportData, error) {
	if bytes.HasPrefix(raw, zstdMagic) {
		decoder, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(0))
		if err != nil {
			return nil, fmt.Errorf("create zstd decoder: %w", err)
		}
		defer decoder.Close()
		if raw, err = decoder.DecodeAll(raw, nil); err != nil {
			return nil, fmt.Errorf("decompress snapshot: %w", err)
		}
	}
	var data ExportData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("parse import json: %w", err)
	}
	if data.Version > snapshotVersion {
		return nil, fmt.Errorf("snapshot version %d is newer than supported version %d", data.Version, snapshotVersion)
	}
	return &data, nil
}

func normalizeImportMode(mode ImportMode) ImportMode {
	switch mode {
	case ImportModeFail, ImportModeSkip, ImportModeMerge, ImportModeReplace:
		return mode
	default:
		return ImportModeMerge
	}
}

func ImportDataSnapshot(db *sql.DB, data *ExportData) (ImportReport, error) {
	return ImportDataSnapshotWithOptions(db, data, ImportOptions{Mode: ImportModeMerge})
}

// ImportDataSnapshotWithOptions restores a snapshot in one transaction.
// Entries are matched by id and calculations by (time, source, goal kcal);
// the mode decides what a match does.
func ImportDataSnapshotWithOptions(db *sql.DB, data *ExportData, opts ImportOptions) (ImportReport, error) {
	report := ImportReport{}
	if data == nil {
		return report, fmt.Errorf("import data is required")
	}
	mode := normalizeImportMode(opts.Mode)

	tx, err := db.Begin()
	if err != nil {
		return report, fmt.Errorf("begin import tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if mode == ImportModeReplace && !opts.DryRun {
		if err := clearUserData(tx); err != nil {
			return report, err
		}
	}

	if err := importState(tx, StateUserProfile, data.Profile, mode, opts.DryRun, &report); err != nil {
		return report, err
	}
	if err := importState(tx, StateUserGoals, data.Goals, mode, opts.DryRun, &report); err != nil {
		return report, err
	}

	for _, e := range data.Entries {
		if strings.TrimSpace(e.Description) == "" {
			report.Warnings = append(report.Warnings, fmt.Sprintf("entry %d has no description, skipped", e.ID))
			report.Skipped++
			continue
		}
		consumed, err := time.Parse(time.RFC3339, e.ConsumedAt)
		if err != nil {
			return report, fmt.Errorf("entry %d: invalid timestamp %q", e.ID, e.ConsumedAt)
		}
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(1) FROM food_entries WHERE id = ?`, e.ID).Scan(&exists); err != nil {
			return report, fmt.Errorf("check existing entry %d: %w", e.ID, err)
		}
		if exists > 0 && mode != ImportModeReplace {
			switch mode {
			case ImportModeFail:
				report.Conflicts++
				return report, fmt.Errorf("entry %d already exists", e.ID)
			case ImportModeSkip:
				report.Skipped++
				continue
			}
			if !opts.DryRun {
				if _, err := tx.Exec(`
UPDATE food_entries SET description = ?, kcal = ?, protein_g = ?, carb_g = ?, fat_g = ?, source = ?, meal = ?, image_ref = ?, consumed_at = ?
WHERE id = ?
`, e.Description, e.Kcal, e.ProteinG, e.CarbG, e.FatG, e.Source, nullableString(e.Meal), e.ImageRef, storedTime(consumed), e.ID); err != nil {
					return report, fmt.Errorf("update entry %d: %w", e.ID, err)
				}
			}
			report.Updated++
			continue
		}
		if !opts.DryRun {
			if _, err := tx.Exec(`
INSERT INTO food_entries(id, description, kcal, protein_g, carb_g, fat_g, source, meal, image_ref, consumed_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`, e.ID, e.Description, e.Kcal, e.ProteinG, e.CarbG, e.FatG, e.Source, nullableString(e.Meal), e.ImageRef, storedTime(consumed)); err != nil {
				return report, fmt.Errorf("import entry %d: %w", e.ID, err)
			}
		}
		report.Inserted++
	}

	for _, c := range data.Calculations {
		at := storedTime(c.CalculatedAt)
		var exists int
		if err := tx.QueryRow(`SELECT COUNT(1) FROM calculation_history WHERE calculated_at = ? AND source = ? AND goal_kcal = ?`, at, c.Source, c.GoalKcal).Scan(&exists); err != nil {
			return report, fmt.Errorf("check existing calculation %s: %w", at, err)
		}
		if exists > 0 && mode != ImportModeReplace {
			switch mode {
			case ImportModeFail:
				report.Conflicts++
				return report, fmt.Errorf("calculation from %s (%s) already exists", at, c.Source)
			case ImportModeSkip:
				report.Skipped++
				continue
			}
			if !opts.DryRun {
				if _, err := tx.Exec(`
UPDATE calculation_history SET bmr = ?, maintenance = ?, protein_g = ?, carb_g = ?, fat_g = ?
WHERE calculated_at = ? AND source = ? AND goal_kcal = ?
`, c.BMR, c.Maintenance, c.ProteinG, c.CarbG, c.FatG, at, c.Source, c.GoalKcal); err != nil {
					return report, fmt.Errorf("update calculation %s: %w", at, err)
				}
			}
			report.Updated++
			continue
		}
		if !opts.DryRun {
			if _, err := tx.Exec(`
INSERT INTO calculation_history(calculated_at, bmr, maintenance, goal_kcal, protein_g, carb_g, fat_g, source)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)
`, at, c.BMR, c.Maintenance, c.GoalKcal, c.ProteinG, c.CarbG, c.FatG, c.Source); err != nil {
				return report, fmt.Errorf("import calculation: %w", err)
			}
		}
		report.Inserted++
	}

	if opts.DryRun {
		return report, nil
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("commit import tx: %w", err)
	}
	return report, nil
}

func importState(tx *sql.Tx, key string, v any, mode ImportMode, dryRun bool, report *ImportReport) error {
	switch t := v.(type) {
	case *model.UserProfile:
		if t == nil {
			return nil
		}
	case *model.UserGoals:
		if t == nil {
			return nil
		}
	}
	var existing int
	if err := tx.QueryRow(`SELECT COUNT(1) FROM app_state WHERE key = ?`, key).Scan(&existing); err != nil {
		return fmt.Errorf("check state %q: %w", key, err)
	}
	if existing > 0 && mode != ImportModeReplace {
		switch mode {
		case ImportModeFail:
			report.Conflicts++
			return fmt.Errorf("%s already exists", key)
		case ImportModeSkip:
			report.Skipped++
			return nil
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if !dryRun {
		if _, err := tx.Exec(`
INSERT INTO app_state(key, value, updated_at) VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, string(raw)); err != nil {
			return fmt.Errorf("import %s: %w", key, err)
		}
	}
	if existing > 0 && mode != ImportModeReplace {
		report.Updated++
	} else {
		report.Inserted++
	}
	return nil
}

func clearUserData(tx *sql.Tx) error {
	stmts := []string{
		`DELETE FROM food_entries`,
		`DELETE FROM calculation_history`,
		`DELETE FROM analysis_cache`,
		`DELETE FROM app_state WHERE key IN ('userProfile', 'userGoals')`,
	}
	for _, s := range stmts {
		if _, err := tx.Exec(s); err != nil {
			return fmt.Errorf("clear data for replace mode: %w", err)
		}
	}
	return nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return strings.TrimSpace(value)
}
