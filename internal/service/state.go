package service

import (
	"database/sql"
	"fmt"
	"strings"

	json "github.com/goccy/go-json"
	zlog "github.com/rs/zerolog/log"

	"github.com/ChristopherCousin/Kcal/internal/model"
	"github.com/ChristopherCousin/Kcal/internal/nutrition"
)

// Keys of the string-keyed state records.
const (
	StateUserProfile     = "userProfile"
	StateUserGoals       = "userGoals"
	StateHasLoadedBefore = "hasLoadedBefore"
)

func SetState(db *sql.DB, key, value string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return fmt.Errorf("state key is required")
	}
	_, err := db.Exec(`
INSERT INTO app_state(key, value, updated_at)
VALUES(?, ?, CURRENT_TIMESTAMP)
ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at
`, key, value)
	if err != nil {
		return fmt.Errorf("set state %q: %w", key, err)
	}
	return nil
}

func GetState(db *sql.DB, key string) (string, bool, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", false, fmt.Errorf("state key is required")
	}
	var value string
	err := db.QueryRow(`SELECT value FROM app_state WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get state %q: %w", key, err)
	}
	return value, true, nil
}

func DeleteState(db *sql.DB, key string) error {
	if _, err := db.Exec(`DELETE FROM app_state WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete state %q: %w", key, err)
	}
	return nil
}

func ListState(db *sql.DB) (map[string]string, error) {
	rows, err := db.Query(`SELECT key, value FROM app_state ORDER BY key ASC`)
	if err != nil {
		return nil, fmt.Errorf("list state: %w", err)
	}
	defer rows.Close()
	out := map[string]string{}
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan state: %w", err)
		}
		out[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate state: %w", err)
	}
	return out, nil
}

func saveJSONState(db *sql.DB, key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode state %q: %w", key, err)
	}
	return SetState(db, key, string(raw))
}

// loadJSONState decodes the record under key into v. A record that no
// longer decodes is removed and reported as absent.
func loadJSONState(db *sql.DB, key string, v any) (bool, error) {
	raw, ok, err := GetState(db, key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal([]byte(raw), v); err != nil {
		zlog.Warn().Str("key", key).Err(err).Msg("dropping unreadable state record")
		if derr := DeleteState(db, key); derr != nil {
			return false, derr
		}
		return false, nil
	}
	return true, nil
}

// SaveProfile validates and overwrites the stored profile.
func SaveProfile(db *sql.DB, p model.UserProfile) error {
	if err := nutrition.ValidateProfile(p); err != nil {
		return err
	}
	return saveJSONState(db, StateUserProfile, p)
}

func LoadProfile(db *sql.DB) (*model.UserProfile, error) {
	var p model.UserProfile
	ok, err := loadJSONState(db, StateUserProfile, &p)
	if err != nil || !ok {
		return nil, err
	}
	return &p, nil
}

// SaveGoals overwrites the stored goals without the manual floors; the
// calculator path uses it and only warns.
func SaveGoals(db *sql.DB, g model.UserGoals) error {
	if g.Kcal < 0 || g.ProteinG < 0 || g.CarbG < 0 || g.FatG < 0 {
		return fmt.Errorf("goals must be >= 0")
	}
	return saveJSONState(db, StateUserGoals, g)
}

// SaveManualGoals enforces the hard floors for hand-entered goals.
func SaveManualGoals(db *sql.DB, g model.UserGoals) error {
	if err := nutrition.ValidateManualGoals(g); err != nil {
		return err
	}
	return saveJSONState(db, StateUserGoals, g)
}

func LoadGoals(db *sql.DB) (*model.UserGoals, error) {
	var g model.UserGoals
	ok, err := loadJSONState(db, StateUserGoals, &g)
	if err != nil || !ok {
		return nil, err
	}
	return &g, nil
}

// MarkLaunched sets the first-run flag and reports whether this was the
// first launch.
func MarkLaunched(db *sql.DB) (bool, error) {
	_, seen, err := GetState(db, StateHasLoadedBefore)
	if err != nil {
		return false, err
	}
	if seen {
		return false, nil
	}
	if err := SetState(db, StateHasLoadedBefore, "true"); err != nil {
		return false, err
	}
	return true, nil
}
