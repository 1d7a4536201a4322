package db

import (
	"database/sql"
	"fmt"
)

type migration struct {
	version int
	name    string
	sql     string
}

var migrations = []migration{
	{
		version: 1,
		name:    "initial_schema",
		sql: `
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS app_state (
  key TEXT PRIMARY KEY,
  value TEXT NOT NULL,
  updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS meal_types (
  name TEXT PRIMARY KEY,
  sort_order INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS food_entries (
  id INTEGER PRIMARY KEY,
  description TEXT NOT NULL,
  kcal REAL NOT NULL CHECK(kcal >= 0),
  protein_g REAL NOT NULL CHECK(protein_g >= 0),
  carb_g REAL NOT NULL CHECK(carb_g >= 0),
  fat_g REAL NOT NULL CHECK(fat_g >= 0),
  source TEXT NOT NULL DEFAULT 'manual',
  meal TEXT REFERENCES meal_types(name),
  image_ref TEXT NOT NULL DEFAULT '',
  consumed_at DATETIME NOT NULL,
  created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_food_entries_consumed_at ON food_entries(consumed_at);

CREATE TABLE IF NOT EXISTS calculation_history (
  id INTEGER PRIMARY KEY AUTOINCREMENT,
  calculated_at DATETIME NOT NULL,
  bmr REAL NOT NULL,
  maintenance INTEGER NOT NULL,
  goal_kcal INTEGER NOT NULL,
  protein_g INTEGER NOT NULL,
  carb_g INTEGER NOT NULL,
  fat_g INTEGER NOT NULL,
  source TEXT NOT NULL,
  profile_json TEXT NOT NULL DEFAULT ''
);
`,
	},
	{
		version: 2,
		name:    "analysis_cache",
		sql: `
CREATE TABLE IF NOT EXISTS analysis_cache (
  provider TEXT NOT NULL,
  image_sha256 TEXT NOT NULL,
  result_json TEXT NOT NULL,
  fetched_at DATETIME NOT NULL,
  expires_at DATETIME NOT NULL,
  PRIMARY KEY(provider, image_sha256)
);

CREATE INDEX IF NOT EXISTS idx_analysis_cache_expires_at ON analysis_cache(expires_at);
`,
	},
}

var defaultMealTypes = []string{"breakfast", "lunch", "dinner", "snack"}

func ApplyMigrations(db *sql.DB) error {
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS schema_migrations (
  version INTEGER PRIMARY KEY,
  name TEXT NOT NULL,
  applied_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	for _, m := range migrations {
		var exists int
		err := db.QueryRow(`SELECT 1 FROM schema_migrations WHERE version = ?`, m.version).Scan(&exists)
		if err == nil {
			continue
		}
		if err != sql.ErrNoRows {
			return fmt.Errorf("check migration version %d: %w", m.version, err)
		}

		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("begin migration tx: %w", err)
		}

		if _, err := tx.Exec(m.sql); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration version %d (%s): %w", m.version, m.name, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations(version, name) VALUES(?, ?)`, m.version, m.name); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration version %d: %w", m.version, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit migration version %d: %w", m.version, err)
		}
	}

	for i, name := range defaultMealTypes {
		if _, err := db.Exec(`INSERT OR IGNORE INTO meal_types(name, sort_order) VALUES(?, ?)`, name, i); err != nil {
			return fmt.Errorf("seed meal type %s: %w", name, err)
		}
	}

	return nil
}
