package db

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

var pragmas = []string{
	`PRAGMA foreign_keys = ON;`,
	`PRAGMA busy_timeout = 5000;`,
}

// Open opens the tracker database at path. The caller still has to run
// ApplyMigrations before touching any table; OpenMigrated does both.
func Open(path string) (*sql.DB, error) {
	sqldb, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	sqldb.SetMaxOpenConns(1)
	if err := sqldb.Ping(); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("ping sqlite database: %w", err)
	}
	for _, p := range pragmas {
		if _, err := sqldb.Exec(p); err != nil {
			_ = sqldb.Close()
			return nil, fmt.Errorf("apply %q: %w", p, err)
		}
	}
	return sqldb, nil
}

func OpenMigrated(path string) (*sql.DB, error) {
	sqldb, err := Open(path)
	if err != nil {
		return nil, err
	}
	if err := ApplyMigrations(sqldb); err != nil {
		_ = sqldb.Close()
		return nil, err
	}
	return sqldb, nil
}
