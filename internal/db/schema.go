package db

import (
	"database/sql"
	"fmt"
)

const filesTableDDL = `
CREATE TABLE IF NOT EXISTS files (
    id INTEGER PRIMARY KEY,
    path TEXT UNIQUE NOT NULL,
    name TEXT NOT NULL,
    kind INTEGER NOT NULL,
    size INTEGER NOT NULL,
    mtime INTEGER NOT NULL
);
`

const harvestMetaTableDDL = `
CREATE TABLE IF NOT EXISTS harvest_meta (
    id INTEGER PRIMARY KEY CHECK (id = 1),
    harvest_id TEXT NOT NULL,
    root_path TEXT NOT NULL,
    start_time INTEGER NOT NULL,
    end_time INTEGER,
    file_count INTEGER DEFAULT 0,
    dir_count INTEGER DEFAULT 0,
    total_size INTEGER DEFAULT 0,
    error_count INTEGER DEFAULT 0,
    release_date TEXT,
    status TEXT NOT NULL DEFAULT 'running'
);
`

const harvestErrorsTableDDL = `
CREATE TABLE IF NOT EXISTS harvest_errors (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    path TEXT NOT NULL,
    message TEXT NOT NULL
);
`

const filesPathIndexDDL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_files_path ON files(path);`
const filesSizeIndexDDL = `CREATE INDEX IF NOT EXISTS idx_files_size ON files(size DESC);`

// InitSchema creates all tables in the database.
func InitSchema(db *sql.DB) error {
	ddls := []string{
		filesTableDDL,
		harvestMetaTableDDL,
		harvestErrorsTableDDL,
	}

	for _, ddl := range ddls {
		if _, err := db.Exec(ddl); err != nil {
			return fmt.Errorf("failed to execute DDL: %w", err)
		}
	}

	return nil
}

// ApplyWritePragmas configures SQLite for bulk ingestion.
func ApplyWritePragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000", // 64MB cache
		"PRAGMA temp_store = MEMORY",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// ApplyReadPragmas configures SQLite for read-only browsing.
func ApplyReadPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA synchronous = NORMAL",
		"PRAGMA cache_size = -64000",
		"PRAGMA temp_store = MEMORY",
		"PRAGMA query_only = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to apply pragma %q: %w", pragma, err)
		}
	}

	return nil
}

// BuildIndexes creates indexes after the initial data load.
func BuildIndexes(db *sql.DB) error {
	indexes := []string{
		filesPathIndexDDL,
		filesSizeIndexDDL,
	}

	for _, idx := range indexes {
		if _, err := db.Exec(idx); err != nil {
			return fmt.Errorf("failed to create index: %w", err)
		}
	}

	return nil
}

// Finalize prepares the database for read-only access.
func Finalize(db *sql.DB) error {
	if _, err := db.Exec("PRAGMA optimize"); err != nil {
		return fmt.Errorf("failed to optimize: %w", err)
	}

	// Switch from WAL to DELETE for better portability
	if _, err := db.Exec("PRAGMA journal_mode = DELETE"); err != nil {
		return fmt.Errorf("failed to set journal mode: %w", err)
	}

	return nil
}
