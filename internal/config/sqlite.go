package config

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const settingsSchemaSQL = `CREATE TABLE IF NOT EXISTS settings (
	key   TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`

// sqliteBackend stores the settings as a flat key/value table
type sqliteBackend struct {
	logger *zap.Logger
	path   string
	db     *sql.DB
}

func newSQLiteBackend(path string, logger *zap.Logger) (*sqliteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("sqlite settings: create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite settings: open db: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite settings: set busy timeout: %w", err)
	}
	if _, err := db.Exec(settingsSchemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite settings: create schema: %w", err)
	}

	return &sqliteBackend{logger: logger, path: path, db: db}, nil
}

func (b *sqliteBackend) load() (document, bool, error) {
	rows, err := b.db.Query("SELECT key, value FROM settings")
	if err != nil {
		return document{}, false, fmt.Errorf("sqlite settings: query: %w", err)
	}
	defer rows.Close()

	pairs := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return document{}, false, fmt.Errorf("sqlite settings: scan: %w", err)
		}
		pairs[key] = value
	}
	if err := rows.Err(); err != nil {
		return document{}, false, fmt.Errorf("sqlite settings: iterate: %w", err)
	}
	if len(pairs) == 0 {
		return document{}, false, nil
	}

	return documentFromPairs(pairs, b.logger), true, nil
}

// save writes every pair in a single transaction
func (b *sqliteBackend) save(doc document) (err error) {
	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("sqlite settings: begin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	stmt, err := tx.Prepare(`INSERT INTO settings (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return fmt.Errorf("sqlite settings: prepare: %w", err)
	}
	defer stmt.Close()

	for key, value := range doc.pairs() {
		if _, err = stmt.Exec(key, value); err != nil {
			return fmt.Errorf("sqlite settings: write %s: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("sqlite settings: commit: %w", err)
	}
	return nil
}

func (b *sqliteBackend) close() error {
	if b == nil || b.db == nil {
		return nil
	}
	return b.db.Close()
}

func (b *sqliteBackend) String() string { return "sqlite:" + b.path }
