package tracestore

import (
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

// openSQLite opens path with foreign keys and WAL mode enabled, matching a
// single-writer/multiple-reader access pattern.
func openSQLite(path string) (*sql.DB, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("tracestore: create database directory: %w", err)
	}

	dsn := fmt.Sprintf(
		"file:%s?_foreign_keys=on&_journal_mode=WAL&_busy_timeout=5000", path,
	)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("tracestore: open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	return db, nil
}

// Open opens (creating if necessary) the sqlite-backed trace store at path
// and brings its schema up to date.
func Open(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}

	db, err := openSQLite(path)
	if err != nil {
		return nil, err
	}

	if err := runMigrations(db, log); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, log: log}, nil
}
