package tracestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	sqlite_migrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/httpfs"
)

// migrationLogger adapts slog.Logger to the migrate.Logger interface.
type migrationLogger struct {
	log *slog.Logger
}

func (m *migrationLogger) Printf(format string, v ...any) {
	format = strings.TrimRight(format, "\n")
	m.log.Info(fmt.Sprintf(format, v...))
}

func (m *migrationLogger) Verbose() bool { return false }

// runMigrations brings db up to the latest embedded schema version.
func runMigrations(db *sql.DB, log *slog.Logger) error {
	driver, err := sqlite_migrate.WithInstance(db, &sqlite_migrate.Config{})
	if err != nil {
		return fmt.Errorf("tracestore: create migration driver: %w", err)
	}

	source, err := httpfs.New(http.FS(sqlSchemas), "migrations")
	if err != nil {
		return fmt.Errorf("tracestore: open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("migrations", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("tracestore: create migration instance: %w", err)
	}
	m.Log = &migrationLogger{log: log}

	log.InfoContext(context.Background(), "applying trace store migrations")

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("tracestore: apply migrations: %w", err)
	}

	return nil
}
