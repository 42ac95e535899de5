// Package database manages the PostgreSQL connection and schema for the
// two tables the invalidation core reads: per-(module, skin) file
// dependency lists and per-(module, language) message-blob timestamps.
// Migrations are embedded and run with goose at startup.
package database

import (
	"database/sql"
	"embed"
	"fmt"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

//go:embed migrations
var embedMigrations embed.FS

// Connect opens a PostgreSQL pool using the provided DSN and verifies it
// with a ping. The pool is shared by both stores; every query this
// application issues is a single-row or single-batch read, so the
// driver's default pool sizing is left alone.
func Connect(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("database open: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("database ping: %w", err)
	}

	slog.Info("database connected")
	return db, nil
}

// Migrate brings the bundle tables up to date from the embedded SQL
// files. Embedding means a deployed binary carries its own schema; there
// is nothing to ship alongside it.
func Migrate(db *sql.DB) error {
	goose.SetBaseFS(embedMigrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose set dialect: %w", err)
	}

	if err := goose.Up(db, "migrations"); err != nil {
		return fmt.Errorf("goose up: %w", err)
	}

	slog.Info("database migrations applied")
	return nil
}
