// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package store

import (
	"context"
	"database/sql"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"loadstone/internal/database"
)

// envOr returns the environment variable value or a fallback default.
func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// testDSN builds the PostgreSQL connection string for integration tests.
func testDSN() string {
	host := envOr("POSTGRES_HOST", "localhost")
	port := envOr("POSTGRES_PORT", "5432")
	user := envOr("POSTGRES_USER", "loadstone")
	pass := envOr("POSTGRES_PASSWORD", "changeme")
	name := envOr("POSTGRES_DB", "loadstone")
	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=disable"
}

// testDB opens a database connection, runs migrations, and registers cleanup.
// If the database is unreachable, the test is skipped.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	dsn := testDSN()
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		t.Skipf("skipping integration test: cannot open DB: %v", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		t.Skipf("skipping integration test: DB not reachable: %v", err)
	}

	if err := database.Migrate(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	// Reset goose global state so it does not interfere with other tests.
	goose.SetBaseFS(nil)

	t.Cleanup(func() { db.Close() })
	return db
}

// cleanModule removes test rows for a module name.
func cleanModule(t *testing.T, db *sql.DB, module string) {
	t.Helper()
	db.Exec("DELETE FROM module_dependencies WHERE module = $1", module)
	db.Exec("DELETE FROM message_blob_timestamps WHERE module = $1", module)
}

// --------------------------------------------------------------------------
// TestDependencyStoreFileDependencies — single (module, skin) lookups
// --------------------------------------------------------------------------

func TestDependencyStoreFileDependencies(t *testing.T) {
	db := testDB(t)
	s := NewDependencyStore(db)
	ctx := context.Background()

	module := "test-deps-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanModule(t, db, module) })

	t.Run("missing row decodes to empty list", func(t *testing.T) {
		deps, err := s.FileDependencies(ctx, module, "vector")
		if err != nil {
			t.Fatalf("FileDependencies: %v", err)
		}
		if len(deps) != 0 {
			t.Errorf("expected empty list for missing row, got %v", deps)
		}
	})

	t.Run("stored list round-trips", func(t *testing.T) {
		_, err := db.Exec(`
			INSERT INTO module_dependencies (module, skin, deps)
			VALUES ($1, 'vector', '["images/a.png","images/b.png"]')
		`, module)
		if err != nil {
			t.Fatalf("insert: %v", err)
		}

		deps, err := s.FileDependencies(ctx, module, "vector")
		if err != nil {
			t.Fatalf("FileDependencies: %v", err)
		}
		if len(deps) != 2 || deps[0] != "images/a.png" || deps[1] != "images/b.png" {
			t.Errorf("unexpected deps: %v", deps)
		}
	})

	t.Run("skins are independent", func(t *testing.T) {
		deps, err := s.FileDependencies(ctx, module, "minerva")
		if err != nil {
			t.Fatalf("FileDependencies: %v", err)
		}
		if len(deps) != 0 {
			t.Errorf("expected empty list for other skin, got %v", deps)
		}
	})
}

// --------------------------------------------------------------------------
// TestDependencyStoreForSkin — bulk preload query
// --------------------------------------------------------------------------

func TestDependencyStoreForSkin(t *testing.T) {
	db := testDB(t)
	s := NewDependencyStore(db)
	ctx := context.Background()

	suffix := uuid.NewString()[:8]
	modA := "test-bulk-a-" + suffix
	modB := "test-bulk-b-" + suffix
	modC := "test-bulk-c-" + suffix

	t.Cleanup(func() {
		cleanModule(t, db, modA)
		cleanModule(t, db, modB)
		cleanModule(t, db, modC)
	})

	for _, row := range []struct{ module, deps string }{
		{modA, `["a.css"]`},
		{modB, `[]`},
	} {
		if _, err := db.Exec(`
			INSERT INTO module_dependencies (module, skin, deps)
			VALUES ($1, 'vector', $2)
		`, row.module, row.deps); err != nil {
			t.Fatalf("insert %s: %v", row.module, err)
		}
	}

	result, err := s.ForSkin(ctx, "vector", []string{modA, modB, modC})
	if err != nil {
		t.Fatalf("ForSkin: %v", err)
	}

	if got := result[modA]; len(got) != 1 || got[0] != "a.css" {
		t.Errorf("modA deps = %v, want [a.css]", got)
	}
	if got, ok := result[modB]; !ok || len(got) != 0 {
		t.Errorf("modB should be present with empty deps, got %v (present=%v)", got, ok)
	}
	if _, ok := result[modC]; ok {
		t.Error("modC has no row and should be absent from the result")
	}

	t.Run("empty module list issues no query", func(t *testing.T) {
		result, err := s.ForSkin(ctx, "vector", nil)
		if err != nil {
			t.Fatalf("ForSkin with empty list: %v", err)
		}
		if len(result) != 0 {
			t.Errorf("expected empty result, got %v", result)
		}
	})
}

// --------------------------------------------------------------------------
// TestMessageBlobStoreBlobMtime — timestamp lookups and missing rows
// --------------------------------------------------------------------------

func TestMessageBlobStoreBlobMtime(t *testing.T) {
	db := testDB(t)
	s := NewMessageBlobStore(db)
	ctx := context.Background()

	module := "test-blob-" + uuid.NewString()[:8]
	t.Cleanup(func() { cleanModule(t, db, module) })

	t.Run("missing row reports not found", func(t *testing.T) {
		_, ok, err := s.BlobMtime(ctx, module, "en")
		if err != nil {
			t.Fatalf("BlobMtime: %v", err)
		}
		if ok {
			t.Error("expected ok=false for missing row")
		}
	})

	t.Run("stored timestamp round-trips", func(t *testing.T) {
		want := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
		if _, err := db.Exec(`
			INSERT INTO message_blob_timestamps (module, lang, updated_at)
			VALUES ($1, 'en', $2)
		`, module, want); err != nil {
			t.Fatalf("insert: %v", err)
		}

		got, ok, err := s.BlobMtime(ctx, module, "en")
		if err != nil {
			t.Fatalf("BlobMtime: %v", err)
		}
		if !ok {
			t.Fatal("expected ok=true after insert")
		}
		if !got.Equal(want) {
			t.Errorf("BlobMtime = %v, want %v", got, want)
		}
	})

	t.Run("languages are independent", func(t *testing.T) {
		_, ok, err := s.BlobMtime(ctx, module, "de")
		if err != nil {
			t.Fatalf("BlobMtime: %v", err)
		}
		if ok {
			t.Error("expected ok=false for language with no row")
		}
	})
}
