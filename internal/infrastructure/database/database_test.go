package database

import (
	"context"
	"embed"
	"os"
	"path/filepath"
	"testing"
	"time"
)

//go:embed testdata/*.sql
var testMigrationsFS embed.FS

func openTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := Open(Config{
		Path:        filepath.Join(t.TempDir(), "test.db"),
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestOpenCreatesFileAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "test.db")

	db, err := Open(Config{
		Path:        dbPath,
		WALMode:     true,
		BusyTimeout: 5,
	})
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer db.Close() //nolint:errcheck // Test cleanup

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
	if db.Path() != dbPath {
		t.Errorf("Path() = %q, want %q", db.Path(), dbPath)
	}
}

func TestHealthCheck(t *testing.T) {
	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestMigrate(t *testing.T) {
	origFS := MigrationsFS
	origDir := MigrationsDir
	defer func() {
		MigrationsFS = origFS
		MigrationsDir = origDir
	}()

	MigrationsFS = testMigrationsFS
	MigrationsDir = "testdata"

	db := openTestDB(t)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("Migrate() error = %v", err)
	}

	var tableName string
	err := db.QueryRowContext(ctx,
		"SELECT name FROM sqlite_master WHERE type='table' AND name='test_log'",
	).Scan(&tableName)
	if err != nil {
		t.Fatalf("table test_log not created: %v", err)
	}

	var count int
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("reading schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("expected 1 recorded migration, got %d", count)
	}

	// Running again must be idempotent.
	if err := db.Migrate(ctx); err != nil {
		t.Fatalf("second Migrate() error = %v", err)
	}
	if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&count); err != nil {
		t.Fatalf("reading schema_migrations: %v", err)
	}
	if count != 1 {
		t.Errorf("second run recorded %d migrations, want 1", count)
	}
}

func TestParseMigrationFilename(t *testing.T) {
	tests := []struct {
		filename    string
		wantVersion string
		wantName    string
		wantOK      bool
	}{
		{"001_presence_log.up.sql", "001", "presence_log", true},
		{"002_add_index.up.sql", "002", "add_index", true},
		{"noversion.up.sql", "", "", false},
		{"_missing.up.sql", "", "", false},
	}

	for _, tt := range tests {
		version, name, ok := parseMigrationFilename(tt.filename)
		if version != tt.wantVersion || name != tt.wantName || ok != tt.wantOK {
			t.Errorf("parseMigrationFilename(%q) = (%q, %q, %v), want (%q, %q, %v)",
				tt.filename, version, name, ok, tt.wantVersion, tt.wantName, tt.wantOK)
		}
	}
}
