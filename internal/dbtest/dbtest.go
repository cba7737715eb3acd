// Package dbtest opens migrated SQLite databases for package tests.
package dbtest

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/repositories/repomanager"
	_ "modernc.org/sqlite"
)

// Open creates a fresh SQLite file under t.TempDir, applies the migrations
// and registers cleanup. Extra schema statements are executed afterwards.
func Open(t testing.TB, schema ...string) (*sql.DB, repomanager.RepositoryManager) {
	t.Helper()

	d := dialect.SQLite{}
	dsn, err := d.DSN(dialect.Options{Name: filepath.Join(t.TempDir(), "nicole.db")})
	if err != nil {
		t.Fatalf("dsn: %v", err)
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	rm := repomanager.NewSQLRepositoryManager(d)
	if err := rm.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	for _, stmt := range schema {
		if _, err := db.Exec(stmt); err != nil {
			t.Fatalf("schema %q: %v", stmt, err)
		}
	}
	return db, rm
}
