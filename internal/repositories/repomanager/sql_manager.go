// Package repomanager provides a RepositoryManager for the configured SQL
// dialect, wiring together repository constructors and database migrations
// (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/migrations"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/repositories/recoverycodes"
	"github.com/dmitrijs2005/nicole/internal/repositories/users"
	"github.com/pressly/goose/v3"
)

// SQLRepositoryManager vends dialect-aware repository implementations and
// exposes a schema migration hook.
type SQLRepositoryManager struct {
	d dialect.Dialect
}

// NewSQLRepositoryManager constructs a RepositoryManager for d.
func NewSQLRepositoryManager(d dialect.Dialect) RepositoryManager {
	return &SQLRepositoryManager{d: d}
}

func (m *SQLRepositoryManager) Dialect() dialect.Dialect {
	return m.d
}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db, m.d)
}

// AuditLog returns an auditlog.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) AuditLog(db dbx.DBTX) auditlog.Repository {
	return auditlog.NewSQLRepository(db, m.d)
}

// RecoveryCodes returns a recoverycodes.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) RecoveryCodes(db dbx.DBTX) recoverycodes.Repository {
	return recoverycodes.NewSQLRepository(db, m.d)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations of the dialect
// and runs them against the provided database connection.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect(m.d.GooseDialect()); err != nil {
		return err
	}
	goose.SetLogger(goose.NopLogger())
	return gooseUpContext(ctx, db, m.d.Name())
}
