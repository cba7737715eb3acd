// Package dialect hides the differences between the supported database
// engines: driver names, DSN construction, placeholder style, identifier
// quoting, table enumeration and classification of integrity errors.
package dialect

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/jmoiron/sqlx"
)

// Options describes how to reach the database. DSN, when set, is used as is.
type Options struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	TLSCA    string
	DSN      string
}

// Dialect is implemented by Postgres, MySQL and SQLite.
type Dialect interface {
	// Name is the dialect key used in configuration and migration directories.
	Name() string
	// DriverName is the database/sql driver registered for this dialect.
	DriverName() string
	// GooseDialect is the dialect name understood by goose.
	GooseDialect() string
	// DSN builds a data source name from o.
	DSN(o Options) (string, error)
	// Rebind converts a query written with '?' placeholders.
	Rebind(query string) string
	// QuoteIdent quotes a table or column name.
	QuoteIdent(name string) string
	// ListTablesQuery returns base table names of the current schema, one per row.
	ListTablesQuery() string
	// SupportsReturning reports whether INSERT ... RETURNING is available.
	SupportsReturning() bool
	// Classify maps driver integrity errors to common.ErrorConflict or
	// *common.ForeignKeyError. Other errors are returned unchanged.
	Classify(err error) error
}

// DependentLister is implemented by dialects whose foreign key errors do not
// name the referencing table.
type DependentLister interface {
	DependentTables(ctx context.Context, db dbx.DBTX, table string) ([]string, error)
}

// ForName returns the dialect registered under name.
func ForName(name string) (Dialect, error) {
	switch name {
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "mysql", "mariadb":
		return MySQL{}, nil
	case "sqlite", "sqlite3":
		return SQLite{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", name)
	}
}

// Open resolves the dialect for o.Driver, opens a handle and verifies
// connectivity with a ping.
func Open(ctx context.Context, o Options) (*sql.DB, Dialect, error) {
	d, err := ForName(o.Driver)
	if err != nil {
		return nil, nil, err
	}

	dsn, err := d.DSN(o)
	if err != nil {
		return nil, nil, err
	}

	db, err := sql.Open(d.DriverName(), dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("open %s: %w", d.Name(), err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("connect %s: %w", d.Name(), err)
	}
	return db, d, nil
}

func rebind(bindType int, query string) string {
	return sqlx.Rebind(bindType, query)
}
