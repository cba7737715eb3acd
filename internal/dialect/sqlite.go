package dialect

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/jmoiron/sqlx"
	"modernc.org/sqlite"
)

const (
	sqliteConstraint           = 19
	sqliteConstraintForeignKey = 787
	sqliteConstraintPrimaryKey = 1555
	sqliteConstraintUnique     = 2067
)

type SQLite struct{}

func (SQLite) Name() string         { return "sqlite" }
func (SQLite) DriverName() string   { return "sqlite" }
func (SQLite) GooseDialect() string { return "sqlite3" }

// DSN treats Options.Name as the database file. Foreign keys are off by
// default in SQLite and are switched on for every connection.
func (SQLite) DSN(o Options) (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}
	if o.Name == "" {
		return "", errors.New("sqlite: database file name is required")
	}
	return fmt.Sprintf("file:%s?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)", o.Name), nil
}

func (SQLite) Rebind(query string) string { return rebind(sqlx.QUESTION, query) }

func (SQLite) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (SQLite) ListTablesQuery() string {
	return `SELECT name FROM sqlite_master
		 WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		 ORDER BY name`
}

func (SQLite) SupportsReturning() bool { return true }

func (SQLite) Classify(err error) error {
	var sqErr *sqlite.Error
	if !errors.As(err, &sqErr) {
		return err
	}
	code := sqErr.Code()
	msg := sqErr.Error()
	switch {
	case code == sqliteConstraintForeignKey,
		code&0xff == sqliteConstraint && strings.Contains(msg, "FOREIGN KEY"):
		return &common.ForeignKeyError{Err: err}
	case code == sqliteConstraintUnique, code == sqliteConstraintPrimaryKey,
		code&0xff == sqliteConstraint && strings.Contains(msg, "UNIQUE"):
		return fmt.Errorf("%w: %s", common.ErrorConflict, msg)
	}
	return err
}

// DependentTables lists the tables declaring a foreign key to table. SQLite
// does not name the referencing table in its constraint errors.
func (SQLite) DependentTables(ctx context.Context, db dbx.DBTX, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT DISTINCT m.name FROM sqlite_master m, pragma_foreign_key_list(m.name) p
		 WHERE m.type = 'table' AND p."table" = ?
		 ORDER BY m.name`, table)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out = append(out, name)
	}
	return out, rows.Err()
}
