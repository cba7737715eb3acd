package dialect

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"regexp"
	"strconv"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

var pgReferencedFrom = regexp.MustCompile(`referenced from table "([^"]+)"`)

type Postgres struct{}

func (Postgres) Name() string         { return "postgres" }
func (Postgres) DriverName() string   { return "pgx" }
func (Postgres) GooseDialect() string { return "postgres" }

func (Postgres) DSN(o Options) (string, error) {
	if o.DSN != "" {
		return o.DSN, nil
	}
	port := o.Port
	if port == 0 {
		port = 5432
	}

	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(o.User, o.Password),
		Host:   net.JoinHostPort(o.Host, strconv.Itoa(port)),
		Path:   "/" + o.Name,
	}
	q := url.Values{}
	if o.TLSCA != "" {
		q.Set("sslmode", "verify-full")
		q.Set("sslrootcert", o.TLSCA)
	} else {
		q.Set("sslmode", "prefer")
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (Postgres) Rebind(query string) string { return rebind(sqlx.DOLLAR, query) }

func (Postgres) QuoteIdent(name string) string { return pgx.Identifier{name}.Sanitize() }

func (Postgres) ListTablesQuery() string {
	return `SELECT table_name FROM information_schema.tables
		 WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'
		 ORDER BY table_name`
}

func (Postgres) SupportsReturning() bool { return true }

func (Postgres) Classify(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	switch pgErr.Code {
	case pgUniqueViolation:
		return fmt.Errorf("%w: %s", common.ErrorConflict, pgErr.Detail)
	case pgForeignKeyViolation:
		table := pgErr.TableName
		if table == "" {
			if m := pgReferencedFrom.FindStringSubmatch(pgErr.Detail); m != nil {
				table = m[1]
			}
		}
		return &common.ForeignKeyError{DependentTable: table, Err: err}
	}
	return err
}
