package tables

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/audit"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/credentials"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/session"
)

// ErrTableNotAllowed is returned for any table outside the catalog,
// including the application's internal tables.
var ErrTableNotAllowed = errors.New("access to this table is not allowed")

// DefaultRowLimit caps Fetch when no limit is configured.
const DefaultRowLimit = 200

type Gateway struct {
	db       *sql.DB
	d        dialect.Dialect
	catalog  *Catalog
	recorder *audit.Recorder
	rowLimit int
	log      logging.Logger
}

func NewGateway(db *sql.DB, d dialect.Dialect, catalog *Catalog, recorder *audit.Recorder, rowLimit int, log logging.Logger) *Gateway {
	if rowLimit <= 0 {
		rowLimit = DefaultRowLimit
	}
	return &Gateway{db: db, d: d, catalog: catalog, recorder: recorder, rowLimit: rowLimit, log: log}
}

func (g *Gateway) checkTable(ctx context.Context, table string) error {
	ok, err := g.catalog.IsAllowed(ctx, table)
	if err != nil {
		return err
	}
	if !ok {
		g.log.Warn(ctx, "table access refused", "table", table)
		return ErrTableNotAllowed
	}
	return nil
}

// dbErr keeps classified errors and marks everything else as a retryable
// connectivity or query failure.
func (g *Gateway) dbErr(op string, err error) error {
	if classified(err) {
		return err
	}
	if err = g.d.Classify(err); classified(err) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", common.ErrorUnavailable, op, err)
}

func classified(err error) bool {
	for _, keep := range []error{common.ErrorConflict, common.ErrorForeignKey, common.ErrorNotFound, common.ErrorValidation} {
		if errors.Is(err, keep) {
			return true
		}
	}
	return false
}

// Fetch returns the columns and up to the configured row limit of rows.
func (g *Gateway) Fetch(ctx context.Context, sess *session.Session, table string) (*ResultSet, error) {
	if err := session.Require(sess, session.PermRead); err != nil {
		return nil, err
	}
	if err := g.checkTable(ctx, table); err != nil {
		return nil, err
	}

	query := `SELECT * FROM ` + g.d.QuoteIdent(table) + ` LIMIT ` + strconv.Itoa(g.rowLimit)
	rows, err := g.db.QueryContext(ctx, query)
	if err != nil {
		return nil, g.dbErr("fetch "+table, err)
	}
	defer rows.Close()

	rs, err := scanResultSet(table, rows)
	if err != nil {
		return nil, g.dbErr("fetch "+table, err)
	}
	return rs, nil
}

// Search fetches table and keeps the rows where any cell contains text,
// ignoring case.
func (g *Gateway) Search(ctx context.Context, sess *session.Session, table, text string) (*ResultSet, error) {
	rs, err := g.Fetch(ctx, sess, table)
	if err != nil {
		return nil, err
	}
	return rs.Filter(text), nil
}

// Columns lists the columns of table in declaration order.
func (g *Gateway) Columns(ctx context.Context, sess *session.Session, table string) ([]string, error) {
	if err := session.Require(sess, session.PermRead); err != nil {
		return nil, err
	}
	if err := g.checkTable(ctx, table); err != nil {
		return nil, err
	}
	return g.columns(ctx, table)
}

func (g *Gateway) columns(ctx context.Context, table string) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, `SELECT * FROM `+g.d.QuoteIdent(table)+` WHERE 1 = 0`)
	if err != nil {
		return nil, g.dbErr("columns of "+table, err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, g.dbErr("columns of "+table, err)
	}
	return cols, nil
}

func hasColumn(cols []string, name string) bool {
	for _, c := range cols {
		if c == name {
			return true
		}
	}
	return false
}

// isPlainPassword matches columns that hold a password to be hashed before
// storage. Columns already holding a hash are stored as given.
func isPlainPassword(column string) bool {
	c := strings.ToLower(column)
	return strings.Contains(c, "pass") && !strings.Contains(c, "hash")
}

func preparePassword(column, value string) (string, error) {
	if err := credentials.ValidatePasswordStrength(value); err != nil {
		return "", fmt.Errorf("column %s: %w", column, err)
	}
	return credentials.Hash(value)
}

// Insert adds a row and returns its primary key value. Every supplied value
// must be non-empty and name an existing column.
func (g *Gateway) Insert(ctx context.Context, sess *session.Session, table string, values map[string]string) (string, error) {
	if err := session.Require(sess, session.PermMutate); err != nil {
		return "", err
	}
	if err := g.checkTable(ctx, table); err != nil {
		return "", err
	}
	if len(values) == 0 {
		return "", fmt.Errorf("%w: no values to insert", common.ErrorValidation)
	}

	cols, err := g.columns(ctx, table)
	if err != nil {
		return "", err
	}
	pk := cols[0]

	names := make([]string, 0, len(values))
	for c, v := range values {
		if !hasColumn(cols, c) {
			return "", fmt.Errorf("%w: unknown column %q", common.ErrorValidation, c)
		}
		if strings.TrimSpace(v) == "" {
			return "", fmt.Errorf("%w: value for %s is empty", common.ErrorValidation, c)
		}
		names = append(names, c)
	}
	sort.Strings(names)

	stored := make(map[string]string, len(values))
	snapshot := make(map[string]string, len(values)+1)
	args := make([]any, 0, len(names))
	quoted := make([]string, 0, len(names))
	for _, c := range names {
		v := values[c]
		if isPlainPassword(c) {
			if v, err = preparePassword(c, v); err != nil {
				return "", err
			}
		}
		stored[c] = v
		snapshot[c] = v
		if audit.MaskColumn(c) {
			snapshot[c] = "***"
		}
		args = append(args, v)
		quoted = append(quoted, g.d.QuoteIdent(c))
	}

	query := `INSERT INTO ` + g.d.QuoteIdent(table) +
		` (` + strings.Join(quoted, ", ") + `) VALUES (` +
		strings.TrimSuffix(strings.Repeat("?, ", len(names)), ", ") + `)`

	var id string
	err = dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		id, err = dialect.InsertID(ctx, tx, g.d, query, pk, args...)
		if err != nil {
			return err
		}
		if id == "" {
			id = stored[pk]
		}
		snapshot[pk] = id

		g.recorder.Record(ctx, tx, audit.Entry{
			UserName: sess.UserName,
			Action:   models.ActionInsert,
			Table:    table,
			RecordID: id,
			After:    snapshot,
		})
		return nil
	})
	if err != nil {
		return "", g.dbErr("insert into "+table, err)
	}

	g.log.Info(ctx, "row inserted", "table", table, "id", id, "user", sess.UserName)
	return id, nil
}

// Update sets one cell of the row identified by pkColumn = pkValue. The
// primary key itself cannot be edited.
func (g *Gateway) Update(ctx context.Context, sess *session.Session, table, pkColumn, pkValue, column, value string) error {
	if err := session.Require(sess, session.PermMutate); err != nil {
		return err
	}
	if err := g.checkTable(ctx, table); err != nil {
		return err
	}

	cols, err := g.columns(ctx, table)
	if err != nil {
		return err
	}
	if !hasColumn(cols, pkColumn) {
		return fmt.Errorf("%w: unknown column %q", common.ErrorValidation, pkColumn)
	}
	if !hasColumn(cols, column) {
		return fmt.Errorf("%w: unknown column %q", common.ErrorValidation, column)
	}
	if column == pkColumn || column == cols[0] {
		return fmt.Errorf("%w: the primary key cannot be edited", common.ErrorValidation)
	}

	if isPlainPassword(column) {
		if value, err = preparePassword(column, value); err != nil {
			return err
		}
	}

	qt, qc, qpk := g.d.QuoteIdent(table), g.d.QuoteIdent(column), g.d.QuoteIdent(pkColumn)
	selectQ := g.d.Rebind(`SELECT ` + qc + ` FROM ` + qt + ` WHERE ` + qpk + ` = ?`)
	updateQ := g.d.Rebind(`UPDATE ` + qt + ` SET ` + qc + ` = ? WHERE ` + qpk + ` = ?`)

	err = dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var old any
		if err := tx.QueryRowContext(ctx, selectQ, pkValue).Scan(&old); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return common.ErrorNotFound
			}
			return err
		}
		if _, err := tx.ExecContext(ctx, updateQ, value, pkValue); err != nil {
			return err
		}

		before, after := dialect.FormatValue(old), value
		if audit.MaskColumn(column) {
			before, after = "***", "***"
		}
		g.recorder.Record(ctx, tx, audit.Entry{
			UserName: sess.UserName,
			Action:   models.ActionUpdate,
			Table:    table,
			RecordID: pkValue,
			Before:   map[string]string{column: before},
			After:    map[string]string{column: after},
		})
		return nil
	})
	if err != nil {
		return g.dbErr("update "+table, err)
	}

	g.log.Info(ctx, "row updated", "table", table, "id", pkValue, "column", column, "user", sess.UserName)
	return nil
}

// Delete removes the row identified by pkColumn = pkValue. When other rows
// still reference it the result is a *common.ForeignKeyError and nothing is
// removed.
func (g *Gateway) Delete(ctx context.Context, sess *session.Session, table, pkColumn, pkValue string) error {
	if err := session.Require(sess, session.PermMutate); err != nil {
		return err
	}
	if err := g.checkTable(ctx, table); err != nil {
		return err
	}

	cols, err := g.columns(ctx, table)
	if err != nil {
		return err
	}
	if !hasColumn(cols, pkColumn) {
		return fmt.Errorf("%w: unknown column %q", common.ErrorValidation, pkColumn)
	}

	qt, qpk := g.d.QuoteIdent(table), g.d.QuoteIdent(pkColumn)
	selectQ := g.d.Rebind(`SELECT * FROM ` + qt + ` WHERE ` + qpk + ` = ?`)
	deleteQ := g.d.Rebind(`DELETE FROM ` + qt + ` WHERE ` + qpk + ` = ?`)

	err = dbx.WithTx(ctx, g.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		before, err := g.readRow(ctx, tx, table, selectQ, pkValue)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, deleteQ, pkValue); err != nil {
			return g.d.Classify(err)
		}

		g.recorder.Record(ctx, tx, audit.Entry{
			UserName: sess.UserName,
			Action:   models.ActionDelete,
			Table:    table,
			RecordID: pkValue,
			Before:   before,
		})
		return nil
	})
	if err != nil {
		var fk *common.ForeignKeyError
		if errors.As(err, &fk) {
			if fk.DependentTable == "" {
				fk.DependentTable = g.dependentTable(ctx, table)
			}
			g.log.Warn(ctx, "delete blocked by foreign key", "table", table, "id", pkValue, "dependent", fk.DependentTable)
		}
		return g.dbErr("delete from "+table, err)
	}

	g.log.Info(ctx, "row deleted", "table", table, "id", pkValue, "user", sess.UserName)
	return nil
}

func (g *Gateway) dependentTable(ctx context.Context, table string) string {
	lister, ok := g.d.(dialect.DependentLister)
	if !ok {
		return ""
	}
	names, err := lister.DependentTables(ctx, g.db, table)
	if err != nil || len(names) == 0 {
		return ""
	}
	return strings.Join(names, ", ")
}

func (g *Gateway) readRow(ctx context.Context, tx dbx.DBTX, table, query, pkValue string) (map[string]string, error) {
	rows, err := tx.QueryContext(ctx, query, pkValue)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rs, err := scanResultSet(table, rows)
	if err != nil {
		return nil, err
	}
	if len(rs.Rows) == 0 {
		return nil, common.ErrorNotFound
	}
	return rs.Record(0), nil
}
