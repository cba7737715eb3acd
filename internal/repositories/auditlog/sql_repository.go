package auditlog

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/models"
)

type SQLRepository struct {
	db dbx.DBTX
	d  dialect.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dialect.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Insert(ctx context.Context, e *models.AuditEntry) error {
	query :=
		`INSERT INTO historial (usuario, fecha, accion, tabla, registro_id, valores_antes, valores_despues)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.d.Rebind(query),
		e.UserName, e.CreatedAt, string(e.Action), e.Table,
		nullable(e.RecordID), nullable(e.Before), nullable(e.After))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) List(ctx context.Context, f Filter) ([]models.AuditEntry, error) {
	query := `SELECT id, usuario, fecha, accion, tabla, registro_id, valores_antes, valores_despues FROM historial`
	var args []any
	if f.Table != "" {
		query += ` WHERE tabla = ?`
		args = append(args, f.Table)
	}
	query += ` ORDER BY fecha DESC, id DESC`
	if f.Limit > 0 {
		query += ` LIMIT ` + strconv.Itoa(f.Limit)
	}

	rows, err := r.db.QueryContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var out []models.AuditEntry
	for rows.Next() {
		var (
			e                       models.AuditEntry
			action                  string
			recordID, before, after sql.NullString
		)
		if err := rows.Scan(&e.ID, &e.UserName, &e.CreatedAt, &action, &e.Table, &recordID, &before, &after); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		e.Action = models.AuditAction(action)
		e.RecordID, e.Before, e.After = recordID.String, before.String, after.String
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return out, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
