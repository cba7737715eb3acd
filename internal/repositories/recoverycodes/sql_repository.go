package recoverycodes

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/nicole/internal/common"
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

func (r *SQLRepository) DeleteByUserName(ctx context.Context, userName string) error {
	query := `DELETE FROM recuperacion_codigos WHERE username = ?`
	if _, err := r.db.ExecContext(ctx, r.d.Rebind(query), userName); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) Insert(ctx context.Context, c *models.RecoveryCode) error {
	query :=
		`INSERT INTO recuperacion_codigos (username, email, codigo, expiracion, proposito)
		 VALUES (?, ?, ?, ?, ?)`

	_, err := r.db.ExecContext(ctx, r.d.Rebind(query),
		c.UserName, c.Email, c.Code, c.ExpiresAt, string(c.Purpose))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *SQLRepository) FindValid(ctx context.Context, identifier, code string, now time.Time) (string, error) {
	query :=
		`SELECT username FROM recuperacion_codigos
		 WHERE (username = ? OR email = ?) AND codigo = ? AND expiracion > ?
		 ORDER BY expiracion DESC
		 LIMIT 1`

	var userName string
	err := r.db.QueryRowContext(ctx, r.d.Rebind(query), identifier, identifier, code, now).Scan(&userName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", common.ErrorNotFound
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return userName, nil
}
