package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/models"
)

// SQLRepository works on any supported dialect. Queries are written with '?'
// placeholders and rebound per dialect.
type SQLRepository struct {
	db dbx.DBTX
	d  dialect.Dialect
}

func NewSQLRepository(db dbx.DBTX, d dialect.Dialect) *SQLRepository {
	return &SQLRepository{db: db, d: d}
}

func (r *SQLRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO usuarios_app (username, password_hash, email, es_admin)
		 VALUES (?, ?, ?, ?)`

	id, err := dialect.InsertID(ctx, r.db, r.d, query, "id",
		user.UserName, user.PasswordHash, user.Email, user.IsAdmin)
	if err != nil {
		if errors.Is(err, common.ErrorConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	user.ID = id
	return user, nil
}

func (r *SQLRepository) getOne(ctx context.Context, where string, args ...any) (*models.User, error) {
	query := `SELECT id, username, password_hash, email, es_admin FROM usuarios_app WHERE ` + where

	user := &models.User{}
	err := r.db.QueryRowContext(ctx, r.d.Rebind(query), args...).
		Scan(&user.ID, &user.UserName, &user.PasswordHash, &user.Email, &user.IsAdmin)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *SQLRepository) GetByUserName(ctx context.Context, userName string) (*models.User, error) {
	return r.getOne(ctx, `username = ?`, userName)
}

func (r *SQLRepository) GetByIdentifier(ctx context.Context, identifier string) (*models.User, error) {
	return r.getOne(ctx, `username = ? OR email = ?`, identifier, identifier)
}

func (r *SQLRepository) count(ctx context.Context, query string, args ...any) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, r.d.Rebind(query), args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *SQLRepository) EmailTaken(ctx context.Context, email, exceptUserName string) (bool, error) {
	n, err := r.count(ctx,
		`SELECT COUNT(*) FROM usuarios_app WHERE email = ? AND username <> ?`, email, exceptUserName)
	return n > 0, err
}

func (r *SQLRepository) Exists(ctx context.Context, userName, email string) (bool, error) {
	n, err := r.count(ctx,
		`SELECT COUNT(*) FROM usuarios_app WHERE username = ? OR email = ?`, userName, email)
	return n > 0, err
}

func (r *SQLRepository) CountAdmins(ctx context.Context) (int, error) {
	return r.count(ctx, `SELECT COUNT(*) FROM usuarios_app WHERE es_admin = ?`, true)
}

func (r *SQLRepository) update(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, r.d.Rebind(query), args...)
	if err != nil {
		if cerr := r.d.Classify(err); errors.Is(cerr, common.ErrorConflict) {
			return cerr
		}
		return fmt.Errorf("db error: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *SQLRepository) UpdatePasswordHash(ctx context.Context, userName, hash string) error {
	return r.update(ctx, `UPDATE usuarios_app SET password_hash = ? WHERE username = ?`, hash, userName)
}

func (r *SQLRepository) UpdateEmail(ctx context.Context, userName, email string) error {
	return r.update(ctx, `UPDATE usuarios_app SET email = ? WHERE username = ?`, email, userName)
}
