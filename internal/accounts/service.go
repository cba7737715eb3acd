// Package accounts implements login and the account flows confirmed by
// emailed codes: registration, password reset and profile change.
package accounts

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/nicole/internal/audit"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/credentials"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/recovery"
	"github.com/dmitrijs2005/nicole/internal/repositories/users"
	"github.com/dmitrijs2005/nicole/internal/session"
)

// ErrInvalidCredentials is returned for an unknown user or a wrong password.
var ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", common.ErrorUnauthorized)

const (
	DefaultAdminName     = "admin"
	DefaultAdminPassword = "admin123"
	DefaultAdminEmail    = "admin@example.com"
)

type Service struct {
	db       *sql.DB
	users    func(dbx.DBTX) users.Repository
	codes    *recovery.Manager
	recorder *audit.Recorder
	log      logging.Logger
}

func NewService(db *sql.DB, users func(dbx.DBTX) users.Repository, codes *recovery.Manager, recorder *audit.Recorder, log logging.Logger) *Service {
	return &Service{db: db, users: users, codes: codes, recorder: recorder, log: log}
}

func unavailable(err error) error {
	for _, keep := range []error{common.ErrorConflict, common.ErrorNotFound, common.ErrorValidation,
		recovery.ErrInvalidOrExpired, recovery.ErrTooManyAttempts, common.ErrorUnavailable} {
		if errors.Is(err, keep) {
			return err
		}
	}
	return fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
}

// Authenticate checks the password and opens a session. Legacy hashes are
// upgraded on a successful login; a failed upgrade is only logged.
func (s *Service) Authenticate(ctx context.Context, userName, password string) (*session.Session, error) {
	user, err := s.users(s.db).GetByUserName(ctx, userName)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Warn(ctx, "login failed", "user", userName)
			return nil, ErrInvalidCredentials
		}
		return nil, unavailable(err)
	}

	ok, err := credentials.Verify(user.PasswordHash, password)
	if err != nil {
		s.log.Error(ctx, "stored password hash is malformed", "user", userName, "error", err)
		return nil, ErrInvalidCredentials
	}
	if !ok {
		s.log.Warn(ctx, "login failed", "user", userName)
		return nil, ErrInvalidCredentials
	}

	if credentials.NeedsRehash(user.PasswordHash) {
		if err := s.setPassword(ctx, user, password, user.UserName); err != nil {
			s.log.Warn(ctx, "password hash upgrade failed", "user", userName, "error", err)
		} else {
			s.log.Info(ctx, "password hash upgraded", "user", userName)
		}
	}

	sess := session.New(user.UserName, user.IsAdmin)
	s.log.Info(ctx, "login", "user", user.UserName, "admin", user.IsAdmin, "session", sess.ID.String())
	return sess, nil
}

func (s *Service) setPassword(ctx context.Context, user *models.User, password, actor string) error {
	hash, err := credentials.Hash(password)
	if err != nil {
		return err
	}
	return dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := s.users(tx).UpdatePasswordHash(ctx, user.UserName, hash); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			UserName: actor,
			Action:   models.ActionUpdate,
			Table:    models.UsersTable,
			RecordID: user.ID,
			Before:   map[string]string{"username": user.UserName, "password_hash": user.PasswordHash},
			After:    map[string]string{"username": user.UserName, "password_hash": hash},
		})
		return nil
	})
}

// EnsureDefaultAdmin creates the default administrator when no administrator
// exists.
func (s *Service) EnsureDefaultAdmin(ctx context.Context) error {
	n, err := s.users(s.db).CountAdmins(ctx)
	if err != nil {
		return unavailable(err)
	}
	if n > 0 {
		return nil
	}

	hash, err := credentials.Hash(DefaultAdminPassword)
	if err != nil {
		return err
	}
	admin := &models.User{UserName: DefaultAdminName, PasswordHash: hash, Email: DefaultAdminEmail, IsAdmin: true}
	if _, err := s.users(s.db).Create(ctx, admin); err != nil {
		return unavailable(err)
	}

	s.log.Warn(ctx, "default administrator created, change its password",
		"user", DefaultAdminName, "email", DefaultAdminEmail)
	return nil
}
