package accounts

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nicole/internal/audit"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/credentials"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/session"
)

// PendingRegistration is held by the caller between BeginRegistration and
// ConfirmRegistration. The password is already hashed.
type PendingRegistration struct {
	UserName     string
	Email        string
	PasswordHash string
	IsAdmin      bool
}

// PendingProfileChange is held by the caller between BeginProfileChange and
// ConfirmProfileChange. An empty PasswordHash keeps the current password.
type PendingProfileChange struct {
	Email        string
	PasswordHash string
}

func validateEmail(email string) error {
	if !credentials.ValidateEmail(email) {
		return fmt.Errorf("%w: invalid email address", common.ErrorValidation)
	}
	return nil
}

// BeginRegistration validates a new account and mails a code to its email.
// Only administrators may register users.
func (s *Service) BeginRegistration(ctx context.Context, sess *session.Session, userName, email, password string, isAdmin bool) (*PendingRegistration, error) {
	if err := session.Require(sess, session.PermManageUsers); err != nil {
		return nil, err
	}
	if userName == "" {
		return nil, fmt.Errorf("%w: username is required", common.ErrorValidation)
	}
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if err := credentials.ValidatePasswordStrength(password); err != nil {
		return nil, err
	}

	exists, err := s.users(s.db).Exists(ctx, userName, email)
	if err != nil {
		return nil, unavailable(err)
	}
	if exists {
		return nil, fmt.Errorf("%w: user or email already exists", common.ErrorConflict)
	}

	hash, err := credentials.Hash(password)
	if err != nil {
		return nil, err
	}
	if err := s.codes.Issue(ctx, models.PurposeRegistration, userName, email); err != nil {
		return nil, err
	}
	return &PendingRegistration{UserName: userName, Email: email, PasswordHash: hash, IsAdmin: isAdmin}, nil
}

// ConfirmRegistration creates the account once code matches. The code is
// consumed in the same transaction as the insert.
func (s *Service) ConfirmRegistration(ctx context.Context, sess *session.Session, p *PendingRegistration, code string) (*models.User, error) {
	if err := session.Require(sess, session.PermManageUsers); err != nil {
		return nil, err
	}

	user := &models.User{UserName: p.UserName, Email: p.Email, PasswordHash: p.PasswordHash, IsAdmin: p.IsAdmin}
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.codes.VerifyTx(ctx, tx, p.UserName, code); err != nil {
			return err
		}
		if _, err := s.users(tx).Create(ctx, user); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			UserName: sess.UserName,
			Action:   models.ActionInsert,
			Table:    models.UsersTable,
			RecordID: user.ID,
			After: map[string]string{
				"id": user.ID, "username": user.UserName, "email": user.Email,
				"password_hash": user.PasswordHash, "es_admin": fmt.Sprint(user.IsAdmin),
			},
		})
		return nil
	})
	if err != nil {
		return nil, unavailable(err)
	}

	s.log.Info(ctx, "user registered", "by", sess.UserName, "admin", user.IsAdmin)
	return user, nil
}

// RequestPasswordReset mails a code to the stored email of the user matching
// identifier (username or email). It returns that email.
func (s *Service) RequestPasswordReset(ctx context.Context, identifier string) (string, error) {
	user, err := s.users(s.db).GetByIdentifier(ctx, identifier)
	if err != nil {
		return "", unavailable(err)
	}
	if err := s.codes.Issue(ctx, models.PurposePasswordReset, user.UserName, user.Email); err != nil {
		return "", err
	}
	return user.Email, nil
}

// ResetPassword sets a new password once code matches identifier.
func (s *Service) ResetPassword(ctx context.Context, identifier, code, newPassword string) error {
	if err := credentials.ValidatePasswordStrength(newPassword); err != nil {
		return err
	}
	hash, err := credentials.Hash(newPassword)
	if err != nil {
		return err
	}

	err = dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		userName, err := s.codes.VerifyTx(ctx, tx, identifier, code)
		if err != nil {
			return err
		}
		repo := s.users(tx)
		user, err := repo.GetByUserName(ctx, userName)
		if err != nil {
			return err
		}
		if err := repo.UpdatePasswordHash(ctx, userName, hash); err != nil {
			return err
		}
		s.recorder.Record(ctx, tx, audit.Entry{
			UserName: userName,
			Action:   models.ActionUpdate,
			Table:    models.UsersTable,
			RecordID: user.ID,
			Before:   map[string]string{"username": userName, "password_hash": user.PasswordHash},
			After:    map[string]string{"username": userName, "password_hash": hash},
		})
		return nil
	})
	if err != nil {
		return unavailable(err)
	}

	s.log.Info(ctx, "password reset")
	return nil
}

// BeginProfileChange validates the new email and optional new password of
// the logged-in user and mails a code to the new email.
func (s *Service) BeginProfileChange(ctx context.Context, sess *session.Session, newEmail, newPassword string) (*PendingProfileChange, error) {
	if err := session.Require(sess, session.PermRead); err != nil {
		return nil, err
	}
	if err := validateEmail(newEmail); err != nil {
		return nil, err
	}

	p := &PendingProfileChange{Email: newEmail}
	if newPassword != "" {
		if err := credentials.ValidatePasswordStrength(newPassword); err != nil {
			return nil, err
		}
		hash, err := credentials.Hash(newPassword)
		if err != nil {
			return nil, err
		}
		p.PasswordHash = hash
	}

	taken, err := s.users(s.db).EmailTaken(ctx, newEmail, sess.UserName)
	if err != nil {
		return nil, unavailable(err)
	}
	if taken {
		return nil, fmt.Errorf("%w: email already in use", common.ErrorConflict)
	}

	if err := s.codes.Issue(ctx, models.PurposeProfileChange, sess.UserName, newEmail); err != nil {
		return nil, err
	}
	return p, nil
}

// ConfirmProfileChange applies p once code matches.
func (s *Service) ConfirmProfileChange(ctx context.Context, sess *session.Session, p *PendingProfileChange, code string) error {
	if err := session.Require(sess, session.PermRead); err != nil {
		return err
	}

	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if _, err := s.codes.VerifyTx(ctx, tx, sess.UserName, code); err != nil {
			return err
		}
		repo := s.users(tx)
		user, err := repo.GetByUserName(ctx, sess.UserName)
		if err != nil {
			return err
		}

		before := map[string]string{"username": user.UserName, "email": user.Email}
		after := map[string]string{"username": user.UserName, "email": p.Email}

		if err := repo.UpdateEmail(ctx, sess.UserName, p.Email); err != nil {
			return err
		}
		if p.PasswordHash != "" {
			if err := repo.UpdatePasswordHash(ctx, sess.UserName, p.PasswordHash); err != nil {
				return err
			}
			before["password_hash"] = user.PasswordHash
			after["password_hash"] = p.PasswordHash
		}

		s.recorder.Record(ctx, tx, audit.Entry{
			UserName: sess.UserName,
			Action:   models.ActionUpdate,
			Table:    models.UsersTable,
			RecordID: user.ID,
			Before:   before,
			After:    after,
		})
		return nil
	})
	if err != nil {
		return unavailable(err)
	}

	s.log.Info(ctx, "profile updated", "user", sess.UserName)
	return nil
}
