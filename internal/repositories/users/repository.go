// Package users declares the storage contract for application accounts
// (the usuarios_app table).
package users

import (
	"context"

	"github.com/dmitrijs2005/nicole/internal/models"
)

type Repository interface {
	// Create inserts user and fills in its generated ID. Unique violations on
	// username or email are reported as common.ErrorConflict.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// GetByUserName returns common.ErrorNotFound when no such user exists.
	GetByUserName(ctx context.Context, userName string) (*models.User, error)

	// GetByIdentifier matches identifier against username or email.
	GetByIdentifier(ctx context.Context, identifier string) (*models.User, error)

	// EmailTaken reports whether email belongs to a user other than exceptUserName.
	EmailTaken(ctx context.Context, email, exceptUserName string) (bool, error)

	// Exists reports whether userName or email is already registered.
	Exists(ctx context.Context, userName, email string) (bool, error)

	UpdatePasswordHash(ctx context.Context, userName, hash string) error

	UpdateEmail(ctx context.Context, userName, email string) error

	CountAdmins(ctx context.Context) (int, error)
}
