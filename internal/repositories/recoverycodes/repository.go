// Package recoverycodes declares the storage contract for one-time
// verification codes (the recuperacion_codigos table).
package recoverycodes

import (
	"context"
	"time"

	"github.com/dmitrijs2005/nicole/internal/models"
)

type Repository interface {
	// DeleteByUserName removes every code held by userName. Deleting nothing is not an error.
	DeleteByUserName(ctx context.Context, userName string) error

	Insert(ctx context.Context, code *models.RecoveryCode) error

	// FindValid returns the username owning code when identifier matches the
	// username or email of the row and the code has not expired at now.
	// It returns common.ErrorNotFound otherwise.
	FindValid(ctx context.Context, identifier, code string, now time.Time) (string, error)
}
