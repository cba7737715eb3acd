// Package auditlog declares the storage contract for the change history
// (the historial table).
package auditlog

import (
	"context"

	"github.com/dmitrijs2005/nicole/internal/models"
)

// Filter narrows a history listing. Zero values mean no restriction.
type Filter struct {
	Table string
	Limit int
}

type Repository interface {
	Insert(ctx context.Context, entry *models.AuditEntry) error
	// List returns entries newest first.
	List(ctx context.Context, filter Filter) ([]models.AuditEntry, error)
}
