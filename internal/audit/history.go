package audit

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/session"
)

// History lists audit entries. Any logged-in user may read it.
type History struct {
	db   *sql.DB
	repo func(dbx.DBTX) auditlog.Repository
}

func NewHistory(db *sql.DB, repo func(dbx.DBTX) auditlog.Repository) *History {
	return &History{db: db, repo: repo}
}

// List returns entries newest first, optionally restricted to one table.
func (h *History) List(ctx context.Context, sess *session.Session, f auditlog.Filter) ([]models.AuditEntry, error) {
	if err := session.Require(sess, session.PermRead); err != nil {
		return nil, err
	}
	entries, err := h.repo(h.db).List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorUnavailable, err)
	}
	return entries, nil
}
