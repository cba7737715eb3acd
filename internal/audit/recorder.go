// Package audit records committed table mutations in the change history and
// lists that history back.
package audit

import (
	"context"
	"encoding/json"
	"time"

	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
)

// Entry describes one mutation before masking and serialization.
type Entry struct {
	UserName string
	Action   models.AuditAction
	Table    string
	RecordID string
	Before   map[string]string
	After    map[string]string
}

const savepointName = "audit_entry"

type Recorder struct {
	repo func(dbx.DBTX) auditlog.Repository
	log  logging.Logger
	now  func() time.Time
}

// NewRecorder builds a Recorder. repo is usually
// RepositoryManager.AuditLog.
func NewRecorder(repo func(dbx.DBTX) auditlog.Repository, log logging.Logger) *Recorder {
	return &Recorder{
		repo: repo,
		log:  log,
		now:  func() time.Time { return time.Now().UTC().Truncate(time.Second) },
	}
}

// Record writes e inside the caller's transaction tx. The insert runs under a
// savepoint: when it fails, the savepoint is rolled back, the failure is
// logged and the caller's mutation is left intact.
func (r *Recorder) Record(ctx context.Context, tx dbx.DBTX, e Entry) {
	e = Mask(e)

	row := &models.AuditEntry{
		UserName:  e.UserName,
		CreatedAt: r.now(),
		Action:    e.Action,
		Table:     e.Table,
		RecordID:  e.RecordID,
		Before:    snapshot(e.Before),
		After:     snapshot(e.After),
	}

	err := dbx.WithSavepoint(ctx, tx, savepointName, func(ctx context.Context) error {
		return r.repo(tx).Insert(ctx, row)
	})
	if err != nil {
		r.log.Error(ctx, "audit entry not recorded",
			"table", e.Table, "action", string(e.Action), "user", e.UserName, "error", err)
	}
}

func snapshot(m map[string]string) string {
	if m == nil {
		return ""
	}
	b, err := json.Marshal(m)
	if err != nil {
		return ""
	}
	return string(b)
}
