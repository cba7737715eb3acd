package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/nicole/internal/dbx"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/repositories/recoverycodes"
	"github.com/dmitrijs2005/nicole/internal/repositories/users"
)

type RepositoryManager interface {
	Dialect() dialect.Dialect
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	AuditLog(db dbx.DBTX) auditlog.Repository
	RecoveryCodes(db dbx.DBTX) recoverycodes.Repository
}
