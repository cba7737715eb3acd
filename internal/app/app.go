// Package app wires configuration, storage and services into the console
// and runs it until the operator exits or the process is signalled.
package app

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/nicole/internal/accounts"
	"github.com/dmitrijs2005/nicole/internal/audit"
	"github.com/dmitrijs2005/nicole/internal/cli"
	"github.com/dmitrijs2005/nicole/internal/config"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/export"
	"github.com/dmitrijs2005/nicole/internal/filex"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/mailer"
	"github.com/dmitrijs2005/nicole/internal/recovery"
	"github.com/dmitrijs2005/nicole/internal/repositories/repomanager"
	"github.com/dmitrijs2005/nicole/internal/tables"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	console *cli.App
}

// openDatabase is a seam for dialect.Open.
var openDatabase = dialect.Open

// NewApp connects to the database, applies migrations, seeds the default
// administrator and builds the console reading in and writing out.
// Operational logs go to logOut.
func NewApp(ctx context.Context, c *config.Config, in io.Reader, out, logOut io.Writer) (*App, error) {
	logger, err := logging.New(logOut, c.LogFormat, c.LogLevel)
	if err != nil {
		return nil, err
	}

	db, d, err := openDatabase(ctx, c.Database())
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	app, err := build(ctx, c, logger, db, d, in, out)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return app, nil
}

func build(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, d dialect.Dialect, in io.Reader, out io.Writer) (*App, error) {
	rm := repomanager.NewSQLRepositoryManager(d)
	if err := rm.RunMigrations(ctx, db); err != nil {
		return nil, fmt.Errorf("migrations: %w", err)
	}

	recorder := audit.NewRecorder(rm.AuditLog, logger)
	catalog := tables.NewCatalog(db, d, c.TableCacheTTL)
	gateway := tables.NewGateway(db, d, catalog, recorder, c.RowLimit, logger)
	history := audit.NewHistory(db, rm.AuditLog)

	mail := mailer.New(c.Mail(), c.CodeTTL)
	if !mail.Configured() {
		logger.Warn(ctx, "email settings are incomplete, verification codes cannot be sent")
	}
	codes := recovery.NewManager(db, rm.RecoveryCodes, mail, recovery.Options{
		TTL:               c.CodeTTL,
		AttemptsPerMinute: c.VerifyAttemptsPerMinute,
	}, logger)

	auth := accounts.NewService(db, rm.Users, codes, recorder, logger)
	if err := auth.EnsureDefaultAdmin(ctx); err != nil {
		return nil, fmt.Errorf("default administrator: %w", err)
	}

	exportDir, err := filex.EnsureDir(c.ExportDir)
	if err != nil {
		return nil, err
	}

	opts := cli.Options{
		Auth:           auth,
		Tables:         gateway,
		Catalog:        catalog,
		History:        history,
		ExportDir:      exportDir,
		ResendCooldown: c.ResendCooldown,
		In:             in,
		Out:            out,
		Log:            logger,
	}

	uploader, err := export.NewS3Uploader(ctx, c.S3())
	switch {
	case err == nil:
		opts.Uploader = uploader
	case errors.Is(err, export.ErrS3NotConfigured):
	default:
		logger.Warn(ctx, "s3 export disabled", "error", err.Error())
	}

	logger.Info(ctx, "database ready", "driver", d.Name(), "export_dir", exportDir)
	return &App{config: c, logger: logger, db: db, console: cli.NewApp(opts)}, nil
}

// Run serves the console until exit, end of input or SIGINT/SIGTERM, then
// closes the database.
func (app *App) Run(ctx context.Context) {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	app.logger.Info(ctx, "starting console")

	done := make(chan struct{})
	go func() {
		defer close(done)
		app.console.Run(ctx)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		app.logger.Info(context.WithoutCancel(ctx), "signal received, shutting down")
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(context.WithoutCancel(ctx), "closing database", "error", err.Error())
	}
}
