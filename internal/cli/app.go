package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/dmitrijs2005/nicole/internal/accounts"
	"github.com/dmitrijs2005/nicole/internal/export"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/session"
	"github.com/dmitrijs2005/nicole/internal/tables"
)

// Input helpers are indirections so tests can script a session.
var (
	getSimpleText = GetSimpleText
	getPassword   = GetPassword
	confirm       = Confirm
)

type AuthService interface {
	Authenticate(ctx context.Context, userName, password string) (*session.Session, error)
	BeginRegistration(ctx context.Context, sess *session.Session, userName, email, password string, isAdmin bool) (*accounts.PendingRegistration, error)
	ConfirmRegistration(ctx context.Context, sess *session.Session, p *accounts.PendingRegistration, code string) (*models.User, error)
	RequestPasswordReset(ctx context.Context, identifier string) (string, error)
	ResetPassword(ctx context.Context, identifier, code, newPassword string) error
	BeginProfileChange(ctx context.Context, sess *session.Session, newEmail, newPassword string) (*accounts.PendingProfileChange, error)
	ConfirmProfileChange(ctx context.Context, sess *session.Session, p *accounts.PendingProfileChange, code string) error
}

type TableService interface {
	Fetch(ctx context.Context, sess *session.Session, table string) (*tables.ResultSet, error)
	Search(ctx context.Context, sess *session.Session, table, text string) (*tables.ResultSet, error)
	Columns(ctx context.Context, sess *session.Session, table string) ([]string, error)
	Insert(ctx context.Context, sess *session.Session, table string, values map[string]string) (string, error)
	Update(ctx context.Context, sess *session.Session, table, pkColumn, pkValue, column, value string) error
	Delete(ctx context.Context, sess *session.Session, table, pkColumn, pkValue string) error
}

type Catalog interface {
	List(ctx context.Context) ([]string, error)
	Refresh(ctx context.Context) ([]string, error)
}

type HistoryService interface {
	List(ctx context.Context, sess *session.Session, f auditlog.Filter) ([]models.AuditEntry, error)
}

type Uploader interface {
	Upload(ctx context.Context, key string, f export.Format, body []byte) (string, error)
}

// Options wires the services used by the console. Uploader may be nil, in
// which case s3:// exports are refused.
type Options struct {
	Auth           AuthService
	Tables         TableService
	Catalog        Catalog
	History        HistoryService
	Uploader       Uploader
	ExportDir      string
	ResendCooldown time.Duration
	HistoryLimit   int
	In             io.Reader
	Out            io.Writer
	Log            logging.Logger
}

type App struct {
	auth      AuthService
	tables    TableService
	catalog   Catalog
	history   HistoryService
	uploader  Uploader
	exportDir string
	histLimit int
	cooldown  *cooldown

	sess    *session.Session
	current string
	last    *tables.ResultSet

	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger
}

func NewApp(o Options) *App {
	limit := o.HistoryLimit
	if limit <= 0 {
		limit = 100
	}
	return &App{
		auth:      o.Auth,
		tables:    o.Tables,
		catalog:   o.Catalog,
		history:   o.History,
		uploader:  o.Uploader,
		exportDir: o.ExportDir,
		histLimit: limit,
		cooldown:  newCooldown(o.ResendCooldown),
		reader:    bufio.NewReader(o.In),
		out:       o.Out,
		log:       o.Log,
	}
}

// Run prints the banner and serves commands until exit or end of input.
func (a *App) Run(ctx context.Context) {
	a.println("nicole console (type 'help' for commands)")
	runREPL(ctx, a, a.status, a.reader, a.out)
}

func (a *App) isLoggedIn() bool {
	return a.sess != nil
}

func (a *App) status() string {
	if a.sess == nil {
		return "guest"
	}
	s := a.sess.UserName
	if a.sess.IsAdmin {
		s += "*"
	}
	if a.current != "" {
		s += " " + a.current
	}
	return s
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) prompt(text string) (string, error) {
	return getSimpleText(a.reader, text, a.out)
}
