package cli

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/nicole/internal/accounts"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/export"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/recovery"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/session"
	"github.com/dmitrijs2005/nicole/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAuth struct {
	sess    *session.Session
	authErr error

	registered   *accounts.PendingRegistration
	confirmCodes []string
	resetReqs    int
	resetCalls   []string
	profileBegin int
	profile      *accounts.PendingProfileChange
	validCode    string
}

func (f *fakeAuth) Authenticate(_ context.Context, userName, _ string) (*session.Session, error) {
	if f.authErr != nil {
		return nil, f.authErr
	}
	if f.sess == nil {
		f.sess = session.New(userName, false)
	}
	return f.sess, nil
}

func (f *fakeAuth) BeginRegistration(_ context.Context, sess *session.Session, userName, email, _ string, isAdmin bool) (*accounts.PendingRegistration, error) {
	if err := session.Require(sess, session.PermManageUsers); err != nil {
		return nil, err
	}
	return &accounts.PendingRegistration{UserName: userName, Email: email, PasswordHash: "hash", IsAdmin: isAdmin}, nil
}

func (f *fakeAuth) ConfirmRegistration(_ context.Context, _ *session.Session, p *accounts.PendingRegistration, code string) (*models.User, error) {
	f.confirmCodes = append(f.confirmCodes, code)
	if code != f.validCode {
		return nil, recovery.ErrInvalidOrExpired
	}
	f.registered = p
	return &models.User{UserName: p.UserName, Email: p.Email, IsAdmin: p.IsAdmin}, nil
}

func (f *fakeAuth) RequestPasswordReset(context.Context, string) (string, error) {
	f.resetReqs++
	return "alice@example.com", nil
}

func (f *fakeAuth) ResetPassword(_ context.Context, identifier, code, newPassword string) error {
	f.resetCalls = append(f.resetCalls, identifier+"/"+code+"/"+newPassword)
	if code != f.validCode {
		return recovery.ErrInvalidOrExpired
	}
	return nil
}

func (f *fakeAuth) BeginProfileChange(_ context.Context, _ *session.Session, newEmail, newPassword string) (*accounts.PendingProfileChange, error) {
	f.profileBegin++
	return &accounts.PendingProfileChange{Email: newEmail, PasswordHash: newPassword}, nil
}

func (f *fakeAuth) ConfirmProfileChange(_ context.Context, _ *session.Session, p *accounts.PendingProfileChange, code string) error {
	if code != f.validCode {
		return recovery.ErrInvalidOrExpired
	}
	f.profile = p
	return nil
}

type fakeTables struct {
	rs       *tables.ResultSet
	fetches  int
	search   string
	inserted map[string]string
	updated  []string
	deleted  []string
	err      error
}

func (f *fakeTables) Fetch(_ context.Context, _ *session.Session, table string) (*tables.ResultSet, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.fetches++
	rs := *f.rs
	rs.Table = table
	return &rs, nil
}

func (f *fakeTables) Search(ctx context.Context, sess *session.Session, table, text string) (*tables.ResultSet, error) {
	f.search = text
	rs, err := f.Fetch(ctx, sess, table)
	if err != nil {
		return nil, err
	}
	return rs.Filter(text), nil
}

func (f *fakeTables) Columns(context.Context, *session.Session, string) ([]string, error) {
	return f.rs.Columns, nil
}

func (f *fakeTables) Insert(_ context.Context, sess *session.Session, _ string, values map[string]string) (string, error) {
	if err := session.Require(sess, session.PermMutate); err != nil {
		return "", err
	}
	f.inserted = values
	return "3", nil
}

func (f *fakeTables) Update(_ context.Context, _ *session.Session, table, pkColumn, pkValue, column, value string) error {
	f.updated = []string{table, pkColumn, pkValue, column, value}
	return nil
}

func (f *fakeTables) Delete(_ context.Context, _ *session.Session, table, pkColumn, pkValue string) error {
	if f.err != nil {
		return f.err
	}
	f.deleted = []string{table, pkColumn, pkValue}
	return nil
}

type fakeCatalog struct {
	names     []string
	refreshed bool
}

func (f *fakeCatalog) List(context.Context) ([]string, error) { return f.names, nil }
func (f *fakeCatalog) Refresh(context.Context) ([]string, error) {
	f.refreshed = true
	return f.names, nil
}

type fakeHistory struct {
	filter  auditlog.Filter
	entries []models.AuditEntry
}

func (f *fakeHistory) List(_ context.Context, sess *session.Session, filter auditlog.Filter) ([]models.AuditEntry, error) {
	if err := session.Require(sess, session.PermRead); err != nil {
		return nil, err
	}
	f.filter = filter
	return f.entries, nil
}

type fakeUploader struct {
	key    string
	format export.Format
	body   []byte
}

func (f *fakeUploader) Upload(_ context.Context, key string, fm export.Format, body []byte) (string, error) {
	f.key, f.format, f.body = key, fm, body
	return "s3://reports/" + key, nil
}

type harness struct {
	app      *App
	out      *bytes.Buffer
	auth     *fakeAuth
	tables   *fakeTables
	catalog  *fakeCatalog
	history  *fakeHistory
	uploader *fakeUploader
}

// newHarness builds an App reading input line by line. Passwords are taken
// from passwords in order.
func newHarness(t *testing.T, input string, passwords ...string) *harness {
	t.Helper()

	orig := getPassword
	t.Cleanup(func() { getPassword = orig })
	getPassword = func(string, io.Writer) ([]byte, error) {
		require.NotEmpty(t, passwords, "unexpected password prompt")
		pw := passwords[0]
		passwords = passwords[1:]
		return []byte(pw), nil
	}

	h := &harness{
		out:  &bytes.Buffer{},
		auth: &fakeAuth{validCode: "123456"},
		tables: &fakeTables{rs: &tables.ResultSet{
			Columns: []string{"id", "nombre", "ciudad"},
			Rows: [][]string{
				{"1", "Acme", "Madrid"},
				{"2", "Globex", "Lima"},
			},
		}},
		catalog:  &fakeCatalog{names: []string{"clientes", "pedidos"}},
		history:  &fakeHistory{},
		uploader: &fakeUploader{},
	}
	h.app = NewApp(Options{
		Auth:           h.auth,
		Tables:         h.tables,
		Catalog:        h.catalog,
		History:        h.history,
		Uploader:       h.uploader,
		ExportDir:      t.TempDir(),
		ResendCooldown: time.Minute,
		In:             strings.NewReader(input),
		Out:            h.out,
		Log:            logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	})
	return h
}

func (h *harness) loginAs(name string, admin bool) {
	h.app.sess = session.New(name, admin)
}

func TestLogin(t *testing.T) {
	h := newHarness(t, "alice\n", "Secret#123")

	require.NoError(t, h.app.Login(context.Background(), nil))
	assert.True(t, h.app.isLoggedIn())
	assert.Contains(t, h.out.String(), "Welcome, alice (user).")
	assert.Equal(t, "alice", h.app.status())

	require.NoError(t, h.app.Whoami(context.Background(), nil))
	assert.Contains(t, h.out.String(), "alice (user), session "+h.app.sess.ID.String())

	require.NoError(t, h.app.Logout(context.Background(), nil))
	assert.False(t, h.app.isLoggedIn())
	assert.ErrorIs(t, h.app.Whoami(context.Background(), nil), common.ErrorUnauthorized)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	h := newHarness(t, "", "wrong")
	h.auth.authErr = accounts.ErrInvalidCredentials

	err := h.app.Login(context.Background(), []string{"alice"})
	require.Error(t, err)
	assert.Equal(t, "Invalid username or password.", describe(err))
	assert.False(t, h.app.isLoggedIn())
}

func TestBrowsing_RequiresSession(t *testing.T) {
	h := newHarness(t, "")
	ctx := context.Background()

	assert.ErrorIs(t, h.app.Tables(ctx, nil), common.ErrorUnauthorized)
	assert.ErrorIs(t, h.app.Use(ctx, []string{"clientes"}), common.ErrorUnauthorized)
	assert.ErrorIs(t, h.app.History(ctx, nil), common.ErrorUnauthorized)
	assert.Zero(t, h.tables.fetches)
}

func TestTablesUseShowSearch(t *testing.T) {
	h := newHarness(t, "")
	h.loginAs("alice", false)
	ctx := context.Background()

	require.NoError(t, h.app.Tables(ctx, nil))
	assert.Contains(t, h.out.String(), "clientes")

	require.NoError(t, h.app.Refresh(ctx, nil))
	assert.True(t, h.catalog.refreshed)

	assert.ErrorIs(t, h.app.Show(ctx, nil), errNoTable)

	require.NoError(t, h.app.Use(ctx, []string{"clientes"}))
	assert.Equal(t, "clientes", h.app.current)
	assert.Contains(t, h.out.String(), "Globex")
	assert.Contains(t, h.out.String(), "(2 rows)")

	h.out.Reset()
	require.NoError(t, h.app.Search(ctx, []string{"madrid"}))
	assert.Equal(t, "madrid", h.tables.search)
	assert.Contains(t, h.out.String(), "Acme")
	assert.NotContains(t, h.out.String(), "Globex")
	assert.Len(t, h.app.last.Rows, 1)
}

func TestExport_FileUsesLastShownRows(t *testing.T) {
	h := newHarness(t, "")
	h.loginAs("alice", false)
	ctx := context.Background()

	require.NoError(t, h.app.Use(ctx, []string{"clientes"}))
	require.NoError(t, h.app.Search(ctx, []string{"lima"}))
	require.NoError(t, h.app.Export(ctx, []string{"clientes.csv"}))

	data, err := os.ReadFile(filepath.Join(h.app.exportDir, "clientes.csv"))
	require.NoError(t, err)
	assert.Equal(t, "id,nombre,ciudad\n2,Globex,Lima\n", string(data))

	assert.Error(t, h.app.Export(ctx, []string{"clientes.txt"}))
	assert.Error(t, h.app.Export(ctx, nil))
}

func TestExport_S3(t *testing.T) {
	h := newHarness(t, "")
	h.loginAs("alice", false)
	ctx := context.Background()
	h.app.current = "clientes"

	require.NoError(t, h.app.Export(ctx, []string{"s3://daily/clientes.xlsx"}))
	assert.Equal(t, "daily/clientes.xlsx", h.uploader.key)
	assert.Equal(t, export.XLSX, h.uploader.format)
	assert.NotEmpty(t, h.uploader.body)
	assert.Equal(t, 1, h.tables.fetches)
	assert.Contains(t, h.out.String(), "s3://reports/daily/clientes.xlsx")

	h.app.uploader = nil
	assert.ErrorIs(t, h.app.Export(ctx, []string{"s3://x.csv"}), export.ErrS3NotConfigured)
}

func TestAdd(t *testing.T) {
	h := newHarness(t, "\nInitech\nQuito\n")
	h.loginAs("root", true)
	h.app.current = "clientes"

	require.NoError(t, h.app.Add(context.Background(), nil))
	assert.Equal(t, map[string]string{"nombre": "Initech", "ciudad": "Quito"}, h.tables.inserted)
	assert.Contains(t, h.out.String(), "Record 3 added to clientes.")
}

func TestAdd_PasswordColumnReadWithoutEcho(t *testing.T) {
	h := newHarness(t, "7\nbob\n", "Secret#123")
	h.loginAs("root", true)
	h.app.current = "cuentas"
	h.tables.rs = &tables.ResultSet{Columns: []string{"id", "usuario", "password"}}

	require.NoError(t, h.app.Add(context.Background(), nil))
	assert.Equal(t, map[string]string{"id": "7", "usuario": "bob", "password": "Secret#123"}, h.tables.inserted)
}

func TestMutations_NonAdminRefusedBeforePrompting(t *testing.T) {
	h := newHarness(t, "")
	h.loginAs("alice", false)
	h.app.current = "clientes"
	ctx := context.Background()

	assert.ErrorIs(t, h.app.Add(ctx, nil), common.ErrorForbidden)
	assert.ErrorIs(t, h.app.Edit(ctx, []string{"1"}), common.ErrorForbidden)
	assert.ErrorIs(t, h.app.Delete(ctx, []string{"1"}), common.ErrorForbidden)
	assert.ErrorIs(t, h.app.AddUser(ctx, nil), common.ErrorForbidden)
	assert.Nil(t, h.tables.inserted)
	assert.Nil(t, h.tables.deleted)
}

func TestEdit(t *testing.T) {
	h := newHarness(t, "ciudad\nBogota\n")
	h.loginAs("root", true)
	ctx := context.Background()
	require.NoError(t, h.app.Use(ctx, []string{"clientes"}))

	require.NoError(t, h.app.Edit(ctx, []string{"2"}))
	assert.Equal(t, []string{"clientes", "id", "2", "ciudad", "Bogota"}, h.tables.updated)
}

func TestDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("confirmed", func(t *testing.T) {
		h := newHarness(t, "1\ny\n")
		h.loginAs("root", true)
		h.app.current = "clientes"

		require.NoError(t, h.app.Delete(ctx, nil))
		assert.Equal(t, []string{"clientes", "id", "1"}, h.tables.deleted)
	})

	t.Run("declined", func(t *testing.T) {
		h := newHarness(t, "n\n")
		h.loginAs("root", true)
		h.app.current = "clientes"

		assert.ErrorIs(t, h.app.Delete(ctx, []string{"1"}), errCancelled)
		assert.Nil(t, h.tables.deleted)
	})

	t.Run("referenced", func(t *testing.T) {
		h := newHarness(t, "yes\n")
		h.loginAs("root", true)
		h.app.current = "clientes"
		h.tables.err = &common.ForeignKeyError{DependentTable: "pedidos"}

		err := h.app.Delete(ctx, []string{"1"})
		require.Error(t, err)
		assert.Equal(t, "Cannot delete: record is referenced by table 'pedidos'.", describe(err))
	})
}

func TestHistory(t *testing.T) {
	h := newHarness(t, "")
	h.loginAs("alice", false)
	h.history.entries = []models.AuditEntry{{
		UserName:  "root",
		CreatedAt: time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC),
		Action:    models.ActionDelete,
		Table:     "clientes",
		RecordID:  "1",
		Before:    `{"nombre":"Acme"}`,
	}}

	require.NoError(t, h.app.History(context.Background(), []string{"clientes"}))
	assert.Equal(t, auditlog.Filter{Table: "clientes", Limit: 100}, h.history.filter)
	assert.Contains(t, h.out.String(), "DELETE")
	assert.Contains(t, h.out.String(), `{"nombre":"Acme"}`)
}

func TestAddUser(t *testing.T) {
	h := newHarness(t, "bob\nbob@example.com\nn\n000000\nresend\n123456\n", "Secret#123", "Secret#123")
	h.loginAs("root", true)

	require.NoError(t, h.app.AddUser(context.Background(), nil))
	require.NotNil(t, h.auth.registered)
	assert.Equal(t, "bob", h.auth.registered.UserName)
	assert.False(t, h.auth.registered.IsAdmin)
	assert.Equal(t, []string{"000000", "123456"}, h.auth.confirmCodes)

	out := h.out.String()
	assert.Contains(t, out, "Invalid or expired code.")
	assert.Contains(t, out, "please wait 60 seconds")
	assert.Contains(t, out, "User bob created.")
}

func TestAddUser_PasswordMismatch(t *testing.T) {
	h := newHarness(t, "bob\nbob@example.com\n", "Secret#123", "Secret#124")
	h.loginAs("root", true)

	err := h.app.AddUser(context.Background(), nil)
	assert.ErrorIs(t, err, common.ErrorValidation)
	assert.Nil(t, h.auth.registered)
}

func TestReset_ResendAfterCooldown(t *testing.T) {
	h := newHarness(t, "resend\nresend\n123456\n", "Secret#123", "Secret#123")
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	h.app.cooldown.now = func() time.Time { return now }

	resend := 0
	getText := getSimpleText
	t.Cleanup(func() { getSimpleText = getText })
	getSimpleText = func(r *bufio.Reader, prompt string, w io.Writer) (string, error) {
		line, err := getText(r, prompt, w)
		if line == "resend" {
			resend++
			if resend == 2 {
				now = now.Add(61 * time.Second)
			}
		}
		return line, err
	}

	require.NoError(t, h.app.Reset(context.Background(), []string{"alice"}))
	assert.Equal(t, 2, h.auth.resetReqs)
	assert.Equal(t, []string{"alice/123456/Secret#123"}, h.auth.resetCalls)
	assert.Contains(t, h.out.String(), "Password updated")
}

func TestReset_Cancel(t *testing.T) {
	h := newHarness(t, "alice\n\n")

	assert.ErrorIs(t, h.app.Reset(context.Background(), nil), errCancelled)
	assert.Equal(t, 1, h.auth.resetReqs)
	assert.Empty(t, h.auth.resetCalls)
}

func TestProfile(t *testing.T) {
	h := newHarness(t, "new@example.com\n123456\n", "")
	h.loginAs("alice", false)

	require.NoError(t, h.app.Profile(context.Background(), nil))
	require.NotNil(t, h.auth.profile)
	assert.Equal(t, "new@example.com", h.auth.profile.Email)
	assert.Empty(t, h.auth.profile.PasswordHash)
	assert.Contains(t, h.out.String(), "Profile updated.")
}
