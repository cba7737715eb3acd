package tables

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/nicole/internal/audit"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/credentials"
	"github.com/dmitrijs2005/nicole/internal/dbtest"
	"github.com/dmitrijs2005/nicole/internal/dialect"
	"github.com/dmitrijs2005/nicole/internal/logging"
	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/session"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var schema = []string{
	`CREATE TABLE clientes (id INTEGER PRIMARY KEY AUTOINCREMENT, nombre TEXT NOT NULL, email TEXT UNIQUE)`,
	`CREATE TABLE pedidos (id INTEGER PRIMARY KEY AUTOINCREMENT, cliente_id INTEGER NOT NULL REFERENCES clientes(id), total REAL)`,
	`CREATE TABLE cuentas (id INTEGER PRIMARY KEY AUTOINCREMENT, login TEXT NOT NULL, password TEXT NOT NULL)`,
	`INSERT INTO clientes (id, nombre, email) VALUES (1, 'Ana Pérez', 'ana@example.com'), (2, 'Luis Gómez', 'luis@example.com')`,
	`INSERT INTO pedidos (id, cliente_id, total) VALUES (10, 1, 99.5)`,
}

type fixture struct {
	db      *sql.DB
	gw      *Gateway
	history *audit.History
	admin   *session.Session
	viewer  *session.Session
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, rm := dbtest.Open(t, schema...)
	log := logging.NewZerologLogger(zerolog.Nop())
	d := dialect.SQLite{}

	return &fixture{
		db:      db,
		gw:      NewGateway(db, d, NewCatalog(db, d, time.Minute), audit.NewRecorder(rm.AuditLog, log), 0, log),
		history: audit.NewHistory(db, rm.AuditLog),
		admin:   session.New("admin", true),
		viewer:  session.New("bob", false),
	}
}

func (f *fixture) count(t *testing.T, table string) int {
	t.Helper()
	var n int
	require.NoError(t, f.db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func (f *fixture) auditEntries(t *testing.T, table string) []models.AuditEntry {
	t.Helper()
	entries, err := f.history.List(context.Background(), f.admin, auditlog.Filter{Table: table})
	require.NoError(t, err)
	return entries
}

func TestFetch(t *testing.T) {
	f := newFixture(t)

	rs, err := f.gw.Fetch(context.Background(), f.viewer, "clientes")
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "nombre", "email"}, rs.Columns)
	assert.Equal(t, "id", rs.PrimaryKey())
	require.Len(t, rs.Rows, 2)
	assert.Equal(t, []string{"1", "Ana Pérez", "ana@example.com"}, rs.Rows[0])
}

func TestFetch_RowLimit(t *testing.T) {
	f := newFixture(t)
	f.gw.rowLimit = 1

	rs, err := f.gw.Fetch(context.Background(), f.viewer, "clientes")
	require.NoError(t, err)
	assert.Len(t, rs.Rows, 1)
}

func TestFetch_InternalTableRefused(t *testing.T) {
	f := newFixture(t)

	for _, table := range []string{"usuarios_app", "historial", "recuperacion_codigos", "nope"} {
		_, err := f.gw.Fetch(context.Background(), f.admin, table)
		assert.ErrorIs(t, err, ErrTableNotAllowed, table)
	}
}

func TestFetch_RequiresSession(t *testing.T) {
	f := newFixture(t)

	_, err := f.gw.Fetch(context.Background(), nil, "clientes")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)
}

func TestSearch_CaseInsensitive(t *testing.T) {
	f := newFixture(t)

	rs, err := f.gw.Search(context.Background(), f.viewer, "clientes", "LUIS")
	require.NoError(t, err)
	require.Len(t, rs.Rows, 1)
	assert.Equal(t, "2", rs.Rows[0][0])

	rs, err = f.gw.Search(context.Background(), f.viewer, "clientes", "")
	require.NoError(t, err)
	assert.Len(t, rs.Rows, 2)
}

func TestInsert_AppearsInFetchAndIsAudited(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.gw.Insert(ctx, f.admin, "clientes", map[string]string{"nombre": "Marta", "email": "marta@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "3", id)

	rs, err := f.gw.Fetch(ctx, f.admin, "clientes")
	require.NoError(t, err)
	found := false
	for _, row := range rs.Rows {
		if row[0] == id && row[1] == "Marta" {
			found = true
		}
	}
	assert.True(t, found, "inserted row must be returned by fetch")

	entries := f.auditEntries(t, "clientes")
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionInsert, entries[0].Action)
	assert.Equal(t, id, entries[0].RecordID)
	assert.Equal(t, "admin", entries[0].UserName)

	var after map[string]string
	require.NoError(t, json.Unmarshal([]byte(entries[0].After), &after))
	assert.Equal(t, "Marta", after["nombre"])
	assert.Equal(t, id, after["id"])
}

func TestInsert_Validation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.Insert(ctx, f.admin, "clientes", map[string]string{})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.gw.Insert(ctx, f.admin, "clientes", map[string]string{"nombre": "  "})
	assert.ErrorIs(t, err, common.ErrorValidation)

	_, err = f.gw.Insert(ctx, f.admin, "clientes", map[string]string{"nombre": "x", "bogus": "y"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	assert.Equal(t, 2, f.count(t, "clientes"))
	assert.Empty(t, f.auditEntries(t, "clientes"))
}

func TestInsert_Conflict(t *testing.T) {
	f := newFixture(t)

	_, err := f.gw.Insert(context.Background(), f.admin, "clientes", map[string]string{"nombre": "Otra", "email": "ana@example.com"})
	assert.ErrorIs(t, err, common.ErrorConflict)
	assert.Empty(t, f.auditEntries(t, "clientes"))
}

func TestInsert_PasswordColumnIsHashedAndMasked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.Insert(ctx, f.admin, "cuentas", map[string]string{"login": "ops", "password": "weak"})
	assert.ErrorIs(t, err, common.ErrorValidation)

	id, err := f.gw.Insert(ctx, f.admin, "cuentas", map[string]string{"login": "ops", "password": "Str0ng!pass"})
	require.NoError(t, err)

	var stored string
	require.NoError(t, f.db.QueryRow(`SELECT password FROM cuentas WHERE id = ?`, id).Scan(&stored))
	ok, err := credentials.Verify(stored, "Str0ng!pass")
	require.NoError(t, err)
	assert.True(t, ok)

	entries := f.auditEntries(t, "cuentas")
	require.Len(t, entries, 1)
	assert.NotContains(t, entries[0].After, stored)
	assert.NotContains(t, entries[0].After, "Str0ng!pass")
}

func TestInsert_NonAdminRefused(t *testing.T) {
	f := newFixture(t)

	_, err := f.gw.Insert(context.Background(), f.viewer, "clientes", map[string]string{"nombre": "x"})
	assert.ErrorIs(t, err, common.ErrorForbidden)
	assert.Equal(t, 2, f.count(t, "clientes"))
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.gw.Update(ctx, f.admin, "clientes", "id", "1", "nombre", "Ana P."))

	var nombre string
	require.NoError(t, f.db.QueryRow(`SELECT nombre FROM clientes WHERE id = 1`).Scan(&nombre))
	assert.Equal(t, "Ana P.", nombre)

	entries := f.auditEntries(t, "clientes")
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionUpdate, entries[0].Action)
	assert.Equal(t, "1", entries[0].RecordID)
	assert.JSONEq(t, `{"nombre":"Ana Pérez"}`, entries[0].Before)
	assert.JSONEq(t, `{"nombre":"Ana P."}`, entries[0].After)
}

func TestUpdate_Refusals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	assert.ErrorIs(t, f.gw.Update(ctx, f.admin, "clientes", "id", "1", "id", "5"), common.ErrorValidation)
	assert.ErrorIs(t, f.gw.Update(ctx, f.admin, "clientes", "id", "1", "bogus", "5"), common.ErrorValidation)
	assert.ErrorIs(t, f.gw.Update(ctx, f.admin, "clientes", "id", "999", "nombre", "x"), common.ErrorNotFound)
	assert.ErrorIs(t, f.gw.Update(ctx, f.viewer, "clientes", "id", "1", "nombre", "x"), common.ErrorForbidden)
	assert.ErrorIs(t, f.gw.Update(ctx, f.admin, "usuarios_app", "id", "1", "email", "x"), ErrTableNotAllowed)
	assert.Empty(t, f.auditEntries(t, ""))
}

func TestUpdate_PasswordColumnMasked(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	id, err := f.gw.Insert(ctx, f.admin, "cuentas", map[string]string{"login": "ops", "password": "Str0ng!pass"})
	require.NoError(t, err)
	require.NoError(t, f.gw.Update(ctx, f.admin, "cuentas", "id", id, "password", "N3w!secret"))

	entries := f.auditEntries(t, "cuentas")
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionUpdate, entries[0].Action)
	assert.JSONEq(t, `{"password":"***"}`, entries[0].Before)
	assert.JSONEq(t, `{"password":"***"}`, entries[0].After)
}

func TestDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	require.NoError(t, f.gw.Delete(ctx, f.admin, "clientes", "id", "2"))
	assert.Equal(t, 1, f.count(t, "clientes"))

	entries := f.auditEntries(t, "clientes")
	require.Len(t, entries, 1)
	assert.Equal(t, models.ActionDelete, entries[0].Action)
	assert.Equal(t, "2", entries[0].RecordID)
	assert.JSONEq(t, `{"id":"2","nombre":"Luis Gómez","email":"luis@example.com"}`, entries[0].Before)
	assert.Empty(t, entries[0].After)

	assert.ErrorIs(t, f.gw.Delete(ctx, f.admin, "clientes", "id", "2"), common.ErrorNotFound)
}

func TestDelete_ForeignKeyNamesDependentTable(t *testing.T) {
	f := newFixture(t)

	err := f.gw.Delete(context.Background(), f.admin, "clientes", "id", "1")
	require.Error(t, err)

	var fk *common.ForeignKeyError
	require.ErrorAs(t, err, &fk)
	assert.Equal(t, "pedidos", fk.DependentTable)
	assert.True(t, strings.Contains(err.Error(), "pedidos"))

	assert.Equal(t, 2, f.count(t, "clientes"), "no row may be removed")
	assert.Empty(t, f.auditEntries(t, "clientes"))
}

func TestDelete_NonAdminNeverReachesDatabase(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	log := logging.NewZerologLogger(zerolog.Nop())
	d := dialect.Postgres{}
	gw := NewGateway(db, d, NewCatalog(db, d, time.Minute), audit.NewRecorder(nil, log), 0, log)

	err = gw.Delete(context.Background(), session.New("bob", false), "clientes", "id", "1")
	assert.ErrorIs(t, err, common.ErrorForbidden)

	err = gw.Delete(context.Background(), nil, "clientes", "id", "1")
	assert.ErrorIs(t, err, common.ErrorUnauthorized)

	require.NoError(t, mock.ExpectationsWereMet(), "no statement may be issued")
}

func TestMutation_UnavailableIsRetryable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.gw.Fetch(ctx, f.admin, "clientes")
	require.NoError(t, err)
	require.NoError(t, f.db.Close())

	_, err = f.gw.Fetch(ctx, f.admin, "clientes")
	assert.ErrorIs(t, err, common.ErrorUnavailable)
}
