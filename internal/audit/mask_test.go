package audit

import (
	"testing"

	"github.com/dmitrijs2005/nicole/internal/models"
	"github.com/stretchr/testify/assert"
)

func TestMask_UsersTable(t *testing.T) {
	e := Entry{
		UserName: "admin",
		Action:   models.ActionUpdate,
		Table:    models.UsersTable,
		RecordID: "7",
		Before: map[string]string{
			"id": "7", "username": "alice", "email": "alice@example.com",
			"password_hash": "$argon2id$old", "es_admin": "false",
		},
		After: map[string]string{
			"id": "7", "username": "alice", "email": "alice@example.com",
			"password_hash": "$argon2id$new", "note": "alice asked for this",
		},
	}

	got := Mask(e)

	assert.Equal(t, "***", got.RecordID)
	for _, snap := range []map[string]string{got.Before, got.After} {
		assert.Equal(t, "***", snap["username"])
		assert.Equal(t, "***", snap["email"])
		assert.Equal(t, "***", snap["password_hash"])
		assert.Equal(t, "7", snap["id"])
	}
	assert.Equal(t, "*** asked for this", got.After["note"])
	assert.Equal(t, "false", got.Before["es_admin"])

	// the input is not modified
	assert.Equal(t, "alice", e.Before["username"])
	assert.Equal(t, "7", e.RecordID)
}

func TestMask_OtherTablesUntouched(t *testing.T) {
	e := Entry{
		Table:    "clientes",
		RecordID: "3",
		After:    map[string]string{"email": "c@example.com"},
	}
	assert.Equal(t, e, Mask(e))
}

func TestMask_NilSnapshots(t *testing.T) {
	got := Mask(Entry{Table: models.UsersTable, After: map[string]string{"username": "bob"}})
	assert.Nil(t, got.Before)
	assert.Equal(t, "***", got.After["username"])
}

func TestMaskColumn(t *testing.T) {
	assert.True(t, MaskColumn("password"))
	assert.True(t, MaskColumn("PassCode"))
	assert.True(t, MaskColumn("password_hash"))
	assert.False(t, MaskColumn("nombre"))
}
