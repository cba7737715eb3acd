package session

import (
	"testing"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	a := New("alice", true)
	b := New("alice", true)

	assert.Equal(t, "alice", a.UserName)
	assert.True(t, a.IsAdmin)
	assert.False(t, a.StartedAt.IsZero())
	assert.NotEqual(t, a.ID, b.ID)
}

func TestRequire(t *testing.T) {
	admin := New("admin", true)
	user := New("bob", false)

	tests := []struct {
		name string
		s    *Session
		p    Permission
		want error
	}{
		{"no session read", nil, PermRead, common.ErrorUnauthorized},
		{"no session mutate", nil, PermMutate, common.ErrorUnauthorized},
		{"user read", user, PermRead, nil},
		{"user mutate", user, PermMutate, common.ErrorForbidden},
		{"user manage", user, PermManageUsers, common.ErrorForbidden},
		{"admin mutate", admin, PermMutate, nil},
		{"admin manage", admin, PermManageUsers, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Require(tt.s, tt.p)
			if tt.want == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestPermissionString(t *testing.T) {
	assert.Equal(t, "modify data", PermMutate.String())
	assert.Equal(t, "permission(9)", Permission(9).String())
}
