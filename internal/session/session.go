// Package session holds the authenticated operator and the permission gate
// every table and account operation goes through.
package session

import (
	"fmt"
	"time"

	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/google/uuid"
)

// Session is created at login and discarded at logout. It is passed
// explicitly to every operation that needs an identity.
type Session struct {
	ID        uuid.UUID
	UserName  string
	IsAdmin   bool
	StartedAt time.Time
}

func New(userName string, isAdmin bool) *Session {
	return &Session{
		ID:        uuid.New(),
		UserName:  userName,
		IsAdmin:   isAdmin,
		StartedAt: time.Now().UTC(),
	}
}

type Permission int

const (
	PermRead Permission = iota
	PermMutate
	PermManageUsers
)

func (p Permission) String() string {
	switch p {
	case PermRead:
		return "read"
	case PermMutate:
		return "modify data"
	case PermManageUsers:
		return "manage users"
	default:
		return fmt.Sprintf("permission(%d)", int(p))
	}
}

// Require fails with common.ErrorUnauthorized when there is no session and
// with common.ErrorForbidden when p needs an administrator.
func Require(s *Session, p Permission) error {
	if s == nil {
		return common.ErrorUnauthorized
	}
	if p != PermRead && !s.IsAdmin {
		return fmt.Errorf("%w: %s requires an administrator", common.ErrorForbidden, p)
	}
	return nil
}
