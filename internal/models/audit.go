package models

import "time"

type AuditAction string

const (
	ActionInsert AuditAction = "INSERT"
	ActionUpdate AuditAction = "UPDATE"
	ActionDelete AuditAction = "DELETE"
)

// AuditEntry is one row of the change history. Before and After hold JSON
// snapshots; either may be empty.
type AuditEntry struct {
	ID        string
	UserName  string
	CreatedAt time.Time
	Action    AuditAction
	Table     string
	RecordID  string
	Before    string
	After     string
}
