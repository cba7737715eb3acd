// Package common defines shared sentinel errors and small helpers used across
// the nicole packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Connectivity or query failure. Always retryable, never fatal for the console.
	ErrorUnavailable = errors.New("database unavailable")

	// Service-level errors.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrorForbidden    = errors.New("forbidden: administrator rights required")

	// Validation errors are reported before any database call is made.
	ErrorValidation = errors.New("validation error")

	// Integrity errors reported by the database.
	ErrorConflict   = errors.New("already exists")
	ErrorForeignKey = errors.New("referenced by another table")
)

// ForeignKeyError reports a delete (or update) blocked by a referential
// integrity constraint. DependentTable is empty when the database does not
// say which table holds the referencing rows.
type ForeignKeyError struct {
	DependentTable string
	Err            error
}

func (e *ForeignKeyError) Error() string {
	if e.DependentTable == "" {
		return "record is referenced by another table"
	}
	return "record is referenced by table '" + e.DependentTable + "'"
}

// Is makes errors.Is(err, ErrorForeignKey) hold for any *ForeignKeyError.
func (e *ForeignKeyError) Is(target error) bool { return target == ErrorForeignKey }

func (e *ForeignKeyError) Unwrap() error { return e.Err }
