package cli

import (
	"errors"

	"github.com/dmitrijs2005/nicole/internal/accounts"
	"github.com/dmitrijs2005/nicole/internal/common"
	"github.com/dmitrijs2005/nicole/internal/export"
	"github.com/dmitrijs2005/nicole/internal/recovery"
	"github.com/dmitrijs2005/nicole/internal/tables"
)

var (
	errNoTable   = errors.New("no table selected, use 'use <table>' first")
	errCancelled = errors.New("cancelled")
)

// describe turns a service error into the line shown to the operator.
func describe(err error) string {
	var fk *common.ForeignKeyError

	switch {
	case errors.Is(err, errCancelled):
		return "Cancelled."
	case errors.Is(err, accounts.ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, common.ErrorUnauthorized):
		return "Please log in first."
	case errors.Is(err, common.ErrorForbidden):
		return "Administrator rights required."
	case errors.As(err, &fk):
		return "Cannot delete: " + fk.Error() + "."
	case errors.Is(err, tables.ErrTableNotAllowed):
		return "Access to this table is not allowed."
	case errors.Is(err, common.ErrorNotFound):
		return "Record not found."
	case errors.Is(err, common.ErrorUnavailable):
		return "Database unavailable, please try again."
	case errors.Is(err, recovery.ErrInvalidOrExpired):
		return "Invalid or expired code."
	case errors.Is(err, recovery.ErrDelivery):
		return "The verification email could not be sent."
	case errors.Is(err, export.ErrS3NotConfigured):
		return "S3 export is not configured."
	default:
		return "Error: " + err.Error()
	}
}
