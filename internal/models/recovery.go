package models

import "time"

// Purpose names the flow a recovery code was issued for.
type Purpose string

const (
	PurposeRegistration  Purpose = "registration"
	PurposePasswordReset Purpose = "password_reset"
	PurposeProfileChange Purpose = "profile_change"
)

type RecoveryCode struct {
	ID        string
	UserName  string
	Email     string
	Code      string
	ExpiresAt time.Time
	Purpose   Purpose
}
