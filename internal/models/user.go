package models

// Physical names of the internal tables. They are never exposed through the
// table gateway.
const (
	UsersTable         = "usuarios_app"
	HistoryTable       = "historial"
	RecoveryCodesTable = "recuperacion_codigos"
	GooseVersionTable  = "goose_db_version"
)

type User struct {
	ID           string
	UserName     string
	PasswordHash string
	Email        string
	IsAdmin      bool
}
