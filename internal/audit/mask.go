package audit

import (
	"strings"

	"github.com/dmitrijs2005/nicole/internal/models"
)

const masked = "***"

// sensitiveKeys are the snapshot columns hidden for the users table.
var sensitiveKeys = map[string]struct{}{
	"username":      {},
	"usuario":       {},
	"email":         {},
	"correo":        {},
	"password_hash": {},
	"password":      {},
}

// Mask returns a copy of e with identifying values removed when e touches
// the users table. Values of sensitive keys are replaced by "***" and any
// literal occurrence of those values in the remaining fields is replaced too.
// Entries for other tables are returned unchanged.
func Mask(e Entry) Entry {
	if e.Table != models.UsersTable {
		return e
	}

	var secrets []string
	for _, snap := range []map[string]string{e.Before, e.After} {
		for k, v := range snap {
			if _, ok := sensitiveKeys[strings.ToLower(k)]; ok && v != "" {
				secrets = append(secrets, v)
			}
		}
	}

	out := e
	out.RecordID = masked
	out.Before = maskSnapshot(e.Before, secrets)
	out.After = maskSnapshot(e.After, secrets)
	return out
}

func maskSnapshot(snap map[string]string, secrets []string) map[string]string {
	if snap == nil {
		return nil
	}
	out := make(map[string]string, len(snap))
	for k, v := range snap {
		if _, ok := sensitiveKeys[strings.ToLower(k)]; ok {
			out[k] = masked
			continue
		}
		for _, s := range secrets {
			v = strings.ReplaceAll(v, s, masked)
		}
		out[k] = v
	}
	return out
}

// MaskColumn hides both values of a single-column change, used for columns
// that carry password material in any table.
func MaskColumn(column string) bool {
	return strings.Contains(strings.ToLower(column), "pass")
}
