package dialect

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/nicole/internal/dbx"
)

// InsertID runs an INSERT written with '?' placeholders and returns the
// generated value of pk. Dialects with RETURNING read it back directly;
// the others fall back to LastInsertId. An empty string is returned when the
// driver reports no generated id.
func InsertID(ctx context.Context, db dbx.DBTX, d Dialect, query, pk string, args ...any) (string, error) {
	if d.SupportsReturning() {
		var id any
		q := d.Rebind(query + " RETURNING " + d.QuoteIdent(pk))
		if err := db.QueryRowContext(ctx, q, args...).Scan(&id); err != nil {
			return "", d.Classify(err)
		}
		return FormatValue(id), nil
	}

	res, err := db.ExecContext(ctx, d.Rebind(query), args...)
	if err != nil {
		return "", d.Classify(err)
	}
	id, err := res.LastInsertId()
	if err != nil || id == 0 {
		return "", nil
	}
	return strconv.FormatInt(id, 10), nil
}

// FormatValue renders a scanned column value as text. NULL becomes "".
func FormatValue(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case []byte:
		return string(t)
	case string:
		return t
	case int64:
		return strconv.FormatInt(t, 10)
	case bool:
		return strconv.FormatBool(t)
	case time.Time:
		return t.Format(time.DateTime)
	default:
		return fmt.Sprint(t)
	}
}
