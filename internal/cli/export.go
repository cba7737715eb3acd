package cli

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/export"
	"github.com/dmitrijs2005/nicole/internal/filex"
	"github.com/dmitrijs2005/nicole/internal/session"
	"github.com/dmitrijs2005/nicole/internal/tables"
)

const s3Scheme = "s3://"

// Export writes the rows last shown for the current table, search filters
// included. The target is a file path, placed in the export directory when
// bare, or s3://key.
func (a *App) Export(ctx context.Context, args []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}
	if a.current == "" {
		return errNoTable
	}
	target := argOr(args, 0)
	if target == "" {
		return errors.New("usage: export <file.csv|file.xlsx|file.pdf|s3://key>")
	}

	f, err := export.FormatFromPath(target)
	if err != nil {
		return err
	}

	rs := a.last
	if rs == nil || rs.Table != a.current {
		if rs, err = a.tables.Fetch(ctx, a.sess, a.current); err != nil {
			return err
		}
		a.last = rs
	}

	if strings.HasPrefix(target, s3Scheme) {
		return a.exportS3(ctx, strings.TrimPrefix(target, s3Scheme), f, rs)
	}
	return a.exportFile(ctx, target, f, rs)
}

func (a *App) exportFile(ctx context.Context, name string, f export.Format, rs *tables.ResultSet) error {
	path, err := filex.ResolveIn(a.exportDir, name)
	if err != nil {
		return err
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := export.Write(file, f, rs); err != nil {
		file.Close()
		os.Remove(path)
		return err
	}
	if err := file.Close(); err != nil {
		return err
	}

	a.log.Info(ctx, "table exported", "table", rs.Table, "format", string(f), "path", path, "user", a.sess.UserName)
	a.printf("Exported %d rows to %s.\n", len(rs.Rows), path)
	return nil
}

func (a *App) exportS3(ctx context.Context, key string, f export.Format, rs *tables.ResultSet) error {
	if a.uploader == nil {
		return export.ErrS3NotConfigured
	}
	if key == "" {
		return errors.New("s3 key is empty")
	}

	var buf bytes.Buffer
	if err := export.Write(&buf, f, rs); err != nil {
		return err
	}
	uri, err := a.uploader.Upload(ctx, key, f, buf.Bytes())
	if err != nil {
		return err
	}

	a.log.Info(ctx, "table exported", "table", rs.Table, "format", string(f), "uri", uri, "user", a.sess.UserName)
	a.printf("Exported %d rows to %s.\n", len(rs.Rows), uri)
	return nil
}
