package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/repositories/auditlog"
	"github.com/dmitrijs2005/nicole/internal/session"
	"github.com/dmitrijs2005/nicole/internal/tables"
)

func (a *App) printTables(names []string) {
	if len(names) == 0 {
		a.println("No tables available.")
		return
	}
	for _, n := range names {
		marker := " "
		if n == a.current {
			marker = "*"
		}
		a.printf("%s %s\n", marker, n)
	}
}

func (a *App) Tables(ctx context.Context, _ []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}
	names, err := a.catalog.List(ctx)
	if err != nil {
		return err
	}
	a.printTables(names)
	return nil
}

// Refresh reloads the table list, dropping the cached one.
func (a *App) Refresh(ctx context.Context, _ []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}
	names, err := a.catalog.Refresh(ctx)
	if err != nil {
		return err
	}
	a.printTables(names)
	return nil
}

// Use selects a table and shows its rows.
func (a *App) Use(ctx context.Context, args []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}
	table := argOr(args, 0)
	if table == "" {
		return errors.New("usage: use <table>")
	}

	rs, err := a.tables.Fetch(ctx, a.sess, table)
	if err != nil {
		return err
	}
	a.current, a.last = table, rs
	a.render(rs)
	return nil
}

func (a *App) Show(ctx context.Context, _ []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}
	if a.current == "" {
		return errNoTable
	}
	rs, err := a.tables.Fetch(ctx, a.sess, a.current)
	if err != nil {
		return err
	}
	a.last = rs
	a.render(rs)
	return nil
}

// Search filters the current table. The filtered rows become the export
// source.
func (a *App) Search(ctx context.Context, args []string) error {
	if err := session.Require(a.sess, session.PermRead); err != nil {
		return err
	}
	if a.current == "" {
		return errNoTable
	}
	text := strings.Join(args, " ")
	if text == "" {
		var err error
		if text, err = a.prompt("Search text"); err != nil {
			return err
		}
	}

	rs, err := a.tables.Search(ctx, a.sess, a.current, text)
	if err != nil {
		return err
	}
	a.last = rs
	a.render(rs)
	return nil
}

// History prints audit entries, newest first, optionally for one table.
func (a *App) History(ctx context.Context, args []string) error {
	entries, err := a.history.List(ctx, a.sess, auditlog.Filter{Table: argOr(args, 0), Limit: a.histLimit})
	if err != nil {
		return err
	}

	rows := make([][]string, 0, len(entries))
	for _, e := range entries {
		rows = append(rows, []string{
			e.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			e.UserName,
			string(e.Action),
			e.Table,
			e.RecordID,
			e.Before,
			e.After,
		})
	}
	renderTable(a.out, []string{"date", "user", "action", "table", "record", "before", "after"}, rows)
	return nil
}

func (a *App) render(rs *tables.ResultSet) {
	renderTable(a.out, rs.Columns, rs.Rows)
}
