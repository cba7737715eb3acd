package cli

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/nicole/internal/audit"
	"github.com/dmitrijs2005/nicole/internal/session"
)

// Add prompts for every column of the current table and inserts a row.
// Leaving the primary key empty lets the database generate it.
func (a *App) Add(ctx context.Context, _ []string) error {
	if err := session.Require(a.sess, session.PermMutate); err != nil {
		return err
	}
	if a.current == "" {
		return errNoTable
	}

	cols, err := a.tables.Columns(ctx, a.sess, a.current)
	if err != nil {
		return err
	}

	values := make(map[string]string, len(cols))
	for i, c := range cols {
		var v string
		switch {
		case i == 0:
			v, err = a.prompt(c + " (empty to generate)")
		case audit.MaskColumn(c):
			v, err = a.askPassword(c)
		default:
			v, err = a.prompt(c)
		}
		if err != nil {
			return err
		}
		if i == 0 && v == "" {
			continue
		}
		values[c] = v
	}

	id, err := a.tables.Insert(ctx, a.sess, a.current, values)
	if err != nil {
		return err
	}
	if id != "" {
		a.printf("Record %s added to %s.\n", id, a.current)
	} else {
		a.printf("Record added to %s.\n", a.current)
	}
	return a.Show(ctx, nil)
}

// primaryKey returns the primary key column of the current table, from
// the last fetch when there is one.
func (a *App) primaryKey(ctx context.Context) (string, error) {
	if a.last != nil && a.last.Table == a.current && len(a.last.Columns) > 0 {
		return a.last.PrimaryKey(), nil
	}
	cols, err := a.tables.Columns(ctx, a.sess, a.current)
	if err != nil {
		return "", err
	}
	if len(cols) == 0 {
		return "", fmt.Errorf("table %s has no columns", a.current)
	}
	return cols[0], nil
}

func (a *App) recordID(args []string, pk string) (string, error) {
	if id := argOr(args, 0); id != "" {
		return id, nil
	}
	id, err := a.prompt(fmt.Sprintf("Record %s", pk))
	if err != nil {
		return "", err
	}
	if id == "" {
		return "", errCancelled
	}
	return id, nil
}

// Edit changes one column of a row of the current table.
func (a *App) Edit(ctx context.Context, args []string) error {
	if err := session.Require(a.sess, session.PermMutate); err != nil {
		return err
	}
	if a.current == "" {
		return errNoTable
	}

	pk, err := a.primaryKey(ctx)
	if err != nil {
		return err
	}
	id, err := a.recordID(args, pk)
	if err != nil {
		return err
	}
	column, err := a.prompt("Column to change")
	if err != nil {
		return err
	}

	var value string
	if audit.MaskColumn(column) {
		value, err = a.askPassword("New value")
	} else {
		value, err = a.prompt("New value")
	}
	if err != nil {
		return err
	}

	if err := a.tables.Update(ctx, a.sess, a.current, pk, id, column, value); err != nil {
		return err
	}
	a.printf("Record %s updated.\n", id)
	return a.Show(ctx, nil)
}

// Delete removes a row of the current table after confirmation.
func (a *App) Delete(ctx context.Context, args []string) error {
	if err := session.Require(a.sess, session.PermMutate); err != nil {
		return err
	}
	if a.current == "" {
		return errNoTable
	}

	pk, err := a.primaryKey(ctx)
	if err != nil {
		return err
	}
	id, err := a.recordID(args, pk)
	if err != nil {
		return err
	}

	ok, err := confirm(a.reader, fmt.Sprintf("Delete record %s from %s?", id, a.current), a.out)
	if err != nil {
		return err
	}
	if !ok {
		return errCancelled
	}

	if err := a.tables.Delete(ctx, a.sess, a.current, pk, id); err != nil {
		return err
	}
	a.printf("Record %s deleted.\n", id)
	return a.Show(ctx, nil)
}
