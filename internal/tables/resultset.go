package tables

import (
	"database/sql"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/dialect"
)

// ResultSet is a rectangular snapshot of a table. Every cell is rendered as
// text and NULL becomes "".
type ResultSet struct {
	Table   string
	Columns []string
	Rows    [][]string
}

// PrimaryKey is the first column of the table.
func (rs *ResultSet) PrimaryKey() string {
	if len(rs.Columns) == 0 {
		return ""
	}
	return rs.Columns[0]
}

// HasColumn reports whether name is one of the columns.
func (rs *ResultSet) HasColumn(name string) bool {
	for _, c := range rs.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// Record returns row i as a column -> value map.
func (rs *ResultSet) Record(i int) map[string]string {
	m := make(map[string]string, len(rs.Columns))
	for j, c := range rs.Columns {
		m[c] = rs.Rows[i][j]
	}
	return m
}

// Filter keeps the rows where any cell contains text, ignoring case. An
// empty text keeps every row.
func (rs *ResultSet) Filter(text string) *ResultSet {
	out := &ResultSet{Table: rs.Table, Columns: rs.Columns}
	needle := strings.ToLower(text)
	for _, row := range rs.Rows {
		for _, cell := range row {
			if strings.Contains(strings.ToLower(cell), needle) {
				out.Rows = append(out.Rows, row)
				break
			}
		}
	}
	return out
}

func scanResultSet(table string, rows *sql.Rows) (*ResultSet, error) {
	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}

	rs := &ResultSet{Table: table, Columns: cols}
	values := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range values {
		ptrs[i] = &values[i]
	}

	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		row := make([]string, len(cols))
		for i, v := range values {
			row[i] = dialect.FormatValue(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}
