package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

const maxCellWidth = 40

func cell(s string) string {
	s = strings.ReplaceAll(s, "\n", " ")
	s = strings.ReplaceAll(s, "\t", " ")
	if utf8.RuneCountInString(s) <= maxCellWidth {
		return s
	}
	r := []rune(s)
	return string(r[:maxCellWidth-3]) + "..."
}

// renderTable prints rows under header as aligned columns, followed by a
// row count.
func renderTable(w io.Writer, header []string, rows [][]string) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	line := make([]string, len(header))
	for i, h := range header {
		line[i] = cell(h)
	}
	fmt.Fprintln(tw, strings.Join(line, "\t"))

	for i, h := range header {
		line[i] = strings.Repeat("-", utf8.RuneCountInString(cell(h)))
	}
	fmt.Fprintln(tw, strings.Join(line, "\t"))

	for _, row := range rows {
		for i := range line {
			line[i] = ""
			if i < len(row) {
				line[i] = cell(row[i])
			}
		}
		fmt.Fprintln(tw, strings.Join(line, "\t"))
	}
	tw.Flush()

	switch len(rows) {
	case 1:
		fmt.Fprintln(w, "(1 row)")
	default:
		fmt.Fprintf(w, "(%d rows)\n", len(rows))
	}
}
