// Package export renders a fetched table as CSV, XLSX or PDF and optionally
// uploads the result to S3-compatible storage.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/tables"
)

type Format string

const (
	CSV  Format = "csv"
	XLSX Format = "xlsx"
	PDF  Format = "pdf"
)

// FormatFromPath picks the format from the file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "csv":
		return CSV, nil
	case "xlsx":
		return XLSX, nil
	case "pdf":
		return PDF, nil
	default:
		return "", fmt.Errorf("unsupported export format %q, use .csv, .xlsx or .pdf", filepath.Ext(path))
	}
}

func (f Format) ContentType() string {
	switch f {
	case CSV:
		return "text/csv"
	case XLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case PDF:
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// Write encodes rs in format f to w.
func Write(w io.Writer, f Format, rs *tables.ResultSet) error {
	switch f {
	case CSV:
		return writeCSV(w, rs)
	case XLSX:
		return writeXLSX(w, rs)
	case PDF:
		return writePDF(w, rs)
	default:
		return fmt.Errorf("unsupported export format %q", f)
	}
}
