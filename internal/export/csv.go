package export

import (
	"encoding/csv"
	"io"

	"github.com/dmitrijs2005/nicole/internal/tables"
)

func writeCSV(w io.Writer, rs *tables.ResultSet) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(rs.Columns); err != nil {
		return err
	}
	if err := cw.WriteAll(rs.Rows); err != nil {
		return err
	}
	return cw.Error()
}
