package export

import (
	"io"
	"strings"

	"github.com/dmitrijs2005/nicole/internal/tables"
	"github.com/xuri/excelize/v2"
)

const maxSheetName = 31

// sheetName makes table usable as a worksheet name.
func sheetName(table string) string {
	name := strings.Map(func(r rune) rune {
		if strings.ContainsRune(`[]:*?/\`, r) {
			return '_'
		}
		return r
	}, table)
	if name == "" {
		name = "Sheet1"
	}
	if r := []rune(name); len(r) > maxSheetName {
		name = string(r[:maxSheetName])
	}
	return name
}

func writeXLSX(w io.Writer, rs *tables.ResultSet) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := sheetName(rs.Table)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	header, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"E0E0E0"}},
	})
	if err != nil {
		return err
	}

	for c, name := range rs.Columns {
		cell, err := excelize.CoordinatesToCellName(c+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, name); err != nil {
			return err
		}
	}
	if len(rs.Columns) > 0 {
		last, err := excelize.CoordinatesToCellName(len(rs.Columns), 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, "A1", last, header); err != nil {
			return err
		}
	}

	for r, row := range rs.Rows {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+2)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}

	return f.Write(w)
}
