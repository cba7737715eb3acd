package export

import (
	"io"

	"github.com/dmitrijs2005/nicole/internal/tables"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfMargin    = 10.0
	pdfRowHeight = 8.0
	pdfFont      = "Arial"
)

type pdfTable struct {
	pdf      *gofpdf.Fpdf
	tr       func(string) string
	colWidth float64
	columns  []string
}

func (t *pdfTable) header() {
	t.pdf.SetFont(pdfFont, "B", 8)
	t.pdf.SetFillColor(224, 224, 224)
	for _, c := range t.columns {
		t.pdf.CellFormat(t.colWidth, pdfRowHeight, t.fit(c), "1", 0, "C", true, 0, "")
	}
	t.pdf.Ln(-1)
	t.pdf.SetFont(pdfFont, "", 7)
}

// fit shortens s until it fits into one cell.
func (t *pdfTable) fit(s string) string {
	s = t.tr(s)
	limit := t.colWidth - 2
	if t.pdf.GetStringWidth(s) <= limit {
		return s
	}
	for len(s) > 0 && t.pdf.GetStringWidth(s+"...") > limit {
		s = s[:len(s)-1]
	}
	return s + "..."
}

// writePDF lays the table out on landscape A4 pages with a gray header row,
// repeated on every page, and alternating row fill.
func writePDF(w io.Writer, rs *tables.ResultSet) error {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetMargins(pdfMargin, pdfMargin, pdfMargin)
	pdf.SetAutoPageBreak(false, pdfMargin)
	pdf.SetTitle("Table report: "+rs.Table, true)

	pageW, pageH := pdf.GetPageSize()
	t := &pdfTable{
		pdf:     pdf,
		tr:      pdf.UnicodeTranslatorFromDescriptor(""),
		columns: rs.Columns,
	}
	if n := len(rs.Columns); n > 0 {
		t.colWidth = (pageW - 2*pdfMargin) / float64(n)
	}

	pdf.AddPage()
	pdf.SetFont(pdfFont, "B", 16)
	pdf.CellFormat(0, 10, t.tr("Table report: "+rs.Table), "", 1, "C", false, 0, "")
	pdf.Ln(5)

	if len(rs.Columns) == 0 {
		return pdf.Output(w)
	}
	t.header()

	fill := false
	for _, row := range rs.Rows {
		if pdf.GetY()+pdfRowHeight > pageH-pdfMargin {
			pdf.AddPage()
			t.header()
		}
		if fill {
			pdf.SetFillColor(245, 245, 245)
		} else {
			pdf.SetFillColor(255, 255, 255)
		}
		for _, v := range row {
			pdf.CellFormat(t.colWidth, pdfRowHeight, t.fit(v), "1", 0, "L", true, 0, "")
		}
		pdf.Ln(-1)
		fill = !fill
	}

	return pdf.Output(w)
}
