package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/dmitrijs2005/nicole/internal/tables"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func sample() *tables.ResultSet {
	return &tables.ResultSet{
		Table:   "clientes",
		Columns: []string{"id", "nombre", "nota"},
		Rows: [][]string{
			{"1", "Ana Pérez", "says \"hi\", twice"},
			{"2", "Luis", ""},
		},
	}
}

func TestFormatFromPath(t *testing.T) {
	for path, want := range map[string]Format{
		"out.csv":          CSV,
		"/tmp/REPORT.XLSX": XLSX,
		"a/b/c.pdf":        PDF,
	} {
		got, err := FormatFromPath(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}

	_, err := FormatFromPath("out.txt")
	require.Error(t, err)
	_, err = FormatFromPath("noext")
	require.Error(t, err)
}

func TestContentType(t *testing.T) {
	assert.Equal(t, "text/csv", CSV.ContentType())
	assert.Equal(t, "application/pdf", PDF.ContentType())
	assert.Contains(t, XLSX.ContentType(), "spreadsheetml")
	assert.Equal(t, "application/octet-stream", Format("x").ContentType())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, CSV, sample()))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"id", "nombre", "nota"},
		{"1", "Ana Pérez", "says \"hi\", twice"},
		{"2", "Luis", ""},
	}, records)
}

func TestWriteXLSX(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, XLSX, sample()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"clientes"}, f.GetSheetList())
	rows, err := f.GetRows("clientes")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"id", "nombre", "nota"}, rows[0])
	assert.Equal(t, "Ana Pérez", rows[1][1])
}

func TestSheetName(t *testing.T) {
	assert.Equal(t, "a_b_c", sheetName("a/b:c"))
	assert.Equal(t, "Sheet1", sheetName(""))
	assert.Len(t, []rune(sheetName(strings.Repeat("x", 40))), maxSheetName)
}

func TestWritePDF(t *testing.T) {
	rs := sample()
	for i := 0; i < 60; i++ {
		rs.Rows = append(rs.Rows, []string{"9", strings.Repeat("long value ", 20), "x"})
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, PDF, rs))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWritePDF_NoColumns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, PDF, &tables.ResultSet{Table: "vacia"}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
}

func TestWrite_UnknownFormat(t *testing.T) {
	require.Error(t, Write(&bytes.Buffer{}, Format("doc"), sample()))
}
