package dataset

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/auditai-dev/auditai/internal/model"
)

const sampleCSV = `Transaction_ID,Date,Category,Amount,Region
T-001,2025-01-03,travel,120.50,north
T-002,2025-01-04,engineering,99000,
T-003,2025-01-05,sales,NaN,south
`

func TestCSVParser_Parse(t *testing.T) {
	p := &CSVParser{}
	ds, err := p.Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)

	assert.Equal(t, []string{"Transaction_ID", "Date", "Category", "Amount", "Region"}, ds.Columns)
	require.Len(t, ds.Rows, 3)

	first := ds.Rows[0]
	assert.Equal(t, model.String("T-001"), first["Transaction_ID"])
	assert.Equal(t, model.String("2025-01-03"), first["Date"])
	assert.Equal(t, model.Number(120.5), first["Amount"])

	assert.True(t, ds.Rows[1].Missing("Region"), "empty cell should be null")
	assert.True(t, ds.Rows[2].Missing("Amount"), "NaN token should be null")
}

func TestCSVParser_ShortRowsAndBlankLines(t *testing.T) {
	csv := "id,amount,note\n\n1,10\n2,20,ok\n,,\n"
	ds, err := (&CSVParser{}).Parse(strings.NewReader(csv))
	require.NoError(t, err)
	require.Len(t, ds.Rows, 2)
	assert.True(t, ds.Rows[0].Missing("note"))
	assert.Equal(t, model.String("ok"), ds.Rows[1]["note"])
}

func TestCSVParser_HeaderOnly(t *testing.T) {
	ds, err := (&CSVParser{}).Parse(strings.NewReader("id,amount\n"))
	require.NoError(t, err)
	assert.Equal(t, 0, ds.Len())
	assert.Equal(t, []string{"id", "amount"}, ds.Columns)
}

func TestCSVParser_Empty(t *testing.T) {
	_, err := (&CSVParser{}).Parse(strings.NewReader(""))
	assert.ErrorIs(t, err, ErrNoHeader)
}

func TestCSVParser_Semicolon(t *testing.T) {
	ds, err := (&CSVParser{Comma: ';'}).Parse(strings.NewReader("id;amount\nA;5\n"))
	require.NoError(t, err)
	assert.Equal(t, model.Number(5), ds.Rows[0]["amount"])
}

func TestFromRecords_HeaderCleanup(t *testing.T) {
	ds, err := FromRecords([][]string{
		{"\ufeffid", " amount ", "", "amount"},
		{"1", "2", "3", "4"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "amount", "column_3", "amount_2"}, ds.Columns)
	assert.Equal(t, model.Number(4), ds.Rows[0]["amount_2"])
}

func TestParseCell(t *testing.T) {
	tests := []struct {
		raw  string
		want model.Value
	}{
		{"", model.Null()},
		{"  ", model.Null()},
		{"N/A", model.Null()},
		{"null", model.Null()},
		{"42", model.Number(42)},
		{"-3.5", model.Number(-3.5)},
		{"1e3", model.Number(1000)},
		{"Inf", model.String("Inf")},
		{"1,000", model.String("1,000")},
		{" north ", model.String("north")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseCell(tt.raw), "ParseCell(%q)", tt.raw)
	}
}

func TestXLSXParser_Parse(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"txn_id", "category", "amount"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"X1", "sales", 250}))
	require.NoError(t, f.SetSheetRow(sheet, "A3", &[]any{"X2", "travel", 12.75}))
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	require.NoError(t, f.Close())

	ds, err := (&XLSXParser{}).Parse(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, []string{"txn_id", "category", "amount"}, ds.Columns)
	require.Len(t, ds.Rows, 2)
	assert.Equal(t, model.Number(250), ds.Rows[0]["amount"])
	assert.Equal(t, model.Number(12.75), ds.Rows[1]["amount"])
}

func TestXLSXParser_NotAWorkbook(t *testing.T) {
	_, err := (&XLSXParser{}).Parse(strings.NewReader("id,amount\n1,2\n"))
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	assert.NotNil(t, r.Get("csv"))
	assert.NotNil(t, r.Get(".XLSX"))
	assert.Nil(t, r.Get("pdf"))

	p, err := r.ForFile("data/transactions.CSV")
	require.NoError(t, err)
	assert.Equal(t, "csv", p.Format())

	_, err = r.ForFile("statement.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)

	assert.Panics(t, func() { r.Register(&CSVParser{}) })
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transactions.csv")
	require.NoError(t, os.WriteFile(path, []byte(sampleCSV), 0o644))

	ds, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, ds.Len())

	_, err = Load(filepath.Join(t.TempDir(), "missing.csv"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
