package services

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadWorkbook_CSV(t *testing.T) {
	data := "\xEF\xBB\xBFTruck Number,YTD Cost,Notes\n102,\"$1,000.00\",ok\n\n205,500\n"
	sheet, err := ReadWorkbook(strings.NewReader(data), "costs.CSV")
	require.NoError(t, err)

	assert.Equal(t, []string{"Truck Number", "YTD Cost", "Notes"}, sheet.Headers)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 2, sheet.Rows[0].Line)
	assert.Equal(t, Cell{Header: "YTD Cost", Value: "$1,000.00"}, sheet.Rows[0].Cells[1])

	// Short rows are padded to the header width.
	assert.Len(t, sheet.Rows[1].Cells, 3)
	assert.Equal(t, Cell{Header: "Notes"}, sheet.Rows[1].Cells[2])
}

func TestReadWorkbook_CSVDelimiters(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"semicolon", "Truck Number;YTD Cost\n78014;1234.5\n"},
		{"tab", "Truck Number\tYTD Cost\n78014\t1234.5\n"},
		{"pipe", "Truck Number|YTD Cost\n78014|1234.5\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sheet, err := ReadWorkbook(strings.NewReader(tt.data), "export.csv")
			require.NoError(t, err)
			assert.Equal(t, []string{"Truck Number", "YTD Cost"}, sheet.Headers)
			require.Len(t, sheet.Rows, 1)
			assert.Equal(t, "1234.5", sheet.Rows[0].Cells[1].Value)
		})
	}

	// Empty tab-separated cells keep their column.
	sheet, err := ReadWorkbook(strings.NewReader("Truck\tVIN\tMake\n78014\t\tVolvo\n"), "export.csv")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 1)
	assert.Equal(t, Cell{Header: "Make", Value: "Volvo"}, sheet.Rows[0].Cells[2])
}

func TestDetectDelimiter(t *testing.T) {
	tests := []struct {
		header string
		want   rune
	}{
		{"Truck Number,YTD Cost", ','},
		{"Truck Number;YTD Cost\n1;2,5", ';'},
		{"Truck\tVIN\tMake", '\t'},
		{"Truck|VIN", '|'},
		{`"Cost; incl. tax",Truck`, ','},
		{"Truck Number", ','},
		{"", ','},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, detectDelimiter([]byte(tt.header)), "header=%q", tt.header)
	}
}

func TestReadWorkbook_Excel(t *testing.T) {
	f := excelize.NewFile()
	sheetName := f.GetSheetName(0)
	f.SetCellValue(sheetName, "A1", "Unit")
	f.SetCellValue(sheetName, "B1", "Cost")
	f.SetCellValue(sheetName, "A2", "205")
	f.SetCellValue(sheetName, "B2", 500)
	f.SetCellValue(sheetName, "A4", "102")
	f.SetCellValue(sheetName, "B4", "$75.25")
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	sheet, err := ReadWorkbook(bytesReader(buf.Bytes()), "costs.xlsx")
	require.NoError(t, err)
	require.Len(t, sheet.Rows, 2)
	assert.Equal(t, 2, sheet.Rows[0].Line)
	assert.Equal(t, 4, sheet.Rows[1].Line)
	assert.Equal(t, "costs.xlsx", sheet.FileName)
}

func TestReadWorkbook_Unreadable(t *testing.T) {
	_, err := ReadWorkbook(strings.NewReader("whatever"), "costs.pdf")
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
	assert.ErrorIs(t, err, ErrUnreadableFile)

	_, err = ReadWorkbook(strings.NewReader("not a zip"), "costs.xlsx")
	assert.True(t, errors.Is(err, ErrUnreadableFile), "got %v", err)

	_, err = ReadWorkbook(strings.NewReader("a,\"b\n"), "broken.csv")
	if err != nil {
		assert.ErrorIs(t, err, ErrUnreadableFile)
	}
}

func TestReadWorkbook_EmptyFileIsNotAnError(t *testing.T) {
	sheet, err := ReadWorkbook(strings.NewReader(""), "empty.csv")
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows)

	sheet, err = ReadWorkbook(strings.NewReader("Truck,Cost\n"), "header-only.csv")
	require.NoError(t, err)
	assert.Empty(t, sheet.Rows)
}

func TestUniqueHeaders(t *testing.T) {
	got := uniqueHeaders([]string{" Cost ", "", "Cost", "Cost"})
	assert.Equal(t, []string{"Cost", "Column 2", "Cost (2)", "Cost (3)"}, got)
}
