package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Cell is one header/value pair of a parsed row.
type Cell struct {
	Header string
	Value  any
}

// ParsedRow is a data row in original column order. Line is the 1-based
// line in the source sheet, header row included.
type ParsedRow struct {
	Line  int
	Cells []Cell
}

// IsBlank reports whether every cell of the row is empty.
func (r ParsedRow) IsBlank() bool {
	for _, c := range r.Cells {
		if !IsEmptyCell(c.Value) {
			return false
		}
	}
	return true
}

// Sheet is the first sheet of an uploaded workbook.
type Sheet struct {
	FileName string
	Headers  []string
	Rows     []ParsedRow
}

// NewSheet builds a sheet from a header row and raw data rows. Blank rows are
// dropped but keep their line numbers counted; short rows are padded with
// empty cells and cells past the last header are ignored.
func NewSheet(headers []string, rows ...[]any) *Sheet {
	headers = uniqueHeaders(headers)
	sheet := &Sheet{Headers: headers, Rows: make([]ParsedRow, 0, len(rows))}
	for i, raw := range rows {
		row := ParsedRow{Line: i + 2, Cells: make([]Cell, len(headers))}
		for col, h := range headers {
			var v any
			if col < len(raw) {
				v = raw[col]
			}
			row.Cells[col] = Cell{Header: h, Value: v}
		}
		if row.IsBlank() {
			continue
		}
		sheet.Rows = append(sheet.Rows, row)
	}
	return sheet
}

// uniqueHeaders trims headers, names blank ones after their column and
// suffixes repeats so every header addresses exactly one column.
func uniqueHeaders(headers []string) []string {
	out := make([]string, len(headers))
	seen := make(map[string]int, len(headers))
	for i, h := range headers {
		h = strings.TrimSpace(h)
		if h == "" {
			h = fmt.Sprintf("Column %d", i+1)
		}
		seen[h]++
		if n := seen[h]; n > 1 {
			h = fmt.Sprintf("%s (%d)", h, n)
		}
		out[i] = h
	}
	return out
}

// ReadWorkbook parses a .csv or .xlsx upload. Only the first sheet is read and
// its first row is taken as headers. Any failure wraps ErrUnreadableFile.
// A file with headers but no data rows is not an error.
func ReadWorkbook(r io.Reader, fileName string) (*Sheet, error) {
	var (
		headers []string
		rows    [][]string
		err     error
	)
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".csv":
		headers, rows, err = parseCSV(r)
	case ".xlsx":
		headers, rows, err = parseExcel(r)
	default:
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnreadableFile, err)
	}

	raw := make([][]any, len(rows))
	for i, row := range rows {
		raw[i] = make([]any, len(row))
		for j, v := range row {
			raw[i][j] = v
		}
	}
	sheet := NewSheet(headers, raw...)
	sheet.FileName = fileName
	return sheet, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// parseCSV reads a CSV file and returns headers + data rows.
func parseCSV(file io.Reader) ([]string, [][]string, error) {
	data, err := io.ReadAll(file)
	if err != nil {
		return nil, nil, fmt.Errorf("read CSV: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(data)
	// TrimLeadingSpace would swallow empty tab-separated fields.
	reader.TrimLeadingSpace = reader.Comma != '\t'
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	allRows, err := reader.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to parse CSV: %w", err)
	}
	if len(allRows) == 0 {
		return nil, nil, nil
	}
	return allRows[0], allRows[1:], nil
}

// csvDelimiters are the field separators recognised in uploaded CSV files,
// in tie-break order.
var csvDelimiters = []rune{',', ';', '\t', '|'}

// detectDelimiter picks the separator that occurs most often in the header
// line, ignoring quoted text. A header without any separator reads as comma
// separated.
func detectDelimiter(data []byte) rune {
	line := data
	if i := bytes.IndexByte(line, '\n'); i >= 0 {
		line = line[:i]
	}

	counts := make(map[rune]int, len(csvDelimiters))
	quoted := false
	for _, r := range string(line) {
		if r == '"' {
			quoted = !quoted
			continue
		}
		if !quoted {
			counts[r]++
		}
	}

	best := csvDelimiters[0]
	for _, d := range csvDelimiters[1:] {
		if counts[d] > counts[best] {
			best = d
		}
	}
	return best
}

// parseExcel reads an xlsx file and returns headers + data rows from the first sheet.
func parseExcel(file io.Reader) ([]string, [][]string, error) {
	f, err := excelize.OpenReader(file)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheetName := f.GetSheetName(0)
	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read sheet: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil, nil
	}
	return rows[0], rows[1:], nil
}
