package services

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cast"
	"github.com/xuri/excelize/v2"
)

// ExportOptions controls delimited-text export.
type ExportOptions struct {
	Delimiter rune // defaults to ','
}

// ExportTable joins store with the roster: one row per roster truck that has
// stored values, in roster order, columns as kind.Columns().
func ExportTable(kind ImportKind, store *Store, roster []RosterEntry) ([]string, [][]string) {
	headers := kind.Columns()
	rows := make([][]string, 0, store.Len())
	for _, e := range roster {
		p, ok := store.Get(e.Number)
		if !ok {
			continue
		}
		values := kind.Merge.Values(p)
		row := make([]string, 0, len(headers))
		row = append(row, e.Number)
		for _, f := range kind.Fields {
			row = append(row, FormatValue(values[f.Key]))
		}
		rows = append(rows, row)
	}
	return headers, rows
}

// FormatValue renders a stored value the way it is exported. Amounts keep
// full precision so an exported file re-imports to the same store.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case int:
		return strconv.Itoa(x)
	case bool:
		if x {
			return "yes"
		}
		return "no"
	}
	return cast.ToString(v)
}

// ExportCSV writes the store as delimited text with RFC 4180 quoting.
func ExportCSV(w io.Writer, kind ImportKind, store *Store, roster []RosterEntry, opts ExportOptions) error {
	headers, rows := ExportTable(kind, store, roster)

	cw := csv.NewWriter(w)
	if opts.Delimiter != 0 {
		cw.Comma = opts.Delimiter
	}
	if err := cw.Write(headers); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write rows: %w", err)
	}
	return nil
}

// ExportExcel renders the same table as ExportCSV into an .xlsx workbook.
func ExportExcel(kind ImportKind, store *Store, roster []RosterEntry) ([]byte, error) {
	headers, rows := ExportTable(kind, store, roster)

	f := excelize.NewFile()
	defer f.Close()

	sheet := kind.Label
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, fmt.Errorf("set sheet name: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#333333"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorders(),
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}
	cellStyle, err := f.NewStyle(&excelize.Style{Border: thinBorders()})
	if err != nil {
		return nil, fmt.Errorf("create cell style: %w", err)
	}

	cols := columnLetters(len(headers))
	for i, h := range headers {
		cell := cols[i] + "1"
		f.SetCellValue(sheet, cell, h)
		width := float64(len(h)) * 1.3
		if width < 15 {
			width = 15
		}
		f.SetColWidth(sheet, cols[i], cols[i], width)
	}
	f.SetCellStyle(sheet, "A1", cols[len(cols)-1]+"1", headerStyle)

	for r, row := range rows {
		line := strconv.Itoa(r + 2)
		for i, v := range row {
			f.SetCellStr(sheet, cols[i]+line, v)
		}
		f.SetCellStyle(sheet, "A"+line, cols[len(cols)-1]+line, cellStyle)
	}

	freezeHeader(f, sheet)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel export: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateUnmatchedReport lists records whose truck number is not on the
// roster, with the values they carried, for manual correction.
func GenerateUnmatchedReport(kind ImportKind, records []Record) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Unmatched"
	f.SetSheetName(f.GetSheetName(0), sheet)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DC2626"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    thinBorders(),
	})

	headers := append([]string{"Row #", "Truck Number (as found)", "Found In Column"}, kind.Columns()[1:]...)
	cols := columnLetters(len(headers))
	for i, h := range headers {
		f.SetCellValue(sheet, cols[i]+"1", h)
	}
	f.SetCellStyle(sheet, "A1", cols[len(cols)-1]+"1", headerStyle)
	f.SetColWidth(sheet, "A", "A", 8)
	f.SetColWidth(sheet, "B", "C", 24)
	if len(cols) > 3 {
		f.SetColWidth(sheet, cols[3], cols[len(cols)-1], 18)
	}

	for i, rec := range records {
		row := strconv.Itoa(i + 2)
		f.SetCellValue(sheet, "A"+row, rec.Row)
		f.SetCellStr(sheet, "B"+row, rec.Identifier)
		f.SetCellStr(sheet, "C"+row, rec.IdentifierHeader)
		values := kind.Merge.Values(rec.Payload)
		for j, field := range kind.Fields {
			f.SetCellStr(sheet, cols[j+3]+row, FormatValue(values[field.Key]))
		}
	}

	freezeHeader(f, sheet)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write unmatched report: %w", err)
	}
	return buf.Bytes(), nil
}

// GenerateImportTemplate creates an empty workbook with the headers the
// classifier recognises for kind, plus a hidden Instructions sheet.
func GenerateImportTemplate(kind ImportKind) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := kind.Label
	f.SetSheetName(f.GetSheetName(0), sheet)

	identifierStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#1D4ED8"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})
	fieldStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF", Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#6B7280"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center", WrapText: true},
		Border:    thinBorders(),
	})

	fields := append([]FieldDescriptor{kind.Identifier}, kind.Fields...)
	cols := columnLetters(len(fields))
	for i, field := range fields {
		cell := cols[i] + "1"
		f.SetCellValue(sheet, cell, field.Label)
		if i == 0 {
			f.SetCellStyle(sheet, cell, cell, identifierStyle)
		} else {
			f.SetCellStyle(sheet, cell, cell, fieldStyle)
		}
		width := float64(len(field.Label)) * 1.3
		if width < 15 {
			width = 15
		}
		f.SetColWidth(sheet, cols[i], cols[i], width)
	}

	for i, field := range fields {
		if field.Key != "active" {
			continue
		}
		dv := excelize.NewDataValidation(true)
		dv.Sqref = fmt.Sprintf("%s2:%s1048576", cols[i], cols[i])
		dv.SetDropList([]string{"yes", "no"})
		f.AddDataValidation(sheet, dv)
	}

	freezeHeader(f, sheet)
	addInstructionsSheet(f, kind, fields)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("write excel template: %w", err)
	}
	return buf.Bytes(), nil
}

// addInstructionsSheet creates a hidden sheet with field descriptions.
func addInstructionsSheet(f *excelize.File, kind ImportKind, fields []FieldDescriptor) {
	instSheet := "Instructions"
	f.NewSheet(instSheet)

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 14},
	})
	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Size: 11},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E5E7EB"}, Pattern: 1},
	})

	f.SetCellValue(instSheet, "A1", fmt.Sprintf("%s Import - Instructions", kind.Label))
	f.SetCellStyle(instSheet, "A1", "A1", titleStyle)
	f.SetCellValue(instSheet, "A2", "Column names may vary; headers containing these words are recognised.")

	instructionHeaders := []string{"Field Name", "Required?", "Recognised Headers", "Description", "Example"}
	cols := columnLetters(len(instructionHeaders))
	for i, h := range instructionHeaders {
		cell := cols[i] + "3"
		f.SetCellValue(instSheet, cell, h)
		f.SetCellStyle(instSheet, cell, cell, headerStyle)
	}

	for i, field := range fields {
		row := strconv.Itoa(i + 4)
		reqLabel := "Optional"
		if i == 0 {
			reqLabel = "Required"
		}
		f.SetCellValue(instSheet, cols[0]+row, field.Label)
		f.SetCellValue(instSheet, cols[1]+row, reqLabel)
		f.SetCellValue(instSheet, cols[2]+row, recognisedHeaders(field))
		f.SetCellValue(instSheet, cols[3]+row, field.Description)
		f.SetCellValue(instSheet, cols[4]+row, field.ExampleValue)
	}

	widths := []float64{20, 12, 36, 45, 25}
	for i, w := range widths {
		f.SetColWidth(instSheet, cols[i], cols[i], w)
	}

	f.SetSheetVisible(instSheet, false)
}

func recognisedHeaders(field FieldDescriptor) string {
	if len(field.Synonyms) == 0 {
		return "detected from the value"
	}
	return strings.Join(field.Synonyms, ", ")
}

func freezeHeader(f *excelize.File, sheet string) {
	f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		Split:       false,
		XSplit:      0,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// thinBorders returns a slice of thin black borders for all four sides.
func thinBorders() []excelize.Border {
	sides := []string{"left", "top", "bottom", "right"}
	borders := make([]excelize.Border, len(sides))
	for i, side := range sides {
		borders[i] = excelize.Border{
			Type:  side,
			Color: "#000000",
			Style: 1, // thin
		}
	}
	return borders
}

// columnLetters returns Excel column letters for n columns: A, B, ... Z, AA, AB ...
func columnLetters(n int) []string {
	cols := make([]string, n)
	for i := 0; i < n; i++ {
		name, _ := excelize.ColumnNumberToName(i + 1)
		cols[i] = name
	}
	return cols
}
