package services

import (
	"fmt"
	"time"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/orientation"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
)

// gridColumns is the width of the maroto row grid.
const gridColumns = 12

// ExportPDF renders the store of a kind as a printable report: the same
// table as ExportExcel, with amounts formatted as dollars and, for the cost
// store, a fleet total.
func ExportPDF(kind ImportKind, store *Store, roster []RosterEntry, generated time.Time) ([]byte, error) {
	headers, rows := ExportTable(kind, store, roster)

	cfg := config.NewBuilder().
		WithOrientation(orientation.Horizontal).
		WithPageSize(pagesize.A4).
		WithLeftMargin(10).
		WithTopMargin(10).
		WithRightMargin(10).
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
			Size:    7,
			Color:   &props.Color{Red: 120, Green: 120, Blue: 120},
		}).
		Build()

	m := maroto.New(cfg)
	widths := columnWidths(len(headers))

	addReportHeader(m, kind, store, len(rows))
	addReportTableHeader(m, headers, widths)

	amountCol := -1
	for i, f := range kind.Fields {
		if f.Key == "ytd_cost" {
			amountCol = i + 1
		}
	}
	var total float64
	for i, r := range rows {
		if amountCol > 0 {
			if v, ok := ParseAmount(r[amountCol]); ok {
				total += v
				r[amountCol] = FormatUSD(v)
			}
		}
		addReportRow(m, r, widths, i%2 == 1)
	}
	if amountCol > 0 {
		addReportTotal(m, total)
	}

	m.AddRows(row.New(6))
	m.AddRows(
		row.New(6).Add(
			col.New(gridColumns).Add(
				text.New(fmt.Sprintf("Generated on %s", generated.Format("02 Jan 2006 15:04")), props.Text{
					Size:  7,
					Align: align.Left,
					Color: &props.Color{Red: 140, Green: 140, Blue: 140},
				}),
			),
		),
	)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return doc.GetBytes(), nil
}

// columnWidths splits the 12-unit grid across n columns. The identifier
// column takes whatever does not divide evenly.
func columnWidths(n int) []int {
	if n <= 0 {
		return nil
	}
	if n > gridColumns {
		n = gridColumns
	}
	widths := make([]int, n)
	for i := range widths {
		widths[i] = gridColumns / n
	}
	widths[0] += gridColumns % n
	return widths
}

func addReportHeader(m core.Maroto, kind ImportKind, store *Store, trucks int) {
	m.AddRows(
		row.New(12).Add(
			col.New(gridColumns).Add(
				text.New(kind.Label, props.Text{
					Size:  16,
					Style: fontstyle.Bold,
					Align: align.Center,
				}),
			),
		),
	)

	updated := "never"
	if !store.UpdatedAt.IsZero() {
		updated = store.UpdatedAt.Local().Format("02 Jan 2006 15:04")
	}
	grey := &props.Color{Red: 80, Green: 80, Blue: 80}
	m.AddRows(
		row.New(8).Add(
			col.New(6).Add(
				text.New(fmt.Sprintf("Trucks: %d", trucks), props.Text{Size: 9, Align: align.Left, Color: grey}),
			),
			col.New(6).Add(
				text.New(fmt.Sprintf("Last import: %s", updated), props.Text{Size: 9, Align: align.Right, Color: grey}),
			),
		),
	)
	m.AddRows(row.New(4))
}

func addReportTableHeader(m core.Maroto, headers []string, widths []int) {
	headerCell := &props.Cell{BackgroundColor: &props.Color{Red: 33, Green: 37, Blue: 41}}
	headerText := props.Text{
		Size:  8,
		Style: fontstyle.Bold,
		Align: align.Left,
		Color: &props.Color{Red: 255, Green: 255, Blue: 255},
	}

	cols := make([]core.Col, 0, len(widths))
	for i, w := range widths {
		cols = append(cols, col.New(w).Add(text.New(headers[i], headerText)).WithStyle(headerCell))
	}
	m.AddRows(row.New(8).Add(cols...))
}

// addReportRow adds one truck; shaded rows alternate for readability.
func addReportRow(m core.Maroto, values []string, widths []int, shaded bool) {
	cellText := props.Text{Size: 7, Align: align.Left}

	cols := make([]core.Col, 0, len(widths))
	for i, w := range widths {
		c := col.New(w).Add(text.New(values[i], cellText))
		if shaded {
			c = c.WithStyle(&props.Cell{BackgroundColor: &props.Color{Red: 245, Green: 245, Blue: 245}})
		}
		cols = append(cols, c)
	}
	m.AddRows(row.New(7).Add(cols...))
}

func addReportTotal(m core.Maroto, total float64) {
	m.AddRows(row.New(4))

	summaryCell := &props.Cell{BackgroundColor: &props.Color{Red: 240, Green: 240, Blue: 240}}
	bold := props.Text{Size: 9, Style: fontstyle.Bold, Align: align.Right}
	m.AddRows(
		row.New(8).Add(
			col.New(8).Add(text.New("Fleet YTD Maintenance Cost", bold)).WithStyle(summaryCell),
			col.New(4).Add(text.New(FormatUSD(total), bold)).WithStyle(summaryCell),
		),
	)
}
