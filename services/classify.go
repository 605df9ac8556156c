package services

import (
	"regexp"
	"strings"
)

// Tier records which heuristic picked a column.
type Tier int

const (
	TierHeader         Tier = iota + 1 // header contains a synonym
	TierPattern                        // header matches a word-boundary pattern
	TierShape                          // value shape, no header evidence
	TierLargestNumeric                 // largest number in the row; a guess
)

func (t Tier) String() string {
	switch t {
	case TierHeader:
		return "header"
	case TierPattern:
		return "pattern"
	case TierShape:
		return "shape"
	case TierLargestNumeric:
		return "largest numeric"
	}
	return "unknown"
}

// ColumnMatch is the column chosen for a field on one row.
type ColumnMatch struct {
	Header string
	Value  any
	Tier   Tier
}

// ShapeFallback picks a column by the shape of its value. cells holds only
// the row's eligible cells in header order; identifier is the identifier value
// already chosen for the row ("" while classifying the identifier itself).
type ShapeFallback func(cells []Cell, identifier string) (Cell, Tier, bool)

var (
	identifierShapePattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)
	vinShapePattern        = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
)

// ClassifyColumn picks the column of row that supplies field d. Tiers run in
// strict order and the first hit wins: synonym substring, then word-boundary
// pattern, then the descriptor's shape fallback. Headers listed in exclude,
// headers containing an Avoid fragment and empty cells are never chosen.
// A miss is reported as ok == false and is not an error.
func ClassifyColumn(row ParsedRow, d FieldDescriptor, exclude map[string]bool, identifier string) (ColumnMatch, bool) {
	type candidate struct {
		cell   Cell
		header string
	}
	candidates := make([]candidate, 0, len(row.Cells))
	for _, c := range row.Cells {
		if exclude[c.Header] || IsEmptyCell(c.Value) {
			continue
		}
		h := NormalizeHeader(c.Header)
		if containsAny(h, d.Avoid) {
			continue
		}
		candidates = append(candidates, candidate{cell: c, header: h})
	}

	for _, c := range candidates {
		if containsAny(c.header, d.Synonyms) {
			return ColumnMatch{Header: c.cell.Header, Value: c.cell.Value, Tier: TierHeader}, true
		}
	}

	for _, p := range d.Patterns {
		for _, c := range candidates {
			if p.MatchString(c.header) {
				return ColumnMatch{Header: c.cell.Header, Value: c.cell.Value, Tier: TierPattern}, true
			}
		}
	}

	if d.Fallback == nil {
		return ColumnMatch{}, false
	}
	cells := make([]Cell, len(candidates))
	for i, c := range candidates {
		cells[i] = c.cell
	}
	cell, tier, ok := d.Fallback(cells, identifier)
	if !ok {
		return ColumnMatch{}, false
	}
	return ColumnMatch{Header: cell.Header, Value: cell.Value, Tier: tier}, true
}

func containsAny(s string, fragments []string) bool {
	for _, f := range fragments {
		if f != "" && strings.Contains(s, f) {
			return true
		}
	}
	return false
}

// identifierShape takes the first plain alphanumeric value. VIN-shaped values
// are skipped so a lone VIN column is never mistaken for the unit number.
func identifierShape(cells []Cell, _ string) (Cell, Tier, bool) {
	for _, c := range cells {
		s := strings.TrimSpace(cellString(c.Value))
		if !identifierShapePattern.MatchString(s) {
			continue
		}
		if isVINShaped(s) {
			continue
		}
		return c, TierShape, true
	}
	return Cell{}, 0, false
}

// moneyShape prefers the first value written like money ("$1,200", "1,200.50").
// Failing that it guesses the largest number that is not the identifier.
func moneyShape(cells []Cell, identifier string) (Cell, Tier, bool) {
	for _, c := range cells {
		s := cellString(c.Value)
		if !strings.ContainsAny(s, currencySymbols+",") {
			continue
		}
		if _, ok := ParseAmount(s); ok {
			return c, TierShape, true
		}
	}

	idText := strings.TrimSpace(identifier)
	idNum, idIsNum := ParseAmount(idText)
	var (
		best    Cell
		bestVal float64
		found   bool
	)
	for _, c := range cells {
		v, ok := ParseAmount(c.Value)
		if !ok {
			continue
		}
		if strings.TrimSpace(cellString(c.Value)) == idText || (idIsNum && v == idNum) {
			continue
		}
		if !found || v > bestVal {
			best, bestVal, found = c, v, true
		}
	}
	if !found {
		return Cell{}, 0, false
	}
	return best, TierLargestNumeric, true
}

func isVINShaped(s string) bool {
	return vinShapePattern.MatchString(strings.ToUpper(strings.TrimSpace(s)))
}
