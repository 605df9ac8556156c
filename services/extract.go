package services

// Record is what one sheet row yields for an import kind. It is only
// produced when an identifier candidate was found; the payload may be empty.
type Record struct {
	Row              int               `json:"row"`
	Identifier       string            `json:"identifier"`
	IdentifierHeader string            `json:"identifier_header"`
	Payload          Payload           `json:"payload"`
	Columns          map[string]string `json:"columns,omitempty"` // field key -> source header
	Guessed          []string          `json:"guessed,omitempty"` // field keys picked by the largest-numeric guess
}

// ExtractRecords classifies every row of sheet for kind. The identifier is
// classified first; rows without one are skipped. Each column then feeds at
// most one field, claimed in descriptor order. A value that does not parse
// leaves its field absent on that row and the column unclaimed.
func ExtractRecords(sheet *Sheet, kind ImportKind) []Record {
	if sheet == nil {
		return nil
	}
	records := make([]Record, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		rec, ok := extractRow(row, kind)
		if ok {
			records = append(records, rec)
		}
	}
	return records
}

func extractRow(row ParsedRow, kind ImportKind) (Record, bool) {
	claimed := make(map[string]bool, len(kind.Fields)+1)

	idMatch, ok := ClassifyColumn(row, kind.Identifier, claimed, "")
	if !ok {
		return Record{}, false
	}
	identifier, ok := ParseText(idMatch.Value)
	if !ok {
		return Record{}, false
	}
	claimed[idMatch.Header] = true

	rec := Record{
		Row:              row.Line,
		Identifier:       identifier,
		IdentifierHeader: idMatch.Header,
		Columns:          make(map[string]string, len(kind.Fields)),
	}
	values := make(map[string]any, len(kind.Fields))
	for _, d := range kind.Fields {
		m, ok := ClassifyColumn(row, d, claimed, identifier)
		if !ok {
			continue
		}
		v, ok := d.Parse(m.Value)
		if !ok {
			continue
		}
		claimed[m.Header] = true
		values[d.Key] = v
		rec.Columns[d.Key] = m.Header
		if m.Tier == TierLargestNumeric {
			rec.Guessed = append(rec.Guessed, d.Key)
		}
	}
	rec.Payload = kind.Merge.Build(values)
	return rec, true
}
