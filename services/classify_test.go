package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRow(pairs ...any) ParsedRow {
	r := ParsedRow{Line: 2}
	for i := 0; i+1 < len(pairs); i += 2 {
		r.Cells = append(r.Cells, Cell{Header: pairs[i].(string), Value: pairs[i+1]})
	}
	return r
}

func TestClassifyColumn_IdentifierTiers(t *testing.T) {
	id := identifierField()

	tests := []struct {
		name       string
		row        ParsedRow
		wantHeader string
		wantTier   Tier
	}{
		{
			name:       "synonym substring",
			row:        testRow("YTD Cost", "$10", "Truck Number", "102"),
			wantHeader: "Truck Number",
			wantTier:   TierHeader,
		},
		{
			name:       "underscored header",
			row:        testRow("unit_no", "205"),
			wantHeader: "unit_no",
			wantTier:   TierHeader,
		},
		{
			name:       "number token when no truck word",
			row:        testRow("Description", "Brakes", "No.", "77"),
			wantHeader: "No.",
			wantTier:   TierPattern,
		},
		{
			name:       "id token",
			row:        testRow("Manufacturer", "Volvo", "Asset ID", "A-17"),
			wantHeader: "Asset ID",
			wantTier:   TierPattern,
		},
		{
			name:       "shape fallback skips vin",
			row:        testRow("VIN", "1FUJGLDR5CSBM1234", "Code", "102"),
			wantHeader: "Code",
			wantTier:   TierShape,
		},
		{
			name:       "empty synonym cell falls through",
			row:        testRow("Truck", "", "Fleet No", "310"),
			wantHeader: "Fleet No",
			wantTier:   TierPattern,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ClassifyColumn(tt.row, id, nil, "")
			require.True(t, ok)
			assert.Equal(t, tt.wantHeader, m.Header)
			assert.Equal(t, tt.wantTier, m.Tier)
		})
	}
}

func TestClassifyColumn_IdentifierAvoidsLookalikes(t *testing.T) {
	id := identifierField()

	// Token patterns need word boundaries, so "Manufacturer" is not an id column.
	_, ok := ClassifyColumn(testRow("Manufacturer", "Kenworth Motors"), id, nil, "")
	assert.False(t, ok)

	// "Serial No" carries the number token but is a serial, not a unit number.
	m, ok := ClassifyColumn(testRow("Serial No", "SN 1", "Unit", "44"), id, nil, "")
	require.True(t, ok)
	assert.Equal(t, "Unit", m.Header)

	_, ok = ClassifyColumn(testRow("Vehicle Identification Number", "1FUJGLDR5CSBM1234"), id, nil, "")
	assert.False(t, ok)
}

func TestClassifyColumn_HeaderBeatsShape(t *testing.T) {
	// Both columns are alphanumeric; the header match must win even though the
	// shape candidate comes first.
	m, ok := ClassifyColumn(testRow("Code", "X1", "Unit", "205"), identifierField(), nil, "")
	require.True(t, ok)
	assert.Equal(t, "Unit", m.Header)
	assert.Equal(t, TierHeader, m.Tier)
}

func TestClassifyColumn_ExcludedHeader(t *testing.T) {
	exclude := map[string]bool{"Truck": true}
	_, ok := ClassifyColumn(testRow("Truck", "102"), ytdCostField(), exclude, "102")
	assert.False(t, ok)
}

func TestClassifyColumn_Money(t *testing.T) {
	money := ytdCostField()

	t.Run("synonym", func(t *testing.T) {
		m, ok := ClassifyColumn(testRow("Truck", "102", "Total Spend", "500"), money, map[string]bool{"Truck": true}, "102")
		require.True(t, ok)
		assert.Equal(t, "Total Spend", m.Header)
		assert.Equal(t, TierHeader, m.Tier)
	})

	t.Run("currency shape", func(t *testing.T) {
		m, ok := ClassifyColumn(testRow("Odd", "9999", "Spend", "$1,200.00"), money, nil, "102")
		require.True(t, ok)
		assert.Equal(t, "Spend", m.Header)
		assert.Equal(t, TierShape, m.Tier)
	})

	t.Run("largest numeric is a guess", func(t *testing.T) {
		m, ok := ClassifyColumn(testRow("A", "102", "B", "2018", "C", "450.5", "D", "n/a"), money, nil, "102")
		require.True(t, ok)
		assert.Equal(t, "B", m.Header)
		assert.Equal(t, TierLargestNumeric, m.Tier)
	})

	t.Run("identifier value never chosen", func(t *testing.T) {
		_, ok := ClassifyColumn(testRow("A", "102", "B", "102.0"), money, nil, "102")
		assert.False(t, ok)
	})

	t.Run("avoids mileage columns", func(t *testing.T) {
		m, ok := ClassifyColumn(testRow("Total Miles", "88000", "Amount", "75"), money, nil, "7")
		require.True(t, ok)
		assert.Equal(t, "Amount", m.Header)
	})
}

func TestClassifyColumn_VIN(t *testing.T) {
	vin := vinField()

	m, ok := ClassifyColumn(testRow("VIN #", "1fujgldr5csbm1234"), vin, nil, "")
	require.True(t, ok)
	assert.Equal(t, TierPattern, m.Tier)

	// "Driving Notes" contains the letters "vin" but not the word, and a
	// VIN-shaped value under another header is not taken.
	_, ok = ClassifyColumn(testRow("Driving Notes", "late", "Chassis", "1FUJGLDR5CSBM1234"), vin, nil, "")
	assert.False(t, ok)
}

func TestClassifyColumn_MissIsNotError(t *testing.T) {
	_, ok := ClassifyColumn(testRow("Notes", "fine"), makeField(), nil, "")
	assert.False(t, ok)

	_, ok = ClassifyColumn(ParsedRow{}, identifierField(), nil, "")
	assert.False(t, ok)
}

func TestTierString(t *testing.T) {
	assert.Equal(t, "header", TierHeader.String())
	assert.Equal(t, "largest numeric", TierLargestNumeric.String())
	assert.Equal(t, "unknown", Tier(0).String())
}
