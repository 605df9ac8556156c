package services

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

var exportRoster = []RosterEntry{
	{ID: "a", Number: "78014"},
	{ID: "b", Number: "78988"},
	{ID: "c", Number: "80001"},
}

func TestExportCSV_RosterOrderAndQuoting(t *testing.T) {
	kind := MetadataKind()
	store := NewStore(kind.Name)
	store.Set("80001", Payload{Fields: map[string]any{"make": "Mack", "model": "Anthem, 64T"}})
	store.Set("78014", Payload{Fields: map[string]any{"model_year": 2018, "fleet_name": "North \"A\""}})
	store.Set("00000", Payload{Fields: map[string]any{"make": "Gone"}}) // not on the roster

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, kind, store, exportRoster, ExportOptions{}))

	want := "Truck Number,VIN,Serial Number,Year,Make,Model,Fleet Name\n" +
		"78014,,,2018,,,\"North \"\"A\"\"\"\n" +
		"80001,,,,Mack,\"Anthem, 64T\",\n"
	assert.Equal(t, want, buf.String())
}

func TestExportCSV_Delimiter(t *testing.T) {
	kind := CostsKind()
	store := NewStore(kind.Name)
	store.Set("78014", Payload{Amount: amount(1234.5)})

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, kind, store, exportRoster, ExportOptions{Delimiter: ';'}))
	assert.Equal(t, "Truck Number;YTD Cost\n78014;1234.5\n", buf.String())
}

// Exporting a store and importing the file again reproduces the store,
// whichever delimiter the export used.
func TestExportCSV_RoundTrip(t *testing.T) {
	for _, delim := range csvDelimiters {
		for _, kind := range ImportKinds() {
			t.Run(fmt.Sprintf("%s/%q", kind.Name, delim), func(t *testing.T) {
				assertCSVRoundTrip(t, kind, ExportOptions{Delimiter: delim})
			})
		}
	}
}

func assertCSVRoundTrip(t *testing.T, kind ImportKind, opts ExportOptions) {
	t.Helper()

	store := NewStore(kind.Name)
	switch kind.Name {
	case KindCosts:
		store.Set("78014", Payload{Amount: amount(12345.67)})
		store.Set("80001", Payload{Amount: amount(0.1)})
	case KindMetadata:
		store.Set("78014", Payload{Fields: map[string]any{
			"vin": "1FUJGLDR5CSBM1234", "serial_number": "SN-1", "model_year": 2018,
			"make": "Freightliner", "model": "Cascadia, Day Cab", "fleet_name": "Linehaul",
		}})
		store.Set("78988", Payload{Fields: map[string]any{"make": "Volvo"}})
	case KindSetup:
		store.Set("78014", Payload{Fields: map[string]any{"vin": "1FUJGLDR5CSBM1234", "odometer": 412508, "active": true}})
		store.Set("78988", Payload{Fields: map[string]any{"active": false}})
	}

	var buf bytes.Buffer
	require.NoError(t, ExportCSV(&buf, kind, store, exportRoster, opts))

	sheet, err := ReadWorkbook(&buf, "export.csv")
	require.NoError(t, err)
	reimported := NewStore(kind.Name)
	out := Reconcile(ExtractRecords(sheet, kind), mustIndex(t, "78014", "78988", "80001"), reimported, kind.Merge)

	assert.Zero(t, out.UnmatchedCount)
	assert.Equal(t, store.Entries, reimported.Entries)
}

func TestExportExcel(t *testing.T) {
	kind := CostsKind()
	store := NewStore(kind.Name)
	store.Set("78988", Payload{Amount: amount(500)})

	data, err := ExportExcel(kind, store, exportRoster)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytesReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, "Maintenance Costs", f.GetSheetName(0))
	rows, err := f.GetRows("Maintenance Costs")
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Truck Number", "YTD Cost"}, {"78988", "500"}}, rows)
}

func TestGenerateUnmatchedReport(t *testing.T) {
	kind := CostsKind()
	data, err := GenerateUnmatchedReport(kind, []Record{
		{Row: 4, Identifier: "999", IdentifierHeader: "Truck", Payload: Payload{Amount: amount(10)}},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytesReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Unmatched")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Row #", "Truck Number (as found)", "Found In Column", "YTD Cost"}, rows[0])
	assert.Equal(t, []string{"4", "999", "Truck", "10"}, rows[1])
}

func TestGenerateImportTemplate(t *testing.T) {
	data, err := GenerateImportTemplate(SetupKind())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytesReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Truck Setup")
	require.NoError(t, err)
	require.NotEmpty(t, rows)
	assert.Equal(t, []string{"Truck Number", "VIN", "Odometer", "Active"}, rows[0])

	visible, err := f.GetSheetVisible("Instructions")
	require.NoError(t, err)
	assert.False(t, visible)

	inst, err := f.GetRows("Instructions")
	require.NoError(t, err)
	var joined []string
	for _, r := range inst {
		joined = append(joined, strings.Join(r, "|"))
	}
	assert.Contains(t, strings.Join(joined, "\n"), "odometer, mileage, miles")
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "12345.67", FormatValue(12345.67))
	assert.Equal(t, "2018", FormatValue(2018))
	assert.Equal(t, "yes", FormatValue(true))
	assert.Equal(t, "no", FormatValue(false))
	assert.Equal(t, "Cascadia", FormatValue("Cascadia"))
}
