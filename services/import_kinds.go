package services

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldDescriptor describes one semantic field an import looks for in a row:
// how its header is recognised, how its value is parsed and which value
// shape may stand in when no header matches.
type FieldDescriptor struct {
	Key          string           // payload key, also the store field name
	Label        string           // export / template column header
	Synonyms     []string         // header fragments, substring match
	Patterns     []*regexp.Regexp // word-boundary header patterns
	Avoid        []string         // header fragments that disqualify a column
	Parse        func(raw any) (any, bool)
	Fallback     ShapeFallback
	Description  string // shown on the template Instructions sheet
	ExampleValue string
}

// ImportKind parameterizes the engine for one screen's import.
type ImportKind struct {
	Name       string
	Label      string
	Identifier FieldDescriptor
	Fields     []FieldDescriptor
	Merge      MergeStrategy
}

// Field returns the descriptor for key.
func (k ImportKind) Field(key string) (FieldDescriptor, bool) {
	for _, f := range k.Fields {
		if f.Key == key {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Columns returns the export column headers: identifier first, then fields
// in descriptor order.
func (k ImportKind) Columns() []string {
	cols := make([]string, 0, len(k.Fields)+1)
	cols = append(cols, k.Identifier.Label)
	for _, f := range k.Fields {
		cols = append(cols, f.Label)
	}
	return cols
}

// NormalizePayload re-parses every stored value through its descriptor.
// Payloads decoded from JSON carry float64 for every number; this restores
// the parsed types (int years, bool flags) and drops keys the kind no longer knows.
func (k ImportKind) NormalizePayload(p Payload) Payload {
	values := k.Merge.Values(p)
	clean := make(map[string]any, len(values))
	for key, raw := range values {
		d, ok := k.Field(key)
		if !ok {
			continue
		}
		if v, ok := d.Parse(raw); ok {
			clean[key] = v
		}
	}
	return k.Merge.Build(clean)
}

const (
	KindCosts    = "costs"
	KindMetadata = "metadata"
	KindSetup    = "setup"
)

var (
	truckTokenPattern  = regexp.MustCompile(`\b(truck|unit|vehicle)\b`)
	numberTokenPattern = regexp.MustCompile(`\b(number|id|no)\b\.?`)
	vinTokenPattern    = regexp.MustCompile(`\bvin\b`)
	odoTokenPattern    = regexp.MustCompile(`\bodo\b`)
)

func identifierField() FieldDescriptor {
	return FieldDescriptor{
		Key:      "truck_number",
		Label:    "Truck Number",
		Synonyms: []string{"truck", "unit", "vehicle"},
		Patterns: []*regexp.Regexp{truckTokenPattern, numberTokenPattern},
		// "Serial No", "Unit Cost" and "Vehicle Identification Number" are not truck numbers.
		Avoid: []string{
			"vin", "identification", "serial", "year", "make", "model",
			"cost", "total", "amount", "ytd", "odometer", "mileage", "miles",
		},
		Parse:        parseTextValue,
		Fallback:     identifierShape,
		Description:  "Fleet unit number exactly as it appears in the truck roster",
		ExampleValue: "78014",
	}
}

func ytdCostField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "ytd_cost",
		Label:        "YTD Cost",
		Synonyms:     []string{"ytd", "cost", "total", "amount"},
		Avoid:        []string{"odometer", "mileage", "miles", "year"},
		Parse:        parseAmountValue,
		Fallback:     moneyShape,
		Description:  "Year-to-date maintenance cost in dollars",
		ExampleValue: "$12,345.67",
	}
}

func vinField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "vin",
		Label:        "VIN",
		Synonyms:     []string{"vehicle identification"},
		Patterns:     []*regexp.Regexp{vinTokenPattern},
		Parse:        parseVINValue,
		Description:  "17-character vehicle identification number",
		ExampleValue: "1FUJGLDR5CSBM1234",
	}
}

func serialField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "serial_number",
		Label:        "Serial Number",
		Synonyms:     []string{"serial", "s/n"},
		Parse:        parseTextValue,
		Description:  "Manufacturer serial number",
		ExampleValue: "SN-448120",
	}
}

func yearField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "model_year",
		Label:        "Year",
		Synonyms:     []string{"year", "yr"},
		Avoid:        []string{"cost", "amount", "ytd"},
		Parse:        parseYearValue,
		Description:  "Model year between 1980 and 2100",
		ExampleValue: "2018",
	}
}

func makeField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "make",
		Label:        "Make",
		Synonyms:     []string{"make", "manufacturer", "mfr"},
		Parse:        parseTextValue,
		Description:  "Manufacturer name",
		ExampleValue: "Freightliner",
	}
}

func modelField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "model",
		Label:        "Model",
		Synonyms:     []string{"model"},
		Avoid:        []string{"year"},
		Parse:        parseTextValue,
		Description:  "Model name",
		ExampleValue: "Cascadia",
	}
}

func fleetField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "fleet_name",
		Label:        "Fleet Name",
		Synonyms:     []string{"fleet", "division"},
		Parse:        parseTextValue,
		Description:  "Fleet or division the truck is assigned to",
		ExampleValue: "Northeast Linehaul",
	}
}

func odometerField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "odometer",
		Label:        "Odometer",
		Synonyms:     []string{"odometer", "mileage", "miles"},
		Patterns:     []*regexp.Regexp{odoTokenPattern},
		Avoid:        []string{"cost", "amount"},
		Parse:        parseOdometerValue,
		Description:  "Current odometer reading in whole miles",
		ExampleValue: "412508",
	}
}

func activeField() FieldDescriptor {
	return FieldDescriptor{
		Key:          "active",
		Label:        "Active",
		Synonyms:     []string{"active", "status", "in service"},
		Parse:        parseActiveValue,
		Description:  "Whether the truck is in service (yes / no)",
		ExampleValue: "yes",
	}
}

// CostsKind imports year-to-date maintenance cost per truck.
func CostsKind() ImportKind {
	return ImportKind{
		Name:       KindCosts,
		Label:      "Maintenance Costs",
		Identifier: identifierField(),
		Fields:     []FieldDescriptor{ytdCostField()},
		Merge:      ScalarOverwrite{Field: "ytd_cost"},
	}
}

// MetadataKind imports descriptive attributes from asset registries.
func MetadataKind() ImportKind {
	return ImportKind{
		Name:       KindMetadata,
		Label:      "Fleet Metadata",
		Identifier: identifierField(),
		Fields: []FieldDescriptor{
			vinField(), serialField(), yearField(), makeField(), modelField(), fleetField(),
		},
		Merge: FieldOverwrite{},
	}
}

// SetupKind imports the attributes the fleet API accepts on a truck update.
func SetupKind() ImportKind {
	return ImportKind{
		Name:       KindSetup,
		Label:      "Truck Setup",
		Identifier: identifierField(),
		Fields:     []FieldDescriptor{vinField(), odometerField(), activeField()},
		Merge:      FieldOverwrite{},
	}
}

// ImportKinds lists every registered kind in display order.
func ImportKinds() []ImportKind {
	return []ImportKind{CostsKind(), MetadataKind(), SetupKind()}
}

// LookupImportKind resolves a kind by name, case-insensitively.
func LookupImportKind(name string) (ImportKind, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for _, k := range ImportKinds() {
		if k.Name == name {
			return k, nil
		}
	}
	return ImportKind{}, fmt.Errorf("%w: %q", ErrUnknownImportKind, name)
}

func parseTextValue(raw any) (any, bool) { return ParseText(raw) }

func parseAmountValue(raw any) (any, bool) { return ParseAmount(raw) }

func parseYearValue(raw any) (any, bool) { return ParseYear(raw) }

func parseOdometerValue(raw any) (any, bool) { return ParseOdometer(raw) }

func parseActiveValue(raw any) (any, bool) { return ParseActive(raw) }

func parseVINValue(raw any) (any, bool) {
	s, ok := ParseText(raw)
	if !ok {
		return nil, false
	}
	return strings.ToUpper(s), true
}
