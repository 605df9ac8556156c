package services

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
)

const (
	minModelYear = 1980
	maxModelYear = 2100
)

// currencySymbols are stripped from amount strings and mark a cell as money-shaped.
const currencySymbols = "$€£¥₹"

var amountCleaner = strings.NewReplacer(
	"$", "", "€", "", "£", "", "¥", "", "₹", "",
	",", "", " ", "", "\t", "", "\u00a0", "",
)

var nonDigits = regexp.MustCompile(`\D`)

// NormalizeIdentifier trims and lowercases a truck identifier so that
// "  Unit-12 " and "unit-12" compare equal. Empty input means no identifier.
func NormalizeIdentifier(raw any) string {
	return strings.ToLower(strings.TrimSpace(cellString(raw)))
}

// NormalizeHeader lowercases a header, turns underscores into spaces and
// collapses runs of whitespace, so "Truck_Number" and " truck  number" match.
func NormalizeHeader(header string) string {
	h := strings.ToLower(strings.ReplaceAll(header, "_", " "))
	return strings.Join(strings.Fields(h), " ")
}

// ParseAmount parses a money cell. Numbers are accepted directly; strings are
// stripped of whitespace, currency symbols and thousands separators first,
// and an accounting-style "($1,234.00)" reads as -1234.
// "$12,345.67" -> 12345.67, while "", "abc" and "$" are rejected.
func ParseAmount(raw any) (float64, bool) {
	switch v := raw.(type) {
	case nil, bool:
		return 0, false
	case string:
		return parseAmountString(v)
	case []byte:
		return parseAmountString(string(v))
	}
	f, err := cast.ToFloat64E(raw)
	if err != nil {
		return parseAmountString(cellString(raw))
	}
	return f, isFinite(f)
}

func parseAmountString(s string) (float64, bool) {
	s = amountCleaner.Replace(strings.TrimSpace(s))
	negative := false
	if len(s) > 2 && strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		s = s[1 : len(s)-1]
		negative = true
	}
	if s == "" {
		return 0, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return 0, false
	}
	if negative {
		d = d.Neg()
	}
	f, _ := d.Float64()
	return f, isFinite(f)
}

// ParseYear accepts a model year in [1980, 2100]. The leading integer is
// tried first ("2018.0" -> 2018); failing that, non-digits are stripped and
// the result retried once ("MY2021" -> 2021).
func ParseYear(raw any) (int, bool) {
	s := strings.TrimSpace(cellString(raw))
	if s == "" {
		return 0, false
	}
	if y, ok := leadingInt(s); ok && yearInRange(y) {
		return y, true
	}
	digits := nonDigits.ReplaceAllString(s, "")
	if y, err := strconv.Atoi(digits); err == nil && yearInRange(y) {
		return y, true
	}
	return 0, false
}

// ParseText trims a free-text cell; blank cells are absent.
func ParseText(raw any) (string, bool) {
	s := strings.TrimSpace(cellString(raw))
	return s, s != ""
}

// ParseOdometer reads a non-negative mileage, rounded to whole miles.
func ParseOdometer(raw any) (int, bool) {
	f, ok := ParseAmount(raw)
	if !ok || f < 0 {
		return 0, false
	}
	return int(math.Round(f)), true
}

// ParseActive reads an in-service flag from the usual spreadsheet spellings.
func ParseActive(raw any) (bool, bool) {
	if b, ok := raw.(bool); ok {
		return b, true
	}
	s := strings.ToLower(strings.TrimSpace(cellString(raw)))
	switch s {
	case "":
		return false, false
	case "yes", "y", "x", "active", "in service", "enabled":
		return true, true
	case "no", "n", "inactive", "out of service", "retired", "sold", "disabled":
		return false, true
	}
	b, err := cast.ToBoolE(s)
	if err != nil {
		return false, false
	}
	return b, true
}

// IsEmptyCell reports whether a cell carries no usable text.
func IsEmptyCell(raw any) bool {
	return strings.TrimSpace(cellString(raw)) == ""
}

func cellString(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	}
	return cast.ToString(raw)
}

// leadingInt parses an optional sign followed by the leading run of digits.
func leadingInt(s string) (int, bool) {
	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	start := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == start {
		return 0, false
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}

func yearInRange(y int) bool {
	return y >= minModelYear && y <= maxModelYear
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
