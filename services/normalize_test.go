package services

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeIdentifier(t *testing.T) {
	tests := []struct {
		raw  any
		want string
	}{
		{"  Unit-12 ", "unit-12"},
		{"78014", "78014"},
		{78014, "78014"},
		{"", ""},
		{"   ", ""},
		{nil, ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeIdentifier(tt.raw), "raw=%#v", tt.raw)
	}
}

func TestNormalizeHeader(t *testing.T) {
	assert.Equal(t, "truck number", NormalizeHeader("Truck_Number"))
	assert.Equal(t, "truck number", NormalizeHeader("  TRUCK   number "))
	assert.Equal(t, "ytd cost ($)", NormalizeHeader("YTD Cost ($)"))
}

func TestParseAmount(t *testing.T) {
	accepted := []struct {
		raw  any
		want float64
	}{
		{"$12,345.67", 12345.67},
		{"12345.67", 12345.67},
		{12345.67, 12345.67},
		{"1234", 1234},
		{1234, 1234},
		{" € 1 200,50 ", 120050},
		{"-42.5", -42.5},
		{"1 000", 1000},
		{float32(2.5), 2.5},
		{"($1,234.00)", -1234},
		{"(75)", -75},
	}
	for _, tt := range accepted {
		got, ok := ParseAmount(tt.raw)
		if assert.True(t, ok, "raw=%#v", tt.raw) {
			assert.InDelta(t, tt.want, got, 1e-9, "raw=%#v", tt.raw)
		}
	}

	rejected := []any{"", "abc", "$", " ", nil, true, "12abc", "()", "($)", "(abc)", math.NaN(), math.Inf(1)}
	for _, raw := range rejected {
		_, ok := ParseAmount(raw)
		assert.False(t, ok, "raw=%#v", raw)
	}
}

func TestParseYear(t *testing.T) {
	tests := []struct {
		raw    any
		want   int
		wantOK bool
	}{
		{"2018.0", 2018, true},
		{"2018", 2018, true},
		{2018, 2018, true},
		{2018.0, 2018, true},
		{"MY2021", 2021, true},
		{"1980", 1980, true},
		{"2100", 2100, true},
		{"1899", 0, false},
		{"2101", 0, false},
		{"", 0, false},
		{"n/a", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseYear(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%#v", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%#v", tt.raw)
	}
}

func TestParseText(t *testing.T) {
	s, ok := ParseText("  Cascadia ")
	assert.True(t, ok)
	assert.Equal(t, "Cascadia", s)

	_, ok = ParseText("   ")
	assert.False(t, ok)
	_, ok = ParseText(nil)
	assert.False(t, ok)
}

func TestParseOdometer(t *testing.T) {
	got, ok := ParseOdometer("412,508.6")
	assert.True(t, ok)
	assert.Equal(t, 412509, got)

	_, ok = ParseOdometer("-5")
	assert.False(t, ok)
	_, ok = ParseOdometer("unknown")
	assert.False(t, ok)
}

func TestParseActive(t *testing.T) {
	tests := []struct {
		raw    any
		want   bool
		wantOK bool
	}{
		{"Yes", true, true},
		{"active", true, true},
		{"In Service", true, true},
		{"1", true, true},
		{"true", true, true},
		{true, true, true},
		{"No", false, true},
		{"Inactive", false, true},
		{"0", false, true},
		{"sold", false, true},
		{"", false, false},
		{"maybe", false, false},
	}
	for _, tt := range tests {
		got, ok := ParseActive(tt.raw)
		assert.Equal(t, tt.wantOK, ok, "raw=%#v", tt.raw)
		assert.Equal(t, tt.want, got, "raw=%#v", tt.raw)
	}
}
