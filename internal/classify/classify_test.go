package classify

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/paulmach/orb/geojson"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSpeciesColor(t *testing.T) {
	tests := []struct {
		label    string
		expected string
	}{
		{"Береза", "#0016ff"},
		{"Ель", "#a000ff"},
		{"Клен", "#ff0600"},
		{"Лиственница", "#ffac28"},
		{"Липа", "#faff00"},
		{"Ольха Серая", "#00a04f"},
		{"Осина", "#00ff4e"},
		{"Пихта", "#5400f8"},
		{"Сосна", "#ff6f00"},
		{"Unknown", DefaultSpeciesColor},
		{"", DefaultSpeciesColor},
		{"ель", DefaultSpeciesColor},
		{" Ель", DefaultSpeciesColor},
		{"Ольха серая", DefaultSpeciesColor},
	}

	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.expected, SpeciesColor(tt.label))
		})
	}
}

func TestSpeciesTable_NoPaddedColors(t *testing.T) {
	seen := map[string]bool{}
	for _, e := range SpeciesTable() {
		assert.Regexp(t, `^#[0-9a-f]{6}$`, e.Color, e.Label)
		assert.False(t, seen[e.Label], "duplicate label %q", e.Label)
		seen[e.Label] = true
	}
	assert.Len(t, seen, 9)
}

func TestSpeciesTable_ReturnsCopy(t *testing.T) {
	table := SpeciesTable()
	table[0].Color = "#000000"

	assert.Equal(t, "#0016ff", SpeciesColor("Береза"))
}

func TestIndexColor(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		expected string
	}{
		{"below range", 0.51, DefaultIndexColor},
		{"zero", 0, DefaultIndexColor},
		{"negative", -0.6, DefaultIndexColor},
		{"band 1 low boundary", 0.52, "#00ff00"},
		{"band 1 inside", 0.54, "#00ff00"},
		{"band 2 low boundary", 0.56, "#66ff00"},
		{"band 3 low boundary", 0.59, "#ccff00"},
		{"band 3 inside", 0.60, "#ccff00"},
		{"band 4 low boundary", 0.63, "#ffcc00"},
		{"band 5 low boundary", 0.67, "#ff6600"},
		{"band 6 low boundary", 0.71, "#ff0000"},
		{"band 6 closed high boundary", 0.75, "#ff0000"},
		{"just above range", 0.7500001, DefaultIndexColor},
		{"above range", 0.80, DefaultIndexColor},
		{"NaN", math.NaN(), DefaultIndexColor},
		{"+Inf", math.Inf(1), DefaultIndexColor},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, IndexColor(tt.value))
		})
	}
}

func TestIndexBands_Contiguous(t *testing.T) {
	bands := IndexBands()
	require.NotEmpty(t, bands)

	for i := 1; i < len(bands); i++ {
		assert.Equal(t, bands[i-1].High, bands[i].Low, "gap between band %d and %d", i-1, i)
		assert.Less(t, bands[i].Low, bands[i].High)
		assert.False(t, bands[i-1].Closed, "only the last band may be closed")
	}
	assert.True(t, bands[len(bands)-1].Closed)
}

func TestIndexColor_Idempotent(t *testing.T) {
	for i := 0; i < 3; i++ {
		assert.Equal(t, "#ccff00", IndexColor(0.60))
		assert.Equal(t, "#a000ff", SpeciesColor("Ель"))
	}
}

func TestIndexOf(t *testing.T) {
	tests := []struct {
		name       string
		props      geojson.Properties
		wantValue  float64
		wantSource IndexSource
	}{
		{
			name:       "primary number",
			props:      geojson.Properties{IndexAttr: 0.6},
			wantValue:  0.6,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "primary numeric string",
			props:      geojson.Properties{IndexAttr: " 0.72 "},
			wantValue:  0.72,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "primary wins over fallback",
			props:      geojson.Properties{IndexAttr: 0.53, IndexFallbackAttr: 0.7},
			wantValue:  0.53,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "present zero is not absent",
			props:      geojson.Properties{IndexAttr: 0.0, IndexFallbackAttr: 0.7},
			wantValue:  0,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "fallback when primary missing",
			props:      geojson.Properties{IndexFallbackAttr: 0.64},
			wantValue:  0.64,
			wantSource: IndexFromFallback,
		},
		{
			name:       "fallback when primary null",
			props:      geojson.Properties{IndexAttr: nil, IndexFallbackAttr: "0.68"},
			wantValue:  0.68,
			wantSource: IndexFromFallback,
		},
		{
			name:       "fallback when primary blank",
			props:      geojson.Properties{IndexAttr: "  ", IndexFallbackAttr: 0.57},
			wantValue:  0.57,
			wantSource: IndexFromFallback,
		},
		{
			name:       "json number",
			props:      geojson.Properties{IndexAttr: json.Number("0.74")},
			wantValue:  0.74,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "numeric prefix with trailing text",
			props:      geojson.Properties{IndexAttr: "0.6abc"},
			wantValue:  0.6,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "numeric prefix with unit",
			props:      geojson.Properties{IndexAttr: "0.73 ед."},
			wantValue:  0.73,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "leading dot and exponent",
			props:      geojson.Properties{IndexAttr: ".6e0x"},
			wantValue:  0.6,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "dangling exponent ignored",
			props:      geojson.Properties{IndexFallbackAttr: "0.55e"},
			wantValue:  0.55,
			wantSource: IndexFromFallback,
		},
		{
			name:       "unparseable string coerces to zero",
			props:      geojson.Properties{IndexAttr: "n/a"},
			wantValue:  0,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "bool coerces to zero",
			props:      geojson.Properties{IndexAttr: true},
			wantValue:  0,
			wantSource: IndexFromPrimary,
		},
		{
			name:       "both absent",
			props:      geojson.Properties{"other": 1},
			wantValue:  0,
			wantSource: IndexMissing,
		},
		{
			name:       "nil properties",
			props:      nil,
			wantValue:  0,
			wantSource: IndexMissing,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, src := IndexOf(tt.props)
			assert.InDelta(t, tt.wantValue, v, 1e-12)
			assert.Equal(t, tt.wantSource, src)
		})
	}
}

func TestIndexColorOf_AbsentIsDefault(t *testing.T) {
	assert.Equal(t, DefaultIndexColor, IndexColorOf(geojson.Properties{}))
	assert.Equal(t, DefaultIndexColor, IndexColorOf(geojson.Properties{IndexAttr: "garbage"}))
	assert.Equal(t, "#ff0000", IndexColorOf(geojson.Properties{IndexFallbackAttr: 0.75}))
}

func TestIndexColorOf_NumericPrefix(t *testing.T) {
	assert.Equal(t, "#ccff00", IndexColorOf(geojson.Properties{IndexAttr: "0.6abc"}))
	assert.Equal(t, "#ccff00", IndexColorOf(geojson.Properties{IndexAttr: "0.60 "}))
	assert.Equal(t, DefaultIndexColor, IndexColorOf(geojson.Properties{IndexAttr: "abc0.6"}))
}

func TestSpeciesColorOf(t *testing.T) {
	assert.Equal(t, "#a000ff", SpeciesColorOf(geojson.Properties{SpeciesAttr: "Ель"}))
	assert.Equal(t, DefaultSpeciesColor, SpeciesColorOf(geojson.Properties{SpeciesAttr: 42.0}))
	assert.Equal(t, DefaultSpeciesColor, SpeciesColorOf(geojson.Properties{}))
	assert.Equal(t, DefaultSpeciesColor, SpeciesColorOf(nil))
}

func TestLegendsMatchTables(t *testing.T) {
	species := SpeciesLegend()
	require.Len(t, species, len(SpeciesTable())+1)
	for i, e := range SpeciesTable() {
		assert.Equal(t, e.Label, species[i].Label)
		assert.Equal(t, SpeciesColor(e.Label), species[i].Color)
	}
	last := species[len(species)-1]
	assert.Equal(t, LegendItem{Label: NoDataLabel, Color: DefaultSpeciesColor}, last)

	index := IndexLegend()
	bands := IndexBands()
	require.Len(t, index, len(bands))
	for i, b := range bands {
		assert.Equal(t, b.Color, index[i].Color)
		assert.Equal(t, b.Color, IndexColor(b.Low))
	}
	assert.Equal(t, "0.52 - 0.56", index[0].Label)
	assert.Equal(t, "0.71 - 0.75", index[len(index)-1].Label)
}
