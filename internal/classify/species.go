// Package classify maps forestry survey attributes to display colors.
//
// Two classifiers exist: species (categorical, exact label match) and the
// HBR health index (numeric bands). Both are total: any input yields a color,
// unknown or malformed values degrade to a default. The tables here are the
// only copy of the color rules; styling and the legend both read them.
package classify

import "slices"

// SpeciesAttr is the feature attribute carrying the dominant species label.
const SpeciesAttr = "VMR"

// DefaultSpeciesColor is returned for unknown or absent species.
const DefaultSpeciesColor = "#999999"

// NoDataLabel labels the default species color in the legend.
const NoDataLabel = "Нет данных"

// SpeciesEntry pairs a species label with its fill color.
type SpeciesEntry struct {
	Label string `json:"label" yaml:"label" doc:"Species label as it appears in the VMR attribute" example:"Ель"`
	Color string `json:"color" yaml:"color" doc:"Fill color (CSS hex)" example:"#a000ff"`
}

var speciesTable = []SpeciesEntry{
	{Label: "Береза", Color: "#0016ff"},
	{Label: "Ель", Color: "#a000ff"},
	{Label: "Клен", Color: "#ff0600"},
	{Label: "Лиственница", Color: "#ffac28"},
	{Label: "Липа", Color: "#faff00"},
	{Label: "Ольха Серая", Color: "#00a04f"},
	{Label: "Осина", Color: "#00ff4e"},
	{Label: "Пихта", Color: "#5400f8"},
	{Label: "Сосна", Color: "#ff6f00"},
}

// SpeciesTable returns a copy of the ordered species color table.
func SpeciesTable() []SpeciesEntry {
	return slices.Clone(speciesTable)
}

// SpeciesColor returns the fill color for a species label.
// Matching is exact and case-sensitive; the first entry wins.
func SpeciesColor(label string) string {
	for _, e := range speciesTable {
		if e.Label == label {
			return e.Color
		}
	}
	return DefaultSpeciesColor
}
