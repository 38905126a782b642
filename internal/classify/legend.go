package classify

// LegendItem is one swatch + label row of a legend.
type LegendItem struct {
	Label string `json:"label" yaml:"label" doc:"Legend label"`
	Color string `json:"color" yaml:"color" doc:"Legend color (CSS)"`
}

// SpeciesLegend lists every species row followed by the no-data row.
func SpeciesLegend() []LegendItem {
	items := make([]LegendItem, 0, len(speciesTable)+1)
	for _, e := range speciesTable {
		items = append(items, LegendItem{Label: e.Label, Color: e.Color})
	}
	return append(items, LegendItem{Label: NoDataLabel, Color: DefaultSpeciesColor})
}

// IndexLegend lists one row per index band.
func IndexLegend() []LegendItem {
	items := make([]LegendItem, 0, len(indexBands))
	for _, b := range indexBands {
		items = append(items, LegendItem{Label: b.Label(), Color: b.Color})
	}
	return items
}
