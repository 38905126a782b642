package classify

import (
	"fmt"
	"slices"
)

// Attributes carrying the HBR health index. Older survey exports use the
// fallback name; see IndexOf.
const (
	IndexAttr         = "hbr_index"
	IndexFallbackAttr = "Среднее начение индекса"
)

// DefaultIndexColor is returned for values outside every band.
const DefaultIndexColor = "#BDC3C7"

// Band is a contiguous index range mapped to one color.
// Low is inclusive; High is exclusive unless Closed is set.
type Band struct {
	Low    float64 `json:"low" yaml:"low" doc:"Inclusive lower bound" example:"0.59"`
	High   float64 `json:"high" yaml:"high" doc:"Upper bound" example:"0.63"`
	Closed bool    `json:"closed" yaml:"closed" doc:"Whether High is inclusive"`
	Color  string  `json:"color" yaml:"color" doc:"Fill color (CSS hex)" example:"#ccff00"`
}

// Contains reports whether v falls inside the band.
func (b Band) Contains(v float64) bool {
	if v < b.Low {
		return false
	}
	if b.Closed {
		return v <= b.High
	}
	return v < b.High
}

// Label renders the band the way the legend shows it, e.g. "0.52 - 0.56".
func (b Band) Label() string {
	return fmt.Sprintf("%.2f - %.2f", b.Low, b.High)
}

// Ascending and contiguous; only the last band is closed.
var indexBands = []Band{
	{Low: 0.52, High: 0.56, Color: "#00ff00"},
	{Low: 0.56, High: 0.59, Color: "#66ff00"},
	{Low: 0.59, High: 0.63, Color: "#ccff00"},
	{Low: 0.63, High: 0.67, Color: "#ffcc00"},
	{Low: 0.67, High: 0.71, Color: "#ff6600"},
	{Low: 0.71, High: 0.75, Closed: true, Color: "#ff0000"},
}

// IndexBands returns a copy of the ordered index band table.
func IndexBands() []Band {
	return slices.Clone(indexBands)
}

// IndexColor returns the fill color for a health index value.
// NaN never satisfies a band and falls through to the default.
func IndexColor(v float64) string {
	for _, b := range indexBands {
		if b.Contains(v) {
			return b.Color
		}
	}
	return DefaultIndexColor
}
