// Package style resolves per-feature render styles for the overlay layers.
package style

import (
	"github.com/paulmach/orb/geojson"

	"github.com/joeblew999/forest-map/internal/classify"
)

// Simplestyle property names written onto styled features.
const (
	PropFill        = "fill"
	PropStroke      = "stroke"
	PropStrokeWidth = "stroke-width"
)

// Stroke is the fixed outline of a layer; it never depends on feature data.
type Stroke struct {
	Color string  `json:"color" yaml:"color" doc:"Stroke color (CSS)" example:"#34495e"`
	Width float64 `json:"width" yaml:"width" doc:"Stroke width in pixels" example:"1"`
}

var (
	TreeStroke = Stroke{Color: "#34495e", Width: 1}
	HBRStroke  = Stroke{Color: "#2c3e50", Width: 1}
)

// Style is the resolved look of one feature.
type Style struct {
	Fill        string  `json:"fill" doc:"Fill color (CSS)"`
	Stroke      string  `json:"stroke" doc:"Stroke color (CSS)"`
	StrokeWidth float64 `json:"strokeWidth" doc:"Stroke width in pixels"`
}

// Resolver computes a feature's style. Implementations must be safe for
// concurrent use.
type Resolver interface {
	Resolve(props geojson.Properties) Style
}

// ResolverFunc adapts a fill function and a fixed stroke into a Resolver.
type ResolverFunc struct {
	Fill   func(geojson.Properties) string
	Stroke Stroke
}

// Resolve implements Resolver.
func (r ResolverFunc) Resolve(props geojson.Properties) Style {
	return Style{
		Fill:        r.Fill(props),
		Stroke:      r.Stroke.Color,
		StrokeWidth: r.Stroke.Width,
	}
}

// Species styles features by their VMR species label.
func Species(stroke Stroke) Resolver {
	return ResolverFunc{Fill: classify.SpeciesColorOf, Stroke: stroke}
}

// Index styles features by their HBR health index.
func Index(stroke Stroke) Resolver {
	return ResolverFunc{Fill: classify.IndexColorOf, Stroke: stroke}
}

// Apply returns a styled copy of fc. Source features are not modified;
// geometries are shared with the input.
func Apply(fc *geojson.FeatureCollection, r Resolver) *geojson.FeatureCollection {
	out := geojson.NewFeatureCollection()
	if fc == nil {
		return out
	}
	out.BBox = fc.BBox
	for _, f := range fc.Features {
		out.Append(Feature(f, r))
	}
	return out
}

// Feature returns a styled copy of a single feature.
func Feature(f *geojson.Feature, r Resolver) *geojson.Feature {
	s := r.Resolve(f.Properties)

	clone := geojson.NewFeature(f.Geometry)
	clone.ID = f.ID
	clone.BBox = f.BBox
	for k, v := range f.Properties {
		clone.Properties[k] = v
	}
	clone.Properties[PropFill] = s.Fill
	clone.Properties[PropStroke] = s.Stroke
	clone.Properties[PropStrokeWidth] = s.StrokeWidth
	return clone
}
