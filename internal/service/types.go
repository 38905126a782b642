// Package service contains the map state and data access of the forest map.
package service

import (
	"github.com/joeblew999/forest-map/internal/classify"
	"github.com/joeblew999/forest-map/internal/style"
)

// LayerKind separates exclusive base maps from independent overlays.
type LayerKind string

const (
	KindBase    LayerKind = "base"
	KindOverlay LayerKind = "overlay"
)

// Classifier names the rule set that colors an overlay.
type Classifier string

const (
	ClassifySpecies Classifier = "species"
	ClassifyIndex   Classifier = "index"
)

// Layer IDs of the survey map.
const (
	LayerOSM       = "osm"
	LayerSatellite = "satellite"
	LayerTrees     = "trees"
	LayerHBR       = "hbr"
)

// LayerConfig describes one map layer. Base layers carry a tile URL
// template, overlays a GeoJSON source and a classifier.
type LayerConfig struct {
	ID             string                `json:"id" doc:"Unique layer identifier" example:"trees"`
	Name           string                `json:"name" doc:"Display name" example:"Породы деревьев"`
	Kind           LayerKind             `json:"kind" enum:"base,overlay" doc:"Base map or data overlay"`
	TileURL        string                `json:"tileUrl,omitempty" doc:"XYZ tile URL template (base layers)"`
	Source         string                `json:"source,omitempty" doc:"GeoJSON source file name (overlays)"`
	Classifier     Classifier            `json:"classifier,omitempty" enum:"species,index" doc:"Color rule set (overlays)"`
	DefaultVisible bool                  `json:"defaultVisible" doc:"Whether layer is visible at startup"`
	Stroke         *style.Stroke         `json:"stroke,omitempty" doc:"Fixed outline (overlays)"`
	Legend         []classify.LegendItem `json:"legend,omitempty" doc:"Legend entries for this layer"`
}

// IsOverlay reports whether the layer carries vector data.
func (l LayerConfig) IsOverlay() bool {
	return l.Kind == KindOverlay
}

// Resolver returns the style resolver of an overlay, or nil for base layers.
func (l LayerConfig) Resolver() style.Resolver {
	stroke := style.Stroke{}
	if l.Stroke != nil {
		stroke = *l.Stroke
	}
	switch l.Classifier {
	case ClassifySpecies:
		return style.Species(stroke)
	case ClassifyIndex:
		return style.Index(stroke)
	default:
		return nil
	}
}

// MapView is the initial viewport of the map.
type MapView struct {
	Center [2]float64 `json:"center" doc:"Center as [lon, lat] (EPSG:4326)" example:"[54.661956984221604,58.06831565495865]"`
	Zoom   float64    `json:"zoom" doc:"Initial zoom level" example:"13"`
}

// DefaultView centers on the Vereshchagino municipal district survey area.
var DefaultView = MapView{
	Center: [2]float64{54.661956984221604, 58.06831565495865},
	Zoom:   13,
}

// SourceFile represents a GeoJSON source file.
type SourceFile struct {
	Name     string `json:"name" doc:"File name" example:"hbr.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}
