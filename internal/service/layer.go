package service

import (
	"github.com/joeblew999/forest-map/internal/classify"
	"github.com/joeblew999/forest-map/internal/style"
)

// Tile URL templates of the base maps.
const (
	OSMTileURL       = "https://tile.openstreetmap.org/{z}/{x}/{y}.png"
	SatelliteTileURL = "https://mt1.google.com/vt/lyrs=s,h&x={x}&y={y}&z={z}"
)

// Default source file names of the two survey overlays.
const (
	DefaultSpeciesFile = "Dревостой Верещагинского МО.geojson"
	DefaultIndexFile   = "Xвойные лесные насаждения.geojson"
)

// DefaultLayers returns the four layers of the survey map in draw order.
func DefaultLayers(speciesFile, indexFile string) []LayerConfig {
	treeStroke := style.TreeStroke
	hbrStroke := style.HBRStroke
	return []LayerConfig{
		{
			ID:             LayerOSM,
			Name:           "OpenStreetMap",
			Kind:           KindBase,
			TileURL:        OSMTileURL,
			DefaultVisible: true,
		},
		{
			ID:      LayerSatellite,
			Name:    "Google Satellite",
			Kind:    KindBase,
			TileURL: SatelliteTileURL,
		},
		{
			ID:             LayerTrees,
			Name:           "Породы деревьев",
			Kind:           KindOverlay,
			Source:         speciesFile,
			Classifier:     ClassifySpecies,
			DefaultVisible: true,
			Stroke:         &treeStroke,
			Legend:         classify.SpeciesLegend(),
		},
		{
			ID:             LayerHBR,
			Name:           "Индекс HBR",
			Kind:           KindOverlay,
			Source:         indexFile,
			Classifier:     ClassifyIndex,
			DefaultVisible: true,
			Stroke:         &hbrStroke,
			Legend:         classify.IndexLegend(),
		},
	}
}

// LayerService serves the fixed layer catalog.
type LayerService struct {
	layers []LayerConfig
	byID   map[string]LayerConfig
}

// NewLayerService creates a layer service over layers, keeping their order.
func NewLayerService(layers []LayerConfig) *LayerService {
	s := &LayerService{
		layers: layers,
		byID:   make(map[string]LayerConfig, len(layers)),
	}
	for _, l := range layers {
		s.byID[l.ID] = l
	}
	return s
}

// List returns all layers in draw order.
func (s *LayerService) List() []LayerConfig {
	out := make([]LayerConfig, len(s.layers))
	copy(out, s.layers)
	return out
}

// Get returns a layer by ID.
func (s *LayerService) Get(id string) (LayerConfig, bool) {
	layer, ok := s.byID[id]
	return layer, ok
}

// Overlays returns the vector overlays in draw order.
func (s *LayerService) Overlays() []LayerConfig {
	var out []LayerConfig
	for _, l := range s.layers {
		if l.IsOverlay() {
			out = append(out, l)
		}
	}
	return out
}
