// Package tiles cuts styled overlay features into Mapbox Vector Tiles.
//
// Tiles are built on demand from the in-memory styled feature collection, so
// the simplestyle properties (fill, stroke, stroke-width) travel with every
// feature and the browser can paint without re-running the classifiers.
package tiles

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/clip"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/paulmach/orb/simplify"
	"github.com/rotisserie/eris"
)

// MaxZoom is the deepest zoom level tiles are cut for.
const MaxZoom = 14

// ErrOutOfRange is returned for tile coordinates outside the pyramid.
var ErrOutOfRange = eris.New("tile out of range")

// Tile encodes the features of fc that touch tile t as a gzipped MVT with
// one layer named layerName. It returns nil when the tile holds nothing.
func Tile(fc *geojson.FeatureCollection, layerName string, t maptile.Tile) ([]byte, error) {
	if err := Validate(t); err != nil {
		return nil, err
	}

	bound := t.Bound()
	clipped := geojson.NewFeatureCollection()
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			continue
		}
		geom := clipTo(f.Geometry, bound)
		if geom == nil {
			continue
		}
		clone := geojson.NewFeature(geom)
		clone.ID = f.ID
		for k, v := range f.Properties {
			clone.Properties[k] = v
		}
		clipped.Append(clone)
	}
	if len(clipped.Features) == 0 {
		return nil, nil
	}

	layer := mvt.NewLayer(layerName, clipped)
	if eps := simplifyEpsilon(t.Z); eps > 0 {
		layer.Simplify(simplify.DouglasPeucker(eps))
	}
	layer.ProjectToTile(t)
	layer.RemoveEmpty(0.5, 0.5)
	if len(layer.Features) == 0 {
		return nil, nil
	}

	data, err := mvt.MarshalGzipped(mvt.Layers{layer})
	if err != nil {
		return nil, eris.Wrapf(err, "encode tile %d/%d/%d", t.Z, t.X, t.Y)
	}
	return data, nil
}

// Validate checks that t lies inside the tile pyramid up to MaxZoom.
func Validate(t maptile.Tile) error {
	if t.Z > MaxZoom {
		return eris.Wrapf(ErrOutOfRange, "zoom %d > %d", t.Z, MaxZoom)
	}
	n := uint32(1) << uint32(t.Z)
	if t.X >= n || t.Y >= n {
		return eris.Wrapf(ErrOutOfRange, "tile %d/%d/%d", t.Z, t.X, t.Y)
	}
	return nil
}

// clipTo returns a copy of geom cut to tile, or nil when nothing of it lies
// inside. The source geometry is left untouched.
func clipTo(geom orb.Geometry, tile orb.Bound) orb.Geometry {
	if !geom.Bound().Intersects(tile) {
		return nil
	}
	clipped := clip.Geometry(tile, orb.Clone(geom))
	if clipped == nil || isEmpty(clipped) {
		return nil
	}
	return clipped
}

func isEmpty(geom orb.Geometry) bool {
	switch g := geom.(type) {
	case orb.Polygon:
		return len(g) == 0 || len(g[0]) == 0
	case orb.MultiPolygon:
		return len(g) == 0
	case orb.LineString:
		return len(g) == 0
	case orb.MultiLineString:
		return len(g) == 0
	case orb.MultiPoint:
		return len(g) == 0
	case orb.Collection:
		return len(g) == 0
	default:
		return false
	}
}

// simplifyEpsilon returns the Douglas-Peucker tolerance in degrees.
// Forest stands are small, so tolerances stay well below a stand's width.
func simplifyEpsilon(zoom maptile.Zoom) float64 {
	switch {
	case zoom >= 14:
		return 0
	case zoom >= 12:
		return 0.000005
	case zoom >= 10:
		return 0.00002
	case zoom >= 6:
		return 0.0002
	default:
		return 0.001
	}
}
