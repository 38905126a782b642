package tiles

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/encoding/mvt"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/maptile"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var stand = orb.Polygon{orb.Ring{
	{54.655, 58.065}, {54.670, 58.065}, {54.670, 58.072}, {54.655, 58.072}, {54.655, 58.065},
}}

func styledCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(stand)
	f.Properties["VMR"] = "Ель"
	f.Properties["fill"] = "#a000ff"
	f.Properties["stroke"] = "#34495e"
	f.Properties["stroke-width"] = 1.0
	fc.Append(f)
	return fc
}

func TestTile_EncodesStyledFeature(t *testing.T) {
	fc := styledCollection()
	tile := maptile.At(stand.Bound().Center(), 13)

	data, err := Tile(fc, "trees", tile)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	layers, err := mvt.UnmarshalGzipped(data)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	assert.Equal(t, "trees", layers[0].Name)
	require.NotEmpty(t, layers[0].Features)
	assert.Equal(t, "#a000ff", layers[0].Features[0].Properties["fill"])
	assert.Equal(t, "Ель", layers[0].Features[0].Properties["VMR"])
}

func TestTile_DoesNotMutateSource(t *testing.T) {
	fc := styledCollection()
	before := orb.Clone(fc.Features[0].Geometry)

	_, err := Tile(fc, "trees", maptile.At(stand.Bound().Center(), 12))
	require.NoError(t, err)

	assert.True(t, orb.Equal(before, fc.Features[0].Geometry))
}

func TestTile_EmptyWhenNoFeatures(t *testing.T) {
	fc := styledCollection()
	far := maptile.At(orb.Point{-120, 40}, 10)

	data, err := Tile(fc, "trees", far)
	require.NoError(t, err)
	assert.Nil(t, data)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(maptile.New(0, 0, 0)))
	assert.NoError(t, Validate(maptile.New(16383, 16383, 14)))

	tests := []maptile.Tile{
		maptile.New(0, 0, 15),
		maptile.New(1, 0, 0),
		maptile.New(0, 4, 2),
	}
	for _, tt := range tests {
		err := Validate(tt)
		assert.True(t, eris.Is(err, ErrOutOfRange), "%v", tt)
	}
}

func TestClipTo(t *testing.T) {
	inside := maptile.At(stand.Bound().Center(), 14).Bound()
	assert.NotNil(t, clipTo(stand, inside))

	// Tile fully covered by a large polygon: no vertex inside it.
	big := orb.Polygon{orb.Ring{{50, 55}, {60, 55}, {60, 60}, {50, 60}, {50, 55}}}
	assert.NotNil(t, clipTo(big, inside))

	far := maptile.At(orb.Point{10, 10}, 14).Bound()
	assert.Nil(t, clipTo(stand, far))
	assert.NotNil(t, clipTo(orb.MultiPolygon{stand}, inside))
}

// narrowStrip crosses the whole width of tile at three quarters of its
// height with every vertex outside the tile.
func narrowStrip(tile maptile.Tile) orb.Polygon {
	b := tile.Bound()
	w := b.Max[0] - b.Min[0]
	h := b.Max[1] - b.Min[1]
	y := b.Min[1] + 0.75*h
	return orb.Polygon{orb.Ring{
		{b.Min[0] - w, y - 0.01*h},
		{b.Max[0] + w, y - 0.01*h},
		{b.Max[0] + w, y + 0.01*h},
		{b.Min[0] - w, y + 0.01*h},
		{b.Min[0] - w, y - 0.01*h},
	}}
}

func TestTile_StripCrossingTile(t *testing.T) {
	tile := maptile.New(10, 10, 5)
	strip := narrowStrip(tile)
	for _, p := range strip[0] {
		require.False(t, tile.Bound().Contains(p))
	}

	fc := geojson.NewFeatureCollection()
	f := geojson.NewFeature(strip)
	f.Properties["fill"] = "#ccff00"
	fc.Append(f)

	data, err := Tile(fc, "hbr", tile)
	require.NoError(t, err)
	require.NotNil(t, data)

	layers, err := mvt.UnmarshalGzipped(data)
	require.NoError(t, err)
	require.Len(t, layers, 1)
	require.Len(t, layers[0].Features, 1)
	assert.Equal(t, "#ccff00", layers[0].Features[0].Properties["fill"])
	assert.True(t, orb.Equal(strip, fc.Features[0].Geometry), "source geometry changed")
}

func TestTile_SkipsNilFeatures(t *testing.T) {
	fc := styledCollection()
	fc.Features = append(fc.Features, nil, &geojson.Feature{})

	data, err := Tile(fc, "trees", maptile.At(stand.Bound().Center(), 13))
	require.NoError(t, err)
	assert.NotNil(t, data)
}
