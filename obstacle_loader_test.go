package main

import (
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadObstacleFieldEmptyPath(t *testing.T) {
	field, bounds, err := LoadObstacleField(ObstacleSource{}, floorBounds)
	require.NoError(t, err)
	assert.Equal(t, FreeSpace{Bounds: floorBounds}, field)
	assert.Equal(t, floorBounds, bounds)
}

func TestLoadObstacleFieldRectangles(t *testing.T) {
	path := writeFile(t, "walls.json", `[[2, 2, 3, 10], {"minX": 4, "minY": 4, "maxX": 10, "maxY": 5}]`)

	field, bounds, err := LoadObstacleField(ObstacleSource{Path: path, Margin: 0.5}, floorBounds)
	require.NoError(t, err)
	assert.Equal(t, floorBounds, bounds)

	rf, ok := field.(*RectField)
	require.True(t, ok)
	assert.Len(t, rf.Rects(), 2)
	assert.True(t, field.QueryPoint(Point{X: 1.7, Y: 5}), "margin applied")
	assert.False(t, field.QueryPoint(Point{X: 1, Y: 1}))
}

func TestLoadRectanglesErrors(t *testing.T) {
	_, err := LoadRectangles(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)

	_, err = LoadRectangles(writeFile(t, "bad.json", `{"not": "a list"}`))
	assert.Error(t, err)
}

const obstaclesGeoJSON = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "properties": {}, "geometry": {"type": "Polygon",
      "coordinates": [[[2, 2], [6, 2], [6, 6], [2, 6], [2, 2]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Polygon",
      "coordinates": [[[3, 3], [4, 3], [4, 4], [3, 4], [3, 3]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "MultiPolygon",
      "coordinates": [[[[8, 8], [10, 8], [10, 10], [8, 10], [8, 8]]]]}},
    {"type": "Feature", "properties": {}, "geometry": {"type": "Point", "coordinates": [1, 1]}}
  ]
}`

func TestLoadPolygonsGeoJSON(t *testing.T) {
	polygons, err := LoadPolygonsGeoJSON(writeFile(t, "zones.geojson", obstaclesGeoJSON))
	require.NoError(t, err)
	assert.Len(t, polygons, 3, "point feature skipped, multipolygon flattened")
}

func TestLoadObstacleFieldGeoJSON(t *testing.T) {
	path := writeFile(t, "zones.geojson", obstaclesGeoJSON)

	field, _, err := LoadObstacleField(ObstacleSource{Path: path, SimplifyEpsilon: 0.1}, floorBounds)
	require.NoError(t, err)

	pf, ok := field.(*PolygonField)
	require.True(t, ok)
	assert.Len(t, pf.Polygons(), 2, "nested square removed")
	assert.True(t, field.QueryPoint(Point{X: 3.5, Y: 3.5}))
	assert.True(t, field.QueryPoint(Point{X: 9, Y: 9}))
	assert.False(t, field.QueryPoint(Point{X: 7, Y: 7}))
}

func TestSimplifyPolygons(t *testing.T) {
	wobbly := orb.Polygon{{{0, 0}, {5, 0.01}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	out := SimplifyPolygons([]orb.Polygon{wobbly}, 0.5)
	require.Len(t, out, 1)
	assert.Len(t, out[0][0], 5)
	assert.Len(t, wobbly[0], 6, "input untouched")

	tiny := orb.Polygon{{{0, 0}, {0.1, 0}, {0.1, 0.1}, {0, 0}}}
	out = SimplifyPolygons([]orb.Polygon{tiny}, 5)
	assert.Equal(t, tiny, out[0], "collapsed rings are returned unchanged")
}

func TestRemoveContainedPolygons(t *testing.T) {
	outer := orb.Polygon{{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}}}
	inner := orb.Polygon{{{2, 2}, {3, 2}, {3, 3}, {2, 3}, {2, 2}}}
	apart := orb.Polygon{{{20, 20}, {21, 20}, {21, 21}, {20, 21}, {20, 20}}}

	out := RemoveContainedPolygons([]orb.Polygon{inner, outer, apart})
	assert.Equal(t, []orb.Polygon{outer, apart}, out)
}

func TestRemoveContainedPolygonsKeepsHolePlug(t *testing.T) {
	ring := orb.Polygon{
		{{0, 0}, {10, 0}, {10, 10}, {0, 10}, {0, 0}},
		{{4, 4}, {6, 4}, {6, 6}, {4, 6}, {4, 4}},
	}
	plug := orb.Polygon{{{3, 3}, {7, 3}, {7, 7}, {3, 7}, {3, 3}}}
	edgeOfHole := orb.Polygon{{{3, 1}, {5, 1}, {5, 8}, {3, 8}, {3, 1}}}
	solidOnly := orb.Polygon{{{1, 1}, {2, 1}, {2, 2}, {1, 2}, {1, 1}}}

	out := RemoveContainedPolygons([]orb.Polygon{plug, ring})
	assert.Equal(t, []orb.Polygon{plug, ring}, out, "plug covers the hole")
	assert.True(t, NewPolygonField(floorBounds, out, 0).QueryPoint(Point{X: 5, Y: 5}))

	out = RemoveContainedPolygons([]orb.Polygon{edgeOfHole, ring})
	assert.Equal(t, []orb.Polygon{edgeOfHole, ring}, out, "vertices in the solid part, edge across the hole")

	out = RemoveContainedPolygons([]orb.Polygon{solidOnly, ring})
	assert.Equal(t, []orb.Polygon{ring}, out, "clear of the hole")
}

func TestLoadObstacleFieldImage(t *testing.T) {
	img := whiteGray(8, 6)
	for y := 0; y < 6; y++ {
		img.SetGray(4, y, color.Gray{Y: 0})
	}
	path := filepath.Join(t.TempDir(), "map.png")
	f, err := os.Create(path)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, img))
	require.NoError(t, f.Close())

	field, bounds, err := LoadObstacleField(ObstacleSource{Path: path}, floorBounds)
	require.NoError(t, err)
	assert.Equal(t, Bounds{MaxX: 8, MaxY: 6}, bounds, "raster defines its own bounds")
	assert.True(t, field.QueryPoint(Point{X: 4.5, Y: 2}))
	assert.False(t, field.QueryPoint(Point{X: 2.5, Y: 2}))
	assert.True(t, field.QuerySegment(Point{X: 1, Y: 1}, Point{X: 7, Y: 1}))

	inflated, _, err := LoadObstacleField(ObstacleSource{Path: path, Margin: 1}, floorBounds)
	require.NoError(t, err)
	assert.True(t, inflated.QueryPoint(Point{X: 3.5, Y: 2}))
	assert.False(t, inflated.QueryPoint(Point{X: 2.5, Y: 2}))
}

func TestLoadObstacleFieldPGM(t *testing.T) {
	// 3x2 binary PGM, black in the middle column.
	data := append([]byte("P5\n3 2\n255\n"), 255, 0, 255, 255, 0, 255)
	path := filepath.Join(t.TempDir(), "map.pgm")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	field, bounds, err := LoadObstacleField(ObstacleSource{Path: path}, floorBounds)
	require.NoError(t, err)
	assert.Equal(t, Bounds{MaxX: 3, MaxY: 2}, bounds)
	assert.True(t, field.QueryPoint(Point{X: 1.5, Y: 0.5}))
	assert.False(t, field.QueryPoint(Point{X: 0.5, Y: 1.5}))
}

func TestLoadObstacleFieldUnsupported(t *testing.T) {
	_, _, err := LoadObstacleField(ObstacleSource{Path: "map.bmp"}, floorBounds)
	assert.ErrorContains(t, err, "unsupported")
}
