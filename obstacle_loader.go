package main

import (
	"encoding/json"
	"fmt"
	"image"
	_ "image/png"
	"log"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/jbuchbinder/gopnm"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/orb/simplify"
)

// ObstacleSource describes where obstacles come from and how to prepare them.
type ObstacleSource struct {
	Path string
	// Margin inflates obstacles by the agent footprint (world units, or
	// whole cells for raster maps).
	Margin float64
	// Threshold is the highest gray level that counts as occupied in images.
	Threshold uint8
	// SimplifyEpsilon runs Douglas-Peucker on GeoJSON rings when positive.
	SimplifyEpsilon float64
}

// LoadObstacleField builds the field for src. Rasters define their own
// bounds; other sources use the given bounds. An empty path is free space.
func LoadObstacleField(src ObstacleSource, bounds Bounds) (ObstacleField, Bounds, error) {
	if src.Path == "" {
		return FreeSpace{Bounds: bounds}, bounds, nil
	}

	switch ext := strings.ToLower(filepath.Ext(src.Path)); ext {
	case ".json":
		rects, err := LoadRectangles(src.Path)
		if err != nil {
			return nil, Bounds{}, err
		}
		return NewRectField(bounds, rects, src.Margin), bounds, nil

	case ".geojson":
		polygons, err := LoadPolygonsGeoJSON(src.Path)
		if err != nil {
			return nil, Bounds{}, err
		}
		if src.SimplifyEpsilon > 0 {
			polygons = SimplifyPolygons(polygons, src.SimplifyEpsilon)
		}
		polygons = RemoveContainedPolygons(polygons)
		return NewPolygonField(bounds, polygons, src.Margin), bounds, nil

	case ".png", ".pgm", ".ppm", ".pbm", ".pnm":
		grid, err := LoadOccupancyImage(src.Path, src.Threshold)
		if err != nil {
			return nil, Bounds{}, err
		}
		if src.Margin > 0 {
			grid = grid.Inflate(int(src.Margin + 0.5))
		}
		field := NewGridField(grid)
		return field, field.Bounds(), nil

	default:
		return nil, Bounds{}, fmt.Errorf("failed to load obstacles: unsupported file type %q", ext)
	}
}

// LoadRectangles reads a JSON array of rectangles, each either
// {"minX":..,"minY":..,"maxX":..,"maxY":..} or [x1, y1, x2, y2].
func LoadRectangles(path string) ([]Rect, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var rects []Rect
	if err := json.Unmarshal(data, &rects); err != nil {
		return nil, fmt.Errorf("failed to parse rectangles in %s: %w", path, err)
	}

	log.Printf("   ✅ Loaded %d rectangles from %s\n", len(rects), filepath.Base(path))
	return rects, nil
}

// LoadPolygonsGeoJSON reads Polygon and MultiPolygon features from a
// GeoJSON feature collection. Other geometry types are skipped.
func LoadPolygonsGeoJSON(path string) ([]orb.Polygon, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	var polygons []orb.Polygon
	skipped := 0
	for _, feature := range fc.Features {
		switch g := feature.Geometry.(type) {
		case orb.Polygon:
			polygons = append(polygons, g)
		case orb.MultiPolygon:
			polygons = append(polygons, g...)
		default:
			skipped++
		}
	}

	if skipped > 0 {
		log.Printf("⚠️  Skipped %d non-polygon features in %s\n", skipped, filepath.Base(path))
	}
	log.Printf("   ✅ Loaded %d polygons from %s\n", len(polygons), filepath.Base(path))
	return polygons, nil
}

// LoadOccupancyImage decodes a PNG or PNM image into an occupancy grid.
func LoadOccupancyImage(path string, threshold uint8) (*OccupancyGrid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}

	grid := GridFromImage(img, threshold)
	log.Printf("   ✅ Loaded %dx%d %s occupancy map (%d blocked cells)\n",
		grid.Width, grid.Height, format, grid.OccupiedCount())
	return grid, nil
}

// SimplifyPolygons reduces ring complexity with Douglas-Peucker. Rings that
// would collapse below a triangle are kept unchanged.
func SimplifyPolygons(polygons []orb.Polygon, epsilon float64) []orb.Polygon {
	simplifier := simplify.DouglasPeucker(epsilon)
	out := make([]orb.Polygon, len(polygons))
	for i, poly := range polygons {
		simplified := simplifier.Polygon(poly.Clone())
		if len(simplified) == 0 || len(simplified[0]) < 4 {
			out[i] = poly
			continue
		}
		out[i] = simplified
	}
	return out
}

// RemoveContainedPolygons drops polygons fully contained within another.
func RemoveContainedPolygons(polygons []orb.Polygon) []orb.Polygon {
	if len(polygons) <= 1 {
		return polygons
	}

	contained := make([]bool, len(polygons))
	for i := range polygons {
		if contained[i] {
			continue
		}
		for j := range polygons {
			if i == j || contained[j] {
				continue
			}
			if isPolygonContainedIn(polygons[i], polygons[j]) {
				contained[i] = true
				break
			}
		}
	}

	result := make([]orb.Polygon, 0, len(polygons))
	for i, poly := range polygons {
		if !contained[i] {
			result = append(result, poly)
		}
	}
	if removed := len(polygons) - len(result); removed > 0 {
		log.Printf("   Polygons after removing contained: %d (removed %d)\n", len(result), removed)
	}
	return result
}

// isPolygonContainedIn checks if the outer ring of a lies within the solid
// part of b. A polygon that covers or overlaps one of b's holes is not
// contained: dropping it would free the hole area it blocks.
func isPolygonContainedIn(a, b orb.Polygon) bool {
	if len(a) == 0 || len(b) == 0 || len(a[0]) == 0 {
		return false
	}

	// Quick bounding box check first
	ab, bb := a.Bound(), b.Bound()
	if !bb.Contains(ab.Min) || !bb.Contains(ab.Max) {
		return false
	}

	for _, vertex := range a[0] {
		if !planar.PolygonContains(b, vertex) {
			return false
		}
	}
	for _, hole := range b[1:] {
		if ringsMeet(a[0], hole) {
			return false
		}
	}
	return true
}

// ringsMeet reports whether hole has a vertex inside outer or an edge
// crossing one of outer's edges.
func ringsMeet(outer, hole orb.Ring) bool {
	for _, vertex := range hole {
		if planar.RingContains(outer, vertex) {
			return true
		}
	}
	for i := 1; i < len(outer); i++ {
		edge := LineSegment{P1: pointFromOrb(outer[i-1]), P2: pointFromOrb(outer[i])}
		for j := 1; j < len(hole); j++ {
			if DoSegmentsIntersect(edge, LineSegment{P1: pointFromOrb(hole[j-1]), P2: pointFromOrb(hole[j])}) {
				return true
			}
		}
	}
	return false
}
