package main

import (
	"math"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// ObstacleField answers collision queries in continuous coordinates.
// Implementations are immutable once built and safe for concurrent readers.
type ObstacleField interface {
	// QueryPoint reports whether p is occupied or outside the domain.
	QueryPoint(p Point) bool
	// QuerySegment reports whether the closed segment a-b touches an obstacle.
	QuerySegment(a, b Point) bool
}

// FreeSpace is an obstacle-free domain; only its bounds block.
type FreeSpace struct {
	Bounds Bounds
}

func (f FreeSpace) QueryPoint(p Point) bool {
	return !f.Bounds.Contains(p)
}

// Both endpoints inside a convex domain keep the whole segment inside.
func (f FreeSpace) QuerySegment(a, b Point) bool {
	return f.QueryPoint(a) || f.QueryPoint(b)
}

// RectField is a set of axis-aligned rectangular obstacles.
type RectField struct {
	bounds Bounds
	rects  []Rect
	index  *SpatialIndex
}

// NewRectField builds the field. Every rectangle is padded by margin to
// account for the agent footprint.
func NewRectField(bounds Bounds, rects []Rect, margin float64) *RectField {
	padded := make([]Rect, len(rects))
	for i, r := range rects {
		padded[i] = r.Pad(margin)
	}
	return &RectField{
		bounds: bounds,
		rects:  padded,
		index:  NewSpatialIndex(padded),
	}
}

// Rects returns the (inflated) obstacles.
func (f *RectField) Rects() []Rect { return f.rects }

func (f *RectField) QueryPoint(p Point) bool {
	if !f.bounds.Contains(p) {
		return true
	}
	for _, id := range f.index.QueryPoint(p) {
		if f.rects[id].ContainsPoint(p) {
			return true
		}
	}
	return false
}

func (f *RectField) QuerySegment(a, b Point) bool {
	if !f.bounds.Contains(a) || !f.bounds.Contains(b) {
		return true
	}
	for _, id := range f.index.QuerySegment(a, b) {
		if SegmentIntersectsRect(a, b, f.rects[id]) {
			return true
		}
	}
	return false
}

// PolygonField is a set of polygonal obstacles (outer ring plus holes).
// With a positive margin a location is blocked when it lies within margin of
// a polygon, which inflates each polygon by a disk of that radius.
type PolygonField struct {
	bounds   Bounds
	polygons []orb.Polygon
	margin   float64
	index    *SpatialIndex
}

func NewPolygonField(bounds Bounds, polygons []orb.Polygon, margin float64) *PolygonField {
	kept := make([]orb.Polygon, 0, len(polygons))
	boxes := make([]Rect, 0, len(polygons))
	for _, poly := range polygons {
		if len(poly) == 0 || len(poly[0]) < 3 {
			continue
		}
		b := poly.Bound()
		kept = append(kept, poly)
		boxes = append(boxes, Rect{MinX: b.Min[0], MinY: b.Min[1], MaxX: b.Max[0], MaxY: b.Max[1]}.Pad(margin))
	}
	return &PolygonField{
		bounds:   bounds,
		polygons: kept,
		margin:   margin,
		index:    NewSpatialIndex(boxes),
	}
}

// Polygons returns the obstacles in the field.
func (f *PolygonField) Polygons() []orb.Polygon { return f.polygons }

func (f *PolygonField) QueryPoint(p Point) bool {
	if !f.bounds.Contains(p) {
		return true
	}
	for _, id := range f.index.QueryPoint(p) {
		poly := f.polygons[id]
		if planar.PolygonContains(poly, p.orb()) {
			return true
		}
		if f.margin > 0 && planar.DistanceFrom(poly, p.orb()) <= f.margin {
			return true
		}
	}
	return false
}

func (f *PolygonField) QuerySegment(a, b Point) bool {
	if !f.bounds.Contains(a) || !f.bounds.Contains(b) {
		return true
	}
	for _, id := range f.index.QuerySegment(a, b) {
		poly := f.polygons[id]
		if planar.PolygonContains(poly, a.orb()) || planar.PolygonContains(poly, b.orb()) {
			return true
		}
		for _, ring := range poly {
			if segmentRingDistance(a, b, ring) <= f.margin {
				return true
			}
		}
	}
	return false
}

// segmentRingDistance is the smallest distance between segment a-b and the
// edges of ring; 0 when they cross.
func segmentRingDistance(a, b Point, ring orb.Ring) float64 {
	n := len(ring)
	if n == 0 {
		return math.Inf(1)
	}
	seg := LineSegment{P1: a, P2: b}
	best := math.Inf(1)
	for i := 0; i < n; i++ {
		p := ring[i]
		q := ring[(i+1)%n]
		if DoSegmentsIntersect(seg, LineSegment{P1: pointFromOrb(p), P2: pointFromOrb(q)}) {
			return 0
		}
		best = math.Min(best, planar.DistanceFromSegment(a.orb(), b.orb(), p))
		best = math.Min(best, planar.DistanceFromSegment(a.orb(), b.orb(), q))
		best = math.Min(best, planar.DistanceFromSegment(p, q, a.orb()))
		best = math.Min(best, planar.DistanceFromSegment(p, q, b.orb()))
	}
	return best
}
