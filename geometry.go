package main

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distance calculates Euclidean distance between two points
func (p Point) Distance(other Point) float64 {
	dx := p.X - other.X
	dy := p.Y - other.Y
	return math.Sqrt(dx*dx + dy*dy)
}

func (p Point) finite() bool {
	return !math.IsNaN(p.X) && !math.IsNaN(p.Y) && !math.IsInf(p.X, 0) && !math.IsInf(p.Y, 0)
}

func (p Point) orb() orb.Point { return orb.Point{p.X, p.Y} }

func pointFromOrb(p orb.Point) Point { return Point{X: p[0], Y: p[1]} }

func (p Point) String() string {
	return fmt.Sprintf("(%.4f, %.4f)", p.X, p.Y)
}

// Bounds is the axis-aligned sampling domain of a planning request.
type Bounds struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

func (b Bounds) bound() orb.Bound {
	return orb.Bound{Min: orb.Point{b.MinX, b.MinY}, Max: orb.Point{b.MaxX, b.MaxY}}
}

// Contains reports whether p lies inside the closed bounds.
func (b Bounds) Contains(p Point) bool {
	if !p.finite() {
		return false
	}
	return b.bound().Contains(p.orb())
}

// Valid reports whether the bounds are finite and have a positive area.
func (b Bounds) Valid() bool {
	for _, v := range []float64{b.MinX, b.MinY, b.MaxX, b.MaxY} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.MaxX > b.MinX && b.MaxY > b.MinY
}

func (b Bounds) Width() float64  { return b.MaxX - b.MinX }
func (b Bounds) Height() float64 { return b.MaxY - b.MinY }

// ParseBounds reads "minX,minY,maxX,maxY".
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, fmt.Errorf("failed to parse bounds %q: want minX,minY,maxX,maxY", s)
	}
	var v [4]float64
	for i, part := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(part), 64)
		if err != nil {
			return Bounds{}, fmt.Errorf("failed to parse bounds %q: %w", s, err)
		}
		v[i] = f
	}
	b := Bounds{MinX: v[0], MinY: v[1], MaxX: v[2], MaxY: v[3]}
	if !b.Valid() {
		return Bounds{}, fmt.Errorf("failed to parse bounds %q: empty or inverted", s)
	}
	return b, nil
}

// ParsePoint reads "x,y".
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("failed to parse point %q: want x,y", s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("failed to parse point %q: %w", s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("failed to parse point %q: %w", s, err)
	}
	return Point{X: x, Y: y}, nil
}

// Rect is an axis-aligned rectangular obstacle. Its edges belong to the obstacle.
type Rect struct {
	MinX float64 `json:"minX"`
	MinY float64 `json:"minY"`
	MaxX float64 `json:"maxX"`
	MaxY float64 `json:"maxY"`
}

// UnmarshalJSON accepts either the object form or a 4-element array
// [x1, y1, x2, y2] with corners in any order.
func (r *Rect) UnmarshalJSON(data []byte) error {
	var corners []float64
	if err := json.Unmarshal(data, &corners); err == nil {
		if len(corners) != 4 {
			return fmt.Errorf("rectangle needs 4 coordinates, got %d", len(corners))
		}
		*r = Rect{
			MinX: math.Min(corners[0], corners[2]),
			MinY: math.Min(corners[1], corners[3]),
			MaxX: math.Max(corners[0], corners[2]),
			MaxY: math.Max(corners[1], corners[3]),
		}
		return nil
	}

	type plain Rect
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*r = Rect(p)
	return nil
}

func (r Rect) ContainsPoint(p Point) bool {
	return p.X >= r.MinX && p.X <= r.MaxX && p.Y >= r.MinY && p.Y <= r.MaxY
}

// Pad grows the rectangle by d on every side.
func (r Rect) Pad(d float64) Rect {
	return Rect{MinX: r.MinX - d, MinY: r.MinY - d, MaxX: r.MaxX + d, MaxY: r.MaxY + d}
}

// SegmentIntersectsRect clips segment a-b against the closed rectangle
// (Liang-Barsky). Touching an edge or a corner counts as an intersection.
func SegmentIntersectsRect(a, b Point, r Rect) bool {
	if r.ContainsPoint(a) || r.ContainsPoint(b) {
		return true
	}

	dx := b.X - a.X
	dy := b.Y - a.Y
	t0, t1 := 0.0, 1.0

	clip := func(p, q float64) bool {
		if p == 0 {
			return q >= 0
		}
		t := q / p
		if p < 0 {
			if t > t1 {
				return false
			}
			if t > t0 {
				t0 = t
			}
		} else {
			if t < t0 {
				return false
			}
			if t < t1 {
				t1 = t
			}
		}
		return true
	}

	return clip(-dx, a.X-r.MinX) &&
		clip(dx, r.MaxX-a.X) &&
		clip(-dy, a.Y-r.MinY) &&
		clip(dy, r.MaxY-a.Y)
}

// LineSegment represents a line segment between two points
type LineSegment struct {
	P1, P2 Point
}

// DoSegmentsIntersect checks if two closed line segments intersect.
// Shared endpoints and collinear overlap count as intersections.
func DoSegmentsIntersect(seg1, seg2 LineSegment) bool {
	p1, p2 := seg1.P1, seg1.P2
	p3, p4 := seg2.P1, seg2.P2

	d1 := direction(p3, p4, p1)
	d2 := direction(p3, p4, p2)
	d3 := direction(p1, p2, p3)
	d4 := direction(p1, p2, p4)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	// Check for collinear cases
	if d1 == 0 && onSegment(p3, p4, p1) {
		return true
	}
	if d2 == 0 && onSegment(p3, p4, p2) {
		return true
	}
	if d3 == 0 && onSegment(p1, p2, p3) {
		return true
	}
	if d4 == 0 && onSegment(p1, p2, p4) {
		return true
	}

	return false
}

// direction calculates the cross product to determine orientation
func direction(p1, p2, p3 Point) float64 {
	return (p3.X-p1.X)*(p2.Y-p1.Y) - (p2.X-p1.X)*(p3.Y-p1.Y)
}

// onSegment checks if point q lies on segment pr
func onSegment(p, r, q Point) bool {
	return q.X <= math.Max(p.X, r.X) && q.X >= math.Min(p.X, r.X) &&
		q.Y <= math.Max(p.Y, r.Y) && q.Y >= math.Min(p.Y, r.Y)
}

// PathLength sums the Euclidean length of consecutive points.
func PathLength(points []Point) float64 {
	var total float64
	for i := 0; i+1 < len(points); i++ {
		total += points[i].Distance(points[i+1])
	}
	return total
}
