package main

import (
	"github.com/dhconnelly/rtreego"
)

// rtreego treats touching rectangles as disjoint, so query boxes are widened
// by this much to keep closed-boundary contacts in the candidate set.
const indexTolerance = 1e-9

// obstacleEntry wraps an obstacle's bounding box for R-tree storage
type obstacleEntry struct {
	ID   int
	BBox rtreego.Rect
}

// Bounds implements rtreego.Spatial interface
func (e *obstacleEntry) Bounds() rtreego.Rect {
	return e.BBox
}

// SpatialIndex answers which obstacles may touch a query region
type SpatialIndex struct {
	tree *rtreego.Rtree
	size int
}

// NewSpatialIndex indexes the given boxes; query results are indices into boxes.
func NewSpatialIndex(boxes []Rect) *SpatialIndex {
	objs := make([]rtreego.Spatial, 0, len(boxes))
	for i, box := range boxes {
		bbox, err := rtreego.NewRectFromPoints(
			rtreego.Point{box.MinX, box.MinY},
			rtreego.Point{box.MaxX, box.MaxY},
		)
		if err != nil {
			continue
		}
		objs = append(objs, &obstacleEntry{ID: i, BBox: bbox})
	}

	// 2D, min 25, max 50 entries per node
	return &SpatialIndex{
		tree: rtreego.NewTree(2, 25, 50, objs...),
		size: len(objs),
	}
}

// Len returns the number of indexed obstacles.
func (si *SpatialIndex) Len() int { return si.size }

// QueryRegion returns the ids of obstacles whose boxes touch the given region
func (si *SpatialIndex) QueryRegion(minX, minY, maxX, maxY float64) []int {
	bbox, err := rtreego.NewRectFromPoints(
		rtreego.Point{minX - indexTolerance, minY - indexTolerance},
		rtreego.Point{maxX + indexTolerance, maxY + indexTolerance},
	)
	if err != nil {
		return nil
	}

	results := si.tree.SearchIntersect(bbox)
	ids := make([]int, 0, len(results))
	for _, item := range results {
		ids = append(ids, item.(*obstacleEntry).ID)
	}
	return ids
}

// QuerySegment returns candidates for the bounding box of segment a-b.
func (si *SpatialIndex) QuerySegment(a, b Point) []int {
	return si.QueryRegion(min(a.X, b.X), min(a.Y, b.Y), max(a.X, b.X), max(a.Y, b.Y))
}

// QueryPoint returns candidates whose boxes contain p.
func (si *SpatialIndex) QueryPoint(p Point) []int {
	return si.QueryRegion(p.X, p.Y, p.X, p.Y)
}
