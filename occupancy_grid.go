package main

import (
	"image"
	"image/color"
	"math"
)

// OccupancyGrid is a row-major raster; cell (x, y) covers [x, x+1) x [y, y+1)
// in world units.
type OccupancyGrid struct {
	Width  int
	Height int
	cells  []bool
}

func NewOccupancyGrid(width, height int) *OccupancyGrid {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	return &OccupancyGrid{Width: width, Height: height, cells: make([]bool, width*height)}
}

// GridFromImage marks every pixel whose gray level is at or below threshold
// as occupied. Threshold 0 means only pure black blocks.
func GridFromImage(img image.Image, threshold uint8) *OccupancyGrid {
	b := img.Bounds()
	g := NewOccupancyGrid(b.Dx(), b.Dy())
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			gray := color.GrayModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.Gray)
			if gray.Y <= threshold {
				g.Set(x, y, true)
			}
		}
	}
	return g
}

func (g *OccupancyGrid) inRange(x, y int) bool {
	return x >= 0 && x < g.Width && y >= 0 && y < g.Height
}

func (g *OccupancyGrid) Set(x, y int, occupied bool) {
	if g.inRange(x, y) {
		g.cells[y*g.Width+x] = occupied
	}
}

// Occupied reports the cell state; cells outside the grid are occupied.
func (g *OccupancyGrid) Occupied(x, y int) bool {
	if !g.inRange(x, y) {
		return true
	}
	return g.cells[y*g.Width+x]
}

// Inflate returns a copy where every occupied cell also blocks the square
// window of the given radius around it.
func (g *OccupancyGrid) Inflate(radius int) *OccupancyGrid {
	out := NewOccupancyGrid(g.Width, g.Height)
	if radius <= 0 {
		copy(out.cells, g.cells)
		return out
	}

	// The square window is separable: dilate rows, then columns.
	rows := NewOccupancyGrid(g.Width, g.Height)
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !g.cells[y*g.Width+x] {
				continue
			}
			for nx := max(0, x-radius); nx <= min(g.Width-1, x+radius); nx++ {
				rows.cells[y*g.Width+nx] = true
			}
		}
	}
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			if !rows.cells[y*g.Width+x] {
				continue
			}
			for ny := max(0, y-radius); ny <= min(g.Height-1, y+radius); ny++ {
				out.cells[ny*g.Width+x] = true
			}
		}
	}
	return out
}

// OccupiedCount returns the number of blocked cells.
func (g *OccupancyGrid) OccupiedCount() int {
	n := 0
	for _, c := range g.cells {
		if c {
			n++
		}
	}
	return n
}

// GridField adapts an OccupancyGrid to the ObstacleField contract.
type GridField struct {
	grid *OccupancyGrid
}

func NewGridField(grid *OccupancyGrid) *GridField {
	return &GridField{grid: grid}
}

// Bounds covers the whole raster.
func (f *GridField) Bounds() Bounds {
	return Bounds{MaxX: float64(f.grid.Width), MaxY: float64(f.grid.Height)}
}

func (f *GridField) QueryPoint(p Point) bool {
	if !p.finite() {
		return true
	}
	return f.grid.Occupied(int(math.Floor(p.X)), int(math.Floor(p.Y)))
}

// QuerySegment visits every cell the segment passes through (a supercover
// traversal), so the check never skips a one-cell obstacle, including
// diagonal walls that a plain Bresenham walk steps across.
func (f *GridField) QuerySegment(a, b Point) bool {
	if f.QueryPoint(a) || f.QueryPoint(b) {
		return true
	}

	x, y := int(math.Floor(a.X)), int(math.Floor(a.Y))
	endX, endY := int(math.Floor(b.X)), int(math.Floor(b.Y))
	dx, dy := b.X-a.X, b.Y-a.Y

	stepX, tMaxX, tDeltaX := traversalAxis(a.X, dx, x)
	stepY, tMaxY, tDeltaY := traversalAxis(a.Y, dy, y)

	limit := abs(endX-x) + abs(endY-y) + 2
	for i := 0; (x != endX || y != endY) && i < limit; i++ {
		switch {
		case tMaxX < tMaxY:
			x += stepX
			tMaxX += tDeltaX
		case tMaxY < tMaxX:
			y += stepY
			tMaxY += tDeltaY
		default:
			// exactly through a corner: both side cells are touched
			if f.grid.Occupied(x+stepX, y) || f.grid.Occupied(x, y+stepY) {
				return true
			}
			x += stepX
			y += stepY
			tMaxX += tDeltaX
			tMaxY += tDeltaY
		}
		if f.grid.Occupied(x, y) {
			return true
		}
	}
	return false
}

// traversalAxis returns the step direction, the parameter t at which the
// segment first crosses a cell border on this axis, and the t between borders.
func traversalAxis(origin, delta float64, cell int) (int, float64, float64) {
	switch {
	case delta > 0:
		return 1, (float64(cell+1) - origin) / delta, 1 / delta
	case delta < 0:
		return -1, (float64(cell) - origin) / delta, -1 / delta
	default:
		return 0, math.Inf(1), math.Inf(1)
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
