package main

import (
	"image"
	"image/color"
	"strings"

	"charm.land/lipgloss/v2"
)

// cellKind selects the style of a canvas cell.
type cellKind int

const (
	cellEmpty cellKind = iota
	cellObstacle
	cellEdge
	cellNode
	cellPath
	cellStart
	cellGoal
)

type canvasCell struct {
	ch   rune
	kind cellKind
}

// Canvas is a character grid mapping world coordinates onto W x H cells,
// row 0 at MinY (image orientation).
type Canvas struct {
	W, H   int
	bounds Bounds
	cells  [][]canvasCell
}

func NewCanvas(w, h int, bounds Bounds) *Canvas {
	w, h = max(w, 1), max(h, 1)
	c := &Canvas{W: w, H: h, bounds: bounds, cells: make([][]canvasCell, h)}
	for y := range c.cells {
		row := make([]canvasCell, w)
		for x := range row {
			row[x] = canvasCell{ch: ' ', kind: cellEmpty}
		}
		c.cells[y] = row
	}
	return c
}

func (c *Canvas) set(p image.Point, ch rune, kind cellKind) {
	if p.X >= 0 && p.X < c.W && p.Y >= 0 && p.Y < c.H {
		c.cells[p.Y][p.X] = canvasCell{ch: ch, kind: kind}
	}
}

// At returns the rune at cell (x, y).
func (c *Canvas) At(x, y int) rune {
	if x < 0 || x >= c.W || y < 0 || y >= c.H {
		return 0
	}
	return c.cells[y][x].ch
}

func (c *Canvas) cellOf(p Point) image.Point {
	x := int((p.X - c.bounds.MinX) / c.bounds.Width() * float64(c.W))
	y := int((p.Y - c.bounds.MinY) / c.bounds.Height() * float64(c.H))
	return image.Pt(min(max(x, 0), c.W-1), min(max(y, 0), c.H-1))
}

func (c *Canvas) centerOf(x, y int) Point {
	return Point{
		X: c.bounds.MinX + (float64(x)+0.5)/float64(c.W)*c.bounds.Width(),
		Y: c.bounds.MinY + (float64(y)+0.5)/float64(c.H)*c.bounds.Height(),
	}
}

// DrawField shades every cell whose center is blocked.
func (c *Canvas) DrawField(field ObstacleField) {
	for y := 0; y < c.H; y++ {
		for x := 0; x < c.W; x++ {
			if field.QueryPoint(c.centerOf(x, y)) {
				c.set(image.Pt(x, y), '█', cellObstacle)
			}
		}
	}
}

func (c *Canvas) drawLine(a, b Point, ch rune, kind cellKind) {
	pa, pb := c.cellOf(a), c.cellOf(b)
	for _, p := range Bresenham(pa.X, pa.Y, pb.X, pb.Y) {
		c.set(p, ch, kind)
	}
}

// DrawGraph draws roadmap edges, then nodes on top.
func (c *Canvas) DrawGraph(g *Graph) {
	for _, line := range g.LineStrings() {
		c.drawLine(line[0], line[1], '·', cellEdge)
	}
	for _, n := range g.Nodes {
		c.set(c.cellOf(n), 'o', cellNode)
	}
}

// DrawPath draws the path polyline and marks its endpoints.
func (c *Canvas) DrawPath(points []Point) {
	for i := 0; i+1 < len(points); i++ {
		c.drawLine(points[i], points[i+1], '*', cellPath)
	}
	if len(points) > 0 {
		c.set(c.cellOf(points[0]), 'S', cellStart)
		c.set(c.cellOf(points[len(points)-1]), 'G', cellGoal)
	}
}

// DrawMarker puts a single labeled cell at p.
func (c *Canvas) DrawMarker(p Point, ch rune) {
	c.set(c.cellOf(p), ch, cellStart)
}

func defaultStyles() map[cellKind]lipgloss.Style {
	fg := func(hex string) lipgloss.Style {
		return lipgloss.NewStyle().Foreground(lipgloss.Color(hex))
	}
	return map[cellKind]lipgloss.Style{
		cellObstacle: fg("#5C5C5C"),
		cellEdge:     fg("#3B6EA5"),
		cellNode:     fg("#7FB2E5"),
		cellPath:     fg("#E5533D").Bold(true),
		cellStart:    fg("#3DDC84").Bold(true),
		cellGoal:     fg("#E5533D").Bold(true),
	}
}

// Render converts the canvas to a styled string. Runs of cells with the same
// kind are rendered with a single Style.Render call.
func (c *Canvas) Render(styles map[cellKind]lipgloss.Style) string {
	lines := make([]string, c.H)
	for y, row := range c.cells {
		var sb strings.Builder
		runStart := 0
		for x := 1; x <= len(row); x++ {
			if x < len(row) && row[x].kind == row[runStart].kind {
				continue
			}
			chunk := make([]rune, x-runStart)
			for i := runStart; i < x; i++ {
				chunk[i-runStart] = row[i].ch
			}
			if s, ok := styles[row[runStart].kind]; ok {
				sb.WriteString(s.Render(string(chunk)))
			} else {
				sb.WriteString(string(chunk))
			}
			runStart = x
		}
		lines[y] = sb.String()
	}
	return strings.Join(lines, "\n")
}

// String renders without styling.
func (c *Canvas) String() string {
	return c.Render(nil)
}

// RenderPlan draws the field, the roadmap and the path of a plan result in
// a bordered box.
func RenderPlan(field ObstacleField, bounds Bounds, result *PlanResult, width, height int) string {
	canvas := NewCanvas(width, height, bounds)
	canvas.DrawField(field)
	if result != nil && result.Graph != nil {
		canvas.DrawGraph(result.Graph)
		if result.Found {
			canvas.DrawPath(result.Path.Points)
		} else if len(result.Graph.Nodes) > result.GoalNode {
			canvas.DrawMarker(result.Graph.Nodes[result.StartNode], 'S')
			canvas.DrawMarker(result.Graph.Nodes[result.GoalNode], 'G')
		}
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(color.Gray{Y: 0x80})
	return box.Render(canvas.Render(defaultStyles()))
}

// Bresenham returns the integer points on the line from (x0,y0) to (x1,y1)
// using Bresenham's line algorithm. The result always includes both endpoints.
func Bresenham(x0, y0, x1, y1 int) []image.Point {
	dx := abs(x1 - x0)
	dy := abs(y1 - y0)
	sx := 1
	if x0 > x1 {
		sx = -1
	}
	sy := 1
	if y0 > y1 {
		sy = -1
	}
	err := dx - dy
	x, y := x0, y0

	pts := make([]image.Point, 0, dx+dy+1)
	for range dx + dy + 2 {
		pts = append(pts, image.Pt(x, y))
		if x == x1 && y == y1 {
			break
		}
		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x += sx
		}
		if e2 < dx {
			err += dx
			y += sy
		}
	}
	return pts
}
