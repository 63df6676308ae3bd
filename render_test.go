package main

import (
	"image"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBresenham(t *testing.T) {
	pts := Bresenham(0, 0, 3, 0)
	assert.Equal(t, []image.Point{image.Pt(0, 0), image.Pt(1, 0), image.Pt(2, 0), image.Pt(3, 0)}, pts)

	pts = Bresenham(2, 2, 0, 0)
	assert.Equal(t, []image.Point{image.Pt(2, 2), image.Pt(1, 1), image.Pt(0, 0)}, pts)

	pts = Bresenham(0, 0, 2, 5)
	require.NotEmpty(t, pts)
	assert.Equal(t, image.Pt(0, 0), pts[0])
	assert.Equal(t, image.Pt(2, 5), pts[len(pts)-1])
	assert.Len(t, pts, 6)

	assert.Equal(t, []image.Point{image.Pt(4, 4)}, Bresenham(4, 4, 4, 4))
}

func TestCanvasDrawField(t *testing.T) {
	field := NewRectField(Bounds{MaxX: 10, MaxY: 10}, []Rect{{MinX: 0, MinY: 0, MaxX: 5, MaxY: 10}}, 0)
	c := NewCanvas(10, 5, Bounds{MaxX: 10, MaxY: 10})
	c.DrawField(field)

	assert.Equal(t, '█', c.At(0, 0))
	assert.Equal(t, '█', c.At(4, 4))
	assert.Equal(t, ' ', c.At(5, 0))
	assert.Equal(t, ' ', c.At(9, 4))
	assert.Equal(t, rune(0), c.At(10, 0), "outside the canvas")

	lines := strings.Split(c.String(), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "█████     ", lines[0])
}

func TestCanvasDrawPath(t *testing.T) {
	c := NewCanvas(11, 3, Bounds{MaxX: 11, MaxY: 3})
	c.DrawPath([]Point{{X: 0.5, Y: 1.5}, {X: 10.5, Y: 1.5}})

	assert.Equal(t, "S*********G", strings.Split(c.String(), "\n")[1])
}

func TestCanvasDrawGraph(t *testing.T) {
	g := NewGraph([]Point{{X: 0.5, Y: 0.5}, {X: 4.5, Y: 0.5}})
	g.AddEdge(0, 1)
	c := NewCanvas(5, 1, Bounds{MaxX: 5, MaxY: 1})
	c.DrawGraph(g)

	assert.Equal(t, "o···o", c.String())
}

func TestRenderPlan(t *testing.T) {
	field := NewRectField(floorBounds, floorPlan, 0)
	res, err := NewPlanner(field, quietConfig()).Plan(t.Context(), floorRequest())
	require.NoError(t, err)

	out := RenderPlan(field, floorBounds, res, 26, 13)
	assert.Contains(t, out, "S")
	assert.Contains(t, out, "G")
	assert.Contains(t, out, "█")
	assert.Contains(t, out, "╭", "rounded border")
}
