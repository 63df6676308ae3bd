package main

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampledNodes(t *testing.T, seed int64, n int, field ObstacleField) []Point {
	t.Helper()
	nodes, _, err := SampleFreePoints(context.Background(), rand.New(rand.NewSource(seed)), n, floorBounds, field, 0)
	require.NoError(t, err)
	require.Len(t, nodes, n)
	return nodes
}

func TestBuildRoadmapInvariants(t *testing.T) {
	field := NewRectField(floorBounds, floorPlan, 0)
	nodes := sampledNodes(t, 3, 80, field)

	graph, stats, err := BuildRoadmap(context.Background(), nodes, 6, field)
	require.NoError(t, err)
	require.NoError(t, graph.Validate())

	assert.Equal(t, 80, stats.Nodes)
	assert.Equal(t, graph.EdgeCount(), stats.Edges)
	assert.Positive(t, stats.Rejected, "walls should block some candidates")

	for u, adj := range graph.Edges {
		for _, e := range adj {
			assert.False(t, field.QuerySegment(nodes[u], nodes[e.To]), "edge %d-%d crosses an obstacle", u, e.To)
			assert.InDelta(t, nodes[u].Distance(nodes[e.To]), e.Cost, 1e-12)
		}
	}
}

func TestBuildRoadmapNearestFirst(t *testing.T) {
	nodes := []Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 10, Y: 0}}
	graph, _, err := BuildRoadmap(context.Background(), nodes, 1, FreeSpace{Bounds: Bounds{MinX: -1, MinY: -1, MaxX: 11, MaxY: 1}})
	require.NoError(t, err)

	_, ok := graph.EdgeCost(0, 1)
	assert.True(t, ok)
	_, ok = graph.EdgeCost(3, 2)
	assert.True(t, ok, "node 3 picks its nearest neighbor")
	_, ok = graph.EdgeCost(0, 3)
	assert.False(t, ok)
	assert.Len(t, graph.Edges[2], 2, "node 2 is picked by node 3 on top of its own choice")
}

func TestBuildRoadmapSkipsBlockedCandidates(t *testing.T) {
	// Node 1 is closest to node 0 but sits behind a wall.
	field := NewRectField(Bounds{MaxX: 10, MaxY: 10}, []Rect{{MinX: 1, MinY: 0, MaxX: 1.5, MaxY: 10}}, 0)
	nodes := []Point{{X: 0.5, Y: 5}, {X: 2, Y: 5}, {X: 0.5, Y: 8}}

	graph, stats, err := BuildRoadmap(context.Background(), nodes, 1, field)
	require.NoError(t, err)

	_, ok := graph.EdgeCost(0, 2)
	assert.True(t, ok, "blocked candidate does not use up k")
	_, ok = graph.EdgeCost(0, 1)
	assert.False(t, ok)
	assert.Empty(t, graph.Edges[1], "node 1 has no visible neighbor")
	assert.Equal(t, 3, stats.Rejected)
}

func TestBuildRoadmapDeterministic(t *testing.T) {
	field := NewRectField(floorBounds, floorPlan, 0)
	nodes := sampledNodes(t, 11, 60, field)

	g1, _, err := BuildRoadmap(context.Background(), nodes, 5, field)
	require.NoError(t, err)
	g2, _, err := BuildRoadmap(context.Background(), nodes, 5, field)
	require.NoError(t, err)
	assert.Equal(t, g1.Edges, g2.Edges)
}

// edgeSet keys every undirected edge by its endpoint coordinates, so graphs
// built over differently ordered nodes can be compared.
func edgeSet(g *Graph) map[[2]Point]bool {
	set := make(map[[2]Point]bool, g.EdgeCount())
	for u, adj := range g.Edges {
		for _, e := range adj {
			a, b := g.Nodes[u], g.Nodes[e.To]
			if b.X < a.X || (b.X == a.X && b.Y < a.Y) {
				a, b = b, a
			}
			set[[2]Point{a, b}] = true
		}
	}
	return set
}

func TestBuildRoadmapIgnoresNodeOrder(t *testing.T) {
	field := NewRectField(floorBounds, floorPlan, 0)
	// Uniform random samples: pairwise distances are distinct, so there are
	// no nearest-neighbor ties for the order to break.
	nodes := sampledNodes(t, 17, 70, field)

	permuted := make([]Point, len(nodes))
	for i, j := range rand.New(rand.NewSource(5)).Perm(len(nodes)) {
		permuted[i] = nodes[j]
	}
	require.NotEqual(t, nodes, permuted)

	g1, s1, err := BuildRoadmap(context.Background(), nodes, 5, field)
	require.NoError(t, err)
	g2, s2, err := BuildRoadmap(context.Background(), permuted, 5, field)
	require.NoError(t, err)

	require.NotZero(t, g1.EdgeCount())
	assert.Equal(t, g1.EdgeCount(), g2.EdgeCount())
	assert.Equal(t, s1.Edges, s2.Edges)
	assert.Equal(t, edgeSet(g1), edgeSet(g2))
}

func TestBuildRoadmapNoEdges(t *testing.T) {
	nodes := []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}
	free := FreeSpace{Bounds: floorBounds}

	graph, _, err := BuildRoadmap(context.Background(), nodes, 0, free)
	require.NoError(t, err)
	assert.Zero(t, graph.EdgeCount())

	graph, _, err = BuildRoadmap(context.Background(), nodes[:1], 5, free)
	require.NoError(t, err)
	assert.Zero(t, graph.EdgeCount())
	assert.Len(t, graph.Nodes, 1)
}

func TestBuildRoadmapCoincidentNodes(t *testing.T) {
	nodes := []Point{{X: 1, Y: 1}, {X: 1, Y: 1}, {X: 3, Y: 1}}
	graph, _, err := BuildRoadmap(context.Background(), nodes, 2, FreeSpace{Bounds: floorBounds})
	require.NoError(t, err)
	require.NoError(t, graph.Validate())

	cost, ok := graph.EdgeCost(0, 1)
	assert.True(t, ok, "coinciding samples stay distinct nodes")
	assert.Zero(t, cost)
}

func TestBuildRoadmapCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, _, err := BuildRoadmap(ctx, []Point{{X: 1, Y: 1}, {X: 2, Y: 2}}, 1, FreeSpace{Bounds: floorBounds})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestSaveLoadRoadmap(t *testing.T) {
	field := NewRectField(floorBounds, floorPlan, 0)
	nodes := sampledNodes(t, 5, 30, field)
	graph, _, err := BuildRoadmap(context.Background(), nodes, 4, field)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "roadmap.json")
	snapshot := &RoadmapSnapshot{Bounds: floorBounds, NumSamples: 30, K: 4, Start: 0, Goal: 29, Graph: graph}
	require.NoError(t, SaveRoadmap(snapshot, path))

	loaded, err := LoadRoadmap(path)
	require.NoError(t, err)
	assert.Equal(t, floorBounds, loaded.Bounds)
	assert.Equal(t, 29, loaded.Goal)
	assert.Equal(t, graph.Nodes, loaded.Graph.Nodes)
	assert.Equal(t, graph.EdgeCount(), loaded.Graph.EdgeCount())
}

func TestLoadRoadmapRejectsAsymmetric(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	data := `{"graph": {"nodes": [{"x": 0, "y": 0}, {"x": 1, "y": 0}], "edges": [[{"to": 1, "cost": 1}], []]}}`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))

	_, err := LoadRoadmap(path)
	assert.ErrorIs(t, err, ErrAsymmetricEdge)

	_, err = LoadRoadmap(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
