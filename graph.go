package main

import (
	"errors"
	"fmt"
)

// ErrAsymmetricEdge marks a roadmap whose adjacency lists disagree.
var ErrAsymmetricEdge = errors.New("graph: edge without matching reverse edge")

// Graph is an undirected roadmap. Nodes are identified by their index into
// Nodes, never by coordinate, so coinciding samples stay distinct.
type Graph struct {
	Nodes []Point  `json:"nodes"`
	Edges [][]Edge `json:"edges"`
}

// Edge represents a connection between two nodes with a cost
type Edge struct {
	To   int     `json:"to"`   // Index of the destination node
	Cost float64 `json:"cost"` // Distance cost
}

func NewGraph(nodes []Point) *Graph {
	return &Graph{
		Nodes: nodes,
		Edges: make([][]Edge, len(nodes)),
	}
}

// AddNode appends p and returns its index.
func (g *Graph) AddNode(p Point) int {
	g.Nodes = append(g.Nodes, p)
	g.Edges = append(g.Edges, nil)
	return len(g.Nodes) - 1
}

func (g *Graph) valid(i int) bool { return i >= 0 && i < len(g.Nodes) }

// AddEdge links u and v with their Euclidean distance as cost.
func (g *Graph) AddEdge(u, v int) bool {
	if !g.valid(u) || !g.valid(v) {
		return false
	}
	return g.AddWeightedEdge(u, v, g.Nodes[u].Distance(g.Nodes[v]))
}

// AddWeightedEdge inserts the edge in both adjacency lists. Self-edges,
// negative costs and already linked pairs are refused.
func (g *Graph) AddWeightedEdge(u, v int, cost float64) bool {
	if u == v || !g.valid(u) || !g.valid(v) || cost < 0 {
		return false
	}
	if _, ok := g.EdgeCost(u, v); ok {
		return false
	}
	g.Edges[u] = append(g.Edges[u], Edge{To: v, Cost: cost})
	g.Edges[v] = append(g.Edges[v], Edge{To: u, Cost: cost})
	return true
}

// EdgeCost returns the cost of edge u-v if it exists.
func (g *Graph) EdgeCost(u, v int) (float64, bool) {
	if !g.valid(u) {
		return 0, false
	}
	for _, e := range g.Edges[u] {
		if e.To == v {
			return e.Cost, true
		}
	}
	return 0, false
}

// EdgeCount returns the number of undirected edges.
func (g *Graph) EdgeCount() int {
	n := 0
	for _, adj := range g.Edges {
		n += len(adj)
	}
	return n / 2
}

// Validate checks the undirected invariant: no self-edges, every edge has a
// reverse edge of identical cost.
func (g *Graph) Validate() error {
	if len(g.Edges) != len(g.Nodes) {
		return fmt.Errorf("graph: %d adjacency lists for %d nodes", len(g.Edges), len(g.Nodes))
	}
	for u, adj := range g.Edges {
		for _, e := range adj {
			if e.To == u || !g.valid(e.To) {
				return fmt.Errorf("graph: bad edge %d-%d", u, e.To)
			}
			back, ok := g.EdgeCost(e.To, u)
			if !ok || back != e.Cost {
				return fmt.Errorf("%w: %d-%d", ErrAsymmetricEdge, u, e.To)
			}
		}
	}
	return nil
}

// LineStrings returns each undirected edge once as a segment, for visualization
func (g *Graph) LineStrings() [][]Point {
	lines := make([][]Point, 0, g.EdgeCount())
	for u, adj := range g.Edges {
		for _, e := range adj {
			if u < e.To {
				lines = append(lines, []Point{g.Nodes[u], g.Nodes[e.To]})
			}
		}
	}
	return lines
}
