package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"time"
)

// RoadmapStats summarizes one roadmap construction.
type RoadmapStats struct {
	Nodes    int           `json:"nodes"`
	Edges    int           `json:"edges"`
	Rejected int           `json:"rejected"` // candidate segments blocked by obstacles
	Elapsed  time.Duration `json:"elapsed"`
}

type candidate struct {
	id   int
	dist float64
}

// BuildRoadmap connects every node to its k nearest neighbors whose straight
// segment is collision-free. Blocked candidates are skipped without counting
// toward k. Edges are stored on both endpoints, so a node can end up with
// more than k edges when others pick it. Equal distances keep index order,
// which makes the edge set a function of nodes, k and field only.
func BuildRoadmap(ctx context.Context, nodes []Point, k int, field ObstacleField) (*Graph, RoadmapStats, error) {
	startTime := time.Now()
	graph := NewGraph(nodes)
	stats := RoadmapStats{Nodes: len(nodes)}
	if k <= 0 || len(nodes) < 2 {
		stats.Elapsed = time.Since(startTime)
		return graph, stats, nil
	}

	// segment checks are symmetric; remember them per unordered pair
	blocked := make(map[[2]int]bool)
	isBlocked := func(u, v int) bool {
		key := [2]int{min(u, v), max(u, v)}
		if b, ok := blocked[key]; ok {
			return b
		}
		b := field.QuerySegment(nodes[u], nodes[v])
		blocked[key] = b
		return b
	}

	candidates := make([]candidate, 0, len(nodes)-1)
	for i := range nodes {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		candidates = candidates[:0]
		for j := range nodes {
			if j != i {
				candidates = append(candidates, candidate{id: j, dist: nodes[i].Distance(nodes[j])})
			}
		}
		sort.SliceStable(candidates, func(a, b int) bool {
			return candidates[a].dist < candidates[b].dist
		})

		connected := 0
		for _, c := range candidates {
			if connected == k {
				break
			}
			if isBlocked(i, c.id) {
				stats.Rejected++
				continue
			}
			graph.AddWeightedEdge(i, c.id, c.dist)
			connected++
		}
	}

	stats.Edges = graph.EdgeCount()
	stats.Elapsed = time.Since(startTime)
	return graph, stats, nil
}

// RoadmapSnapshot is a built roadmap plus its planning context, written for
// offline rendering.
type RoadmapSnapshot struct {
	Bounds     Bounds  `json:"bounds"`
	NumSamples int     `json:"numSamples"`
	K          int     `json:"k"`
	Start      int     `json:"start"`
	Goal       int     `json:"goal"`
	Graph      *Graph  `json:"graph"`
	Path       []int   `json:"path,omitempty"`
	Cost       float64 `json:"cost,omitempty"`
}

// SaveRoadmap serializes and saves the snapshot to a JSON file
func SaveRoadmap(snapshot *RoadmapSnapshot, filename string) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal roadmap: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write file: %w", err)
	}
	return nil
}

// LoadRoadmap deserializes a snapshot and checks the graph invariants
func LoadRoadmap(filename string) (*RoadmapSnapshot, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var snapshot RoadmapSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to unmarshal roadmap: %w", err)
	}
	if snapshot.Graph == nil {
		return nil, fmt.Errorf("failed to load roadmap: no graph in %s", filename)
	}
	for len(snapshot.Graph.Edges) < len(snapshot.Graph.Nodes) {
		snapshot.Graph.Edges = append(snapshot.Graph.Edges, nil)
	}
	if err := snapshot.Graph.Validate(); err != nil {
		return nil, fmt.Errorf("failed to load roadmap: %w", err)
	}
	return &snapshot, nil
}
