package main

import (
	"container/heap"
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrNilGraph       = errors.New("astar: graph is nil")
	ErrNodeOutOfRange = errors.New("astar: node index out of range")
)

// Result is the outcome of a search. Found == false is the regular
// "no path" answer for a disconnected roadmap, not an error.
type Result struct {
	Found    bool
	Path     []int   // node indices, start to goal inclusive
	Cost     float64 // sum of edge costs along Path
	Expanded int     // nodes finalized by the search
}

// frontierItem is a frontier entry. A node can be queued more than once;
// entries whose G no longer matches the best known cost are stale.
type frontierItem struct {
	NodeID int
	G      float64 // Cost from start to this node
	F      float64 // Total cost (G + H)
	Index  int     // Index in the heap
}

// PriorityQueue implements heap.Interface for A* algorithm
type PriorityQueue []*frontierItem

func (pq PriorityQueue) Len() int { return len(pq) }

func (pq PriorityQueue) Less(i, j int) bool {
	if pq[i].F != pq[j].F {
		return pq[i].F < pq[j].F
	}
	return pq[i].NodeID < pq[j].NodeID
}

func (pq PriorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].Index = i
	pq[j].Index = j
}

func (pq *PriorityQueue) Push(x interface{}) {
	n := len(*pq)
	item := x.(*frontierItem)
	item.Index = n
	*pq = append(*pq, item)
}

func (pq *PriorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.Index = -1
	*pq = old[0 : n-1]
	return item
}

// AStarPathOnGraph computes the least-cost path from startIdx to endIdx using
// the Euclidean distance to the goal as heuristic. The context is checked
// between frontier pops.
func AStarPathOnGraph(ctx context.Context, graph *Graph, startIdx, endIdx int) (Result, error) {
	if graph == nil {
		return Result{}, ErrNilGraph
	}
	if !graph.valid(startIdx) || !graph.valid(endIdx) {
		return Result{}, fmt.Errorf("%w: start=%d goal=%d nodes=%d", ErrNodeOutOfRange, startIdx, endIdx, len(graph.Nodes))
	}
	if startIdx == endIdx {
		return Result{Found: true, Path: []int{startIdx}}, nil
	}

	n := len(graph.Nodes)
	endPoint := graph.Nodes[endIdx]

	gScore := make([]float64, n)
	for i := range gScore {
		gScore[i] = math.Inf(1)
	}
	gScore[startIdx] = 0

	cameFrom := make([]int, n)
	for i := range cameFrom {
		cameFrom[i] = -1
	}
	closed := make([]bool, n)

	openSet := &PriorityQueue{}
	heap.Init(openSet)
	heap.Push(openSet, &frontierItem{
		NodeID: startIdx,
		G:      0,
		F:      graph.Nodes[startIdx].Distance(endPoint),
	})

	expanded := 0
	for openSet.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return Result{Expanded: expanded}, err
		}

		current := heap.Pop(openSet).(*frontierItem)
		if closed[current.NodeID] || current.G > gScore[current.NodeID] {
			continue
		}
		closed[current.NodeID] = true
		expanded++

		// Check if we reached the goal
		if current.NodeID == endIdx {
			return Result{
				Found:    true,
				Path:     reconstructPath(cameFrom, startIdx, endIdx),
				Cost:     current.G,
				Expanded: expanded,
			}, nil
		}

		// Explore neighbors
		for _, edge := range graph.Edges[current.NodeID] {
			neighborID := edge.To
			if closed[neighborID] {
				continue
			}

			tentativeG := current.G + edge.Cost
			if tentativeG >= gScore[neighborID] {
				continue
			}
			gScore[neighborID] = tentativeG
			cameFrom[neighborID] = current.NodeID
			heap.Push(openSet, &frontierItem{
				NodeID: neighborID,
				G:      tentativeG,
				F:      tentativeG + graph.Nodes[neighborID].Distance(endPoint),
			})
		}
	}

	// No path found
	return Result{Expanded: expanded}, nil
}

// reconstructPath walks the predecessor slice from goal back to start and
// reverses the result in place.
func reconstructPath(cameFrom []int, startIdx, endIdx int) []int {
	path := []int{endIdx}
	for current := endIdx; current != startIdx; {
		current = cameFrom[current]
		if current < 0 {
			break
		}
		path = append(path, current)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

// PathCost sums edge costs along path; ok is false if a hop is not an edge.
func PathCost(graph *Graph, path []int) (cost float64, ok bool) {
	for i := 0; i+1 < len(path); i++ {
		c, exists := graph.EdgeCost(path[i], path[i+1])
		if !exists {
			return 0, false
		}
		cost += c
	}
	return cost, true
}
