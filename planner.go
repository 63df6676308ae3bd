package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"
)

var (
	ErrInvalidRequest = errors.New("planner: invalid request")
	ErrStartBlocked   = errors.New("planner: start is blocked or out of bounds")
	ErrGoalBlocked    = errors.New("planner: goal is blocked or out of bounds")
)

// Upper limits on a single request. The roadmap build is quadratic in the
// node count, so anything beyond these is rejected rather than attempted.
const (
	MaxNumSamples = 100_000
	MaxK          = 1_000
)

// PlannerConfig holds per-planner policy shared by all requests.
type PlannerConfig struct {
	// ValidateEndpoints rejects requests whose start or goal is blocked.
	// Off by default: endpoints are trusted and inserted as-is.
	ValidateEndpoints bool
	// Timeout bounds a single Plan call; zero means no deadline.
	Timeout time.Duration
	Logger  *log.Logger
}

// Planner runs independent PRM + A* planning requests over a read-only
// obstacle field. It keeps no state between calls and is safe for
// concurrent use.
type Planner struct {
	field  ObstacleField
	cfg    PlannerConfig
	logger *log.Logger
}

func NewPlanner(field ObstacleField, cfg PlannerConfig) *Planner {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Planner{field: field, cfg: cfg, logger: logger}
}

// Field returns the obstacle field the planner queries.
func (p *Planner) Field() ObstacleField { return p.field }

type PlanRequest struct {
	Start       Point  `json:"start"`
	Goal        Point  `json:"goal"`
	Bounds      Bounds `json:"bounds"`
	NumSamples  int    `json:"numSamples"`
	K           int    `json:"k"`
	MaxAttempts int    `json:"maxAttempts,omitempty"`
	// Seed makes sampling reproducible; zero seeds from the clock.
	Seed int64 `json:"seed,omitempty"`
}

// Path is an ordered node sequence from start to goal inclusive.
type Path struct {
	Nodes  []int   `json:"nodes"`
	Points []Point `json:"points"`
	Cost   float64 `json:"cost"`
}

type PlanStats struct {
	Requested int           `json:"requested"`
	Sampled   int           `json:"sampled"`
	Attempts  int           `json:"attempts"`
	Edges     int           `json:"edges"`
	Rejected  int           `json:"rejected"`
	Expanded  int           `json:"expanded"`
	Elapsed   time.Duration `json:"elapsed"`
}

type PlanResult struct {
	Found     bool
	Path      Path
	Graph     *Graph
	StartNode int
	GoalNode  int
	Stats     PlanStats
}

func (r PlanRequest) validate() error {
	if r.NumSamples < 0 {
		return fmt.Errorf("%w: numSamples %d < 0", ErrInvalidRequest, r.NumSamples)
	}
	if r.NumSamples > MaxNumSamples {
		return fmt.Errorf("%w: numSamples %d > %d", ErrInvalidRequest, r.NumSamples, MaxNumSamples)
	}
	if r.K < 0 {
		return fmt.Errorf("%w: k %d < 0", ErrInvalidRequest, r.K)
	}
	if r.K > MaxK {
		return fmt.Errorf("%w: k %d > %d", ErrInvalidRequest, r.K, MaxK)
	}
	if !r.Bounds.Valid() {
		return fmt.Errorf("%w: empty or inverted bounds %+v", ErrInvalidRequest, r.Bounds)
	}
	if !r.Start.finite() || !r.Goal.finite() {
		return fmt.Errorf("%w: non-finite endpoint", ErrInvalidRequest)
	}
	return nil
}

// Plan samples a fresh roadmap, inserts start and goal as the last two
// nodes, connects it and searches it. A missing path is reported with
// Found == false and a nil error.
func (p *Planner) Plan(ctx context.Context, req PlanRequest) (*PlanResult, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	if p.cfg.ValidateEndpoints {
		if p.field.QueryPoint(req.Start) {
			return nil, fmt.Errorf("%w: %v", ErrStartBlocked, req.Start)
		}
		if p.field.QueryPoint(req.Goal) {
			return nil, fmt.Errorf("%w: %v", ErrGoalBlocked, req.Goal)
		}
	}
	if p.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.cfg.Timeout)
		defer cancel()
	}

	startTime := time.Now()
	stats := PlanStats{Requested: req.NumSamples}

	if req.Start == req.Goal {
		graph := NewGraph([]Point{req.Start})
		stats.Elapsed = time.Since(startTime)
		return &PlanResult{
			Found: true,
			Path:  Path{Nodes: []int{0}, Points: []Point{req.Start}},
			Graph: graph,
			Stats: stats,
		}, nil
	}

	seed := req.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	samples, attempts, err := SampleFreePoints(ctx, rng, req.NumSamples, req.Bounds, p.field, req.MaxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to sample roadmap: %w", err)
	}
	stats.Sampled = len(samples)
	stats.Attempts = attempts
	if len(samples) < req.NumSamples {
		p.logger.Printf("⚠️  Only generated %d valid samples (requested %d)", len(samples), req.NumSamples)
	}

	nodes := make([]Point, 0, len(samples)+2)
	nodes = append(nodes, samples...)
	startNode := len(nodes)
	nodes = append(nodes, req.Start)
	goalNode := len(nodes)
	nodes = append(nodes, req.Goal)

	graph, roadmapStats, err := BuildRoadmap(ctx, nodes, req.K, p.field)
	if err != nil {
		return nil, fmt.Errorf("failed to build roadmap: %w", err)
	}
	stats.Edges = roadmapStats.Edges
	stats.Rejected = roadmapStats.Rejected

	search, err := AStarPathOnGraph(ctx, graph, startNode, goalNode)
	if err != nil {
		return nil, fmt.Errorf("failed to search roadmap: %w", err)
	}
	stats.Expanded = search.Expanded
	stats.Elapsed = time.Since(startTime)

	result := &PlanResult{
		Found:     search.Found,
		Graph:     graph,
		StartNode: startNode,
		GoalNode:  goalNode,
		Stats:     stats,
	}
	if search.Found {
		points := make([]Point, len(search.Path))
		for i, id := range search.Path {
			points[i] = graph.Nodes[id]
		}
		result.Path = Path{Nodes: search.Path, Points: points, Cost: search.Cost}
	}

	p.logger.Printf("   PRM plan: %d nodes, %d edges, %d rejected, found=%t, %s",
		len(nodes), stats.Edges, stats.Rejected, search.Found, stats.Elapsed.Round(time.Microsecond))
	return result, nil
}

// NextStep is the position after one hop along the result's path. Without a
// path, or when already at the goal, the agent stays at from.
func NextStep(result *PlanResult, from Point) Point {
	if result == nil || !result.Found || len(result.Path.Points) < 2 {
		return from
	}
	return result.Path.Points[1]
}
