package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"golang.org/x/sync/errgroup"
)

// Agent moves one roadmap hop per tick toward its goal. When Follow names
// another agent, that agent's current position is the goal.
type Agent struct {
	Name     string `json:"name"`
	Position Point  `json:"position"`
	Goal     Point  `json:"goal"`
	Follow   string `json:"follow,omitempty"`
	Arrived  bool   `json:"arrived"`
}

// TickReport describes one agent's move in one tick.
type TickReport struct {
	Tick  int
	Agent string
	From  Point
	To    Point
	Goal  Point
	Found bool
	Hops  int
	Cost  float64
}

// Simulation re-plans every agent from scratch on each tick. Agents plan
// independently against a snapshot of all positions taken at tick start.
type Simulation struct {
	Planner    *Planner
	Bounds     Bounds
	NumSamples int
	K          int
	// Seed, when non-zero, derives a distinct reproducible seed per agent and tick.
	Seed   int64
	Agents []*Agent
	Logger *log.Logger

	tick int
}

func (s *Simulation) logger() *log.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return log.Default()
}

// Tick returns the number of completed ticks.
func (s *Simulation) Tick() int { return s.tick }

func (s *Simulation) goalOf(a *Agent, positions map[string]Point) (Point, error) {
	if a.Follow == "" {
		return a.Goal, nil
	}
	p, ok := positions[a.Follow]
	if !ok {
		return Point{}, fmt.Errorf("agent %q follows unknown agent %q", a.Name, a.Follow)
	}
	return p, nil
}

// Step plans for all agents concurrently, then advances each by exactly one
// hop of its fresh path.
func (s *Simulation) Step(ctx context.Context) ([]TickReport, error) {
	positions := make(map[string]Point, len(s.Agents))
	for _, a := range s.Agents {
		positions[a.Name] = a.Position
	}

	goals := make([]Point, len(s.Agents))
	for i, a := range s.Agents {
		goal, err := s.goalOf(a, positions)
		if err != nil {
			return nil, err
		}
		goals[i] = goal
	}

	results := make([]*PlanResult, len(s.Agents))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range s.Agents {
		req := PlanRequest{
			Start:      a.Position,
			Goal:       goals[i],
			Bounds:     s.Bounds,
			NumSamples: s.NumSamples,
			K:          s.K,
		}
		if s.Seed != 0 {
			req.Seed = s.Seed + int64(s.tick*len(s.Agents)+i) + 1
		}
		g.Go(func() error {
			res, err := s.Planner.Plan(gctx, req)
			if err != nil {
				return fmt.Errorf("agent %q: %w", a.Name, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.tick++
	reports := make([]TickReport, len(s.Agents))
	for i, a := range s.Agents {
		res := results[i]
		next := NextStep(res, a.Position)
		hops := 0
		if res.Found {
			hops = len(res.Path.Nodes) - 1
		}
		reports[i] = TickReport{
			Tick:  s.tick,
			Agent: a.Name,
			From:  a.Position,
			To:    next,
			Goal:  goals[i],
			Found: res.Found,
			Hops:  hops,
			Cost:  res.Path.Cost,
		}
		a.Position = next
		a.Arrived = next == goals[i]
		if !res.Found {
			s.logger().Printf("⚠️  tick %d: no path for %s from %v", s.tick, a.Name, reports[i].From)
		}
	}
	return reports, nil
}

// AllArrived reports whether every agent stands on its goal.
func (s *Simulation) AllArrived() bool {
	for _, a := range s.Agents {
		if !a.Arrived {
			return false
		}
	}
	return len(s.Agents) > 0
}

// Run calls Step once per interval until every agent arrives, maxTicks ticks
// have run (0 means no limit) or ctx ends. onTick, if set, sees each tick.
func (s *Simulation) Run(ctx context.Context, interval time.Duration, maxTicks int, onTick func([]TickReport)) error {
	var ticks <-chan time.Time
	if interval > 0 {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		ticks = ticker.C
	}

	for maxTicks <= 0 || s.tick < maxTicks {
		if ticks != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-ticks:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		reports, err := s.Step(ctx)
		if err != nil {
			return err
		}
		if onTick != nil {
			onTick(reports)
		}
		if s.AllArrived() {
			s.logger().Printf("✅ All %d agents arrived after %d ticks", len(s.Agents), s.tick)
			return nil
		}
	}
	return nil
}
