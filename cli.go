package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"time"
)

// commonFlags binds the flags shared by every subcommand onto cfg.
func commonFlags(fs *flag.FlagSet, cfg *Config) *string {
	fs.IntVar(&cfg.NumSamples, "samples", cfg.NumSamples, "number of random samples")
	fs.IntVar(&cfg.K, "k", cfg.K, "neighbors per node")
	fs.IntVar(&cfg.MaxAttempts, "max-attempts", cfg.MaxAttempts, "sampling attempts (0 = default)")
	fs.Float64Var(&cfg.Margin, "margin", cfg.Margin, "obstacle inflation margin")
	fs.StringVar(&cfg.ObstaclesPath, "obstacles", cfg.ObstaclesPath, "obstacle file (.json, .geojson, .png, .pgm)")
	fs.BoolVar(&cfg.ValidateEndpoints, "validate", cfg.ValidateEndpoints, "reject blocked start/goal")
	fs.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "per-plan timeout")
	return fs.String("bounds", "", "workspace bounds minX,minY,maxX,maxY")
}

func applyBounds(cfg *Config, raw string) error {
	if raw == "" {
		return nil
	}
	b, err := ParseBounds(raw)
	if err != nil {
		return err
	}
	cfg.Bounds = b
	return nil
}

func loadField(cfg Config) (ObstacleField, Bounds, error) {
	field, bounds, err := LoadObstacleField(cfg.ObstacleSource(), cfg.Bounds)
	if err != nil {
		return nil, Bounds{}, err
	}
	log.Printf("🗺️  Obstacle field %T over (%.2f, %.2f) to (%.2f, %.2f)\n",
		field, bounds.MinX, bounds.MinY, bounds.MaxX, bounds.MaxY)
	return field, bounds, nil
}

func runServe(cfg Config, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	fs.StringVar(&cfg.Port, "port", cfg.Port, "listen port")
	rawBounds := commonFlags(fs, &cfg)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := applyBounds(&cfg, *rawBounds); err != nil {
		return err
	}

	field, bounds, err := loadField(cfg)
	if err != nil {
		return err
	}

	log.Println("========================================")
	log.Println("🚀 PRM Motion Planner Server")
	log.Println("========================================")
	log.Printf("Server starting on :%s\n", cfg.Port)
	log.Println("")
	log.Println("Endpoints:")
	log.Println("  POST /route     - Compute route with start and end points")
	log.Println("  POST /roadmap   - Compute route and return roadmap edges")
	log.Println("  GET  /health    - Check server status")
	log.Println("")
	log.Println("CORS enabled for all origins")
	log.Println("========================================")

	return NewServer(cfg, field, bounds).ListenAndServe()
}

func runPlan(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("plan", flag.ContinueOnError)
	rawBounds := commonFlags(fs, &cfg)
	start := fs.String("start", "", "start point x,y (default: lower-left corner)")
	goal := fs.String("goal", "", "goal point x,y (default: upper-right corner)")
	seed := fs.Int64("seed", 0, "random seed (0 = time based)")
	render := fs.Bool("render", false, "draw the roadmap and path")
	width := fs.Int("width", 60, "render width in cells")
	height := fs.Int("height", 30, "render height in cells")
	dump := fs.String("dump", "", "write the roadmap snapshot to this JSON file")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := applyBounds(&cfg, *rawBounds); err != nil {
		return err
	}

	field, bounds, err := loadField(cfg)
	if err != nil {
		return err
	}

	req := PlanRequest{
		Start:       Point{X: bounds.MinX, Y: bounds.MinY},
		Goal:        Point{X: bounds.MaxX, Y: bounds.MaxY},
		Bounds:      bounds,
		NumSamples:  cfg.NumSamples,
		K:           cfg.K,
		MaxAttempts: cfg.MaxAttempts,
		Seed:        *seed,
	}
	if *start != "" {
		if req.Start, err = ParsePoint(*start); err != nil {
			return err
		}
	}
	if *goal != "" {
		if req.Goal, err = ParsePoint(*goal); err != nil {
			return err
		}
	}

	res, err := NewPlanner(field, cfg.PlannerConfig()).Plan(ctx, req)
	if err != nil {
		return err
	}

	if res.Found {
		fmt.Fprintln(out, "Path found:")
		for _, p := range res.Path.Points {
			fmt.Fprintf(out, "Node: (%g, %g)\n", p.X, p.Y)
		}
		fmt.Fprintf(out, "Cost: %.4f\n", res.Path.Cost)
	} else {
		fmt.Fprintln(out, "No path found")
	}

	if *render {
		fmt.Fprintln(out, RenderPlan(field, bounds, res, *width, *height))
	}

	if *dump != "" {
		snapshot := &RoadmapSnapshot{
			Bounds:     bounds,
			NumSamples: req.NumSamples,
			K:          req.K,
			Start:      res.StartNode,
			Goal:       res.GoalNode,
			Graph:      res.Graph,
			Path:       res.Path.Nodes,
			Cost:       res.Path.Cost,
		}
		if err := SaveRoadmap(snapshot, *dump); err != nil {
			return err
		}
		log.Printf("💾 Roadmap saved to %s\n", *dump)
	}
	return nil
}

// floorPlan is the default simulation world: a 13x13 map with three walls.
var floorPlan = []Rect{
	{MinX: 2, MinY: 2, MaxX: 3, MaxY: 10},
	{MinX: 4, MinY: 4, MaxX: 10, MaxY: 5},
	{MinX: 4, MinY: 8, MaxX: 10, MaxY: 9},
}

// defaultAgents returns a target walking to the far corner and an ego agent
// chasing it.
func defaultAgents() []*Agent {
	return []*Agent{
		{Name: "ego", Position: Point{X: 1, Y: 1}, Follow: "target"},
		{Name: "target", Position: Point{X: 6, Y: 6}, Goal: Point{X: 12, Y: 12}},
	}
}

func runSimulate(ctx context.Context, cfg Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("simulate", flag.ContinueOnError)
	rawBounds := commonFlags(fs, &cfg)
	ticks := fs.Int("ticks", 50, "maximum number of ticks (0 = until arrival)")
	interval := fs.Duration("interval", 500*time.Millisecond, "time between ticks")
	seed := fs.Int64("seed", 0, "base random seed (0 = time based)")
	render := fs.Bool("render", false, "draw the world after every tick")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := applyBounds(&cfg, *rawBounds); err != nil {
		return err
	}

	var field ObstacleField
	bounds := cfg.Bounds
	if cfg.ObstaclesPath == "" {
		bounds = Bounds{MinX: 0, MinY: 0, MaxX: 13, MaxY: 13}
		field = NewRectField(bounds, floorPlan, cfg.Margin)
	} else {
		var err error
		if field, bounds, err = loadField(cfg); err != nil {
			return err
		}
	}

	sim := &Simulation{
		Planner:    NewPlanner(field, cfg.PlannerConfig()),
		Bounds:     bounds,
		NumSamples: cfg.NumSamples,
		K:          cfg.K,
		Seed:       *seed,
		Agents:     defaultAgents(),
	}

	log.Printf("▶️  Simulating %d agents (%d samples, k=%d)\n", len(sim.Agents), cfg.NumSamples, cfg.K)
	return sim.Run(ctx, *interval, *ticks, func(reports []TickReport) {
		for _, r := range reports {
			status := "moved"
			if !r.Found {
				status = "stuck"
			}
			fmt.Fprintf(out, "tick %3d  %-8s %s %v -> %v (goal %v, %d hops left)\n",
				r.Tick, r.Agent, status, r.From, r.To, r.Goal, max(r.Hops-1, 0))
		}
		if *render {
			canvas := NewCanvas(40, 20, bounds)
			canvas.DrawField(field)
			for _, a := range sim.Agents {
				canvas.DrawMarker(a.Position, rune(a.Name[0]))
			}
			fmt.Fprintln(out, canvas.Render(defaultStyles()))
		}
	})
}

// run dispatches to a subcommand. The default is serve.
func run(args []string) error {
	cfg := LoadConfig()

	cmd := "serve"
	if len(args) > 0 && args[0] != "" && args[0][0] != '-' {
		cmd, args = args[0], args[1:]
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	switch cmd {
	case "serve":
		return runServe(cfg, args)
	case "plan":
		return runPlan(ctx, cfg, args, os.Stdout)
	case "simulate":
		return runSimulate(ctx, cfg, args, os.Stdout)
	default:
		return fmt.Errorf("unknown command %q (want serve, plan or simulate)", cmd)
	}
}
