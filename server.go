package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"
)

type RouteRequest struct {
	Start      Point   `json:"start"`
	End        Point   `json:"end"`
	Bounds     *Bounds `json:"bounds,omitempty"`
	NumSamples *int    `json:"numSamples,omitempty"`
	K          *int    `json:"k,omitempty"`
	Seed       int64   `json:"seed,omitempty"`
	// Obstacles, when present, replace the server's obstacle field for this request.
	Obstacles []Rect `json:"obstacles,omitempty"`
}

type RouteResponse struct {
	Path     []Point `json:"path"`
	Nodes    []int   `json:"nodes,omitempty"`
	Success  bool    `json:"success"`
	Message  string  `json:"message,omitempty"`
	Distance float64 `json:"distance,omitempty"`
	NumNodes int     `json:"numNodes"`
	NumEdges int     `json:"numEdges"`
}

type RoadmapResponse struct {
	RouteResponse
	Lines [][]Point `json:"lines"`
}

// Server answers planning requests over HTTP. Each request builds and
// discards its own roadmap; the server only holds the obstacle field.
type Server struct {
	cfg    Config
	field  ObstacleField
	bounds Bounds
}

func NewServer(cfg Config, field ObstacleField, bounds Bounds) *Server {
	return &Server{cfg: cfg, field: field, bounds: bounds}
}

// Handler wires the endpoints with CORS and access logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/route", s.routeHandler)
	mux.HandleFunc("/roadmap", s.roadmapHandler)
	mux.HandleFunc("/health", s.healthHandler)
	return loggingMiddleware(corsMiddleware(mux))
}

func (s *Server) plan(ctx context.Context, req RouteRequest) (res *PlanResult, err error) {
	defer timeOp(ctx, "plan")(&err)

	bounds := s.bounds
	if req.Bounds != nil {
		bounds = *req.Bounds
	}
	field := s.field
	if len(req.Obstacles) > 0 {
		field = NewRectField(bounds, req.Obstacles, s.cfg.Margin)
	}

	planReq := PlanRequest{
		Start:       req.Start,
		Goal:        req.End,
		Bounds:      bounds,
		NumSamples:  s.cfg.NumSamples,
		K:           s.cfg.K,
		MaxAttempts: s.cfg.MaxAttempts,
		Seed:        req.Seed,
	}
	if req.NumSamples != nil {
		planReq.NumSamples = *req.NumSamples
	}
	if req.K != nil {
		planReq.K = *req.K
	}

	return NewPlanner(field, s.cfg.PlannerConfig()).Plan(ctx, planReq)
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (RouteRequest, bool) {
	var req RouteRequest
	if r.Method != http.MethodPost {
		log.Printf("❌ Method not allowed: %s\n", r.Method)
		writeError(w, r, http.StatusMethodNotAllowed, "method not allowed")
		return req, false
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("❌ Invalid request body: %v\n", err)
		writeError(w, r, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	return req, true
}

// planError maps planner errors to HTTP responses.
func planError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrStartBlocked), errors.Is(err, ErrGoalBlocked):
		writeError(w, r, http.StatusBadRequest, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, r, http.StatusGatewayTimeout, "planning timed out")
	default:
		writeError(w, r, http.StatusInternalServerError, err.Error())
	}
}

func routeResponse(res *PlanResult) RouteResponse {
	resp := RouteResponse{
		Path:     []Point{},
		Success:  res.Found,
		NumNodes: len(res.Graph.Nodes),
		NumEdges: res.Graph.EdgeCount(),
	}
	if res.Found {
		resp.Path = res.Path.Points
		resp.Nodes = res.Path.Nodes
		resp.Distance = res.Path.Cost
	} else {
		resp.Message = "No path found on PRM graph"
	}
	return resp
}

// POST /route - plan a path between start and end
func (s *Server) routeHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	log.Printf("📍 Route request: %v -> %v\n", req.Start, req.End)
	res, err := s.plan(r.Context(), req)
	if err != nil {
		planError(w, r, err)
		return
	}

	resp := routeResponse(res)
	if res.Found {
		log.Printf("✅ Path found with %d waypoints, distance %.2f\n", len(resp.Path), resp.Distance)
	} else {
		log.Println("❌ No path found on PRM graph")
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// POST /roadmap - plan and return the roadmap edges for visualization
func (s *Server) roadmapHandler(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decode(w, r)
	if !ok {
		return
	}

	res, err := s.plan(r.Context(), req)
	if err != nil {
		planError(w, r, err)
		return
	}

	lines := res.Graph.LineStrings()
	log.Printf("   Returning %d line segments\n", len(lines))
	writeJSON(w, r, http.StatusOK, RoadmapResponse{
		RouteResponse: routeResponse(res),
		Lines:         lines,
	})
}

// GET /health - Health check endpoint
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]interface{}{
		"status":     "ready",
		"field":      fmt.Sprintf("%T", s.field),
		"bounds":     s.bounds,
		"numSamples": s.cfg.NumSamples,
		"k":          s.cfg.K,
	})
}

// ListenAndServe runs the server until it fails.
func (s *Server) ListenAndServe() error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
