package main

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the process configuration. Environment variables (optionally
// from a .env file) provide defaults; subcommand flags override them.
type Config struct {
	Port              string
	NumSamples        int
	K                 int
	MaxAttempts       int
	Margin            float64
	Threshold         int
	SimplifyEpsilon   float64
	Timeout           time.Duration
	ValidateEndpoints bool
	ObstaclesPath     string
	Bounds            Bounds
}

var defaultBounds = Bounds{MinX: 0, MinY: 0, MaxX: 100, MaxY: 100}

// LoadConfig reads .env when present, then the environment.
func LoadConfig() Config {
	if err := godotenv.Load(); err != nil {
		log.Println("ℹ️  No .env file found (using environment variables)")
	}
	return configFromEnv()
}

func configFromEnv() Config {
	cfg := Config{
		Port:              getEnv("PRM_PORT", "8080"),
		NumSamples:        getEnvInt("PRM_SAMPLES", 100),
		K:                 getEnvInt("PRM_K", 10),
		MaxAttempts:       getEnvInt("PRM_MAX_ATTEMPTS", 0),
		Margin:            getEnvFloat("PRM_MARGIN", 0),
		Threshold:         getEnvInt("PRM_THRESHOLD", 0),
		SimplifyEpsilon:   getEnvFloat("PRM_SIMPLIFY", 0),
		Timeout:           getEnvDuration("PRM_TIMEOUT", 0),
		ValidateEndpoints: getEnvBool("PRM_VALIDATE_ENDPOINTS", false),
		ObstaclesPath:     getEnv("PRM_OBSTACLES", ""),
		Bounds:            defaultBounds,
	}
	if raw := getEnv("PRM_BOUNDS", ""); raw != "" {
		b, err := ParseBounds(raw)
		if err != nil {
			log.Printf("⚠️  Ignoring PRM_BOUNDS: %v", err)
		} else {
			cfg.Bounds = b
		}
	}
	return cfg
}

// ObstacleSource returns the loader settings implied by the config.
func (c Config) ObstacleSource() ObstacleSource {
	threshold := min(max(c.Threshold, 0), 255)
	return ObstacleSource{
		Path:            c.ObstaclesPath,
		Margin:          c.Margin,
		Threshold:       uint8(threshold),
		SimplifyEpsilon: c.SimplifyEpsilon,
	}
}

// PlannerConfig returns the planner policy implied by the config.
func (c Config) PlannerConfig() PlannerConfig {
	return PlannerConfig{
		ValidateEndpoints: c.ValidateEndpoints,
		Timeout:           c.Timeout,
	}
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("⚠️  Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("⚠️  Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return f
}

func getEnvBool(key string, fallback bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("⚠️  Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return b
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("⚠️  Ignoring %s=%q: %v", key, v, err)
		return fallback
	}
	return d
}
