package main

import (
	"context"
	"math"
	"math/rand"
)

// minMaxAttempts is the draw budget floor for small sample counts.
const minMaxAttempts = 1000

// DefaultMaxAttempts tries up to 10x the desired samples, saturating at
// math.MaxInt.
func DefaultMaxAttempts(count int) int {
	if count > math.MaxInt/10 {
		return math.MaxInt
	}
	return max(count*10, minMaxAttempts)
}

// SampleFreePoints rejection-samples up to count collision-free points
// uniformly within bounds. It stops after maxAttempts draws (a non-positive
// value selects DefaultMaxAttempts), so fewer than count points is a normal
// outcome. It returns the accepted points and the number of draws made.
func SampleFreePoints(ctx context.Context, rng *rand.Rand, count int, bounds Bounds, field ObstacleField, maxAttempts int) ([]Point, int, error) {
	if count <= 0 {
		return nil, 0, nil
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts(count)
	}

	// Never reserve more than the draw budget can fill.
	samples := make([]Point, 0, min(count, maxAttempts))
	attempts := 0
	for len(samples) < count && attempts < maxAttempts {
		if err := ctx.Err(); err != nil {
			return samples, attempts, err
		}
		attempts++

		point := Point{
			X: bounds.MinX + rng.Float64()*bounds.Width(),
			Y: bounds.MinY + rng.Float64()*bounds.Height(),
		}
		if !field.QueryPoint(point) {
			samples = append(samples, point)
		}
	}
	return samples, attempts, nil
}
