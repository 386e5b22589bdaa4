package clustering

import (
	"context"
	"errors"
	"math/rand/v2"

	"golang.org/x/sync/errgroup"
)

var (
	ErrInvalidK = errors.New("cluster count must be between 1 and the number of points")
)

// Config tunes the iterative algorithms. Zero values of the iteration
// settings fall back to defaults. Seed is used as given, zero included.
type Config struct {
	MaxIterations int
	// Tolerance stops iterating once the relative change of the total cost
	// drops below it.
	Tolerance float64
	// Restarts is the number of independently seeded runs; the cheapest wins.
	Restarts int
	Seed     uint64
}

const (
	DefaultMaxIterations = 300
	DefaultTolerance     = 1e-6
	DefaultRestarts      = 1
	DefaultSeed          = 1234567890
)

func (c Config) withDefaults() Config {
	if c.MaxIterations < 1 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.Tolerance <= 0 {
		c.Tolerance = DefaultTolerance
	}
	if c.Restarts < 1 {
		c.Restarts = DefaultRestarts
	}
	return c
}

// bestOf runs one seeded attempt per restart concurrently and keeps the one
// with the lowest cost. Ties go to the lower restart index, so the outcome
// only depends on the seed.
func bestOf[T any](ctx context.Context, cfg Config, run func(ctx context.Context, rng *rand.Rand) (T, float64, error)) (T, error) {
	results := make([]T, cfg.Restarts)
	costs := make([]float64, cfg.Restarts)
	g, ctx := errgroup.WithContext(ctx)
	for r := range cfg.Restarts {
		g.Go(func() error {
			rng := rand.New(rand.NewPCG(cfg.Seed, uint64(r)))
			res, cost, err := run(ctx, rng)
			if err != nil {
				return err
			}
			results[r], costs[r] = res, cost
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		var zero T
		return zero, err
	}
	best := 0
	for r := 1; r < len(costs); r++ {
		if costs[r] < costs[best] {
			best = r
		}
	}
	return results[best], nil
}
