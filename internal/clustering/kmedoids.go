package clustering

import (
	"context"
	"fmt"
	"math/rand/v2"
	"slices"

	"gonum.org/v1/gonum/mat"
)

type KMedoidsResult struct {
	// Medoids holds the index of the representative input column per cluster.
	Medoids []int
	// Assignments maps every input column to a cluster in [0, k).
	Assignments []int
	Cost        float64
	Iterations  int
	Converged   bool
}

// KMedoids clusters n points given only their pairwise distances, using
// k-means++ seeding followed by Voronoi iteration: assign each point to its
// nearest medoid, then replace every medoid by the member with the smallest
// total distance to the rest of its cluster.
func KMedoids(ctx context.Context, dist mat.Symmetric, k int, cfg Config) (KMedoidsResult, error) {
	n := dist.SymmetricDim()
	if k < 1 || k > n {
		return KMedoidsResult{}, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidK, k, n)
	}
	cfg = cfg.withDefaults()
	return bestOf(ctx, cfg, func(ctx context.Context, rng *rand.Rand) (KMedoidsResult, float64, error) {
		res, err := kmedoidsOnce(ctx, dist, n, k, cfg, rng)
		return res, res.Cost, err
	})
}

func kmedoidsOnce(ctx context.Context, dist mat.Symmetric, n, k int, cfg Config, rng *rand.Rand) (KMedoidsResult, error) {
	medoids := seedPlusPlus(rng, n, k, dist.At)
	assign := make([]int, n)
	res := KMedoidsResult{}
	for it := range cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return KMedoidsResult{}, err
		}
		res.Iterations = it + 1
		assignToMedoids(dist, medoids, assign)

		members := make([][]int, k)
		for i, c := range assign {
			members[c] = append(members[c], i)
		}
		next := slices.Clone(medoids)
		for c, ms := range members {
			next[c] = bestMedoid(dist, ms, medoids[c])
		}
		if slices.Equal(next, medoids) {
			res.Converged = true
			break
		}
		medoids = next
	}
	assignToMedoids(dist, medoids, assign)

	for i, c := range assign {
		res.Cost += dist.At(i, medoids[c])
	}
	res.Medoids = medoids
	res.Assignments = assign
	return res, nil
}

// assignToMedoids keeps every medoid in its own cluster and sends all other
// points to the nearest medoid, lowest cluster index on ties.
func assignToMedoids(dist mat.Symmetric, medoids, assign []int) {
	for i := range assign {
		if c := slices.Index(medoids, i); c >= 0 {
			assign[i] = c
			continue
		}
		best, bestCost := 0, dist.At(i, medoids[0])
		for c := 1; c < len(medoids); c++ {
			if v := dist.At(i, medoids[c]); v < bestCost {
				best, bestCost = c, v
			}
		}
		assign[i] = best
	}
}

// bestMedoid returns the member minimising the summed distance to the other
// members. The current medoid wins ties so that iteration terminates.
func bestMedoid(dist mat.Symmetric, members []int, current int) int {
	if len(members) == 0 {
		return current
	}
	total := func(m int) float64 {
		var s float64
		for _, q := range members {
			s += dist.At(m, q)
		}
		return s
	}
	best, bestCost := current, total(current)
	for _, m := range members {
		if v := total(m); v < bestCost {
			best, bestCost = m, v
		}
	}
	return best
}
