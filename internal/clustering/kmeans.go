package clustering

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"slices"

	"github.com/yyyoichi/repperiods/internal/distance"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type KMeansResult struct {
	// Centers holds one column per cluster.
	Centers *mat.Dense
	// Assignments maps every input column to a cluster in [0, k).
	Assignments []int
	Cost        float64
	Iterations  int
	Converged   bool
}

// KMeans partitions the columns of data into k clusters.
//
// Seeds are drawn with k-means++ using d as the cost, points are assigned to
// the nearest center under d, and every center moves to the mean of its
// members. An emptied cluster takes over the point that currently costs the
// most. Every cluster of the result has at least one member, even when
// duplicate points tie between centers. Iteration stops when no assignment changes, when the relative cost
// change drops below the tolerance, or after MaxIterations.
func KMeans(ctx context.Context, data *mat.Dense, k int, d distance.SemiMetric, cfg Config) (KMeansResult, error) {
	dim, n := data.Dims()
	if k < 1 || k > n {
		return KMeansResult{}, fmt.Errorf("%w: k=%d, n=%d", ErrInvalidK, k, n)
	}
	cfg = cfg.withDefaults()
	points := distance.Columns(data)

	return bestOf(ctx, cfg, func(ctx context.Context, rng *rand.Rand) (KMeansResult, float64, error) {
		res, err := kmeansOnce(ctx, points, dim, k, d, cfg, rng)
		return res, res.Cost, err
	})
}

func kmeansOnce(ctx context.Context, points [][]float64, dim, k int, d distance.SemiMetric, cfg Config, rng *rand.Rand) (KMeansResult, error) {
	n := len(points)
	centers := make([][]float64, k)
	seeds := seedPlusPlus(rng, n, k, func(i, j int) float64 {
		return d.Distance(points[i], points[j])
	})
	for c, idx := range seeds {
		centers[c] = slices.Clone(points[idx])
	}

	assign := make([]int, n)
	for i := range assign {
		assign[i] = -1
	}
	costs := make([]float64, n)
	res := KMeansResult{}
	prev := math.Inf(1)
	for it := range cfg.MaxIterations {
		if err := ctx.Err(); err != nil {
			return KMeansResult{}, err
		}
		res.Iterations = it + 1
		changed := assignNearest(points, centers, d, assign, costs)
		cost := floats.Sum(costs)
		if it > 0 && (!changed || math.Abs(prev-cost) <= cfg.Tolerance*math.Max(cost, 1)) {
			res.Converged = true
			break
		}
		prev = cost

		stores := make([]AverageStore, k)
		for i, c := range assign {
			stores[c].Add(points[i])
		}
		for c := range stores {
			if stores[c].Count() > 0 {
				centers[c] = stores[c].Average()
				continue
			}
			far := floats.MaxIdx(costs)
			centers[c] = slices.Clone(points[far])
			costs[far] = 0
		}
	}
	assignNearest(points, centers, d, assign, costs)
	fillEmpty(points, centers, assign, costs)

	res.Centers = mat.NewDense(dim, k, nil)
	for c := range centers {
		res.Centers.SetCol(c, centers[c])
	}
	res.Assignments = assign
	res.Cost = floats.Sum(costs)
	return res, nil
}

// assignNearest moves every point to its closest center, lowest index on
// ties, and reports whether any assignment changed.
func assignNearest(points, centers [][]float64, d distance.SemiMetric, assign []int, costs []float64) bool {
	changed := false
	for i, p := range points {
		best, bestCost := 0, d.Distance(p, centers[0])
		for c := 1; c < len(centers); c++ {
			if v := d.Distance(p, centers[c]); v < bestCost {
				best, bestCost = c, v
			}
		}
		if assign[i] != best {
			assign[i] = best
			changed = true
		}
		costs[i] = bestCost
	}
	return changed
}

// fillEmpty hands every cluster left without members the costliest point of a
// cluster that can spare one, lowest index on ties. The point becomes the
// center of its new cluster.
func fillEmpty(points, centers [][]float64, assign []int, costs []float64) {
	counts := make([]int, len(centers))
	for _, c := range assign {
		counts[c]++
	}
	for c := range counts {
		if counts[c] > 0 {
			continue
		}
		donor := -1
		for i, from := range assign {
			if counts[from] > 1 && (donor < 0 || costs[i] > costs[donor]) {
				donor = i
			}
		}
		counts[assign[donor]]--
		counts[c]++
		assign[donor] = c
		centers[c] = slices.Clone(points[donor])
		costs[donor] = 0
	}
}
