package clustering

import (
	"math/rand/v2"
	"slices"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// seedPlusPlus chooses k distinct indices out of n points with k-means++
// sampling: the first uniformly, every following one with probability
// proportional to its cost to the nearest chosen seed.
func seedPlusPlus(rng *rand.Rand, n, k int, cost func(i, j int) float64) []int {
	seeds := make([]int, 0, k)
	seeds = append(seeds, rng.IntN(n))

	mincost := make([]float64, n)
	for i := range n {
		mincost[i] = cost(i, seeds[0])
	}
	mincost[seeds[0]] = 0

	cum := make([]float64, n)
	for len(seeds) < k {
		floats.CumSum(cum, mincost)
		next := -1
		if total := cum[n-1]; total > 0 {
			// (0, total]: the first cumulative value reaching it belongs to a
			// point with positive cost, which is never an existing seed.
			x := total * (1 - rng.Float64())
			next = min(sort.SearchFloat64s(cum, x), n-1)
		}
		if next < 0 || slices.Contains(seeds, next) {
			for i := range n {
				if !slices.Contains(seeds, i) {
					next = i
					break
				}
			}
		}
		seeds = append(seeds, next)
		for i := range n {
			mincost[i] = min(mincost[i], cost(i, next))
		}
		mincost[next] = 0
	}
	return seeds
}
