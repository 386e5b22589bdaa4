package repperiods

import (
	"fmt"
	"math"
	"slices"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// WeightType constrains the weights found by FitWeights.
type WeightType int

const (
	// Convex weights are non-negative and sum to one.
	Convex WeightType = iota
	// Conical weights are non-negative.
	Conical
	// ConicalBounded weights are non-negative and sum to at most one.
	ConicalBounded
)

type fitConfig struct {
	weightType   WeightType
	iterations   int
	tolerance    float64
	learningRate float64
	adaptive     bool
}

type FitOption func(*fitConfig)

func WithWeightType(t WeightType) FitOption {
	return func(c *fitConfig) { c.weightType = t }
}

// WithFitIterations bounds the descent steps per period. The default is 100.
func WithFitIterations(n int) FitOption {
	return func(c *fitConfig) { c.iterations = n }
}

// WithFitTolerance stops the descent of a period once a step changes its
// weights by less than tol relative to their norm. The default is 1e-3.
func WithFitTolerance(tol float64) FitOption {
	return func(c *fitConfig) { c.tolerance = tol }
}

// WithLearningRate sets the descent step size. The default is 0.001.
func WithLearningRate(rate float64) FitOption {
	return func(c *fitConfig) { c.learningRate = rate }
}

// WithAdaptiveGrad scales every step per coordinate by the accumulated
// squared gradient (AdaGrad).
func WithAdaptiveGrad(on bool) FitOption {
	return func(c *fitConfig) { c.adaptive = on }
}

// FitWeights approximates every clustered period by a combination of all
// representative periods instead of only the one it was assigned to. For each
// period p it minimises ||RPMatrix x - ClusteringMatrix[:, p]||² by projected
// gradient descent, starting from the clustering weights.
//
// The result has the shape of Weights. A kept incomplete period keeps its
// original row.
func (r *ClusteringResult) FitWeights(opts ...FitOption) (*mat.Dense, error) {
	cfg := fitConfig{weightType: Convex, iterations: 100, tolerance: 1e-3, learningRate: 0.001}
	for _, opt := range opts {
		opt(&cfg)
	}
	var project func([]float64)
	switch cfg.weightType {
	case Convex:
		project = projectOntoSimplex
	case Conical:
		project = projectOntoOrthant
	case ConicalBounded:
		project = projectOntoBoundedOrthant
	default:
		return nil, invalidArgumentf("weight type %v not supported", cfg.weightType)
	}
	if cfg.iterations < 1 || !(cfg.learningRate > 0) || cfg.tolerance < 0 {
		return nil, invalidArgumentf("iterations, learning rate and tolerance must be positive")
	}

	out := r.Weights.Dense()
	_, nPeriods := r.ClusteringMatrix.Dims()
	_, k := r.RPMatrix.Dims()

	var gram mat.Dense
	gram.Mul(r.RPMatrix.T(), r.RPMatrix)
	rhs := mat.NewVecDense(k, nil)
	x := make([]float64, k)
	for p := range nPeriods {
		rhs.MulVec(r.RPMatrix.T(), r.ClusteringMatrix.ColView(p))
		for j := range k {
			x[j] = out.At(p, j)
		}
		descend(x, func(g, x []float64) {
			gv := mat.NewVecDense(k, g)
			gv.MulVec(&gram, mat.NewVecDense(k, x))
			gv.SubVec(gv, rhs)
		}, project, cfg)
		for j := range k {
			out.Set(p, j, x[j])
		}
	}
	return out, nil
}

// descend runs projected gradient descent on x in place.
func descend(x []float64, gradient func(g, x []float64), project func([]float64), cfg fitConfig) {
	project(x)
	var (
		g    = make([]float64, len(x))
		acc  = make([]float64, len(x))
		prev = make([]float64, len(x))
	)
	for range cfg.iterations {
		copy(prev, x)
		gradient(g, x)
		if cfg.adaptive {
			for i, v := range g {
				acc[i] += v * v
				g[i] = v / (math.Sqrt(acc[i]) + 1e-8)
			}
		}
		floats.AddScaled(x, -cfg.learningRate, g)
		project(x)
		if floats.Distance(x, prev, 2) <= cfg.tolerance*floats.Norm(prev, 2) {
			return
		}
	}
}

func projectOntoOrthant(x []float64) {
	for i := range x {
		x[i] = max(x[i], 0)
	}
}

// projectOntoSimplex finds the closest point with non-negative coordinates
// summing to one (Duchi et al., 2008).
func projectOntoSimplex(x []float64) {
	u := slices.Clone(x)
	slices.SortFunc(u, func(a, b float64) int {
		switch {
		case a > b:
			return -1
		case a < b:
			return 1
		}
		return 0
	})
	var cum, theta float64
	for j, v := range u {
		cum += v
		if t := (cum - 1) / float64(j+1); v-t > 0 {
			theta = t
		}
	}
	for i := range x {
		x[i] = max(x[i]-theta, 0)
	}
}

func projectOntoBoundedOrthant(x []float64) {
	y := slices.Clone(x)
	projectOntoOrthant(y)
	if floats.Sum(y) <= 1 {
		copy(x, y)
		return
	}
	projectOntoSimplex(x)
}

var weightTypeNames = []string{Convex: "convex", Conical: "conical", ConicalBounded: "conical_bounded"}

func (t WeightType) String() string {
	if t >= 0 && int(t) < len(weightTypeNames) {
		return weightTypeNames[t]
	}
	return fmt.Sprintf("WeightType(%d)", int(t))
}

// ParseWeightType maps "convex", "conical" or "conical_bounded" to a WeightType.
func ParseWeightType(s string) (WeightType, error) {
	for t, name := range weightTypeNames {
		if strings.EqualFold(s, name) {
			return WeightType(t), nil
		}
	}
	return 0, invalidArgumentf("weight type %q not supported", s)
}
