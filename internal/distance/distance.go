package distance

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// SemiMetric measures the dissimilarity of two equally sized vectors.
// Implementations must be symmetric, non-negative and return zero for
// identical inputs; the triangle inequality is not required.
type SemiMetric interface {
	Distance(a, b []float64) float64
}

type SqEuclidean struct{}

func (SqEuclidean) Distance(a, b []float64) float64 {
	var sum float64
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

type Euclidean struct{}

func (Euclidean) Distance(a, b []float64) float64 { return floats.Distance(a, b, 2) }

type Cityblock struct{}

func (Cityblock) Distance(a, b []float64) float64 { return floats.Distance(a, b, 1) }

type Chebyshev struct{}

func (Chebyshev) Distance(a, b []float64) float64 { return floats.Distance(a, b, math.Inf(1)) }

// Cosine is one minus the cosine similarity. A zero vector is at distance
// zero from another zero vector and at distance one from anything else.
type Cosine struct{}

func (Cosine) Distance(a, b []float64) float64 {
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	switch {
	case na == 0 && nb == 0:
		return 0
	case na == 0 || nb == 0:
		return 1
	}
	d := 1 - floats.Dot(a, b)/(na*nb)
	if d < 0 {
		return 0
	}
	return d
}

// Columns copies every column of m into its own slice.
func Columns(m mat.Matrix) [][]float64 {
	_, c := m.Dims()
	cols := make([][]float64, c)
	for j := range c {
		cols[j] = mat.Col(nil, j, m)
	}
	return cols
}

// Pairwise returns the symmetric matrix of distances between the columns of m.
func Pairwise(m mat.Matrix, d SemiMetric) *mat.SymDense {
	cols := Columns(m)
	n := len(cols)
	out := mat.NewSymDense(n, nil)
	for i := range n {
		for j := i + 1; j < n; j++ {
			out.SetSym(i, j, d.Distance(cols[i], cols[j]))
		}
	}
	return out
}
