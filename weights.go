package repperiods

import (
	"math"
	"slices"

	"gonum.org/v1/gonum/mat"
)

// PeriodWeights holds the weight of every complete period and, when the last
// period is incomplete and kept, the weight of that period.
type PeriodWeights struct {
	Complete float64
	// Incomplete is only meaningful when HasIncomplete is set.
	Incomplete    float64
	HasIncomplete bool
}

// ComputeWeights decides how periods are weighted.
//
// Without an incomplete period every period weighs 1. A dropped incomplete
// period spreads its duration over the complete ones, which then weigh
// (d*(n-1) + last) / (d*(n-1)). A kept incomplete period becomes its own
// representative with weight 1.
func ComputeWeights(periodDuration, lastPeriodDuration, nPeriods int, dropIncomplete bool) (PeriodWeights, error) {
	switch {
	case lastPeriodDuration == periodDuration:
		return PeriodWeights{Complete: 1}, nil
	case dropIncomplete:
		if nPeriods < 2 || periodDuration < 1 {
			return PeriodWeights{}, invalidArgumentf("cannot drop the incomplete period of %d period(s)", nPeriods)
		}
		full := float64(periodDuration * (nPeriods - 1))
		return PeriodWeights{Complete: (full + float64(lastPeriodDuration)) / full}, nil
	default:
		return PeriodWeights{Complete: 1, Incomplete: 1, HasIncomplete: true}, nil
	}
}

type WeightEntry struct {
	Period    int
	RepPeriod int
	Weight    float64
}

// WeightMatrix is a sparse periods x representative periods matrix in which
// every row holds at most one positive weight.
//
// Assign and Representative take 1-based period labels as they appear in
// tables. As a mat.Matrix, At uses 0-based indices.
type WeightMatrix struct {
	rows, cols int
	byRow      map[int]WeightEntry
}

var _ mat.Matrix = (*WeightMatrix)(nil)

func NewWeightMatrix(periods, repPeriods int) *WeightMatrix {
	return &WeightMatrix{rows: periods, cols: repPeriods, byRow: make(map[int]WeightEntry)}
}

// Assign records that period is represented by repPeriod with the given
// weight. A period can be assigned only once.
func (w *WeightMatrix) Assign(period, repPeriod int, weight float64) error {
	if period < 1 || period > w.rows {
		return invalidArgumentf("period %d outside [1, %d]", period, w.rows)
	}
	if repPeriod < 1 || repPeriod > w.cols {
		return invalidArgumentf("representative period %d outside [1, %d]", repPeriod, w.cols)
	}
	if !(weight > 0) || math.IsInf(weight, 0) {
		return invalidArgumentf("weight %v of period %d must be positive", weight, period)
	}
	if e, ok := w.byRow[period]; ok {
		return invalidArgumentf("period %d already represented by %d", period, e.RepPeriod)
	}
	w.byRow[period] = WeightEntry{Period: period, RepPeriod: repPeriod, Weight: weight}
	return nil
}

// Representative returns the representative period of period, if assigned.
func (w *WeightMatrix) Representative(period int) (repPeriod int, weight float64, ok bool) {
	e, ok := w.byRow[period]
	return e.RepPeriod, e.Weight, ok
}

// Entries lists the nonzero entries ordered by period.
func (w *WeightMatrix) Entries() []WeightEntry {
	out := make([]WeightEntry, 0, len(w.byRow))
	for _, e := range w.byRow {
		out = append(out, e)
	}
	slices.SortFunc(out, func(a, b WeightEntry) int { return a.Period - b.Period })
	return out
}

func (w *WeightMatrix) NNZ() int { return len(w.byRow) }

func (w *WeightMatrix) Dims() (r, c int) { return w.rows, w.cols }

func (w *WeightMatrix) At(i, j int) float64 {
	if i < 0 || i >= w.rows {
		panic(mat.ErrRowAccess)
	}
	if j < 0 || j >= w.cols {
		panic(mat.ErrColAccess)
	}
	if e, ok := w.byRow[i+1]; ok && e.RepPeriod == j+1 {
		return e.Weight
	}
	return 0
}

func (w *WeightMatrix) T() mat.Matrix { return mat.Transpose{Matrix: w} }

// Dense copies the matrix into a dense one.
func (w *WeightMatrix) Dense() *mat.Dense {
	d := mat.NewDense(w.rows, w.cols, nil)
	for _, e := range w.byRow {
		d.Set(e.Period-1, e.RepPeriod-1, e.Weight)
	}
	return d
}
