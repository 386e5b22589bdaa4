package clustering

import (
	"slices"

	"gonum.org/v1/gonum/floats"
)

// AverageStore accumulates the running mean of equally sized vectors.
type AverageStore struct {
	sum   []float64
	count int
}

func (s *AverageStore) Add(v []float64) {
	if s.sum == nil {
		s.sum = make([]float64, len(v))
	}
	floats.Add(s.sum, v)
	s.count += 1
}

// Average returns a fresh slice holding the mean; nil when nothing was added.
func (s *AverageStore) Average() []float64 {
	if s.count == 0 {
		return nil
	}
	avg := slices.Clone(s.sum)
	floats.Scale(1/float64(s.count), avg)
	return avg
}

func (s *AverageStore) Count() int { return s.count }

func (s *AverageStore) Sum() []float64 { return s.sum }
