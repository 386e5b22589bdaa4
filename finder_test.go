package repperiods

import (
	"context"
	"errors"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/repperiods/internal/clustering"
	"go.uber.org/zap/zaptest"
	"gonum.org/v1/gonum/mat"
)

// splitProfile splits a single flat profile into periods of two timesteps.
// Periods 1 and 3 are low, periods 2 and 4 high.
func splitProfile(t *testing.T, extra ...float64) dataframe.DataFrame {
	t.Helper()
	values := append([]float64{1, 2, 10, 20, 1.1, 2.1, 10.2, 20.2}, extra...)
	timesteps := make([]int, len(values))
	for i := range timesteps {
		timesteps[i] = i + 1
	}
	df, err := SplitIntoPeriods(dataframe.New(
		series.New(timesteps, series.Int, TimestepColumn),
		series.New(values, series.Float, ValueColumn),
	), 2)
	require.NoError(t, err)
	return df
}

func assertCoverage(t *testing.T, res *ClusteringResult) {
	t.Helper()
	rows, _ := res.Weights.Dims()
	assert.Equal(t, rows, res.Weights.NNZ(), "every period has one weight")
	for p := 1; p <= rows; p++ {
		_, _, ok := res.Weights.Representative(p)
		assert.True(t, ok, "period %d", p)
	}
}

func TestFind(t *testing.T) {
	ctx := context.Background()
	for _, method := range []Method{KMeans, KMedoids} {
		t.Run(method.String(), func(t *testing.T) {
			res, err := Find(ctx, splitProfile(t), 2,
				WithMethod(method), WithRestarts(3), WithLogger(zaptest.NewLogger(t)))
			require.NoError(t, err)

			assert.Equal(t, 4, res.Auxiliary.NPeriods)
			a := res.Assignments
			require.Len(t, a, 4)
			for _, rp := range a {
				assert.GreaterOrEqual(t, rp, 1)
				assert.LessOrEqual(t, rp, 2)
			}
			assert.Equal(t, a[0], a[2])
			assert.Equal(t, a[1], a[3])
			assert.NotEqual(t, a[0], a[1])

			assertCoverage(t, res)
			for _, e := range res.Weights.Entries() {
				assert.Equal(t, 1., e.Weight)
				assert.Equal(t, a[e.Period-1], e.RepPeriod)
			}
			r, c := res.Weights.Dims()
			assert.Equal(t, 4, r)
			assert.Equal(t, 2, c)

			assert.Equal(t, []string{RepPeriodColumn, TimestepColumn, ValueColumn}, res.Profiles.Names())
			assert.Equal(t, 4, res.Profiles.Nrow())
			rows, cols := res.RPMatrix.Dims()
			assert.Equal(t, 2, rows)
			assert.Equal(t, 2, cols)
			if method == KMeans {
				low := a[0] - 1
				assert.InDelta(t, 1.05, res.RPMatrix.At(0, low), 1e-9)
				assert.InDelta(t, 2.05, res.RPMatrix.At(1, low), 1e-9)
				assert.InDelta(t, 10.1, res.RPMatrix.At(0, 1-low), 1e-9)
			} else {
				for j := range 2 {
					rp := mat.Col(nil, j, res.RPMatrix)
					found := false
					for p := range 4 {
						found = found || mat.Equal(mat.NewVecDense(2, rp), res.ClusteringMatrix.ColView(p))
					}
					assert.True(t, found, "medoid %d is an actual period", j)
				}
			}
		})
	}

	t.Run("several keys", func(t *testing.T) {
		df := dataframe.New(
			series.New([]int{1, 1, 1, 1, 2, 2, 2, 2, 3, 3, 3, 3}, series.Int, PeriodColumn),
			series.New([]string{"pv", "pv", "wind", "wind", "pv", "pv", "wind", "wind", "pv", "pv", "wind", "wind"}, series.String, "asset"),
			series.New([]int{1, 2, 1, 2, 1, 2, 1, 2, 1, 2, 1, 2}, series.Int, TimestepColumn),
			series.New([]float64{0, 1, 5, 5, 0, 1.1, 5, 4.9, 1, 0, 0, 0}, series.Float, ValueColumn),
		)
		res, err := Find(ctx, df, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"asset", TimestepColumn}, res.Auxiliary.KeyColumns)
		assert.Equal(t, []string{RepPeriodColumn, TimestepColumn, "asset", ValueColumn}, res.Profiles.Names())
		assert.Equal(t, 8, res.Profiles.Nrow())
		assert.Equal(t, res.Assignments[0], res.Assignments[1])
		assert.NotEqual(t, res.Assignments[0], res.Assignments[2])
		assertCoverage(t, res)
	})
}

func TestFindIncompletePeriod(t *testing.T) {
	ctx := context.Background()
	// a fifth period of a single timestep
	df := splitProfile(t, 7)

	t.Run("dropped", func(t *testing.T) {
		res, err := Find(ctx, df, 2)
		require.NoError(t, err)
		assert.Equal(t, 2, res.Auxiliary.PeriodDuration)
		assert.Equal(t, 1, res.Auxiliary.LastPeriodDuration)
		r, c := res.Weights.Dims()
		assert.Equal(t, 4, r)
		assert.Equal(t, 2, c)
		assertCoverage(t, res)
		for _, e := range res.Weights.Entries() {
			assert.InDelta(t, 9./8., e.Weight, 1e-12)
		}
		_, periods := res.ClusteringMatrix.Dims()
		assert.Equal(t, 4, periods)
		assert.Equal(t, 4, res.Profiles.Nrow())
	})
	t.Run("kept", func(t *testing.T) {
		res, err := Find(ctx, df, 3, WithDropIncompletePeriod(false))
		require.NoError(t, err)
		r, c := res.Weights.Dims()
		assert.Equal(t, 5, r)
		assert.Equal(t, 3, c)
		assertCoverage(t, res)
		rp, w, ok := res.Weights.Representative(5)
		require.True(t, ok)
		assert.Equal(t, 3, rp)
		assert.Equal(t, 1., w)
		for _, a := range res.Assignments {
			assert.LessOrEqual(t, a, 2)
		}

		_, k := res.RPMatrix.Dims()
		assert.Equal(t, 2, k)
		assert.Equal(t, 5, res.Profiles.Nrow())
		last := res.Profiles.Filter(dataframe.F{Colname: RepPeriodColumn, Comparator: series.Eq, Comparando: 3})
		require.Equal(t, 1, last.Nrow())
		assert.Equal(t, []int{1}, ints(t, last, TimestepColumn))
		assert.Equal(t, []float64{7}, last.Col(ValueColumn).Float())
	})
	t.Run("kept with key columns", func(t *testing.T) {
		values := []float64{1, 2, 10, 20, 1.1, 2.1, 10.2, 20.2, 7}
		var (
			timesteps []int
			assets    []string
			all       []float64
		)
		for i, asset := range []string{"pv", "wind"} {
			for ts, v := range values {
				timesteps = append(timesteps, ts+1)
				assets = append(assets, asset)
				all = append(all, v+float64(100*i))
			}
		}
		keyed, err := SplitIntoPeriods(dataframe.New(
			series.New(timesteps, series.Int, TimestepColumn),
			series.New(assets, series.String, "asset"),
			series.New(all, series.Float, ValueColumn),
		), 2)
		require.NoError(t, err)

		res, err := Find(ctx, keyed, 3, WithDropIncompletePeriod(false))
		require.NoError(t, err)
		assertCoverage(t, res)
		assert.Equal(t, []string{RepPeriodColumn, TimestepColumn, "asset", ValueColumn}, res.Profiles.Names())
		assert.Equal(t, 10, res.Profiles.Nrow())

		last := res.Profiles.Filter(dataframe.F{Colname: RepPeriodColumn, Comparator: series.Eq, Comparando: 3})
		require.Equal(t, 2, last.Nrow())
		assert.Equal(t, []int{1, 1}, ints(t, last, TimestepColumn))
		assert.Equal(t, []string{"pv", "wind"}, last.Col("asset").Records())
		assert.Equal(t, []float64{7, 107}, last.Col(ValueColumn).Float())
		for rp := 1; rp <= 2; rp++ {
			part := res.Profiles.Filter(dataframe.F{Colname: RepPeriodColumn, Comparator: series.Eq, Comparando: rp})
			assert.Equal(t, 4, part.Nrow(), "rep period %d", rp)
		}
	})
	t.Run("kept needs two representatives", func(t *testing.T) {
		_, err := Find(ctx, df, 1, WithDropIncompletePeriod(false))
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
	t.Run("dropped leaves too few periods", func(t *testing.T) {
		_, err := Find(ctx, df, 5)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
}

func TestFindErrors(t *testing.T) {
	ctx := context.Background()
	df := splitProfile(t)
	test := []struct {
		name    string
		df      dataframe.DataFrame
		nRP     int
		opts    []Option
		wantErr error
	}{
		{"zero representatives", df, 0, nil, ErrInvalidArgument},
		{"more representatives than periods", df, 5, nil, ErrInvalidArgument},
		{"not split", df.Drop(PeriodColumn), 1, nil, ErrSchema},
		{"unknown method", df, 2, []Option{WithMethod(Method(7))}, ErrInvalidArgument},
		{"unknown distance", df, 2, []Option{WithDistance(Distance(9))}, ErrInvalidArgument},
		{"bad restarts", df, 2, []Option{WithRestarts(0)}, ErrInvalidArgument},
	}
	for _, tt := range test {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Find(ctx, tt.df, tt.nRP, tt.opts...)
			assert.Nil(t, res)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
	t.Run("method dispatch", func(t *testing.T) {
		f, err := New()
		require.NoError(t, err)
		f.method = Method(7)
		_, err = f.Find(ctx, df, 2)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
	t.Run("gap in periods", func(t *testing.T) {
		gap := df.Filter(dataframe.F{Colname: PeriodColumn, Comparator: series.Neq, Comparando: 2})
		_, err := Find(ctx, gap, 2)
		assert.True(t, errors.Is(err, ErrInvalidArgument))
	})
}

func TestParse(t *testing.T) {
	m, err := ParseMethod("KMedoids")
	require.NoError(t, err)
	assert.Equal(t, KMedoids, m)
	_, err = ParseMethod("hierarchical")
	assert.True(t, errors.Is(err, ErrInvalidArgument))

	for _, d := range []Distance{SqEuclidean, Euclidean, Cityblock, Chebyshev, Cosine} {
		got, err := ParseDistance(d.String())
		require.NoError(t, err)
		assert.Equal(t, d, got)
	}
	_, err = ParseDistance("hamming")
	assert.True(t, errors.Is(err, ErrInvalidArgument))
}

func TestFindIdenticalPeriods(t *testing.T) {
	ctx := context.Background()
	df := dataframe.New(
		series.New([]int{1, 1, 2, 2, 3, 3}, series.Int, PeriodColumn),
		series.New([]int{1, 2, 1, 2, 1, 2}, series.Int, TimestepColumn),
		series.New([]float64{4, 2, 4, 2, 4, 2}, series.Float, ValueColumn),
	)
	for _, method := range []Method{KMeans, KMedoids} {
		t.Run(method.String(), func(t *testing.T) {
			res, err := Find(ctx, df, 2, WithMethod(method))
			require.NoError(t, err)
			assertCoverage(t, res)
			assert.Contains(t, res.Assignments, 1)
			assert.Contains(t, res.Assignments, 2)
			for rp := 1; rp <= 2; rp++ {
				assert.Greater(t, mat.Sum(res.Weights.Dense().ColView(rp-1)), 0., "rep period %d", rp)
			}
		})
	}
}

func TestNewSeed(t *testing.T) {
	f, err := New()
	require.NoError(t, err)
	assert.Equal(t, uint64(clustering.DefaultSeed), f.config.Seed)

	f, err = New(WithSeed(0))
	require.NoError(t, err)
	assert.Zero(t, f.config.Seed)
}
