package repperiods

import (
	"context"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/yyyoichi/repperiods/internal/clustering"
	"github.com/yyyoichi/repperiods/internal/distance"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// ClusteringResult is the outcome of a representative period search.
type ClusteringResult struct {
	// Profiles is a long table with columns rep_period, the key columns and value.
	Profiles dataframe.DataFrame
	// Weights maps periods to representative periods.
	Weights *WeightMatrix
	// ClusteringMatrix has one column per clustered period and one row per
	// (timestep, keys) combination.
	ClusteringMatrix *mat.Dense
	// RPMatrix has one column per clustered representative period, rows as in
	// ClusteringMatrix.
	RPMatrix  *mat.Dense
	Auxiliary AuxiliaryClusteringData
	// Assignments holds the 1-based representative period of every clustered
	// period.
	Assignments []int
}

// Find reduces the periods of df to nRP representative periods.
// This is a convenience function that creates a Finder and calls its Find method.
func Find(ctx context.Context, df dataframe.DataFrame, nRP int, opts ...Option) (*ClusteringResult, error) {
	f, err := New(opts...)
	if err != nil {
		return nil, err
	}
	return f.Find(ctx, df, nRP)
}

type Finder struct {
	method         Method
	distance       Distance
	dropIncomplete bool
	config         clustering.Config
	logger         *zap.Logger
}

// New initializes a Finder. Without options it clusters with k-means under the
// squared Euclidean distance and drops an incomplete last period.
func New(opts ...Option) (*Finder, error) {
	f := &Finder{
		method:         KMeans,
		distance:       SqEuclidean,
		dropIncomplete: true,
		config:         clustering.Config{Seed: clustering.DefaultSeed},
		logger:         zap.NewNop(),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	return f, nil
}

// Find reduces the periods of df, a table split with SplitIntoPeriods, to nRP
// representative periods.
//
// Process:
//  1. Derives the period structure and validates nRP against it.
//  2. Weighs complete periods and an incomplete last period.
//  3. Keeps an incomplete last period out of clustering. Unless it is dropped,
//     it is reserved the last representative period.
//  4. Pivots the complete periods into a matrix with one column per period.
//  5. Clusters the columns and records the weight of every period.
//  6. Unpivots the cluster representatives into the profiles table.
//
// Every clustered representative period has at least one period assigned,
// including when several periods are identical.
//
// Either a complete result or an error wrapping ErrSchema or
// ErrInvalidArgument is returned.
func (f *Finder) Find(ctx context.Context, df dataframe.DataFrame, nRP int) (*ClusteringResult, error) {
	if nRP < 1 {
		return nil, invalidArgumentf("number of representative periods %d must be at least 1", nRP)
	}
	aux, err := FindAuxiliaryData(df)
	if err != nil {
		return nil, err
	}
	if nRP > aux.NPeriods {
		return nil, invalidArgumentf("number of representative periods %d exceeds the %d periods", nRP, aux.NPeriods)
	}

	var (
		hasIncomplete = aux.HasIncompletePeriod()
		excluded      = hasIncomplete && !f.dropIncomplete
		nComplete     = aux.NPeriods
	)
	if hasIncomplete {
		nComplete--
	}
	w, err := ComputeWeights(aux.PeriodDuration, aux.LastPeriodDuration, aux.NPeriods, f.dropIncomplete)
	if err != nil {
		return nil, err
	}
	f.logger.Debug("period structure",
		zap.Int("periods", aux.NPeriods),
		zap.Int("period_duration", aux.PeriodDuration),
		zap.Int("last_period_duration", aux.LastPeriodDuration),
		zap.Bool("incomplete_excluded", excluded),
		zap.Float64("complete_weight", w.Complete))

	k := nRP
	var weights *WeightMatrix
	if excluded {
		weights = NewWeightMatrix(aux.NPeriods, nRP)
		if err := weights.Assign(aux.NPeriods, nRP, w.Incomplete); err != nil {
			return nil, err
		}
		k--
		if k < 1 {
			return nil, invalidArgumentf("keeping the incomplete period needs at least 2 representative periods")
		}
	} else {
		weights = NewWeightMatrix(nComplete, nRP)
	}
	if k > nComplete {
		return nil, invalidArgumentf("%d representative periods to cluster exceed the %d complete periods", k, nComplete)
	}

	complete := df.Filter(dataframe.F{Colname: PeriodColumn, Comparator: series.LessEq, Comparando: nComplete})
	if complete.Err != nil {
		return nil, complete.Err
	}
	cm, keys, err := TableToMatrix(complete, aux.KeyColumns)
	if err != nil {
		return nil, err
	}
	if _, c := cm.Dims(); c != nComplete {
		return nil, invalidArgumentf("periods must be numbered 1..%d without gaps, found %d", nComplete, c)
	}

	f.logger.Debug("clustering periods",
		zap.Stringer("method", f.method),
		zap.Stringer("distance", f.distance),
		zap.Int("periods", nComplete),
		zap.Int("representatives", k))
	centers, assignments, err := f.cluster(ctx, cm, k)
	if err != nil {
		return nil, err
	}
	for p, rp := range assignments {
		if err := weights.Assign(p+1, rp, w.Complete); err != nil {
			return nil, err
		}
	}

	profiles, err := MatrixToTable(centers, keys)
	if err != nil {
		return nil, err
	}
	if excluded {
		last := df.Filter(dataframe.F{Colname: PeriodColumn, Comparator: series.Eq, Comparando: aux.NPeriods})
		last = last.Mutate(series.New(repeatInt(k+1, last.Nrow()), series.Int, PeriodColumn)).
			Rename(RepPeriodColumn, PeriodColumn).
			Select(profiles.Names())
		profiles = profiles.RBind(last)
		if profiles.Err != nil {
			return nil, profiles.Err
		}
	}
	f.logger.Debug("representative periods found", zap.Int("rows", profiles.Nrow()), zap.Int("weights", weights.NNZ()))

	return &ClusteringResult{
		Profiles:         profiles,
		Weights:          weights,
		ClusteringMatrix: cm,
		RPMatrix:         centers,
		Auxiliary:        aux,
		Assignments:      assignments,
	}, nil
}

// cluster returns the k representative columns of cm and the 1-based cluster
// of every column.
func (f *Finder) cluster(ctx context.Context, cm *mat.Dense, k int) (*mat.Dense, []int, error) {
	d, err := f.distance.semiMetric()
	if err != nil {
		return nil, nil, err
	}
	switch f.method {
	case KMeans:
		res, err := clustering.KMeans(ctx, cm, k, d, f.config)
		if err != nil {
			return nil, nil, err
		}
		f.logger.Debug("k-means finished", zap.Int("iterations", res.Iterations), zap.Bool("converged", res.Converged), zap.Float64("cost", res.Cost))
		return res.Centers, oneBased(res.Assignments), nil
	case KMedoids:
		res, err := clustering.KMedoids(ctx, distance.Pairwise(cm, d), k, f.config)
		if err != nil {
			return nil, nil, err
		}
		f.logger.Debug("k-medoids finished", zap.Int("iterations", res.Iterations), zap.Bool("converged", res.Converged), zap.Float64("cost", res.Cost))
		rows, _ := cm.Dims()
		centers := mat.NewDense(rows, k, nil)
		for c, m := range res.Medoids {
			centers.SetCol(c, mat.Col(nil, m, cm))
		}
		return centers, oneBased(res.Assignments), nil
	}
	return nil, nil, invalidArgumentf("method %v not supported", f.method)
}

func oneBased(assignments []int) []int {
	out := make([]int, len(assignments))
	for i, a := range assignments {
		out[i] = a + 1
	}
	return out
}
