package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yyyoichi/repperiods"
)

func TestSaveRun(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	df := dataframe.New(
		series.New([]int{1, 1, 2, 2, 3, 3}, series.Int, repperiods.PeriodColumn),
		series.New([]string{"pv", "pv", "pv", "pv", "pv", "pv"}, series.String, "asset"),
		series.New([]int{1, 2, 1, 2, 1, 2}, series.Int, repperiods.TimestepColumn),
		series.New([]float64{1, 2, 1.1, 2.1, 9, 9}, series.Float, repperiods.ValueColumn),
	)
	res, err := repperiods.Find(ctx, df, 2)
	require.NoError(t, err)
	fitted, err := res.FitWeights()
	require.NoError(t, err)

	id, err := db.SaveRun(ctx, Run{
		Method:   repperiods.KMeans,
		Distance: repperiods.SqEuclidean,
		Result:   res,
		Fitted:   fitted,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	n, err := db.CountProfiles(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, res.Profiles.Nrow(), n)

	weights, err := db.LoadWeights(ctx, id, KindClustered)
	require.NoError(t, err)
	assert.Equal(t, res.Weights.Entries(), weights)

	fw, err := db.LoadWeights(ctx, id, KindFitted)
	require.NoError(t, err)
	assert.NotEmpty(t, fw)

	other, err := db.SaveRun(ctx, Run{Method: repperiods.KMedoids, Result: res})
	require.NoError(t, err)
	assert.NotEqual(t, id, other)
	none, err := db.LoadWeights(ctx, other, KindFitted)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestOpenPragmas(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	defer db.Close()

	var timeout, foreignKeys int
	var journal string
	require.NoError(t, db.db.QueryRowContext(ctx, "PRAGMA busy_timeout").Scan(&timeout))
	require.NoError(t, db.db.QueryRowContext(ctx, "PRAGMA foreign_keys").Scan(&foreignKeys))
	require.NoError(t, db.db.QueryRowContext(ctx, "PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, int(BusyTimeout.Milliseconds()), timeout)
	assert.Equal(t, 1, foreignKeys)
	assert.Equal(t, "wal", journal)

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := Open(ctx, filepath.Join(t.TempDir(), "runs.db"))
		assert.Error(t, err)
	})
}
