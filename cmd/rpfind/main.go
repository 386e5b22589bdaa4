package main

import (
	"context"
	"fmt"
	"os"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/yyyoichi/repperiods"
	"github.com/yyyoichi/repperiods/internal/store"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, err := newLogger(cfg.Debug)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(context.Background(), cfg, logger); err != nil {
		logger.Error("rpfind failed", zap.Error(err))
		os.Exit(1)
	}
}

func newLogger(debug bool) (*zap.Logger, error) {
	var (
		logger *zap.Logger
		err    error
	)
	if debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %w", err)
	}
	return logger, nil
}

func run(ctx context.Context, cfg Config, logger *zap.Logger) error {
	method, err := repperiods.ParseMethod(cfg.Method)
	if err != nil {
		return err
	}
	dist, err := repperiods.ParseDistance(cfg.Distance)
	if err != nil {
		return err
	}

	df, err := readTable(cfg.Input)
	if err != nil {
		return err
	}
	if cfg.PeriodDuration > 0 || !slices.Contains(df.Names(), repperiods.PeriodColumn) {
		if df, err = repperiods.SplitIntoPeriods(df, cfg.PeriodDuration); err != nil {
			return err
		}
	}
	logger.Info("table loaded", zap.String("input", cfg.Input), zap.Int("rows", df.Nrow()), zap.Strings("columns", df.Names()))

	res, err := repperiods.Find(ctx, df, cfg.NRP,
		repperiods.WithMethod(method),
		repperiods.WithDistance(dist),
		repperiods.WithDropIncompletePeriod(!cfg.KeepIncomplete),
		repperiods.WithRestarts(cfg.Restarts),
		repperiods.WithSeed(cfg.Seed),
		repperiods.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	logger.Info("representative periods found",
		zap.Int("periods", res.Auxiliary.NPeriods),
		zap.Int("representatives", cfg.NRP),
		zap.Int("profile_rows", res.Profiles.Nrow()))

	var weights mat.Matrix = res.Weights
	var fitted *mat.Dense
	if cfg.Fit != "" {
		wt, err := repperiods.ParseWeightType(cfg.Fit)
		if err != nil {
			return err
		}
		if fitted, err = res.FitWeights(repperiods.WithWeightType(wt)); err != nil {
			return err
		}
		weights = fitted
	}

	if err := writeTable(cfg.OutProfiles, res.Profiles); err != nil {
		return err
	}
	if err := writeTable(cfg.OutWeights, weightTable(weights)); err != nil {
		return err
	}
	logger.Info("results written", zap.String("profiles", cfg.OutProfiles), zap.String("weights", cfg.OutWeights))

	if cfg.SQLite == "" {
		return nil
	}
	db, err := store.Open(ctx, cfg.SQLite)
	if err != nil {
		return err
	}
	defer db.Close()
	id, err := db.SaveRun(ctx, store.Run{Method: method, Distance: dist, Result: res, Fitted: fitted})
	if err != nil {
		return err
	}
	logger.Info("run recorded", zap.String("sqlite", cfg.SQLite), zap.String("run_id", id))
	return nil
}

func readTable(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open input: %w", err)
	}
	defer f.Close()
	df := dataframe.ReadCSV(f)
	if df.Err != nil {
		return df, fmt.Errorf("failed to read %s: %w", path, df.Err)
	}
	return df, nil
}

func writeTable(path string, df dataframe.DataFrame) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", path, err)
	}
	if err := df.WriteCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return f.Close()
}

// weightTable lists the nonzero entries of w as period, rep_period, weight.
func weightTable(w mat.Matrix) dataframe.DataFrame {
	var (
		periods, reps []int
		values        []float64
	)
	rows, cols := w.Dims()
	for i := range rows {
		for j := range cols {
			if v := w.At(i, j); v != 0 {
				periods = append(periods, i+1)
				reps = append(reps, j+1)
				values = append(values, v)
			}
		}
	}
	return dataframe.New(
		series.New(periods, series.Int, repperiods.PeriodColumn),
		series.New(reps, series.Int, repperiods.RepPeriodColumn),
		series.New(values, series.Float, "weight"),
	)
}
