package main

import (
	"flag"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
)

// Config is read from RPFIND_* environment variables first; flags override.
type Config struct {
	Input          string `envconfig:"INPUT" validate:"required"`
	NRP            int    `envconfig:"N_RP" default:"1" validate:"min=1"`
	PeriodDuration int    `envconfig:"PERIOD_DURATION" validate:"min=0"`
	Method         string `envconfig:"METHOD" default:"kmeans" validate:"oneof=kmeans kmedoids"`
	Distance       string `envconfig:"DISTANCE" default:"sqeuclidean" validate:"oneof=sqeuclidean euclidean cityblock chebyshev cosine"`
	KeepIncomplete bool   `envconfig:"KEEP_INCOMPLETE"`
	Restarts       int    `envconfig:"RESTARTS" default:"1" validate:"min=1"`
	Seed           uint64 `envconfig:"SEED" default:"1234567890"`
	Fit            string `envconfig:"FIT" validate:"omitempty,oneof=convex conical conical_bounded"`
	OutProfiles    string `envconfig:"OUT_PROFILES" default:"rep_periods.csv" validate:"required"`
	OutWeights     string `envconfig:"OUT_WEIGHTS" default:"weights.csv" validate:"required"`
	SQLite         string `envconfig:"SQLITE"`
	Debug          bool   `envconfig:"DEBUG"`
}

func loadConfig(args []string) (Config, error) {
	var cfg Config
	if err := envconfig.Process("rpfind", &cfg); err != nil {
		return cfg, fmt.Errorf("failed to read environment: %w", err)
	}

	fs := flag.NewFlagSet("rpfind", flag.ContinueOnError)
	fs.StringVar(&cfg.Input, "in", cfg.Input, "long-format CSV with timestep, value and optional period and key columns")
	fs.IntVar(&cfg.NRP, "n-rp", cfg.NRP, "number of representative periods")
	fs.IntVar(&cfg.PeriodDuration, "period-duration", cfg.PeriodDuration, "timesteps per period; 0 keeps existing periods")
	fs.StringVar(&cfg.Method, "method", cfg.Method, "kmeans | kmedoids")
	fs.StringVar(&cfg.Distance, "distance", cfg.Distance, "sqeuclidean | euclidean | cityblock | chebyshev | cosine")
	fs.BoolVar(&cfg.KeepIncomplete, "keep-incomplete", cfg.KeepIncomplete, "keep an incomplete last period as its own representative")
	fs.IntVar(&cfg.Restarts, "restarts", cfg.Restarts, "independently seeded clustering runs")
	fs.Uint64Var(&cfg.Seed, "seed", cfg.Seed, "random seed")
	fs.StringVar(&cfg.Fit, "fit", cfg.Fit, "refit weights: convex | conical | conical_bounded")
	fs.StringVar(&cfg.OutProfiles, "out-profiles", cfg.OutProfiles, "output CSV of representative period profiles")
	fs.StringVar(&cfg.OutWeights, "out-weights", cfg.OutWeights, "output CSV of period weights")
	fs.StringVar(&cfg.SQLite, "sqlite", cfg.SQLite, "optional SQLite database to record the run in")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "development logging")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
