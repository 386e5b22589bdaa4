package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/yyyoichi/repperiods"
	"gonum.org/v1/gonum/mat"
)

const (
	KindClustered = "clustered"
	KindFitted    = "fitted"
)

// Run is one clustering outcome together with the settings that produced it.
type Run struct {
	Method   repperiods.Method
	Distance repperiods.Distance
	Result   *repperiods.ClusteringResult
	// Fitted optionally holds weights refitted with FitWeights.
	Fitted    *mat.Dense
	CreatedAt time.Time
}

// SaveRun stores a run in a single transaction and returns its id.
func (d *DB) SaveRun(ctx context.Context, run Run) (string, error) {
	res := run.Result
	id := uuid.NewString()
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}
	keyColumns, err := json.Marshal(res.Auxiliary.KeyColumns)
	if err != nil {
		return "", fmt.Errorf("failed to encode key columns: %w", err)
	}
	_, nRP := res.Weights.Dims()

	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, created_at, method, distance, n_rp, n_periods, period_duration, last_period_duration, key_columns)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, run.CreatedAt.UTC(), run.Method.String(), run.Distance.String(), nRP,
		res.Auxiliary.NPeriods, res.Auxiliary.PeriodDuration, res.Auxiliary.LastPeriodDuration, string(keyColumns),
	); err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	if err := insertProfiles(ctx, tx, id, res); err != nil {
		return "", err
	}
	if err := insertWeights(ctx, tx, id, KindClustered, res.Weights); err != nil {
		return "", err
	}
	if run.Fitted != nil {
		if err := insertWeights(ctx, tx, id, KindFitted, run.Fitted); err != nil {
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

func insertProfiles(ctx context.Context, tx *sql.Tx, runID string, res *repperiods.ClusteringResult) error {
	df := res.Profiles
	reps, err := df.Col(repperiods.RepPeriodColumn).Int()
	if err != nil {
		return fmt.Errorf("failed to read representative periods: %w", err)
	}
	timesteps, err := df.Col(repperiods.TimestepColumn).Int()
	if err != nil {
		return fmt.Errorf("failed to read timesteps: %w", err)
	}
	values := df.Col(repperiods.ValueColumn).Float()
	keys := make(map[string][]string)
	for _, name := range res.Auxiliary.KeyColumns {
		if name != repperiods.TimestepColumn {
			keys[name] = df.Col(name).Records()
		}
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO rep_periods (run_id, rep_period, timestep, keys, value) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare profile insert: %w", err)
	}
	defer stmt.Close()
	row := make(map[string]string, len(keys))
	for i := range reps {
		for name, rec := range keys {
			row[name] = rec[i]
		}
		encoded, err := json.Marshal(row)
		if err != nil {
			return fmt.Errorf("failed to encode keys: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, runID, reps[i], timesteps[i], string(encoded), values[i]); err != nil {
			return fmt.Errorf("failed to insert profile: %w", err)
		}
	}
	return nil
}

func insertWeights(ctx context.Context, tx *sql.Tx, runID, kind string, w mat.Matrix) error {
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO weights (run_id, kind, period, rep_period, weight) VALUES (?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare weight insert: %w", err)
	}
	defer stmt.Close()
	rows, cols := w.Dims()
	for i := range rows {
		for j := range cols {
			v := w.At(i, j)
			if v == 0 {
				continue
			}
			if _, err := stmt.ExecContext(ctx, runID, kind, i+1, j+1, v); err != nil {
				return fmt.Errorf("failed to insert weight: %w", err)
			}
		}
	}
	return nil
}

// LoadWeights returns the nonzero weights of a run ordered by period.
func (d *DB) LoadWeights(ctx context.Context, runID, kind string) ([]repperiods.WeightEntry, error) {
	rows, err := d.db.QueryContext(ctx,
		"SELECT period, rep_period, weight FROM weights WHERE run_id = ? AND kind = ? ORDER BY period, rep_period",
		runID, kind,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query weights: %w", err)
	}
	defer rows.Close()

	var out []repperiods.WeightEntry
	for rows.Next() {
		var e repperiods.WeightEntry
		if err := rows.Scan(&e.Period, &e.RepPeriod, &e.Weight); err != nil {
			return nil, fmt.Errorf("failed to scan weight: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// CountProfiles returns the number of profile rows stored for a run.
func (d *DB) CountProfiles(ctx context.Context, runID string) (int, error) {
	var n int
	err := d.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM rep_periods WHERE run_id = ?", runID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count profiles: %w", err)
	}
	return n, nil
}
