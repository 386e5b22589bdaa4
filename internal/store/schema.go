package store

const schema = `
-- Clustering runs
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    created_at TIMESTAMP NOT NULL,
    method TEXT NOT NULL,
    distance TEXT NOT NULL,
    n_rp INTEGER NOT NULL,
    n_periods INTEGER NOT NULL,
    period_duration INTEGER NOT NULL,
    last_period_duration INTEGER NOT NULL,
    key_columns TEXT NOT NULL
);

-- Representative period profiles, non-timestep keys as a JSON object
CREATE TABLE IF NOT EXISTS rep_periods (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    rep_period INTEGER NOT NULL,
    timestep INTEGER NOT NULL,
    keys TEXT NOT NULL,
    value REAL NOT NULL,
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

-- Period weights; kind is 'clustered' or 'fitted'
CREATE TABLE IF NOT EXISTS weights (
    run_id TEXT NOT NULL,
    kind TEXT NOT NULL,
    period INTEGER NOT NULL,
    rep_period INTEGER NOT NULL,
    weight REAL NOT NULL,
    PRIMARY KEY (run_id, kind, period, rep_period),
    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rep_periods_run ON rep_periods(run_id, rep_period);
`
