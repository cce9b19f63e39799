package db

const schema = `
-- One sweep over one input signal
CREATE TABLE IF NOT EXISTS runs (
    id TEXT PRIMARY KEY,
    source TEXT NOT NULL,
    sample_rate INTEGER NOT NULL,
    samples INTEGER NOT NULL,
    text TEXT NOT NULL,
    created_at TEXT NOT NULL
);

-- Embedding parameters
CREATE TABLE IF NOT EXISTS params (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    alpha REAL NOT NULL,
    segment_seconds REAL NOT NULL,
    quantize INTEGER NOT NULL,
    UNIQUE(alpha, segment_seconds, quantize)
);

CREATE TABLE IF NOT EXISTS results (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    run_id TEXT NOT NULL,
    param_id INTEGER NOT NULL,

    segment_length INTEGER NOT NULL,
    bits INTEGER NOT NULL,
    capacity INTEGER NOT NULL,
    skipped BOOLEAN NOT NULL,

    snr REAL,
    psnr REAL,
    mse REAL NOT NULL,
    ber REAL NOT NULL,
    success BOOLEAN NOT NULL,
    extracted TEXT NOT NULL,
    margin_mean REAL NOT NULL,
    margin_std REAL NOT NULL,

    FOREIGN KEY (run_id) REFERENCES runs(id) ON DELETE CASCADE,
    FOREIGN KEY (param_id) REFERENCES params(id) ON DELETE CASCADE,
    UNIQUE(run_id, param_id)
);

CREATE INDEX IF NOT EXISTS idx_results_run ON results(run_id);
CREATE INDEX IF NOT EXISTS idx_results_success ON results(success);
CREATE INDEX IF NOT EXISTS idx_params_alpha ON params(alpha, segment_seconds);
`
