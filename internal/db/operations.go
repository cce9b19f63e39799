package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// InsertRun inserts a run, assigning a new UUID and timestamp when they are empty
func (d *DB) InsertRun(run *Run) (string, error) {
	if run.ID == "" {
		run.ID = uuid.NewString()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	_, err := d.db.Exec(
		"INSERT INTO runs (id, source, sample_rate, samples, text, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		run.ID, run.Source, run.SampleRate, run.Samples, run.Text, run.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return run.ID, nil
}

// GetRun retrieves a run by ID
func (d *DB) GetRun(id string) (*Run, error) {
	var (
		r         Run
		createdAt string
	)
	err := d.db.QueryRow(
		"SELECT id, source, sample_rate, samples, text, created_at FROM runs WHERE id = ?", id,
	).Scan(&r.ID, &r.Source, &r.SampleRate, &r.Samples, &r.Text, &createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	r.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("failed to parse run time: %w", err)
	}
	return &r, nil
}

// InsertParam inserts or gets existing parameters
func (d *DB) InsertParam(alpha, segmentSeconds float64, quantize int) (int64, error) {
	// Try to get existing
	var id int64
	err := d.db.QueryRow(
		"SELECT id FROM params WHERE alpha = ? AND segment_seconds = ? AND quantize = ?",
		alpha, segmentSeconds, quantize,
	).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query param: %w", err)
	}

	// Insert new
	result, err := d.db.Exec(
		"INSERT INTO params (alpha, segment_seconds, quantize) VALUES (?, ?, ?)",
		alpha, segmentSeconds, quantize,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert param: %w", err)
	}
	return result.LastInsertId()
}

// InsertResult inserts a result (or updates if already exists)
func (d *DB) InsertResult(result *Result) (int64, error) {
	// Check if result already exists
	var existingID int64
	err := d.db.QueryRow(
		"SELECT id FROM results WHERE run_id = ? AND param_id = ?",
		result.RunID, result.ParamID,
	).Scan(&existingID)

	if err == nil {
		// Update existing
		_, err = d.db.Exec(`
			UPDATE results SET
				segment_length = ?,
				bits = ?,
				capacity = ?,
				skipped = ?,
				snr = ?,
				psnr = ?,
				mse = ?,
				ber = ?,
				success = ?,
				extracted = ?,
				margin_mean = ?,
				margin_std = ?
			WHERE id = ?`,
			result.SegmentLength,
			result.Bits,
			result.Capacity,
			result.Skipped,
			nullFloat(result.SNR),
			nullFloat(result.PSNR),
			result.MSE,
			result.BER,
			result.Success,
			result.Extracted,
			result.MarginMean,
			result.MarginStd,
			existingID,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to update result: %w", err)
		}
		return existingID, nil
	}

	if err != sql.ErrNoRows {
		return 0, fmt.Errorf("failed to query existing result: %w", err)
	}

	// Insert new
	res, err := d.db.Exec(`
		INSERT INTO results (
			run_id, param_id,
			segment_length, bits, capacity, skipped,
			snr, psnr, mse, ber, success, extracted,
			margin_mean, margin_std
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		result.RunID,
		result.ParamID,
		result.SegmentLength,
		result.Bits,
		result.Capacity,
		result.Skipped,
		nullFloat(result.SNR),
		nullFloat(result.PSNR),
		result.MSE,
		result.BER,
		result.Success,
		result.Extracted,
		result.MarginMean,
		result.MarginStd,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert result: %w", err)
	}
	return res.LastInsertId()
}

// Runs returns every run, newest first
func (d *DB) Runs() ([]*Run, error) {
	rows, err := d.db.Query("SELECT id FROM runs ORDER BY created_at DESC")
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		ids = append(ids, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate: %w", err)
	}

	runs := make([]*Run, 0, len(ids))
	for _, id := range ids {
		r, err := d.GetRun(id)
		if err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, nil
}
