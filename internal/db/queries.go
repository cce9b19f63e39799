package db

import (
	"database/sql"
	"fmt"
)

const detailedQuery = `
SELECT
    p.id, p.alpha, p.segment_seconds, p.quantize,
    r.id, r.run_id, r.param_id,
    r.segment_length, r.bits, r.capacity, r.skipped,
    r.snr, r.psnr, r.mse, r.ber, r.success, r.extracted,
    r.margin_mean, r.margin_std
FROM results r
JOIN params p ON r.param_id = p.id
`

// Results returns every result of a run ordered by segment duration, then alpha
func (d *DB) Results(runID string) ([]*DetailedResult, error) {
	return d.queryDetailed(detailedQuery+"WHERE r.run_id = ? ORDER BY p.segment_seconds, p.alpha", runID)
}

// BestAlphas returns, per segment duration, the smallest alpha that succeeded in a run
func (d *DB) BestAlphas(runID string) ([]*DetailedResult, error) {
	return d.queryDetailed(detailedQuery+`
WHERE r.run_id = ? AND r.success = 1 AND p.alpha = (
    SELECT MIN(p2.alpha) FROM results r2
    JOIN params p2 ON r2.param_id = p2.id
    WHERE r2.run_id = r.run_id AND r2.success = 1 AND p2.segment_seconds = p.segment_seconds
)
ORDER BY p.segment_seconds`, runID)
}

func (d *DB) queryDetailed(query string, args ...any) ([]*DetailedResult, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query: %w", err)
	}
	defer rows.Close()

	var results []*DetailedResult
	for rows.Next() {
		var (
			r         DetailedResult
			snr, psnr sql.NullFloat64
		)
		err := rows.Scan(
			&r.Param.ID,
			&r.Alpha,
			&r.SegmentSeconds,
			&r.Quantize,
			&r.Result.ID,
			&r.RunID,
			&r.ParamID,
			&r.SegmentLength,
			&r.Bits,
			&r.Capacity,
			&r.Skipped,
			&snr,
			&psnr,
			&r.MSE,
			&r.BER,
			&r.Success,
			&r.Extracted,
			&r.MarginMean,
			&r.MarginStd,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan: %w", err)
		}
		r.SNR = nanFloat(snr)
		r.PSNR = nanFloat(psnr)
		results = append(results, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate: %w", err)
	}
	return results, nil
}
