package db

import (
	"database/sql"
	"math"
)

// nullFloat stores NaN as NULL. Infinities are kept as SQLite REALs.
func nullFloat(v float64) sql.NullFloat64 {
	if math.IsNaN(v) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

// nanFloat reads NULL back as NaN
func nanFloat(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
