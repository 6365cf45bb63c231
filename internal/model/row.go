package model

import (
	"math"
	"time"
)

const (
	// IntervalMinutes is the fixed spacing of input rows.
	IntervalMinutes = 5
	// IntervalHours is the integration step in hours.
	IntervalHours = float64(IntervalMinutes) / 60
	// IntervalsPerDay is the number of rows in one calendar day.
	IntervalsPerDay = 24 * 60 / IntervalMinutes
)

// TimeSeriesRow is one 5-minute input interval.
//
// IrradianceWm2 and TemperatureC may be NaN when the source had a gap;
// the solar model reads that as zero irradiance and 25 C respectively.
// PriceImport is in the same unit as the dispatch price threshold.
type TimeSeriesRow struct {
	Timestamp     time.Time
	IrradianceWm2 float64
	TemperatureC  float64
	LoadKW        float64
	PriceImport   float64
}

// ValidateRows checks that every row carries the fields the engine needs.
// Ordering and spacing are the caller's responsibility and are not checked.
func ValidateRows(rows []TimeSeriesRow) error {
	if len(rows) == 0 {
		return &SchemaError{Row: -1, Field: "rows", Reason: "no rows"}
	}
	for i, r := range rows {
		if r.Timestamp.IsZero() {
			return &SchemaError{Row: i, Field: "timestamp", Reason: "missing"}
		}
		if !finite(r.LoadKW) {
			return &SchemaError{Row: i, Field: "load_kw", Reason: "missing or not finite"}
		}
		if !finite(r.PriceImport) {
			return &SchemaError{Row: i, Field: "price_import", Reason: "missing or not finite"}
		}
		// NaN marks a gap; an infinite reading is a broken source.
		if math.IsInf(r.IrradianceWm2, 0) {
			return &SchemaError{Row: i, Field: "irradiance", Reason: "not finite"}
		}
		if math.IsInf(r.TemperatureC, 0) {
			return &SchemaError{Row: i, Field: "temperature", Reason: "not finite"}
		}
	}
	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}
