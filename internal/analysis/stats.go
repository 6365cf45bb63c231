package analysis

import (
	"math"
	"sort"
	"time"

	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/solar"

	"gonum.org/v1/gonum/stat"
)

// PriceStats describes a price series. Percentiles interpolate linearly
// between order statistics.
type PriceStats struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	P05   float64 `json:"p05"`
	P95   float64 `json:"p95"`
	// SpreadP95P05 is a rough gauge of how much a battery can earn by
	// shifting energy in time.
	SpreadP95P05 float64 `json:"spread_p95_p05"`
}

func ComputePriceStats(prices []float64) PriceStats {
	p := PriceStats{Count: len(prices)}
	if len(prices) == 0 {
		return p
	}
	vals := append([]float64(nil), prices...)
	sort.Float64s(vals)

	p.Min = vals[0]
	p.Max = vals[len(vals)-1]
	p.Mean, p.Std = stat.MeanStdDev(vals, nil)
	if len(vals) == 1 {
		p.Std = 0
	}
	p.P05 = stat.Quantile(0.05, stat.LinInterp, vals, nil)
	p.P95 = stat.Quantile(0.95, stat.LinInterp, vals, nil)
	p.SpreadP95P05 = p.P95 - p.P05
	return p
}

// SeriesStats summarises one numeric input column. Missing values are
// counted and left out of the other figures.
type SeriesStats struct {
	Count   int     `json:"count"`
	Missing int     `json:"missing"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Mean    float64 `json:"mean"`
}

// InputStats describes a row set before it is simulated.
type InputStats struct {
	Start      time.Time   `json:"start"`
	End        time.Time   `json:"end"`
	Rows       int         `json:"rows"`
	Days       float64     `json:"days"`
	Gaps       int         `json:"gaps"`
	Irradiance SeriesStats `json:"irradiance"`
	// InsolationKWhM2 is the irradiance integrated over the series.
	InsolationKWhM2 float64     `json:"insolation_kwh_m2"`
	Temperature     SeriesStats `json:"temperature"`
	Load            SeriesStats `json:"load"`
	LoadKWh         float64     `json:"load_kwh"`
	Prices          PriceStats  `json:"prices"`
	// SpikeIntervals counts rows priced above threshold when one is given.
	SpikeIntervals int `json:"spike_intervals"`
}

// ComputeInputStats scans rows. Gaps counts consecutive rows not exactly
// one interval apart. threshold <= 0 disables spike counting.
func ComputeInputStats(rows []model.TimeSeriesRow, threshold float64) InputStats {
	s := InputStats{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}
	s.Start = rows[0].Timestamp
	s.End = rows[len(rows)-1].Timestamp
	s.Days = float64(len(rows)) / model.IntervalsPerDay

	irr := make([]float64, len(rows))
	temp := make([]float64, len(rows))
	load := make([]float64, len(rows))
	prices := make([]float64, len(rows))
	for i, r := range rows {
		irr[i], temp[i], load[i], prices[i] = r.IrradianceWm2, r.TemperatureC, r.LoadKW, r.PriceImport
		if i > 0 && r.Timestamp.Sub(rows[i-1].Timestamp) != model.IntervalMinutes*time.Minute {
			s.Gaps++
		}
		if threshold > 0 && r.PriceImport > threshold {
			s.SpikeIntervals++
		}
		if !math.IsNaN(r.IrradianceWm2) {
			s.InsolationKWhM2 += r.IrradianceWm2 / solar.StandardIrradiance * model.IntervalHours
		}
	}

	s.Irradiance = seriesStats(irr)
	s.Temperature = seriesStats(temp)
	s.Load = seriesStats(load)
	s.LoadKWh = s.Load.Mean * float64(s.Load.Count) * model.IntervalHours
	s.Prices = ComputePriceStats(prices)
	return s
}

func seriesStats(xs []float64) SeriesStats {
	s := SeriesStats{}
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if math.IsNaN(x) {
			s.Missing++
			continue
		}
		vals = append(vals, x)
	}
	s.Count = len(vals)
	if len(vals) == 0 {
		return s
	}
	s.Min, s.Max = vals[0], vals[0]
	for _, v := range vals[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	s.Mean = stat.Mean(vals, nil)
	return s
}
