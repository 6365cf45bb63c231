// Package tariff classifies intervals into time-of-use periods and prices
// grid exchange.
package tariff

import (
	"math"

	"solar-battery-sim/internal/model"
)

// Period is a time-of-use period.
type Period string

const (
	Offpeak  Period = "OFFPEAK"
	Peak     Period = "PEAK"
	Shoulder Period = "SHOULDER"
)

// Schedule applies a validated model.TariffParams.
type Schedule struct {
	params model.TariffParams
}

func New(params model.TariffParams) *Schedule {
	return &Schedule{params: params}
}

// Classify checks offpeak before peak; a time matching neither is shoulder.
func (s *Schedule) Classify(t model.ClockTime) Period {
	switch {
	case s.params.Offpeak.Contains(t):
		return Offpeak
	case s.params.Peak.Contains(t):
		return Peak
	default:
		return Shoulder
	}
}

// ImportRate is the price per kWh imported during row.
func (s *Schedule) ImportRate(row model.TimeSeriesRow) float64 {
	if s.params.ImportSource == model.PriceSourceSpot {
		return row.PriceImport * s.params.SpotScale
	}
	switch s.Classify(model.ClockOf(row.Timestamp)) {
	case Offpeak:
		return s.params.OffpeakRate
	case Peak:
		return s.params.PeakRate
	default:
		return s.params.ShoulderRate
	}
}

// ExportRate is the flat price per kWh exported.
func (s *Schedule) ExportRate() float64 {
	return s.params.ExportRate
}

// Charge is the billing outcome of one interval.
type Charge struct {
	ImportKWh     float64
	ExportKWh     float64
	ImportCost    float64
	ExportRevenue float64
	NetCost       float64
}

// Cost bills gridNetKW (positive = import) held for dtHours.
func (s *Schedule) Cost(row model.TimeSeriesRow, gridNetKW, dtHours float64) Charge {
	var c Charge
	c.ImportKWh = math.Max(0, gridNetKW) * dtHours
	c.ExportKWh = math.Max(0, -gridNetKW) * dtHours
	if c.ImportKWh > 0 {
		c.ImportCost = c.ImportKWh * s.ImportRate(row)
	}
	c.ExportRevenue = c.ExportKWh * s.params.ExportRate
	c.NetCost = c.ImportCost - c.ExportRevenue
	return c
}
