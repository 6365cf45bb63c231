package analysis

import (
	"math"
	"time"

	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/simulation"

	"github.com/jinzhu/now"
	"github.com/samber/lo"
)

// Summary condenses a run into the figures shown to users.
type Summary struct {
	Strategy string    `json:"strategy"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
	Days     float64   `json:"days"`

	Totals simulation.Totals `json:"totals"`

	// SelfSufficiency is the share of load not met by grid imports.
	SelfSufficiency float64 `json:"self_sufficiency"`
	// SelfConsumption is the share of solar output not exported.
	SelfConsumption float64 `json:"self_consumption"`
	AvgDailyNetCost float64 `json:"avg_daily_net_cost"`
	FinalSOCPct     float64 `json:"final_soc_pct"`

	Prices PriceStats `json:"prices"`

	VPPDischargeKWh    float64 `json:"vpp_discharge_kwh"`
	NormalDischargeKWh float64 `json:"normal_discharge_kwh"`

	Monthly      []MonthlyMix   `json:"monthly"`
	Daily        []DailyBattery `json:"daily"`
	Hourly       []HourlyMean   `json:"hourly"`
	SOCHistogram []SOCBucket    `json:"soc_histogram"`
}

// MonthlyMix splits the energy supplied to the house in one month between
// solar, battery discharge and grid import.
type MonthlyMix struct {
	Month      time.Time `json:"month"`
	SolarKWh   float64   `json:"solar_kwh"`
	BatteryKWh float64   `json:"battery_kwh"`
	GridKWh    float64   `json:"grid_kwh"`
	SolarPct   float64   `json:"solar_pct"`
	BatteryPct float64   `json:"battery_pct"`
	GridPct    float64   `json:"grid_pct"`
}

// DailyBattery is one calendar day of battery discharge.
type DailyBattery struct {
	Day                time.Time `json:"day"`
	VPPHours           float64   `json:"vpp_hours"`
	VPPDischargeKWh    float64   `json:"vpp_discharge_kwh"`
	NormalDischargeKWh float64   `json:"normal_discharge_kwh"`
}

// HourlyMean is the average power at one hour of day.
type HourlyMean struct {
	Hour    int     `json:"hour"`
	SolarKW float64 `json:"solar_kw"`
	LoadKW  float64 `json:"load_kw"`
}

// SOCBucket counts the hours the battery ended an interval in
// [LowPct, HighPct). The last bucket includes 100.
type SOCBucket struct {
	LowPct  float64 `json:"low_pct"`
	HighPct float64 `json:"high_pct"`
	Hours   float64 `json:"hours"`
}

const socBucketPct = 10

// Summarize aggregates a finished run. Calendar grouping uses each row's
// own timestamp location.
func Summarize(res *simulation.Result) Summary {
	s := Summary{
		Totals:       res.Totals,
		SOCHistogram: make([]SOCBucket, 100/socBucketPct),
	}
	s.Strategy = res.Strategy
	for i := range s.SOCHistogram {
		s.SOCHistogram[i] = SOCBucket{LowPct: float64(i * socBucketPct), HighPct: float64((i + 1) * socBucketPct)}
	}
	if len(res.Ledger) == 0 {
		return s
	}

	const dt = model.IntervalHours
	ledger := res.Ledger
	s.Start = ledger[0].Timestamp
	s.End = ledger[len(ledger)-1].Timestamp.Add(model.IntervalMinutes * time.Minute)
	s.Days = float64(len(ledger)) / model.IntervalsPerDay
	s.AvgDailyNetCost = res.Totals.NetCost / s.Days
	s.FinalSOCPct = ledger[len(ledger)-1].SOCPct

	if t := res.Totals; t.LoadKWh > 0 {
		s.SelfSufficiency = 1 - t.ImportKWh/t.LoadKWh
	}
	if t := res.Totals; t.SolarKWh > 0 {
		s.SelfConsumption = 1 - math.Min(t.ExportKWh, t.SolarKWh)/t.SolarKWh
	}

	s.Prices = ComputePriceStats(lo.Map(ledger, func(r simulation.LedgerRow, _ int) float64 { return r.PriceImport }))

	vpp := lo.Filter(ledger, func(r simulation.LedgerRow, _ int) bool { return r.VPPActive })
	s.VPPDischargeKWh = lo.SumBy(vpp, func(r simulation.LedgerRow) float64 { return r.DischargedKWh })
	s.NormalDischargeKWh = res.Totals.DischargedKWh - s.VPPDischargeKWh

	s.Monthly = monthlyMix(ledger, dt)
	s.Daily = dailyBattery(ledger, dt)
	s.Hourly = hourlyMeans(ledger)

	for _, r := range ledger {
		i := int(r.SOCPct / socBucketPct)
		if i >= len(s.SOCHistogram) {
			i = len(s.SOCHistogram) - 1
		}
		if i < 0 {
			i = 0
		}
		s.SOCHistogram[i].Hours += dt
	}
	return s
}

func monthlyMix(ledger []simulation.LedgerRow, dt float64) []MonthlyMix {
	var out []MonthlyMix
	for _, r := range ledger {
		month := now.With(r.Timestamp).BeginningOfMonth()
		if len(out) == 0 || !out[len(out)-1].Month.Equal(month) {
			out = append(out, MonthlyMix{Month: month})
		}
		m := &out[len(out)-1]
		m.SolarKWh += r.SolarKW * dt
		m.BatteryKWh += r.DischargedKWh
		m.GridKWh += r.ImportKWh
	}
	for i := range out {
		m := &out[i]
		total := m.SolarKWh + m.BatteryKWh + m.GridKWh
		if total == 0 {
			continue
		}
		m.SolarPct = m.SolarKWh / total * 100
		m.BatteryPct = m.BatteryKWh / total * 100
		m.GridPct = m.GridKWh / total * 100
	}
	return out
}

func dailyBattery(ledger []simulation.LedgerRow, dt float64) []DailyBattery {
	var out []DailyBattery
	for _, r := range ledger {
		day := now.With(r.Timestamp).BeginningOfDay()
		if len(out) == 0 || !out[len(out)-1].Day.Equal(day) {
			out = append(out, DailyBattery{Day: day})
		}
		d := &out[len(out)-1]
		if r.VPPActive {
			d.VPPHours += dt
			d.VPPDischargeKWh += r.DischargedKWh
		} else {
			d.NormalDischargeKWh += r.DischargedKWh
		}
	}
	return out
}

func hourlyMeans(ledger []simulation.LedgerRow) []HourlyMean {
	groups := lo.GroupBy(ledger, func(r simulation.LedgerRow) int { return r.Timestamp.Hour() })
	out := make([]HourlyMean, 0, len(groups))
	for h := 0; h < 24; h++ {
		rows, ok := groups[h]
		if !ok {
			continue
		}
		n := float64(len(rows))
		out = append(out, HourlyMean{
			Hour:    h,
			SolarKW: lo.SumBy(rows, func(r simulation.LedgerRow) float64 { return r.SolarKW }) / n,
			LoadKW:  lo.SumBy(rows, func(r simulation.LedgerRow) float64 { return r.LoadKW }) / n,
		})
	}
	return out
}
