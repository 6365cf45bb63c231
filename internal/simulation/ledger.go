package simulation

import (
	"time"

	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/tariff"
)

// LedgerRow is one row of per-interval output.
// This is the primary artifact for "what happened" in a simulation.
type LedgerRow struct {
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`

	// Inputs as used: a missing irradiance reads 0, a missing temperature 25.
	IrradianceWm2 float64 `json:"irradiance"`
	TemperatureC  float64 `json:"temperature"`
	LoadKW        float64 `json:"load_kw"`
	PriceImport   float64 `json:"price_import"`

	SolarKW float64 `json:"solar_kw"`

	Period    tariff.Period      `json:"period"`
	Mode      model.DispatchMode `json:"dispatch_mode"`
	VPPActive bool               `json:"vpp_active"`
	Action    model.Action       `json:"action"`

	TargetKW  float64 `json:"target_kw"`
	BatteryKW float64 `json:"battery_kw"`

	ChargedKWh    float64 `json:"charged_kwh"`
	DischargedKWh float64 `json:"discharged_kwh"`
	LossKWh       float64 `json:"loss_kwh"`

	SOCStartKWh float64 `json:"soc_start_kwh"`
	SOCEndKWh   float64 `json:"soc_end_kwh"`
	SOCPct      float64 `json:"soc_pct"`

	GridNetKW float64 `json:"grid_net_kw"`

	ImportKWh     float64 `json:"import_kwh"`
	ExportKWh     float64 `json:"export_kwh"`
	ImportCost    float64 `json:"import_cost"`
	ExportRevenue float64 `json:"export_revenue"`
	NetCost       float64 `json:"net_cost"`
	CumNetCost    float64 `json:"cum_net_cost"`
}

// Totals aggregates a ledger. Energies are kWh; costs are in the tariff's
// currency.
type Totals struct {
	Intervals     int     `json:"intervals"`
	SolarKWh      float64 `json:"solar_kwh"`
	LoadKWh       float64 `json:"load_kwh"`
	ImportKWh     float64 `json:"import_kwh"`
	ExportKWh     float64 `json:"export_kwh"`
	ChargedKWh    float64 `json:"charged_kwh"`
	DischargedKWh float64 `json:"discharged_kwh"`
	LossKWh       float64 `json:"loss_kwh"`
	ImportCost    float64 `json:"import_cost"`
	ExportRevenue float64 `json:"export_revenue"`
	NetCost       float64 `json:"net_cost"`
	VPPIntervals  int     `json:"vpp_intervals"`
	Cycles        float64 `json:"cycles"`
}

func (t *Totals) add(r LedgerRow, dtHours float64) {
	t.Intervals++
	t.SolarKWh += r.SolarKW * dtHours
	t.LoadKWh += r.LoadKW * dtHours
	t.ImportKWh += r.ImportKWh
	t.ExportKWh += r.ExportKWh
	t.ChargedKWh += r.ChargedKWh
	t.DischargedKWh += r.DischargedKWh
	t.LossKWh += r.LossKWh
	t.ImportCost += r.ImportCost
	t.ExportRevenue += r.ExportRevenue
	t.NetCost += r.NetCost
	if r.VPPActive {
		t.VPPIntervals++
	}
}

type Result struct {
	Strategy    string      `json:"strategy"`
	Ledger      []LedgerRow `json:"ledger"`
	Totals      Totals      `json:"totals"`
	FinalSOCKWh float64     `json:"final_soc_kwh"`
}
