package simulation

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/solar"
	"solar-battery-sim/internal/strategy"
	"solar-battery-sim/internal/tariff"
)

type Engine struct {
	params model.SimulationParams
	array  solar.Array
	tariff *tariff.Schedule
	strat  strategy.Strategy
}

// New validates params and builds the configured strategy. Every failure
// is a *model.ConfigError.
func New(params model.SimulationParams) (*Engine, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	strat, err := strategy.FromParams(params)
	if err != nil {
		return nil, err
	}
	return &Engine{
		params: params,
		array:  solar.New(params.Solar),
		tariff: tariff.New(params.Tariff),
		strat:  strat,
	}, nil
}

// Run validates params, builds an engine and runs it over rows.
func Run(ctx context.Context, rows []model.TimeSeriesRow, params model.SimulationParams) (*Result, error) {
	e, err := New(params)
	if err != nil {
		return nil, err
	}
	return e.Run(ctx, rows)
}

// Run simulates rows in order, one result row per input row. Rows must be
// sorted, gap-free and 5 minutes apart; that is not checked. Schema errors
// are returned before any row is simulated and never with a partial result.
//
// ctx only bounds the concurrent solar stage; the dispatch loop itself is
// sequential and runs to completion.
func (e *Engine) Run(ctx context.Context, rows []model.TimeSeriesRow) (*Result, error) {
	if err := model.ValidateRows(rows); err != nil {
		return nil, err
	}

	solarKW, err := e.array.Series(ctx, rows)
	if err != nil {
		return nil, fmt.Errorf("solar series: %w", err)
	}

	// A fresh battery per run: state of charge never leaks between runs.
	batt, err := model.NewBattery(e.params.Battery)
	if err != nil {
		return nil, err
	}

	const dt = model.IntervalHours
	ledger := make([]LedgerRow, 0, len(rows))
	var totals Totals
	cum := 0.0

	for idx, row := range rows {
		req := e.strat.Decide(strategy.Context{
			Index:   idx,
			Row:     row,
			SolarKW: solarKW[idx],
		})

		res, err := batt.ApplyDispatch(req, dt)
		if err != nil {
			return nil, fmt.Errorf("row %d apply dispatch: %w", idx, err)
		}

		gridNetKW := row.LoadKW - solarKW[idx] - res.PowerKW
		charge := e.tariff.Cost(row, gridNetKW, dt)
		cum += charge.NetCost

		r := LedgerRow{
			Index:     idx,
			Timestamp: row.Timestamp,

			IrradianceWm2: orDefault(row.IrradianceWm2, 0),
			TemperatureC:  orDefault(row.TemperatureC, solar.StandardTempC),
			LoadKW:        row.LoadKW,
			PriceImport:   row.PriceImport,

			SolarKW: solarKW[idx],

			Period:    e.tariff.Classify(model.ClockOf(row.Timestamp)),
			Mode:      req.Mode,
			VPPActive: req.Mode == model.ModeVPPDischarge,
			Action:    model.ActionFromPowerKW(res.PowerKW),

			TargetKW:  req.PowerKW,
			BatteryKW: res.PowerKW,

			ChargedKWh:    res.ChargedKWh,
			DischargedKWh: res.DischargedKWh,
			LossKWh:       res.LossKWh,

			SOCStartKWh: res.SOCStartKWh,
			SOCEndKWh:   res.SOCEndKWh,
			SOCPct:      res.SOCEndKWh / e.params.Battery.CapacityKWh * 100,

			GridNetKW: gridNetKW,

			ImportKWh:     charge.ImportKWh,
			ExportKWh:     charge.ExportKWh,
			ImportCost:    charge.ImportCost,
			ExportRevenue: charge.ExportRevenue,
			NetCost:       charge.NetCost,
			CumNetCost:    cum,
		}
		totals.add(r, dt)
		ledger = append(ledger, r)
	}
	totals.Cycles = batt.Cycles()

	log.Ctx(ctx).DebugContext(ctx, "simulation finished",
		slog.String("strategy", e.strat.Name()),
		slog.Int("rows", len(ledger)),
		slog.Float64("net_cost", totals.NetCost),
	)

	return &Result{
		Strategy:    e.strat.Name(),
		Ledger:      ledger,
		Totals:      totals,
		FinalSOCKWh: batt.SOCKWh(),
	}, nil
}

func orDefault(x, def float64) float64 {
	if math.IsNaN(x) {
		return def
	}
	return x
}
