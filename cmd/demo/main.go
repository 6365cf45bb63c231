package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"solar-battery-sim/internal/analysis"
	"solar-battery-sim/internal/config"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/simulation"
)

// Demo:
// - Generate a few days of synthetic weather, load and spot prices
// - Run the configured dispatch strategy over them
// - Print the evening intervals where the VPP override fires
func main() {
	cfgPath := flag.String("config", "", "Path to YAML config (optional)")
	days := flag.Int("days", 3, "Number of synthetic days")
	seed := flag.Int64("seed", 1, "Random seed for the synthetic series")
	start := flag.String("start", "2024-01-01", "First day (YYYY-MM-DD)")
	show := flag.Int("show", 12, "Number of ledger rows to print")
	outCSV := flag.String("out", "", "Optional path to write ledger CSV (e.g. results/demo.csv)")
	flag.Parse()

	ctx := context.Background()
	if err := run(ctx, *cfgPath, *start, *days, *seed, *show, *outCSV); err != nil {
		log.Ctx(ctx).Error("demo failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfgPath, startDay string, days int, seed int64, show int, outCSV string) error {
	first, err := time.Parse("2006-01-02", startDay)
	if err != nil {
		return fmt.Errorf("--start: %w", err)
	}

	// Defaults (can be overridden via --config): prices are raw spot
	// values around 450-950, so scale them to a per-kWh rate.
	threshold := 800.0
	cfg := &config.Config{
		Tariff: config.TariffConfig{
			ImportPrice: config.ImportPriceConfig{SpotScale: 0.001},
			ExportPrice: 0.05,
		},
		Dispatch: config.DispatchConfig{PriceThreshold: &threshold},
	}
	if cfgPath != "" {
		if cfg, err = config.Load(cfgPath); err != nil {
			return err
		}
	}
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	rows := data.Synthetic(first, days, seed)
	res, err := simulation.Run(ctx, rows, params)
	if err != nil {
		return err
	}

	fmt.Printf("Simulated %d intervals from %s\n", len(rows), first.Format("2006-01-02"))
	fmt.Printf("Strategy=%s\n", res.Strategy)
	fmt.Printf("Starting SOC=%.2f kWh\n\n", res.Ledger[0].SOCStartKWh)

	// Rows around the first VPP dispatch are the interesting ones.
	from := 0
	for i, r := range res.Ledger {
		if r.VPPActive {
			from = max(0, i-show/2)
			break
		}
	}
	for i := from; i < min(from+show, len(res.Ledger)); i++ {
		r := res.Ledger[i]
		fmt.Printf(
			"%s price=%7.1f  period=%-8s mode=%-16s pv=%5.2f load=%5.2f batt=%6.2f  soc=%5.2f→%5.2f  grid=%6.2f  cost=%7.4f\n",
			r.Timestamp.Format("2006-01-02 15:04"),
			r.PriceImport,
			string(r.Period),
			string(r.Mode),
			r.SolarKW,
			r.LoadKW,
			r.BatteryKW,
			r.SOCStartKWh,
			r.SOCEndKWh,
			r.GridNetKW,
			r.NetCost,
		)
	}

	if outCSV != "" {
		if err := simulation.WriteLedgerCSV(outCSV, res.Ledger); err != nil {
			return err
		}
		fmt.Printf("\nWrote CSV: %s\n", outCSV)
	}

	s := analysis.Summarize(res)
	fmt.Printf("\nDone. Final SOC=%.2f kWh  VPP intervals=%d  Net cost=%.2f  Self-sufficiency=%.1f%%\n",
		res.FinalSOCKWh, res.Totals.VPPIntervals, res.Totals.NetCost, 100*s.SelfSufficiency)
	return nil
}
