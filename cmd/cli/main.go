package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"solar-battery-sim/internal/analysis"
	"solar-battery-sim/internal/config"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/report"
	"solar-battery-sim/internal/simulation"
	"solar-battery-sim/internal/store"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx := context.Background()
	var err error
	switch os.Args[1] {
	case "simulate":
		err = cmdSimulate(ctx, os.Args[2:])
	case "compare":
		err = cmdCompare(ctx, os.Args[2:])
	case "stats":
		err = cmdStats(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Ctx(ctx).Error(os.Args[1]+" failed", "error", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --data rows.csv --config examples/config.yaml --out results/ledger.csv [--chart results/run.html]")
	fmt.Println("  cli simulate --dataset-dir data --location Bali --point Kuta --from 2022 --to 2023 --config examples/config.yaml")
	fmt.Println("  cli compare --data rows.csv --config examples/config.yaml,examples/config_schedule.yaml")
	fmt.Println("  cli stats --data rows.csv [--threshold 800]")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - --data accepts CSV or JSON rows (timestamp, irradiance, temperature, load_kw, price_import)")
	fmt.Println("  - simulate writes one ledger row per 5-minute interval with the dispatch mode and grid flows")
}

// inputFlags selects rows either from a file or from a dataset tree.
type inputFlags struct {
	data        *string
	datasetDir  *string
	location    *string
	point       *string
	from        *int
	to          *int
	loadProfile *string
	n           *int
}

func registerInput(fs *flag.FlagSet) *inputFlags {
	return &inputFlags{
		data:        fs.String("data", "", "Path to a CSV or JSON row file"),
		datasetDir:  fs.String("dataset-dir", "", "Root of a <location>/<point> dataset tree (instead of --data)"),
		location:    fs.String("location", "", "Dataset location"),
		point:       fs.String("point", "", "Dataset measurement point"),
		from:        fs.Int("from", 0, "First dataset year"),
		to:          fs.Int("to", 0, "Last dataset year (default --from)"),
		loadProfile: fs.String("load-profile", "", "Load profile file name (default: random)"),
		n:           fs.Int("n", 0, "Optional: limit to first N intervals (0=all)"),
	}
}

func (in *inputFlags) load() ([]model.TimeSeriesRow, error) {
	var rows []model.TimeSeriesRow
	switch {
	case *in.data != "" && *in.datasetDir != "":
		return nil, fmt.Errorf("--data and --dataset-dir are exclusive")
	case *in.data != "":
		var err error
		if rows, err = data.LoadRows(*in.data); err != nil {
			return nil, err
		}
	case *in.datasetDir != "":
		to := *in.to
		if to == 0 {
			to = *in.from
		}
		ds, err := data.NewCatalog(*in.datasetDir).Merge(data.MergeRequest{
			Location:    *in.location,
			Point:       *in.point,
			StartYear:   *in.from,
			EndYear:     to,
			LoadProfile: *in.loadProfile,
		}, nil)
		if err != nil {
			return nil, err
		}
		fmt.Printf("Merged %s/%s years=%v load_profile=%s\n", *in.location, *in.point, ds.Years, ds.LoadProfile)
		rows = ds.Rows
	default:
		return nil, fmt.Errorf("one of --data or --dataset-dir is required")
	}
	if *in.n > 0 && *in.n < len(rows) {
		rows = rows[:*in.n]
	}
	return rows, nil
}

func cmdSimulate(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	in := registerInput(fs)
	cfgPath := fs.String("config", "", "Path to YAML config")
	outPath := fs.String("out", "results/ledger.csv", "Output CSV path")
	chartPath := fs.String("chart", "", "Optional path to write an HTML chart")
	days := fs.Int("days", report.DefaultDays, "Days shown in the chart time series")
	dbPath := fs.String("save", "", "Optional SQLite file to archive the run in")
	name := fs.String("name", "", "Run name used in the chart and archive")
	asJSON := fs.Bool("json", false, "Print the summary as JSON")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	rows, err := in.load()
	if err != nil {
		return err
	}
	cfg, err := config.Load(*cfgPath)
	if err != nil {
		return err
	}
	cfg.ApplyDefaults()
	params, err := cfg.Params()
	if err != nil {
		return err
	}

	res, err := simulation.Run(ctx, rows, params)
	if err != nil {
		return err
	}
	summary := analysis.Summarize(res)

	// ensure output dir exists
	if err := os.MkdirAll(filepath.Dir(*outPath), 0o755); err != nil {
		return err
	}
	if err := simulation.WriteLedgerCSV(*outPath, res.Ledger); err != nil {
		return err
	}
	fmt.Printf("Wrote %d rows to %s\n", len(res.Ledger), *outPath)

	title := *name
	if title == "" {
		title = strings.TrimSuffix(filepath.Base(*cfgPath), filepath.Ext(*cfgPath))
	}
	if *chartPath != "" {
		if err := writeChart(*chartPath, title, res, summary, *days); err != nil {
			return err
		}
		fmt.Printf("Wrote chart to %s\n", *chartPath)
	}
	if *dbPath != "" {
		id, err := archive(ctx, *dbPath, &store.Run{Name: title, Config: *cfg, Summary: summary, Ledger: res.Ledger})
		if err != nil {
			return err
		}
		fmt.Printf("Archived run %s in %s\n", id, *dbPath)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(summary)
	return nil
}

func writeChart(path, title string, res *simulation.Result, summary analysis.Summary, days int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := report.RenderHTML(f, title, res.Ledger, summary, days); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func archive(ctx context.Context, path string, run *store.Run) (string, error) {
	st, err := store.OpenSQLite(path)
	if err != nil {
		return "", err
	}
	defer st.Close()
	if err := st.Save(ctx, run); err != nil {
		return "", err
	}
	return run.ID, nil
}

func printSummary(s analysis.Summary) {
	t := s.Totals
	fmt.Printf("Strategy=%s Days=%.1f Intervals=%d\n", s.Strategy, s.Days, t.Intervals)
	fmt.Printf("Solar=%.2f kWh Load=%.2f kWh Import=%.2f kWh Export=%.2f kWh\n", t.SolarKWh, t.LoadKWh, t.ImportKWh, t.ExportKWh)
	fmt.Printf("Battery charged=%.2f kWh discharged=%.2f kWh (VPP %.2f kWh) losses=%.2f kWh cycles=%.2f\n",
		t.ChargedKWh, t.DischargedKWh, s.VPPDischargeKWh, t.LossKWh, t.Cycles)
	fmt.Printf("Import cost=%.2f Export revenue=%.2f Net cost=%.2f (%.2f/day)\n", t.ImportCost, t.ExportRevenue, t.NetCost, s.AvgDailyNetCost)
	fmt.Printf("Self-sufficiency=%.1f%% Self-consumption=%.1f%% VPP intervals=%d Final SoC=%.1f%%\n",
		100*s.SelfSufficiency, 100*s.SelfConsumption, t.VPPIntervals, s.FinalSOCPct)
}

func cmdCompare(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("compare", flag.ExitOnError)
	in := registerInput(fs)
	cfgPaths := fs.String("config", "", "Comma-separated YAML config paths, one scenario each")
	_ = fs.Parse(args)

	paths := splitPaths(*cfgPaths)
	if len(paths) == 0 {
		fmt.Println("--config is required")
		os.Exit(2)
	}
	rows, err := in.load()
	if err != nil {
		return err
	}

	scenarios := make([]analysis.Scenario, 0, len(paths))
	for _, p := range paths {
		cfg, err := config.Load(p)
		if err != nil {
			return err
		}
		params, err := cfg.Params()
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		res, err := simulation.Run(ctx, rows, params)
		if err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
		scenarios = append(scenarios, analysis.Scenario{Name: filepath.Base(p), Result: res})
	}

	ranked := analysis.RankScenarios(scenarios)
	fmt.Printf("%-4s %-28s %-18s %-12s %-12s %-10s %-10s\n", "rank", "scenario", "strategy", "net_cost", "savings", "import", "self_suff")
	for _, r := range ranked {
		fmt.Printf(
			"%-4d %-28s %-18s %-12.2f %-12.2f %-10.2f %-10.1f\n",
			r.Rank,
			r.Name,
			r.Summary.Strategy,
			r.Summary.Totals.NetCost,
			r.SavingsVsWorst,
			r.Summary.Totals.ImportKWh,
			100*r.Summary.SelfSufficiency,
		)
	}
	return nil
}

func cmdStats(args []string) error {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	in := registerInput(fs)
	threshold := fs.Float64("threshold", 0, "Count intervals priced above this (0=off)")
	_ = fs.Parse(args)

	rows, err := in.load()
	if err != nil {
		return err
	}
	s := analysis.ComputeInputStats(rows, *threshold)
	fmt.Printf("Rows=%d Days=%.1f Gaps=%d %s .. %s\n", s.Rows, s.Days, s.Gaps, s.Start.Format("2006-01-02 15:04"), s.End.Format("2006-01-02 15:04"))
	fmt.Printf("%-12s %-8s %-8s %-10s %-10s %-10s\n", "series", "count", "missing", "min", "mean", "max")
	for _, c := range []struct {
		name string
		s    analysis.SeriesStats
	}{
		{"irradiance", s.Irradiance},
		{"temperature", s.Temperature},
		{"load_kw", s.Load},
	} {
		fmt.Printf("%-12s %-8d %-8d %-10.2f %-10.2f %-10.2f\n", c.name, c.s.Count, c.s.Missing, c.s.Min, c.s.Mean, c.s.Max)
	}
	p := s.Prices
	fmt.Printf("price        min=%.2f p05=%.2f mean=%.2f p95=%.2f max=%.2f spread=%.2f\n", p.Min, p.P05, p.Mean, p.P95, p.Max, p.SpreadP95P05)
	fmt.Printf("Insolation=%.2f kWh/m2 Load=%.2f kWh", s.InsolationKWhM2, s.LoadKWh)
	if *threshold > 0 {
		fmt.Printf(" Intervals above %.2f=%d", *threshold, s.SpikeIntervals)
	}
	fmt.Println()
	return nil
}

func splitPaths(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
