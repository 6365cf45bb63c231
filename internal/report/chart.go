package report

import (
	"fmt"
	"io"
	"math"

	"solar-battery-sim/internal/analysis"
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/simulation"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// DefaultDays is how much of the time series the interval charts show.
const DefaultDays = 5

const timeLabel = "01-02 15:04"

// RenderHTML writes a page of charts for a run: power balance, battery
// state of charge, grid exchange for the first days of the ledger, and the
// monthly energy mix from the summary. days <= 0 plots the whole ledger.
func RenderHTML(w io.Writer, title string, ledger []simulation.LedgerRow, summary analysis.Summary, days int) error {
	if days > 0 && days*model.IntervalsPerDay < len(ledger) {
		ledger = ledger[:days*model.IntervalsPerDay]
	}

	xAxis := make([]string, len(ledger))
	var solar, load, battery, soc, grid []opts.LineData
	for i, r := range ledger {
		xAxis[i] = r.Timestamp.Format(timeLabel)
		solar = append(solar, opts.LineData{Value: round3(r.SolarKW)})
		load = append(load, opts.LineData{Value: round3(r.LoadKW)})
		battery = append(battery, opts.LineData{Value: round3(r.BatteryKW)})
		soc = append(soc, opts.LineData{Value: round3(r.SOCPct)})
		grid = append(grid, opts.LineData{Value: round3(r.GridNetKW)})
	}

	powerChart := charts.NewLine()
	powerChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    title,
			Subtitle: "Power balance (kW)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
		charts.WithDataZoomOpts(opts.DataZoom{Type: "slider"}),
	)
	powerChart.SetXAxis(xAxis).
		AddSeries("Solar", solar).
		AddSeries("Load", load).
		AddSeries("Battery", battery)

	socChart := charts.NewLine()
	socChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Battery SoC (%)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
	)
	socChart.SetXAxis(xAxis).
		AddSeries("SoC", soc)

	gridChart := charts.NewLine()
	gridChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Grid",
			Subtitle: "positive imports, negative exports (kW)",
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
	)
	gridChart.SetXAxis(xAxis).
		AddSeries("Grid", grid)

	months := make([]string, len(summary.Monthly))
	var pv, bat, imp []opts.BarData
	for i, m := range summary.Monthly {
		months[i] = m.Month.Format("Jan 2006")
		pv = append(pv, opts.BarData{Value: round3(m.SolarKWh)})
		bat = append(bat, opts.BarData{Value: round3(m.BatteryKWh)})
		imp = append(imp, opts.BarData{Value: round3(m.GridKWh)})
	}
	mixChart := charts.NewBar()
	mixChart.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title: "Monthly energy source (kWh)",
			Subtitle: fmt.Sprintf("self-sufficiency %.1f%%, net cost %.2f",
				summary.SelfSufficiency*100, summary.Totals.NetCost),
		}),
		charts.WithTooltipOpts(opts.Tooltip{Show: true, Trigger: "axis"}),
	)
	stack := charts.WithBarChartOpts(opts.BarChart{Stack: "supply"})
	mixChart.SetXAxis(months).
		AddSeries("PV", pv, stack).
		AddSeries("Battery discharge", bat, stack).
		AddSeries("Grid import", imp, stack)

	page := components.NewPage()
	page.SetLayout(components.PageFlexLayout)
	page.PageTitle = title

	page.AddCharts(powerChart, socChart, gridChart, mixChart)

	return page.Render(w)
}

func round3(x float64) float64 {
	return math.Round(x*1000) / 1000
}
