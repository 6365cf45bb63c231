package simulation

import (
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"time"
)

// LedgerHeader is the stable column order of WriteLedger.
var LedgerHeader = []string{
	"index",
	"timestamp",
	"irradiance",
	"temperature",
	"load_kw",
	"price_import",
	"solar_kw",
	"period",
	"dispatch_mode",
	"vpp_active",
	"action",
	"target_kw",
	"battery_kw",
	"charged_kwh",
	"discharged_kwh",
	"loss_kwh",
	"soc_start_kwh",
	"soc_end_kwh",
	"soc_pct",
	"grid_net_kw",
	"import_kwh",
	"export_kwh",
	"import_cost",
	"export_revenue",
	"net_cost",
	"cum_net_cost",
}

func WriteLedgerCSV(path string, ledger []LedgerRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := WriteLedger(f, ledger); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func WriteLedger(out io.Writer, ledger []LedgerRow) error {
	w := csv.NewWriter(out)
	if err := w.Write(LedgerHeader); err != nil {
		return err
	}

	for _, r := range ledger {
		row := []string{
			strconv.Itoa(r.Index),
			fmtTime(r.Timestamp),
			fmtFloat(r.IrradianceWm2),
			fmtFloat(r.TemperatureC),
			fmtFloat(r.LoadKW),
			fmtFloat(r.PriceImport),
			fmtFloat(r.SolarKW),
			string(r.Period),
			string(r.Mode),
			strconv.FormatBool(r.VPPActive),
			string(r.Action),
			fmtFloat(r.TargetKW),
			fmtFloat(r.BatteryKW),
			fmtFloat(r.ChargedKWh),
			fmtFloat(r.DischargedKWh),
			fmtFloat(r.LossKWh),
			fmtFloat(r.SOCStartKWh),
			fmtFloat(r.SOCEndKWh),
			fmtFloat(r.SOCPct),
			fmtFloat(r.GridNetKW),
			fmtFloat(r.ImportKWh),
			fmtFloat(r.ExportKWh),
			fmtFloat(r.ImportCost),
			fmtFloat(r.ExportRevenue),
			fmtFloat(r.NetCost),
			fmtFloat(r.CumNetCost),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func fmtTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func fmtFloat(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}
