package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"solar-battery-sim/internal/analysis"
	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/config"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/model"
	"solar-battery-sim/internal/report"
	"solar-battery-sim/internal/simulation"
	"solar-battery-sim/internal/store"

	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

const statusCompleted = "completed"

// SimulationHandler runs simulations and serves archived runs.
type SimulationHandler struct {
	store      store.Store
	catalog    *data.Catalog
	cache      *data.DatasetCache
	batteryDir string
	// Pick chooses a load profile when a dataset request names none.
	// nil picks at random.
	Pick data.ProfilePicker
}

// NewSimulationHandler creates a new simulation handler. catalog may be
// nil, in which case only inline rows are accepted.
func NewSimulationHandler(st store.Store, catalog *data.Catalog, cache *data.DatasetCache, batteryDir string) *SimulationHandler {
	return &SimulationHandler{
		store:      st,
		catalog:    catalog,
		cache:      cache,
		batteryDir: batteryDir,
	}
}

// RunSimulation handles POST /api/v1/simulations
func (h *SimulationHandler) RunSimulation(c *gin.Context) {
	var req models.SimulationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	ctx := c.Request.Context()

	rows, err := h.loadRows(req.Rows, req.Dataset, req.Options.LimitIntervals)
	if err != nil {
		respondErr(c, err)
		return
	}
	cfg, params, err := h.resolveConfig(req.Config)
	if err != nil {
		respondErr(c, err)
		return
	}

	res, err := simulation.Run(ctx, rows, params)
	if err != nil {
		respondErr(c, err)
		return
	}

	run := &store.Run{
		Name:    req.Name,
		Config:  cfg,
		Summary: analysis.Summarize(res),
		Ledger:  res.Ledger,
	}
	if err := h.store.Save(ctx, run); err != nil {
		respondErr(c, fmt.Errorf("save run: %w", err))
		return
	}
	log.Ctx(ctx).Info("simulation complete",
		"id", run.ID,
		"strategy", run.Summary.Strategy,
		"intervals", res.Totals.Intervals,
		"net_cost", res.Totals.NetCost,
	)

	resp := models.SimulationResponse{ID: run.ID, Status: statusCompleted, Summary: run.Summary}
	if req.Options.IncludeLedger {
		resp.Ledger = run.Ledger
	}
	c.JSON(http.StatusOK, resp)
}

// ListSimulations handles GET /api/v1/simulations
func (h *SimulationHandler) ListSimulations(c *gin.Context) {
	runs, err := h.store.List(c.Request.Context())
	if err != nil {
		respondErr(c, err)
		return
	}
	if runs == nil {
		runs = []store.RunInfo{}
	}
	c.JSON(http.StatusOK, models.RunListResponse{Runs: runs})
}

// GetSimulation handles GET /api/v1/simulations/:id
func (h *SimulationHandler) GetSimulation(c *gin.Context) {
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}
	resp := models.SimulationResponse{ID: run.ID, Status: statusCompleted, Summary: run.Summary}
	if c.Query("include_ledger") == "true" {
		resp.Ledger = run.Ledger
	}
	c.JSON(http.StatusOK, resp)
}

// GetLedger handles GET /api/v1/simulations/:id/ledger
//
// Query: offset, limit (0 = rest), format=json|csv.
func (h *SimulationHandler) GetLedger(c *gin.Context) {
	offset, err := queryInt(c, "offset")
	if err != nil {
		badRequest(c, err)
		return
	}
	limit, err := queryInt(c, "limit")
	if err != nil {
		badRequest(c, err)
		return
	}
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	ledger := page(run.Ledger, offset, limit)
	switch c.DefaultQuery("format", "json") {
	case "csv":
		c.Header("Content-Type", "text/csv; charset=utf-8")
		c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.csv"`, run.ID))
		c.Status(http.StatusOK)
		if err := simulation.WriteLedger(c.Writer, ledger); err != nil {
			log.Ctx(c.Request.Context()).Error("write ledger csv", "id", run.ID, "err", err)
		}
	case "json":
		c.JSON(http.StatusOK, models.LedgerResponse{
			ID:     run.ID,
			Total:  len(run.Ledger),
			Offset: offset,
			Ledger: ledger,
		})
	default:
		badRequest(c, fmt.Errorf("unknown format %q", c.Query("format")))
	}
}

// GetChart handles GET /api/v1/simulations/:id/chart
func (h *SimulationHandler) GetChart(c *gin.Context) {
	days := report.DefaultDays
	if c.Query("days") != "" {
		n, err := queryInt(c, "days")
		if err != nil || n < 1 {
			badRequest(c, fmt.Errorf("days must be a positive integer"))
			return
		}
		days = n
	}
	run, err := h.store.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondErr(c, err)
		return
	}

	title := run.Name
	if title == "" {
		title = run.ID
	}
	var buf bytes.Buffer
	if err := report.RenderHTML(&buf, title, run.Ledger, run.Summary, days); err != nil {
		respondErr(c, fmt.Errorf("render chart: %w", err))
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", buf.Bytes())
}

// CompareSimulations handles POST /api/v1/simulations/compare
func (h *SimulationHandler) CompareSimulations(c *gin.Context) {
	var req models.CompareRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	rows, err := h.loadRows(req.Rows, req.Dataset, req.Options.LimitIntervals)
	if err != nil {
		respondErr(c, err)
		return
	}

	// Resolve every variation before running any of them.
	params := make([]model.SimulationParams, len(req.Variations))
	for i, v := range req.Variations {
		_, p, err := h.resolveConfig(config.Merge(req.BaseConfig, v.Config))
		if err != nil {
			respondErr(c, fmt.Errorf("variation %q: %w", v.Name, err))
			return
		}
		params[i] = p
	}

	scenarios, err := runScenarios(c.Request.Context(), rows, req.Variations, params)
	if err != nil {
		respondErr(c, err)
		return
	}
	c.JSON(http.StatusOK, models.CompareResponse{Comparison: analysis.RankScenarios(scenarios)})
}

func runScenarios(ctx context.Context, rows []model.TimeSeriesRow, variations []models.SimulationVariant, params []model.SimulationParams) ([]analysis.Scenario, error) {
	scenarios := make([]analysis.Scenario, len(variations))
	g, ctx := errgroup.WithContext(ctx)
	for i := range variations {
		g.Go(func() error {
			res, err := simulation.Run(ctx, rows, params[i])
			if err != nil {
				return fmt.Errorf("variation %q: %w", variations[i].Name, err)
			}
			scenarios[i] = analysis.Scenario{Name: variations[i].Name, Result: res}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return scenarios, nil
}

// loadRows takes the input series from exactly one of records and ds.
func (h *SimulationHandler) loadRows(records []data.RowRecord, ds *data.MergeRequest, limit int) ([]model.TimeSeriesRow, error) {
	var rows []model.TimeSeriesRow
	switch {
	case len(records) > 0 && ds != nil:
		return nil, &model.SchemaError{Row: -1, Field: "rows", Reason: "give either rows or dataset, not both"}
	case len(records) > 0:
		var err error
		if rows, err = data.ToRows(records); err != nil {
			return nil, err
		}
	case ds != nil:
		if h.catalog == nil {
			return nil, errNoDatasets
		}
		merged, err := h.catalog.LoadCached(h.cache, *ds, h.Pick)
		if err != nil {
			return nil, err
		}
		rows = merged.Rows
	default:
		return nil, &model.SchemaError{Row: -1, Field: "rows", Reason: "no input rows"}
	}

	// Apply interval limit if specified
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows, nil
}

// resolveConfig merges the battery preset, applies defaults and converts
// to simulation parameters. The returned config is the one that ran.
func (h *SimulationHandler) resolveConfig(cfg config.Config) (config.Config, model.SimulationParams, error) {
	if strings.ContainsAny(cfg.BatteryFile, `/\`) {
		return cfg, model.SimulationParams{}, model.ConfigErrorf("battery_file", "must be a preset id, got %q", cfg.BatteryFile)
	}
	if err := cfg.ResolveBatteryFile(h.batteryDir); err != nil {
		return cfg, model.SimulationParams{}, err
	}
	cfg.ApplyDefaults()
	p, err := cfg.Params()
	return cfg, p, err
}

func queryInt(c *gin.Context, key string) (int, error) {
	s := c.Query(key)
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, errors.New(key + " must be a non-negative integer")
	}
	return n, nil
}

func page(ledger []simulation.LedgerRow, offset, limit int) []simulation.LedgerRow {
	if offset >= len(ledger) {
		return []simulation.LedgerRow{}
	}
	ledger = ledger[offset:]
	if limit > 0 && limit < len(ledger) {
		ledger = ledger[:limit]
	}
	return ledger
}
