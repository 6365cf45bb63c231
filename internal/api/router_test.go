package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

const batteryDir = "../../examples/batteries"

func newTestRouter(t *testing.T, catalog *data.Catalog) (*gin.Engine, store.Store) {
	t.Helper()
	st := store.NewMemory()
	cache := data.NewDatasetCache(time.Minute, 0)
	t.Cleanup(cache.Close)
	r := NewRouter(Options{
		Store:      st,
		Catalog:    catalog,
		Cache:      cache,
		BatteryDir: batteryDir,
		Pick:       func(files []string) string { return files[0] },
	})
	return r, st
}

func do(t *testing.T, r http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func twoDays() []data.RowRecord {
	return data.FromRows(data.Synthetic(time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), 2, 3))
}

func touConfig() map[string]any {
	return map[string]any{
		"battery_file": "home_10kwh",
		"solar":        map[string]any{"capacity_kw": 5},
		"tariff": map[string]any{
			"import_price": map[string]any{"source": "spot", "spot_scale": 0.001},
			"export_price": 0.05,
		},
		"dispatch": map[string]any{"name": "tou_vpp", "price_threshold": 800},
	}
}

func TestHealth(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRunSimulation_Rows(t *testing.T) {
	r, st := newTestRouter(t, nil)

	w := do(t, r, http.MethodPost, "/api/v1/simulations", map[string]any{
		"name":    "june",
		"config":  touConfig(),
		"rows":    twoDays(),
		"options": map[string]any{"include_ledger": true},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	require.NotEmpty(t, resp.ID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, "tou_vpp", resp.Summary.Strategy)
	assert.Equal(t, 2*288, resp.Summary.Totals.Intervals)
	require.Len(t, resp.Ledger, 2*288)
	assert.Equal(t, 0, resp.Ledger[0].Index)

	run, err := st.Get(context.Background(), resp.ID)
	require.NoError(t, err)
	assert.Equal(t, "june", run.Name)
	// The preset was merged and defaults applied before storing.
	assert.Empty(t, run.Config.BatteryFile)
	require.NotNil(t, run.Config.Battery.CapacityKWh)
	assert.Equal(t, 10.0, *run.Config.Battery.CapacityKWh)
	require.NotNil(t, run.Config.Battery.InitialSOC)
	assert.Equal(t, 0.5, *run.Config.Battery.InitialSOC)
}

func TestRunSimulation_LimitAndNoLedger(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/simulations", map[string]any{
		"config":  touConfig(),
		"rows":    twoDays(),
		"options": map[string]any{"limit_intervals": 12},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	assert.Equal(t, 12, resp.Summary.Totals.Intervals)
	assert.Nil(t, resp.Ledger)
}

func TestRunSimulation_Errors(t *testing.T) {
	r, _ := newTestRouter(t, nil)

	noThreshold := touConfig()
	noThreshold["dispatch"] = map[string]any{"name": "tou_vpp"}
	badPreset := touConfig()
	badPreset["battery_file"] = "../config.yaml"
	badRows := twoDays()
	badRows[5].LoadKW = nil

	tests := []struct {
		name   string
		body   any
		status int
		code   string
		field  string
	}{
		{"malformed", "not an object", http.StatusBadRequest, models.CodeInvalidRequest, ""},
		{"missing threshold", map[string]any{"config": noThreshold, "rows": twoDays()}, http.StatusBadRequest, models.CodeInvalidConfig, "dispatch.price_threshold"},
		{"preset path", map[string]any{"config": badPreset, "rows": twoDays()}, http.StatusBadRequest, models.CodeInvalidConfig, "battery_file"},
		{"missing load", map[string]any{"config": touConfig(), "rows": badRows}, http.StatusBadRequest, models.CodeInvalidInput, "load_kw"},
		{"no rows", map[string]any{"config": touConfig()}, http.StatusBadRequest, models.CodeInvalidInput, "rows"},
		{"dataset disabled", map[string]any{"config": touConfig(), "dataset": map[string]any{"location": "Bali"}}, http.StatusBadRequest, models.CodeInvalidRequest, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, r, http.MethodPost, "/api/v1/simulations", tt.body)
			require.Equal(t, tt.status, w.Code, w.Body.String())
			resp := decode[models.ErrorResponse](t, w)
			assert.Equal(t, tt.code, resp.Error.Code)
			if tt.field != "" {
				assert.Equal(t, tt.field, resp.Error.Details["field"])
			}
		})
	}

	list := decode[models.RunListResponse](t, do(t, r, http.MethodGet, "/api/v1/simulations", nil))
	assert.Empty(t, list.Runs, "failed runs are not stored")
}

func TestSimulationArchive(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/simulations", map[string]any{
		"name": "archived", "config": touConfig(), "rows": twoDays(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[models.SimulationResponse](t, w).ID

	t.Run("list", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/simulations", nil)
		require.Equal(t, http.StatusOK, w.Code)
		list := decode[models.RunListResponse](t, w)
		require.Len(t, list.Runs, 1)
		assert.Equal(t, id, list.Runs[0].ID)
		assert.Equal(t, "archived", list.Runs[0].Name)
		assert.Equal(t, 576, list.Runs[0].Intervals)
	})

	t.Run("get", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"?include_ledger=true", nil)
		require.Equal(t, http.StatusOK, w.Code)
		resp := decode[models.SimulationResponse](t, w)
		assert.Len(t, resp.Ledger, 576)
	})

	t.Run("ledger page", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/ledger?offset=10&limit=5", nil)
		require.Equal(t, http.StatusOK, w.Code)
		page := decode[models.LedgerResponse](t, w)
		assert.Equal(t, 576, page.Total)
		assert.Equal(t, 10, page.Offset)
		require.Len(t, page.Ledger, 5)
		assert.Equal(t, 10, page.Ledger[0].Index)

		w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/ledger?offset=1000", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, decode[models.LedgerResponse](t, w).Ledger)
	})

	t.Run("ledger csv", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/ledger?format=csv&limit=3", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")
		lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
		require.Len(t, lines, 4)
		assert.True(t, strings.HasPrefix(lines[0], "index,timestamp,"))
	})

	t.Run("bad query", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/ledger?limit=-1", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		w = do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/ledger?format=xml", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("chart", func(t *testing.T) {
		w := do(t, r, http.MethodGet, "/api/v1/simulations/"+id+"/chart?days=1", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "archived")
	})

	t.Run("not found", func(t *testing.T) {
		for _, path := range []string{"", "/ledger", "/chart", "/stream"} {
			w := do(t, r, http.MethodGet, "/api/v1/simulations/missing"+path, nil)
			require.Equal(t, http.StatusNotFound, w.Code, path)
			assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, w).Error.Code)
		}
	})
}

func TestCompareSimulations(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/simulations/compare", map[string]any{
		"rows":        twoDays(),
		"base_config": touConfig(),
		"variations": []map[string]any{
			{"name": "vpp", "config": map[string]any{}},
			{"name": "no battery power", "config": map[string]any{
				"battery": map[string]any{"max_charge_kw": 0, "max_discharge_kw": 0},
			}},
			{"name": "self", "config": map[string]any{"dispatch": map[string]any{"name": "self_consumption"}}},
		},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.CompareResponse](t, w)
	require.Len(t, resp.Comparison, 3)
	for i, c := range resp.Comparison {
		assert.Equal(t, i+1, c.Rank)
		if i > 0 {
			assert.LessOrEqual(t, resp.Comparison[i-1].Summary.Totals.NetCost, c.Summary.Totals.NetCost)
		}
	}
	assert.InDelta(t, 0, resp.Comparison[2].SavingsVsWorst, 1e-12)
	names := map[string]string{}
	for _, c := range resp.Comparison {
		names[c.Name] = c.Summary.Strategy
		if c.Name == "no battery power" {
			// Zero ratings are kept, not replaced by the 0.5C default.
			assert.Zero(t, c.Summary.Totals.ChargedKWh)
			assert.Zero(t, c.Summary.Totals.DischargedKWh)
		}
	}
	assert.Equal(t, map[string]string{"vpp": "tou_vpp", "no battery power": "tou_vpp", "self": "self_consumption"}, names)
}

func TestCompareSimulations_BadVariation(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/simulations/compare", map[string]any{
		"rows":        twoDays(),
		"base_config": touConfig(),
		"variations": []map[string]any{
			{"name": "ok", "config": map[string]any{}},
			{"name": "broken", "config": map[string]any{"battery": map[string]any{"min_soc": 0.95}}},
		},
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	resp := decode[models.ErrorResponse](t, w)
	assert.Equal(t, models.CodeInvalidConfig, resp.Error.Code)
	assert.Contains(t, resp.Error.Message, `"broken"`)

	w = do(t, r, http.MethodPost, "/api/v1/simulations/compare", map[string]any{
		"rows": twoDays(), "base_config": touConfig(), "variations": []any{},
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestListBatteries(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/v1/batteries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Batteries []models.BatteryInfo `json:"batteries"`
	}](t, w)
	require.Len(t, resp.Batteries, 3)
	byID := map[string]models.BatteryInfo{}
	for _, b := range resp.Batteries {
		byID[b.ID] = b
	}
	require.Contains(t, byID, "home_10kwh")
	assert.Equal(t, 10.0, byID["home_10kwh"].Specs.CapacityKWh)
	assert.Equal(t, 5.0, byID["home_10kwh"].Specs.MaxDischargeKW)

	empty := NewRouter(Options{Store: store.NewMemory(), BatteryDir: filepath.Join(t.TempDir(), "none")})
	w = do(t, empty, http.MethodGet, "/api/v1/batteries", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"batteries":[]}`, w.Body.String())
}

func TestListStrategies(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/v1/strategies", nil)
	require.Equal(t, http.StatusOK, w.Code)
	resp := decode[struct {
		Strategies []models.StrategyInfo `json:"strategies"`
	}](t, w)
	var names []string
	for _, s := range resp.Strategies {
		names = append(names, s.Name)
	}
	assert.Equal(t, []string{"tou_vpp", "self_consumption", "schedule"}, names)
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

// datasetRoot holds one day of 5-minute data for Bali/Kuta in 2023.
func datasetRoot(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	var solar, load, price strings.Builder
	solar.WriteString("GlobHor,T_Amb\n")
	load.WriteString("load_profile\n")
	price.WriteString("timestamp,harga\n")
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 288; i++ {
		irr := 0.0
		if i >= 72 && i < 216 {
			irr = 800
		}
		fmt.Fprintf(&solar, "%g,%d\n", irr, 28)
		fmt.Fprintf(&load, "%g\n", 1.5)
		fmt.Fprintf(&price, "%s,%d\n", start.Add(time.Duration(i)*5*time.Minute).Format("2006-01-02 15:04:05"), 500)
	}
	writeFile(t, filepath.Join(root, "Bali", "Kuta", "pv.csv"), solar.String())
	writeFile(t, filepath.Join(root, "Bali", "Price", "2023.csv"), price.String())
	writeFile(t, filepath.Join(root, "load_profile", "house.csv"), load.String())
	return root
}

func TestDatasets(t *testing.T) {
	r, _ := newTestRouter(t, data.NewCatalog(datasetRoot(t)))

	w := do(t, r, http.MethodGet, "/api/v1/datasets/locations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"locations":["Bali"],"load_profiles":["house.csv"],"count":1}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/datasets/points?location=Bali", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"location":"Bali","points":["Kuta"]}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/datasets/years?location=Bali", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"location":"Bali","years":[2023]}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/datasets/points", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, models.CodeMissingParam, decode[models.ErrorResponse](t, w).Error.Code)

	w = do(t, r, http.MethodGet, "/api/v1/datasets/points?location=Java", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"location":"Java","points":[]}`, w.Body.String())

	w = do(t, r, http.MethodGet, "/api/v1/datasets/years?location=..", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = do(t, r, http.MethodPost, "/api/v1/simulations", map[string]any{
		"config":  touConfig(),
		"dataset": map[string]any{"location": "Bali", "point": "Kuta", "start_year": 2023, "end_year": 2023},
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	resp := decode[models.SimulationResponse](t, w)
	assert.Equal(t, 288, resp.Summary.Totals.Intervals)
	assert.InDelta(t, 1.5*24, resp.Summary.Totals.LoadKWh, 1e-9)

	w = do(t, r, http.MethodPost, "/api/v1/simulations", map[string]any{
		"config":  touConfig(),
		"dataset": map[string]any{"location": "Bali", "point": "Kuta", "start_year": 2030, "end_year": 2031},
	})
	assert.Equal(t, http.StatusNotFound, w.Code, w.Body.String())
}

func TestDatasets_Disabled(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/v1/datasets/locations", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStreamLedger(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodPost, "/api/v1/simulations", map[string]any{
		"config": touConfig(), "rows": twoDays(),
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	id := decode[models.SimulationResponse](t, w).ID

	server := httptest.NewServer(r)
	defer server.Close()
	wsURL := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/simulations/" + id + "/stream"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	read := func() models.Envelope {
		t.Helper()
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var env models.Envelope
		require.NoError(t, conn.ReadJSON(&env))
		return env
	}

	env := read()
	assert.Equal(t, models.TypeRunInfo, env.Type)

	var days []string
	total := 0
	for i := 0; i < 2; i++ {
		env = read()
		require.Equal(t, models.TypeLedgerBatch, env.Type)
		var batch models.LedgerBatchPayload
		require.NoError(t, json.Unmarshal(env.Payload, &batch))
		assert.Equal(t, total, batch.Offset)
		total += len(batch.Rows)
		days = append(days, batch.Day)
	}
	assert.Equal(t, []string{"2023-06-01", "2023-06-02"}, days)
	assert.Equal(t, 576, total)

	env = read()
	assert.Equal(t, models.TypeRunSummary, env.Type)

	_, _, err = conn.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "%v", err)
}

func TestCORSPreflight(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/simulations", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Less(t, w.Code, 300)
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestNoRoute(t *testing.T) {
	r, _ := newTestRouter(t, nil)
	w := do(t, r, http.MethodGet, "/api/v1/nope", nil)
	require.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, models.CodeNotFound, decode[models.ErrorResponse](t, w).Error.Code)
}

func TestStaticSPA(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "index.html"), "<html>app</html>")
	r := NewRouter(Options{Store: store.NewMemory(), StaticDir: dir})

	w := do(t, r, http.MethodGet, "/runs/abc", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "app")

	w = do(t, r, http.MethodGet, "/api/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
