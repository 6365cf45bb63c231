package handlers

import (
	"net/http"
	"os"
	"path/filepath"

	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/config"
	"solar-battery-sim/internal/log"

	"github.com/gin-gonic/gin"
)

// BatteryHandler handles battery-related requests
type BatteryHandler struct {
	batteryDir string
}

// ResolveBatteryDir picks the preset directory: dir if set, then
// $BATTERY_DIR, then ./examples/batteries. The result is absolute when
// possible.
func ResolveBatteryDir(dir string) string {
	if dir == "" {
		dir = os.Getenv("BATTERY_DIR")
	}
	if dir == "" {
		dir = filepath.Join("examples", "batteries")
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return dir
}

// NewBatteryHandler creates a new battery handler
func NewBatteryHandler(batteryDir string) *BatteryHandler {
	return &BatteryHandler{batteryDir: batteryDir}
}

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	l := log.Ctx(c.Request.Context())
	batteries := []models.BatteryInfo{}

	presets, skipped, err := config.ListPresets(h.batteryDir)
	if err != nil {
		// A missing preset directory is an empty listing.
		l.Warn("read battery directory", "dir", h.batteryDir, "err", err)
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}
	for path, err := range skipped {
		l.Warn("skipping battery file", "file", path, "err", err)
	}

	for _, p := range presets {
		// Show the ratings a run would use.
		cfg := config.Config{Battery: p.Battery}
		cfg.ApplyDefaults()
		b := cfg.Battery
		batteries = append(batteries, models.BatteryInfo{
			ID:   p.ID,
			Name: b.Name,
			File: p.File,
			Specs: models.BatterySpecs{
				CapacityKWh:         *b.CapacityKWh,
				RoundTripEfficiency: *b.RoundTripEfficiency,
				MaxChargeKW:         *b.MaxChargeKW,
				MaxDischargeKW:      *b.MaxDischargeKW,
			},
		})
	}
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}
