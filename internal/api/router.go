// Package api wires the HTTP handlers into a gin router.
package api

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"solar-battery-sim/internal/api/handlers"
	"solar-battery-sim/internal/api/middleware"
	"solar-battery-sim/internal/api/models"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/store"

	"github.com/gin-gonic/gin"
)

// Options configures NewRouter.
type Options struct {
	Store store.Store
	// Catalog may be nil to disable dataset requests.
	Catalog    *data.Catalog
	Cache      *data.DatasetCache
	BatteryDir string
	// StaticDir holds a built web UI served for non-API routes. Empty or
	// missing disables it.
	StaticDir string
	// Pick overrides the random load profile choice.
	Pick data.ProfilePicker
}

func NewRouter(o Options) *gin.Engine {
	router := gin.New()

	// Apply middleware
	router.Use(middleware.Logger())
	router.Use(middleware.CORS())
	router.Use(middleware.ErrorHandler())

	// Initialize handlers
	simHandler := handlers.NewSimulationHandler(o.Store, o.Catalog, o.Cache, o.BatteryDir)
	simHandler.Pick = o.Pick
	streamHandler := handlers.NewStreamHandler(o.Store)
	batteryHandler := handlers.NewBatteryHandler(o.BatteryDir)
	strategyHandler := handlers.NewStrategyHandler()
	datasetHandler := handlers.NewDatasetHandler(o.Catalog)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API routes
	v1 := router.Group("/api/v1")
	{
		v1.POST("/simulations", simHandler.RunSimulation)
		v1.GET("/simulations", simHandler.ListSimulations)
		v1.POST("/simulations/compare", simHandler.CompareSimulations)
		v1.GET("/simulations/:id", simHandler.GetSimulation)
		v1.GET("/simulations/:id/ledger", simHandler.GetLedger)
		v1.GET("/simulations/:id/chart", simHandler.GetChart)
		v1.GET("/simulations/:id/stream", streamHandler.StreamLedger)

		v1.GET("/batteries", batteryHandler.ListBatteries)
		v1.GET("/strategies", strategyHandler.ListStrategies)

		v1.GET("/datasets/locations", datasetHandler.ListLocations)
		v1.GET("/datasets/points", datasetHandler.ListPoints)
		v1.GET("/datasets/years", datasetHandler.ListYears)
	}

	serveStatic(router, o.StaticDir)
	return router
}

func serveStatic(router *gin.Engine, staticDir string) {
	notFound := func(c *gin.Context) {
		c.JSON(http.StatusNotFound, models.ErrorResponse{
			Error: models.ErrorDetail{Code: models.CodeNotFound, Message: "Not found"},
		})
	}
	if staticDir == "" {
		router.NoRoute(notFound)
		return
	}
	if _, err := os.Stat(staticDir); err != nil {
		log.Default().Info("static directory not found, skipping static file serving", "dir", staticDir)
		router.NoRoute(notFound)
		return
	}

	// Serve static assets
	router.Static("/assets", filepath.Join(staticDir, "assets"))
	router.StaticFile("/favicon.ico", filepath.Join(staticDir, "favicon.ico"))

	// Serve index.html for all non-API routes (SPA routing)
	index := filepath.Join(staticDir, "index.html")
	router.NoRoute(func(c *gin.Context) {
		if strings.HasPrefix(c.Request.URL.Path, "/api") {
			notFound(c)
			return
		}
		c.File(index)
	})
	log.Default().Info("serving static files", "dir", staticDir)
}
