package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"solar-battery-sim/internal/api"
	"solar-battery-sim/internal/api/handlers"
	"solar-battery-sim/internal/data"
	"solar-battery-sim/internal/log"
	"solar-battery-sim/internal/store"

	"github.com/NYTimes/gziphandler"
	"github.com/gin-gonic/gin"
	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
)

func main() {
	// get the port from PORT when running in a container
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	listenAddr := lflag.String("http-listen", ":"+port, "HTTP server listen address")
	datasetDir := lflag.String("dataset-dir", "", "Root of the <location>/<point> dataset tree (empty disables dataset requests)")
	batteryDir := lflag.String("battery-dir", "", "Battery preset directory (default $BATTERY_DIR or ./examples/batteries)")
	dbPath := lflag.String("db", "", "SQLite file for the run archive (empty keeps runs in memory)")
	staticDir := lflag.String("static-dir", "./web/dist", "Built web UI to serve for non-API routes")
	release := lflag.Bool("release", false, "Run gin in release mode")
	cacheTTL := lflag.Duration("cache-ttl", 30*time.Minute, "How long merged datasets stay cached")

	// parse flags
	lflag.Configure()

	var level slog.Level
	// lflag sets llog's level; mirror it onto slog
	switch llog.GetLevel() {
	case llog.DebugLevel:
		level = slog.LevelDebug
	case llog.InfoLevel:
		level = slog.LevelInfo
	case llog.WarnLevel:
		level = slog.LevelWarn
	case llog.ErrorLevel:
		level = slog.LevelError
	default:
		panic(fmt.Errorf("unknown log level: %s", llog.GetLevel().String()))
	}
	log.SetDefaultLogLevel(level)
	slog.SetDefault(log.Default())

	if *release {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	var st store.Store = store.NewMemory()
	if *dbPath != "" {
		sq, err := store.OpenSQLite(*dbPath)
		if err != nil {
			log.Ctx(ctx).Error("failed to open run archive", "db", *dbPath, "error", err)
			os.Exit(1)
		}
		st = sq
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Ctx(ctx).Error("failed to close run archive", "error", err)
		}
	}()

	var catalog *data.Catalog
	if *datasetDir != "" {
		catalog = data.NewCatalog(*datasetDir)
	}
	cache := data.NewDatasetCache(*cacheTTL, *cacheTTL/2)
	defer cache.Close()

	bdir := handlers.ResolveBatteryDir(*batteryDir)
	log.Ctx(ctx).Info("battery presets", "dir", bdir)

	router := api.NewRouter(api.Options{
		Store:      st,
		Catalog:    catalog,
		Cache:      cache,
		BatteryDir: bdir,
		StaticDir:  *staticDir,
	})

	if err := run(ctx, *listenAddr, compress(router)); err != nil {
		log.Ctx(ctx).Error("server failed", "error", err)
		os.Exit(1)
	}
	log.Ctx(ctx).Info("server exited cleanly")
}

// compress gzips responses except websocket upgrades, which must reach
// the router with a hijackable writer.
func compress(h http.Handler) http.Handler {
	gz := gziphandler.GzipHandler(h)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			h.ServeHTTP(w, r)
			return
		}
		gz.ServeHTTP(w, r)
	})
}

// run serves until ctx is canceled, then shuts down gracefully.
func run(ctx context.Context, addr string, h http.Handler) error {
	srv := &http.Server{
		Addr:        addr,
		Handler:     h,
		ReadTimeout: 15 * time.Second,
		// whole-dataset simulations can take a while
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  15 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		defer close(errChan)
		log.Ctx(ctx).Info("starting server", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Ctx(ctx).Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown failed: %w", err)
		}
		return nil
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	}
}
