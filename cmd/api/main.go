package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/clinsight/clinic-analytics/internal/analytics"
	"github.com/clinsight/clinic-analytics/internal/api/router"
	appconfig "github.com/clinsight/clinic-analytics/internal/config"
	"github.com/clinsight/clinic-analytics/internal/dataset"
	"github.com/clinsight/clinic-analytics/internal/observability/metrics"
	"github.com/clinsight/clinic-analytics/pkg/logging"
)

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting clinic-analytics API server",
		"env", cfg.Env,
		"port", cfg.Port,
		"data_dir", cfg.DataDir,
	)

	registry := prometheus.NewRegistry()
	analyticsMetrics := metrics.NewAnalyticsMetrics(registry)

	loader := dataset.NewLoader(cfg.DataDir, dataset.Files{
		Appointments: cfg.AppointmentsFile,
		Patients:     cfg.PatientsFile,
		Slots:        cfg.SlotsFile,
	}, logger)
	store := dataset.NewStore(loader, analyticsMetrics, logger)

	// An unreadable data directory at boot is not fatal: the server stays
	// up and reports the load error until /reload_data succeeds.
	if err := store.Reload(); err != nil {
		logger.Error("initial data load failed", "error", err)
	}

	engine := analytics.NewEngine(store)
	handler := analytics.NewHandler(engine, store, analyticsMetrics, logger)

	r := router.New(&router.Config{
		Logger:             logger,
		AnalyticsHandler:   handler,
		MetricsHandler:     promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
