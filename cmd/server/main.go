package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"utm-bknd/internal/config"
	"utm-bknd/internal/database"
	"utm-bknd/internal/logger"
	"utm-bknd/internal/metrics"
	"utm-bknd/internal/routes"
	"utm-bknd/internal/services"
)

func main() {
	cfg := config.Load()
	logr := logger.New(cfg)

	border, zones, err := config.LoadAirspace(cfg)
	if err != nil {
		logr.Fatal("failed to load airspace data", zap.Error(err))
	}
	logr.Info("airspace loaded",
		zap.String("border_mode", string(border.Mode())),
		zap.Int("zones", len(zones.Zones())),
		zap.Int("airports", len(zones.Airports())))

	// The audit archive is optional; without a DATABASE_URL decisions are
	// only kept in memory.
	var archive *services.ArchiveService
	if cfg.DatabaseURL != "" {
		db, err := database.New(cfg.DatabaseURL, cfg)
		if err != nil {
			logr.Fatal("failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		archive = services.NewArchiveService(db)
		initCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := archive.Init(initCtx); err != nil {
			cancel()
			logr.Fatal("failed to init audit archive", zap.Error(err))
		}
		cancel()
	} else {
		logr.Warn("no DATABASE_URL configured, audit archive disabled")
	}

	m := metrics.New(prometheus.DefaultRegisterer)
	registry := services.NewFlightRegistry()
	adm := services.NewAdmissionService(registry, border, zones, cfg.Regulatory, archive, m, logr.Logger)

	r := routes.NewRouter(adm, border, zones, cfg, logr)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Maintenance sweep: advances flight status by wall-clock time.
	tickCtx, stopTick := context.WithCancel(context.Background())
	go func() {
		ticker := time.NewTicker(cfg.TickInterval)
		defer ticker.Stop()
		for {
			select {
			case <-tickCtx.Done():
				return
			case now := <-ticker.C:
				adm.Tick(now.UTC())
			}
		}
	}()

	go func() {
		logr.Info("server started", zap.String("port", cfg.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logr.Info("shutting down server...")
	stopTick()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logr.Fatal("server forced to shutdown", zap.Error(err))
	}

	logr.Info("server exited gracefully")
}
