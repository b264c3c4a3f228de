package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/arunkumarkundra/choicease/internal/analysis"
	"github.com/arunkumarkundra/choicease/internal/api"
	"github.com/arunkumarkundra/choicease/internal/config"
	"github.com/arunkumarkundra/choicease/internal/hermes"
	"github.com/arunkumarkundra/choicease/internal/logging"
	"github.com/arunkumarkundra/choicease/internal/metrics"
	"github.com/arunkumarkundra/choicease/internal/store"
	"github.com/arunkumarkundra/choicease/internal/whatif"
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, logCloser, err := logging.New(cfg.Logging, os.Stdout)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to set up logging: %v\n", err)
		os.Exit(1)
	}
	defer logCloser.Close()
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		logger.Error("fatal", "error", err)
		logCloser.Close()
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Database (optional)
	var db store.Store
	if cfg.Database.URL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.Database.URL)
		if err != nil {
			return fmt.Errorf("connect to database: %w", err)
		}
		defer pg.Close()
		if err := pg.Migrate(ctx); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
		db = pg
		logger.Info("connected to database")
	} else {
		logger.Warn("no database configured, saved decisions are disabled")
	}

	// Hermes (optional)
	var hermesClient hermes.Client
	if cfg.Hermes.URL != "" {
		hc, err := hermes.NewNATSClient(ctx, cfg.Hermes.URL, logger)
		if err != nil {
			logger.Warn("failed to connect to hermes, running without events", "error", err)
		} else {
			hermesClient = hc
			defer hc.Close()
			logger.Info("connected to hermes")
		}
	}

	m := metrics.New(prometheus.DefaultRegisterer)

	analyzer := analysis.NewAnalyzer(analysis.Settings{
		StabilityTrials:     cfg.Analysis.StabilityTrials,
		StabilityNoise:      cfg.Analysis.StabilityNoise,
		SatisficerThreshold: cfg.Analysis.SatisficerThreshold,
		Seed:                cfg.Analysis.Seed,
	}, logger)

	manager := whatif.NewManager(whatif.ManagerConfig{
		Session: whatif.Options{
			Debounce:      cfg.Debounce(),
			CacheCapacity: cfg.WhatIf.CacheCapacity,
			OnEvaluate:    api.WhatIfHook(hermesClient, m, logger),
		},
		IdleTimeout:  cfg.IdleTimeout(),
		ReapInterval: cfg.ReapInterval(),
	}, logger)
	manager.Start(ctx)
	defer manager.Stop()
	logger.Info("what-if manager started", "debounce", cfg.Debounce(), "idle_timeout", cfg.IdleTimeout())

	apiServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(db, hermesClient, analyzer, manager, m, cfg.Server.AdminToken, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}
	metricsServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.MetricsPort),
		Handler:           api.NewMetricsRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("API server starting", "port", cfg.Server.Port)
		return serve(apiServer)
	})
	g.Go(func() error {
		logger.Info("metrics server starting", "port", cfg.Server.MetricsPort)
		return serve(metricsServer)
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return errors.Join(apiServer.Shutdown(shutdownCtx), metricsServer.Shutdown(shutdownCtx))
	})

	err := g.Wait()
	logger.Info("shutdown complete")
	return err
}

func serve(srv *http.Server) error {
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
