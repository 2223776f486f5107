package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/mundamarket/stock-engine/internal/api"
	"github.com/mundamarket/stock-engine/internal/cache"
	"github.com/mundamarket/stock-engine/internal/config"
	"github.com/mundamarket/stock-engine/internal/notify"
	"github.com/mundamarket/stock-engine/internal/repository/postgres"
	"github.com/mundamarket/stock-engine/internal/scheduler"
	"github.com/mundamarket/stock-engine/internal/service"
	"github.com/mundamarket/stock-engine/pkg/logger"
)

func main() {
	cfg := config.Load()

	if cfg.Server.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
		logger.SetLevel("info")
	} else {
		logger.SetLevel("debug")
	}

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize database")
	}

	stockRepo := postgres.NewStockRepository(db)
	prefRepo := postgres.NewPreferenceRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	dashboards, err := cache.NewDashboardCache(cfg.Cache)
	if err != nil {
		log.Warn().Err(err).Msg("dashboard cache unavailable, continuing without it")
		dashboards = cache.NewNoopDashboardCache()
	}

	notifier := notify.NewNotifier(cfg.Notify)

	ledgerService := service.NewLedgerService(stockRepo, prefRepo, catalogRepo)
	metricsService := service.NewMetricsService(stockRepo, prefRepo, catalogRepo, dashboards, cfg.Scheduler.LookbackDays)
	alertService := service.NewAlertService(alertRepo, prefRepo, catalogRepo, historyRepo, notifier)
	preferenceService := service.NewPreferenceService(prefRepo, catalogRepo)

	var sched *scheduler.Scheduler
	if cfg.Scheduler.Enabled {
		sched = scheduler.New(
			scheduler.Job{
				Name:     "generate-alerts",
				Interval: time.Duration(cfg.Scheduler.AlertIntervalMinutes) * time.Minute,
				Run: func(ctx context.Context) error {
					if _, err := metricsService.RecomputeAll(ctx); err != nil {
						return err
					}
					_, err := alertService.GenerateAlerts(ctx, nil)
					return err
				},
			},
			scheduler.Job{
				Name:     "snapshot-history",
				Interval: time.Duration(cfg.Scheduler.HistoryIntervalMinutes) * time.Minute,
				Run: func(ctx context.Context) error {
					_, err := alertService.RecordStockHistory(ctx)
					return err
				},
			},
			scheduler.Job{
				Name:     "check-price-alerts",
				Interval: time.Duration(cfg.Scheduler.PriceIntervalMinutes) * time.Minute,
				Run: func(ctx context.Context) error {
					_, err := alertService.CheckPriceAlerts(ctx, nil)
					return err
				},
			},
		)
		sched.Start(context.Background())
	}

	router := api.NewRouter(&api.Services{
		Ledger:      ledgerService,
		Metrics:     metricsService,
		Alerts:      alertService,
		Preferences: preferenceService,
	}, cfg.Server.AllowedOrigins)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down")

	if sched != nil {
		sched.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("forced shutdown")
	}
}
