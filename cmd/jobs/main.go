package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/mundamarket/stock-engine/internal/cache"
	"github.com/mundamarket/stock-engine/internal/config"
	"github.com/mundamarket/stock-engine/internal/notify"
	"github.com/mundamarket/stock-engine/internal/repository/postgres"
	"github.com/mundamarket/stock-engine/internal/service"
	"github.com/mundamarket/stock-engine/pkg/logger"
)

// jobs runs the scheduled tasks by hand: alert generation, market history
// snapshots, price checks, and metric recomputes.
func main() {
	app := &cli.App{
		Name:  "jobs",
		Usage: "Run stock engine background jobs on demand",
		Commands: []*cli.Command{
			{
				Name:  "generate-alerts",
				Usage: "Run the low-stock and harvest-window alert rules",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "buyer",
						Usage: "Restrict the run to one buyer",
					},
				},
				Action: func(c *cli.Context) error {
					svc, err := buildServices()
					if err != nil {
						return err
					}

					var buyerID *int64
					if c.IsSet("buyer") {
						id := c.Int64("buyer")
						buyerID = &id
					}

					summary, err := svc.alerts.GenerateAlerts(c.Context, buyerID)
					if err != nil {
						return err
					}
					fmt.Printf("processed=%d created=%d updated=%d\n", summary.Processed, summary.Created, summary.Updated)
					return nil
				},
			},
			{
				Name:  "snapshot-history",
				Usage: "Record market supply and pricing snapshots",
				Action: func(c *cli.Context) error {
					svc, err := buildServices()
					if err != nil {
						return err
					}

					recorded, err := svc.alerts.RecordStockHistory(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("snapshots=%d\n", recorded)
					return nil
				},
			},
			{
				Name:  "check-price-alerts",
				Usage: "Compare current prices against the latest snapshots",
				Flags: []cli.Flag{
					&cli.Int64Flag{
						Name:  "buyer",
						Usage: "Restrict the run to one buyer",
					},
				},
				Action: func(c *cli.Context) error {
					svc, err := buildServices()
					if err != nil {
						return err
					}

					var buyerID *int64
					if c.IsSet("buyer") {
						id := c.Int64("buyer")
						buyerID = &id
					}

					summary, err := svc.alerts.CheckPriceAlerts(c.Context, buyerID)
					if err != nil {
						return err
					}
					fmt.Printf("processed=%d created=%d\n", summary.Processed, summary.Created)
					return nil
				},
			},
			{
				Name:  "recompute-metrics",
				Usage: "Refresh derived reorder metrics for all monitored balances",
				Action: func(c *cli.Context) error {
					svc, err := buildServices()
					if err != nil {
						return err
					}

					updated, err := svc.metrics.RecomputeAll(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("updated=%d\n", updated)
					return nil
				},
			},
		},
	}

	if err := app.RunContext(context.Background(), os.Args); err != nil {
		logger.Log.Fatal().Err(err).Msg("job failed")
	}
}

type services struct {
	alerts  *service.AlertService
	metrics *service.MetricsService
}

func buildServices() (*services, error) {
	cfg := config.Load()
	logger.SetLevel("info")

	db, err := postgres.NewDB(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	stockRepo := postgres.NewStockRepository(db)
	prefRepo := postgres.NewPreferenceRepository(db)
	alertRepo := postgres.NewAlertRepository(db)
	historyRepo := postgres.NewHistoryRepository(db)
	catalogRepo := postgres.NewCatalogRepository(db)

	notifier := notify.NewNotifier(cfg.Notify)

	return &services{
		alerts:  service.NewAlertService(alertRepo, prefRepo, catalogRepo, historyRepo, notifier),
		metrics: service.NewMetricsService(stockRepo, prefRepo, catalogRepo, cache.NewNoopDashboardCache(), cfg.Scheduler.LookbackDays),
	}, nil
}
