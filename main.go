package main

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/spf13/cobra"

	"smartcity-seed/internal/config"
	deviceapp "smartcity-seed/internal/devices/application"
	devicerepo "smartcity-seed/internal/devices/infrastructure/postgres"
	kpiapp "smartcity-seed/internal/kpi/application"
	kpirepo "smartcity-seed/internal/kpi/infrastructure/postgres"
	"smartcity-seed/internal/logging"
	"smartcity-seed/internal/observability/metrics"
	"smartcity-seed/internal/pipeline"
	storage "smartcity-seed/internal/storage/postgres"
)

func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:           "smartcity-seed",
		Short:         "Load Ubicquia streetlight exports into Postgres and record KPIs",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
}

func run(ctx context.Context, cfg config.Config) error {
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer logger.Close()

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	dsn, err := cfg.DSN()
	if err != nil {
		return err
	}

	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return fmt.Errorf("db open error: %w", err)
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("db ping error: %w", err)
	}
	logger.Info("connected to database")

	if cfg.EnsureSchema {
		if err := storage.EnsureSchema(ctx, db); err != nil {
			return err
		}
	}

	metrics.Init(db, logger)

	loader, err := deviceapp.NewLoader(
		devicerepo.NewStore(db),
		logger,
		deviceapp.WithBatchSize(cfg.BatchSize),
		deviceapp.WithLocation(loc),
	)
	if err != nil {
		return err
	}
	aggregator, err := kpiapp.NewAggregator(kpirepo.NewRepository(db), nil, logger)
	if err != nil {
		return err
	}
	runner, err := pipeline.NewRunner(loader, aggregator, logger, pipeline.Options{
		ReportDir:       cfg.KPIReportDir,
		MetricsTextfile: cfg.MetricsTextfile,
	})
	if err != nil {
		return err
	}

	_, err = runner.Run(ctx, cfg.InputFiles)
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err.Error())
		os.Exit(1)
	}
}
