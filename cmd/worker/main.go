package main

import (
	"context"
	"errors"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"lecturequiz/internal/app"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/pipeline"
)

func main() {
	var (
		once             bool
		interruptedAfter time.Duration
	)
	flag.BoolVar(&once, "once", false, "run a single sweep and exit after its jobs finish")
	flag.DurationVar(&interruptedAfter, "fail-interrupted-after", 0, "mark jobs stuck mid-pipeline for longer than this as failed (0 disables)")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg, "worker")
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	repos := app.NewRepositories(infra.NewSQLRunner(pool, logger.With().Str("component", "sql").Logger()))
	orchestrator, err := app.NewOrchestrator(cfg, repos, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure pipeline")
	}

	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()
	registry := pipeline.NewRegistry(runCtx, orchestrator, &logger)

	w := &backlogWorker{
		jobs:             repos.Jobs,
		launcher:         registry,
		logger:           logger,
		staleAfter:       cfg.WorkerStaleAfter,
		interruptedAfter: interruptedAfter,
		batch:            cfg.WorkerBatchSize,
		interval:         cfg.WorkerPollInterval,
	}

	if once {
		w.sweep(ctx)
	} else if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error().Err(err).Msg("worker: stopped with error")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := registry.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Int("active_jobs", registry.Count()).Msg("worker: pipeline runs still active at exit")
	}
	logger.Info().Msg("worker: stopped")
}
