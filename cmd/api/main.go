package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"lecturequiz/internal/app"
	"lecturequiz/internal/http/handlers"
	httpapi "lecturequiz/internal/http/httpapi"
	"lecturequiz/internal/infra"
	"lecturequiz/internal/infra/geoip"
	"lecturequiz/internal/middleware"
	"lecturequiz/internal/pipeline"
	"lecturequiz/internal/storage"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, cfg.LogLevel)

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg, "api")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	sqlLogger := logger.With().Str("component", "sql").Logger()
	repos := app.NewRepositories(infra.NewSQLRunner(dbpool, sqlLogger))

	orchestrator, err := app.NewOrchestrator(cfg, repos, &logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure pipeline")
	}

	store, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip disabled")
	}
	defer resolver.Close()
	var countryLookup middleware.CountryLookup
	if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	// Pipeline runs outlive the request that started them.
	runCtx, cancelRuns := context.WithCancel(context.Background())
	defer cancelRuns()
	registry := pipeline.NewRegistry(runCtx, orchestrator, &logger)

	handlerApp := handlers.NewApp(handlers.Deps{
		Jobs:           repos.Jobs,
		Transcripts:    repos.Transcripts,
		Questions:      repos.Questions,
		Store:          store,
		Launcher:       registry,
		Stats:          repos.Jobs,
		Logger:         logger,
		MaxUploadBytes: cfg.MaxUploadBytes,
	})
	router := httpapi.NewRouter(handlerApp, httpapi.Options{
		Logger:         logger,
		AllowedOrigins: cfg.FrontendOrigins,
		UploadsPerMin:  cfg.RateLimitPerMin,
		CountryLookup:  countryLookup,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("addr", server.Addr()).Str("uploads", store.BasePath()).Msg("API listening")
		if err := server.Start(); err != nil {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	if active := registry.Count(); active > 0 {
		logger.Info().Int("active_jobs", active).Msg("waiting for pipeline runs")
	}
	if err := registry.Wait(shutdownCtx); err != nil {
		logger.Warn().Err(err).Int("active_jobs", registry.Count()).Msg("pipeline runs still active at shutdown")
	}
	logger.Info().Msg("server stopped")
}
