package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gilchrisn/graph-analytics-service/backend/api"
	"github.com/gilchrisn/graph-analytics-service/backend/config"
	"github.com/gilchrisn/graph-analytics-service/backend/metrics"
	"github.com/gilchrisn/graph-analytics-service/backend/service"
	"github.com/gilchrisn/graph-analytics-service/pkg/engine"
)

var serveAddress string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP analysis service",
	Long: `Start the HTTP analysis service.

Server, job and rate limit settings come from the environment (SERVER_ADDRESS,
JOB_MAX_WORKERS, JOB_TIMEOUT, RATE_LIMIT_RPS, ...); a .env file in the working
directory is loaded first.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServer()
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddress, "address", "", "listen address, overrides SERVER_ADDRESS")
}

func runServer() error {
	log.Info().Str("version", Version).Msg("Starting graph analytics service")

	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "loading configuration")
	}
	if serveAddress != "" {
		cfg.Server.Address = serveAddress
	}
	if logLevel == "" {
		setupLogging(cfg.Logging.Level)
	}

	engineConfig, err := loadEngineConfig()
	if err != nil {
		return err
	}

	log.Info().
		Str("address", cfg.Server.Address).
		Int("max_workers", cfg.Jobs.MaxWorkers).
		Dur("job_timeout", cfg.Jobs.JobTimeout).
		Float64("rate_limit_rps", cfg.RateLimit.RPS).
		Msg("Configuration loaded")

	// Initialize services in dependency order
	collector := metrics.NewCollector("graphlab")
	eng := engine.New(engineConfig)
	datasetService := service.NewDatasetService(collector)
	analysisService := service.NewAnalysisService(datasetService, eng, collector)
	jobService := service.NewJobService(analysisService, cfg.Jobs, collector)
	defer jobService.Stop()

	var limiter *api.RateLimiter
	if cfg.RateLimit.RPS > 0 {
		limiter = api.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
	}

	handlers := api.NewHandlers(datasetService, analysisService, jobService, cfg.Server.MaxBodyBytes)
	router := api.NewRouter(handlers, collector, limiter)

	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().
			Str("address", cfg.Server.Address).
			Msg("HTTP server starting")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return errors.Wrap(err, "http server")
	case <-quit:
		log.Info().Msg("Shutdown signal received")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server forced to shutdown")
	}

	log.Info().Msg("Server shutdown complete")
	return nil
}
