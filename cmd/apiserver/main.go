// API server entry point for the Narcos chat backend.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/app"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/prometheus"
	grpcserver "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/grpc"
	httpserver "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/http"
)

// Injected via ldflags.
var version = "dev"

// dependencyProbeInterval is how often the gRPC health status is re-derived.
const dependencyProbeInterval = 15 * time.Second

func main() {
	configPath := flag.String("config", "", "path to configuration file (default: ./configs/config.yaml or ./config.yaml)")
	envFile := flag.String("env-file", "", ".env file to load before reading configuration")
	flag.Parse()

	var envFiles []string
	if *envFile != "" {
		envFiles = append(envFiles, *envFile)
	}
	if _, err := config.LoadDotEnv(envFiles...); err != nil {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewLogger(logging.LogConfig{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		OutputPaths: cfg.Log.OutputPaths,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetDefault(logger)
	defer syncLogger(logger)

	if err := run(cfg, *configPath, logger); err != nil {
		logger.Error("api server exited with error", logging.Err(err))
		syncLogger(logger)
		os.Exit(1)
	}
}

func run(cfg *config.Config, configPath string, logger logging.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("starting Narcos API server",
		logging.String("version", version),
		logging.String("http_addr", cfg.HTTPAddr()),
		logging.Bool("grpc", cfg.Server.GRPC.Enabled),
	)

	collector, metrics, err := newMetrics(cfg, logger)
	if err != nil {
		return fmt.Errorf("metrics: %w", err)
	}

	infra, err := app.NewInfrastructure(cfg, app.InfraOptions{Metrics: metrics}, logger)
	if err != nil {
		return err
	}
	defer infra.Close()

	intel, err := app.NewIntelligence(cfg, metrics, logger)
	if err != nil {
		return fmt.Errorf("intelligence: %w", err)
	}
	if err := intel.Prompts.Watch(ctx); err != nil {
		logger.Warn("prompt hot reload disabled", logging.Err(err))
	}

	predictor, err := app.NewPredictionService(cfg, infra, intel, metrics, logger)
	if err != nil {
		return fmt.Errorf("prediction: %w", err)
	}
	conv, err := app.NewConversation(cfg, infra, intel, predictor, metrics, logger)
	if err != nil {
		return fmt.Errorf("conversation: %w", err)
	}
	go conv.Sweeper.Run(ctx)

	watchConfig(configPath, logger)

	checkers := healthCheckers(infra)
	router, limiter := newRouter(cfg, conv.Service, checkers, collector, metrics, logger)
	if limiter != nil {
		defer limiter.Stop()
	}

	errCh := make(chan error, 2)
	httpSrv := httpserver.NewServer(cfg.Server.HTTP, router, logger)
	go func() {
		errCh <- httpSrv.Start()
	}()

	var grpcSrv *grpcserver.Server
	if cfg.Server.GRPC.Enabled {
		grpcSrv, err = grpcserver.NewServer(cfg.Server.GRPC,
			grpcserver.WithLogger(logger),
			grpcserver.WithMetrics(metrics),
			grpcserver.WithGracefulTimeout(cfg.Server.HTTP.ShutdownTimeout),
		)
		if err != nil {
			return fmt.Errorf("grpc: %w", err)
		}
		go func() {
			if err := grpcSrv.Start(); err != nil {
				errCh <- err
			}
		}()
		go grpcSrv.MonitorDependencies(ctx, dependencyProbeInterval, grpcCheckers(checkers)...)
	}

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", logging.Err(err))
		}
	}
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.HTTP.ShutdownTimeout)
	defer cancel()

	if grpcSrv != nil {
		if err := grpcSrv.Stop(shutdownCtx); err != nil {
			logger.Error("gRPC server shutdown error", logging.Err(err))
		}
	}
	if err := httpSrv.Stop(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", logging.Err(err))
	}

	logger.Info("servers stopped")
	return nil
}

// newMetrics returns a Prometheus-backed collector, or a no-op one when metrics are disabled.
func newMetrics(cfg *config.Config, logger logging.Logger) (prometheus.MetricsCollector, *prometheus.AppMetrics, error) {
	if !cfg.Metrics.Enabled {
		return nil, nil, nil
	}
	collector, err := prometheus.NewMetricsCollector(prometheus.CollectorConfig{
		Namespace:            cfg.Metrics.Namespace,
		EnableProcessMetrics: true,
		EnableGoMetrics:      true,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	return collector, prometheus.NewAppMetrics(collector), nil
}

// watchConfig applies log-level edits without a restart. Everything else in
// the file needs one.
func watchConfig(configPath string, logger logging.Logger) {
	if configPath == "" {
		return
	}
	setter, ok := logger.(logging.LevelSetter)
	if !ok {
		return
	}
	err := config.Watch(configPath, func(c *config.Config) {
		setter.SetLevel(c.Log.Level)
		logger.Info("configuration reloaded", logging.String("log_level", c.Log.Level))
	}, func(err error) {
		logger.Warn("ignoring invalid configuration edit", logging.Err(err))
	})
	if err != nil {
		logger.Warn("configuration hot reload disabled", logging.Err(err))
	}
}

func syncLogger(logger logging.Logger) {
	if s, ok := logger.(interface{ Sync() error }); ok {
		_ = s.Sync()
	}
}

//Personal.AI order the ending
