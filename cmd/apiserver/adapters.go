package main

import (
	"net/http"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/app"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/conversation"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/prometheus"
	grpcserver "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/grpc"
	httpserver "github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/http"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/http/handlers"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/http/middleware"
)

// healthCheckers adapts the live backing stores to readiness probes.
func healthCheckers(infra *app.Infrastructure) []handlers.CheckerFunc {
	var checkers []handlers.CheckerFunc
	if infra.Postgres != nil {
		checkers = append(checkers, handlers.CheckerFunc{Component: "postgres", Fn: infra.PostgresCheck})
	}
	if infra.Redis != nil {
		checkers = append(checkers, handlers.CheckerFunc{Component: "redis", Fn: infra.RedisCheck})
	}
	return checkers
}

func httpCheckers(checkers []handlers.CheckerFunc) []handlers.HealthChecker {
	out := make([]handlers.HealthChecker, len(checkers))
	for i, c := range checkers {
		out[i] = c
	}
	return out
}

func grpcCheckers(checkers []handlers.CheckerFunc) []grpcserver.Checker {
	out := make([]grpcserver.Checker, len(checkers))
	for i, c := range checkers {
		out[i] = c
	}
	return out
}

// newRouter assembles the HTTP handler. The returned limiter is nil when
// rate limiting is disabled.
func newRouter(
	cfg *config.Config,
	svc conversation.Service,
	checkers []handlers.CheckerFunc,
	collector prometheus.MetricsCollector,
	metrics *prometheus.AppMetrics,
	logger logging.Logger,
) (http.Handler, *middleware.TokenBucketLimiter) {
	cors := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORS.AllowedOrigins) > 0 {
		cors.AllowedOrigins = cfg.HTTP.CORS.AllowedOrigins
	}
	cors.AllowCredentials = cfg.HTTP.CORS.AllowCredentials

	logCfg := middleware.DefaultLoggingConfig()

	rc := httpserver.RouterConfig{
		ChatHandler:   handlers.NewChatHandler(svc, logger),
		HealthHandler: handlers.NewHealthHandler(version, httpCheckers(checkers)...),
		CORS:          &cors,
		Logging:       &logCfg,
		Logger:        logger,
	}

	var limiter *middleware.TokenBucketLimiter
	if cfg.HTTP.RateLimit.Enabled {
		rl := middleware.DefaultRateLimitConfig()
		rl.RequestsPerSecond = cfg.HTTP.RateLimit.RPS
		rl.BurstSize = cfg.HTTP.RateLimit.Burst
		limiter = middleware.NewTokenBucketLimiter(rl.RequestsPerSecond, rl.BurstSize, rl.CleanupInterval)
		rc.RateLimit = &rl
		rc.Limiter = limiter
	}

	if collector != nil {
		rc.MetricsCollector = collector
		rc.HTTPMetrics = metrics
	}

	return httpserver.NewRouter(rc), limiter
}

//Personal.AI order the ending
