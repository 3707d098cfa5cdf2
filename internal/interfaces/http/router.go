package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/prometheus"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/http/handlers"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/interfaces/http/middleware"
)

// RouterConfig aggregates the handlers and middleware that make up the route tree.
// Nil entries are skipped.
type RouterConfig struct {
	ChatHandler   *handlers.ChatHandler
	HealthHandler *handlers.HealthHandler

	CORS      *middleware.CORSConfig
	Logging   *middleware.LoggingConfig
	RateLimit *middleware.RateLimitConfig
	Limiter   middleware.RateLimiter

	Logger           logging.Logger
	HTTPMetrics      middleware.HTTPRecorder
	MetricsCollector prometheus.MetricsCollector
}

// NewRouter builds the HTTP route tree.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(chimw.Recoverer)

	if cfg.CORS != nil {
		r.Use(middleware.CORS(*cfg.CORS))
	}
	if cfg.Logging != nil && cfg.Logger != nil {
		r.Use(middleware.RequestLogging(cfg.Logger, *cfg.Logging))
	}
	if cfg.HTTPMetrics != nil {
		r.Use(middleware.Metrics(cfg.HTTPMetrics))
	}
	if cfg.RateLimit != nil && cfg.Limiter != nil {
		r.Use(middleware.RateLimit(cfg.Limiter, *cfg.RateLimit))
	}

	if cfg.HealthHandler != nil {
		r.Get("/healthz", cfg.HealthHandler.Liveness)
		r.Get("/healthz/detail", cfg.HealthHandler.Detailed)
		r.Get("/readyz", cfg.HealthHandler.Readiness)
	}

	if cfg.MetricsCollector != nil {
		r.Handle("/metrics", cfg.MetricsCollector.Handler())
	}

	registerChatRoutes(r, cfg.ChatHandler)

	return r
}

// registerChatRoutes mounts the chat API at the root, where existing clients expect it.
func registerChatRoutes(r chi.Router, h *handlers.ChatHandler) {
	if h == nil {
		return
	}
	r.Post("/chat", h.SendMessage)
	r.Post("/reset", h.Reset)
	r.Get("/users/{username}/chats", h.ListUserChats)

	r.Route("/chats", func(cr chi.Router) {
		cr.Post("/", h.CreateChat)
		cr.Route("/{chatID}", func(item chi.Router) {
			item.Get("/messages", h.Messages)
			item.Get("/summary", h.Summary)
		})
	})
}

//Personal.AI order the ending
