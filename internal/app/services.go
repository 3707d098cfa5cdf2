package app

import (
	"context"
	"time"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/conversation"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/application/prediction"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/domain/session"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/database/postgres/repositories"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/prometheus"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/admet"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/affinity"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/llm"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/intelligence/prompt"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/pkg/errors"
)

// Intelligence holds the model-facing clients.
type Intelligence struct {
	Prompts   *prompt.Registry
	LLM       *llm.Client
	Extractor *llm.Extractor
	ADMET     *admet.Scraper
	Affinity  *affinity.HTTPClient
}

// NewIntelligence builds the prompt registry, the LLM client and both predictor
// back-ends. Nothing here dials out; failures surface on first use.
func NewIntelligence(cfg *config.Config, metrics *prometheus.AppMetrics, logger logging.Logger) (*Intelligence, error) {
	prompts, err := prompt.NewRegistry(cfg.LLM.PromptsFile, logger)
	if err != nil {
		return nil, err
	}

	client, err := llm.NewClient(llm.Config{
		APIKey:      cfg.LLM.APIKey,
		BaseURL:     cfg.LLM.BaseURL,
		Model:       cfg.LLM.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
		Timeout:     cfg.LLM.Timeout,
	}, prompts, logger, llm.WithObserver(metrics))
	if err != nil {
		return nil, err
	}

	a := cfg.Prediction.ADMET
	return &Intelligence{
		Prompts:   prompts,
		LLM:       client,
		Extractor: llm.NewExtractor(client, prompts, logger, metrics),
		ADMET: admet.NewScraper(admet.Config{
			URL:         a.URL,
			ChromePath:  a.ChromePath,
			ShowBrowser: a.ShowBrowser,
			Timeout:     a.Timeout,
		}, nil, logger),
		Affinity: affinity.NewHTTPClient(cfg.Prediction.Affinity.URL, cfg.Prediction.Affinity.Timeout, logger),
	}, nil
}

// NewPredictionService wires the predictors with the optional cache, report
// archive and event publisher from infra.
func NewPredictionService(cfg *config.Config, infra *Infrastructure, intel *Intelligence, metrics *prometheus.AppMetrics, logger logging.Logger) (prediction.Service, error) {
	return prediction.NewService(prediction.Deps{
		ADMET:    intel.ADMET,
		Affinity: intel.Affinity,
		LLM:      intel.LLM,
		Prompts:  intel.Prompts,
		Cache:    infra.Cache,
		CacheTTL: cfg.Redis.PredictionTTL,
		Reports:  infra.Reports,
		Events:   infra.Events,
		Metrics:  metrics,
		Logger:   logger,
	})
}

// Conversation is the chat stack together with the session store it owns.
type Conversation struct {
	Service conversation.Service
	Store   *session.Store
	Sweeper *session.Sweeper
}

// NewConversation wires chat persistence, the message router, summaries and
// the idle-session sweeper. infra.Postgres must be open.
func NewConversation(cfg *config.Config, infra *Infrastructure, intel *Intelligence, predictor prediction.Service, metrics *prometheus.AppMetrics, logger logging.Logger) (*Conversation, error) {
	if infra.Postgres == nil {
		return nil, errors.New(errors.ErrCodeInternal, "conversation requires a postgres connection")
	}

	store := session.NewStore(time.Now)
	router := conversation.NewRouter(conversation.RouterDeps{
		ADMET:     predictor,
		Affinity:  predictor,
		Extractor: intel.Extractor,
		Responder: intel.LLM,
		Metrics:   metrics,
		Logger:    logger,
	})
	summarizer := conversation.NewSummarizer(intel.LLM, intel.Prompts, infra.Cache, cfg.Redis.SummaryTTL, metrics, logger)

	svc, err := conversation.NewService(conversation.ServiceDeps{
		Repo:       repositories.NewPostgresChatRepo(infra.Postgres, logger),
		Store:      store,
		Router:     router,
		Summarizer: summarizer,
		Events:     infra.Events,
		Metrics:    metrics,
		Logger:     logger,
	})
	if err != nil {
		return nil, err
	}

	sweeper := session.NewSweeper(store, logger,
		session.WithInterval(cfg.Session.SweepInterval),
		session.WithIdleTimeout(cfg.Session.IdleTimeout),
		session.WithRecorder(metrics),
		session.WithEvictionHook(EvictionPublisher(infra.Events, logger)),
	)

	return &Conversation{Service: svc, Store: store, Sweeper: sweeper}, nil
}

// EvictionPublisher announces swept sessions as one session.evicted event.
func EvictionPublisher(events kafka.EventPublisher, logger logging.Logger) session.EvictionHook {
	return func(ctx context.Context, evicted []string) {
		if len(evicted) == 0 {
			return
		}
		payload := kafka.SessionEvictedPayload{ChatIDs: evicted, EvictedAt: time.Now().UTC()}
		if err := events.PublishEvent(ctx, kafka.EventSessionEvicted, evicted[0], payload); err != nil {
			logger.Warn("session eviction event not published",
				logging.Int("evicted", len(evicted)),
				logging.Err(err),
			)
		}
	}
}

//Personal.AI order the ending
