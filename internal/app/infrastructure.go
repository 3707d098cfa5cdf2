// Package app assembles the process-level dependency graph shared by the API
// server and the CLI: infrastructure clients first, then the intelligence
// layer, then the application services.
package app

import (
	"context"
	"fmt"

	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/config"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/database/postgres"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/database/redis"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/messaging/kafka"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/logging"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/monitoring/prometheus"
	"github.com/Nithish-Sri-Ram/Narcos-Google-Solutions-Challenge/internal/infrastructure/storage/minio"
)

// Infrastructure holds the external clients of one process. Optional clients
// are nil when disabled in config.
type Infrastructure struct {
	Postgres *postgres.Connection
	Redis    *redis.Client
	MinIO    *minio.MinIOClient
	Producer *kafka.Producer

	Cache   redis.Cache
	Reports minio.ReportStore
	Events  kafka.EventPublisher
}

// InfraOptions selects which clients NewInfrastructure opens.
type InfraOptions struct {
	// SkipPostgres is set by processes that never touch chat storage, such as
	// the MCP tool server.
	SkipPostgres bool
	Metrics      *prometheus.AppMetrics
}

// NewInfrastructure connects every enabled client. Any failure closes what was
// already opened.
func NewInfrastructure(cfg *config.Config, opts InfraOptions, logger logging.Logger) (*Infrastructure, error) {
	infra := &Infrastructure{Events: kafka.NoopPublisher{}}

	if !opts.SkipPostgres {
		pg, err := postgres.NewConnection(cfg.Database, logger)
		if err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		infra.Postgres = pg

		if cfg.Database.AutoMigrate {
			if err := pg.RunMigrations(cfg.Database.MigrationsPath); err != nil {
				infra.Close()
				return nil, fmt.Errorf("migrations: %w", err)
			}
		}
	}

	if cfg.Redis.Enabled {
		rc, err := redis.NewClient(RedisConfig(cfg.Redis), logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		infra.Redis = rc
		infra.Cache = redis.NewRedisCache(rc, logger, redis.WithPrefix(cfg.Redis.KeyPrefix))
	}

	if cfg.MinIO.Enabled {
		mc, err := minio.NewMinIOClient(MinIOConfig(cfg.MinIO), logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("minio: %w", err)
		}
		infra.MinIO = mc
		infra.Reports = minio.NewReportRepository(mc, logger)
	}

	if cfg.Kafka.Enabled {
		producer, err := kafka.NewProducer(ProducerConfig(cfg.Kafka), logger)
		if err != nil {
			infra.Close()
			return nil, fmt.Errorf("kafka: %w", err)
		}
		infra.Producer = producer
		infra.Events = kafka.NewPublisher(producer, Topics(cfg.Kafka), logger, kafka.WithEventRecorder(opts.Metrics))
	}

	logger.Info("infrastructure initialized",
		logging.Bool("postgres", infra.Postgres != nil),
		logging.Bool("redis", infra.Redis != nil),
		logging.Bool("minio", infra.MinIO != nil),
		logging.Bool("kafka", infra.Producer != nil),
	)
	return infra, nil
}

// Close releases every open client, producers first so buffered events flush
// before the stores go away.
func (i *Infrastructure) Close() {
	if i.Producer != nil {
		i.Producer.Close()
	}
	if i.MinIO != nil {
		i.MinIO.Close()
	}
	if i.Redis != nil {
		i.Redis.Close()
	}
	if i.Postgres != nil {
		i.Postgres.Close()
	}
}

// PostgresCheck probes the database for readiness.
func (i *Infrastructure) PostgresCheck(ctx context.Context) error {
	return i.Postgres.HealthCheck(ctx)
}

// RedisCheck probes the cache for readiness.
func (i *Infrastructure) RedisCheck(ctx context.Context) error {
	return i.Redis.Ping(ctx)
}

// RedisConfig maps the cache section onto the client settings.
func RedisConfig(c config.RedisConfig) *redis.RedisConfig {
	return &redis.RedisConfig{
		Addr:     c.Addr,
		Password: c.Password,
		DB:       c.DB,
	}
}

// MinIOConfig maps the archive section onto the client settings.
func MinIOConfig(c config.MinIOConfig) *minio.MinIOConfig {
	return &minio.MinIOConfig{
		Endpoint:        c.Endpoint,
		AccessKeyID:     c.AccessKeyID,
		SecretAccessKey: c.SecretAccessKey,
		UseSSL:          c.UseSSL,
		Region:          c.Region,
		Bucket:          c.Bucket,
	}
}

// ProducerConfig maps the kafka section onto producer settings.
func ProducerConfig(c config.KafkaConfig) kafka.ProducerConfig {
	return kafka.ProducerConfig{
		Brokers:  c.Brokers,
		ClientID: c.ClientID,
		Acks:     "one",
	}
}

// Topics returns the configured topic names, falling back to the defaults.
func Topics(c config.KafkaConfig) kafka.Topics {
	t := kafka.DefaultTopics()
	if c.ChatTopic != "" {
		t.Chat = c.ChatTopic
	}
	if c.PredictionTopic != "" {
		t.Prediction = c.PredictionTopic
	}
	if c.SessionTopic != "" {
		t.Session = c.SessionTopic
	}
	return t
}

//Personal.AI order the ending
