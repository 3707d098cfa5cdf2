package config

import (
	"time"

	"github.com/spf13/viper"
)

// ─────────────────────────────────────────────────────────────────────────────
// Default value constants
// ─────────────────────────────────────────────────────────────────────────────

const (
	DefaultHTTPHost            = "0.0.0.0"
	DefaultHTTPPort            = 8000
	DefaultHTTPReadTimeout     = 30 * time.Second
	DefaultHTTPWriteTimeout    = 180 * time.Second
	DefaultHTTPShutdownTimeout = 30 * time.Second
	DefaultGRPCPort            = 9090

	DefaultDBHost            = "localhost"
	DefaultDBPort            = 5432
	DefaultDBUser            = "narcos"
	DefaultDBName            = "narcos"
	DefaultDBSSLMode         = "disable"
	DefaultDBMaxOpenConns    = 25
	DefaultDBMaxIdleConns    = 10
	DefaultDBConnMaxLifetime = 30 * time.Minute
	DefaultDBConnMaxIdleTime = 5 * time.Minute
	DefaultMigrationsPath    = "migrations"

	DefaultRedisAddr          = "localhost:6379"
	DefaultRedisKeyPrefix     = "narcos:"
	DefaultRedisPredictionTTL = 24 * time.Hour
	DefaultRedisSummaryTTL    = time.Hour

	DefaultKafkaBroker          = "localhost:9092"
	DefaultKafkaClientID        = "narcos"
	DefaultKafkaChatTopic       = "narcos.chat.events"
	DefaultKafkaPredictionTopic = "narcos.prediction.events"
	DefaultKafkaSessionTopic    = "narcos.session.events"

	DefaultMinIOEndpoint = "localhost:9000"
	DefaultMinIOBucket   = "narcos-reports"

	DefaultLLMBaseURL = "https://generativelanguage.googleapis.com/v1beta/openai/"
	DefaultLLMModel   = "gemini-2.0-flash"
	DefaultLLMTimeout = 60 * time.Second

	DefaultADMETURL        = "http://www.swissadme.ch/index.php"
	DefaultADMETTimeout    = 90 * time.Second
	DefaultAffinityURL     = "http://localhost:8501/v1/score"
	DefaultAffinityTimeout = 120 * time.Second

	DefaultSweepInterval = 900 * time.Second
	DefaultIdleTimeout   = 3600 * time.Second

	DefaultRateLimitRPS   = 10
	DefaultRateLimitBurst = 20

	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"

	DefaultMetricsNamespace = "narcos"
)

// setDefaults registers every key with viper. Registration is what makes
// AutomaticEnv overrides visible to Unmarshal when no config file sets the key.
func setDefaults(v *viper.Viper) {
	// ── Server ────────────────────────────────────────────────────────────────
	v.SetDefault("server.http.host", DefaultHTTPHost)
	v.SetDefault("server.http.port", DefaultHTTPPort)
	v.SetDefault("server.http.read_timeout", DefaultHTTPReadTimeout)
	v.SetDefault("server.http.write_timeout", DefaultHTTPWriteTimeout)
	v.SetDefault("server.http.shutdown_timeout", DefaultHTTPShutdownTimeout)
	v.SetDefault("server.grpc.enabled", true)
	v.SetDefault("server.grpc.port", DefaultGRPCPort)

	// ── Database ──────────────────────────────────────────────────────────────
	v.SetDefault("database.host", DefaultDBHost)
	v.SetDefault("database.port", DefaultDBPort)
	v.SetDefault("database.user", DefaultDBUser)
	v.SetDefault("database.password", "")
	v.SetDefault("database.db_name", DefaultDBName)
	v.SetDefault("database.ssl_mode", DefaultDBSSLMode)
	v.SetDefault("database.max_open_conns", DefaultDBMaxOpenConns)
	v.SetDefault("database.max_idle_conns", DefaultDBMaxIdleConns)
	v.SetDefault("database.conn_max_lifetime", DefaultDBConnMaxLifetime)
	v.SetDefault("database.conn_max_idle_time", DefaultDBConnMaxIdleTime)
	v.SetDefault("database.migrations_path", DefaultMigrationsPath)
	v.SetDefault("database.auto_migrate", true)

	// ── Redis ─────────────────────────────────────────────────────────────────
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", DefaultRedisAddr)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.key_prefix", DefaultRedisKeyPrefix)
	v.SetDefault("redis.prediction_ttl", DefaultRedisPredictionTTL)
	v.SetDefault("redis.summary_ttl", DefaultRedisSummaryTTL)

	// ── Kafka ─────────────────────────────────────────────────────────────────
	v.SetDefault("kafka.enabled", false)
	v.SetDefault("kafka.brokers", []string{DefaultKafkaBroker})
	v.SetDefault("kafka.client_id", DefaultKafkaClientID)
	v.SetDefault("kafka.chat_topic", DefaultKafkaChatTopic)
	v.SetDefault("kafka.prediction_topic", DefaultKafkaPredictionTopic)
	v.SetDefault("kafka.session_topic", DefaultKafkaSessionTopic)

	// ── MinIO ─────────────────────────────────────────────────────────────────
	v.SetDefault("minio.enabled", false)
	v.SetDefault("minio.endpoint", DefaultMinIOEndpoint)
	v.SetDefault("minio.access_key_id", "")
	v.SetDefault("minio.secret_access_key", "")
	v.SetDefault("minio.use_ssl", false)
	v.SetDefault("minio.region", "")
	v.SetDefault("minio.bucket", DefaultMinIOBucket)

	// ── LLM ───────────────────────────────────────────────────────────────────
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.base_url", DefaultLLMBaseURL)
	v.SetDefault("llm.model", DefaultLLMModel)
	v.SetDefault("llm.temperature", 0)
	v.SetDefault("llm.max_tokens", 0)
	v.SetDefault("llm.timeout", DefaultLLMTimeout)
	v.SetDefault("llm.prompts_file", "")

	// ── Prediction ────────────────────────────────────────────────────────────
	v.SetDefault("prediction.admet.url", DefaultADMETURL)
	v.SetDefault("prediction.admet.chrome_path", "")
	v.SetDefault("prediction.admet.show_browser", false)
	v.SetDefault("prediction.admet.timeout", DefaultADMETTimeout)
	v.SetDefault("prediction.affinity.url", DefaultAffinityURL)
	v.SetDefault("prediction.affinity.timeout", DefaultAffinityTimeout)

	// ── Session ───────────────────────────────────────────────────────────────
	v.SetDefault("session.sweep_interval", DefaultSweepInterval)
	v.SetDefault("session.idle_timeout", DefaultIdleTimeout)

	// ── HTTP middleware ───────────────────────────────────────────────────────
	v.SetDefault("http.cors.allowed_origins", []string{"*"})
	v.SetDefault("http.cors.allow_credentials", true)
	v.SetDefault("http.rate_limit.enabled", false)
	v.SetDefault("http.rate_limit.rps", DefaultRateLimitRPS)
	v.SetDefault("http.rate_limit.burst", DefaultRateLimitBurst)

	// ── Observability ─────────────────────────────────────────────────────────
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.format", DefaultLogFormat)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.namespace", DefaultMetricsNamespace)
}

// ApplyDefaults fills zero-value fields in cfg with the defaults above.
// Booleans are left alone: their defaults come from setDefaults.
func ApplyDefaults(cfg *Config) {
	if cfg == nil {
		return
	}

	// ── Server ────────────────────────────────────────────────────────────────
	if cfg.Server.HTTP.Host == "" {
		cfg.Server.HTTP.Host = DefaultHTTPHost
	}
	if cfg.Server.HTTP.Port == 0 {
		cfg.Server.HTTP.Port = DefaultHTTPPort
	}
	if cfg.Server.HTTP.ReadTimeout == 0 {
		cfg.Server.HTTP.ReadTimeout = DefaultHTTPReadTimeout
	}
	if cfg.Server.HTTP.WriteTimeout == 0 {
		cfg.Server.HTTP.WriteTimeout = DefaultHTTPWriteTimeout
	}
	if cfg.Server.HTTP.ShutdownTimeout == 0 {
		cfg.Server.HTTP.ShutdownTimeout = DefaultHTTPShutdownTimeout
	}
	if cfg.Server.GRPC.Port == 0 {
		cfg.Server.GRPC.Port = DefaultGRPCPort
	}

	// ── Database ──────────────────────────────────────────────────────────────
	if cfg.Database.Host == "" {
		cfg.Database.Host = DefaultDBHost
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = DefaultDBPort
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = DefaultDBName
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = DefaultDBSSLMode
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = DefaultDBMaxOpenConns
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = DefaultDBMaxIdleConns
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = DefaultDBConnMaxLifetime
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = DefaultDBConnMaxIdleTime
	}
	if cfg.Database.MigrationsPath == "" {
		cfg.Database.MigrationsPath = DefaultMigrationsPath
	}

	// ── Redis ─────────────────────────────────────────────────────────────────
	if cfg.Redis.Addr == "" {
		cfg.Redis.Addr = DefaultRedisAddr
	}
	if cfg.Redis.KeyPrefix == "" {
		cfg.Redis.KeyPrefix = DefaultRedisKeyPrefix
	}
	if cfg.Redis.PredictionTTL == 0 {
		cfg.Redis.PredictionTTL = DefaultRedisPredictionTTL
	}
	if cfg.Redis.SummaryTTL == 0 {
		cfg.Redis.SummaryTTL = DefaultRedisSummaryTTL
	}

	// ── Kafka ─────────────────────────────────────────────────────────────────
	if len(cfg.Kafka.Brokers) == 0 {
		cfg.Kafka.Brokers = []string{DefaultKafkaBroker}
	}
	if cfg.Kafka.ClientID == "" {
		cfg.Kafka.ClientID = DefaultKafkaClientID
	}
	if cfg.Kafka.ChatTopic == "" {
		cfg.Kafka.ChatTopic = DefaultKafkaChatTopic
	}
	if cfg.Kafka.PredictionTopic == "" {
		cfg.Kafka.PredictionTopic = DefaultKafkaPredictionTopic
	}
	if cfg.Kafka.SessionTopic == "" {
		cfg.Kafka.SessionTopic = DefaultKafkaSessionTopic
	}

	// ── MinIO ─────────────────────────────────────────────────────────────────
	if cfg.MinIO.Endpoint == "" {
		cfg.MinIO.Endpoint = DefaultMinIOEndpoint
	}
	if cfg.MinIO.Bucket == "" {
		cfg.MinIO.Bucket = DefaultMinIOBucket
	}

	// ── LLM ───────────────────────────────────────────────────────────────────
	if cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = DefaultLLMBaseURL
	}
	if cfg.LLM.Model == "" {
		cfg.LLM.Model = DefaultLLMModel
	}
	if cfg.LLM.Timeout == 0 {
		cfg.LLM.Timeout = DefaultLLMTimeout
	}

	// ── Prediction ────────────────────────────────────────────────────────────
	if cfg.Prediction.ADMET.URL == "" {
		cfg.Prediction.ADMET.URL = DefaultADMETURL
	}
	if cfg.Prediction.ADMET.Timeout == 0 {
		cfg.Prediction.ADMET.Timeout = DefaultADMETTimeout
	}
	if cfg.Prediction.Affinity.URL == "" {
		cfg.Prediction.Affinity.URL = DefaultAffinityURL
	}
	if cfg.Prediction.Affinity.Timeout == 0 {
		cfg.Prediction.Affinity.Timeout = DefaultAffinityTimeout
	}

	// ── Session ───────────────────────────────────────────────────────────────
	if cfg.Session.SweepInterval == 0 {
		cfg.Session.SweepInterval = DefaultSweepInterval
	}
	if cfg.Session.IdleTimeout == 0 {
		cfg.Session.IdleTimeout = DefaultIdleTimeout
	}

	// ── HTTP middleware ───────────────────────────────────────────────────────
	if len(cfg.HTTP.CORS.AllowedOrigins) == 0 {
		cfg.HTTP.CORS.AllowedOrigins = []string{"*"}
	}
	if cfg.HTTP.RateLimit.RPS == 0 {
		cfg.HTTP.RateLimit.RPS = DefaultRateLimitRPS
	}
	if cfg.HTTP.RateLimit.Burst == 0 {
		cfg.HTTP.RateLimit.Burst = DefaultRateLimitBurst
	}

	// ── Observability ─────────────────────────────────────────────────────────
	if cfg.Log.Level == "" {
		cfg.Log.Level = DefaultLogLevel
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = DefaultLogFormat
	}
	if cfg.Metrics.Namespace == "" {
		cfg.Metrics.Namespace = DefaultMetricsNamespace
	}
}

//Personal.AI order the ending
