package config

import (
	"fmt"
	"slices"
	"time"

	"github.com/utafrali/StoreFinderGo/internal/domain"
	pkgconfig "github.com/utafrali/StoreFinderGo/pkg/config"
	"github.com/utafrali/StoreFinderGo/pkg/database"
)

const (
	BackendPostgres      = "postgres"
	BackendMemory        = "memory"
	BackendElasticsearch = "elasticsearch"
)

// Config holds all configuration for the store service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort        int           `env:"STORE_HTTP_PORT" envDefault:"8010"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"15s"`

	// Storage backend (postgres or memory) and text/geo search backend
	// (postgres or elasticsearch).
	StorageBackend string        `env:"STORAGE_BACKEND" envDefault:"postgres"`
	SearchBackend  string        `env:"SEARCH_BACKEND" envDefault:"postgres"`
	StorageTimeout time.Duration `env:"STORAGE_TIMEOUT" envDefault:"5s"`

	// PostgreSQL
	PostgresHost string `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort int    `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser string `env:"POSTGRES_USER" envDefault:"storefinder"`
	PostgresPass string `env:"POSTGRES_PASSWORD" envDefault:"storefinder_secret"`
	PostgresDB   string `env:"STORE_DB_NAME" envDefault:"storefinder"`
	PostgresSSL  string `env:"POSTGRES_SSL_MODE" envDefault:"disable"`

	// Database pool
	DBMaxConns            int32 `env:"DB_MAX_CONNS" envDefault:"20"`
	DBMinConns            int32 `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxConnLifetimeMins int   `env:"DB_MAX_CONN_LIFETIME_MINUTES" envDefault:"60"`
	DBMaxConnIdleTimeMins int   `env:"DB_MAX_CONN_IDLE_TIME_MINUTES" envDefault:"30"`

	// Elasticsearch
	ElasticsearchURL   string `env:"ELASTICSEARCH_URL" envDefault:"http://localhost:9200"`
	ElasticsearchIndex string `env:"ELASTICSEARCH_INDEX" envDefault:"stores"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Redis backs the indexer's processed-event set when enabled.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	RedisPoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"10"`

	// Access tokens
	JWTSecret string `env:"JWT_SECRET" envDefault:"dev-secret-change-me"`

	// Discovery tuning
	PageSize             int      `env:"STORES_PAGE_SIZE" envDefault:"4"`
	SearchLimit          int      `env:"SEARCH_LIMIT" envDefault:"5"`
	GeoMaxDistanceMeters float64  `env:"GEO_MAX_DISTANCE_METERS" envDefault:"10000"`
	GeoLiteLimit         int      `env:"GEO_LITE_LIMIT" envDefault:"10"`
	GeoLiteFields        []string `env:"GEO_LITE_FIELDS" envDefault:"slug,name,description,location,photo" envSeparator:","`

	// Rate limiting of mutating routes
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"5"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"10"`

	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Slow query logging
	SlowQueryThresholdMs int `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	return LoadWithEnv(nil)
}

// LoadWithEnv reads configuration from environment instead of the process
// environment when it is non-nil.
func LoadWithEnv(environment map[string]string) (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.LoadWithEnv(cfg, environment); err != nil {
		return nil, fmt.Errorf("load store config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{BackendPostgres, BackendMemory}, c.StorageBackend) {
		return fmt.Errorf("STORAGE_BACKEND must be %q or %q, got %q", BackendPostgres, BackendMemory, c.StorageBackend)
	}
	if !slices.Contains([]string{BackendPostgres, BackendElasticsearch}, c.SearchBackend) {
		return fmt.Errorf("SEARCH_BACKEND must be %q or %q, got %q", BackendPostgres, BackendElasticsearch, c.SearchBackend)
	}
	if c.StorageTimeout <= 0 {
		return fmt.Errorf("STORAGE_TIMEOUT must be positive, got %s", c.StorageTimeout)
	}
	if c.StorageBackend == BackendPostgres && (c.PostgresHost == "" || c.PostgresUser == "") {
		return fmt.Errorf("POSTGRES_HOST and POSTGRES_USER are required")
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.PageSize < 1 {
		return fmt.Errorf("STORES_PAGE_SIZE must be at least 1, got %d", c.PageSize)
	}
	if c.SearchLimit < 1 {
		return fmt.Errorf("SEARCH_LIMIT must be at least 1, got %d", c.SearchLimit)
	}
	if c.GeoMaxDistanceMeters <= 0 {
		return fmt.Errorf("GEO_MAX_DISTANCE_METERS must be positive, got %g", c.GeoMaxDistanceMeters)
	}
	if c.GeoLiteLimit < 1 {
		return fmt.Errorf("GEO_LITE_LIMIT must be at least 1, got %d", c.GeoLiteLimit)
	}
	if _, err := domain.NewProjection(c.GeoLiteFields); err != nil {
		return fmt.Errorf("GEO_LITE_FIELDS: %w", err)
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}

// Postgres returns the pool settings.
func (c *Config) Postgres() database.PostgresConfig {
	return database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: time.Duration(c.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(c.DBMaxConnIdleTimeMins) * time.Minute,
	}
}

func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{
		Host:        c.RedisHost,
		Port:        c.RedisPort,
		Password:    c.RedisPassword,
		DB:          c.RedisDB,
		PoolSize:    c.RedisPoolSize,
		DialTimeout: c.StorageTimeout,
	}
}
