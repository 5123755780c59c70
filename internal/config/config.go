// internal/config/config.go

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Environment string
	Server      ServerConfig
	Mongo       MongoConfig
	Database    DatabaseConfig
	NATS        NATSConfig
	Source      SourceConfig
	Ingest      IngestConfig
	Auth        AuthConfig
	Logging     LoggingConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration
	CorsOrigins     []string
}

// MongoConfig holds document store configuration
type MongoConfig struct {
	URI                   string
	Database              string
	MaxPoolSize           uint64
	MinPoolSize           uint64
	ConnectTimeout        time.Duration
	RawBatchCollection    string
	UniqueTrendCollection string
	ProductCollection     string
}

// DatabaseConfig holds the PostgreSQL configuration for the ingestion run ledger
type DatabaseConfig struct {
	Enabled      bool
	Host         string
	Port         int
	User         string
	Password     string
	Database     string
	MaxOpenConns int
	MaxIdleConns int
	MaxLifetime  time.Duration
	SSLMode      string
}

// NATSConfig holds NATS configuration. An empty URL disables event publishing.
type NATSConfig struct {
	URL            string
	MaxReconnects  int
	ReconnectWait  time.Duration
	ConnectTimeout time.Duration
	EventsTopic    string
}

// SourceConfig holds settings for the upstream trends service
type SourceConfig struct {
	BaseURL        string
	BearerToken    string
	PageSize       int
	RequestTimeout time.Duration
	ProductTimeout time.Duration
}

// IngestConfig holds ingestion pipeline configuration
type IngestConfig struct {
	EnrichInterval   time.Duration
	EnrichTopN       int
	Schedule         string
	ScheduleGenders  []string
	ScheduleCategory []string
	MaxProductCount  int
}

// AuthConfig holds the shared secret guarding the ingestion triggers
type AuthConfig struct {
	TriggerSecret string
}

// LoggingConfig holds logger configuration
type LoggingConfig struct {
	Level       string
	Development bool
}

// Load loads configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (Config, error) {
	_ = godotenv.Load()

	config := Config{
		Environment: getEnv("APP_ENV", "development"),
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 15*time.Minute),
			RequestTimeout:  getEnvAsDuration("SERVER_REQUEST_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 10*time.Second),
			CorsOrigins:     getEnvAsSlice("SERVER_CORS_ORIGINS", []string{"*"}),
		},
		Mongo: MongoConfig{
			URI:                   getEnv("MONGO_URI", "mongodb://localhost:27017"),
			Database:              getEnv("MONGO_DATABASE", "trends"),
			MaxPoolSize:           uint64(getEnvAsInt("MONGO_MAX_POOL_SIZE", 50)),
			MinPoolSize:           uint64(getEnvAsInt("MONGO_MIN_POOL_SIZE", 0)),
			ConnectTimeout:        getEnvAsDuration("MONGO_CONNECT_TIMEOUT", 10*time.Second),
			RawBatchCollection:    getEnv("MONGO_RAW_BATCH_COLLECTION", "entire_data"),
			UniqueTrendCollection: getEnv("MONGO_UNIQUE_TREND_COLLECTION", "unique_trends"),
			ProductCollection:     getEnv("MONGO_PRODUCT_COLLECTION", "product_details"),
		},
		Database: DatabaseConfig{
			Enabled:      getEnvAsBool("DB_ENABLED", false),
			Host:         getEnv("DB_HOST", "localhost"),
			Port:         getEnvAsInt("DB_PORT", 5432),
			User:         getEnv("DB_USER", "postgres"),
			Password:     getEnv("DB_PASSWORD", "postgres"),
			Database:     getEnv("DB_NAME", "trendboard"),
			MaxOpenConns: getEnvAsInt("DB_MAX_OPEN_CONNS", 10),
			MaxIdleConns: getEnvAsInt("DB_MAX_IDLE_CONNS", 2),
			MaxLifetime:  getEnvAsDuration("DB_MAX_LIFETIME", 5*time.Minute),
			SSLMode:      getEnv("DB_SSL_MODE", "disable"),
		},
		NATS: NATSConfig{
			URL:            getEnv("NATS_URL", ""),
			MaxReconnects:  getEnvAsInt("NATS_MAX_RECONNECTS", 10),
			ReconnectWait:  getEnvAsDuration("NATS_RECONNECT_WAIT", 1*time.Second),
			ConnectTimeout: getEnvAsDuration("NATS_CONNECT_TIMEOUT", 2*time.Second),
			EventsTopic:    getEnv("NATS_EVENTS_TOPIC", "trends"),
		},
		Source: SourceConfig{
			BaseURL:        getEnv("SOURCE_BASE_URL", "https://trends.fastfashion.live"),
			BearerToken:    getEnv("SOURCE_BEARER_TOKEN", ""),
			PageSize:       getEnvAsInt("SOURCE_PAGE_SIZE", 20),
			RequestTimeout: getEnvAsDuration("SOURCE_REQUEST_TIMEOUT", 30*time.Second),
			ProductTimeout: getEnvAsDuration("SOURCE_PRODUCT_TIMEOUT", 60*time.Second),
		},
		Ingest: IngestConfig{
			EnrichInterval:   getEnvAsDuration("INGEST_ENRICH_INTERVAL", 10*time.Second),
			EnrichTopN:       getEnvAsInt("INGEST_ENRICH_TOP_N", 10),
			Schedule:         getEnv("INGEST_SCHEDULE", ""),
			ScheduleGenders:  getEnvAsSlice("INGEST_SCHEDULE_GENDERS", []string{}),
			ScheduleCategory: getEnvAsSlice("INGEST_SCHEDULE_CATEGORIES", []string{}),
			MaxProductCount:  getEnvAsInt("INGEST_MAX_PRODUCT_COUNT", 500),
		},
		Auth: AuthConfig{
			TriggerSecret: getEnv("TRIGGER_SECRET", ""),
		},
		Logging: LoggingConfig{
			Level:       getEnv("LOG_LEVEL", "info"),
			Development: getEnvAsBool("LOG_DEVELOPMENT", false),
		},
	}

	return config, validate(config)
}

// validate checks if config is valid
func validate(config Config) error {
	if config.Source.PageSize <= 0 {
		return fmt.Errorf("source page size must be positive, got %d", config.Source.PageSize)
	}

	if config.Ingest.EnrichTopN <= 0 {
		return fmt.Errorf("enrich top N must be positive, got %d", config.Ingest.EnrichTopN)
	}

	if config.Ingest.EnrichInterval < 0 {
		return fmt.Errorf("enrich interval must not be negative")
	}

	if config.Environment != "development" {
		if config.Auth.TriggerSecret == "" {
			return fmt.Errorf("trigger secret must be set in non-development environments")
		}
		if config.Source.BearerToken == "" {
			return fmt.Errorf("source bearer token must be set in non-development environments")
		}
	}

	return nil
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsSlice(key string, defaultValue []string) []string {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}

	var values []string
	for _, v := range strings.Split(valueStr, ",") {
		if v = strings.TrimSpace(v); v != "" {
			values = append(values, v)
		}
	}
	return values
}
