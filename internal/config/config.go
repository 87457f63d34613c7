package config

import (
	"os"
	"strconv"
	"time"

	"stagedoor/internal/cache"
	"stagedoor/internal/database"
	"stagedoor/internal/external"
	"stagedoor/internal/messaging"
)

// Config holds the full application configuration
type Config struct {
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	RequestTimeout time.Duration

	// Booking lifecycle
	PaymentGraceWindow time.Duration
	ReaperInterval     time.Duration

	Database      database.Config
	NATS          messaging.Config
	Elasticsearch ElasticsearchConfig
	Cache         cache.Config
	Gateway       external.GatewayConfig
	Ticketing     external.TicketingConfig
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:           getEnv("PORT", "8080"),
		GinMode:        getEnv("GIN_MODE", "debug"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		RequestTimeout: time.Duration(getEnvInt("REQUEST_TIMEOUT_SEC", 30)) * time.Second,

		PaymentGraceWindow: time.Duration(getEnvInt("PAYMENT_GRACE_WINDOW_MIN", 15)) * time.Minute,
		ReaperInterval:     time.Duration(getEnvInt("REAPER_INTERVAL_SEC", 30)) * time.Second,

		Database: database.Config{
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "stagedoor"),
			Password:           getEnv("DB_PASSWORD", "stagedoor123"),
			DBName:             getEnv("DB_NAME", "stagedoor"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 25),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		NATS: messaging.Config{
			URL:       getEnv("NATS_URL", "nats://localhost:4222"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "stagedoor"),
			ClientID:  getEnv("NATS_CLIENT_ID", "stagedoor-api"),
		},

		Elasticsearch: LoadElasticsearchConfig(),

		Cache: cache.Config{
			Addr:         getEnv("VALKEY_ADDR", "localhost:6379"),
			Password:     os.Getenv("VALKEY_PASSWORD"),
			UsersHashKey: getEnv("VALKEY_USERS_HASH_KEY", "users:auth"),
		},

		Gateway: external.GatewayConfig{
			BaseURL:  getEnv("PAYMENT_GATEWAY_URL", "http://localhost:9090"),
			APIKey:   os.Getenv("PAYMENT_GATEWAY_API_KEY"),
			Timeout:  time.Duration(getEnvInt("PAYMENT_TIMEOUT_SEC", 30)) * time.Second,
			UseMock:  getEnv("PAYMENT_GATEWAY_MOCK", "false") == "true",
		},

		Ticketing: external.TicketingConfig{
			BaseURL: getEnv("TICKETING_SERVICE_URL", "http://localhost:9091"),
			Timeout: time.Duration(getEnvInt("TICKETING_TIMEOUT_SEC", 30)) * time.Second,
		},
	}
}

// getEnv returns the environment variable value or a default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt returns an integer environment variable value or a default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
