package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the service
type Config struct {
	Server    ServerConfig
	Storage   StorageConfig
	Events    EventsConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Analysis  AnalysisConfig
	Images    ImagesConfig
	Logging   LoggingConfig
}

// ServerConfig holds server specific configuration
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	MaxBodyBytes int64
}

// StorageConfig holds document storage configuration
type StorageConfig struct {
	Type  string // "local", "s3"
	Local LocalStorageConfig
	S3    S3StorageConfig
}

// LocalStorageConfig holds filesystem storage configuration
type LocalStorageConfig struct {
	BasePath    string
	Permissions string
}

// S3StorageConfig holds AWS S3 configuration
type S3StorageConfig struct {
	Bucket    string
	Region    string
	AccessKey string
	SecretKey string
	Prefix    string
	Endpoint  string
	Retries   uint64
}

// EventsConfig holds Kafka publishing configuration
type EventsConfig struct {
	Enabled  bool
	Brokers  []string
	Topic    string
	ClientID string
	Retries  uint64
}

// RateLimitConfig holds per-client request limits
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// CORSConfig holds allowed browser origins
type CORSConfig struct {
	AllowedOrigins []string
}

// AnalysisConfig holds presentation options for computed reports
type AnalysisConfig struct {
	EquityJitter float64
}

// ImagesConfig holds trade image thumbnail sizes
type ImagesConfig struct {
	ThumbnailSizes []ThumbnailSize
}

// ThumbnailSize defines a thumbnail size
type ThumbnailSize struct {
	Name   string
	Width  int
	Height int
}

// LoggingConfig holds logging specific configuration
type LoggingConfig struct {
	Level  string
	Format string
}

// LoadConfig loads the configuration from file and environment variables.
// A missing file is not an error; defaults and environment still apply.
func LoadConfig(path string) (*Config, error) {
	// .env is optional
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	v := viper.New()

	// Set defaults
	setDefaults(v)

	// Read config file
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override, e.g. STORAGE_LOCAL_BASEPATH
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// setDefaults sets default values for configuration
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.readTimeout", "10s")
	v.SetDefault("server.writeTimeout", "30s")
	v.SetDefault("server.idleTimeout", "120s")
	v.SetDefault("server.maxBodyBytes", 50<<20)

	// Storage defaults
	v.SetDefault("storage.type", "local")
	v.SetDefault("storage.local.basePath", "data")
	v.SetDefault("storage.local.permissions", "0644")
	v.SetDefault("storage.s3.region", "us-east-1")
	v.SetDefault("storage.s3.prefix", "backtests/")
	v.SetDefault("storage.s3.retries", 3)

	// Events defaults
	v.SetDefault("events.enabled", false)
	v.SetDefault("events.brokers", []string{"localhost:9092"})
	v.SetDefault("events.topic", "backtest-events")
	v.SetDefault("events.clientID", "backtest-service")
	v.SetDefault("events.retries", 3)

	// Rate limit defaults
	v.SetDefault("rateLimit.enabled", true)
	v.SetDefault("rateLimit.requestsPerSecond", 20)
	v.SetDefault("rateLimit.burst", 40)

	// CORS defaults
	v.SetDefault("cors.allowedOrigins", []string{"*"})

	// Analysis defaults
	v.SetDefault("analysis.equityJitter", 0)

	// Image defaults
	v.SetDefault("images.thumbnailSizes", []map[string]interface{}{
		{"name": "small", "width": 320, "height": 180},
		{"name": "medium", "width": 640, "height": 360},
		{"name": "large", "width": 1280, "height": 720},
	})

	// Logging defaults
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
}
