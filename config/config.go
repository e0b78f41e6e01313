package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const envPrefix = "AALA"

// Config holds all configuration for the application
type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Store        StoreConfig        `mapstructure:"store"`
	Rules        RulesConfig        `mapstructure:"rules"`
	Pipeline     PipelineConfig     `mapstructure:"pipeline"`
	Images       ImagesConfig       `mapstructure:"images"`
	Reachability ReachabilityConfig `mapstructure:"reachability"`
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	Port           string   `mapstructure:"port"`
	Environment    string   `mapstructure:"environment"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `mapstructure:"level"`
}

// StoreConfig holds the product database location
type StoreConfig struct {
	Path string `mapstructure:"path"`
}

// RulesConfig points at a rulebook file; empty uses the embedded default
type RulesConfig struct {
	Path string `mapstructure:"path"`
}

// PipelineConfig holds enrichment run settings
type PipelineConfig struct {
	Workers int `mapstructure:"workers"`
}

// ImagesConfig holds where local image paths are served from
type ImagesConfig struct {
	PublicDir string `mapstructure:"public_dir"`
}

// ReachabilityConfig holds settings for the opt-in image reachability check
type ReachabilityConfig struct {
	Timeout           time.Duration `mapstructure:"timeout"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second"`
	Burst             int           `mapstructure:"burst"`
	MaxRetries        int           `mapstructure:"max_retries"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	v := viper.New()

	// Set config name and paths
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/aalacomputer/")

	// AALA_SERVER_PORT -> server.port
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Read config file (optional - will use env vars if file doesn't exist)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads ./.env when present. Variables already set in the
// environment win.
func loadEnvFile() error {
	err := godotenv.Load()
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.environment", "development")
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000"})

	v.SetDefault("log.level", "info")

	v.SetDefault("store.path", "data/products.db")
	v.SetDefault("rules.path", "")
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("images.public_dir", "public")

	// Reachability defaults
	v.SetDefault("reachability.timeout", "10s")
	v.SetDefault("reachability.requests_per_second", 5)
	v.SetDefault("reachability.burst", 10)
	v.SetDefault("reachability.max_retries", 3)
	v.SetDefault("reachability.cache_ttl", "6h")
}

// validate validates the configuration
func validate(config *Config) error {
	if config.Server.Port == "" {
		return fmt.Errorf("server port is required (set %s_SERVER_PORT)", envPrefix)
	}

	switch config.Server.Environment {
	case "development", "production", "test":
	default:
		return fmt.Errorf("server environment must be 'development', 'production' or 'test', got: %s", config.Server.Environment)
	}

	if _, err := zapcore.ParseLevel(config.Log.Level); err != nil {
		return fmt.Errorf("log level: %w", err)
	}

	if config.Pipeline.Workers < 1 {
		return fmt.Errorf("pipeline workers must be at least 1, got: %d", config.Pipeline.Workers)
	}

	r := config.Reachability
	if r.Timeout <= 0 {
		return fmt.Errorf("reachability timeout must be positive, got: %s", r.Timeout)
	}
	if r.RequestsPerSecond <= 0 {
		return fmt.Errorf("reachability requests_per_second must be positive, got: %v", r.RequestsPerSecond)
	}
	if r.Burst < 1 {
		return fmt.Errorf("reachability burst must be at least 1, got: %d", r.Burst)
	}
	if r.MaxRetries < 1 {
		return fmt.Errorf("reachability max_retries must be at least 1, got: %d", r.MaxRetries)
	}
	if r.CacheTTL < 0 {
		return fmt.Errorf("reachability cache_ttl must not be negative, got: %s", r.CacheTTL)
	}

	return nil
}

// NewLogger builds the process logger: console output in development, JSON
// otherwise, at the configured level.
func (c *Config) NewLogger() (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(c.Log.Level)
	if err != nil {
		return nil, err
	}

	var logConfig zap.Config
	if c.Server.Environment == "development" {
		logConfig = zap.NewDevelopmentConfig()
	} else {
		logConfig = zap.NewProductionConfig()
	}
	logConfig.Level = zap.NewAtomicLevelAt(level)

	return logConfig.Build()
}
