// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type Config struct {
	Server    ServerConfig
	Database  DatabaseConfig
	RabbitMQ  RabbitMQConfig
	Redis     RedisConfig
	Logging   LoggingConfig
	Discovery DiscoveryConfig
	Watch     WatchConfig
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int
	ShutdownTimeout time.Duration
	APIKeys         []string
}

// DatabaseConfig contains database connection configuration.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type DatabaseConfig struct {
	Host           string
	Name           string
	User           string
	Password       string
	SSLMode        string
	Port           int
	MaxConnections int
	MinConnections int
	MaxIdleTime    time.Duration
	MaxLifetime    time.Duration
}

// DSN returns the pgx connection string for the database.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.Name, d.SSLMode)
}

// URL returns the database as a postgres:// URL, the form golang-migrate
// expects.
func (d DatabaseConfig) URL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(d.User, d.Password),
		Host:     fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:     "/" + d.Name,
		RawQuery: "sslmode=" + url.QueryEscape(d.SSLMode),
	}
	return u.String()
}

// RabbitMQConfig contains RabbitMQ connection and exchange configuration.
// Event publishing is skipped when Enabled is false.
//
//nolint:govet // fieldalignment: Accept minor memory overhead for better readability
type RabbitMQConfig struct {
	Enabled  bool
	Host     string
	User     string
	Password string
	Exchange string
	Port     int
}

// RedisConfig contains the engagement summary cache configuration.
// An empty URL disables the cache.
type RedisConfig struct {
	URL        string
	SummaryTTL time.Duration
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level string
	File  string
}

// DiscoveryConfig tunes the video listing pipeline.
type DiscoveryConfig struct {
	// SampleFactor multiplies the page size to get the sample drawn for
	// non-search listings.
	SampleFactor int
	MaxPageSize  int
	QueryTimeout time.Duration
}

// WatchConfig tunes the watch activity updater.
type WatchConfig struct {
	// HistoryLimit caps a user's watch history. Zero means unlimited.
	HistoryLimit int
}

// Load loads configuration from file and environment variables.
func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")

	setDefaults()

	viper.SetEnvPrefix("APP")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		// Config file not found, use defaults and env vars
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.Server.APIKeys = splitKeys(viper.GetString("server.apikeys"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail much later at runtime.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Discovery.SampleFactor < 1 {
		return fmt.Errorf("discovery.samplefactor must be at least 1, got %d", c.Discovery.SampleFactor)
	}
	if c.Discovery.MaxPageSize < 1 {
		return fmt.Errorf("discovery.maxpagesize must be at least 1, got %d", c.Discovery.MaxPageSize)
	}
	if c.Watch.HistoryLimit < 0 {
		return fmt.Errorf("watch.historylimit must not be negative, got %d", c.Watch.HistoryLimit)
	}
	return nil
}

func setDefaults() {
	// Server
	viper.SetDefault("server.port", 8080)
	viper.SetDefault("server.shutdowntimeout", 30*time.Second)
	viper.SetDefault("server.apikeys", "")

	// Database
	viper.SetDefault("database.host", "localhost")
	viper.SetDefault("database.port", 5432)
	viper.SetDefault("database.name", "vidshare")
	viper.SetDefault("database.user", "postgres")
	viper.SetDefault("database.password", "postgres")
	viper.SetDefault("database.sslmode", "disable")
	viper.SetDefault("database.maxconnections", 25)
	viper.SetDefault("database.minconnections", 5)
	viper.SetDefault("database.maxidletime", 30*time.Minute)
	viper.SetDefault("database.maxlifetime", 1*time.Hour)

	// RabbitMQ
	viper.SetDefault("rabbitmq.enabled", false)
	viper.SetDefault("rabbitmq.host", "localhost")
	viper.SetDefault("rabbitmq.port", 5672)
	viper.SetDefault("rabbitmq.user", "guest")
	viper.SetDefault("rabbitmq.password", "guest")
	viper.SetDefault("rabbitmq.exchange", "vidshare.engagement")

	// Redis
	viper.SetDefault("redis.url", "")
	viper.SetDefault("redis.summaryttl", 30*time.Second)

	// Discovery
	viper.SetDefault("discovery.samplefactor", 10)
	viper.SetDefault("discovery.maxpagesize", 100)
	viper.SetDefault("discovery.querytimeout", 5*time.Second)

	// Watch
	viper.SetDefault("watch.historylimit", 200)

	// Logging
	viper.SetDefault("logging.level", "info")
	viper.SetDefault("logging.file", "")
}

// splitKeys parses a comma-separated list of API keys.
func splitKeys(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	keys := make([]string, 0, len(parts))
	for _, key := range parts {
		if trimmed := strings.TrimSpace(key); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}
