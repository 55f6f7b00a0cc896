// Package config provides configuration management for warden.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the warden daemon.
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	NATS     NATSConfig     `mapstructure:"nats"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Security SecurityConfig `mapstructure:"security"`
	Spam     SpamConfig     `mapstructure:"spam"`
	Scan     ScanConfig     `mapstructure:"scan"`
	Alerts   AlertsConfig   `mapstructure:"alerts"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// ServerConfig holds operator HTTP API configuration.
type ServerConfig struct {
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// DatabaseConfig holds PostgreSQL configuration for the durable sink.
type DatabaseConfig struct {
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL connection settings.
type PostgresConfig struct {
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Database string `mapstructure:"database"`
	SSLMode  string `mapstructure:"sslmode"`
}

// ConnString builds a pgx-compatible connection string.
func (p PostgresConfig) ConnString() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Database, p.SSLMode,
	)
}

// NATSConfig holds message bus connection settings.
type NATSConfig struct {
	URL  string `mapstructure:"url"`
	Name string `mapstructure:"name"`
}

// RedisConfig holds Redis settings for the optional rate-window backend.
type RedisConfig struct {
	URL     string `mapstructure:"url"`
	Enabled bool   `mapstructure:"enabled"`
}

// SecurityConfig holds the moderation policy settings.
type SecurityConfig struct {
	// AutoModeration enables timeout/delete actions on detections.
	AutoModeration bool `mapstructure:"auto_moderation"`

	// SuspiciousThreshold is the cumulative score at which a user is
	// considered highly suspicious.
	SuspiciousThreshold int `mapstructure:"suspicious_threshold"`

	// Level is the configured security posture (low|medium|high|critical).
	Level string `mapstructure:"level"`

	// WelcomeMessage enables welcome notifications on member join.
	WelcomeMessage bool `mapstructure:"welcome_message"`

	// AlertMode controls threshold alerting: "level" fires on every point
	// addition at or over the threshold, "edge" only on the crossing.
	AlertMode string `mapstructure:"alert_mode"`
}

// SpamConfig holds burst-detection settings.
type SpamConfig struct {
	// Window is the trailing horizon for counting recent messages.
	Window time.Duration `mapstructure:"window"`

	// Burst is the message count within Window that flags spam.
	Burst int `mapstructure:"burst"`
}

// ScanConfig holds periodic health-scan settings.
type ScanConfig struct {
	Interval time.Duration `mapstructure:"interval"`
}

// AlertsConfig holds best-effort alert delivery settings.
type AlertsConfig struct {
	// WebhookURL is an optional HTTP endpoint that receives alert payloads.
	WebhookURL string `mapstructure:"webhook_url"`
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("server.port", 8090)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "60s")

	v.SetDefault("database.postgres.host", "localhost")
	v.SetDefault("database.postgres.port", 5432)
	v.SetDefault("database.postgres.user", "warden")
	v.SetDefault("database.postgres.password", "")
	v.SetDefault("database.postgres.database", "warden")
	v.SetDefault("database.postgres.sslmode", "disable")

	v.SetDefault("nats.url", "nats://localhost:4222")
	v.SetDefault("nats.name", "warden")

	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("redis.enabled", false)

	v.SetDefault("security.auto_moderation", true)
	v.SetDefault("security.suspicious_threshold", 3)
	v.SetDefault("security.level", "medium")
	v.SetDefault("security.welcome_message", true)
	v.SetDefault("security.alert_mode", "level")

	v.SetDefault("spam.window", "10s")
	v.SetDefault("spam.burst", 5)

	v.SetDefault("scan.interval", "5m")

	v.SetDefault("alerts.webhook_url", "")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Read from config file if provided
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	// Environment variables override file config
	v.SetEnvPrefix("WARDEN")
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}
