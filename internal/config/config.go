// Package config assembles the application configuration from the reusable
// sections in pkg/config plus the marketplace-specific sections (LLM
// provider, bundle storage, composer limits).
package config

import (
	"fmt"
	"strings"

	"github.com/hashicorp/go-multierror"

	pkgconfig "github.com/agentskills/marketplace/pkg/config"
	"github.com/agentskills/marketplace/pkg/logger"
)

// AppConfig holds all application configuration.
type AppConfig struct {
	// Service identity
	ServiceName string `env:"SERVICE_NAME" yaml:"service_name" default:"skills-marketplace"`
	Version     string `env:"VERSION" yaml:"version" default:"dev"`
	Environment string `env:"ENVIRONMENT" yaml:"environment" default:"development"`

	Logging  LoggingConfig              `yaml:"logging"`
	HTTP     pkgconfig.HTTPServerConfig `yaml:"http"`
	Database pkgconfig.DatabaseConfig   `yaml:"database"`
	Metrics  pkgconfig.MetricsConfig    `yaml:"metrics"`

	LLM      LLMConfig      `yaml:"llm"`
	Storage  StorageConfig  `yaml:"storage"`
	Composer ComposerConfig `yaml:"composer"`
	Security SecurityConfig `yaml:"security"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `env:"LOG_LEVEL" yaml:"level" default:"info"`
	Format string `env:"LOG_FORMAT" yaml:"format" default:"json"`
}

// SecurityConfig holds security-related configuration.
type SecurityConfig struct {
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" yaml:"cors_allowed_origins" default:"http://localhost:3000,http://localhost:8080"`
	MaxRequestSize     int64    `env:"MAX_REQUEST_SIZE" yaml:"max_request_size" default:"10485760"` // 10MB
}

// Load reads configuration from the optional YAML file at path and overlays
// environment variables. An empty path uses environment variables only.
func Load(path string) (*AppConfig, error) {
	var cfg AppConfig
	if err := pkgconfig.GetConfig(&cfg, path, path == ""); err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return &cfg, nil
}

// Validate validates the configuration and returns an aggregated error if any
// section is invalid.
func (c AppConfig) Validate() error {
	var result error

	level := strings.ToLower(c.Logging.Level)
	switch level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("log level must be one of [debug, info, warn, error], got %q", c.Logging.Level))
	}

	if c.Logging.Format != "json" && c.Logging.Format != "text" {
		result = multierror.Append(result, fmt.Errorf("log format must be either 'json' or 'text', got %q", c.Logging.Format))
	}

	if c.Security.MaxRequestSize <= 0 {
		result = multierror.Append(result, fmt.Errorf("max_request_size must be greater than 0"))
	}

	for _, section := range []pkgconfig.Validator{c.HTTP, c.Database, c.Metrics, c.LLM, c.Storage, c.Composer} {
		if err := section.Validate(); err != nil {
			result = multierror.Append(result, err)
		}
	}

	return result
}

// LoggerConfig returns the pkg/logger configuration for this app config.
func (c AppConfig) LoggerConfig() logger.Config {
	return logger.Config{
		Level:   c.LogLevel(),
		Format:  c.Logging.Format,
		Service: c.ServiceName,
	}
}

// LogLevel returns the parsed logger level, defaulting to info.
func (c AppConfig) LogLevel() logger.Level {
	switch strings.ToLower(c.Logging.Level) {
	case "debug":
		return logger.DebugLevel
	case "warn", "warning":
		return logger.WarnLevel
	case "error":
		return logger.ErrorLevel
	default:
		return logger.InfoLevel
	}
}

// IsProduction returns true if running in a production environment.
func (c AppConfig) IsProduction() bool {
	return strings.ToLower(c.Environment) == "production"
}

// LogConfig logs the loaded configuration without sensitive values.
func (c AppConfig) LogConfig(log logger.Logger) {
	log.Info("Application configuration loaded",
		logger.StringField("service_name", c.ServiceName),
		logger.StringField("version", c.Version),
		logger.StringField("environment", c.Environment),
		logger.IntField("http_port", c.HTTP.Port),
		logger.StringField("log_level", c.Logging.Level),
		logger.StringField("log_format", c.Logging.Format),
		logger.StringField("llm_provider", c.LLM.Provider),
		logger.StringField("llm_model", c.LLM.Model),
		logger.StringField("storage_backend", c.Storage.Backend),
		logger.BoolField("metrics_exposed", c.Metrics.ExposeMetrics),
		logger.BoolField("rate_limit_enabled", c.Composer.RateLimitEnabled),
		logger.IntField("generations_per_hour", c.Composer.GenerationsPerHour),
	)
}
