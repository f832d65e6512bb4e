package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Extract   ExtractConfig   `yaml:"extract" mapstructure:"extract"`
	Quality   QualityConfig   `yaml:"quality" mapstructure:"quality"`
	Upload    UploadConfig    `yaml:"upload" mapstructure:"upload"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the extraction journal backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	Temperature float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens   int64   `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// ExtractConfig configures retry and pacing for extraction calls.
type ExtractConfig struct {
	MaxAttempts     int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	BaseBackoffSecs int     `yaml:"base_backoff_secs" mapstructure:"base_backoff_secs"`
	TimeoutSecs     int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec      float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	RateBurst       int     `yaml:"rate_burst" mapstructure:"rate_burst"`
	MaxConcurrent   int     `yaml:"max_concurrent" mapstructure:"max_concurrent"`
}

// QualityConfig configures the assessment engine.
type QualityConfig struct {
	// RulesFile optionally points at a YAML file overriding scoring weights
	// and tier thresholds. Empty means compiled-in defaults.
	RulesFile string `yaml:"rules_file" mapstructure:"rules_file"`
}

// UploadConfig configures document upload handling.
type UploadConfig struct {
	Dir           string   `yaml:"dir" mapstructure:"dir"`
	MaxFileSizeMB int64    `yaml:"max_file_size_mb" mapstructure:"max_file_size_mb"`
	Extensions    []string `yaml:"extensions" mapstructure:"extensions"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port        int      `yaml:"port" mapstructure:"port"`
	CORSOrigins []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("LEASE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "lease-extract.db")
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-sonnet-4-5-20250929")
	v.SetDefault("anthropic.temperature", 0.1)
	v.SetDefault("anthropic.max_tokens", 4096)
	v.SetDefault("extract.max_attempts", 3)
	v.SetDefault("extract.base_backoff_secs", 1)
	v.SetDefault("extract.timeout_secs", 120)
	v.SetDefault("extract.rate_per_sec", 2.0)
	v.SetDefault("extract.rate_burst", 4)
	v.SetDefault("extract.max_concurrent", 5)
	v.SetDefault("quality.rules_file", "")
	v.SetDefault("upload.dir", "./uploads")
	v.SetDefault("upload.max_file_size_mb", 10)
	v.SetDefault("upload.extensions", []string{".pdf", ".txt"})
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"http://localhost:5173", "http://localhost:3000"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
