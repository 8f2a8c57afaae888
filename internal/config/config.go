// Package config loads application configuration and bootstraps logging.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/batimetric/pricing-engine/internal/ledger"
)

// Config holds the full application configuration.
type Config struct {
	Ledger  ledger.Config `yaml:"ledger" mapstructure:"ledger"`
	Catalog CatalogConfig `yaml:"catalog" mapstructure:"catalog"`
	Pricing PricingConfig `yaml:"pricing" mapstructure:"pricing"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// CatalogConfig configures the semantic product-match service client.
type CatalogConfig struct {
	BaseURL   string  `yaml:"base_url" mapstructure:"base_url"`
	TopK      int     `yaml:"top_k" mapstructure:"top_k"`
	RateLimit float64 `yaml:"rate_limit" mapstructure:"rate_limit"` // requests/sec, 0 = unlimited
}

// PricingConfig configures the pricing engine itself.
type PricingConfig struct {
	// TablesPath optionally overrides the compiled-in benchmark tables with
	// a YAML file.
	TablesPath string `yaml:"tables_path" mapstructure:"tables_path"`
	// MatchConcurrency caps concurrent catalog lookups per proposal.
	MatchConcurrency int `yaml:"match_concurrency" mapstructure:"match_concurrency"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and PRICING_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("PRICING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("ledger.driver", "sqlite")
	v.SetDefault("ledger.path", "data/feedback.db")
	v.SetDefault("catalog.base_url", "http://localhost:8100")
	v.SetDefault("catalog.top_k", 5)
	v.SetDefault("catalog.rate_limit", 20)
	v.SetDefault("pricing.match_concurrency", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

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
