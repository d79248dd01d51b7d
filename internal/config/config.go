package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store     StoreConfig     `yaml:"store" mapstructure:"store"`
	SetlistFM SetlistFMConfig `yaml:"setlistfm" mapstructure:"setlistfm"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the source record store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
}

// SetlistFMConfig holds catalog API settings.
type SetlistFMConfig struct {
	APIKey         string `yaml:"api_key" mapstructure:"api_key"`
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	RateIntervalMS int    `yaml:"rate_interval_ms" mapstructure:"rate_interval_ms"`
}

// RateInterval returns the configured minimum spacing between catalog calls.
func (c SetlistFMConfig) RateInterval() time.Duration {
	return time.Duration(c.RateIntervalMS) * time.Millisecond
}

// EnrichConfig configures the batch driver.
type EnrichConfig struct {
	BatchSize   int    `yaml:"batch_size" mapstructure:"batch_size"`
	PagePauseMS int    `yaml:"page_pause_ms" mapstructure:"page_pause_ms"`
	LockDir     string `yaml:"lock_dir" mapstructure:"lock_dir"`
}

// PagePause returns the pause between record pages.
func (c EnrichConfig) PagePause() time.Duration {
	return time.Duration(c.PagePauseMS) * time.Millisecond
}

// ServerConfig configures the status/metrics server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
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
	v.SetEnvPrefix("SETLIST")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "sqlite")
	v.SetDefault("store.database_url", "setlist.db")
	v.SetDefault("setlistfm.api_key", "")
	v.SetDefault("setlistfm.base_url", "https://api.setlist.fm/rest/1.0")
	v.SetDefault("setlistfm.rate_interval_ms", 1000)
	v.SetDefault("enrich.batch_size", 50)
	v.SetDefault("enrich.page_pause_ms", 2000)
	v.SetDefault("enrich.lock_dir", "/tmp/setlist-cli")
	v.SetDefault("server.port", 8080)
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

// Validate checks that the configuration is usable for the given command
// mode ("enrich", "count", or "serve"). Only the fields that mode touches
// are required.
func (c *Config) Validate(mode string) error {
	var problems []string

	if c.Store.Driver != "sqlite" && c.Store.Driver != "postgres" {
		problems = append(problems, "store.driver must be sqlite or postgres")
	}
	if c.Store.DatabaseURL == "" {
		problems = append(problems, "store.database_url is required")
	}

	switch mode {
	case "enrich":
		if c.SetlistFM.APIKey == "" {
			problems = append(problems, "setlistfm.api_key is required")
		}
		if c.SetlistFM.RateIntervalMS < 0 {
			problems = append(problems, "setlistfm.rate_interval_ms must be >= 0")
		}
		if c.Enrich.BatchSize < 1 || c.Enrich.BatchSize > 500 {
			problems = append(problems, "enrich.batch_size must be between 1 and 500")
		}
		if c.Enrich.PagePauseMS < 0 {
			problems = append(problems, "enrich.page_pause_ms must be >= 0")
		}
	case "serve":
		if c.Server.Port <= 0 {
			problems = append(problems, "server.port must be > 0")
		}
	case "count":
		// Store checks above are enough.
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(problems) > 0 {
		return eris.Errorf("config: invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
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
