package config

import (
	"strings"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source   SourceConfig   `yaml:"source" mapstructure:"source"`
	Pipeline PipelineConfig `yaml:"pipeline" mapstructure:"pipeline"`
	Cache    CacheConfig    `yaml:"cache" mapstructure:"cache"`
	Server   ServerConfig   `yaml:"server" mapstructure:"server"`
	Monitor  MonitorConfig  `yaml:"monitor" mapstructure:"monitor"`
	Log      LogConfig      `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures where disclosure archives are downloaded from.
type SourceConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries  int     `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent   string  `yaml:"user_agent" mapstructure:"user_agent"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
}

// PipelineConfig configures the composition pipeline.
type PipelineConfig struct {
	Workers         int     `yaml:"workers" mapstructure:"workers"`
	LowMemory       bool    `yaml:"low_memory" mapstructure:"low_memory"`
	SuppressBelow   float64 `yaml:"suppress_below" mapstructure:"suppress_below"`
	PublicDebtLabel string  `yaml:"public_debt_label" mapstructure:"public_debt_label"`
	MinYear         int     `yaml:"min_year" mapstructure:"min_year"`
}

// CacheConfig configures the period cache.
type CacheConfig struct {
	// TTLMinutes expires entries after the given age. 0 keeps them until invalidated.
	TTLMinutes int `yaml:"ttl_minutes" mapstructure:"ttl_minutes"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RefreshCron    string   `yaml:"refresh_cron" mapstructure:"refresh_cron"`
}

// MonitorConfig configures upstream availability alerts in serve mode.
type MonitorConfig struct {
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, file and environment.
func Load() (*Config, error) {
	// Optional; variables already in the environment win.
	_ = godotenv.Load()

	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("FUNDCOMP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.base_url", "https://dados.cvm.gov.br/dados/FI/DOC/CDA/DADOS")
	v.SetDefault("source.timeout_secs", 10)
	v.SetDefault("source.max_retries", 1)
	v.SetDefault("source.user_agent", "fundcomp/1.0")
	v.SetDefault("source.rate_per_sec", 2.0)
	v.SetDefault("pipeline.workers", 4)
	v.SetDefault("pipeline.low_memory", false)
	v.SetDefault("pipeline.suppress_below", 0.5)
	v.SetDefault("pipeline.public_debt_label", "Títulos Públicos")
	v.SetDefault("pipeline.min_year", 2005)
	v.SetDefault("cache.ttl_minutes", 0)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"http://localhost:3000", "http://localhost:8501"})
	v.SetDefault("server.refresh_cron", "")
	v.SetDefault("monitor.webhook_url", "")
	v.SetDefault("monitor.failure_rate_threshold", 0.5)
	v.SetDefault("monitor.check_interval_secs", 300)
	v.SetDefault("monitor.lookback_window_hours", 24)
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

// Validate checks the settings required by the given command mode
// ("composition" or "serve").
func (c *Config) Validate(mode string) error {
	var errs []string

	if c.Source.BaseURL == "" {
		errs = append(errs, "source.base_url is required")
	}
	if c.Source.TimeoutSecs <= 0 {
		errs = append(errs, "source.timeout_secs must be > 0")
	}
	if c.Pipeline.Workers < 1 || c.Pipeline.Workers > 12 {
		errs = append(errs, "pipeline.workers must be between 1 and 12")
	}
	if c.Pipeline.SuppressBelow < 0 || c.Pipeline.SuppressBelow >= 100 {
		errs = append(errs, "pipeline.suppress_below must be in [0, 100)")
	}

	switch mode {
	case "composition":
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Monitor.FailureRateThreshold < 0 || c.Monitor.FailureRateThreshold > 1 {
			errs = append(errs, "monitor.failure_rate_threshold must be in [0, 1]")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
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
