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
	Anthropic AnthropicConfig `yaml:"anthropic" mapstructure:"anthropic"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	RateLimit RateLimitConfig `yaml:"ratelimit" mapstructure:"ratelimit"`
	Reward    RewardConfig    `yaml:"reward" mapstructure:"reward"`
	Analyze   AnalyzeConfig   `yaml:"analyze" mapstructure:"analyze"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key         string  `yaml:"key" mapstructure:"key"`
	Model       string  `yaml:"model" mapstructure:"model"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRPS      float64 `yaml:"max_rps" mapstructure:"max_rps"`
}

// CacheConfig bounds the analysis result cache.
type CacheConfig struct {
	TTLHours   int `yaml:"ttl_hours" mapstructure:"ttl_hours"`
	MaxSize    int `yaml:"max_size" mapstructure:"max_size"`
	EvictBatch int `yaml:"evict_batch" mapstructure:"evict_batch"`
}

// RateLimitConfig configures the per-client request window.
type RateLimitConfig struct {
	WindowMins  int `yaml:"window_mins" mapstructure:"window_mins"`
	MaxRequests int `yaml:"max_requests" mapstructure:"max_requests"`
}

// RewardRange is an inclusive per-pattern bonus range.
type RewardRange struct {
	Min int `yaml:"min" mapstructure:"min"`
	Max int `yaml:"max" mapstructure:"max"`
}

// RewardConfig overrides the per-pattern bonus table. Keys are pattern
// names; missing patterns use the built-in defaults.
type RewardConfig struct {
	Ranges map[string]RewardRange `yaml:"ranges" mapstructure:"ranges"`
}

// AnalyzeConfig configures the one-shot CLI analysis command.
type AnalyzeConfig struct {
	MaxConcurrent int `yaml:"max_concurrent" mapstructure:"max_concurrent"`
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
	v.SetEnvPrefix("SCROLLSENSE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. The key default registers the viper key so the
	// SCROLLSENSE_ANTHROPIC_KEY env var is picked up without a config file.
	v.SetDefault("anthropic.key", "")
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("anthropic.timeout_secs", 30)
	v.SetDefault("anthropic.max_rps", 5)
	v.SetDefault("cache.ttl_hours", 2)
	v.SetDefault("cache.max_size", 1000)
	v.SetDefault("cache.evict_batch", 100)
	v.SetDefault("ratelimit.window_mins", 15)
	v.SetDefault("ratelimit.max_requests", 100)
	v.SetDefault("analyze.max_concurrent", 4)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.cors_origins", []string{"*"})
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
