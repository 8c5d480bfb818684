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
	Store   StoreConfig   `yaml:"store" mapstructure:"store"`
	Index   IndexConfig   `yaml:"index" mapstructure:"index"`
	Query   QueryConfig   `yaml:"query" mapstructure:"query"`
	Retry   RetryConfig   `yaml:"retry" mapstructure:"retry"`
	Breaker BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
	Server  ServerConfig  `yaml:"server" mapstructure:"server"`
	Log     LogConfig     `yaml:"log" mapstructure:"log"`
}

// StoreConfig selects the metric store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	FixturePath string `yaml:"fixture_path" mapstructure:"fixture_path"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// IndexConfig tunes location resolution.
type IndexConfig struct {
	SimilarityThreshold   float64 `yaml:"similarity_threshold" mapstructure:"similarity_threshold"`
	MaxCandidates         int     `yaml:"max_candidates" mapstructure:"max_candidates"`
	ParentMismatchPenalty float64 `yaml:"parent_mismatch_penalty" mapstructure:"parent_mismatch_penalty"`
	ReloadIntervalSecs    int     `yaml:"reload_interval_secs" mapstructure:"reload_interval_secs"`
	// Aliases adds to the built-in misspelling table.
	Aliases map[string]string `yaml:"aliases" mapstructure:"aliases"`
}

// QueryConfig bounds engine queries.
type QueryConfig struct {
	DefaultLimit     int `yaml:"default_limit" mapstructure:"default_limit"`
	MaxLimit         int `yaml:"max_limit" mapstructure:"max_limit"`
	FetchConcurrency int `yaml:"fetch_concurrency" mapstructure:"fetch_concurrency"`
}

// RetryConfig configures retries of store reads.
type RetryConfig struct {
	MaxAttempts      int `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
}

// BreakerConfig configures the store circuit breaker.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	RateLimit      float64  `yaml:"rate_limit" mapstructure:"rate_limit"`
	RateBurst      int      `yaml:"rate_burst" mapstructure:"rate_burst"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

var validDrivers = map[string]bool{"postgres": true, "sqlite": true, "file": true}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("GROUNDWATER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.database_url", "")
	v.SetDefault("store.fixture_path", "")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("server.rate_limit", 20)
	v.SetDefault("server.rate_burst", 40)
	v.SetDefault("index.similarity_threshold", 0.6)
	v.SetDefault("index.max_candidates", 10)
	v.SetDefault("index.parent_mismatch_penalty", 0.5)
	v.SetDefault("index.reload_interval_secs", 0)
	v.SetDefault("query.default_limit", 10)
	v.SetDefault("query.max_limit", 100)
	v.SetDefault("query.fetch_concurrency", 8)
	v.SetDefault("retry.max_attempts", 3)
	v.SetDefault("retry.initial_backoff_ms", 200)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_secs", 30)

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

// Validate rejects settings the engine cannot run with. Mode "serve"
// additionally checks the HTTP settings; "cli" checks the shared settings.
func (c *Config) Validate(mode string) error {
	if mode != "cli" && mode != "serve" {
		return eris.Errorf("config: unknown mode %q", mode)
	}

	var errs []string
	if !validDrivers[c.Store.Driver] {
		errs = append(errs, "store.driver must be postgres, sqlite or file (got \""+c.Store.Driver+"\")")
	}
	if t := c.Index.SimilarityThreshold; t <= 0 || t > 1 {
		errs = append(errs, "index.similarity_threshold must be in (0,1]")
	}
	if p := c.Index.ParentMismatchPenalty; p <= 0 || p > 1 {
		errs = append(errs, "index.parent_mismatch_penalty must be in (0,1]")
	}
	if c.Index.ReloadIntervalSecs < 0 {
		errs = append(errs, "index.reload_interval_secs must be >= 0")
	}
	for _, kv := range []struct {
		key string
		val int
	}{
		{"index.max_candidates", c.Index.MaxCandidates},
		{"query.default_limit", c.Query.DefaultLimit},
		{"query.max_limit", c.Query.MaxLimit},
		{"query.fetch_concurrency", c.Query.FetchConcurrency},
		{"retry.max_attempts", c.Retry.MaxAttempts},
	} {
		if kv.val <= 0 {
			errs = append(errs, kv.key+" must be > 0")
		}
	}
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		errs = append(errs, "query.default_limit must not exceed query.max_limit")
	}

	if mode == "serve" {
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		if c.Server.RateLimit <= 0 || c.Server.RateBurst <= 0 {
			errs = append(errs, "server.rate_limit and server.rate_burst must be > 0")
		}
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
