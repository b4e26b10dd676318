// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Meriter Contributors

// Package config loads meriter configuration. Sources are layered in order:
// built-in defaults, an optional YAML file, then command-line flags that were
// set explicitly.
package config

import (
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/samber/oops"
	"github.com/spf13/pflag"

	"github.com/meriter/meriter/internal/decision"
	"github.com/meriter/meriter/internal/decision/cache"
	"github.com/meriter/meriter/internal/logging"
)

// ErrCodeInvalid marks configuration that failed to load or validate.
const ErrCodeInvalid = "CONFIG_INVALID"

// DatabaseURLEnv is consulted when no database url is configured.
const DatabaseURLEnv = "DATABASE_URL"

// Config is the full meriter configuration.
type Config struct {
	Log      LogConfig      `koanf:"log"`
	Database DatabaseConfig `koanf:"database"`
	Redis    RedisConfig    `koanf:"redis"`
	Engine   EngineConfig   `koanf:"engine"`
}

// LogConfig configures logging.
type LogConfig struct {
	Format string `koanf:"format"`
	Level  string `koanf:"level"`
}

// DatabaseConfig configures the Postgres fact source.
type DatabaseConfig struct {
	URL            string        `koanf:"url"`
	ConnectTimeout time.Duration `koanf:"connect_timeout"`
}

// RedisConfig configures the decision cache. An empty Addr disables it.
type RedisConfig struct {
	Addr string        `koanf:"addr"`
	TTL  time.Duration `koanf:"ttl"`
}

// EngineConfig configures the decision engine.
type EngineConfig struct {
	CommentVotingEnabled bool `koanf:"comment_voting_enabled"`
	BatchConcurrency     int  `koanf:"batch_concurrency"`
}

// Defaults returns the built-in configuration.
func Defaults() Config {
	return Config{
		Log:      LogConfig{Format: logging.FormatText, Level: "info"},
		Database: DatabaseConfig{ConnectTimeout: 30 * time.Second},
		Redis:    RedisConfig{TTL: cache.DefaultTTL},
		Engine:   EngineConfig{BatchConcurrency: decision.DefaultBatchConcurrency},
	}
}

// flagKeys maps flag names registered by BindFlags to config keys.
var flagKeys = map[string]string{
	"log-format":        "log.format",
	"log-level":         "log.level",
	"database-url":      "database.url",
	"connect-timeout":   "database.connect_timeout",
	"redis-addr":        "redis.addr",
	"redis-ttl":         "redis.ttl",
	"comment-voting":    "engine.comment_voting_enabled",
	"batch-concurrency": "engine.batch_concurrency",
}

// BindFlags registers the configuration flags on fs with their defaults.
func BindFlags(fs *pflag.FlagSet) {
	d := Defaults()
	fs.String("log-format", d.Log.Format, "log format (json or text)")
	fs.String("log-level", d.Log.Level, "log level (debug, info, warn, error)")
	fs.String("database-url", "", "Postgres url for facts (default: $"+DatabaseURLEnv+")")
	fs.Duration("connect-timeout", d.Database.ConnectTimeout, "total time allowed for connecting to Postgres")
	fs.String("redis-addr", "", "Redis address for the decision cache (empty = disabled)")
	fs.Duration("redis-ttl", d.Redis.TTL, "decision cache entry TTL")
	fs.Bool("comment-voting", d.Engine.CommentVotingEnabled, "allow votes targeting comments")
	fs.Int("batch-concurrency", d.Engine.BatchConcurrency, "concurrent context builds in batch checks")
}

// Load reads path (if non-empty) and the explicitly set flags in fs on top of
// the defaults, then validates the result. fs may be nil.
func Load(path string, fs *pflag.FlagSet) (Config, error) {
	k := koanf.New(".")
	if err := setDefaults(k); err != nil {
		return Config{}, err
	}

	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, oops.Code(ErrCodeInvalid).With("path", path).Wrapf(err, "load config file")
		}
	}

	if fs != nil {
		provider := posflag.ProviderWithFlag(fs, ".", k, func(f *pflag.Flag) (string, any) {
			key, ok := flagKeys[f.Name]
			if !ok {
				return "", nil
			}
			return key, posflag.FlagVal(fs, f)
		})
		if err := k.Load(provider, nil); err != nil {
			return Config{}, oops.Code(ErrCodeInvalid).Wrapf(err, "load config flags")
		}
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, oops.Code(ErrCodeInvalid).Wrapf(err, "decode config")
	}
	if cfg.Database.URL == "" {
		cfg.Database.URL = os.Getenv(DatabaseURLEnv)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(k *koanf.Koanf) error {
	d := Defaults()
	for key, val := range map[string]any{
		"log.format":                    d.Log.Format,
		"log.level":                     d.Log.Level,
		"database.url":                  d.Database.URL,
		"database.connect_timeout":      d.Database.ConnectTimeout.String(),
		"redis.addr":                    d.Redis.Addr,
		"redis.ttl":                     d.Redis.TTL.String(),
		"engine.comment_voting_enabled": d.Engine.CommentVotingEnabled,
		"engine.batch_concurrency":      d.Engine.BatchConcurrency,
	} {
		if err := k.Set(key, val); err != nil {
			return oops.Code(ErrCodeInvalid).With("key", key).Wrapf(err, "set default")
		}
	}
	return nil
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Log.Format != logging.FormatJSON && c.Log.Format != logging.FormatText {
		return oops.Code(ErrCodeInvalid).With("log.format", c.Log.Format).
			Errorf("log format must be 'json' or 'text', got %q", c.Log.Format)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Engine.BatchConcurrency < 1 {
		return oops.Code(ErrCodeInvalid).With("engine.batch_concurrency", c.Engine.BatchConcurrency).
			Errorf("batch concurrency must be at least 1")
	}
	if c.Redis.Addr != "" && c.Redis.TTL <= 0 {
		return oops.Code(ErrCodeInvalid).With("redis.ttl", c.Redis.TTL).
			Errorf("redis ttl must be positive when the cache is enabled")
	}
	if c.Database.ConnectTimeout <= 0 {
		return oops.Code(ErrCodeInvalid).With("database.connect_timeout", c.Database.ConnectTimeout).
			Errorf("connect timeout must be positive")
	}
	if u := c.Database.URL; u != "" && !strings.HasPrefix(u, "postgres://") && !strings.HasPrefix(u, "postgresql://") {
		return oops.Code(ErrCodeInvalid).Errorf("database url must use the postgres:// scheme")
	}
	return nil
}
