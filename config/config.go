// Package config loads the service configuration from an optional YAML file
// and OCLTX_ environment variables.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"

	tx "github.com/gofhir/terminology"
	"github.com/gofhir/terminology/internal/validate"
)

// EnvPrefix prefixes every environment override, e.g. OCLTX_DATABASE_DSN.
const EnvPrefix = "OCLTX"

// Config is the service configuration.
type Config struct {
	Database Database `mapstructure:"database"`
	Engine   Engine   `mapstructure:"engine"`
	Cache    Cache    `mapstructure:"cache"`
	Log      Log      `mapstructure:"log"`
	Metrics  Metrics  `mapstructure:"metrics"`
}

// Database selects the repository backend.
type Database struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite3 postgres memory"`
	DSN    string `mapstructure:"dsn" validate:"required_unless=Driver memory"`

	// Fixture is an optional JSON dataset loaded at startup.
	Fixture string `mapstructure:"fixture"`
}

// Engine tunes the terminology engine.
type Engine struct {
	PageSize int `mapstructure:"page_size" validate:"gte=1"`
	Workers  int `mapstructure:"workers" validate:"gte=1"`
}

// Cache configures the repository cache.
type Cache struct {
	Enabled    bool          `mapstructure:"enabled"`
	Size       int           `mapstructure:"size" validate:"gte=0"`
	TTL        time.Duration `mapstructure:"ttl" validate:"gte=0"`
	ShardCount int           `mapstructure:"shard_count" validate:"gte=0"`
}

// Log configures logging.
type Log struct {
	Level       string `mapstructure:"level" validate:"oneof=debug info warn error none"`
	Development bool   `mapstructure:"development"`
}

// Metrics configures Prometheus metrics.
type Metrics struct {
	Namespace string `mapstructure:"namespace"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite3")
	v.SetDefault("database.dsn", "file:ocl-terminology.db?_foreign_keys=on")
	v.SetDefault("database.fixture", "")

	v.SetDefault("engine.page_size", tx.DefaultPageSize)
	v.SetDefault("engine.workers", runtime.NumCPU())

	v.SetDefault("cache.enabled", false)
	v.SetDefault("cache.size", 10000)
	v.SetDefault("cache.ttl", 15*time.Minute)
	v.SetDefault("cache.shard_count", 64)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.development", false)

	v.SetDefault("metrics.namespace", "ocl_terminology")
}

// Default returns the configuration with no file and no overrides applied.
func Default() *Config {
	v := viper.New()
	setDefaults(v)
	c := &Config{}
	_ = v.Unmarshal(c)
	return c
}

// Load reads the configuration. An empty path searches for
// ocl-terminology.yaml in the working directory and ./configs; a missing
// file there is not an error. Environment variables override both.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("ocl-terminology")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	c := &Config{}
	if err := v.Unmarshal(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	c.Log.Level = strings.ToLower(c.Log.Level)
	if err := validate.Struct(c); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return c, nil
}

// EngineOptions returns the engine options of c. metrics may be nil.
func (c *Config) EngineOptions(metrics *tx.Metrics) []tx.Option {
	return []tx.Option{
		tx.WithDefaultPageSize(c.Engine.PageSize),
		tx.WithWorkers(c.Engine.Workers),
		tx.WithMetrics(metrics),
	}
}
