// Package config loads the order counter configuration from an optional YAML
// file and ORDERS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/Sternrassler/domain-order-counter/pkg/client"
	"github.com/Sternrassler/domain-order-counter/pkg/logging"
	"github.com/Sternrassler/domain-order-counter/pkg/pagination"
	"github.com/Sternrassler/domain-order-counter/pkg/ratelimit"
	"github.com/ilyakaznacheev/cleanenv"
)

// Config represents the application configuration structure.
type Config struct {
	// Token is the static access token sent with every request
	Token string `env:"ORDERS_TOKEN" yaml:"token"`

	// API contains the order endpoint settings
	API struct {
		// BaseURL hosts the domain directory
		BaseURL string `env:"ORDERS_BASE_URL" env-default:"https://main.techlegal.ru" yaml:"baseURL"`
		// Resource is the path segment before the method name
		Resource string `env:"ORDERS_RESOURCE" env-default:"api" yaml:"resource"`
		// Timeout bounds every request
		Timeout time.Duration `env:"ORDERS_TIMEOUT" env-default:"30s" yaml:"timeout"`
		// SqueezeText asks for size-reduced record text
		SqueezeText bool `env:"ORDERS_SQUEEZE_TEXT" env-default:"true" yaml:"squeezeText"`
		// UserAgent is sent with every request
		UserAgent string `env:"ORDERS_USER_AGENT" env-default:"domain-order-counter/1.0" yaml:"userAgent"`
	} `yaml:"api"`

	// Counter contains the pagination settings
	Counter struct {
		// PageSize is the number of records requested per page
		PageSize int `env:"ORDERS_PAGE_SIZE" env-default:"1000" yaml:"pageSize"`
		// EmptyStreak is the number of consecutive empty pages that ends a domain
		EmptyStreak int `env:"ORDERS_EMPTY_STREAK" env-default:"3" yaml:"emptyStreak"`
		// MaxPages caps pages per domain, 0 is unlimited
		MaxPages int `env:"ORDERS_MAX_PAGES" env-default:"0" yaml:"maxPages"`
	} `yaml:"counter"`

	// Throttle contains the fixed pause schedule
	Throttle struct {
		LongEvery   int           `env:"ORDERS_THROTTLE_LONG_EVERY" env-default:"10" yaml:"longEvery"`
		LongPause   time.Duration `env:"ORDERS_THROTTLE_LONG_PAUSE" env-default:"1s" yaml:"longPause"`
		ShortEvery  int           `env:"ORDERS_THROTTLE_SHORT_EVERY" env-default:"5" yaml:"shortEvery"`
		ShortPause  time.Duration `env:"ORDERS_THROTTLE_SHORT_PAUSE" env-default:"500ms" yaml:"shortPause"`
		DomainPause time.Duration `env:"ORDERS_THROTTLE_DOMAIN_PAUSE" env-default:"1s" yaml:"domainPause"`
	} `yaml:"throttle"`

	// Output contains the result file settings
	Output struct {
		// Dir receives the result files
		Dir string `env:"ORDERS_OUTPUT_DIR" env-default:"data" yaml:"dir"`
		// Formats lists the files written per run (json, csv, xlsx)
		Formats []string `env:"ORDERS_OUTPUT_FORMATS" env-default:"json,csv" env-separator:"," yaml:"formats"`
	} `yaml:"output"`

	// Redis contains the optional cache settings. An empty Addr disables the cache.
	Redis struct {
		Addr       string        `env:"ORDERS_REDIS_ADDR" yaml:"addr"`
		Password   string        `env:"ORDERS_REDIS_PASSWORD" yaml:"password"`
		DB         int           `env:"ORDERS_REDIS_DB" env-default:"0" yaml:"db"`
		DomainsTTL time.Duration `env:"ORDERS_REDIS_DOMAINS_TTL" env-default:"10m" yaml:"domainsTTL"`
	} `yaml:"redis"`

	// Log contains the logger settings
	Log struct {
		Level  string `env:"ORDERS_LOG_LEVEL" env-default:"info" yaml:"level"`
		Pretty bool   `env:"ORDERS_LOG_PRETTY" env-default:"true" yaml:"pretty"`
	} `yaml:"log"`

	// MetricsAddr serves /metrics during a run when set
	MetricsAddr string `env:"ORDERS_METRICS_ADDR" yaml:"metricsAddr"`

	// Select is the domain selection expression
	Select string `env:"ORDERS_SELECT" env-default:"all" yaml:"select"`
}

// Load reads the yaml config file at configPath, or only the environment when
// configPath is empty, and returns a filled Config struct. It does not validate.
func Load(configPath string) (*Config, error) {
	var cfg Config

	var err error
	if configPath == "" {
		err = cleanenv.ReadEnv(&cfg)
	} else {
		err = cleanenv.ReadConfig(configPath, &cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}

	return &cfg, nil
}

// Validate checks the values a run depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.Token == "" {
		errs = append(errs, errors.New("token is required (ORDERS_TOKEN)"))
	}
	if c.API.BaseURL == "" {
		errs = append(errs, errors.New("api base URL is required"))
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("api timeout must be > 0 (got %s)", c.API.Timeout))
	}
	if c.Counter.PageSize <= 0 {
		errs = append(errs, fmt.Errorf("page size must be > 0 (got %d)", c.Counter.PageSize))
	}
	if c.Counter.EmptyStreak < 1 {
		errs = append(errs, fmt.Errorf("empty streak must be >= 1 (got %d)", c.Counter.EmptyStreak))
	}
	if c.Counter.MaxPages < 0 {
		errs = append(errs, fmt.Errorf("max pages must be >= 0 (got %d)", c.Counter.MaxPages))
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// ClientConfig returns the HTTP client settings.
func (c *Config) ClientConfig() client.Config {
	cfg := client.DefaultConfig(c.Token)
	cfg.BaseURL = c.API.BaseURL
	cfg.Resource = c.API.Resource
	cfg.Timeout = c.API.Timeout
	cfg.SqueezeText = c.API.SqueezeText
	cfg.UserAgent = c.API.UserAgent
	return cfg
}

// CounterConfig returns the pagination settings.
func (c *Config) CounterConfig() pagination.Config {
	cfg := pagination.DefaultConfig()
	cfg.PageSize = c.Counter.PageSize
	cfg.EmptyStreakLimit = c.Counter.EmptyStreak
	cfg.MaxPages = c.Counter.MaxPages
	return cfg
}

// Policy returns the pause schedule.
func (c *Config) Policy() ratelimit.Policy {
	return ratelimit.Policy{
		LongEvery:   c.Throttle.LongEvery,
		LongPause:   c.Throttle.LongPause,
		ShortEvery:  c.Throttle.ShortEvery,
		ShortPause:  c.Throttle.ShortPause,
		DomainPause: c.Throttle.DomainPause,
	}
}

// LogConfig returns the logger settings. The output stays at its default.
func (c *Config) LogConfig() logging.Config {
	cfg := logging.DefaultConfig()
	if level, err := logging.ParseLevel(c.Log.Level); err == nil {
		cfg.Level = level
	}
	cfg.Pretty = c.Log.Pretty
	return cfg
}

// CacheEnabled reports whether Redis is configured.
func (c *Config) CacheEnabled() bool {
	return c.Redis.Addr != ""
}
