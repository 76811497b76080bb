// File: internal/config/config.go
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Interface defines the contract for accessing application configuration.
// This allows for dependency injection and mocking in tests.
type Interface interface {
	Logger() LoggerConfig
	Store() StoreConfig
	Search() SearchConfig
	Catalog() CatalogConfig
	GHDB() GHDBConfig

	// Setters for values that CLI flags may override.
	SetStoreBackend(backend string)
	SetDefaultEngine(engine string)
}

// Config holds the entire application configuration.
type Config struct {
	LoggerCfg  LoggerConfig  `mapstructure:"logger" yaml:"logger"`
	StoreCfg   StoreConfig   `mapstructure:"store" yaml:"store"`
	SearchCfg  SearchConfig  `mapstructure:"search" yaml:"search"`
	CatalogCfg CatalogConfig `mapstructure:"catalog" yaml:"catalog"`
	GHDBCfg    GHDBConfig    `mapstructure:"ghdb" yaml:"ghdb"`
}

// --- Interface Method Implementations (Getters) ---

func (c *Config) Logger() LoggerConfig   { return c.LoggerCfg }
func (c *Config) Store() StoreConfig     { return c.StoreCfg }
func (c *Config) Search() SearchConfig   { return c.SearchCfg }
func (c *Config) Catalog() CatalogConfig { return c.CatalogCfg }
func (c *Config) GHDB() GHDBConfig       { return c.GHDBCfg }

// --- Interface Method Implementations (Setters) ---

func (c *Config) SetStoreBackend(backend string) { c.StoreCfg.Backend = backend }
func (c *Config) SetDefaultEngine(engine string) { c.SearchCfg.DefaultEngine = engine }

// LoggerConfig holds all the configuration for the logger.
type LoggerConfig struct {
	Level       string      `mapstructure:"level" yaml:"level"`
	Format      string      `mapstructure:"format" yaml:"format"`
	AddSource   bool        `mapstructure:"add_source" yaml:"add_source"`
	ServiceName string      `mapstructure:"service_name" yaml:"service_name"`
	LogFile     string      `mapstructure:"log_file" yaml:"log_file"`
	MaxSize     int         `mapstructure:"max_size" yaml:"max_size"`
	MaxBackups  int         `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge      int         `mapstructure:"max_age" yaml:"max_age"`
	Compress    bool        `mapstructure:"compress" yaml:"compress"`
	Colors      ColorConfig `mapstructure:"colors" yaml:"colors"`
}

// ColorConfig defines the color codes for different log levels.
type ColorConfig struct {
	Debug  string `mapstructure:"debug" yaml:"debug"`
	Info   string `mapstructure:"info" yaml:"info"`
	Warn   string `mapstructure:"warn" yaml:"warn"`
	Error  string `mapstructure:"error" yaml:"error"`
	DPanic string `mapstructure:"dpanic" yaml:"dpanic"`
	Panic  string `mapstructure:"panic" yaml:"panic"`
	Fatal  string `mapstructure:"fatal" yaml:"fatal"`
}

// Store backends.
const (
	BackendFile     = "file"
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendMemory   = "memory"
)

// StoreConfig selects where the custom catalog and search history live.
type StoreConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"`
	// Path is used by the file and sqlite backends. "~" is expanded.
	Path string `mapstructure:"path" yaml:"path"`
	// URL is the PostgreSQL connection string.
	URL string `mapstructure:"url" yaml:"url"`
	// HistoryLimit caps how many search records a backend keeps. 0 keeps all.
	HistoryLimit int `mapstructure:"history_limit" yaml:"history_limit"`
}

// SearchConfig holds search URL generation settings.
type SearchConfig struct {
	// DefaultEngine applies only when no engine was given at all.
	DefaultEngine string `mapstructure:"default_engine" yaml:"default_engine"`
}

// CatalogConfig holds block catalog settings.
type CatalogConfig struct {
	// ReservePredefined rejects custom operators that shadow built-in ones.
	ReservePredefined bool `mapstructure:"reserve_predefined" yaml:"reserve_predefined"`
}

// GHDBConfig configures the Google Hacking Database client.
type GHDBConfig struct {
	BaseURL     string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout     time.Duration `mapstructure:"timeout" yaml:"timeout"`
	RateLimit   float64       `mapstructure:"rate_limit" yaml:"rate_limit"`
	PageSize    int           `mapstructure:"page_size" yaml:"page_size"`
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	UserAgent   string        `mapstructure:"user_agent" yaml:"user_agent"`
	// ProxyURL routes GHDB requests through an HTTP(S) proxy when set.
	ProxyURL string `mapstructure:"proxy_url" yaml:"proxy_url"`
}

// NewDefaultConfig creates a new configuration struct populated with default values.
func NewDefaultConfig() *Config {
	v := viper.New()
	SetDefaults(v)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		panic(fmt.Sprintf("failed to unmarshal default config: %v", err))
	}
	return &cfg
}

// SetDefaults initializes default values for various configuration parameters.
func SetDefaults(v *viper.Viper) {
	// -- Logger --
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.add_source", false)
	v.SetDefault("logger.service_name", "dorkbuilder")
	v.SetDefault("logger.log_file", "")
	v.SetDefault("logger.max_size", 10)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 30)
	v.SetDefault("logger.compress", true)
	v.SetDefault("logger.colors.debug", "cyan")
	v.SetDefault("logger.colors.info", "green")
	v.SetDefault("logger.colors.warn", "yellow")
	v.SetDefault("logger.colors.error", "red")
	v.SetDefault("logger.colors.dpanic", "magenta")
	v.SetDefault("logger.colors.panic", "magenta")
	v.SetDefault("logger.colors.fatal", "magenta")

	// -- Store --
	v.SetDefault("store.backend", BackendFile)
	v.SetDefault("store.path", "~/.dorkbuilder/state.yaml")
	v.SetDefault("store.url", "")
	v.SetDefault("store.history_limit", 500)

	// -- Search --
	v.SetDefault("search.default_engine", "google")

	// -- Catalog --
	v.SetDefault("catalog.reserve_predefined", true)

	// -- GHDB --
	v.SetDefault("ghdb.base_url", "https://www.exploit-db.com/google-hacking-database")
	v.SetDefault("ghdb.timeout", "30s")
	v.SetDefault("ghdb.rate_limit", 1.0)
	v.SetDefault("ghdb.page_size", 25)
	v.SetDefault("ghdb.concurrency", 2)
	v.SetDefault("ghdb.user_agent", "dorkbuilder/1.0")
	v.SetDefault("ghdb.proxy_url", "")
}

// NewConfigFromViper creates a new configuration instance from a viper object.
func NewConfigFromViper(v *viper.Viper) (*Config, error) {
	var cfg Config

	// Bind environment variables for sensitive data
	_ = v.BindEnv("store.url", "DORKBUILDER_DATABASE_URL")

	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for required fields and sane values.
func (c *Config) Validate() error {
	if err := c.StoreCfg.Validate(); err != nil {
		return fmt.Errorf("store configuration invalid: %w", err)
	}
	if strings.TrimSpace(c.SearchCfg.DefaultEngine) == "" {
		return fmt.Errorf("search.default_engine must not be empty")
	}
	if err := c.GHDBCfg.Validate(); err != nil {
		return fmt.Errorf("ghdb configuration invalid: %w", err)
	}
	return nil
}

// Validate checks the store configuration.
func (s *StoreConfig) Validate() error {
	switch s.Backend {
	case BackendFile, BackendSQLite:
		if s.Path == "" {
			return fmt.Errorf("path is required for the %s backend", s.Backend)
		}
	case BackendPostgres:
		if s.URL == "" {
			return fmt.Errorf("url is required for the postgres backend (hint: DORKBUILDER_DATABASE_URL)")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (expected file, sqlite, postgres or memory)", s.Backend)
	}
	if s.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must not be negative")
	}
	return nil
}

// ResolvedPath returns Path with a leading "~" expanded to the home directory.
func (s StoreConfig) ResolvedPath() (string, error) {
	p, err := homedir.Expand(s.Path)
	if err != nil {
		return "", fmt.Errorf("failed to expand store path %q: %w", s.Path, err)
	}
	return p, nil
}

// Validate checks the GHDB client settings.
func (g *GHDBConfig) Validate() error {
	if g.BaseURL == "" {
		return fmt.Errorf("base_url is required")
	}
	if g.Timeout <= 0 {
		return fmt.Errorf("timeout must be a positive duration")
	}
	if g.RateLimit <= 0 {
		return fmt.Errorf("rate_limit must be positive")
	}
	if g.PageSize <= 0 || g.PageSize > 100 {
		return fmt.Errorf("page_size must be between 1 and 100")
	}
	if g.Concurrency <= 0 {
		return fmt.Errorf("concurrency must be a positive integer")
	}
	if g.ProxyURL != "" {
		if u, err := url.Parse(g.ProxyURL); err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("proxy_url %q is not an absolute URL", g.ProxyURL)
		}
	}
	return nil
}
