// Package config provides configuration management for the panel daemon
package config

import (
	"time"
)

// Config holds all configuration for the daemon
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Backend   BackendConfig   `yaml:"backend"`
	Database  DatabaseConfig  `yaml:"database"`
	Redis     RedisConfig     `yaml:"redis"`
	RateLimit RateLimitConfig `yaml:"rateLimit"`
	Engine    EngineConfig    `yaml:"engine"`
	Panels    []PanelConfig   `yaml:"panels"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"readTimeout"`
	WriteTimeout time.Duration `yaml:"writeTimeout"`
	IdleTimeout  time.Duration `yaml:"idleTimeout"`
	TLSCert      string        `yaml:"tlsCert"`
	TLSKey       string        `yaml:"tlsKey"`
}

// BackendConfig points at the REST backend that owns panels and products
type BackendConfig struct {
	BaseURL string        `yaml:"baseURL"`
	Timeout time.Duration `yaml:"timeout"`
}

// DatabaseConfig holds settings for reading the backend database directly.
// It is optional; an empty Host disables the postgres sources.
type DatabaseConfig struct {
	Host            string        `yaml:"host"`
	Port            int           `yaml:"port"`
	Name            string        `yaml:"name"`
	User            string        `yaml:"user"`
	Password        string        `yaml:"password"`
	SSLMode         string        `yaml:"sslmode"`
	MaxOpenConns    int           `yaml:"maxOpenConns"`
	MaxIdleConns    int           `yaml:"maxIdleConns"`
	ConnMaxLifetime time.Duration `yaml:"connMaxLifetime"`
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// RedisConfig is optional; an empty Addr keeps rate limits in memory and
// disables snapshot caching.
type RedisConfig struct {
	Addr        string        `yaml:"addr"`
	Password    string        `yaml:"password"`
	DB          int           `yaml:"db"`
	SnapshotTTL time.Duration `yaml:"snapshotTTL"`
}

// Enabled reports whether Redis is configured
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// RateLimitConfig overrides the built-in HTTP rate limits
type RateLimitConfig struct {
	Disabled bool                   `yaml:"disabled"`
	Limits   map[string]LimitConfig `yaml:"limits"`
}

// LimitConfig is one named limit
type LimitConfig struct {
	Rate        int           `yaml:"rate"`
	Period      time.Duration `yaml:"period"`
	BurstSize   int           `yaml:"burst"`
	WaitTimeout time.Duration `yaml:"waitTimeout"`
}

// EngineConfig holds defaults applied to every panel
type EngineConfig struct {
	RotationInterval time.Duration `yaml:"rotationInterval"`
	PollingInterval  time.Duration `yaml:"pollingInterval"`
	PageInterval     time.Duration `yaml:"pageInterval"`
	FetchTimeout     time.Duration `yaml:"fetchTimeout"`
	GridSize         int           `yaml:"gridSize"`
	PageSize         int           `yaml:"pageSize"`
	AspectCacheSize  int           `yaml:"aspectCacheSize"`
	ProbeParallelism int           `yaml:"probeParallelism"`
	ProbeAspects     bool          `yaml:"probeAspects"`
}

// PanelConfig configures one panel. Zero values inherit from EngineConfig.
type PanelConfig struct {
	ID               string        `yaml:"id"`
	Name             string        `yaml:"name"`
	Layout           string        `yaml:"layout"`
	RotationInterval time.Duration `yaml:"rotationInterval"`
	ActionInterval   time.Duration `yaml:"actionInterval"`
	PollingInterval  time.Duration `yaml:"pollingInterval"`
	PageInterval     time.Duration `yaml:"pageInterval"`
	GridSize         int           `yaml:"gridSize"`
	PageSize         int           `yaml:"pageSize"`
	Title            string        `yaml:"title"`
	FooterText       string        `yaml:"footerText"`
	Source           SourceConfig  `yaml:"source"`
}

// Source kinds
const (
	SourcePlay             = "play"
	SourcePlayer           = "player"
	SourceView             = "view"
	SourcePostgresActions  = "postgres-actions"
	SourcePostgresProducts = "postgres-products"
)

// SourceConfig selects where a panel's content comes from
type SourceConfig struct {
	Kind string `yaml:"kind"`
	// PanelID is the backend panel id; defaults to the panel's own id
	PanelID      string         `yaml:"panelId"`
	FixedURL     string         `yaml:"fixedURL"`
	DepartmentID string         `yaml:"departmentId"`
	Keywords     KeywordsConfig `yaml:"keywords"`
	// Cache stores successful fetches in Redis for use during outages
	Cache bool `yaml:"cache"`
}

// KeywordsConfig enables department keyword filtering of products
type KeywordsConfig struct {
	Enabled bool `yaml:"enabled"`
	Exact   bool `yaml:"exact"`
}

// Default returns the configuration used before files and environment
// are applied
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Backend: BackendConfig{
			BaseURL: "http://localhost:5000",
			Timeout: 10 * time.Second,
		},
		Database: DatabaseConfig{
			Port:            5432,
			SSLMode:         "disable",
			MaxOpenConns:    10,
			MaxIdleConns:    5,
			ConnMaxLifetime: 5 * time.Minute,
		},
		Redis: RedisConfig{
			SnapshotTTL: 24 * time.Hour,
		},
		Engine: EngineConfig{
			RotationInterval: 5 * time.Second,
			PollingInterval:  10 * time.Second,
			PageInterval:     6 * time.Second,
			FetchTimeout:     10 * time.Second,
			GridSize:         24,
			PageSize:         20,
			AspectCacheSize:  512,
			ProbeParallelism: 4,
			ProbeAspects:     true,
		},
	}
}
