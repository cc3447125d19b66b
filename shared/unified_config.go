package shared

import (
	"time"

	"github.com/sirupsen/logrus"
)

// UnifiedConfiguration holds the tunables of every component
type UnifiedConfiguration struct {
	Database  DatabaseConfig  `yaml:"database" json:"database"`
	Query     QueryConfig     `yaml:"query" json:"query"`
	Cache     CacheConfig     `yaml:"cache" json:"cache"`
	Logging   LoggingConfig   `yaml:"logging" json:"logging"`
	Dashboard DashboardConfig `yaml:"dashboard" json:"dashboard"`
	Jobs      JobsConfig      `yaml:"jobs" json:"jobs"`
}

// DatabaseConfig holds database connection configuration
type DatabaseConfig struct {
	Driver             string        `yaml:"driver" json:"driver"`
	URL                string        `yaml:"url" json:"-"`
	Table              string        `yaml:"table" json:"table"`
	MaxOpenConns       int           `yaml:"max_open_conns" json:"max_open_conns"`
	MaxIdleConns       int           `yaml:"max_idle_conns" json:"max_idle_conns"`
	ConnMaxLifetime    time.Duration `yaml:"conn_max_lifetime" json:"conn_max_lifetime"`
	ConnMaxIdleTime    time.Duration `yaml:"conn_max_idle_time" json:"conn_max_idle_time"`
	PingTimeout        time.Duration `yaml:"ping_timeout" json:"ping_timeout"`
	SlowQueryThreshold time.Duration `yaml:"slow_query_threshold" json:"slow_query_threshold"`
}

// QueryConfig bounds listing requests
type QueryConfig struct {
	DefaultLimit         int  `yaml:"default_limit" json:"default_limit"`
	MaxLimit             int  `yaml:"max_limit" json:"max_limit"`
	StrictRecommendation bool `yaml:"strict_recommendation" json:"strict_recommendation"`
}

// CacheConfig holds cache configuration. Cached listings only see writes made
// through this process until they expire, so the cache is off by default.
type CacheConfig struct {
	Enabled    bool          `yaml:"enabled" json:"enabled"`
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`
	MaxSize    int           `yaml:"max_size" json:"max_size"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level       string `yaml:"level" json:"level"`
	Format      string `yaml:"format" json:"format"`
	ServiceName string `yaml:"service_name" json:"service_name"`
}

// DashboardConfig holds settings of the HTML dashboard
type DashboardConfig struct {
	SearchDebounce time.Duration `yaml:"search_debounce" json:"search_debounce"`
	PageSize       int           `yaml:"page_size" json:"page_size"`
}

// JobsConfig holds cron specs (with seconds) of background jobs
type JobsConfig struct {
	RolloverCron     string `yaml:"rollover_cron" json:"rollover_cron"`
	CacheCleanupCron string `yaml:"cache_cleanup_cron" json:"cache_cleanup_cron"`
}

// NewDefaultUnifiedConfiguration returns production-ready default configuration
func NewDefaultUnifiedConfiguration() *UnifiedConfiguration {
	return &UnifiedConfiguration{
		Database: DatabaseConfig{
			Driver:             "postgres",
			Table:              "ipo_status",
			MaxOpenConns:       25,
			MaxIdleConns:       5,
			ConnMaxLifetime:    5 * time.Minute,
			ConnMaxIdleTime:    5 * time.Minute,
			PingTimeout:        5 * time.Second,
			SlowQueryThreshold: 500 * time.Millisecond,
		},
		Query: QueryConfig{
			DefaultLimit:         10,
			MaxLimit:             100,
			StrictRecommendation: true,
		},
		Cache: CacheConfig{
			Enabled:    false,
			DefaultTTL: 1 * time.Minute,
			MaxSize:    1000,
		},
		Logging: LoggingConfig{
			Level:       "info",
			Format:      "text",
			ServiceName: "ipo-tracker",
		},
		Dashboard: DashboardConfig{
			SearchDebounce: 500 * time.Millisecond,
			PageSize:       10,
		},
		Jobs: JobsConfig{
			RolloverCron:     "5 0 0 * * *",
			CacheCleanupCron: "0 */5 * * * *",
		},
	}
}

// ValidateAndApplyDefaults validates configuration and applies defaults for invalid values
func (c *UnifiedConfiguration) ValidateAndApplyDefaults() {
	logger := logrus.WithField("component", "UnifiedConfiguration")
	defaults := NewDefaultUnifiedConfiguration()

	if c.Database.Driver == "" {
		c.Database.Driver = defaults.Database.Driver
		logger.Debug("Applied default Database.Driver")
	}
	if c.Database.Table == "" {
		c.Database.Table = defaults.Database.Table
		logger.Debug("Applied default Database.Table")
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = defaults.Database.MaxOpenConns
		logger.Debug("Applied default Database.MaxOpenConns")
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = defaults.Database.MaxIdleConns
		logger.Debug("Applied default Database.MaxIdleConns")
	}
	if c.Database.ConnMaxLifetime <= 0 {
		c.Database.ConnMaxLifetime = defaults.Database.ConnMaxLifetime
		logger.Debug("Applied default Database.ConnMaxLifetime")
	}
	if c.Database.ConnMaxIdleTime <= 0 {
		c.Database.ConnMaxIdleTime = defaults.Database.ConnMaxIdleTime
		logger.Debug("Applied default Database.ConnMaxIdleTime")
	}
	if c.Database.PingTimeout <= 0 {
		c.Database.PingTimeout = defaults.Database.PingTimeout
		logger.Debug("Applied default Database.PingTimeout")
	}
	if c.Database.SlowQueryThreshold <= 0 {
		c.Database.SlowQueryThreshold = defaults.Database.SlowQueryThreshold
		logger.Debug("Applied default Database.SlowQueryThreshold")
	}

	if c.Query.DefaultLimit <= 0 {
		c.Query.DefaultLimit = defaults.Query.DefaultLimit
		logger.Debug("Applied default Query.DefaultLimit")
	}
	if c.Query.MaxLimit <= 0 {
		c.Query.MaxLimit = defaults.Query.MaxLimit
		logger.Debug("Applied default Query.MaxLimit")
	}
	if c.Query.DefaultLimit > c.Query.MaxLimit {
		c.Query.DefaultLimit = c.Query.MaxLimit
		logger.Debug("Clamped Query.DefaultLimit to Query.MaxLimit")
	}

	if c.Cache.DefaultTTL <= 0 {
		c.Cache.DefaultTTL = defaults.Cache.DefaultTTL
		logger.Debug("Applied default Cache.DefaultTTL")
	}
	if c.Cache.MaxSize <= 0 {
		c.Cache.MaxSize = defaults.Cache.MaxSize
		logger.Debug("Applied default Cache.MaxSize")
	}

	if c.Logging.Level == "" {
		c.Logging.Level = defaults.Logging.Level
		logger.Debug("Applied default Logging.Level")
	}
	if c.Logging.Format == "" {
		c.Logging.Format = defaults.Logging.Format
		logger.Debug("Applied default Logging.Format")
	}
	if c.Logging.ServiceName == "" {
		c.Logging.ServiceName = defaults.Logging.ServiceName
		logger.Debug("Applied default Logging.ServiceName")
	}

	if c.Dashboard.SearchDebounce <= 0 {
		c.Dashboard.SearchDebounce = defaults.Dashboard.SearchDebounce
		logger.Debug("Applied default Dashboard.SearchDebounce")
	}
	if c.Dashboard.PageSize <= 0 {
		c.Dashboard.PageSize = c.Query.DefaultLimit
		logger.Debug("Applied default Dashboard.PageSize")
	}

	if c.Jobs.RolloverCron == "" {
		c.Jobs.RolloverCron = defaults.Jobs.RolloverCron
		logger.Debug("Applied default Jobs.RolloverCron")
	}
	if c.Jobs.CacheCleanupCron == "" {
		c.Jobs.CacheCleanupCron = defaults.Jobs.CacheCleanupCron
		logger.Debug("Applied default Jobs.CacheCleanupCron")
	}
}
