package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/fenilmodi00/ipo-tracker/shared"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

type Config struct {
	ServerPort string
	APIPrefix  string
	ConfigFile string

	shared.UnifiedConfiguration
}

// LoadConfig reads .env, then the optional YAML file named by CONFIG_FILE,
// then applies environment overrides and defaults.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		logrus.Debug("No .env file loaded, using system environment variables")
	}

	cfg := &Config{
		ServerPort:           getEnv("SERVER_PORT", "8080"),
		APIPrefix:            getEnv("API_PREFIX", "/api"),
		ConfigFile:           getEnv("CONFIG_FILE", ""),
		UnifiedConfiguration: *shared.NewDefaultUnifiedConfiguration(),
	}

	if cfg.ConfigFile != "" {
		if err := cfg.loadFile(cfg.ConfigFile); err != nil {
			return nil, err
		}
	}

	cfg.overrideFromEnv()
	cfg.ValidateAndApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &c.UnifiedConfiguration); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) overrideFromEnv() {
	if v := os.Getenv("DATABASE_DRIVER"); v != "" {
		c.Database.Driver = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		c.Database.URL = v
	}
	if v := os.Getenv("IPO_TABLE_NAME"); v != "" {
		c.Database.Table = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		c.Logging.Format = v
	}
	if v := os.Getenv("CACHE_TTL_SECONDS"); v != "" {
		seconds, err := strconv.Atoi(v)
		if err != nil {
			logrus.Warnf("Invalid CACHE_TTL_SECONDS value: %s, keeping %v", v, c.Cache.DefaultTTL)
		} else {
			c.Cache.DefaultTTL = time.Duration(seconds) * time.Second
		}
	}
	if v := os.Getenv("CACHE_ENABLED"); v != "" {
		c.Cache.Enabled = parseBool("CACHE_ENABLED", v, c.Cache.Enabled)
	}
	if v := os.Getenv("STRICT_RECOMMENDATION"); v != "" {
		c.Query.StrictRecommendation = parseBool("STRICT_RECOMMENDATION", v, c.Query.StrictRecommendation)
	}
	if v := os.Getenv("DEFAULT_PAGE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			c.Query.DefaultLimit = limit
		}
	}
	if v := os.Getenv("MAX_PAGE_LIMIT"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			c.Query.MaxLimit = limit
		}
	}
	if v := os.Getenv("SEARCH_DEBOUNCE_MS"); v != "" {
		if ms, err := strconv.Atoi(v); err == nil {
			c.Dashboard.SearchDebounce = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("CRON_ROLLOVER"); v != "" {
		c.Jobs.RolloverCron = v
	}
}

// Validate checks that required fields are set
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("database.driver must be postgres or sqlite, got %q", c.Database.Driver)
	}
	if c.Database.URL == "" {
		return fmt.Errorf("database.url (DATABASE_URL) is required")
	}
	return nil
}

func parseBool(key, value string, fallback bool) bool {
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logrus.Warnf("Invalid %s value: %s, keeping %v", key, value, fallback)
		return fallback
	}
	return parsed
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}
