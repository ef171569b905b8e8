package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// PostgresConfig describes the connection to the token store. Host may also
// carry a full postgres:// DSN, in which case the other fields are ignored.
type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Database string `yaml:"database"`
	SSLMode  string `yaml:"sslmode"`
}

// BoardConfig carries the label and lane sets used by the analyzer. The
// defaults match the CorePoint board this service was built for; deployments
// with different lanes override them in the config file.
type BoardConfig struct {
	ExcludedColumns []string `yaml:"excluded_columns"`
	FocusedLabels   []string `yaml:"focused_labels"`
	AllLabels       []string `yaml:"all_labels"`
	RequestedLanes  []string `yaml:"requested_lanes"`
}

// Config is the full service configuration.
type Config struct {
	Server struct {
		Host    string `yaml:"host"`
		Port    string `yaml:"port"`
		Prefork bool   `yaml:"prefork"`
	} `yaml:"server"`

	Logger struct {
		File       string `yaml:"file"`
		Level      string `yaml:"level"`
		MaxSizeMB  int    `yaml:"max_size_mb"`
		MaxBackups int    `yaml:"max_backups"`
		MaxAgeDays int    `yaml:"max_age_days"`
		Compress   bool   `yaml:"compress"`
	} `yaml:"logger"`

	Cache struct {
		RedisHost          string        `yaml:"redis_host"`
		ReportDB           int           `yaml:"redis_report_db"`
		RateLimitDB        int           `yaml:"redis_rate_db"`
		WorkbookTTL        time.Duration `yaml:"workbook_ttl"`
		ReportCacheEnabled bool          `yaml:"report_cache_enabled"`
		ReportCacheTTL     time.Duration `yaml:"report_cache_ttl"`
	} `yaml:"cache"`

	Auth struct {
		Postgres            PostgresConfig `yaml:"postgres"`
		TokenReloadInterval time.Duration  `yaml:"token_reload_interval"`
	} `yaml:"auth"`

	RateLimiter struct {
		Interval          time.Duration `yaml:"interval"`
		UserLimit         int           `yaml:"user_limit"`
		EnableUserLimiter bool          `yaml:"enable_user_limiter"`
	} `yaml:"rate_limiter"`

	Limits struct {
		MaxUploadBytes int `yaml:"max_upload_bytes"`
	} `yaml:"limits"`

	Board BoardConfig `yaml:"board"`
}

const defaultConfigPath = "config.yaml"

// DefaultBoard returns the built-in label and lane sets.
func DefaultBoard() BoardConfig {
	return BoardConfig{
		ExcludedColumns: []string{"Completed", "Canceled", "New Parts Request"},
		FocusedLabels: []string{
			"Demand Repair", "Install", "Dispatch",
			"NOT COOLING/HEATING", "Warranty", "Comfort Shield Warranty",
		},
		AllLabels: []string{
			"Backordered", "Warranty", "Escalation", "Prepaid Service", "COSTCO ESCALATION",
			"Demand Repair", "1st Year Warranty", "Install", "Comfort Shield Warranty", "Recall",
			"Schedule Return Visit", "Electrical", "Duct Cleaning", "Senior Tech Callback",
			"Commercial", "Possible Payment Issue", "Replacement Opp", "Manager Visit", "Damage Claim",
			"NOT COOLING/HEATING", "Multiple Systems", "Missing Quote", "READY TO SCHEDULE",
			"Missing Parts", "URGENT", "Dispatch", "ISR - Service", "Aging Card",
			"In Service Recovery - Stale", "Call Customer", "Check Warranty", "Plumbing",
			"Truck Stock", "Multiple Parts Request",
		},
		RequestedLanes: []string{
			"Receipt Confirmed <7 days", "Aging >7 Days", "Stale >14 Days",
			"Assigned to Department", "Parts Ordered", "Arrived/In-Hand",
			"Contacted", "Customer Unreachable", "Scheduled",
		},
	}
}

func defaults() Config {
	var cfg Config
	cfg.Server.Host = ""
	cfg.Server.Port = ":8000"
	cfg.Logger.Level = "info"
	cfg.Logger.MaxSizeMB = 10
	cfg.Logger.MaxBackups = 3
	cfg.Logger.MaxAgeDays = 14
	cfg.Cache.RedisHost = "127.0.0.1:6379"
	cfg.Cache.ReportDB = 1
	cfg.Cache.RateLimitDB = 0
	cfg.Cache.WorkbookTTL = 24 * time.Hour
	cfg.Cache.ReportCacheEnabled = true
	cfg.Cache.ReportCacheTTL = time.Hour
	cfg.Auth.TokenReloadInterval = time.Minute
	cfg.RateLimiter.Interval = time.Minute
	cfg.Limits.MaxUploadBytes = 10 * 1024 * 1024
	cfg.Board = DefaultBoard()
	return cfg
}

// Load reads the config from CONFIG_PATH (or ./config.yaml). A missing file
// yields the built-in defaults so the service can run with zero configuration.
func Load() Config {
	path := os.Getenv("CONFIG_PATH")
	if path == "" {
		path = defaultConfigPath
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		cfg := defaults()
		applyEnvOverrides(&cfg)
		return cfg
	}
	return LoadFrom(path)
}

// LoadFrom reads and validates the config at the given path. Invalid values
// panic: a service with a broken config should not come up half-working.
func LoadFrom(path string) Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		panic(fmt.Sprintf("config: cannot read %s: %v", path, err))
	}

	cfg := defaults()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		panic(fmt.Sprintf("config: cannot parse %s: %v", path, err))
	}

	applyEnvOverrides(&cfg)
	validate(&cfg)
	return cfg
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = ":" + v
	}
	if v := os.Getenv("REDIS_HOST"); v != "" {
		cfg.Cache.RedisHost = v
	}
}

func validate(cfg *Config) {
	if cfg.Server.Port == "" {
		panic("config: server.port must not be empty")
	}
	if cfg.RateLimiter.Interval <= 0 {
		panic("config: rate_limiter.interval must be positive")
	}
	if cfg.RateLimiter.UserLimit < 0 {
		panic("config: rate_limiter.user_limit must not be negative")
	}
	if cfg.Auth.TokenReloadInterval <= 0 {
		panic("config: auth.token_reload_interval must be positive")
	}
	if cfg.Limits.MaxUploadBytes <= 0 {
		panic("config: limits.max_upload_bytes must be positive")
	}
	if cfg.Cache.WorkbookTTL <= 0 {
		panic("config: cache.workbook_ttl must be positive")
	}
}
