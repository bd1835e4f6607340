package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/eugenenazirov/opticalc/internal/cache"
	"github.com/eugenenazirov/opticalc/internal/storage"
)

const (
	defaultPort           = "8080"
	defaultLogLevel       = "info"
	defaultRateLimitRPS   = 25.0
	defaultRateLimitBurst = 50
	// 4M int cells is roughly 32 MB per optimize request.
	defaultMaxTableCells int64 = 4_000_000
)

// Config aggregates runtime configuration resolved from multiple sources.
// Precedence: CLI flags > YAML config > Environment variables > Defaults
type Config struct {
	Port                 string
	LogLevel             string
	ShutdownGracePeriod  time.Duration
	ReadHeaderTimeout    time.Duration
	WriteTimeout         time.Duration
	IdleTimeout          time.Duration
	EnableRequestLogging bool
	RateLimitRPS         float64
	RateLimitBurst       int
	MaxItems             int
	MaxTableCells        int64
	DatabasePath         string
	CacheTTL             time.Duration
	RedisAddr            string
}

// yamlConfig represents the YAML configuration file structure.
type yamlConfig struct {
	Port                 string        `yaml:"port"`
	LogLevel             string        `yaml:"log_level"`
	ShutdownGracePeriod  string        `yaml:"shutdown_grace_period"`
	ReadHeaderTimeout    string        `yaml:"read_header_timeout"`
	WriteTimeout         string        `yaml:"write_timeout"`
	IdleTimeout          string        `yaml:"idle_timeout"`
	EnableRequestLogging *bool         `yaml:"enable_request_logging"`
	RateLimit            yamlRateLimit `yaml:"rate_limit"`
	Solver               yamlSolver    `yaml:"solver"`
	Storage              yamlStorage   `yaml:"storage"`
	Cache                yamlCache     `yaml:"cache"`
}

// yamlRateLimit represents the rate limit section in YAML.
type yamlRateLimit struct {
	RPS   *float64 `yaml:"rps"`
	Burst *int     `yaml:"burst"`
}

type yamlSolver struct {
	MaxItems      int   `yaml:"max_items"`
	MaxTableCells int64 `yaml:"max_table_cells"`
}

type yamlStorage struct {
	DatabasePath string `yaml:"database_path"`
}

type yamlCache struct {
	TTL       string `yaml:"ttl"`
	RedisAddr string `yaml:"redis_addr"`
}

// CLIOverrides holds command-line flag overrides.
type CLIOverrides struct {
	ConfigFile     string
	Port           *string
	LogLevel       *string
	RateLimitRPS   *float64
	RateLimitBurst *int
	MaxItems       *int
	MaxTableCells  *int64
	DatabasePath   *string
	RedisAddr      *string
}

// Load extracts configuration from multiple sources with precedence:
// CLI flags > YAML config > Environment variables > Defaults
func Load(overrides *CLIOverrides) (Config, error) {
	cfg := defaultConfig()

	applyEnvConfig(&cfg)

	if overrides != nil && overrides.ConfigFile != "" {
		yamlCfg, err := loadFromFile(overrides.ConfigFile)
		if err != nil {
			return Config{}, fmt.Errorf("load YAML config: %w", err)
		}
		if err := applyYAMLConfig(&cfg, yamlCfg); err != nil {
			return Config{}, fmt.Errorf("apply YAML config: %w", err)
		}
	}

	if overrides != nil {
		applyCLIOverrides(&cfg, overrides)
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// defaultConfig returns a Config with default values.
func defaultConfig() Config {
	return Config{
		Port:                 defaultPort,
		LogLevel:             defaultLogLevel,
		ShutdownGracePeriod:  10 * time.Second,
		ReadHeaderTimeout:    5 * time.Second,
		WriteTimeout:         15 * time.Second,
		IdleTimeout:          60 * time.Second,
		EnableRequestLogging: true,
		RateLimitRPS:         defaultRateLimitRPS,
		RateLimitBurst:       defaultRateLimitBurst,
		MaxItems:             storage.DefaultMaxItems,
		MaxTableCells:        defaultMaxTableCells,
		CacheTTL:             cache.DefaultTTL,
	}
}

// loadFromFile loads configuration from a YAML file.
func loadFromFile(path string) (*yamlConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	var yamlCfg yamlConfig
	if err := yaml.Unmarshal(data, &yamlCfg); err != nil {
		return nil, fmt.Errorf("parse YAML: %w", err)
	}

	return &yamlCfg, nil
}

// applyYAMLConfig applies YAML configuration to the Config struct.
func applyYAMLConfig(cfg *Config, yamlCfg *yamlConfig) error {
	if yamlCfg.Port != "" {
		cfg.Port = yamlCfg.Port
	}
	if yamlCfg.LogLevel != "" {
		cfg.LogLevel = yamlCfg.LogLevel
	}

	durations := []struct {
		name   string
		raw    string
		target *time.Duration
	}{
		{"shutdown_grace_period", yamlCfg.ShutdownGracePeriod, &cfg.ShutdownGracePeriod},
		{"read_header_timeout", yamlCfg.ReadHeaderTimeout, &cfg.ReadHeaderTimeout},
		{"write_timeout", yamlCfg.WriteTimeout, &cfg.WriteTimeout},
		{"idle_timeout", yamlCfg.IdleTimeout, &cfg.IdleTimeout},
		{"cache.ttl", yamlCfg.Cache.TTL, &cfg.CacheTTL},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		parsed, err := time.ParseDuration(d.raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", d.name, d.raw, err)
		}
		*d.target = parsed
	}

	if yamlCfg.EnableRequestLogging != nil {
		cfg.EnableRequestLogging = *yamlCfg.EnableRequestLogging
	}
	if yamlCfg.RateLimit.RPS != nil {
		cfg.RateLimitRPS = *yamlCfg.RateLimit.RPS
	}
	if yamlCfg.RateLimit.Burst != nil {
		cfg.RateLimitBurst = *yamlCfg.RateLimit.Burst
	}
	if yamlCfg.Solver.MaxItems > 0 {
		cfg.MaxItems = yamlCfg.Solver.MaxItems
	}
	if yamlCfg.Solver.MaxTableCells > 0 {
		cfg.MaxTableCells = yamlCfg.Solver.MaxTableCells
	}
	if yamlCfg.Storage.DatabasePath != "" {
		cfg.DatabasePath = yamlCfg.Storage.DatabasePath
	}
	if yamlCfg.Cache.RedisAddr != "" {
		cfg.RedisAddr = yamlCfg.Cache.RedisAddr
	}
	return nil
}

// applyEnvConfig applies environment variable configuration.
func applyEnvConfig(cfg *Config) {
	if port := env("PORT"); port != "" {
		cfg.Port = port
	}

	if level := env("LOG_LEVEL"); level != "" {
		cfg.LogLevel = level
	}

	if rps := env("RATE_LIMIT_RPS"); rps != "" {
		if value, err := strconv.ParseFloat(rps, 64); err == nil && value >= 0 {
			cfg.RateLimitRPS = value
		}
	}

	if burst := env("RATE_LIMIT_BURST"); burst != "" {
		if value, err := strconv.Atoi(burst); err == nil && value >= 0 {
			cfg.RateLimitBurst = value
		}
	}

	if maxItems := env("MAX_ITEMS"); maxItems != "" {
		if value, err := strconv.Atoi(maxItems); err == nil && value > 0 {
			cfg.MaxItems = value
		}
	}

	if cells := env("MAX_TABLE_CELLS"); cells != "" {
		if value, err := strconv.ParseInt(cells, 10, 64); err == nil && value > 0 {
			cfg.MaxTableCells = value
		}
	}

	if path := env("DATABASE_PATH"); path != "" {
		cfg.DatabasePath = path
	}

	if ttl := env("CACHE_TTL"); ttl != "" {
		if value, err := time.ParseDuration(ttl); err == nil {
			cfg.CacheTTL = value
		}
	}

	if addr := env("REDIS_ADDR"); addr != "" {
		cfg.RedisAddr = addr
	}
}

// applyCLIOverrides applies command-line flag overrides.
func applyCLIOverrides(cfg *Config, overrides *CLIOverrides) {
	if overrides.Port != nil && *overrides.Port != "" {
		cfg.Port = *overrides.Port
	}

	if overrides.LogLevel != nil && *overrides.LogLevel != "" {
		cfg.LogLevel = *overrides.LogLevel
	}

	if overrides.RateLimitRPS != nil && *overrides.RateLimitRPS >= 0 {
		cfg.RateLimitRPS = *overrides.RateLimitRPS
	}

	if overrides.RateLimitBurst != nil && *overrides.RateLimitBurst >= 0 {
		cfg.RateLimitBurst = *overrides.RateLimitBurst
	}

	if overrides.MaxItems != nil && *overrides.MaxItems > 0 {
		cfg.MaxItems = *overrides.MaxItems
	}

	if overrides.MaxTableCells != nil && *overrides.MaxTableCells > 0 {
		cfg.MaxTableCells = *overrides.MaxTableCells
	}

	if overrides.DatabasePath != nil && *overrides.DatabasePath != "" {
		cfg.DatabasePath = *overrides.DatabasePath
	}

	if overrides.RedisAddr != nil && *overrides.RedisAddr != "" {
		cfg.RedisAddr = *overrides.RedisAddr
	}
}

// validateConfig validates the final configuration.
func validateConfig(cfg Config) error {
	if cfg.RateLimitRPS < 0 {
		return fmt.Errorf("RATE_LIMIT_RPS must be >= 0")
	}
	if cfg.RateLimitBurst < 0 {
		return fmt.Errorf("RATE_LIMIT_BURST must be >= 0")
	}
	if cfg.MaxItems <= 0 {
		return fmt.Errorf("MAX_ITEMS must be > 0")
	}
	if cfg.MaxTableCells <= 0 {
		return fmt.Errorf("MAX_TABLE_CELLS must be > 0")
	}
	if cfg.CacheTTL < 0 {
		return fmt.Errorf("CACHE_TTL must be >= 0")
	}
	if _, err := zapcore.ParseLevel(cfg.LogLevel); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(key))
}
