// Package config loads marq settings from an optional YAML file with
// MARQ_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend kinds.
const (
	BackendRedis  = "redis"
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
)

type Config struct {
	Backend string `yaml:"backend"` // "redis" | "sqlite" | "memory"
	Email   string `yaml:"email"`   // account used by the sign-in view

	Redis      RedisConfig `yaml:"redis"`
	SQLitePath string      `yaml:"sqlite_path"`

	LogLevel string `yaml:"log_level"` // "debug" | "info" | "warn" | "error"
	LogFile  string `yaml:"log_file"`  // empty = stderr (TUI sessions should set this)
}

type RedisConfig struct {
	Addr         string        `yaml:"addr"`
	Username     string        `yaml:"username"`
	Password     string        `yaml:"password"`
	DB           int           `yaml:"db"`
	DialTimeout  time.Duration `yaml:"dial_timeout"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
	PingTimeout  time.Duration `yaml:"ping_timeout"`
	PoolSize     int           `yaml:"pool_size"`
}

// DefaultPath returns the default config file path: ~/.config/marq/config.yml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "marq", "config.yml"), nil
}

// DefaultSQLitePath returns the default local database path: ~/.config/marq/marq.db
func DefaultSQLitePath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".config", "marq", "marq.db"), nil
}

func defaults() *Config {
	return &Config{
		Backend:  BackendSQLite,
		LogLevel: "info",
		Redis: RedisConfig{
			Addr:         "localhost:6379",
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
			PingTimeout:  5 * time.Second,
			PoolSize:     10,
		},
	}
}

// Load reads the config file at path (missing file is fine), applies
// environment overrides, and validates the result.
func Load(path string) (*Config, error) {
	cfg := defaults()

	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Backend = getenv("MARQ_BACKEND", cfg.Backend)
	cfg.Email = getenv("MARQ_EMAIL", cfg.Email)
	cfg.SQLitePath = getenv("MARQ_SQLITE_PATH", cfg.SQLitePath)
	cfg.LogLevel = getenv("MARQ_LOG_LEVEL", cfg.LogLevel)
	cfg.LogFile = getenv("MARQ_LOG_FILE", cfg.LogFile)

	cfg.Redis.Addr = getenv("MARQ_REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Username = getenv("MARQ_REDIS_USERNAME", cfg.Redis.Username)
	cfg.Redis.Password = getenv("MARQ_REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = getenvInt("MARQ_REDIS_DB", cfg.Redis.DB)
}

func (c *Config) validate() error {
	switch c.Backend {
	case BackendRedis, BackendSQLite, BackendMemory:
	default:
		return fmt.Errorf("unknown backend %q (want redis, sqlite, or memory)", c.Backend)
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}
