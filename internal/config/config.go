// Package config loads stocksync settings from a YAML file, a .env file
// and STOCKSYNC_* environment variables, in that order of precedence
// from lowest to highest.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds client and reference server settings.
type Config struct {
	API       APIConfig       `yaml:"api"`
	Session   SessionConfig   `yaml:"session"`
	Cache     CacheConfig     `yaml:"cache"`
	Server    ServerConfig    `yaml:"server"`
	DB        DBConfig        `yaml:"db"`
	Log       LogConfig       `yaml:"log"`
	Transport TransportConfig `yaml:"transport"`
}

type APIConfig struct {
	BaseURL string `yaml:"base_url"`
	// Timeout bounds each request. Zero means none.
	Timeout time.Duration `yaml:"timeout"`
}

type SessionConfig struct {
	UserID           string `yaml:"user_id"`
	DisplayName      string `yaml:"display_name"`
	OrganizationID   string `yaml:"organization_id"`
	OrganizationRole string `yaml:"organization_role"`
	Plan             string `yaml:"plan"`
	Token            string `yaml:"token"`
}

type CacheConfig struct {
	PageSize int           `yaml:"page_size"`
	Debounce time.Duration `yaml:"debounce"`
}

type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

type DBConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
	Path  string `yaml:"path"`
}

type TransportConfig struct {
	Mode string `yaml:"mode"`
	// ReportDir is where the MCP weekly_report tool may save files. Empty
	// disables saving; reports are then returned inline only.
	ReportDir string `yaml:"report_dir"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080",
		},
		Session: SessionConfig{
			Plan: "free",
		},
		Cache: CacheConfig{
			PageSize: 10,
			Debounce: 300 * time.Millisecond,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		DB: DBConfig{
			Path: "stocksync.db",
		},
		Log: LogConfig{
			Level: "info",
		},
		Transport: TransportConfig{
			Mode: "stdio",
		},
	}
}

// Load reads configuration from an optional YAML file and environment
// variables. A .env file in the working directory is loaded first when
// present; variables already set in the environment win.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path := os.Getenv("STOCKSYNC_CONFIG_PATH"); path != "" {
		if err := loadFromFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	strs := map[string]*string{
		"STOCKSYNC_API_BASE_URL":      &cfg.API.BaseURL,
		"STOCKSYNC_USER_ID":           &cfg.Session.UserID,
		"STOCKSYNC_DISPLAY_NAME":      &cfg.Session.DisplayName,
		"STOCKSYNC_ORGANIZATION_ID":   &cfg.Session.OrganizationID,
		"STOCKSYNC_ORGANIZATION_ROLE": &cfg.Session.OrganizationRole,
		"STOCKSYNC_PLAN":              &cfg.Session.Plan,
		"STOCKSYNC_TOKEN":             &cfg.Session.Token,
		"STOCKSYNC_SERVER_HOST":       &cfg.Server.Host,
		"STOCKSYNC_DB_PATH":           &cfg.DB.Path,
		"STOCKSYNC_LOG_LEVEL":         &cfg.Log.Level,
		"STOCKSYNC_LOG_PATH":          &cfg.Log.Path,
		"STOCKSYNC_TRANSPORT_MODE":    &cfg.Transport.Mode,
		"STOCKSYNC_REPORT_DIR":        &cfg.Transport.ReportDir,
	}
	for key, dst := range strs {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	if portStr := os.Getenv("STOCKSYNC_SERVER_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid STOCKSYNC_SERVER_PORT: %w", err)
		}
		cfg.Server.Port = port
	}
	if sizeStr := os.Getenv("STOCKSYNC_PAGE_SIZE"); sizeStr != "" {
		size, err := strconv.Atoi(sizeStr)
		if err != nil {
			return fmt.Errorf("invalid STOCKSYNC_PAGE_SIZE: %w", err)
		}
		cfg.Cache.PageSize = size
	}
	durations := map[string]*time.Duration{
		"STOCKSYNC_API_TIMEOUT": &cfg.API.Timeout,
		"STOCKSYNC_DEBOUNCE":    &cfg.Cache.Debounce,
	}
	for key, dst := range durations {
		raw := os.Getenv(key)
		if raw == "" {
			continue
		}
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", key, err)
		}
		*dst = d
	}
	return nil
}

func loadFromFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse config file: %w", err)
	}
	return nil
}
