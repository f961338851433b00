package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Port         int    `yaml:"port"`
	DBPath       string `yaml:"db_path"`
	WebDir       string `yaml:"web_dir"`
	ClientOrigin string `yaml:"client_origin"`
	LogLevel     string `yaml:"log_level"`
	// Auth
	SessionSecret   string `yaml:"session_secret"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`
	// Completion service
	LLMBaseURL        string `yaml:"llm_base_url"`
	LLMToken          string `yaml:"llm_token"`
	DefaultModel      string `yaml:"default_model"`
	LLMTimeoutSeconds int    `yaml:"llm_timeout_seconds"`
	// Chat tuning
	HistoryLimit       int `yaml:"history_limit"`
	MemoryContextLimit int `yaml:"memory_context_limit"`
}

// Load builds the config from environment variables, with an optional YAML
// file (CONFIG_FILE) applied first so env vars always win.
func Load() (*Config, error) {
	cfg := &Config{
		Port:               8741,
		DBPath:             "./data/memchat.db",
		WebDir:             "./web",
		ClientOrigin:       "http://localhost:5173",
		LogLevel:           "info",
		SessionTTLHours:    720, // 30 days
		LLMBaseURL:         "https://api.openai.com/v1",
		DefaultModel:       "gpt-5",
		LLMTimeoutSeconds:  120,
		HistoryLimit:       10,
		MemoryContextLimit: 20,
	}

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file: %w", err)
		}
	}

	cfg.Port = envInt("PORT", cfg.Port)
	cfg.DBPath = envStr("MEMCHAT_DB_PATH", cfg.DBPath)
	cfg.WebDir = envStr("WEB_DIR", cfg.WebDir)
	cfg.ClientOrigin = envStr("CLIENT_URL", cfg.ClientOrigin)
	cfg.LogLevel = envStr("LOG_LEVEL", cfg.LogLevel)
	cfg.SessionSecret = envStr("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTLHours = envInt("SESSION_TTL_HOURS", cfg.SessionTTLHours)
	cfg.LLMBaseURL = envStr("LLM_BASE_URL", cfg.LLMBaseURL)
	cfg.LLMToken = envStr("LLM_TOKEN", cfg.LLMToken)
	cfg.DefaultModel = envStr("DEFAULT_MODEL", cfg.DefaultModel)
	cfg.LLMTimeoutSeconds = envInt("LLM_TIMEOUT_SECONDS", cfg.LLMTimeoutSeconds)
	cfg.HistoryLimit = envInt("HISTORY_LIMIT", cfg.HistoryLimit)
	cfg.MemoryContextLimit = envInt("MEMORY_CONTEXT_LIMIT", cfg.MemoryContextLimit)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps the configured log level onto slog's scale. Unknown
// values fall back to info.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func (c *Config) validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port)
	}
	if c.DBPath == "" {
		return fmt.Errorf("MEMCHAT_DB_PATH must not be empty")
	}
	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}
	if c.SessionTTLHours < 1 {
		return fmt.Errorf("SESSION_TTL_HOURS must be positive, got %d", c.SessionTTLHours)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("HISTORY_LIMIT must be positive, got %d", c.HistoryLimit)
	}
	if c.MemoryContextLimit < 1 {
		return fmt.Errorf("MEMORY_CONTEXT_LIMIT must be positive, got %d", c.MemoryContextLimit)
	}
	return nil
}

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
