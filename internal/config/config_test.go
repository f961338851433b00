package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

func clearConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"CONFIG_FILE", "PORT", "MEMCHAT_DB_PATH", "WEB_DIR", "CLIENT_URL",
		"LOG_LEVEL", "SESSION_SECRET", "SESSION_TTL_HOURS", "LLM_BASE_URL",
		"LLM_TOKEN", "DEFAULT_MODEL", "LLM_TIMEOUT_SECONDS", "HISTORY_LIMIT",
		"MEMORY_CONTEXT_LIMIT",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 8741 {
		t.Errorf("port = %d, want 8741", cfg.Port)
	}
	if cfg.DefaultModel != "gpt-5" {
		t.Errorf("defaultModel = %q, want gpt-5", cfg.DefaultModel)
	}
	if cfg.HistoryLimit != 10 || cfg.MemoryContextLimit != 20 {
		t.Errorf("limits = %d/%d, want 10/20", cfg.HistoryLimit, cfg.MemoryContextLimit)
	}
}

func TestLoadRequiresSessionSecret(t *testing.T) {
	clearConfigEnv(t)

	if _, err := Load(); err == nil {
		t.Fatal("expected an error when SESSION_SECRET is unset")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "9000")
	t.Setenv("DEFAULT_MODEL", "gpt-4o")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9000 {
		t.Errorf("port = %d, want 9000", cfg.Port)
	}
	if cfg.DefaultModel != "gpt-4o" {
		t.Errorf("defaultModel = %q, want gpt-4o", cfg.DefaultModel)
	}
}

func TestLoadYAMLFileThenEnvWins(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	yamlBody := "port: 9100\nsession_secret: file-secret\ndefault_model: file-model\n"
	if err := os.WriteFile(path, []byte(yamlBody), 0o600); err != nil {
		t.Fatalf("write config file: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("DEFAULT_MODEL", "env-model")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != 9100 {
		t.Errorf("port = %d, want 9100 from file", cfg.Port)
	}
	if cfg.SessionSecret != "file-secret" {
		t.Errorf("sessionSecret = %q, want file-secret", cfg.SessionSecret)
	}
	if cfg.DefaultModel != "env-model" {
		t.Errorf("defaultModel = %q, env should win over file", cfg.DefaultModel)
	}
}

func TestSlogLevel(t *testing.T) {
	cases := []struct {
		level string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"WARNING", slog.LevelWarn},
		{"error", slog.LevelError},
		{"verbose", slog.LevelInfo},
		{"", slog.LevelInfo},
	}
	for _, tc := range cases {
		cfg := &Config{LogLevel: tc.level}
		if got := cfg.SlogLevel(); got != tc.want {
			t.Errorf("SlogLevel(%q) = %v, want %v", tc.level, got, tc.want)
		}
	}
}

func TestLoadHonorsLogLevelEnv(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.SlogLevel() != slog.LevelDebug {
		t.Errorf("SlogLevel() = %v, want debug", cfg.SlogLevel())
	}
}

func TestLoadRejectsBadPort(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("SESSION_SECRET", "test-secret")
	t.Setenv("PORT", "70000")

	if _, err := Load(); err == nil {
		t.Fatal("expected an error for an out-of-range port")
	}
}
