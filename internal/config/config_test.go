// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.API.BaseURL == "" {
		t.Error("default base URL should not be empty")
	}
	if cfg.API.Model == "" {
		t.Error("default model should not be empty")
	}
	if cfg.Chat.MaxDisplayMessages != 100 {
		t.Errorf("default max display messages = %d, want 100", cfg.Chat.MaxDisplayMessages)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadFromPath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	content := `
os_name = "Linux"

[api]
base_url = "https://example.com/v1"
model = "test-model"
temperature = 0.7

[chat]
max_display_messages = 50

[cache]
enabled = false
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("LoadFromPath failed: %v", err)
	}
	if cfg.API.BaseURL != "https://example.com/v1" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
	if cfg.API.Model != "test-model" {
		t.Errorf("model = %q", cfg.API.Model)
	}
	if cfg.API.Temperature != 0.7 {
		t.Errorf("temperature = %g", cfg.API.Temperature)
	}
	if cfg.Chat.MaxDisplayMessages != 50 {
		t.Errorf("max_display_messages = %d", cfg.Chat.MaxDisplayMessages)
	}
	if cfg.Cache.Enabled {
		t.Error("cache.enabled should be false")
	}
	// Unset fields keep defaults.
	if cfg.API.TopP != 1.0 {
		t.Errorf("top_p = %g, want default 1.0", cfg.API.TopP)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults", func(c *Config) {}, false},
		{"bad url", func(c *Config) { c.API.BaseURL = "not a url" }, true},
		{"bad scheme", func(c *Config) { c.API.BaseURL = "ftp://example.com" }, true},
		{"temperature too high", func(c *Config) { c.API.Temperature = 3.0 }, true},
		{"negative temperature", func(c *Config) { c.API.Temperature = -0.1 }, true},
		{"top_p out of range", func(c *Config) { c.API.TopP = 1.5 }, true},
		{"negative timeout", func(c *Config) { c.API.RequestTimeoutSecs = -1 }, true},
		{"negative ttl", func(c *Config) { c.Cache.TTLDays = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("SGPT_API_KEY", "sk-env-key")
	t.Setenv("SGPT_MODEL", "env-model")
	t.Setenv("SGPT_BASE_URL", "https://env.example.com/v1")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.API.Key != "sk-env-key" {
		t.Errorf("key = %q", cfg.API.Key)
	}
	if cfg.API.Model != "env-model" {
		t.Errorf("model = %q", cfg.API.Model)
	}
	if cfg.API.BaseURL != "https://env.example.com/v1" {
		t.Errorf("base_url = %q", cfg.API.BaseURL)
	}
}

func TestOpenAIKeyFallback(t *testing.T) {
	t.Setenv("SGPT_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-openai")

	cfg := Default()
	applyEnvOverrides(cfg)

	if cfg.API.Key != "sk-openai" {
		t.Errorf("key = %q, want OPENAI_API_KEY fallback", cfg.API.Key)
	}
}

func TestRedactedKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"", "(not set)"},
		{"abcd", "****"},
		{"sk-1234abcd", "*******abcd"},
	}
	for _, tt := range tests {
		cfg := Default()
		cfg.API.Key = tt.key
		if got := cfg.RedactedKey(); got != tt.want {
			t.Errorf("RedactedKey(%q) = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestSessionsDirOverride(t *testing.T) {
	cfg := Default()
	cfg.Chat.SessionsDir = "/tmp/custom-sessions"

	dir, err := cfg.SessionsDir()
	if err != nil {
		t.Fatalf("SessionsDir: %v", err)
	}
	if dir != "/tmp/custom-sessions" {
		t.Errorf("dir = %q", dir)
	}
}
