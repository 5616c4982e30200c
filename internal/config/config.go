// Copyright (c) 2025 Zhougeng Xu
// SPDX-License-Identifier: MIT

// Package config provides configuration loading and management for sgpt-go.
//
// Supports TOML configuration with sensible defaults, environment variable
// overrides, and validation.
//
// Configuration file location:
//   - ~/.config/sgpt-go/config.toml
//   - Built-in defaults otherwise
package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/xuzhougeng/sgpt-go/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete sgpt-go configuration.
type Config struct {
	API   APIConfig   `toml:"api"`
	Chat  ChatConfig  `toml:"chat"`
	Cache CacheConfig `toml:"cache"`
	UI    UIConfig    `toml:"ui"`

	// OSName and ShellName override platform detection in role templates.
	// "auto" means detect from the environment.
	OSName    string `toml:"os_name"`
	ShellName string `toml:"shell_name"`
}

// APIConfig describes the OpenAI-compatible completion endpoint.
type APIConfig struct {
	BaseURL string `toml:"base_url"`
	// Key is the API key. The SGPT_API_KEY / OPENAI_API_KEY environment
	// variables take precedence over the file value.
	Key         string  `toml:"key"`
	Model       string  `toml:"model"`
	Temperature float64 `toml:"temperature"`
	TopP        float64 `toml:"top_p"`
	// RequestTimeoutSecs bounds a single completion request, including
	// the full stream. 0 means no timeout.
	RequestTimeoutSecs int `toml:"request_timeout_secs"`
	// RequestsPerSecond throttles request starts. 0 disables throttling.
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// ChatConfig controls sessions and the interactive UI history.
type ChatConfig struct {
	// SessionsDir overrides where chat sessions are persisted
	// (default: <config dir>/sessions).
	SessionsDir string `toml:"sessions_dir"`
	// MaxDisplayMessages caps how many trailing messages the TUI renders.
	MaxDisplayMessages int `toml:"max_display_messages"`
}

// CacheConfig controls the completion cache.
type CacheConfig struct {
	Enabled bool `toml:"enabled"`
	// Path overrides the cache database location
	// (default: <config dir>/cache.db).
	Path    string `toml:"path"`
	TTLDays int    `toml:"ttl_days"`
}

// UIConfig controls rendering.
type UIConfig struct {
	// Markdown renders final assistant answers through glamour in
	// one-shot and REPL output.
	Markdown bool `toml:"markdown"`
	// Theme is the chroma style used for code blocks.
	Theme string `toml:"theme"`
	// DebugLog enables the file-backed debug log at <config dir>/debug.log.
	DebugLog bool `toml:"debug_log"`
}

// =============================================================================
// DEFAULTS AND PATHS
// =============================================================================

// Default returns a Config populated with default values.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:            "https://api.openai.com/v1",
			Model:              "gpt-4o-mini",
			Temperature:        0.0,
			TopP:               1.0,
			RequestTimeoutSecs: 120,
			RequestsPerSecond:  2,
		},
		Chat: ChatConfig{
			MaxDisplayMessages: 100,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTLDays: 30,
		},
		UI: UIConfig{
			Markdown: true,
			Theme:    "monokai",
		},
		OSName:    "auto",
		ShellName: "auto",
	}
}

// Dir returns the sgpt-go configuration directory, creating nothing.
func Dir() (string, error) {
	if override := os.Getenv("SGPT_CONFIG_DIR"); override != "" {
		return override, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config dir: %w", err)
	}
	return filepath.Join(base, "sgpt-go"), nil
}

// Path returns the TOML config file path.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// SessionsDir resolves the directory session files live in.
func (c *Config) SessionsDir() (string, error) {
	if c.Chat.SessionsDir != "" {
		return c.Chat.SessionsDir, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sessions"), nil
}

// RolesDir resolves the directory custom role files live in.
func (c *Config) RolesDir() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "roles"), nil
}

// CachePath resolves the completion cache database path.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "cache.db"), nil
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the config file if present, fills defaults, applies environment
// overrides, and validates. A missing file is not an error.
func Load() (*Config, error) {
	cfg := Default()

	path, err := Path()
	if err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := loadTOML(cfg, path); err != nil {
				return nil, err
			}
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// LoadFromPath reads a config file from an explicit path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()
	if err := loadTOML(cfg, path); err != nil {
		return nil, err
	}
	applyEnvOverrides(cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadTOML(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := toml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse TOML config: %w", err)
	}
	return nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SGPT_API_KEY"); v != "" {
		cfg.API.Key = v
	} else if v := os.Getenv("OPENAI_API_KEY"); v != "" && cfg.API.Key == "" {
		cfg.API.Key = v
	}
	if v := os.Getenv("SGPT_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("SGPT_MODEL"); v != "" {
		cfg.API.Model = v
	}
}

// Save writes the config back to its default path atomically.
func Save(cfg *Config) error {
	path, err := Path()
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	// Config may hold an API key; keep it owner-readable only.
	return util.AtomicWriteFile(path, buf.Bytes(), 0o600)
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if c.API.BaseURL != "" {
		u, err := url.Parse(c.API.BaseURL)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("api.base_url %q is not a valid URL", c.API.BaseURL)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("api.base_url scheme must be http or https, got %q", u.Scheme)
		}
	}
	if c.API.Temperature < 0 || c.API.Temperature > 2 {
		return fmt.Errorf("api.temperature must be in [0, 2], got %g", c.API.Temperature)
	}
	if c.API.TopP < 0 || c.API.TopP > 1 {
		return fmt.Errorf("api.top_p must be in [0, 1], got %g", c.API.TopP)
	}
	if c.API.RequestTimeoutSecs < 0 {
		return fmt.Errorf("api.request_timeout_secs cannot be negative")
	}
	if c.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second cannot be negative")
	}
	if c.Chat.MaxDisplayMessages < 0 {
		return fmt.Errorf("chat.max_display_messages cannot be negative")
	}
	if c.Cache.TTLDays < 0 {
		return fmt.Errorf("cache.ttl_days cannot be negative")
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESS
// =============================================================================

var (
	globalMu     sync.RWMutex
	globalConfig *Config
)

// Global returns the process-wide config, loading it on first use.
// Load errors fall back to defaults; commands that need to surface
// config errors call Load directly.
func Global() *Config {
	globalMu.RLock()
	if globalConfig != nil {
		defer globalMu.RUnlock()
		return globalConfig
	}
	globalMu.RUnlock()

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			cfg = Default()
			applyEnvOverrides(cfg)
		}
		globalConfig = cfg
	}
	return globalConfig
}

// SetGlobal replaces the process-wide config. Used by tests and by
// commands that load from an explicit path.
func SetGlobal(cfg *Config) {
	globalMu.Lock()
	defer globalMu.Unlock()
	globalConfig = cfg
}

// RedactedKey returns the API key with all but the last four characters
// masked, for display in status output.
func (c *Config) RedactedKey() string {
	k := c.API.Key
	if k == "" {
		return "(not set)"
	}
	if len(k) <= 4 {
		return strings.Repeat("*", len(k))
	}
	return strings.Repeat("*", len(k)-4) + k[len(k)-4:]
}
