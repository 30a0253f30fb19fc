// Package config loads the redpost configuration from a TOML file, falling
// back to sensible defaults when the file or individual fields are absent.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds everything the daemon and CLI need to run.
type Config struct {
	DataDir string
	Bind    string

	Platform PlatformConfig
	Oracle   OracleConfig
	Publish  PublishConfig
	Compose  ComposeConfig
}

// PlatformConfig points the API client at the platform endpoints.
type PlatformConfig struct {
	BaseURL      string
	Origin       string
	CookieDomain string
}

// OracleConfig tunes the browser signature oracle.
type OracleConfig struct {
	MaxAttempts int
	SettleDelay time.Duration
}

// PublishConfig tunes the publish workflow.
type PublishConfig struct {
	Cooldown time.Duration
}

// ComposeConfig points at the local text generation endpoint.
type ComposeConfig struct {
	Endpoint string
	Model    string
}

const (
	defaultConfigPath   = "~/.config/redpost/config.toml"
	defaultDataDir      = "~/.local/share/redpost"
	defaultBind         = "127.0.0.1:7611"
	defaultBaseURL      = "https://edith.xiaohongshu.com"
	defaultOrigin       = "https://www.xiaohongshu.com"
	defaultCookieDomain = ".xiaohongshu.com"
	defaultMaxAttempts  = 10
	defaultSettleDelay  = 2 * time.Second
	defaultCooldown     = 30 * time.Second
	defaultEndpoint     = "http://127.0.0.1:11434/api/generate"
	defaultModel        = "qwen2.5:14b"
)

// Load locates and parses the config file, falling back to defaults when
// missing. An empty path means the default location.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := defaults()

	data, err := os.ReadFile(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("read config: %w", err)
	}

	var raw struct {
		DataDir string `toml:"data_dir"`
		Bind    string `toml:"bind"`

		Platform struct {
			BaseURL      string `toml:"base_url"`
			Origin       string `toml:"origin"`
			CookieDomain string `toml:"cookie_domain"`
		} `toml:"platform"`

		Oracle struct {
			MaxAttempts   int `toml:"max_attempts"`
			SettleDelayMS int `toml:"settle_delay_ms"`
		} `toml:"oracle"`

		Publish struct {
			CooldownSeconds int `toml:"cooldown_seconds"`
		} `toml:"publish"`

		Compose struct {
			Endpoint string `toml:"endpoint"`
			Model    string `toml:"model"`
		} `toml:"compose"`
	}
	if err := toml.Unmarshal(data, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	if v := strings.TrimSpace(raw.DataDir); v != "" {
		cfg.DataDir = mustExpand(v)
	}
	if v := strings.TrimSpace(raw.Bind); v != "" {
		cfg.Bind = v
	}
	if v := strings.TrimSpace(raw.Platform.BaseURL); v != "" {
		cfg.Platform.BaseURL = v
	}
	if v := strings.TrimSpace(raw.Platform.Origin); v != "" {
		cfg.Platform.Origin = v
	}
	if v := strings.TrimSpace(raw.Platform.CookieDomain); v != "" {
		cfg.Platform.CookieDomain = v
	}
	if raw.Oracle.MaxAttempts > 0 {
		cfg.Oracle.MaxAttempts = raw.Oracle.MaxAttempts
	}
	if raw.Oracle.SettleDelayMS > 0 {
		cfg.Oracle.SettleDelay = time.Duration(raw.Oracle.SettleDelayMS) * time.Millisecond
	}
	if raw.Publish.CooldownSeconds > 0 {
		cfg.Publish.Cooldown = time.Duration(raw.Publish.CooldownSeconds) * time.Second
	}
	if v := strings.TrimSpace(raw.Compose.Endpoint); v != "" {
		cfg.Compose.Endpoint = v
	}
	if v := strings.TrimSpace(raw.Compose.Model); v != "" {
		cfg.Compose.Model = v
	}

	return cfg, nil
}

func defaults() Config {
	return Config{
		DataDir: mustExpand(defaultDataDir),
		Bind:    defaultBind,
		Platform: PlatformConfig{
			BaseURL:      defaultBaseURL,
			Origin:       defaultOrigin,
			CookieDomain: defaultCookieDomain,
		},
		Oracle: OracleConfig{
			MaxAttempts: defaultMaxAttempts,
			SettleDelay: defaultSettleDelay,
		},
		Publish: PublishConfig{
			Cooldown: defaultCooldown,
		},
		Compose: ComposeConfig{
			Endpoint: defaultEndpoint,
			Model:    defaultModel,
		},
	}
}

// HistoryPath is the JSON history file under the data dir.
func (c Config) HistoryPath() string {
	return filepath.Join(c.DataDir, "publish_history.json")
}

// TaskPath is the scheduled task queue file under the data dir.
func (c Config) TaskPath() string {
	return filepath.Join(c.DataDir, "scheduled_tasks.json")
}

// MasterKeyPath is the account registry master key file under the data dir.
func (c Config) MasterKeyPath() string {
	return filepath.Join(c.DataDir, "master.key")
}

// AccountDBPath is the sealed account database under the data dir.
func (c Config) AccountDBPath() string {
	return filepath.Join(c.DataDir, "accounts.db")
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
