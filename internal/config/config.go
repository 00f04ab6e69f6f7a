package config

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"
)

// Config is the top-level configuration structure.
type Config struct {
	Server    ServerConfig     `json:"server"`
	Providers []ProviderConfig `json:"providers"`
	Storage   StorageConfig    `json:"storage"`
	Cache     CacheConfig      `json:"cache"`
	Gateway   GatewayConfig    `json:"gateway"`
	Analysis  AnalysisConfig   `json:"analysis"`
}

type ServerConfig struct {
	Port     int    `json:"port"`
	LogLevel string `json:"log_level"`
}

type ProviderConfig struct {
	ID             string            `json:"id"`
	Type           string            `json:"type"` // "ollama" | "openai"
	Name           string            `json:"name"`
	Endpoint       string            `json:"endpoint"`
	APIKey         string            `json:"api_key"`
	Model          string            `json:"model"`
	TimeoutSeconds int               `json:"timeout_seconds"`
	Extra          map[string]string `json:"extra,omitempty"`
}

// StorageConfig selects the user-state backend.
// backend "file" keeps per-user JSON under DataDir; "postgres" uses DSN.
type StorageConfig struct {
	Backend string `json:"backend"`
	DataDir string `json:"data_dir"`
	DSN     string `json:"dsn"`
}

// CacheConfig selects the suggestion-cache backend.
type CacheConfig struct {
	Backend    string `json:"backend"` // "memory" | "redis"
	RedisURL   string `json:"redis_url"`
	TTLSeconds int    `json:"ttl_seconds"`
}

type GatewayConfig struct {
	Slack   SlackGatewayConfig   `json:"slack"`
	Discord DiscordGatewayConfig `json:"discord"`
}

type SlackGatewayConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
	AppToken string `json:"app_token"`
}

type DiscordGatewayConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token"`
}

// AnalysisConfig tunes the proactive analysis pipeline.
type AnalysisConfig struct {
	// ConversationWindow bounds how many recent conversations the pattern
	// detector scans per user. Zero means the default of 50.
	ConversationWindow int `json:"conversation_window"`
	// DigestIntervalMinutes controls how often the suggestion digest runs.
	// Zero disables the digest.
	DigestIntervalMinutes int `json:"digest_interval_minutes"`
}

// envVarRe matches ${VAR} and ${VAR:default} patterns.
var envVarRe = regexp.MustCompile(`\$\{(\w+)(?::([^}]*))?\}`)

// Load reads a JSON config file and substitutes environment variable references.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	// Substitute ${VAR} and ${VAR:default} with environment values.
	resolved := envVarRe.ReplaceAllStringFunc(string(data), func(match string) string {
		parts := envVarRe.FindStringSubmatch(match)
		name := parts[1]
		defaultVal := parts[2]
		if v := os.Getenv(name); v != "" {
			return v
		}
		return defaultVal
	})

	var cfg Config
	if err := json.Unmarshal([]byte(resolved), &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 3310
	}
	if c.Storage.Backend == "" {
		c.Storage.Backend = "file"
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Cache.Backend == "" {
		c.Cache.Backend = "memory"
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Analysis.ConversationWindow == 0 {
		c.Analysis.ConversationWindow = 50
	}
}
