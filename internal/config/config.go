// Package config holds the kintore server configuration, loaded from
// the environment with optional .env overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server configuration.
type Config struct {
	Host  string `env:"KINTORE_HOST" envDefault:"0.0.0.0"`
	Port  int    `env:"KINTORE_PORT" envDefault:"8080"`
	Debug bool   `env:"KINTORE_DEBUG" envDefault:"false"`

	// LLM provider. Groq speaks the OpenAI wire format.
	APIKey     string        `env:"GROQ_API_KEY"`
	BaseURL    string        `env:"LLM_BASE_URL" envDefault:"https://api.groq.com/openai/v1"`
	ChatModel  string        `env:"LLM_CHAT_MODEL" envDefault:"llama-3.1-70b-versatile"`
	EmbedModel string        `env:"LLM_EMBED_MODEL" envDefault:"text-embedding-3-small"`
	LLMTimeout time.Duration `env:"LLM_TIMEOUT" envDefault:"60s"`

	DataDir   string `env:"KINTORE_DATA_DIR"`
	MemoryDir string `env:"KINTORE_MEMORY_DIR"`

	// Snapshot backend: "sqlite" (default) or "redis". Redis is for
	// multi-process worker pools sharing one session space.
	SnapshotBackend string        `env:"KINTORE_SNAPSHOT_BACKEND" envDefault:"sqlite"`
	SnapshotPath    string        `env:"KINTORE_SNAPSHOT_PATH"`
	SnapshotTTL     time.Duration `env:"KINTORE_SNAPSHOT_TTL" envDefault:"0"`
	RedisAddr       string        `env:"KINTORE_REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword   string        `env:"KINTORE_REDIS_PASSWORD"`
	RedisDB         int           `env:"KINTORE_REDIS_DB" envDefault:"0"`
}

// Load reads configuration from the environment. A .env file in the
// working directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	if cfg.DataDir == "" {
		cfg.DataDir = defaultDataDir()
	}
	if cfg.MemoryDir == "" {
		cfg.MemoryDir = filepath.Join(cfg.DataDir, "memory")
	}
	if cfg.SnapshotPath == "" {
		cfg.SnapshotPath = filepath.Join(cfg.DataDir, "sessions.db")
	}
	return cfg, nil
}

// Addr returns the host:port listen address.
func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

func defaultDataDir() string {
	if runtime.GOOS == "windows" {
		return filepath.Join(os.Getenv("LOCALAPPDATA"), "kintore")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "kintore")
}

// EnsureDirs creates the required directories if they don't exist.
func EnsureDirs(cfg *Config) error {
	for _, dir := range []string{cfg.DataDir, cfg.MemoryDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
