package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Env      string         `yaml:"env"` // "dev" or "prod"
	Server   ServerConfig   `yaml:"server"`
	Backend  BackendConfig  `yaml:"backend"`
	Database DatabaseConfig `yaml:"database"`
	Log      LogConfig      `yaml:"log"`
	Site     SiteConfig     `yaml:"site"`
}

func (c *Config) IsDev() bool {
	return c.Env == "dev"
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

// BackendConfig points at the REST backend that owns all business data.
// In dev an embedded fake backend is served on FakeAddr so the site
// runs without the real one.
type BackendConfig struct {
	BaseURL       string `yaml:"base_url"`
	Timeout       string `yaml:"timeout"`
	Fake          bool   `yaml:"fake"`
	FakeAddr      string `yaml:"fake_addr"`
	AdminUser     string `yaml:"admin_user"`
	AdminPassword string `yaml:"admin_password"`
}

// TimeoutDuration parses the configured backend timeout, falling back
// to 15 seconds when the value is missing or malformed.
func (c BackendConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

type DatabaseConfig struct {
	Path string `yaml:"path"`
}

type LogConfig struct {
	Level string `yaml:"level"`
}

type SiteConfig struct {
	Name string `yaml:"name"`
}

func Load() *Config {
	env := os.Getenv("BRIGHTLEAD_ENV")
	if env == "" {
		env = "dev"
	}

	var dbPath string
	if env == "dev" {
		dbPath = "_workspace/db/brightlead.db"
	} else {
		homeDir, _ := os.UserHomeDir()
		dbPath = filepath.Join(homeDir, ".brightlead", "brightlead.db")
	}

	cfg := &Config{
		Env:      env,
		Server:   ServerConfig{Addr: ":8080"},
		Backend: BackendConfig{
			BaseURL:       "http://localhost:3001",
			Timeout:       "15s",
			Fake:          env == "dev",
			FakeAddr:      "127.0.0.1:3001",
			AdminUser:     "admin",
			AdminPassword: "admin123",
		},
		Database: DatabaseConfig{Path: dbPath},
		Log:      LogConfig{Level: "info"},
		Site:     SiteConfig{Name: "新媒体运营"},
	}

	data, err := os.ReadFile("config.yaml")
	if err == nil {
		yaml.Unmarshal(data, cfg)
	}

	// Environment overrides (highest priority)
	if v := os.Getenv("BRIGHTLEAD_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("BRIGHTLEAD_BACKEND_URL"); v != "" {
		cfg.Backend.BaseURL = v
		cfg.Backend.Fake = false
	}
	if v := os.Getenv("BRIGHTLEAD_BACKEND_FAKE"); v != "" {
		cfg.Backend.Fake = v == "true" || v == "1"
	}
	if v := os.Getenv("BRIGHTLEAD_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("BRIGHTLEAD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("BRIGHTLEAD_SITE_NAME"); v != "" {
		cfg.Site.Name = v
	}

	return cfg
}
