// Package config loads crontrack settings from a YAML file with
// environment variable overrides for deployment secrets.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the full crontrack configuration tree.
type Config struct {
	Store   StoreConfig   `yaml:"store"`
	Monitor MonitorConfig `yaml:"monitor"`
	Email   EmailConfig   `yaml:"email"`
	SMS     SMSConfig     `yaml:"sms"`
	Site    SiteConfig    `yaml:"site"`
}

// StoreConfig selects and configures the persistence backend.
type StoreConfig struct {
	// Backend is one of "memory", "postgres", "redis".
	Backend string `yaml:"backend"`

	// DSN is the postgres connection URL when Backend is "postgres".
	DSN string `yaml:"dsn"`

	// RedisAddr is the host:port when Backend is "redis".
	RedisAddr string `yaml:"redis_addr"`

	// RedisPassword is optional AUTH for the Redis backend.
	RedisPassword string `yaml:"redis_password"`
}

// MonitorConfig tunes the evaluation loop.
type MonitorConfig struct {
	TickInterval  time.Duration `yaml:"tick_interval"`
	Fanout        int           `yaml:"fanout"`
	PageSize      int           `yaml:"page_size"`
	RetryAttempts int           `yaml:"retry_attempts"`
}

// EmailConfig configures the SendGrid email channel.
type EmailConfig struct {
	APIKey      string `yaml:"api_key"`
	FromName    string `yaml:"from_name"`
	FromAddress string `yaml:"from_address"`
}

// SMSConfig configures the SMS webhook gateway channel.
type SMSConfig struct {
	GatewayURL string        `yaml:"gateway_url"`
	Token      string        `yaml:"token"`
	Timeout    time.Duration `yaml:"timeout"`
}

// SiteConfig is deployment metadata rendered into alert messages.
type SiteConfig struct {
	Name    string `yaml:"name"`
	BaseURL string `yaml:"base_url"`
}

// Load reads the config file at path, falling back to defaults when the
// file does not exist, then applies environment overrides. Secrets should
// come through the environment so the file can live in version control.
func Load(path string) (*Config, error) {
	cfg := &Config{
		Store: StoreConfig{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
		},
		Monitor: MonitorConfig{
			TickInterval:  60 * time.Second,
			Fanout:        4,
			PageSize:      200,
			RetryAttempts: 2,
		},
		Email: EmailConfig{
			FromName:    "crontrack",
			FromAddress: "alerts@localhost",
		},
		SMS: SMSConfig{
			Timeout: 10 * time.Second,
		},
		Site: SiteConfig{
			Name:    "crontrack",
			BaseURL: "http://localhost",
		},
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(cfg)
			return cfg, nil
		}
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	applyEnv(cfg)
	return cfg, nil
}

// applyEnv overrides file values with CRONTRACK_* environment variables.
func applyEnv(cfg *Config) {
	if v := os.Getenv("CRONTRACK_STORE_BACKEND"); v != "" {
		cfg.Store.Backend = v
	}
	if v := os.Getenv("CRONTRACK_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}
	if v := os.Getenv("CRONTRACK_REDIS_ADDR"); v != "" {
		cfg.Store.RedisAddr = v
	}
	if v := os.Getenv("CRONTRACK_REDIS_PASSWORD"); v != "" {
		cfg.Store.RedisPassword = v
	}
	if v := os.Getenv("CRONTRACK_SENDGRID_API_KEY"); v != "" {
		cfg.Email.APIKey = v
	}
	if v := os.Getenv("CRONTRACK_SMS_GATEWAY_URL"); v != "" {
		cfg.SMS.GatewayURL = v
	}
	if v := os.Getenv("CRONTRACK_SMS_TOKEN"); v != "" {
		cfg.SMS.Token = v
	}
	if v := os.Getenv("CRONTRACK_TICK_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			cfg.Monitor.TickInterval = d
		}
	}
}

// Validate catches configuration mistakes before any component starts.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case "memory":
	case "postgres":
		if c.Store.DSN == "" {
			return fmt.Errorf("config: postgres backend requires store.dsn")
		}
	case "redis":
		if c.Store.RedisAddr == "" {
			return fmt.Errorf("config: redis backend requires store.redis_addr")
		}
	default:
		return fmt.Errorf("config: unknown store backend %q", c.Store.Backend)
	}

	if c.Monitor.TickInterval <= 0 {
		return fmt.Errorf("config: monitor.tick_interval must be positive")
	}
	return nil
}
