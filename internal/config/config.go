// Package config provides YAML-based configuration loading for Pitstop.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Pitstop configuration, loaded from config.yaml.
// Secrets (DB password, JWT secret, courier tokens) come from the
// environment, not from this file.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Courier  CourierConfig  `yaml:"courier"`
	Registry RegistryConfig `yaml:"registry"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// DatabaseConfig holds connection settings. Driver is "mysql" or "sqlite".
type DatabaseConfig struct {
	Driver   string `yaml:"driver"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Database string `yaml:"database"`
	Path     string `yaml:"path"` // sqlite only
}

// AuthConfig holds token settings. The signing secret is read from
// PITSTOP_JWT_SECRET.
type AuthConfig struct {
	TokenTTLHours int `yaml:"token_ttl_hours"`
}

// CourierConfig selects chat platforms for manager alerts. Tokens are read
// from the environment (PITSTOP_SLACK_*, PITSTOP_DISCORD_*).
type CourierConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds the Slack courier target.
type SlackConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"`
}

// DiscordConfig holds the Discord courier target.
type DiscordConfig struct {
	Enabled   bool   `yaml:"enabled"`
	ChannelID string `yaml:"channel_id"`
}

// RegistryConfig points at the government vehicle registry API.
type RegistryConfig struct {
	BaseURL    string `yaml:"base_url"`
	ResourceID string `yaml:"resource_id"`
}

// Load reads a YAML config file from path and returns a validated Config.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	return Parse(data)
}

// Parse unmarshals YAML bytes into a validated Config.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// applyDefaults fills in derived and default values.
func (c *Config) applyDefaults() {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "sqlite"
	}
	if c.Database.Driver == "sqlite" && c.Database.Path == "" {
		c.Database.Path = "pitstop.db"
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "pitstop"
	}
	if c.Database.Database == "" {
		c.Database.Database = "pitstop"
	}
	if c.Auth.TokenTTLHours == 0 {
		c.Auth.TokenTTLHours = 24
	}
	if c.Registry.BaseURL == "" {
		c.Registry.BaseURL = "https://data.gov.il/api/3/action/datastore_search"
	}
	if c.Registry.ResourceID == "" {
		c.Registry.ResourceID = "053cea08-09bc-40ec-8f7a-156f0677aff3"
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q is not supported (mysql, sqlite)", c.Database.Driver))
	}
	if c.Courier.Slack.Enabled && c.Courier.Slack.ChannelID == "" {
		errs = append(errs, "courier.slack.channel_id is required when slack is enabled")
	}
	if c.Courier.Discord.Enabled && c.Courier.Discord.ChannelID == "" {
		errs = append(errs, "courier.discord.channel_id is required when discord is enabled")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
