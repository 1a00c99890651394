// Package config provides YAML-based configuration loading for rdtrack.
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"
)

// Config is the top-level rdtrack configuration, loaded from rdtrack.yaml.
type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Dashboard DashboardConfig `yaml:"dashboard"`
	Health    HealthConfig    `yaml:"health"`
	Alerts    AlertsConfig    `yaml:"alerts"`
	GitHub    GitHubConfig    `yaml:"github"`
}

// DatabaseConfig holds connection settings for the relational store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"` // mysql or sqlite
	Host   string `yaml:"host"`
	Port   int    `yaml:"port"`
	User   string `yaml:"user"`
	Name   string `yaml:"name"`
	Path   string `yaml:"path"` // sqlite file
}

// DashboardConfig controls the HTTP API server.
type DashboardConfig struct {
	Port int `yaml:"port"`
}

// HealthConfig controls snapshot history and scheduled recording.
type HealthConfig struct {
	HistoryDays      int     `yaml:"history_days"`
	SnapshotSchedule string  `yaml:"snapshot_schedule"`
	AlertThreshold   float64 `yaml:"alert_threshold"`
}

// AlertsConfig lists the channels low-health alerts are delivered to.
type AlertsConfig struct {
	Command string        `yaml:"command"`
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot credentials.
type SlackConfig struct {
	BotToken string `yaml:"bot_token"`
	Channel  string `yaml:"channel"`
}

// DiscordConfig holds Discord bot credentials.
type DiscordConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// GitHubConfig holds credentials for release import.
type GitHubConfig struct {
	Token string `yaml:"token"`
}

// Driver names.
const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

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
	if c.Database.Driver == "" {
		c.Database.Driver = DriverMySQL
	}
	if c.Database.Host == "" {
		c.Database.Host = "127.0.0.1"
	}
	if c.Database.Port == 0 {
		c.Database.Port = 3306
	}
	if c.Database.User == "" {
		c.Database.User = "root"
	}
	if c.Database.Name == "" {
		c.Database.Name = "rdtrack"
	}
	if c.Database.Driver == DriverSQLite && c.Database.Path == "" {
		c.Database.Path = "rdtrack.db"
	}
	if c.Dashboard.Port == 0 {
		c.Dashboard.Port = 8080
	}
	if c.Health.HistoryDays == 0 {
		c.Health.HistoryDays = 30
	}
	if c.Health.SnapshotSchedule == "" {
		c.Health.SnapshotSchedule = "0 2 * * *"
	}
	if c.Health.AlertThreshold == 0 {
		c.Health.AlertThreshold = 60
	}
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	switch c.Database.Driver {
	case DriverMySQL, DriverSQLite:
	default:
		errs = append(errs, fmt.Sprintf("database.driver %q must be %q or %q", c.Database.Driver, DriverMySQL, DriverSQLite))
	}
	if c.Database.Port < 0 || c.Database.Port > 65535 {
		errs = append(errs, fmt.Sprintf("database.port %d out of range", c.Database.Port))
	}
	if c.Dashboard.Port < 0 || c.Dashboard.Port > 65535 {
		errs = append(errs, fmt.Sprintf("dashboard.port %d out of range", c.Dashboard.Port))
	}
	if c.Health.HistoryDays < 0 {
		errs = append(errs, "health.history_days must not be negative")
	}
	if c.Health.AlertThreshold < 0 || c.Health.AlertThreshold > 100 {
		errs = append(errs, fmt.Sprintf("health.alert_threshold %.2f must be within 0..100", c.Health.AlertThreshold))
	}
	if _, err := cronParser.Parse(c.Health.SnapshotSchedule); err != nil {
		errs = append(errs, fmt.Sprintf("health.snapshot_schedule %q: %v", c.Health.SnapshotSchedule, err))
	}
	if (c.Alerts.Slack.BotToken == "") != (c.Alerts.Slack.Channel == "") {
		errs = append(errs, "alerts.slack requires both bot_token and channel")
	}
	if (c.Alerts.Discord.BotToken == "") != (c.Alerts.Discord.ChannelID == "") {
		errs = append(errs, "alerts.discord requires both bot_token and channel_id")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
