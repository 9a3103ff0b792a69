// Package config provides YAML-based configuration loading for Softrha.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level Softrha configuration, loaded from softrha.yaml.
type Config struct {
	PublicBaseURL string          `yaml:"public_base_url"`
	Server        ServerConfig    `yaml:"server"`
	Database      DatabaseConfig  `yaml:"database"`
	Gateway       GatewayConfig   `yaml:"gateway"`
	Mail          MailConfig      `yaml:"mail"`
	Push          PushConfig      `yaml:"push"`
	Chat          ChatConfig      `yaml:"chat"`
	Approval      ApprovalConfig  `yaml:"approval"`
	Reconcile     ReconcileConfig `yaml:"reconcile"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port      int    `yaml:"port"`
	UploadDir string `yaml:"upload_dir"`
}

// DatabaseConfig holds connection settings for the MySQL server.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
}

// GatewayConfig holds Stripe credentials and redirect URLs.
type GatewayConfig struct {
	SecretKey     string `yaml:"secret_key"`
	WebhookSecret string `yaml:"webhook_secret"`
	SuccessURL    string `yaml:"success_url"`
	CancelURL     string `yaml:"cancel_url"`
}

// MailConfig holds SMTP delivery settings.
type MailConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Username string `yaml:"username"`
	Password string `yaml:"password"`
	From     string `yaml:"from"`
}

// PushConfig holds VAPID keys for web push.
type PushConfig struct {
	VAPIDPublicKey  string `yaml:"vapid_public_key"`
	VAPIDPrivateKey string `yaml:"vapid_private_key"`
	Subscriber      string `yaml:"subscriber"` // mailto: contact required by the push protocol
}

// ChatConfig holds optional staff chat channels.
type ChatConfig struct {
	Slack   SlackConfig   `yaml:"slack"`
	Discord DiscordConfig `yaml:"discord"`
}

// SlackConfig holds Slack bot settings for staff alerts.
type SlackConfig struct {
	Token   string `yaml:"token"`
	Channel string `yaml:"channel"`
}

// DiscordConfig holds Discord bot settings for staff alerts.
type DiscordConfig struct {
	Token     string `yaml:"token"`
	ChannelID string `yaml:"channel_id"`
}

// ApprovalConfig holds lifecycle timing knobs.
type ApprovalConfig struct {
	TokenTTLDays   int `yaml:"token_ttl_days"`
	PaymentDueDays int `yaml:"payment_due_days"`
}

// ReconcileConfig holds the invariant-checker schedule.
type ReconcileConfig struct {
	Schedule string `yaml:"schedule"` // 5-field cron expression
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
	if c.Server.UploadDir == "" {
		c.Server.UploadDir = "uploads"
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
		c.Database.Name = "softrha"
	}
	if c.Mail.Port == 0 {
		c.Mail.Port = 587
	}
	if c.Approval.TokenTTLDays == 0 {
		c.Approval.TokenTTLDays = 7
	}
	if c.Approval.PaymentDueDays == 0 {
		c.Approval.PaymentDueDays = 5
	}
	if c.Reconcile.Schedule == "" {
		c.Reconcile.Schedule = "*/10 * * * *"
	}
	if c.PublicBaseURL == "" {
		c.PublicBaseURL = fmt.Sprintf("http://localhost:%d", c.Server.Port)
	}
	c.PublicBaseURL = strings.TrimRight(c.PublicBaseURL, "/")
}

// validate checks that all required fields are present and consistent.
func (c *Config) validate() error {
	var errs []string
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Sprintf("server.port %d out of range", c.Server.Port))
	}
	if c.Approval.TokenTTLDays < 1 {
		errs = append(errs, "approval.token_ttl_days must be at least 1")
	}
	if c.Approval.PaymentDueDays < 1 {
		errs = append(errs, "approval.payment_due_days must be at least 1")
	}
	if c.Chat.Slack.Token != "" && c.Chat.Slack.Channel == "" {
		errs = append(errs, "chat.slack.channel is required when a slack token is set")
	}
	if c.Chat.Discord.Token != "" && c.Chat.Discord.ChannelID == "" {
		errs = append(errs, "chat.discord.channel_id is required when a discord token is set")
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}
