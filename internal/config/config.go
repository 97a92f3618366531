// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

// Package config loads and validates Pressgate configuration from three
// layers with clear precedence: environment variables override an
// optional YAML file, which overrides built-in defaults.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration for the admin core.
type Config struct {
	Server   ServerConfig   `koanf:"server"`
	Auth     AuthConfig     `koanf:"auth"`
	Audit    AuditConfig    `koanf:"audit"`
	Alerting AlertingConfig `koanf:"alerting"`
	Logging  LoggingConfig  `koanf:"logging"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"`
	RateWindow      time.Duration `koanf:"rate_window"`
}

// AuthConfig holds token verification settings.
type AuthConfig struct {
	JWTSecret string        `koanf:"jwt_secret"`
	TokenTTL  time.Duration `koanf:"token_ttl"`
}

// AuditConfig holds audit trail settings.
type AuditConfig struct {
	Enabled         bool   `koanf:"enabled"`
	StorePath       string `koanf:"store_path"`
	RetentionDays   int    `koanf:"retention_days"`
	CleanupSchedule string `koanf:"cleanup_schedule"`
	ExportLimit     int    `koanf:"export_limit"`
}

// AlertingConfig holds alert delivery channel settings.
type AlertingConfig struct {
	InApp   ChannelConfig        `koanf:"in_app"`
	Email   EmailChannelConfig   `koanf:"email"`
	Webhook WebhookChannelConfig `koanf:"webhook"`
}

// ChannelConfig is the common per-channel toggle and severity floor.
type ChannelConfig struct {
	Enabled     bool   `koanf:"enabled"`
	MinSeverity string `koanf:"min_severity"`
}

// EmailChannelConfig extends ChannelConfig with recipients.
type EmailChannelConfig struct {
	ChannelConfig `koanf:",squash"`
	Recipients    []string `koanf:"recipients"`
}

// WebhookChannelConfig extends ChannelConfig with the target URL.
type WebhookChannelConfig struct {
	ChannelConfig `koanf:",squash"`
	URL           string `koanf:"url"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// defaultConfig returns a Config with all defaults applied. These are
// layered first, then overridden by the config file and env vars.
func defaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8090,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    30 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{},
			RateLimit:       100,
			RateWindow:      time.Minute,
		},
		Auth: AuthConfig{
			JWTSecret: "",
			TokenTTL:  24 * time.Hour,
		},
		Audit: AuditConfig{
			Enabled:         true,
			StorePath:       "/data/pressgate/audit",
			RetentionDays:   90,
			CleanupSchedule: "0 3 * * *",
			ExportLimit:     10000,
		},
		Alerting: AlertingConfig{
			InApp: ChannelConfig{Enabled: true, MinSeverity: "low"},
			Email: EmailChannelConfig{
				ChannelConfig: ChannelConfig{Enabled: false, MinSeverity: "high"},
			},
			Webhook: WebhookChannelConfig{
				ChannelConfig: ChannelConfig{Enabled: false, MinSeverity: "medium"},
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// Validate checks configuration invariants after all layers are merged.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port)
	}
	if len(c.Auth.JWTSecret) < 32 {
		return fmt.Errorf("auth.jwt_secret must be at least 32 characters")
	}
	if c.Audit.RetentionDays < 1 || c.Audit.RetentionDays > 3650 {
		return fmt.Errorf("audit.retention_days must be between 1 and 3650, got %d", c.Audit.RetentionDays)
	}
	if c.Audit.ExportLimit < 1 {
		return fmt.Errorf("audit.export_limit must be positive, got %d", c.Audit.ExportLimit)
	}
	if c.Alerting.Webhook.Enabled && c.Alerting.Webhook.URL == "" {
		return fmt.Errorf("alerting.webhook.url is required when the webhook channel is enabled")
	}
	if c.Alerting.Email.Enabled && len(c.Alerting.Email.Recipients) == 0 {
		return fmt.Errorf("alerting.email.recipients is required when the email channel is enabled")
	}
	return nil
}

// Addr returns the host:port listen address.
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
