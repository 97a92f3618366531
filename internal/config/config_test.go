// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func TestLoadDefaults(t *testing.T) {
	t.Setenv("PRESSGATE_JWT_SECRET", testSecret)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 8090 {
		t.Errorf("Server.Port = %d, want 8090", cfg.Server.Port)
	}
	if cfg.Audit.RetentionDays != 90 {
		t.Errorf("Audit.RetentionDays = %d, want 90", cfg.Audit.RetentionDays)
	}
	if cfg.Audit.ExportLimit != 10000 {
		t.Errorf("Audit.ExportLimit = %d, want 10000", cfg.Audit.ExportLimit)
	}
	if !cfg.Audit.Enabled {
		t.Error("Audit.Enabled should default to true")
	}
	if !cfg.Alerting.InApp.Enabled {
		t.Error("Alerting.InApp.Enabled should default to true")
	}
	if cfg.Alerting.Webhook.Enabled {
		t.Error("Alerting.Webhook.Enabled should default to false")
	}
	if cfg.Auth.TokenTTL != 24*time.Hour {
		t.Errorf("Auth.TokenTTL = %v, want 24h", cfg.Auth.TokenTTL)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("Logging = %+v", cfg.Logging)
	}
}

func TestLoadMissingSecretFails(t *testing.T) {
	t.Setenv("PRESSGATE_JWT_SECRET", "")
	os.Unsetenv("PRESSGATE_JWT_SECRET")

	if _, err := Load(); err == nil {
		t.Fatal("Load() should fail without a JWT secret")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("PRESSGATE_JWT_SECRET", testSecret)
	t.Setenv("PRESSGATE_SERVER_PORT", "9999")
	t.Setenv("PRESSGATE_AUDIT_RETENTION_DAYS", "30")
	t.Setenv("PRESSGATE_SERVER_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("PRESSGATE_ALERT_WEBHOOK_ENABLED", "true")
	t.Setenv("PRESSGATE_ALERT_WEBHOOK_URL", "https://hooks.example/alert")
	t.Setenv("PRESSGATE_LOG_LEVEL", "debug")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 9999 {
		t.Errorf("Server.Port = %d, want 9999", cfg.Server.Port)
	}
	if cfg.Audit.RetentionDays != 30 {
		t.Errorf("Audit.RetentionDays = %d, want 30", cfg.Audit.RetentionDays)
	}
	want := []string{"https://a.example", "https://b.example"}
	if len(cfg.Server.CORSOrigins) != 2 || cfg.Server.CORSOrigins[0] != want[0] || cfg.Server.CORSOrigins[1] != want[1] {
		t.Errorf("Server.CORSOrigins = %v, want %v", cfg.Server.CORSOrigins, want)
	}
	if !cfg.Alerting.Webhook.Enabled || cfg.Alerting.Webhook.URL != "https://hooks.example/alert" {
		t.Errorf("Webhook = %+v", cfg.Alerting.Webhook)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
}

func TestLoadUnknownEnvVarsIgnored(t *testing.T) {
	t.Setenv("PRESSGATE_JWT_SECRET", testSecret)
	t.Setenv("PRESSGATE_NO_SUCH_SETTING", "whatever")

	if _, err := Load(); err != nil {
		t.Fatalf("unknown env vars should be ignored, got %v", err)
	}
}

func TestLoadConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	yaml := strings.Join([]string{
		"server:",
		"  port: 7070",
		"audit:",
		"  retention_days: 14",
	}, "\n")
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PRESSGATE_JWT_SECRET", testSecret)
	t.Setenv(ConfigPathEnvVar, path)
	// Env beats file for the same key.
	t.Setenv("PRESSGATE_AUDIT_RETENTION_DAYS", "21")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Port != 7070 {
		t.Errorf("Server.Port = %d, want 7070 from file", cfg.Server.Port)
	}
	if cfg.Audit.RetentionDays != 21 {
		t.Errorf("Audit.RetentionDays = %d, want 21 from env", cfg.Audit.RetentionDays)
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := defaultConfig()
		cfg.Auth.JWTSecret = testSecret
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid defaults with secret", func(*Config) {}, false},
		{"port zero", func(c *Config) { c.Server.Port = 0 }, true},
		{"port too large", func(c *Config) { c.Server.Port = 70000 }, true},
		{"short secret", func(c *Config) { c.Auth.JWTSecret = "short" }, true},
		{"retention zero", func(c *Config) { c.Audit.RetentionDays = 0 }, true},
		{"retention beyond cap", func(c *Config) { c.Audit.RetentionDays = 4000 }, true},
		{"export limit zero", func(c *Config) { c.Audit.ExportLimit = 0 }, true},
		{"webhook enabled without url", func(c *Config) { c.Alerting.Webhook.Enabled = true }, true},
		{"webhook enabled with url", func(c *Config) {
			c.Alerting.Webhook.Enabled = true
			c.Alerting.Webhook.URL = "https://hooks.example/alert"
		}, false},
		{"email enabled without recipients", func(c *Config) { c.Alerting.Email.Enabled = true }, true},
		{"email enabled with recipients", func(c *Config) {
			c.Alerting.Email.Enabled = true
			c.Alerting.Email.Recipients = []string{"sec@example.com"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestAddr(t *testing.T) {
	sc := &ServerConfig{Host: "127.0.0.1", Port: 8090}
	if got := sc.Addr(); got != "127.0.0.1:8090" {
		t.Errorf("Addr() = %q", got)
	}
}
