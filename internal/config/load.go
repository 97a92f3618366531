// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists config file locations searched in order.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/pressgate/config.yaml",
	"/etc/pressgate/config.yml",
}

// ConfigPathEnvVar overrides the config file search path.
const ConfigPathEnvVar = "PRESSGATE_CONFIG"

// EnvPrefix is the prefix for all Pressgate environment variables.
const EnvPrefix = "PRESSGATE_"

// Load builds the configuration from defaults, an optional YAML file,
// and PRESSGATE_-prefixed environment variables, then validates it.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envMappings maps stripped, lowercased env var names to koanf paths.
// Leaf keys contain underscores, so a naive underscore-to-dot transform
// cannot work; every supported variable is listed explicitly.
var envMappings = map[string]string{
	"server_host":             "server.host",
	"server_port":             "server.port",
	"server_read_timeout":     "server.read_timeout",
	"server_write_timeout":    "server.write_timeout",
	"server_shutdown_timeout": "server.shutdown_timeout",
	"server_cors_origins":     "server.cors_origins",
	"server_rate_limit":       "server.rate_limit",
	"server_rate_window":      "server.rate_window",

	"jwt_secret": "auth.jwt_secret",
	"token_ttl":  "auth.token_ttl",

	"audit_enabled":          "audit.enabled",
	"audit_store_path":       "audit.store_path",
	"audit_retention_days":   "audit.retention_days",
	"audit_cleanup_schedule": "audit.cleanup_schedule",
	"audit_export_limit":     "audit.export_limit",

	"alert_in_app_enabled":       "alerting.in_app.enabled",
	"alert_in_app_min_severity":  "alerting.in_app.min_severity",
	"alert_email_enabled":        "alerting.email.enabled",
	"alert_email_min_severity":   "alerting.email.min_severity",
	"alert_email_recipients":     "alerting.email.recipients",
	"alert_webhook_enabled":      "alerting.webhook.enabled",
	"alert_webhook_min_severity": "alerting.webhook.min_severity",
	"alert_webhook_url":          "alerting.webhook.url",

	"log_level":  "logging.level",
	"log_format": "logging.format",
}

// envTransformFunc maps PRESSGATE_FOO_BAR to its koanf path, or drops
// unknown variables by returning "".
func envTransformFunc(key string) string {
	key = strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
	if path, ok := envMappings[key]; ok {
		return path
	}
	return ""
}

// sliceConfigPaths lists paths parsed as comma-separated slices when the
// value arrives as a string from an env var.
var sliceConfigPaths = []string{
	"server.cors_origins",
	"alerting.email.recipients",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		val := k.Get(path)
		strVal, ok := val.(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if len(trimmed) > 0 {
			if err := k.Set(path, trimmed); err != nil {
				return fmt.Errorf("failed to set %s: %w", path, err)
			}
		}
	}
	return nil
}
