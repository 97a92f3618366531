// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

// Package alerting delivers suspicious-activity alerts to configurable
// channels (in-app, email, webhook) with per-channel severity thresholds
// and named rules with cooldowns. Channel failures are isolated: one
// broken sink never aborts delivery to the others or fails the caller.
package alerting

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pressgate/pressgate/internal/audit"
	"github.com/pressgate/pressgate/internal/logging"
)

// ErrRuleNotFound is returned when a rule ID does not exist.
var ErrRuleNotFound = errors.New("alert rule not found")

// Rule gates delivery for alerts whose type matches its condition.
type Rule struct {
	// ID is generated on creation.
	ID string `json:"id"`

	// Name is a human-readable label.
	Name string `json:"name"`

	// Condition is the alert type the rule applies to (e.g.
	// "repeated_auth_failures"). "*" matches every alert.
	Condition string `json:"condition"`

	// Severity is the minimum severity the rule fires at.
	Severity audit.Severity `json:"severity"`

	// Enabled disables the rule without deleting it.
	Enabled bool `json:"enabled"`

	// CooldownMinutes suppresses repeat deliveries for the same rule.
	CooldownMinutes int `json:"cooldown_minutes"`

	lastFired time.Time
}

// ChannelConfig controls one delivery channel.
type ChannelConfig struct {
	Enabled     bool           `json:"enabled"`
	MinSeverity audit.Severity `json:"min_severity"`
}

// Channel delivers an alert to one sink.
type Channel interface {
	Name() string
	Send(ctx context.Context, alert audit.Alert) error
}

type boundChannel struct {
	channel Channel
	config  ChannelConfig
}

// Manager implements audit.AlertSink. Rule edits are rare admin
// operations, not hot-path; a single RWMutex guards the rule set.
type Manager struct {
	mu       sync.RWMutex
	rules    map[string]*Rule
	channels []boundChannel
	store    audit.Store
	nowFn    func() time.Time
}

// NewManager creates an alert manager. store persists processed alerts as
// audit records and may be nil in tests.
func NewManager(store audit.Store) *Manager {
	return &Manager{
		rules: make(map[string]*Rule),
		store: store,
		nowFn: time.Now,
	}
}

// Register binds a delivery channel with its configuration. Disabled
// channels are skipped during fan-out.
func (m *Manager) Register(ch Channel, cfg ChannelConfig) {
	if cfg.MinSeverity == "" {
		cfg.MinSeverity = audit.SeverityMedium
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, boundChannel{channel: ch, config: cfg})
}

// AddAlertRule adds a rule and returns its generated ID.
func (m *Manager) AddAlertRule(rule Rule) string {
	rule.ID = uuid.New().String()
	if rule.Severity == "" {
		rule.Severity = audit.SeverityMedium
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules[rule.ID] = &rule
	return rule.ID
}

// UpdateAlertRule replaces the mutable fields of an existing rule.
func (m *Manager) UpdateAlertRule(id string, update Rule) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	rule, ok := m.rules[id]
	if !ok {
		return ErrRuleNotFound
	}

	rule.Name = update.Name
	rule.Condition = update.Condition
	rule.Enabled = update.Enabled
	rule.CooldownMinutes = update.CooldownMinutes
	if update.Severity != "" {
		rule.Severity = update.Severity
	}
	return nil
}

// RemoveAlertRule deletes a rule.
func (m *Manager) RemoveAlertRule(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.rules[id]; !ok {
		return ErrRuleNotFound
	}
	delete(m.rules, id)
	return nil
}

// Rules returns a snapshot of the rule set.
func (m *Manager) Rules() []Rule {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Rule, 0, len(m.rules))
	for _, r := range m.rules {
		out = append(out, *r)
	}
	return out
}

// ProcessAlert persists the alert as an audit record and fans out to
// every enabled channel whose threshold the alert's severity meets.
// Channel failures are logged and never re-thrown; the error return is
// reserved for a failure to persist the alert itself.
func (m *Manager) ProcessAlert(ctx context.Context, alert audit.Alert) error {
	if alert.ID == "" {
		alert.ID = uuid.New().String()
	}
	if alert.Timestamp.IsZero() {
		alert.Timestamp = m.nowFn().UTC()
	}

	if !m.shouldDeliver(&alert) {
		return nil
	}

	if m.store != nil {
		record := &audit.Entry{
			ID:        uuid.New().String(),
			UserID:    "system",
			Action:    audit.ActionSecurityAlert,
			Resource:  "alerts",
			CreatedAt: alert.Timestamp,
			Details: audit.Details{
				Severity:  alert.Severity,
				Reason:    alert.Message,
				Reference: alert.ID,
				Extra:     map[string]interface{}{"alert_type": alert.Type},
			},
		}
		if err := m.store.Create(ctx, record); err != nil {
			return err
		}
	}

	m.mu.RLock()
	channels := make([]boundChannel, len(m.channels))
	copy(channels, m.channels)
	m.mu.RUnlock()

	for _, bc := range channels {
		if !bc.config.Enabled {
			continue
		}
		if !alert.Severity.AtLeast(bc.config.MinSeverity) {
			continue
		}
		if err := bc.channel.Send(ctx, alert); err != nil {
			logging.Error().
				Err(err).
				Str("channel", bc.channel.Name()).
				Str("alert_id", alert.ID).
				Msg("Alert channel delivery failed")
		}
	}
	return nil
}

// shouldDeliver applies rule gating. An alert with a matching disabled
// rule, a below-threshold severity, or a matching rule inside its
// cooldown is suppressed. Alerts with no matching rule pass through.
func (m *Manager) shouldDeliver(alert *audit.Alert) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.nowFn()
	matched := false

	for _, rule := range m.rules {
		if rule.Condition != "*" && rule.Condition != alert.Type {
			continue
		}
		matched = true

		if !rule.Enabled {
			continue
		}
		if !alert.Severity.AtLeast(rule.Severity) {
			continue
		}
		if rule.CooldownMinutes > 0 && !rule.lastFired.IsZero() {
			cooldown := time.Duration(rule.CooldownMinutes) * time.Minute
			if now.Sub(rule.lastFired) < cooldown {
				continue
			}
		}

		rule.lastFired = now
		return true
	}

	// No rule claims this alert type: deliver by default.
	return !matched
}
