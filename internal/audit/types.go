// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

// Package audit provides the tamper-evident security audit trail.
// It records every authorization decision and security-relevant action,
// detects suspicious behavioral patterns inline on the write path, and
// enforces age-based retention.
package audit

import (
	"context"
	"time"

	"github.com/pressgate/pressgate/internal/models"
)

// Audit actions use a dotted namespace. The segment before the dot is the
// event category; security.* entries drive alerting.
const (
	ActionAuthLogin       = "auth.login"
	ActionAuthLoginFailed = "auth.login_failed"
	ActionAuthLogout      = "auth.logout"
	ActionAuthTokenError  = "auth.token_error"

	ActionUserCreated    = "user.created"
	ActionUserUpdated    = "user.updated"
	ActionUserDeleted    = "user.deleted"
	ActionUserRoleChange = "user.role_change"

	ActionAPIAccess = "api.access"

	ActionPermissionCheck        = "security.permission_check"
	ActionPermissionCheckDenied  = "security.permission_check_denied"
	ActionUnauthorizedAccess     = "security.unauthorized_access"
	ActionSuspiciousActivity     = "security.suspicious_activity"
	ActionSecurityAlert          = "security.alert"
	SecurityActionPrefix         = "security."

	ActionSystemCleanup      = "system.cleanup"
	ActionSystemExport       = "system.export"
	ActionSystemConfigChange = "system.config_change"
)

// Severity levels carried inside entry details, not as a first-class
// column.
type Severity string

const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// severityRanks orders severities for threshold comparisons.
var severityRanks = map[Severity]int{
	SeverityLow:      1,
	SeverityMedium:   2,
	SeverityHigh:     3,
	SeverityCritical: 4,
}

// Rank returns the numeric order of a severity. Unknown severities rank 0.
func (s Severity) Rank() int {
	return severityRanks[s]
}

// AtLeast reports whether s meets or exceeds the threshold severity.
func (s Severity) AtLeast(threshold Severity) bool {
	return s.Rank() >= threshold.Rank()
}

// Result values recorded in entry details.
const (
	ResultSuccess = "SUCCESS"
	ResultDenied  = "DENIED"
	ResultFailure = "FAILURE"
)

// Details is the structured payload of an audit entry. Common fields are
// typed; genuinely free-form context goes in Extra, which is sanitized
// before persistence.
type Details struct {
	Severity Severity `json:"severity"`

	// Result is SUCCESS, DENIED or FAILURE for decision-shaped entries.
	Result string `json:"result,omitempty"`

	// Reason explains a denial or escalation.
	Reason string `json:"reason,omitempty"`

	// Error carries the error message of a failed action.
	Error string `json:"error,omitempty"`

	// RequestID links the entry to the originating HTTP request.
	RequestID string `json:"request_id,omitempty"`

	// Reference names a related entry's ID; corrections are new entries
	// referencing the original, never in-place edits.
	Reference string `json:"reference,omitempty"`

	// Permission is the permission string evaluated, when applicable.
	Permission string `json:"permission,omitempty"`

	// OldRole and NewRole are set on role change entries.
	OldRole models.Role `json:"old_role,omitempty"`
	NewRole models.Role `json:"new_role,omitempty"`

	// Count and Window describe a suspicious-activity threshold crossing.
	Count  int    `json:"count,omitempty"`
	Window string `json:"window,omitempty"`

	// Extra holds free-form context.
	Extra map[string]interface{} `json:"extra,omitempty"`
}

// Entry is an immutable, append-only audit record. Entries are created
// exclusively through the Service and never mutated; retention cleanup is
// the only deletion path.
type Entry struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Action     string    `json:"action"`
	Resource   string    `json:"resource"`
	ResourceID string    `json:"resource_id,omitempty"`
	Details    Details   `json:"details"`
	IPAddress  string    `json:"ip_address,omitempty"`
	UserAgent  string    `json:"user_agent,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Filter selects entries for queries and exports.
type Filter struct {
	// UserID filters by acting user.
	UserID string `json:"user_id,omitempty"`

	// Actions filters by exact action names.
	Actions []string `json:"actions,omitempty"`

	// ActionPrefix filters by dotted-namespace prefix, e.g. "security.".
	ActionPrefix string `json:"action_prefix,omitempty"`

	// Resource filters by resource noun.
	Resource string `json:"resource,omitempty"`

	// IPAddress filters by source IP.
	IPAddress string `json:"ip_address,omitempty"`

	// Severity filters by the severity recorded in details.
	Severity Severity `json:"severity,omitempty"`

	// Since/Until bound CreatedAt (inclusive since, exclusive until).
	Since *time.Time `json:"since,omitempty"`
	Until *time.Time `json:"until,omitempty"`

	// Limit and Offset paginate. Limit 0 means no limit.
	Limit  int `json:"limit,omitempty"`
	Offset int `json:"offset,omitempty"`
}

// Matches reports whether an entry satisfies every filter criterion.
// Limit and Offset are ignored here; stores apply them after matching.
func (f *Filter) Matches(e *Entry) bool {
	if f.UserID != "" && e.UserID != f.UserID {
		return false
	}
	if len(f.Actions) > 0 {
		found := false
		for _, a := range f.Actions {
			if e.Action == a {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	if f.ActionPrefix != "" && !hasPrefix(e.Action, f.ActionPrefix) {
		return false
	}
	if f.Resource != "" && e.Resource != f.Resource {
		return false
	}
	if f.IPAddress != "" && e.IPAddress != f.IPAddress {
		return false
	}
	if f.Severity != "" && e.Details.Severity != f.Severity {
		return false
	}
	if f.Since != nil && e.CreatedAt.Before(*f.Since) {
		return false
	}
	if f.Until != nil && !e.CreatedAt.Before(*f.Until) {
		return false
	}
	return true
}

func hasPrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && s[:len(prefix)] == prefix
}

// Store is the append-only persistence collaborator for audit entries.
type Store interface {
	// Create persists an entry. Entries are never updated.
	Create(ctx context.Context, entry *Entry) error

	// Query retrieves matching entries, most recent first, honoring
	// Limit/Offset.
	Query(ctx context.Context, filter Filter) ([]Entry, error)

	// Count returns the number of matching entries.
	Count(ctx context.Context, filter Filter) (int64, error)

	// DeleteOlderThan removes entries with CreatedAt strictly before the
	// cutoff and returns the count removed. Deleting nothing is a no-op,
	// not an error.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Alert is the structured payload handed to notification sinks.
type Alert struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"`
	Severity  Severity               `json:"severity"`
	Message   string                 `json:"message"`
	Timestamp time.Time              `json:"timestamp"`
	Details   map[string]interface{} `json:"details,omitempty"`
}

// AlertSink receives suspicious-activity alerts. Delivery failures must
// be handled by the sink; the audit write path never blocks on them.
type AlertSink interface {
	ProcessAlert(ctx context.Context, alert Alert) error
}
