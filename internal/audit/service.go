// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

/*
service.go - Audit Service

The single write entrypoint for the audit trail. Every security-relevant
action flows through Log, which sanitizes details, persists the entry and
runs the suspicious-activity heuristics inline.

Suspicious-activity detection (three independent heuristics, all
evaluated on every Log call):
  - Repeated auth failures: >=5 auth.login_failed for a user in 1 hour
  - IP fan-out: >=3 distinct source IPs for a user in 1 hour
  - Burst rate: >=20 entries for a user in 5 minutes

A heuristic that is over threshold emits a security.suspicious_activity
entry unless it already alerted for that user inside its window, so a
sustained attack produces one alert per window, not one per request.
Running the heuristics inline adds three queries to every audited write;
moving them to a queue is possible but changes alerting to best-effort.
*/

package audit

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/pressgate/pressgate/internal/logging"
	"github.com/pressgate/pressgate/internal/models"
)

// Suspicious-activity thresholds and windows.
const (
	failedLoginThreshold = 5
	failedLoginWindow    = time.Hour

	distinctIPThreshold = 3
	distinctIPWindow    = time.Hour

	burstThreshold = 20
	burstWindow    = 5 * time.Minute
)

// Heuristic names recorded in suspicious-activity entries and alerts.
const (
	HeuristicFailedLogins = "repeated_auth_failures"
	HeuristicIPFanOut     = "ip_fan_out"
	HeuristicBurstRate    = "burst_rate"
)

// ErrMissingAction is returned when an entry has no action.
var ErrMissingAction = errors.New("audit entry requires an action")

// Config holds audit service configuration.
type Config struct {
	// Enabled controls whether audit logging is active.
	Enabled bool

	// RetentionDays is how long entries are kept (1-3650).
	RetentionDays int

	// ExportLimit caps the number of entries a single export serializes.
	ExportLimit int
}

// DefaultConfig returns production defaults.
func DefaultConfig() *Config {
	return &Config{
		Enabled:       true,
		RetentionDays: 365,
		ExportLimit:   10000,
	}
}

// Service is the audit logging service.
type Service struct {
	store  Store
	alerts AlertSink
	config *Config
	nowFn  func() time.Time
}

// NewService creates an audit service. alerts may be nil, in which case
// suspicious activity is recorded but not delivered anywhere.
func NewService(store Store, alerts AlertSink, config *Config) *Service {
	if config == nil {
		config = DefaultConfig()
	}
	if config.RetentionDays < 1 {
		config.RetentionDays = 1
	}
	if config.RetentionDays > 3650 {
		config.RetentionDays = 3650
	}
	if config.ExportLimit <= 0 {
		config.ExportLimit = 10000
	}

	return &Service{
		store:  store,
		alerts: alerts,
		config: config,
		nowFn:  time.Now,
	}
}

// Log validates, sanitizes and persists an entry, then runs the
// suspicious-activity heuristics for the acting user. The heuristics and
// alert delivery never fail the write; a persistence error is returned so
// callers can surface it to operational logging, but callers must not let
// it flip an authorization decision.
func (s *Service) Log(ctx context.Context, entry *Entry) error {
	if !s.config.Enabled {
		return nil
	}
	if entry.Action == "" {
		return ErrMissingAction
	}

	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.nowFn().UTC()
	}
	if entry.Details.Severity == "" {
		entry.Details.Severity = SeverityLow
	}
	if entry.Details.RequestID == "" {
		entry.Details.RequestID = logging.RequestIDFromContext(ctx)
	}
	sanitizeExtra(entry.Details.Extra)

	if err := s.store.Create(ctx, entry); err != nil {
		return fmt.Errorf("persist audit entry: %w", err)
	}

	s.checkSuspiciousActivity(ctx, entry.UserID, entry.Action, entry.IPAddress)
	return nil
}

// sanitizeExtra strips known-sensitive keys from free-form details before
// persistence.
func sanitizeExtra(extra map[string]interface{}) {
	for k := range extra {
		if logging.IsSensitiveKey(k) {
			delete(extra, k)
		}
	}
}

// checkSuspiciousActivity runs the three heuristics. All three are
// evaluated on every call; each emits at most one entry per call. Errors
// are logged, never propagated to the caller.
func (s *Service) checkSuspiciousActivity(ctx context.Context, userID, action, ip string) {
	if userID == "" || action == ActionSuspiciousActivity {
		return
	}

	now := s.nowFn().UTC()

	if action == ActionAuthLoginFailed {
		s.checkFailedLogins(ctx, userID, ip, now)
	}
	s.checkIPFanOut(ctx, userID, ip, now)
	s.checkBurstRate(ctx, userID, ip, now)
}

func (s *Service) checkFailedLogins(ctx context.Context, userID, ip string, now time.Time) {
	since := now.Add(-failedLoginWindow)
	count, err := s.store.Count(ctx, Filter{
		UserID:  userID,
		Actions: []string{ActionAuthLoginFailed},
		Since:   &since,
	})
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("Failed-login heuristic query failed")
		return
	}
	if count < failedLoginThreshold {
		return
	}
	if s.alreadyAlerted(ctx, userID, HeuristicFailedLogins, since) {
		return
	}

	severity := SeverityHigh
	if count >= 2*failedLoginThreshold {
		severity = SeverityCritical
	}
	s.emitSuspicious(ctx, userID, ip, HeuristicFailedLogins, severity, int(count), failedLoginWindow,
		fmt.Sprintf("%d failed login attempts within %s", count, failedLoginWindow))
}

func (s *Service) checkIPFanOut(ctx context.Context, userID, ip string, now time.Time) {
	since := now.Add(-distinctIPWindow)
	entries, err := s.store.Query(ctx, Filter{UserID: userID, Since: &since})
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("IP fan-out heuristic query failed")
		return
	}

	ips := make(map[string]struct{})
	for i := range entries {
		if entries[i].IPAddress != "" {
			ips[entries[i].IPAddress] = struct{}{}
		}
	}
	if len(ips) < distinctIPThreshold {
		return
	}
	if s.alreadyAlerted(ctx, userID, HeuristicIPFanOut, since) {
		return
	}

	severity := SeverityMedium
	if len(ips) >= 2*distinctIPThreshold {
		severity = SeverityHigh
	}
	s.emitSuspicious(ctx, userID, ip, HeuristicIPFanOut, severity, len(ips), distinctIPWindow,
		fmt.Sprintf("activity from %d distinct IP addresses within %s", len(ips), distinctIPWindow))
}

func (s *Service) checkBurstRate(ctx context.Context, userID, ip string, now time.Time) {
	since := now.Add(-burstWindow)
	count, err := s.store.Count(ctx, Filter{UserID: userID, Since: &since})
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("Burst-rate heuristic query failed")
		return
	}
	if count < burstThreshold {
		return
	}
	if s.alreadyAlerted(ctx, userID, HeuristicBurstRate, since) {
		return
	}

	severity := SeverityMedium
	if count >= 2*burstThreshold {
		severity = SeverityHigh
	}
	s.emitSuspicious(ctx, userID, ip, HeuristicBurstRate, severity, int(count), burstWindow,
		fmt.Sprintf("%d audit entries within %s", count, burstWindow))
}

// alreadyAlerted reports whether the heuristic already fired for this
// user inside the current window.
func (s *Service) alreadyAlerted(ctx context.Context, userID, heuristic string, since time.Time) bool {
	prior, err := s.store.Query(ctx, Filter{
		UserID:  userID,
		Actions: []string{ActionSuspiciousActivity},
		Since:   &since,
		Limit:   20,
	})
	if err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("Suspicious-activity dedup query failed")
		return false
	}
	for i := range prior {
		if h, ok := prior[i].Details.Extra["heuristic"].(string); ok && h == heuristic {
			return true
		}
	}
	return false
}

// emitSuspicious records a suspicious-activity entry directly into the
// store (bypassing Log so the alert cannot re-trigger the heuristics)
// and hands an alert to the sink. Sink failures are logged, never
// propagated.
func (s *Service) emitSuspicious(ctx context.Context, userID, ip, heuristic string, severity Severity, count int, window time.Duration, reason string) {
	entry := &Entry{
		ID:        uuid.New().String(),
		UserID:    userID,
		Action:    ActionSuspiciousActivity,
		Resource:  "security",
		IPAddress: ip,
		CreatedAt: s.nowFn().UTC(),
		Details: Details{
			Severity: severity,
			Reason:   reason,
			Count:    count,
			Window:   window.String(),
			Extra:    map[string]interface{}{"heuristic": heuristic},
		},
	}

	if err := s.store.Create(ctx, entry); err != nil {
		logging.Error().Err(err).Str("user_id", userID).Msg("Failed to persist suspicious-activity entry")
		return
	}

	ctxLogger := logging.Ctx(ctx)
	ctxLogger.Warn().
		Str("user_id", userID).
		Str("heuristic", heuristic).
		Str("severity", string(severity)).
		Int("count", count).
		Msg("Suspicious activity detected")

	if s.alerts == nil {
		return
	}
	alert := Alert{
		ID:        entry.ID,
		Type:      heuristic,
		Severity:  severity,
		Message:   reason,
		Timestamp: entry.CreatedAt,
		Details: map[string]interface{}{
			"user_id": userID,
			"count":   count,
			"window":  window.String(),
		},
	}
	if err := s.alerts.ProcessAlert(ctx, alert); err != nil {
		logging.Error().Err(err).Str("alert_id", alert.ID).Msg("Alert delivery failed")
	}
}

// IsRoleEscalation reports whether a role change raises privileges.
func IsRoleEscalation(oldRole, newRole models.Role) bool {
	return newRole.Rank() > oldRole.Rank()
}

// Convenience loggers. Each sets an appropriate default severity and
// resource; denial and escalation cases additionally produce a linked
// security.* entry.

// LogAuth records an authentication event (login, login_failed, logout).
func (s *Service) LogAuth(ctx context.Context, userID, action, ip, userAgent, errMsg string) error {
	details := Details{Severity: SeverityLow, Result: ResultSuccess}
	if action == ActionAuthLoginFailed || action == ActionAuthTokenError {
		details.Severity = SeverityMedium
		details.Result = ResultFailure
		details.Error = errMsg
	}

	return s.Log(ctx, &Entry{
		UserID:    userID,
		Action:    action,
		Resource:  "auth",
		IPAddress: ip,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogUser records a user-management event against a target user.
func (s *Service) LogUser(ctx context.Context, actorID, action, targetUserID string, extra map[string]interface{}) error {
	return s.Log(ctx, &Entry{
		UserID:     actorID,
		Action:     action,
		Resource:   "users",
		ResourceID: targetUserID,
		Details:    Details{Severity: SeverityLow, Result: ResultSuccess, Extra: extra},
	})
}

// LogSecurity records a security event with an explicit severity.
func (s *Service) LogSecurity(ctx context.Context, userID, action, resource, reason string, severity Severity, ip, userAgent string) error {
	return s.Log(ctx, &Entry{
		UserID:    userID,
		Action:    action,
		Resource:  resource,
		IPAddress: ip,
		UserAgent: userAgent,
		Details:   Details{Severity: severity, Result: ResultDenied, Reason: reason},
	})
}

// LogSystem records an event performed by the system itself.
func (s *Service) LogSystem(ctx context.Context, action string, details Details) error {
	if details.Severity == "" {
		details.Severity = SeverityLow
	}
	return s.Log(ctx, &Entry{
		UserID:   "system",
		Action:   action,
		Resource: "system",
		Details:  details,
	})
}

// LogPermissionCheck records a permission evaluation outcome. Denials are
// recorded as security.permission_check_denied at medium severity.
func (s *Service) LogPermissionCheck(ctx context.Context, userID, permission string, granted bool, ip, userAgent string) error {
	entry := &Entry{
		UserID:    userID,
		Action:    ActionPermissionCheck,
		Resource:  "security",
		IPAddress: ip,
		UserAgent: userAgent,
		Details: Details{
			Severity:   SeverityLow,
			Result:     ResultSuccess,
			Permission: permission,
		},
	}
	if !granted {
		entry.Action = ActionPermissionCheckDenied
		entry.Details.Severity = SeverityMedium
		entry.Details.Result = ResultDenied
		entry.Details.Reason = "insufficient permission"
	}
	return s.Log(ctx, entry)
}

// LogResourceAccess records an API access decision (the per-request
// api.access entry emitted by the permission middleware).
func (s *Service) LogResourceAccess(ctx context.Context, userID, resource, resourceID, result, reason, ip, userAgent string) error {
	severity := SeverityLow
	if result != ResultSuccess {
		severity = SeverityMedium
	}
	return s.Log(ctx, &Entry{
		UserID:     userID,
		Action:     ActionAPIAccess,
		Resource:   resource,
		ResourceID: resourceID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Details:    Details{Severity: severity, Result: result, Reason: reason},
	})
}

// LogRoleChange records a role change; escalations additionally emit a
// suspicious-activity entry attributed to the actor who performed the
// change.
func (s *Service) LogRoleChange(ctx context.Context, actorID, targetUserID string, oldRole, newRole models.Role, ip, userAgent string) error {
	entry := &Entry{
		UserID:     actorID,
		Action:     ActionUserRoleChange,
		Resource:   "users",
		ResourceID: targetUserID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		Details: Details{
			Severity: SeverityMedium,
			Result:   ResultSuccess,
			OldRole:  oldRole,
			NewRole:  newRole,
		},
	}
	if err := s.Log(ctx, entry); err != nil {
		return err
	}

	if !IsRoleEscalation(oldRole, newRole) {
		return nil
	}

	escalation := &Entry{
		ID:         uuid.New().String(),
		UserID:     actorID,
		Action:     ActionSuspiciousActivity,
		Resource:   "users",
		ResourceID: targetUserID,
		IPAddress:  ip,
		UserAgent:  userAgent,
		CreatedAt:  s.nowFn().UTC(),
		Details: Details{
			Severity:  SeverityHigh,
			Reason:    fmt.Sprintf("role escalation from %s to %s", oldRole, newRole),
			OldRole:   oldRole,
			NewRole:   newRole,
			Reference: entry.ID,
			Extra:     map[string]interface{}{"heuristic": "role_escalation"},
		},
	}
	if err := s.store.Create(ctx, escalation); err != nil {
		return fmt.Errorf("persist escalation entry: %w", err)
	}
	return nil
}

// Query surface.

// GetLogs returns a filtered page of entries plus the total match count.
func (s *Service) GetLogs(ctx context.Context, filter Filter) ([]Entry, int64, error) {
	if filter.Limit <= 0 || filter.Limit > 1000 {
		filter.Limit = 100
	}
	entries, err := s.store.Query(ctx, filter)
	if err != nil {
		return nil, 0, err
	}

	countFilter := filter
	countFilter.Limit = 0
	countFilter.Offset = 0
	total, err := s.store.Count(ctx, countFilter)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// Stats aggregates counts over a trailing window.
type Stats struct {
	Total       int64            `json:"total"`
	ByAction    map[string]int64 `json:"by_action"`
	ByResource  map[string]int64 `json:"by_resource"`
	BySeverity  map[string]int64 `json:"by_severity"`
	WindowStart time.Time        `json:"window_start"`
	WindowEnd   time.Time        `json:"window_end"`
}

// GetStats aggregates entry counts by action, resource and severity over
// the trailing window.
func (s *Service) GetStats(ctx context.Context, window time.Duration) (*Stats, error) {
	now := s.nowFn().UTC()
	since := now.Add(-window)

	entries, err := s.store.Query(ctx, Filter{Since: &since})
	if err != nil {
		return nil, err
	}

	stats := &Stats{
		ByAction:    make(map[string]int64),
		ByResource:  make(map[string]int64),
		BySeverity:  make(map[string]int64),
		WindowStart: since,
		WindowEnd:   now,
	}
	for i := range entries {
		e := &entries[i]
		stats.Total++
		stats.ByAction[e.Action]++
		if e.Resource != "" {
			stats.ByResource[e.Resource]++
		}
		stats.BySeverity[string(e.Details.Severity)]++
	}
	return stats, nil
}

// GetUserActivity returns a user's recent entries, most recent first.
func (s *Service) GetUserActivity(ctx context.Context, userID string, limit int) ([]Entry, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	return s.store.Query(ctx, Filter{UserID: userID, Limit: limit})
}

// ThreatCount pairs a threat type with its occurrence count.
type ThreatCount struct {
	Type  string `json:"type"`
	Count int64  `json:"count"`
}

// SecuritySummary summarizes security.* incidents over a window.
type SecuritySummary struct {
	Total         int64         `json:"total"`
	CriticalCount int64         `json:"critical_count"`
	TopThreats    []ThreatCount `json:"top_threats"`
	AffectedUsers []string      `json:"affected_users"`
	WindowStart   time.Time     `json:"window_start"`
	WindowEnd     time.Time     `json:"window_end"`
}

// SecurityIncidentSummary reports top threat types, affected users and
// the critical count for security.* entries in the trailing window.
func (s *Service) SecurityIncidentSummary(ctx context.Context, window time.Duration) (*SecuritySummary, error) {
	now := s.nowFn().UTC()
	since := now.Add(-window)

	entries, err := s.store.Query(ctx, Filter{ActionPrefix: SecurityActionPrefix, Since: &since})
	if err != nil {
		return nil, err
	}

	byType := make(map[string]int64)
	users := make(map[string]struct{})
	summary := &SecuritySummary{WindowStart: since, WindowEnd: now}

	for i := range entries {
		e := &entries[i]
		summary.Total++
		byType[e.Action]++
		if e.UserID != "" && e.UserID != "system" {
			users[e.UserID] = struct{}{}
		}
		if e.Details.Severity == SeverityCritical {
			summary.CriticalCount++
		}
	}

	for t, c := range byType {
		summary.TopThreats = append(summary.TopThreats, ThreatCount{Type: t, Count: c})
	}
	sort.Slice(summary.TopThreats, func(i, j int) bool {
		if summary.TopThreats[i].Count != summary.TopThreats[j].Count {
			return summary.TopThreats[i].Count > summary.TopThreats[j].Count
		}
		return summary.TopThreats[i].Type < summary.TopThreats[j].Type
	})

	summary.AffectedUsers = make([]string, 0, len(users))
	for u := range users {
		summary.AffectedUsers = append(summary.AffectedUsers, u)
	}
	sort.Strings(summary.AffectedUsers)

	return summary, nil
}

// ComplianceReport covers a date range for compliance handoff.
type ComplianceReport struct {
	From          time.Time        `json:"from"`
	To            time.Time        `json:"to"`
	Total         int64            `json:"total"`
	Failures      int64            `json:"failures"`
	CriticalCount int64            `json:"critical_count"`
	ByAction      map[string]int64 `json:"by_action"`
	GeneratedAt   time.Time        `json:"generated_at"`
}

// GenerateComplianceReport summarizes the audit trail for a date range.
func (s *Service) GenerateComplianceReport(ctx context.Context, from, to time.Time) (*ComplianceReport, error) {
	entries, err := s.store.Query(ctx, Filter{Since: &from, Until: &to})
	if err != nil {
		return nil, err
	}

	report := &ComplianceReport{
		From:        from,
		To:          to,
		ByAction:    make(map[string]int64),
		GeneratedAt: s.nowFn().UTC(),
	}
	for i := range entries {
		e := &entries[i]
		report.Total++
		report.ByAction[e.Action]++
		if e.Details.Result == ResultDenied || e.Details.Result == ResultFailure {
			report.Failures++
		}
		if e.Details.Severity == SeverityCritical {
			report.CriticalCount++
		}
	}
	return report, nil
}

// IntegrityIssue describes a structurally invalid entry.
type IntegrityIssue struct {
	EntryID string `json:"entry_id"`
	Problem string `json:"problem"`
}

// IntegrityReport is the result of an integrity scan. The scan reports
// problems without mutating any data.
type IntegrityReport struct {
	From    time.Time        `json:"from"`
	To      time.Time        `json:"to"`
	Scanned int64            `json:"scanned"`
	Issues  []IntegrityIssue `json:"issues"`
}

// ValidateIntegrity scans a date range for structurally invalid entries:
// missing action, dangling user reference, or a failed action without an
// error message.
func (s *Service) ValidateIntegrity(ctx context.Context, from, to time.Time) (*IntegrityReport, error) {
	entries, err := s.store.Query(ctx, Filter{Since: &from, Until: &to})
	if err != nil {
		return nil, err
	}

	report := &IntegrityReport{From: from, To: to}
	for i := range entries {
		e := &entries[i]
		report.Scanned++

		if e.Action == "" {
			report.Issues = append(report.Issues, IntegrityIssue{EntryID: e.ID, Problem: "missing action"})
		}
		if e.UserID == "" {
			report.Issues = append(report.Issues, IntegrityIssue{EntryID: e.ID, Problem: "dangling user reference"})
		}
		if e.Details.Result == ResultFailure && e.Details.Error == "" && e.Details.Reason == "" {
			report.Issues = append(report.Issues, IntegrityIssue{EntryID: e.ID, Problem: "failed action without error message"})
		}
	}
	return report, nil
}

// Cleanup deletes entries older than the configured retention window and
// returns the count removed. Idempotent: a second run against the same
// data deletes nothing.
func (s *Service) Cleanup(ctx context.Context) (int64, error) {
	cutoff := s.nowFn().UTC().AddDate(0, 0, -s.config.RetentionDays)
	deleted, err := s.store.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("retention cleanup: %w", err)
	}
	if deleted > 0 {
		logging.Info().Int64("deleted", deleted).Time("cutoff", cutoff).Msg("Audit retention cleanup finished")
	}
	return deleted, nil
}

// RetentionDays returns the configured retention window in days.
func (s *Service) RetentionDays() int {
	return s.config.RetentionDays
}
