// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pressgate/pressgate/internal/audit"
	"github.com/pressgate/pressgate/internal/logging"
	"github.com/pressgate/pressgate/internal/models"
)

// AuditLogs returns paginated, filtered audit entries.
//
// Query parameters: user_id, action, action_prefix, resource, ip,
// severity, since, until (RFC3339), limit, offset.
func (h *Handlers) AuditLogs(w http.ResponseWriter, r *http.Request, _ *models.User) {
	q := r.URL.Query()
	filter := audit.Filter{
		UserID:       q.Get("user_id"),
		ActionPrefix: q.Get("action_prefix"),
		Resource:     q.Get("resource"),
		IPAddress:    q.Get("ip"),
		Severity:     audit.Severity(q.Get("severity")),
		Limit:        getIntParam(r, "limit", 100),
		Offset:       getIntParam(r, "offset", 0),
	}
	if action := q.Get("action"); action != "" {
		filter.Actions = []string{action}
	}
	if since, ok := getTimeParam(r, "since"); ok {
		filter.Since = &since
	}
	if until, ok := getTimeParam(r, "until"); ok {
		filter.Until = &until
	}

	entries, total, err := h.audit.GetLogs(r.Context(), filter)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to query audit logs", err)
		return
	}

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"total":   total,
		"limit":   filter.Limit,
		"offset":  filter.Offset,
		"entries": entries,
	})
}

// AuditStats returns aggregate counts over a trailing window
// (default 24h).
func (h *Handlers) AuditStats(w http.ResponseWriter, r *http.Request, _ *models.User) {
	window := getDurationParam(r, "window", 24*time.Hour)

	stats, err := h.audit.GetStats(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to compute audit stats", err)
		return
	}
	respondSuccess(w, http.StatusOK, stats)
}

// UserActivity returns the recent activity timeline for one user.
func (h *Handlers) UserActivity(w http.ResponseWriter, r *http.Request, _ *models.User) {
	userID := chi.URLParam(r, "userID")
	if userID == "" {
		respondError(w, http.StatusBadRequest, CodeValidationError, "userID is required", nil)
		return
	}

	entries, err := h.audit.GetUserActivity(r.Context(), userID, getIntParam(r, "limit", 50))
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to query user activity", err)
		return
	}
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"user_id": userID,
		"entries": entries,
	})
}

// SecuritySummary returns the security incident summary for a trailing
// window (default 7 days).
func (h *Handlers) SecuritySummary(w http.ResponseWriter, r *http.Request, _ *models.User) {
	window := getDurationParam(r, "window", 7*24*time.Hour)

	summary, err := h.audit.SecurityIncidentSummary(r.Context(), window)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to build security summary", err)
		return
	}
	respondSuccess(w, http.StatusOK, summary)
}

// ComplianceReport returns the date-range compliance report. Both from
// and to are required RFC3339 timestamps.
func (h *Handlers) ComplianceReport(w http.ResponseWriter, r *http.Request, _ *models.User) {
	from, okFrom := getTimeParam(r, "from")
	to, okTo := getTimeParam(r, "to")
	if !okFrom || !okTo || !to.After(from) {
		respondError(w, http.StatusBadRequest, CodeValidationError,
			"from and to must be RFC3339 timestamps with to after from", nil)
		return
	}

	report, err := h.audit.GenerateComplianceReport(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to generate compliance report", err)
		return
	}
	respondSuccess(w, http.StatusOK, report)
}

// AuditIntegrity scans a date range for structurally invalid entries
// without mutating data. Defaults to the trailing 30 days.
func (h *Handlers) AuditIntegrity(w http.ResponseWriter, r *http.Request, _ *models.User) {
	to, ok := getTimeParam(r, "to")
	if !ok {
		to = time.Now().UTC()
	}
	from, ok := getTimeParam(r, "from")
	if !ok {
		from = to.Add(-30 * 24 * time.Hour)
	}

	report, err := h.audit.ValidateIntegrity(r.Context(), from, to)
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to validate audit integrity", err)
		return
	}
	respondSuccess(w, http.StatusOK, report)
}

// ExportAuditLogs streams matching entries as JSON or CSV, capped at the
// configured export limit.
func (h *Handlers) ExportAuditLogs(w http.ResponseWriter, r *http.Request, user *models.User) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = audit.FormatJSON
	}

	filter := audit.Filter{
		UserID:       r.URL.Query().Get("user_id"),
		ActionPrefix: r.URL.Query().Get("action_prefix"),
	}
	if since, ok := getTimeParam(r, "since"); ok {
		filter.Since = &since
	}
	if until, ok := getTimeParam(r, "until"); ok {
		filter.Until = &until
	}

	data, err := h.audit.ExportLogs(r.Context(), filter, format)
	if err != nil {
		if err == audit.ErrUnsupportedFormat {
			respondError(w, http.StatusBadRequest, CodeValidationError, "format must be json or csv", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to export audit logs", err)
		return
	}

	if err := h.audit.LogSystem(r.Context(), audit.ActionSystemExport, audit.Details{
		Severity: audit.SeverityLow,
		Result:   audit.ResultSuccess,
		Extra:    map[string]interface{}{"format": format, "requested_by": user.ID},
	}); err != nil {
		logging.Warn().Err(err).Msg("Failed to record export audit entry")
	}

	switch format {
	case audit.FormatCSV:
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-logs.csv"`)
	default:
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", `attachment; filename="audit-logs.json"`)
	}
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write export response")
	}
}

// AuditCleanup deletes entries older than the retention window and
// reports the count removed. Safe to invoke repeatedly.
func (h *Handlers) AuditCleanup(w http.ResponseWriter, r *http.Request, user *models.User) {
	deleted, err := h.audit.Cleanup(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Audit cleanup failed", err)
		return
	}

	ctxLogger := logging.Ctx(r.Context())
	ctxLogger.Info().
		Int64("deleted", deleted).
		Str("requested_by", user.ID).
		Msg("Manual audit cleanup completed")

	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"deleted_count":  deleted,
		"retention_days": h.audit.RetentionDays(),
	})
}
