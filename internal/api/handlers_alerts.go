// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/pressgate/pressgate/internal/alerting"
	"github.com/pressgate/pressgate/internal/audit"
	"github.com/pressgate/pressgate/internal/models"
	"github.com/pressgate/pressgate/internal/validation"
)

// alertRuleRequest is the create/update payload for an alert rule.
type alertRuleRequest struct {
	Name            string `json:"name" validate:"required,min=1,max=200"`
	Condition       string `json:"condition" validate:"required,min=1,max=200"`
	Severity        string `json:"severity" validate:"omitempty,oneof=low medium high critical"`
	Enabled         bool   `json:"enabled"`
	CooldownMinutes int    `json:"cooldown_minutes" validate:"gte=0,lte=10080"`
}

// ListAlertRules returns the current alert rule set.
func (h *Handlers) ListAlertRules(w http.ResponseWriter, r *http.Request, _ *models.User) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"rules": h.alerts.Rules(),
	})
}

// CreateAlertRule adds a rule and returns it with its generated ID.
func (h *Handlers) CreateAlertRule(w http.ResponseWriter, r *http.Request, user *models.User) {
	req, ok := decodeRuleRequest(w, r)
	if !ok {
		return
	}

	id := h.alerts.AddAlertRule(alerting.Rule{
		Name:            req.Name,
		Condition:       req.Condition,
		Severity:        audit.Severity(req.Severity),
		Enabled:         req.Enabled,
		CooldownMinutes: req.CooldownMinutes,
	})

	h.auditRuleChange(r, user, "alert_rule_created", id)
	respondSuccess(w, http.StatusCreated, map[string]interface{}{"id": id})
}

// UpdateAlertRule replaces the mutable fields of an existing rule.
func (h *Handlers) UpdateAlertRule(w http.ResponseWriter, r *http.Request, user *models.User) {
	id := chi.URLParam(r, "ruleID")
	req, ok := decodeRuleRequest(w, r)
	if !ok {
		return
	}

	err := h.alerts.UpdateAlertRule(id, alerting.Rule{
		Name:            req.Name,
		Condition:       req.Condition,
		Severity:        audit.Severity(req.Severity),
		Enabled:         req.Enabled,
		CooldownMinutes: req.CooldownMinutes,
	})
	if err != nil {
		if errors.Is(err, alerting.ErrRuleNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "Alert rule not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to update alert rule", err)
		return
	}

	h.auditRuleChange(r, user, "alert_rule_updated", id)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id})
}

// DeleteAlertRule removes a rule.
func (h *Handlers) DeleteAlertRule(w http.ResponseWriter, r *http.Request, user *models.User) {
	id := chi.URLParam(r, "ruleID")

	if err := h.alerts.RemoveAlertRule(id); err != nil {
		if errors.Is(err, alerting.ErrRuleNotFound) {
			respondError(w, http.StatusNotFound, CodeNotFound, "Alert rule not found", nil)
			return
		}
		respondError(w, http.StatusInternalServerError, CodeInternalError, "Failed to delete alert rule", err)
		return
	}

	h.auditRuleChange(r, user, "alert_rule_deleted", id)
	respondSuccess(w, http.StatusOK, map[string]interface{}{"id": id})
}

func decodeRuleRequest(w http.ResponseWriter, r *http.Request) (*alertRuleRequest, bool) {
	var req alertRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, CodeValidationError, "Invalid JSON body", nil)
		return nil, false
	}
	if verr := validation.ValidateStruct(&req); verr != nil {
		respondAPIError(w, http.StatusBadRequest, &models.APIError{
			Code:    CodeValidationError,
			Message: verr.Error(),
			Details: verr.Details(),
		})
		return nil, false
	}
	return &req, true
}

func (h *Handlers) auditRuleChange(r *http.Request, user *models.User, change, ruleID string) {
	_ = h.audit.LogSystem(r.Context(), audit.ActionSystemConfigChange, audit.Details{
		Severity: audit.SeverityLow,
		Result:   audit.ResultSuccess,
		Extra: map[string]interface{}{
			"change":     change,
			"rule_id":    ruleID,
			"changed_by": user.ID,
		},
	})
}
