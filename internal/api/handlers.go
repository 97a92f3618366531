// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/pressgate/pressgate/internal/alerting"
	"github.com/pressgate/pressgate/internal/audit"
)

// Handlers holds the admin surface handlers and their collaborators.
type Handlers struct {
	audit  *audit.Service
	alerts *alerting.Manager
}

// NewHandlers creates the handler set.
func NewHandlers(auditSvc *audit.Service, alerts *alerting.Manager) *Handlers {
	return &Handlers{audit: auditSvc, alerts: alerts}
}

// getIntParam extracts an integer query parameter with a default.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}

// getDurationParam extracts a duration query parameter with a default.
// Accepts Go duration syntax ("24h", "30m").
func getDurationParam(r *http.Request, key string, defaultValue time.Duration) time.Duration {
	value := r.URL.Query().Get(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}

// getTimeParam extracts an RFC3339 timestamp query parameter.
func getTimeParam(r *http.Request, key string) (time.Time, bool) {
	value := r.URL.Query().Get(key)
	if value == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
