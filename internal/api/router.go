// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pressgate/pressgate/internal/config"
	"github.com/pressgate/pressgate/internal/rbac"
)

// NewRouter builds the HTTP router: global middleware, the public
// health and metrics endpoints, and the audit/alert admin surface, each
// admin route wrapped with permission validation.
func NewRouter(cfg *config.ServerConfig, mw *Middleware, h *Handlers) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestID())
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           86400,
	}))
	r.Use(httprate.Limit(cfg.RateLimit, cfg.RateWindow,
		httprate.WithKeyFuncs(httprate.KeyByRealIP)))

	r.Get("/api/health", mw.WithPermissions(h.Health, Options{}))
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	auditRead := Options{
		RequireAuth: true,
		Permissions: []rbac.Permission{{Resource: rbac.ResourceAuditLogs, Action: rbac.ActionRead}},
		Resource:    rbac.ResourceAuditLogs,
	}
	auditManage := Options{
		RequireAuth: true,
		Permissions: []rbac.Permission{{Resource: rbac.ResourceAuditLogs, Action: rbac.ActionManage}},
		Resource:    rbac.ResourceAuditLogs,
	}

	r.Route("/api/audit", func(r chi.Router) {
		r.Get("/logs", mw.WithPermissions(h.AuditLogs, auditRead))
		r.Get("/stats", mw.WithPermissions(h.AuditStats, auditRead))
		r.Get("/users/{userID}/activity", mw.WithPermissions(h.UserActivity, auditRead))
		r.Get("/security-summary", mw.WithPermissions(h.SecuritySummary, auditRead))
		r.Get("/compliance-report", mw.WithPermissions(h.ComplianceReport, auditRead))
		r.Get("/integrity", mw.WithPermissions(h.AuditIntegrity, auditManage))
		r.Get("/export", mw.WithPermissions(h.ExportAuditLogs, auditManage))
		r.Post("/cleanup", mw.WithPermissions(h.AuditCleanup, auditManage))
	})

	alertsRead := Options{
		RequireAuth: true,
		Permissions: []rbac.Permission{{Resource: rbac.ResourceAlerts, Action: rbac.ActionRead}},
		Resource:    rbac.ResourceAlerts,
	}
	alertsManage := Options{
		RequireAuth: true,
		Permissions: []rbac.Permission{{Resource: rbac.ResourceAlerts, Action: rbac.ActionManage}},
		Resource:    rbac.ResourceAlerts,
	}

	r.Route("/api/alerts/rules", func(r chi.Router) {
		r.Get("/", mw.WithPermissions(h.ListAlertRules, alertsRead))
		r.Post("/", mw.WithPermissions(h.CreateAlertRule, alertsManage))
		r.Put("/{ruleID}", mw.WithPermissions(h.UpdateAlertRule, alertsManage))
		r.Delete("/{ruleID}", mw.WithPermissions(h.DeleteAlertRule, alertsManage))
	})

	return r
}
