// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package rbac

import (
	"net/http"
	"strings"
)

// routeRule maps a path prefix to the permissions required per HTTP
// method. Longer prefixes take precedence over shorter ones so a generic
// /api rule never masks a more specific /api/admin rule.
type routeRule struct {
	prefix  string
	methods map[string][]Permission
}

// routeTable is the static route->permission mapping. Order is not
// significant; resolution picks the longest matching prefix that knows
// the method.
var routeTable = []routeRule{
	{
		prefix: "/api/products",
		methods: map[string][]Permission{
			http.MethodGet:    {{Resource: ResourceProducts, Action: ActionRead}},
			http.MethodPost:   {{Resource: ResourceProducts, Action: ActionCreate}},
			http.MethodPut:    {{Resource: ResourceProducts, Action: ActionUpdate}},
			http.MethodPatch:  {{Resource: ResourceProducts, Action: ActionUpdate}},
			http.MethodDelete: {{Resource: ResourceProducts, Action: ActionDelete}},
		},
	},
	{
		prefix: "/api/pages",
		methods: map[string][]Permission{
			http.MethodGet:    {{Resource: ResourcePages, Action: ActionRead}},
			http.MethodPost:   {{Resource: ResourcePages, Action: ActionCreate}},
			http.MethodPut:    {{Resource: ResourcePages, Action: ActionUpdate}},
			http.MethodPatch:  {{Resource: ResourcePages, Action: ActionUpdate}},
			http.MethodDelete: {{Resource: ResourcePages, Action: ActionDelete}},
		},
	},
	{
		prefix: "/api/media",
		methods: map[string][]Permission{
			http.MethodGet:    {{Resource: ResourceMedia, Action: ActionRead}},
			http.MethodPost:   {{Resource: ResourceMedia, Action: ActionCreate}},
			http.MethodDelete: {{Resource: ResourceMedia, Action: ActionDelete}},
		},
	},
	{
		prefix: "/api/analytics",
		methods: map[string][]Permission{
			http.MethodGet: {{Resource: ResourceAnalytics, Action: ActionRead}},
		},
	},
	{
		prefix: "/api/users",
		methods: map[string][]Permission{
			http.MethodGet:    {{Resource: ResourceUsers, Action: ActionRead}},
			http.MethodPost:   {{Resource: ResourceUsers, Action: ActionCreate}},
			http.MethodPut:    {{Resource: ResourceUsers, Action: ActionUpdate}},
			http.MethodDelete: {{Resource: ResourceUsers, Action: ActionDelete}},
		},
	},
	{
		prefix: "/api/settings",
		methods: map[string][]Permission{
			http.MethodGet: {{Resource: ResourceSettings, Action: ActionRead}},
			http.MethodPut: {{Resource: ResourceSettings, Action: ActionUpdate}},
		},
	},
	{
		prefix: "/api/audit",
		methods: map[string][]Permission{
			http.MethodGet:  {{Resource: ResourceAuditLogs, Action: ActionRead}},
			http.MethodPost: {{Resource: ResourceAuditLogs, Action: ActionManage}},
		},
	},
	{
		prefix: "/api/alerts",
		methods: map[string][]Permission{
			http.MethodGet:    {{Resource: ResourceAlerts, Action: ActionRead}},
			http.MethodPost:   {{Resource: ResourceAlerts, Action: ActionManage}},
			http.MethodPut:    {{Resource: ResourceAlerts, Action: ActionManage}},
			http.MethodDelete: {{Resource: ResourceAlerts, Action: ActionManage}},
		},
	},
}

// publicRoutes bypass both authentication and permission checks.
var publicRoutes = []string{
	"/api/health",
	"/api/auth/login",
	"/api/auth/refresh",
	"/metrics",
}

// IsPublicRoute reports whether a path is public (unauthenticated).
// Consulted before permission resolution; public routes short-circuit
// the entire authorization pipeline.
func IsPublicRoute(path string) bool {
	for _, p := range publicRoutes {
		if path == p || strings.HasPrefix(path, p+"/") {
			return true
		}
	}
	return false
}

// Resolve returns the permissions required to access path with the given
// HTTP method. A nil result means the route has no specific permission
// requirement: authenticated access suffices (safe default for unmatched
// routes).
func Resolve(path, method string) []Permission {
	var (
		best    []Permission
		bestLen = -1
	)

	for i := range routeTable {
		rule := &routeTable[i]
		if !prefixMatches(path, rule.prefix) {
			continue
		}
		perms, ok := rule.methods[method]
		if !ok {
			continue
		}
		// Longest-match-wins tie-break.
		if len(rule.prefix) > bestLen {
			best = perms
			bestLen = len(rule.prefix)
		}
	}

	if best == nil {
		return nil
	}
	out := make([]Permission, len(best))
	copy(out, best)
	return out
}

func prefixMatches(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}
