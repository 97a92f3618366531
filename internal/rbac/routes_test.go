// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package rbac

import (
	"net/http"
	"testing"
)

func TestIsPublicRoute(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"/api/health", true},
		{"/api/health/live", true},
		{"/api/auth/login", true},
		{"/api/auth/refresh", true},
		{"/metrics", true},
		{"/api/healthcheck", false},
		{"/api/products", false},
		{"/api/auth/logout", false},
		{"/", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := IsPublicRoute(tt.path); got != tt.want {
				t.Errorf("IsPublicRoute(%q) = %v, want %v", tt.path, got, tt.want)
			}
		})
	}
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		method string
		want   []Permission
	}{
		{
			name:   "products get",
			path:   "/api/products",
			method: http.MethodGet,
			want:   []Permission{{Resource: ResourceProducts, Action: ActionRead}},
		},
		{
			name:   "products post",
			path:   "/api/products",
			method: http.MethodPost,
			want:   []Permission{{Resource: ResourceProducts, Action: ActionCreate}},
		},
		{
			name:   "products subpath inherits prefix rule",
			path:   "/api/products/42",
			method: http.MethodDelete,
			want:   []Permission{{Resource: ResourceProducts, Action: ActionDelete}},
		},
		{
			name:   "audit get",
			path:   "/api/audit/logs",
			method: http.MethodGet,
			want:   []Permission{{Resource: ResourceAuditLogs, Action: ActionRead}},
		},
		{
			name:   "audit post requires manage",
			path:   "/api/audit/cleanup",
			method: http.MethodPost,
			want:   []Permission{{Resource: ResourceAuditLogs, Action: ActionManage}},
		},
		{
			name:   "unmatched path is authenticated-only",
			path:   "/api/unknown",
			method: http.MethodGet,
			want:   nil,
		},
		{
			name:   "unmatched method on matched prefix is authenticated-only",
			path:   "/api/analytics",
			method: http.MethodDelete,
			want:   nil,
		},
		{
			name:   "prefix must align on segment boundary",
			path:   "/api/productsearch",
			method: http.MethodGet,
			want:   nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Resolve(tt.path, tt.method)
			if len(got) != len(tt.want) {
				t.Fatalf("Resolve(%q, %s) = %v, want %v", tt.path, tt.method, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Resolve(%q, %s)[%d] = %v, want %v", tt.path, tt.method, i, got[i], tt.want[i])
				}
			}
		})
	}
}

// Longer prefixes must win over shorter ones so a generic rule cannot
// mask a more specific one, regardless of table order.
func TestResolveLongestPrefixWins(t *testing.T) {
	saved := routeTable
	defer func() { routeTable = saved }()

	routeTable = []routeRule{
		{
			prefix: "/api/content",
			methods: map[string][]Permission{
				http.MethodGet: {{Resource: ResourcePages, Action: ActionRead}},
			},
		},
		{
			prefix: "/api/content/admin",
			methods: map[string][]Permission{
				http.MethodGet: {{Resource: ResourceSettings, Action: ActionManage}},
			},
		},
	}

	got := Resolve("/api/content/admin/flags", http.MethodGet)
	if len(got) != 1 || got[0].Resource != ResourceSettings {
		t.Fatalf("expected the more specific rule to win, got %v", got)
	}

	got = Resolve("/api/content/pages", http.MethodGet)
	if len(got) != 1 || got[0].Resource != ResourcePages {
		t.Fatalf("expected the generic rule for the shorter path, got %v", got)
	}
}
