// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

/*
model.go - Permission Model

Static definition of resources, actions, scopes, and the role->permission
grant table. Pure data with total lookup functions: no side effects, no
failure modes. Unknown roles simply have no grants.

Grant matching rules:
  - ADMIN satisfies everything unconditionally.
  - Resource matches exactly or via the "*" wildcard grant.
  - Action matches exactly or via the "manage" grant covering all actions.
  - A grant scoped "all" (or unscoped) covers any requested scope; a grant
    scoped "own" covers only an "own"-scoped request.
*/

package rbac

import "github.com/pressgate/pressgate/internal/models"

// Scope qualifies a permission: "own" restricts it to resources the user
// created, "all" covers every instance of the resource.
type Scope string

// Scope values. An empty scope on a Permission means ScopeAll.
const (
	ScopeOwn Scope = "own"
	ScopeAll Scope = "all"
)

// Resource nouns of the admin domain.
const (
	ResourceProducts  = "products"
	ResourcePages     = "pages"
	ResourceMedia     = "media"
	ResourceUsers     = "users"
	ResourceAnalytics = "analytics"
	ResourceSettings  = "settings"
	ResourceAuditLogs = "audit_logs"
	ResourceAlerts    = "alerts"

	// ResourceAll is the wildcard-admin resource.
	ResourceAll = "*"
)

// Action verbs.
const (
	ActionCreate = "create"
	ActionRead   = "read"
	ActionUpdate = "update"
	ActionDelete = "delete"

	// ActionManage covers every action on a resource.
	ActionManage = "manage"
)

// Permission is an immutable value triple. Scope defaults to "all" when
// empty.
type Permission struct {
	Resource string `json:"resource"`
	Action   string `json:"action"`
	Scope    Scope  `json:"scope,omitempty"`
}

// EffectiveScope returns the scope with the "all" default applied.
func (p Permission) EffectiveScope() Scope {
	if p.Scope == "" {
		return ScopeAll
	}
	return p.Scope
}

// String renders the permission as resource:action[:scope].
func (p Permission) String() string {
	s := p.Resource + ":" + p.Action
	if p.Scope == ScopeOwn {
		s += ":own"
	}
	return s
}

// rolePermissions is the static role->grant table. Changing a role's
// capabilities is a data change here, not a code change across files.
var rolePermissions = map[models.Role][]Permission{
	models.RoleAdmin: {
		{Resource: ResourceAll, Action: ActionManage},
	},
	models.RoleEditor: {
		{Resource: ResourceProducts, Action: ActionCreate},
		{Resource: ResourceProducts, Action: ActionRead},
		{Resource: ResourceProducts, Action: ActionUpdate, Scope: ScopeOwn},
		{Resource: ResourceProducts, Action: ActionDelete, Scope: ScopeOwn},
		{Resource: ResourcePages, Action: ActionCreate},
		{Resource: ResourcePages, Action: ActionRead},
		{Resource: ResourcePages, Action: ActionUpdate, Scope: ScopeOwn},
		{Resource: ResourcePages, Action: ActionDelete, Scope: ScopeOwn},
		{Resource: ResourceMedia, Action: ActionCreate},
		{Resource: ResourceMedia, Action: ActionRead},
		{Resource: ResourceMedia, Action: ActionUpdate, Scope: ScopeOwn},
		{Resource: ResourceMedia, Action: ActionDelete, Scope: ScopeOwn},
		{Resource: ResourceAnalytics, Action: ActionRead},
	},
	models.RoleViewer: {
		{Resource: ResourceProducts, Action: ActionRead},
		{Resource: ResourcePages, Action: ActionRead},
		{Resource: ResourceMedia, Action: ActionRead},
		{Resource: ResourceAnalytics, Action: ActionRead},
	},
}

// GrantsFor returns the permissions granted to a role. Unknown roles get
// an empty set. The returned slice is a copy; callers may not mutate the
// table through it.
func GrantsFor(role models.Role) []Permission {
	grants := rolePermissions[role]
	out := make([]Permission, len(grants))
	copy(out, grants)
	return out
}

// RoleSatisfies reports whether a role's grants cover the requested
// permission. Total over all inputs: unknown roles, resources and actions
// simply deny.
func RoleSatisfies(role models.Role, p Permission) bool {
	if role == models.RoleAdmin {
		return true
	}

	for _, grant := range rolePermissions[role] {
		if grantMatches(grant, p) {
			return true
		}
	}
	return false
}

func grantMatches(grant, requested Permission) bool {
	if grant.Resource != ResourceAll && grant.Resource != requested.Resource {
		return false
	}
	if grant.Action != ActionManage && grant.Action != requested.Action {
		return false
	}

	switch grant.EffectiveScope() {
	case ScopeAll:
		return true
	default:
		return grant.EffectiveScope() == requested.EffectiveScope()
	}
}
