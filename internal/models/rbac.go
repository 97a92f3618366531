// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

/*
rbac.go - Role and User Models

Roles form a closed enumeration with a numeric privilege rank used for
escalation detection. Adding a role means adding a constant and a rank
entry, not touching call sites.

Role Hierarchy:
  - VIEWER: read-only access
  - EDITOR: content write access, own-scoped destructive operations
  - ADMIN: unrestricted, satisfies every permission
*/

package models

// Role is a user's role in the system.
type Role string

// Role constants define the closed role enumeration.
const (
	RoleViewer Role = "VIEWER"
	RoleEditor Role = "EDITOR"
	RoleAdmin  Role = "ADMIN"
)

// ValidRoles contains all valid roles for validation.
var ValidRoles = []Role{RoleViewer, RoleEditor, RoleAdmin}

// roleRanks maps each role to its privilege rank. Unknown roles rank 0,
// below every valid role.
var roleRanks = map[Role]int{
	RoleViewer: 1,
	RoleEditor: 2,
	RoleAdmin:  3,
}

// IsValidRole checks whether a role belongs to the closed enumeration.
func IsValidRole(role Role) bool {
	_, ok := roleRanks[role]
	return ok
}

// Rank returns the numeric privilege rank of a role. Unknown roles rank 0.
func (r Role) Rank() int {
	return roleRanks[r]
}

// User is the subject of every authorization decision. The core treats it
// as an opaque record owned by the account system; only ID and Role are
// consulted for decisions.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	Role  Role   `json:"role"`
}
