// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package rbac

import (
	"context"
	"fmt"

	"github.com/pressgate/pressgate/internal/models"
)

// OwnershipStore is the persistence collaborator for ownership checks.
// Implementations fetch the target resource by ID and expose its owner
// field.
type OwnershipStore interface {
	// FindOwner returns the value of the named owner field for the given
	// resource instance. The second return is false when the resource does
	// not exist; that is not an error.
	FindOwner(ctx context.Context, resource, resourceID, ownerField string) (string, bool, error)
}

// DefaultOwnerField is the owner column consulted when callers do not
// name one.
const DefaultOwnerField = "created_by"

// Service evaluates permissions for users. Permission evaluation itself
// is pure; only ownership checks touch storage. Callers are responsible
// for audit logging.
type Service struct {
	owners OwnershipStore
}

// NewService creates a permission service. owners may be nil if no
// own-scoped resources are checked.
func NewService(owners OwnershipStore) *Service {
	return &Service{owners: owners}
}

// HasPermission is the core decision primitive.
//
// Algorithm:
//  1. ADMIN satisfies everything immediately.
//  2. Any grant matching resource (exact or "*"), action (exact or
//     "manage") and scope (all, or equal to the requested scope) grants.
//  3. Otherwise deny. Unknown resource or action strings deny rather
//     than error.
func (s *Service) HasPermission(user *models.User, p Permission) bool {
	if user == nil {
		return false
	}
	return RoleSatisfies(user.Role, p)
}

// AllowsOwn reports whether the user's role grants the permission when
// narrowed to own scope. Used to decide whether an ownership fallback is
// worth attempting after an all-scoped denial.
func (s *Service) AllowsOwn(user *models.User, p Permission) bool {
	if user == nil {
		return false
	}
	p.Scope = ScopeOwn
	return RoleSatisfies(user.Role, p)
}

// CheckOwnerAccess verifies that the user owns the target resource by
// fetching it and comparing its owner field to the user's ID. A missing
// resource is never ownable: the check returns false, not an error.
func (s *Service) CheckOwnerAccess(ctx context.Context, user *models.User, resource, resourceID, ownerField string) (bool, error) {
	if user == nil || resourceID == "" {
		return false, nil
	}
	if s.owners == nil {
		return false, nil
	}
	if ownerField == "" {
		ownerField = DefaultOwnerField
	}

	owner, found, err := s.owners.FindOwner(ctx, resource, resourceID, ownerField)
	if err != nil {
		return false, fmt.Errorf("ownership lookup for %s/%s: %w", resource, resourceID, err)
	}
	if !found {
		return false, nil
	}

	return owner == user.ID, nil
}
