// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/pressgate/pressgate/internal/audit"
	"github.com/pressgate/pressgate/internal/auth"
	"github.com/pressgate/pressgate/internal/logging"
	"github.com/pressgate/pressgate/internal/models"
	"github.com/pressgate/pressgate/internal/rbac"
)

// Options configures a single ValidatePermissions evaluation.
type Options struct {
	// RequireAuth demands a valid token. Default true via DefaultOptions.
	RequireAuth bool

	// Permissions overrides route-derived permission resolution.
	Permissions []rbac.Permission

	// AllowedMethods restricts HTTP verbs when non-empty.
	AllowedMethods []string

	// AllowOwnerAccess enables the ownership fallback for own-scoped
	// grants.
	AllowOwnerAccess bool

	// ResourceIDParam names the chi URL parameter carrying the target
	// resource ID for ownership checks.
	ResourceIDParam string

	// Resource overrides the resource name used for ownership lookups
	// and audit entries. Defaults to the required permission's resource.
	Resource string

	// OwnerField names the owner column on the target resource.
	// Defaults to rbac.DefaultOwnerField.
	OwnerField string

	// CustomValidator replaces permission evaluation when
	// SkipPermissionCheck is set. A panic inside it is recovered and
	// surfaced as a 500 VALIDATION_ERROR.
	CustomValidator func(r *http.Request, user *models.User) error

	// SkipPermissionCheck bypasses permission evaluation in favor of
	// CustomValidator (or nothing).
	SkipPermissionCheck bool
}

// DefaultOptions returns the baseline options: authentication required,
// permissions derived from the route table.
func DefaultOptions() Options {
	return Options{RequireAuth: true}
}

// Verdict is the structured outcome of a permission evaluation.
// Authorization failures are values, never panics or errors, so callers
// cannot accidentally swallow a security decision.
type Verdict struct {
	Authorized bool
	User       *models.User
	Err        *models.APIError
	Status     int
}

// Middleware orchestrates per-request authorization: it extracts
// identity, resolves required permissions, consults the permission
// service, optionally checks ownership, and records the outcome in the
// audit trail.
type Middleware struct {
	verifier *auth.TokenVerifier
	perms    *rbac.Service
	audit    *audit.Service
}

// NewMiddleware creates the permission middleware.
func NewMiddleware(verifier *auth.TokenVerifier, perms *rbac.Service, auditSvc *audit.Service) *Middleware {
	return &Middleware{verifier: verifier, perms: perms, audit: auditSvc}
}

// deny builds a denied verdict with a stable error code.
func deny(code, message string, details interface{}) Verdict {
	now := time.Now().UTC()
	return Verdict{
		Authorized: false,
		Status:     statusForCode(code),
		Err: &models.APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: now,
		},
	}
}

// ValidatePermissions evaluates whether the request may proceed.
//
// Evaluation order: public-route check, authentication, method check,
// permission resolution, custom validation or permission evaluation with
// ownership fallback. Exactly one api.access audit entry is written per
// call regardless of outcome; denials additionally produce a security
// entry. Audit write failures are logged and never flip the decision.
func (m *Middleware) ValidatePermissions(r *http.Request, opts Options) Verdict {
	ctx := r.Context()
	ip := clientIP(r)
	userAgent := r.UserAgent()
	start := time.Now()

	verdict, deniedPerm := m.evaluate(ctx, r, opts, ip, userAgent)

	role := "anonymous"
	userID := "anonymous"
	if verdict.User != nil {
		role = string(verdict.User.Role)
		userID = verdict.User.ID
	}

	result := audit.ResultSuccess
	reason := ""
	if !verdict.Authorized {
		result = audit.ResultDenied
		reason = verdict.Err.Code
	}
	resource := opts.Resource
	if resource == "" {
		resource = r.URL.Path
	}
	if err := m.audit.LogResourceAccess(ctx, userID, resource, resourceID(r, opts), result, reason, ip, userAgent); err != nil {
		logging.Warn().Err(err).Str("path", r.URL.Path).Msg("Failed to write access audit entry")
	}

	if !verdict.Authorized {
		m.auditDenial(ctx, verdict, deniedPerm, userID, ip, userAgent)
	}

	recordDecision(role, r.URL.Path, r.Method, verdict.Authorized, time.Since(start))
	return verdict
}

// evaluate runs the decision steps and returns the verdict plus the
// permission string that failed, if permission evaluation denied.
func (m *Middleware) evaluate(ctx context.Context, r *http.Request, opts Options, ip, userAgent string) (Verdict, string) {
	path := r.URL.Path

	// Public routes bypass authentication and permission checks.
	if rbac.IsPublicRoute(path) {
		return Verdict{Authorized: true, Status: http.StatusOK}, ""
	}

	user, err := m.verifier.FromRequest(r)
	if err != nil {
		if errors.Is(err, auth.ErrNoToken) {
			if !opts.RequireAuth {
				return Verdict{Authorized: true, Status: http.StatusOK}, ""
			}
			return deny(CodeUnauthorized, "Authentication required", nil), ""
		}
		return deny(CodeTokenError, "Invalid or expired token", nil), ""
	}

	if len(opts.AllowedMethods) > 0 && !methodAllowed(r.Method, opts.AllowedMethods) {
		v := deny(CodeMethodNotAllowed, fmt.Sprintf("Method %s not allowed", r.Method),
			map[string]interface{}{"allowed_methods": opts.AllowedMethods})
		v.User = user
		return v, ""
	}

	if opts.SkipPermissionCheck {
		v := m.runCustomValidator(r, opts, user)
		v.User = user
		return v, ""
	}

	required := opts.Permissions
	if len(required) == 0 {
		required = rbac.Resolve(path, r.Method)
	}

	// No required permissions resolves to authenticated-only access.
	for _, p := range required {
		granted, failErr := m.checkOne(ctx, r, opts, user, p)
		if failErr != nil {
			v := deny(CodeInternalError, "Authorization check failed", nil)
			v.User = user
			return v, p.String()
		}
		if !granted {
			v := deny(CodeForbidden, "Insufficient permissions", nil)
			v.User = user
			return v, p.String()
		}
	}

	return Verdict{Authorized: true, User: user, Status: http.StatusOK}, ""
}

// checkOne evaluates a single permission with the ownership fallback:
// an own-scoped grant that fails under all is re-attempted as an
// ownership check before final denial, never the reverse order.
func (m *Middleware) checkOne(ctx context.Context, r *http.Request, opts Options, user *models.User, p rbac.Permission) (bool, error) {
	if m.perms.HasPermission(user, p) {
		return true, nil
	}

	if !opts.AllowOwnerAccess || !m.perms.AllowsOwn(user, p) {
		return false, nil
	}

	id := resourceID(r, opts)
	if id == "" {
		return false, nil
	}
	resource := opts.Resource
	if resource == "" {
		resource = p.Resource
	}
	ownerField := opts.OwnerField
	if ownerField == "" {
		ownerField = rbac.DefaultOwnerField
	}
	return m.perms.CheckOwnerAccess(ctx, user, resource, id, ownerField)
}

// runCustomValidator executes the caller-supplied validator, recovering
// panics so a crashing validator cannot take down the request pipeline.
func (m *Middleware) runCustomValidator(r *http.Request, opts Options, user *models.User) (v Verdict) {
	if opts.CustomValidator == nil {
		return Verdict{Authorized: true, Status: http.StatusOK}
	}

	defer func() {
		if rec := recover(); rec != nil {
			logging.Error().
				Str("path", r.URL.Path).
				Interface("panic", rec).
				Msg("Custom validator panicked")
			v = deny(CodeValidationError, "Validation failed", nil)
			v.Status = http.StatusInternalServerError
		}
	}()

	if err := opts.CustomValidator(r, user); err != nil {
		return deny(CodeValidationError, err.Error(), nil)
	}
	return Verdict{Authorized: true, Status: http.StatusOK}
}

// auditDenial writes the additional security entry for a denied verdict.
func (m *Middleware) auditDenial(ctx context.Context, v Verdict, deniedPerm, userID, ip, userAgent string) {
	var err error
	switch v.Err.Code {
	case CodeUnauthorized, CodeTokenError:
		err = m.audit.LogSecurity(ctx, userID, audit.ActionUnauthorizedAccess, "security",
			v.Err.Code, audit.SeverityMedium, ip, userAgent)
	case CodeForbidden:
		err = m.audit.LogPermissionCheck(ctx, userID, deniedPerm, false, ip, userAgent)
	default:
		err = m.audit.LogSecurity(ctx, userID, audit.ActionUnauthorizedAccess, "security",
			v.Err.Code, audit.SeverityMedium, ip, userAgent)
	}
	if err != nil {
		logging.Warn().Err(err).Str("code", v.Err.Code).Msg("Failed to write denial audit entry")
	}
}

// Handler is an authorized route handler. User is nil on public routes
// and unauthenticated optional-auth requests.
type Handler func(w http.ResponseWriter, r *http.Request, user *models.User)

// WithPermissions wraps a handler with permission validation. Denied
// verdicts become the mapped HTTP error response; handler panics are
// recovered and mapped to a 500 INTERNAL_ERROR.
func (m *Middleware) WithPermissions(handler Handler, opts Options) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		verdict := m.ValidatePermissions(r, opts)
		if !verdict.Authorized {
			respondAPIError(w, verdict.Status, verdict.Err)
			return
		}

		defer func() {
			if rec := recover(); rec != nil {
				logging.Error().
					Str("path", r.URL.Path).
					Interface("panic", rec).
					Msg("Handler panicked")
				respondError(w, http.StatusInternalServerError, CodeInternalError,
					"Internal server error", nil)
			}
		}()

		handler(w, r, verdict.User)
	}
}

func methodAllowed(method string, allowed []string) bool {
	for _, m := range allowed {
		if m == method {
			return true
		}
	}
	return false
}

func resourceID(r *http.Request, opts Options) string {
	if opts.ResourceIDParam == "" {
		return ""
	}
	return chi.URLParam(r, opts.ResourceIDParam)
}

// clientIP returns the request's client address without the port.
// RealIP middleware has already resolved X-Forwarded-For upstream.
func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
