// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"

	"github.com/pressgate/pressgate/internal/audit"
	"github.com/pressgate/pressgate/internal/auth"
	"github.com/pressgate/pressgate/internal/models"
	"github.com/pressgate/pressgate/internal/rbac"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	mw       *Middleware
	store    *audit.MemoryStore
	owners   *rbac.MemoryOwnershipStore
	verifier *auth.TokenVerifier
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	verifier, err := auth.NewTokenVerifier(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	store := audit.NewMemoryStore(0)
	auditSvc := audit.NewService(store, nil, &audit.Config{Enabled: true, RetentionDays: 90})
	owners := rbac.NewMemoryOwnershipStore()
	perms := rbac.NewService(owners)

	return &testEnv{
		mw:       NewMiddleware(verifier, perms, auditSvc),
		store:    store,
		owners:   owners,
		verifier: verifier,
	}
}

func (e *testEnv) request(t *testing.T, method, path string, user *models.User) *http.Request {
	t.Helper()
	r := httptest.NewRequest(method, path, nil)
	r.RemoteAddr = "10.0.0.1:51234"
	if user != nil {
		token, err := e.verifier.Sign(user)
		if err != nil {
			t.Fatal(err)
		}
		r.Header.Set("Authorization", "Bearer "+token)
	}
	return r
}

// withURLParam attaches a chi route parameter.
func withURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func (e *testEnv) countAction(t *testing.T, action string) int64 {
	t.Helper()
	count, err := e.store.Count(context.Background(), audit.Filter{Actions: []string{action}})
	if err != nil {
		t.Fatal(err)
	}
	return count
}

func TestValidatePermissionsPublicRoute(t *testing.T) {
	env := newTestEnv(t)

	for _, method := range []string{http.MethodGet, http.MethodPost, http.MethodDelete} {
		r := env.request(t, method, "/api/health", nil)
		verdict := env.mw.ValidatePermissions(r, DefaultOptions())

		if !verdict.Authorized {
			t.Errorf("%s public route denied: %+v", method, verdict.Err)
		}
		if verdict.User != nil {
			t.Errorf("%s public route should carry no user", method)
		}
	}
}

func TestValidatePermissionsMissingToken(t *testing.T) {
	env := newTestEnv(t)

	r := env.request(t, http.MethodGet, "/api/products", nil)
	verdict := env.mw.ValidatePermissions(r, DefaultOptions())

	if verdict.Authorized {
		t.Fatal("expected denial")
	}
	if verdict.Err.Code != CodeUnauthorized || verdict.Status != http.StatusUnauthorized {
		t.Errorf("code=%s status=%d", verdict.Err.Code, verdict.Status)
	}

	if got := env.countAction(t, audit.ActionAPIAccess); got != 1 {
		t.Errorf("api.access entries = %d, want 1", got)
	}
	if got := env.countAction(t, audit.ActionUnauthorizedAccess); got != 1 {
		t.Errorf("unauthorized_access entries = %d, want 1", got)
	}
}

func TestValidatePermissionsOptionalAuth(t *testing.T) {
	env := newTestEnv(t)

	r := env.request(t, http.MethodGet, "/api/unmatched", nil)
	verdict := env.mw.ValidatePermissions(r, Options{RequireAuth: false})

	if !verdict.Authorized {
		t.Fatalf("optional auth without token should pass: %+v", verdict.Err)
	}
	if verdict.User != nil {
		t.Error("expected nil user")
	}
}

func TestValidatePermissionsInvalidToken(t *testing.T) {
	env := newTestEnv(t)

	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	r.RemoteAddr = "10.0.0.1:51234"
	r.Header.Set("Authorization", "Bearer garbage")

	verdict := env.mw.ValidatePermissions(r, DefaultOptions())
	if verdict.Authorized {
		t.Fatal("expected denial")
	}
	if verdict.Err.Code != CodeTokenError || verdict.Status != http.StatusUnauthorized {
		t.Errorf("code=%s status=%d", verdict.Err.Code, verdict.Status)
	}
}

func TestValidatePermissionsMethodNotAllowed(t *testing.T) {
	env := newTestEnv(t)
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	r := env.request(t, http.MethodDelete, "/api/settings", admin)
	verdict := env.mw.ValidatePermissions(r, Options{
		RequireAuth:    true,
		AllowedMethods: []string{http.MethodGet, http.MethodPut},
	})

	if verdict.Authorized {
		t.Fatal("expected denial")
	}
	if verdict.Err.Code != CodeMethodNotAllowed || verdict.Status != http.StatusMethodNotAllowed {
		t.Errorf("code=%s status=%d", verdict.Err.Code, verdict.Status)
	}

	details, ok := verdict.Err.Details.(map[string]interface{})
	if !ok {
		t.Fatalf("details = %T", verdict.Err.Details)
	}
	if _, present := details["allowed_methods"]; !present {
		t.Error("details should list the allowed methods")
	}
}

func TestValidatePermissionsViewerCannotCreate(t *testing.T) {
	env := newTestEnv(t)
	viewer := &models.User{ID: "v1", Role: models.RoleViewer}

	r := env.request(t, http.MethodPost, "/api/products", viewer)
	verdict := env.mw.ValidatePermissions(r, Options{
		RequireAuth: true,
		Permissions: []rbac.Permission{{Resource: rbac.ResourceProducts, Action: rbac.ActionCreate}},
	})

	if verdict.Authorized {
		t.Fatal("viewer must not create products")
	}
	if verdict.Err.Code != CodeForbidden || verdict.Status != http.StatusForbidden {
		t.Errorf("code=%s status=%d", verdict.Err.Code, verdict.Status)
	}

	if got := env.countAction(t, audit.ActionAPIAccess); got != 1 {
		t.Errorf("api.access entries = %d, want 1", got)
	}
	if got := env.countAction(t, audit.ActionPermissionCheckDenied); got != 1 {
		t.Errorf("permission_check_denied entries = %d, want 1", got)
	}
}

func TestValidatePermissionsRouteDerived(t *testing.T) {
	env := newTestEnv(t)
	viewer := &models.User{ID: "v1", Role: models.RoleViewer}

	// No explicit permissions: resolution falls back to the route table.
	r := env.request(t, http.MethodGet, "/api/products", viewer)
	verdict := env.mw.ValidatePermissions(r, DefaultOptions())
	if !verdict.Authorized {
		t.Errorf("viewer read via route table denied: %+v", verdict.Err)
	}

	r = env.request(t, http.MethodPost, "/api/products", viewer)
	verdict = env.mw.ValidatePermissions(r, DefaultOptions())
	if verdict.Authorized {
		t.Error("viewer create via route table should be denied")
	}
}

func TestValidatePermissionsOwnershipFallback(t *testing.T) {
	env := newTestEnv(t)
	env.owners.Put("products", "p1", map[string]string{rbac.DefaultOwnerField: "editor-1"})

	opts := Options{
		RequireAuth:      true,
		Permissions:      []rbac.Permission{{Resource: rbac.ResourceProducts, Action: rbac.ActionDelete}},
		AllowOwnerAccess: true,
		ResourceIDParam:  "id",
		Resource:         "products",
	}

	t.Run("owner allowed", func(t *testing.T) {
		owner := &models.User{ID: "editor-1", Role: models.RoleEditor}
		r := withURLParam(env.request(t, http.MethodDelete, "/api/products/p1", owner), "id", "p1")

		verdict := env.mw.ValidatePermissions(r, opts)
		if !verdict.Authorized {
			t.Errorf("owner should delete own product: %+v", verdict.Err)
		}
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		other := &models.User{ID: "editor-2", Role: models.RoleEditor}
		r := withURLParam(env.request(t, http.MethodDelete, "/api/products/p1", other), "id", "p1")

		verdict := env.mw.ValidatePermissions(r, opts)
		if verdict.Authorized {
			t.Fatal("non-owner must be denied")
		}
		if verdict.Err.Code != CodeForbidden {
			t.Errorf("code = %s, want FORBIDDEN", verdict.Err.Code)
		}
	})

	t.Run("missing resource forbidden", func(t *testing.T) {
		owner := &models.User{ID: "editor-1", Role: models.RoleEditor}
		r := withURLParam(env.request(t, http.MethodDelete, "/api/products/ghost", owner), "id", "ghost")

		verdict := env.mw.ValidatePermissions(r, opts)
		if verdict.Authorized {
			t.Error("a missing resource is never ownable")
		}
	})

	t.Run("viewer has no own grant to fall back to", func(t *testing.T) {
		viewer := &models.User{ID: "editor-1", Role: models.RoleViewer}
		r := withURLParam(env.request(t, http.MethodDelete, "/api/products/p1", viewer), "id", "p1")

		verdict := env.mw.ValidatePermissions(r, opts)
		if verdict.Authorized {
			t.Error("ownership fallback requires an own-scoped grant")
		}
	})
}

func TestValidatePermissionsCustomValidator(t *testing.T) {
	env := newTestEnv(t)
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}

	t.Run("validator passes", func(t *testing.T) {
		r := env.request(t, http.MethodGet, "/api/custom", admin)
		verdict := env.mw.ValidatePermissions(r, Options{
			RequireAuth:         true,
			SkipPermissionCheck: true,
			CustomValidator: func(*http.Request, *models.User) error {
				return nil
			},
		})
		if !verdict.Authorized {
			t.Errorf("passing validator denied: %+v", verdict.Err)
		}
	})

	t.Run("validator rejects", func(t *testing.T) {
		r := env.request(t, http.MethodGet, "/api/custom", admin)
		verdict := env.mw.ValidatePermissions(r, Options{
			RequireAuth:         true,
			SkipPermissionCheck: true,
			CustomValidator: func(*http.Request, *models.User) error {
				return errors.New("payload malformed")
			},
		})
		if verdict.Authorized {
			t.Fatal("expected denial")
		}
		if verdict.Err.Code != CodeValidationError || verdict.Status != http.StatusBadRequest {
			t.Errorf("code=%s status=%d", verdict.Err.Code, verdict.Status)
		}
	})

	t.Run("validator panics", func(t *testing.T) {
		r := env.request(t, http.MethodGet, "/api/custom", admin)
		verdict := env.mw.ValidatePermissions(r, Options{
			RequireAuth:         true,
			SkipPermissionCheck: true,
			CustomValidator: func(*http.Request, *models.User) error {
				panic("boom")
			},
		})
		if verdict.Authorized {
			t.Fatal("expected denial")
		}
		if verdict.Err.Code != CodeValidationError || verdict.Status != http.StatusInternalServerError {
			t.Errorf("code=%s status=%d, want VALIDATION_ERROR/500", verdict.Err.Code, verdict.Status)
		}
	})
}

func TestValidatePermissionsSingleAuditEntryPerCall(t *testing.T) {
	env := newTestEnv(t)
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	viewer := &models.User{ID: "v1", Role: models.RoleViewer}

	calls := []struct {
		user *models.User
		path string
	}{
		{admin, "/api/products"},
		{viewer, "/api/products"},
		{nil, "/api/health"},
		{nil, "/api/products"},
	}
	for _, c := range calls {
		r := env.request(t, http.MethodGet, c.path, c.user)
		env.mw.ValidatePermissions(r, DefaultOptions())
	}

	if got := env.countAction(t, audit.ActionAPIAccess); got != int64(len(calls)) {
		t.Errorf("api.access entries = %d, want %d (one per call)", got, len(calls))
	}
}

// failingStore breaks every write while delegating reads.
type failingStore struct {
	*audit.MemoryStore
}

func (f *failingStore) Create(context.Context, *audit.Entry) error {
	return errors.New("disk full")
}

func TestAuditFailureDoesNotFlipDecision(t *testing.T) {
	verifier, err := auth.NewTokenVerifier(testSecret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	broken := &failingStore{audit.NewMemoryStore(0)}
	auditSvc := audit.NewService(broken, nil, &audit.Config{Enabled: true, RetentionDays: 90})
	mw := NewMiddleware(verifier, rbac.NewService(nil), auditSvc)

	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	token, err := verifier.Sign(admin)
	if err != nil {
		t.Fatal(err)
	}
	r := httptest.NewRequest(http.MethodGet, "/api/products", nil)
	r.RemoteAddr = "10.0.0.1:51234"
	r.Header.Set("Authorization", "Bearer "+token)

	verdict := mw.ValidatePermissions(r, DefaultOptions())
	if !verdict.Authorized {
		t.Errorf("audit write failure flipped an authorized decision: %+v", verdict.Err)
	}
}

func TestWithPermissions(t *testing.T) {
	env := newTestEnv(t)
	admin := &models.User{ID: "a1", Role: models.RoleAdmin}
	viewer := &models.User{ID: "v1", Role: models.RoleViewer}

	t.Run("authorized handler runs with user", func(t *testing.T) {
		var gotUser *models.User
		handler := env.mw.WithPermissions(func(w http.ResponseWriter, r *http.Request, user *models.User) {
			gotUser = user
			respondSuccess(w, http.StatusOK, map[string]string{"ok": "yes"})
		}, DefaultOptions())

		w := httptest.NewRecorder()
		handler(w, env.request(t, http.MethodGet, "/api/products", admin))

		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}
		if gotUser == nil || gotUser.ID != admin.ID {
			t.Errorf("handler user = %+v", gotUser)
		}
	})

	t.Run("denied verdict becomes error envelope", func(t *testing.T) {
		handler := env.mw.WithPermissions(func(http.ResponseWriter, *http.Request, *models.User) {
			t.Error("handler must not run on denial")
		}, Options{
			RequireAuth: true,
			Permissions: []rbac.Permission{{Resource: rbac.ResourceProducts, Action: rbac.ActionCreate}},
		})

		w := httptest.NewRecorder()
		handler(w, env.request(t, http.MethodPost, "/api/products", viewer))

		if w.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want 403", w.Code)
		}
		var resp models.APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Success || resp.Error == nil || resp.Error.Code != CodeForbidden {
			t.Errorf("response = %+v", resp)
		}
	})

	t.Run("handler panic maps to internal error", func(t *testing.T) {
		handler := env.mw.WithPermissions(func(http.ResponseWriter, *http.Request, *models.User) {
			panic("kaboom")
		}, DefaultOptions())

		w := httptest.NewRecorder()
		handler(w, env.request(t, http.MethodGet, "/api/products", admin))

		if w.Code != http.StatusInternalServerError {
			t.Fatalf("status = %d, want 500", w.Code)
		}
		var resp models.APIResponse
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Error == nil || resp.Error.Code != CodeInternalError {
			t.Errorf("response = %+v", resp)
		}
	})
}
