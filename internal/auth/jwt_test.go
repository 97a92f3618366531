// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package auth

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/pressgate/pressgate/internal/models"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newTestVerifier(t *testing.T, ttl time.Duration) *TokenVerifier {
	t.Helper()
	v, err := NewTokenVerifier(testSecret, ttl)
	if err != nil {
		t.Fatalf("NewTokenVerifier: %v", err)
	}
	return v
}

func TestNewTokenVerifierRejectsShortSecret(t *testing.T) {
	if _, err := NewTokenVerifier("too-short", time.Hour); err == nil {
		t.Error("expected error for short secret")
	}
	if _, err := NewTokenVerifier("", time.Hour); err == nil {
		t.Error("expected error for empty secret")
	}
}

func TestSignAndVerify(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	user := &models.User{ID: "u1", Email: "alice@example.com", Name: "Alice", Role: models.RoleEditor}

	token, err := v.Sign(user)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.ID != user.ID || got.Email != user.Email || got.Name != user.Name || got.Role != user.Role {
		t.Errorf("verified user = %+v, want %+v", got, user)
	}
}

func TestVerifyExpiredToken(t *testing.T) {
	// TTL floor in NewTokenVerifier means we sign with a short-lived
	// verifier built directly.
	v := &TokenVerifier{secret: []byte(testSecret), ttl: -time.Minute}
	token, err := v.Sign(&models.User{ID: "u1", Role: models.RoleViewer})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	checker := newTestVerifier(t, time.Hour)
	if _, err := checker.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Errorf("expected ErrExpiredToken, got %v", err)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	token, err := v.Sign(&models.User{ID: "u1", Role: models.RoleViewer})
	if err != nil {
		t.Fatal(err)
	}

	other, err := NewTokenVerifier("ffffffffffffffffffffffffffffffff", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := other.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyGarbageToken(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	for _, token := range []string{"", "not-a-jwt", "a.b.c"} {
		if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
			t.Errorf("Verify(%q): expected ErrInvalidToken, got %v", token, err)
		}
	}
}

func TestVerifyUnknownRole(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	token, err := v.Sign(&models.User{ID: "u1", Role: models.Role("SUPERUSER")})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := v.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expected ErrInvalidToken for unknown role, got %v", err)
	}
}

func TestVerifyLowercaseRoleNormalized(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	token, err := v.Sign(&models.User{ID: "u1", Role: models.Role("editor")})
	if err != nil {
		t.Fatal(err)
	}
	got, err := v.Verify(token)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if got.Role != models.RoleEditor {
		t.Errorf("role = %s, want EDITOR", got.Role)
	}
}

func TestFromRequest(t *testing.T) {
	v := newTestVerifier(t, time.Hour)
	user := &models.User{ID: "u1", Role: models.RoleAdmin}
	token, err := v.Sign(user)
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{"valid bearer", "Bearer " + token, nil},
		{"case-insensitive scheme", "bearer " + token, nil},
		{"missing header", "", ErrNoToken},
		{"wrong scheme", "Basic dXNlcjpwYXNz", ErrNoToken},
		{"bearer with garbage", "Bearer nope", ErrInvalidToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, _ := http.NewRequest(http.MethodGet, "/api/products", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}

			got, err := v.FromRequest(r)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.ID != user.ID {
				t.Errorf("user ID = %s, want %s", got.ID, user.ID)
			}
		})
	}
}
