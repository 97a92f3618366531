// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/pressgate/pressgate/internal/models"
)

// MinSecretLength is the minimum accepted JWT secret length in bytes.
const MinSecretLength = 32

var (
	// ErrNoToken indicates the request carried no bearer token.
	ErrNoToken = errors.New("no bearer token")
	// ErrInvalidToken indicates the token failed signature or claims validation.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken indicates the token is past its expiry.
	ErrExpiredToken = errors.New("token expired")
)

// Claims represents the JWT claims carried by admin session tokens.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
	jwt.RegisteredClaims
}

// TokenVerifier creates and validates admin session tokens.
//
// Tokens are signed with HMAC-SHA256 (HS256). The secret is stored as
// []byte and must be at least MinSecretLength characters; shorter
// secrets are rejected at construction time rather than silently
// weakening every token issued.
type TokenVerifier struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenVerifier creates a verifier with the given secret and token lifetime.
//
// Returns an error if the secret is shorter than MinSecretLength. A zero
// or negative ttl falls back to 24 hours.
func NewTokenVerifier(secret string, ttl time.Duration) (*TokenVerifier, error) {
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("jwt secret must be at least %d characters", MinSecretLength)
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenVerifier{secret: []byte(secret), ttl: ttl}, nil
}

// Sign creates a signed token for the given user.
//
// The token carries the user's email, display name and role alongside
// the registered claims. Subject is the user ID.
func (v *TokenVerifier) Sign(user *models.User) (string, error) {
	now := time.Now()
	claims := &Claims{
		Email: user.Email,
		Name:  user.Name,
		Role:  string(user.Role),
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			ExpiresAt: jwt.NewNumericDate(now.Add(v.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify validates a token string and returns the authenticated user.
//
// Validation checks the HMAC signature, the signing algorithm (rejecting
// anything but HMAC to prevent algorithm confusion), expiry and
// not-before. Expired tokens map to ErrExpiredToken; every other
// failure maps to ErrInvalidToken so callers can produce a uniform
// error response without leaking parse details.
func (v *TokenVerifier) Verify(tokenString string) (*models.User, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	role := models.Role(strings.ToUpper(claims.Role))
	if !models.IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidToken, claims.Role)
	}

	return &models.User{
		ID:    claims.Subject,
		Email: claims.Email,
		Name:  claims.Name,
		Role:  role,
	}, nil
}

// FromRequest extracts and verifies the bearer token from an HTTP request.
//
// Returns ErrNoToken when the Authorization header is missing or not a
// Bearer scheme. Scheme matching is case-insensitive per RFC 9110.
func (v *TokenVerifier) FromRequest(r *http.Request) (*models.User, error) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return nil, ErrNoToken
	}

	const prefix = "bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return nil, ErrNoToken
	}

	return v.Verify(strings.TrimSpace(header[len(prefix):]))
}
