// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

// Package api provides the HTTP surface of the admin core: the
// permission middleware, response envelope helpers and admin handlers.
package api

import "net/http"

// Error codes returned in the API error envelope.
const (
	CodeUnauthorized     = "UNAUTHORIZED"
	CodeTokenError       = "TOKEN_ERROR"
	CodeMethodNotAllowed = "METHOD_NOT_ALLOWED"
	CodeForbidden        = "FORBIDDEN"
	CodeValidationError  = "VALIDATION_ERROR"
	CodeNotFound         = "NOT_FOUND"
	CodeInternalError    = "INTERNAL_ERROR"
)

// statusForCode maps an error code to its HTTP status. VALIDATION_ERROR
// defaults to 400; middleware overrides to 500 when the failure is a
// custom validator crash rather than bad input.
func statusForCode(code string) int {
	switch code {
	case CodeUnauthorized, CodeTokenError:
		return http.StatusUnauthorized
	case CodeMethodNotAllowed:
		return http.StatusMethodNotAllowed
	case CodeForbidden:
		return http.StatusForbidden
	case CodeValidationError:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}
