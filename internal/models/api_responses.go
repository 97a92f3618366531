// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package models

import "time"

// APIResponse is the standardized response wrapper used by all HTTP
// endpoints.
//
// Example successful response:
//
//	{
//	  "success": true,
//	  "data": {"total": 100, "entries": [...]},
//	  "timestamp": "2026-08-30T12:00:00Z"
//	}
//
// Example error response:
//
//	{
//	  "success": false,
//	  "error": {
//	    "code": "FORBIDDEN",
//	    "message": "Insufficient permissions",
//	    "timestamp": "2026-08-30T12:00:00Z"
//	  },
//	  "timestamp": "2026-08-30T12:00:00Z"
//	}
type APIResponse struct {
	Success   bool        `json:"success"`
	Data      interface{} `json:"data,omitempty"`
	Error     *APIError   `json:"error,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// APIError carries a stable machine-readable code plus a human-readable
// message. Details never include stack traces, queries, or permission
// table contents.
type APIError struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// NewSuccessResponse builds a success envelope around data.
func NewSuccessResponse(data interface{}) *APIResponse {
	return &APIResponse{
		Success:   true,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}
}

// NewErrorResponse builds an error envelope.
func NewErrorResponse(code, message string, details interface{}) *APIResponse {
	now := time.Now().UTC()
	return &APIResponse{
		Success: false,
		Error: &APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			Timestamp: now,
		},
		Timestamp: now,
	}
}
