// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"net/http"

	"github.com/goccy/go-json"

	"github.com/pressgate/pressgate/internal/logging"
	"github.com/pressgate/pressgate/internal/models"
)

// respondJSON writes a response envelope with proper headers.
func respondJSON(w http.ResponseWriter, status int, response *models.APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")

	data, err := json.Marshal(response)
	if err != nil {
		logging.Error().Err(err).Msg("Failed to marshal JSON response")
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		logging.Error().Err(err).Msg("Failed to write JSON response")
	}
}

// respondSuccess writes a success envelope with the given payload.
func respondSuccess(w http.ResponseWriter, status int, data interface{}) {
	respondJSON(w, status, models.NewSuccessResponse(data))
}

// respondError writes an error envelope. The underlying error, if any,
// is logged with sanitized values and never exposed to the client.
func respondError(w http.ResponseWriter, status int, code, message string, err error) {
	if err != nil {
		logging.Error().
			Str("code", code).
			Str("error", logging.SanitizeLogValue(err.Error())).
			Msg("API error")
	}
	respondJSON(w, status, models.NewErrorResponse(code, message, nil))
}

// respondAPIError writes a pre-built API error at its mapped status.
func respondAPIError(w http.ResponseWriter, status int, apiErr *models.APIError) {
	resp := models.NewErrorResponse(apiErr.Code, apiErr.Message, apiErr.Details)
	respondJSON(w, status, resp)
}
