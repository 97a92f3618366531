// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package api

import (
	"net/http"
	"time"

	"github.com/pressgate/pressgate/internal/models"
)

var startTime = time.Now()

// Health reports liveness. Public route, no authentication.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request, _ *models.User) {
	respondSuccess(w, http.StatusOK, map[string]interface{}{
		"status": "ok",
		"uptime": time.Since(startTime).Round(time.Second).String(),
	})
}
