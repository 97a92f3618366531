// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package audit

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"github.com/pressgate/pressgate/internal/logging"
)

// DefaultCleanupSchedule runs retention cleanup nightly at 03:00.
const DefaultCleanupSchedule = "0 3 * * *"

// RetentionRunner schedules periodic retention cleanup as an out-of-band
// job, keeping deletion latency off the request path.
type RetentionRunner struct {
	service  *Service
	cron     *cron.Cron
	schedule string
}

// NewRetentionRunner creates a runner with the given cron schedule
// (standard 5-field cron syntax). An empty schedule uses the default.
func NewRetentionRunner(service *Service, schedule string) *RetentionRunner {
	if schedule == "" {
		schedule = DefaultCleanupSchedule
	}
	return &RetentionRunner{
		service:  service,
		cron:     cron.New(),
		schedule: schedule,
	}
}

// Start registers the cleanup job and starts the scheduler.
func (r *RetentionRunner) Start() error {
	_, err := r.cron.AddFunc(r.schedule, func() {
		deleted, err := r.service.Cleanup(context.Background())
		if err != nil {
			logging.Error().Err(err).Msg("Scheduled audit cleanup failed")
			return
		}
		logging.Debug().Int64("deleted", deleted).Msg("Scheduled audit cleanup ran")
	})
	if err != nil {
		return fmt.Errorf("register cleanup schedule %q: %w", r.schedule, err)
	}

	r.cron.Start()
	return nil
}

// Stop stops the scheduler, waiting for a running job to finish.
func (r *RetentionRunner) Stop() {
	ctx := r.cron.Stop()
	<-ctx.Done()
}
