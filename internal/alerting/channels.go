// Pressgate - Content Management Admin Core
// Copyright 2026 Pressgate Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/pressgate/pressgate

package alerting

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"

	"github.com/pressgate/pressgate/internal/audit"
)

// Notification is an in-app notification produced from an alert.
type Notification struct {
	ID        string         `json:"id"`
	Title     string         `json:"title"`
	Body      string         `json:"body"`
	Severity  audit.Severity `json:"severity"`
	CreatedAt time.Time      `json:"created_at"`
	Read      bool           `json:"read"`
}

// NotificationStore persists in-app notifications.
type NotificationStore interface {
	Add(ctx context.Context, n Notification) error
}

// MemoryNotificationStore keeps notifications in memory with a cap.
type MemoryNotificationStore struct {
	mu            sync.RWMutex
	notifications []Notification
	maxLen        int
}

// NewMemoryNotificationStore creates a capped in-memory store.
func NewMemoryNotificationStore(maxLen int) *MemoryNotificationStore {
	if maxLen <= 0 {
		maxLen = 500
	}
	return &MemoryNotificationStore{maxLen: maxLen}
}

// Add appends a notification, evicting the oldest past the cap.
func (s *MemoryNotificationStore) Add(_ context.Context, n Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.notifications) >= s.maxLen {
		s.notifications = s.notifications[1:]
	}
	s.notifications = append(s.notifications, n)
	return nil
}

// List returns a snapshot of stored notifications, newest last.
func (s *MemoryNotificationStore) List() []Notification {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Notification, len(s.notifications))
	copy(out, s.notifications)
	return out
}

// InAppChannel delivers alerts to the in-app notification store.
type InAppChannel struct {
	store NotificationStore
}

// NewInAppChannel creates an in-app channel.
func NewInAppChannel(store NotificationStore) *InAppChannel {
	return &InAppChannel{store: store}
}

// Name implements Channel.
func (c *InAppChannel) Name() string { return "in_app" }

// Send implements Channel.
func (c *InAppChannel) Send(ctx context.Context, alert audit.Alert) error {
	return c.store.Add(ctx, Notification{
		ID:        alert.ID,
		Title:     "Security alert: " + alert.Type,
		Body:      alert.Message,
		Severity:  alert.Severity,
		CreatedAt: alert.Timestamp,
	})
}

// EmailSender is the outbound email collaborator. Delivery mechanics
// (SMTP, provider API) live outside this core.
type EmailSender interface {
	Send(ctx context.Context, to []string, subject, body string) error
}

// EmailChannel delivers alerts to a fixed recipient list.
type EmailChannel struct {
	sender     EmailSender
	recipients []string
}

// NewEmailChannel creates an email channel.
func NewEmailChannel(sender EmailSender, recipients []string) *EmailChannel {
	return &EmailChannel{sender: sender, recipients: recipients}
}

// Name implements Channel.
func (c *EmailChannel) Name() string { return "email" }

// Send implements Channel.
func (c *EmailChannel) Send(ctx context.Context, alert audit.Alert) error {
	if len(c.recipients) == 0 {
		return nil
	}
	subject := fmt.Sprintf("[%s] Security alert: %s", alert.Severity, alert.Type)
	return c.sender.Send(ctx, c.recipients, subject, alert.Message)
}

// WebhookChannel POSTs the alert payload to a configured URL. A circuit
// breaker keeps a dead endpoint from stalling every delivery attempt.
type WebhookChannel struct {
	url     string
	client  *http.Client
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewWebhookChannel creates a webhook channel.
func NewWebhookChannel(url string, client *http.Client) *WebhookChannel {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &WebhookChannel{
		url:    url,
		client: client,
		breaker: gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
			Name:    "alert-webhook",
			Timeout: 60 * time.Second,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= 3
			},
		}),
	}
}

// Name implements Channel.
func (c *WebhookChannel) Name() string { return "webhook" }

// Send implements Channel.
func (c *WebhookChannel) Send(ctx context.Context, alert audit.Alert) error {
	payload, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	_, err = c.breaker.Execute(func() (struct{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
		if err != nil {
			return struct{}{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.client.Do(req)
		if err != nil {
			return struct{}{}, err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 300 {
			return struct{}{}, fmt.Errorf("webhook returned status %d", resp.StatusCode)
		}
		return struct{}{}, nil
	})
	if err != nil {
		return fmt.Errorf("webhook delivery: %w", err)
	}
	return nil
}
