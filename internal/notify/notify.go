// Package notify provides notification functionality for the journal.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Notifier defines the interface for sending notifications.
type Notifier interface {
	Send(ctx context.Context, n Notification) error
}

// Notification represents a notification message.
type Notification struct {
	Type      NotificationType
	Title     string
	Message   string
	Data      map[string]interface{}
	Timestamp time.Time
}

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationInfo       NotificationType = "info"
	NotificationError      NotificationType = "error"
	NotificationGeneration NotificationType = "generation"
	NotificationSummary    NotificationType = "summary"
)

// NotificationLevel represents the notification level filter.
type NotificationLevel string

const (
	LevelAll        NotificationLevel = "all"
	LevelErrorsOnly NotificationLevel = "errors_only"
)

// MultiNotifier sends notifications to multiple channels, applying a
// level filter. Per-channel errors do not stop delivery to the rest.
type MultiNotifier struct {
	mu       sync.RWMutex
	channels []Notifier
	level    NotificationLevel
}

// NewMultiNotifier creates a MultiNotifier with the given level filter.
func NewMultiNotifier(level NotificationLevel, channels ...Notifier) *MultiNotifier {
	if level == "" {
		level = LevelAll
	}
	return &MultiNotifier{channels: channels, level: level}
}

// AddChannel registers an additional channel.
func (m *MultiNotifier) AddChannel(c Notifier) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.channels = append(m.channels, c)
}

// Send fans the notification out to all channels.
func (m *MultiNotifier) Send(ctx context.Context, n Notification) error {
	if m.level == LevelErrorsOnly && n.Type != NotificationError {
		return nil
	}
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}

	m.mu.RLock()
	channels := make([]Notifier, len(m.channels))
	copy(channels, m.channels)
	m.mu.RUnlock()

	var firstErr error
	for _, c := range channels {
		if err := c.Send(ctx, n); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// WebhookNotifier posts notifications as JSON to an HTTP endpoint.
type WebhookNotifier struct {
	url    string
	client *http.Client
}

// NewWebhookNotifier creates a webhook channel.
func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Send posts the notification payload.
func (w *WebhookNotifier) Send(ctx context.Context, n Notification) error {
	if n.Timestamp.IsZero() {
		n.Timestamp = time.Now()
	}
	payload, err := json.Marshal(map[string]interface{}{
		"type":      string(n.Type),
		"title":     n.Title,
		"message":   n.Message,
		"data":      n.Data,
		"timestamp": n.Timestamp.Format(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("failed to marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

// Send discards the notification.
func (NopNotifier) Send(ctx context.Context, n Notification) error { return nil }
