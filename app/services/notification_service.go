// Package services provides external service integrations and technical concerns like notifications and tokens
package services

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Notification is one push message about a task
type Notification struct {
	Title    string
	Message  string
	Priority string // ntfy priority: min, low, default, high, urgent
	Tags     []string
}

// Notifier delivers task reminders to subscribed devices
type Notifier interface {
	Send(ctx context.Context, n *Notification) error
}

// NtfyClient publishes notifications to an ntfy topic over plain HTTP.
// Metadata travels in headers per the ntfy publish protocol.
type NtfyClient struct {
	serverURL string
	topic     string
	authToken string
	client    *http.Client
}

// NewNtfyClient creates an ntfy notifier. authToken may be empty for open topics.
func NewNtfyClient(serverURL, topic, authToken string) *NtfyClient {
	return &NtfyClient{
		serverURL: strings.TrimRight(serverURL, "/"),
		topic:     topic,
		authToken: authToken,
		client:    &http.Client{Timeout: 10 * time.Second},
	}
}

// Send publishes one notification to the configured topic
func (c *NtfyClient) Send(ctx context.Context, n *Notification) error {
	url := fmt.Sprintf("%s/%s", c.serverURL, c.topic)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(n.Message))
	if err != nil {
		return fmt.Errorf("failed to build ntfy request: %w", err)
	}

	if n.Title != "" {
		req.Header.Set("Title", n.Title)
	}
	if n.Priority != "" {
		req.Header.Set("Priority", n.Priority)
	}
	if len(n.Tags) > 0 {
		req.Header.Set("Tags", strings.Join(n.Tags, ","))
	}
	if c.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to publish to ntfy: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("ntfy returned status %d: %s", resp.StatusCode, string(body))
	}

	return nil
}

// MockNotifier logs notifications instead of delivering them
type MockNotifier struct{}

func NewMockNotifier() Notifier {
	return &MockNotifier{}
}

func (m *MockNotifier) Send(_ context.Context, n *Notification) error {
	log.Printf("Notification [%s]: %s", n.Title, n.Message)
	return nil
}
