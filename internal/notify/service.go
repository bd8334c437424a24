package notify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"murmur/internal/config"
)

const userAgent = "Murmur/0.1.0"

// Service defines the notification surface exposed to pipeline components.
type Service interface {
	NotifyEntryProcessed(ctx context.Context, entryID, summary string) error
	NotifyEntryFailed(ctx context.Context, entryID, reason string) error
	NotifyDeadLetter(ctx context.Context, entryID, lastError string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:         topic,
		client:           &http.Client{Timeout: timeout},
		processedEnabled: cfg.Notifications.Processed,
		errorsEnabled:    cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint         string
	client           *http.Client
	processedEnabled bool
	errorsEnabled    bool
}

func (n *ntfyService) NotifyEntryProcessed(ctx context.Context, entryID, summary string) error {
	if !n.processedEnabled {
		return nil
	}
	summary = strings.TrimSpace(summary)
	message := fmt.Sprintf("Entry %s processed", entryID)
	if summary != "" {
		message = fmt.Sprintf("%s\n%s", message, summary)
	}
	data := payload{
		title:   "Murmur - Entry Processed",
		message: message,
		tags:    []string{"murmur", "entry", "processed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyEntryFailed(ctx context.Context, entryID, reason string) error {
	if !n.errorsEnabled {
		return nil
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown"
	}
	data := payload{
		title:    "Murmur - Entry Failed",
		message:  fmt.Sprintf("Entry %s failed: %s", entryID, reason),
		tags:     []string{"murmur", "entry", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDeadLetter(ctx context.Context, entryID, lastError string) error {
	if !n.errorsEnabled {
		return nil
	}
	lastError = strings.TrimSpace(lastError)
	message := fmt.Sprintf("Entry %s parked in dead letter queue\nManual requeue required", entryID)
	if lastError != "" {
		message = fmt.Sprintf("%s\nLast error: %s", message, lastError)
	}
	data := payload{
		title:    "Murmur - Dead Letter",
		message:  message,
		tags:     []string{"murmur", "queue", "dead"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Murmur - Test",
		message:  "Notification system test",
		tags:     []string{"murmur", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) NotifyEntryProcessed(context.Context, string, string) error { return nil }
func (noopService) NotifyEntryFailed(context.Context, string, string) error    { return nil }
func (noopService) NotifyDeadLetter(context.Context, string, string) error     { return nil }
func (noopService) TestNotification(context.Context) error                     { return nil }
