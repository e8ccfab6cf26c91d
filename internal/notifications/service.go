// Package notifications publishes workflow lifecycle events to ntfy.
// When no topic is configured every call is a no-op, so callers never need
// to guard notification sites.
package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"facecast/internal/config"
)

const userAgent = "facecast/0.1.0"

// Service defines the notification surface exposed to workflow components.
type Service interface {
	NotifyJobCompleted(ctx context.Context, jobID, actorID string, duration time.Duration) error
	NotifyJobFailed(ctx context.Context, jobID, stageName, message string) error
	NotifyDaemonStarted(ctx context.Context, bind string) error
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
		endpoint:     topic,
		client:       &http.Client{Timeout: timeout},
		jobCompleted: cfg.Notifications.JobCompleted,
		jobFailed:    cfg.Notifications.JobFailed,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint     string
	client       *http.Client
	jobCompleted bool
	jobFailed    bool
}

func (n *ntfyService) NotifyJobCompleted(ctx context.Context, jobID, actorID string, duration time.Duration) error {
	if !n.jobCompleted {
		return nil
	}
	data := payload{
		title:   "Facecast - Job Completed",
		message: fmt.Sprintf("Video ready for actor %s (job %s, %s)", actorID, shortID(jobID), duration.Round(time.Second)),
		tags:    []string{"facecast", "job", "completed"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyJobFailed(ctx context.Context, jobID, stageName, message string) error {
	if !n.jobFailed {
		return nil
	}
	stageName = strings.TrimSpace(stageName)
	if stageName == "" {
		stageName = "workflow"
	}
	data := payload{
		title:    "Facecast - Job Failed",
		message:  fmt.Sprintf("%s failed for job %s: %s", stageName, shortID(jobID), strings.TrimSpace(message)),
		tags:     []string{"facecast", "job", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyDaemonStarted(ctx context.Context, bind string) error {
	data := payload{
		title:   "Facecast - Daemon Started",
		message: fmt.Sprintf("API listening on %s", strings.TrimSpace(bind)),
		tags:    []string{"facecast", "daemon"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:   "Facecast - Test",
		message: "Notifications are configured correctly",
		tags:    []string{"facecast", "test"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build notification request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("notification rejected: http %d", resp.StatusCode)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

type noopService struct{}

func (noopService) NotifyJobCompleted(context.Context, string, string, time.Duration) error {
	return nil
}

func (noopService) NotifyJobFailed(context.Context, string, string, string) error { return nil }

func (noopService) NotifyDaemonStarted(context.Context, string) error { return nil }

func (noopService) TestNotification(context.Context) error { return nil }
