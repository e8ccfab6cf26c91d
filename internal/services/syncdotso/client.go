// Package syncdotso wraps the sync.so lip-sync generation API: submit a
// generation, then poll the vendor job until it reaches a terminal state.
package syncdotso

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"facecast/internal/services"
	"facecast/internal/stage"
)

const (
	defaultBaseURL      = "https://api.sync.so"
	defaultModel        = "lipsync-2"
	defaultPollInterval = 5 * time.Second
	defaultHTTPTimeout  = 60 * time.Second

	stageName = "syncdotso"
)

// Client wraps the sync.so generation API.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	pollInterval time.Duration
	httpClient   *http.Client
}

// Option customizes the sync.so client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithBaseURL overrides the default API base (useful for tests/mocks).
func WithBaseURL(base string) Option {
	return func(c *Client) {
		base = strings.TrimSpace(base)
		if base != "" {
			c.baseURL = strings.TrimRight(base, "/")
		}
	}
}

// WithModel selects the lipsync model version.
func WithModel(model string) Option {
	return func(c *Client) {
		model = strings.TrimSpace(model)
		if model != "" {
			c.model = model
		}
	}
}

// WithPollInterval tunes how often the vendor job is polled.
func WithPollInterval(interval time.Duration) Option {
	return func(c *Client) {
		if interval > 0 {
			c.pollInterval = interval
		}
	}
}

// NewClient constructs a sync.so API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:       strings.TrimSpace(apiKey),
		baseURL:      defaultBaseURL,
		model:        defaultModel,
		pollInterval: defaultPollInterval,
		httpClient:   &http.Client{Timeout: defaultHTTPTimeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.baseURL == "" {
		client.baseURL = defaultBaseURL
	}
	if client.httpClient == nil {
		client.httpClient = &http.Client{Timeout: defaultHTTPTimeout}
	}
	return client
}

type generateRequest struct {
	Model string          `json:"model"`
	Input []generateInput `json:"input"`
}

type generateInput struct {
	Type string `json:"type"`
	URL  string `json:"url"`
}

type generationResponse struct {
	ID           string  `json:"id"`
	Status       string  `json:"status"`
	OutputURL    string  `json:"outputUrl"`
	ThumbnailURL string  `json:"thumbnailUrl"`
	Duration     float64 `json:"outputDuration"`
	FileSize     int64   `json:"outputFileSize"`
	Error        string  `json:"error"`
}

// Sync submits a lip-sync generation and polls until the vendor job
// completes or fails. The context deadline bounds the whole operation; the
// orchestrator supplies the stage timeout. Implements stage.LipSyncer.
func (c *Client) Sync(ctx context.Context, req stage.LipsyncRequest) (stage.LipsyncResult, error) {
	var empty stage.LipsyncResult
	if strings.TrimSpace(req.VideoURL) == "" {
		return empty, services.Wrap(services.ErrValidation, stageName, "sync", "video url required", nil)
	}
	if strings.TrimSpace(req.AudioURL) == "" {
		return empty, services.Wrap(services.ErrValidation, stageName, "sync", "audio url required", nil)
	}
	if c.apiKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, stageName, "sync", "api key required", nil)
	}

	generation, err := c.submit(ctx, req)
	if err != nil {
		return empty, err
	}
	if isFailedStatus(generation.Status) {
		return empty, failureError("sync", generation)
	}

	for !isTerminalStatus(generation.Status) {
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return empty, services.Wrap(services.ErrTimeout, stageName, "sync", "generation timed out", ctx.Err())
			}
			return empty, ctx.Err()
		case <-time.After(c.pollInterval):
		}
		generation, err = c.getGeneration(ctx, generation.ID)
		if err != nil {
			return empty, err
		}
	}

	if isFailedStatus(generation.Status) {
		return empty, failureError("sync", generation)
	}
	outputURL := strings.TrimSpace(generation.OutputURL)
	if outputURL == "" {
		return empty, services.Wrap(services.ErrVendor, stageName, "sync", "no output url in completed generation", nil)
	}
	return stage.LipsyncResult{
		VideoURL:     outputURL,
		ThumbnailURL: strings.TrimSpace(generation.ThumbnailURL),
		Duration:     generation.Duration,
		FileSize:     generation.FileSize,
	}, nil
}

// HealthCheck probes API reachability with the configured key.
func (c *Client) HealthCheck(ctx context.Context) stage.Health {
	const name = "lipsync"
	if c.apiKey == "" {
		return stage.Unhealthy(name, "API key missing")
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	endpoint, err := url.JoinPath(c.baseURL, "/v2/generate")
	if err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, endpoint, nil)
	if err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	req.Header.Set("x-api-key", c.apiKey)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)
	switch resp.StatusCode {
	case http.StatusUnauthorized, http.StatusForbidden:
		return stage.Unhealthy(name, "auth failed (invalid api key)")
	}
	return stage.Healthy(name)
}

func (c *Client) submit(ctx context.Context, req stage.LipsyncRequest) (generationResponse, error) {
	var empty generationResponse
	body := generateRequest{
		Model: c.model,
		Input: []generateInput{
			{Type: "video", URL: req.VideoURL},
			{Type: "audio", URL: req.AudioURL},
		},
	}
	endpoint, err := url.JoinPath(c.baseURL, "/v2/generate")
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, stageName, "sync", "build url", err)
	}
	encoded, err := json.Marshal(body)
	if err != nil {
		return empty, fmt.Errorf("syncdotso: encode request: %w", err)
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return empty, fmt.Errorf("syncdotso: request: %w", err)
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	var parsed generationResponse
	if err := c.do(httpReq, "submit", &parsed); err != nil {
		return empty, err
	}
	if strings.TrimSpace(parsed.ID) == "" {
		return empty, services.Wrap(services.ErrVendor, stageName, "sync", "no generation id in response", nil)
	}
	return parsed, nil
}

func (c *Client) getGeneration(ctx context.Context, id string) (generationResponse, error) {
	var empty generationResponse
	endpoint, err := url.JoinPath(c.baseURL, "/v2/generate", id)
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, stageName, "sync", "build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return empty, fmt.Errorf("syncdotso: request: %w", err)
	}
	req.Header.Set("x-api-key", c.apiKey)

	var parsed generationResponse
	if err := c.do(req, "poll", &parsed); err != nil {
		return empty, err
	}
	return parsed, nil
}

func (c *Client) do(req *http.Request, operation string, out *generationResponse) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, stageName, operation, "request timed out", err)
		}
		return services.Wrap(services.ErrVendor, stageName, operation, "request failed", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("syncdotso: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		detail := strings.TrimSpace(string(payload))
		if len(detail) > 300 {
			detail = detail[:300]
		}
		return services.Wrap(services.ErrVendor, stageName, operation, fmt.Sprintf("http %d: %s", resp.StatusCode, detail), nil)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("syncdotso: decode response: %w", err)
	}
	return nil
}

func isTerminalStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED", "FAILED", "REJECTED", "CANCELED", "ERROR":
		return true
	default:
		return false
	}
}

func isFailedStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "FAILED", "REJECTED", "CANCELED", "ERROR":
		return true
	default:
		return false
	}
}

func failureError(operation string, generation generationResponse) error {
	message := strings.TrimSpace(generation.Error)
	if message == "" {
		message = fmt.Sprintf("generation %s", strings.ToLower(generation.Status))
	}
	return services.Wrap(services.ErrVendor, stageName, operation, message, nil)
}
