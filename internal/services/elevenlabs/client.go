// Package elevenlabs wraps the ElevenLabs speech synthesis API surface the
// orchestrator consumes: synthesize text to a hosted audio file, list
// voices, and probe reachability.
package elevenlabs

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
	defaultBaseURL     = "https://api.elevenlabs.io"
	defaultModelID     = "eleven_multilingual_v2"
	defaultHTTPTimeout = 120 * time.Second

	stageName = "elevenlabs"
)

// Client wraps the ElevenLabs API.
type Client struct {
	apiKey         string
	baseURL        string
	defaultVoiceID string
	defaultModelID string
	httpClient     *http.Client
}

// Option customizes the ElevenLabs client.
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

// WithDefaultVoice sets the voice used when a request names none.
func WithDefaultVoice(voiceID string) Option {
	return func(c *Client) {
		c.defaultVoiceID = strings.TrimSpace(voiceID)
	}
}

// WithDefaultModel sets the model used when a request names none.
func WithDefaultModel(modelID string) Option {
	return func(c *Client) {
		modelID = strings.TrimSpace(modelID)
		if modelID != "" {
			c.defaultModelID = modelID
		}
	}
}

// WithTimeout overrides the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.httpClient = &http.Client{Timeout: timeout}
		}
	}
}

// NewClient constructs an ElevenLabs API client.
func NewClient(apiKey string, opts ...Option) *Client {
	client := &Client{
		apiKey:         strings.TrimSpace(apiKey),
		baseURL:        defaultBaseURL,
		defaultModelID: defaultModelID,
		httpClient:     &http.Client{Timeout: defaultHTTPTimeout},
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

type synthesizeRequest struct {
	Text          string             `json:"text"`
	ModelID       string             `json:"model_id"`
	LanguageCode  string             `json:"language_code,omitempty"`
	VoiceSettings *voiceSettingsBody `json:"voice_settings,omitempty"`
}

type voiceSettingsBody struct {
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
	Style           float64 `json:"style,omitempty"`
	UseSpeakerBoost bool    `json:"use_speaker_boost,omitempty"`
}

type synthesizeResponse struct {
	Status          string  `json:"status"`
	AudioURL        string  `json:"audio_url"`
	BlobURL         string  `json:"blob_url"`
	DurationSeconds float64 `json:"duration_seconds"`
	Error           string  `json:"error"`
}

// Synthesize converts text to hosted audio. It implements stage.SpeechSynthesizer.
func (c *Client) Synthesize(ctx context.Context, req stage.SpeechRequest) (stage.SpeechResult, error) {
	var empty stage.SpeechResult
	if strings.TrimSpace(req.Text) == "" {
		return empty, services.Wrap(services.ErrValidation, stageName, "synthesize", "text required", nil)
	}
	if c.apiKey == "" {
		return empty, services.Wrap(services.ErrConfiguration, stageName, "synthesize", "api key required", nil)
	}

	voiceID := strings.TrimSpace(req.VoiceID)
	if voiceID == "" {
		voiceID = c.resolvePreset(req.VoicePreset)
	}
	if voiceID == "" {
		voiceID = c.defaultVoiceID
	}
	if voiceID == "" {
		return empty, services.Wrap(services.ErrConfiguration, stageName, "synthesize", "no voice configured", nil)
	}

	modelID := strings.TrimSpace(req.ModelID)
	if modelID == "" {
		modelID = c.defaultModelID
	}

	body := synthesizeRequest{
		Text:         req.Text,
		ModelID:      modelID,
		LanguageCode: strings.TrimSpace(req.Language),
	}
	if req.Settings != nil {
		body.VoiceSettings = &voiceSettingsBody{
			Stability:       req.Settings.Stability,
			SimilarityBoost: req.Settings.SimilarityBoost,
			Style:           req.Settings.Style,
			UseSpeakerBoost: req.Settings.SpeakerBoost,
		}
	}

	endpoint, err := url.JoinPath(c.baseURL, "/v1/text-to-speech", voiceID)
	if err != nil {
		return empty, services.Wrap(services.ErrConfiguration, stageName, "synthesize", "build url", err)
	}

	var parsed synthesizeResponse
	if err := c.postJSON(ctx, endpoint, body, &parsed); err != nil {
		return empty, err
	}
	if strings.EqualFold(parsed.Status, "error") || parsed.Error != "" {
		message := strings.TrimSpace(parsed.Error)
		if message == "" {
			message = "synthesis failed"
		}
		return empty, services.Wrap(services.ErrVendor, stageName, "synthesize", message, nil)
	}

	audioURL := strings.TrimSpace(parsed.AudioURL)
	if audioURL == "" {
		audioURL = strings.TrimSpace(parsed.BlobURL)
	}
	if audioURL == "" {
		return empty, services.Wrap(services.ErrVendor, stageName, "synthesize", "no audio url in response", nil)
	}

	return stage.SpeechResult{AudioURL: audioURL, Duration: parsed.DurationSeconds}, nil
}

// Voice describes an available ElevenLabs voice.
type Voice struct {
	VoiceID  string `json:"voice_id"`
	Name     string `json:"name"`
	Category string `json:"category"`
}

type voicesResponse struct {
	Voices []Voice `json:"voices"`
}

// Voices lists the voices available to the configured API key.
func (c *Client) Voices(ctx context.Context) ([]Voice, error) {
	if c.apiKey == "" {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "voices", "api key required", nil)
	}
	endpoint, err := url.JoinPath(c.baseURL, "/v1/voices")
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, stageName, "voices", "build url", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs voices: request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrVendor, stageName, "voices", "request failed", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs voices: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return nil, vendorHTTPError("voices", resp.StatusCode, payload)
	}
	var parsed voicesResponse
	if err := json.Unmarshal(payload, &parsed); err != nil {
		return nil, fmt.Errorf("elevenlabs voices: decode response: %w", err)
	}
	return parsed.Voices, nil
}

// HealthCheck probes API reachability with the configured key.
func (c *Client) HealthCheck(ctx context.Context) stage.Health {
	const name = "text_to_speech"
	if c.apiKey == "" {
		return stage.Unhealthy(name, "API key missing")
	}
	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if _, err := c.Voices(checkCtx); err != nil {
		return stage.Unhealthy(name, err.Error())
	}
	return stage.Healthy(name)
}

// Voice presets map friendly names onto voice identifiers so callers do not
// need to know vendor IDs.
var voicePresets = map[string]string{
	"narrator":  "onwK4e9ZLuTAKqWW03F9",
	"presenter": "EXAVITQu4vr4xnSDxMaL",
	"casual":    "pNInz6obpgDQGcFmaJgB",
}

func (c *Client) resolvePreset(preset string) string {
	preset = strings.ToLower(strings.TrimSpace(preset))
	if preset == "" {
		return ""
	}
	return voicePresets[preset]
}

func (c *Client) postJSON(ctx context.Context, endpoint string, body any, out any) error {
	encoded, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("elevenlabs: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(encoded))
	if err != nil {
		return fmt.Errorf("elevenlabs: request: %w", err)
	}
	req.Header.Set("xi-api-key", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return services.Wrap(services.ErrTimeout, stageName, "synthesize", "request timed out", err)
		}
		return services.Wrap(services.ErrVendor, stageName, "synthesize", "request failed", err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("elevenlabs: read body: %w", err)
	}
	if resp.StatusCode >= http.StatusMultipleChoices {
		return vendorHTTPError("synthesize", resp.StatusCode, payload)
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("elevenlabs: decode response: %w", err)
	}
	return nil
}

func vendorHTTPError(operation string, status int, body []byte) error {
	detail := strings.TrimSpace(string(body))
	if len(detail) > 300 {
		detail = detail[:300]
	}
	return services.Wrap(services.ErrVendor, stageName, operation, fmt.Sprintf("http %d: %s", status, detail), nil)
}
