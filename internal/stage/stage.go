// Package stage defines the contracts between the workflow orchestrator and
// the vendor stage executors.
//
// Each stage takes a typed request and returns a typed result or an error;
// there is no loosely-shaped payload for the orchestrator to pattern-match
// on. Executors are expected to honor context cancellation and deadlines,
// since the orchestrator threads a per-stage timeout into every call.
package stage

import (
	"context"

	"facecast/internal/jobs"
)

// SpeechRequest carries the inputs of the text-to-speech stage.
type SpeechRequest struct {
	Text        string
	VoiceID     string
	VoicePreset string
	// Language is the normalized ISO 639-1 code.
	Language string
	ModelID  string
	Settings *jobs.VoiceSettings
}

// SpeechResult is the successful output of the text-to-speech stage.
type SpeechResult struct {
	AudioURL string
	// Duration of the synthesized audio in seconds, zero when the vendor
	// does not report it.
	Duration float64
}

// LipsyncRequest carries the inputs of the lip-sync stage. AudioURL is
// derived strictly from the preceding speech stage's output.
type LipsyncRequest struct {
	VideoURL string
	AudioURL string
}

// LipsyncResult is the successful output of the lip-sync stage.
type LipsyncResult struct {
	VideoURL     string
	ThumbnailURL string
	Duration     float64
	FileSize     int64
}

// SpeechSynthesizer converts text into hosted audio.
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, req SpeechRequest) (SpeechResult, error)
}

// LipSyncer produces a lip-synced video from an actor video and audio track.
type LipSyncer interface {
	Sync(ctx context.Context, req LipsyncRequest) (LipsyncResult, error)
}

// Health summarizes the readiness of a workflow stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}

// HealthChecker is implemented by executors that can probe their vendor API.
type HealthChecker interface {
	HealthCheck(ctx context.Context) Health
}
