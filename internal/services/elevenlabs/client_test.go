package elevenlabs_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"facecast/internal/services"
	"facecast/internal/services/elevenlabs"
	"facecast/internal/stage"
)

func TestSynthesizeSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("xi-api-key"); got != "key" {
			t.Fatalf("missing api key header, got %q", got)
		}
		var payload map[string]any
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if payload["text"] != "Hello world" {
			t.Fatalf("unexpected text %v", payload["text"])
		}
		if payload["model_id"] != "eleven_multilingual_v2" {
			t.Fatalf("unexpected model %v", payload["model_id"])
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":           "success",
			"audio_url":        "https://x/audio.mp3",
			"duration_seconds": 2.5,
		})
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	result, err := client.Synthesize(context.Background(), stage.SpeechRequest{
		Text:    "Hello world",
		VoiceID: "voice-1",
	})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if result.AudioURL != "https://x/audio.mp3" || result.Duration != 2.5 {
		t.Fatalf("unexpected result %#v", result)
	}
}

func TestSynthesizeFallsBackToBlobURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":   "success",
			"blob_url": "https://x/blob.mp3",
		})
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	result, err := client.Synthesize(context.Background(), stage.SpeechRequest{Text: "hi", VoiceID: "v"})
	if err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if result.AudioURL != "https://x/blob.mp3" {
		t.Fatalf("expected blob url fallback, got %q", result.AudioURL)
	}
}

func TestSynthesizeMissingAudioURLIsVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"status": "success"})
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), stage.SpeechRequest{Text: "hi", VoiceID: "v"})
	if !errors.Is(err, services.ErrVendor) {
		t.Fatalf("expected vendor error, got %v", err)
	}
}

func TestSynthesizeVendorFailureSurfacesMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "error",
			"error":  "voice not found",
		})
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), stage.SpeechRequest{Text: "hi", VoiceID: "v"})
	if !errors.Is(err, services.ErrVendor) {
		t.Fatalf("expected vendor error, got %v", err)
	}
	if details := services.Details(err); details.Message != "voice not found" {
		t.Fatalf("unexpected message %q", details.Message)
	}
}

func TestSynthesizeHTTPErrorIncludesBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	_, err := client.Synthesize(context.Background(), stage.SpeechRequest{Text: "hi", VoiceID: "v"})
	if !errors.Is(err, services.ErrVendor) {
		t.Fatalf("expected vendor error, got %v", err)
	}
}

func TestSynthesizeValidation(t *testing.T) {
	client := elevenlabs.NewClient("key")
	if _, err := client.Synthesize(context.Background(), stage.SpeechRequest{Text: "  "}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	keyless := elevenlabs.NewClient("")
	if _, err := keyless.Synthesize(context.Background(), stage.SpeechRequest{Text: "hi", VoiceID: "v"}); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestSynthesizeResolvesVoicePreset(t *testing.T) {
	var gotPath string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		_ = json.NewEncoder(w).Encode(map[string]any{"audio_url": "https://x/a.mp3"})
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	if _, err := client.Synthesize(context.Background(), stage.SpeechRequest{Text: "hi", VoicePreset: "narrator"}); err != nil {
		t.Fatalf("Synthesize failed: %v", err)
	}
	if gotPath != "/v1/text-to-speech/onwK4e9ZLuTAKqWW03F9" {
		t.Fatalf("preset not resolved, path %s", gotPath)
	}
}

func TestVoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/voices" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"voices": []map[string]string{
				{"voice_id": "v1", "name": "Alpha", "category": "premade"},
			},
		})
	}))
	defer server.Close()

	client := elevenlabs.NewClient("key", elevenlabs.WithBaseURL(server.URL))
	voices, err := client.Voices(context.Background())
	if err != nil {
		t.Fatalf("Voices failed: %v", err)
	}
	if len(voices) != 1 || voices[0].VoiceID != "v1" {
		t.Fatalf("unexpected voices %#v", voices)
	}
}
