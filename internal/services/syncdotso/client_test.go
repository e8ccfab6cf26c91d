package syncdotso_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"facecast/internal/services"
	"facecast/internal/services/syncdotso"
	"facecast/internal/stage"
)

func TestSyncSubmitsAndPollsToCompletion(t *testing.T) {
	var polls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("x-api-key"); got != "key" {
			t.Fatalf("missing api key header, got %q", got)
		}
		switch {
		case r.Method == http.MethodPost && r.URL.Path == "/v2/generate":
			var payload struct {
				Model string `json:"model"`
				Input []struct {
					Type string `json:"type"`
					URL  string `json:"url"`
				} `json:"input"`
			}
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				t.Fatalf("decode request: %v", err)
			}
			if payload.Model != "lipsync-2" {
				t.Fatalf("unexpected model %q", payload.Model)
			}
			if len(payload.Input) != 2 || payload.Input[0].Type != "video" || payload.Input[1].Type != "audio" {
				t.Fatalf("unexpected input %#v", payload.Input)
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "gen-1", "status": "PROCESSING"})
		case r.Method == http.MethodGet && r.URL.Path == "/v2/generate/gen-1":
			if polls.Add(1) < 2 {
				_ = json.NewEncoder(w).Encode(map[string]any{"id": "gen-1", "status": "PROCESSING"})
				return
			}
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":             "gen-1",
				"status":         "COMPLETED",
				"outputUrl":      "https://x/v.mp4",
				"thumbnailUrl":   "https://x/v.jpg",
				"outputDuration": 2.2,
				"outputFileSize": 2048,
			})
		default:
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer server.Close()

	client := syncdotso.NewClient("key",
		syncdotso.WithBaseURL(server.URL),
		syncdotso.WithPollInterval(time.Millisecond),
	)
	result, err := client.Sync(context.Background(), stage.LipsyncRequest{
		VideoURL: "https://x/a.mp4",
		AudioURL: "https://x/audio.mp3",
	})
	if err != nil {
		t.Fatalf("Sync failed: %v", err)
	}
	if result.VideoURL != "https://x/v.mp4" || result.FileSize != 2048 {
		t.Fatalf("unexpected result %#v", result)
	}
	if polls.Load() < 2 {
		t.Fatalf("expected at least two polls, got %d", polls.Load())
	}
}

func TestSyncFailedGenerationSurfacesVendorError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			_ = json.NewEncoder(w).Encode(map[string]any{"id": "gen-1", "status": "PROCESSING"})
		default:
			_ = json.NewEncoder(w).Encode(map[string]any{
				"id":     "gen-1",
				"status": "FAILED",
				"error":  "face not detected",
			})
		}
	}))
	defer server.Close()

	client := syncdotso.NewClient("key",
		syncdotso.WithBaseURL(server.URL),
		syncdotso.WithPollInterval(time.Millisecond),
	)
	_, err := client.Sync(context.Background(), stage.LipsyncRequest{
		VideoURL: "https://x/a.mp4",
		AudioURL: "https://x/audio.mp3",
	})
	if !errors.Is(err, services.ErrVendor) {
		t.Fatalf("expected vendor error, got %v", err)
	}
	if details := services.Details(err); details.Message != "face not detected" {
		t.Fatalf("unexpected message %q", details.Message)
	}
}

func TestSyncImmediateRejection(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "gen-1", "status": "REJECTED", "error": "invalid input"})
	}))
	defer server.Close()

	client := syncdotso.NewClient("key", syncdotso.WithBaseURL(server.URL))
	_, err := client.Sync(context.Background(), stage.LipsyncRequest{
		VideoURL: "https://x/a.mp4",
		AudioURL: "https://x/audio.mp3",
	})
	if !errors.Is(err, services.ErrVendor) {
		t.Fatalf("expected vendor error, got %v", err)
	}
}

func TestSyncDeadlineMapsToTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "gen-1", "status": "PROCESSING"})
	}))
	defer server.Close()

	client := syncdotso.NewClient("key",
		syncdotso.WithBaseURL(server.URL),
		syncdotso.WithPollInterval(5*time.Millisecond),
	)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err := client.Sync(ctx, stage.LipsyncRequest{
		VideoURL: "https://x/a.mp4",
		AudioURL: "https://x/audio.mp3",
	})
	if !errors.Is(err, services.ErrTimeout) {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestSyncValidation(t *testing.T) {
	client := syncdotso.NewClient("key")
	if _, err := client.Sync(context.Background(), stage.LipsyncRequest{AudioURL: "https://x/a.mp3"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := client.Sync(context.Background(), stage.LipsyncRequest{VideoURL: "https://x/a.mp4"}); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}

	keyless := syncdotso.NewClient("")
	_, err := keyless.Sync(context.Background(), stage.LipsyncRequest{
		VideoURL: "https://x/a.mp4",
		AudioURL: "https://x/a.mp3",
	})
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}
