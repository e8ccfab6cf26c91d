package testsupport

import (
	"context"
	"testing"

	"facecast/internal/config"
	"facecast/internal/jobs"
)

// MustOpenStore opens a job store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) jobs.Store {
	t.Helper()

	store, err := jobs.OpenStore(cfg)
	if err != nil {
		t.Fatalf("jobs.OpenStore: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// NewJob creates a pending job with a minimal valid request.
func NewJob(t testing.TB, store jobs.Store, id string) *jobs.Job {
	t.Helper()

	job := &jobs.Job{
		ID:     id,
		Status: jobs.StatusPending,
		Request: jobs.Request{
			Text:          "Hello world",
			ActorID:       "actor_1",
			ActorVideoURL: "https://example.com/actor.mp4",
			Language:      "english",
			SaveResult:    true,
		},
	}
	if err := store.Create(context.Background(), job); err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return job
}
