package jobs_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"facecast/internal/jobs"
	"facecast/internal/testsupport"
)

// forEachBackend runs the test body against both store backends so the
// memory and SQLite implementations stay behaviorally identical.
func forEachBackend(t *testing.T, body func(t *testing.T, store jobs.Store)) {
	t.Helper()
	for _, backend := range []string{"memory", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithStoreBackend(backend))
			store := testsupport.MustOpenStore(t, cfg)
			body(t, store)
		})
	}
}

func TestStoreCreateAndGet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		created := testsupport.NewJob(t, store, "job-1")

		fetched, err := store.Get(ctx, created.ID)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if fetched.Status != jobs.StatusPending {
			t.Fatalf("unexpected status %s", fetched.Status)
		}
		if fetched.Request.Text != "Hello world" {
			t.Fatalf("request not retained: %#v", fetched.Request)
		}
		if fetched.CreatedAt.IsZero() || fetched.UpdatedAt.IsZero() {
			t.Fatal("expected timestamps to be assigned")
		}
	})
}

func TestStoreCreateRejectsDuplicateID(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		testsupport.NewJob(t, store, "job-1")
		err := store.Create(context.Background(), &jobs.Job{ID: "job-1", Status: jobs.StatusPending})
		if err == nil {
			t.Fatal("expected duplicate create to fail")
		}
	})
}

func TestStoreCreateRejectsMalformedJob(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		if err := store.Create(ctx, nil); !errors.Is(err, jobs.ErrInvalid) {
			t.Fatalf("expected ErrInvalid for nil job, got %v", err)
		}
		if err := store.Create(ctx, &jobs.Job{ID: "  "}); !errors.Is(err, jobs.ErrInvalid) {
			t.Fatalf("expected ErrInvalid for blank id, got %v", err)
		}
	})
}

func TestStoreGetUnknownJob(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		if _, err := store.Get(context.Background(), "missing"); !errors.Is(err, jobs.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestStoreUpdateIsAtomicSnapshot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		testsupport.NewJob(t, store, "job-1")

		updated, err := store.Update(ctx, "job-1", func(j *jobs.Job) error {
			j.Status = jobs.StatusTTSProcessing
			j.BeginStep(jobs.StepTextToSpeech)
			j.Progress = 10
			return nil
		})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Status != jobs.StatusTTSProcessing || updated.Progress != 10 {
			t.Fatalf("unexpected snapshot %s %d", updated.Status, updated.Progress)
		}

		fetched, err := store.Get(ctx, "job-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if fetched.Status != jobs.StatusTTSProcessing || len(fetched.Steps) != 1 {
			t.Fatalf("partial update observed: %s steps=%d", fetched.Status, len(fetched.Steps))
		}
	})
}

func TestStoreUpdateMutatorErrorLeavesRecordUnchanged(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		testsupport.NewJob(t, store, "job-1")

		wantErr := fmt.Errorf("mutation rejected")
		if _, err := store.Update(ctx, "job-1", func(j *jobs.Job) error {
			j.Status = jobs.StatusCompleted
			return wantErr
		}); err == nil {
			t.Fatal("expected mutator error to propagate")
		}

		fetched, err := store.Get(ctx, "job-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if fetched.Status != jobs.StatusPending {
			t.Fatalf("expected record unchanged, got %s", fetched.Status)
		}
	})
}

func TestStoreListFiltersAndOrders(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			testsupport.NewJob(t, store, fmt.Sprintf("job-%d", i))
		}
		if _, err := store.Update(ctx, "job-1", func(j *jobs.Job) error {
			j.Status = jobs.StatusTTSProcessing
			return nil
		}); err != nil {
			t.Fatalf("Update failed: %v", err)
		}

		all, err := store.List(ctx)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(all) != 3 {
			t.Fatalf("expected 3 jobs, got %d", len(all))
		}

		processing, err := store.List(ctx, jobs.StatusTTSProcessing)
		if err != nil {
			t.Fatalf("List failed: %v", err)
		}
		if len(processing) != 1 || processing[0].ID != "job-1" {
			t.Fatalf("unexpected filtered listing %#v", processing)
		}
	})
}

func TestStoreSnapshotsAreIsolated(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		testsupport.NewJob(t, store, "job-1")

		snapshot, err := store.Get(ctx, "job-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		snapshot.Status = jobs.StatusCompleted
		snapshot.Request.Text = "mutated"

		fetched, err := store.Get(ctx, "job-1")
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if fetched.Status != jobs.StatusPending || fetched.Request.Text != "Hello world" {
			t.Fatal("snapshot mutation leaked into the store")
		}
	})
}

func TestStoreClearTerminal(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		testsupport.NewJob(t, store, "job-pending")
		testsupport.NewJob(t, store, "job-done")
		testsupport.NewJob(t, store, "job-failed")

		mustSetStatus(t, store, "job-done", func(j *jobs.Job) {
			j.SetCompleted(jobs.Result{VideoURL: "https://x/v.mp4", AudioURL: "https://x/a.mp3"})
		})
		mustSetStatus(t, store, "job-failed", func(j *jobs.Job) {
			j.SetFailed("boom")
		})

		removed, err := store.ClearTerminal(ctx)
		if err != nil {
			t.Fatalf("ClearTerminal failed: %v", err)
		}
		if removed != 2 {
			t.Fatalf("expected 2 removed, got %d", removed)
		}
		if _, err := store.Get(ctx, "job-pending"); err != nil {
			t.Fatalf("pending job should survive: %v", err)
		}
	})
}

func TestStoreEvictTerminalBefore(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		testsupport.NewJob(t, store, "job-old")
		mustSetStatus(t, store, "job-old", func(j *jobs.Job) {
			j.SetFailed("boom")
		})

		// A cutoff in the past removes nothing.
		removed, err := store.EvictTerminalBefore(ctx, time.Now().UTC().Add(-time.Hour))
		if err != nil {
			t.Fatalf("EvictTerminalBefore failed: %v", err)
		}
		if removed != 0 {
			t.Fatalf("expected nothing evicted, got %d", removed)
		}

		removed, err = store.EvictTerminalBefore(ctx, time.Now().UTC().Add(time.Hour))
		if err != nil {
			t.Fatalf("EvictTerminalBefore failed: %v", err)
		}
		if removed != 1 {
			t.Fatalf("expected 1 evicted, got %d", removed)
		}
	})
}

func TestStoreStats(t *testing.T) {
	forEachBackend(t, func(t *testing.T, store jobs.Store) {
		ctx := context.Background()
		testsupport.NewJob(t, store, "job-1")
		testsupport.NewJob(t, store, "job-2")
		mustSetStatus(t, store, "job-2", func(j *jobs.Job) {
			j.SetFailed("boom")
		})

		stats, err := store.Stats(ctx)
		if err != nil {
			t.Fatalf("Stats failed: %v", err)
		}
		if stats[jobs.StatusPending] != 1 || stats[jobs.StatusError] != 1 {
			t.Fatalf("unexpected stats %#v", stats)
		}

		health, err := jobs.Health(ctx, store)
		if err != nil {
			t.Fatalf("Health failed: %v", err)
		}
		if health.Total != 2 || health.Pending != 1 || health.Errored != 1 {
			t.Fatalf("unexpected health %#v", health)
		}
	})
}

func mustSetStatus(t *testing.T, store jobs.Store, id string, mutate func(*jobs.Job)) {
	t.Helper()
	if _, err := store.Update(context.Background(), id, func(j *jobs.Job) error {
		mutate(j)
		return nil
	}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
}
