package api_test

import (
	"testing"
	"time"

	"facecast/internal/api"
	"facecast/internal/jobs"
)

func TestFromJob(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	completed := now.Add(5 * time.Second)
	job := &jobs.Job{
		ID:       "job-1",
		Status:   jobs.StatusCompleted,
		Progress: 100,
		Request: jobs.Request{
			Text:          "Hello",
			ActorID:       "actor_1",
			ActorVideoURL: "https://x/a.mp4",
		},
		Result:      &jobs.Result{VideoURL: "https://x/v.mp4", AudioURL: "https://x/a.mp3"},
		CreatedAt:   now,
		UpdatedAt:   completed,
		CompletedAt: &completed,
	}
	job.BeginStep(jobs.StepTextToSpeech)
	job.CompleteStep(jobs.StepTextToSpeech)

	view := api.FromJob(job)
	if view.JobID != "job-1" || view.Status != "completed" || view.Progress != 100 {
		t.Fatalf("unexpected view %#v", view)
	}
	if view.ActorID != "actor_1" {
		t.Fatalf("actor not carried: %q", view.ActorID)
	}
	if view.Result == nil || view.Result.VideoURL != "https://x/v.mp4" {
		t.Fatalf("unexpected result %#v", view.Result)
	}
	if len(view.Steps) != 1 || view.Steps[0].Status != string(jobs.StepCompleted) {
		t.Fatalf("unexpected steps %#v", view.Steps)
	}
	if api.ParseTime(view.CreatedAt).IsZero() {
		t.Fatalf("created timestamp not rendered: %q", view.CreatedAt)
	}
}

func TestFromFinalResultFlattensJobAndResult(t *testing.T) {
	now := time.Now().UTC()
	job := &jobs.Job{
		ID:     "job-1",
		Status: jobs.StatusCompleted,
		Request: jobs.Request{
			Text:      "Hello",
			ActorID:   "actor_1",
			ProjectID: "proj-1",
		},
		CreatedAt:   now,
		CompletedAt: &now,
	}
	result := &jobs.Result{
		AudioURL:       "https://x/a.mp3",
		VideoURL:       "https://x/v.mp4",
		ProcessingTime: 12.5,
	}

	view := api.FromFinalResult(job, result)
	if view.Text != "Hello" || view.ActorID != "actor_1" || view.ProjectID != "proj-1" {
		t.Fatalf("request fields not flattened: %#v", view)
	}
	if view.VideoURL != "https://x/v.mp4" || view.ProcessingTime != 12.5 {
		t.Fatalf("result fields not flattened: %#v", view)
	}
	if view.CompletedAt == "" {
		t.Fatal("completion timestamp missing")
	}
}

func TestSortJobsNewestFirst(t *testing.T) {
	older := api.JobView{JobID: "a", CreatedAt: "2026-03-01T10:00:00.000Z"}
	newer := api.JobView{JobID: "b", CreatedAt: "2026-03-01T11:00:00.000Z"}

	sorted := api.SortJobsNewestFirst([]api.JobView{older, newer})
	if sorted[0].JobID != "b" || sorted[1].JobID != "a" {
		t.Fatalf("unexpected order %#v", sorted)
	}
}
