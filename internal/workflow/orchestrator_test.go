package workflow_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"facecast/internal/jobs"
	"facecast/internal/logging"
	"facecast/internal/services"
	"facecast/internal/stage"
	"facecast/internal/testsupport"
	"facecast/internal/workflow"
)

type fakeSpeech struct {
	calls  atomic.Int32
	result stage.SpeechResult
	err    error
	// block, when non-nil, holds Synthesize until released or the context
	// is canceled.
	block chan struct{}
}

func (f *fakeSpeech) Synthesize(ctx context.Context, req stage.SpeechRequest) (stage.SpeechResult, error) {
	f.calls.Add(1)
	if f.block != nil {
		select {
		case <-ctx.Done():
			return stage.SpeechResult{}, ctx.Err()
		case <-f.block:
		}
	}
	if f.err != nil {
		return stage.SpeechResult{}, f.err
	}
	return f.result, nil
}

type fakeLipsync struct {
	calls  atomic.Int32
	result stage.LipsyncResult
	err    error
}

func (f *fakeLipsync) Sync(ctx context.Context, req stage.LipsyncRequest) (stage.LipsyncResult, error) {
	f.calls.Add(1)
	if f.err != nil {
		return stage.LipsyncResult{}, f.err
	}
	return f.result, nil
}

func newOrchestrator(t *testing.T, speech stage.SpeechSynthesizer, lipsync stage.LipSyncer) (*workflow.Orchestrator, jobs.Store) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	orchestrator := workflow.New(cfg, store, speech, lipsync, logging.NewNop())
	if err := orchestrator.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	t.Cleanup(orchestrator.Stop)
	return orchestrator, store
}

func submitJob(t *testing.T, orchestrator *workflow.Orchestrator) *jobs.Job {
	t.Helper()
	job, err := orchestrator.StartWorkflow(context.Background(), jobs.Request{
		Text:          "Hello world",
		ActorID:       "actor_1",
		ActorVideoURL: "https://x/a.mp4",
		Language:      "english",
		SaveResult:    true,
	})
	if err != nil {
		t.Fatalf("StartWorkflow failed: %v", err)
	}
	if job.Status != jobs.StatusPending {
		t.Fatalf("expected initial status pending, got %s", job.Status)
	}
	return job
}

func waitForTerminal(t *testing.T, store jobs.Store, id string) *jobs.Job {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		job, err := store.Get(context.Background(), id)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if job.Status.IsTerminal() {
			return job
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("job never reached a terminal state")
	return nil
}

func TestWorkflowHappyPath(t *testing.T) {
	speech := &fakeSpeech{result: stage.SpeechResult{AudioURL: "https://x/audio.mp3", Duration: 2.0}}
	lipsync := &fakeLipsync{result: stage.LipsyncResult{
		VideoURL:     "https://x/v.mp4",
		ThumbnailURL: "https://x/v.jpg",
		Duration:     2.2,
		FileSize:     1024,
	}}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	job := submitJob(t, orchestrator)
	final := waitForTerminal(t, store, job.ID)

	if final.Status != jobs.StatusCompleted {
		t.Fatalf("expected completed, got %s (error %q)", final.Status, final.Error)
	}
	if final.Progress != 100 {
		t.Fatalf("expected progress 100, got %d", final.Progress)
	}
	if final.Result == nil || final.Result.VideoURL != "https://x/v.mp4" {
		t.Fatalf("unexpected result %#v", final.Result)
	}
	if final.Result.AudioURL != "https://x/audio.mp3" {
		t.Fatalf("result missing stage-1 audio: %#v", final.Result)
	}
	if final.Error != "" {
		t.Fatalf("completed job carries error %q", final.Error)
	}
	if len(final.Steps) != 2 {
		t.Fatalf("expected two step records, got %d", len(final.Steps))
	}
	for _, step := range final.Steps {
		if step.State != jobs.StepCompleted {
			t.Fatalf("step %s not completed: %s", step.Name, step.State)
		}
	}
	tts := final.StepByName(jobs.StepTextToSpeech)
	if tts.Audio == nil || tts.Audio.URL != "https://x/audio.mp3" {
		t.Fatalf("missing audio artifact: %#v", tts)
	}
	if speech.calls.Load() != 1 || lipsync.calls.Load() != 1 {
		t.Fatalf("unexpected call counts speech=%d lipsync=%d", speech.calls.Load(), lipsync.calls.Load())
	}

	result, err := orchestrator.Result(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Result failed: %v", err)
	}
	if result.VideoURL != "https://x/v.mp4" {
		t.Fatalf("unexpected result payload %#v", result)
	}
}

func TestWorkflowStageOneFailureIsFailFast(t *testing.T) {
	speech := &fakeSpeech{err: services.Wrap(services.ErrVendor, "elevenlabs", "synthesize", "quota exceeded", nil)}
	lipsync := &fakeLipsync{}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	job := submitJob(t, orchestrator)
	final := waitForTerminal(t, store, job.ID)

	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.Error != "quota exceeded" {
		t.Fatalf("unexpected error message %q", final.Error)
	}
	if final.Result != nil {
		t.Fatal("failed job must not carry a result")
	}
	if final.Progress != 10 {
		t.Fatalf("expected progress frozen at 10, got %d", final.Progress)
	}
	if lipsync.calls.Load() != 0 {
		t.Fatalf("stage two must not run after stage one failure, got %d calls", lipsync.calls.Load())
	}
	step := final.StepByName(jobs.StepTextToSpeech)
	if step == nil || step.State != jobs.StepError {
		t.Fatalf("unexpected step record %#v", step)
	}
	if final.StepByName(jobs.StepLipsync) != nil {
		t.Fatal("lipsync step must never be recorded")
	}
}

func TestWorkflowMissingAudioURLFailsBeforeStageTwo(t *testing.T) {
	speech := &fakeSpeech{result: stage.SpeechResult{AudioURL: ""}}
	lipsync := &fakeLipsync{}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	job := submitJob(t, orchestrator)
	final := waitForTerminal(t, store, job.ID)

	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if lipsync.calls.Load() != 0 {
		t.Fatal("stage two must not run without an audio reference")
	}
}

func TestWorkflowStageTwoFailure(t *testing.T) {
	speech := &fakeSpeech{result: stage.SpeechResult{AudioURL: "https://x/audio.mp3"}}
	lipsync := &fakeLipsync{err: services.Wrap(services.ErrVendor, "syncdotso", "sync", "generation rejected", nil)}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	job := submitJob(t, orchestrator)
	final := waitForTerminal(t, store, job.ID)

	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.Error != "generation rejected" {
		t.Fatalf("unexpected error message %q", final.Error)
	}
	if final.Progress != 60 {
		t.Fatalf("expected progress frozen at 60, got %d", final.Progress)
	}
	tts := final.StepByName(jobs.StepTextToSpeech)
	if tts == nil || tts.State != jobs.StepCompleted {
		t.Fatalf("stage one result lost: %#v", tts)
	}
}

func TestResultBeforeCompletion(t *testing.T) {
	speech := &fakeSpeech{block: make(chan struct{})}
	orchestrator, _ := newOrchestrator(t, speech, &fakeLipsync{})

	job := submitJob(t, orchestrator)
	if _, err := orchestrator.Result(context.Background(), job.ID); !errors.Is(err, workflow.ErrNotReady) {
		t.Fatalf("expected ErrNotReady, got %v", err)
	}
	close(speech.block)
}

func TestResultOfFailedJob(t *testing.T) {
	speech := &fakeSpeech{err: errors.New("boom")}
	orchestrator, store := newOrchestrator(t, speech, &fakeLipsync{})

	job := submitJob(t, orchestrator)
	waitForTerminal(t, store, job.ID)

	_, err := orchestrator.Result(context.Background(), job.ID)
	var failed *workflow.FailedError
	if !errors.As(err, &failed) {
		t.Fatalf("expected FailedError, got %v", err)
	}
	if failed.JobID != job.ID {
		t.Fatalf("unexpected job id %q", failed.JobID)
	}
}

func TestResultUnknownJob(t *testing.T) {
	orchestrator, _ := newOrchestrator(t, &fakeSpeech{}, &fakeLipsync{})
	if _, err := orchestrator.Result(context.Background(), "missing"); !errors.Is(err, jobs.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCancelInFlightJob(t *testing.T) {
	speech := &fakeSpeech{block: make(chan struct{})}
	orchestrator, store := newOrchestrator(t, speech, &fakeLipsync{})

	job := submitJob(t, orchestrator)

	// Wait until the stage is actually executing before canceling.
	deadline := time.Now().Add(2 * time.Second)
	for speech.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(2 * time.Millisecond)
	}

	if err := orchestrator.Cancel(context.Background(), job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	final := waitForTerminal(t, store, job.ID)
	if final.Status != jobs.StatusError {
		t.Fatalf("expected error status, got %s", final.Status)
	}
	if final.Error != jobs.CancelReason {
		t.Fatalf("unexpected error message %q", final.Error)
	}
}

func TestCancelOrphanedPendingJob(t *testing.T) {
	orchestrator, store := newOrchestrator(t, &fakeSpeech{}, &fakeLipsync{})

	// A pending record with no goroutine attached, as left behind by a
	// previous daemon on a durable store.
	job := testsupport.NewJob(t, store, "orphan-1")

	if err := orchestrator.Cancel(context.Background(), job.ID); err != nil {
		t.Fatalf("Cancel failed: %v", err)
	}
	final, err := store.Get(context.Background(), job.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if final.Status != jobs.StatusError || final.Error != jobs.CancelReason {
		t.Fatalf("unexpected final state %s %q", final.Status, final.Error)
	}
	if len(final.Steps) != 0 {
		t.Fatalf("canceling a pending job must not invent step records: %#v", final.Steps)
	}
}

func TestCancelTerminalJobRejected(t *testing.T) {
	speech := &fakeSpeech{result: stage.SpeechResult{AudioURL: "https://x/audio.mp3"}}
	lipsync := &fakeLipsync{result: stage.LipsyncResult{VideoURL: "https://x/v.mp4"}}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	job := submitJob(t, orchestrator)
	waitForTerminal(t, store, job.ID)

	if err := orchestrator.Cancel(context.Background(), job.ID); !errors.Is(err, workflow.ErrNotCancelable) {
		t.Fatalf("expected ErrNotCancelable, got %v", err)
	}
}

func TestSubmitBeforeStartRejected(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	orchestrator := workflow.New(cfg, store, &fakeSpeech{}, &fakeLipsync{}, logging.NewNop())

	_, err := orchestrator.StartWorkflow(context.Background(), jobs.Request{Text: "hi"})
	if !errors.Is(err, workflow.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
}

func TestConcurrentJobsAreIsolated(t *testing.T) {
	speech := &fakeSpeech{result: stage.SpeechResult{AudioURL: "https://x/audio.mp3"}}
	lipsync := &fakeLipsync{result: stage.LipsyncResult{VideoURL: "https://x/v.mp4"}}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	first := submitJob(t, orchestrator)
	second := submitJob(t, orchestrator)
	if first.ID == second.ID {
		t.Fatal("expected distinct job ids")
	}

	finalFirst := waitForTerminal(t, store, first.ID)
	finalSecond := waitForTerminal(t, store, second.ID)
	if finalFirst.Status != jobs.StatusCompleted || finalSecond.Status != jobs.StatusCompleted {
		t.Fatalf("expected both completed, got %s and %s", finalFirst.Status, finalSecond.Status)
	}
	if speech.calls.Load() != 2 || lipsync.calls.Load() != 2 {
		t.Fatalf("unexpected call counts speech=%d lipsync=%d", speech.calls.Load(), lipsync.calls.Load())
	}
}

func TestStatusReportsStoreCounts(t *testing.T) {
	speech := &fakeSpeech{result: stage.SpeechResult{AudioURL: "https://x/audio.mp3"}}
	lipsync := &fakeLipsync{result: stage.LipsyncResult{VideoURL: "https://x/v.mp4"}}
	orchestrator, store := newOrchestrator(t, speech, lipsync)

	job := submitJob(t, orchestrator)
	waitForTerminal(t, store, job.ID)

	summary, err := orchestrator.Status(context.Background())
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if !summary.Running {
		t.Fatal("expected running orchestrator")
	}
	if summary.Store.Completed != 1 {
		t.Fatalf("unexpected store summary %#v", summary.Store)
	}
}
