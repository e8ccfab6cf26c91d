package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"facecast/internal/jobs"
	"facecast/internal/language"
	"facecast/internal/logging"
	"facecast/internal/services"
	"facecast/internal/stage"
)

// runJob executes both pipeline stages for one job. Stages run sequentially
// in this goroutine; every transition is persisted before the next stage
// begins, so stage two never starts before stage one's success is durable.
func (o *Orchestrator) runJob(ctx context.Context, jobID string) {
	defer o.releaseJob(jobID)

	started := time.Now()
	ctx = services.WithJobID(ctx, jobID)
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, o.logger)

	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		logger.Error("failed to load job for execution", logging.Error(err))
		return
	}

	speechResult, ok := o.runSpeechStage(ctx, logger, job)
	if !ok {
		return
	}

	o.runLipsyncStage(ctx, logger, job, speechResult, started)
}

func (o *Orchestrator) runSpeechStage(ctx context.Context, logger *slog.Logger, job *jobs.Job) (stage.SpeechResult, bool) {
	var empty stage.SpeechResult
	stageCtx := services.WithStage(ctx, jobs.StepTextToSpeech)
	stageLogger := logging.WithContext(stageCtx, logger)
	stageStart := time.Now()

	if _, err := o.store.Update(stageCtx, job.ID, func(j *jobs.Job) error {
		if err := j.Transition(jobs.StatusTTSProcessing); err != nil {
			return err
		}
		j.BeginStep(jobs.StepTextToSpeech)
		j.Progress = progressTTSStarted
		return nil
	}); err != nil {
		stageLogger.Error("failed to persist processing transition", logging.Error(err))
		return empty, false
	}
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("actor_id", job.Request.ActorID),
	)

	req := stage.SpeechRequest{
		Text:        job.Request.Text,
		VoiceID:     job.Request.VoiceID,
		VoicePreset: job.Request.VoicePreset,
		Language:    language.ToISO2(job.Request.Language),
		ModelID:     job.Request.ModelID,
		Settings:    job.Request.VoiceSettings,
	}

	execCtx, cancel := context.WithTimeout(stageCtx, o.ttsTimeout)
	result, err := o.speech.Synthesize(execCtx, req)
	cancel()
	if err != nil {
		o.failJob(stageCtx, stageLogger, job, jobs.StepTextToSpeech, err)
		return empty, false
	}
	if strings.TrimSpace(result.AudioURL) == "" {
		// No usable audio reference means the whole workflow is dead;
		// stage two must not be attempted.
		o.failJob(stageCtx, stageLogger, job, jobs.StepTextToSpeech,
			services.Wrap(services.ErrVendor, jobs.StepTextToSpeech, "synthesize", "no audio reference produced", nil))
		return empty, false
	}

	if _, err := o.store.Update(stageCtx, job.ID, func(j *jobs.Job) error {
		if err := j.Transition(jobs.StatusTTSCompleted); err != nil {
			return err
		}
		step := j.CompleteStep(jobs.StepTextToSpeech)
		if step != nil {
			step.Audio = &jobs.AudioArtifact{URL: result.AudioURL, Duration: result.Duration}
		}
		j.Progress = progressTTSCompleted
		return nil
	}); err != nil {
		stageLogger.Error("failed to persist stage result", logging.Error(err))
		return empty, false
	}
	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return result, true
}

func (o *Orchestrator) runLipsyncStage(ctx context.Context, logger *slog.Logger, job *jobs.Job, speech stage.SpeechResult, started time.Time) {
	stageCtx := services.WithStage(ctx, jobs.StepLipsync)
	stageLogger := logging.WithContext(stageCtx, logger)
	stageStart := time.Now()

	if _, err := o.store.Update(stageCtx, job.ID, func(j *jobs.Job) error {
		if err := j.Transition(jobs.StatusLipsyncProcessing); err != nil {
			return err
		}
		j.BeginStep(jobs.StepLipsync)
		j.Progress = progressLipsyncStarted
		return nil
	}); err != nil {
		stageLogger.Error("failed to persist processing transition", logging.Error(err))
		return
	}
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
	)

	execCtx, cancel := context.WithTimeout(stageCtx, o.lipsyncTimeout)
	result, err := o.lipsync.Sync(execCtx, stage.LipsyncRequest{
		VideoURL: job.Request.ActorVideoURL,
		AudioURL: speech.AudioURL,
	})
	cancel()
	if err != nil {
		o.failJob(stageCtx, stageLogger, job, jobs.StepLipsync, err)
		return
	}

	processing := time.Since(started)
	finalResult := jobs.Result{
		AudioURL:       speech.AudioURL,
		VideoURL:       result.VideoURL,
		ThumbnailURL:   result.ThumbnailURL,
		AudioDuration:  speech.Duration,
		VideoDuration:  result.Duration,
		FileSize:       result.FileSize,
		ProcessingTime: processing.Seconds(),
	}
	if _, err := o.store.Update(stageCtx, job.ID, func(j *jobs.Job) error {
		step := j.CompleteStep(jobs.StepLipsync)
		if step != nil {
			step.Video = &jobs.VideoArtifact{
				URL:          result.VideoURL,
				ThumbnailURL: result.ThumbnailURL,
				Duration:     result.Duration,
				FileSize:     result.FileSize,
			}
		}
		j.SetCompleted(finalResult)
		return nil
	}); err != nil {
		stageLogger.Error("failed to persist stage result", logging.Error(err))
		return
	}

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	stageLogger.Info("workflow completed",
		logging.String(logging.FieldEventType, "workflow_complete"),
		logging.Duration("processing_time", processing),
	)
	if err := o.notifier.NotifyJobCompleted(context.WithoutCancel(stageCtx), job.ID, job.Request.ActorID, processing); err != nil {
		stageLogger.Debug("completion notification failed", logging.Error(err))
	}
}

// failJob records a stage failure and moves the job to its terminal error
// state in one store transition, so pollers never see the step failed while
// the job still reads as processing.
func (o *Orchestrator) failJob(ctx context.Context, logger *slog.Logger, job *jobs.Job, stageName string, stageErr error) {
	message := o.classifyStageFailure(stageName, stageErr)

	// Cancellation is not a vendor failure; surface the reason the job
	// stopped instead of a bare context error.
	if errors.Is(stageErr, context.Canceled) {
		message = jobs.ShutdownReason
		if o.Running() {
			message = jobs.CancelReason
		}
	}

	details := services.Details(stageErr)
	logger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("error_kind", details.Kind),
		logging.String("error_message", message),
		logging.Error(stageErr),
	)

	updateCtx := context.WithoutCancel(ctx)
	if _, err := o.store.Update(updateCtx, job.ID, func(j *jobs.Job) error {
		j.FailStep(stageName, message)
		j.SetFailed(message)
		return nil
	}); err != nil {
		logger.Error("failed to persist stage failure", logging.Error(err))
	}

	if err := o.notifier.NotifyJobFailed(updateCtx, job.ID, stageName, message); err != nil {
		logger.Debug("failure notification failed", logging.Error(err))
	}
}

func (o *Orchestrator) classifyStageFailure(stageName string, stageErr error) string {
	if stageErr == nil {
		return stageName + " failed without error detail"
	}
	details := services.Details(stageErr)
	message := strings.TrimSpace(details.Message)
	if message == "" {
		message = strings.TrimSpace(stageErr.Error())
	}
	if message == "" {
		message = stageName + " failed"
	}
	return message
}
