package workflow

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"facecast/internal/config"
	"facecast/internal/jobs"
	"facecast/internal/language"
	"facecast/internal/logging"
	"facecast/internal/notifications"
	"facecast/internal/stage"
)

// Progress checkpoints reported while a job moves through the pipeline.
// These are coarse UX signals, not measured sub-progress.
const (
	progressTTSStarted     = 10
	progressTTSCompleted   = 50
	progressLipsyncStarted = 60
	progressCompleted      = 100
)

// Orchestrator sequences the pipeline stages and owns all job mutations.
type Orchestrator struct {
	cfg      *config.Config
	store    jobs.Store
	speech   stage.SpeechSynthesizer
	lipsync  stage.LipSyncer
	logger   *slog.Logger
	notifier notifications.Service

	ttsTimeout     time.Duration
	lipsyncTimeout time.Duration

	mu         sync.Mutex
	running    bool
	baseCtx    context.Context
	baseCancel context.CancelFunc
	cancels    map[string]context.CancelFunc
	wg         sync.WaitGroup
}

// Option configures optional Orchestrator behavior.
type Option func(*Orchestrator)

// WithNotifier overrides the notification service (used in tests).
func WithNotifier(notifier notifications.Service) Option {
	return func(o *Orchestrator) {
		if notifier != nil {
			o.notifier = notifier
		}
	}
}

// New constructs a workflow orchestrator.
func New(cfg *config.Config, store jobs.Store, speech stage.SpeechSynthesizer, lipsync stage.LipSyncer, logger *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		cfg:            cfg,
		store:          store,
		speech:         speech,
		lipsync:        lipsync,
		logger:         logging.NewComponentLogger(logger, "workflow"),
		notifier:       notifications.NewService(cfg),
		ttsTimeout:     time.Duration(cfg.Workflow.TTSTimeout) * time.Second,
		lipsyncTimeout: time.Duration(cfg.Workflow.LipsyncTimeout) * time.Second,
		cancels:        make(map[string]context.CancelFunc),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Start makes the orchestrator accept submissions and launches the
// retention janitor. Background jobs derive from ctx: canceling it stops
// everything in flight.
func (o *Orchestrator) Start(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.running {
		return errors.New("workflow already running")
	}
	o.baseCtx, o.baseCancel = context.WithCancel(ctx)
	o.running = true

	if o.cfg.Workflow.RetentionHours > 0 {
		o.wg.Add(1)
		go o.runJanitor(o.baseCtx)
	}
	return nil
}

// Stop cancels all in-flight jobs and waits for their goroutines to settle.
func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return
	}
	o.running = false
	cancel := o.baseCancel
	o.baseCancel = nil
	o.mu.Unlock()

	cancel()
	o.wg.Wait()
}

// StartWorkflow creates a pending job record, schedules background
// execution, and returns the initial snapshot. It never blocks on stage
// execution: submission is decoupled from completion.
func (o *Orchestrator) StartWorkflow(ctx context.Context, request jobs.Request) (*jobs.Job, error) {
	o.mu.Lock()
	if !o.running {
		o.mu.Unlock()
		return nil, ErrNotRunning
	}

	if request.Language == "" {
		request.Language = language.DefaultLanguage
	}

	job := &jobs.Job{
		ID:      uuid.NewString(),
		Status:  jobs.StatusPending,
		Request: request,
	}
	if err := o.store.Create(ctx, job); err != nil {
		o.mu.Unlock()
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(o.baseCtx)
	o.cancels[job.ID] = cancel
	o.wg.Add(1)
	o.mu.Unlock()

	go o.runJob(jobCtx, job.ID)

	return o.store.Get(ctx, job.ID)
}

// Cancel aborts an in-flight job. Terminal jobs cannot be canceled; unknown
// jobs yield jobs.ErrNotFound.
func (o *Orchestrator) Cancel(ctx context.Context, jobID string) error {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status.IsTerminal() {
		return ErrNotCancelable
	}

	o.mu.Lock()
	cancel, ok := o.cancels[jobID]
	o.mu.Unlock()
	if ok {
		cancel()
		return nil
	}

	// No goroutine holds the job (daemon restarted with a durable store).
	// Fail it directly so pollers observe a terminal state.
	_, err = o.store.Update(ctx, jobID, func(j *jobs.Job) error {
		if j.Status.IsTerminal() {
			return ErrNotCancelable
		}
		// A pending job has no step record yet; failing a nameless step
		// would append one.
		if j.CurrentStep != "" {
			j.FailStep(j.CurrentStep, jobs.CancelReason)
		}
		j.SetFailed(jobs.CancelReason)
		return nil
	})
	return err
}

func (o *Orchestrator) releaseJob(jobID string) {
	o.mu.Lock()
	if cancel, ok := o.cancels[jobID]; ok {
		cancel()
		delete(o.cancels, jobID)
	}
	o.mu.Unlock()
	o.wg.Done()
}

// Running reports whether the orchestrator accepts submissions.
func (o *Orchestrator) Running() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.running
}

func (o *Orchestrator) runJanitor(ctx context.Context) {
	defer o.wg.Done()
	interval := time.Duration(o.cfg.Workflow.JanitorInterval) * time.Second
	retention := time.Duration(o.cfg.Workflow.RetentionHours) * time.Hour
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
		cutoff := time.Now().UTC().Add(-retention)
		removed, err := o.store.EvictTerminalBefore(ctx, cutoff)
		if err != nil {
			o.logger.Warn("retention sweep failed",
				logging.Error(err),
				logging.String(logging.FieldEventType, "janitor_sweep_failed"),
				logging.String(logging.FieldErrorHint, "check job store access"),
			)
			continue
		}
		if removed > 0 {
			o.logger.Info("evicted terminal jobs",
				logging.Int64("removed", removed),
				logging.String(logging.FieldEventType, "janitor_sweep"),
			)
		}
	}
}
