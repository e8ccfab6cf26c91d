package jobs

import (
	"fmt"
	"strings"
	"time"
)

// Status represents the lifecycle of a workflow job.
type Status string

const (
	StatusPending           Status = "pending"
	StatusTTSProcessing     Status = "tts_processing"
	StatusTTSCompleted      Status = "tts_completed"
	StatusLipsyncProcessing Status = "lipsync_processing"
	StatusCompleted         Status = "completed"
	StatusError             Status = "error"
)

// CancelReason is the error message set when a user explicitly cancels a job.
const CancelReason = "Canceled by user"

// ShutdownReason is the error message set when in-flight jobs are failed due
// to daemon shutdown.
const ShutdownReason = "Daemon stopped"

var allStatuses = []Status{
	StatusPending,
	StatusTTSProcessing,
	StatusTTSCompleted,
	StatusLipsyncProcessing,
	StatusCompleted,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

var processingStatuses = map[Status]struct{}{
	StatusTTSProcessing:     {},
	StatusLipsyncProcessing: {},
}

// statusRank orders statuses along the happy path so regressions can be
// rejected. StatusError is reachable from any non-terminal status.
var statusRank = map[Status]int{
	StatusPending:           0,
	StatusTTSProcessing:     1,
	StatusTTSCompleted:      2,
	StatusLipsyncProcessing: 3,
	StatusCompleted:         4,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status is final.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusError
}

// IsProcessing reports whether a status reflects an in-flight stage.
func (s Status) IsProcessing() bool {
	_, ok := processingStatuses[s]
	return ok
}

// CanTransition reports whether moving from s to next is a legal state
// machine edge. Errors are reachable from any non-terminal state; otherwise
// the status must advance along the pipeline.
func (s Status) CanTransition(next Status) bool {
	if s.IsTerminal() {
		return false
	}
	if next == StatusError {
		return true
	}
	from, okFrom := statusRank[s]
	to, okTo := statusRank[next]
	if !okFrom || !okTo {
		return false
	}
	return to == from+1
}

// Pipeline stage names. These appear in step records and in API payloads.
const (
	StepTextToSpeech = "text_to_speech"
	StepLipsync      = "lipsync"
)

// StepState is the lifecycle of a single pipeline step.
type StepState string

const (
	StepProcessing StepState = "processing"
	StepCompleted  StepState = "completed"
	StepError      StepState = "error"
)

// AudioArtifact is the typed output of the text-to-speech stage.
type AudioArtifact struct {
	URL      string  `json:"url"`
	Duration float64 `json:"duration,omitempty"`
}

// VideoArtifact is the typed output of the lip-sync stage.
type VideoArtifact struct {
	URL          string  `json:"url"`
	ThumbnailURL string  `json:"thumbnail_url,omitempty"`
	Duration     float64 `json:"duration,omitempty"`
	FileSize     int64   `json:"file_size,omitempty"`
}

// Step records the execution of one pipeline stage. Exactly one step is
// appended per stage; it is then mutated in place to reflect completion or
// failure, never appended again.
type Step struct {
	Name        string         `json:"step"`
	State       StepState      `json:"status"`
	StartedAt   time.Time      `json:"started_at"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
	Audio       *AudioArtifact `json:"audio,omitempty"`
	Video       *VideoArtifact `json:"video,omitempty"`
}

// VoiceSettings tunes the text-to-speech voice.
type VoiceSettings struct {
	Stability       float64 `json:"stability,omitempty"`
	SimilarityBoost float64 `json:"similarity_boost,omitempty"`
	Style           float64 `json:"style,omitempty"`
	SpeakerBoost    bool    `json:"speaker_boost,omitempty"`
}

// Request is the validated workflow submission retained on the job record
// for traceability. It is not re-validated after acceptance.
type Request struct {
	Text          string         `json:"text"`
	ActorID       string         `json:"actor_id"`
	ActorVideoURL string         `json:"actor_video_url"`
	ProjectID     string         `json:"project_id,omitempty"`
	VoiceID       string         `json:"voice_id,omitempty"`
	VoicePreset   string         `json:"voice_preset,omitempty"`
	Language      string         `json:"language,omitempty"`
	ModelID       string         `json:"model_id,omitempty"`
	VoiceSettings *VoiceSettings `json:"voice_settings,omitempty"`
	SaveResult    bool           `json:"save_result"`
	UserID        string         `json:"user_id,omitempty"`
	WorkspaceID   string         `json:"workspace_id,omitempty"`
}

// Result is the assembled terminal payload, populated only when the job
// reaches StatusCompleted and immutable afterwards.
type Result struct {
	AudioURL       string  `json:"audio_url"`
	VideoURL       string  `json:"video_url"`
	ThumbnailURL   string  `json:"thumbnail_url,omitempty"`
	AudioDuration  float64 `json:"audio_duration,omitempty"`
	VideoDuration  float64 `json:"video_duration,omitempty"`
	FileSize       int64   `json:"file_size,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

// Job is the aggregate root of the orchestration core. Result and Error are
// mutually exclusive for the lifetime of a job, and Progress reaches 100
// exactly when Status is StatusCompleted.
type Job struct {
	ID          string     `json:"job_id"`
	Status      Status     `json:"status"`
	Request     Request    `json:"request"`
	Steps       []Step     `json:"steps"`
	CurrentStep string     `json:"current_step,omitempty"`
	Progress    int        `json:"progress_percentage"`
	Result      *Result    `json:"result,omitempty"`
	Error       string     `json:"error,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
}

// Clone returns a deep copy of the job so callers cannot mutate stored state.
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}
	cp := *j
	cp.Steps = make([]Step, len(j.Steps))
	copy(cp.Steps, j.Steps)
	for i := range cp.Steps {
		if a := cp.Steps[i].Audio; a != nil {
			audio := *a
			cp.Steps[i].Audio = &audio
		}
		if v := cp.Steps[i].Video; v != nil {
			video := *v
			cp.Steps[i].Video = &video
		}
		if t := cp.Steps[i].CompletedAt; t != nil {
			at := *t
			cp.Steps[i].CompletedAt = &at
		}
	}
	if j.Result != nil {
		result := *j.Result
		cp.Result = &result
	}
	if j.Request.VoiceSettings != nil {
		settings := *j.Request.VoiceSettings
		cp.Request.VoiceSettings = &settings
	}
	if j.CompletedAt != nil {
		at := *j.CompletedAt
		cp.CompletedAt = &at
	}
	return &cp
}

// Transition advances the job's status along the state machine, rejecting
// edges CanTransition does not allow. The orchestrator routes every
// non-terminal status change through here so a stale or concurrently
// mutated record cannot regress.
func (j *Job) Transition(next Status) error {
	if !j.Status.CanTransition(next) {
		return fmt.Errorf("illegal status transition %s -> %s", j.Status, next)
	}
	j.Status = next
	return nil
}

// StepByName returns the step record for a stage, or nil if the stage has
// not started.
func (j *Job) StepByName(name string) *Step {
	for i := range j.Steps {
		if j.Steps[i].Name == name {
			return &j.Steps[i]
		}
	}
	return nil
}

// BeginStep appends a processing step record and marks it current. Calling
// it twice for the same stage is a programming error guarded by the
// append-once invariant; the existing record is returned unchanged.
func (j *Job) BeginStep(name string) *Step {
	if existing := j.StepByName(name); existing != nil {
		return existing
	}
	j.Steps = append(j.Steps, Step{
		Name:      name,
		State:     StepProcessing,
		StartedAt: time.Now().UTC(),
	})
	j.CurrentStep = name
	return &j.Steps[len(j.Steps)-1]
}

// CompleteStep marks a stage's step record completed.
func (j *Job) CompleteStep(name string) *Step {
	step := j.StepByName(name)
	if step == nil {
		return nil
	}
	now := time.Now().UTC()
	step.State = StepCompleted
	step.CompletedAt = &now
	return step
}

// FailStep marks a stage's step record failed with the given message.
func (j *Job) FailStep(name, message string) *Step {
	step := j.StepByName(name)
	if step == nil {
		step = j.BeginStep(name)
	}
	now := time.Now().UTC()
	step.State = StepError
	step.CompletedAt = &now
	step.Error = message
	return step
}

// SetFailed transitions the job to the terminal error state. Progress is
// frozen where it was; the current step marker is cleared.
func (j *Job) SetFailed(message string) {
	now := time.Now().UTC()
	j.Status = StatusError
	j.Error = message
	j.Result = nil
	j.CurrentStep = ""
	j.CompletedAt = &now
}

// SetCompleted transitions the job to the terminal completed state with its
// assembled result.
func (j *Job) SetCompleted(result Result) {
	now := time.Now().UTC()
	j.Status = StatusCompleted
	j.Result = &result
	j.Error = ""
	j.CurrentStep = ""
	j.Progress = 100
	j.CompletedAt = &now
}
