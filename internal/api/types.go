package api

import "facecast/internal/jobs"

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// JobView describes a job record in a transport-friendly format.
type JobView struct {
	JobID       string      `json:"job_id"`
	Status      string      `json:"status"`
	Progress    int         `json:"progress_percentage"`
	CurrentStep string      `json:"current_step,omitempty"`
	Steps       []StepView  `json:"steps"`
	Result      *ResultView `json:"result,omitempty"`
	Error       string      `json:"error,omitempty"`
	ActorID     string      `json:"actor_id,omitempty"`
	CreatedAt   string      `json:"created_at,omitempty"`
	UpdatedAt   string      `json:"updated_at,omitempty"`
	CompletedAt string      `json:"completed_at,omitempty"`
}

// StepView describes one pipeline step of a job.
type StepView struct {
	Step        string              `json:"step"`
	Status      string              `json:"status"`
	StartedAt   string              `json:"started_at,omitempty"`
	CompletedAt string              `json:"completed_at,omitempty"`
	Error       string              `json:"error,omitempty"`
	Audio       *jobs.AudioArtifact `json:"audio,omitempty"`
	Video       *jobs.VideoArtifact `json:"video,omitempty"`
}

// ResultView is the final payload of a completed job.
type ResultView struct {
	AudioURL       string  `json:"audio_url"`
	VideoURL       string  `json:"video_url"`
	ThumbnailURL   string  `json:"thumbnail_url,omitempty"`
	AudioDuration  float64 `json:"audio_duration,omitempty"`
	VideoDuration  float64 `json:"video_duration,omitempty"`
	FileSize       int64   `json:"file_size,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
}

// FinalResultView is the terminal payload returned by the result endpoint.
// It flattens the job's result together with identifying request fields.
type FinalResultView struct {
	JobID          string     `json:"job_id"`
	Status         string     `json:"status"`
	Text           string     `json:"text"`
	ActorID        string     `json:"actor_id"`
	ProjectID      string     `json:"project_id,omitempty"`
	AudioURL       string     `json:"audio_url"`
	VideoURL       string     `json:"video_url"`
	ThumbnailURL   string     `json:"thumbnail_url,omitempty"`
	AudioDuration  float64    `json:"audio_duration,omitempty"`
	VideoDuration  float64    `json:"video_duration,omitempty"`
	FileSize       int64      `json:"file_size,omitempty"`
	ProcessingTime float64    `json:"processing_time,omitempty"`
	CreatedAt      string     `json:"created_at,omitempty"`
	CompletedAt    string     `json:"completed_at,omitempty"`
	Steps          []StepView `json:"steps"`
}

// StageHealth mirrors readiness reporting for workflow stages.
type StageHealth struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

// WorkflowStatus summarizes workflow execution state.
type WorkflowStatus struct {
	Running     bool           `json:"running"`
	JobStats    map[string]int `json:"job_stats"`
	StageHealth []StageHealth  `json:"stage_health"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	StoreBackend string         `json:"store_backend"`
	LockFilePath string         `json:"lock_file_path"`
	Workflow     WorkflowStatus `json:"workflow"`
}

// JobListResponse wraps a collection of jobs for API responses.
type JobListResponse struct {
	Jobs []JobView `json:"jobs"`
}

// ErrorResponse is the uniform error payload of every failing endpoint.
type ErrorResponse struct {
	Error string `json:"error"`
}
