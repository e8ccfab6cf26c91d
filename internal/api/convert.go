package api

import (
	"slices"
	"strings"
	"time"

	"facecast/internal/jobs"
	"facecast/internal/workflow"
)

// FromJob converts a job record to its API representation.
func FromJob(job *jobs.Job) JobView {
	if job == nil {
		return JobView{}
	}

	view := JobView{
		JobID:       job.ID,
		Status:      string(job.Status),
		Progress:    job.Progress,
		CurrentStep: job.CurrentStep,
		Error:       job.Error,
		ActorID:     job.Request.ActorID,
		CreatedAt:   FormatTime(job.CreatedAt),
		UpdatedAt:   FormatTime(job.UpdatedAt),
	}
	if job.CompletedAt != nil {
		view.CompletedAt = FormatTime(*job.CompletedAt)
	}

	view.Steps = make([]StepView, 0, len(job.Steps))
	for i := range job.Steps {
		view.Steps = append(view.Steps, fromStep(&job.Steps[i]))
	}
	if job.Result != nil {
		result := FromResult(job.Result)
		view.Result = &result
	}
	return view
}

// FromJobs converts a slice of job records into API DTOs.
func FromJobs(records []*jobs.Job) []JobView {
	if len(records) == 0 {
		return nil
	}
	out := make([]JobView, 0, len(records))
	for _, job := range records {
		out = append(out, FromJob(job))
	}
	return out
}

func fromStep(step *jobs.Step) StepView {
	view := StepView{
		Step:      step.Name,
		Status:    string(step.State),
		StartedAt: FormatTime(step.StartedAt),
		Error:     step.Error,
	}
	if step.CompletedAt != nil {
		view.CompletedAt = FormatTime(*step.CompletedAt)
	}
	if step.Audio != nil {
		audio := *step.Audio
		view.Audio = &audio
	}
	if step.Video != nil {
		video := *step.Video
		view.Video = &video
	}
	return view
}

// FromResult converts a final job result to API payload.
func FromResult(result *jobs.Result) ResultView {
	if result == nil {
		return ResultView{}
	}
	return ResultView{
		AudioURL:       result.AudioURL,
		VideoURL:       result.VideoURL,
		ThumbnailURL:   result.ThumbnailURL,
		AudioDuration:  result.AudioDuration,
		VideoDuration:  result.VideoDuration,
		FileSize:       result.FileSize,
		ProcessingTime: result.ProcessingTime,
	}
}

// FromFinalResult flattens a completed job and its result into the terminal
// response shape. The caller guarantees result is non-nil.
func FromFinalResult(job *jobs.Job, result *jobs.Result) FinalResultView {
	view := FinalResultView{
		JobID:          job.ID,
		Status:         string(job.Status),
		Text:           job.Request.Text,
		ActorID:        job.Request.ActorID,
		ProjectID:      job.Request.ProjectID,
		AudioURL:       result.AudioURL,
		VideoURL:       result.VideoURL,
		ThumbnailURL:   result.ThumbnailURL,
		AudioDuration:  result.AudioDuration,
		VideoDuration:  result.VideoDuration,
		FileSize:       result.FileSize,
		ProcessingTime: result.ProcessingTime,
		CreatedAt:      FormatTime(job.CreatedAt),
	}
	if job.CompletedAt != nil {
		view.CompletedAt = FormatTime(*job.CompletedAt)
	}
	view.Steps = make([]StepView, 0, len(job.Steps))
	for i := range job.Steps {
		view.Steps = append(view.Steps, fromStep(&job.Steps[i]))
	}
	return view
}

// FromStatusSummary converts a workflow status summary to API payload.
func FromStatusSummary(summary workflow.StatusSummary) WorkflowStatus {
	stats := map[string]int{
		"total":      summary.Store.Total,
		"pending":    summary.Store.Pending,
		"processing": summary.Store.Processing,
		"completed":  summary.Store.Completed,
		"error":      summary.Store.Errored,
	}

	health := make([]StageHealth, 0, len(summary.Stages))
	for _, h := range summary.Stages {
		health = append(health, StageHealth{Name: h.Name, Ready: h.Ready, Detail: h.Detail})
	}
	slices.SortFunc(health, func(a, b StageHealth) int {
		return strings.Compare(a.Name, b.Name)
	})

	return WorkflowStatus{
		Running:     summary.Running,
		JobStats:    stats,
		StageHealth: health,
	}
}

// SortJobsNewestFirst orders job views by CreatedAt descending, breaking ties
// by job ID.
func SortJobsNewestFirst(views []JobView) []JobView {
	if len(views) == 0 {
		return nil
	}
	sorted := make([]JobView, len(views))
	copy(sorted, views)
	slices.SortFunc(sorted, func(a, b JobView) int {
		ta := ParseTime(a.CreatedAt)
		tb := ParseTime(b.CreatedAt)
		if ta.Equal(tb) {
			return strings.Compare(b.JobID, a.JobID)
		}
		if ta.After(tb) {
			return -1
		}
		return 1
	})
	return sorted
}

// FormatTime converts a time to RFC3339 or returns empty string.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(dateTimeFormat)
}

// ParseTime parses an API timestamp, returning the zero time on failure.
func ParseTime(value string) time.Time {
	if value == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t
	}
	return time.Time{}
}
