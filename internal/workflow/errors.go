package workflow

import "errors"

// ErrNotRunning is returned when work is submitted before Start or after Stop.
var ErrNotRunning = errors.New("workflow not running")

// ErrNotReady is returned when a final result is requested for a job that
// has not completed.
var ErrNotReady = errors.New("job not completed")

// ErrMissingResult indicates a job reported completed with no result
// payload. This is an internal consistency violation, surfaced as a server
// defect rather than an empty success.
var ErrMissingResult = errors.New("job completed without result payload")

// ErrNotCancelable is returned when canceling a job that already reached a
// terminal state.
var ErrNotCancelable = errors.New("job already terminal")

// FailedError reports that a job reached its terminal error state, carrying
// the failure message recorded on the job.
type FailedError struct {
	JobID   string
	Message string
}

func (e *FailedError) Error() string {
	if e.Message == "" {
		return "job " + e.JobID + " failed"
	}
	return "job " + e.JobID + " failed: " + e.Message
}
