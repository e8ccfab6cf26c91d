package workflow

import (
	"context"

	"facecast/internal/jobs"
)

// Result returns the final payload of a completed job. Jobs still moving
// through the pipeline yield ErrNotReady; an errored job surfaces its
// recorded failure message.
func (o *Orchestrator) Result(ctx context.Context, jobID string) (*jobs.Result, error) {
	job, err := o.store.Get(ctx, jobID)
	if err != nil {
		return nil, err
	}

	switch job.Status {
	case jobs.StatusCompleted:
		if job.Result == nil {
			return nil, ErrMissingResult
		}
		result := *job.Result
		return &result, nil
	case jobs.StatusError:
		return nil, &FailedError{JobID: job.ID, Message: job.Error}
	default:
		return nil, ErrNotReady
	}
}
