package workflow

import (
	"context"

	"facecast/internal/jobs"
	"facecast/internal/stage"
)

// StatusSummary captures a point-in-time view of the orchestrator and its
// dependencies for the status endpoint and CLI.
type StatusSummary struct {
	Running bool
	Store   jobs.HealthSummary
	Stages  []stage.Health
}

// Status reports orchestrator health, job counts, and per-stage vendor
// readiness. Stage probes run only for executors that expose one.
func (o *Orchestrator) Status(ctx context.Context) (StatusSummary, error) {
	summary := StatusSummary{Running: o.Running()}

	health, err := jobs.Health(ctx, o.store)
	if err != nil {
		return summary, err
	}
	summary.Store = health

	if checker, ok := o.speech.(stage.HealthChecker); ok {
		summary.Stages = append(summary.Stages, checker.HealthCheck(ctx))
	}
	if checker, ok := o.lipsync.(stage.HealthChecker); ok {
		summary.Stages = append(summary.Stages, checker.HealthCheck(ctx))
	}
	return summary, nil
}
