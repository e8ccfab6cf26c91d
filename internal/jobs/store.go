package jobs

import (
	"context"
	"fmt"
	"time"

	"facecast/internal/config"
)

// Store is the concurrency-safe registry of workflow jobs.
//
// Update applies the mutator under a single critical section per job: a
// concurrent Get never observes a record with some fields of a transition
// applied and others stale. Get and List return deep-copied snapshots.
type Store interface {
	Create(ctx context.Context, job *Job) error
	Get(ctx context.Context, id string) (*Job, error)
	Update(ctx context.Context, id string, mutate func(*Job) error) (*Job, error)
	List(ctx context.Context, statuses ...Status) ([]*Job, error)
	Stats(ctx context.Context) (map[Status]int, error)
	Remove(ctx context.Context, id string) (bool, error)
	ClearTerminal(ctx context.Context) (int64, error)
	// EvictTerminalBefore removes completed and errored jobs whose last
	// update precedes the cutoff. Used by the retention janitor.
	EvictTerminalBefore(ctx context.Context, cutoff time.Time) (int64, error)
	Close() error
}

// HealthSummary describes aggregated job counts per key lifecycle states.
type HealthSummary struct {
	Total      int
	Pending    int
	Processing int
	Completed  int
	Errored    int
}

// Health aggregates store state for diagnostic output.
func Health(ctx context.Context, store Store) (HealthSummary, error) {
	stats, err := store.Stats(ctx)
	if err != nil {
		return HealthSummary{}, err
	}
	health := HealthSummary{}
	for status, count := range stats {
		health.Total += count
		switch {
		case status == StatusPending:
			health.Pending += count
		case status == StatusCompleted:
			health.Completed += count
		case status == StatusError:
			health.Errored += count
		case status.IsProcessing() || status == StatusTTSCompleted:
			health.Processing += count
		}
	}
	return health, nil
}

// OpenStore builds the store backend selected by config.
func OpenStore(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return OpenSQLite(cfg)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
