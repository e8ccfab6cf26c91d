package preflight

import (
	"context"
	"time"

	"facecast/internal/config"
	"facecast/internal/services/elevenlabs"
	"facecast/internal/services/syncdotso"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckFreeSpace("Data directory space", cfg.Paths.DataDir, minFreeBytes),
		CheckSpeechAPI(ctx, cfg),
		CheckLipsyncAPI(ctx, cfg),
	}
	return results
}

// Passed reports whether every check in the set succeeded.
func Passed(results []Result) bool {
	for _, result := range results {
		if !result.Passed {
			return false
		}
	}
	return true
}

// CheckSpeechAPI verifies that the speech vendor is reachable and the key
// is valid. Single attempt, bounded timeout.
func CheckSpeechAPI(ctx context.Context, cfg *config.Config) Result {
	const name = "Speech API"
	if cfg.ElevenLabs.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := elevenlabs.NewClient(cfg.ElevenLabs.APIKey,
		elevenlabs.WithBaseURL(cfg.ElevenLabs.BaseURL),
	)
	health := client.HealthCheck(checkCtx)
	if !health.Ready {
		return Result{Name: name, Detail: health.Detail}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}

// CheckLipsyncAPI verifies that the lip-sync vendor is reachable and the key
// is valid.
func CheckLipsyncAPI(ctx context.Context, cfg *config.Config) Result {
	const name = "Lipsync API"
	if cfg.Lipsync.APIKey == "" {
		return Result{Name: name, Detail: "API key missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	client := syncdotso.NewClient(cfg.Lipsync.APIKey,
		syncdotso.WithBaseURL(cfg.Lipsync.BaseURL),
	)
	health := client.HealthCheck(checkCtx)
	if !health.Ready {
		return Result{Name: name, Detail: health.Detail}
	}
	return Result{Name: name, Passed: true, Detail: "API reachable"}
}
