package testsupport

import (
	"path/filepath"
	"testing"

	"facecast/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(base, "data")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	cfg.ElevenLabs.APIKey = "test-speech-key"
	cfg.Lipsync.APIKey = "test-lipsync-key"
	cfg.Workflow.RetentionHours = 0

	for _, opt := range opts {
		opt(&cfg)
	}

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// WithStoreBackend selects the job store backend for the test config.
func WithStoreBackend(backend string) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Store.Backend = backend
	}
}

// WithStageTimeouts overrides both stage timeouts, in seconds.
func WithStageTimeouts(tts, lipsync int) ConfigOption {
	return func(cfg *config.Config) {
		cfg.Workflow.TTSTimeout = tts
		cfg.Workflow.LipsyncTimeout = lipsync
	}
}
