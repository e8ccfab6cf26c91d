package logging_test

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"facecast/internal/logging"
	"facecast/internal/services"
)

func TestNewJSONLoggerWritesStructuredRecords(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "json",
		OutputPaths:      []string{path},
		ErrorOutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("hello", logging.String("component", "test"))

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(payload, &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, payload)
	}
	if record["msg"] != "hello" || record["level"] != "info" {
		t.Fatalf("unexpected record %#v", record)
	}
	if record["ts"] == nil {
		t.Fatal("timestamp missing")
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.log")
	logger, err := logging.New(logging.Options{
		Level:       "warn",
		Format:      "json",
		OutputPaths: []string{path},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	logger.Info("suppressed")
	logger.Warn("kept")

	payload, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	var record map[string]any
	if err := json.Unmarshal(payload, &record); err != nil {
		t.Fatalf("log line is not JSON: %v (%s)", err, payload)
	}
	if record["msg"] != "kept" {
		t.Fatalf("info record not suppressed: %#v", record)
	}
}

func TestContextFields(t *testing.T) {
	ctx := services.WithJobID(context.Background(), "job-1")
	ctx = services.WithStage(ctx, "text_to_speech")
	ctx = services.WithRequestID(ctx, "req-1")

	fields := logging.ContextFields(ctx)
	got := map[string]string{}
	for _, attr := range fields {
		got[attr.Key] = attr.Value.String()
	}
	want := map[string]string{
		logging.FieldJobID:         "job-1",
		logging.FieldStage:         "text_to_speech",
		logging.FieldCorrelationID: "req-1",
	}
	for key, value := range want {
		if got[key] != value {
			t.Errorf("field %s = %q, want %q", key, got[key], value)
		}
	}

	if fields := logging.ContextFields(context.Background()); len(fields) != 0 {
		t.Fatalf("empty context yielded fields %#v", fields)
	}
}

func TestComponentLoggerIsNilSafe(t *testing.T) {
	logger := logging.NewComponentLogger(nil, "test")
	if logger == nil {
		t.Fatal("nil base must yield a usable logger")
	}
	logger.Info("must not panic")

	if logging.WithContext(context.Background(), nil) == nil {
		t.Fatal("WithContext must substitute a no-op logger")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger must report disabled")
	}
}
