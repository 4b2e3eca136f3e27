package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"papercast/internal/logging"
	"papercast/internal/services"
)

func TestNewWritesToFile(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "papercast.log")
	logger, err := logging.New(logging.Options{
		Level:            "info",
		Format:           "console",
		OutputPaths:      []string{logPath},
		ErrorOutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("pipeline started", logging.String("component", "orchestrator"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, "pipeline started") {
		t.Fatalf("expected message in log output, got %q", text)
	}
	if !strings.Contains(text, "orchestrator:") {
		t.Fatalf("expected component prefix in log output, got %q", text)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestWithContextAddsJobFields(t *testing.T) {
	logPath := filepath.Join(t.TempDir(), "papercast.log")
	logger, err := logging.New(logging.Options{
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx := services.WithJobID(t.Context(), "job-42")
	ctx = services.WithStage(ctx, "synthesize")
	logging.WithContext(ctx, logger).Info("stage started")

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	text := string(data)
	if !strings.Contains(text, `"job_id":"job-42"`) {
		t.Fatalf("expected job_id field, got %q", text)
	}
	if !strings.Contains(text, `"stage":"synthesize"`) {
		t.Fatalf("expected stage field, got %q", text)
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Info("ignored")
	logger.Error("also ignored", logging.Error(nil))
}
