package services_test

import (
	"errors"
	"strings"
	"testing"

	"papercast/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "parse", "download", "fetch failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"parse", "download", "fetch failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestDetailsStripsMarkerPrefix(t *testing.T) {
	err := services.Wrap(services.ErrValidation, "generate", "submit", "source reference required", nil)
	details := services.Details(err)
	if strings.Contains(details.Message, "validation error") {
		t.Fatalf("expected marker stripped, got %q", details.Message)
	}
	if !strings.Contains(details.Message, "source reference required") {
		t.Fatalf("expected message retained, got %q", details.Message)
	}
}

func TestDetailsNil(t *testing.T) {
	details := services.Details(nil)
	if details.Message != "" || details.Cause != nil {
		t.Fatalf("expected empty details, got %#v", details)
	}
}

func TestContextRoundTrip(t *testing.T) {
	ctx := services.WithJobID(t.Context(), "job-1")
	ctx = services.WithStage(ctx, "dialogue")

	if id, ok := services.JobIDFromContext(ctx); !ok || id != "job-1" {
		t.Fatalf("unexpected job id: %q %v", id, ok)
	}
	if stage, ok := services.StageFromContext(ctx); !ok || stage != "dialogue" {
		t.Fatalf("unexpected stage: %q %v", stage, ok)
	}
	if _, ok := services.JobIDFromContext(t.Context()); ok {
		t.Fatal("expected missing job id")
	}
}
