package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"papercast/internal/api"
)

func TestStageLabel(t *testing.T) {
	cases := []struct {
		key  string
		want string
	}{
		{"", "-"},
		{"parse", "Parse"},
		{"postprocess", "Postprocess"},
		{"related_work", "Related Work"},
	}
	for _, tc := range cases {
		if got := stageLabel(tc.key); got != tc.want {
			t.Errorf("stageLabel(%q) = %q, want %q", tc.key, got, tc.want)
		}
	}
}

func TestFormatSnapshotLinePrefersErrorText(t *testing.T) {
	snap := api.SnapshotPayload{
		Status:   "error",
		Progress: 0.4,
		Stage:    "dialogue",
		Message:  "Generating dialogue failed",
		Error:    "Generating dialogue failed: backend unavailable",
	}
	line := formatSnapshotLine(snap)
	if !strings.Contains(line, "backend unavailable") {
		t.Fatalf("error detail missing from line: %q", line)
	}
	if !strings.Contains(line, "40%") {
		t.Fatalf("progress missing from line: %q", line)
	}
}

type fakeStreamer struct {
	snaps []api.SnapshotPayload
}

func (f *fakeStreamer) Stream(_ context.Context, _ string, handle func(api.SnapshotPayload) error) error {
	for _, snap := range f.snaps {
		if err := handle(snap); err != nil {
			return err
		}
	}
	return nil
}

func newCaptureCommand() (*cobra.Command, *bytes.Buffer) {
	var out bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetContext(context.Background())
	return cmd, &out
}

func TestWatchJobSucceedsOnDone(t *testing.T) {
	cmd, out := newCaptureCommand()
	streamer := &fakeStreamer{snaps: []api.SnapshotPayload{
		{JobID: "job-1", Status: "running", Progress: 0.5, Stage: "dialogue", Message: "Generating dialogue"},
		{JobID: "job-1", Status: "done", Progress: 1.0, Message: "Completed", Result: &api.ResultPayload{AudioRef: "job-1.wav"}},
	}}

	if err := watchJob(cmd, streamer, "job-1"); err != nil {
		t.Fatalf("watchJob failed: %v", err)
	}
	if !strings.Contains(out.String(), "job-1.wav") {
		t.Fatalf("audio artifact missing from output: %q", out.String())
	}
}

func TestWatchJobReportsFailure(t *testing.T) {
	cmd, _ := newCaptureCommand()
	streamer := &fakeStreamer{snaps: []api.SnapshotPayload{
		{JobID: "job-1", Status: "running", Progress: 0.2},
		{JobID: "job-1", Status: "error", Progress: 0.2, Error: "Parsing paper failed: paper: download"},
	}}

	err := watchJob(cmd, streamer, "job-1")
	if err == nil || !strings.Contains(err.Error(), "Parsing paper failed") {
		t.Fatalf("expected failure error, got %v", err)
	}
}

func TestWatchJobRejectsTruncatedStream(t *testing.T) {
	cmd, _ := newCaptureCommand()
	streamer := &fakeStreamer{snaps: []api.SnapshotPayload{
		{JobID: "job-1", Status: "running", Progress: 0.2},
	}}

	if err := watchJob(cmd, streamer, "job-1"); err == nil {
		t.Fatal("expected error when stream ends before a terminal snapshot")
	}
}

func TestJobsCommandRendersTable(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		json.NewEncoder(w).Encode([]api.SnapshotPayload{
			{JobID: "job-1", Status: "done", Progress: 1.0, Stage: "postprocess",
				Result: &api.ResultPayload{Title: "Learning to See"}},
		})
	}))
	defer ts.Close()

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"jobs", "--api", ts.URL})

	if err := root.Execute(); err != nil {
		t.Fatalf("jobs command failed: %v", err)
	}
	for _, want := range []string{"job-1", "done", "Learning to See"} {
		if !strings.Contains(out.String(), want) {
			t.Fatalf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestConfigShowPrintsDefaults(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"config", "show", "--config", filepath.Join(t.TempDir(), "missing.toml")})

	if err := root.Execute(); err != nil {
		t.Fatalf("config show failed: %v", err)
	}
	rendered := out.String()
	if !strings.Contains(rendered, "File not found") {
		t.Fatalf("expected defaults notice, got:\n%s", rendered)
	}
	if !strings.Contains(rendered, "[paths]") {
		t.Fatalf("expected toml sections, got:\n%s", rendered)
	}
}
