package api_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"papercast/internal/api"
	"papercast/internal/paper"
	"papercast/internal/pipeline"
	"papercast/internal/progress"
	"papercast/internal/testsupport"
)

type fixture struct {
	ts        *httptest.Server
	outputDir string
}

func newFixture(t *testing.T, build pipeline.Builder) *fixture {
	t.Helper()

	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	hub := progress.NewHub(64)
	orch := pipeline.NewOrchestrator(store, hub, nil, filepath.Join(t.TempDir(), "work"), build)
	t.Cleanup(orch.Close)

	server, err := api.NewServer(api.Config{
		OutputDir: cfg.Paths.OutputDir,
		Store:     store,
		Hub:       hub,
		Submitter: orch,
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}

	ts := httptest.NewServer(server.Handler())
	t.Cleanup(ts.Close)
	return &fixture{ts: ts, outputDir: cfg.Paths.OutputDir}
}

// quickBuilder finishes jobs almost immediately and records a transcript.
func quickBuilder() pipeline.Builder {
	return func(pipeline.Request) ([]pipeline.Stage, error) {
		return []pipeline.Stage{
			{
				Key: "parse", Label: "Parsing", WeightStart: 0, WeightEnd: 0.5,
				Runner: pipeline.RunnerFunc(func(_ context.Context, pctx *pipeline.Context, _ pipeline.Reporter) error {
					pctx.Document = &paper.Document{Title: "A Paper", Authors: "Jane Doe", Abstract: "About things."}
					return nil
				}),
			},
			{
				Key: "script", Label: "Writing script", WeightStart: 0.5, WeightEnd: 1.0,
				Runner: pipeline.RunnerFunc(func(_ context.Context, pctx *pipeline.Context, _ pipeline.Reporter) error {
					pctx.Transcript = "PODCAST TRANSCRIPT: A Paper"
					return nil
				}),
			},
		}, nil
	}
}

// gatedBuilder blocks the single stage until release is closed.
func gatedBuilder(release <-chan struct{}) pipeline.Builder {
	return func(pipeline.Request) ([]pipeline.Stage, error) {
		return []pipeline.Stage{
			{
				Key: "parse", Label: "Parsing", WeightStart: 0, WeightEnd: 1.0,
				Runner: pipeline.RunnerFunc(func(ctx context.Context, pctx *pipeline.Context, _ pipeline.Reporter) error {
					select {
					case <-release:
					case <-ctx.Done():
						return ctx.Err()
					}
					pctx.Transcript = "late transcript"
					return nil
				}),
			},
		}, nil
	}
}

func (f *fixture) submit(t *testing.T, body string) api.SubmitResponse {
	t.Helper()

	resp, err := http.Post(f.ts.URL+"/api/jobs", "application/json", bytes.NewBufferString(body))
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		payload, _ := io.ReadAll(resp.Body)
		t.Fatalf("submit returned %d: %s", resp.StatusCode, payload)
	}
	var accepted api.SubmitResponse
	if err := json.NewDecoder(resp.Body).Decode(&accepted); err != nil {
		t.Fatalf("decode submit response: %v", err)
	}
	if accepted.JobID == "" {
		t.Fatal("submit returned empty job id")
	}
	return accepted
}

func (f *fixture) waitForStatus(t *testing.T, jobID, want string) api.SnapshotPayload {
	t.Helper()

	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(f.ts.URL + "/api/jobs/" + jobID)
		if err != nil {
			t.Fatalf("get job: %v", err)
		}
		var snap api.SnapshotPayload
		err = json.NewDecoder(resp.Body).Decode(&snap)
		resp.Body.Close()
		if err != nil {
			t.Fatalf("decode snapshot: %v", err)
		}
		if snap.Status == want {
			return snap
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("job %s never reached status %s", jobID, want)
	return api.SnapshotPayload{}
}

func TestSubmitRunsJobToCompletion(t *testing.T) {
	fx := newFixture(t, quickBuilder())

	accepted := fx.submit(t, `{"source_reference": "1706.03762", "generate_audio": false}`)
	snap := fx.waitForStatus(t, accepted.JobID, "done")

	if snap.Progress != 1.0 {
		t.Fatalf("expected progress 1.0, got %v", snap.Progress)
	}
	if snap.Result == nil || snap.Result.Title != "A Paper" {
		t.Fatalf("unexpected result payload: %#v", snap.Result)
	}
	if snap.Error != "" {
		t.Fatalf("done job should carry no error: %q", snap.Error)
	}
}

func TestSubmitRejectsMalformedReference(t *testing.T) {
	fx := newFixture(t, quickBuilder())

	for _, body := range []string{
		`{"source_reference": ""}`,
		`{"source_reference": "not a paper"}`,
	} {
		resp, err := http.Post(fx.ts.URL+"/api/jobs", "application/json", bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("submit: %v", err)
		}
		var failure api.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&failure); err != nil {
			t.Fatalf("decode error response: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("body %s returned %d, want 400", body, resp.StatusCode)
		}
		if failure.Error == "" {
			t.Fatalf("expected error message for body %s", body)
		}
	}

	// No job record survives a rejected submission.
	resp, err := http.Get(fx.ts.URL + "/api/jobs")
	if err != nil {
		t.Fatalf("list jobs: %v", err)
	}
	defer resp.Body.Close()
	var snaps []api.SnapshotPayload
	if err := json.NewDecoder(resp.Body).Decode(&snaps); err != nil {
		t.Fatalf("decode job list: %v", err)
	}
	if len(snaps) != 0 {
		t.Fatalf("expected empty job list, got %#v", snaps)
	}
}

func TestGetUnknownJobReturns404(t *testing.T) {
	fx := newFixture(t, quickBuilder())

	resp, err := http.Get(fx.ts.URL + "/api/jobs/no-such-job")
	if err != nil {
		t.Fatalf("get job: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestStreamEndsAfterTerminalSnapshot(t *testing.T) {
	fx := newFixture(t, quickBuilder())
	accepted := fx.submit(t, `{"source_reference": "1706.03762"}`)

	resp, err := http.Get(fx.ts.URL + "/api/jobs/" + accepted.JobID + "/stream")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}

	var snaps []api.SnapshotPayload
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		var snap api.SnapshotPayload
		if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap); err != nil {
			t.Fatalf("decode event %q: %v", line, err)
		}
		snaps = append(snaps, snap)
	}
	if err := scanner.Err(); err != nil {
		t.Fatalf("read stream: %v", err)
	}

	if len(snaps) == 0 {
		t.Fatal("stream delivered no snapshots")
	}
	last := snaps[len(snaps)-1]
	if last.Status != "done" || last.Progress != 1.0 {
		t.Fatalf("stream did not end on terminal snapshot: %#v", last)
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Progress < snaps[i-1].Progress {
			t.Fatalf("stream progress regressed: %v then %v", snaps[i-1].Progress, snaps[i].Progress)
		}
	}
}

func TestStreamUnknownJobReturns404(t *testing.T) {
	fx := newFixture(t, quickBuilder())

	resp, err := http.Get(fx.ts.URL + "/api/jobs/no-such-job/stream")
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestTranscriptUnavailableUntilDone(t *testing.T) {
	release := make(chan struct{})
	fx := newFixture(t, gatedBuilder(release))
	accepted := fx.submit(t, `{"source_reference": "1706.03762"}`)

	resp, err := http.Get(fx.ts.URL + "/api/jobs/" + accepted.JobID + "/transcript")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 before completion, got %d", resp.StatusCode)
	}

	close(release)
	fx.waitForStatus(t, accepted.JobID, "done")

	resp, err = http.Get(fx.ts.URL + "/api/jobs/" + accepted.JobID + "/transcript")
	if err != nil {
		t.Fatalf("get transcript: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 after completion, got %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read transcript: %v", err)
	}
	if string(body) != "late transcript" {
		t.Fatalf("unexpected transcript body: %q", body)
	}
}

func TestAudioEndpointServesArtifacts(t *testing.T) {
	fx := newFixture(t, quickBuilder())
	if err := os.WriteFile(filepath.Join(fx.outputDir, "episode.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatalf("write artifact: %v", err)
	}

	resp, err := http.Get(fx.ts.URL + "/api/audio/episode.wav")
	if err != nil {
		t.Fatalf("get artifact: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK || string(body) != "RIFF" {
		t.Fatalf("artifact fetch failed: %d %q", resp.StatusCode, body)
	}

	resp, err = http.Get(fx.ts.URL + "/api/audio/missing.wav")
	if err != nil {
		t.Fatalf("get missing artifact: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404 for missing artifact, got %d", resp.StatusCode)
	}
}

func TestStatusReportsJobCounts(t *testing.T) {
	fx := newFixture(t, quickBuilder())
	accepted := fx.submit(t, `{"source_reference": "1706.03762"}`)
	fx.waitForStatus(t, accepted.JobID, "done")

	resp, err := http.Get(fx.ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("get status: %v", err)
	}
	defer resp.Body.Close()
	var status api.StatusResponse
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon status")
	}
	if status.Jobs["done"] != 1 {
		t.Fatalf("expected one done job, got %#v", status.Jobs)
	}
	if status.Database == "" {
		t.Fatal("expected database path in status")
	}
}
