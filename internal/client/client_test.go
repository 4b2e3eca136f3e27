package client_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"papercast/internal/api"
	"papercast/internal/client"
	"papercast/internal/services"
)

func TestSubmitRoundTrip(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/jobs" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		var req api.SubmitRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if req.SourceReference != "1706.03762" {
			t.Fatalf("unexpected reference %q", req.SourceReference)
		}
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(api.SubmitResponse{JobID: "job-1"})
	}))
	defer ts.Close()

	c := client.New(ts.URL, nil)
	accepted, err := c.Submit(context.Background(), api.SubmitRequest{SourceReference: "1706.03762"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if accepted.JobID != "job-1" {
		t.Fatalf("unexpected job id %q", accepted.JobID)
	}
}

func TestSubmitSurfacesValidationError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "cannot parse arXiv identifier"})
	}))
	defer ts.Close()

	c := client.New(ts.URL, nil)
	_, err := c.Submit(context.Background(), api.SubmitRequest{SourceReference: "junk"})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestJobNotFound(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "unknown job"})
	}))
	defer ts.Close()

	c := client.New(ts.URL, nil)
	if _, err := c.Job(context.Background(), "nope"); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found error, got %v", err)
	}
}

func TestStreamInvokesHandlerPerEvent(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/jobs/job-1/stream" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)
		for _, progress := range []float64{0.25, 0.5, 1.0} {
			status := "running"
			if progress == 1.0 {
				status = "done"
			}
			fmt.Fprintf(w, "data: {\"job_id\":\"job-1\",\"status\":%q,\"progress\":%v}\n\n", status, progress)
			flusher.Flush()
		}
	}))
	defer ts.Close()

	c := client.New(ts.URL, nil)
	var seen []float64
	err := c.Stream(context.Background(), "job-1", func(snap api.SnapshotPayload) error {
		seen = append(seen, snap.Progress)
		return nil
	})
	if err != nil {
		t.Fatalf("Stream failed: %v", err)
	}
	if len(seen) != 3 || seen[2] != 1.0 {
		t.Fatalf("unexpected stream events: %v", seen)
	}
}

func TestStreamStopsOnHandlerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		flusher := w.(http.Flusher)
		for i := 0; i < 10; i++ {
			fmt.Fprintf(w, "data: {\"job_id\":\"job-1\",\"status\":\"running\"}\n\n")
			flusher.Flush()
		}
	}))
	defer ts.Close()

	c := client.New(ts.URL, nil)
	calls := 0
	err := c.Stream(context.Background(), "job-1", func(api.SnapshotPayload) error {
		calls++
		return errors.New("stop")
	})
	if err == nil || err.Error() != "stop" {
		t.Fatalf("expected handler error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("handler should run once, ran %d times", calls)
	}
}

func TestTranscriptConflict(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "transcript not available until the job completes"})
	}))
	defer ts.Close()

	c := client.New(ts.URL, nil)
	if _, err := c.Transcript(context.Background(), "job-1"); err == nil {
		t.Fatal("expected error for unfinished transcript")
	}
}
