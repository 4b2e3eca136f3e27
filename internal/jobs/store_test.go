package jobs_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"papercast/internal/jobs"
	"papercast/internal/services"
	"papercast/internal/testsupport"
)

func TestCreateAssignsDistinctIDs(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	seen := make(map[string]struct{})
	for i := 0; i < 10; i++ {
		snap, err := store.Create(ctx)
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if snap.Status != jobs.StatusQueued {
			t.Fatalf("expected queued status, got %s", snap.Status)
		}
		if _, dup := seen[snap.ID]; dup {
			t.Fatalf("duplicate job id %s", snap.ID)
		}
		seen[snap.ID] = struct{}{}
	}
}

func TestGetUnknownJobIsNotFound(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)

	_, err := store.Get(context.Background(), "nope")
	if err == nil {
		t.Fatal("expected error for unknown job")
	}
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found marker, got %v", err)
	}
}

func TestUpdateMergesPatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snap, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := store.Update(ctx, snap.ID, jobs.Patch{
		Status:   jobs.Ptr(jobs.StatusRunning),
		Progress: jobs.Ptr(0.25),
		Stage:    jobs.Ptr("parse"),
		Message:  jobs.Ptr("Parsing paper"),
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if updated.Status != jobs.StatusRunning || updated.Progress != 0.25 || updated.Stage != "parse" {
		t.Fatalf("unexpected merged snapshot: %#v", updated)
	}

	// Unset fields keep their merged values on the next patch.
	next, err := store.Update(ctx, snap.ID, jobs.Patch{Message: jobs.Ptr("Still parsing")})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if next.Stage != "parse" || next.Progress != 0.25 {
		t.Fatalf("expected untouched fields preserved, got %#v", next)
	}

	fetched, err := store.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Message != "Still parsing" {
		t.Fatalf("unexpected persisted message: %q", fetched.Message)
	}
}

func TestProgressNeverDecreases(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snap, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := store.Update(ctx, snap.ID, jobs.Patch{Progress: jobs.Ptr(0.6)}); err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	merged, err := store.Update(ctx, snap.ID, jobs.Patch{Progress: jobs.Ptr(0.3)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if merged.Progress != 0.6 {
		t.Fatalf("expected regressing progress discarded, got %f", merged.Progress)
	}

	// Out-of-range reports are clamped into [0,1].
	clamped, err := store.Update(ctx, snap.ID, jobs.Patch{Progress: jobs.Ptr(3.5)})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if clamped.Progress != 1.0 {
		t.Fatalf("expected progress clamped to 1.0, got %f", clamped.Progress)
	}
}

func TestTerminalJobsRefuseUpdates(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snap, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	done, err := store.Update(ctx, snap.ID, jobs.Patch{
		Status:   jobs.Ptr(jobs.StatusDone),
		Progress: jobs.Ptr(1.0),
		Result:   &jobs.Result{Title: "Paper", Script: "HOST: hi"},
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}
	if done.Result == nil || done.Result.Title != "Paper" {
		t.Fatalf("expected result persisted, got %#v", done.Result)
	}

	if _, err := store.Update(ctx, snap.ID, jobs.Patch{Message: jobs.Ptr("late")}); !errors.Is(err, jobs.ErrTerminal) {
		t.Fatalf("expected ErrTerminal, got %v", err)
	}

	fetched, err := store.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Result == nil || fetched.Result.Script != "HOST: hi" {
		t.Fatalf("expected result round-trip, got %#v", fetched.Result)
	}
}

func TestConcurrentUpdatesStayConsistent(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	snap, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(fraction float64) {
			defer wg.Done()
			_, _ = store.Update(ctx, snap.ID, jobs.Patch{Progress: jobs.Ptr(fraction)})
		}(float64(i) / 20)
	}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := store.Get(ctx, snap.ID)
			if err != nil {
				t.Errorf("Get failed: %v", err)
				return
			}
			if got.Progress < 0 || got.Progress > 1 {
				t.Errorf("torn progress value: %f", got.Progress)
			}
		}()
	}
	wg.Wait()

	final, err := store.Get(ctx, snap.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if final.Progress != float64(19)/20 {
		t.Fatalf("expected max progress to win, got %f", final.Progress)
	}
}

func TestListOrdersByCreation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	first, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	second, err := store.Create(ctx)
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	listed, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(listed) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(listed))
	}
	if listed[0].ID != first.ID || listed[1].ID != second.ID {
		t.Fatalf("unexpected ordering: %s, %s", listed[0].ID, listed[1].ID)
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats[jobs.StatusQueued] != 2 {
		t.Fatalf("unexpected stats: %#v", stats)
	}
}
