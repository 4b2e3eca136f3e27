package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"papercast/internal/jobs"
	"papercast/internal/logging"
	"papercast/internal/paper"
	"papercast/internal/progress"
	"papercast/internal/services"
)

// Builder produces the stage list for one submission. Submissions that skip
// audio get a pipeline without the synthesis stage, so the builder runs per
// request rather than once at startup.
type Builder func(req Request) ([]Stage, error)

// Orchestrator validates submissions, persists job state, and drives each
// job through its pipeline on a dedicated goroutine.
type Orchestrator struct {
	store   *jobs.Store
	hub     *progress.Hub
	logger  *slog.Logger
	build   Builder
	workDir string

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator wires the orchestrator to its collaborators. workDir is
// the root under which per-job scratch directories are created.
func NewOrchestrator(store *jobs.Store, hub *progress.Hub, logger *slog.Logger, workDir string, build Builder) *Orchestrator {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:   store,
		hub:     hub,
		logger:  logger.With(logging.String(logging.FieldComponent, "orchestrator")),
		build:   build,
		workDir: workDir,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Submit validates the request, creates the job record, and starts the
// pipeline in the background. Validation failures surface synchronously and
// leave no job behind.
func (o *Orchestrator) Submit(ctx context.Context, req Request) (jobs.Snapshot, error) {
	req.Reference = strings.TrimSpace(req.Reference)
	if req.Reference == "" {
		return jobs.Snapshot{}, services.Wrap(services.ErrValidation, "orchestrator", "submit", "reference must not be empty", nil)
	}
	if _, err := paper.NormalizePDFURL(req.Reference); err != nil {
		return jobs.Snapshot{}, err
	}

	stages, err := o.build(req)
	if err != nil {
		return jobs.Snapshot{}, fmt.Errorf("build pipeline: %w", err)
	}
	if err := Validate(stages); err != nil {
		return jobs.Snapshot{}, fmt.Errorf("validate pipeline: %w", err)
	}

	snap, err := o.store.Create(ctx)
	if err != nil {
		return jobs.Snapshot{}, fmt.Errorf("create job: %w", err)
	}
	o.hub.Publish(snap)
	o.logger.Info(
		"job submitted",
		logging.String(logging.FieldJobID, snap.ID),
		logging.String("reference", req.Reference),
		logging.Bool("generate_audio", req.GenerateAudio),
	)

	o.wg.Add(1)
	go o.run(snap.ID, req, stages)
	return snap, nil
}

// Close stops accepting work and waits for running jobs to finish their
// current stage handling.
func (o *Orchestrator) Close() {
	o.cancel()
	o.wg.Wait()
}

func (o *Orchestrator) run(jobID string, req Request, stages []Stage) {
	defer o.wg.Done()

	ctx := services.WithJobID(o.ctx, jobID)
	logger := o.logger.With(logging.String(logging.FieldJobID, jobID))

	jobDir := filepath.Join(o.workDir, jobID)
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		o.fail(ctx, logger, jobID, "setup", fmt.Errorf("create work directory: %w", err))
		return
	}

	pctx := &Context{JobID: jobID, Request: req, WorkDir: jobDir}
	for _, stage := range stages {
		if err := o.runStage(ctx, logger, pctx, stage); err != nil {
			return
		}
	}

	o.finish(ctx, logger, pctx)
}

func (o *Orchestrator) runStage(ctx context.Context, logger *slog.Logger, pctx *Context, stage Stage) error {
	stageCtx := services.WithStage(ctx, stage.Key)
	stageLogger := logger.With(logging.String(logging.FieldStage, stage.Key))
	stageStart := time.Now()

	snap, err := o.store.Update(stageCtx, pctx.JobID, jobs.Patch{
		Status:   jobs.Ptr(jobs.StatusRunning),
		Progress: jobs.Ptr(stage.WeightStart),
		Stage:    jobs.Ptr(stage.Key),
		Message:  jobs.Ptr(stage.Label + " started"),
	})
	if err != nil {
		stageLogger.Error("failed to persist stage start", logging.Error(err))
		o.fail(stageCtx, stageLogger, pctx.JobID, stage.Label, err)
		return err
	}
	o.hub.Publish(snap)
	stageLogger.Info(
		"stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.Float64("weight_start", stage.WeightStart),
	)

	report := o.reporter(stageCtx, pctx.JobID, stage)
	if err := stage.Runner.Run(stageCtx, pctx, report); err != nil {
		if errors.Is(err, context.Canceled) && stageCtx.Err() != nil {
			stageLogger.Debug("stage interrupted by shutdown")
			return err
		}
		o.fail(stageCtx, stageLogger, pctx.JobID, stage.Label, err)
		return err
	}

	snap, err = o.store.Update(stageCtx, pctx.JobID, jobs.Patch{
		Progress: jobs.Ptr(stage.WeightEnd),
		Message:  jobs.Ptr(stage.Label + " complete"),
	})
	if err != nil {
		stageLogger.Error("failed to persist stage completion", logging.Error(err))
		o.fail(stageCtx, stageLogger, pctx.JobID, stage.Label, err)
		return err
	}
	o.hub.Publish(snap)
	stageLogger.Info(
		"stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	return nil
}

// reporter maps a stage-relative fraction onto the job's overall progress
// scale. Regressing or out-of-range fractions are clamped, so overall
// progress only moves forward.
func (o *Orchestrator) reporter(ctx context.Context, jobID string, stage Stage) Reporter {
	return func(fraction float64, message string) {
		if fraction < 0 {
			fraction = 0
		}
		if fraction > 1 {
			fraction = 1
		}
		overall := stage.WeightStart + fraction*stage.Span()
		patch := jobs.Patch{Progress: jobs.Ptr(overall)}
		if strings.TrimSpace(message) != "" {
			patch.Message = jobs.Ptr(message)
		}
		snap, err := o.store.Update(ctx, jobID, patch)
		if err != nil {
			return
		}
		o.hub.Publish(snap)
	}
}

func (o *Orchestrator) finish(ctx context.Context, logger *slog.Logger, pctx *Context) {
	result := assembleResult(pctx)
	snap, err := o.store.Update(ctx, pctx.JobID, jobs.Patch{
		Status:   jobs.Ptr(jobs.StatusDone),
		Progress: jobs.Ptr(1.0),
		Message:  jobs.Ptr("Completed"),
		Result:   result,
	})
	if err != nil {
		logger.Error("failed to persist completion", logging.Error(err))
		return
	}
	o.hub.Publish(snap)
	logger.Info("job completed", logging.String("title", result.Title))
}

func (o *Orchestrator) fail(ctx context.Context, logger *slog.Logger, jobID, stageLabel string, cause error) {
	details := services.Details(cause)
	message := fmt.Sprintf("%s failed: %s", stageLabel, details.Message)
	snap, err := o.store.Update(ctx, jobID, jobs.Patch{
		Status:  jobs.Ptr(jobs.StatusError),
		Message: jobs.Ptr(stageLabel + " failed"),
		Error:   jobs.Ptr(message),
	})
	if err != nil {
		logger.Error("failed to persist job failure", logging.Error(err))
		return
	}
	o.hub.Publish(snap)
	logger.Error("job failed", logging.String("stage_label", stageLabel), logging.Error(cause))
}

func assembleResult(pctx *Context) *jobs.Result {
	result := &jobs.Result{Script: pctx.Transcript}
	if result.Script == "" {
		result.Script = pctx.Script
	}
	if pctx.Document != nil {
		result.Title = pctx.Document.Title
		result.Authors = pctx.Document.Authors
		result.Abstract = pctx.Document.Abstract
	}
	if pctx.AudioPath != "" {
		result.AudioRef = filepath.Base(pctx.AudioPath)
	}
	return result
}
