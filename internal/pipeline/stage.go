package pipeline

import (
	"context"
	"fmt"
	"math"
	"strings"
)

// Reporter receives intra-stage progress. The fraction is relative to the
// reporting stage, 0 at its start and 1 at its end.
type Reporter func(fraction float64, message string)

// Runner executes one stage of a job against the shared pipeline context.
type Runner interface {
	Run(ctx context.Context, job *Context, report Reporter) error
}

// RunnerFunc adapts a function to the Runner interface.
type RunnerFunc func(ctx context.Context, job *Context, report Reporter) error

func (f RunnerFunc) Run(ctx context.Context, job *Context, report Reporter) error {
	return f(ctx, job, report)
}

// Stage describes one step of a job pipeline. The weight range maps the
// stage's relative progress onto the job's overall [0,1] scale.
type Stage struct {
	Key         string
	Label       string
	WeightStart float64
	WeightEnd   float64
	Runner      Runner
}

// Span returns the width of the stage's weight range.
func (s Stage) Span() float64 {
	return s.WeightEnd - s.WeightStart
}

const weightEpsilon = 1e-9

// Validate checks that the stage list forms a usable pipeline: keys are
// present, every weight range is non-empty, ranges do not overlap or leave
// gaps, and the final stage ends at exactly 1.0.
func Validate(stages []Stage) error {
	if len(stages) == 0 {
		return fmt.Errorf("pipeline has no stages")
	}
	previousEnd := 0.0
	for i, stage := range stages {
		if strings.TrimSpace(stage.Key) == "" {
			return fmt.Errorf("stage %d has no key", i)
		}
		if stage.Runner == nil {
			return fmt.Errorf("stage %s has no runner", stage.Key)
		}
		if stage.WeightStart < 0 || stage.WeightEnd > 1+weightEpsilon {
			return fmt.Errorf("stage %s weight range [%f, %f] leaves [0, 1]", stage.Key, stage.WeightStart, stage.WeightEnd)
		}
		if stage.WeightEnd <= stage.WeightStart {
			return fmt.Errorf("stage %s weight range [%f, %f] is empty", stage.Key, stage.WeightStart, stage.WeightEnd)
		}
		if math.Abs(stage.WeightStart-previousEnd) > weightEpsilon {
			return fmt.Errorf("stage %s starts at %f, expected %f", stage.Key, stage.WeightStart, previousEnd)
		}
		previousEnd = stage.WeightEnd
	}
	if math.Abs(previousEnd-1.0) > weightEpsilon {
		return fmt.Errorf("pipeline ends at %f, expected 1.0", previousEnd)
	}
	return nil
}
