package shrink

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

// Runner is a minimal polling driver for running the whole workflow inside
// one process: it re-invokes the active stage on a fixed cadence until the
// stage reports a terminal result, then moves to the next stage. An umbrella
// scheduler replaces it in managed deployments; the per-stage contract is
// identical.
//
// The runner never re-invokes the dispatch stage after it completes, which is
// what the non-idempotence of that stage requires. Its ConditionNotMet
// results are produced before the dispatch happens and are safe to retry.
type Runner struct {
	action   *Action
	interval time.Duration
}

func NewRunner(action *Action, interval time.Duration) *Runner {
	return &Runner{
		action:   action,
		interval: interval,
	}
}

func (r *Runner) Run(ctx context.Context, sourceIndex string) error {
	sc := &StepContext{
		JobIndexName: r.action.cfg.JobIndexName,
		JobID:        uuid.NewString(),
		SourceIndex:  sourceIndex,
		StartTime:    time.Now(),
	}

	stages := []Step{
		NewAttemptMoveShardsStep(r.action),
		NewWaitForMoveShardsStep(r.action),
		NewAttemptShrinkStep(r.action),
		NewWaitForShrinkStep(r.action),
	}

	for _, stage := range stages {
		if err := r.runStage(ctx, stage, sc); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) runStage(ctx context.Context, stage Step, sc *StepContext) error {
	for {
		res := stage.Execute(ctx, sc)

		event := sqzrlog.Zero.Info()
		if res.Status == steps.StatusFailed {
			event = sqzrlog.Zero.Error().Err(res.Cause)
		}
		event.
			Str("job-id", sc.JobID).
			Str("stage", stage.Name()).
			Str("status", steps.StatusToStr(res.Status)).
			Msg(res.Message)

		switch res.Status {
		case steps.StatusCompleted:
			return nil
		case steps.StatusFailed:
			if res.Cause != nil {
				return res.Cause
			}
			return sqzrerror.Newf(sqzrerror.SQZR_UNEXPECTED, "stage %s failed: %s", stage.Name(), res.Message)
		default:
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(r.interval):
			}
		}
	}
}
