package shrink

import (
	"context"

	"github.com/sqzr-sharding/sqzr/cluster"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

// AttemptShrinkStep issues the resize operation once relocation has finished
// and the source index is healthy.
//
// This stage is NOT idempotent: a completed invocation has already submitted
// the shrink, and re-invoking it would submit a second one. The driver must
// invoke it at most once per successful precondition check; after a crash the
// only guard on replay is the health precondition re-validating, which does
// not detect an in-flight shrink.
type AttemptShrinkStep struct {
	action *Action
}

func NewAttemptShrinkStep(action *Action) *AttemptShrinkStep {
	return &AttemptShrinkStep{action: action}
}

func (s *AttemptShrinkStep) Name() string {
	return "attempt_shrink"
}

func (s *AttemptShrinkStep) Execute(ctx context.Context, sc *StepContext) steps.StepResult {
	a := s.action

	if sc.Properties == nil {
		return steps.Failedf("metadata not properly populated: node selection has not completed for index %s", sc.SourceIndex)
	}
	props := sc.Properties

	status, timedOut, err := a.cluster.Health(ctx, sc.SourceIndex, cluster.HealthGreen, healthWait)
	if err != nil {
		return a.releaseHeldLockAndFail(ctx, sc, err, "failed to check health of index %s", sc.SourceIndex)
	}
	if timedOut || status != cluster.HealthGreen {
		return steps.NotMetf("index %s is %s, waiting for green before dispatching the shrink", sc.SourceIndex, status)
	}

	acked, err := a.cluster.Resize(ctx, &cluster.ResizeRequest{
		SourceIndex:     sc.SourceIndex,
		TargetIndex:     props.TargetIndexName,
		NumShards:       props.TargetNumShards,
		RequireNodeName: props.NodeName,
		Aliases:         a.cfg.Aliases,
	})
	if err != nil {
		return a.releaseHeldLockAndFail(ctx, sc, err, "shrink dispatch of index %s failed", sc.SourceIndex)
	}
	if !acked {
		return a.releaseHeldLockAndFail(ctx, sc, nil, "shrink of index %s into %s was not acknowledged",
			sc.SourceIndex, props.TargetIndexName)
	}

	sqzrlog.Zero.Info().
		Str("index", sc.SourceIndex).
		Str("target", props.TargetIndexName).
		Int("target-shards", props.TargetNumShards).
		Msg("shrink: resize dispatched")

	return steps.Completedf("shrink of index %s into %s dispatched", sc.SourceIndex, props.TargetIndexName)
}
