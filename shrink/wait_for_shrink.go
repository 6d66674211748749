package shrink

import (
	"context"

	"github.com/sqzr-sharding/sqzr/cluster"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

// WaitForShrinkStep blocks until every shard of the target index has
// started, then clears the allocation pin and releases the node lock.
// Idempotent until it reports a terminal result.
type WaitForShrinkStep struct {
	action *Action
}

func NewWaitForShrinkStep(action *Action) *WaitForShrinkStep {
	return &WaitForShrinkStep{action: action}
}

func (s *WaitForShrinkStep) Name() string {
	return "wait_for_shrink"
}

func (s *WaitForShrinkStep) Execute(ctx context.Context, sc *StepContext) steps.StepResult {
	a := s.action

	if sc.Properties == nil {
		return steps.Failedf("metadata not properly populated: node selection has not completed for index %s", sc.SourceIndex)
	}
	props := sc.Properties

	stats, err := a.cluster.IndexStats(ctx, props.TargetIndexName)
	if err != nil {
		return a.releaseHeldLockAndFail(ctx, sc, err, "failed to fetch shard stats of target index %s", props.TargetIndexName)
	}

	started := 0
	for _, sh := range stats.Shards {
		if sh.Primary && sh.State == cluster.ShardStateStarted {
			started++
		}
	}

	if started < props.TargetNumShards {
		return a.evaluateTimeout(ctx, sc, "%d of %d shards of target index %s are started",
			started, props.TargetNumShards, props.TargetIndexName)
	}

	// the pin served its purpose; clearing it on the source as well is
	// redundant but keeps a deleted-later source from dragging allocation
	clearPin := map[string]any{
		"index.routing.allocation.require._name": nil,
	}
	for _, index := range []string{props.TargetIndexName, sc.SourceIndex} {
		acked, err := a.cluster.UpdateSettings(ctx, index, clearPin)
		if err != nil {
			return a.releaseHeldLockAndFail(ctx, sc, err, "failed to clear allocation pin on index %s", index)
		}
		if !acked {
			return a.releaseHeldLockAndFail(ctx, sc, nil, "clearing allocation pin on index %s was not acknowledged", index)
		}
	}

	a.releaseLock(ctx, a.lockFromProperties(sc))

	sqzrlog.Zero.Info().
		Str("index", sc.SourceIndex).
		Str("target", props.TargetIndexName).
		Int("shards", props.TargetNumShards).
		Msg("shrink: target index fully started, lock released")

	return steps.Completedf("index %s shrunk into %s with %d shards",
		sc.SourceIndex, props.TargetIndexName, props.TargetNumShards)
}
