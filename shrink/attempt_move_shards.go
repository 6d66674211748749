package shrink

import (
	"context"
	"time"

	"github.com/sqzr-sharding/sqzr/cluster"
	"github.com/sqzr-sharding/sqzr/lockdb"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

// AttemptMoveShardsStep picks the destination node and shard count, acquires
// an exclusive lock on the node and pins the source index onto it. On
// success it populates the ShrinkActionProperties consumed by every later
// stage. Safe to re-invoke until it completes.
type AttemptMoveShardsStep struct {
	action *Action
}

func NewAttemptMoveShardsStep(action *Action) *AttemptMoveShardsStep {
	return &AttemptMoveShardsStep{action: action}
}

func (s *AttemptMoveShardsStep) Name() string {
	return "attempt_move_shards"
}

func (s *AttemptMoveShardsStep) Execute(ctx context.Context, sc *StepContext) steps.StepResult {
	a := s.action

	if timeout := a.timeoutFor(sc); time.Since(sc.StartTime) >= timeout {
		return steps.Failedf("shrink action on index %s timed out after %s before a node was selected",
			sc.SourceIndex, timeout)
	}

	target := a.targetIndexName(sc)
	exists, err := a.cluster.IndexExists(ctx, target)
	if err != nil {
		return steps.FailedErr(err, "failed to check whether target index %s exists", target)
	}
	if exists {
		return steps.Failedf("target index %s already exists, remove it or change the suffix", target)
	}

	status, timedOut, err := a.cluster.Health(ctx, sc.SourceIndex, cluster.HealthGreen, healthWait)
	if err != nil {
		return steps.FailedErr(err, "failed to check health of index %s", sc.SourceIndex)
	}
	if timedOut || status != cluster.HealthGreen {
		return steps.NotMetf("index %s is %s, waiting for green before selecting a node", sc.SourceIndex, status)
	}

	stats, err := a.cluster.IndexStats(ctx, sc.SourceIndex)
	if err != nil {
		return steps.FailedErr(err, "failed to fetch stats of index %s", sc.SourceIndex)
	}
	if stats.NumReplicas == 0 && !a.cfg.ForceUnsafe {
		return steps.Failedf("index %s has no replicas: shrinking the only copy risks data loss during relocation, set force_unsafe to proceed",
			sc.SourceIndex)
	}
	if stats.NumShards <= 1 {
		return steps.Failedf("index %s has a single primary shard, nothing to shrink", sc.SourceIndex)
	}

	targetShards, err := a.targetNumShards(stats.NumShards, stats.StoreBytes)
	if err != nil {
		return steps.FailedErr(err, "cannot compute target shard count for index %s", sc.SourceIndex)
	}

	suitable, err := a.suitableNodes(ctx, sc.SourceIndex, stats)
	if err != nil {
		return steps.FailedErr(err, "failed to evaluate destination nodes for index %s", sc.SourceIndex)
	}

	lock := s.acquireFirst(ctx, sc, suitable)
	if lock == nil {
		return steps.NotMetf("no available nodes can host all %d shards of index %s, retrying later",
			stats.NumShards, sc.SourceIndex)
	}

	acked, err := a.cluster.UpdateSettings(ctx, sc.SourceIndex, map[string]any{
		"index.blocks.writes":                    true,
		"index.routing.allocation.require._name": lock.ResourceKey,
	})
	if err != nil || !acked {
		a.releaseLock(ctx, lock)
		if err != nil {
			return steps.FailedErr(err, "failed to pin index %s onto node %s", sc.SourceIndex, lock.ResourceKey)
		}
		return steps.Failedf("pinning index %s onto node %s was not acknowledged", sc.SourceIndex, lock.ResourceKey)
	}

	sc.Properties = steps.PropertiesFromLock(lock, target, targetShards)

	sqzrlog.Zero.Info().
		Str("index", sc.SourceIndex).
		Str("node", lock.ResourceKey).
		Int("target-shards", targetShards).
		Msg("shrink: node locked, relocation started")

	return steps.Completedf("node %s locked, shrinking index %s into %s with %d shards",
		lock.ResourceKey, sc.SourceIndex, target, targetShards)
}

// acquireFirst walks the ranked node list and returns the first lock it
// manages to take. Acquisition attempts are strictly sequential; an errored
// attempt is logged and treated like a lost race.
func (s *AttemptMoveShardsStep) acquireFirst(ctx context.Context, sc *StepContext, nodes []string) *lockdb.Lock {
	a := s.action
	lease := int64(a.timeoutFor(sc).Seconds())
	for _, node := range nodes {
		lock, err := a.locks.Acquire(ctx, &lockdb.Lock{
			ResourceType: lockdb.ResourceTypeShrink,
			ResourceKey:  node,
			JobIndexName: sc.JobIndexName,
			JobID:        sc.JobID,
			LeaseSeconds: lease,
		})
		if err != nil {
			sqzrlog.Zero.Warn().Err(err).
				Str("node", node).
				Msg("shrink: lock acquisition errored, trying next node")
			continue
		}
		if lock != nil {
			return lock
		}
		sqzrlog.Zero.Debug().
			Str("node", node).
			Msg("shrink: node already locked by another shrink")
	}
	return nil
}
