package shrink

import (
	"context"
	"fmt"
	"time"

	"github.com/sqzr-sharding/sqzr/lockdb"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

// Every failure path of stages 2-4 funnels through releaseLockAndFail so the
// lock on the destination node cannot outlive the action. A failed release is
// logged and never overrides the failure being reported.

func (a *Action) lockFromProperties(sc *StepContext) *lockdb.Lock {
	return sc.Properties.ToLock(sc.JobIndexName, sc.JobID, int64(a.timeoutFor(sc).Seconds()))
}

func (a *Action) releaseLock(ctx context.Context, lock *lockdb.Lock) {
	released, err := a.locks.Release(ctx, lock)
	if err != nil {
		sqzrlog.Zero.Warn().Err(err).
			Str("resource", lock.Resource()).
			Msg("shrink: lock release failed")
		return
	}
	if !released {
		sqzrlog.Zero.Warn().
			Str("resource", lock.Resource()).
			Msg("shrink: lock was already gone on release")
	}
}

func (a *Action) releaseHeldLockAndFail(ctx context.Context, sc *StepContext, cause error, format string, args ...any) steps.StepResult {
	a.releaseLock(ctx, a.lockFromProperties(sc))
	if cause != nil {
		return steps.FailedErr(cause, format, args...)
	}
	return steps.Failedf(format, args...)
}

// evaluateTimeout applies the shared timeout policy: once elapsed wall-clock
// time since the action start reaches the configured timeout, the held lock
// is released and the stage fails; before that the condition is retryable and
// the lock stays held.
func (a *Action) evaluateTimeout(ctx context.Context, sc *StepContext, waitingFormat string, args ...any) steps.StepResult {
	timeout := a.timeoutFor(sc)
	if time.Since(sc.StartTime) >= timeout {
		return a.releaseHeldLockAndFail(ctx, sc, nil,
			"shrink action on index %s timed out after %s: %s",
			sc.SourceIndex, timeout, fmt.Sprintf(waitingFormat, args...))
	}
	return steps.NotMetf(waitingFormat, args...)
}
