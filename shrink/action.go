package shrink

import (
	"context"
	"time"

	"github.com/sqzr-sharding/sqzr/cluster"
	"github.com/sqzr-sharding/sqzr/lockdb"
	"github.com/sqzr-sharding/sqzr/pkg/config"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
)

// bounded wait for a single cluster health poll, not the overall action
// timeout
const healthWait = time.Minute

// Action bundles the configuration and collaborators shared by the four
// shrink stages. Stages hold no state of their own: everything a stage needs
// across invocations lives in the StepContext or can be re-derived from the
// cluster.
type Action struct {
	cfg     *config.Shrink
	cluster cluster.Client
	locks   lockdb.LockDB
}

func NewAction(cfg *config.Shrink, cl cluster.Client, locks lockdb.LockDB) *Action {
	return &Action{
		cfg:     cfg,
		cluster: cl,
		locks:   locks,
	}
}

// StepContext is what the external driver hands to every stage invocation:
// job identity, the recorded action start time, an optional per-action
// timeout override and the properties persisted by the node-selection stage.
type StepContext struct {
	JobIndexName string
	JobID        string
	SourceIndex  string
	StartTime    time.Time
	Timeout      time.Duration

	Properties *steps.ShrinkActionProperties
}

// Step is the per-invocation contract every stage exposes.
type Step interface {
	Name() string
	Execute(ctx context.Context, sc *StepContext) steps.StepResult
}

func (a *Action) timeoutFor(sc *StepContext) time.Duration {
	if sc.Timeout > 0 {
		return sc.Timeout
	}
	return a.cfg.Timeout()
}

func (a *Action) targetIndexName(sc *StepContext) string {
	return sc.SourceIndex + a.cfg.TargetIndexSuffix
}
