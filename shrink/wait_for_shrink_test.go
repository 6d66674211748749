package shrink

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/mock/gomock"

	"github.com/sqzr-sharding/sqzr/lockdb"
	"github.com/sqzr-sharding/sqzr/pkg/config"
	"github.com/sqzr-sharding/sqzr/pkg/models/steps"
)

func TestWaitForShrinkMissingMetadata(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	a, _, _ := newTestAction(t, ctrl, &config.Shrink{NumNewShards: 2})
	res := NewWaitForShrinkStep(a).Execute(context.Background(), newStepContext("idx"))

	assert.Equal(steps.Status(steps.StatusFailed), res.Status)
	assert.Contains(res.Message, "metadata not properly populated")
}

func TestWaitForShrinkCompletesAndCleansUp(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	a, cl, locks := newTestAction(t, ctrl, &config.Shrink{NumNewShards: 2})
	sc := newStepContext("idx")
	sc.Properties = lockAndProps(t, locks, "node-a", "idx_shrunken", 2)

	cl.EXPECT().IndexStats(gomock.Any(), "idx_shrunken").
		Return(statsWithPrimariesOn("idx_shrunken", 2, 20, "node-a"), nil)
	clearPin := map[string]any{"index.routing.allocation.require._name": nil}
	cl.EXPECT().UpdateSettings(gomock.Any(), "idx_shrunken", clearPin).Return(true, nil)
	cl.EXPECT().UpdateSettings(gomock.Any(), "idx", clearPin).Return(true, nil)

	res := NewWaitForShrinkStep(a).Execute(context.Background(), sc)

	assert.Equal(steps.Status(steps.StatusCompleted), res.Status)

	held, err := locks.Find(context.Background(), lockdb.ResourceTypeShrink, "node-a")
	assert.NoError(err)
	assert.Nil(held)
}

func TestWaitForShrinkSettingsNotAcknowledged(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	a, cl, locks := newTestAction(t, ctrl, &config.Shrink{NumNewShards: 2})
	sc := newStepContext("idx")
	sc.Properties = lockAndProps(t, locks, "node-a", "idx_shrunken", 2)

	cl.EXPECT().IndexStats(gomock.Any(), "idx_shrunken").
		Return(statsWithPrimariesOn("idx_shrunken", 2, 20, "node-a"), nil)
	cl.EXPECT().UpdateSettings(gomock.Any(), "idx_shrunken", gomock.Any()).Return(false, nil)

	res := NewWaitForShrinkStep(a).Execute(context.Background(), sc)

	assert.Equal(steps.Status(steps.StatusFailed), res.Status)
	assert.Contains(res.Message, "not acknowledged")

	held, err := locks.Find(context.Background(), lockdb.ResourceTypeShrink, "node-a")
	assert.NoError(err)
	assert.Nil(held)
}

func TestWaitForShrinkTimeoutBoundary(t *testing.T) {
	assert := assert.New(t)

	for _, tt := range []struct {
		name      string
		startedAt time.Duration // how long ago the action started
		expStatus steps.Status
		lockHeld  bool
	}{
		{"at the boundary", config.DefaultActionTimeout, steps.StatusFailed, false},
		{"one second before", config.DefaultActionTimeout - time.Second, steps.StatusConditionNotMet, true},
	} {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)

			a, cl, locks := newTestAction(t, ctrl, &config.Shrink{NumNewShards: 2})
			sc := newStepContext("idx")
			sc.Properties = lockAndProps(t, locks, "node-a", "idx_shrunken", 2)
			sc.StartTime = time.Now().Add(-tt.startedAt)

			// only one of the two target shards has started
			stats := statsWithPrimariesOn("idx_shrunken", 2, 20, "node-a")
			stats.Shards[1].State = "INITIALIZING"
			cl.EXPECT().IndexStats(gomock.Any(), "idx_shrunken").Return(stats, nil)

			res := NewWaitForShrinkStep(a).Execute(context.Background(), sc)

			assert.Equal(tt.expStatus, res.Status)

			held, err := locks.Find(context.Background(), lockdb.ResourceTypeShrink, "node-a")
			assert.NoError(err)
			if tt.lockHeld {
				assert.NotNil(held)
			} else {
				assert.Nil(held)
			}
		})
	}
}

func TestWaitForShrinkIdempotentWhileWaiting(t *testing.T) {
	assert := assert.New(t)
	ctrl := gomock.NewController(t)

	a, cl, locks := newTestAction(t, ctrl, &config.Shrink{NumNewShards: 2})
	sc := newStepContext("idx")
	sc.Properties = lockAndProps(t, locks, "node-a", "idx_shrunken", 2)

	stats := statsWithPrimariesOn("idx_shrunken", 2, 20, "node-a")
	stats.Shards[1].State = "INITIALIZING"
	cl.EXPECT().IndexStats(gomock.Any(), "idx_shrunken").Return(stats, nil).Times(2)

	step := NewWaitForShrinkStep(a)
	first := step.Execute(context.Background(), sc)
	second := step.Execute(context.Background(), sc)

	assert.Equal(steps.Status(steps.StatusConditionNotMet), first.Status)
	assert.Equal(first.Status, second.Status)
	assert.Equal(first.Message, second.Message)
}
