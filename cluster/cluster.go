package cluster

import (
	"context"
	"time"

	"github.com/sqzr-sharding/sqzr/pkg/config"
)

const (
	HealthGreen  = "green"
	HealthYellow = "yellow"
	HealthRed    = "red"

	ShardStateStarted = "STARTED"
)

// Client is the request/response surface the shrink workflow consumes from
// the storage cluster. Every call is a single suspend point of a stage
// invocation; none of them carry workflow state.
type Client interface {
	// Health waits up to wait for the index to reach waitForStatus and
	// returns the observed status plus whether the wait timed out.
	Health(ctx context.Context, index string, waitForStatus string, wait time.Duration) (string, bool, error)

	IndexStats(ctx context.Context, index string) (*IndexStats, error)

	NodesStats(ctx context.Context) ([]NodeStats, error)

	// CanMoveShard simulates relocating one shard onto toNode without side
	// effects. It reports true only when every allocation decider answers
	// an unconditional yes.
	CanMoveShard(ctx context.Context, index string, shard int, fromNode, toNode string) (bool, error)

	UpdateSettings(ctx context.Context, index string, settings map[string]any) (bool, error)

	Resize(ctx context.Context, req *ResizeRequest) (bool, error)

	IndexExists(ctx context.Context, index string) (bool, error)
}

type IndexStats struct {
	Index       string
	NumShards   int
	NumReplicas int
	StoreBytes  int64
	Shards      []ShardStats
}

// StartedPrimariesOn counts primary shards that are started and resident on
// the given node.
func (s *IndexStats) StartedPrimariesOn(node string) int {
	count := 0
	for _, sh := range s.Shards {
		if sh.Primary && sh.Node == node && sh.State == ShardStateStarted {
			count++
		}
	}
	return count
}

type ShardStats struct {
	ID              int
	Primary         bool
	Node            string
	State           string
	LocalCheckpoint int64
}

type NodeStats struct {
	Name          string
	MemFreeBytes  int64
	MemTotalBytes int64
}

type ResizeRequest struct {
	SourceIndex     string
	TargetIndex     string
	NumShards       int
	RequireNodeName string
	Aliases         []config.Alias
}
