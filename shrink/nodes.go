package shrink

import (
	"container/heap"
	"context"

	"github.com/sqzr-sharding/sqzr/cluster"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
)

type nodeCandidate struct {
	name    string
	surplus int64
}

// min-heap on surplus; drained and reversed to try the roomiest node first
type candidateHeap []nodeCandidate

func (h candidateHeap) Len() int           { return len(h) }
func (h candidateHeap) Less(i, j int) bool { return h[i].surplus < h[j].surplus }
func (h candidateHeap) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }
func (h *candidateHeap) Push(x any)        { *h = append(*h, x.(nodeCandidate)) }
func (h *candidateHeap) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

// suitableNodes ranks cluster nodes by spare memory and keeps only those
// able to host every primary shard of the source index. A node needs free
// memory above 2x the index store size plus a fraction of its total memory
// held back as buffer; its surplus over that requirement is the ranking
// score.
func (a *Action) suitableNodes(ctx context.Context, sourceIndex string, stats *cluster.IndexStats) ([]string, error) {
	nodes, err := a.cluster.NodesStats(ctx)
	if err != nil {
		return nil, err
	}

	h := &candidateHeap{}
	for _, n := range nodes {
		required := 2*stats.StoreBytes + int64(a.cfg.BufferFraction*float64(n.MemTotalBytes))
		if n.MemFreeBytes <= required {
			sqzrlog.Zero.Debug().
				Str("node", n.Name).
				Int64("free", n.MemFreeBytes).
				Int64("required", required).
				Msg("shrink: node lacks spare memory")
			continue
		}
		heap.Push(h, nodeCandidate{name: n.Name, surplus: n.MemFreeBytes - required})
	}

	ordered := make([]nodeCandidate, h.Len())
	for i := len(ordered) - 1; i >= 0; i-- {
		ordered[i] = heap.Pop(h).(nodeCandidate)
	}

	var suitable []string
	for _, cand := range ordered {
		ok, err := a.allShardsCanReside(ctx, sourceIndex, stats, cand.name)
		if err != nil {
			return nil, err
		}
		if ok {
			suitable = append(suitable, cand.name)
		}
	}
	return suitable, nil
}

// allShardsCanReside reports whether every primary shard of the index either
// already lives on the node or can be relocated there according to a dry-run
// reroute simulation. All-or-nothing: one immovable shard disqualifies the
// node.
func (a *Action) allShardsCanReside(ctx context.Context, index string, stats *cluster.IndexStats, node string) (bool, error) {
	movable := 0
	for _, sh := range stats.Shards {
		if !sh.Primary {
			continue
		}
		if sh.Node == node {
			movable++
			continue
		}
		ok, err := a.cluster.CanMoveShard(ctx, index, sh.ID, sh.Node, node)
		if err != nil {
			return false, err
		}
		if !ok {
			sqzrlog.Zero.Debug().
				Str("node", node).
				Int("shard", sh.ID).
				Msg("shrink: shard cannot relocate to candidate node")
			return false, nil
		}
		movable++
	}
	return movable >= stats.NumShards, nil
}
