package statistics

import (
	"sync"
	"time"

	"github.com/caio/go-tdigest"
)

// Latency digests per operation, split by the collaborator the operation
// talks to. The shrink stages record every cluster and lock call here, so a
// long-running action can report where its wall-clock time went.

type opStatistics struct {
	mu sync.Mutex

	cluster map[string]*tdigest.TDigest
	lock    map[string]*tdigest.TDigest
}

var stats = opStatistics{
	cluster: map[string]*tdigest.TDigest{},
	lock:    map[string]*tdigest.TDigest{},
}

func record(digests map[string]*tdigest.TDigest, op string, duration time.Duration) {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	d, ok := digests[op]
	if !ok {
		var err error
		d, err = tdigest.New()
		if err != nil {
			return
		}
		digests[op] = d
	}
	_ = d.Add(float64(duration.Microseconds()))
}

func RecordClusterOperation(op string, duration time.Duration) {
	record(stats.cluster, op, duration)
}

func RecordLockOperation(op string, duration time.Duration) {
	record(stats.lock, op, duration)
}

// ClusterOperationQuantile returns the q-quantile latency of the given
// cluster operation in microseconds, or 0 if the operation was never
// recorded.
func ClusterOperationQuantile(op string, q float64) float64 {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	d, ok := stats.cluster[op]
	if !ok {
		return 0
	}
	return d.Quantile(q)
}

func LockOperationQuantile(op string, q float64) float64 {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	d, ok := stats.lock[op]
	if !ok {
		return 0
	}
	return d.Quantile(q)
}

func Reset() {
	stats.mu.Lock()
	defer stats.mu.Unlock()

	stats.cluster = map[string]*tdigest.TDigest{}
	stats.lock = map[string]*tdigest.TDigest{}
}
