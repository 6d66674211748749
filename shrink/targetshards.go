package shrink

import (
	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
)

// targetNumShards computes the shard count of the shrunken index. Shrinking
// merges shards by exact integer division, so whatever the configuration
// asks for is coerced to a divisor of the source shard count.
func (a *Action) targetNumShards(numShards int, storeBytes int64) (int, error) {
	switch {
	case a.cfg.NumNewShards > 0:
		return greatestDivisorAtMost(numShards, a.cfg.NumNewShards), nil
	case a.cfg.PercentageOfSourceShards > 0:
		// the float product is a documented approximation, truncated
		k := int(a.cfg.PercentageOfSourceShards * float64(numShards))
		if k < 1 {
			k = 1
		}
		return greatestDivisorAtMost(numShards, k), nil
	case a.cfg.MaxShardSizeBytes > 0:
		k := int((storeBytes + a.cfg.MaxShardSizeBytes - 1) / a.cfg.MaxShardSizeBytes)
		if k < 1 {
			k = 1
		}
		return smallestDivisorAtLeast(numShards, k), nil
	default:
		return 0, sqzrerror.New(sqzrerror.SQZR_CONFIG_ERROR,
			"no target shard count strategy configured")
	}
}

// greatestDivisorAtMost returns the greatest divisor of n that is <= k, or n
// itself when k >= n. Divisor pairs are enumerated up to the integer square
// root; the complement of a small factor is preferred over the factor when
// both fit under k.
func greatestDivisorAtMost(n, k int) int {
	if k >= n {
		return n
	}
	best := 1
	for d := 1; d*d <= n; d++ {
		if n%d != 0 {
			continue
		}
		if d <= k && d > best {
			best = d
		}
		if c := n / d; c <= k && c > best {
			best = c
		}
	}
	return best
}

// smallestDivisorAtLeast returns the smallest divisor of n that is >= k,
// falling back to n when no smaller divisor qualifies or when k >= n.
func smallestDivisorAtLeast(n, k int) int {
	if k >= n {
		return n
	}
	for d := k; d < n; d++ {
		if n%d == 0 {
			return d
		}
	}
	return n
}
