package steps

import (
	"encoding/json"

	"github.com/sqzr-sharding/sqzr/lockdb"
	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
)

// ShrinkActionProperties is the sole cross-stage persisted state. It is
// written once at the end of node selection and carried, immutable, through
// the remaining stages and the failure cleanup path. The lock fields are
// enough to reconstruct and release the held lock without a live handle.
type ShrinkActionProperties struct {
	NodeName        string `json:"node_name"`
	TargetIndexName string `json:"target_index_name"`
	TargetNumShards int    `json:"target_num_shards"`
	LockPrimaryTerm int64  `json:"lock_primary_term"`
	LockSeqNo       int64  `json:"lock_seq_no"`
	LockEpochSecond int64  `json:"lock_epoch_second"`
}

func PropertiesFromLock(lock *lockdb.Lock, targetIndexName string, targetNumShards int) *ShrinkActionProperties {
	return &ShrinkActionProperties{
		NodeName:        lock.ResourceKey,
		TargetIndexName: targetIndexName,
		TargetNumShards: targetNumShards,
		LockPrimaryTerm: lock.PrimaryTerm,
		LockSeqNo:       lock.SeqNo,
		LockEpochSecond: lock.LockEpoch,
	}
}

// ToLock rebuilds the held lock from persisted properties so that a stage
// running in a fresh process can release it.
func (p *ShrinkActionProperties) ToLock(jobIndexName, jobID string, leaseSeconds int64) *lockdb.Lock {
	return &lockdb.Lock{
		ResourceType: lockdb.ResourceTypeShrink,
		ResourceKey:  p.NodeName,
		JobIndexName: jobIndexName,
		JobID:        jobID,
		PrimaryTerm:  p.LockPrimaryTerm,
		SeqNo:        p.LockSeqNo,
		LockEpoch:    p.LockEpochSecond,
		LeaseSeconds: leaseSeconds,
	}
}

func (p *ShrinkActionProperties) Metadata() ([]byte, error) {
	return json.Marshal(p)
}

func PropertiesFromMetadata(data []byte) (*ShrinkActionProperties, error) {
	if len(data) == 0 {
		return nil, sqzrerror.New(sqzrerror.SQZR_METADATA, "empty action metadata")
	}
	var p ShrinkActionProperties
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, sqzrerror.Newf(sqzrerror.SQZR_METADATA, "malformed action metadata: %v", err)
	}
	if p.NodeName == "" || p.TargetIndexName == "" || p.TargetNumShards == 0 {
		return nil, sqzrerror.New(sqzrerror.SQZR_METADATA, "metadata not properly populated")
	}
	return &p, nil
}
