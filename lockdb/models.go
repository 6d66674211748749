package lockdb

import (
	"path"
	"time"
)

const (
	ResourceTypeShrink = "shrink"

	locksNamespace = "/shrink_locks/"
)

// Lock is a lease-based mutual-exclusion token on a cluster resource.
// PrimaryTerm and SeqNo identify the exact incarnation of the lock inside the
// backend, so a restarted process can reconstruct and release a lock it never
// held in memory.
type Lock struct {
	ResourceType string `json:"resource_type"`
	ResourceKey  string `json:"resource_key"`
	JobIndexName string `json:"job_index_name"`
	JobID        string `json:"job_id"`
	LockID       string `json:"lock_id"`
	PrimaryTerm  int64  `json:"primary_term"`
	SeqNo        int64  `json:"seq_no"`
	LockEpoch    int64  `json:"lock_epoch_second"`
	LeaseSeconds int64  `json:"lease_seconds"`
}

func (l *Lock) Resource() string {
	return l.ResourceType + "-" + l.ResourceKey
}

func (l *Lock) Expired(now time.Time) bool {
	return now.Unix() >= l.LockEpoch+l.LeaseSeconds
}

func lockNodePath(resource string) string {
	return path.Join(locksNamespace, resource)
}
