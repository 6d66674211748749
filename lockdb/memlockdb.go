package lockdb

import (
	"context"
	"encoding/json"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
	"github.com/sqzr-sharding/sqzr/statistics"
)

type MemLockDB struct {
	mu sync.RWMutex

	Locks map[string]*Lock `json:"locks"`
	Seq   int64            `json:"seq"`
	Term  int64            `json:"term"`

	backupPath string
}

var _ LockDB = &MemLockDB{}

func NewMemLockDB(backupPath string) (*MemLockDB, error) {
	return &MemLockDB{
		Locks: map[string]*Lock{},
		Term:  1,

		backupPath: backupPath,
	}, nil
}

func RestoreMemLockDB(backupPath string) (*MemLockDB, error) {
	db, err := NewMemLockDB(backupPath)
	if err != nil {
		return nil, err
	}
	if backupPath == "" {
		return db, nil
	}
	if _, err := os.Stat(backupPath); err != nil {
		sqzrlog.Zero.Info().Err(err).Msg("memlockdb backup file not exists. Creating new one.")
		f, err := os.Create(backupPath)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return db, nil
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return db, nil
	}
	if err := json.Unmarshal(data, db); err != nil {
		return nil, err
	}
	// a restart begins a new primary term, old incarnations cannot release
	db.Term++
	return db, nil
}

func (q *MemLockDB) DumpState() error {
	q.mu.RLock()
	defer q.mu.RUnlock()
	return q.dumpState()
}

// dumpState assumes the caller holds q.mu.
func (q *MemLockDB) dumpState() error {
	if q.backupPath == "" {
		return nil
	}
	tmpPath := q.backupPath + ".tmp"

	state, err := json.MarshalIndent(q, "", "	")
	if err != nil {
		return err
	}
	if err := os.WriteFile(tmpPath, state, 0644); err != nil {
		return err
	}
	return os.Rename(tmpPath, q.backupPath)
}

func (q *MemLockDB) Acquire(ctx context.Context, lock *Lock) (*Lock, error) {
	sqzrlog.Zero.Debug().
		Str("resource", lock.Resource()).
		Str("job-id", lock.JobID).
		Msg("memlockdb: acquire lock")

	t := time.Now()
	defer func() {
		statistics.RecordLockOperation("Acquire", time.Since(t))
	}()

	q.mu.Lock()
	defer q.mu.Unlock()

	now := time.Now()
	if held, ok := q.Locks[lock.Resource()]; ok && !held.Expired(now) {
		return nil, nil
	}

	q.Seq++
	acquired := *lock
	acquired.LockID = uuid.NewString()
	acquired.PrimaryTerm = q.Term
	acquired.SeqNo = q.Seq
	acquired.LockEpoch = now.Unix()
	q.Locks[lock.Resource()] = &acquired

	if err := q.dumpState(); err != nil {
		delete(q.Locks, lock.Resource())
		return nil, err
	}

	out := acquired
	return &out, nil
}

func (q *MemLockDB) Release(ctx context.Context, lock *Lock) (bool, error) {
	sqzrlog.Zero.Debug().
		Str("resource", lock.Resource()).
		Msg("memlockdb: release lock")

	t := time.Now()
	defer func() {
		statistics.RecordLockOperation("Release", time.Since(t))
	}()

	q.mu.Lock()
	defer q.mu.Unlock()

	held, ok := q.Locks[lock.Resource()]
	if !ok {
		return false, nil
	}
	if held.PrimaryTerm != lock.PrimaryTerm || held.SeqNo != lock.SeqNo {
		return false, sqzrerror.Newf(sqzrerror.SQZR_LOCK_ERROR,
			"lock on %s is held by another incarnation", lock.Resource())
	}
	delete(q.Locks, lock.Resource())
	if err := q.dumpState(); err != nil {
		return true, err
	}
	return true, nil
}

func (q *MemLockDB) Renew(ctx context.Context, lock *Lock, leaseSeconds int64) (*Lock, error) {
	sqzrlog.Zero.Debug().
		Str("resource", lock.Resource()).
		Msg("memlockdb: renew lock")

	q.mu.Lock()
	defer q.mu.Unlock()

	held, ok := q.Locks[lock.Resource()]
	if !ok || held.PrimaryTerm != lock.PrimaryTerm || held.SeqNo != lock.SeqNo {
		return nil, sqzrerror.Newf(sqzrerror.SQZR_LOCK_ERROR,
			"cannot renew lock on %s: not the current holder", lock.Resource())
	}
	held.LockEpoch = time.Now().Unix()
	held.LeaseSeconds = leaseSeconds

	if err := q.dumpState(); err != nil {
		return nil, err
	}

	out := *held
	return &out, nil
}

func (q *MemLockDB) Find(ctx context.Context, resourceType, resourceKey string) (*Lock, error) {
	q.mu.RLock()
	defer q.mu.RUnlock()

	held, ok := q.Locks[resourceType+"-"+resourceKey]
	if !ok || held.Expired(time.Now()) {
		return nil, nil
	}
	out := *held
	return &out, nil
}
