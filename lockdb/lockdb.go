package lockdb

import (
	"context"

	"github.com/sqzr-sharding/sqzr/pkg/config"
	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
)

// LockDB is the distributed lock service consumed by the shrink workflow.
//
// Acquire returns (nil, nil) when the resource is already locked by another
// holder: absence of a lock is an expected outcome, not an error. Release
// reports whether the given lock incarnation was actually removed.
type LockDB interface {
	Acquire(ctx context.Context, lock *Lock) (*Lock, error)
	Release(ctx context.Context, lock *Lock) (bool, error)
	Renew(ctx context.Context, lock *Lock, leaseSeconds int64) (*Lock, error)
	Find(ctx context.Context, resourceType, resourceKey string) (*Lock, error)
}

func NewLockDB(backend string) (LockDB, error) {
	switch backend {
	case "etcd":
		return NewEtcdLockDB(config.ShrinkConfig().EtcdAddr)
	case "mem":
		return RestoreMemLockDB(config.ShrinkConfig().MemBackupPath)
	default:
		return nil, sqzrerror.Newf(sqzrerror.SQZR_CONFIG_ERROR,
			"lockdb implementation %s is invalid", backend)
	}
}
