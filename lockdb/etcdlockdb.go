package lockdb

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	clientv3 "go.etcd.io/etcd/client/v3"
	"go.etcd.io/etcd/client/v3/clientv3util"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	retry "github.com/sethvargo/go-retry"

	"github.com/sqzr-sharding/sqzr/pkg/models/sqzrerror"
	"github.com/sqzr-sharding/sqzr/pkg/sqzrlog"
	"github.com/sqzr-sharding/sqzr/statistics"
)

type EtcdLockDB struct {
	cli *clientv3.Client
}

var _ LockDB = &EtcdLockDB{}

func NewEtcdLockDB(addr string) (*EtcdLockDB, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints: []string{addr},
		DialOptions: []grpc.DialOption{
			grpc.WithTransportCredentials(insecure.NewCredentials()),
		},
	})
	if err != nil {
		return nil, err
	}

	sqzrlog.Zero.Debug().
		Str("address", addr).
		Msg("etcdlockdb: NewEtcdLockDB")

	return &EtcdLockDB{
		cli: cli,
	}, nil
}

// Acquire grants a lease for the lock's configured lease seconds and writes
// the lock under its resource key only if no lock exists there. The etcd
// lease ID becomes the lock's primary term and the put revision its sequence
// number; together they identify this incarnation for Release.
func (q *EtcdLockDB) Acquire(ctx context.Context, lock *Lock) (*Lock, error) {
	sqzrlog.Zero.Debug().
		Str("resource", lock.Resource()).
		Str("job-id", lock.JobID).
		Msg("etcdlockdb: acquire lock")

	t := time.Now()

	var acquired *Lock
	err := retry.Do(ctx, retry.WithMaxRetries(7, retry.NewFibonacci(500*time.Millisecond)), func(ctx context.Context) error {
		leaseGrantResp, err := q.cli.Grant(ctx, lock.LeaseSeconds)
		if err != nil {
			return retry.RetryableError(err)
		}

		cand := *lock
		cand.LockID = uuid.NewString()
		cand.PrimaryTerm = int64(leaseGrantResp.ID)
		cand.LockEpoch = time.Now().Unix()

		data, err := json.Marshal(&cand)
		if err != nil {
			return err
		}

		key := lockNodePath(lock.Resource())
		op := clientv3.OpPut(key, string(data), clientv3.WithLease(leaseGrantResp.ID))
		tx := q.cli.Txn(ctx).If(clientv3util.KeyMissing(key)).Then(op)
		stat, err := tx.Commit()
		if err != nil {
			_, _ = q.cli.Revoke(ctx, leaseGrantResp.ID)
			return retry.RetryableError(err)
		}

		if !stat.Succeeded {
			// held by someone else, not an error
			_, _ = q.cli.Revoke(ctx, leaseGrantResp.ID)
			acquired = nil
			return nil
		}

		cand.SeqNo = stat.Header.Revision
		acquired = &cand
		return nil
	})

	statistics.RecordLockOperation("Acquire", time.Since(t))
	if err != nil {
		return nil, err
	}
	return acquired, nil
}

func (q *EtcdLockDB) Release(ctx context.Context, lock *Lock) (bool, error) {
	sqzrlog.Zero.Debug().
		Str("resource", lock.Resource()).
		Msg("etcdlockdb: release lock")

	t := time.Now()
	defer func() {
		statistics.RecordLockOperation("Release", time.Since(t))
	}()

	key := lockNodePath(lock.Resource())
	resp, err := q.cli.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if len(resp.Kvs) == 0 {
		return false, nil
	}

	var held Lock
	if err := json.Unmarshal(resp.Kvs[0].Value, &held); err != nil {
		return false, err
	}
	if held.PrimaryTerm != lock.PrimaryTerm || held.SeqNo != lock.SeqNo {
		return false, sqzrerror.Newf(sqzrerror.SQZR_LOCK_ERROR,
			"lock on %s is held by another incarnation", lock.Resource())
	}

	// delete only the incarnation just read; if the lease expired and another
	// holder reacquired in between, the txn must not remove their lock
	stat, err := q.cli.Txn(ctx).
		If(clientv3.Compare(clientv3.ModRevision(key), "=", resp.Kvs[0].ModRevision)).
		Then(clientv3.OpDelete(key)).
		Commit()
	if err != nil {
		return false, err
	}
	if !stat.Succeeded {
		return false, sqzrerror.Newf(sqzrerror.SQZR_LOCK_ERROR,
			"lock on %s changed hands during release", lock.Resource())
	}
	if _, err := q.cli.Revoke(ctx, clientv3.LeaseID(held.PrimaryTerm)); err != nil {
		sqzrlog.Zero.Warn().Err(err).
			Str("resource", lock.Resource()).
			Msg("etcdlockdb: lease revoke failed after delete")
	}
	return true, nil
}

func (q *EtcdLockDB) Renew(ctx context.Context, lock *Lock, leaseSeconds int64) (*Lock, error) {
	sqzrlog.Zero.Debug().
		Str("resource", lock.Resource()).
		Msg("etcdlockdb: renew lock")

	t := time.Now()
	defer func() {
		statistics.RecordLockOperation("Renew", time.Since(t))
	}()

	if _, err := q.cli.KeepAliveOnce(ctx, clientv3.LeaseID(lock.PrimaryTerm)); err != nil {
		return nil, sqzrerror.Newf(sqzrerror.SQZR_LOCK_ERROR,
			"cannot renew lock on %s: %v", lock.Resource(), err)
	}

	out := *lock
	out.LockEpoch = time.Now().Unix()
	out.LeaseSeconds = leaseSeconds
	return &out, nil
}

func (q *EtcdLockDB) Find(ctx context.Context, resourceType, resourceKey string) (*Lock, error) {
	t := time.Now()
	defer func() {
		statistics.RecordLockOperation("Find", time.Since(t))
	}()

	resp, err := q.cli.Get(ctx, lockNodePath(resourceType+"-"+resourceKey))
	if err != nil {
		return nil, err
	}
	if len(resp.Kvs) == 0 {
		return nil, nil
	}

	var held Lock
	if err := json.Unmarshal(resp.Kvs[0].Value, &held); err != nil {
		return nil, err
	}
	return &held, nil
}
