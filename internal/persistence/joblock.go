package persistence

import (
	"context"
	"hash/fnv"

	"github.com/jackc/pgx/v5/pgxpool"
)

// JobLock provides per-job mutual exclusion via Postgres advisory
// locks so overlapping scheduler invocations of the same sweeper skip
// instead of racing. The lock is tied to one pooled connection, which
// is held until release.
type JobLock struct {
	pool *pgxpool.Pool
}

// NewJobLock builds a lock helper over the shared pool.
func NewJobLock(pool *pgxpool.Pool) *JobLock {
	return &JobLock{pool: pool}
}

// TryAcquire attempts to take the advisory lock for the job name.
// When ok is true the caller must invoke release. When the pool is
// not configured the lock degrades to a no-op grant so single-process
// deployments without Postgres still run their sweeps.
func (l *JobLock) TryAcquire(ctx context.Context, job string) (release func(), ok bool, err error) {
	if l == nil || l.pool == nil {
		return func() {}, true, nil
	}

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, false, err
	}

	key := lockKey(job)
	var acquired bool
	if err := conn.QueryRow(ctx, `SELECT pg_try_advisory_lock($1)`, key).Scan(&acquired); err != nil {
		conn.Release()
		return nil, false, err
	}
	if !acquired {
		conn.Release()
		return nil, false, nil
	}

	release = func() {
		// Unlock on the same connection that took the lock.
		_, _ = conn.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, key)
		conn.Release()
	}
	return release, true, nil
}

func lockKey(job string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte("helpdesk-core/" + job))
	return int64(h.Sum64())
}
