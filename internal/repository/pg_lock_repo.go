package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

// pgLockRepository keeps the scheduler lock in a single PostgreSQL row.
// All timestamps come from the database clock so worker clock drift never
// decides staleness.
type pgLockRepository struct {
	pool       *pgxpool.Pool
	staleAfter time.Duration
}

// NewPgLockRepository returns a LockRepository whose lock may be taken over
// once its heartbeat is older than staleAfter.
func NewPgLockRepository(pool *pgxpool.Pool, staleAfter time.Duration) LockRepository {
	return &pgLockRepository{pool: pool, staleAfter: staleAfter}
}

// TryAcquire is a single upsert: it inserts into an empty table, refreshes
// our own row, or takes over a stale one. Any other case updates nothing
// and returns no row.
func (r *pgLockRepository) TryAcquire(ctx context.Context, instanceID string) (bool, error) {
	var owner string
	err := r.pool.QueryRow(ctx, `
		INSERT INTO scheduler_lock (id, instance_id, acquired_at, heartbeat_at)
		VALUES ($1, $2, NOW(), NOW())
		ON CONFLICT (id) DO UPDATE SET
			instance_id  = EXCLUDED.instance_id,
			acquired_at  = CASE WHEN scheduler_lock.instance_id = EXCLUDED.instance_id
			                    THEN scheduler_lock.acquired_at ELSE NOW() END,
			heartbeat_at = NOW()
		WHERE scheduler_lock.instance_id = EXCLUDED.instance_id
		   OR scheduler_lock.heartbeat_at < NOW() - make_interval(secs => $3)
		RETURNING instance_id`,
		domain.SchedulerLockID, instanceID, r.staleAfter.Seconds(),
	).Scan(&owner)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("acquire scheduler lock: %w", err)
	}
	return owner == instanceID, nil
}

func (r *pgLockRepository) Renew(ctx context.Context, instanceID string) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE scheduler_lock SET heartbeat_at = NOW()
		WHERE id = $1 AND instance_id = $2`, domain.SchedulerLockID, instanceID)
	if err != nil {
		return false, fmt.Errorf("renew scheduler lock: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

func (r *pgLockRepository) Release(ctx context.Context, instanceID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM scheduler_lock WHERE id = $1 AND instance_id = $2`,
		domain.SchedulerLockID, instanceID)
	if err != nil {
		return fmt.Errorf("release scheduler lock: %w", err)
	}
	return nil
}

func (r *pgLockRepository) Get(ctx context.Context) (*domain.SchedulerLock, error) {
	var l domain.SchedulerLock
	err := r.pool.QueryRow(ctx, `
		SELECT id, instance_id, acquired_at, heartbeat_at
		FROM scheduler_lock WHERE id = $1`, domain.SchedulerLockID).
		Scan(&l.ID, &l.InstanceID, &l.AcquiredAt, &l.HeartbeatAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get scheduler lock: %w", err)
	}
	return &l, nil
}
