package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

type pgStreamerRepository struct {
	pool *pgxpool.Pool
}

// NewPgStreamerRepository returns a StreamerRepository backed by PostgreSQL.
func NewPgStreamerRepository(pool *pgxpool.Pool) StreamerRepository {
	return &pgStreamerRepository{pool: pool}
}

// ListTracked returns streamers followed by at least one user or group,
// oldest first.
// Nickname de-duplication is left to the scheduler.
func (r *pgStreamerRepository) ListTracked(ctx context.Context) ([]domain.Streamer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT s.id, s.display_name, s.nickname, s.priority
		FROM streamers s
		WHERE EXISTS (SELECT 1 FROM user_streamers us WHERE us.streamer_id = s.id)
		   OR EXISTS (SELECT 1 FROM group_streamers gs WHERE gs.streamer_id = s.id)
		ORDER BY s.created_at ASC, s.id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list tracked streamers: %w", err)
	}
	defer rows.Close()

	var out []domain.Streamer
	for rows.Next() {
		var (
			s        domain.Streamer
			priority int
		)
		if err := rows.Scan(&s.ID, &s.DisplayName, &s.Nickname, &priority); err != nil {
			return nil, fmt.Errorf("scan streamer: %w", err)
		}
		s.Priority = domain.Priority(priority).Normalize()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *pgStreamerRepository) SetPriority(ctx context.Context, streamerID string, p domain.Priority) error {
	tag, err := r.pool.Exec(ctx, `UPDATE streamers SET priority = $1 WHERE id = $2`, int(p), streamerID)
	if err != nil {
		return fmt.Errorf("set streamer priority: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}
