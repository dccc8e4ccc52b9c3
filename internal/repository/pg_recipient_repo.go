package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

type pgRecipientRepository struct {
	pool *pgxpool.Pool
}

// NewPgRecipientRepository returns a RecipientRepository backed by PostgreSQL.
func NewPgRecipientRepository(pool *pgxpool.Pool) RecipientRepository {
	return &pgRecipientRepository{pool: pool}
}

func (r *pgRecipientRepository) ListDirect(ctx context.Context, streamerID string) ([]domain.Recipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT u.id, u.chat_id
		FROM users u
		JOIN user_streamers us ON us.user_id = u.id
		WHERE us.streamer_id = $1 AND u.chat_id <> ''
		ORDER BY us.created_at ASC`, streamerID)
	if err != nil {
		return nil, fmt.Errorf("list direct recipients: %w", err)
	}
	defer rows.Close()
	return scanRecipients(rows, domain.RecipientDirect)
}

func (r *pgRecipientRepository) ListGroups(ctx context.Context, streamerID string) ([]domain.Recipient, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT g.id, g.chat_id
		FROM groups g
		JOIN group_streamers gs ON gs.group_id = g.id
		WHERE gs.streamer_id = $1 AND g.chat_id <> ''
		ORDER BY gs.created_at ASC`, streamerID)
	if err != nil {
		return nil, fmt.Errorf("list group recipients: %w", err)
	}
	defer rows.Close()
	return scanRecipients(rows, domain.RecipientGroup)
}

func (r *pgRecipientRepository) GetUserSettings(ctx context.Context, userID, streamerID string) (domain.UserSettings, error) {
	var s domain.UserSettings
	err := r.pool.QueryRow(ctx, `
		SELECT enabled, direct_message FROM user_streamer_settings
		WHERE user_id = $1 AND streamer_id = $2`, userID, streamerID).
		Scan(&s.Enabled, &s.DirectMessage)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.UserSettings{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.UserSettings{}, fmt.Errorf("get user settings: %w", err)
	}
	return s, nil
}

func (r *pgRecipientRepository) GetGroupSettings(ctx context.Context, groupID, streamerID string) (domain.GroupSettings, error) {
	var s domain.GroupSettings
	err := r.pool.QueryRow(ctx, `
		SELECT enabled FROM group_streamer_settings
		WHERE group_id = $1 AND streamer_id = $2`, groupID, streamerID).
		Scan(&s.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.GroupSettings{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.GroupSettings{}, fmt.Errorf("get group settings: %w", err)
	}
	return s, nil
}

func (r *pgRecipientRepository) SetUserSettings(ctx context.Context, userID, streamerID string, s domain.UserSettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO user_streamer_settings (user_id, streamer_id, enabled, direct_message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, streamer_id)
		DO UPDATE SET enabled = EXCLUDED.enabled, direct_message = EXCLUDED.direct_message`,
		userID, streamerID, s.Enabled, s.DirectMessage)
	if err != nil {
		return fmt.Errorf("upsert user settings: %w", err)
	}
	return nil
}

func (r *pgRecipientRepository) SetGroupSettings(ctx context.Context, groupID, streamerID string, s domain.GroupSettings) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO group_streamer_settings (group_id, streamer_id, enabled)
		VALUES ($1, $2, $3)
		ON CONFLICT (group_id, streamer_id) DO UPDATE SET enabled = EXCLUDED.enabled`,
		groupID, streamerID, s.Enabled)
	if err != nil {
		return fmt.Errorf("upsert group settings: %w", err)
	}
	return nil
}

func scanRecipients(rows pgx.Rows, kind domain.RecipientKind) ([]domain.Recipient, error) {
	var out []domain.Recipient
	for rows.Next() {
		rc := domain.Recipient{Kind: kind}
		if err := rows.Scan(&rc.ID, &rc.Address); err != nil {
			return nil, fmt.Errorf("scan recipient: %w", err)
		}
		out = append(out, rc)
	}
	return out, rows.Err()
}
