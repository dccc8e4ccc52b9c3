package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/notifyhub/wishlist-watcher/internal/domain"
)

type pgItemRepository struct {
	pool *pgxpool.Pool
}

// NewPgItemRepository returns an ItemRepository backed by PostgreSQL.
func NewPgItemRepository(pool *pgxpool.Pool) ItemRepository {
	return &pgItemRepository{pool: pool}
}

const selectItems = `
	SELECT id, streamer_id, product_id, external_id, name, price, currency,
	       image_url, product_url, created_at
	FROM items WHERE streamer_id = $1`

func (r *pgItemRepository) GetStored(ctx context.Context, streamerID string) ([]domain.Item, error) {
	rows, err := r.pool.Query(ctx, selectItems+` ORDER BY created_at ASC, id ASC`, streamerID)
	if err != nil {
		return nil, fmt.Errorf("get stored items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// PersistSnapshot applies the snapshot in one transaction. The stored rows
// are locked first so a concurrent writer cannot interleave a transition.
func (r *pgItemRepository) PersistSnapshot(ctx context.Context, streamerID string, items []domain.Item) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	rows, err := tx.Query(ctx, selectItems+` FOR UPDATE`, streamerID)
	if err != nil {
		return fmt.Errorf("lock stored items: %w", err)
	}
	stored, err := scanItems(rows)
	rows.Close()
	if err != nil {
		return err
	}

	removed, added := snapshotChanges(stored, items)

	if len(removed) > 0 {
		ids := make([]string, len(removed))
		for i, it := range removed {
			ids[i] = it.ID
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM items WHERE streamer_id = $1 AND id = ANY($2)`, streamerID, ids); err != nil {
			return fmt.Errorf("delete removed items: %w", err)
		}
	}

	now := time.Now().UTC()
	for _, it := range added {
		_, err := tx.Exec(ctx, `
			INSERT INTO items
				(id, streamer_id, product_id, external_id, name, price, currency,
				 image_url, product_url, created_at)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
			ON CONFLICT (streamer_id, product_id) WHERE product_id IS NOT NULL DO NOTHING`,
			uuid.New().String(), streamerID,
			nullable(it.Key.ProductID), nullable(it.Key.ExternalID),
			it.Name, it.Price, it.Currency, it.ImageURL, it.ProductURL, now,
		)
		if err != nil {
			return fmt.Errorf("insert item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit snapshot: %w", err)
	}
	return nil
}

// ---- helpers ----

func scanItems(rows pgx.Rows) ([]domain.Item, error) {
	var result []domain.Item
	for rows.Next() {
		var (
			it                    domain.Item
			productID, externalID *string
		)
		err := rows.Scan(
			&it.ID, &it.StreamerID, &productID, &externalID, &it.Name, &it.Price,
			&it.Currency, &it.ImageURL, &it.ProductURL, &it.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		if productID != nil {
			it.Key.ProductID = *productID
		}
		if externalID != nil {
			it.Key.ExternalID = *externalID
		}
		result = append(result, it)
	}
	return result, rows.Err()
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
