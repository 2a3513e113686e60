// Package items implements catalog item lookups and the per-item lock used
// to serialize queue-position assignment.
package items

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides item persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new item repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const getByIDSQL = `
SELECT id, title, author, created_at, updated_at
FROM items
WHERE id = $1`

// GetByID returns an item by primary key.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var it domain.Item
	err := q.QueryRow(ctx, getByIDSQL, id).
		Scan(&it.ID, &it.Title, &it.Author, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "item", id)
	}
	return &it, nil
}

// LockRow takes the item row lock. Hold placement locks the item before
// computing the next queue position so two concurrent placements cannot
// read the same maximum.
func (r *Repo) LockRow(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var locked uuid.UUID
	err := q.QueryRow(ctx, `SELECT id FROM items WHERE id = $1 FOR UPDATE`, id).Scan(&locked)
	if err != nil {
		return postgres.MapError(err, "item", id)
	}
	return nil
}

const kindSourceSQL = `
SELECT i.id,
       EXISTS (SELECT 1 FROM device_assets d WHERE d.item_id = i.id),
       m.kind
FROM items i
LEFT JOIN media_assets m ON m.item_id = i.id
WHERE i.id = $1`

// KindSource returns the raw inputs for media-kind resolution: whether a
// device asset exists for the item, and the media asset kind if one is
// recorded.
func (r *Repo) KindSource(ctx context.Context, id uuid.UUID) (hasDevice bool, mediaKind *string, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var itemID uuid.UUID
	err = q.QueryRow(ctx, kindSourceSQL, id).Scan(&itemID, &hasDevice, &mediaKind)
	if err != nil {
		return false, nil, postgres.MapError(err, "item", id)
	}
	return hasDevice, mediaKind, nil
}
