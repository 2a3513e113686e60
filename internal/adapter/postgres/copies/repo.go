// Package copies implements the Copy repository. The copy row is the
// serialization point for every state-changing circulation path, so most
// reads here take FOR UPDATE.
package copies

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides copy persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new copy repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const copyColumns = `id, item_id, barcode, status, created_at, updated_at`

const getForUpdateSQL = `
SELECT ` + copyColumns + `
FROM copies
WHERE id = $1 AND deleted_at IS NULL
FOR UPDATE`

// GetForUpdate returns a copy by primary key with its row locked for the
// duration of the surrounding transaction.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Copy, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var c domain.Copy
	err := q.QueryRow(ctx, getForUpdateSQL, id).
		Scan(&c.ID, &c.ItemID, &c.Barcode, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "copy", id)
	}
	return &c, nil
}

const getByBarcodeForUpdateSQL = `
SELECT ` + copyColumns + `
FROM copies
WHERE barcode = $1 AND deleted_at IS NULL
FOR UPDATE`

// GetByBarcodeForUpdate returns a copy by barcode with its row locked.
func (r *Repo) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Copy, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var c domain.Copy
	err := q.QueryRow(ctx, getByBarcodeForUpdateSQL, barcode).
		Scan(&c.ID, &c.ItemID, &c.Barcode, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "copy", barcode)
	}
	return &c, nil
}

// SetStatus updates the copy status. The caller is expected to hold the
// row lock already.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.CopyStatus) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE copies SET status = $1, updated_at = now() WHERE id = $2 AND deleted_at IS NULL`,
		status, id)
	if err != nil {
		return postgres.MapError(err, "copy", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "copy", id)
	}
	return nil
}

// Create records a newly acquired copy as available.
func (r *Repo) Create(ctx context.Context, itemID uuid.UUID, barcode string) (*domain.Copy, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var c domain.Copy
	err := q.QueryRow(ctx,
		`INSERT INTO copies (item_id, barcode) VALUES ($1, $2) RETURNING `+copyColumns,
		itemID, barcode).
		Scan(&c.ID, &c.ItemID, &c.Barcode, &c.Status, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "copy", barcode)
	}
	return &c, nil
}

// SoftDelete removes a copy from circulation. Refused with ErrConflict
// while an active or pending loan references the copy.
func (r *Repo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE copies SET deleted_at = now(), updated_at = now()
		WHERE id = $1 AND deleted_at IS NULL
		  AND NOT EXISTS (
		    SELECT 1 FROM loans l
		    WHERE l.copy_id = copies.id AND l.status IN ('pending', 'active')
		  )`, id)
	if err != nil {
		return postgres.MapError(err, "copy", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(domain.ErrConflict, "copy", id)
	}
	return nil
}

// ListAvailableWithQueuedHolds returns available copies of items that have
// at least one queued hold, optionally restricted to one item. Used by the
// backfill allocator, not on the request hot path.
func (r *Repo) ListAvailableWithQueuedHolds(ctx context.Context, itemID *uuid.UUID) ([]domain.Copy, error) {
	query := psql.
		Select("c.id", "c.item_id", "c.barcode", "c.status", "c.created_at", "c.updated_at").
		Distinct().
		From("copies c").
		Join("holds h ON h.item_id = c.item_id AND h.status = 'queued'").
		Where(sq.Eq{"c.status": domain.CopyStatusAvailable}).
		Where("c.deleted_at IS NULL").
		OrderBy("c.created_at ASC")
	if itemID != nil {
		query = query.Where(sq.Eq{"c.item_id": *itemID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "copies", "backfill")
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var out []domain.Copy
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, postgres.MapError(err, "copies", "backfill")
	}
	return out, nil
}
