// Package holds implements the Hold repository. Queue fairness rests on two
// queries here: MaxQueuePosition under the item row lock, and
// NextQueuedForUpdate, which locks the earliest queued hold so concurrent
// promotions can never pick the same one.
package holds

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides hold persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new hold repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

const holdColumns = `id, user_id, item_id, copy_id, status, queue_position,
       available_since, expires_at, created_at, updated_at`

func scanHold(row pgx.Row) (*domain.Hold, error) {
	var h domain.Hold
	err := row.Scan(&h.ID, &h.UserID, &h.ItemID, &h.CopyID, &h.Status, &h.QueuePosition,
		&h.AvailableSince, &h.ExpiresAt, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

const createSQL = `
INSERT INTO holds (user_id, item_id, queue_position)
VALUES ($1, $2, $3)
RETURNING ` + holdColumns

// Create inserts a queued hold at the given queue position.
func (r *Repo) Create(ctx context.Context, userID, itemID uuid.UUID, queuePosition int) (*domain.Hold, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	h, err := scanHold(q.QueryRow(ctx, createSQL, userID, itemID, queuePosition))
	if err != nil {
		return nil, postgres.MapError(err, "hold", itemID)
	}
	return h, nil
}

// Get returns a hold by primary key without locking it. State-changing
// callers use this for a first look, then take the copy lock before
// re-reading under GetForUpdate.
func (r *Repo) Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	h, err := scanHold(q.QueryRow(ctx,
		`SELECT `+holdColumns+` FROM holds WHERE id = $1`, id))
	if err != nil {
		return nil, postgres.MapError(err, "hold", id)
	}
	return h, nil
}

// GetForUpdate returns a hold by primary key with its row locked.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	h, err := scanHold(q.QueryRow(ctx,
		`SELECT `+holdColumns+` FROM holds WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, postgres.MapError(err, "hold", id)
	}
	return h, nil
}

// MaxQueuePosition returns the highest queue position ever assigned for the
// item, 0 when no holds exist. Callers must hold the item row lock.
func (r *Repo) MaxQueuePosition(ctx context.Context, itemID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var max int
	err := q.QueryRow(ctx,
		`SELECT COALESCE(MAX(queue_position), 0) FROM holds WHERE item_id = $1`, itemID).
		Scan(&max)
	if err != nil {
		return 0, postgres.MapError(err, "hold", itemID)
	}
	return max, nil
}

const nextQueuedSQL = `
SELECT ` + holdColumns + `
FROM holds
WHERE item_id = $1 AND status = 'queued'
ORDER BY queue_position ASC, id ASC
LIMIT 1
FOR UPDATE`

// NextQueuedForUpdate locks and returns the earliest queued hold for the
// item in (queue_position, id) order, or ErrNotFound when the queue is
// empty. The lock is what makes promotion order total under concurrency.
func (r *Repo) NextQueuedForUpdate(ctx context.Context, itemID uuid.UUID) (*domain.Hold, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	h, err := scanHold(q.QueryRow(ctx, nextQueuedSQL, itemID))
	if err != nil {
		return nil, postgres.MapError(err, "hold", itemID)
	}
	return h, nil
}

// HasReadyForCopy reports whether a ready hold already claims the copy.
func (r *Repo) HasReadyForCopy(ctx context.Context, copyID uuid.UUID) (bool, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	err := q.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM holds WHERE copy_id = $1 AND status = 'ready')`, copyID).
		Scan(&exists)
	if err != nil {
		return false, postgres.MapError(err, "hold", copyID)
	}
	return exists, nil
}

const markReadySQL = `
UPDATE holds
SET status = 'ready', copy_id = $2, available_since = $3, expires_at = $4, updated_at = now()
WHERE id = $1
RETURNING ` + holdColumns

// MarkReady promotes a queued hold: pins the copy and stamps the pickup
// window. The caller holds both the copy and hold row locks.
func (r *Repo) MarkReady(ctx context.Context, id, copyID uuid.UUID, availableSince, expiresAt time.Time) (*domain.Hold, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	h, err := scanHold(q.QueryRow(ctx, markReadySQL, id, copyID, availableSince, expiresAt))
	if err != nil {
		return nil, postgres.MapError(err, "hold", id)
	}
	return h, nil
}

// SetStatus moves a hold into the given lifecycle state.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.HoldStatus) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE holds SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return postgres.MapError(err, "hold", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "hold", id)
	}
	return nil
}

const expiredReadySQL = `
SELECT ` + holdColumns + `
FROM holds
WHERE status = 'ready' AND expires_at < $1
ORDER BY expires_at ASC`

// ListExpiredReady returns all ready holds whose pickup window has passed.
// No locks are taken; the expiry pass re-reads each hold under its copy
// lock before acting, so stale entries are simply skipped.
func (r *Repo) ListExpiredReady(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, expiredReadySQL, now)
	if err != nil {
		return nil, postgres.MapError(err, "holds", "expired")
	}
	defer rows.Close()

	var out []domain.Hold
	for rows.Next() {
		h, err := scanHold(rows)
		if err != nil {
			return nil, postgres.MapError(err, "holds", "expired")
		}
		out = append(out, *h)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "holds", "expired")
	}
	return out, nil
}

// List returns holds ordered by status priority (ready, queued, fulfilled,
// cancelled, expired), then queue position, then creation time. A nil
// userID returns all holds (staff scope).
func (r *Repo) List(ctx context.Context, userID *uuid.UUID) ([]domain.Hold, error) {
	query := psql.
		Select("id", "user_id", "item_id", "copy_id", "status", "queue_position",
			"available_since", "expires_at", "created_at", "updated_at").
		From("holds").
		OrderBy(`CASE status
			WHEN 'ready' THEN 0
			WHEN 'queued' THEN 1
			WHEN 'fulfilled' THEN 2
			WHEN 'cancelled' THEN 3
			ELSE 4 END`,
			"queue_position ASC", "created_at ASC")
	if userID != nil {
		query = query.Where(sq.Eq{"user_id": *userID})
	}

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "holds", "list")
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var out []domain.Hold
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, postgres.MapError(err, "holds", "list")
	}
	return out, nil
}
