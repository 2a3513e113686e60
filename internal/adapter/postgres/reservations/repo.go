// Package reservations implements read access to room reservations for the
// sweep. Booking itself lives outside this service.
package reservations

import (
	"context"
	"time"

	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides reservation lookups backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new reservation repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const endingBetweenSQL = `
SELECT id, user_id, room_name, starts_at, ends_at
FROM room_reservations
WHERE ends_at > $1 AND ends_at <= $2
ORDER BY ends_at ASC`

// ListEndingBetween returns reservations whose end falls in (from, to].
func (r *Repo) ListEndingBetween(ctx context.Context, from, to time.Time) ([]domain.RoomReservation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var out []domain.RoomReservation
	if err := pgxscan.Select(ctx, q, &out, endingBetweenSQL, from, to); err != nil {
		return nil, postgres.MapError(err, "reservations", "expiring")
	}
	return out, nil
}

const endedBeforeSQL = `
SELECT id, user_id, room_name, starts_at, ends_at
FROM room_reservations
WHERE ends_at <= $1
ORDER BY ends_at ASC`

// ListEndedBefore returns reservations already over at the given time.
func (r *Repo) ListEndedBefore(ctx context.Context, t time.Time) ([]domain.RoomReservation, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var out []domain.RoomReservation
	if err := pgxscan.Select(ctx, q, &out, endedBeforeSQL, t); err != nil {
		return nil, postgres.MapError(err, "reservations", "expired")
	}
	return out, nil
}
