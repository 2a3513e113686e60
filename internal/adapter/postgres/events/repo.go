// Package events implements the circulation event log. Writes are
// best-effort from the caller's point of view: the services log a failure
// and move on, so this sink must never be load-bearing.
package events

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides event-log persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new event repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const recordSQL = `
INSERT INTO circulation_events (type, user_id, copy_id, loan_id, hold_id, employee_id)
VALUES ($1, $2, $3, $4, $5, $6)`

// Record appends an event.
func (r *Repo) Record(ctx context.Context, ev domain.CirculationEvent) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx, recordSQL,
		ev.Type, ev.UserID, ev.CopyID, ev.LoanID, ev.HoldID, ev.EmployeeID)
	if err != nil {
		return postgres.MapError(err, "event", ev.Type)
	}
	return nil
}
