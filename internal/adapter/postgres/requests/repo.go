// Package requests implements the checkout-request repository used by the
// request/approve checkout flow.
package requests

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides checkout-request persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new checkout-request repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const requestColumns = `id, user_id, copy_id, status, loan_id, created_at, decided_at`

func scanRequest(row pgx.Row) (*domain.CheckoutRequest, error) {
	var cr domain.CheckoutRequest
	err := row.Scan(&cr.ID, &cr.UserID, &cr.CopyID, &cr.Status, &cr.LoanID,
		&cr.CreatedAt, &cr.DecidedAt)
	if err != nil {
		return nil, err
	}
	return &cr, nil
}

// Create inserts a pending checkout request linked to the pending loan the
// request flow already issued for the copy.
func (r *Repo) Create(ctx context.Context, userID, copyID, loanID uuid.UUID) (*domain.CheckoutRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	cr, err := scanRequest(q.QueryRow(ctx,
		`INSERT INTO checkout_requests (user_id, copy_id, loan_id) VALUES ($1, $2, $3) RETURNING `+requestColumns,
		userID, copyID, loanID))
	if err != nil {
		return nil, postgres.MapError(err, "checkout request", copyID)
	}
	return cr, nil
}

// GetPendingForUpdate locks and returns a pending request, ErrNotFound when
// the request is absent or already decided.
func (r *Repo) GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*domain.CheckoutRequest, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	cr, err := scanRequest(q.QueryRow(ctx,
		`SELECT `+requestColumns+` FROM checkout_requests WHERE id = $1 AND status = 'pending' FOR UPDATE`,
		id))
	if err != nil {
		return nil, postgres.MapError(err, "checkout request", id)
	}
	return cr, nil
}

// MarkApproved stamps the decision time and flips the request approved.
func (r *Repo) MarkApproved(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE checkout_requests SET status = 'approved', decided_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return postgres.MapError(err, "checkout request", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "checkout request", id)
	}
	return nil
}

// MarkRejected records a staff refusal.
func (r *Repo) MarkRejected(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE checkout_requests SET status = 'rejected', decided_at = now()
		WHERE id = $1 AND status = 'pending'`, id)
	if err != nil {
		return postgres.MapError(err, "checkout request", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "checkout request", id)
	}
	return nil
}
