// Package fines implements the Fine repository, including the payment
// ledger backing the outstanding-balance computation.
package fines

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides fine persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new fine repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

const fineColumns = `id, loan_id, user_id, reason, status, amount_assessed, created_at, updated_at`

func scanFine(row pgx.Row) (*domain.Fine, error) {
	var f domain.Fine
	err := row.Scan(&f.ID, &f.LoanID, &f.UserID, &f.Reason, &f.Status,
		&f.AmountAssessed, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

// GetByID returns a fine by primary key with its row locked; settlement
// runs under the same lock discipline as the sweep's reconciliation.
func (r *Repo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Fine, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	f, err := scanFine(q.QueryRow(ctx,
		`SELECT `+fineColumns+` FROM fines WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, postgres.MapError(err, "fine", id)
	}
	return f, nil
}

const getOpenSQL = `
SELECT ` + fineColumns + `
FROM fines
WHERE loan_id = $1 AND reason = $2 AND status = 'open'
FOR UPDATE`

// GetOpenByLoanAndReason locks and returns the authoritative open fine for
// (loan, reason), or ErrNotFound.
func (r *Repo) GetOpenByLoanAndReason(ctx context.Context, loanID uuid.UUID, reason domain.FineReason) (*domain.Fine, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	f, err := scanFine(q.QueryRow(ctx, getOpenSQL, loanID, reason))
	if err != nil {
		return nil, postgres.MapError(err, "fine", loanID)
	}
	return f, nil
}

const createSQL = `
INSERT INTO fines (loan_id, user_id, reason, amount_assessed)
VALUES ($1, $2, $3, $4)
RETURNING ` + fineColumns

// Create inserts an open fine. The partial unique index on
// (loan_id, reason) WHERE status = 'open' turns a duplicate into
// ErrAlreadyExists.
func (r *Repo) Create(ctx context.Context, loanID, userID uuid.UUID, reason domain.FineReason, amount decimal.Decimal) (*domain.Fine, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	f, err := scanFine(q.QueryRow(ctx, createSQL, loanID, userID, reason, amount))
	if err != nil {
		return nil, postgres.MapError(err, "fine", loanID)
	}
	return f, nil
}

// UpdateAmount sets the assessed amount of a fine.
func (r *Repo) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE fines SET amount_assessed = $1, updated_at = now() WHERE id = $2`, amount, id)
	if err != nil {
		return postgres.MapError(err, "fine", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "fine", id)
	}
	return nil
}

// ConvertToLost rewrites an open overdue fine in place as the lost fine
// with the replacement amount, rather than inserting a duplicate.
func (r *Repo) ConvertToLost(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, `
		UPDATE fines SET reason = 'lost', amount_assessed = $1, updated_at = now()
		WHERE id = $2 AND status = 'open'`, amount, id)
	if err != nil {
		return postgres.MapError(err, "fine", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "fine", id)
	}
	return nil
}

// SetStatus moves a fine into the given settlement state.
func (r *Repo) SetStatus(ctx context.Context, id uuid.UUID, status domain.FineStatus) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE fines SET status = $1, updated_at = now() WHERE id = $2`, status, id)
	if err != nil {
		return postgres.MapError(err, "fine", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "fine", id)
	}
	return nil
}

// RecordPayment appends a payment (or refund) to the fine's ledger.
func (r *Repo) RecordPayment(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal, refund bool) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`INSERT INTO fine_payments (fine_id, amount, refund) VALUES ($1, $2, $3)`,
		fineID, amount, refund)
	if err != nil {
		return postgres.MapError(err, "fine", fineID)
	}
	return nil
}

const totalsSQL = `
SELECT COALESCE(SUM(amount) FILTER (WHERE NOT refund), 0),
       COALESCE(SUM(amount) FILTER (WHERE refund), 0)
FROM fine_payments
WHERE fine_id = $1`

// Totals returns the payment and refund sums for a fine.
func (r *Repo) Totals(ctx context.Context, fineID uuid.UUID) (payments, refunds decimal.Decimal, err error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	err = q.QueryRow(ctx, totalsSQL, fineID).Scan(&payments, &refunds)
	if err != nil {
		return decimal.Zero, decimal.Zero, postgres.MapError(err, "fine", fineID)
	}
	return payments, refunds, nil
}
