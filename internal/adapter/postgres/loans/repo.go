// Package loans implements the Loan repository. The insert column set is
// governed by the schema capability descriptor detected at startup:
// deployments predating the policy snapshot columns get the minimal set.
package loans

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides loan persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
	caps postgres.SchemaCapabilities
}

// New creates a new loan repository.
func New(pool *pgxpool.Pool, caps postgres.SchemaCapabilities) *Repo {
	return &Repo{pool: pool, caps: caps}
}

const loanColumns = `id, user_id, copy_id, employee_id, status, checkout_date, due_date,
       return_date, policy_id, daily_rate_snapshot, grace_days_snapshot,
       max_fine_snapshot, replacement_fee_snapshot, created_at, updated_at`

const loanColumnsMinimal = `id, user_id, copy_id, employee_id, status, checkout_date, due_date,
       return_date, created_at, updated_at`

func scanLoan(row pgx.Row) (*domain.Loan, error) {
	var (
		l          domain.Loan
		policyID   *uuid.UUID
		dailyRate  *decimal.Decimal
		graceDays  *int
		maxFine    *decimal.Decimal
		replaceFee *decimal.Decimal
	)
	err := row.Scan(&l.ID, &l.UserID, &l.CopyID, &l.EmployeeID, &l.Status,
		&l.CheckoutDate, &l.DueDate, &l.ReturnDate,
		&policyID, &dailyRate, &graceDays, &maxFine, &replaceFee,
		&l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if dailyRate != nil && graceDays != nil && maxFine != nil && replaceFee != nil {
		l.Snapshot = &domain.PolicySnapshot{
			PolicyID:       policyID,
			DailyRate:      *dailyRate,
			GraceDays:      *graceDays,
			MaxFine:        *maxFine,
			ReplacementFee: *replaceFee,
		}
	}
	return &l, nil
}

func scanLoanMinimal(row pgx.Row) (*domain.Loan, error) {
	var l domain.Loan
	err := row.Scan(&l.ID, &l.UserID, &l.CopyID, &l.EmployeeID, &l.Status,
		&l.CheckoutDate, &l.DueDate, &l.ReturnDate, &l.CreatedAt, &l.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

const createSnapshotSQL = `
INSERT INTO loans (user_id, copy_id, employee_id, status, due_date,
                   policy_id, daily_rate_snapshot, grace_days_snapshot,
                   max_fine_snapshot, replacement_fee_snapshot)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING ` + loanColumns

const createMinimalSQL = `
INSERT INTO loans (user_id, copy_id, employee_id, status, due_date)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + loanColumnsMinimal

// Create inserts a loan. When the schema carries snapshot columns the full
// policy snapshot is frozen onto the row; otherwise the minimal set is
// written and the loan's Snapshot comes back nil.
func (r *Repo) Create(ctx context.Context, userID, copyID uuid.UUID, employeeID *uuid.UUID,
	status domain.LoanStatus, dueDate time.Time, snap *domain.PolicySnapshot) (*domain.Loan, error) {

	q := postgres.QuerierFromCtx(ctx, r.pool)

	if !r.caps.LoanPolicySnapshot || snap == nil {
		l, err := scanLoanMinimal(q.QueryRow(ctx, createMinimalSQL,
			userID, copyID, employeeID, status, dueDate))
		if err != nil {
			return nil, postgres.MapError(err, "loan", copyID)
		}
		return l, nil
	}

	l, err := scanLoan(q.QueryRow(ctx, createSnapshotSQL,
		userID, copyID, employeeID, status, dueDate,
		snap.PolicyID, snap.DailyRate, snap.GraceDays, snap.MaxFine, snap.ReplacementFee))
	if err != nil {
		return nil, postgres.MapError(err, "loan", copyID)
	}
	return l, nil
}

// GetForUpdate returns a loan by primary key with its row locked. The column
// set mirrors Create: schemas without snapshot columns are read minimally and
// the loan comes back with a nil Snapshot.
func (r *Repo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	cols, scan := loanColumns, scanLoan
	if !r.caps.LoanPolicySnapshot {
		cols, scan = loanColumnsMinimal, scanLoanMinimal
	}
	l, err := scan(q.QueryRow(ctx,
		`SELECT `+cols+` FROM loans WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return nil, postgres.MapError(err, "loan", id)
	}
	return l, nil
}

// CountActive returns the number of active loans held by the user.
func (r *Repo) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	var n int
	err := q.QueryRow(ctx,
		`SELECT count(*) FROM loans WHERE user_id = $1 AND status = 'active'`, userID).
		Scan(&n)
	if err != nil {
		return 0, postgres.MapError(err, "loan", userID)
	}
	return n, nil
}

// Activate flips a pending loan to active and restamps its due date, so
// the loan period counts from approval rather than from the request.
// ErrNotFound means the loan does not exist or is no longer pending.
func (r *Repo) Activate(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE loans SET status = 'active', due_date = $2, updated_at = now() WHERE id = $1 AND status = 'pending'`,
		id, dueDate)
	if err != nil {
		return postgres.MapError(err, "loan", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "loan", id)
	}
	return nil
}

// MarkReturned stamps the return date and flips the loan to returned.
func (r *Repo) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx,
		`UPDATE loans SET status = 'returned', return_date = $1, updated_at = now() WHERE id = $2`,
		at, id)
	if err != nil {
		return postgres.MapError(err, "loan", id)
	}
	if tag.RowsAffected() == 0 {
		return postgres.MapError(pgx.ErrNoRows, "loan", id)
	}
	return nil
}

// MarkLost flips the loan to lost. Idempotent: a loan already lost is left
// untouched.
func (r *Repo) MarkLost(ctx context.Context, id uuid.UUID) error {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	_, err := q.Exec(ctx,
		`UPDATE loans SET status = 'lost', updated_at = now() WHERE id = $1 AND status != 'lost'`, id)
	if err != nil {
		return postgres.MapError(err, "loan", id)
	}
	return nil
}

const sweepCandidateIDsSQL = `
SELECT id FROM loans
WHERE status IN ('active', 'lost')
ORDER BY due_date ASC`

// SweepCandidateIDs returns ids of all loans the time sweep must examine.
// Only ids: the sweep re-reads each loan under its own per-loan transaction.
func (r *Repo) SweepCandidateIDs(ctx context.Context) ([]uuid.UUID, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	rows, err := q.Query(ctx, sweepCandidateIDsSQL)
	if err != nil {
		return nil, postgres.MapError(err, "loans", "sweep")
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, postgres.MapError(err, "loans", "sweep")
		}
		out = append(out, id)
	}
	if err := rows.Err(); err != nil {
		return nil, postgres.MapError(err, "loans", "sweep")
	}
	return out, nil
}
