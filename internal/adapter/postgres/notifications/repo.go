// Package notifications implements the Notification repository. Dedupe is a
// SELECT EXISTS on the (user, type, correlated entity) key over unread rows.
package notifications

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	postgres "github.com/openshelf/openshelf-backend/internal/adapter/postgres"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Repo provides notification persistence backed by PostgreSQL.
type Repo struct {
	pool *pgxpool.Pool
}

// New creates a new notification repository.
func New(pool *pgxpool.Pool) *Repo {
	return &Repo{pool: pool}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// entityRef builds the squirrel predicate for whichever correlation id the
// notification carries.
func entityRef(n *domain.Notification) sq.Eq {
	switch {
	case n.HoldID != nil:
		return sq.Eq{"hold_id": *n.HoldID}
	case n.LoanID != nil:
		return sq.Eq{"loan_id": *n.LoanID}
	case n.ReservationID != nil:
		return sq.Eq{"reservation_id": *n.ReservationID}
	default:
		return sq.Eq{}
	}
}

// UnreadExists reports whether an unread notification with the same
// (user, type, correlated entity) key already exists.
func (r *Repo) UnreadExists(ctx context.Context, n *domain.Notification) (bool, error) {
	inner := psql.
		Select("1").
		From("notifications").
		Where(sq.Eq{
			"user_id": n.UserID,
			"type":    n.Type,
			"status":  domain.NotificationStatusUnread,
		}).
		Where(entityRef(n))

	sql, args, err := inner.ToSql()
	if err != nil {
		return false, postgres.MapError(err, "notification", n.UserID)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var exists bool
	if err := q.QueryRow(ctx, "SELECT EXISTS("+sql+")", args...).Scan(&exists); err != nil {
		return false, postgres.MapError(err, "notification", n.UserID)
	}
	return exists, nil
}

const createSQL = `
INSERT INTO notifications (user_id, type, hold_id, loan_id, reservation_id, metadata)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id, status, created_at`

// Create inserts an unread notification.
func (r *Repo) Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error) {
	q := postgres.QuerierFromCtx(ctx, r.pool)

	out := *n
	err := q.QueryRow(ctx, createSQL,
		n.UserID, n.Type, n.HoldID, n.LoanID, n.ReservationID, n.Metadata).
		Scan(&out.ID, &out.Status, &out.CreatedAt)
	if err != nil {
		return nil, postgres.MapError(err, "notification", n.UserID)
	}
	return &out, nil
}

func (r *Repo) markRead(ctx context.Context, column string, id uuid.UUID) (int64, error) {
	query := psql.
		Update("notifications").
		Set("status", domain.NotificationStatusRead).
		Set("read_at", sq.Expr("now()")).
		Where(sq.Eq{column: id, "status": domain.NotificationStatusUnread})

	sql, args, err := query.ToSql()
	if err != nil {
		return 0, postgres.MapError(err, "notification", id)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	tag, err := q.Exec(ctx, sql, args...)
	if err != nil {
		return 0, postgres.MapError(err, "notification", id)
	}
	return tag.RowsAffected(), nil
}

// MarkReadForHold resolves all unread notifications correlated to the hold.
func (r *Repo) MarkReadForHold(ctx context.Context, holdID uuid.UUID) (int64, error) {
	return r.markRead(ctx, "hold_id", holdID)
}

// MarkReadForLoan resolves all unread notifications correlated to the loan.
func (r *Repo) MarkReadForLoan(ctx context.Context, loanID uuid.UUID) (int64, error) {
	return r.markRead(ctx, "loan_id", loanID)
}

// MarkReadForReservation resolves all unread notifications correlated to
// the reservation.
func (r *Repo) MarkReadForReservation(ctx context.Context, reservationID uuid.UUID) (int64, error) {
	return r.markRead(ctx, "reservation_id", reservationID)
}

// ListUnreadByUser returns the user's unread notifications, newest first.
func (r *Repo) ListUnreadByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	query := psql.
		Select("id", "user_id", "type", "status", "hold_id", "loan_id",
			"reservation_id", "metadata", "created_at", "read_at").
		From("notifications").
		Where(sq.Eq{"user_id": userID, "status": domain.NotificationStatusUnread}).
		OrderBy("created_at DESC")

	sql, args, err := query.ToSql()
	if err != nil {
		return nil, postgres.MapError(err, "notification", userID)
	}

	q := postgres.QuerierFromCtx(ctx, r.pool)

	var out []domain.Notification
	if err := pgxscan.Select(ctx, q, &out, sql, args...); err != nil {
		return nil, postgres.MapError(err, "notification", userID)
	}
	return out, nil
}
