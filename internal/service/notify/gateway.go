// Package notify is the single chokepoint for emitting and resolving
// in-app notifications. Emission is idempotent: an unread notification of
// the same type for the same correlated entity suppresses re-emission, so
// repeated sweep passes stay quiet.
package notify

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/domain"
)

type notificationRepo interface {
	UnreadExists(ctx context.Context, n *domain.Notification) (bool, error)
	Create(ctx context.Context, n *domain.Notification) (*domain.Notification, error)
	MarkReadForHold(ctx context.Context, holdID uuid.UUID) (int64, error)
	MarkReadForLoan(ctx context.Context, loanID uuid.UUID) (int64, error)
	MarkReadForReservation(ctx context.Context, reservationID uuid.UUID) (int64, error)
	ListUnreadByUser(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error)
}

// Gateway emits deduplicated notifications and marks stale ones read.
type Gateway struct {
	notifications notificationRepo
	log           *slog.Logger
}

// NewGateway creates a notification gateway.
func NewGateway(log *slog.Logger, notifications notificationRepo) *Gateway {
	return &Gateway{notifications: notifications, log: log}
}

// Notify emits the notification unless an unread one with the same
// (user, type, correlated entity) already exists. It reports whether a row
// was actually created.
func (g *Gateway) Notify(ctx context.Context, n *domain.Notification) (bool, error) {
	if !n.Type.IsValid() {
		return false, domain.NewValidationError("type", "unknown notification type")
	}

	exists, err := g.notifications.UnreadExists(ctx, n)
	if err != nil {
		return false, fmt.Errorf("check unread notification: %w", err)
	}
	if exists {
		g.log.Debug("notification suppressed, unread duplicate exists",
			slog.String("type", n.Type.String()),
			slog.String("user_id", n.UserID.String()))
		return false, nil
	}

	if _, err := g.notifications.Create(ctx, n); err != nil {
		return false, fmt.Errorf("create notification: %w", err)
	}
	return true, nil
}

// Unread returns the user's unread notifications, newest first.
func (g *Gateway) Unread(ctx context.Context, userID uuid.UUID) ([]domain.Notification, error) {
	return g.notifications.ListUnreadByUser(ctx, userID)
}

// ResolveForHold marks every unread notification for the hold as read.
// Called when a hold leaves the ready state for any reason.
func (g *Gateway) ResolveForHold(ctx context.Context, holdID uuid.UUID) error {
	n, err := g.notifications.MarkReadForHold(ctx, holdID)
	if err != nil {
		return fmt.Errorf("resolve hold notifications: %w", err)
	}
	if n > 0 {
		g.log.Debug("resolved hold notifications",
			slog.String("hold_id", holdID.String()), slog.Int64("count", n))
	}
	return nil
}

// ResolveForLoan marks every unread notification for the loan as read.
func (g *Gateway) ResolveForLoan(ctx context.Context, loanID uuid.UUID) error {
	if _, err := g.notifications.MarkReadForLoan(ctx, loanID); err != nil {
		return fmt.Errorf("resolve loan notifications: %w", err)
	}
	return nil
}

// ResolveForReservation marks every unread notification for the
// reservation as read.
func (g *Gateway) ResolveForReservation(ctx context.Context, reservationID uuid.UUID) error {
	if _, err := g.notifications.MarkReadForReservation(ctx, reservationID); err != nil {
		return fmt.Errorf("resolve reservation notifications: %w", err)
	}
	return nil
}
