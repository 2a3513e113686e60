// Package fines implements fine settlement: payments, refunds and staff
// waivers against the fines the sweep engine assesses.
package fines

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/pkg/ctxutil"
)

// fineRepo defines the fine repository interface needed by the fines service.
type fineRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Fine, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.FineStatus) error
	RecordPayment(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal, refund bool) error
	Totals(ctx context.Context, fineID uuid.UUID) (payments, refunds decimal.Decimal, err error)
}

// txManager defines the transaction manager interface needed by the fines
// service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements fine settlement operations.
type Service struct {
	log   *slog.Logger
	tx    txManager
	fines fineRepo
}

// NewService creates a new fines service instance.
func NewService(logger *slog.Logger, tx txManager, fines fineRepo) *Service {
	return &Service{log: logger, tx: tx, fines: fines}
}

// Pay applies a payment to an open fine. When the payment clears the
// outstanding balance the fine is closed as paid.
func (s *Service) Pay(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal) (remaining decimal.Decimal, err error) {
	if !amount.IsPositive() {
		return decimal.Zero, domain.NewValidationError("amount", "payment must be positive")
	}

	err = s.tx.RunInTx(ctx, func(ctx context.Context) error {
		f, err := s.fines.GetByID(ctx, fineID)
		if err != nil {
			return err
		}
		if f.Status != domain.FineStatusOpen {
			return fmt.Errorf("fine %s is %s, not open: %w", f.ID, f.Status, domain.ErrConflict)
		}

		if err := s.fines.RecordPayment(ctx, fineID, amount, false); err != nil {
			return err
		}

		payments, refunds, err := s.fines.Totals(ctx, fineID)
		if err != nil {
			return err
		}
		remaining = domain.Outstanding(f.AmountAssessed, payments, refunds)
		if remaining.IsZero() {
			return s.fines.SetStatus(ctx, fineID, domain.FineStatusPaid)
		}
		return nil
	})
	if err != nil {
		return decimal.Zero, err
	}

	s.log.Info("fine payment recorded",
		slog.String("fine_id", fineID.String()),
		slog.String("amount", amount.String()),
		slog.String("remaining", remaining.String()))
	return remaining, nil
}

// Refund returns money to the patron against a fine, reopening a paid fine
// whose balance becomes positive again.
func (s *Service) Refund(ctx context.Context, fineID uuid.UUID, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return domain.NewValidationError("amount", "refund must be positive")
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		f, err := s.fines.GetByID(ctx, fineID)
		if err != nil {
			return err
		}
		if err := s.fines.RecordPayment(ctx, fineID, amount, true); err != nil {
			return err
		}

		payments, refunds, err := s.fines.Totals(ctx, fineID)
		if err != nil {
			return err
		}
		if f.Status == domain.FineStatusPaid &&
			domain.Outstanding(f.AmountAssessed, payments, refunds).IsPositive() {
			return s.fines.SetStatus(ctx, fineID, domain.FineStatusOpen)
		}
		return nil
	})
}

// Waive closes an open fine without payment. Staff only.
func (s *Service) Waive(ctx context.Context, fineID uuid.UUID, p ctxutil.Principal) error {
	if !p.IsStaff() {
		return domain.ErrForbidden
	}
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		f, err := s.fines.GetByID(ctx, fineID)
		if err != nil {
			return err
		}
		if f.Status != domain.FineStatusOpen {
			return fmt.Errorf("fine %s is %s, not open: %w", f.ID, f.Status, domain.ErrConflict)
		}
		return s.fines.SetStatus(ctx, fineID, domain.FineStatusWaived)
	})
}

// Outstanding reports the remaining balance on a fine.
func (s *Service) Outstanding(ctx context.Context, fineID uuid.UUID) (decimal.Decimal, error) {
	f, err := s.fines.GetByID(ctx, fineID)
	if err != nil {
		return decimal.Zero, err
	}
	payments, refunds, err := s.fines.Totals(ctx, fineID)
	if err != nil {
		return decimal.Zero, err
	}
	return domain.Outstanding(f.AmountAssessed, payments, refunds), nil
}
