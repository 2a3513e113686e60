// Package sweep implements the periodic time-based pass that ages loans
// through due_soon/overdue/lost/suspended, reconciles fines, expires ready
// holds and flags ending room reservations. Each unit of work runs in its
// own short transaction so a slow or failing row never stalls the rest of
// the pass.
//
// Only the highest threshold a loan has crossed is applied per pass: a
// loan first seen past the lost cutoff gets the lost notice and skips the
// due_soon and overdue ones, since notifying about stages that are already
// moot would only add noise.
package sweep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"

	"github.com/openshelf/openshelf-backend/internal/config"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// loanRepo defines the loan repository interface needed by the sweep engine.
type loanRepo interface {
	SweepCandidateIDs(ctx context.Context) ([]uuid.UUID, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	MarkLost(ctx context.Context, id uuid.UUID) error
}

// copyRepo defines the copy repository interface needed by the sweep engine.
type copyRepo interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Copy, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.CopyStatus) error
}

// fineRepo defines the fine repository interface needed by the sweep engine.
type fineRepo interface {
	GetOpenByLoanAndReason(ctx context.Context, loanID uuid.UUID, reason domain.FineReason) (*domain.Fine, error)
	Create(ctx context.Context, loanID, userID uuid.UUID, reason domain.FineReason, amount decimal.Decimal) (*domain.Fine, error)
	UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	ConvertToLost(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
}

// reservationRepo defines the room-reservation repository interface needed
// by the sweep engine.
type reservationRepo interface {
	ListEndingBetween(ctx context.Context, from, to time.Time) ([]domain.RoomReservation, error)
	ListEndedBefore(ctx context.Context, t time.Time) ([]domain.RoomReservation, error)
}

// holdExpirer runs the ready-hold expiry pass; implemented by the
// circulation service, which owns the release/reallocate chain.
type holdExpirer interface {
	ExpireReadyHolds(ctx context.Context) (int, error)
}

// notifier defines the notification gateway interface needed by the sweep
// engine. Notify reports whether a notification was actually created, which
// is how repeated passes over the same loan stay quiet.
type notifier interface {
	Notify(ctx context.Context, n *domain.Notification) (bool, error)
}

// txManager defines the transaction manager interface needed by the sweep
// engine.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Engine runs the periodic circulation sweep.
type Engine struct {
	log          *slog.Logger
	tx           txManager
	loans        loanRepo
	copies       copyRepo
	fines        fineRepo
	reservations reservationRepo
	holds        holdExpirer
	notifier     notifier
	clock        clockwork.Clock
	cfg          config.SweepConfig
	circ         config.CirculationConfig
}

// NewEngine creates a new sweep engine instance.
func NewEngine(
	logger *slog.Logger,
	tx txManager,
	loans loanRepo,
	copies copyRepo,
	fines fineRepo,
	reservations reservationRepo,
	holds holdExpirer,
	notifier notifier,
	clock clockwork.Clock,
	cfg config.SweepConfig,
	circ config.CirculationConfig,
) *Engine {
	return &Engine{
		log:          logger,
		tx:           tx,
		loans:        loans,
		copies:       copies,
		fines:        fines,
		reservations: reservations,
		holds:        holds,
		notifier:     notifier,
		clock:        clock,
		cfg:          cfg,
		circ:         circ,
	}
}

// Run executes one full sweep: loans, ready-hold expiry, reservations.
// Pass errors are logged, not propagated; a sweep never kills the daemon.
func (e *Engine) Run(ctx context.Context) {
	start := e.clock.Now()

	loans, err := e.SweepLoans(ctx)
	if err != nil {
		e.log.Error("loan sweep failed", slog.String("error", err.Error()))
	}
	holds, err := e.holds.ExpireReadyHolds(ctx)
	if err != nil {
		e.log.Error("hold expiry failed", slog.String("error", err.Error()))
	}
	reservations, err := e.SweepReservations(ctx)
	if err != nil {
		e.log.Error("reservation sweep failed", slog.String("error", err.Error()))
	}

	e.log.Info("sweep complete",
		slog.Int("loan_transitions", loans),
		slog.Int("holds_expired", holds),
		slog.Int("reservation_notices", reservations),
		slog.Duration("took", e.clock.Since(start)))
}

// RunLoop runs sweeps on the configured interval until the context is
// cancelled. A sweep runs immediately on entry.
func (e *Engine) RunLoop(ctx context.Context) {
	ticker := e.clock.NewTicker(e.cfg.Interval)
	defer ticker.Stop()

	e.Run(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.Chan():
			e.Run(ctx)
		}
	}
}

// SweepLoans ages every active or lost loan against the due-date
// thresholds, one transaction per loan. Returns the number of loans that
// produced a transition or notification.
func (e *Engine) SweepLoans(ctx context.Context) (int, error) {
	ids, err := e.loans.SweepCandidateIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("list sweep candidates: %w", err)
	}

	transitions := 0
	for _, id := range ids {
		id := id
		err := e.tx.RunInTx(ctx, func(ctx context.Context) error {
			changed, err := e.sweepLoan(ctx, id)
			if err != nil {
				return err
			}
			if changed {
				transitions++
			}
			return nil
		})
		if err != nil {
			e.log.Error("loan sweep unit failed",
				slog.String("loan_id", id.String()),
				slog.String("error", err.Error()))
		}
	}
	return transitions, nil
}

// sweepLoan re-reads one loan under its row lock and applies the highest
// threshold it has crossed. Due dates are calendar dates at local
// midnight; all thresholds count from there.
func (e *Engine) sweepLoan(ctx context.Context, id uuid.UUID) (bool, error) {
	loan, err := e.loans.GetForUpdate(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	if loan.Status != domain.LoanStatusActive && loan.Status != domain.LoanStatusLost {
		return false, nil
	}

	now := e.clock.Now()
	due := loan.DueDate
	lostAt := due.Add(e.cfg.LostAfter)
	suspendAt := lostAt.Add(e.cfg.SuspendAfter)
	dueSoonAt := due.Add(-e.cfg.DueSoonWindow)

	switch {
	case !now.Before(suspendAt):
		if _, err := e.ensureLost(ctx, loan); err != nil {
			return false, err
		}
		return e.notifyLoan(ctx, loan, domain.NotificationSuspended, nil)

	case !now.Before(lostAt):
		changed, err := e.ensureLost(ctx, loan)
		if err != nil {
			return false, err
		}
		notified, err := e.notifyLoan(ctx, loan, domain.NotificationLost, map[string]any{
			"replacement_fee": e.replacementFee(loan).String(),
		})
		if err != nil {
			return false, err
		}
		return changed || notified, nil

	case now.After(due):
		if err := e.reconcileOverdueFine(ctx, loan, now); err != nil {
			return false, err
		}
		return e.notifyLoan(ctx, loan, domain.NotificationOverdue, map[string]any{
			"days_overdue": loan.DaysOverdue(now),
		})

	case !now.Before(dueSoonAt):
		return e.notifyLoan(ctx, loan, domain.NotificationDueSoon, map[string]any{
			"due_date": due.Format("2006-01-02"),
		})
	}
	return false, nil
}

func (e *Engine) notifyLoan(ctx context.Context, loan *domain.Loan, t domain.NotificationType, meta map[string]any) (bool, error) {
	created, err := e.notifier.Notify(ctx, &domain.Notification{
		UserID:   loan.UserID,
		Type:     t,
		LoanID:   &loan.ID,
		Metadata: meta,
	})
	if err != nil {
		return false, fmt.Errorf("notify %s: %w", t, err)
	}
	return created, nil
}

// ensureLost marks the loan and its copy lost and reconciles the lost
// fine. Idempotent: a loan already swept to lost produces no changes.
func (e *Engine) ensureLost(ctx context.Context, loan *domain.Loan) (bool, error) {
	changed := false

	if loan.Status != domain.LoanStatusLost {
		if err := e.loans.MarkLost(ctx, loan.ID); err != nil {
			return false, err
		}
		changed = true
	}

	c, err := e.copies.GetForUpdate(ctx, loan.CopyID)
	if err != nil {
		return changed, fmt.Errorf("lock copy: %w", err)
	}
	if c.Status != domain.CopyStatusLost {
		if err := e.copies.SetStatus(ctx, loan.CopyID, domain.CopyStatusLost); err != nil {
			return changed, err
		}
		changed = true
	}

	fineChanged, err := e.reconcileLostFine(ctx, loan)
	if err != nil {
		return changed, err
	}
	return changed || fineChanged, nil
}

// reconcileLostFine converges the loan's open fines on a single lost fine
// at the replacement fee: an existing lost fine has its amount repaired,
// an open overdue fine is converted in place, otherwise a new fine is
// inserted.
func (e *Engine) reconcileLostFine(ctx context.Context, loan *domain.Loan) (bool, error) {
	fee := e.replacementFee(loan)

	lost, err := e.fines.GetOpenByLoanAndReason(ctx, loan.ID, domain.FineReasonLost)
	if err == nil {
		if lost.AmountAssessed.Equal(fee) {
			return false, nil
		}
		return true, e.fines.UpdateAmount(ctx, lost.ID, fee)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	overdue, err := e.fines.GetOpenByLoanAndReason(ctx, loan.ID, domain.FineReasonOverdue)
	if err == nil {
		return true, e.fines.ConvertToLost(ctx, overdue.ID, fee)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}

	_, err = e.fines.Create(ctx, loan.ID, loan.UserID, domain.FineReasonLost, fee)
	return true, err
}

// reconcileOverdueFine keeps one open overdue fine per loan tracking the
// accrued amount under the loan's frozen terms. Grace days suppress the
// fine entirely; once past them the amount is capped at the policy max.
func (e *Engine) reconcileOverdueFine(ctx context.Context, loan *domain.Loan, now time.Time) error {
	rate, grace, max, _ := e.loanTerms(loan)

	amount := domain.OverdueAmount(loan.DaysOverdue(now), grace, rate, max)
	if amount.IsZero() {
		return nil
	}

	existing, err := e.fines.GetOpenByLoanAndReason(ctx, loan.ID, domain.FineReasonOverdue)
	if err == nil {
		if existing.AmountAssessed.Equal(amount) {
			return nil
		}
		return e.fines.UpdateAmount(ctx, existing.ID, amount)
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return err
	}

	_, err = e.fines.Create(ctx, loan.ID, loan.UserID, domain.FineReasonOverdue, amount)
	return err
}

// loanTerms returns the fine terms frozen on the loan, falling back to the
// configured defaults for loans issued before snapshots existed.
func (e *Engine) loanTerms(loan *domain.Loan) (rate decimal.Decimal, grace int, max, replacement decimal.Decimal) {
	if loan.Snapshot != nil {
		s := loan.Snapshot
		return s.DailyRate, s.GraceDays, s.MaxFine, s.ReplacementFee
	}
	return e.circ.DailyRate(), e.circ.DefaultGraceDays, e.circ.MaxFine(), e.circ.ReplacementFee()
}

func (e *Engine) replacementFee(loan *domain.Loan) decimal.Decimal {
	_, _, _, fee := e.loanTerms(loan)
	return fee
}

// SweepReservations flags reservations ending within the configured window
// as room_expiring and reservations already ended as room_expired, each
// deduplicated per reservation. Returns the number of notices created.
func (e *Engine) SweepReservations(ctx context.Context) (int, error) {
	now := e.clock.Now()
	notices := 0

	ending, err := e.reservations.ListEndingBetween(ctx, now, now.Add(e.cfg.RoomEndWindow))
	if err != nil {
		return 0, fmt.Errorf("list ending reservations: %w", err)
	}
	for i := range ending {
		created, err := e.notifyReservation(ctx, &ending[i], domain.NotificationRoomExpiring)
		if err != nil {
			e.log.Error("reservation notice failed",
				slog.String("reservation_id", ending[i].ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if created {
			notices++
		}
	}

	ended, err := e.reservations.ListEndedBefore(ctx, now)
	if err != nil {
		return notices, fmt.Errorf("list ended reservations: %w", err)
	}
	for i := range ended {
		created, err := e.notifyReservation(ctx, &ended[i], domain.NotificationRoomExpired)
		if err != nil {
			e.log.Error("reservation notice failed",
				slog.String("reservation_id", ended[i].ID.String()),
				slog.String("error", err.Error()))
			continue
		}
		if created {
			notices++
		}
	}
	return notices, nil
}

func (e *Engine) notifyReservation(ctx context.Context, r *domain.RoomReservation, t domain.NotificationType) (bool, error) {
	return e.notifier.Notify(ctx, &domain.Notification{
		UserID:        r.UserID,
		Type:          t,
		ReservationID: &r.ID,
		Metadata: map[string]any{
			"room":    r.RoomName,
			"ends_at": r.EndsAt,
		},
	})
}
