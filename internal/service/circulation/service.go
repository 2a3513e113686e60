// Package circulation implements hold queueing, copy allocation and the
// loan lifecycle. Every state-changing operation runs in a single
// transaction, and every path that touches both a copy and a hold locks
// the copy row first.
package circulation

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/openshelf/openshelf-backend/internal/config"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

// copyRepo defines the copy repository interface needed by the circulation service.
type copyRepo interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Copy, error)
	GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Copy, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.CopyStatus) error
	ListAvailableWithQueuedHolds(ctx context.Context, itemID *uuid.UUID) ([]domain.Copy, error)
}

// holdRepo defines the hold repository interface needed by the circulation service.
type holdRepo interface {
	Create(ctx context.Context, userID, itemID uuid.UUID, queuePosition int) (*domain.Hold, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	MaxQueuePosition(ctx context.Context, itemID uuid.UUID) (int, error)
	NextQueuedForUpdate(ctx context.Context, itemID uuid.UUID) (*domain.Hold, error)
	HasReadyForCopy(ctx context.Context, copyID uuid.UUID) (bool, error)
	MarkReady(ctx context.Context, id, copyID uuid.UUID, availableSince, expiresAt time.Time) (*domain.Hold, error)
	SetStatus(ctx context.Context, id uuid.UUID, status domain.HoldStatus) error
	ListExpiredReady(ctx context.Context, now time.Time) ([]domain.Hold, error)
	List(ctx context.Context, userID *uuid.UUID) ([]domain.Hold, error)
}

// itemRepo defines the item repository interface needed by the circulation service.
type itemRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	LockRow(ctx context.Context, id uuid.UUID) error
}

// loanRepo defines the loan repository interface needed by the circulation service.
type loanRepo interface {
	Create(ctx context.Context, userID, copyID uuid.UUID, employeeID *uuid.UUID,
		status domain.LoanStatus, dueDate time.Time, snap *domain.PolicySnapshot) (*domain.Loan, error)
	GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	CountActive(ctx context.Context, userID uuid.UUID) (int, error)
	Activate(ctx context.Context, id uuid.UUID, dueDate time.Time) error
	MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error
}

// userRepo defines the user repository interface needed by the circulation service.
type userRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// requestRepo defines the checkout-request repository interface needed by
// the circulation service.
type requestRepo interface {
	Create(ctx context.Context, userID, copyID, loanID uuid.UUID) (*domain.CheckoutRequest, error)
	GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*domain.CheckoutRequest, error)
	MarkApproved(ctx context.Context, id uuid.UUID) error
	MarkRejected(ctx context.Context, id uuid.UUID) error
}

// eventRepo defines the audit event sink. Writes are best-effort: a failed
// insert is logged and never fails the surrounding transaction.
type eventRepo interface {
	Record(ctx context.Context, ev domain.CirculationEvent) error
}

// policyResolver defines the policy interface needed by the circulation service.
type policyResolver interface {
	Resolve(ctx context.Context, itemID uuid.UUID, category domain.UserCategory) (*domain.LoanPolicy, error)
	LoanLimit(role domain.UserRole) int
	DefaultLoanDays(role domain.UserRole) int
	DueDate(days int) time.Time
	Snapshot(p *domain.LoanPolicy) domain.PolicySnapshot
}

// notifier defines the notification gateway interface needed by the
// circulation service.
type notifier interface {
	Notify(ctx context.Context, n *domain.Notification) (bool, error)
	ResolveForHold(ctx context.Context, holdID uuid.UUID) error
}

// txManager defines the transaction manager interface needed by the
// circulation service.
type txManager interface {
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Service implements circulation operations.
type Service struct {
	log      *slog.Logger
	tx       txManager
	copies   copyRepo
	holds    holdRepo
	items    itemRepo
	loans    loanRepo
	users    userRepo
	requests requestRepo
	events   eventRepo
	policy   policyResolver
	notifier notifier
	clock    clockwork.Clock
	cfg      config.CirculationConfig
}

// NewService creates a new circulation service instance.
func NewService(
	logger *slog.Logger,
	tx txManager,
	copies copyRepo,
	holds holdRepo,
	items itemRepo,
	loans loanRepo,
	users userRepo,
	requests requestRepo,
	events eventRepo,
	policy policyResolver,
	notifier notifier,
	clock clockwork.Clock,
	cfg config.CirculationConfig,
) *Service {
	return &Service{
		log:      logger,
		tx:       tx,
		copies:   copies,
		holds:    holds,
		items:    items,
		loans:    loans,
		users:    users,
		requests: requests,
		events:   events,
		policy:   policy,
		notifier: notifier,
		clock:    clock,
		cfg:      cfg,
	}
}

// PlaceHoldResult is the outcome of PlaceHold.
type PlaceHoldResult struct {
	HoldID        uuid.UUID
	QueuePosition int
}

// CheckoutResult is the outcome of a checkout or hold acceptance.
type CheckoutResult struct {
	LoanID   uuid.UUID
	DueDate  time.Time
	PolicyID *uuid.UUID
}

// recordEvent writes an audit event and swallows failures. Core
// correctness never depends on the event log.
func (s *Service) recordEvent(ctx context.Context, ev domain.CirculationEvent) {
	if err := s.events.Record(ctx, ev); err != nil {
		s.log.Warn("failed to record circulation event",
			slog.String("type", ev.Type.String()),
			slog.String("error", err.Error()))
	}
}
