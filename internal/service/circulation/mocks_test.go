package circulation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/domain"
)

var _ copyRepo = &copyRepoMock{}

type copyRepoMock struct {
	GetForUpdateFunc                func(ctx context.Context, id uuid.UUID) (*domain.Copy, error)
	GetByBarcodeForUpdateFunc       func(ctx context.Context, barcode string) (*domain.Copy, error)
	SetStatusFunc                   func(ctx context.Context, id uuid.UUID, status domain.CopyStatus) error
	ListAvailableWithQueuedHoldsFunc func(ctx context.Context, itemID *uuid.UUID) ([]domain.Copy, error)

	setStatusCalls []struct {
		ID     uuid.UUID
		Status domain.CopyStatus
	}
}

func (m *copyRepoMock) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Copy, error) {
	if m.GetForUpdateFunc == nil {
		panic("copyRepoMock.GetForUpdateFunc is nil")
	}
	return m.GetForUpdateFunc(ctx, id)
}

func (m *copyRepoMock) GetByBarcodeForUpdate(ctx context.Context, barcode string) (*domain.Copy, error) {
	if m.GetByBarcodeForUpdateFunc == nil {
		panic("copyRepoMock.GetByBarcodeForUpdateFunc is nil")
	}
	return m.GetByBarcodeForUpdateFunc(ctx, barcode)
}

func (m *copyRepoMock) SetStatus(ctx context.Context, id uuid.UUID, status domain.CopyStatus) error {
	m.setStatusCalls = append(m.setStatusCalls, struct {
		ID     uuid.UUID
		Status domain.CopyStatus
	}{id, status})
	if m.SetStatusFunc == nil {
		return nil
	}
	return m.SetStatusFunc(ctx, id, status)
}

func (m *copyRepoMock) SetStatusCalls() []struct {
	ID     uuid.UUID
	Status domain.CopyStatus
} {
	return m.setStatusCalls
}

func (m *copyRepoMock) ListAvailableWithQueuedHolds(ctx context.Context, itemID *uuid.UUID) ([]domain.Copy, error) {
	if m.ListAvailableWithQueuedHoldsFunc == nil {
		panic("copyRepoMock.ListAvailableWithQueuedHoldsFunc is nil")
	}
	return m.ListAvailableWithQueuedHoldsFunc(ctx, itemID)
}

var _ holdRepo = &holdRepoMock{}

type holdRepoMock struct {
	CreateFunc              func(ctx context.Context, userID, itemID uuid.UUID, queuePosition int) (*domain.Hold, error)
	GetFunc                 func(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	GetForUpdateFunc        func(ctx context.Context, id uuid.UUID) (*domain.Hold, error)
	MaxQueuePositionFunc    func(ctx context.Context, itemID uuid.UUID) (int, error)
	NextQueuedForUpdateFunc func(ctx context.Context, itemID uuid.UUID) (*domain.Hold, error)
	HasReadyForCopyFunc     func(ctx context.Context, copyID uuid.UUID) (bool, error)
	MarkReadyFunc           func(ctx context.Context, id, copyID uuid.UUID, availableSince, expiresAt time.Time) (*domain.Hold, error)
	SetStatusFunc           func(ctx context.Context, id uuid.UUID, status domain.HoldStatus) error
	ListExpiredReadyFunc    func(ctx context.Context, now time.Time) ([]domain.Hold, error)
	ListFunc                func(ctx context.Context, userID *uuid.UUID) ([]domain.Hold, error)

	setStatusCalls []struct {
		ID     uuid.UUID
		Status domain.HoldStatus
	}
}

func (m *holdRepoMock) Create(ctx context.Context, userID, itemID uuid.UUID, queuePosition int) (*domain.Hold, error) {
	if m.CreateFunc == nil {
		panic("holdRepoMock.CreateFunc is nil")
	}
	return m.CreateFunc(ctx, userID, itemID, queuePosition)
}

func (m *holdRepoMock) Get(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	if m.GetFunc == nil {
		panic("holdRepoMock.GetFunc is nil")
	}
	return m.GetFunc(ctx, id)
}

func (m *holdRepoMock) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Hold, error) {
	if m.GetForUpdateFunc == nil {
		panic("holdRepoMock.GetForUpdateFunc is nil")
	}
	return m.GetForUpdateFunc(ctx, id)
}

func (m *holdRepoMock) MaxQueuePosition(ctx context.Context, itemID uuid.UUID) (int, error) {
	if m.MaxQueuePositionFunc == nil {
		panic("holdRepoMock.MaxQueuePositionFunc is nil")
	}
	return m.MaxQueuePositionFunc(ctx, itemID)
}

func (m *holdRepoMock) NextQueuedForUpdate(ctx context.Context, itemID uuid.UUID) (*domain.Hold, error) {
	if m.NextQueuedForUpdateFunc == nil {
		panic("holdRepoMock.NextQueuedForUpdateFunc is nil")
	}
	return m.NextQueuedForUpdateFunc(ctx, itemID)
}

func (m *holdRepoMock) HasReadyForCopy(ctx context.Context, copyID uuid.UUID) (bool, error) {
	if m.HasReadyForCopyFunc == nil {
		panic("holdRepoMock.HasReadyForCopyFunc is nil")
	}
	return m.HasReadyForCopyFunc(ctx, copyID)
}

func (m *holdRepoMock) MarkReady(ctx context.Context, id, copyID uuid.UUID, availableSince, expiresAt time.Time) (*domain.Hold, error) {
	if m.MarkReadyFunc == nil {
		panic("holdRepoMock.MarkReadyFunc is nil")
	}
	return m.MarkReadyFunc(ctx, id, copyID, availableSince, expiresAt)
}

func (m *holdRepoMock) SetStatus(ctx context.Context, id uuid.UUID, status domain.HoldStatus) error {
	m.setStatusCalls = append(m.setStatusCalls, struct {
		ID     uuid.UUID
		Status domain.HoldStatus
	}{id, status})
	if m.SetStatusFunc == nil {
		return nil
	}
	return m.SetStatusFunc(ctx, id, status)
}

func (m *holdRepoMock) SetStatusCalls() []struct {
	ID     uuid.UUID
	Status domain.HoldStatus
} {
	return m.setStatusCalls
}

func (m *holdRepoMock) ListExpiredReady(ctx context.Context, now time.Time) ([]domain.Hold, error) {
	if m.ListExpiredReadyFunc == nil {
		panic("holdRepoMock.ListExpiredReadyFunc is nil")
	}
	return m.ListExpiredReadyFunc(ctx, now)
}

func (m *holdRepoMock) List(ctx context.Context, userID *uuid.UUID) ([]domain.Hold, error) {
	if m.ListFunc == nil {
		panic("holdRepoMock.ListFunc is nil")
	}
	return m.ListFunc(ctx, userID)
}

var _ itemRepo = &itemRepoMock{}

type itemRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	LockRowFunc func(ctx context.Context, id uuid.UUID) error
}

func (m *itemRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	if m.GetByIDFunc == nil {
		panic("itemRepoMock.GetByIDFunc is nil")
	}
	return m.GetByIDFunc(ctx, id)
}

func (m *itemRepoMock) LockRow(ctx context.Context, id uuid.UUID) error {
	if m.LockRowFunc == nil {
		return nil
	}
	return m.LockRowFunc(ctx, id)
}

var _ loanRepo = &loanRepoMock{}

type loanRepoMock struct {
	CreateFunc       func(ctx context.Context, userID, copyID uuid.UUID, employeeID *uuid.UUID, status domain.LoanStatus, dueDate time.Time, snap *domain.PolicySnapshot) (*domain.Loan, error)
	GetForUpdateFunc func(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	CountActiveFunc  func(ctx context.Context, userID uuid.UUID) (int, error)
	ActivateFunc     func(ctx context.Context, id uuid.UUID, dueDate time.Time) error
	MarkReturnedFunc func(ctx context.Context, id uuid.UUID, at time.Time) error
}

func (m *loanRepoMock) Create(ctx context.Context, userID, copyID uuid.UUID, employeeID *uuid.UUID, status domain.LoanStatus, dueDate time.Time, snap *domain.PolicySnapshot) (*domain.Loan, error) {
	if m.CreateFunc == nil {
		panic("loanRepoMock.CreateFunc is nil")
	}
	return m.CreateFunc(ctx, userID, copyID, employeeID, status, dueDate, snap)
}

func (m *loanRepoMock) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	if m.GetForUpdateFunc == nil {
		panic("loanRepoMock.GetForUpdateFunc is nil")
	}
	return m.GetForUpdateFunc(ctx, id)
}

func (m *loanRepoMock) CountActive(ctx context.Context, userID uuid.UUID) (int, error) {
	if m.CountActiveFunc == nil {
		panic("loanRepoMock.CountActiveFunc is nil")
	}
	return m.CountActiveFunc(ctx, userID)
}

func (m *loanRepoMock) Activate(ctx context.Context, id uuid.UUID, dueDate time.Time) error {
	if m.ActivateFunc == nil {
		panic("loanRepoMock.ActivateFunc is nil")
	}
	return m.ActivateFunc(ctx, id, dueDate)
}

func (m *loanRepoMock) MarkReturned(ctx context.Context, id uuid.UUID, at time.Time) error {
	if m.MarkReturnedFunc == nil {
		panic("loanRepoMock.MarkReturnedFunc is nil")
	}
	return m.MarkReturnedFunc(ctx, id, at)
}

var _ userRepo = &userRepoMock{}

type userRepoMock struct {
	GetByIDFunc func(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

func (m *userRepoMock) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFunc == nil {
		panic("userRepoMock.GetByIDFunc is nil")
	}
	return m.GetByIDFunc(ctx, id)
}

var _ requestRepo = &requestRepoMock{}

type requestRepoMock struct {
	CreateFunc              func(ctx context.Context, userID, copyID, loanID uuid.UUID) (*domain.CheckoutRequest, error)
	GetPendingForUpdateFunc func(ctx context.Context, id uuid.UUID) (*domain.CheckoutRequest, error)
	MarkApprovedFunc        func(ctx context.Context, id uuid.UUID) error
	MarkRejectedFunc        func(ctx context.Context, id uuid.UUID) error
}

func (m *requestRepoMock) Create(ctx context.Context, userID, copyID, loanID uuid.UUID) (*domain.CheckoutRequest, error) {
	if m.CreateFunc == nil {
		panic("requestRepoMock.CreateFunc is nil")
	}
	return m.CreateFunc(ctx, userID, copyID, loanID)
}

func (m *requestRepoMock) GetPendingForUpdate(ctx context.Context, id uuid.UUID) (*domain.CheckoutRequest, error) {
	if m.GetPendingForUpdateFunc == nil {
		panic("requestRepoMock.GetPendingForUpdateFunc is nil")
	}
	return m.GetPendingForUpdateFunc(ctx, id)
}

func (m *requestRepoMock) MarkApproved(ctx context.Context, id uuid.UUID) error {
	if m.MarkApprovedFunc == nil {
		panic("requestRepoMock.MarkApprovedFunc is nil")
	}
	return m.MarkApprovedFunc(ctx, id)
}

func (m *requestRepoMock) MarkRejected(ctx context.Context, id uuid.UUID) error {
	if m.MarkRejectedFunc == nil {
		panic("requestRepoMock.MarkRejectedFunc is nil")
	}
	return m.MarkRejectedFunc(ctx, id)
}

var _ eventRepo = &eventRepoMock{}

type eventRepoMock struct {
	RecordFunc func(ctx context.Context, ev domain.CirculationEvent) error

	recorded []domain.CirculationEvent
}

func (m *eventRepoMock) Record(ctx context.Context, ev domain.CirculationEvent) error {
	m.recorded = append(m.recorded, ev)
	if m.RecordFunc == nil {
		return nil
	}
	return m.RecordFunc(ctx, ev)
}

func (m *eventRepoMock) RecordCalls() []domain.CirculationEvent {
	return m.recorded
}

var _ policyResolver = &policyResolverMock{}

type policyResolverMock struct {
	ResolveFunc         func(ctx context.Context, itemID uuid.UUID, category domain.UserCategory) (*domain.LoanPolicy, error)
	LoanLimitFunc       func(role domain.UserRole) int
	DefaultLoanDaysFunc func(role domain.UserRole) int
	DueDateFunc         func(days int) time.Time
	SnapshotFunc        func(p *domain.LoanPolicy) domain.PolicySnapshot
}

func (m *policyResolverMock) Resolve(ctx context.Context, itemID uuid.UUID, category domain.UserCategory) (*domain.LoanPolicy, error) {
	if m.ResolveFunc == nil {
		panic("policyResolverMock.ResolveFunc is nil")
	}
	return m.ResolveFunc(ctx, itemID, category)
}

func (m *policyResolverMock) LoanLimit(role domain.UserRole) int {
	if m.LoanLimitFunc == nil {
		panic("policyResolverMock.LoanLimitFunc is nil")
	}
	return m.LoanLimitFunc(role)
}

func (m *policyResolverMock) DefaultLoanDays(role domain.UserRole) int {
	if m.DefaultLoanDaysFunc == nil {
		panic("policyResolverMock.DefaultLoanDaysFunc is nil")
	}
	return m.DefaultLoanDaysFunc(role)
}

func (m *policyResolverMock) DueDate(days int) time.Time {
	if m.DueDateFunc == nil {
		panic("policyResolverMock.DueDateFunc is nil")
	}
	return m.DueDateFunc(days)
}

func (m *policyResolverMock) Snapshot(p *domain.LoanPolicy) domain.PolicySnapshot {
	if m.SnapshotFunc == nil {
		return domain.PolicySnapshot{}
	}
	return m.SnapshotFunc(p)
}

var _ notifier = &notifierMock{}

type notifierMock struct {
	NotifyFunc         func(ctx context.Context, n *domain.Notification) (bool, error)
	ResolveForHoldFunc func(ctx context.Context, holdID uuid.UUID) error

	notified []domain.Notification
	resolved []uuid.UUID
}

func (m *notifierMock) Notify(ctx context.Context, n *domain.Notification) (bool, error) {
	m.notified = append(m.notified, *n)
	if m.NotifyFunc == nil {
		return true, nil
	}
	return m.NotifyFunc(ctx, n)
}

func (m *notifierMock) NotifyCalls() []domain.Notification {
	return m.notified
}

func (m *notifierMock) ResolveForHold(ctx context.Context, holdID uuid.UUID) error {
	m.resolved = append(m.resolved, holdID)
	if m.ResolveForHoldFunc == nil {
		return nil
	}
	return m.ResolveForHoldFunc(ctx, holdID)
}

func (m *notifierMock) ResolveForHoldCalls() []uuid.UUID {
	return m.resolved
}

var _ txManager = &txManagerMock{}

type txManagerMock struct {
	RunInTxFunc func(ctx context.Context, fn func(context.Context) error) error
}

func (m *txManagerMock) RunInTx(ctx context.Context, fn func(context.Context) error) error {
	if m.RunInTxFunc == nil {
		return fn(ctx)
	}
	return m.RunInTxFunc(ctx, fn)
}
