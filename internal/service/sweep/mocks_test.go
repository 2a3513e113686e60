package sweep

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/openshelf/openshelf-backend/internal/domain"
)

var _ loanRepo = &loanRepoMock{}

type loanRepoMock struct {
	SweepCandidateIDsFunc func(ctx context.Context) ([]uuid.UUID, error)
	GetForUpdateFunc      func(ctx context.Context, id uuid.UUID) (*domain.Loan, error)
	MarkLostFunc          func(ctx context.Context, id uuid.UUID) error

	markedLost []uuid.UUID
}

func (m *loanRepoMock) SweepCandidateIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.SweepCandidateIDsFunc == nil {
		panic("loanRepoMock.SweepCandidateIDsFunc is nil")
	}
	return m.SweepCandidateIDsFunc(ctx)
}

func (m *loanRepoMock) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Loan, error) {
	if m.GetForUpdateFunc == nil {
		panic("loanRepoMock.GetForUpdateFunc is nil")
	}
	return m.GetForUpdateFunc(ctx, id)
}

func (m *loanRepoMock) MarkLost(ctx context.Context, id uuid.UUID) error {
	m.markedLost = append(m.markedLost, id)
	if m.MarkLostFunc == nil {
		return nil
	}
	return m.MarkLostFunc(ctx, id)
}

func (m *loanRepoMock) MarkLostCalls() []uuid.UUID {
	return m.markedLost
}

var _ copyRepo = &copyRepoMock{}

type copyRepoMock struct {
	GetForUpdateFunc func(ctx context.Context, id uuid.UUID) (*domain.Copy, error)
	SetStatusFunc    func(ctx context.Context, id uuid.UUID, status domain.CopyStatus) error

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

var _ fineRepo = &fineRepoMock{}

type fineRepoMock struct {
	GetOpenByLoanAndReasonFunc func(ctx context.Context, loanID uuid.UUID, reason domain.FineReason) (*domain.Fine, error)
	CreateFunc                 func(ctx context.Context, loanID, userID uuid.UUID, reason domain.FineReason, amount decimal.Decimal) (*domain.Fine, error)
	UpdateAmountFunc           func(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error
	ConvertToLostFunc          func(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error

	created []struct {
		LoanID uuid.UUID
		Reason domain.FineReason
		Amount decimal.Decimal
	}
	converted []struct {
		ID     uuid.UUID
		Amount decimal.Decimal
	}
	updated []struct {
		ID     uuid.UUID
		Amount decimal.Decimal
	}
}

func (m *fineRepoMock) GetOpenByLoanAndReason(ctx context.Context, loanID uuid.UUID, reason domain.FineReason) (*domain.Fine, error) {
	if m.GetOpenByLoanAndReasonFunc == nil {
		return nil, domain.ErrNotFound
	}
	return m.GetOpenByLoanAndReasonFunc(ctx, loanID, reason)
}

func (m *fineRepoMock) Create(ctx context.Context, loanID, userID uuid.UUID, reason domain.FineReason, amount decimal.Decimal) (*domain.Fine, error) {
	m.created = append(m.created, struct {
		LoanID uuid.UUID
		Reason domain.FineReason
		Amount decimal.Decimal
	}{loanID, reason, amount})
	if m.CreateFunc == nil {
		return &domain.Fine{ID: uuid.New(), LoanID: loanID, UserID: userID, Reason: reason,
			Status: domain.FineStatusOpen, AmountAssessed: amount}, nil
	}
	return m.CreateFunc(ctx, loanID, userID, reason, amount)
}

func (m *fineRepoMock) CreateCalls() []struct {
	LoanID uuid.UUID
	Reason domain.FineReason
	Amount decimal.Decimal
} {
	return m.created
}

func (m *fineRepoMock) UpdateAmount(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	m.updated = append(m.updated, struct {
		ID     uuid.UUID
		Amount decimal.Decimal
	}{id, amount})
	if m.UpdateAmountFunc == nil {
		return nil
	}
	return m.UpdateAmountFunc(ctx, id, amount)
}

func (m *fineRepoMock) UpdateAmountCalls() []struct {
	ID     uuid.UUID
	Amount decimal.Decimal
} {
	return m.updated
}

func (m *fineRepoMock) ConvertToLost(ctx context.Context, id uuid.UUID, amount decimal.Decimal) error {
	m.converted = append(m.converted, struct {
		ID     uuid.UUID
		Amount decimal.Decimal
	}{id, amount})
	if m.ConvertToLostFunc == nil {
		return nil
	}
	return m.ConvertToLostFunc(ctx, id, amount)
}

func (m *fineRepoMock) ConvertToLostCalls() []struct {
	ID     uuid.UUID
	Amount decimal.Decimal
} {
	return m.converted
}

var _ reservationRepo = &reservationRepoMock{}

type reservationRepoMock struct {
	ListEndingBetweenFunc func(ctx context.Context, from, to time.Time) ([]domain.RoomReservation, error)
	ListEndedBeforeFunc   func(ctx context.Context, t time.Time) ([]domain.RoomReservation, error)
}

func (m *reservationRepoMock) ListEndingBetween(ctx context.Context, from, to time.Time) ([]domain.RoomReservation, error) {
	if m.ListEndingBetweenFunc == nil {
		return nil, nil
	}
	return m.ListEndingBetweenFunc(ctx, from, to)
}

func (m *reservationRepoMock) ListEndedBefore(ctx context.Context, t time.Time) ([]domain.RoomReservation, error) {
	if m.ListEndedBeforeFunc == nil {
		return nil, nil
	}
	return m.ListEndedBeforeFunc(ctx, t)
}

var _ holdExpirer = &holdExpirerMock{}

type holdExpirerMock struct {
	ExpireReadyHoldsFunc func(ctx context.Context) (int, error)
}

func (m *holdExpirerMock) ExpireReadyHolds(ctx context.Context) (int, error) {
	if m.ExpireReadyHoldsFunc == nil {
		return 0, nil
	}
	return m.ExpireReadyHoldsFunc(ctx)
}

var _ notifier = &notifierMock{}

type notifierMock struct {
	NotifyFunc func(ctx context.Context, n *domain.Notification) (bool, error)

	notified []domain.Notification
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
