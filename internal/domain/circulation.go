package domain

import (
	"time"

	"github.com/google/uuid"
)

// Item is a catalog entry owning zero or more copies.
type Item struct {
	ID        uuid.UUID
	Title     string
	Author    *string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Copy is one physical loanable unit of an Item. The copy row is the
// serialization point for "who holds this item right now": every
// state-changing path takes its row lock first.
type Copy struct {
	ID        uuid.UUID
	ItemID    uuid.UUID
	Barcode   string
	Status    CopyStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Hold is a patron's claim on an Item, pinned to a specific copy once the
// allocator promotes it to ready. QueuePosition is unique per item among
// all holds ever created for it; gaps are fine, ordering is the invariant.
type Hold struct {
	ID             uuid.UUID
	UserID         uuid.UUID
	ItemID         uuid.UUID
	CopyID         *uuid.UUID
	Status         HoldStatus
	QueuePosition  int
	AvailableSince *time.Time
	ExpiresAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// IsClaimable reports whether the hold can still be accepted at the given
// time. A ready hold past its pickup window is no longer claimable even if
// the sweep has not expired it yet.
func (h *Hold) IsClaimable(now time.Time) bool {
	if h.Status != HoldStatusReady || h.CopyID == nil {
		return false
	}
	return h.ExpiresAt == nil || h.ExpiresAt.After(now)
}

// Loan is a checkout of a specific copy. Policy terms are snapshotted at
// checkout time so later policy edits never change existing loans.
type Loan struct {
	ID           uuid.UUID
	UserID       uuid.UUID
	CopyID       uuid.UUID
	EmployeeID   *uuid.UUID
	Status       LoanStatus
	CheckoutDate time.Time
	// DueDate is a calendar date; time of day is always local midnight.
	DueDate    time.Time
	ReturnDate *time.Time
	Snapshot   *PolicySnapshot
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// DaysOverdue returns whole days past due at the given time, 0 if not due.
func (l *Loan) DaysOverdue(now time.Time) int {
	if !now.After(l.DueDate) {
		return 0
	}
	return int(now.Sub(l.DueDate).Hours() / 24)
}

// CheckoutRequest is a patron-initiated checkout awaiting staff approval.
type CheckoutRequest struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	CopyID    uuid.UUID
	Status    RequestStatus
	LoanID    *uuid.UUID
	CreatedAt time.Time
	DecidedAt *time.Time
}

// RoomReservation is a booked room slot; only the sweep reads these.
type RoomReservation struct {
	ID       uuid.UUID
	UserID   uuid.UUID
	RoomName string
	StartsAt time.Time
	EndsAt   time.Time
}

// CirculationEvent is a best-effort audit record. Core correctness never
// depends on one being written.
type CirculationEvent struct {
	ID         uuid.UUID
	Type       EventType
	UserID     uuid.UUID
	CopyID     *uuid.UUID
	LoanID     *uuid.UUID
	HoldID     *uuid.UUID
	EmployeeID *uuid.UUID
	CreatedAt  time.Time
}

// Notification is a derived, idempotent record of a state change. The
// (user, type, correlated entity) key prevents duplicate emission across
// repeated sweep passes.
type Notification struct {
	ID            uuid.UUID
	UserID        uuid.UUID
	Type          NotificationType
	Status        NotificationStatus
	HoldID        *uuid.UUID
	LoanID        *uuid.UUID
	ReservationID *uuid.UUID
	Metadata      map[string]any
	CreatedAt     time.Time
	ReadAt        *time.Time
}
