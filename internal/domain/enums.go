package domain

// CopyStatus represents the physical state of a single loanable copy.
type CopyStatus string

const (
	CopyStatusAvailable CopyStatus = "available"
	CopyStatusOnHold    CopyStatus = "on_hold"
	CopyStatusOnLoan    CopyStatus = "on_loan"
	CopyStatusLost      CopyStatus = "lost"
)

func (s CopyStatus) String() string { return string(s) }

func (s CopyStatus) IsValid() bool {
	switch s {
	case CopyStatusAvailable, CopyStatusOnHold, CopyStatusOnLoan, CopyStatusLost:
		return true
	}
	return false
}

// HoldStatus represents the lifecycle state of a hold.
type HoldStatus string

const (
	HoldStatusQueued    HoldStatus = "queued"
	HoldStatusReady     HoldStatus = "ready"
	HoldStatusFulfilled HoldStatus = "fulfilled"
	HoldStatusCancelled HoldStatus = "cancelled"
	HoldStatusExpired   HoldStatus = "expired"
)

func (s HoldStatus) String() string { return string(s) }

func (s HoldStatus) IsValid() bool {
	switch s {
	case HoldStatusQueued, HoldStatusReady, HoldStatusFulfilled, HoldStatusCancelled, HoldStatusExpired:
		return true
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from s.
func (s HoldStatus) IsTerminal() bool {
	switch s {
	case HoldStatusFulfilled, HoldStatusCancelled, HoldStatusExpired:
		return true
	}
	return false
}

// LoanStatus represents the lifecycle state of a loan.
type LoanStatus string

const (
	LoanStatusPending  LoanStatus = "pending"
	LoanStatusActive   LoanStatus = "active"
	LoanStatusReturned LoanStatus = "returned"
	LoanStatusLost     LoanStatus = "lost"
)

func (s LoanStatus) String() string { return string(s) }

func (s LoanStatus) IsValid() bool {
	switch s {
	case LoanStatusPending, LoanStatusActive, LoanStatusReturned, LoanStatusLost:
		return true
	}
	return false
}

// FineReason identifies why a fine was assessed.
type FineReason string

const (
	FineReasonOverdue FineReason = "overdue"
	FineReasonLost    FineReason = "lost"
)

func (r FineReason) String() string { return string(r) }

func (r FineReason) IsValid() bool {
	switch r {
	case FineReasonOverdue, FineReasonLost:
		return true
	}
	return false
}

// FineStatus represents the settlement state of a fine.
type FineStatus string

const (
	FineStatusOpen       FineStatus = "open"
	FineStatusPaid       FineStatus = "paid"
	FineStatusWaived     FineStatus = "waived"
	FineStatusWrittenOff FineStatus = "written_off"
)

func (s FineStatus) String() string { return string(s) }

func (s FineStatus) IsValid() bool {
	switch s {
	case FineStatusOpen, FineStatusPaid, FineStatusWaived, FineStatusWrittenOff:
		return true
	}
	return false
}

// MediaKind is the normalized media classification used for policy lookup.
type MediaKind string

const (
	MediaKindBook   MediaKind = "book"
	MediaKindDevice MediaKind = "device"
	MediaKindDVD    MediaKind = "dvd"
	MediaKindOther  MediaKind = "other"
)

func (k MediaKind) String() string { return string(k) }

func (k MediaKind) IsValid() bool {
	switch k {
	case MediaKindBook, MediaKindDevice, MediaKindDVD, MediaKindOther:
		return true
	}
	return false
}

// UserRole represents the authorization level of a library account.
type UserRole string

const (
	UserRoleStudent UserRole = "student"
	UserRoleFaculty UserRole = "faculty"
	UserRoleStaff   UserRole = "staff"
)

func (r UserRole) String() string { return string(r) }

func (r UserRole) IsValid() bool {
	switch r {
	case UserRoleStudent, UserRoleFaculty, UserRoleStaff:
		return true
	}
	return false
}

// Category maps a role to the patron category used for policy lookup.
// Only faculty gets faculty terms; everyone else borrows as a student.
func (r UserRole) Category() UserCategory {
	if r == UserRoleFaculty {
		return UserCategoryFaculty
	}
	return UserCategoryStudent
}

// UserCategory is the patron category dimension of the fine-policy table.
type UserCategory string

const (
	UserCategoryStudent UserCategory = "student"
	UserCategoryFaculty UserCategory = "faculty"
)

func (c UserCategory) String() string { return string(c) }

func (c UserCategory) IsValid() bool {
	switch c {
	case UserCategoryStudent, UserCategoryFaculty:
		return true
	}
	return false
}

// NotificationType identifies the state change a notification describes.
type NotificationType string

const (
	NotificationHoldReady    NotificationType = "hold_ready"
	NotificationHoldLifted   NotificationType = "hold_lifted"
	NotificationDueSoon      NotificationType = "due_soon"
	NotificationOverdue      NotificationType = "overdue"
	NotificationLost         NotificationType = "lost"
	NotificationSuspended    NotificationType = "suspended"
	NotificationRoomExpiring NotificationType = "room_expiring"
	NotificationRoomExpired  NotificationType = "room_expired"
)

func (t NotificationType) String() string { return string(t) }

func (t NotificationType) IsValid() bool {
	switch t {
	case NotificationHoldReady, NotificationHoldLifted, NotificationDueSoon,
		NotificationOverdue, NotificationLost, NotificationSuspended,
		NotificationRoomExpiring, NotificationRoomExpired:
		return true
	}
	return false
}

// NotificationStatus represents the read state of a notification.
type NotificationStatus string

const (
	NotificationStatusUnread NotificationStatus = "unread"
	NotificationStatusRead   NotificationStatus = "read"
)

func (s NotificationStatus) String() string { return string(s) }

func (s NotificationStatus) IsValid() bool {
	switch s {
	case NotificationStatusUnread, NotificationStatusRead:
		return true
	}
	return false
}

// RequestStatus represents the decision state of a checkout request.
type RequestStatus string

const (
	RequestStatusPending  RequestStatus = "pending"
	RequestStatusApproved RequestStatus = "approved"
	RequestStatusRejected RequestStatus = "rejected"
)

func (s RequestStatus) String() string { return string(s) }

func (s RequestStatus) IsValid() bool {
	switch s {
	case RequestStatusPending, RequestStatusApproved, RequestStatusRejected:
		return true
	}
	return false
}

// EventType identifies an entry in the circulation event log.
type EventType string

const (
	EventCheckout     EventType = "checkout"
	EventReturn       EventType = "return"
	EventHoldPlaced   EventType = "hold_placed"
	EventHoldAccepted EventType = "hold_accepted"
)

func (t EventType) String() string { return string(t) }
