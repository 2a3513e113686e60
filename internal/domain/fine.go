package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fine is a monetary obligation tied to a loan. At most one open fine per
// (loan, reason) is authoritative; an open overdue fine is converted in
// place to lost rather than duplicated when the loan crosses the lost
// threshold.
type Fine struct {
	ID             uuid.UUID
	LoanID         uuid.UUID
	UserID         uuid.UUID
	Reason         FineReason
	Status         FineStatus
	AmountAssessed decimal.Decimal
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FinePayment is money applied against a fine. Refund is true when the
// amount was returned to the patron.
type FinePayment struct {
	ID        uuid.UUID
	FineID    uuid.UUID
	Amount    decimal.Decimal
	Refund    bool
	CreatedAt time.Time
}

// Outstanding computes the remaining obligation:
// assessed − payments + refunds, clamped at zero.
func Outstanding(assessed, payments, refunds decimal.Decimal) decimal.Decimal {
	out := assessed.Sub(payments).Add(refunds)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// OverdueAmount computes the accrued overdue fine for a number of days past
// due under the given terms. Days within the grace period accrue nothing;
// the total is capped at maxFine when maxFine is positive.
func OverdueAmount(daysOverdue, graceDays int, dailyRate, maxFine decimal.Decimal) decimal.Decimal {
	billable := daysOverdue - graceDays
	if billable <= 0 {
		return decimal.Zero
	}
	total := dailyRate.Mul(decimal.NewFromInt(int64(billable)))
	if maxFine.IsPositive() && total.GreaterThan(maxFine) {
		return maxFine
	}
	return total
}
