package domain

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// LoanPolicy is a row of the fine-policy table keyed by
// (media kind, user category). When the table itself is absent the resolver
// returns a bare policy carrying only the media kind, and callers fall back
// to role-based defaults.
type LoanPolicy struct {
	ID             *uuid.UUID
	MediaKind      MediaKind
	Category       UserCategory
	LoanDays       *int
	DailyRate      *decimal.Decimal
	GraceDays      *int
	MaxFine        *decimal.Decimal
	ReplacementFee *decimal.Decimal
}

// HasTerms reports whether the policy carries numeric loan terms.
func (p *LoanPolicy) HasTerms() bool {
	return p != nil && p.LoanDays != nil
}

// PolicySnapshot is the subset of loan terms frozen onto a loan at checkout.
type PolicySnapshot struct {
	PolicyID       *uuid.UUID
	DailyRate      decimal.Decimal
	GraceDays      int
	MaxFine        decimal.Decimal
	ReplacementFee decimal.Decimal
}

// NormalizeMediaKind folds a raw media classification into the closed set
// used for policy lookup. Blu-ray counts as dvd; cd folds into other.
func NormalizeMediaKind(raw string) MediaKind {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "book":
		return MediaKindBook
	case "device":
		return MediaKindDevice
	case "dvd", "blu-ray", "bluray":
		return MediaKindDVD
	default:
		return MediaKindOther
	}
}
