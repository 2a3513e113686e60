// Package policy resolves loan terms for (item, patron category) pairs and
// supplies the role-based defaults used when no policy row matches.
package policy

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/openshelf/openshelf-backend/internal/config"
	"github.com/openshelf/openshelf-backend/internal/domain"
)

type itemRepo interface {
	KindSource(ctx context.Context, id uuid.UUID) (hasDevice bool, mediaKind *string, err error)
}

type policyRepo interface {
	Lookup(ctx context.Context, kind domain.MediaKind, category domain.UserCategory) (*domain.LoanPolicy, error)
}

// Resolver maps items and patron categories to loan terms.
type Resolver struct {
	items    itemRepo
	policies policyRepo
	clock    clockwork.Clock
	cfg      config.CirculationConfig
	log      *slog.Logger
}

// NewResolver creates a policy resolver.
func NewResolver(log *slog.Logger, items itemRepo, policies policyRepo, clock clockwork.Clock, cfg config.CirculationConfig) *Resolver {
	return &Resolver{
		items:    items,
		policies: policies,
		clock:    clock,
		cfg:      cfg,
		log:      log,
	}
}

// Resolve determines the item's media kind and looks up its policy row.
// A device asset makes the item a device; otherwise the media asset's kind
// is normalized; otherwise the item is a book. On a lookup miss for a
// non-other kind the (other, category) row is tried. When neither row nor
// even the policy table exists, a bare policy carrying only the media kind
// is returned and callers fall back to role defaults.
func (r *Resolver) Resolve(ctx context.Context, itemID uuid.UUID, category domain.UserCategory) (*domain.LoanPolicy, error) {
	hasDevice, rawKind, err := r.items.KindSource(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("resolve media kind: %w", err)
	}

	kind := domain.MediaKindBook
	switch {
	case hasDevice:
		kind = domain.MediaKindDevice
	case rawKind != nil:
		kind = domain.NormalizeMediaKind(*rawKind)
	}

	p, err := r.policies.Lookup(ctx, kind, category)
	if err == nil {
		return p, nil
	}
	if errors.Is(err, domain.ErrPolicyTableMissing) {
		r.log.Warn("fine policy table missing, using role defaults",
			slog.String("media_kind", kind.String()))
		return &domain.LoanPolicy{MediaKind: kind, Category: category}, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	if kind != domain.MediaKindOther {
		p, err = r.policies.Lookup(ctx, domain.MediaKindOther, category)
		if err == nil {
			// Keep the item's real kind; only the terms come from the
			// fallback row.
			fallback := *p
			fallback.MediaKind = kind
			return &fallback, nil
		}
		if !errors.Is(err, domain.ErrNotFound) && !errors.Is(err, domain.ErrPolicyTableMissing) {
			return nil, err
		}
	}

	return &domain.LoanPolicy{MediaKind: kind, Category: category}, nil
}

// LoanLimit returns the maximum number of concurrently active loans for
// the role: faculty 7, everyone else 5 (configurable).
func (r *Resolver) LoanLimit(role domain.UserRole) int {
	if role == domain.UserRoleFaculty {
		return r.cfg.FacultyLoanLimit
	}
	return r.cfg.StudentLoanLimit
}

// DefaultLoanDays returns the loan period used when no policy row supplies
// one: faculty 21 days, everyone else 14 (configurable).
func (r *Resolver) DefaultLoanDays(role domain.UserRole) int {
	if role == domain.UserRoleFaculty {
		return r.cfg.FacultyLoanDays
	}
	return r.cfg.StudentLoanDays
}

// DueDate computes today (local, truncated to midnight) plus the given
// number of days. Non-positive days fall back to the student default.
func (r *Resolver) DueDate(days int) time.Time {
	if days <= 0 {
		days = r.cfg.StudentLoanDays
	}
	now := r.clock.Now()
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return midnight.AddDate(0, 0, days)
}

// Snapshot freezes the fine terms that apply to a loan issued under the
// given policy, filling gaps from the configured defaults.
func (r *Resolver) Snapshot(p *domain.LoanPolicy) domain.PolicySnapshot {
	snap := domain.PolicySnapshot{
		DailyRate:      r.cfg.DailyRate(),
		GraceDays:      r.cfg.DefaultGraceDays,
		MaxFine:        r.cfg.MaxFine(),
		ReplacementFee: r.cfg.ReplacementFee(),
	}
	if p == nil {
		return snap
	}
	snap.PolicyID = p.ID
	if p.DailyRate != nil {
		snap.DailyRate = *p.DailyRate
	}
	if p.GraceDays != nil {
		snap.GraceDays = *p.GraceDays
	}
	if p.MaxFine != nil {
		snap.MaxFine = *p.MaxFine
	}
	if p.ReplacementFee != nil {
		snap.ReplacementFee = *p.ReplacementFee
	}
	return snap
}
