package circulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/domain"
	"github.com/openshelf/openshelf-backend/pkg/ctxutil"
)

// PlaceHold queues a hold for the user on an item. Exactly one of itemID
// and copyID must be set; a copy resolves to its item. The queue position
// is max(existing)+1 computed under the item row lock, so concurrent
// placements for the same item serialize and never collide.
func (s *Service) PlaceHold(ctx context.Context, userID uuid.UUID, itemID, copyID *uuid.UUID) (*PlaceHoldResult, error) {
	if (itemID == nil) == (copyID == nil) {
		return nil, domain.NewValidationError("item_id", "exactly one of item_id and copy_id must be given")
	}

	var result *PlaceHoldResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		target := itemID
		if copyID != nil {
			c, err := s.copies.GetForUpdate(ctx, *copyID)
			if err != nil {
				if errors.Is(err, domain.ErrNotFound) {
					return domain.ErrCopyNotFound
				}
				return err
			}
			target = &c.ItemID
		}

		if err := s.items.LockRow(ctx, *target); err != nil {
			return fmt.Errorf("lock item: %w", err)
		}
		max, err := s.holds.MaxQueuePosition(ctx, *target)
		if err != nil {
			return err
		}

		h, err := s.holds.Create(ctx, userID, *target, max+1)
		if err != nil {
			return err
		}

		s.recordEvent(ctx, domain.CirculationEvent{
			Type:   domain.EventHoldPlaced,
			UserID: userID,
			CopyID: copyID,
			HoldID: &h.ID,
		})

		result = &PlaceHoldResult{HoldID: h.ID, QueuePosition: h.QueuePosition}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("hold placed",
		slog.String("hold_id", result.HoldID.String()),
		slog.Int("queue_position", result.QueuePosition))
	return result, nil
}

// CancelHold cancels a queued or ready hold. Only the owning patron, or
// staff when staffScope is requested, may cancel. Cancelling a ready hold
// releases its copy and immediately promotes the next queued hold, which
// is what keeps the queue moving.
func (s *Service) CancelHold(ctx context.Context, holdID uuid.UUID, p ctxutil.Principal, staffScope bool) error {
	return s.releaseHold(ctx, holdID, p, staffScope, false)
}

// DeclineHold is a refusal of a ready hold: same release and reallocation
// chain as cancel, but a hold that is not ready is rejected outright.
func (s *Service) DeclineHold(ctx context.Context, holdID uuid.UUID, p ctxutil.Principal) error {
	return s.releaseHold(ctx, holdID, p, false, true)
}

// releaseHold is the shared cancel/decline path. requireReady narrows the
// cancellable set from {queued, ready} to {ready}.
func (s *Service) releaseHold(ctx context.Context, holdID uuid.UUID, p ctxutil.Principal, staffScope, requireReady bool) error {
	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		// First look without a lock: the copy lock must come before the
		// hold lock, and we cannot know the copy until we read the hold.
		h, err := s.holds.Get(ctx, holdID)
		if err != nil {
			return err
		}
		if err := s.authorizeHoldAccess(h, p, staffScope); err != nil {
			return err
		}

		if h.CopyID != nil {
			if _, err := s.copies.GetForUpdate(ctx, *h.CopyID); err != nil {
				return fmt.Errorf("lock copy: %w", err)
			}
		}
		h, err = s.holds.GetForUpdate(ctx, holdID)
		if err != nil {
			return err
		}

		// Re-check on the locked row: the hold may have been accepted or
		// expired between the first read and taking the locks.
		if requireReady {
			if h.Status != domain.HoldStatusReady {
				return domain.ErrHoldNotReady
			}
		} else if h.Status != domain.HoldStatusQueued && h.Status != domain.HoldStatusReady {
			return domain.ErrHoldNotCancellable
		}

		wasReady := h.Status == domain.HoldStatusReady && h.CopyID != nil

		if err := s.holds.SetStatus(ctx, holdID, domain.HoldStatusCancelled); err != nil {
			return err
		}

		if wasReady {
			if err := s.copies.SetStatus(ctx, *h.CopyID, domain.CopyStatusAvailable); err != nil {
				return err
			}
			if _, err := s.AssignCopyToNextHold(ctx, *h.CopyID, &h.ItemID); err != nil {
				return fmt.Errorf("reallocate released copy: %w", err)
			}
		}

		return s.notifier.ResolveForHold(ctx, holdID)
	})
}

func (s *Service) authorizeHoldAccess(h *domain.Hold, p ctxutil.Principal, staffScope bool) error {
	if h.UserID == p.UserID {
		return nil
	}
	if staffScope && p.IsStaff() {
		return nil
	}
	return domain.ErrForbidden
}

// AcceptHold turns a ready hold into an active loan. Expiry is evaluated
// lazily here in addition to the periodic sweep: accepting past the pickup
// window flips the hold to expired, releases the copy and fails with
// ErrHoldExpired.
func (s *Service) AcceptHold(ctx context.Context, holdID uuid.UUID, p ctxutil.Principal) (*CheckoutResult, error) {
	var result *CheckoutResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		h, err := s.holds.Get(ctx, holdID)
		if err != nil {
			return err
		}
		if err := s.authorizeHoldAccess(h, p, false); err != nil {
			return err
		}
		if h.Status != domain.HoldStatusReady || h.CopyID == nil {
			return domain.ErrHoldNotReady
		}

		c, err := s.copies.GetForUpdate(ctx, *h.CopyID)
		if err != nil {
			return fmt.Errorf("lock copy: %w", err)
		}
		h, err = s.holds.GetForUpdate(ctx, holdID)
		if err != nil {
			return err
		}
		if h.Status != domain.HoldStatusReady || h.CopyID == nil {
			return domain.ErrHoldNotReady
		}

		if !h.IsClaimable(s.clock.Now()) {
			if err := s.expireHoldLocked(ctx, h); err != nil {
				return err
			}
			return domain.ErrHoldExpired
		}

		user, err := s.users.GetByID(ctx, h.UserID)
		if err != nil {
			return err
		}
		if err := s.enforceLoanLimit(ctx, user); err != nil {
			return err
		}

		if c.ItemID != h.ItemID ||
			(c.Status != domain.CopyStatusOnHold && c.Status != domain.CopyStatusAvailable) {
			return &domain.CopyUnavailableError{Status: c.Status}
		}

		loan, err := s.issueLoan(ctx, user, c, p.EmployeeID, domain.LoanStatusActive)
		if err != nil {
			return err
		}
		if err := s.holds.SetStatus(ctx, holdID, domain.HoldStatusFulfilled); err != nil {
			return err
		}
		if err := s.notifier.ResolveForHold(ctx, holdID); err != nil {
			return err
		}

		s.recordEvent(ctx, domain.CirculationEvent{
			Type:       domain.EventHoldAccepted,
			UserID:     h.UserID,
			CopyID:     &c.ID,
			LoanID:     &loan.ID,
			HoldID:     &holdID,
			EmployeeID: p.EmployeeID,
		})

		result = &CheckoutResult{LoanID: loan.ID, DueDate: loan.DueDate, PolicyID: policyID(loan)}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// expireHoldLocked flips an already-locked ready hold to expired, releases
// its copy and reallocates it. The hold's user gets a hold_lifted
// notification; the stale hold_ready one is resolved.
func (s *Service) expireHoldLocked(ctx context.Context, h *domain.Hold) error {
	if err := s.holds.SetStatus(ctx, h.ID, domain.HoldStatusExpired); err != nil {
		return err
	}
	if h.CopyID != nil {
		if err := s.copies.SetStatus(ctx, *h.CopyID, domain.CopyStatusAvailable); err != nil {
			return err
		}
		if _, err := s.AssignCopyToNextHold(ctx, *h.CopyID, &h.ItemID); err != nil {
			return fmt.Errorf("reallocate expired hold copy: %w", err)
		}
	}
	if err := s.notifier.ResolveForHold(ctx, h.ID); err != nil {
		return err
	}
	if _, err := s.notifier.Notify(ctx, &domain.Notification{
		UserID: h.UserID,
		Type:   domain.NotificationHoldLifted,
		HoldID: &h.ID,
	}); err != nil {
		return err
	}
	return nil
}

// ExpireReadyHolds expires every ready hold whose pickup window has
// passed, one transaction per hold. Returns how many were expired. Stale
// candidates (accepted or cancelled since the scan) are skipped.
func (s *Service) ExpireReadyHolds(ctx context.Context) (int, error) {
	candidates, err := s.holds.ListExpiredReady(ctx, s.clock.Now())
	if err != nil {
		return 0, fmt.Errorf("list expired holds: %w", err)
	}

	expired := 0
	for _, cand := range candidates {
		cand := cand
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			if cand.CopyID != nil {
				if _, err := s.copies.GetForUpdate(ctx, *cand.CopyID); err != nil {
					return fmt.Errorf("lock copy: %w", err)
				}
			}
			h, err := s.holds.GetForUpdate(ctx, cand.ID)
			if err != nil {
				return err
			}
			if h.Status != domain.HoldStatusReady || h.IsClaimable(s.clock.Now()) {
				return nil
			}
			if err := s.expireHoldLocked(ctx, h); err != nil {
				return err
			}
			expired++
			return nil
		})
		if err != nil {
			s.log.Error("failed to expire hold",
				slog.String("hold_id", cand.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return expired, nil
}

// ListHolds returns holds ordered by status priority, then queue position,
// then creation time. With staffScope the caller must be staff and sees
// every hold; otherwise only their own.
func (s *Service) ListHolds(ctx context.Context, p ctxutil.Principal, staffScope bool) ([]domain.Hold, error) {
	if staffScope {
		if !p.IsStaff() {
			return nil, domain.ErrForbidden
		}
		return s.holds.List(ctx, nil)
	}
	return s.holds.List(ctx, &p.UserID)
}

func policyID(l *domain.Loan) *uuid.UUID {
	if l.Snapshot == nil {
		return nil
	}
	return l.Snapshot.PolicyID
}
