package circulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/domain"
)

// AssignCopyToNextHold promotes the earliest queued hold for the copy's
// item onto the copy. Runs inside the caller's transaction; the copy row
// lock is (re-)acquired here, then the earliest queued hold is locked in
// (queue_position, id) order, which is what makes concurrent promotions
// pick distinct holds. Returns the promoted hold id, or nil when the queue
// is empty — in which case the copy is left available unless a ready hold
// already claims it.
func (s *Service) AssignCopyToNextHold(ctx context.Context, copyID uuid.UUID, explicitItemID *uuid.UUID) (*uuid.UUID, error) {
	c, err := s.copies.GetForUpdate(ctx, copyID)
	if err != nil {
		return nil, fmt.Errorf("lock copy: %w", err)
	}

	itemID := c.ItemID
	if explicitItemID != nil {
		itemID = *explicitItemID
	}

	h, err := s.holds.NextQueuedForUpdate(ctx, itemID)
	if errors.Is(err, domain.ErrNotFound) {
		claimed, err := s.holds.HasReadyForCopy(ctx, copyID)
		if err != nil {
			return nil, err
		}
		if !claimed && c.Status != domain.CopyStatusAvailable {
			if err := s.copies.SetStatus(ctx, copyID, domain.CopyStatusAvailable); err != nil {
				return nil, err
			}
		}
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("next queued hold: %w", err)
	}

	now := s.clock.Now()
	expiresAt := now.Add(s.cfg.PickupWindow)
	promoted, err := s.holds.MarkReady(ctx, h.ID, copyID, now, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("mark hold ready: %w", err)
	}
	if err := s.copies.SetStatus(ctx, copyID, domain.CopyStatusOnHold); err != nil {
		return nil, err
	}

	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	if _, err := s.notifier.Notify(ctx, &domain.Notification{
		UserID: promoted.UserID,
		Type:   domain.NotificationHoldReady,
		HoldID: &promoted.ID,
		Metadata: map[string]any{
			"item_title":     item.Title,
			"queue_position": promoted.QueuePosition,
			"expires_at":     expiresAt,
		},
	}); err != nil {
		return nil, fmt.Errorf("notify hold ready: %w", err)
	}

	s.log.Info("hold promoted to ready",
		slog.String("hold_id", promoted.ID.String()),
		slog.String("copy_id", copyID.String()),
		slog.Int("queue_position", promoted.QueuePosition))

	return &promoted.ID, nil
}

// AssignAvailableCopiesForItem promotes queued holds onto every available
// copy of one item, one transaction per copy. Reconciliation path, not the
// request hot path. Returns the number of holds promoted.
func (s *Service) AssignAvailableCopiesForItem(ctx context.Context, itemID uuid.UUID) (int, error) {
	return s.assignAvailable(ctx, &itemID)
}

// AssignAvailableCopies is the global variant: every available copy with a
// queued hold, across all items.
func (s *Service) AssignAvailableCopies(ctx context.Context) (int, error) {
	return s.assignAvailable(ctx, nil)
}

func (s *Service) assignAvailable(ctx context.Context, itemID *uuid.UUID) (int, error) {
	copies, err := s.copies.ListAvailableWithQueuedHolds(ctx, itemID)
	if err != nil {
		return 0, fmt.Errorf("list assignable copies: %w", err)
	}

	promoted := 0
	for _, c := range copies {
		c := c
		err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
			holdID, err := s.AssignCopyToNextHold(ctx, c.ID, &c.ItemID)
			if err != nil {
				return err
			}
			if holdID != nil {
				promoted++
			}
			return nil
		})
		if err != nil {
			// One bad copy must not abort the batch.
			s.log.Error("failed to assign copy",
				slog.String("copy_id", c.ID.String()),
				slog.String("error", err.Error()))
		}
	}
	return promoted, nil
}
