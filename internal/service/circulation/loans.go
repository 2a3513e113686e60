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

// enforceLoanLimit rejects the checkout when the patron is at or over
// their role-based active-loan limit. The same check, with the same limit
// table, guards direct checkout and hold acceptance.
func (s *Service) enforceLoanLimit(ctx context.Context, user *domain.User) error {
	limit := s.policy.LoanLimit(user.Role)
	count, err := s.loans.CountActive(ctx, user.ID)
	if err != nil {
		return fmt.Errorf("count active loans: %w", err)
	}
	if count >= limit {
		return &domain.LoanLimitError{Count: count, Limit: limit}
	}
	return nil
}

// issueLoan is the shared tail of every checkout path: resolve policy and
// due date for the copy's item, insert the loan with its frozen policy
// snapshot, and move the copy to on_loan. The copy row is already locked
// and verified by the caller.
func (s *Service) issueLoan(ctx context.Context, user *domain.User, c *domain.Copy,
	employeeID *uuid.UUID, status domain.LoanStatus) (*domain.Loan, error) {

	p, err := s.policy.Resolve(ctx, c.ItemID, user.Role.Category())
	if err != nil {
		return nil, fmt.Errorf("resolve policy: %w", err)
	}

	days := s.policy.DefaultLoanDays(user.Role)
	if p.HasTerms() {
		days = *p.LoanDays
	}
	dueDate := s.policy.DueDate(days)
	snap := s.policy.Snapshot(p)

	loan, err := s.loans.Create(ctx, user.ID, c.ID, employeeID, status, dueDate, &snap)
	if err != nil {
		return nil, err
	}
	if err := s.copies.SetStatus(ctx, c.ID, domain.CopyStatusOnLoan); err != nil {
		return nil, err
	}
	return loan, nil
}

// resolveCopyForUpdate locks the checkout target by id or barcode.
// Exactly one selector must be set.
func (s *Service) resolveCopyForUpdate(ctx context.Context, copyID *uuid.UUID, barcode *string) (*domain.Copy, error) {
	if (copyID == nil) == (barcode == nil) {
		return nil, domain.NewValidationError("copy_id", "exactly one of copy_id and barcode must be given")
	}

	var (
		c   *domain.Copy
		err error
	)
	if copyID != nil {
		c, err = s.copies.GetForUpdate(ctx, *copyID)
	} else {
		c, err = s.copies.GetByBarcodeForUpdate(ctx, *barcode)
	}
	if errors.Is(err, domain.ErrNotFound) {
		return nil, domain.ErrCopyNotFound
	}
	return c, err
}

// Checkout issues an active loan directly. The copy is selected by id or
// by barcode scan; employeeID records the staff member at the desk, when
// there is one.
func (s *Service) Checkout(ctx context.Context, userID uuid.UUID, copyID *uuid.UUID, barcode *string, employeeID *uuid.UUID) (*CheckoutResult, error) {
	return s.checkout(ctx, userID, copyID, barcode, employeeID, domain.LoanStatusActive)
}

// RequestCheckout runs the same checkout core but leaves the loan pending
// staff approval. The copy is claimed immediately; a checkout request row
// linked to the pending loan carries the decision state.
func (s *Service) RequestCheckout(ctx context.Context, userID uuid.UUID, copyID *uuid.UUID, barcode *string) (*CheckoutResult, error) {
	return s.checkout(ctx, userID, copyID, barcode, nil, domain.LoanStatusPending)
}

func (s *Service) checkout(ctx context.Context, userID uuid.UUID, copyID *uuid.UUID, barcode *string,
	employeeID *uuid.UUID, status domain.LoanStatus) (*CheckoutResult, error) {

	var result *CheckoutResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		user, err := s.users.GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if err := s.enforceLoanLimit(ctx, user); err != nil {
			return err
		}

		c, err := s.resolveCopyForUpdate(ctx, copyID, barcode)
		if err != nil {
			return err
		}
		if c.Status != domain.CopyStatusAvailable {
			return &domain.CopyUnavailableError{Status: c.Status}
		}

		loan, err := s.issueLoan(ctx, user, c, employeeID, status)
		if err != nil {
			return err
		}

		if status == domain.LoanStatusPending {
			if _, err := s.requests.Create(ctx, userID, c.ID, loan.ID); err != nil {
				return err
			}
		}

		s.recordEvent(ctx, domain.CirculationEvent{
			Type:       domain.EventCheckout,
			UserID:     userID,
			CopyID:     &c.ID,
			LoanID:     &loan.ID,
			EmployeeID: employeeID,
		})

		result = &CheckoutResult{LoanID: loan.ID, DueDate: loan.DueDate, PolicyID: policyID(loan)}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("loan created",
		slog.String("loan_id", result.LoanID.String()),
		slog.String("status", status.String()),
		slog.Time("due_date", result.DueDate))
	return result, nil
}

// ApproveCheckout activates the pending loan behind a checkout request.
// Staff only. The patron's loan limit is re-checked and the due date is
// recomputed at approval time, so a patron who filled up in the meantime
// is rejected the same way a direct checkout would be, and a late approval
// does not shorten the effective loan period.
func (s *Service) ApproveCheckout(ctx context.Context, requestID uuid.UUID, p ctxutil.Principal) (*CheckoutResult, error) {
	if !p.IsStaff() {
		return nil, domain.ErrForbidden
	}

	var result *CheckoutResult
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetPendingForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req.LoanID == nil {
			return fmt.Errorf("checkout request %s has no pending loan: %w", req.ID, domain.ErrConflict)
		}

		c, err := s.copies.GetForUpdate(ctx, req.CopyID)
		if err != nil {
			return fmt.Errorf("lock copy: %w", err)
		}
		loan, err := s.loans.GetForUpdate(ctx, *req.LoanID)
		if err != nil {
			return err
		}
		if loan.Status != domain.LoanStatusPending {
			return fmt.Errorf("loan %s is %s, not pending: %w", loan.ID, loan.Status, domain.ErrConflict)
		}

		user, err := s.users.GetByID(ctx, req.UserID)
		if err != nil {
			return err
		}
		if err := s.enforceLoanLimit(ctx, user); err != nil {
			return err
		}

		// The due date is recomputed at approval: a request that sat in
		// the queue for days must not eat into the loan period.
		pol, err := s.policy.Resolve(ctx, c.ItemID, user.Role.Category())
		if err != nil {
			return fmt.Errorf("resolve policy: %w", err)
		}
		days := s.policy.DefaultLoanDays(user.Role)
		if pol.HasTerms() {
			days = *pol.LoanDays
		}
		dueDate := s.policy.DueDate(days)

		if err := s.loans.Activate(ctx, loan.ID, dueDate); err != nil {
			return err
		}
		loan.DueDate = dueDate
		if err := s.requests.MarkApproved(ctx, requestID); err != nil {
			return err
		}

		s.recordEvent(ctx, domain.CirculationEvent{
			Type:       domain.EventCheckout,
			UserID:     req.UserID,
			CopyID:     &req.CopyID,
			LoanID:     &loan.ID,
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

// RejectCheckout refuses a pending checkout request: the pending loan is
// closed out as returned, the copy is released and reallocated. Staff only.
func (s *Service) RejectCheckout(ctx context.Context, requestID uuid.UUID, p ctxutil.Principal) error {
	if !p.IsStaff() {
		return domain.ErrForbidden
	}

	return s.tx.RunInTx(ctx, func(ctx context.Context) error {
		req, err := s.requests.GetPendingForUpdate(ctx, requestID)
		if err != nil {
			return err
		}

		if _, err := s.copies.GetForUpdate(ctx, req.CopyID); err != nil {
			return fmt.Errorf("lock copy: %w", err)
		}
		if err := s.requests.MarkRejected(ctx, requestID); err != nil {
			return err
		}

		if req.LoanID != nil {
			loan, err := s.loans.GetForUpdate(ctx, *req.LoanID)
			if err != nil {
				return err
			}
			if loan.Status == domain.LoanStatusPending {
				if err := s.releaseLoanCopy(ctx, loan); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// Return closes out a loan: stamps the return date, releases the copy and
// immediately reallocates it to the next queued hold, keeping return
// symmetric with the hold-release paths.
func (s *Service) Return(ctx context.Context, loanID uuid.UUID) error {
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		loan, err := s.loans.GetForUpdate(ctx, loanID)
		if err != nil {
			return err
		}
		if loan.ReturnDate != nil || loan.Status == domain.LoanStatusReturned {
			return domain.ErrAlreadyReturned
		}

		if err := s.releaseLoanCopy(ctx, loan); err != nil {
			return err
		}

		s.recordEvent(ctx, domain.CirculationEvent{
			Type:   domain.EventReturn,
			UserID: loan.UserID,
			CopyID: &loan.CopyID,
			LoanID: &loan.ID,
		})
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info("loan returned", slog.String("loan_id", loanID.String()))
	return nil
}

// releaseLoanCopy marks the loan returned, frees its copy and runs the
// allocator so a waiting hold picks the copy up in the same transaction.
func (s *Service) releaseLoanCopy(ctx context.Context, loan *domain.Loan) error {
	if err := s.loans.MarkReturned(ctx, loan.ID, s.clock.Now()); err != nil {
		return err
	}
	if _, err := s.copies.GetForUpdate(ctx, loan.CopyID); err != nil {
		return fmt.Errorf("lock copy: %w", err)
	}
	if err := s.copies.SetStatus(ctx, loan.CopyID, domain.CopyStatusAvailable); err != nil {
		return err
	}
	if _, err := s.AssignCopyToNextHold(ctx, loan.CopyID, nil); err != nil {
		return fmt.Errorf("reallocate returned copy: %w", err)
	}
	return nil
}
