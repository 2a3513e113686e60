package testhelper

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/openshelf/openshelf-backend/internal/domain"
)

// uniqueSuffix returns a short unique string for generating non-conflicting test data.
func uniqueSuffix() string {
	return uuid.New().String()[:8]
}

// SeedUser creates a user with the given role. Returns a filled domain.User.
func SeedUser(t *testing.T, pool *pgxpool.Pool, role domain.UserRole) domain.User {
	t.Helper()
	ctx := context.Background()

	suffix := uniqueSuffix()
	now := time.Now().UTC().Truncate(time.Microsecond)
	user := domain.User{
		ID:        uuid.New(),
		Email:     "patron-" + suffix + "@example.edu",
		Name:      "Test Patron " + suffix,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO users (id, email, name, role, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		user.ID, user.Email, user.Name, string(user.Role), user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedUser insert user: %v", err)
	}

	return user
}

// SeedItem creates a bare catalog item (a book: no device or media asset row).
// Returns a filled domain.Item.
func SeedItem(t *testing.T, pool *pgxpool.Pool, title string) domain.Item {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	author := "Author " + uniqueSuffix()
	item := domain.Item{
		ID:        uuid.New(),
		Title:     title,
		Author:    &author,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO items (id, title, author, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		item.ID, item.Title, item.Author, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedItem insert item: %v", err)
	}

	return item
}

// SeedDeviceItem creates an item with a device asset row, making it a device
// regardless of any media asset.
func SeedDeviceItem(t *testing.T, pool *pgxpool.Pool, title string) domain.Item {
	t.Helper()
	ctx := context.Background()

	item := SeedItem(t, pool, title)

	_, err := pool.Exec(ctx,
		`INSERT INTO device_assets (item_id, model) VALUES ($1, $2)`,
		item.ID, "Model "+uniqueSuffix(),
	)
	if err != nil {
		t.Fatalf("testhelper: SeedDeviceItem insert device_asset: %v", err)
	}

	return item
}

// SeedMediaItem creates an item with a media asset row carrying the given raw
// kind string (e.g. "Blu-Ray", "cd").
func SeedMediaItem(t *testing.T, pool *pgxpool.Pool, title, rawKind string) domain.Item {
	t.Helper()
	ctx := context.Background()

	item := SeedItem(t, pool, title)

	_, err := pool.Exec(ctx,
		`INSERT INTO media_assets (item_id, kind) VALUES ($1, $2)`,
		item.ID, rawKind,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedMediaItem insert media_asset: %v", err)
	}

	return item
}

// SeedCopy creates a copy of the given item in the given status with a unique
// barcode. Returns a filled domain.Copy.
func SeedCopy(t *testing.T, pool *pgxpool.Pool, itemID uuid.UUID, status domain.CopyStatus) domain.Copy {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	c := domain.Copy{
		ID:        uuid.New(),
		ItemID:    itemID,
		Barcode:   "BC-" + uniqueSuffix(),
		Status:    status,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO copies (id, item_id, barcode, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.ItemID, c.Barcode, string(c.Status), c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedCopy insert copy: %v", err)
	}

	return c
}

// SeedHold creates a queued hold at the given queue position.
// Returns a filled domain.Hold.
func SeedHold(t *testing.T, pool *pgxpool.Pool, userID, itemID uuid.UUID, position int) domain.Hold {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	h := domain.Hold{
		ID:            uuid.New(),
		UserID:        userID,
		ItemID:        itemID,
		Status:        domain.HoldStatusQueued,
		QueuePosition: position,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO holds (id, user_id, item_id, status, queue_position, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		h.ID, h.UserID, h.ItemID, string(h.Status), h.QueuePosition, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedHold insert hold: %v", err)
	}

	return h
}

// SeedReadyHold creates a ready hold pinned to the given copy with the given
// pickup deadline. Returns a filled domain.Hold.
func SeedReadyHold(t *testing.T, pool *pgxpool.Pool, userID, itemID, copyID uuid.UUID, position int, expiresAt time.Time) domain.Hold {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	h := domain.Hold{
		ID:             uuid.New(),
		UserID:         userID,
		ItemID:         itemID,
		CopyID:         &copyID,
		Status:         domain.HoldStatusReady,
		QueuePosition:  position,
		AvailableSince: &now,
		ExpiresAt:      &expiresAt,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO holds (id, user_id, item_id, copy_id, status, queue_position, available_since, expires_at, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		h.ID, h.UserID, h.ItemID, h.CopyID, string(h.Status), h.QueuePosition, h.AvailableSince, h.ExpiresAt, h.CreatedAt, h.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedReadyHold insert hold: %v", err)
	}

	return h
}

// SeedLoan creates a loan in the given status with the given due date and a
// full policy snapshot from config-style defaults. Returns a filled domain.Loan.
func SeedLoan(t *testing.T, pool *pgxpool.Pool, userID, copyID uuid.UUID, status domain.LoanStatus, dueDate time.Time) domain.Loan {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	snap := domain.PolicySnapshot{
		DailyRate:      decimal.RequireFromString("0.50"),
		GraceDays:      2,
		MaxFine:        decimal.RequireFromString("25.00"),
		ReplacementFee: decimal.RequireFromString("45.00"),
	}
	l := domain.Loan{
		ID:           uuid.New(),
		UserID:       userID,
		CopyID:       copyID,
		Status:       status,
		CheckoutDate: now,
		DueDate:      dueDate,
		Snapshot:     &snap,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO loans (id, user_id, copy_id, status, checkout_date, due_date,
		        daily_rate_snapshot, grace_days_snapshot, max_fine_snapshot, replacement_fee_snapshot,
		        created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		l.ID, l.UserID, l.CopyID, string(l.Status), l.CheckoutDate, l.DueDate,
		snap.DailyRate, snap.GraceDays, snap.MaxFine, snap.ReplacementFee,
		l.CreatedAt, l.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedLoan insert loan: %v", err)
	}

	return l
}

// SeedFine creates a fine against the given loan. Returns a filled domain.Fine.
func SeedFine(t *testing.T, pool *pgxpool.Pool, loanID, userID uuid.UUID, reason domain.FineReason, status domain.FineStatus, amount string) domain.Fine {
	t.Helper()
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	f := domain.Fine{
		ID:             uuid.New(),
		LoanID:         loanID,
		UserID:         userID,
		Reason:         reason,
		Status:         status,
		AmountAssessed: decimal.RequireFromString(amount),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO fines (id, loan_id, user_id, reason, status, amount_assessed, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		f.ID, f.LoanID, f.UserID, string(f.Reason), string(f.Status), f.AmountAssessed, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedFine insert fine: %v", err)
	}

	return f
}

// SeedReservation creates a room reservation for the given window.
// Returns a filled domain.RoomReservation.
func SeedReservation(t *testing.T, pool *pgxpool.Pool, userID uuid.UUID, startsAt, endsAt time.Time) domain.RoomReservation {
	t.Helper()
	ctx := context.Background()

	r := domain.RoomReservation{
		ID:       uuid.New(),
		UserID:   userID,
		RoomName: "Room " + uniqueSuffix(),
		StartsAt: startsAt,
		EndsAt:   endsAt,
	}

	_, err := pool.Exec(ctx,
		`INSERT INTO room_reservations (id, user_id, room_name, starts_at, ends_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.UserID, r.RoomName, r.StartsAt, r.EndsAt,
	)
	if err != nil {
		t.Fatalf("testhelper: SeedReservation insert reservation: %v", err)
	}

	return r
}
