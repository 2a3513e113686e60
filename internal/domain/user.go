package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is a library account. Accounts are managed elsewhere; circulation
// only reads the role to derive loan limits and policy category.
type User struct {
	ID        uuid.UUID
	Email     string
	Name      string
	Role      UserRole
	CreatedAt time.Time
	UpdatedAt time.Time
}
