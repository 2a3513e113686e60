package ctxutil

import (
	"context"

	"github.com/google/uuid"

	"github.com/openshelf/openshelf-backend/internal/domain"
)

// Principal is the authenticated caller supplied by the transport layer.
// EmployeeID is set only for staff principals.
type Principal struct {
	UserID     uuid.UUID
	Role       domain.UserRole
	EmployeeID *uuid.UUID
}

// IsStaff reports whether the principal may act with staff scope.
func (p Principal) IsStaff() bool { return p.Role == domain.UserRoleStaff }

type ctxKey string

const (
	principalKey ctxKey = "principal"
	requestIDKey ctxKey = "request_id"
)

// WithPrincipal stores the authenticated principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFromCtx extracts the principal from the context.
// Returns a zero Principal and false if absent or the user id is nil.
func PrincipalFromCtx(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	if !ok || p.UserID == uuid.Nil {
		return Principal{}, false
	}
	return p, true
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromCtx extracts the request ID from the context.
// Returns an empty string if absent.
func RequestIDFromCtx(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
