package auth

import (
	"context"

	"github.com/google/uuid"

	"github.com/dmugisha/fundflow-backend/internal/domain"
)

type identityKey struct{}

// Identity is the authenticated caller attached to request contexts.
type Identity struct {
	UserID uuid.UUID
	Role   domain.UserRole
}

func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

func IdentityFromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

func UserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := IdentityFromContext(ctx)
	return id.UserID, ok
}

// IsAdmin reports whether the context carries an administrator identity.
func IsAdmin(ctx context.Context) bool {
	id, ok := IdentityFromContext(ctx)
	return ok && id.Role == domain.UserRoleAdmin
}
