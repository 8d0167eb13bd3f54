package auth

import (
	"context"

	"github.com/pressroom/pressroom/internal/model"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

const (
	// identityContextKey is the context key for storing the request identity.
	identityContextKey contextKey = "identity"
)

// ContextWithIdentity adds the resolved identity to the context.
func ContextWithIdentity(ctx context.Context, identity *model.Identity) context.Context {
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity from the context.
// Returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *model.Identity {
	identity, ok := ctx.Value(identityContextKey).(*model.Identity)
	if !ok {
		return nil
	}
	return identity
}

// UserIDFromContext is a convenience function to get the user ID from context.
// Returns empty string if not authenticated.
func UserIDFromContext(ctx context.Context) string {
	identity := IdentityFromContext(ctx)
	if identity == nil {
		return ""
	}
	return identity.ID
}
