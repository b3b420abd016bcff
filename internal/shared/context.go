package shared

import "context"

// Identity describes the authenticated user as provided by the external auth
// layer. Only the resulting id/email/display name are consumed here.
type Identity struct {
	ID          string
	Email       string
	DisplayName string
}

type identityContextKey struct{}

// ContextWithIdentity stores the identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the identity from context. The zero Identity
// is returned for anonymous requests.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}
