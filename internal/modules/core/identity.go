package core

import "context"

const IdentityContextKey contextKey = "identity"

// Identity is the authenticated caller attached to a request context.
type Identity struct {
	ParticipantID string
	Name          string
}

func WithIdentity(ctx context.Context, identity Identity) context.Context {
	return context.WithValue(ctx, IdentityContextKey, identity)
}

func IdentityFrom(ctx context.Context) (Identity, bool) {
	identity, ok := ctx.Value(IdentityContextKey).(Identity)
	if !ok || identity.ParticipantID == "" {
		return Identity{}, false
	}
	return identity, true
}
