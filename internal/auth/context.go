package auth

import (
	"context"
	"strings"
)

type identityContextKey struct{}

// Identity is the resolved authenticated caller of a guarded operation.
type Identity struct {
	User *User
}

// Username returns the caller's username, or "" for a zero identity.
func (id Identity) Username() string {
	if id.User == nil {
		return ""
	}
	return id.User.Username
}

// Role returns the caller's role, or "" for a zero identity.
func (id Identity) Role() Role {
	if id.User == nil {
		return ""
	}
	return id.User.Role
}

// ContextWithIdentity attaches the authenticated identity to the context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	if id.User == nil {
		return ctx
	}
	return context.WithValue(ctx, identityContextKey{}, &id)
}

// IdentityFromContext extracts the authenticated identity from the context.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	if ctx == nil {
		return Identity{}, false
	}
	v, ok := ctx.Value(identityContextKey{}).(*Identity)
	if !ok || v == nil || v.User == nil {
		return Identity{}, false
	}
	return *v, true
}

// ActorFromContext returns the acting username for audit enrichment.
func ActorFromContext(ctx context.Context) (string, bool) {
	id, ok := IdentityFromContext(ctx)
	if !ok {
		return "", false
	}
	name := strings.TrimSpace(id.Username())
	if name == "" {
		return "", false
	}
	return name, true
}
