package shared

import "context"

// Identity is the caller identity attached to every request. Partner is
// the tenant scope all upstream queries and image access are restricted
// to; Actor is the display label used when the upstream does not return
// an approver name.
type Identity struct {
	Partner string
	Actor   string
}

// Valid reports whether the identity carries a partner scope.
func (id Identity) Valid() bool {
	return id.Partner != ""
}

type sessionContextKey struct{}

type identityContextKey struct{}

// ContextWithSession stores the session in context.
func ContextWithSession(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// SessionFromContext extracts the session from context.
func SessionFromContext(ctx context.Context) *Session {
	sess, _ := ctx.Value(sessionContextKey{}).(*Session)
	return sess
}

// ContextWithIdentity stores the caller identity in context.
func ContextWithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityContextKey{}, id)
}

// IdentityFromContext extracts the caller identity from context.
func IdentityFromContext(ctx context.Context) Identity {
	id, _ := ctx.Value(identityContextKey{}).(Identity)
	return id
}
