package service

import "context"

// Identity is the authenticated caller of a request.
type Identity struct {
	UserID uint
	Email  string
}

// Valid reports whether the identity refers to a user.
func (i Identity) Valid() bool {
	return i.UserID != 0
}

type identityKey struct{}

// ContextWithIdentity returns a copy of ctx carrying ident.
func ContextWithIdentity(ctx context.Context, ident Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, ident)
}

// IdentityFromContext returns the identity stored by ContextWithIdentity.
func IdentityFromContext(ctx context.Context) (Identity, bool) {
	ident, ok := ctx.Value(identityKey{}).(Identity)
	return ident, ok && ident.Valid()
}

func requireIdentity(ident Identity) error {
	if !ident.Valid() {
		return newError(ErrUnauthorized, "Unauthorized", nil)
	}
	return nil
}
