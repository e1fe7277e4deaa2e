// Package auth resolves the calling principal and exposes the single
// authorization predicate shared by every API surface.
package auth

import (
	"context"
	"errors"
	"slices"
)

var (
	// ErrUnauthenticated indicates the request carried no usable identity.
	ErrUnauthenticated = errors.New("authentication required")
	// ErrForbidden indicates the principal lacks the admin role.
	ErrForbidden = errors.New("admin role required")
)

// Principal is the authenticated caller as reported by the identity provider.
type Principal struct {
	ID    string   `json:"id"`
	Roles []string `json:"roles"`
}

// IsAdmin is the one authorization predicate: a principal is an admin
// when it carries adminRole. Mobile and web surfaces both use it.
func IsAdmin(p Principal, adminRole string) bool {
	return p.ID != "" && slices.Contains(p.Roles, adminRole)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext returns the principal attached by Authenticate.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok && p.ID != ""
}
