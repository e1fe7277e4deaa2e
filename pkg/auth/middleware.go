package auth

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/coreos/go-oidc/v3/oidc"

	"github.com/ylk14/SmartPlant-sub000/pkg/handlers"
)

const (
	HeaderUserID    = "X-User-Id"
	HeaderUserRoles = "X-User-Roles"
)

// Resolver extracts a principal from a request.
type Resolver interface {
	Resolve(r *http.Request) (Principal, error)
}

// System resolves principals and guards routes with IsAdmin.
type System struct {
	resolver  Resolver
	adminRole string
	logger    *slog.Logger
}

// New creates an auth System. OIDC mode performs provider discovery using ctx.
func New(ctx context.Context, cfg *Config, logger *slog.Logger) (*System, error) {
	var resolver Resolver

	switch cfg.Mode {
	case ModeOIDC:
		provider, err := oidc.NewProvider(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("oidc discovery: %w", err)
		}
		resolver = &oidcResolver{
			verifier:   provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
			rolesClaim: cfg.RolesClaim,
		}
	case ModeHeader:
		logger.Warn("trusting identity headers from the upstream gateway")
		resolver = HeaderResolver{}
	default:
		return nil, fmt.Errorf("unsupported auth mode: %q", cfg.Mode)
	}

	return NewWithResolver(resolver, cfg.AdminRole, logger), nil
}

// NewWithResolver creates an auth System around an explicit resolver.
func NewWithResolver(resolver Resolver, adminRole string, logger *slog.Logger) *System {
	return &System{
		resolver:  resolver,
		adminRole: adminRole,
		logger:    logger.With("system", "auth"),
	}
}

// IsAdmin applies the package predicate with the configured admin role.
func (s *System) IsAdmin(p Principal) bool {
	return IsAdmin(p, s.adminRole)
}

// IsAdminRequest reports whether r carries an admin principal.
func (s *System) IsAdminRequest(r *http.Request) bool {
	p, ok := FromContext(r.Context())
	return ok && s.IsAdmin(p)
}

// Authenticate attaches the resolved principal to the request context.
// Requests without identity continue anonymously; guards decide access.
func (s *System) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, err := s.resolver.Resolve(r)
		if err != nil {
			handlers.RespondError(w, s.logger, http.StatusUnauthorized, err)
			return
		}
		if p.ID != "" {
			r = r.WithContext(WithPrincipal(r.Context(), p))
		}
		next.ServeHTTP(w, r)
	})
}

// RequireUser rejects anonymous requests.
func (s *System) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := FromContext(r.Context()); !ok {
			handlers.RespondError(w, s.logger, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireAdmin rejects requests whose principal fails IsAdmin.
func (s *System) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p, ok := FromContext(r.Context())
		if !ok {
			handlers.RespondError(w, s.logger, http.StatusUnauthorized, ErrUnauthenticated)
			return
		}
		if !s.IsAdmin(p) {
			handlers.RespondError(w, s.logger, http.StatusForbidden, ErrForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// HeaderResolver trusts identity headers injected by an upstream gateway.
type HeaderResolver struct{}

func (HeaderResolver) Resolve(r *http.Request) (Principal, error) {
	id := strings.TrimSpace(r.Header.Get(HeaderUserID))
	if id == "" {
		return Principal{}, nil
	}
	return Principal{ID: id, Roles: splitRoles(r.Header.Get(HeaderUserRoles))}, nil
}

type oidcResolver struct {
	verifier   *oidc.IDTokenVerifier
	rolesClaim string
}

func (o *oidcResolver) Resolve(r *http.Request) (Principal, error) {
	raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || raw == "" {
		return Principal{}, nil
	}

	token, err := o.verifier.Verify(r.Context(), raw)
	if err != nil {
		return Principal{}, fmt.Errorf("%w: %w", ErrUnauthenticated, err)
	}

	var claims map[string]any
	if err := token.Claims(&claims); err != nil {
		return Principal{}, fmt.Errorf("%w: decode claims: %w", ErrUnauthenticated, err)
	}

	return Principal{ID: token.Subject, Roles: claimRoles(claims[o.rolesClaim])}, nil
}

func claimRoles(v any) []string {
	switch roles := v.(type) {
	case []any:
		out := make([]string, 0, len(roles))
		for _, r := range roles {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		return splitRoles(roles)
	}
	return nil
}

func splitRoles(s string) []string {
	var roles []string
	for part := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			roles = append(roles, trimmed)
		}
	}
	return roles
}
