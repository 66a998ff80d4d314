package httpx

import (
	"context"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

// authKey is an unexported context key type to avoid collisions across packages.
// Centralized in this file so all handlers/middleware use the same key.
type authKey struct{}

// Principal is what the auth middleware attaches to an authenticated request.
type Principal struct {
	Claims      *domainauth.Claims
	AccessToken string
	Role        domainauth.Role
	SessionID   string
}

// SetPrincipalInContext returns a child context that carries p.
// If p is nil, the original ctx is returned unchanged.
func SetPrincipalInContext(ctx context.Context, p *Principal) context.Context {
	if p == nil {
		return ctx
	}
	return context.WithValue(ctx, authKey{}, p)
}

// GetPrincipalFromContext returns the principal from context and a boolean indicating presence.
func GetPrincipalFromContext(ctx context.Context) (*Principal, bool) {
	if p, ok := ctx.Value(authKey{}).(*Principal); ok && p != nil {
		return p, true
	}
	return nil, false
}

// ClaimsFromContext returns the decoded access-token claims, or nil.
func ClaimsFromContext(ctx context.Context) *domainauth.Claims {
	if p, ok := GetPrincipalFromContext(ctx); ok {
		return p.Claims
	}
	return nil
}

// AccessTokenFromContext returns the raw access token, or "".
func AccessTokenFromContext(ctx context.Context) string {
	if p, ok := GetPrincipalFromContext(ctx); ok {
		return p.AccessToken
	}
	return ""
}

// IsGuestUser reports whether the current request context is unauthenticated or a guest.
func IsGuestUser(ctx context.Context) bool {
	p, ok := GetPrincipalFromContext(ctx)
	return !ok || p.Role == domainauth.RoleGuest
}
