package ports

// Package ports defines interfaces (hexagonal ports) for auth-related behavior.
// Implementations live in internal/adapters; orchestration in internal/service.

import (
	"context"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

// AuthorizationInput carries inputs for building the provider authorization URL.
type AuthorizationInput struct {
	// RedirectURL is the absolute callback URL on the trusted origin.
	RedirectURL string
	// CodeVerifier is the PKCE verifier; the provider derives the S256 challenge from it.
	CodeVerifier string
}

// EndSessionInput carries inputs for building the provider logout URL.
type EndSessionInput struct {
	PostLogoutRedirectURL string
}

// OIDCProvider is the identity-provider capability consumed by the authenticators.
// Exchange must fail when the state or nonce in the callback does not match the verifier.
type OIDCProvider interface {
	// GenerateVerifier returns a fresh PKCE code verifier.
	GenerateVerifier() string

	// AuthorizationURL returns the URL that starts an authorization-code flow.
	AuthorizationURL(ctx context.Context, in AuthorizationInput) (string, error)

	// EndSessionURL returns the provider logout URL, or "" when the provider has none.
	EndSessionURL(ctx context.Context, in EndSessionInput) (string, error)

	// Exchange trades the code carried by callbackURL for tokens.
	Exchange(ctx context.Context, callbackURL, codeVerifier string) (domainauth.TokenSet, error)

	// Refresh obtains a new token set using a refresh token.
	Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error)

	// Validate reports whether the provider still accepts the access token.
	Validate(ctx context.Context, accessToken string) (bool, error)
}

// CookieJar is the per-request cookie transport.
// Delete must not fail when the cookie is absent.
type CookieJar interface {
	Get(name string) (string, bool)
	Set(name, value string, opts domainauth.CookieOptions)
	Delete(name string, opts domainauth.CookieOptions)
}

// SessionStore is a session data store (SDS) connection holding tokens server-side.
type SessionStore interface {
	TempSessionNew(ctx context.Context) (string, error)
	TempSessionSet(ctx context.Context, id, key, value string) error
	TempSessionGet(ctx context.Context, id, key string) (string, error)

	AuthSessionNew(ctx context.Context, accessToken, refreshToken string) (string, error)
	// AuthSessionGetAccessToken returns domainauth.ErrSessionNotFound for unknown or expired ids.
	AuthSessionGetAccessToken(ctx context.Context, id string) (string, error)
	AuthSessionDestroy(ctx context.Context, id string) error

	// Close releases the connection.
	Close() error
}

// SessionStoreConnector acquires SessionStore connections, one per request.
type SessionStoreConnector interface {
	Connect(ctx context.Context) (SessionStore, error)
}

// RoleMapper maps token claims to application roles.
type RoleMapper interface {
	Map(claims *domainauth.Claims) domainauth.Role
}
