package devauth

// Package devauth provides a config-driven OIDC provider for local development.
// It skips the real identity provider: the authorization URL points straight
// back at the app with a one-time code, and tokens are HS256 JWTs minted here.

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.OIDCProvider = (*Provider)(nil)

const (
	issuer       = "urn:tenant-auth:devauth"
	tokenUseKey  = "token_use"
	useAccess    = "access"
	useRefresh   = "refresh"
	codeLifetime = 5 * time.Minute
)

// Config controls the dev identity. Subject and Email are required.
type Config struct {
	Subject     string
	Email       string
	Name        string
	TenantID    string
	TenantName  string
	TenantRoles []string
	RealmRoles  []string

	AccessTokenTTL  time.Duration // default 15m
	RefreshTokenTTL time.Duration // default 8h

	// SigningKey signs minted tokens. A random key is generated when empty,
	// so tokens do not survive a restart.
	SigningKey []byte
}

type pendingCode struct {
	verifier string
	expires  time.Time
}

// Provider implements ports.OIDCProvider for local development.
type Provider struct {
	cfg   Config
	key   []byte
	now   func() time.Time
	mu    sync.Mutex
	codes map[string]pendingCode
}

// NewProvider constructs a dev auth provider from Config.
func NewProvider(cfg Config) (*Provider, error) {
	if cfg.Subject == "" {
		return nil, errors.New("dev auth: Subject is required")
	}
	if cfg.Email == "" {
		return nil, errors.New("dev auth: Email is required")
	}
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 15 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 8 * time.Hour
	}
	key := cfg.SigningKey
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			return nil, fmt.Errorf("dev auth: generate signing key: %w", err)
		}
	}
	return &Provider{cfg: cfg, key: key, now: time.Now, codes: make(map[string]pendingCode)}, nil
}

// GenerateVerifier returns a fresh PKCE code verifier.
func (p *Provider) GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthorizationURL returns the redirect URL itself, already carrying a one-time
// code, the derived state, and a session_state, as a real provider would after login.
func (p *Provider) AuthorizationURL(_ context.Context, in ports.AuthorizationInput) (string, error) {
	if in.RedirectURL == "" || in.CodeVerifier == "" {
		return "", errors.New("dev auth: redirect URL and code verifier are required")
	}
	u, err := url.Parse(in.RedirectURL)
	if err != nil {
		return "", fmt.Errorf("dev auth: parse redirect URL: %w", err)
	}

	code := uuid.NewString()
	p.mu.Lock()
	p.pruneLocked()
	p.codes[code] = pendingCode{verifier: in.CodeVerifier, expires: p.now().Add(codeLifetime)}
	p.mu.Unlock()

	q := u.Query()
	q.Set(domainauth.QueryCode, code)
	q.Set("state", domainauth.DeriveState(in.CodeVerifier))
	q.Set(domainauth.QuerySessionState, uuid.NewString())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// EndSessionURL returns "": there is no provider session to end.
func (p *Provider) EndSessionURL(context.Context, ports.EndSessionInput) (string, error) {
	return "", nil
}

// Exchange redeems a code issued by AuthorizationURL. Unknown, reused, or
// expired codes and verifier mismatches are reported as invalid_grant.
func (p *Provider) Exchange(_ context.Context, callbackURL, codeVerifier string) (domainauth.TokenSet, error) {
	if codeVerifier == "" {
		return domainauth.TokenSet{}, domainauth.ErrMissingVerifier
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return domainauth.TokenSet{}, fmt.Errorf("dev auth: parse callback URL: %w", err)
	}
	q := u.Query()
	if !domainauth.StateMatches(q.Get("state"), codeVerifier) {
		return domainauth.TokenSet{}, errors.New("dev auth: state mismatch")
	}

	code := q.Get(domainauth.QueryCode)
	p.mu.Lock()
	pending, ok := p.codes[code]
	delete(p.codes, code)
	p.mu.Unlock()

	if !ok || p.now().After(pending.expires) || !domainauth.EqualConstantTime(pending.verifier, codeVerifier) {
		return domainauth.TokenSet{}, &domainauth.ProviderError{
			Code:        domainauth.CodeInvalidGrant,
			Description: "unknown or expired authorization code",
		}
	}
	return p.mint()
}

// Refresh mints a new token set from a refresh token this provider issued.
func (p *Provider) Refresh(_ context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if _, err := p.parse(refreshToken, useRefresh); err != nil {
		return domainauth.TokenSet{}, &domainauth.ProviderError{
			Code:        domainauth.CodeInvalidGrant,
			Description: "refresh token rejected",
			Err:         err,
		}
	}
	return p.mint()
}

// Validate accepts unexpired access tokens signed by this provider.
func (p *Provider) Validate(_ context.Context, accessToken string) (bool, error) {
	if _, err := p.parse(accessToken, useAccess); err != nil {
		return false, nil
	}
	return true, nil
}

func (p *Provider) mint() (domainauth.TokenSet, error) {
	now := p.now()
	access, err := p.sign(p.accessClaims(now))
	if err != nil {
		return domainauth.TokenSet{}, err
	}
	refresh, err := p.sign(jwt.MapClaims{
		"iss":       issuer,
		"sub":       p.cfg.Subject,
		"iat":       now.Unix(),
		"exp":       now.Add(p.cfg.RefreshTokenTTL).Unix(),
		"jti":       uuid.NewString(),
		tokenUseKey: useRefresh,
	})
	if err != nil {
		return domainauth.TokenSet{}, err
	}
	return domainauth.TokenSet{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int(p.cfg.AccessTokenTTL.Seconds()),
	}, nil
}

func (p *Provider) accessClaims(now time.Time) jwt.MapClaims {
	claims := jwt.MapClaims{
		"iss":                issuer,
		"sub":                p.cfg.Subject,
		"email":              p.cfg.Email,
		"email_verified":     true,
		"preferred_username": p.cfg.Email,
		"iat":                now.Unix(),
		"exp":                now.Add(p.cfg.AccessTokenTTL).Unix(),
		"jti":                uuid.NewString(),
		tokenUseKey:          useAccess,
		"realm_access":       map[string]any{"roles": nonNil(p.cfg.RealmRoles)},
	}
	if p.cfg.Name != "" {
		claims["name"] = p.cfg.Name
	}
	if p.cfg.TenantID != "" {
		tenant := map[string]any{
			"tenant_id":   p.cfg.TenantID,
			"tenant_name": p.cfg.TenantName,
			"roles":       nonNil(p.cfg.TenantRoles),
		}
		claims["active_tenant"] = tenant
		claims["all_tenants"] = []any{tenant}
	}
	return claims
}

func (p *Provider) sign(claims jwt.MapClaims) (string, error) {
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.key)
	if err != nil {
		return "", fmt.Errorf("dev auth: sign token: %w", err)
	}
	return tok, nil
}

func (p *Provider) parse(raw, use string) (jwt.MapClaims, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) { return p.key, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(p.now),
	)
	if err != nil {
		return nil, err
	}
	if claims[tokenUseKey] != use {
		return nil, fmt.Errorf("dev auth: expected %s token", use)
	}
	return claims, nil
}

func (p *Provider) pruneLocked() {
	now := p.now()
	for code, pending := range p.codes {
		if now.After(pending.expires) {
			delete(p.codes, code)
		}
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
