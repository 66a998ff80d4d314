package service

import (
	"context"
	"net/url"
	"time"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/observability/metrics"
	"github.com/target/tenant-auth/internal/ports"
)

// CookieSession keeps the access and refresh tokens in browser cookies.
type CookieSession struct {
	session
}

var _ Authenticator = (*CookieSession)(nil)

// NewCookieSession constructs the cookie-backed Authenticator.
func NewCookieSession(opts AuthenticatorOptions) (*CookieSession, error) {
	s, err := newSession(domainauth.StrategyCookie, opts)
	if err != nil {
		return nil, err
	}
	return &CookieSession{session: s}, nil
}

// Authenticate applies the first matching branch:
//  1. access and refresh tokens: validate, falling through to refresh when invalid
//  2. refresh token only: refresh
//  3. no tokens and the URL is a callback: exchange the code using the verifier cookie
//  4. otherwise fail
func (s *CookieSession) Authenticate(
	ctx context.Context,
	jar ports.CookieJar,
	requestURL *url.URL,
) (res domainauth.Result, err error) {
	start := time.Now()
	branch := metrics.BranchNone
	defer func() { s.observe(branch, res, err, start) }()

	accessToken, hasAccess := jar.Get(s.names.AccessToken)
	refreshToken, hasRefresh := jar.Get(s.names.RefreshToken)
	verifier, hasVerifier := jar.Get(s.names.CodeVerifier)

	switch {
	case hasAccess && hasRefresh:
		branch = metrics.BranchValidate
		valid, verr := s.provider.Validate(ctx, accessToken)
		if verr != nil {
			s.logger.DebugContext(ctx, "access token validation errored", "error", verr)
		}
		if valid && verr == nil {
			return s.success(ctx, jar, domainauth.TokenSet{AccessToken: accessToken}), nil
		}
		branch = metrics.BranchRefresh
		return s.refresh(ctx, jar, refreshToken), nil

	case hasRefresh:
		branch = metrics.BranchRefresh
		return s.refresh(ctx, jar, refreshToken), nil

	case !hasAccess && domainauth.IsCallback(requestURL):
		branch = metrics.BranchCallback
		if !hasVerifier || verifier == "" {
			s.logger.ErrorContext(ctx, "callback without code verifier", "error", domainauth.ErrMissingVerifier)
			return s.fail(jar), nil
		}
		tokens, ok, xerr := s.exchange(ctx, requestURL, verifier)
		if xerr != nil {
			return domainauth.Fail(), xerr
		}
		if !ok {
			return s.fail(jar), nil
		}
		return s.success(ctx, jar, tokens), nil

	default:
		return s.fail(jar), nil
	}
}

func (s *CookieSession) refresh(ctx context.Context, jar ports.CookieJar, refreshToken string) domainauth.Result {
	tokens, err := s.provider.Refresh(ctx, refreshToken)
	if err != nil {
		s.logger.InfoContext(ctx, "token refresh failed", "error", err)
		return s.fail(jar)
	}
	return s.success(ctx, jar, tokens)
}

// success persists whatever the provider returned and always drops the single-use verifier.
// A token set with no expiry and no refresh token (a revalidated session) writes nothing.
func (s *CookieSession) success(ctx context.Context, jar ports.CookieJar, tokens domainauth.TokenSet) domainauth.Result {
	res, err := domainauth.Success(tokens.AccessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "access token is not a decodable jwt", "error", err)
		return s.fail(jar)
	}

	if tokens.ExpiresIn > 0 {
		jar.Set(s.names.AccessToken, tokens.AccessToken, s.cookie.WithExpiry(tokens.ExpiresIn))
	}
	if tokens.RefreshToken != "" {
		jar.Set(s.names.RefreshToken, tokens.RefreshToken, s.cookie.WithExpiry(s.refreshMaxAge))
	}
	jar.Delete(s.names.CodeVerifier, s.cookie.Expired())
	return res
}

// BeginLogin stores a new PKCE verifier in a short-lived cookie.
func (s *CookieSession) BeginLogin(ctx context.Context, jar ports.CookieJar, returnPath string) (string, error) {
	verifier := s.provider.GenerateVerifier()
	authURL, err := s.authorizationURL(ctx, verifier, returnPath)
	if err != nil {
		return "", err
	}
	jar.Set(s.names.CodeVerifier, verifier, s.cookie.WithExpiry(domainauth.CodeVerifierMaxAge))
	return authURL, nil
}

// Logout clears every session cookie and returns the provider end-session URL,
// or the local post-logout path when the provider has none.
func (s *CookieSession) Logout(ctx context.Context, jar ports.CookieJar) (string, error) {
	s.clearAll(jar)
	return s.endSessionURL(ctx), nil
}

