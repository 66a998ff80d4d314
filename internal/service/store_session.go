package service

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/observability/metrics"
	"github.com/target/tenant-auth/internal/ports"
)

// CodeVerifierKey is the temp-session key holding the PKCE verifier.
const CodeVerifierKey = "code_verifier"

// StoreSession keeps tokens in a session data store; cookies carry only the
// temp-session and auth-session ids.
type StoreSession struct {
	session
	store ports.SessionStoreConnector
}

var _ Authenticator = (*StoreSession)(nil)

// NewStoreSession constructs the store-backed Authenticator.
func NewStoreSession(opts AuthenticatorOptions) (*StoreSession, error) {
	if opts.Store == nil {
		return nil, errors.New("session store is required for the store strategy")
	}
	s, err := newSession(domainauth.StrategyStore, opts)
	if err != nil {
		return nil, err
	}
	return &StoreSession{session: s, store: opts.Store}, nil
}

// Authenticate applies the first matching branch:
//  1. auth-session id cookie: load the access token from the store
//  2. callback URL: read the verifier from the temp session and exchange the code
//  3. otherwise fail
//
// The store connection is opened only when a branch needs it and is closed on every return.
func (s *StoreSession) Authenticate(
	ctx context.Context,
	jar ports.CookieJar,
	requestURL *url.URL,
) (res domainauth.Result, err error) {
	start := time.Now()
	branch := metrics.BranchNone
	defer func() { s.observe(branch, res, err, start) }()

	authID, hasAuth := jar.Get(s.names.AuthSessionID)

	switch {
	case hasAuth:
		branch = metrics.BranchSession
		return s.withStore(ctx, jar, func(conn ports.SessionStore) (domainauth.Result, error) {
			return s.resume(ctx, jar, conn, authID), nil
		})

	case domainauth.IsCallback(requestURL):
		branch = metrics.BranchCallback
		tempID, hasTemp := jar.Get(s.names.TempSessionID)
		if !hasTemp || tempID == "" {
			s.logger.ErrorContext(ctx, "callback without temp session", "error", domainauth.ErrMissingTempSession)
			return s.fail(jar), nil
		}
		return s.withStore(ctx, jar, func(conn ports.SessionStore) (domainauth.Result, error) {
			return s.callback(ctx, jar, conn, requestURL, tempID)
		})

	default:
		return s.fail(jar), nil
	}
}

// withStore opens a connection, runs fn, and always closes the connection.
// A store that cannot be reached is an ordinary failure.
func (s *StoreSession) withStore(
	ctx context.Context,
	jar ports.CookieJar,
	fn func(ports.SessionStore) (domainauth.Result, error),
) (domainauth.Result, error) {
	conn, err := s.store.Connect(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "connect session store", "error", err)
		return s.fail(jar), nil
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "close session store", "error", cerr)
		}
	}()
	return fn(conn)
}

func (s *StoreSession) resume(
	ctx context.Context,
	jar ports.CookieJar,
	conn ports.SessionStore,
	authID string,
) domainauth.Result {
	accessToken, err := conn.AuthSessionGetAccessToken(ctx, authID)
	if err != nil {
		if errors.Is(err, domainauth.ErrSessionNotFound) {
			s.logger.InfoContext(ctx, "auth session not found or expired")
		} else {
			s.logger.ErrorContext(ctx, "load auth session", "error", err)
		}
		return s.fail(jar)
	}
	return s.success(ctx, jar, accessToken, authID)
}

func (s *StoreSession) callback(
	ctx context.Context,
	jar ports.CookieJar,
	conn ports.SessionStore,
	requestURL *url.URL,
	tempID string,
) (domainauth.Result, error) {
	verifier, err := conn.TempSessionGet(ctx, tempID, CodeVerifierKey)
	if err != nil || verifier == "" {
		s.logger.ErrorContext(ctx, "read code verifier from temp session", "error", err)
		return s.fail(jar), nil
	}

	tokens, ok, err := s.exchange(ctx, requestURL, verifier)
	if err != nil {
		return domainauth.Fail(), err
	}
	if !ok {
		return s.fail(jar), nil
	}

	// Decode before persisting so an undecodable token leaves no orphaned session.
	if _, derr := domainauth.Decode(tokens.AccessToken); derr != nil {
		s.logger.WarnContext(ctx, "access token is not a decodable jwt", "error", derr)
		return s.fail(jar), nil
	}

	authID, err := conn.AuthSessionNew(ctx, tokens.AccessToken, tokens.RefreshToken)
	if err != nil {
		s.logger.ErrorContext(ctx, "create auth session", "error", err)
		return s.fail(jar), nil
	}
	return s.success(ctx, jar, tokens.AccessToken, authID), nil
}

// success re-affirms the auth-session cookie and drops the temp-session cookie.
func (s *StoreSession) success(ctx context.Context, jar ports.CookieJar, accessToken, authID string) domainauth.Result {
	res, err := domainauth.Success(accessToken)
	if err != nil {
		s.logger.WarnContext(ctx, "access token is not a decodable jwt", "error", err)
		return s.fail(jar)
	}
	jar.Set(s.names.AuthSessionID, authID, s.cookie)
	jar.Delete(s.names.TempSessionID, s.cookie.Expired())
	res.SessionID = authID
	return res
}

// BeginLogin creates a temp session holding a new PKCE verifier and points the
// temp-session cookie at it.
func (s *StoreSession) BeginLogin(ctx context.Context, jar ports.CookieJar, returnPath string) (string, error) {
	conn, err := s.store.Connect(ctx)
	if err != nil {
		return "", fmt.Errorf("connect session store: %w", err)
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "close session store", "error", cerr)
		}
	}()

	verifier := s.provider.GenerateVerifier()
	tempID, err := conn.TempSessionNew(ctx)
	if err != nil {
		return "", fmt.Errorf("create temp session: %w", err)
	}
	if err := conn.TempSessionSet(ctx, tempID, CodeVerifierKey, verifier); err != nil {
		return "", fmt.Errorf("store code verifier: %w", err)
	}

	authURL, err := s.authorizationURL(ctx, verifier, returnPath)
	if err != nil {
		return "", err
	}
	jar.Set(s.names.TempSessionID, tempID, s.cookie.WithExpiry(domainauth.CodeVerifierMaxAge))
	return authURL, nil
}

// DestroySession removes the auth session from the store, then expires its cookie.
// Store failures are logged; the cookie is cleared regardless.
func (s *StoreSession) DestroySession(ctx context.Context, jar ports.CookieJar) {
	if authID, ok := jar.Get(s.names.AuthSessionID); ok && authID != "" {
		s.destroy(ctx, authID)
	}
	jar.Delete(s.names.AuthSessionID, s.cookie.Expired())
}

func (s *StoreSession) destroy(ctx context.Context, authID string) {
	conn, err := s.store.Connect(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "connect session store for logout", "error", err)
		return
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			s.logger.WarnContext(ctx, "close session store", "error", cerr)
		}
	}()
	if err := conn.AuthSessionDestroy(ctx, authID); err != nil {
		s.logger.ErrorContext(ctx, "destroy auth session", "error", err)
	}
}

// Logout destroys the auth session, clears every session cookie, and returns
// the provider end-session URL or the local post-logout path.
func (s *StoreSession) Logout(ctx context.Context, jar ports.CookieJar) (string, error) {
	s.DestroySession(ctx, jar)
	s.clearAll(jar)
	return s.endSessionURL(ctx), nil
}
