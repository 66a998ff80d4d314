package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/observability/metrics"
	"github.com/target/tenant-auth/internal/observability/statsd"
	"github.com/target/tenant-auth/internal/ports"
)

// Authenticator decides, per request, whether the caller is authenticated.
// CookieSession and StoreSession are the two implementations; one is chosen at startup.
type Authenticator interface {
	// Authenticate inspects the request cookies and URL and returns the outcome.
	// A non-nil error is a fatal misconfiguration and must abort the request.
	Authenticate(ctx context.Context, jar ports.CookieJar, requestURL *url.URL) (domainauth.Result, error)

	// BeginLogin stores a fresh PKCE verifier and returns the provider authorization URL.
	// returnPath is the origin-relative page the provider redirects back to.
	BeginLogin(ctx context.Context, jar ports.CookieJar, returnPath string) (string, error)

	// Logout clears the session and returns where the browser should go next.
	Logout(ctx context.Context, jar ports.CookieJar) (string, error)

	// Strategy names the session-backing strategy.
	Strategy() domainauth.Strategy
}

// AuthenticatorOptions groups dependencies shared by both session strategies.
type AuthenticatorOptions struct {
	Provider ports.OIDCProvider // Required
	Origin   string             // Required: trusted scheme+host, e.g. https://app.example.com

	// Store is required for StrategyStore and ignored otherwise.
	Store ports.SessionStoreConnector

	CookiePrefix string // default "mmk"
	Cookie       domainauth.CookieSettings

	// RefreshTokenMaxAge is the refresh-token cookie lifetime in seconds.
	// Zero means domainauth.DefaultRefreshTokenMaxAge.
	RefreshTokenMaxAge int

	// PostLogoutPath is used when the provider advertises no end-session endpoint. Default "/".
	PostLogoutPath string

	Logger  *slog.Logger // Optional
	Metrics statsd.Sink  // Optional
}

// NewAuthenticator builds the Authenticator for strategy.
func NewAuthenticator(strategy domainauth.Strategy, opts AuthenticatorOptions) (Authenticator, error) {
	switch strategy {
	case domainauth.StrategyCookie, "":
		return NewCookieSession(opts)
	case domainauth.StrategyStore:
		return NewStoreSession(opts)
	default:
		return nil, fmt.Errorf("unknown session strategy %q", strategy)
	}
}

// session holds what both strategies share: cookie naming, options, the provider, and telemetry.
type session struct {
	provider       ports.OIDCProvider
	origin         string
	names          domainauth.CookieNames
	cookie         domainauth.CookieOptions
	refreshMaxAge  int
	postLogoutPath string
	strategy       domainauth.Strategy
	logger         *slog.Logger
	metrics        statsd.Sink
}

func newSession(strategy domainauth.Strategy, opts AuthenticatorOptions) (session, error) {
	if opts.Provider == nil {
		return session{}, errors.New("OIDC provider is required")
	}
	if opts.Origin == "" {
		return session{}, errors.New("origin is required")
	}

	prefix := opts.CookiePrefix
	if prefix == "" {
		prefix = "mmk"
	}
	maxAge := opts.RefreshTokenMaxAge
	if maxAge <= 0 {
		maxAge = domainauth.DefaultRefreshTokenMaxAge
	}
	postLogout := opts.PostLogoutPath
	if postLogout == "" {
		postLogout = "/"
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	return session{
		provider:       opts.Provider,
		origin:         strings.TrimSuffix(opts.Origin, "/"),
		names:          domainauth.NewCookieNames(prefix),
		cookie:         domainauth.NewCookieOptions(opts.Cookie, opts.Origin),
		refreshMaxAge:  maxAge,
		postLogoutPath: postLogout,
		strategy:       strategy,
		logger:         logger.With("component", "authenticator", "strategy", string(strategy)),
		metrics:        opts.Metrics,
	}, nil
}

// Strategy names the session-backing strategy.
func (s *session) Strategy() domainauth.Strategy { return s.strategy }

// Names returns the cookie names in use.
func (s *session) Names() domainauth.CookieNames { return s.names }

// fail clears every slot, whichever strategy is active, and returns the failed result.
func (s *session) fail(jar ports.CookieJar) domainauth.Result {
	s.clearAll(jar)
	return domainauth.Fail()
}

func (s *session) clearAll(jar ports.CookieJar) {
	expired := s.cookie.Expired()
	for _, name := range s.names.All() {
		jar.Delete(name, expired)
	}
}

// exchange trades the callback code for tokens. A non-nil error is fatal; ok=false is an ordinary failure.
func (s *session) exchange(ctx context.Context, requestURL *url.URL, verifier string) (domainauth.TokenSet, bool, error) {
	callbackURL := domainauth.CallbackURL(s.origin, requestURL)
	tokens, err := s.provider.Exchange(ctx, callbackURL, verifier)
	switch {
	case err == nil:
		return tokens, true, nil
	case domainauth.IsFatal(err):
		s.logger.ErrorContext(ctx, "code exchange rejected client credentials", "error", err)
		return domainauth.TokenSet{}, false, fmt.Errorf("exchange authorization code: %w", err)
	case errors.Is(err, domainauth.ErrInvalidGrant):
		s.logger.WarnContext(ctx, "code exchange returned invalid_grant; check cookie domain and forwarding",
			"error", err)
	default:
		s.logger.ErrorContext(ctx, "code exchange failed", "error", err)
	}
	return domainauth.TokenSet{}, false, nil
}

func (s *session) authorizationURL(ctx context.Context, verifier, returnPath string) (string, error) {
	if returnPath == "" || !strings.HasPrefix(returnPath, "/") || strings.HasPrefix(returnPath, "//") {
		returnPath = "/"
	}
	redirect := domainauth.CallbackURL(s.origin, &url.URL{Path: returnPath})
	authURL, err := s.provider.AuthorizationURL(ctx, ports.AuthorizationInput{
		RedirectURL:  redirect,
		CodeVerifier: verifier,
	})
	if err != nil {
		return "", fmt.Errorf("build authorization url: %w", err)
	}
	return authURL, nil
}

func (s *session) endSessionURL(ctx context.Context) string {
	target, err := s.provider.EndSessionURL(ctx, ports.EndSessionInput{
		PostLogoutRedirectURL: domainauth.CallbackURL(s.origin, &url.URL{Path: s.postLogoutPath}),
	})
	if err != nil {
		s.logger.WarnContext(ctx, "build end session url", "error", err)
		return s.postLogoutPath
	}
	if target == "" {
		return s.postLogoutPath
	}
	return target
}

// observe emits the auth.authenticate metric for one decision.
func (s *session) observe(branch string, res domainauth.Result, err error, start time.Time) {
	result := metrics.ResultFail
	switch {
	case err != nil:
		result = metrics.ResultFatal
	case res.Authenticated:
		result = metrics.ResultSuccess
	}
	metrics.EmitAuthenticate(s.metrics, metrics.AuthMetric{
		Strategy: string(s.strategy),
		Branch:   branch,
		Result:   result,
		Duration: time.Since(start),
		Err:      err,
	})
}
