package oidc

// Package oidc provides the OIDC/OAuth2 identity-provider adapter backed by go-oidc.

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"time"

	gooidc "github.com/coreos/go-oidc/v3/oidc"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
	"golang.org/x/oauth2"
)

var _ ports.OIDCProvider = (*Provider)(nil)

// Provider implements ports.OIDCProvider using OIDC discovery and OAuth2 with PKCE.
type Provider struct {
	config     *oauth2.Config
	httpClient *http.Client

	// go-oidc provider and verifier
	oidcProvider  *gooidc.Provider
	verifier      *gooidc.IDTokenVerifier
	endSessionURL string
}

// ProviderConfig holds configuration for the OIDC provider.
type ProviderConfig struct {
	IssuerURL    string
	ClientID     string
	ClientSecret string // optional for public clients
	Scope        string
	HTTPClient   *http.Client // Optional, defaults to a 30s client
}

// DiscoveryDocument represents the OIDC discovery document.
type DiscoveryDocument struct {
	Issuer                string `json:"issuer"`
	AuthorizationEndpoint string `json:"authorization_endpoint"`
	TokenEndpoint         string `json:"token_endpoint"`
	UserinfoEndpoint      string `json:"userinfo_endpoint"`
	JwksURI               string `json:"jwks_uri"`
	EndSessionEndpoint    string `json:"end_session_endpoint,omitempty"`
}

// NewProvider discovers the issuer and creates a new OIDC provider.
func NewProvider(ctx context.Context, config ProviderConfig) (*Provider, error) {
	if config.IssuerURL == "" {
		return nil, errors.New("issuer URL is required")
	}
	if config.ClientID == "" {
		return nil, errors.New("client ID is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}

	p := &Provider{httpClient: httpClient}

	// Single discovery fetch
	issuer := strings.TrimSuffix(config.IssuerURL, "/")
	issuer = strings.TrimSuffix(issuer, "/.well-known/openid-configuration")
	op, err := gooidc.NewProvider(gooidc.ClientContext(ctx, httpClient), issuer)
	if err != nil {
		return nil, fmt.Errorf("oidc new provider: %w", err)
	}
	p.oidcProvider = op
	p.verifier = op.Verifier(&gooidc.Config{ClientID: config.ClientID})

	var extra struct {
		EndSessionEndpoint string `json:"end_session_endpoint"`
	}
	if claimsErr := op.Claims(&extra); claimsErr != nil {
		return nil, fmt.Errorf("decode discovery document: %w", claimsErr)
	}
	p.endSessionURL = extra.EndSessionEndpoint

	scope := config.Scope
	if scope == "" {
		scope = "openid profile email"
	}
	p.config = &oauth2.Config{
		ClientID:     config.ClientID,
		ClientSecret: config.ClientSecret,
		Scopes:       strings.Fields(scope),
		Endpoint:     op.Endpoint(),
	}

	return p, nil
}

// GenerateVerifier returns a fresh PKCE code verifier.
func (p *Provider) GenerateVerifier() string {
	return oauth2.GenerateVerifier()
}

// AuthorizationURL builds the authorization URL with an S256 challenge.
// State and nonce are derived from the verifier so that Exchange can check them
// without storing anything besides the verifier.
func (p *Provider) AuthorizationURL(_ context.Context, in ports.AuthorizationInput) (string, error) {
	if in.RedirectURL == "" {
		return "", errors.New("redirect URL is required")
	}
	if in.CodeVerifier == "" {
		return "", errors.New("code verifier is required")
	}

	cfg := *p.config
	cfg.RedirectURL = in.RedirectURL
	return cfg.AuthCodeURL(domainauth.DeriveState(in.CodeVerifier),
		oauth2.S256ChallengeOption(in.CodeVerifier),
		oauth2.SetAuthURLParam("nonce", domainauth.DeriveNonce(in.CodeVerifier)),
	), nil
}

// EndSessionURL builds the RP-initiated logout URL. It returns "" when the
// provider does not advertise an end_session_endpoint.
func (p *Provider) EndSessionURL(_ context.Context, in ports.EndSessionInput) (string, error) {
	if p.endSessionURL == "" {
		return "", nil
	}
	u, err := url.Parse(p.endSessionURL)
	if err != nil {
		return "", fmt.Errorf("parse end session endpoint: %w", err)
	}
	q := u.Query()
	q.Set("client_id", p.config.ClientID)
	if in.PostLogoutRedirectURL != "" {
		q.Set("post_logout_redirect_uri", in.PostLogoutRedirectURL)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Exchange validates the callback state against the verifier and trades the code for tokens.
func (p *Provider) Exchange(ctx context.Context, callbackURL, codeVerifier string) (domainauth.TokenSet, error) {
	if codeVerifier == "" {
		return domainauth.TokenSet{}, domainauth.ErrMissingVerifier
	}
	u, err := url.Parse(callbackURL)
	if err != nil {
		return domainauth.TokenSet{}, fmt.Errorf("parse callback URL: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		return domainauth.TokenSet{}, &domainauth.ProviderError{Code: e, Description: q.Get("error_description")}
	}
	code := q.Get("code")
	if code == "" {
		return domainauth.TokenSet{}, errors.New("authorization code is required")
	}
	if !domainauth.StateMatches(q.Get("state"), codeVerifier) {
		return domainauth.TokenSet{}, errors.New("state mismatch")
	}

	// redirect_uri must match the authorization request, which never carries a query.
	redirect := *u
	redirect.RawQuery = ""
	redirect.Fragment = ""
	cfg := *p.config
	cfg.RedirectURL = redirect.String()

	token, err := cfg.Exchange(p.clientContext(ctx), code, oauth2.VerifierOption(codeVerifier))
	if err != nil {
		return domainauth.TokenSet{}, fmt.Errorf("exchange code for token: %w", mapTokenError(err))
	}

	set := tokenSet(token)
	if set.IDToken != "" {
		if verifyErr := p.verifyIDToken(ctx, set.IDToken, domainauth.DeriveNonce(codeVerifier)); verifyErr != nil {
			return domainauth.TokenSet{}, verifyErr
		}
	}
	return set, nil
}

// Refresh obtains a new token set using a refresh token.
func (p *Provider) Refresh(ctx context.Context, refreshToken string) (domainauth.TokenSet, error) {
	if refreshToken == "" {
		return domainauth.TokenSet{}, errors.New("refresh token is required")
	}
	src := p.config.TokenSource(p.clientContext(ctx), &oauth2.Token{RefreshToken: refreshToken})
	token, err := src.Token()
	if err != nil {
		return domainauth.TokenSet{}, fmt.Errorf("refresh token: %w", mapTokenError(err))
	}
	set := tokenSet(token)
	// Some providers omit the refresh token when it is not rotated.
	if set.RefreshToken == "" {
		set.RefreshToken = refreshToken
	}
	return set, nil
}

// Validate asks the userinfo endpoint whether the access token is still accepted.
func (p *Provider) Validate(ctx context.Context, accessToken string) (bool, error) {
	if accessToken == "" {
		return false, nil
	}
	_, err := p.oidcProvider.UserInfo(gooidc.ClientContext(ctx, p.httpClient),
		oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if err != nil {
		return false, fmt.Errorf("fetch user info: %w", err)
	}
	return true, nil
}

func (p *Provider) clientContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
}

func (p *Provider) verifyIDToken(ctx context.Context, rawIDToken, expectedNonce string) error {
	if !p.hasOpenIDScope() {
		return nil
	}
	idTok, err := p.verifier.Verify(gooidc.ClientContext(ctx, p.httpClient), rawIDToken)
	if err != nil {
		return fmt.Errorf("verify id_token: %w", err)
	}
	if !domainauth.EqualConstantTime(idTok.Nonce, expectedNonce) {
		return errors.New("invalid nonce")
	}
	return nil
}

// hasOpenIDScope reports whether the configured scopes include "openid".
func (p *Provider) hasOpenIDScope() bool {
	return slices.Contains(p.config.Scopes, "openid")
}

// tokenSet maps an oauth2 token to the domain token set.
func tokenSet(tok *oauth2.Token) domainauth.TokenSet {
	set := domainauth.TokenSet{
		AccessToken:  tok.AccessToken,
		RefreshToken: tok.RefreshToken,
		ExpiresIn:    int(tok.ExpiresIn),
	}
	if set.ExpiresIn == 0 && !tok.Expiry.IsZero() {
		set.ExpiresIn = max(int(time.Until(tok.Expiry).Seconds()), 0)
	}
	if raw, ok := tok.Extra("id_token").(string); ok {
		set.IDToken = raw
	}
	return set
}

// mapTokenError converts OAuth2 error responses into domain provider errors.
func mapTokenError(err error) error {
	var re *oauth2.RetrieveError
	if errors.As(err, &re) && re.ErrorCode != "" {
		return &domainauth.ProviderError{Code: re.ErrorCode, Description: re.ErrorDescription, Err: err}
	}
	return err
}
