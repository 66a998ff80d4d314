package oidc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

// fakeIdP serves discovery, token and userinfo endpoints.
type fakeIdP struct {
	server        *httptest.Server
	endSession    bool
	tokenRequests atomic.Int32
	lastForm      url.Values
}

func newFakeIdP(t *testing.T, endSession bool) *fakeIdP {
	t.Helper()
	f := &fakeIdP{endSession: endSession}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /.well-known/openid-configuration", func(w http.ResponseWriter, _ *http.Request) {
		doc := DiscoveryDocument{
			Issuer:                f.server.URL,
			AuthorizationEndpoint: f.server.URL + "/auth",
			TokenEndpoint:         f.server.URL + "/token",
			UserinfoEndpoint:      f.server.URL + "/userinfo",
			JwksURI:               f.server.URL + "/jwks",
		}
		if f.endSession {
			doc.EndSessionEndpoint = f.server.URL + "/logout"
		}
		_ = json.NewEncoder(w).Encode(doc)
	})
	mux.HandleFunc("POST /token", f.token)
	mux.HandleFunc("GET /userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer good-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"user-1"}`))
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIdP) token(w http.ResponseWriter, r *http.Request) {
	f.tokenRequests.Add(1)
	_ = r.ParseForm()
	f.lastForm = r.PostForm
	w.Header().Set("Content-Type", "application/json")

	writeErr := func(status int, code string) {
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": code, "error_description": code + " test"})
	}

	switch r.PostForm.Get("grant_type") {
	case "authorization_code":
		switch r.PostForm.Get("code") {
		case "good-code":
			_ = json.NewEncoder(w).Encode(map[string]any{
				"access_token": "new-access", "refresh_token": "new-refresh",
				"token_type": "Bearer", "expires_in": 300,
			})
		case "unauthorized":
			writeErr(http.StatusUnauthorized, "unauthorized_client")
		default:
			writeErr(http.StatusBadRequest, "invalid_grant")
		}
	case "refresh_token":
		if r.PostForm.Get("refresh_token") != "good-refresh" {
			writeErr(http.StatusBadRequest, "invalid_grant")
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "refreshed-access", "token_type": "Bearer", "expires_in": 120,
		})
	default:
		writeErr(http.StatusBadRequest, "unsupported_grant_type")
	}
}

func createTestProvider(t *testing.T, endSession bool) (*Provider, *fakeIdP) {
	t.Helper()
	idp := newFakeIdP(t, endSession)
	provider, err := NewProvider(context.Background(), ProviderConfig{
		IssuerURL:    idp.server.URL,
		ClientID:     "test-client",
		ClientSecret: "test-secret",
		Scope:        "openid profile email",
	})
	require.NoError(t, err)
	return provider, idp
}

// callbackFor builds a callback URL carrying the state AuthorizationURL would have sent.
func callbackFor(t *testing.T, p *Provider, verifier, code string) string {
	t.Helper()
	authURL, err := p.AuthorizationURL(context.Background(), ports.AuthorizationInput{
		RedirectURL:  "https://app.example.com/dashboard",
		CodeVerifier: verifier,
	})
	require.NoError(t, err)
	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := url.Values{}
	q.Set("code", code)
	q.Set("state", u.Query().Get("state"))
	q.Set("session_state", "ss-1")
	return "https://app.example.com/dashboard?" + q.Encode()
}

func TestNewProvider_ValidationErrors(t *testing.T) {
	tests := []struct {
		name   string
		config ProviderConfig
		errMsg string
	}{
		{name: "missing issuer", config: ProviderConfig{ClientID: "client"}, errMsg: "issuer URL is required"},
		{name: "missing client ID", config: ProviderConfig{IssuerURL: "http://example.com"}, errMsg: "client ID is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewProvider(context.Background(), tt.config)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestNewProvider_DiscoveryFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	defer srv.Close()

	_, err := NewProvider(context.Background(), ProviderConfig{IssuerURL: srv.URL, ClientID: "c"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "oidc new provider")
}

func TestProvider_AuthorizationURL(t *testing.T) {
	provider, idp := createTestProvider(t, false)
	verifier := provider.GenerateVerifier()

	authURL, err := provider.AuthorizationURL(context.Background(), ports.AuthorizationInput{
		RedirectURL:  "https://app.example.com/reports",
		CodeVerifier: verifier,
	})
	require.NoError(t, err)

	u, err := url.Parse(authURL)
	require.NoError(t, err)
	q := u.Query()
	assert.True(t, strings.HasPrefix(authURL, idp.server.URL+"/auth"))
	assert.Equal(t, "test-client", q.Get("client_id"))
	assert.Equal(t, "https://app.example.com/reports", q.Get("redirect_uri"))
	assert.Equal(t, "S256", q.Get("code_challenge_method"))
	assert.NotEmpty(t, q.Get("code_challenge"))
	assert.NotEqual(t, verifier, q.Get("code_challenge"))
	assert.Equal(t, domainauth.DeriveState(verifier), q.Get("state"))
	assert.Equal(t, domainauth.DeriveNonce(verifier), q.Get("nonce"))
}

func TestProvider_AuthorizationURL_Validation(t *testing.T) {
	provider, _ := createTestProvider(t, false)

	_, err := provider.AuthorizationURL(context.Background(), ports.AuthorizationInput{CodeVerifier: "v"})
	require.Error(t, err)
	_, err = provider.AuthorizationURL(context.Background(), ports.AuthorizationInput{RedirectURL: "https://a"})
	require.Error(t, err)
}

func TestProvider_Exchange_Success(t *testing.T) {
	provider, idp := createTestProvider(t, false)
	verifier := provider.GenerateVerifier()

	set, err := provider.Exchange(context.Background(), callbackFor(t, provider, verifier, "good-code"), verifier)
	require.NoError(t, err)

	assert.Equal(t, "new-access", set.AccessToken)
	assert.Equal(t, "new-refresh", set.RefreshToken)
	assert.InDelta(t, 300, set.ExpiresIn, 2)
	assert.Equal(t, verifier, idp.lastForm.Get("code_verifier"))
	assert.Equal(t, "https://app.example.com/dashboard", idp.lastForm.Get("redirect_uri"))
}

func TestProvider_Exchange_Errors(t *testing.T) {
	provider, _ := createTestProvider(t, false)
	verifier := provider.GenerateVerifier()
	ctx := context.Background()

	t.Run("invalid grant", func(t *testing.T) {
		_, err := provider.Exchange(ctx, callbackFor(t, provider, verifier, "expired"), verifier)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainauth.ErrInvalidGrant)
		assert.False(t, domainauth.IsFatal(err))
	})

	t.Run("unauthorized client", func(t *testing.T) {
		_, err := provider.Exchange(ctx, callbackFor(t, provider, verifier, "unauthorized"), verifier)
		require.Error(t, err)
		assert.ErrorIs(t, err, domainauth.ErrUnauthorizedClient)
		var perr *domainauth.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "unauthorized_client", perr.Code)
	})

	t.Run("state mismatch", func(t *testing.T) {
		other := provider.GenerateVerifier()
		_, err := provider.Exchange(ctx, callbackFor(t, provider, other, "good-code"), verifier)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "state mismatch")
	})

	t.Run("missing verifier", func(t *testing.T) {
		_, err := provider.Exchange(ctx, callbackFor(t, provider, verifier, "good-code"), "")
		assert.ErrorIs(t, err, domainauth.ErrMissingVerifier)
	})

	t.Run("provider error in callback", func(t *testing.T) {
		_, err := provider.Exchange(ctx, "https://app.example.com/?error=access_denied&session_state=x", verifier)
		var perr *domainauth.ProviderError
		require.True(t, errors.As(err, &perr))
		assert.Equal(t, "access_denied", perr.Code)
	})
}

func TestProvider_Refresh(t *testing.T) {
	provider, _ := createTestProvider(t, false)
	ctx := context.Background()

	set, err := provider.Refresh(ctx, "good-refresh")
	require.NoError(t, err)
	assert.Equal(t, "refreshed-access", set.AccessToken)
	assert.Equal(t, "good-refresh", set.RefreshToken, "unrotated refresh token is carried over")

	_, err = provider.Refresh(ctx, "revoked")
	require.Error(t, err)
	assert.ErrorIs(t, err, domainauth.ErrInvalidGrant)

	_, err = provider.Refresh(ctx, "")
	require.Error(t, err)
}

func TestProvider_Validate(t *testing.T) {
	provider, _ := createTestProvider(t, false)
	ctx := context.Background()

	ok, err := provider.Validate(ctx, "good-access")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = provider.Validate(ctx, "stale-access")
	require.Error(t, err)
	assert.False(t, ok)

	ok, err = provider.Validate(ctx, "")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestProvider_EndSessionURL(t *testing.T) {
	provider, idp := createTestProvider(t, true)

	logoutURL, err := provider.EndSessionURL(context.Background(), ports.EndSessionInput{
		PostLogoutRedirectURL: "https://app.example.com/",
	})
	require.NoError(t, err)

	u, err := url.Parse(logoutURL)
	require.NoError(t, err)
	assert.Equal(t, idp.server.URL+"/logout", u.Scheme+"://"+u.Host+u.Path)
	assert.Equal(t, "test-client", u.Query().Get("client_id"))
	assert.Equal(t, "https://app.example.com/", u.Query().Get("post_logout_redirect_uri"))
}

func TestProvider_EndSessionURL_NotAdvertised(t *testing.T) {
	provider, _ := createTestProvider(t, false)

	logoutURL, err := provider.EndSessionURL(context.Background(), ports.EndSessionInput{})
	require.NoError(t, err)
	assert.Empty(t, logoutURL)
}
