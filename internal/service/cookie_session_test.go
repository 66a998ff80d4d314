package service

import (
	"context"
	"encoding/base64"
	"errors"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/mocks"
	authmocks "github.com/target/tenant-auth/internal/mocks/auth"
	"github.com/target/tenant-auth/internal/observability/statsd"
	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/testutil"
	"go.uber.org/mock/gomock"
)

const testOrigin = "https://app.example.com"

var names = domainauth.NewCookieNames("mmk")

func newCookieSession(t *testing.T, provider *mocks.MockOIDCProvider, sink statsd.Sink) *CookieSession {
	t.Helper()
	s, err := NewCookieSession(AuthenticatorOptions{
		Provider: provider,
		Origin:   testOrigin,
		Metrics:  sink,
	})
	require.NoError(t, err)
	return s
}

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func assertAllCleared(t *testing.T, jar *authmocks.MemoryCookieJar) {
	t.Helper()
	for _, name := range names.All() {
		w, ok := jar.LastWrite(name)
		require.True(t, ok, "expected %s to be cleared", name)
		assert.True(t, w.Deleted, "expected %s to be deleted", name)
		require.NotNil(t, w.Options.MaxAge)
		assert.Equal(t, 0, *w.Options.MaxAge)
	}
}

func TestNewCookieSession_Validation(t *testing.T) {
	_, err := NewCookieSession(AuthenticatorOptions{Origin: testOrigin})
	require.Error(t, err)

	ctrl := gomock.NewController(t)
	_, err = NewCookieSession(AuthenticatorOptions{Provider: mocks.NewMockOIDCProvider(ctrl)})
	require.Error(t, err)
}

func TestCookieSession_ValidTokensAreNotRewritten(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	access := testutil.TenantToken(t, "user-1", "t1", "tenant-admin")

	provider.EXPECT().Validate(gomock.Any(), access).Return(true, nil)

	sink := &statsd.Recorder{}
	s := newCookieSession(t, provider, sink)
	jar := authmocks.NewMemoryCookieJar(map[string]string{
		names.AccessToken:  access,
		names.RefreshToken: "refresh-1",
	})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/home"))
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	assert.Equal(t, "user-1", res.Subject())
	assert.Equal(t, access, res.AccessToken)
	assert.True(t, res.Claims.IsTenantAdmin())

	assert.Zero(t, jar.SetCount(names.AccessToken))
	assert.Zero(t, jar.SetCount(names.RefreshToken))
	w, ok := jar.LastWrite(names.CodeVerifier)
	require.True(t, ok)
	assert.True(t, w.Deleted)

	got := sink.Named("auth.authenticate")
	require.Len(t, got, 1)
	assert.Equal(t, map[string]string{"strategy": "cookie", "branch": "validate", "result": "success"}, got[0].Tags)
}

func TestCookieSession_InvalidAccessFallsThroughToRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	oldAccess := testutil.TenantToken(t, "user-1", "t1")
	newAccess := testutil.TenantToken(t, "user-2", "t2")

	gomock.InOrder(
		provider.EXPECT().Validate(gomock.Any(), oldAccess).Return(false, nil),
		provider.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(domainauth.TokenSet{
			AccessToken:  newAccess,
			RefreshToken: "refresh-2",
			ExpiresIn:    300,
		}, nil),
	)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{
		names.AccessToken:  oldAccess,
		names.RefreshToken: "refresh-1",
	})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/"))
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	assert.Equal(t, "user-2", res.Subject())

	w, ok := jar.LastWrite(names.AccessToken)
	require.True(t, ok)
	assert.Equal(t, newAccess, w.Value)
	assert.Equal(t, 300, *w.Options.MaxAge)

	w, ok = jar.LastWrite(names.RefreshToken)
	require.True(t, ok)
	assert.Equal(t, "refresh-2", w.Value)
	assert.Equal(t, 31536000, *w.Options.MaxAge)
}

func TestCookieSession_ValidateErrorFallsThroughToRefresh(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)

	provider.EXPECT().Validate(gomock.Any(), "access").Return(false, errors.New("timeout"))
	provider.EXPECT().Refresh(gomock.Any(), "refresh").Return(domainauth.TokenSet{}, errors.New("network"))

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{
		names.AccessToken:  "access",
		names.RefreshToken: "refresh",
	})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/"))
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
	assertAllCleared(t, jar)
}

func TestCookieSession_RefreshOnly(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	access := testutil.TenantToken(t, "user-3", "t1")

	provider.EXPECT().Refresh(gomock.Any(), "refresh-1").Times(1).Return(domainauth.TokenSet{
		AccessToken:  access,
		RefreshToken: "refresh-2",
		ExpiresIn:    60,
	}, nil)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{names.RefreshToken: "refresh-1"})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/"))
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	assert.Equal(t, "user-3", res.Subject())

	w, _ := jar.LastWrite(names.RefreshToken)
	assert.Equal(t, domainauth.DefaultRefreshTokenMaxAge, *w.Options.MaxAge)
	assert.False(t, jar.Has(names.CodeVerifier))
}

func TestCookieSession_RefreshedTokenWithoutAlgSucceeds(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	enc := base64.RawURLEncoding
	access := enc.EncodeToString([]byte(`{"typ":"JWT"}`)) + "." +
		enc.EncodeToString([]byte(`{"sub":"user-4","active_tenant":{"tenant_id":"t1"}}`)) + ".sig"

	provider.EXPECT().Refresh(gomock.Any(), "refresh-1").Return(domainauth.TokenSet{
		AccessToken: access,
		ExpiresIn:   60,
	}, nil)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{names.RefreshToken: "refresh-1"})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/"))
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	assert.Equal(t, "user-4", res.Subject())
	assert.True(t, jar.Has(names.AccessToken))
}

func TestCookieSession_RefreshRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	provider.EXPECT().Refresh(gomock.Any(), "stale").
		Return(domainauth.TokenSet{}, &domainauth.ProviderError{Code: domainauth.CodeInvalidGrant})

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{names.RefreshToken: "stale"})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/"))
	require.NoError(t, err)
	assert.Equal(t, domainauth.Fail(), res)
	assertAllCleared(t, jar)
}

func TestCookieSession_CallbackExchangesWithTrustedOrigin(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	access := testutil.TenantToken(t, "user-4", "t9")

	provider.EXPECT().
		Exchange(gomock.Any(), "https://app.example.com/dash?code=abc&session_state=xyz&state=s", "verifier-1").
		Return(domainauth.TokenSet{AccessToken: access, RefreshToken: "refresh", ExpiresIn: 120}, nil)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{names.CodeVerifier: "verifier-1"})

	// Scheme and host of the incoming request must not leak into the exchange.
	u := mustURL(t, "http://evil.example.net/dash?code=abc&session_state=xyz&state=s")
	res, err := s.Authenticate(context.Background(), jar, u)
	require.NoError(t, err)
	require.True(t, res.Authenticated)
	assert.Equal(t, "user-4", res.Subject())

	assert.False(t, jar.Has(names.CodeVerifier))
	assert.True(t, jar.Has(names.AccessToken))
	assert.True(t, jar.Has(names.RefreshToken))
}

func TestCookieSession_CallbackWithoutVerifierSkipsExchange(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	provider.EXPECT().Exchange(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(nil)

	res, err := s.Authenticate(context.Background(), jar,
		mustURL(t, "https://app.example.com/?code=abc&session_state=xyz"))
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
	assertAllCleared(t, jar)
}

func TestCookieSession_CallbackErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantFatal bool
	}{
		{"unauthorized_client is fatal", &domainauth.ProviderError{Code: domainauth.CodeUnauthorizedClient}, true},
		{"invalid_grant fails", &domainauth.ProviderError{Code: domainauth.CodeInvalidGrant}, false},
		{"other provider error fails", &domainauth.ProviderError{Code: "server_error"}, false},
		{"network error fails", errors.New("dial tcp: refused"), false},
		{"state mismatch fails", errors.New("state mismatch"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			provider := mocks.NewMockOIDCProvider(ctrl)
			provider.EXPECT().Exchange(gomock.Any(), gomock.Any(), "v").Return(domainauth.TokenSet{}, tt.err)

			sink := &statsd.Recorder{}
			s := newCookieSession(t, provider, sink)
			jar := authmocks.NewMemoryCookieJar(map[string]string{names.CodeVerifier: "v"})

			res, err := s.Authenticate(context.Background(), jar,
				mustURL(t, "https://app.example.com/?code=c&session_state=s"))
			assert.False(t, res.Authenticated)

			got := sink.Named("auth.authenticate")
			require.Len(t, got, 1)
			if tt.wantFatal {
				require.Error(t, err)
				assert.ErrorIs(t, err, domainauth.ErrUnauthorizedClient)
				assert.Equal(t, "fatal", got[0].Tags["result"])
				return
			}
			require.NoError(t, err)
			assertAllCleared(t, jar)
			assert.Equal(t, "fail", got[0].Tags["result"])
			assert.Equal(t, "callback", got[0].Tags["branch"])
		})
	}
}

func TestCookieSession_TokensTakePrecedenceOverCallback(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	access := testutil.TenantToken(t, "user-5", "t1")

	provider.EXPECT().Validate(gomock.Any(), access).Return(true, nil)
	provider.EXPECT().Exchange(gomock.Any(), gomock.Any(), gomock.Any()).Times(0)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{
		names.AccessToken:  access,
		names.RefreshToken: "r",
		names.CodeVerifier: "v",
	})

	res, err := s.Authenticate(context.Background(), jar,
		mustURL(t, "https://app.example.com/?code=c&session_state=s"))
	require.NoError(t, err)
	assert.True(t, res.Authenticated)
}

func TestCookieSession_NoCredentialsFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)

	s := newCookieSession(t, provider, nil)
	for _, cookies := range []map[string]string{
		nil,
		{names.AccessToken: "only-access"},
		{names.CodeVerifier: "v"},
	} {
		jar := authmocks.NewMemoryCookieJar(cookies)
		res, err := s.Authenticate(context.Background(), jar,
			mustURL(t, "https://app.example.com/?code=c"))
		require.NoError(t, err)
		assert.False(t, res.Authenticated)
		assertAllCleared(t, jar)
	}
}

func TestCookieSession_UndecodableTokenFails(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	provider.EXPECT().Refresh(gomock.Any(), "r").
		Return(domainauth.TokenSet{AccessToken: "opaque", ExpiresIn: 60}, nil)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{names.RefreshToken: "r"})

	res, err := s.Authenticate(context.Background(), jar, mustURL(t, "https://app.example.com/"))
	require.NoError(t, err)
	assert.False(t, res.Authenticated)
	assertAllCleared(t, jar)
}

func TestCookieSession_BeginLogin(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)

	provider.EXPECT().GenerateVerifier().Return("verifier-9")
	provider.EXPECT().AuthorizationURL(gomock.Any(), ports.AuthorizationInput{
		RedirectURL:  "https://app.example.com/reports",
		CodeVerifier: "verifier-9",
	}).Return("https://idp/authorize?x=1", nil)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(nil)

	authURL, err := s.BeginLogin(context.Background(), jar, "/reports")
	require.NoError(t, err)
	assert.Equal(t, "https://idp/authorize?x=1", authURL)

	w, ok := jar.LastWrite(names.CodeVerifier)
	require.True(t, ok)
	assert.Equal(t, "verifier-9", w.Value)
	assert.Equal(t, domainauth.CodeVerifierMaxAge, *w.Options.MaxAge)
	assert.True(t, w.Options.Secure)
}

func TestCookieSession_Logout(t *testing.T) {
	ctrl := gomock.NewController(t)
	provider := mocks.NewMockOIDCProvider(ctrl)
	provider.EXPECT().EndSessionURL(gomock.Any(), gomock.Any()).Return("", nil)

	s := newCookieSession(t, provider, nil)
	jar := authmocks.NewMemoryCookieJar(map[string]string{names.AccessToken: "a", names.RefreshToken: "r"})

	target, err := s.Logout(context.Background(), jar)
	require.NoError(t, err)
	assert.Equal(t, "/", target)
	assertAllCleared(t, jar)
}
