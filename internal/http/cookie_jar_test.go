package httpx

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

func responseCookies(rec *httptest.ResponseRecorder) map[string]*http.Cookie {
	out := map[string]*http.Cookie{}
	for _, c := range rec.Result().Cookies() {
		out[c.Name] = c
	}
	return out
}

func TestCookieJar_GetReadsRequestCookies(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mmk_access_token", Value: "abc"})
	jar := NewCookieJar(httptest.NewRecorder(), req)

	v, ok := jar.Get("mmk_access_token")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = jar.Get("missing")
	assert.False(t, ok)
}

func TestCookieJar_SetWritesAttributes(t *testing.T) {
	rec := httptest.NewRecorder()
	jar := NewCookieJar(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	opts := domainauth.NewCookieOptions(domainauth.CookieSettings{
		Domain:   "example.com",
		SameSite: domainauth.SameSiteStrict,
	}, "https://app.example.com")
	jar.Set("mmk_refresh_token", "r1", opts.WithExpiry(3600))
	jar.Set("mmk_auth_session_id", "s1", opts)

	cookies := responseCookies(rec)
	refresh := cookies["mmk_refresh_token"]
	require.NotNil(t, refresh)
	assert.Equal(t, "r1", refresh.Value)
	assert.Equal(t, 3600, refresh.MaxAge)
	assert.Equal(t, "example.com", refresh.Domain)
	assert.Equal(t, "/", refresh.Path)
	assert.True(t, refresh.Secure)
	assert.True(t, refresh.HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, refresh.SameSite)

	session := cookies["mmk_auth_session_id"]
	require.NotNil(t, session)
	assert.Zero(t, session.MaxAge, "session cookie carries no Max-Age")

	v, ok := jar.Get("mmk_refresh_token")
	assert.True(t, ok)
	assert.Equal(t, "r1", v)
}

func TestCookieJar_DeleteExpiresCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "mmk_code_verifier", Value: "v"})
	rec := httptest.NewRecorder()
	jar := NewCookieJar(rec, req)

	jar.Delete("mmk_code_verifier", domainauth.NewCookieOptions(domainauth.CookieSettings{}, "http://localhost"))
	jar.Delete("never_set", domainauth.NewCookieOptions(domainauth.CookieSettings{}, "http://localhost"))

	c := responseCookies(rec)["mmk_code_verifier"]
	require.NotNil(t, c)
	assert.Empty(t, c.Value)
	assert.Equal(t, -1, c.MaxAge)
	assert.False(t, c.Secure)
	assert.Equal(t, http.SameSiteLaxMode, c.SameSite)

	_, ok := jar.Get("mmk_code_verifier")
	assert.False(t, ok, "deleted cookie must not be readable later in the request")
}
