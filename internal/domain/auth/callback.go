package auth

import (
	"net/url"
	"strings"
)

// Query parameters that identify an OIDC authorization-code callback.
const (
	QueryCode         = "code"
	QuerySessionState = "session_state"
)

// callbackParams are removed from the URL once a callback has been handled.
var callbackParams = []string{QueryCode, "state", QuerySessionState, "iss"}

// IsCallback reports whether u carries both a code and a session_state parameter.
// It checks presence only; state and nonce correlation happen during the exchange.
func IsCallback(u *url.URL) bool {
	if u == nil {
		return false
	}
	q := u.Query()
	return q.Has(QueryCode) && q.Has(QuerySessionState)
}

// CallbackURL rebuilds the request URL on the trusted origin.
// The scheme and host of the incoming request are never used.
func CallbackURL(origin string, u *url.URL) string {
	var b strings.Builder
	b.WriteString(strings.TrimSuffix(origin, "/"))
	if u == nil {
		return b.String()
	}
	path := u.EscapedPath()
	if !strings.HasPrefix(path, "/") {
		b.WriteByte('/')
	}
	b.WriteString(path)
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	return b.String()
}

// CleanCallbackURL returns the origin-relative path of u without the callback parameters.
func CleanCallbackURL(u *url.URL) string {
	if u == nil {
		return "/"
	}
	q := u.Query()
	for _, p := range callbackParams {
		q.Del(p)
	}
	clean := url.URL{Path: u.Path, RawQuery: q.Encode()}
	if clean.Path == "" {
		clean.Path = "/"
	}
	return clean.String()
}
