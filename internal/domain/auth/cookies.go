package auth

import (
	"net/url"
	"strings"
)

// Cookie slot suffixes. Each slot is stored as "{prefix}_{slot}".
const (
	SlotAccessToken   = "access_token"
	SlotRefreshToken  = "refresh_token"
	SlotCodeVerifier  = "code_verifier"
	SlotTempSessionID = "temp_session_id"
	SlotAuthSessionID = "auth_session_id"
)

// DefaultRefreshTokenMaxAge is the refresh-token cookie lifetime (one year, in seconds).
// Providers do not report a refresh-token lifetime, so a fixed ceiling is used.
const DefaultRefreshTokenMaxAge = 365 * 24 * 60 * 60

// CodeVerifierMaxAge bounds the login round trip for the PKCE verifier cookie.
const CodeVerifierMaxAge = 10 * 60

// CookieNames holds the five prefix-qualified cookie names.
type CookieNames struct {
	AccessToken   string
	RefreshToken  string
	CodeVerifier  string
	TempSessionID string
	AuthSessionID string
}

// NewCookieNames derives the cookie names for prefix.
func NewCookieNames(prefix string) CookieNames {
	name := func(slot string) string { return prefix + "_" + slot }
	return CookieNames{
		AccessToken:   name(SlotAccessToken),
		RefreshToken:  name(SlotRefreshToken),
		CodeVerifier:  name(SlotCodeVerifier),
		TempSessionID: name(SlotTempSessionID),
		AuthSessionID: name(SlotAuthSessionID),
	}
}

// All returns every slot name, in a fixed order.
func (n CookieNames) All() []string {
	return []string{n.AccessToken, n.RefreshToken, n.CodeVerifier, n.AuthSessionID, n.TempSessionID}
}

// SameSite mirrors the cookie SameSite attribute.
type SameSite string

const (
	SameSiteLax    SameSite = "lax"
	SameSiteStrict SameSite = "strict"
	SameSiteNone   SameSite = "none"
)

// CookieSettings is the configurable part of the cookie attributes.
// Secure is not configurable; it follows the origin scheme.
type CookieSettings struct {
	Domain   string
	Path     string   // default "/"
	SameSite SameSite // default lax
	HTTPOnly *bool    // default true
}

// CookieOptions is the full attribute bundle passed to a cookie jar.
type CookieOptions struct {
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite SameSite
	// MaxAge in seconds. Nil means a session cookie; zero expires the cookie immediately.
	MaxAge *int
}

// NewCookieOptions derives cookie attributes from settings and the configured origin.
func NewCookieOptions(s CookieSettings, origin string) CookieOptions {
	opts := CookieOptions{
		Domain:   s.Domain,
		Path:     s.Path,
		Secure:   isHTTPSOrigin(origin),
		HTTPOnly: true,
		SameSite: s.SameSite,
	}
	if opts.Path == "" {
		opts.Path = "/"
	}
	if opts.SameSite == "" {
		opts.SameSite = SameSiteLax
	}
	if s.HTTPOnly != nil {
		opts.HTTPOnly = *s.HTTPOnly
	}
	return opts
}

// WithExpiry returns a copy of o with MaxAge set to maxAge seconds.
func (o CookieOptions) WithExpiry(maxAge int) CookieOptions {
	o.MaxAge = &maxAge
	return o
}

// Expired returns a copy of o that deletes the cookie.
func (o CookieOptions) Expired() CookieOptions {
	return o.WithExpiry(0)
}

func isHTTPSOrigin(origin string) bool {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Scheme, "https")
}
