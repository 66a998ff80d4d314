package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"golang.org/x/net/publicsuffix"
)

// AuthMode represents the authentication mode for the application.
type AuthMode string

const (
	// AuthModeOIDC authenticates against a real OIDC identity provider.
	AuthModeOIDC AuthMode = "oidc"
	// AuthModeMock uses locally minted tokens (for development only).
	AuthModeMock AuthMode = "mock"
)

// UnmarshalText implements encoding.TextUnmarshaler for AuthMode.
func (a *AuthMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "oidc", "mock":
		*a = AuthMode(v)
		return nil
	default:
		return fmt.Errorf("invalid AuthMode: %q (valid options: oidc, mock)", v)
	}
}

// SessionStrategy selects where tokens are kept between requests.
type SessionStrategy string

const (
	StrategyCookie SessionStrategy = "cookie"
	StrategyStore  SessionStrategy = "store"
)

// UnmarshalText implements encoding.TextUnmarshaler for SessionStrategy.
func (s *SessionStrategy) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "cookie", "store":
		*s = SessionStrategy(v)
		return nil
	default:
		return fmt.Errorf("invalid SessionStrategy: %q (valid options: cookie, store)", v)
	}
}

// Domain maps the configured strategy onto the domain value.
func (s SessionStrategy) Domain() domainauth.Strategy {
	if s == StrategyStore {
		return domainauth.StrategyStore
	}
	return domainauth.StrategyCookie
}

// StoreBackend selects the session data store implementation.
type StoreBackend string

const (
	StoreBackendRedis    StoreBackend = "redis"
	StoreBackendPostgres StoreBackend = "postgres"
)

// UnmarshalText implements encoding.TextUnmarshaler for StoreBackend.
func (b *StoreBackend) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "redis", "postgres":
		*b = StoreBackend(v)
		return nil
	default:
		return fmt.Errorf("invalid StoreBackend: %q (valid options: redis, postgres)", v)
	}
}

// OIDCConfig contains the identity-provider client configuration.
type OIDCConfig struct {
	IssuerURL          string `env:"ISSUER_URL"`
	ClientID           string `env:"CLIENT_ID"`
	ClientSecret       string `env:"CLIENT_SECRET"`
	Scope              string `env:"SCOPE"                     envDefault:"openid profile email"`
	CallbackPath       string `env:"CALLBACK_PATH"             envDefault:"/auth/callback"`
	PostLogoutRedirect string `env:"POST_LOGOUT_REDIRECT_PATH" envDefault:"/"`
}

// CookieConfig contains the configurable cookie attributes. Secure is derived from APP_ORIGIN.
type CookieConfig struct {
	Prefix   string `env:"PREFIX"    envDefault:"mmk"`
	Domain   string `env:"DOMAIN"`
	Path     string `env:"PATH"      envDefault:"/"`
	SameSite string `env:"SAME_SITE" envDefault:"lax"`
	HTTPOnly bool   `env:"HTTP_ONLY" envDefault:"true"`
}

// DevAuthConfig controls the mock identity used when AUTH_MODE=mock.
type DevAuthConfig struct {
	Subject     string   `env:"SUBJECT"      envDefault:"dev-user"`
	Email       string   `env:"EMAIL"        envDefault:"dev@example.com"`
	Name        string   `env:"NAME"         envDefault:"Dev User"`
	TenantID    string   `env:"TENANT_ID"    envDefault:"dev-tenant"`
	TenantName  string   `env:"TENANT_NAME"  envDefault:"Development"`
	TenantRoles []string `env:"TENANT_ROLES" envDefault:"tenant-admin" envSeparator:";"`
	RealmRoles  []string `env:"REALM_ROLES"  envDefault:"user"         envSeparator:";"`
}

// AuthConfig groups all authentication-related configuration.
type AuthConfig struct {
	// Mode determines which identity provider to use.
	Mode AuthMode `env:"AUTH_MODE" envDefault:"oidc"`

	// Strategy selects cookie-held tokens or a server-side session store.
	Strategy SessionStrategy `env:"AUTH_SESSION_STRATEGY" envDefault:"cookie"`

	// StoreBackend selects the session store when Strategy=store.
	StoreBackend StoreBackend `env:"AUTH_SESSION_STORE_BACKEND" envDefault:"redis"`

	// Origin is the trusted scheme+host of the application; callback URLs are rebuilt from it.
	Origin string `env:"APP_ORIGIN"`

	OIDC    OIDCConfig    `envPrefix:"OIDC_"`
	Cookie  CookieConfig  `envPrefix:"AUTH_COOKIE_"`
	DevAuth DevAuthConfig `envPrefix:"DEV_AUTH_"`

	// RefreshTokenMaxAge is the refresh-token cookie lifetime in seconds.
	RefreshTokenMaxAge int `env:"AUTH_REFRESH_TOKEN_MAX_AGE" envDefault:"31536000"`

	// SessionEncryptionKey seals tokens held by the session store. A 64-character
	// hex string is used directly; anything else is hashed into a key.
	SessionEncryptionKey string `env:"AUTH_SESSION_ENCRYPTION_KEY"`

	TempSessionTTL time.Duration `env:"AUTH_TEMP_SESSION_TTL" envDefault:"10m"`
	SessionTTL     time.Duration `env:"AUTH_SESSION_TTL"      envDefault:"24h"`

	// AdminRealmRole and UserRealmRole map realm roles onto application roles.
	AdminRealmRole string `env:"AUTH_ADMIN_REALM_ROLE" envDefault:"admin"`
	UserRealmRole  string `env:"AUTH_USER_REALM_ROLE"  envDefault:"user"`
}

// Sanitize normalizes values and clamps durations.
func (a *AuthConfig) Sanitize() {
	a.Origin = strings.TrimSuffix(strings.TrimSpace(a.Origin), "/")
	a.OIDC.IssuerURL = strings.TrimSpace(a.OIDC.IssuerURL)
	a.Cookie.Domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(a.Cookie.Domain)), ".")
	a.Cookie.SameSite = strings.ToLower(strings.TrimSpace(a.Cookie.SameSite))
	if a.Cookie.Prefix == "" {
		a.Cookie.Prefix = "mmk"
	}
	if a.Cookie.Path == "" {
		a.Cookie.Path = "/"
	}
	if a.RefreshTokenMaxAge <= 0 {
		a.RefreshTokenMaxAge = domainauth.DefaultRefreshTokenMaxAge
	}
	if a.TempSessionTTL < time.Minute {
		a.TempSessionTTL = time.Minute
	}
	if a.SessionTTL < 5*time.Minute {
		a.SessionTTL = 5 * time.Minute
	}
	a.OIDC.CallbackPath = ensureLeadingSlash(a.OIDC.CallbackPath, "/auth/callback")
	a.OIDC.PostLogoutRedirect = ensureLeadingSlash(a.OIDC.PostLogoutRedirect, "/")
}

// Settings returns the required-settings view validated by ValidateAuthConfig.
func (a *AuthConfig) Settings() domainauth.Settings {
	return domainauth.Settings{IssuerURL: a.OIDC.IssuerURL, ClientID: a.OIDC.ClientID, Origin: a.Origin}
}

// ValidateAuthConfig returns the missing required keys among issuerUrl, clientId and origin.
// An empty list means valid.
func ValidateAuthConfig(a AuthConfig) []string {
	return domainauth.ValidateSettings(a.Settings())
}

// CookieSettings converts the cookie configuration into domain settings.
func (a *AuthConfig) CookieSettings() domainauth.CookieSettings {
	httpOnly := a.Cookie.HTTPOnly
	return domainauth.CookieSettings{
		Domain:   a.Cookie.Domain,
		Path:     a.Cookie.Path,
		SameSite: domainauth.SameSite(a.Cookie.SameSite),
		HTTPOnly: &httpOnly,
	}
}

// Validate checks the auth configuration for the selected mode.
func (a *AuthConfig) Validate() error {
	var errs []error

	missing := ValidateAuthConfig(*a)
	if a.Mode == AuthModeMock {
		// Mock mode never talks to an issuer.
		missing = without(missing, "issuerUrl", "clientId")
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required auth settings: %s", strings.Join(missing, ", ")))
	}

	if a.Origin != "" {
		u, err := url.Parse(a.Origin)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Errorf("APP_ORIGIN must be an absolute http(s) URL, got %q", a.Origin))
		}
	}

	switch domainauth.SameSite(a.Cookie.SameSite) {
	case domainauth.SameSiteLax, domainauth.SameSiteStrict:
	case domainauth.SameSiteNone:
		if !strings.HasPrefix(strings.ToLower(a.Origin), "https://") {
			errs = append(errs, errors.New("AUTH_COOKIE_SAME_SITE=none requires an https APP_ORIGIN"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid AUTH_COOKIE_SAME_SITE %q (valid options: lax, strict, none)", a.Cookie.SameSite))
	}

	if err := ValidateCookieDomain(a.Cookie.Domain); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateCookieDomain rejects cookie domains that are public suffixes (e.g. "co.uk"),
// which browsers refuse and which would otherwise leak cookies across sites.
func ValidateCookieDomain(domain string) error {
	domain = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(domain)), ".")
	if domain == "" || domain == "localhost" {
		return nil
	}
	if suffix, _ := publicsuffix.PublicSuffix(domain); suffix == domain {
		return fmt.Errorf("AUTH_COOKIE_DOMAIN %q is a public suffix", domain)
	}
	return nil
}

func ensureLeadingSlash(p, fallback string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return fallback
	}
	if !strings.HasPrefix(p, "/") {
		return "/" + p
	}
	return p
}

func without(list []string, drop ...string) []string {
	out := list[:0:0]
	for _, v := range list {
		skip := false
		for _, d := range drop {
			if v == d {
				skip = true
				break
			}
		}
		if !skip {
			out = append(out, v)
		}
	}
	return out
}
