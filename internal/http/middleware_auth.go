package httpx

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/service"
)

// Auth binds an Authenticator to net/http middleware.
type Auth struct {
	Authenticator service.Authenticator // Required
	Roles         ports.RoleMapper      // Optional; nil maps every authenticated caller to RoleUser
	Fatal         FatalRenderer
	// LoginPath is where unauthenticated browser requests are sent. Default "/auth/login".
	LoginPath string
	Logger    *slog.Logger
}

func (a *Auth) logger() *slog.Logger {
	if a != nil && a.Logger != nil {
		return a.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (a *Auth) loginPath() string {
	if a.LoginPath == "" {
		return "/auth/login"
	}
	return a.LoginPath
}

// outcome is the result of running the authenticator for one request.
type outcome int

const (
	outcomeAuthenticated outcome = iota
	outcomeUnauthenticated
	// outcomeHandled means a response (fatal error or callback redirect) was already written.
	outcomeHandled
)

// authenticate runs the authenticator and, on success, returns a request carrying the principal.
// A successful callback is answered with a redirect to the same page minus the callback parameters.
func (a *Auth) authenticate(w http.ResponseWriter, r *http.Request) (*http.Request, outcome) {
	res, err := a.Authenticator.Authenticate(r.Context(), NewCookieJar(w, r), r.URL)
	if err != nil {
		a.Fatal.Render(w, r, err)
		return r, outcomeHandled
	}
	if !res.Authenticated {
		return r, outcomeUnauthenticated
	}
	if domainauth.IsCallback(r.URL) && r.Method == http.MethodGet {
		http.Redirect(w, r, domainauth.CleanCallbackURL(r.URL), http.StatusFound)
		return r, outcomeHandled
	}

	role := domainauth.RoleUser
	if a.Roles != nil {
		role = a.Roles.Map(res.Claims)
	}
	p := &Principal{Claims: res.Claims, AccessToken: res.AccessToken, Role: role, SessionID: res.SessionID}
	return r.WithContext(SetPrincipalInContext(r.Context(), p)), outcomeAuthenticated
}

// RequireAuth rejects unauthenticated requests. Browsers are redirected to the
// login path; API callers get a 401 JSON response.
func (a *Auth) RequireAuth(next http.Handler) http.Handler {
	return a.require(func(*Principal) error { return nil })(next)
}

// OptionalAuth attaches the principal when the caller is authenticated and
// otherwise lets the request through untouched.
func (a *Auth) OptionalAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r2, out := a.authenticate(w, r)
		if out == outcomeHandled {
			return
		}
		next.ServeHTTP(w, r2)
	})
}

// RequireTenantAdmin requires the tenant-admin role in the active tenant.
func (a *Auth) RequireTenantAdmin(next http.Handler) http.Handler {
	return a.require(func(p *Principal) error {
		if !p.Claims.IsTenantAdmin() {
			return errors.New("tenant admin role required")
		}
		return nil
	})(next)
}

// RequireRealmRole requires role among the realm roles.
func (a *Auth) RequireRealmRole(role string) func(http.Handler) http.Handler {
	return a.require(func(p *Principal) error {
		if !p.Claims.HasRealmRole(role) {
			return fmt.Errorf("realm role %q required", role)
		}
		return nil
	})
}

// RequireClaim requires a JMESPath expression over the token claims to be truthy,
// e.g. `active_tenant.tenant_id == 'acme'`.
func (a *Auth) RequireClaim(expression string) func(http.Handler) http.Handler {
	return a.require(func(p *Principal) error {
		v, err := domainauth.QueryClaims(p.AccessToken, expression)
		if err != nil {
			return fmt.Errorf("evaluate claim expression: %w", err)
		}
		if !domainauth.Truthy(v) {
			return errors.New("claim requirement not met")
		}
		return nil
	})
}

// RequireRole requires the mapped application role to be at least required.
// Role hierarchy: Guest < User < Admin.
func (a *Auth) RequireRole(required domainauth.Role) func(http.Handler) http.Handler {
	return a.require(func(p *Principal) error {
		if !hasRequiredRole(p.Role, required) {
			return errors.New("insufficient permissions")
		}
		return nil
	})
}

func (a *Auth) require(check func(*Principal) error) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r2, out := a.authenticate(w, r)
			switch out {
			case outcomeHandled:
				return
			case outcomeUnauthenticated:
				a.unauthenticated(w, r)
				return
			}

			p, _ := GetPrincipalFromContext(r2.Context())
			if err := check(p); err != nil {
				a.logger().InfoContext(r.Context(), "authorization denied",
					"path", r.URL.Path,
					"reason", err.Error(),
				)
				WriteError(w, ErrorParams{
					Code:    http.StatusForbidden,
					ErrCode: "insufficient_permissions",
					Err:     err,
				})
				return
			}
			next.ServeHTTP(w, r2)
		})
	}
}

func (a *Auth) unauthenticated(w http.ResponseWriter, r *http.Request) {
	if IsBrowserRequest(r) && r.Method == http.MethodGet {
		q := url.Values{}
		q.Set("redirect_uri", safeRedirectPath(domainauth.CleanCallbackURL(r.URL)))
		http.Redirect(w, r, a.loginPath()+"?"+q.Encode(), http.StatusSeeOther)
		return
	}
	WriteError(w, ErrorParams{
		Code:    http.StatusUnauthorized,
		ErrCode: "authentication_required",
		Err:     errors.New("authentication required"),
	})
}

// hasRequiredRole checks if the user's role meets the required role.
func hasRequiredRole(userRole, requiredRole domainauth.Role) bool {
	roleHierarchy := map[domainauth.Role]int{
		domainauth.RoleGuest: 0,
		domainauth.RoleUser:  1,
		domainauth.RoleAdmin: 2,
	}

	userLevel, userExists := roleHierarchy[userRole]
	requiredLevel, requiredExists := roleHierarchy[requiredRole]

	if !userExists || !requiredExists {
		return false
	}

	return userLevel >= requiredLevel
}

// IsBrowserRequest determines if a request is from a browser based on:
// 1. Path prefix - API routes start with /api/
// 2. Accept header - browsers typically accept text/html.
func IsBrowserRequest(r *http.Request) bool {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		return false
	}
	accept := r.Header.Get("Accept")
	if accept == "" {
		// No Accept header, assume browser for non-API routes
		return true
	}
	return strings.Contains(accept, "text/html")
}

// safeRedirectPath keeps redirects inside the application: only origin-relative
// paths are allowed and anything else collapses to "/".
func safeRedirectPath(raw string) string {
	if raw == "" {
		return "/"
	}
	u, err := url.Parse(raw)
	if err != nil || u.IsAbs() || u.Host != "" {
		return "/"
	}
	if !strings.HasPrefix(u.Path, "/") || strings.HasPrefix(u.Path, "//") || strings.Contains(u.Path, `\`) {
		return "/"
	}
	return u.RequestURI()
}
