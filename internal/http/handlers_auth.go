package httpx

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/service"
)

// AuthHandlers provides HTTP handlers for authentication operations.
type AuthHandlers struct {
	Authenticator service.Authenticator
	Roles         ports.RoleMapper
	Fatal         FatalRenderer
	// CallbackPath is the default return path handed to the provider. Default "/auth/callback".
	CallbackPath string
	Logger       *slog.Logger
}

func (h *AuthHandlers) logger() *slog.Logger {
	if h != nil && h.Logger != nil {
		return h.Logger
	}
	return slog.New(slog.DiscardHandler)
}

func (h *AuthHandlers) callbackPath() string {
	if h.CallbackPath == "" {
		return "/auth/callback"
	}
	return h.CallbackPath
}

// Login handles the login initiation endpoint.
// GET /auth/login?redirect_uri=<optional_redirect>.
//
// The provider sends the browser straight back to redirect_uri; the auth middleware
// on that page completes the callback.
func (h *AuthHandlers) Login(w http.ResponseWriter, r *http.Request) {
	returnPath := h.callbackPath()
	if raw := r.URL.Query().Get("redirect_uri"); raw != "" {
		// The provider appends its own query, so only the path survives.
		if u, err := url.Parse(safeRedirectPath(raw)); err == nil && u.Path != "/" {
			returnPath = u.Path
		}
	}

	authURL, err := h.Authenticator.BeginLogin(r.Context(), NewCookieJar(w, r), returnPath)
	if err != nil {
		h.logger().ErrorContext(r.Context(), "begin login failed", "error", err)
		WriteError(w, ErrorParams{
			Code:    http.StatusInternalServerError,
			ErrCode: "login_failed",
			Err:     errors.New("unable to start login"),
		})
		return
	}

	http.Redirect(w, r, authURL, http.StatusFound)
}

// Callback handles the default return path.
// GET /auth/callback?code=<code>&state=<state>&session_state=<session_state>.
func (h *AuthHandlers) Callback(w http.ResponseWriter, r *http.Request) {
	if !domainauth.IsCallback(r.URL) {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "missing_code",
			Err:     errors.New("code and session_state parameters are required"),
		})
		return
	}

	res, err := h.Authenticator.Authenticate(r.Context(), NewCookieJar(w, r), r.URL)
	if err != nil {
		h.Fatal.Render(w, r, err)
		return
	}
	if !res.Authenticated {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "login_completion_failed",
			Err:     errors.New("login could not be completed"),
		})
		return
	}

	h.logger().InfoContext(r.Context(), "login completed", "subject", res.Subject())
	http.Redirect(w, r, "/", http.StatusFound)
}

// Logout handles the logout endpoint.
// POST /auth/logout.
func (h *AuthHandlers) Logout(w http.ResponseWriter, r *http.Request) {
	target, err := h.Authenticator.Logout(r.Context(), NewCookieJar(w, r))
	if err != nil {
		h.logger().WarnContext(r.Context(), "logout failed", "error", err)
		target = "/"
	}

	// AJAX requests get a JSON payload; regular requests redirect
	isAJAX := strings.Contains(r.Header.Get("Accept"), "application/json") ||
		strings.EqualFold(r.Header.Get("X-Requested-With"), "XMLHttpRequest")
	if isAJAX {
		WriteJSON(w, http.StatusOK, map[string]string{
			"status":      "success",
			"redirect_to": target,
		})
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// Status returns the current authentication status.
// GET /auth/status.
func (h *AuthHandlers) Status(w http.ResponseWriter, r *http.Request) {
	res, err := h.Authenticator.Authenticate(r.Context(), NewCookieJar(w, r), r.URL)
	if err != nil {
		h.Fatal.Render(w, r, err)
		return
	}
	if !res.Authenticated {
		WriteJSON(w, http.StatusOK, map[string]any{"authenticated": false})
		return
	}

	role := domainauth.RoleUser
	if h.Roles != nil {
		role = h.Roles.Map(res.Claims)
	}
	WriteJSON(w, http.StatusOK, statusBody(res.Claims, role))
}

func statusBody(c *domainauth.Claims, role domainauth.Role) map[string]any {
	activeTenant, _ := c.ActiveTenantID()
	body := map[string]any{
		"authenticated": true,
		"user": map[string]any{
			"id":    c.Subject,
			"name":  c.Name,
			"email": c.Email,
			"role":  role,
		},
		"tenants":       c.TenantIDs(),
		"active_tenant": activeTenant,
		"tenant_admin":  c.IsTenantAdmin(),
		"realm_roles":   c.RealmRoles(),
	}
	if c.ExpiresAt != nil {
		body["expires_at"] = c.ExpiresAt.Time
	}
	return body
}

// Me returns the principal attached by the auth middleware.
// GET /api/me.
func Me(w http.ResponseWriter, r *http.Request) {
	p, ok := GetPrincipalFromContext(r.Context())
	if !ok {
		WriteError(w, ErrorParams{
			Code:    http.StatusUnauthorized,
			ErrCode: "authentication_required",
			Err:     errors.New("authentication required"),
		})
		return
	}
	WriteJSON(w, http.StatusOK, statusBody(p.Claims, p.Role))
}
