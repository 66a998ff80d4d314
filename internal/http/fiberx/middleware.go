package fiberx

import (
	"errors"
	"log/slog"
	"net/url"

	"github.com/gofiber/fiber/v2"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	httpx "github.com/target/tenant-auth/internal/http"
	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/service"
)

const principalKey = "auth_principal"

// Options configures the Fiber auth middleware.
type Options struct {
	Roles  ports.RoleMapper // Optional
	IsDev  bool             // expose fatal error details
	Logger *slog.Logger     // Optional
}

// RequireAuth authenticates every request with a and rejects unauthenticated
// callers with 401. A successful callback is redirected to the same page
// without the callback parameters.
func RequireAuth(a service.Authenticator, opts Options) fiber.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return func(c *fiber.Ctx) error {
		requestURL, err := url.ParseRequestURI(c.OriginalURL())
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_request"})
		}

		res, err := a.Authenticate(c.UserContext(), NewCookieJar(c), requestURL)
		if err != nil {
			logger.ErrorContext(c.UserContext(), "fatal authentication error", "error", err, "path", c.Path())
			msg := "authentication is misconfigured; contact the administrator"
			if opts.IsDev {
				msg = err.Error()
			}
			code := "authentication_error"
			if errors.Is(err, domainauth.ErrUnauthorizedClient) {
				code = "unauthorized_client"
			}
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": code, "message": msg})
		}
		if !res.Authenticated {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "authentication_required",
				"message": "authentication required",
			})
		}
		if domainauth.IsCallback(requestURL) && c.Method() == fiber.MethodGet {
			return c.Redirect(domainauth.CleanCallbackURL(requestURL), fiber.StatusFound)
		}

		role := domainauth.RoleUser
		if opts.Roles != nil {
			role = opts.Roles.Map(res.Claims)
		}
		c.Locals(principalKey, &httpx.Principal{
			Claims:      res.Claims,
			AccessToken: res.AccessToken,
			Role:        role,
			SessionID:   res.SessionID,
		})
		return c.Next()
	}
}

// RequireTenantAdmin must run after RequireAuth.
func RequireTenantAdmin() fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, ok := PrincipalFrom(c)
		if !ok {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "authentication_required"})
		}
		if !p.Claims.IsTenantAdmin() {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "insufficient_permissions"})
		}
		return c.Next()
	}
}

// PrincipalFrom returns the principal stored by RequireAuth.
func PrincipalFrom(c *fiber.Ctx) (*httpx.Principal, bool) {
	p, ok := c.Locals(principalKey).(*httpx.Principal)
	return p, ok && p != nil
}
