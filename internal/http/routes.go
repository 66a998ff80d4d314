package httpx

import (
	"log/slog"
	"net/http"

	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Authenticator service.Authenticator
	Roles         ports.RoleMapper
	CallbackPath  string
	IsDev         bool         // Development mode exposes fatal error details
	Logger        *slog.Logger // Logger for HTTP errors (optional)
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fatal := FatalRenderer{IsDev: services.IsDev, Logger: logger}

	mux := http.NewServeMux()
	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	if services.Authenticator != nil {
		authHandlers := &AuthHandlers{
			Authenticator: services.Authenticator,
			Roles:         services.Roles,
			Fatal:         fatal,
			CallbackPath:  services.CallbackPath,
			Logger:        logger,
		}
		mw := &Auth{
			Authenticator: services.Authenticator,
			Roles:         services.Roles,
			Fatal:         fatal,
			Logger:        logger,
		}
		registerAuthRoutes(mux, authHandlers)
		registerAPIRoutes(mux, mw)
	}

	return Chain(mux, Recover(logger), Logging(logger))
}

func registerAuthRoutes(mux *http.ServeMux, h *AuthHandlers) {
	mux.HandleFunc("GET /auth/login", h.Login)
	mux.HandleFunc("GET "+h.callbackPath(), h.Callback)
	mux.HandleFunc("POST /auth/logout", h.Logout)
	mux.HandleFunc("GET /auth/status", h.Status)
}

func registerAPIRoutes(mux *http.ServeMux, a *Auth) {
	mux.Handle("GET /api/me", a.RequireAuth(http.HandlerFunc(Me)))
	mux.Handle("GET /api/tenant/admin", a.RequireTenantAdmin(http.HandlerFunc(Me)))
}
