package httpx

import (
	"errors"
	"log/slog"
	"net/http"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

// FatalRenderer writes the response for a fatal authentication error
// (the provider rejected the client credentials).
type FatalRenderer struct {
	IsDev  bool
	Logger *slog.Logger
}

// Render writes a 500. The underlying error is only exposed in development.
func (f FatalRenderer) Render(w http.ResponseWriter, r *http.Request, err error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	logger.ErrorContext(r.Context(), "fatal authentication error",
		"error", err,
		"path", r.URL.Path,
	)

	errCode := "authentication_error"
	if errors.Is(err, domainauth.ErrUnauthorizedClient) {
		errCode = "unauthorized_client"
	}
	msg := errors.New("authentication is misconfigured; contact the administrator")
	if f.IsDev {
		msg = err
	}
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: errCode, Err: msg})
}
