package auth

import (
	"errors"
	"fmt"
)

// Provider error codes with special handling during code exchange.
const (
	CodeInvalidGrant       = "invalid_grant"
	CodeUnauthorizedClient = "unauthorized_client"
)

var (
	// ErrInvalidGrant is reported when the provider rejects a code or refresh token.
	ErrInvalidGrant = errors.New(CodeInvalidGrant)
	// ErrUnauthorizedClient means the deployed client credentials are wrong. It is fatal.
	ErrUnauthorizedClient = errors.New(CodeUnauthorizedClient)
	// ErrSessionNotFound is returned by session stores for unknown or expired ids.
	ErrSessionNotFound = errors.New("session not found")
	// ErrMissingVerifier means a callback arrived without a PKCE code verifier.
	ErrMissingVerifier = errors.New("missing pkce code verifier")
	// ErrMissingTempSession means a callback arrived without a temp session id.
	ErrMissingTempSession = errors.New("missing temp session")
)

// ProviderError is an OAuth2 error response from the identity provider.
// errors.Is matches ErrInvalidGrant and ErrUnauthorizedClient by Code.
type ProviderError struct {
	Code        string
	Description string
	Err         error
}

func (e *ProviderError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("oidc provider error %s: %s", e.Code, e.Description)
	}
	return "oidc provider error " + e.Code
}

func (e *ProviderError) Unwrap() error { return e.Err }

// Is reports whether target is the sentinel for this error's code.
func (e *ProviderError) Is(target error) bool {
	switch target {
	case ErrInvalidGrant:
		return e.Code == CodeInvalidGrant
	case ErrUnauthorizedClient:
		return e.Code == CodeUnauthorizedClient
	default:
		return false
	}
}

// IsFatal reports whether err must abort request handling instead of failing the authentication.
func IsFatal(err error) bool {
	return errors.Is(err, ErrUnauthorizedClient)
}

// DecodeError is returned when a token is not a well-formed compact JWT.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string { return fmt.Sprintf("decode token: %v", e.Err) }

func (e *DecodeError) Unwrap() error { return e.Err }
