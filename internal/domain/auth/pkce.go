package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
)

// DeriveState returns the OAuth2 state bound to a PKCE verifier.
// Binding state and nonce to the verifier lets the callback be checked with
// nothing stored besides the verifier itself.
func DeriveState(verifier string) string { return derive("state", verifier) }

// DeriveNonce returns the OIDC nonce bound to a PKCE verifier.
func DeriveNonce(verifier string) string { return derive("nonce", verifier) }

// StateMatches reports, in constant time, whether state was derived from verifier.
func StateMatches(state, verifier string) bool {
	return EqualConstantTime(state, DeriveState(verifier))
}

// EqualConstantTime compares two strings without leaking timing.
func EqualConstantTime(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}

func derive(purpose, verifier string) string {
	sum := sha256.Sum256([]byte(purpose + ":" + verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
