package auth

// Package auth contains domain-level types for OIDC authentication and sessions.
// It is pure and free of framework/adapter concerns.

// Role represents an application's authorization role derived from token claims.
// Valid values are defined as constants below.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
	RoleGuest Role = "guest"
)

// Strategy names the session-backing strategy selected at startup.
type Strategy string

const (
	// StrategyCookie keeps the access and refresh tokens in browser cookies.
	StrategyCookie Strategy = "cookie"
	// StrategyStore keeps tokens in a server-side session store; cookies carry opaque ids only.
	StrategyStore Strategy = "store"
)

// TokenSet is the token response returned by the identity provider.
// It only lives for the duration of one authenticate call.
type TokenSet struct {
	AccessToken  string
	RefreshToken string // optional
	IDToken      string // optional
	ExpiresIn    int    // seconds; zero when the provider did not say
}

// Result is the outcome of an authentication decision.
// A zero Result is the failed outcome.
type Result struct {
	Authenticated bool
	Claims        *Claims
	AccessToken   string
	// SessionID is the auth-session id bound to the result (store strategy only).
	SessionID string
}

// Fail returns the unauthenticated result.
func Fail() Result { return Result{} }

// Success builds an authenticated result for the given access token.
// Decode errors degrade to a failed result.
func Success(accessToken string) (Result, error) {
	claims, err := Decode(accessToken)
	if err != nil {
		return Fail(), err
	}
	return Result{Authenticated: true, Claims: claims, AccessToken: accessToken}, nil
}

// Subject returns the principal id, or empty when unauthenticated.
func (r Result) Subject() string {
	if r.Claims == nil {
		return ""
	}
	return r.Claims.Subject
}
