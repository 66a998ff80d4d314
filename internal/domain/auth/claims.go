package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jmespath-community/go-jmespath"
)

// TenantAdminRole is the active-tenant role that grants tenant administration.
const TenantAdminRole = "tenant-admin"

// Tenant is a tenant membership record carried in the token.
type Tenant struct {
	TenantID   string   `json:"tenant_id"`
	TenantName string   `json:"tenant_name,omitempty"`
	Roles      []string `json:"roles,omitempty"`
}

// RealmAccess carries realm-wide roles.
type RealmAccess struct {
	Roles []string `json:"roles,omitempty"`
}

// Claims is the decoded payload of an access token.
// ActiveTenant, AllTenants and RealmAccess are not guaranteed by the provider.
type Claims struct {
	jwt.RegisteredClaims

	Name              string `json:"name,omitempty"`
	GivenName         string `json:"given_name,omitempty"`
	FamilyName        string `json:"family_name,omitempty"`
	PreferredUsername string `json:"preferred_username,omitempty"`
	Email             string `json:"email,omitempty"`
	EmailVerified     bool   `json:"email_verified,omitempty"`

	ActiveTenant *Tenant      `json:"active_tenant,omitempty"`
	AllTenants   []Tenant     `json:"all_tenants,omitempty"`
	RealmAccess  *RealmAccess `json:"realm_access,omitempty"`
}

// Decode parses the payload of a compact JWT without verifying its signature.
// Signature and expiry checks belong to the identity provider.
// The header is not inspected, so an absent or unknown alg does not matter.
func Decode(token string) (*Claims, error) {
	var claims Claims
	if err := decodePayload(token, &claims); err != nil {
		return nil, err
	}
	return &claims, nil
}

func decodePayload(token string, dst any) error {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return &DecodeError{Err: fmt.Errorf("token has %d segments, want 3", len(parts))}
	}
	payload, err := jwt.NewParser().DecodeSegment(parts[1])
	if err != nil {
		return &DecodeError{Err: fmt.Errorf("decode payload segment: %w", err)}
	}
	if err := json.Unmarshal(payload, dst); err != nil {
		return &DecodeError{Err: fmt.Errorf("parse payload: %w", err)}
	}
	return nil
}

// TenantIDs returns the ids of all tenants in source order.
func (c *Claims) TenantIDs() []string {
	if c == nil {
		return []string{}
	}
	ids := make([]string, 0, len(c.AllTenants))
	for _, t := range c.AllTenants {
		ids = append(ids, t.TenantID)
	}
	return ids
}

// ActiveTenantID returns the active tenant id and whether one is set.
func (c *Claims) ActiveTenantID() (string, bool) {
	if c == nil || c.ActiveTenant == nil || c.ActiveTenant.TenantID == "" {
		return "", false
	}
	return c.ActiveTenant.TenantID, true
}

// IsTenantAdmin reports whether the active tenant grants TenantAdminRole.
func (c *Claims) IsTenantAdmin() bool {
	if c == nil || c.ActiveTenant == nil {
		return false
	}
	return slices.Contains(c.ActiveTenant.Roles, TenantAdminRole)
}

// RealmRoles returns the realm roles, never nil.
func (c *Claims) RealmRoles() []string {
	if c == nil || c.RealmAccess == nil || c.RealmAccess.Roles == nil {
		return []string{}
	}
	return slices.Clone(c.RealmAccess.Roles)
}

// HasRealmRole reports whether role is among the realm roles.
func (c *Claims) HasRealmRole(role string) bool {
	return slices.Contains(c.RealmRoles(), role)
}

// The token helpers below are best-effort introspection: a token that cannot
// be decoded reads as one with no tenants and no roles.

// IsTenantAdmin reports whether the token's active tenant grants TenantAdminRole.
func IsTenantAdmin(token string) bool {
	c, _ := Decode(token)
	return c.IsTenantAdmin()
}

// GetTenantIDs returns the token's tenant ids in source order.
func GetTenantIDs(token string) []string {
	c, _ := Decode(token)
	return c.TenantIDs()
}

// GetActiveTenantID returns the token's active tenant id, if any.
func GetActiveTenantID(token string) (string, bool) {
	c, _ := Decode(token)
	return c.ActiveTenantID()
}

// GetRealmRoles returns the token's realm roles.
func GetRealmRoles(token string) []string {
	c, _ := Decode(token)
	return c.RealmRoles()
}

// HasRealmRole reports whether the token carries the realm role.
func HasRealmRole(token, role string) bool {
	c, _ := Decode(token)
	return c.HasRealmRole(role)
}

// QueryClaims evaluates a JMESPath expression against the raw token payload.
// Unlike the helpers above it surfaces decode and expression errors.
func QueryClaims(token, expression string) (any, error) {
	raw := map[string]any{}
	if err := decodePayload(token, &raw); err != nil {
		return nil, err
	}
	if expression == "" {
		return nil, errors.New("claim expression is required")
	}
	return jmespath.Search(expression, raw)
}

// Truthy reports whether a QueryClaims result should be treated as a match.
func Truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}
