// Package authroles maps token claims onto application roles.
package authroles

import (
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

var _ ports.RoleMapper = StaticRoleMapper{}

// StaticRoleMapper maps claims by simple membership rules:
// admin for the admin realm role or a tenant admin, user for the user realm
// role or any tenant membership, guest otherwise.
type StaticRoleMapper struct {
	AdminRealmRole string
	UserRealmRole  string
}

func (m StaticRoleMapper) Map(claims *domainauth.Claims) domainauth.Role {
	if claims == nil {
		return domainauth.RoleGuest
	}
	if claims.IsTenantAdmin() || (m.AdminRealmRole != "" && claims.HasRealmRole(m.AdminRealmRole)) {
		return domainauth.RoleAdmin
	}
	if (m.UserRealmRole != "" && claims.HasRealmRole(m.UserRealmRole)) || len(claims.TenantIDs()) > 0 {
		return domainauth.RoleUser
	}
	return domainauth.RoleGuest
}
