package authroles

import (
	"testing"

	"github.com/stretchr/testify/assert"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

func TestStaticRoleMapper_Map(t *testing.T) {
	m := StaticRoleMapper{AdminRealmRole: "platform-admin", UserRealmRole: "user"}

	tests := []struct {
		name   string
		claims *domainauth.Claims
		want   domainauth.Role
	}{
		{"nil claims", nil, domainauth.RoleGuest},
		{"no roles", &domainauth.Claims{}, domainauth.RoleGuest},
		{
			"tenant admin",
			&domainauth.Claims{ActiveTenant: &domainauth.Tenant{TenantID: "t1", Roles: []string{domainauth.TenantAdminRole}}},
			domainauth.RoleAdmin,
		},
		{
			"realm admin",
			&domainauth.Claims{RealmAccess: &domainauth.RealmAccess{Roles: []string{"platform-admin"}}},
			domainauth.RoleAdmin,
		},
		{
			"realm user",
			&domainauth.Claims{RealmAccess: &domainauth.RealmAccess{Roles: []string{"user"}}},
			domainauth.RoleUser,
		},
		{
			"tenant member",
			&domainauth.Claims{AllTenants: []domainauth.Tenant{{TenantID: "t1"}}},
			domainauth.RoleUser,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, m.Map(tt.claims))
		})
	}
}
