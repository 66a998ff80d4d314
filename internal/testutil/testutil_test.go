package testutil

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
)

func TestDefaultTestDBConfig(t *testing.T) {
	t.Run("local defaults", func(t *testing.T) {
		for _, key := range []string{"TEST_DB_HOST", "TEST_DB_PORT", "TEST_DB_USER", "TEST_DB_PASSWORD", "TEST_DB_NAME"} {
			t.Setenv(key, "")
		}
		assert.Equal(t, TestDBConfig{
			Host:     "localhost",
			Port:     "55432",
			User:     "tenantauth",
			Password: "tenantauth",
			DBName:   "tenantauth",
		}, DefaultTestDBConfig())
	})

	t.Run("environment overrides", func(t *testing.T) {
		t.Setenv("TEST_DB_HOST", "postgres")
		t.Setenv("TEST_DB_PORT", "5432")
		t.Setenv("TEST_DB_NAME", "sessions")

		cfg := DefaultTestDBConfig()
		assert.Equal(t, "postgres", cfg.Host)
		assert.Equal(t, "5432", cfg.Port)
		assert.Equal(t, "sessions", cfg.DBName)
	})
}

func TestCleanupTestDB_ClearsSessionTables(t *testing.T) {
	db := SetupTestDB(t)
	defer TeardownTestDB(t, db)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO temp_sessions (id, expires_at) VALUES ('8f14e45f-ceea-467f-a0e6-7d1d3bbd5d2c', now() + interval '1 hour')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO temp_session_values (session_id, key, value) VALUES ('8f14e45f-ceea-467f-a0e6-7d1d3bbd5d2c', 'k', 'v')`)
	require.NoError(t, err)
	_, err = db.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, access_token, refresh_token, expires_at)
		 VALUES ('c9f0f895-fb98-4b91-8f9a-3f2b1a6d2e10', 'a', 'r', now() + interval '1 hour')`)
	require.NoError(t, err)

	CleanupTestDB(t, db)

	for _, table := range []string{"temp_session_values", "temp_sessions", "auth_sessions"} {
		var n int
		require.NoError(t, db.QueryRowContext(ctx, "SELECT count(*) FROM "+table).Scan(&n))
		assert.Zero(t, n, table)
	}
}

func TestTenantToken_Decodes(t *testing.T) {
	tok := TenantToken(t, "user-1", "t1", domainauth.TenantAdminRole)

	claims, err := domainauth.Decode(tok)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.Subject)
	assert.Equal(t, []string{"t1"}, claims.TenantIDs())
	assert.True(t, claims.IsTenantAdmin())
	assert.True(t, claims.HasRealmRole("user"))
}
