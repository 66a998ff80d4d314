package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/target/tenant-auth/internal/cryptoutil"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
	"github.com/target/tenant-auth/internal/testutil"
)

func setup(t *testing.T, opts Options) (*SessionStore, ports.SessionStore) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	t.Cleanup(func() { testutil.TeardownTestDB(t, db) })

	store := NewSessionStore(db, opts)
	conn, err := store.Connect(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return store, conn
}

func TestSessionStore_TempSessionRoundTrip(t *testing.T) {
	_, conn := setup(t, Options{})
	ctx := context.Background()

	id, err := conn.TempSessionNew(ctx)
	require.NoError(t, err)

	require.NoError(t, conn.TempSessionSet(ctx, id, "code_verifier", "v1"))
	require.NoError(t, conn.TempSessionSet(ctx, id, "code_verifier", "v2"))

	v, err := conn.TempSessionGet(ctx, id, "code_verifier")
	require.NoError(t, err)
	assert.Equal(t, "v2", v)

	_, err = conn.TempSessionGet(ctx, id, "other")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_TempSessionUnknown(t *testing.T) {
	_, conn := setup(t, Options{})
	ctx := context.Background()

	assert.ErrorIs(t, conn.TempSessionSet(ctx, "not-a-uuid", "k", "v"), domainauth.ErrSessionNotFound)
	assert.ErrorIs(t, conn.TempSessionSet(ctx, "8f14e45f-ceea-467f-a0e6-7d1d3bbd5d2c", "k", "v"),
		domainauth.ErrSessionNotFound)

	_, err := conn.TempSessionGet(ctx, "", "k")
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_AuthSessionLifecycle(t *testing.T) {
	_, conn := setup(t, Options{})
	ctx := context.Background()

	id, err := conn.AuthSessionNew(ctx, "access-1", "refresh-1")
	require.NoError(t, err)

	tok, err := conn.AuthSessionGetAccessToken(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "access-1", tok)

	require.NoError(t, conn.AuthSessionDestroy(ctx, id))
	_, err = conn.AuthSessionGetAccessToken(ctx, id)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)

	require.NoError(t, conn.AuthSessionDestroy(ctx, "garbage"))
}

func TestSessionStore_ExpiredAndPurge(t *testing.T) {
	store, conn := setup(t, Options{AuthSessionTTL: 50 * time.Millisecond, TempSessionTTL: 50 * time.Millisecond})
	ctx := context.Background()

	authID, err := conn.AuthSessionNew(ctx, "access", "")
	require.NoError(t, err)
	tempID, err := conn.TempSessionNew(ctx)
	require.NoError(t, err)

	time.Sleep(150 * time.Millisecond)

	_, err = conn.AuthSessionGetAccessToken(ctx, authID)
	assert.ErrorIs(t, err, domainauth.ErrSessionNotFound)
	assert.ErrorIs(t, conn.TempSessionSet(ctx, tempID, "k", "v"), domainauth.ErrSessionNotFound)

	n, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestSessionStore_SealsValuesAtRest(t *testing.T) {
	sealer, err := cryptoutil.NewSealerFromKey("postgres-store-test-key")
	require.NoError(t, err)
	store, conn := setup(t, Options{Sealer: sealer})
	ctx := context.Background()

	authID, err := conn.AuthSessionNew(ctx, "access-plain", "refresh-plain")
	require.NoError(t, err)

	var rawAccess, rawRefresh string
	require.NoError(t, store.db.QueryRowContext(ctx,
		`SELECT access_token, refresh_token FROM auth_sessions WHERE id = $1`, authID).Scan(&rawAccess, &rawRefresh))
	assert.NotEqual(t, "access-plain", rawAccess)
	assert.NotEqual(t, "refresh-plain", rawRefresh)

	tok, err := conn.AuthSessionGetAccessToken(ctx, authID)
	require.NoError(t, err)
	assert.Equal(t, "access-plain", tok)

	tempID, err := conn.TempSessionNew(ctx)
	require.NoError(t, err)
	require.NoError(t, conn.TempSessionSet(ctx, tempID, "code_verifier", "verifier-plain"))
	v, err := conn.TempSessionGet(ctx, tempID, "code_verifier")
	require.NoError(t, err)
	assert.Equal(t, "verifier-plain", v)
}

func TestSessionStore_SwappedCiphertextRejected(t *testing.T) {
	sealer, err := cryptoutil.NewSealerFromKey("postgres-store-test-key")
	require.NoError(t, err)
	store, conn := setup(t, Options{Sealer: sealer})
	ctx := context.Background()

	a, err := conn.AuthSessionNew(ctx, "access-a", "")
	require.NoError(t, err)
	b, err := conn.AuthSessionNew(ctx, "access-b", "")
	require.NoError(t, err)

	_, err = store.db.ExecContext(ctx,
		`UPDATE auth_sessions SET access_token = (SELECT access_token FROM auth_sessions WHERE id = $1) WHERE id = $2`,
		a, b)
	require.NoError(t, err)

	_, err = conn.AuthSessionGetAccessToken(ctx, b)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainauth.ErrSessionNotFound)
}

func TestSessionStore_RefreshCiphertextNotAccepted(t *testing.T) {
	sealer, err := cryptoutil.NewSealerFromKey("postgres-store-test-key")
	require.NoError(t, err)
	store, conn := setup(t, Options{Sealer: sealer})
	ctx := context.Background()

	id, err := conn.AuthSessionNew(ctx, "access-plain", "refresh-plain")
	require.NoError(t, err)

	_, err = store.db.ExecContext(ctx, `UPDATE auth_sessions SET access_token = refresh_token WHERE id = $1`, id)
	require.NoError(t, err)

	_, err = conn.AuthSessionGetAccessToken(ctx, id)
	require.Error(t, err)
	assert.NotErrorIs(t, err, domainauth.ErrSessionNotFound)
}
