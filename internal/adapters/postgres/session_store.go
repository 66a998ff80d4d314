// Package postgres provides the PostgreSQL-backed session data store.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/target/tenant-auth/internal/cryptoutil"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

var (
	_ ports.SessionStoreConnector = (*SessionStore)(nil)
	_ ports.SessionStore          = (*Conn)(nil)
)

// Options configures the PostgreSQL session store.
type Options struct {
	TempSessionTTL time.Duration
	AuthSessionTTL time.Duration
	// Sealer encrypts stored tokens and temp values. Nil stores them as-is.
	Sealer cryptoutil.Sealer
	// OnError is notified of store failures other than missing records.
	OnError func(error)
}

// SessionStore hands out per-request connections from a database/sql pool.
// Expiry is enforced on read; PurgeExpired removes dead rows.
type SessionStore struct {
	db      *sql.DB
	tempTTL time.Duration
	authTTL time.Duration
	sealer  cryptoutil.Sealer
	onError func(error)
}

// NewSessionStore creates a PostgreSQL session store. The schema comes from internal/migrate.
func NewSessionStore(db *sql.DB, opts Options) *SessionStore {
	s := &SessionStore{
		db:      db,
		tempTTL: opts.TempSessionTTL,
		authTTL: opts.AuthSessionTTL,
		sealer:  opts.Sealer,
		onError: opts.OnError,
	}
	if s.sealer == nil {
		s.sealer = cryptoutil.PlainSealer{}
	}
	if s.tempTTL <= 0 {
		s.tempTTL = 10 * time.Minute
	}
	if s.authTTL <= 0 {
		s.authTTL = 24 * time.Hour
	}
	if s.onError == nil {
		s.onError = func(error) {}
	}
	return s
}

// Connect reserves one pooled connection for the duration of a request.
func (s *SessionStore) Connect(ctx context.Context) (ports.SessionStore, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		s.onError(err)
		return nil, fmt.Errorf("postgres connect: %w", err)
	}
	return &Conn{store: s, conn: conn}, nil
}

// PurgeExpired deletes expired temp and auth sessions and returns the number of rows removed.
func (s *SessionStore) PurgeExpired(ctx context.Context) (int64, error) {
	var total int64
	err := withTx(ctx, s.db, func(tx *sql.Tx) error {
		for _, q := range []string{
			`DELETE FROM temp_sessions WHERE expires_at <= now()`,
			`DELETE FROM auth_sessions WHERE expires_at <= now()`,
		} {
			res, err := tx.ExecContext(ctx, q)
			if err != nil {
				return err
			}
			n, _ := res.RowsAffected()
			total += n
		}
		return nil
	})
	if err != nil {
		s.onError(err)
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return total, nil
}

// Conn is a single-request view of the session store bound to one connection.
type Conn struct {
	store *SessionStore
	conn  *sql.Conn
}

// TempSessionNew creates an empty temp session and returns its id.
func (c *Conn) TempSessionNew(ctx context.Context) (string, error) {
	id := uuid.New()
	_, err := c.conn.ExecContext(ctx,
		`INSERT INTO temp_sessions (id, expires_at) VALUES ($1, $2)`,
		id, time.Now().Add(c.store.tempTTL))
	if err != nil {
		return "", c.fail("temp session new", err)
	}
	return id.String(), nil
}

// TempSessionSet stores key=value in a live temp session.
func (c *Conn) TempSessionSet(ctx context.Context, id, key, value string) error {
	sid, ok := parseID(id)
	if !ok {
		return domainauth.ErrSessionNotFound
	}
	sealed, err := c.store.sealer.Seal(value, tempBinding(sid, key))
	if err != nil {
		return c.fail("temp session seal", err)
	}
	res, err := c.conn.ExecContext(ctx, `
		INSERT INTO temp_session_values (session_id, key, value)
		SELECT $1, $2, $3
		WHERE EXISTS (SELECT 1 FROM temp_sessions WHERE id = $1 AND expires_at > now())
		ON CONFLICT (session_id, key) DO UPDATE SET value = EXCLUDED.value`,
		sid, key, sealed)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ForeignKeyViolation {
			return domainauth.ErrSessionNotFound
		}
		return c.fail("temp session set", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domainauth.ErrSessionNotFound
	}
	return nil
}

// TempSessionGet reads key from a live temp session.
func (c *Conn) TempSessionGet(ctx context.Context, id, key string) (string, error) {
	sid, ok := parseID(id)
	if !ok {
		return "", domainauth.ErrSessionNotFound
	}
	var value string
	err := c.conn.QueryRowContext(ctx, `
		SELECT v.value
		FROM temp_session_values v
		JOIN temp_sessions s ON s.id = v.session_id
		WHERE v.session_id = $1 AND v.key = $2 AND s.expires_at > now()`,
		sid, key).Scan(&value)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domainauth.ErrSessionNotFound
		}
		return "", c.fail("temp session get", err)
	}
	plain, err := c.store.sealer.Open(value, tempBinding(sid, key))
	if err != nil {
		return "", c.fail("temp session open", err)
	}
	return plain, nil
}

// AuthSessionNew persists a token pair and returns the new auth-session id.
func (c *Conn) AuthSessionNew(ctx context.Context, accessToken, refreshToken string) (string, error) {
	if accessToken == "" {
		return "", errors.New("access token cannot be empty")
	}
	id := uuid.New()
	sealedAccess, err := c.store.sealer.Seal(accessToken, authBinding(id, "access"))
	if err != nil {
		return "", c.fail("auth session seal", err)
	}
	sealedRefresh := ""
	if refreshToken != "" {
		if sealedRefresh, err = c.store.sealer.Seal(refreshToken, authBinding(id, "refresh")); err != nil {
			return "", c.fail("auth session seal", err)
		}
	}
	_, err = c.conn.ExecContext(ctx,
		`INSERT INTO auth_sessions (id, access_token, refresh_token, expires_at) VALUES ($1, $2, $3, $4)`,
		id, sealedAccess, sealedRefresh, time.Now().Add(c.store.authTTL))
	if err != nil {
		return "", c.fail("auth session new", err)
	}
	return id.String(), nil
}

// AuthSessionGetAccessToken returns the access token bound to a live auth session.
func (c *Conn) AuthSessionGetAccessToken(ctx context.Context, id string) (string, error) {
	sid, ok := parseID(id)
	if !ok {
		return "", domainauth.ErrSessionNotFound
	}
	var token string
	err := c.conn.QueryRowContext(ctx,
		`SELECT access_token FROM auth_sessions WHERE id = $1 AND expires_at > now()`, sid).Scan(&token)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", domainauth.ErrSessionNotFound
		}
		return "", c.fail("auth session get", err)
	}
	plain, err := c.store.sealer.Open(token, authBinding(sid, "access"))
	if err != nil {
		return "", c.fail("auth session open", err)
	}
	return plain, nil
}

// AuthSessionDestroy deletes an auth session. Unknown ids are not an error.
func (c *Conn) AuthSessionDestroy(ctx context.Context, id string) error {
	sid, ok := parseID(id)
	if !ok {
		return nil
	}
	if _, err := c.conn.ExecContext(ctx, `DELETE FROM auth_sessions WHERE id = $1`, sid); err != nil {
		return c.fail("auth session destroy", err)
	}
	return nil
}

// Close returns the connection to the pool.
func (c *Conn) Close() error {
	return c.conn.Close()
}

func (c *Conn) fail(op string, err error) error {
	c.store.onError(err)
	return fmt.Errorf("postgres %s: %w", op, err)
}

func tempBinding(id uuid.UUID, key string) string { return "temp:" + id.String() + ":" + key }

func authBinding(id uuid.UUID, field string) string { return "auth:" + id.String() + ":" + field }

// withTx runs fn in a transaction, rolling back unless fn and the commit succeed.
func withTx(ctx context.Context, db *sql.DB, fn func(*sql.Tx) error) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if rerr := tx.Rollback(); rerr != nil && !errors.Is(rerr, sql.ErrTxDone) {
			err = errors.Join(err, fmt.Errorf("rollback: %w", rerr))
		}
	}()
	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func parseID(id string) (uuid.UUID, bool) {
	if id == "" {
		return uuid.Nil, false
	}
	u, err := uuid.Parse(id)
	if err != nil {
		return uuid.Nil, false
	}
	return u, true
}
