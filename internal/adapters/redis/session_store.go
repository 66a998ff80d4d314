package redis

// Package redis provides the Redis-backed session data store.

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/target/tenant-auth/internal/cryptoutil"
	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

var (
	_ ports.SessionStoreConnector = (*SessionStore)(nil)
	_ ports.SessionStore          = (*Conn)(nil)
)

// Default lifetimes for store records.
const (
	DefaultTempSessionTTL = 10 * time.Minute
	DefaultAuthSessionTTL = 24 * time.Hour
)

// Options configures the Redis session store.
type Options struct {
	// Prefix is prepended to every key. Defaults to "session:".
	Prefix         string
	TempSessionTTL time.Duration
	AuthSessionTTL time.Duration
	// Sealer encrypts stored tokens and temp values. Nil stores them as-is.
	Sealer cryptoutil.Sealer
	// OnError is notified of store failures other than missing records.
	OnError func(error)
}

// SessionStore hands out per-request connections to a Redis session store.
// Temp sessions are hashes; auth sessions are JSON records. Both expire via TTL.
type SessionStore struct {
	client  redis.UniversalClient
	prefix  string
	tempTTL time.Duration
	authTTL time.Duration
	sealer  cryptoutil.Sealer
	onError func(error)
}

// NewSessionStore creates a new Redis-based session store.
func NewSessionStore(client redis.UniversalClient) *SessionStore {
	return NewSessionStoreWithOptions(client, Options{})
}

// NewSessionStoreWithOptions creates a Redis session store with custom prefix, TTLs and error hook.
func NewSessionStoreWithOptions(client redis.UniversalClient, opts Options) *SessionStore {
	s := &SessionStore{
		client:  client,
		prefix:  opts.Prefix,
		tempTTL: opts.TempSessionTTL,
		authTTL: opts.AuthSessionTTL,
		sealer:  opts.Sealer,
		onError: opts.OnError,
	}
	if s.sealer == nil {
		s.sealer = cryptoutil.PlainSealer{}
	}
	if s.prefix == "" {
		s.prefix = "session:"
	}
	if s.tempTTL <= 0 {
		s.tempTTL = DefaultTempSessionTTL
	}
	if s.authTTL <= 0 {
		s.authTTL = DefaultAuthSessionTTL
	}
	if s.onError == nil {
		s.onError = func(error) {}
	}
	return s
}

// Connect acquires a connection for one request. Single-node clients get a
// dedicated pooled connection; cluster and sentinel clients share the client.
func (s *SessionStore) Connect(ctx context.Context) (ports.SessionStore, error) {
	if c, ok := s.client.(*redis.Client); ok {
		conn := c.Conn()
		if err := conn.Ping(ctx).Err(); err != nil {
			s.onError(err)
			return nil, errors.Join(fmt.Errorf("redis connect: %w", err), conn.Close())
		}
		return &Conn{store: s, cmd: conn, closer: conn.Close}, nil
	}
	return &Conn{store: s, cmd: s.client, closer: func() error { return nil }}, nil
}

// Conn is a single-request view of the session store.
type Conn struct {
	store  *SessionStore
	cmd    redis.Cmdable
	closer func() error
}

// authRecord is the persisted auth-session payload.
type authRecord struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

const tempCreatedField = "_created_at"

func (c *Conn) tempKey(id string) string { return c.store.prefix + "temp:" + id }

func (c *Conn) authKey(id string) string { return c.store.prefix + "auth:" + id }

// TempSessionNew creates an empty temp session and returns its id.
func (c *Conn) TempSessionNew(ctx context.Context) (string, error) {
	id := uuid.NewString()
	key := c.tempKey(id)
	_, err := c.cmd.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, key, tempCreatedField, time.Now().UTC().Format(time.RFC3339))
		p.Expire(ctx, key, c.store.tempTTL)
		return nil
	})
	if err != nil {
		return "", c.fail("temp session new", err)
	}
	return id, nil
}

// TempSessionSet stores key=value in an existing temp session.
func (c *Conn) TempSessionSet(ctx context.Context, id, key, value string) error {
	if id == "" {
		return domainauth.ErrSessionNotFound
	}
	rk := c.tempKey(id)
	n, err := c.cmd.Exists(ctx, rk).Result()
	if err != nil {
		return c.fail("temp session set", err)
	}
	if n == 0 {
		return domainauth.ErrSessionNotFound
	}
	sealed, err := c.store.sealer.Seal(value, "temp:"+id+":"+key)
	if err != nil {
		return c.fail("temp session seal", err)
	}
	if err := c.cmd.HSet(ctx, rk, key, sealed).Err(); err != nil {
		return c.fail("temp session set", err)
	}
	return nil
}

// TempSessionGet reads key from a temp session.
func (c *Conn) TempSessionGet(ctx context.Context, id, key string) (string, error) {
	if id == "" {
		return "", domainauth.ErrSessionNotFound
	}
	v, err := c.cmd.HGet(ctx, c.tempKey(id), key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domainauth.ErrSessionNotFound
		}
		return "", c.fail("temp session get", err)
	}
	plain, err := c.store.sealer.Open(v, "temp:"+id+":"+key)
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
	id := uuid.NewString()
	rec := authRecord{CreatedAt: time.Now().UTC()}
	var err error
	if rec.AccessToken, err = c.store.sealer.Seal(accessToken, "auth:"+id+":access"); err != nil {
		return "", c.fail("auth session seal", err)
	}
	if refreshToken != "" {
		if rec.RefreshToken, err = c.store.sealer.Seal(refreshToken, "auth:"+id+":refresh"); err != nil {
			return "", c.fail("auth session seal", err)
		}
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("marshal auth session: %w", err)
	}
	if err := c.cmd.Set(ctx, c.authKey(id), data, c.store.authTTL).Err(); err != nil {
		return "", c.fail("auth session new", err)
	}
	return id, nil
}

// AuthSessionGetAccessToken returns the access token bound to id.
func (c *Conn) AuthSessionGetAccessToken(ctx context.Context, id string) (string, error) {
	if id == "" {
		return "", domainauth.ErrSessionNotFound
	}
	data, err := c.cmd.Get(ctx, c.authKey(id)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", domainauth.ErrSessionNotFound
		}
		return "", c.fail("auth session get", err)
	}

	var rec authRecord
	if unmarshalErr := json.Unmarshal([]byte(data), &rec); unmarshalErr != nil {
		return "", fmt.Errorf("unmarshal auth session: %w", unmarshalErr)
	}
	if rec.AccessToken == "" {
		return "", domainauth.ErrSessionNotFound
	}
	plain, err := c.store.sealer.Open(rec.AccessToken, "auth:"+id+":access")
	if err != nil {
		return "", c.fail("auth session open", err)
	}
	return plain, nil
}

// AuthSessionDestroy deletes an auth session. Unknown ids are not an error.
func (c *Conn) AuthSessionDestroy(ctx context.Context, id string) error {
	if id == "" {
		return nil // Nothing to delete
	}
	if err := c.cmd.Del(ctx, c.authKey(id)).Err(); err != nil {
		return c.fail("auth session destroy", err)
	}
	return nil
}

// Close releases the connection back to the pool.
func (c *Conn) Close() error {
	return c.closer()
}

func (c *Conn) fail(op string, err error) error {
	c.store.onError(err)
	return fmt.Errorf("redis %s: %w", op, err)
}
