package auth

// Package auth contains simple hand-written test doubles for auth ports.
// These are lightweight and suitable for unit tests without codegen.

import (
	"context"
	"errors"
	"fmt"
	"sync"

	domainauth "github.com/target/tenant-auth/internal/domain/auth"
	"github.com/target/tenant-auth/internal/ports"
)

// Ensure compile-time conformance to ports.
var (
	_ ports.CookieJar             = (*MemoryCookieJar)(nil)
	_ ports.SessionStore          = (*MemorySessionConn)(nil)
	_ ports.SessionStoreConnector = (*MemorySessionStore)(nil)
)

// CookieWrite records one Set or Delete call.
type CookieWrite struct {
	Name    string
	Value   string
	Options domainauth.CookieOptions
	Deleted bool
}

// MemoryCookieJar is a ports.CookieJar backed by a map. It records every write.
type MemoryCookieJar struct {
	values map[string]string
	Writes []CookieWrite
}

// NewMemoryCookieJar creates a jar pre-populated with the given request cookies.
func NewMemoryCookieJar(initial map[string]string) *MemoryCookieJar {
	values := make(map[string]string, len(initial))
	for k, v := range initial {
		values[k] = v
	}
	return &MemoryCookieJar{values: values}
}

func (j *MemoryCookieJar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

func (j *MemoryCookieJar) Set(name, value string, opts domainauth.CookieOptions) {
	if j.values == nil {
		j.values = map[string]string{}
	}
	j.values[name] = value
	j.Writes = append(j.Writes, CookieWrite{Name: name, Value: value, Options: opts})
}

func (j *MemoryCookieJar) Delete(name string, opts domainauth.CookieOptions) {
	delete(j.values, name)
	j.Writes = append(j.Writes, CookieWrite{Name: name, Options: opts, Deleted: true})
}

// Has reports whether the jar currently holds name.
func (j *MemoryCookieJar) Has(name string) bool {
	_, ok := j.values[name]
	return ok
}

// LastWrite returns the most recent write for name.
func (j *MemoryCookieJar) LastWrite(name string) (CookieWrite, bool) {
	for i := len(j.Writes) - 1; i >= 0; i-- {
		if j.Writes[i].Name == name {
			return j.Writes[i], true
		}
	}
	return CookieWrite{}, false
}

// SetCount returns how many times name was Set (not deleted).
func (j *MemoryCookieJar) SetCount(name string) int {
	n := 0
	for _, w := range j.Writes {
		if w.Name == name && !w.Deleted {
			n++
		}
	}
	return n
}

type authRecord struct {
	accessToken  string
	refreshToken string
}

// MemorySessionStore is an in-memory session data store. Connect hands out
// connections that share its maps; Open counts connections not yet closed.
type MemorySessionStore struct {
	mu    sync.Mutex
	temp  map[string]map[string]string
	auth  map[string]authRecord
	seq   int
	opens int
	// ConnectErr, when set, is returned by Connect.
	ConnectErr error
	// DestroyErr, when set, is returned by AuthSessionDestroy.
	DestroyErr error
}

// NewMemorySessionStore creates an empty in-memory store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		temp: make(map[string]map[string]string),
		auth: make(map[string]authRecord),
	}
}

func (m *MemorySessionStore) Connect(_ context.Context) (ports.SessionStore, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ConnectErr != nil {
		return nil, m.ConnectErr
	}
	m.opens++
	return &MemorySessionConn{store: m}, nil
}

// Open returns the number of connections that were acquired and not yet closed.
func (m *MemorySessionStore) Open() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

// SeedAuthSession stores a token pair under id, as if created by an earlier login.
func (m *MemorySessionStore) SeedAuthSession(id, accessToken, refreshToken string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.auth[id] = authRecord{accessToken: accessToken, refreshToken: refreshToken}
}

// AuthSessions returns the number of live auth sessions.
func (m *MemorySessionStore) AuthSessions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.auth)
}

// RefreshToken returns the refresh token stored for an auth session.
func (m *MemorySessionStore) RefreshToken(id string) string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.auth[id].refreshToken
}

// MemorySessionConn is one connection to a MemorySessionStore.
type MemorySessionConn struct {
	store  *MemorySessionStore
	closed bool
}

func (c *MemorySessionConn) TempSessionNew(_ context.Context) (string, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("temp-%d", m.seq)
	m.temp[id] = map[string]string{}
	return id, nil
}

func (c *MemorySessionConn) TempSessionSet(_ context.Context, id, key, value string) error {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	values, ok := m.temp[id]
	if !ok {
		return domainauth.ErrSessionNotFound
	}
	values[key] = value
	return nil
}

func (c *MemorySessionConn) TempSessionGet(_ context.Context, id, key string) (string, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.temp[id][key]
	if !ok {
		return "", domainauth.ErrSessionNotFound
	}
	return v, nil
}

func (c *MemorySessionConn) AuthSessionNew(_ context.Context, accessToken, refreshToken string) (string, error) {
	if accessToken == "" {
		return "", errors.New("access token cannot be empty")
	}
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	id := fmt.Sprintf("auth-%d", m.seq)
	m.auth[id] = authRecord{accessToken: accessToken, refreshToken: refreshToken}
	return id, nil
}

func (c *MemorySessionConn) AuthSessionGetAccessToken(_ context.Context, id string) (string, error) {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	rec, ok := m.auth[id]
	if !ok {
		return "", domainauth.ErrSessionNotFound
	}
	return rec.accessToken, nil
}

func (c *MemorySessionConn) AuthSessionDestroy(_ context.Context, id string) error {
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DestroyErr != nil {
		return m.DestroyErr
	}
	delete(m.auth, id)
	return nil
}

func (c *MemorySessionConn) Close() error {
	if c.closed {
		return errors.New("connection already closed")
	}
	c.closed = true
	m := c.store
	m.mu.Lock()
	defer m.mu.Unlock()
	m.opens--
	return nil
}
