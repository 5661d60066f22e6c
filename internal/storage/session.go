// Package storage persists the auth session, the only state finboard keeps
// locally.
package storage

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrNoSession is returned by Load when nobody is signed in.
var ErrNoSession = errors.New("no stored session")

type Session struct {
	Token    string
	Username string
	SavedAt  time.Time
}

// SessionStore is implemented by SQLiteSessionStore and MemorySessionStore.
type SessionStore interface {
	Load(ctx context.Context) (Session, error)
	Save(ctx context.Context, s Session) error
	Clear(ctx context.Context) error
	Close() error
}

// MemorySessionStore keeps the session for the lifetime of the process.
type MemorySessionStore struct {
	mu      sync.RWMutex
	session *Session
}

func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{}
}

func (m *MemorySessionStore) Load(_ context.Context) (Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.session == nil {
		return Session{}, ErrNoSession
	}
	return *m.session, nil
}

func (m *MemorySessionStore) Save(_ context.Context, s Session) error {
	if s.SavedAt.IsZero() {
		s.SavedAt = time.Now().UTC()
	}
	m.mu.Lock()
	m.session = &s
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Clear(_ context.Context) error {
	m.mu.Lock()
	m.session = nil
	m.mu.Unlock()
	return nil
}

func (m *MemorySessionStore) Close() error { return nil }

// TokenOf returns the stored token, or "" when signed out. It adapts a
// SessionStore to the api client's token source.
func TokenOf(ctx context.Context, store SessionStore) (string, error) {
	s, err := store.Load(ctx)
	if errors.Is(err, ErrNoSession) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return s.Token, nil
}
