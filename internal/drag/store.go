package drag

import (
	"context"
	"errors"
	"sync"
)

var (
	// ErrNoSession means the user has no live drag.
	ErrNoSession = errors.New("no active drag session")

	// ErrSessionActive means a drag is already in progress for the user; a
	// second pointer-down is rejected until the first is released.
	ErrSessionActive = errors.New("a drag session is already active")
)

// Store keeps at most one live session per user.
type Store interface {
	// Begin stores a fresh session; ErrSessionActive if one already exists.
	Begin(ctx context.Context, s *Session) error
	// Get returns the user's live session, or ErrNoSession.
	Get(ctx context.Context, userID string) (*Session, error)
	// Update overwrites the user's live session after a pointer-move.
	Update(ctx context.Context, s *Session) error
	// End removes the session on release or cancel. Removing a missing
	// session is not an error.
	End(ctx context.Context, userID string) error
}

// MemoryStore is a process-local Store, used by tests and single-instance
// deployments.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*Session)}
}

func (m *MemoryStore) Begin(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.sessions[s.UserID]; live {
		return ErrSessionActive
	}
	m.sessions[s.UserID] = s
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[userID]
	if !ok {
		return nil, ErrNoSession
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) Update(_ context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, live := m.sessions[s.UserID]; !live {
		return ErrNoSession
	}
	m.sessions[s.UserID] = s
	return nil
}

func (m *MemoryStore) End(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, userID)
	return nil
}
