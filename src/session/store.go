package session

import (
	"context"
	"sync"

	"github.com/pkg/errors"
)

// ErrSessionNotFound is returned for an unknown or expired session id.
var ErrSessionNotFound = errors.New("session not found")

// Store persists session state between requests.
type Store interface {
	Get(ctx context.Context, id string) (State, error)
	Put(ctx context.Context, s State) error
}

// MemoryStore keeps sessions in process memory.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]State
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]State)}
}

func (m *MemoryStore) Get(_ context.Context, id string) (State, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return State{}, errors.Wrapf(ErrSessionNotFound, "%q", id)
	}
	return s.clone(), nil
}

func (m *MemoryStore) Put(_ context.Context, s State) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = s.clone()
	return nil
}
