package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/keychainmdip/dex-market/internal/domain"
)

// memoryStore implements Store with an in-process map. Used for tests and for
// standalone demo mode when no database is configured.
type memoryStore struct {
	mu       sync.RWMutex
	users    map[domain.DID]*domain.User
	settings *domain.Settings
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() Store {
	return &memoryStore{users: make(map[domain.DID]*domain.User)}
}

func copyDoc[T any](src *T) (*T, error) {
	raw, err := json.Marshal(src)
	if err != nil {
		return nil, err
	}
	var dst T
	if err := json.Unmarshal(raw, &dst); err != nil {
		return nil, err
	}
	return &dst, nil
}

func (s *memoryStore) GetUser(_ context.Context, did domain.DID) (*domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[did]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", did, domain.ErrNotFound)
	}
	return copyDoc(user)
}

func (s *memoryStore) PutUser(_ context.Context, user *domain.User) error {
	cp, err := copyDoc(user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[user.DID] = cp
	return nil
}

func (s *memoryStore) PutUsers(ctx context.Context, users []*domain.User) error {
	copies := make([]*domain.User, 0, len(users))
	for _, user := range users {
		cp, err := copyDoc(user)
		if err != nil {
			return err
		}
		copies = append(copies, cp)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cp := range copies {
		s.users[cp.DID] = cp
	}
	return nil
}

func (s *memoryStore) ListUsers(_ context.Context) ([]domain.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.User, 0, len(s.users))
	for _, user := range s.users {
		cp, err := copyDoc(user)
		if err != nil {
			return nil, err
		}
		out = append(out, *cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DID < out[j].DID })
	return out, nil
}

func (s *memoryStore) GetSettings(_ context.Context) (*domain.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.settings == nil {
		return nil, fmt.Errorf("settings: %w", domain.ErrNotFound)
	}
	return copyDoc(s.settings)
}

func (s *memoryStore) PutSettings(_ context.Context, settings *domain.Settings) error {
	cp, err := copyDoc(settings)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.settings = cp
	return nil
}
