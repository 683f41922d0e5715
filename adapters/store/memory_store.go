package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/playdegen/auth/core"
	"github.com/shopspring/decimal"
)

// MemoryStore is an in-memory implementation of the user and settings stores
type MemoryStore struct {
	users    map[string]core.User
	settings *core.Settings
	mu       sync.RWMutex
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users: make(map[string]core.User),
	}
}

// GetUserOrCreate returns the user for pubKey, creating it on first sight
func (s *MemoryStore) GetUserOrCreate(ctx context.Context, pubKey core.Identity) (*core.User, error) {
	if pubKey == "" {
		return nil, core.ErrInvalidIdentity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[pubKey]
	if !exists {
		user = core.User{
			ID:         uuid.New(),
			PubKey:     pubKey,
			UsdBalance: decimal.Zero,
			CreatedAt:  time.Now().UTC(),
		}
		s.users[pubKey] = user
	}

	return &user, nil
}

// GetUser returns the user for pubKey or core.ErrUserNotFound
func (s *MemoryStore) GetUser(ctx context.Context, pubKey core.Identity) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[pubKey]
	if !exists {
		return nil, core.ErrUserNotFound
	}

	return &user, nil
}

// SetBalance overwrites the balance of an existing user
func (s *MemoryStore) SetBalance(ctx context.Context, pubKey core.Identity, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[pubKey]
	if !exists {
		return core.ErrUserNotFound
	}
	user.UsdBalance = balance
	s.users[pubKey] = user

	return nil
}

// Count returns the number of stored users
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.users)
}

// GetSettings returns the game settings or core.ErrSettingsNotFound
func (s *MemoryStore) GetSettings(ctx context.Context) (*core.Settings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.settings == nil {
		return nil, core.ErrSettingsNotFound
	}
	settings := *s.settings

	return &settings, nil
}

// SaveSettings replaces the game settings
func (s *MemoryStore) SaveSettings(ctx context.Context, settings core.Settings) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.settings = &settings

	return nil
}
