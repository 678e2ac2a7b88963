package repository

import (
	"context"
	"sync"

	"github.com/okian/levelcard/internal/domain/card"
)

// MemoryStore is an in-process Store for tests, benches and running without
// a database.
type MemoryStore struct {
	mu     sync.RWMutex
	xp     map[string]map[string]uint64
	custom map[string]card.Customization
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		xp:     make(map[string]map[string]uint64),
		custom: make(map[string]card.Customization),
	}
}

// SetXP stores a member's XP.
func (s *MemoryStore) SetXP(guild, user string, xp uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	members, ok := s.xp[guild]
	if !ok {
		members = make(map[string]uint64)
		s.xp[guild] = members
	}
	members[user] = xp
}

// SetCustomization stores a user's card look.
func (s *MemoryStore) SetCustomization(user string, c card.Customization) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.custom[user] = c
}

// XP implements Store.
func (s *MemoryStore) XP(_ context.Context, guild, user string) (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.xp[guild][user], nil
}

// Rank implements Store.
func (s *MemoryStore) Rank(_ context.Context, guild string, xp uint64) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var ahead int64
	for _, v := range s.xp[guild] {
		if v > xp {
			ahead++
		}
	}
	return ahead + 1, nil
}

// Customization implements Store.
func (s *MemoryStore) Customization(_ context.Context, user string) (card.Customization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.custom[user]
	if !ok || c.Validate() != nil {
		return card.DefaultCustomization(), nil
	}
	return c, nil
}
