// Package storage provides an in-memory user profile store. The surrounding
// service is expected to supply a database-backed implementation; this one
// serves the CLI and tests.
package storage

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/courier-service/courier_service/internal/domain/entities"
)

// MemoryProfileStore keeps profiles in a map guarded by a mutex.
type MemoryProfileStore struct {
	mu       sync.Mutex
	profiles map[uuid.UUID]*entities.UserProfile
}

// NewMemoryProfileStore creates an empty store.
func NewMemoryProfileStore() *MemoryProfileStore {
	return &MemoryProfileStore{profiles: make(map[uuid.UUID]*entities.UserProfile)}
}

// Put inserts or replaces a profile.
func (s *MemoryProfileStore) Put(profile *entities.UserProfile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	copied := *profile
	s.profiles[profile.ID] = &copied
}

// Get returns a copy of the stored profile, or nil when absent.
func (s *MemoryProfileStore) Get(userID uuid.UUID) *entities.UserProfile {
	s.mu.Lock()
	defer s.mu.Unlock()
	profile, ok := s.profiles[userID]
	if !ok {
		return nil
	}
	copied := *profile
	return &copied
}

// SetBankAccountID records the provider bank account id for a user.
func (s *MemoryProfileStore) SetBankAccountID(_ context.Context, userID uuid.UUID, bankAccountID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(userID).BankAccountID = bankAccountID
	return nil
}

// SetRecipientAddressID records the provider recipient id for a user.
func (s *MemoryProfileStore) SetRecipientAddressID(_ context.Context, userID uuid.UUID, recipientID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensure(userID).RecipientAddressID = recipientID
	return nil
}

func (s *MemoryProfileStore) ensure(userID uuid.UUID) *entities.UserProfile {
	profile, ok := s.profiles[userID]
	if !ok {
		profile = &entities.UserProfile{ID: userID}
		s.profiles[userID] = profile
	}
	return profile
}
