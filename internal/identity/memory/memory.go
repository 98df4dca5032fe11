// Package memory provides an in-memory identity store for development
// mode and tests, with error injection in the same style as the
// in-memory biometric index.
package memory

import (
	"context"
	"sync"

	"github.com/facegate/facegate/internal/fault"
	"github.com/facegate/facegate/internal/identity"
)

// Store keeps identity records in a map keyed by faceId.
type Store struct {
	mu      sync.RWMutex
	records map[string]identity.Record

	// Error injection
	FailPutOn int // 1-based put call number to fail, 0 = never
	PutErr    error
	GetErr    error
	DeleteErr error

	putCalls   int
	deletedIDs []string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{records: make(map[string]identity.Record)}
}

// Put creates or overwrites the record keyed by its faceId.
func (s *Store) Put(ctx context.Context, rec identity.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.putCalls++
	if s.FailPutOn > 0 && s.putCalls == s.FailPutOn {
		err := s.PutErr
		if err == nil {
			err = fault.New(fault.CodeService, "injected put failure")
		}
		return err
	}

	s.records[rec.FaceID] = rec
	return nil
}

// Get returns the record for faceID, or nil when none exists.
func (s *Store) Get(ctx context.Context, faceID string) (*identity.Record, error) {
	if s.GetErr != nil {
		return nil, s.GetErr
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[faceID]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

// Delete removes the record for faceID. Absent keys are ignored.
func (s *Store) Delete(ctx context.Context, faceID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.deletedIDs = append(s.deletedIDs, faceID)
	if s.DeleteErr != nil {
		return s.DeleteErr
	}

	delete(s.records, faceID)
	return nil
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}

// Has reports whether a record exists for faceID.
func (s *Store) Has(faceID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.records[faceID]
	return ok
}

// PutCalls returns how many Put calls were made, including failed ones.
func (s *Store) PutCalls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.putCalls
}

// DeletedIDs returns every faceId passed to Delete, in call order.
func (s *Store) DeletedIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]string(nil), s.deletedIDs...)
}
