package resource

import (
	"errors"
	"fmt"
	"sync"
)

// Database is an open embedded database handle.
type Database interface {
	Close() error
}

// DatabaseSet is an ordered, fixed-capacity set of database handles.
//
// CloseAt empties a slot before closing its handle, so no handle held by the
// set is closed twice.
type DatabaseSet struct {
	mu    sync.Mutex
	slots []Database
}

// NewDatabaseSet creates a set with capacity slots.
// Panics if capacity < 1.
func NewDatabaseSet(capacity int) *DatabaseSet {
	if capacity < 1 {
		panic(fmt.Sprintf("perslc: database set capacity must be greater than 0, got %d", capacity))
	}
	return &DatabaseSet{slots: make([]Database, capacity)}
}

// Cap returns the fixed capacity of the set.
func (s *DatabaseSet) Cap() int {
	return len(s.slots)
}

// Add stores db in the lowest empty slot and returns the slot index.
func (s *DatabaseSet) Add(db Database) (int, error) {
	if db == nil {
		return -1, errors.New("add database: handle must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.containsLocked(db) {
		return -1, ErrDuplicateHandle
	}
	for idx, cur := range s.slots {
		if cur == nil {
			s.slots[idx] = db
			return idx, nil
		}
	}
	return -1, ErrTableFull
}

// Set stores db in slot idx, which must be empty.
func (s *DatabaseSet) Set(idx int, db Database) error {
	if db == nil {
		return errors.New("set database: handle must not be nil")
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx < 0 || idx >= len(s.slots) {
		return fmt.Errorf("slot %d: %w", idx, ErrInvalidID)
	}
	if s.slots[idx] != nil {
		return fmt.Errorf("slot %d already in use", idx)
	}
	if s.containsLocked(db) {
		return ErrDuplicateHandle
	}
	s.slots[idx] = db
	return nil
}

func (s *DatabaseSet) containsLocked(db Database) bool {
	for _, cur := range s.slots {
		if cur != nil && cur == db {
			return true
		}
	}
	return false
}

// Occupied returns the indexes of non-empty slots in ascending order.
func (s *DatabaseSet) Occupied() []int {
	s.mu.Lock()
	defer s.mu.Unlock()

	var idxs []int
	for idx, db := range s.slots {
		if db != nil {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// CloseAt empties slot idx and closes the handle it held.
func (s *DatabaseSet) CloseAt(idx int) error {
	s.mu.Lock()
	if idx < 0 || idx >= len(s.slots) {
		s.mu.Unlock()
		return fmt.Errorf("slot %d: %w", idx, ErrInvalidID)
	}
	db := s.slots[idx]
	s.slots[idx] = nil
	s.mu.Unlock()

	if db == nil {
		return fmt.Errorf("slot %d: %w", idx, ErrNotOpen)
	}
	if err := db.Close(); err != nil {
		return fmt.Errorf("close database slot %d: %w", idx, err)
	}
	return nil
}

// At returns the handle held in slot idx.
func (s *DatabaseSet) At(idx int) (Database, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx < 0 || idx >= len(s.slots) {
		return nil, fmt.Errorf("slot %d: %w", idx, ErrInvalidID)
	}
	if s.slots[idx] == nil {
		return nil, fmt.Errorf("slot %d: %w", idx, ErrNotOpen)
	}
	return s.slots[idx], nil
}

// CloseHandle closes db and empties the slot holding it. It returns
// ErrNotOpen if no slot holds db.
func (s *DatabaseSet) CloseHandle(db Database) error {
	s.mu.Lock()
	idx := -1
	for i, cur := range s.slots {
		if cur != nil && cur == db {
			idx = i
			break
		}
	}
	s.mu.Unlock()

	if idx < 0 {
		return ErrNotOpen
	}
	return s.CloseAt(idx)
}
