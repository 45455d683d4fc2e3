package resource

import (
	"errors"
	"fmt"
	"os"
	"sync"
)

// File is an open persistence file. *os.File satisfies it.
type File interface {
	Sync() error
	Close() error
}

type handleEntry struct {
	file File
	open bool
}

// HandleTable maps small integer handle IDs to open files. Its capacity is
// fixed at construction.
//
// An entry marked open always holds a live file. FlushAndClose marks the
// entry closed even if Sync or Close failed, so each handle is visited at
// most once during teardown.
type HandleTable struct {
	mu      sync.Mutex
	entries []handleEntry
}

// NewHandleTable creates a table with room for capacity handles.
// Panics if capacity < 1.
func NewHandleTable(capacity int) *HandleTable {
	if capacity < 1 {
		panic(fmt.Sprintf("perslc: handle table capacity must be greater than 0, got %d", capacity))
	}
	return &HandleTable{entries: make([]handleEntry, capacity)}
}

// Cap returns the fixed capacity of the table.
func (t *HandleTable) Cap() int {
	return len(t.entries)
}

// Add stores f in the lowest free slot and returns its handle ID.
func (t *HandleTable) Add(f File) (int, error) {
	if f == nil {
		return -1, errors.New("add handle: file must not be nil")
	}
	t.mu.Lock()
	defer t.mu.Unlock()

	for id := range t.entries {
		if !t.entries[id].open {
			t.entries[id] = handleEntry{file: f, open: true}
			return id, nil
		}
	}
	return -1, ErrTableFull
}

// OpenFile opens name with os.OpenFile and stores the result. The file is
// closed again if the table is full.
func (t *HandleTable) OpenFile(name string, flag int, perm os.FileMode) (int, error) {
	f, err := os.OpenFile(name, flag, perm) //nolint:gosec // path supplied by the persistence layer
	if err != nil {
		return -1, fmt.Errorf("open %s: %w", name, err)
	}
	id, err := t.Add(f)
	if err != nil {
		if closeErr := f.Close(); closeErr != nil {
			err = errors.Join(err, closeErr)
		}
		return -1, fmt.Errorf("register %s: %w", name, err)
	}
	return id, nil
}

// IsOpen reports whether id refers to an open handle.
func (t *HandleTable) IsOpen(id int) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return id >= 0 && id < len(t.entries) && t.entries[id].open
}

// OpenIDs returns the IDs of all open handles in ascending order.
func (t *HandleTable) OpenIDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()

	var ids []int
	for id, e := range t.entries {
		if e.open {
			ids = append(ids, id)
		}
	}
	return ids
}

// take marks id closed and returns its file.
func (t *HandleTable) take(id int) (File, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if id < 0 || id >= len(t.entries) {
		return nil, fmt.Errorf("handle %d: %w", id, ErrInvalidID)
	}
	e := t.entries[id]
	if !e.open {
		return nil, fmt.Errorf("handle %d: %w", id, ErrNotOpen)
	}
	t.entries[id] = handleEntry{}
	return e.file, nil
}

// Close closes handle id without flushing and frees its slot.
func (t *HandleTable) Close(id int) error {
	f, err := t.take(id)
	if err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close handle %d: %w", id, err)
	}
	return nil
}

// FlushAndClose flushes handle id to stable storage, closes it and marks it
// closed. Close is attempted even when Sync fails; both errors are returned.
func (t *HandleTable) FlushAndClose(id int) error {
	f, err := t.take(id)
	if err != nil {
		return err
	}

	var errs []error
	if err := f.Sync(); err != nil {
		errs = append(errs, fmt.Errorf("sync handle %d: %w", id, err))
	}
	if err := f.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close handle %d: %w", id, err))
	}
	return errors.Join(errs...)
}
