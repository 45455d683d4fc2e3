package resource

import "github.com/giantswarm/perslc/internal/sentinel"

// ErrTableFull is returned when a fixed-capacity table has no free slot.
const ErrTableFull = sentinel.Error("resource table full")

// ErrInvalidID is returned for a handle ID or slot index outside the table.
const ErrInvalidID = sentinel.Error("invalid resource id")

// ErrNotOpen is returned when closing a handle or slot that holds nothing.
const ErrNotOpen = sentinel.Error("resource not open")

// ErrDuplicateHandle is returned when the same database handle is inserted
// into two slots.
const ErrDuplicateHandle = sentinel.Error("database handle already registered")

// ErrAccessClosed is returned by AccessLock.RLock after teardown sealed the
// lock.
const ErrAccessClosed = sentinel.Error("persistence access closed")

// ErrAlreadyDeinitialized is returned when a plugin slot was already torn down.
const ErrAlreadyDeinitialized = sentinel.Error("plugin already deinitialized")
