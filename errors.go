package perslc

import (
	"github.com/giantswarm/perslc/internal/command"
	"github.com/giantswarm/perslc/internal/core"
	"github.com/giantswarm/perslc/internal/dbusconn"
	"github.com/giantswarm/perslc/internal/resource"
	"github.com/giantswarm/perslc/internal/sqlitedb"
)

// Sentinel errors for error inspection with errors.Is.
// These are immutable constants safe for use in wrapped error chain comparison.
const (
	// ErrAccessClosed is returned by Persistence operations after teardown.
	ErrAccessClosed = resource.ErrAccessClosed

	// ErrTableFull is returned when the handle table or a slot array has no
	// free entry.
	ErrTableFull = resource.ErrTableFull

	// ErrInvalidID is returned for a handle ID or slot outside the table.
	ErrInvalidID = resource.ErrInvalidID

	// ErrNotOpen is returned by CloseFile for a handle that is not open.
	ErrNotOpen = resource.ErrNotOpen

	// ErrDuplicateHandle is returned when the same database is stored in
	// two slots.
	ErrDuplicateHandle = resource.ErrDuplicateHandle

	// ErrAlreadyRunning is returned by Run when it was already called.
	ErrAlreadyRunning = core.ErrAlreadyRunning

	// ErrAlreadyTornDown is returned when a teardown is requested after one
	// already ran.
	ErrAlreadyTornDown = core.ErrAlreadyTornDown

	// ErrShutdownInProgress is logged when a second shutdown request is
	// rejected.
	ErrShutdownInProgress = core.ErrShutdownInProgress

	// ErrChannelFull is returned when the command channel has no free slot.
	ErrChannelFull = command.ErrChannelFull

	// ErrChannelClosed is returned when the command channel was closed.
	ErrChannelClosed = command.ErrChannelClosed

	// ErrDatabaseClosed is returned by Database.Close on a closed database.
	ErrDatabaseClosed = sqlitedb.ErrClosed

	// ErrUnknownBus is returned by Connect for a bus other than SystemBus or
	// SessionBus.
	ErrUnknownBus = dbusconn.ErrUnknownBus
)
