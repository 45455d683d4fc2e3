package perslc

import (
	"context"
	"database/sql"
	"os"

	"github.com/giantswarm/perslc/internal/core"
)

// Coordinator serves lifecycle requests from the Node State Manager and tears
// down its Persistence when a normal shutdown is requested.
//
// Callers must follow this lifecycle ordering:
//
//	Connect → Register → Run (blocks) → Unregister → Close
//
// Persistence may be used at any point before the shutdown request arrives.
type Coordinator interface {
	// Register announces this process as a shutdown client with the
	// configured shutdown mode and timeout. Returns an error if the unique
	// bus name is unavailable or the call cannot be sent.
	Register(ctx context.Context) error

	// Unregister removes the registration made by Register.
	Unregister(ctx context.Context) error

	// Run serves lifecycle requests until ctx is canceled or the bus
	// connection fails. A teardown in progress when ctx is canceled runs to
	// completion first. Returns ErrAlreadyRunning on a second call.
	Run(ctx context.Context) error

	// Persistence returns the resources torn down at shutdown.
	Persistence() Persistence

	// TornDown reports whether the shutdown teardown has started.
	TornDown() bool

	// Close releases the bus connection.
	Close() error
}

// Persistence gives access to the resources released at shutdown. All
// methods block while teardown runs and return ErrAccessClosed afterwards.
type Persistence interface {
	// OpenFile opens a file and tracks it in the handle table. Returns the
	// handle ID, or ErrTableFull when no handle is free.
	OpenFile(name string, flag int, perm os.FileMode) (int, error)

	// CloseFile closes a handle returned by OpenFile.
	CloseFile(id int) error

	// OpenDatabase opens an SQLite database and stores it in a database
	// slot. Returns the slot index.
	OpenDatabase(ctx context.Context, path string) (int, error)

	// Database returns the database OpenDatabase stored in slot. Closing it
	// empties the slot.
	Database(slot int) (Database, error)

	// OpenSharedDatabase opens an SQLite database that is closed by the
	// bulk close step of teardown rather than held in a slot.
	OpenSharedDatabase(ctx context.Context, path string) (Database, error)

	// LoadPlugin loads a Go plugin into slot, running its Init symbol. Its
	// Deinit symbol, if any, runs at shutdown.
	LoadPlugin(slot int, name, path string) error

	// RegisterPlugin stores an already loaded plugin in slot. deinit runs
	// while teardown holds the access lock exclusively and must not call
	// back into Persistence, which would deadlock. A nil deinit
	// leaves the plugin untouched at shutdown.
	RegisterPlugin(slot int, name string, lib Library, deinit func() error) error

	// Access runs fn while holding the shared access lock.
	Access(fn func() error) error
}

// Database is an open SQLite database. Every method runs under the shared
// access lock: it blocks while teardown runs and returns ErrAccessClosed
// afterwards.
type Database interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) Row
	PingContext(ctx context.Context) error
	Path() string
	Close() error
}

// Row is a single-row query result. Scan and Err return ErrAccessClosed when
// the query was refused by a sealed runtime.
type Row = core.Row

// Library is a plugin library handle released after its Deinit returned.
type Library interface {
	Release() error
}
