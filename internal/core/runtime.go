package core

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/giantswarm/perslc/internal/plugin"
	"github.com/giantswarm/perslc/internal/resource"
	"github.com/giantswarm/perslc/internal/sqlitedb"
)

// RuntimeConfig sizes the persistence runtime.
type RuntimeConfig struct {
	MaxHandles    int
	DatabaseSlots int
	PluginSlots   int
	LockFile      string
}

// Runtime owns every persistence resource released at shutdown. It is
// created once and handed to the Orchestrator, which takes exclusive access
// to it for the duration of teardown.
//
// Persistence operations go through Access (or the helpers built on it) so
// that they hold the AccessLock shared and can never observe a half-closed
// runtime.
type Runtime struct {
	Handles   *resource.HandleTable
	Databases *resource.DatabaseSet
	Plugins   *resource.PluginRegistry
	Lock      *resource.AccessLock
	SQLite    *sqlitedb.Registry

	// openPlugin is used by LoadPlugin; nil means plugin.OpenShared.
	openPlugin plugin.Opener
}

// NewRuntime allocates the registries. Panics on non-positive capacities.
func NewRuntime(cfg RuntimeConfig, log *slog.Logger) *Runtime {
	if log == nil {
		log = Logger()
	}
	return &Runtime{
		Handles:   resource.NewHandleTable(cfg.MaxHandles),
		Databases: resource.NewDatabaseSet(cfg.DatabaseSlots),
		Plugins:   resource.NewPluginRegistry(cfg.PluginSlots),
		Lock:      resource.NewAccessLock(cfg.LockFile, log),
		SQLite:    sqlitedb.NewRegistry(log),
	}
}

// Access runs fn while holding the AccessLock shared. It blocks during
// teardown and returns resource.ErrAccessClosed afterwards.
func (r *Runtime) Access(fn func() error) error {
	return r.Lock.Do(fn)
}

// OpenFile opens a persistence file and returns its handle ID.
func (r *Runtime) OpenFile(name string, flag int, perm os.FileMode) (int, error) {
	id := -1
	err := r.Access(func() error {
		var err error
		id, err = r.Handles.OpenFile(name, flag, perm)
		return err
	})
	return id, err
}

// CloseFile closes a handle opened by OpenFile.
func (r *Runtime) CloseFile(id int) error {
	return r.Access(func() error {
		return r.Handles.Close(id)
	})
}

// OpenDatabase opens the SQLite database at path and stores it in the
// database set. It returns the slot index.
func (r *Runtime) OpenDatabase(ctx context.Context, path string) (int, error) {
	slot := -1
	err := r.Access(func() error {
		db, err := r.SQLite.Open(ctx, path)
		if err != nil {
			return err
		}
		slot, err = r.Databases.Add(db)
		if err != nil {
			_ = db.Close()
			return fmt.Errorf("register database %s: %w", path, err)
		}
		return nil
	})
	return slot, err
}

// Database returns the database held in slot. Closing it empties the slot.
func (r *Runtime) Database(slot int) (*GuardedDB, error) {
	var g *GuardedDB
	err := r.Access(func() error {
		h, err := r.Databases.At(slot)
		if err != nil {
			return err
		}
		db, ok := h.(*sqlitedb.DB)
		if !ok {
			return fmt.Errorf("slot %d: %T is not an SQLite database", slot, h)
		}
		g = newGuardedDB(db, r.Lock, func() error {
			return r.Databases.CloseHandle(db)
		})
		return nil
	})
	return g, err
}

// OpenSharedDatabase opens a database that is tracked only by the SQLite
// registry. It is released by the bulk close step of teardown.
func (r *Runtime) OpenSharedDatabase(ctx context.Context, path string) (*GuardedDB, error) {
	var g *GuardedDB
	err := r.Access(func() error {
		db, err := r.SQLite.Open(ctx, path)
		if err != nil {
			return err
		}
		g = newGuardedDB(db, r.Lock, nil)
		return nil
	})
	return g, err
}

// LoadPlugin loads the plugin library at path into slot.
func (r *Runtime) LoadPlugin(slot int, name, path string) error {
	return r.Access(func() error {
		p, err := plugin.Load(name, path, r.openPlugin)
		if err != nil {
			return err
		}
		if err := r.Plugins.Set(slot, p); err != nil {
			if p.Library != nil {
				_ = p.Library.Release()
			}
			return err
		}
		return nil
	})
}

// RegisterPlugin stores an already loaded plugin in slot.
func (r *Runtime) RegisterPlugin(slot int, p resource.Plugin) error {
	return r.Access(func() error {
		return r.Plugins.Set(slot, p)
	})
}
