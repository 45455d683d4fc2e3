package sqlitedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/giantswarm/perslc/internal/fileutil"
	"github.com/giantswarm/perslc/internal/sentinel"

	// Register the pure-Go SQLite driver (no CGO required).
	_ "modernc.org/sqlite"
)

// ErrClosed is returned by DB.Close on a handle that was already closed.
const ErrClosed = sentinel.Error("database already closed")

// ErrRegistryClosed is returned by Open after CloseAll.
const ErrRegistryClosed = sentinel.Error("database registry closed")

// DB is an open SQLite database tracked by a Registry.
type DB struct {
	*sql.DB

	path     string
	registry *Registry
	closeDB  func() error

	closeMu sync.Mutex
	closed  bool
}

// Path returns the file path the database was opened from.
func (d *DB) Path() string {
	return d.path
}

// Close removes the handle from its registry and closes it. A second call
// returns ErrClosed without touching the underlying handle.
func (d *DB) Close() error {
	d.closeMu.Lock()
	defer d.closeMu.Unlock()

	if d.closed {
		return fmt.Errorf("close %s: %w", d.path, ErrClosed)
	}
	d.closed = true
	d.registry.forget(d)

	if err := d.closeDB(); err != nil {
		return fmt.Errorf("close sqlite %s: %w", d.path, err)
	}
	return nil
}

// Registry tracks every database opened through it.
type Registry struct {
	mu     sync.Mutex
	open   map[*DB]struct{}
	closed bool
	log    *slog.Logger
}

// NewRegistry creates an empty registry. If logger is nil, slog.Default() is
// used.
func NewRegistry(logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{open: make(map[*DB]struct{}), log: logger}
}

// Open opens (creating if needed) the SQLite database at path in WAL mode
// with full synchronous commits, pings it, and registers the handle.
func (r *Registry) Open(ctx context.Context, path string) (*DB, error) {
	if path == "" {
		return nil, errors.New("open sqlite: path must not be empty")
	}
	if !fileutil.IsMemoryPath(path) {
		if err := fileutil.EnsureParent(path); err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
	}

	dsn := fmt.Sprintf(
		"file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)",
		path,
	)
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite %s: %w", path, err)
	}

	db := &DB{DB: sqlDB, path: path, registry: r, closeDB: sqlDB.Close}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", path, ErrRegistryClosed)
	}
	r.open[db] = struct{}{}
	return db, nil
}

// Len returns the number of open databases.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.open)
}

func (r *Registry) forget(db *DB) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, db)
}

// CloseAll closes every database still open and rejects later Opens. It
// returns the number of databases it closed. Each failure is logged and
// returned joined; a failure does not stop the remaining closes.
func (r *Registry) CloseAll() (int, error) {
	r.mu.Lock()
	r.closed = true
	dbs := make([]*DB, 0, len(r.open))
	for db := range r.open {
		dbs = append(dbs, db)
	}
	r.mu.Unlock()

	closed := 0
	var errs []error
	for _, db := range dbs {
		err := db.Close()
		switch {
		case err == nil:
			closed++
		case errors.Is(err, ErrClosed):
		default:
			r.log.Warn("close database failed", "path", db.path, "error", err)
			errs = append(errs, err)
		}
	}
	return closed, errors.Join(errs...)
}
