package core

import (
	"context"
	"database/sql"

	"github.com/giantswarm/perslc/internal/resource"
	"github.com/giantswarm/perslc/internal/sqlitedb"
)

// Row is the result of GuardedDB.QueryRowContext. *sql.Row satisfies it.
type Row interface {
	Scan(dest ...any) error
	Err() error
}

// errRow is returned by QueryRowContext when the access lock refused the
// query.
type errRow struct {
	err error
}

func (r errRow) Scan(...any) error { return r.err }
func (r errRow) Err() error        { return r.err }

// GuardedDB is a database handle whose statements run under the runtime's
// AccessLock held shared. Statements block while teardown runs and fail with
// resource.ErrAccessClosed afterwards.
//
// Rows returned by QueryContext keep the connection busy until closed, so
// teardown's close of the database waits for them.
type GuardedDB struct {
	db    *sqlitedb.DB
	lock  *resource.AccessLock
	close func() error
}

func newGuardedDB(db *sqlitedb.DB, lock *resource.AccessLock, closeFn func() error) *GuardedDB {
	if closeFn == nil {
		closeFn = db.Close
	}
	return &GuardedDB{db: db, lock: lock, close: closeFn}
}

// Path returns the file path the database was opened from.
func (g *GuardedDB) Path() string {
	return g.db.Path()
}

// ExecContext runs query under the shared access lock.
func (g *GuardedDB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	var res sql.Result
	err := g.lock.Do(func() error {
		var err error
		res, err = g.db.ExecContext(ctx, query, args...)
		return err
	})
	return res, err
}

// QueryContext runs query under the shared access lock.
func (g *GuardedDB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	var rows *sql.Rows
	err := g.lock.Do(func() error {
		var err error
		rows, err = g.db.QueryContext(ctx, query, args...)
		return err
	})
	return rows, err
}

// QueryRowContext runs query under the shared access lock. A refused query
// yields a Row whose Scan and Err return the lock error.
//
//nolint:ireturn // Row is satisfied by *sql.Row and by the refusal value.
func (g *GuardedDB) QueryRowContext(ctx context.Context, query string, args ...any) Row {
	var row *sql.Row
	err := g.lock.Do(func() error {
		row = g.db.QueryRowContext(ctx, query, args...)
		return nil
	})
	if row == nil {
		return errRow{err: err}
	}
	return row
}

// PingContext verifies the connection under the shared access lock.
func (g *GuardedDB) PingContext(ctx context.Context) error {
	return g.lock.Do(func() error {
		return g.db.PingContext(ctx)
	})
}

// Close closes the database and removes it from the runtime.
func (g *GuardedDB) Close() error {
	return g.lock.Do(g.close)
}
