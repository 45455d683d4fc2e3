package resource

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/giantswarm/perslc/internal/fileutil"
	"github.com/gofrs/flock"
)

// fileLockRetryInterval is the interval between attempts to take the
// cross-process lock file.
const fileLockRetryInterval = 50 * time.Millisecond

// AccessLock guards all persistence I/O. Readers and writers hold it shared
// through RLock; teardown holds it exclusively through Lock from the first
// close until the completion message is sent.
//
// When a lock path is configured, Lock additionally takes an exclusive flock
// on that file, so teardowns of processes sharing the persistence directory
// run one at a time. Shared access never takes the flock: readers in other
// processes are not held back by this process's teardown.
type AccessLock struct {
	mu     sync.RWMutex
	file   *flock.Flock
	sealed atomic.Bool
	log    *slog.Logger
}

// NewAccessLock creates an AccessLock. An empty lockPath disables the
// cross-process lock. If logger is nil, slog.Default() is used.
func NewAccessLock(lockPath string, logger *slog.Logger) *AccessLock {
	if logger == nil {
		logger = slog.Default()
	}
	l := &AccessLock{log: logger}
	if lockPath != "" {
		l.file = flock.New(lockPath)
	}
	return l
}

// Lock takes the lock exclusively. The in-process lock is always acquired;
// an error is returned only when the lock file could not be taken, in which
// case the in-process lock is still held and the caller must Unlock.
func (l *AccessLock) Lock(ctx context.Context) error {
	l.mu.Lock()

	if l.file == nil {
		return nil
	}
	if err := fileutil.EnsureParent(l.file.Path()); err != nil {
		return fmt.Errorf("acquiring lock file: %w", err)
	}
	locked, err := l.file.TryLockContext(ctx, fileLockRetryInterval)
	if err != nil {
		return fmt.Errorf("acquiring lock file %s: %w", l.file.Path(), err)
	}
	if !locked {
		return fmt.Errorf("acquiring lock file %s: lock not acquired", l.file.Path())
	}
	return nil
}

// Unlock releases an exclusive lock taken by Lock. The lock file is closed
// but left on disk; removing it could invalidate a lock concurrently taken by
// another process.
func (l *AccessLock) Unlock() {
	if l.file != nil && l.file.Locked() {
		if err := l.file.Unlock(); err != nil {
			l.log.Debug("failed to release lock file", "path", l.file.Path(), "error", err)
		}
	}
	l.mu.Unlock()
}

// Seal marks persistence access as permanently closed. Call it while holding
// the exclusive lock.
func (l *AccessLock) Seal() {
	l.sealed.Store(true)
}

// Sealed reports whether teardown has sealed the lock.
func (l *AccessLock) Sealed() bool {
	return l.sealed.Load()
}

// RLock takes the lock shared for one persistence operation. It blocks while
// teardown holds the lock and fails with ErrAccessClosed once teardown sealed
// it. On success the caller must RUnlock.
func (l *AccessLock) RLock() error {
	l.mu.RLock()
	if l.sealed.Load() {
		l.mu.RUnlock()
		return ErrAccessClosed
	}
	return nil
}

// RUnlock releases a shared lock taken by RLock.
func (l *AccessLock) RUnlock() {
	l.mu.RUnlock()
}

// Do runs fn under a shared lock.
func (l *AccessLock) Do(fn func() error) error {
	if err := l.RLock(); err != nil {
		return err
	}
	defer l.RUnlock()
	return fn()
}
