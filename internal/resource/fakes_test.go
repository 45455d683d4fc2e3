package resource

import (
	"errors"
	"sync"
)

var errInjected = errors.New("injected I/O error")

// fakeFile records Sync and Close calls and can fail either.
type fakeFile struct {
	mu       sync.Mutex
	syncs    int
	closes   int
	syncErr  error
	closeErr error
	order    *[]string
	name     string
}

func (f *fakeFile) Sync() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.syncs++
	if f.order != nil {
		*f.order = append(*f.order, "sync "+f.name)
	}
	return f.syncErr
}

func (f *fakeFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closes++
	if f.order != nil {
		*f.order = append(*f.order, "close "+f.name)
	}
	return f.closeErr
}

// fakeDB counts Close calls.
type fakeDB struct {
	mu     sync.Mutex
	closes int
	err    error
}

func (d *fakeDB) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closes++
	return d.err
}

func (d *fakeDB) closeCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closes
}

// fakeLibrary records Release calls into a shared event log.
type fakeLibrary struct {
	events   *[]string
	name     string
	releases int
	err      error
}

func (l *fakeLibrary) Release() error {
	l.releases++
	*l.events = append(*l.events, "release "+l.name)
	return l.err
}
