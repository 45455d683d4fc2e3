package plugin

import (
	"fmt"
	goplugin "plugin"
	"sync"

	"github.com/giantswarm/perslc/internal/resource"
	"github.com/giantswarm/perslc/internal/sentinel"
)

// Exported symbol names looked up in every plugin.
const (
	InitSymbol   = "Init"
	DeinitSymbol = "Deinit"
)

// ErrReleased is returned by Lookup after Release.
const ErrReleased = sentinel.Error("plugin library released")

// ErrBadSymbol is returned when Init or Deinit has the wrong type.
const ErrBadSymbol = sentinel.Error("plugin symbol has unexpected type")

// Opener abstracts plugin.Open for tests.
type Opener func(path string) (Symbols, error)

// Symbols abstracts *plugin.Plugin for tests.
type Symbols interface {
	Lookup(name string) (goplugin.Symbol, error)
}

// OpenShared opens a shared object with the standard library plugin package.
func OpenShared(path string) (Symbols, error) {
	p, err := goplugin.Open(path)
	if err != nil {
		return nil, err //nolint:wrapcheck // wrapped by Load
	}
	return p, nil
}

// Library is a loaded plugin handle. It implements resource.Library.
type Library struct {
	path string

	mu      sync.Mutex
	symbols Symbols
}

var _ resource.Library = (*Library)(nil)

// Path returns the file the library was loaded from.
func (l *Library) Path() string {
	return l.path
}

// Lookup returns the named symbol until the library is released.
func (l *Library) Lookup(name string) (goplugin.Symbol, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.symbols == nil {
		return nil, fmt.Errorf("lookup %s in %s: %w", name, l.path, ErrReleased)
	}
	sym, err := l.symbols.Lookup(name)
	if err != nil {
		return nil, fmt.Errorf("lookup %s in %s: %w", name, l.path, err)
	}
	return sym, nil
}

// Release drops the library handle.
func (l *Library) Release() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.symbols == nil {
		return fmt.Errorf("release %s: %w", l.path, ErrReleased)
	}
	l.symbols = nil
	return nil
}

// Load opens the plugin at path with open (OpenShared when nil), runs its
// Init symbol if present and returns the registry entry for it.
func Load(name, path string, open Opener) (resource.Plugin, error) {
	if open == nil {
		open = OpenShared
	}
	syms, err := open(path)
	if err != nil {
		return resource.Plugin{}, fmt.Errorf("load plugin %q from %s: %w", name, path, err)
	}
	lib := &Library{path: path, symbols: syms}

	initFn, err := optionalFunc(lib, InitSymbol)
	if err != nil {
		return resource.Plugin{}, fmt.Errorf("load plugin %q: %w", name, err)
	}
	deinitFn, err := optionalFunc(lib, DeinitSymbol)
	if err != nil {
		return resource.Plugin{}, fmt.Errorf("load plugin %q: %w", name, err)
	}

	if initFn != nil {
		if err := initFn(); err != nil {
			_ = lib.Release()
			return resource.Plugin{}, fmt.Errorf("init plugin %q: %w", name, err)
		}
	}

	return resource.Plugin{Name: name, Library: lib, Deinit: deinitFn}, nil
}

// optionalFunc looks up a func() error symbol. A missing symbol yields nil.
func optionalFunc(lib *Library, name string) (func() error, error) {
	sym, err := lib.Lookup(name)
	if err != nil {
		return nil, nil //nolint:nilerr // the symbol is optional
	}
	switch fn := sym.(type) {
	case func() error:
		return fn, nil
	case *func() error:
		if fn == nil || *fn == nil {
			return nil, nil
		}
		return *fn, nil
	default:
		return nil, fmt.Errorf("%s is %T: %w", name, sym, ErrBadSymbol)
	}
}
