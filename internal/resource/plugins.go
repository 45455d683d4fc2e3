package resource

import (
	"errors"
	"fmt"
	"sync"
)

// Library is a loaded plugin library handle.
type Library interface {
	Release() error
}

// Plugin describes one loaded custom storage plugin. Deinit may be nil, in
// which case the plugin is not torn down at shutdown.
//
// Deinit runs while teardown holds the AccessLock exclusively. It must not
// take the lock again (through Runtime.Access or any persistence call): the
// lock is not reentrant, so teardown would deadlock and no completion would
// be sent.
type Plugin struct {
	Name    string
	Library Library
	Deinit  func() error
}

type pluginSlot struct {
	plugin Plugin
	used   bool
	done   bool
}

// PluginRegistry is a fixed-size array of loaded plugins indexed by slot.
//
// Teardown runs Deinit at most once per slot and releases the library only
// after Deinit has returned.
type PluginRegistry struct {
	mu    sync.Mutex
	slots []pluginSlot
}

// NewPluginRegistry creates a registry with capacity slots.
// Panics if capacity < 1.
func NewPluginRegistry(capacity int) *PluginRegistry {
	if capacity < 1 {
		panic(fmt.Sprintf("perslc: plugin registry capacity must be greater than 0, got %d", capacity))
	}
	return &PluginRegistry{slots: make([]pluginSlot, capacity)}
}

// Cap returns the fixed capacity of the registry.
func (r *PluginRegistry) Cap() int {
	return len(r.slots)
}

// Set stores p in slot idx, which must be unused.
func (r *PluginRegistry) Set(idx int, p Plugin) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx < 0 || idx >= len(r.slots) {
		return fmt.Errorf("plugin slot %d: %w", idx, ErrInvalidID)
	}
	if r.slots[idx].used {
		return fmt.Errorf("plugin slot %d already in use by %q", idx, r.slots[idx].plugin.Name)
	}
	r.slots[idx] = pluginSlot{plugin: p, used: true}
	return nil
}

// Get returns the plugin in slot idx.
func (r *PluginRegistry) Get(idx int) (Plugin, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx < 0 || idx >= len(r.slots) || !r.slots[idx].used {
		return Plugin{}, false
	}
	return r.slots[idx].plugin, true
}

// Deinitializable returns the slots holding a plugin with a Deinit callback
// that has not been torn down yet, in index order.
func (r *PluginRegistry) Deinitializable() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	var idxs []int
	for idx, s := range r.slots {
		if s.used && !s.done && s.plugin.Deinit != nil {
			idxs = append(idxs, idx)
		}
	}
	return idxs
}

// Teardown calls the Deinit callback of slot idx and then releases its
// library. A panic in Deinit is recovered and reported as an error; the
// library is released either way.
func (r *PluginRegistry) Teardown(idx int) error {
	r.mu.Lock()
	if idx < 0 || idx >= len(r.slots) {
		r.mu.Unlock()
		return fmt.Errorf("plugin slot %d: %w", idx, ErrInvalidID)
	}
	s := r.slots[idx]
	if !s.used || s.plugin.Deinit == nil {
		r.mu.Unlock()
		return fmt.Errorf("plugin slot %d: %w", idx, ErrNotOpen)
	}
	if s.done {
		r.mu.Unlock()
		return fmt.Errorf("plugin %q: %w", s.plugin.Name, ErrAlreadyDeinitialized)
	}
	r.slots[idx].done = true
	r.mu.Unlock()

	var errs []error
	if err := safeDeinit(s.plugin.Deinit); err != nil {
		errs = append(errs, fmt.Errorf("deinit plugin %q: %w", s.plugin.Name, err))
	}
	if s.plugin.Library != nil {
		if err := s.plugin.Library.Release(); err != nil {
			errs = append(errs, fmt.Errorf("release plugin %q: %w", s.plugin.Name, err))
		}
	}
	return errors.Join(errs...)
}

func safeDeinit(fn func() error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
