package core

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/prometheus/client_golang/prometheus"
)

// knownShutdownModes is the set of bits a registration mode may carry.
const knownShutdownModes = nsm.ShutdownNormal | nsm.ShutdownFast | nsm.ShutdownRunup

// CoordinatorConfig holds configuration for a Coordinator.
//
// All fields are immutable after construction via NewCoordinator. The
// registries sized here are allocated once and never grown.
type CoordinatorConfig struct {
	// ShutdownMode is the mode passed to RegisterShutdownClient. Default:
	// nsm.ShutdownNormal.
	ShutdownMode nsm.ShutdownType

	// RegisterTimeout is how long the Node State Manager waits for this
	// consumer to answer a lifecycle request before escalating. It is sent
	// in milliseconds and must fit into a uint32. Default: 50 seconds.
	RegisterTimeout time.Duration

	// ObjectPath is the callback object path handed to the manager.
	ObjectPath string

	// MaxHandles is the capacity of the file handle table.
	MaxHandles int

	// DatabaseSlots is the capacity of the database set.
	DatabaseSlots int

	// PluginSlots is the capacity of the plugin registry.
	PluginSlots int

	// ChannelCapacity is the number of commands that may be pending between
	// the bus goroutine and the shutdown worker.
	ChannelCapacity int

	// LockFile, if set, is locked with flock for the duration of teardown
	// so teardowns of processes sharing it never overlap. Persistence
	// access does not take the flock.
	LockFile string

	// MetricsRegisterer receives the perslc collectors. Nil keeps the
	// collectors unregistered.
	MetricsRegisterer prometheus.Registerer

	// OnReport, if set, receives every teardown report.
	OnReport ReportFunc
}

// Validate checks all CoordinatorConfig invariants and returns every
// violation joined with errors.Join.
func (c CoordinatorConfig) Validate() error {
	var errs []error

	if c.ShutdownMode == nsm.ShutdownNotSet || c.ShutdownMode&^knownShutdownModes != 0 {
		errs = append(errs, fmt.Errorf("invalid shutdown mode %#x", uint32(c.ShutdownMode)))
	}
	if c.RegisterTimeout <= 0 {
		errs = append(errs, fmt.Errorf("register timeout must be greater than 0, got %s", c.RegisterTimeout))
	} else if c.RegisterTimeout.Milliseconds() > math.MaxUint32 {
		errs = append(errs, fmt.Errorf("register timeout must fit in uint32 milliseconds, got %s", c.RegisterTimeout))
	}
	if c.ObjectPath == "" {
		errs = append(errs, errors.New("object path must not be empty"))
	}
	if c.MaxHandles <= 0 {
		errs = append(errs, fmt.Errorf("max handles must be greater than 0, got %d", c.MaxHandles))
	}
	if c.DatabaseSlots <= 0 {
		errs = append(errs, fmt.Errorf("database slots must be greater than 0, got %d", c.DatabaseSlots))
	}
	if c.PluginSlots <= 0 {
		errs = append(errs, fmt.Errorf("plugin slots must be greater than 0, got %d", c.PluginSlots))
	}
	if c.ChannelCapacity <= 0 {
		errs = append(errs, fmt.Errorf("channel capacity must be greater than 0, got %d", c.ChannelCapacity))
	}

	return errors.Join(errs...)
}
