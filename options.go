package perslc

import (
	"fmt"
	"math"
	"time"

	"github.com/giantswarm/perslc/internal/core"
	"github.com/prometheus/client_golang/prometheus"
)

// requirePositive panics if v <= 0 with a descriptive message.
func requirePositive[T int | time.Duration](name string, v T) {
	if v <= 0 {
		panic(fmt.Sprintf("perslc: %s must be greater than 0, got %v", name, v))
	}
}

// requireNonEmpty panics if s is empty with a descriptive message.
func requireNonEmpty(name, s string) {
	if s == "" {
		panic(fmt.Sprintf("perslc: %s must not be empty", name))
	}
}

// Option configures a Coordinator during construction via Connect.
//
// Several With* functions panic on invalid input. Option values are
// typically constants, so an invalid value is a programmer error rather
// than a runtime condition; the pattern mirrors [regexp.MustCompile].
type Option func(*coordinatorConfig)

// Report describes one teardown run.
type Report = core.Report

// StageError is one resource that failed during teardown.
type StageError = core.StageError

// WithBus selects the bus to connect to: SystemBus or SessionBus.
//
// Default: SystemBus.
//
// Panics on any other value.
func WithBus(bus string) Option {
	if bus != SystemBus && bus != SessionBus {
		panic(fmt.Sprintf("perslc: invalid bus %q", bus))
	}
	return func(c *coordinatorConfig) {
		c.Bus = bus
	}
}

// WithShutdownMode sets the mode passed to RegisterShutdownClient. Modes
// may be combined with |.
//
// Default: ShutdownNormal.
//
// Panics if mode is zero or carries unknown bits.
func WithShutdownMode(mode ShutdownType) Option {
	if mode == 0 || mode&^(ShutdownNormal|ShutdownFast|ShutdownRunup) != 0 {
		panic(fmt.Sprintf("perslc: invalid shutdown mode: %v", mode))
	}
	return func(c *coordinatorConfig) {
		c.ShutdownMode = mode
	}
}

// WithRegisterTimeout sets how long the Node State Manager waits for
// LifecycleRequestComplete. It is sent in whole milliseconds.
//
// Default: 50 seconds.
//
// Panics if d <= 0 or d does not fit into a uint32 of milliseconds.
func WithRegisterTimeout(d time.Duration) Option {
	requirePositive("register timeout", d)
	if d.Milliseconds() > math.MaxUint32 {
		panic(fmt.Sprintf("perslc: register timeout must fit in uint32 milliseconds, got %v", d))
	}
	return func(c *coordinatorConfig) {
		c.RegisterTimeout = d
	}
}

// WithObjectPath sets the callback object path served and handed to the
// manager.
//
// Default: DefaultObjectPath.
//
// Panics if path is empty.
func WithObjectPath(path string) Option {
	requireNonEmpty("object path", path)
	return func(c *coordinatorConfig) {
		c.ObjectPath = path
	}
}

// WithMaxHandles sets the capacity of the file handle table.
//
// Default: 256.
//
// Panics if n <= 0.
func WithMaxHandles(n int) Option {
	requirePositive("max handles", n)
	return func(c *coordinatorConfig) {
		c.MaxHandles = n
	}
}

// WithDatabaseSlots sets the capacity of the database set.
//
// Default: 16.
//
// Panics if n <= 0.
func WithDatabaseSlots(n int) Option {
	requirePositive("database slots", n)
	return func(c *coordinatorConfig) {
		c.DatabaseSlots = n
	}
}

// WithPluginSlots sets the capacity of the plugin registry.
//
// Default: 8.
//
// Panics if n <= 0.
func WithPluginSlots(n int) Option {
	requirePositive("plugin slots", n)
	return func(c *coordinatorConfig) {
		c.PluginSlots = n
	}
}

// WithChannelCapacity sets how many shutdown commands may be pending for
// the worker. Only one shutdown is ever admitted, so values above 1 only
// matter for callers that feed the worker directly.
//
// Default: 1.
//
// Panics if n <= 0.
func WithChannelCapacity(n int) Option {
	requirePositive("channel capacity", n)
	return func(c *coordinatorConfig) {
		c.ChannelCapacity = n
	}
}

// WithLockFile makes teardown also take an exclusive flock on path, so
// teardowns of processes sharing the file never overlap. Persistence
// access does not take the flock.
// The directory is created if missing.
//
// Panics if path is empty.
func WithLockFile(path string) Option {
	requireNonEmpty("lock file path", path)
	return func(c *coordinatorConfig) {
		c.LockFile = path
	}
}

// WithMetricsRegisterer registers the perslc collectors with reg.
//
// Panics if reg is nil.
func WithMetricsRegisterer(reg prometheus.Registerer) Option {
	if reg == nil {
		panic("perslc: metrics registerer must not be nil")
	}
	return func(c *coordinatorConfig) {
		c.MetricsRegisterer = reg
	}
}

// WithReportFunc sets a function receiving the report of every teardown,
// after the completion was sent.
//
// Panics if fn is nil.
func WithReportFunc(fn func(*Report)) Option {
	if fn == nil {
		panic("perslc: report func must not be nil")
	}
	return func(c *coordinatorConfig) {
		c.OnReport = fn
	}
}

// WithManagerWait makes Connect wait up to d for the Node State Manager to
// appear on the bus before returning.
//
// Panics if d <= 0.
func WithManagerWait(d time.Duration) Option {
	requirePositive("manager wait", d)
	return func(c *coordinatorConfig) {
		c.ManagerWait = d
	}
}
