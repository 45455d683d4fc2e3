package perslc

import (
	"time"

	"github.com/giantswarm/perslc/internal/nsm"
)

// ConfigSnapshot holds a copy of coordinatorConfig fields for test
// assertions. Exported only via export_test.go so that the _test package can
// verify option closures actually mutate the config.
type ConfigSnapshot struct {
	Bus             string
	ManagerWait     time.Duration
	ShutdownMode    ShutdownType
	RegisterTimeout time.Duration
	ObjectPath      string
	MaxHandles      int
	DatabaseSlots   int
	PluginSlots     int
	ChannelCapacity int
	LockFile        string
	HasMetrics      bool
	HasReportFunc   bool
}

// ApplyOptionsForTesting creates a default coordinatorConfig, applies the
// given options, and returns a ConfigSnapshot of the result.
func ApplyOptionsForTesting(opts ...Option) ConfigSnapshot {
	cfg := defaultCoordinatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return ConfigSnapshot{
		Bus:             cfg.Bus,
		ManagerWait:     cfg.ManagerWait,
		ShutdownMode:    cfg.ShutdownMode,
		RegisterTimeout: cfg.RegisterTimeout,
		ObjectPath:      cfg.ObjectPath,
		MaxHandles:      cfg.MaxHandles,
		DatabaseSlots:   cfg.DatabaseSlots,
		PluginSlots:     cfg.PluginSlots,
		ChannelCapacity: cfg.ChannelCapacity,
		LockFile:        cfg.LockFile,
		HasMetrics:      cfg.MetricsRegisterer != nil,
		HasReportFunc:   cfg.OnReport != nil,
	}
}

// NewWithTransportForTesting builds a Coordinator on top of transport
// instead of a bus connection.
//
//nolint:ireturn // test helper mirrors Connect.
func NewWithTransportForTesting(transport nsm.Transport, opts ...Option) Coordinator {
	cfg := defaultCoordinatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return newCoordinator(transport, cfg)
}
