package perslc

import (
	"time"

	"github.com/giantswarm/perslc/internal/core"
)

// coordinatorConfig holds configuration for Connect. It wraps
// core.CoordinatorConfig via embedding, keeping internal/core types out of
// the public API signature, and adds the connection settings that only the
// public constructor uses.
type coordinatorConfig struct {
	core.CoordinatorConfig

	// Bus is SystemBus or SessionBus.
	Bus string

	// ManagerWait, if positive, makes Connect wait up to this long for the
	// Node State Manager to own its bus name.
	ManagerWait time.Duration
}

// toCoreConfig returns the embedded core.CoordinatorConfig.
func (c coordinatorConfig) toCoreConfig() core.CoordinatorConfig {
	return c.CoordinatorConfig
}

// defaultCoordinatorConfig returns a coordinatorConfig populated with all
// default values.
func defaultCoordinatorConfig() coordinatorConfig {
	return coordinatorConfig{
		CoordinatorConfig: core.CoordinatorConfig{
			ShutdownMode:    DefaultShutdownMode,
			RegisterTimeout: DefaultRegisterTimeout,
			ObjectPath:      DefaultObjectPath,
			MaxHandles:      DefaultMaxHandles,
			DatabaseSlots:   DefaultDatabaseSlots,
			PluginSlots:     DefaultPluginSlots,
			ChannelCapacity: DefaultChannelCapacity,
		},
		Bus: DefaultBus,
	}
}
