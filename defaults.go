package perslc

import (
	"time"

	"github.com/giantswarm/perslc/internal/dbusconn"
	"github.com/giantswarm/perslc/internal/nsm"
)

// Bus names accepted by WithBus.
const (
	SystemBus  = dbusconn.SystemBus
	SessionBus = dbusconn.SessionBus
)

// ShutdownType is a Node State Manager shutdown mode bit set.
type ShutdownType = nsm.ShutdownType

// Shutdown modes a client can register for.
const (
	ShutdownNormal = nsm.ShutdownNormal
	ShutdownFast   = nsm.ShutdownFast
	ShutdownRunup  = nsm.ShutdownRunup
)

// Default configuration values for Connect.
// These constants are exported so callers can build custom configurations
// relative to them.
const (
	// DefaultBus is the bus the Node State Manager lives on.
	DefaultBus = SystemBus

	// DefaultShutdownMode is the mode passed to RegisterShutdownClient.
	// Only normal shutdown requests are accepted by the handler.
	DefaultShutdownMode = ShutdownNormal

	// DefaultRegisterTimeout is the time the Node State Manager waits for
	// LifecycleRequestComplete before it escalates.
	DefaultRegisterTimeout = 50 * time.Second

	// DefaultObjectPath is the callback object path handed to the manager.
	DefaultObjectPath = nsm.LifecycleConsumerPath

	// DefaultMaxHandles is the capacity of the file handle table.
	DefaultMaxHandles = 256

	// DefaultDatabaseSlots is the capacity of the database set.
	DefaultDatabaseSlots = 16

	// DefaultPluginSlots is the capacity of the plugin registry.
	DefaultPluginSlots = 8

	// DefaultChannelCapacity is the number of shutdown commands that may be
	// pending between the bus goroutine and the shutdown worker.
	DefaultChannelCapacity = 1
)
