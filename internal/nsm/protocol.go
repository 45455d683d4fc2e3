package nsm

import "fmt"

// Well-known names of the Node State Manager and of the lifecycle consumer
// object that perslc exports.
const (
	// BusName is the destination of every outbound call.
	BusName = "org.genivi.NodeStateManager"

	// ConsumerPath and ConsumerInterface address the manager's consumer
	// registration object.
	ConsumerPath      = "/org/genivi/NodeStateManager/Consumer"
	ConsumerInterface = "org.genivi.NodeStateManager.Consumer"

	// LifecycleConsumerPath is the callback object path handed to the manager
	// at registration. The manager calls LifecycleRequest on it.
	LifecycleConsumerPath      = "/org/genivi/NodeStateManager/LifeCycleConsumer"
	LifecycleConsumerInterface = "org.genivi.NodeStateManager.LifeCycleConsumer"
)

// Method names.
const (
	MethodLifecycleRequest         = "LifecycleRequest"
	MethodRegisterShutdownClient   = "RegisterShutdownClient"
	MethodUnRegisterShutdownClient = "UnRegisterShutdownClient"
	MethodLifecycleRequestComplete = "LifecycleRequestComplete"
)

// ErrorInvalidArgs is the D-Bus error name used for malformed inbound calls.
const ErrorInvalidArgs = "org.freedesktop.DBus.Error.InvalidArgs"

// ShutdownType is the lifecycle request kind and, at registration, the
// shutdown mode a consumer subscribes to.
type ShutdownType uint32

const (
	ShutdownNotSet ShutdownType = 0
	ShutdownNormal ShutdownType = 1
	ShutdownFast   ShutdownType = 2
	ShutdownRunup  ShutdownType = 0x80000000
)

// String returns the name of the shutdown type.
func (s ShutdownType) String() string {
	switch s {
	case ShutdownNotSet:
		return "NotSet"
	case ShutdownNormal:
		return "Normal"
	case ShutdownFast:
		return "Fast"
	case ShutdownRunup:
		return "Runup"
	default:
		return fmt.Sprintf("ShutdownType(%#x)", uint32(s))
	}
}

// ErrorStatus is the status value exchanged in replies and completions.
type ErrorStatus int32

const (
	StatusNotSet          ErrorStatus = 0
	StatusOK              ErrorStatus = 1
	StatusError           ErrorStatus = 2
	StatusDbus            ErrorStatus = 3
	StatusInternal        ErrorStatus = 4
	StatusParameter       ErrorStatus = 5
	StatusWrongSession    ErrorStatus = 6
	StatusResponsePending ErrorStatus = 7
)

// String returns the name of the status.
func (s ErrorStatus) String() string {
	switch s {
	case StatusNotSet:
		return "NotSet"
	case StatusOK:
		return "OK"
	case StatusError:
		return "Error"
	case StatusDbus:
		return "Dbus"
	case StatusInternal:
		return "Internal"
	case StatusParameter:
		return "Parameter"
	case StatusWrongSession:
		return "WrongSession"
	case StatusResponsePending:
		return "ResponsePending"
	default:
		return fmt.Sprintf("ErrorStatus(%d)", int32(s))
	}
}
