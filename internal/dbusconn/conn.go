package dbusconn

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/sentinel"
	"github.com/godbus/dbus/v5"
	"k8s.io/apimachinery/pkg/util/wait"
)

// Bus names accepted by Connect.
const (
	SystemBus  = "system"
	SessionBus = "session"
)

// Standard D-Bus error names sent for calls no handler accepted.
const (
	errorUnknownMethod = "org.freedesktop.DBus.Error.UnknownMethod"
	errorUnknownObject = "org.freedesktop.DBus.Error.UnknownObject"
)

// ErrUnknownBus is returned by Connect for a bus name other than SystemBus
// or SessionBus.
const ErrUnknownBus = sentinel.Error("unknown bus")

// ErrNoUniqueName is returned by UniqueName before the bus assigned one.
const ErrNoUniqueName = sentinel.Error("connection has no unique name")

// ErrConnClosed is returned by Serve when the bus connection goes away.
const ErrConnClosed = sentinel.Error("bus connection closed")

// inboundBuffer is the capacity of the eavesdrop channel. godbus drops a
// message without notice when this channel is full, so it is sized well
// above the handful of calls the manager sends over a process lifetime.
const inboundBuffer = 256

// namePollInterval is the interval between NameHasOwner queries in
// WaitForName.
const namePollInterval = 250 * time.Millisecond

// Conn is a bus connection serving one object path. It implements
// nsm.Transport.
type Conn struct {
	conn *dbus.Conn
	path dbus.ObjectPath
	log  *slog.Logger
}

var _ nsm.Transport = (*Conn)(nil)

// Connect opens a private connection to bus (SystemBus or SessionBus) that
// serves lifecycle calls on objectPath.
func Connect(bus, objectPath string, log *slog.Logger) (*Conn, error) {
	if log == nil {
		log = slog.Default()
	}
	if !dbus.ObjectPath(objectPath).IsValid() {
		return nil, fmt.Errorf("connect: invalid object path %q", objectPath)
	}

	var (
		conn *dbus.Conn
		err  error
	)
	switch bus {
	case SystemBus:
		conn, err = dbus.ConnectSystemBus()
	case SessionBus:
		conn, err = dbus.ConnectSessionBus()
	default:
		return nil, fmt.Errorf("connect %q: %w", bus, ErrUnknownBus)
	}
	if err != nil {
		return nil, fmt.Errorf("connect %s bus: %w", bus, err)
	}

	log.Debug("connected to bus", "bus", bus, "names", conn.Names())
	return &Conn{conn: conn, path: dbus.ObjectPath(objectPath), log: log}, nil
}

// Close closes the connection.
func (c *Conn) Close() error {
	if err := c.conn.Close(); err != nil {
		return fmt.Errorf("close bus connection: %w", err)
	}
	return nil
}

// UniqueName implements nsm.Sender.
func (c *Conn) UniqueName() (string, error) {
	names := c.conn.Names()
	if len(names) == 0 || names[0] == "" {
		return "", ErrNoUniqueName
	}
	return names[0], nil
}

// CallManager implements nsm.Sender. The call is flagged NoReplyExpected.
func (c *Conn) CallManager(ctx context.Context, method string, args ...any) error {
	obj := c.conn.Object(nsm.BusName, dbus.ObjectPath(nsm.ConsumerPath))
	call := obj.GoWithContext(ctx, nsm.ConsumerInterface+"."+method, dbus.FlagNoReplyExpected, nil, args...)
	if call.Err != nil {
		return fmt.Errorf("call %s.%s: %w", nsm.ConsumerInterface, method, call.Err)
	}
	return nil
}

// WaitForName blocks until name has an owner on the bus or timeout expires.
// It must be called before Serve: while serving, method returns are not
// routed back to callers.
func (c *Conn) WaitForName(ctx context.Context, name string, timeout time.Duration) error {
	bus := c.conn.BusObject()
	err := wait.PollUntilContextTimeout(ctx, namePollInterval, timeout, true,
		func(ctx context.Context) (bool, error) {
			var owned bool
			err := bus.CallWithContext(ctx, "org.freedesktop.DBus.NameHasOwner", 0, name).Store(&owned)
			if err != nil {
				c.log.Debug("NameHasOwner failed", "name", name, "error", err)
				return false, nil
			}
			return owned, nil
		})
	if err != nil {
		return fmt.Errorf("wait for %s: %w", name, err)
	}
	return nil
}

// Serve implements nsm.Transport. It routes every inbound method call to h
// until ctx is done or the connection is closed.
func (c *Conn) Serve(ctx context.Context, h nsm.Handler) error {
	in := make(chan *dbus.Message, inboundBuffer)
	c.conn.Eavesdrop(in)
	defer c.conn.Eavesdrop(nil)

	d := dispatcher{path: c.path, send: c.send, log: c.log}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-c.conn.Context().Done():
			return fmt.Errorf("%w: %w", ErrConnClosed, context.Cause(c.conn.Context()))
		case msg, ok := <-in:
			if !ok {
				return ErrConnClosed
			}
			d.dispatch(msg, h)
		}
	}
}

func (c *Conn) send(msg *dbus.Message) error {
	if call := c.conn.Send(msg, nil); call != nil && call.Err != nil {
		return call.Err
	}
	return nil
}
