package perslc

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/giantswarm/perslc/internal/core"
	"github.com/giantswarm/perslc/internal/dbusconn"
	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/resource"
)

// Compile-time interface satisfaction checks.
var (
	_ Coordinator = (*coordinatorWrapper)(nil)
	_ Persistence = (*persistenceWrapper)(nil)
)

// coordinatorWrapper wraps core.Coordinator to implement the Coordinator
// interface. The core value is a named field rather than embedded so callers
// cannot reach internal methods through a type assertion.
type coordinatorWrapper struct {
	c         *core.Coordinator
	transport nsm.Transport
	p         *persistenceWrapper
}

// Register wraps core.Coordinator.Register.
func (w *coordinatorWrapper) Register(ctx context.Context) error {
	return w.c.Register(ctx)
}

// Unregister wraps core.Coordinator.Unregister.
func (w *coordinatorWrapper) Unregister(ctx context.Context) error {
	return w.c.Unregister(ctx)
}

// Run wraps core.Coordinator.Run.
func (w *coordinatorWrapper) Run(ctx context.Context) error {
	return w.c.Run(ctx)
}

// Persistence returns the runtime wrapper.
//
//nolint:ireturn // Returns Persistence interface by design for testability (mockable).
func (w *coordinatorWrapper) Persistence() Persistence {
	return w.p
}

// TornDown wraps core.Coordinator.TornDown.
func (w *coordinatorWrapper) TornDown() bool {
	return w.c.TornDown()
}

// Close closes the transport if it holds a connection.
func (w *coordinatorWrapper) Close() error {
	if c, ok := w.transport.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// persistenceWrapper exposes core.Runtime through the Persistence interface.
type persistenceWrapper struct {
	rt *core.Runtime
}

func (p *persistenceWrapper) OpenFile(name string, flag int, perm os.FileMode) (int, error) {
	return p.rt.OpenFile(name, flag, perm)
}

func (p *persistenceWrapper) CloseFile(id int) error {
	return p.rt.CloseFile(id)
}

func (p *persistenceWrapper) OpenDatabase(ctx context.Context, path string) (int, error) {
	return p.rt.OpenDatabase(ctx, path)
}

//nolint:ireturn // Database hides the internal guarded handle type.
func (p *persistenceWrapper) Database(slot int) (Database, error) {
	db, err := p.rt.Database(slot)
	if err != nil {
		return nil, err
	}
	return db, nil
}

//nolint:ireturn // Database hides the internal guarded handle type.
func (p *persistenceWrapper) OpenSharedDatabase(ctx context.Context, path string) (Database, error) {
	db, err := p.rt.OpenSharedDatabase(ctx, path)
	if err != nil {
		return nil, err
	}
	return db, nil
}

func (p *persistenceWrapper) LoadPlugin(slot int, name, path string) error {
	return p.rt.LoadPlugin(slot, name, path)
}

func (p *persistenceWrapper) RegisterPlugin(slot int, name string, lib Library, deinit func() error) error {
	return p.rt.RegisterPlugin(slot, resource.Plugin{Name: name, Library: lib, Deinit: deinit})
}

func (p *persistenceWrapper) Access(fn func() error) error {
	return p.rt.Access(fn)
}

// newCoordinator builds the wrapper around transport. It panics on invalid
// configuration like core.NewCoordinator.
func newCoordinator(transport nsm.Transport, cfg coordinatorConfig) *coordinatorWrapper {
	c := core.NewCoordinator(transport, cfg.toCoreConfig())
	return &coordinatorWrapper{
		c:         c,
		transport: transport,
		p:         &persistenceWrapper{rt: c.Runtime()},
	}
}

// Connect opens a connection to the configured bus and returns a
// Coordinator serving lifecycle requests on it. With WithManagerWait it
// also waits for the Node State Manager to appear on the bus. Register and
// Run must still be called.
//
// Panics if any option receives an invalid value. See individual With*
// functions for constraints.
//
//nolint:ireturn // Returns Coordinator interface by design for testability (mockable).
func Connect(ctx context.Context, opts ...Option) (Coordinator, error) {
	cfg := defaultCoordinatorConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := cfg.toCoreConfig().Validate(); err != nil {
		panic(fmt.Sprintf("perslc: invalid coordinator config: %v", err))
	}

	conn, err := dbusconn.Connect(cfg.Bus, cfg.ObjectPath, core.Logger())
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}

	if cfg.ManagerWait > 0 {
		if err := conn.WaitForName(ctx, nsm.BusName, cfg.ManagerWait); err != nil {
			_ = conn.Close()
			return nil, fmt.Errorf("connect: %w", err)
		}
	}

	return newCoordinator(conn, cfg), nil
}
