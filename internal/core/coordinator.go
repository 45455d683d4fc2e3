package core

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/giantswarm/perslc/internal/command"
	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/sentinel"
	"golang.org/x/sync/errgroup"
)

// coordinatorState represents the lifecycle state of a Coordinator.
type coordinatorState uint32

const (
	coordinatorCreated coordinatorState = iota // Zero value; NewCoordinator returns in this state
	coordinatorRunning                         // Run in progress
	coordinatorStopped                         // Run returned
)

// ErrAlreadyRunning is returned by Run when it was already called.
const ErrAlreadyRunning = sentinel.Error("coordinator already running")

// Coordinator wires the bus handler, the command channel and the shutdown
// worker around one persistence Runtime.
//
// Configuration is immutable after construction. The Runtime is usable
// immediately; Run only starts serving lifecycle requests.
type Coordinator struct {
	cfg       CoordinatorConfig
	transport nsm.Transport

	runtime   *Runtime
	channel   *command.Channel
	metrics   *Metrics
	handler   *Handler
	worker    *Orchestrator
	registrar *Registrar

	state atomic.Uint32 // coordinatorState
}

// NewCoordinator creates a Coordinator using transport for all bus traffic.
// This performs no I/O.
//
// Panics if transport is nil or cfg.Validate() reports any errors. Invalid
// configuration is a programmer error that should be caught at construction
// time.
func NewCoordinator(transport nsm.Transport, cfg CoordinatorConfig) *Coordinator {
	if transport == nil {
		panic("perslc: NewCoordinator transport must not be nil")
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("perslc: invalid coordinator config: %v", err))
	}

	log := Logger()
	metrics := NewMetrics(cfg.MetricsRegisterer)
	rt := NewRuntime(RuntimeConfig{
		MaxHandles:    cfg.MaxHandles,
		DatabaseSlots: cfg.DatabaseSlots,
		PluginSlots:   cfg.PluginSlots,
		LockFile:      cfg.LockFile,
	}, log)
	ch := command.NewChannel(cfg.ChannelCapacity)

	return &Coordinator{
		cfg:       cfg,
		transport: transport,
		runtime:   rt,
		channel:   ch,
		metrics:   metrics,
		handler:   NewHandler(ch, metrics, log),
		worker: NewOrchestrator(OrchestratorParams{
			Runtime:  rt,
			Sender:   transport,
			Metrics:  metrics,
			OnReport: cfg.OnReport,
			Logger:   log,
		}),
		registrar: NewRegistrar(transport, cfg.ObjectPath, cfg.RegisterTimeout, log),
	}
}

// Runtime returns the persistence runtime torn down by this Coordinator.
func (c *Coordinator) Runtime() *Runtime {
	return c.runtime
}

// Handler returns the lifecycle request handler.
func (c *Coordinator) Handler() *Handler {
	return c.handler
}

// Orchestrator returns the shutdown worker.
func (c *Coordinator) Orchestrator() *Orchestrator {
	return c.worker
}

// TornDown reports whether the shutdown worker has started teardown.
func (c *Coordinator) TornDown() bool {
	return c.worker.TornDown()
}

// Register announces this process to the Node State Manager with the
// configured shutdown mode and timeout.
func (c *Coordinator) Register(ctx context.Context) error {
	return c.registrar.Register(ctx, c.cfg.ShutdownMode)
}

// Unregister removes the registration made by Register.
func (c *Coordinator) Unregister(ctx context.Context) error {
	return c.registrar.Unregister(ctx, c.cfg.ShutdownMode)
}

// Run serves lifecycle requests and runs the shutdown worker until ctx is
// canceled or the transport fails. A teardown already in progress when ctx
// is canceled finishes before Run returns. Run may be called once.
func (c *Coordinator) Run(ctx context.Context) error {
	if !c.state.CompareAndSwap(uint32(coordinatorCreated), uint32(coordinatorRunning)) {
		return ErrAlreadyRunning
	}
	defer c.state.Store(uint32(coordinatorStopped))
	defer c.channel.Close()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		// The worker drains what was admitted and stops once serving ends.
		defer c.channel.Close()
		if err := c.transport.Serve(gctx, c.handler); err != nil {
			return fmt.Errorf("serve lifecycle requests: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := c.worker.Run(gctx, c.channel); err != nil {
			return fmt.Errorf("shutdown worker: %w", err)
		}
		return nil
	})

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
