package core

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/giantswarm/perslc/internal/nsm"
)

// Registrar registers this process as a shutdown client of the Node State
// Manager and unregisters it again.
type Registrar struct {
	sender     nsm.Sender
	objectPath string
	timeout    time.Duration
	log        *slog.Logger
}

// NewRegistrar creates a Registrar announcing objectPath with the given
// response timeout. Panics if sender is nil.
func NewRegistrar(sender nsm.Sender, objectPath string, timeout time.Duration, log *slog.Logger) *Registrar {
	if sender == nil {
		panic("perslc: NewRegistrar sender must not be nil")
	}
	if log == nil {
		log = Logger()
	}
	return &Registrar{sender: sender, objectPath: objectPath, timeout: timeout, log: log}
}

// Register sends RegisterShutdownClient(busName, objectPath, mode, timeoutMs).
func (r *Registrar) Register(ctx context.Context, mode nsm.ShutdownType) error {
	busName, err := r.sender.UniqueName()
	if err != nil {
		r.log.Error("failed to get unique bus name", "error", err)
		return fmt.Errorf("register shutdown client: %w", err)
	}

	timeoutMs := uint32(r.timeout.Milliseconds()) //nolint:gosec // range checked by CoordinatorConfig.Validate
	err = r.sender.CallManager(ctx, nsm.MethodRegisterShutdownClient,
		busName, r.objectPath, uint32(mode), timeoutMs)
	if err != nil {
		r.log.Error("failed to register shutdown client",
			"bus_name", busName, "mode", mode, "error", err)
		return fmt.Errorf("register shutdown client: %w", err)
	}

	r.log.Info("registered shutdown client",
		"bus_name", busName, "object_path", r.objectPath, "mode", mode, "timeout_ms", timeoutMs)
	return nil
}

// Unregister sends UnRegisterShutdownClient(busName, objectPath, mode).
func (r *Registrar) Unregister(ctx context.Context, mode nsm.ShutdownType) error {
	busName, err := r.sender.UniqueName()
	if err != nil {
		r.log.Error("failed to get unique bus name", "error", err)
		return fmt.Errorf("unregister shutdown client: %w", err)
	}

	err = r.sender.CallManager(ctx, nsm.MethodUnRegisterShutdownClient,
		busName, r.objectPath, uint32(mode))
	if err != nil {
		r.log.Error("failed to unregister shutdown client",
			"bus_name", busName, "mode", mode, "error", err)
		return fmt.Errorf("unregister shutdown client: %w", err)
	}

	r.log.Info("unregistered shutdown client", "bus_name", busName, "mode", mode)
	return nil
}
