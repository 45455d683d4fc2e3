package core

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/giantswarm/perslc/internal/command"
	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/sentinel"
	"github.com/google/uuid"
)

// ErrAlreadyTornDown is returned by PrepareShutdown after the runtime has
// been torn down once. Teardown is terminal for the process.
const ErrAlreadyTornDown = sentinel.Error("persistence runtime already torn down")

// OrchestratorParams holds the dependencies of an Orchestrator.
type OrchestratorParams struct {
	Runtime  *Runtime
	Sender   nsm.Sender
	Metrics  *Metrics
	OnReport ReportFunc
	Logger   *slog.Logger
}

// Orchestrator is the shutdown worker. It consumes commands from the channel
// and tears down the Runtime in a fixed order:
//
//  1. take the AccessLock exclusively
//  2. flush and close every open file handle
//  3. close every database in the database set
//  4. close all remaining databases through the SQLite registry
//  5. deinitialize and release every plugin that has a Deinit callback
//  6. seal the lock, send LifecycleRequestComplete, then release the lock
//
// A failure in one resource is recorded and teardown moves on. Teardown runs
// at most once per Orchestrator.
type Orchestrator struct {
	rt       *Runtime
	sender   nsm.Sender
	metrics  *Metrics
	onReport ReportFunc
	log      *slog.Logger

	ran atomic.Bool
}

// NewOrchestrator creates an Orchestrator. Panics if Runtime or Sender is nil.
func NewOrchestrator(p OrchestratorParams) *Orchestrator {
	if p.Runtime == nil {
		panic("perslc: NewOrchestrator runtime must not be nil")
	}
	if p.Sender == nil {
		panic("perslc: NewOrchestrator sender must not be nil")
	}
	if p.Metrics == nil {
		p.Metrics = NewMetrics(nil)
	}
	if p.Logger == nil {
		p.Logger = Logger()
	}
	return &Orchestrator{
		rt:       p.Runtime,
		sender:   p.Sender,
		metrics:  p.Metrics,
		onReport: p.OnReport,
		log:      p.Logger,
	}
}

// TornDown reports whether teardown has started.
func (o *Orchestrator) TornDown() bool {
	return o.ran.Load()
}

// Run blocks on ch and runs PrepareShutdown for every command received. It
// returns nil when ch is closed and the context error when ctx is done while
// idle. A teardown in progress is never interrupted by ctx.
func (o *Orchestrator) Run(ctx context.Context, ch *command.Channel) error {
	for {
		word, err := ch.Receive(ctx)
		if err != nil {
			if errors.Is(err, command.ErrChannelClosed) {
				return nil
			}
			return err
		}

		req := command.Decode(word)
		if req.Kind != nsm.ShutdownNormal {
			o.log.Error("discarding unknown command", "word", fmt.Sprintf("%#x", word), "kind", req.Kind)
			continue
		}

		if _, err := o.PrepareShutdown(ctx, req); err != nil {
			o.log.Error("shutdown request rejected by worker",
				"request_id", req.RequestID, "error", err)
		}
	}
}

// PrepareShutdown runs the full teardown for req and sends the completion
// message with req.RequestID and req.Status. It returns ErrAlreadyTornDown,
// without touching any resource, if teardown already ran.
func (o *Orchestrator) PrepareShutdown(ctx context.Context, req command.Request) (*Report, error) {
	if !o.ran.CompareAndSwap(false, true) {
		return nil, ErrAlreadyTornDown
	}

	// Teardown must run to completion once started.
	ctx = context.WithoutCancel(ctx)

	rep := &Report{
		RunID:   uuid.NewString(),
		Request: req,
		Started: time.Now(),
	}
	log := o.log.With("run_id", rep.RunID, "request_id", req.RequestID)
	log.Info("prepare shutdown started")

	if err := o.rt.Lock.Lock(ctx); err != nil {
		log.Warn("lock file not acquired; continuing with in-process lock", "error", err)
		rep.fail(StageLock, -1, "", err)
	}

	o.closeHandles(log, rep)
	o.closeDatabases(log, rep)
	o.closeAllDatabases(log, rep)
	o.deinitPlugins(log, rep)

	o.rt.Lock.Seal()
	o.notify(ctx, log, rep)
	o.rt.Lock.Unlock()

	rep.Duration = time.Since(rep.Started)
	o.metrics.observeReport(rep)

	if err := rep.Err(); err != nil {
		log.Warn("prepare shutdown finished with failures",
			"failures", len(rep.Failures), "duration", rep.Duration, "error", err)
	} else {
		log.Info("prepare shutdown finished",
			"handles", rep.HandlesClosed,
			"databases", rep.DatabasesClosed,
			"plugins", rep.PluginsDeinitialized,
			"duration", rep.Duration)
	}

	if o.onReport != nil {
		o.onReport(rep)
	}
	return rep, nil
}

func (o *Orchestrator) closeHandles(log *slog.Logger, rep *Report) {
	for _, id := range o.rt.Handles.OpenIDs() {
		if err := o.rt.Handles.FlushAndClose(id); err != nil {
			log.Error("flush and close handle failed", "handle", id, "error", err)
			rep.fail(StageHandles, id, "", err)
			continue
		}
		rep.HandlesClosed++
	}
}

func (o *Orchestrator) closeDatabases(log *slog.Logger, rep *Report) {
	for _, slot := range o.rt.Databases.Occupied() {
		if err := o.rt.Databases.CloseAt(slot); err != nil {
			log.Error("close database failed", "slot", slot, "error", err)
			rep.fail(StageDatabases, slot, "", err)
			continue
		}
		rep.DatabasesClosed++
	}
}

func (o *Orchestrator) closeAllDatabases(log *slog.Logger, rep *Report) {
	n, err := o.rt.SQLite.CloseAll()
	rep.DatabasesClosed += n
	if err != nil {
		log.Error("close all databases failed", "closed", n, "error", err)
		rep.fail(StageCloseAll, -1, "", err)
	}
}

func (o *Orchestrator) deinitPlugins(log *slog.Logger, rep *Report) {
	for _, slot := range o.rt.Plugins.Deinitializable() {
		p, _ := o.rt.Plugins.Get(slot)
		if err := o.rt.Plugins.Teardown(slot); err != nil {
			log.Error("plugin teardown failed", "slot", slot, "plugin", p.Name, "error", err)
			rep.fail(StagePlugins, slot, p.Name, err)
			continue
		}
		rep.PluginsDeinitialized++
	}
}

func (o *Orchestrator) notify(ctx context.Context, log *slog.Logger, rep *Report) {
	err := o.sender.CallManager(ctx, nsm.MethodLifecycleRequestComplete,
		int32(rep.Request.RequestID), //nolint:gosec // the manager defines requestId as int32 on the wire
		int32(rep.Request.Status))
	if err != nil {
		log.Error("send lifecycle request complete failed", "error", err)
		rep.fail(StageNotify, -1, "", err)
		return
	}
	rep.Notified = true
}
