package core

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/giantswarm/perslc/internal/command"
	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/giantswarm/perslc/internal/sentinel"
)

// ErrShutdownInProgress is logged when a shutdown request arrives after one
// was already admitted.
const ErrShutdownInProgress = sentinel.Error("shutdown already admitted")

// Handler answers LifecycleRequest calls from the Node State Manager. It runs
// on the bus goroutine, never touches persistence resources and never blocks:
// an accepted request is handed to the Orchestrator through the command
// channel.
type Handler struct {
	ch       *command.Channel
	metrics  *Metrics
	log      *slog.Logger
	admitted atomic.Bool
}

// NewHandler creates a Handler feeding ch. Panics if ch is nil.
func NewHandler(ch *command.Channel, metrics *Metrics, log *slog.Logger) *Handler {
	if ch == nil {
		panic("perslc: NewHandler channel must not be nil")
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	if log == nil {
		log = Logger()
	}
	return &Handler{ch: ch, metrics: metrics, log: log}
}

// HandleCall implements nsm.Handler.
func (h *Handler) HandleCall(call nsm.Call, r nsm.Replier) nsm.Outcome {
	if call.Interface != nsm.LifecycleConsumerInterface {
		return nsm.NotHandled
	}
	if call.Member != nsm.MethodLifecycleRequest {
		h.log.Debug("unknown lifecycle consumer method", "member", call.Member, "sender", call.Sender)
		return nsm.NotHandled
	}

	kind, requestID, err := lifecycleArgs(call.Body)
	if err != nil {
		h.log.Warn("malformed lifecycle request", "sender", call.Sender, "error", err)
		if rerr := r.ReplyError(nsm.ErrorInvalidArgs, err); rerr != nil {
			h.log.Error("failed to send error reply", "sender", call.Sender, "error", rerr)
			h.metrics.replyFailed()
		}
		return nsm.Handled
	}

	status := h.CheckRequest(kind, requestID)
	h.metrics.observeRequest(kind, status)

	if err := r.ReplyStatus(status); err != nil {
		h.log.Error("failed to send lifecycle reply",
			"request_id", requestID, "status", status, "error", err)
		h.metrics.replyFailed()
	}
	return nsm.Handled
}

// CheckRequest admits a lifecycle request and returns the status to reply
// with. Only ShutdownNormal is supported; it is enqueued for the worker at
// most once per Handler.
func (h *Handler) CheckRequest(kind nsm.ShutdownType, requestID uint32) nsm.ErrorStatus {
	log := h.log.With("request_id", requestID, "kind", kind)

	if kind != nsm.ShutdownNormal {
		log.Warn("unsupported lifecycle request")
		return nsm.StatusParameter
	}

	if !h.admitted.CompareAndSwap(false, true) {
		log.Warn("rejecting lifecycle request", "error", ErrShutdownInProgress)
		return nsm.StatusError
	}

	word, err := command.Encode(command.Request{
		Kind:      kind,
		RequestID: requestID,
		Status:    nsm.StatusOK,
	})
	if err == nil {
		err = h.ch.TrySend(word)
	}
	if err != nil {
		h.admitted.Store(false)
		log.Error("failed to enqueue shutdown request", "error", err)
		return nsm.StatusError
	}

	log.Info("shutdown request accepted")
	return nsm.StatusOK
}

// lifecycleArgs extracts (kind, requestID) from a LifecycleRequest body.
// Trailing arguments are ignored.
func lifecycleArgs(body []any) (nsm.ShutdownType, uint32, error) {
	if len(body) < 2 {
		return 0, 0, fmt.Errorf("expected 2 uint32 arguments, got %d", len(body))
	}
	kind, ok := body[0].(uint32)
	if !ok {
		return 0, 0, fmt.Errorf("argument 0: expected uint32, got %T", body[0])
	}
	id, ok := body[1].(uint32)
	if !ok {
		return 0, 0, fmt.Errorf("argument 1: expected uint32, got %T", body[1])
	}
	return nsm.ShutdownType(kind), id, nil
}
