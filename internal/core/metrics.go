package core

import (
	"github.com/giantswarm/perslc/internal/nsm"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the perslc collectors.
//
//	perslc_lifecycle_requests_total        counter: inbound requests by kind and status
//	perslc_reply_failures_total            counter: replies that could not be sent
//	perslc_teardown_failures_total         counter: per-resource teardown failures by stage
//	perslc_teardown_duration_seconds       histogram: teardown time, lock wait included
//	perslc_completions_total               counter: completion messages by result
type Metrics struct {
	requests         *prometheus.CounterVec
	replyFailures    prometheus.Counter
	teardownFailures *prometheus.CounterVec
	teardownDuration prometheus.Histogram
	completions      *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered but usable. Panics on duplicate registration,
// like prometheus.MustRegister.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perslc_lifecycle_requests_total",
			Help: "Lifecycle requests received from the Node State Manager.",
		}, []string{"kind", "status"}),
		replyFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "perslc_reply_failures_total",
			Help: "Replies to lifecycle requests that could not be sent.",
		}),
		teardownFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perslc_teardown_failures_total",
			Help: "Resources that failed to close during teardown.",
		}, []string{"stage"}),
		teardownDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "perslc_teardown_duration_seconds",
			Help:    "Teardown time from admission by the worker, including the wait for the access lock, to sending the completion.",
			Buckets: []float64{.001, .005, .01, .05, .1, .5, 1, 5, 10, 30},
		}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "perslc_completions_total",
			Help: "LifecycleRequestComplete messages by send result.",
		}, []string{"result"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.replyFailures, m.teardownFailures, m.teardownDuration, m.completions)
	}
	return m
}

func (m *Metrics) observeReport(r *Report) {
	for _, f := range r.Failures {
		if f.Stage == StageNotify {
			continue
		}
		m.teardownFailures.WithLabelValues(string(f.Stage)).Inc()
	}
	m.teardownDuration.Observe(r.Duration.Seconds())
	if r.Notified {
		m.completions.WithLabelValues("sent").Inc()
	} else {
		m.completions.WithLabelValues("failed").Inc()
	}
}

func (m *Metrics) observeRequest(kind nsm.ShutdownType, status nsm.ErrorStatus) {
	m.requests.WithLabelValues(kindLabel(kind), status.String()).Inc()
}

func (m *Metrics) replyFailed() {
	m.replyFailures.Inc()
}

// kindLabel bounds the kind label to the known shutdown types.
func kindLabel(kind nsm.ShutdownType) string {
	switch kind {
	case nsm.ShutdownNotSet, nsm.ShutdownNormal, nsm.ShutdownFast, nsm.ShutdownRunup:
		return kind.String()
	default:
		return "other"
	}
}
