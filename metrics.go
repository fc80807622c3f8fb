package caas

import "github.com/prometheus/client_golang/prometheus"

// Metrics holds the Prometheus collectors the ledger and interceptor
// report against. A nil *Metrics is safe to use (all its methods are
// no-ops), so instrumentation is opt-in: pass nil to
// NewAuditLedger/NewEventInterceptor when no registry is wired.
type Metrics struct {
	appends        prometheus.Counter
	appendSeconds  prometheus.Histogram
	batchesClosed  prometheus.Counter
	chainVerifies  prometheus.Counter
	queueDepth     prometheus.Gauge
	eventsAccepted prometheus.Counter
	eventsDropped  prometheus.Counter
}

// NewMetrics builds a Metrics collector set and registers it with reg.
// Grounded on the teacher pack's direct Prometheus usage
// (certenIO-certen-validator, paulwilltell-OFFGRIDFLOW/internal/observability/metrics.go).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		appends: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caas",
			Subsystem: "ledger",
			Name:      "appends_total",
			Help:      "Total number of records appended to the audit ledger.",
		}),
		appendSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "caas",
			Subsystem: "ledger",
			Name:      "append_seconds",
			Help:      "Latency of a single ledger append, including any Merkle batch close.",
			Buckets:   prometheus.DefBuckets,
		}),
		batchesClosed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caas",
			Subsystem: "ledger",
			Name:      "batches_closed_total",
			Help:      "Total number of Merkle batches closed.",
		}),
		chainVerifies: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caas",
			Subsystem: "ledger",
			Name:      "chain_verifications_total",
			Help:      "Total number of full chain-integrity verification passes.",
		}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "caas",
			Subsystem: "interceptor",
			Name:      "queue_depth",
			Help:      "Current depth of the event interceptor's pull queue.",
		}),
		eventsAccepted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caas",
			Subsystem: "interceptor",
			Name:      "events_accepted_total",
			Help:      "Total number of events counted by the interceptor (accepted into the queue or dropped).",
		}),
		eventsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "caas",
			Subsystem: "interceptor",
			Name:      "events_dropped_total",
			Help:      "Total number of events counted but dropped because the pull queue was full.",
		}),
	}
	if reg != nil {
		reg.MustRegister(
			m.appends, m.appendSeconds, m.batchesClosed, m.chainVerifies,
			m.queueDepth, m.eventsAccepted, m.eventsDropped,
		)
	}
	return m
}

func (m *Metrics) observeAppend(seconds float64) {
	if m == nil {
		return
	}
	m.appends.Inc()
	m.appendSeconds.Observe(seconds)
}

func (m *Metrics) observeBatchClosed() {
	if m == nil {
		return
	}
	m.batchesClosed.Inc()
}

func (m *Metrics) observeChainVerify() {
	if m == nil {
		return
	}
	m.chainVerifies.Inc()
}

func (m *Metrics) setQueueDepth(n int) {
	if m == nil {
		return
	}
	m.queueDepth.Set(float64(n))
}

func (m *Metrics) observeEventAccepted() {
	if m == nil {
		return
	}
	m.eventsAccepted.Inc()
}

func (m *Metrics) observeEventDropped() {
	if m == nil {
		return
	}
	m.eventsDropped.Inc()
}
