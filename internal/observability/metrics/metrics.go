package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Metrics exposes application-level instruments.
type Metrics struct {
	gatewayRequests *prometheus.CounterVec
	gatewayRetries  *prometheus.CounterVec
	gatewayDuration *prometheus.HistogramVec
	sagaResults     *prometheus.CounterVec
	reconcileJobs   *prometheus.CounterVec
	jobDuration     *prometheus.HistogramVec
	alerts          *prometheus.CounterVec
}

// New registers payflow instruments on the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		gatewayRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_gateway_requests_total",
			Help: "Gateway API calls by operation and outcome.",
		}, []string{"operation", "outcome"}),
		gatewayRetries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_gateway_retries_total",
			Help: "Gateway API retries by operation.",
		}, []string{"operation"}),
		gatewayDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payflow_gateway_request_duration_seconds",
			Help:    "Gateway API call duration including retries.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
		sagaResults: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_checkout_saga_total",
			Help: "Checkout saga completions by result.",
		}, []string{"result"}),
		reconcileJobs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_reconcile_jobs_total",
			Help: "Reconcile trigger executions by job and result.",
		}, []string{"job", "result"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "payflow_reconcile_job_duration_seconds",
			Help:    "Reconcile job duration.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		alerts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "payflow_operator_alerts_total",
			Help: "Operator alerts emitted by kind.",
		}, []string{"kind"}),
	}
	reg.MustRegister(
		m.gatewayRequests,
		m.gatewayRetries,
		m.gatewayDuration,
		m.sagaResults,
		m.reconcileJobs,
		m.jobDuration,
		m.alerts,
	)
	return m
}

func (m *Metrics) RecordGatewayRequest(operation, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.gatewayRequests.WithLabelValues(operation, outcome).Inc()
	m.gatewayDuration.WithLabelValues(operation).Observe(d.Seconds())
}

func (m *Metrics) RecordGatewayRetry(operation string) {
	if m == nil {
		return
	}
	m.gatewayRetries.WithLabelValues(operation).Inc()
}

func (m *Metrics) RecordSagaResult(result string) {
	if m == nil {
		return
	}
	m.sagaResults.WithLabelValues(result).Inc()
}

func (m *Metrics) RecordReconcileJob(job, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.reconcileJobs.WithLabelValues(job, result).Inc()
	m.jobDuration.WithLabelValues(job).Observe(d.Seconds())
}

func (m *Metrics) RecordAlert(kind string) {
	if m == nil {
		return
	}
	m.alerts.WithLabelValues(kind).Inc()
}

// Module registers instruments on the default prometheus registerer.
var Module = fx.Module("metrics",
	fx.Provide(func() *Metrics {
		return New(prometheus.DefaultRegisterer)
	}),
)
