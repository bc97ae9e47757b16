package httpx

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels of a settled request.
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeAborted = "aborted"
)

// Metrics collects Prometheus metrics for the request lifecycle. A nil
// *Metrics records nothing.
type Metrics struct {
	requestsTotal    *prometheus.CounterVec
	requestDuration  *prometheus.HistogramVec
	requestsInFlight *prometheus.GaugeVec
	abortsTotal      *prometheus.CounterVec
}

// NewMetrics registers the collectors on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requestsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bid_requests_total",
				Help: "Total number of settled requests",
			},
			[]string{"method", "status_code", "outcome"},
		),
		requestDuration: f.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "bid_request_duration_seconds",
				Help:    "Duration of requests from dispatch to settlement in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "outcome"},
		),
		requestsInFlight: f.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bid_requests_in_flight",
				Help: "Number of requests currently registered",
			},
			[]string{"method"},
		),
		abortsTotal: f.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bid_aborts_total",
				Help: "Total number of successful Abort calls",
			},
			[]string{"method"},
		),
	}
}

func (m *Metrics) start(method string) {
	if m == nil {
		return
	}
	m.requestsInFlight.WithLabelValues(method).Inc()
}

func (m *Metrics) finish(method string, status int, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requestsInFlight.WithLabelValues(method).Dec()
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(status), outcome).Inc()
	m.requestDuration.WithLabelValues(method, outcome).Observe(d.Seconds())
}

func (m *Metrics) abort(method string) {
	if m == nil {
		return
	}
	m.abortsTotal.WithLabelValues(method).Inc()
}

func outcomeOf(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsAborted(err):
		return OutcomeAborted
	default:
		return OutcomeError
	}
}

func statusOf(resp *Response, err error) int {
	if resp != nil {
		return resp.StatusCode
	}
	if re, ok := AsRequestError(err); ok {
		return re.StatusCode
	}
	return 0
}
