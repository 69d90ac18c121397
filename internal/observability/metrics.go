package observability

import (
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/papers-cli/papers/pkg/papers"
)

// Namespace prefixes every metric name.
const Namespace = "papers"

// Request outcomes.
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
	OutcomeRateLimited = "rate_limited"
	OutcomeNetwork     = "network"
)

// Metrics contains the Prometheus metrics of the request pipeline.
type Metrics struct {
	// RequestsTotal counts transport attempts by api and outcome.
	RequestsTotal *prometheus.CounterVec

	// RequestDuration observes attempt latency in seconds by api.
	RequestDuration *prometheus.HistogramVec

	// RetriesTotal counts retries by api and the error kind that caused them.
	RetriesTotal *prometheus.CounterVec

	// CacheLookups counts cache lookups by api and result (hit, miss, expired, error).
	CacheLookups *prometheus.CounterVec
}

var (
	registryMu sync.Mutex
	registries = map[prometheus.Registerer]*Metrics{}
)

// NewMetrics returns the pipeline metrics registered on reg. Calling it again
// with the same registerer returns the same instance, so the OpenAlex and
// Zotero clients can share one registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	registryMu.Lock()
	defer registryMu.Unlock()

	if m, ok := registries[reg]; ok {
		return m
	}

	factory := promauto.With(reg)

	m := &Metrics{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "requests_total",
			Help:      "Total number of HTTP attempts against provider APIs",
		}, []string{"api", "outcome"}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP attempts against provider APIs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"api"}),
		RetriesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "retries_total",
			Help:      "Total number of retried attempts",
		}, []string{"api", "reason"}),
		CacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "cache_lookups_total",
			Help:      "Total number of response cache lookups",
		}, []string{"api", "result"}),
	}

	registries[reg] = m

	return m
}

// ForAPI returns an observer that labels events with api.
func (m *Metrics) ForAPI(api string) *APIObserver {
	return &APIObserver{metrics: m, api: api}
}

// APIObserver records transport, retry and cache events for one provider.
type APIObserver struct {
	metrics *Metrics
	api     string
}

// ObserveRequest records one transport attempt.
func (o *APIObserver) ObserveRequest(status int, err error, elapsed time.Duration) {
	o.metrics.RequestsTotal.WithLabelValues(o.api, Outcome(status, err)).Inc()
	o.metrics.RequestDuration.WithLabelValues(o.api).Observe(elapsed.Seconds())
}

// ObserveRetry records one retry.
func (o *APIObserver) ObserveRetry(kind papers.ErrorKind) {
	o.metrics.RetriesTotal.WithLabelValues(o.api, string(kind)).Inc()
}

// ObserveCache records one cache lookup.
func (o *APIObserver) ObserveCache(result string) {
	o.metrics.CacheLookups.WithLabelValues(o.api, result).Inc()
}

// Outcome maps an attempt onto the outcome label.
func Outcome(status int, err error) string {
	if err != nil {
		var apiErr *papers.Error
		if errors.As(err, &apiErr) && apiErr.Kind == papers.KindRateLimited {
			return OutcomeRateLimited
		}

		return OutcomeNetwork
	}

	switch {
	case status == http.StatusTooManyRequests:
		return OutcomeRateLimited
	case status >= http.StatusInternalServerError:
		return OutcomeServerError
	case status >= http.StatusBadRequest:
		return OutcomeClientError
	default:
		return OutcomeSuccess
	}
}
