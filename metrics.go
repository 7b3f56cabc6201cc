package terminology

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names used as metric labels.
const (
	OpLookup              = "lookup"
	OpValidateCode        = "validate_code"
	OpValidateValueSet    = "validate_valueset_code"
	OpExpand              = "expand"
	OpCodeSystemConcepts  = "codesystem_concepts"
	OutcomeSuccess        = "success"
	OutcomeBadRequest     = "bad_request"
	OutcomeNotFound       = "not_found"
	OutcomeError          = "error"
	DropReasonMalformed   = "malformed"
	DropReasonUnresolved  = "unresolved"
	DropReasonIneligible  = "ineligible"
	defaultNamespace      = "ocl_terminology"
	metricsSubsystemCache = "cache"
)

// Metrics records terminology operation metrics on a private registry.
// All methods are safe for concurrent use and tolerate a nil receiver.
type Metrics struct {
	registry *prometheus.Registry

	operationsTotal   *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	droppedReferences *prometheus.CounterVec
	cacheHits         *prometheus.CounterVec
	cacheMisses       *prometheus.CounterVec
}

// NewMetrics creates metrics registered on a new registry. An empty
// namespace defaults to "ocl_terminology".
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = defaultNamespace
	}

	m := &Metrics{registry: prometheus.NewRegistry()}

	m.operationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Total number of terminology operations",
		},
		[]string{"operation", "outcome"},
	)
	m.operationDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Terminology operation duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"operation"},
	)
	m.droppedReferences = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "expansion_dropped_references_total",
			Help:      "Reference expressions omitted from expansions",
		},
		[]string{"reason"},
	)
	m.cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystemCache,
			Name:      "hits_total",
			Help:      "Repository cache hits",
		},
		[]string{"kind"},
	)
	m.cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: metricsSubsystemCache,
			Name:      "misses_total",
			Help:      "Repository cache misses",
		},
		[]string{"kind"},
	)

	m.registry.MustRegister(
		m.operationsTotal,
		m.operationDuration,
		m.droppedReferences,
		m.cacheHits,
		m.cacheMisses,
	)
	return m
}

// Registry returns the registry holding all metrics.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordOperation records a completed operation and its outcome.
func (m *Metrics) RecordOperation(operation string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	m.operationsTotal.WithLabelValues(operation, Outcome(err)).Inc()
	m.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordDroppedReference records a reference omitted from an expansion.
func (m *Metrics) RecordDroppedReference(reason string) {
	if m == nil {
		return
	}
	m.droppedReferences.WithLabelValues(reason).Inc()
}

// RecordCacheHit records a cache hit for kind.
func (m *Metrics) RecordCacheHit(kind string) {
	if m == nil {
		return
	}
	m.cacheHits.WithLabelValues(kind).Inc()
}

// RecordCacheMiss records a cache miss for kind.
func (m *Metrics) RecordCacheMiss(kind string) {
	if m == nil {
		return
	}
	m.cacheMisses.WithLabelValues(kind).Inc()
}

// Outcome classifies err for the outcome label.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeSuccess
	case IsBadRequest(err):
		return OutcomeBadRequest
	case IsNotFound(err):
		return OutcomeNotFound
	default:
		return OutcomeError
	}
}
