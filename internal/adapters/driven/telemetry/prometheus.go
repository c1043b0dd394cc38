package telemetry

import (
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/synapse-labs/synapse/internal/core/domain"
	"github.com/synapse-labs/synapse/internal/core/ports/driven"
)

const metricsNamespace = "synapse"

// Ensure Collector implements both interfaces.
var (
	_ driven.Telemetry     = (*Collector)(nil)
	_ prometheus.Collector = (*Collector)(nil)
)

// Collector is a prometheus.Collector that records gathering metrics.
type Collector struct {
	outcomes        *prometheus.CounterVec
	sourceDuration  *prometheus.HistogramVec
	bundles         *prometheus.CounterVec
	confidence      prometheus.Histogram
	lastConfidence  prometheus.Gauge
	gatherFailures  *prometheus.CounterVec
	gatherDurations prometheus.Histogram
}

// NewCollector returns a new Collector.
func NewCollector() *Collector {
	return &Collector{
		outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "outcomes_total",
			Help:      "Number of settled source outcomes by status and error kind.",
		}, []string{"source", "status", "error_kind"}),
		sourceDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "source",
			Name:      "duration_seconds",
			Help:      "Time taken by live source calls.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15, 20, 30},
		}, []string{"source"}),
		bundles: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gather",
			Name:      "bundles_total",
			Help:      "Number of assembled bundles by viability.",
		}, []string{"viable"}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gather",
			Name:      "confidence",
			Help:      "Overall confidence of assembled bundles.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		lastConfidence: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "gather",
			Name:      "last_confidence",
			Help:      "Overall confidence of the most recent bundle.",
		}),
		gatherFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "gather",
			Name:      "failures_total",
			Help:      "Number of failed gathers by reason.",
		}, []string{"reason"}),
		gatherDurations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "gather",
			Name:      "duration_seconds",
			Help:      "Time taken by whole gathers, successful or not.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 15, 20, 25, 30, 45, 60},
		}),
	}
}

// Describe is part of the prometheus.Collector interface.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	c.outcomes.Describe(ch)
	c.sourceDuration.Describe(ch)
	c.bundles.Describe(ch)
	c.confidence.Describe(ch)
	c.lastConfidence.Describe(ch)
	c.gatherFailures.Describe(ch)
	c.gatherDurations.Describe(ch)
}

// Collect is part of the prometheus.Collector interface.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.outcomes.Collect(ch)
	c.sourceDuration.Collect(ch)
	c.bundles.Collect(ch)
	c.confidence.Collect(ch)
	c.lastConfidence.Collect(ch)
	c.gatherFailures.Collect(ch)
	c.gatherDurations.Collect(ch)
}

// OutcomeRecorded counts the outcome. Cached outcomes do not observe a
// duration since no call was made.
func (c *Collector) OutcomeRecorded(o domain.SourceOutcome) {
	c.outcomes.WithLabelValues(o.SourceID, o.Status.String(), o.ErrorKind.String()).Inc()
	if o.Status != domain.StatusCached {
		c.sourceDuration.WithLabelValues(o.SourceID).Observe(o.Duration.Seconds())
	}
}

// BundleAssembled counts the bundle and records its confidence.
func (c *Collector) BundleAssembled(b *domain.IntelligenceBundle) {
	c.bundles.WithLabelValues(strconv.FormatBool(b.Viable)).Inc()
	c.confidence.Observe(b.OverallConfidence)
	c.lastConfidence.Set(b.OverallConfidence)
	c.gatherDurations.Observe(b.Elapsed.Seconds())
}

// GatherFailed counts the failure by reason.
func (c *Collector) GatherFailed(_ string, err error, _ time.Duration) {
	c.gatherFailures.WithLabelValues(failureReason(err)).Inc()
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrInsufficientIntelligence):
		return "insufficient"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid-input"
	default:
		return "other"
	}
}
