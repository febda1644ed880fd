package p2p

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const (
	// MetricsSubsystem is a subsystem shared by all metrics exposed by this
	// package.
	MetricsSubsystem = "handshake"
)

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Handshake requests sent.
	Attempts metrics.Counter
	// Handshakes that ended in an error, labeled by "reason".
	Failures metrics.Counter
	// Second attempts made with the genesis reported by the peer.
	GenesisRetries metrics.Counter
	// Time from sending a request until its response was interpreted.
	Duration metrics.Histogram
}

// PrometheusMetrics returns Metrics build using Prometheus client library.
// Optionally, labels can be provided along with their values ("foo",
// "fooValue").
func PrometheusMetrics(namespace string, labelsAndValues ...string) *Metrics {
	labels := []string{}
	for i := 0; i < len(labelsAndValues); i += 2 {
		labels = append(labels, labelsAndValues[i])
	}
	return &Metrics{
		Attempts: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "attempts_total",
			Help:      "Number of handshake requests sent.",
		}, labels).With(labelsAndValues...),
		Failures: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failures_total",
			Help:      "Number of failed handshakes by reason.",
		}, append(labels, "reason")).With(labelsAndValues...),
		GenesisRetries: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "genesis_retries_total",
			Help:      "Number of handshakes retried with the genesis reported by the peer.",
		}, labels).With(labelsAndValues...),
		Duration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "duration_seconds",
			Help:      "Round trip time of a handshake request in seconds.",
			Buckets:   stdprometheus.ExponentialBuckets(0.005, 2, 12),
		}, labels).With(labelsAndValues...),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		Attempts:       discard.NewCounter(),
		Failures:       discard.NewCounter(),
		GenesisRetries: discard.NewCounter(),
		Duration:       discard.NewHistogram(),
	}
}
