// Package prometheus implements siteask.Metrics with Prometheus counters.
package prometheus

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/fwojciec/siteask"
)

// Compile-time interface verification.
var _ siteask.Metrics = (*Metrics)(nil)

// Metrics exposes crawl and streaming counters on a Prometheus registerer.
type Metrics struct {
	pagesFetched  prometheus.Counter
	pagesFailed   prometheus.Counter
	assetsStored  *prometheus.CounterVec
	streamsOpen   prometheus.Gauge
	streamsTotal  prometheus.Counter
	eventsEmitted *prometheus.CounterVec
}

// NewMetrics registers the siteask metrics on reg. Pass
// prometheus.DefaultRegisterer for the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		pagesFetched: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "siteask",
			Name:      "crawl_pages_fetched_total",
			Help:      "Pages fetched successfully during crawls",
		}),
		pagesFailed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "siteask",
			Name:      "crawl_pages_failed_total",
			Help:      "Pages that could not be fetched or parsed",
		}),
		assetsStored: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "siteask",
			Name:      "assets_stored_total",
			Help:      "Assets written to the store by kind",
		}, []string{"kind"}),
		streamsOpen: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "siteask",
			Name:      "ask_streams_open",
			Help:      "Ask streams currently running",
		}),
		streamsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "siteask",
			Name:      "ask_streams_total",
			Help:      "Ask streams started",
		}),
		eventsEmitted: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "siteask",
			Name:      "ask_events_emitted_total",
			Help:      "Stream events emitted by type",
		}, []string{"type"}),
	}
}

func (m *Metrics) PageFetched() {
	m.pagesFetched.Inc()
}

func (m *Metrics) PageFailed() {
	m.pagesFailed.Inc()
}

func (m *Metrics) AssetStored(kind siteask.AssetKind) {
	m.assetsStored.WithLabelValues(string(kind)).Inc()
}

func (m *Metrics) StreamStarted() {
	m.streamsTotal.Inc()
	m.streamsOpen.Inc()
}

func (m *Metrics) StreamClosed() {
	m.streamsOpen.Dec()
}

func (m *Metrics) EventEmitted(eventType string) {
	m.eventsEmitted.WithLabelValues(eventType).Inc()
}
